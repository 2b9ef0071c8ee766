package model

import (
	"sort"
	"time"
)

// SectionID identifies one of the three fixed assessment sections
type SectionID string

const (
	SectionWorship      SectionID = "worship"
	SectionDiscipleship SectionID = "discipleship"
	SectionMission      SectionID = "mission"
)

// PointID identifies one of the ten fixed assessment points
type PointID string

const (
	// Section 1: Worship
	PointScriptureGospelCentrality  PointID = "scriptureGospelCentrality"
	PointWorshipPreachingSacraments PointID = "worshipPreachingSacraments"
	PointPrimacyOfPrayer            PointID = "primacyOfPrayer"

	// Section 2: Discipleship
	PointDiscipleshipPracticedIntentionally PointID = "discipleshipPracticedIntentionally"
	PointNTPatternsOfChurchLife             PointID = "ntPatternsOfChurchLife"
	PointLeadershipDevelopment              PointID = "leadershipDevelopment"
	PointCultureOfGenerosity                PointID = "cultureOfGenerosity"

	// Section 3: Mission
	PointCityCultureEngagement       PointID = "cityCultureEngagement"
	PointEvangelismContextualization PointID = "evangelismContextualization"
	PointChurchPlantingPartnerships  PointID = "churchPlantingPartnerships"
)

// Sections lists the sections in assessment order
var Sections = []SectionID{SectionWorship, SectionDiscipleship, SectionMission}

// SectionPoints lists each section's points in assessment order (3/4/3)
var SectionPoints = map[SectionID][]PointID{
	SectionWorship: {
		PointScriptureGospelCentrality,
		PointWorshipPreachingSacraments,
		PointPrimacyOfPrayer,
	},
	SectionDiscipleship: {
		PointDiscipleshipPracticedIntentionally,
		PointNTPatternsOfChurchLife,
		PointLeadershipDevelopment,
		PointCultureOfGenerosity,
	},
	SectionMission: {
		PointCityCultureEngagement,
		PointEvangelismContextualization,
		PointChurchPlantingPartnerships,
	},
}

// AllPoints lists the ten points in radar-chart order (point numbers 1..10)
var AllPoints = []PointID{
	PointScriptureGospelCentrality,
	PointWorshipPreachingSacraments,
	PointPrimacyOfPrayer,
	PointDiscipleshipPracticedIntentionally,
	PointNTPatternsOfChurchLife,
	PointLeadershipDevelopment,
	PointCultureOfGenerosity,
	PointCityCultureEngagement,
	PointEvangelismContextualization,
	PointChurchPlantingPartnerships,
}

// SectionLabels are display titles for the sections
var SectionLabels = map[SectionID]string{
	SectionWorship:      "Worship",
	SectionDiscipleship: "Discipleship",
	SectionMission:      "Mission",
}

// PointLabels are display titles for the points, in AllPoints order
var PointLabels = []string{
	"Scripture & Gospel Centrality",
	"Worship, Preaching, Sacraments",
	"Primacy of Prayer",
	"Discipleship Practiced Intentionally",
	"NT Patterns of Church Life",
	"Leadership Development",
	"Culture of Generosity",
	"City Culture Engagement",
	"Evangelism Contextualization",
	"Church Planting & Partnerships",
}

// Number returns the 1-based section number, or 0 for an unknown section
func (s SectionID) Number() int {
	for i, id := range Sections {
		if id == s {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether s is one of the fixed sections
func (s SectionID) Valid() bool {
	return s.Number() != 0
}

// SectionByNumber maps 1..3 to a section
func SectionByNumber(n int) (SectionID, bool) {
	if n < 1 || n > len(Sections) {
		return "", false
	}
	return Sections[n-1], true
}

// Number returns the 1-based point number, or 0 for an unknown point
func (p PointID) Number() int {
	for i, id := range AllPoints {
		if id == p {
			return i + 1
		}
	}
	return 0
}

// Option is one of the five answer choices of a sub-question
type Option struct {
	Score       int    `json:"score" bson:"score" validate:"min=1,max=5"`
	Label       string `json:"label" bson:"label" validate:"required"`
	Description string `json:"description" bson:"description" validate:"required"`
}

// SubQuestion is a single scored survey item.
// Options and ReflectionText are optional; older question banks carry neither.
type SubQuestion struct {
	ID             string   `json:"id" bson:"id" validate:"required"`
	Text           string   `json:"text" bson:"text"`
	Order          int      `json:"order" bson:"order" validate:"min=1"`
	Options        []Option `json:"options,omitempty" bson:"options,omitempty" validate:"omitempty,len=5,dive"`
	ReflectionText string   `json:"reflection_text,omitempty" bson:"reflection_text,omitempty"`
}

// HasOptions reports whether the sub-question carries its own option set
func (q *SubQuestion) HasOptions() bool {
	return len(q.Options) > 0
}

// HasReflection reports whether the sub-question generates a reflection step
func (q *SubQuestion) HasReflection() bool {
	return q.ReflectionText != ""
}

// Point is one of the ten assessment dimensions
type Point struct {
	ID           PointID       `json:"id" bson:"id" validate:"required"`
	Title        string        `json:"title" bson:"title"`
	Description  string        `json:"description,omitempty" bson:"description,omitempty"`
	SubQuestions []SubQuestion `json:"subQuestions" bson:"subQuestions" validate:"min=1,dive"`

	// LastSubQuestion is the highest id suffix ever issued in this point
	LastSubQuestion int `json:"lastSubQuestion,omitempty" bson:"lastSubQuestion,omitempty"`
}

// SortedSubQuestions returns the sub-questions ordered by Order without
// touching the underlying slice
func (p *Point) SortedSubQuestions() []SubQuestion {
	out := make([]SubQuestion, len(p.SubQuestions))
	copy(out, p.SubQuestions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Section groups the points of one section
type Section struct {
	ID     SectionID `json:"id" bson:"id" validate:"required"`
	Title  string    `json:"title" bson:"title"`
	Points []Point   `json:"points" bson:"points" validate:"required,dive"`
}

// Point looks up a point by id
func (s *Section) Point(id PointID) *Point {
	for i := range s.Points {
		if s.Points[i].ID == id {
			return &s.Points[i]
		}
	}
	return nil
}

// QuestionsData is the admin-editable question bank
type QuestionsData struct {
	Worship      Section `json:"worship" bson:"worship"`
	Discipleship Section `json:"discipleship" bson:"discipleship"`
	Mission      Section `json:"mission" bson:"mission"`

	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Section returns the section with the given id, or nil
func (q *QuestionsData) Section(id SectionID) *Section {
	switch id {
	case SectionWorship:
		return &q.Worship
	case SectionDiscipleship:
		return &q.Discipleship
	case SectionMission:
		return &q.Mission
	}
	return nil
}

// SubQuestionIDs returns every sub-question id in canonical order
func (q *QuestionsData) SubQuestionIDs() []string {
	var ids []string
	for _, sid := range Sections {
		for _, p := range q.Section(sid).Points {
			for _, sq := range p.SortedSubQuestions() {
				ids = append(ids, sq.ID)
			}
		}
	}
	return ids
}

// FindSubQuestion locates a sub-question and the section/point owning it
func (q *QuestionsData) FindSubQuestion(id string) (*SubQuestion, SectionID, *Point) {
	for _, sid := range Sections {
		sec := q.Section(sid)
		for pi := range sec.Points {
			p := &sec.Points[pi]
			for si := range p.SubQuestions {
				if p.SubQuestions[si].ID == id {
					return &p.SubQuestions[si], sid, p
				}
			}
		}
	}
	return nil, "", nil
}

// Clone returns a deep copy so edits never alias the cached document
func (q *QuestionsData) Clone() *QuestionsData {
	out := &QuestionsData{UpdatedAt: q.UpdatedAt}
	for _, sid := range Sections {
		src := q.Section(sid)
		dst := out.Section(sid)
		dst.ID = src.ID
		dst.Title = src.Title
		dst.Points = make([]Point, len(src.Points))
		for i, p := range src.Points {
			np := p
			np.SubQuestions = make([]SubQuestion, len(p.SubQuestions))
			for j, sq := range p.SubQuestions {
				nsq := sq
				if sq.Options != nil {
					nsq.Options = append([]Option(nil), sq.Options...)
				}
				np.SubQuestions[j] = nsq
			}
			dst.Points[i] = np
		}
	}
	return out
}
