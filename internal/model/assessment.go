package model

import "time"

// AnswerMap maps sub-question id to a score in [1,5]; unanswered ids are absent
type AnswerMap map[string]int

// ReflectionMap maps sub-question id to free-text notes
type ReflectionMap map[string]string

// Clone copies the map
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone copies the map
func (m ReflectionMap) Clone() ReflectionMap {
	out := make(ReflectionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PointAnswers holds one point's answers positioned by sub-question order.
// A nil entry means the sub-question is unanswered.
type PointAnswers struct {
	SubQuestions []*int `json:"subQuestions" bson:"subQuestions"`
}

// NestedAnswers is the schema-shaped form of an AnswerMap:
// section -> point -> ordered sub-question scores
type NestedAnswers map[SectionID]map[PointID]*PointAnswers

// CalculatedScores are derived from answers and never mutated directly
type CalculatedScores struct {
	Points   map[PointID]float64   `json:"points" bson:"points"`
	Sections map[SectionID]float64 `json:"sections" bson:"sections"`
}

// UserInfo identifies the respondent
type UserInfo struct {
	Name       string `json:"name" bson:"name" validate:"required"`
	Email      string `json:"email" bson:"email" validate:"required,email"`
	ChurchName string `json:"churchName" bson:"churchName" validate:"required"`
}

// Identity is the respondent plus the client whose durable cache holds their
// in-progress state
type Identity struct {
	ClientID string   `json:"clientId"`
	User     UserInfo `json:"user"`
}

// Submission is the final, fully scored assessment
type Submission struct {
	UserInfo
	Assessment      NestedAnswers    `json:"assessment"`
	Answers         AnswerMap        `json:"answers"`
	Scores          CalculatedScores `json:"scores"`
	ReflectionNotes ReflectionMap    `json:"reflectionNotes,omitempty"`
}

// Draft is a partial submission; Scores is nil while the answers are too
// incomplete to produce an in-range score for every point
type Draft struct {
	Email           string            `json:"email"`
	Name            string            `json:"name,omitempty"`
	ChurchName      string            `json:"churchName,omitempty"`
	Assessment      NestedAnswers     `json:"assessment,omitempty"`
	Answers         AnswerMap         `json:"answers,omitempty"`
	Scores          *CalculatedScores `json:"scores,omitempty"`
	ReflectionNotes ReflectionMap     `json:"reflectionNotes,omitempty"`
}

// AssessmentStatus distinguishes drafts from finalized submissions
type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "draft"
	StatusSubmitted AssessmentStatus = "submitted"
)

// AssessmentRecord is the persisted row for drafts and submissions
type AssessmentRecord struct {
	ID              string                `json:"id" bson:"_id,omitempty"`
	UserName        string                `json:"userName,omitempty" bson:"user_name,omitempty"`
	UserEmail       string                `json:"userEmail" bson:"user_email"`
	ChurchName      string                `json:"churchName,omitempty" bson:"church_name,omitempty"`
	Status          AssessmentStatus      `json:"status" bson:"status"`
	TotalScore      *float64              `json:"totalScore,omitempty" bson:"total_score,omitempty"`
	ScoresJSON      map[PointID]float64   `json:"scoresJson,omitempty" bson:"scores_json,omitempty"`
	SectionScores   map[SectionID]float64 `json:"sectionScores,omitempty" bson:"section_scores,omitempty"`
	Assessment      NestedAnswers         `json:"assessment,omitempty" bson:"assessment,omitempty"`
	Answers         AnswerMap             `json:"answers,omitempty" bson:"answers,omitempty"`
	ReflectionNotes ReflectionMap         `json:"reflectionNotes,omitempty" bson:"reflection_notes,omitempty"`
	CreatedAt       time.Time             `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time             `json:"updatedAt" bson:"updated_at"`
}

// CompletionResult reports how much of the live schema is answered
type CompletionResult struct {
	IsComplete bool    `json:"isComplete"`
	Percentage float64 `json:"percentage"`
}
