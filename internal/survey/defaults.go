package survey

import (
	"churchhealth/internal/model"
	"fmt"
)

var pointDescriptions = map[model.PointID]string{
	model.PointScriptureGospelCentrality:          "The gospel shapes teaching, life and ministry.",
	model.PointWorshipPreachingSacraments:         "Gathered worship is reverent, joyful and word-centered.",
	model.PointPrimacyOfPrayer:                    "Prayer is the posture of the church, not an add-on.",
	model.PointDiscipleshipPracticedIntentionally: "Members are intentionally formed as followers of Jesus.",
	model.PointNTPatternsOfChurchLife:             "Church life reflects New Testament community.",
	model.PointLeadershipDevelopment:              "Leaders are identified, trained and released.",
	model.PointCultureOfGenerosity:                "Time, talent and treasure are given freely.",
	model.PointCityCultureEngagement:              "The church seeks the good of its city.",
	model.PointEvangelismContextualization:        "The gospel is shared in ways the culture can hear.",
	model.PointChurchPlantingPartnerships:         "The church multiplies through planting and partnership.",
}

// DefaultQuestions builds the bootstrap question bank: three sub-questions per
// point, each with the standard option scale; the last sub-question of every
// point invites a reflection
func DefaultQuestions() *model.QuestionsData {
	q := &model.QuestionsData{}
	for _, sid := range model.Sections {
		sec := q.Section(sid)
		sec.ID = sid
		sec.Title = model.SectionLabels[sid]
		for _, pid := range model.SectionPoints[sid] {
			n := pid.Number()
			title := model.PointLabels[n-1]
			p := model.Point{ID: pid, Title: title, Description: pointDescriptions[pid]}
			for k := 1; k <= 3; k++ {
				sq := model.SubQuestion{
					ID:      fmt.Sprintf("%d.%d", n, k),
					Text:    fmt.Sprintf("%s: statement %d", title, k),
					Order:   k,
					Options: DefaultOptions(),
				}
				if k == 3 {
					sq.ReflectionText = fmt.Sprintf("Where do you see %s most clearly in your church today?", title)
				}
				p.SubQuestions = append(p.SubQuestions, sq)
			}
			sec.Points = append(sec.Points, p)
		}
	}
	return q
}
