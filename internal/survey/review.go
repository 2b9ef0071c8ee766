package survey

import "churchhealth/internal/model"

// ReviewItems lists every sub-question with its current answer and reflection
// in canonical schema order
func ReviewItems(schema *model.QuestionsData, answers model.AnswerMap, reflections model.ReflectionMap) []model.ReviewItem {
	if schema == nil {
		return nil
	}
	var items []model.ReviewItem
	for _, sid := range model.Sections {
		for _, p := range schema.Section(sid).Points {
			for _, sq := range p.SortedSubQuestions() {
				item := model.ReviewItem{
					Section:    sid,
					PointID:    p.ID,
					PointTitle: p.Title,
					Question:   sq,
					Reflection: reflections[sq.ID],
				}
				if v, ok := answers[sq.ID]; ok {
					item.Answer = intPtr(v)
				}
				items = append(items, item)
			}
		}
	}
	return items
}

// CheckCompletion measures answered sub-questions against the live schema
func CheckCompletion(schema *model.QuestionsData, answers model.AnswerMap) model.CompletionResult {
	if schema == nil {
		return model.CompletionResult{}
	}
	ids := schema.SubQuestionIDs()
	answered := 0
	for _, id := range ids {
		if _, ok := answers[id]; ok {
			answered++
		}
	}
	if len(ids) == 0 {
		return model.CompletionResult{}
	}
	pct := float64(answered) / float64(len(ids)) * 100
	return model.CompletionResult{
		IsComplete: answered == len(ids),
		Percentage: pct,
	}
}
