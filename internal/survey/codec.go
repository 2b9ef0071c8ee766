package survey

import "churchhealth/internal/model"

// Flatten converts schema-shaped answers into an AnswerMap.
//
// Values are matched to sub-questions by position among their siblings sorted
// by order. If the nested data was captured against a different schema the
// walk stops at the shorter of the two lengths; nothing is reported.
func Flatten(nested model.NestedAnswers, schema *model.QuestionsData) model.AnswerMap {
	flat := model.AnswerMap{}
	if schema == nil {
		return flat
	}
	for _, sid := range model.Sections {
		byPoint, ok := nested[sid]
		if !ok {
			continue
		}
		for _, p := range schema.Section(sid).Points {
			pa := byPoint[p.ID]
			if pa == nil {
				continue
			}
			subs := p.SortedSubQuestions()
			n := min(len(subs), len(pa.SubQuestions))
			for i := 0; i < n; i++ {
				if v := pa.SubQuestions[i]; v != nil {
					flat[subs[i].ID] = *v
				}
			}
		}
	}
	return flat
}

// Unflatten expands an AnswerMap into a document matching the current schema.
// Every point gets exactly one slot per sub-question; ids unknown to the
// schema are dropped and missing ids become nil.
func Unflatten(flat model.AnswerMap, schema *model.QuestionsData) model.NestedAnswers {
	nested := emptyNested()
	if schema == nil {
		return nested
	}
	for _, sid := range model.Sections {
		for _, p := range schema.Section(sid).Points {
			if _, known := nested[sid][p.ID]; !known {
				// only the fixed point ids have a home in the nested form
				continue
			}
			subs := p.SortedSubQuestions()
			slots := make([]*int, len(subs))
			for i, sq := range subs {
				if v, ok := flat[sq.ID]; ok {
					slots[i] = intPtr(v)
				}
			}
			nested[sid][p.ID] = &model.PointAnswers{SubQuestions: slots}
		}
	}
	return nested
}

func emptyNested() model.NestedAnswers {
	nested := make(model.NestedAnswers, len(model.Sections))
	for _, sid := range model.Sections {
		byPoint := make(map[model.PointID]*model.PointAnswers, len(model.SectionPoints[sid]))
		for _, pid := range model.SectionPoints[sid] {
			byPoint[pid] = &model.PointAnswers{SubQuestions: []*int{}}
		}
		nested[sid] = byPoint
	}
	return nested
}

func intPtr(v int) *int {
	return &v
}
