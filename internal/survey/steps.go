package survey

import (
	"churchhealth/internal/model"
	"strconv"
	"strings"
)

// BuildSteps derives the interleaved question/reflection step list.
// Sections are walked in fixed order, points in schema order and sub-questions
// by order. A reflection step directly follows its question step only when the
// sub-question has reflection text.
func BuildSteps(schema *model.QuestionsData) []model.Step {
	if schema == nil {
		return nil
	}
	var steps []model.Step
	for _, sid := range model.Sections {
		for _, p := range schema.Section(sid).Points {
			for _, sq := range p.SortedSubQuestions() {
				steps = append(steps, model.Step{
					Type:          model.StepQuestion,
					SubQuestionID: sq.ID,
					Index:         len(steps),
				})
				if sq.HasReflection() {
					steps = append(steps, model.Step{
						Type:          model.StepReflection,
						SubQuestionID: sq.ID,
						Index:         len(steps),
					})
				}
			}
		}
	}
	return steps
}

// SectionForQuestion derives section membership from the leading point number
// of a sub-question id ("4.2" -> discipleship). This mirrors the fixed 3/4/3
// point distribution and does not consult the schema.
func SectionForQuestion(subQuestionID string) (model.SectionID, bool) {
	head, _, _ := strings.Cut(subQuestionID, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return "", false
	}
	switch {
	case n >= 1 && n <= 3:
		return model.SectionWorship, true
	case n >= 4 && n <= 7:
		return model.SectionDiscipleship, true
	case n >= 8 && n <= 10:
		return model.SectionMission, true
	}
	return "", false
}

// CompletedSections returns, in section order, every section whose
// sub-questions are all answered. Membership comes from the schema.
func CompletedSections(schema *model.QuestionsData, answers model.AnswerMap) []model.SectionID {
	if schema == nil {
		return nil
	}
	var done []model.SectionID
	for _, sid := range model.Sections {
		total, answered := 0, 0
		for _, p := range schema.Section(sid).Points {
			for _, sq := range p.SubQuestions {
				total++
				if _, ok := answers[sq.ID]; ok {
					answered++
				}
			}
		}
		if total > 0 && answered == total {
			done = append(done, sid)
		}
	}
	return done
}

// ProgressWithinSection is the percentage of the section's question steps
// positioned before current. It only drives the progress bar fill.
func ProgressWithinSection(current int, section model.SectionID, steps []model.Step) float64 {
	total, before := 0, 0
	for _, st := range steps {
		if st.Type != model.StepQuestion {
			continue
		}
		if sid, ok := SectionForQuestion(st.SubQuestionID); !ok || sid != section {
			continue
		}
		total++
		if st.Index < current {
			before++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(before) / float64(total) * 100
}

// CanJumpToSection reports whether navigation to target is allowed: only the
// active section or an already completed one.
func CanJumpToSection(target, current model.SectionID, completed []model.SectionID) bool {
	if target == current {
		return true
	}
	for _, sid := range completed {
		if sid == target {
			return true
		}
	}
	return false
}

// SectionStatuses builds the progress bar state for all three sections
func SectionStatuses(schema *model.QuestionsData, answers model.AnswerMap, current model.SectionID, index int, steps []model.Step) []model.SectionStatus {
	completed := CompletedSections(schema, answers)
	out := make([]model.SectionStatus, 0, len(model.Sections))
	for _, sid := range model.Sections {
		st := model.SectionStatus{
			Section:   sid,
			Number:    sid.Number(),
			Title:     model.SectionLabels[sid],
			Active:    sid == current,
			Completed: containsSection(completed, sid),
		}
		st.Locked = !st.Active && !st.Completed
		if st.Active {
			st.Progress = ProgressWithinSection(index, sid, steps)
		}
		out = append(out, st)
	}
	return out
}

func containsSection(list []model.SectionID, sid model.SectionID) bool {
	for _, s := range list {
		if s == sid {
			return true
		}
	}
	return false
}

// Navigator is the single global cursor over a step list
type Navigator struct {
	steps []model.Step
	index int
}

// NewNavigator starts at the first step
func NewNavigator(steps []model.Step) *Navigator {
	return &Navigator{steps: steps}
}

// Steps returns the step list being navigated
func (n *Navigator) Steps() []model.Step { return n.steps }

// Index returns the current cursor position
func (n *Navigator) Index() int { return n.index }

// Current returns the step under the cursor; false when there are no steps
func (n *Navigator) Current() (model.Step, bool) {
	if n.index < 0 || n.index >= len(n.steps) {
		return model.Step{}, false
	}
	return n.steps[n.index], true
}

// Next advances one step. Advancing past the last step is a no-op.
func (n *Navigator) Next() bool {
	if n.index+1 >= len(n.steps) {
		return false
	}
	n.index++
	return true
}

// Prev retreats one step. Retreating before the first step is a no-op.
func (n *Navigator) Prev() bool {
	if n.index == 0 {
		return false
	}
	n.index--
	return true
}

// JumpToQuestion moves to the question step of the given sub-question,
// located by identifier
func (n *Navigator) JumpToQuestion(subQuestionID string) bool {
	for _, st := range n.steps {
		if st.Type == model.StepQuestion && st.SubQuestionID == subQuestionID {
			n.index = st.Index
			return true
		}
	}
	return false
}

// JumpToSection moves to the first question step of target if the gate
// allows it. Rejected jumps leave the cursor untouched.
func (n *Navigator) JumpToSection(target, current model.SectionID, completed []model.SectionID) bool {
	if !CanJumpToSection(target, current, completed) {
		return false
	}
	for _, st := range n.steps {
		if st.Type != model.StepQuestion {
			continue
		}
		if sid, ok := SectionForQuestion(st.SubQuestionID); ok && sid == target {
			n.index = st.Index
			return true
		}
	}
	return false
}

// Reset swaps in a rebuilt step list, keeping the cursor on the same step
// when it still exists
func (n *Navigator) Reset(steps []model.Step) {
	cur, ok := n.Current()
	n.steps = steps
	if ok {
		for _, st := range steps {
			if st.Type == cur.Type && st.SubQuestionID == cur.SubQuestionID {
				n.index = st.Index
				return
			}
		}
	}
	if n.index >= len(steps) {
		n.index = max(len(steps)-1, 0)
	}
}
