package survey

import (
	"churchhealth/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSteps_InterleavesReflections(t *testing.T) {
	steps := BuildSteps(DefaultQuestions())

	// 30 questions, 10 reflections
	require.Len(t, steps, 40)
	for i, st := range steps {
		assert.Equal(t, i, st.Index)
	}
	assert.Equal(t, model.Step{Type: model.StepQuestion, SubQuestionID: "1.1", Index: 0}, steps[0])
	assert.Equal(t, model.Step{Type: model.StepQuestion, SubQuestionID: "1.3", Index: 2}, steps[2])
	assert.Equal(t, model.Step{Type: model.StepReflection, SubQuestionID: "1.3", Index: 3}, steps[3])
	assert.Equal(t, "2.1", steps[4].SubQuestionID)

	for i, st := range steps {
		if st.Type == model.StepReflection {
			require.Greater(t, i, 0)
			prev := steps[i-1]
			assert.Equal(t, model.StepQuestion, prev.Type)
			assert.Equal(t, st.SubQuestionID, prev.SubQuestionID)
		}
	}
}

func TestBuildSteps_NoReflectionText(t *testing.T) {
	schema := DefaultQuestions()
	for _, sid := range model.Sections {
		sec := schema.Section(sid)
		for pi := range sec.Points {
			for si := range sec.Points[pi].SubQuestions {
				sec.Points[pi].SubQuestions[si].ReflectionText = ""
			}
		}
	}
	steps := BuildSteps(schema)
	assert.Len(t, steps, 30)
	assert.Nil(t, BuildSteps(nil))
}

func TestSectionForQuestion(t *testing.T) {
	tests := []struct {
		id   string
		want model.SectionID
		ok   bool
	}{
		{"1.1", model.SectionWorship, true},
		{"3.9", model.SectionWorship, true},
		{"4.2", model.SectionDiscipleship, true},
		{"7.1", model.SectionDiscipleship, true},
		{"8.1", model.SectionMission, true},
		{"10.3", model.SectionMission, true},
		{"11.1", "", false},
		{"abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := SectionForQuestion(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompletedSections(t *testing.T) {
	schema := DefaultQuestions()
	answers := model.AnswerMap{}
	assert.Empty(t, CompletedSections(schema, answers))

	answerAll(schema, answers, model.SectionMission, 2)
	assert.Equal(t, []model.SectionID{model.SectionMission}, CompletedSections(schema, answers))

	answerAll(schema, answers, model.SectionWorship, 4)
	delete(answers, "10.3")
	assert.Equal(t, []model.SectionID{model.SectionWorship}, CompletedSections(schema, answers))
}

func TestProgressWithinSection(t *testing.T) {
	steps := BuildSteps(DefaultQuestions())

	assert.Equal(t, 0.0, ProgressWithinSection(0, model.SectionWorship, steps))
	// steps 0,1,2 are the three questions of point 1
	assert.InDelta(t, 100.0/3, ProgressWithinSection(3, model.SectionWorship, steps), 1e-9)
	assert.Equal(t, 100.0, ProgressWithinSection(len(steps), model.SectionWorship, steps))
	assert.Equal(t, 0.0, ProgressWithinSection(3, model.SectionMission, steps))
	assert.Equal(t, 0.0, ProgressWithinSection(3, model.SectionMission, nil))
}

func TestCanJumpToSection(t *testing.T) {
	completed := []model.SectionID{model.SectionWorship}

	assert.True(t, CanJumpToSection(model.SectionDiscipleship, model.SectionDiscipleship, nil))
	assert.True(t, CanJumpToSection(model.SectionWorship, model.SectionDiscipleship, completed))
	assert.False(t, CanJumpToSection(model.SectionMission, model.SectionDiscipleship, completed))
}

func TestSectionStatuses(t *testing.T) {
	schema := DefaultQuestions()
	answers := model.AnswerMap{}
	answerAll(schema, answers, model.SectionWorship, 5)
	steps := BuildSteps(schema)

	statuses := SectionStatuses(schema, answers, model.SectionDiscipleship, 12, steps)

	require.Len(t, statuses, 3)
	assert.True(t, statuses[0].Completed)
	assert.False(t, statuses[0].Locked)
	assert.True(t, statuses[1].Active)
	assert.Equal(t, 0.0, statuses[1].Progress)
	assert.True(t, statuses[2].Locked)
	assert.Equal(t, "Mission", statuses[2].Title)
}

func TestNavigator_Bounds(t *testing.T) {
	nav := NewNavigator(BuildSteps(DefaultQuestions()))

	assert.False(t, nav.Prev())
	assert.Equal(t, 0, nav.Index())

	for nav.Next() {
	}
	assert.Equal(t, 39, nav.Index())
	assert.False(t, nav.Next())
	assert.Equal(t, 39, nav.Index())

	empty := NewNavigator(nil)
	_, ok := empty.Current()
	assert.False(t, ok)
	assert.False(t, empty.Next())
}

func TestNavigator_JumpToQuestion(t *testing.T) {
	nav := NewNavigator(BuildSteps(DefaultQuestions()))

	require.True(t, nav.JumpToQuestion("4.1"))
	assert.Equal(t, 12, nav.Index())
	cur, _ := nav.Current()
	assert.Equal(t, model.StepQuestion, cur.Type)

	assert.False(t, nav.JumpToQuestion("42.1"))
	assert.Equal(t, 12, nav.Index())
}

func TestNavigator_JumpToSectionGate(t *testing.T) {
	nav := NewNavigator(BuildSteps(DefaultQuestions()))
	nav.Next()

	ok := nav.JumpToSection(model.SectionMission, model.SectionWorship, nil)
	assert.False(t, ok)
	assert.Equal(t, 1, nav.Index(), "rejected jump leaves the cursor alone")

	ok = nav.JumpToSection(model.SectionMission, model.SectionWorship, []model.SectionID{model.SectionMission})
	require.True(t, ok)
	cur, _ := nav.Current()
	assert.Equal(t, "8.1", cur.SubQuestionID)
	assert.Equal(t, model.StepQuestion, cur.Type)
}

func TestNavigator_ResetKeepsStep(t *testing.T) {
	schema := DefaultQuestions()
	nav := NewNavigator(BuildSteps(schema))
	require.True(t, nav.JumpToQuestion("2.2"))

	edited, err := ApplyEdit(schema, EditRequest{
		Op:            EditRemoveSubQuestion,
		Section:       model.SectionWorship,
		PointID:       model.PointScriptureGospelCentrality,
		SubQuestionID: "1.1",
	})
	require.NoError(t, err)

	nav.Reset(BuildSteps(edited))
	cur, ok := nav.Current()
	require.True(t, ok)
	assert.Equal(t, "2.2", cur.SubQuestionID)
	assert.Equal(t, 4, nav.Index())
}
