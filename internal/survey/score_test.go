package survey

import (
	"churchhealth/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerAll scores every sub-question of a section with v
func answerAll(schema *model.QuestionsData, answers model.AnswerMap, sid model.SectionID, v int) {
	for _, p := range schema.Section(sid).Points {
		for _, sq := range p.SubQuestions {
			answers[sq.ID] = v
		}
	}
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{4}, 4},
		{"half", []float64{1, 2}, 1.5},
		{"rounds up", []float64{1, 2, 2}, 1.67},
		{"rounds down", []float64{1, 1, 2}, 1.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Average(tt.values))
		})
	}
}

func TestCalculatePointScores_SkipsUnanswered(t *testing.T) {
	nested := emptyNested()
	nested[model.SectionWorship][model.PointPrimacyOfPrayer] = &model.PointAnswers{
		SubQuestions: []*int{intPtr(5), nil, intPtr(3)},
	}

	points := CalculatePointScores(nested)

	require.Len(t, points, 10)
	assert.Equal(t, 4.0, points[model.PointPrimacyOfPrayer])
	assert.Equal(t, 0.0, points[model.PointScriptureGospelCentrality])
}

func TestCalculateAllScores_SectionAverages(t *testing.T) {
	schema := DefaultQuestions()
	answers := model.AnswerMap{}
	answerAll(schema, answers, model.SectionWorship, 5)
	answerAll(schema, answers, model.SectionDiscipleship, 1)
	answerAll(schema, answers, model.SectionMission, 3)

	scores := CalculateAllScores(Unflatten(answers, schema))

	assert.Equal(t, 5.0, scores.Sections[model.SectionWorship])
	assert.Equal(t, 1.0, scores.Sections[model.SectionDiscipleship])
	assert.Equal(t, 3.0, scores.Sections[model.SectionMission])
	assert.Equal(t, []float64{5, 5, 5, 1, 1, 1, 1, 3, 3, 3}, PointScoresArray(scores))
	// 10 points, not 3 sections: (15 + 4 + 9) / 10
	assert.InDelta(t, 2.8, TotalScore(scores), 1e-9)
	assert.NoError(t, ValidateScores(scores))
}

func TestCalculateAllScores_MixedPoint(t *testing.T) {
	nested := emptyNested()
	nested[model.SectionMission][model.PointCityCultureEngagement] = &model.PointAnswers{
		SubQuestions: []*int{intPtr(2), intPtr(3), intPtr(5)},
	}

	scores := CalculateAllScores(nested)

	assert.Equal(t, 3.33, scores.Points[model.PointCityCultureEngagement])
	assert.Equal(t, 1.11, scores.Sections[model.SectionMission])
	assert.Error(t, ValidateScores(scores), "unanswered points score 0")
}
