// Package survey holds the pure assessment engine: scoring, the flat/nested
// answer codec, step sequencing, validation and question bank edits. Nothing
// in this package performs I/O.
package survey

import (
	"churchhealth/internal/model"
	"math"
)

// Average returns the arithmetic mean rounded half-up to two decimals, or 0
// for no values
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return round2(sum / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// CalculatePointScores averages each point's answered sub-questions.
// Unanswered slots are excluded rather than counted as zero, so a partially
// answered point still yields a meaningful score. A point with no answers
// scores 0.
func CalculatePointScores(nested model.NestedAnswers) map[model.PointID]float64 {
	points := make(map[model.PointID]float64, len(model.AllPoints))
	for _, sid := range model.Sections {
		byPoint := nested[sid]
		for _, pid := range model.SectionPoints[sid] {
			var values []float64
			if pa := byPoint[pid]; pa != nil {
				for _, v := range pa.SubQuestions {
					if v != nil {
						values = append(values, float64(*v))
					}
				}
			}
			points[pid] = Average(values)
		}
	}
	return points
}

// CalculateSectionAverages takes the unweighted mean of each section's points
func CalculateSectionAverages(points map[model.PointID]float64) map[model.SectionID]float64 {
	sections := make(map[model.SectionID]float64, len(model.Sections))
	for _, sid := range model.Sections {
		pids := model.SectionPoints[sid]
		values := make([]float64, 0, len(pids))
		for _, pid := range pids {
			values = append(values, points[pid])
		}
		sections[sid] = Average(values)
	}
	return sections
}

// CalculateAllScores derives point and section scores from nested answers
func CalculateAllScores(nested model.NestedAnswers) model.CalculatedScores {
	points := CalculatePointScores(nested)
	return model.CalculatedScores{
		Points:   points,
		Sections: CalculateSectionAverages(points),
	}
}

// PointScoresArray returns the ten point scores in radar-chart order
func PointScoresArray(scores model.CalculatedScores) []float64 {
	out := make([]float64, len(model.AllPoints))
	for i, pid := range model.AllPoints {
		out[i] = scores.Points[pid]
	}
	return out
}

// TotalScore is the unrounded mean of the ten point scores
func TotalScore(scores model.CalculatedScores) float64 {
	arr := PointScoresArray(scores)
	sum := 0.0
	for _, v := range arr {
		sum += v
	}
	return sum / float64(len(arr))
}
