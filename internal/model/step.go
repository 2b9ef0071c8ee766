package model

// StepType distinguishes answering a sub-question from reflecting on it
type StepType string

const (
	StepQuestion   StepType = "question"
	StepReflection StepType = "reflection"
)

// Step is one unit of sequential interaction. Steps are derived from the
// question bank and never persisted.
type Step struct {
	Type          StepType `json:"type"`
	SubQuestionID string   `json:"subQuestionId"`
	Index         int      `json:"index"` // global 0-based cursor position
}

// SectionStatus is the per-section progress shown in the progress bar
type SectionStatus struct {
	Section   SectionID `json:"section"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	Completed bool      `json:"completed"`
	Locked    bool      `json:"locked"`
	Progress  float64   `json:"progress"` // only meaningful for the active section
}

// ReviewItem is one row of the answer review surface
type ReviewItem struct {
	Section    SectionID   `json:"section"`
	PointID    PointID     `json:"pointId"`
	PointTitle string      `json:"pointTitle"`
	Question   SubQuestion `json:"question"`
	Answer     *int        `json:"answer"`
	Reflection string      `json:"reflection,omitempty"`
}
