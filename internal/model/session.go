package model

import "time"

// CachedState is the durable client-side copy of an in-progress assessment
type CachedState struct {
	Answers        AnswerMap     `json:"answers"`
	Reflections    ReflectionMap `json:"reflections"`
	CurrentSection int           `json:"currentSection"` // 1, 2 or 3
	LastUpdated    int64         `json:"lastUpdated"`    // unix millis
}

// Valid reports whether a decoded cache entry has the expected shape
func (s *CachedState) Valid() bool {
	return s != nil && s.Answers != nil && s.Reflections != nil &&
		s.CurrentSection >= 1 && s.CurrentSection <= 3
}

// StepView describes the current step for rendering
type StepView struct {
	Step
	Section    SectionID    `json:"section"`
	PointID    PointID      `json:"pointId"`
	PointTitle string       `json:"pointTitle"`
	Question   *SubQuestion `json:"question"`
	Answer     *int         `json:"answer"`
	Reflection string       `json:"reflection,omitempty"`
}

// SessionView is everything a renderer needs for one in-progress session
type SessionView struct {
	User           UserInfo         `json:"user"`
	CurrentSection SectionID        `json:"currentSection"`
	Current        *StepView        `json:"current"`
	TotalSteps     int              `json:"totalSteps"`
	Sections       []SectionStatus  `json:"sections"`
	Completion     CompletionResult `json:"completion"`
	IsComplete     bool             `json:"isComplete"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// SubmitResponse is returned after a successful final submission
type SubmitResponse struct {
	ID         string           `json:"id"`
	Scores     CalculatedScores `json:"scores"`
	TotalScore float64          `json:"totalScore"`
}
