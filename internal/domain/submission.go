package domain

import "time"

// Submission - неизменяемая запись аудита: что прислал ученик и какой получил вердикт.
type Submission struct {
	ID          string           `json:"id"`
	LearnerID   string           `json:"learner_id"`
	ExerciseID  string           `json:"exercise_id"`
	Markup      string           `json:"-"`
	Style       string           `json:"-"`
	Result      ValidationResult `json:"result"`
	UsedHints   int              `json:"used_hints"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// ExerciseSummary - агрегат попыток ученика по одному упражнению.
type ExerciseSummary struct {
	ExerciseID string `json:"exercise_id"`
	Attempts   int    `json:"attempts"`
	BestScore  int    `json:"best_score"`
	Passed     bool   `json:"passed"`
}
