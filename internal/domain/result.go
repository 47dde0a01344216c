package domain

import "strings"

// ValidationRequest - одна отправка решения на проверку.
// Для choice/drag упражнений в Style лежит ответ (метка или JSON).
type ValidationRequest struct {
	ExerciseID string
	Markup     string
	Style      string
}

func (r ValidationRequest) Validate() error {
	if strings.TrimSpace(r.ExerciseID) == "" {
		return ErrEmptyExerciseID
	}
	return nil
}

// Stage - префикс id до первого дефиса ("2-3" -> "2").
func (r ValidationRequest) Stage() string {
	id := strings.TrimSpace(r.ExerciseID)
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return ""
}

type Severity int

const (
	SeverityError Severity = iota
	SeverityTip
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityTip:
		return "tip"
	}
	return "unknown"
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "error":
		*s = SeverityError
	case "tip":
		*s = SeverityTip
	default:
		return ErrInvalidSeverity
	}
	return nil
}

// Finding - результат одного атомарного правила.
// Подсказки (SeverityTip) не влияют на балл и вердикт.
type Finding struct {
	Rule      string    `json:"rule"`
	Severity  Severity  `json:"severity"`
	ErrorType ErrorType `json:"error_type,omitempty"`
	Message   string    `json:"message"`
	Deduction int       `json:"deduction,omitempty"`
}

type ValidationResult struct {
	Passed    bool      `json:"is_passed"`
	Score     int       `json:"score"`
	ErrorType ErrorType `json:"error_type"`
	Message   string    `json:"message"`
	Findings  []Finding `json:"findings,omitempty"`
}

// Failed - результат без баллов с тегом и сообщением.
func Failed(errType ErrorType, msg string) ValidationResult {
	return ValidationResult{
		Passed:    false,
		Score:     0,
		ErrorType: errType,
		Message:   msg,
	}
}

func Passed(score int, msg string) ValidationResult {
	return ValidationResult{
		Passed:  true,
		Score:   score,
		Message: msg,
	}
}

// Tips возвращает только информационные находки.
func (r ValidationResult) Tips() []Finding {
	var tips []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityTip {
			tips = append(tips, f)
		}
	}
	return tips
}
