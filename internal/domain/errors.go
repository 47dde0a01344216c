package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

var (
	ErrEmptyExerciseID = errors.New("empty exercise id")
	ErrInvalidSeverity = errors.New("invalid severity")
)

var (
	ErrRubricNotFound    = errors.New("rubric not found")
	ErrInvalidRubric     = errors.New("invalid rubric")
	ErrUnknownCheckKind  = errors.New("unknown check kind")
	ErrStageMismatch     = errors.New("check kind does not belong to exercise stage")
	ErrMissingRubricPart = errors.New("rubric section required by check kind is missing")
)

var (
	ErrEmptyLearnerID     = errors.New("empty learner id")
	ErrRateLimited        = errors.New("too many submissions")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrDuplicateRubric    = errors.New("rubric already exists")
	ErrAuditDisabled      = errors.New("submission log is not configured")
)
