package repository

import (
	"context"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

// RubricRepository - хранилище рубрик, редактируемых без передеплоя.
type RubricRepository interface {
	Get(ctx context.Context, exerciseID string) (*domain.Rubric, error)
	Create(ctx context.Context, rubric *domain.Rubric) error
	Upsert(ctx context.Context, rubric *domain.Rubric) error
	List(ctx context.Context) ([]domain.Rubric, error)
}

// SubmissionRepository - журнал сдач. Записи только добавляются.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	// ListByLearner - последние сдачи, новые первыми. Пустой exerciseID - по всем упражнениям.
	ListByLearner(ctx context.Context, learnerID, exerciseID string, limit int) ([]domain.Submission, error)
	Summary(ctx context.Context, learnerID string) ([]domain.ExerciseSummary, error)
}
