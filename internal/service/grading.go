package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/metrics"
	"github.com/kitbuilder587/webarch-grader/internal/repository"
)

// Validator - движок проверки. Никогда не возвращает ошибку: все сбои уже в результате.
type Validator interface {
	Validate(ctx context.Context, req domain.ValidationRequest) domain.ValidationResult
}

type RateLimiter interface {
	Allow(learnerID string) bool
	ResetTime(learnerID string) time.Time
}

type SubmitRequest struct {
	LearnerID  string `json:"learner_id"`
	ExerciseID string `json:"exercise_id"`
	Markup     string `json:"markup"`
	Style      string `json:"style"`
	UsedHints  int    `json:"used_hints"`
}

func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.LearnerID) == "" {
		return domain.ErrEmptyLearnerID
	}
	if strings.TrimSpace(r.ExerciseID) == "" {
		return domain.ErrEmptyExerciseID
	}
	if r.UsedHints < 0 {
		r.UsedHints = 0
	}
	return nil
}

func (r SubmitRequest) validation() domain.ValidationRequest {
	return domain.ValidationRequest{
		ExerciseID: strings.TrimSpace(r.ExerciseID),
		Markup:     r.Markup,
		Style:      r.Style,
	}
}

// RateLimitError несёт время, когда ученик сможет сдать снова.
type RateLimitError struct {
	RetryAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry at %s", domain.ErrRateLimited, e.RetryAt.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return domain.ErrRateLimited }

type GradingService interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Submission, error)
	Regrade(ctx context.Context, reqs []SubmitRequest) ([]domain.ValidationResult, error)
	History(ctx context.Context, learnerID, exerciseID string, limit int) ([]domain.Submission, error)
	Progress(ctx context.Context, learnerID string) ([]domain.ExerciseSummary, error)
}

type GradingConfig struct {
	// MaxParallel - сколько сессий браузера Regrade держит одновременно
	MaxParallel  int
	HistoryLimit int
}

type GradingServiceDeps struct {
	Validator   Validator
	Submissions repository.SubmissionRepository // nil - журнал не пишется
	Limiter     RateLimiter                     // nil - без лимита
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Config      GradingConfig

	// для тестов
	Now   func() time.Time
	NewID func() string
}

type gradingService struct {
	validator   Validator
	submissions repository.SubmissionRepository
	limiter     RateLimiter
	logger      *zap.Logger
	metrics     *metrics.Metrics
	config      GradingConfig
	now         func() time.Time
	newID       func() string
}

func NewGradingService(deps GradingServiceDeps) GradingService {
	if deps.Config.MaxParallel <= 0 {
		deps.Config.MaxParallel = 4
	}
	if deps.Config.HistoryLimit <= 0 {
		deps.Config.HistoryLimit = 50
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}

	return &gradingService{
		validator:   deps.Validator,
		submissions: deps.Submissions,
		limiter:     deps.Limiter,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		config:      deps.Config,
		now:         deps.Now,
		newID:       deps.NewID,
	}
}

// Submit проверяет сдачу и пишет её в журнал. При ошибке записи вердикт всё равно
// возвращается вместе с ошибкой.
func (s *gradingService) Submit(ctx context.Context, req SubmitRequest) (*domain.Submission, error) {
	if err := req.Validate(); err != nil {
		s.record("invalid")
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(req.LearnerID) {
		s.record("rate_limited")
		if s.metrics != nil {
			s.metrics.RecordRateLimitHit()
		}
		s.logger.Info("submission rate limited",
			zap.String("learner_id", req.LearnerID),
			zap.String("exercise_id", req.ExerciseID),
		)
		return nil, &RateLimitError{RetryAt: s.limiter.ResetTime(req.LearnerID)}
	}

	vr := req.validation()
	result := s.validator.Validate(ctx, vr)

	sub := &domain.Submission{
		ID:          s.newID(),
		LearnerID:   req.LearnerID,
		ExerciseID:  vr.ExerciseID,
		Markup:      req.Markup,
		Style:       req.Style,
		Result:      result,
		UsedHints:   req.UsedHints,
		SubmittedAt: s.now(),
	}

	if s.submissions == nil {
		s.record("unlogged")
		return sub, nil
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		s.record("persist_failed")
		s.logger.Error("failed to persist submission",
			zap.Error(err),
			zap.String("submission_id", sub.ID),
			zap.String("learner_id", sub.LearnerID),
			zap.String("exercise_id", sub.ExerciseID),
		)
		return sub, fmt.Errorf("persist submission: %w", err)
	}

	s.record("ok")
	s.logger.Debug("submission recorded",
		zap.String("submission_id", sub.ID),
		zap.Bool("passed", result.Passed),
		zap.Int("score", result.Score),
	)
	return sub, nil
}

// Regrade прогоняет пачку сдач заново, без лимита и без записи в журнал.
// Результаты в порядке запросов.
func (s *gradingService) Regrade(ctx context.Context, reqs []SubmitRequest) ([]domain.ValidationResult, error) {
	results := make([]domain.ValidationResult, len(reqs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxParallel)

	for i := range reqs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.validator.Validate(ctx, reqs[i].validation())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("regrade: %w", err)
	}

	s.logger.Info("regrade finished", zap.Int("count", len(reqs)))
	return results, nil
}

func (s *gradingService) History(ctx context.Context, learnerID, exerciseID string, limit int) ([]domain.Submission, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, domain.ErrEmptyLearnerID
	}
	if s.submissions == nil {
		return nil, domain.ErrAuditDisabled
	}
	if limit <= 0 || limit > s.config.HistoryLimit {
		limit = s.config.HistoryLimit
	}

	subs, err := s.submissions.ListByLearner(ctx, learnerID, strings.TrimSpace(exerciseID), limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return subs, nil
}

func (s *gradingService) Progress(ctx context.Context, learnerID string) ([]domain.ExerciseSummary, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, domain.ErrEmptyLearnerID
	}
	if s.submissions == nil {
		return nil, domain.ErrAuditDisabled
	}

	summary, err := s.submissions.Summary(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	return summary, nil
}

func (s *gradingService) record(status string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(status)
	}
}
