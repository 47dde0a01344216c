package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/webarch-grader/internal/cache"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/metrics"
	"github.com/kitbuilder587/webarch-grader/internal/repository"
)

// Catalog - встроенный или файловый каталог рубрик.
type Catalog interface {
	Rubric(ctx context.Context, exerciseID string) (*domain.Rubric, error)
	IDs() []string
}

type RubricResolverDeps struct {
	Repo     repository.RubricRepository // nil - только каталог
	Catalog  Catalog
	Cache    cache.Cache[*domain.Rubric]
	CacheTTL time.Duration
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// RubricResolver: сначала база (через кеш), затем каталог.
// Рубрики из каталога не кешируются, он и так в памяти и перечитывается на лету.
type RubricResolver struct {
	repo    repository.RubricRepository
	catalog Catalog
	cache   cache.Cache[*domain.Rubric]
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewRubricResolver(deps RubricResolverDeps) *RubricResolver {
	if deps.CacheTTL == 0 {
		deps.CacheTTL = 5 * time.Minute
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &RubricResolver{
		repo:    deps.Repo,
		catalog: deps.Catalog,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

func (r *RubricResolver) Rubric(ctx context.Context, exerciseID string) (*domain.Rubric, error) {
	if r.repo != nil {
		rb, err := r.fromRepo(ctx, exerciseID)
		if err == nil {
			return rb, nil
		}
		if !errors.Is(err, domain.ErrRubricNotFound) {
			return nil, err
		}
	}

	if r.catalog == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRubricNotFound, exerciseID)
	}
	return r.catalog.Rubric(ctx, exerciseID)
}

func (r *RubricResolver) fromRepo(ctx context.Context, exerciseID string) (*domain.Rubric, error) {
	if r.cache != nil {
		if rb, ok := r.cache.Get(exerciseID); ok {
			if r.metrics != nil {
				r.metrics.RecordCacheHit()
			}
			return rb, nil
		}
		if r.metrics != nil {
			r.metrics.RecordCacheMiss()
		}
	}

	rb, err := r.repo.Get(ctx, exerciseID)
	if err != nil {
		if !errors.Is(err, domain.ErrRubricNotFound) {
			r.logger.Warn("rubric store lookup failed",
				zap.Error(err),
				zap.String("exercise_id", exerciseID),
			)
		}
		return nil, err
	}

	if r.cache != nil {
		r.cache.Set(exerciseID, rb, r.ttl)
	}
	return rb, nil
}

// Invalidate выкидывает рубрику из кеша после правки в базе.
func (r *RubricResolver) Invalidate(exerciseID string) {
	if r.cache != nil {
		r.cache.Delete(exerciseID)
	}
}

// IDs - объединение id из базы и каталога, отсортированное.
func (r *RubricResolver) IDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	if r.catalog != nil {
		for _, id := range r.catalog.IDs() {
			seen[id] = struct{}{}
		}
	}
	if r.repo != nil {
		stored, err := r.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list rubrics: %w", err)
		}
		for _, rb := range stored {
			seen[rb.ID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// SeedRubrics кладёт в базу рубрики, которых там ещё нет. Существующие не трогает.
func SeedRubrics(ctx context.Context, repo repository.RubricRepository, rubrics []*domain.Rubric) (int, error) {
	created := 0
	for _, rb := range rubrics {
		err := repo.Create(ctx, rb)
		if errors.Is(err, domain.ErrDuplicateRubric) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed rubric %s: %w", rb.ID, err)
		}
		created++
	}
	return created, nil
}
