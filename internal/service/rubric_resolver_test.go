package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kitbuilder587/webarch-grader/internal/cache/memory"
	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/metrics"
	"github.com/kitbuilder587/webarch-grader/internal/repository"
	"github.com/kitbuilder587/webarch-grader/internal/rubric"
)

func storedChoice(answer string) domain.Rubric {
	return domain.Rubric{
		ID:        "1-4",
		Kind:      domain.CheckChoice,
		PassScore: 20,
		Choice:    &domain.ChoiceRubric{Answer: answer},
	}
}

func TestRubricResolver_RepoFirst(t *testing.T) {
	repo := repository.NewMockRubricRepository(storedChoice("C"))
	res := NewRubricResolver(RubricResolverDeps{Repo: repo, Catalog: rubric.Default()})

	rb, err := res.Rubric(context.Background(), "1-4")
	if err != nil {
		t.Fatalf("Rubric() error = %v", err)
	}
	if rb.Choice.Answer != "C" {
		t.Errorf("Choice.Answer = %q, want stored C", rb.Choice.Answer)
	}
}

func TestRubricResolver_FallbackToCatalog(t *testing.T) {
	repo := repository.NewMockRubricRepository()
	res := NewRubricResolver(RubricResolverDeps{Repo: repo, Catalog: rubric.Default()})

	rb, err := res.Rubric(context.Background(), "1-4")
	if err != nil {
		t.Fatalf("Rubric() error = %v", err)
	}
	if rb.Choice.Answer != "B" {
		t.Errorf("Choice.Answer = %q, want catalog B", rb.Choice.Answer)
	}

	if _, err := res.Rubric(context.Background(), "7-7"); !errors.Is(err, domain.ErrRubricNotFound) {
		t.Errorf("Rubric(7-7) error = %v, want %v", err, domain.ErrRubricNotFound)
	}
}

func TestRubricResolver_StoreDown(t *testing.T) {
	boom := errors.New("too many connections")
	repo := repository.NewMockRubricRepository()
	repo.Err = boom

	res := NewRubricResolver(RubricResolverDeps{Repo: repo, Catalog: rubric.Default()})
	if _, err := res.Rubric(context.Background(), "1-4"); !errors.Is(err, boom) {
		t.Errorf("Rubric() error = %v, want %v", err, boom)
	}
}

func TestRubricResolver_Cache(t *testing.T) {
	repo := repository.NewMockRubricRepository(storedChoice("C"))
	c := memory.New[*domain.Rubric]()
	defer c.Stop()

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	res := NewRubricResolver(RubricResolverDeps{
		Repo:     repo,
		Cache:    c,
		CacheTTL: time.Hour,
		Metrics:  m,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := res.Rubric(ctx, "1-4"); err != nil {
			t.Fatalf("Rubric() error = %v", err)
		}
	}
	if repo.GetCalls != 1 {
		t.Errorf("repo.GetCalls = %d, want 1", repo.GetCalls)
	}
	if got := testutil.ToFloat64(m.RubricCacheHitsTotal); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.RubricCacheMissesTotal); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}

	repo.Upsert(ctx, &domain.Rubric{ID: "1-4", Kind: domain.CheckChoice, PassScore: 20, Choice: &domain.ChoiceRubric{Answer: "D"}})
	res.Invalidate("1-4")

	rb, _ := res.Rubric(ctx, "1-4")
	if rb.Choice.Answer != "D" {
		t.Errorf("after Invalidate answer = %q, want D", rb.Choice.Answer)
	}
}

func TestRubricResolver_IDs(t *testing.T) {
	extra := domain.Rubric{
		ID:        "1-9",
		Kind:      domain.CheckChoice,
		PassScore: 10,
		Choice:    &domain.ChoiceRubric{Answer: "A"},
	}
	repo := repository.NewMockRubricRepository(storedChoice("C"), extra)
	res := NewRubricResolver(RubricResolverDeps{Repo: repo, Catalog: rubric.Default()})

	ids, err := res.IDs(context.Background())
	if err != nil {
		t.Fatalf("IDs() error = %v", err)
	}
	want := []string{"1-1", "1-2", "1-3", "1-4", "1-9", "2-1", "2-2", "2-3", "2-4", "3-1", "3-2", "3-3", "4-1", "4-2", "4-3"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("IDs() mismatch (-want +got):\n%s", diff)
	}
}

func TestSeedRubrics(t *testing.T) {
	repo := repository.NewMockRubricRepository(storedChoice("C"))
	catalog := rubric.Default()

	created, err := SeedRubrics(context.Background(), repo, catalog.All())
	if err != nil {
		t.Fatalf("SeedRubrics() error = %v", err)
	}
	if created != catalog.Len()-1 {
		t.Errorf("created = %d, want %d", created, catalog.Len()-1)
	}

	// существующая правка не перезаписана
	rb, _ := repo.Get(context.Background(), "1-4")
	if rb.Choice.Answer != "C" {
		t.Errorf("1-4 answer = %q, want C", rb.Choice.Answer)
	}

	again, _ := SeedRubrics(context.Background(), repo, catalog.All())
	if again != 0 {
		t.Errorf("second seed created = %d, want 0", again)
	}
}
