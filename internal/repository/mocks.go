package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

type MockRubricRepository struct {
	mu      sync.RWMutex
	rubrics map[string]domain.Rubric

	// GetCalls - сколько раз дёргали Get, для проверки кеша
	GetCalls int
	// Err, если задан, возвращается из всех методов
	Err error
}

var _ RubricRepository = (*MockRubricRepository)(nil)

func NewMockRubricRepository(seed ...domain.Rubric) *MockRubricRepository {
	m := &MockRubricRepository{rubrics: make(map[string]domain.Rubric)}
	for _, r := range seed {
		m.rubrics[r.ID] = r
	}
	return m
}

func (m *MockRubricRepository) Get(ctx context.Context, exerciseID string) (*domain.Rubric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.rubrics[exerciseID]
	if !ok {
		return nil, domain.ErrRubricNotFound
	}
	return &r, nil
}

func (m *MockRubricRepository) Create(ctx context.Context, rubric *domain.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	if _, exists := m.rubrics[rubric.ID]; exists {
		return domain.ErrDuplicateRubric
	}
	m.rubrics[rubric.ID] = *rubric
	return nil
}

func (m *MockRubricRepository) Upsert(ctx context.Context, rubric *domain.Rubric) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.rubrics[rubric.ID] = *rubric
	return nil
}

func (m *MockRubricRepository) List(ctx context.Context) ([]domain.Rubric, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]domain.Rubric, 0, len(m.rubrics))
	for _, r := range m.rubrics {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type MockSubmissionRepository struct {
	mu   sync.RWMutex
	subs []domain.Submission

	Err error
}

var _ SubmissionRepository = (*MockSubmissionRepository)(nil)

func NewMockSubmissionRepository() *MockSubmissionRepository {
	return &MockSubmissionRepository{}
}

func (m *MockSubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *MockSubmissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.subs {
		if m.subs[i].ID == id {
			s := m.subs[i]
			return &s, nil
		}
	}
	return nil, domain.ErrSubmissionNotFound
}

func (m *MockSubmissionRepository) ListByLearner(ctx context.Context, learnerID, exerciseID string, limit int) ([]domain.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	var out []domain.Submission
	// обратный порядок вставки = новые первыми
	for i := len(m.subs) - 1; i >= 0; i-- {
		s := m.subs[i]
		if s.LearnerID != learnerID {
			continue
		}
		if exerciseID != "" && s.ExerciseID != exerciseID {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockSubmissionRepository) Summary(ctx context.Context, learnerID string) ([]domain.ExerciseSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}

	byExercise := make(map[string]*domain.ExerciseSummary)
	for _, s := range m.subs {
		if s.LearnerID != learnerID {
			continue
		}
		sum, ok := byExercise[s.ExerciseID]
		if !ok {
			sum = &domain.ExerciseSummary{ExerciseID: s.ExerciseID}
			byExercise[s.ExerciseID] = sum
		}
		sum.Attempts++
		if s.Result.Score > sum.BestScore {
			sum.BestScore = s.Result.Score
		}
		sum.Passed = sum.Passed || s.Result.Passed
	}

	out := make([]domain.ExerciseSummary, 0, len(byExercise))
	for _, sum := range byExercise {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExerciseID < out[j].ExerciseID })
	return out, nil
}
