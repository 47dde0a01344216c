package rubric

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog - набор рубрик по id упражнения. Безопасен для конкурентного чтения,
// Replace атомарно подменяет весь набор.
type Catalog struct {
	mu      sync.RWMutex
	rubrics map[string]*domain.Rubric
}

// Default - встроенный каталог курса.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded rubric catalog is invalid: %v", err))
	}
	return c
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse разбирает YAML-список рубрик и валидирует каждую. Повторный id - ошибка.
func Parse(data []byte) (*Catalog, error) {
	list, err := decode(data)
	if err != nil {
		return nil, err
	}

	rubrics := make(map[string]*domain.Rubric, len(list))
	for _, r := range list {
		r.ID = strings.TrimSpace(r.ID)
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, dup := rubrics[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateRubric, r.ID)
		}
		rubrics[r.ID] = r
	}
	return &Catalog{rubrics: rubrics}, nil
}

func decode(data []byte) ([]*domain.Rubric, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var list []*domain.Rubric
	if err := dec.Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRubric, err)
	}
	return list, nil
}

func (c *Catalog) Rubric(ctx context.Context, exerciseID string) (*domain.Rubric, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.rubrics[strings.TrimSpace(exerciseID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRubricNotFound, exerciseID)
	}
	return r, nil
}

// IDs - отсортированные id упражнений.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.rubrics))
	for id := range c.rubrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All - рубрики в порядке id.
func (c *Catalog) All() []*domain.Rubric {
	ids := c.IDs()

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Rubric, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.rubrics[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rubrics)
}

// Replace подменяет содержимое каталога содержимым next.
func (c *Catalog) Replace(next *Catalog) {
	next.mu.RLock()
	rubrics := next.rubrics
	next.mu.RUnlock()

	c.mu.Lock()
	c.rubrics = rubrics
	c.mu.Unlock()
}
