package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New[string]()
	defer c.Stop()

	c.Set("2-1", "selector-rules", 5*time.Second)

	got, ok := c.Get("2-1")
	if !ok {
		t.Fatal("Get() should return ok=true for existing key")
	}
	if got != "selector-rules" {
		t.Errorf("Get() = %v, want %v", got, "selector-rules")
	}
}

func TestCache_GetNonExistent(t *testing.T) {
	c := New[*domain.Rubric]()
	defer c.Stop()

	got, ok := c.Get("9-9")
	if ok {
		t.Error("Get() should return ok=false for non-existent key")
	}
	if got != nil {
		t.Errorf("Get() = %v, want nil", got)
	}
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New[int]()
	defer c.Stop()

	c.Set("k", 1, 50*time.Millisecond)
	if _, ok := c.Get("k"); !ok {
		t.Error("key should exist before TTL expiration")
	}

	time.Sleep(100 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("key should be expired after TTL")
	}
}

func TestCache_DeleteAndOverwrite(t *testing.T) {
	c := New[*domain.Rubric]()
	defer c.Stop()

	first := &domain.Rubric{ID: "1-4", PassScore: 10}
	second := &domain.Rubric{ID: "1-4", PassScore: 20}

	c.Set("1-4", first, time.Hour)
	c.Set("1-4", second, time.Hour)
	if got, _ := c.Get("1-4"); got != second {
		t.Errorf("Get() = %v, want overwritten value", got)
	}

	c.Delete("1-4")
	if _, ok := c.Get("1-4"); ok {
		t.Error("key should not exist after delete")
	}
}

func TestCache_CleanupRemovesExpired(t *testing.T) {
	c := NewWithContext[int](context.Background(), Options{CleanupInterval: 10 * time.Millisecond})
	defer c.Stop()

	c.Set("short", 1, time.Millisecond)
	c.Set("long", 2, time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after cleanup", c.Len())
	}
}

func TestCache_Stop(t *testing.T) {
	c := New[int]()

	c.Stop()
	// повторный Stop не должен паниковать
	c.Stop()
}

func TestCache_NewWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewWithContext[string](ctx, Options{})

	c.Set("ctx-key", "ctx-value", time.Hour)
	if got, ok := c.Get("ctx-key"); !ok || got != "ctx-value" {
		t.Error("cache should work before context cancel")
	}

	cancel()
	time.Sleep(10 * time.Millisecond)

	c.Set("another", "value", time.Hour)
	if _, ok := c.Get("another"); !ok {
		t.Error("cache should still work after context cancel")
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int]()
	defer c.Stop()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Set("concurrent-key", i, time.Hour)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			c.Get("concurrent-key")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.Delete("concurrent-key")
			time.Sleep(time.Microsecond)
		}
	}()

	wg.Wait()
}
