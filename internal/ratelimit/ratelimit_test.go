package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 3})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("learner-1") {
			t.Errorf("submission %d should be allowed", i+1)
		}
	}

	if limiter.Allow("learner-1") {
		t.Error("fourth submission should be blocked")
	}
}

func TestLimiter_DifferentLearners(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})
	defer limiter.Stop()

	if !limiter.Allow("alice") {
		t.Error("alice first submission should be allowed")
	}
	if !limiter.Allow("bob") {
		t.Error("bob first submission should be allowed")
	}
	if limiter.Allow("alice") {
		t.Error("alice second submission should be blocked")
	}
	if limiter.Allow("bob") {
		t.Error("bob second submission should be blocked")
	}
}

func TestLimiter_RemainingRequests(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 5})
	defer limiter.Stop()

	if got := limiter.RemainingRequests("learner-1"); got != 5 {
		t.Errorf("RemainingRequests() = %d, want 5", got)
	}

	for i := 0; i < 3; i++ {
		limiter.Allow("learner-1")
	}
	if got := limiter.RemainingRequests("learner-1"); got != 2 {
		t.Errorf("RemainingRequests() = %d, want 2", got)
	}

	for i := 0; i < 4; i++ {
		limiter.Allow("learner-1")
	}
	if got := limiter.RemainingRequests("learner-1"); got != 0 {
		t.Errorf("RemainingRequests() = %d, want 0", got)
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 2})
	defer limiter.Stop()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("learner-1")
	now = now.Add(30 * time.Second)
	limiter.Allow("learner-1")

	if limiter.Allow("learner-1") {
		t.Fatal("third submission inside the window should be blocked")
	}

	want := now.Add(30 * time.Second)
	if got := limiter.ResetTime("learner-1"); !got.Equal(want) {
		t.Errorf("ResetTime() = %v, want %v", got, want)
	}

	now = now.Add(31 * time.Second)
	if !limiter.Allow("learner-1") {
		t.Error("submission should be allowed once the oldest one left the window")
	}
}

func TestLimiter_ResetTimeNoHistory(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})
	defer limiter.Stop()

	before := time.Now()
	got := limiter.ResetTime("nobody")
	if got.Before(before) || got.After(time.Now()) {
		t.Errorf("ResetTime() = %v, want now", got)
	}
}

func TestLimiter_DefaultConfig(t *testing.T) {
	limiter := New(Config{})
	defer limiter.Stop()

	for i := 0; i < defaultLimit; i++ {
		if !limiter.Allow("learner-1") {
			t.Errorf("submission %d should be allowed with default config", i+1)
		}
	}
	if limiter.Allow("learner-1") {
		t.Errorf("submission %d should be blocked", defaultLimit+1)
	}
}

func TestLimiter_CleanupEvictsIdle(t *testing.T) {
	limiter := New(Config{
		RequestsPerMinute: 5,
		Window:            20 * time.Millisecond,
		CleanupInterval:   10 * time.Millisecond,
	})
	defer limiter.Stop()

	limiter.Allow("learner-1")
	limiter.Allow("learner-2")

	deadline := time.Now().Add(2 * time.Second)
	for limiter.tracked() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := limiter.tracked(); n != 0 {
		t.Errorf("tracked() = %d, want 0 after cleanup", n)
	}
}

func TestLimiter_Stop(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 1})

	done := make(chan struct{})
	go func() {
		limiter.Stop()
		limiter.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return")
	}

	// после Stop лимитер продолжает отвечать
	if !limiter.Allow("learner-1") {
		t.Error("Allow() should work after Stop")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := New(Config{RequestsPerMinute: 100})
	defer limiter.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				limiter.Allow("learner-1")
			}
		}()
	}
	wg.Wait()

	if got := limiter.RemainingRequests("learner-1"); got != 0 {
		t.Errorf("RemainingRequests() = %d, want 0 after concurrent access", got)
	}
}
