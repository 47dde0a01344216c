package ratelimit

import (
	"sync"
	"time"
)

const (
	defaultLimit           = 20
	defaultCleanupInterval = 5 * time.Minute
)

// Limiter - лимит сдач на ученика (sliding window)
type Limiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type Config struct {
	RequestsPerMinute int
	// Window - ширина окна, по умолчанию минута
	Window          time.Duration
	CleanupInterval time.Duration
}

func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerMinute
	if limit <= 0 {
		limit = defaultLimit
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = defaultCleanupInterval
	}

	l := &Limiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go l.cleanup(interval)
	return l
}

func (l *Limiter) Allow(learnerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	fresh := l.fresh(learnerID, now)

	if len(fresh) >= l.limit {
		l.requests[learnerID] = fresh
		return false
	}

	l.requests[learnerID] = append(fresh, now)
	return true
}

func (l *Limiter) RemainingRequests(learnerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	cnt := 0
	for _, t := range l.requests[learnerID] {
		if t.After(cutoff) {
			cnt++
		}
	}

	if rem := l.limit - cnt; rem > 0 {
		return rem
	}
	return 0
}

// ResetTime - когда освободится следующий слот
func (l *Limiter) ResetTime(learnerID string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.fresh(learnerID, now)
	if len(ts) == 0 {
		return now
	}
	// fresh хранит метки по возрастанию
	return ts[0].Add(l.window)
}

// Stop останавливает фоновую чистку и ждёт её завершения.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

// fresh - метки внутри окна; вызывать под l.mu
func (l *Limiter) fresh(learnerID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	old := l.requests[learnerID]
	fresh := old[:0]
	for _, t := range old {
		if t.After(cutoff) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (l *Limiter) cleanup(interval time.Duration) {
	defer close(l.done)

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.evict()
		}
	}
}

func (l *Limiter) evict() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id := range l.requests {
		fresh := l.fresh(id, now)
		if len(fresh) == 0 {
			delete(l.requests, id)
		} else {
			l.requests[id] = fresh
		}
	}
}

func (l *Limiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}
