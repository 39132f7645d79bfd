package utils

import (
	"context"
	"sync"
	"time"
)

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Throttle enforces a pause between consecutive requests made by a single
// sequential caller. The pause is measured from the moment the previous
// request finished (Done), so slow requests still get the full gap.
type Throttle struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
	sleep    func(context.Context, time.Duration) error
}

// NewThrottle creates a Throttle with the given pause.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval, sleep: Sleep}
}

// Wait blocks until interval has passed since the previous request ended.
// The first call never blocks.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() {
		if elapsed := time.Since(t.last); elapsed < t.interval {
			if err := t.sleep(ctx, t.interval-elapsed); err != nil {
				return err
			}
		}
	}
	t.last = time.Now()
	return nil
}

// Done marks the end of the request started after the last Wait.
func (t *Throttle) Done() {
	t.mu.Lock()
	t.last = time.Now()
	t.mu.Unlock()
}

// URLSet is a thread-safe set for tracking visited URLs within a run.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been visited.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
