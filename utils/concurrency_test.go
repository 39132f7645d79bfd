package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	added := s.Add("https://example.com/1")
	if !added {
		t.Error("first Add should return true")
	}

	added = s.Add("https://example.com/1")
	if added {
		t.Error("second Add of same URL should return false")
	}

	if !s.Contains("https://example.com/1") {
		t.Error("Contains should report the added URL")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("https://example.com/same") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}

func TestThrottleSpacesCalls(t *testing.T) {
	interval := 50 * time.Millisecond
	th := NewThrottle(interval)
	ctx := context.Background()

	var timestamps []time.Time
	for i := 0; i < 3; i++ {
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("wait: %v", err)
		}
		timestamps = append(timestamps, time.Now())
	}

	for i := 1; i < len(timestamps); i++ {
		gap := timestamps[i].Sub(timestamps[i-1])
		if gap < interval {
			t.Errorf("gap between call %d and %d: %v < minimum %v", i-1, i, gap, interval)
		}
	}
}

func TestThrottlePausesAfterSlowRequest(t *testing.T) {
	interval := 100 * time.Millisecond
	th := NewThrottle(interval)
	ctx := context.Background()

	if err := th.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	time.Sleep(2 * interval) // request slower than the pause
	th.Done()
	ended := time.Now()

	if err := th.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if gap := time.Since(ended); gap < interval {
		t.Errorf("gap after slow request: %v < %v", gap, interval)
	}
}

func TestThrottleFirstCallDoesNotBlock(t *testing.T) {
	th := NewThrottle(time.Hour)
	start := time.Now()
	if err := th.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("first Wait should return immediately")
	}
}

func TestThrottleHonoursContext(t *testing.T) {
	th := NewThrottle(time.Hour)
	_ = th.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := th.Wait(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestSleepZero(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
