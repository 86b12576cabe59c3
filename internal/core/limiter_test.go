package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestOperationLimiter_AcquireRelease(t *testing.T) {
	l := NewOperationLimiter(2, time.Second)

	steps := []struct {
		name          string
		do            func()
		wantActive    int
		wantAvailable int
	}{
		{"initial", func() {}, 0, 2},
		{"first acquire", func() { mustAcquire(t, l) }, 1, 1},
		{"second acquire", func() { mustAcquire(t, l) }, 2, 0},
		{"first release", l.Release, 1, 1},
		{"second release", l.Release, 0, 2},
	}

	for _, s := range steps {
		s.do()
		if got := l.ActiveCount(); got != s.wantActive {
			t.Errorf("%s: ActiveCount = %d, want %d", s.name, got, s.wantActive)
		}
		if got := l.Available(); got != s.wantAvailable {
			t.Errorf("%s: Available = %d, want %d", s.name, got, s.wantAvailable)
		}
	}
}

func mustAcquire(t *testing.T, l *OperationLimiter) {
	t.Helper()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
}

func TestOperationLimiter_RejectsWhenFull(t *testing.T) {
	l := NewOperationLimiter(1, 50*time.Millisecond)
	mustAcquire(t, l)
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())
	if !errors.Is(err, ErrTooManyOperations) {
		t.Fatalf("Acquire error = %v, want ErrTooManyOperations", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("gave up after %v, before the wait elapsed", elapsed)
	}
	if l.TryAcquire() {
		t.Error("TryAcquire succeeded on a full limiter")
	}
}

func TestOperationLimiter_CallerCancellation(t *testing.T) {
	l := NewOperationLimiter(1, 5*time.Second)
	mustAcquire(t, l)
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Acquire(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Acquire error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Acquire did not return after cancellation")
	}
}

func TestOperationLimiter_NeverExceedsLimit(t *testing.T) {
	const limit = 3
	l := NewOperationLimiter(limit, time.Second)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			defer l.Release()

			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want <= %d", p, limit)
	}
	if got := l.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount after all released = %d", got)
	}
}

func TestOperationLimiter_WaitForDrain(t *testing.T) {
	l := NewOperationLimiter(2, time.Second)

	if err := l.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("idle WaitForDrain: %v", err)
	}

	mustAcquire(t, l)
	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("WaitForDrain returned while an operation was running")
	case <-time.After(30 * time.Millisecond):
	}

	l.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitForDrain did not return after release")
	}

	mustAcquire(t, l)
	defer l.Release()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain error = %v, want deadline exceeded", err)
	}
}

func TestOperationLimiter_StatusAndDefaults(t *testing.T) {
	l := NewOperationLimiter(0, 0)
	if got := l.MaxConcurrent(); got != DefaultMaxConcurrentOperations {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentOperations)
	}

	mustAcquire(t, l)
	defer l.Release()
	want := LimiterStatus{Active: 1, Available: DefaultMaxConcurrentOperations - 1, MaxConcurrent: DefaultMaxConcurrentOperations}
	if got := l.Status(); got != want {
		t.Errorf("Status() = %+v, want %+v", got, want)
	}
}
