package memory

import (
	"context"
	"errors"
	"runtime/debug"
	"testing"
	"time"

	"asset-ingest/internal/logging"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:        limit,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     10 * time.Millisecond,
	}, logging.Nop())
	m.alloc = func() uint64 { return *alloc }
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("HighWaterMark %.2f should be below CriticalWaterMark %.2f", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", cfg.CheckInterval)
	}
}

func TestMonitorPauseAndResume(t *testing.T) {
	alloc := uint64(50)
	m := newTestMonitor(100, &alloc)

	m.check()
	if m.Paused() {
		t.Fatal("paused at 50% usage")
	}
	if got := m.Usage(); got != 0.5 {
		t.Errorf("Usage() = %v, want 0.5", got)
	}

	alloc = 90
	m.check()
	if !m.Paused() {
		t.Fatal("not paused at 90% usage")
	}

	// Between the marks the state is kept.
	alloc = 80
	m.check()
	if !m.Paused() {
		t.Fatal("resumed above the high-water mark")
	}

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	alloc = 10
	m.check()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after resume")
	}
}

func TestWaitHonorsContext(t *testing.T) {
	alloc := uint64(99)
	m := newTestMonitor(100, &alloc)
	m.check()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestStopReleasesWaiters(t *testing.T) {
	alloc := uint64(99)
	m := newTestMonitor(100, &alloc)
	m.check()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop did not release the waiter")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(prev)
	debug.SetMemoryLimit(1<<63 - 1)

	m := NewMonitor(DefaultConfig(), logging.Nop())
	if m.Limit() != 0 {
		t.Fatalf("Limit() = %d, want 0", m.Limit())
	}

	m.Start()
	defer m.Stop()

	if m.Usage() != 0 {
		t.Errorf("Usage() = %v, want 0", m.Usage())
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestMonitorSamplesInBackground(t *testing.T) {
	alloc := uint64(95)
	m := newTestMonitor(100, &alloc)
	m.Start()
	defer m.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for !m.Paused() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !m.Paused() {
		t.Error("background sampling never paused the monitor")
	}
}
