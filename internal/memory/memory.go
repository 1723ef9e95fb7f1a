package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"
)

// Config holds memory management configuration
type Config struct {
	// LimitBytes is the soft limit; 0 uses GOMEMLIMIT, and no limit disables
	// backpressure.
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a paused monitor resumes.
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio at which the monitor pauses.
	CriticalWaterMark float64

	CheckInterval time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor tracks heap usage and pauses callers of Wait while it is critical.
type Monitor struct {
	cfg   Config
	limit int64
	log   logging.Logger
	alloc func() uint64

	mu       sync.RWMutex
	current  uint64
	paused   bool
	resumeCh chan struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMonitor creates a Monitor. Call Start to begin sampling.
func NewMonitor(cfg Config, log logging.Logger) *Monitor {
	limit := cfg.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
		}
	}

	m := &Monitor{
		cfg:      cfg,
		limit:    limit,
		log:      log.With("component", "memory"),
		alloc:    heapAlloc,
		resumeCh: make(chan struct{}),
		stopCh:   make(chan struct{}),
	}

	if limit == 0 {
		m.log.Debug("No memory limit configured, backpressure disabled")
	} else {
		m.log.Info("Memory backpressure at %.0f%% of %s", cfg.CriticalWaterMark*100, formatBytes(limit))
	}
	return m
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 || m.cfg.CheckInterval <= 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases every waiter.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) check() {
	alloc := m.alloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.cfg.CriticalWaterMark && !m.paused:
		m.log.Warn("Memory critical (%.1f%% of limit), pausing image decoding", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		go runtime.GC()
	case usage < m.cfg.HighWaterMark && m.paused:
		m.log.Info("Memory recovered (%.1f%% of limit), resuming image decoding", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumeCh)
		m.resumeCh = make(chan struct{})
	}
}

// Wait blocks while the monitor is paused. It returns ctx.Err() if ctx ends
// first and nil once decoding may proceed or the monitor is stopped.
func (m *Monitor) Wait(ctx context.Context) error {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return nil
	}
	resume := m.resumeCh
	m.mu.RUnlock()

	metrics.MemoryBackpressureWaits.Inc()

	select {
	case <-resume:
		return nil
	case <-m.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Paused reports whether callers of Wait are currently held.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled allocation as a ratio of the limit, or 0
// without a limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// Limit returns the effective limit in bytes.
func (m *Monitor) Limit() int64 {
	return m.limit
}
