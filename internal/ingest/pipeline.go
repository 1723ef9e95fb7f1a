package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"asset-ingest/internal/logging"
)

// Pipeline runs the initial scan and then hands off to the watcher.
type Pipeline struct {
	scanner *Scanner
	watcher *Watcher
	log     logging.Logger

	ready    atomic.Bool
	mu       sync.Mutex
	lastScan *ScanResult
	scanErr  error
}

// NewPipeline creates a Pipeline.
func NewPipeline(scanner *Scanner, watcher *Watcher, log logging.Logger) *Pipeline {
	return &Pipeline{scanner: scanner, watcher: watcher, log: log}
}

// Run scans the upload tree and, unless the scan failed outright, watches it
// until ctx is cancelled. The watcher never runs concurrently with the scan.
func (p *Pipeline) Run(ctx context.Context) error {
	p.log.Info("Starting initial scan...")

	result, err := p.scanner.Scan(ctx)

	p.mu.Lock()
	p.lastScan = &result
	p.scanErr = err
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.log.Error("Initial scan failed, watcher not started: %v", err)
		return err
	}

	p.ready.Store(true)
	return p.watcher.Run(ctx)
}

// Ready reports whether the initial scan has completed.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Status describes the pipeline for health endpoints.
type Status struct {
	Ready     bool        `json:"ready"`
	Watcher   string      `json:"watcher"`
	LastScan  *ScanResult `json:"lastScan,omitempty"`
	ScanError string      `json:"scanError,omitempty"`
}

// Status returns a snapshot of the pipeline state.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		Ready:    p.ready.Load(),
		Watcher:  p.watcher.State().String(),
		LastScan: p.lastScan,
	}
	if p.scanErr != nil {
		st.ScanError = p.scanErr.Error()
	}
	return st
}
