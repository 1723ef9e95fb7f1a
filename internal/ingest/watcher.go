package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"
	"asset-ingest/internal/workers"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/semaphore"
)

// Watcher defaults.
const (
	DefaultStabilityThreshold = 2 * time.Second
	DefaultPollInterval       = 100 * time.Millisecond
	DefaultMaxConcurrent      = 16
)

// WatcherState is the lifecycle state of a Watcher.
type WatcherState int32

const (
	WatcherStopped WatcherState = iota
	WatcherWatching
)

func (s WatcherState) String() string {
	if s == WatcherWatching {
		return "watching"
	}
	return "stopped"
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	UploadDir    string
	ThumbnailDir string
	// StabilityThreshold is how long size and modification time must stay
	// unchanged before a written file is reported as added.
	StabilityThreshold time.Duration
	PollInterval       time.Duration
	MaxConcurrent      int
	Retry              filesystem.RetryConfig
}

// pendingFile tracks a file whose writes have not settled yet.
type pendingFile struct {
	size        int64
	modTime     time.Time
	stableSince time.Time
}

// Watcher keeps the catalog current after the initial scan. It watches the
// upload root and its first-level directories and feeds settled files
// through the Processor.
type Watcher struct {
	cfg       WatcherConfig
	processor *Processor
	catalog   Catalog
	history   History
	log       logging.Logger

	state    atomic.Int32
	sem      *semaphore.Weighted
	inflight sync.WaitGroup
	started  chan struct{} // closed once the initial watches are in place

	// Owned by the Run goroutine.
	fsw     *fsnotify.Watcher
	pending map[string]*pendingFile
	dirs    map[string]bool
	// removed directories; their own watch reports the removal a second time
	removed map[string]bool
}

// NewWatcher creates a Watcher in the stopped state.
func NewWatcher(cfg WatcherConfig, processor *Processor, catalog Catalog, history History, log logging.Logger) *Watcher {
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = DefaultStabilityThreshold
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	return &Watcher{
		cfg:       cfg,
		processor: processor,
		catalog:   catalog,
		history:   history,
		log:       log.With("component", "watcher"),
		sem:       semaphore.NewWeighted(int64(workers.ForIO(cfg.MaxConcurrent))),
		pending:   make(map[string]*pendingFile),
		dirs:      make(map[string]bool),
		removed:   make(map[string]bool),
		started:   make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (w *Watcher) State() WatcherState {
	return WatcherState(w.state.Load())
}

// Run watches until ctx is cancelled, then waits for in-flight events.
// A Watcher can only be run once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(WatcherStopped), int32(WatcherWatching)) {
		return ErrWatcherStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	if err := w.watchDir(w.cfg.UploadDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.UploadDir, err)
	}
	if err := w.watchSubdirs(); err != nil {
		return err
	}

	w.log.Info("Watching %s (%d directories)", w.cfg.UploadDir, len(w.dirs))
	close(w.started)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.inflight.Wait()
			metrics.WatcherPendingSettles.Set(0)
			metrics.WatchedDirectories.Set(0)
			w.log.Info("Watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			w.handleEvent(ctx, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			metrics.WatcherErrors.Inc()
			w.log.Error("watch error: %v", err)

		case now := <-ticker.C:
			w.checkPending(ctx, now)
		}
	}
}

func (w *Watcher) watchDir(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = true
	delete(w.removed, dir)
	metrics.WatchedDirectories.Set(float64(len(w.dirs)))
	return nil
}

func (w *Watcher) watchSubdirs() error {
	entries, err := filesystem.ReadDirWithRetry(w.cfg.UploadDir, w.cfg.Retry)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.cfg.UploadDir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(w.cfg.UploadDir, entry.Name())
		if !w.watchable(path) {
			continue
		}
		info, err := filesystem.StatWithRetry(path, w.cfg.Retry)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := w.watchDir(path); err != nil {
			w.log.Warn("cannot watch %s: %v", path, err)
		}
	}
	return nil
}

func (w *Watcher) watchable(path string) bool {
	return path != filepath.Clean(w.cfg.ThumbnailDir)
}

// relParts splits path into its components relative to the upload root.
// ok is false for the root itself and anything outside it.
func (w *Watcher) relParts(path string) (parts []string, ok bool) {
	rel, err := filepath.Rel(w.cfg.UploadDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	return strings.Split(rel, string(filepath.Separator)), true
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	parts, ok := w.relParts(event.Name)
	if !ok || len(parts) > 2 || (len(parts) == 2 && !w.watchable(filepath.Dir(event.Name))) {
		metrics.WatcherEventsTotal.WithLabelValues("ignored").Inc()
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.handleGone(ctx, event.Name)

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			// Already gone again; the Remove event follows.
			return
		}
		if info.IsDir() {
			if event.Has(fsnotify.Create) && len(parts) == 1 {
				w.addDir(event.Name)
			}
			return
		}
		w.markPending(event.Name, info, time.Now())
	}
}

// addDir starts watching a new first-level directory and picks up files
// that were already inside it.
func (w *Watcher) addDir(dir string) {
	if w.dirs[dir] || !w.watchable(dir) {
		return
	}
	if err := w.watchDir(dir); err != nil {
		metrics.WatcherErrors.Inc()
		w.log.Warn("cannot watch new directory %s: %v", dir, err)
		return
	}
	w.log.Debug("watching new directory %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	now := time.Now()
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			w.markPending(path, fi, now)
		}
	}
}

func (w *Watcher) markPending(path string, info os.FileInfo, now time.Time) {
	p, ok := w.pending[path]
	if !ok {
		w.pending[path] = &pendingFile{size: info.Size(), modTime: info.ModTime(), stableSince: now}
		metrics.WatcherPendingSettles.Set(float64(len(w.pending)))
		return
	}
	p.size, p.modTime, p.stableSince = info.Size(), info.ModTime(), now
}

// checkPending emits "add" for every pending file whose size and
// modification time have not changed for StabilityThreshold.
func (w *Watcher) checkPending(ctx context.Context, now time.Time) {
	for path, p := range w.pending {
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			continue
		}
		if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
			p.size, p.modTime, p.stableSince = info.Size(), info.ModTime(), now
			continue
		}
		if now.Sub(p.stableSince) < w.cfg.StabilityThreshold {
			continue
		}
		delete(w.pending, path)
		w.dispatch(ctx, path, w.handleAdd)
	}
	metrics.WatcherPendingSettles.Set(float64(len(w.pending)))
}

func (w *Watcher) handleGone(ctx context.Context, path string) {
	delete(w.pending, path)
	metrics.WatcherPendingSettles.Set(float64(len(w.pending)))

	if w.dirs[path] {
		delete(w.dirs, path)
		w.removed[path] = true
		metrics.WatchedDirectories.Set(float64(len(w.dirs)))
		w.log.Debug("directory removed: %s", path)
		return
	}
	if w.removed[path] {
		delete(w.removed, path)
		return
	}
	w.dispatch(ctx, path, w.handleUnlink)
}

// dispatch runs fn for path on its own goroutine, bounded by the semaphore.
func (w *Watcher) dispatch(ctx context.Context, path string, fn func(context.Context, string)) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return
	}
	w.inflight.Add(1)
	go func() {
		defer w.inflight.Done()
		defer w.sem.Release(1)
		fn(ctx, path)
	}()
}

// historyPath is the slash-separated path of a file relative to the root.
func (w *Watcher) historyPath(path string) string {
	rel, err := filepath.Rel(w.cfg.UploadDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// handleAdd processes a settled file, upserts its record and records an
// "uploaded" event. The event is recorded even when processing skipped or
// failed the file.
func (w *Watcher) handleAdd(ctx context.Context, path string) {
	metrics.WatcherEventsTotal.WithLabelValues("add").Inc()

	parts, ok := w.relParts(path)
	if !ok {
		return
	}
	folder, filename := "", parts[0]
	if len(parts) == 2 {
		folder, filename = parts[0], parts[1]
	}

	rec, err := w.processor.Process(ctx, folder, filename)
	recordOutcome("watch", rec, err)
	if rec != nil {
		if err := w.catalog.UpsertFile(ctx, *rec); err != nil {
			w.log.Error("failed to upsert %s: %v", path, err)
		} else {
			w.log.Debug("upserted %s (%s)", path, rec.Category)
		}
	}

	if err := w.history.RecordEvent(ctx, EventUploaded, w.historyPath(path)); err != nil {
		w.log.Error("failed to record upload of %s: %v", path, err)
	}
}

// handleUnlink records a "deleted" event. The catalog record and any
// thumbnail are left in place.
func (w *Watcher) handleUnlink(ctx context.Context, path string) {
	metrics.WatcherEventsTotal.WithLabelValues("unlink").Inc()

	if err := w.history.RecordEvent(ctx, EventDeleted, w.historyPath(path)); err != nil {
		w.log.Error("failed to record deletion of %s: %v", path, err)
	}
}
