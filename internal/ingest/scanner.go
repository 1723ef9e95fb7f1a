package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"
	"asset-ingest/internal/workers"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxScanWorkers caps the scan pool when no limit is configured.
const DefaultMaxScanWorkers = 8

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	UploadDir string
	// ThumbnailDir is excluded from the folder candidates when it lives
	// inside UploadDir.
	ThumbnailDir string
	MaxWorkers   int
	Retry        filesystem.RetryConfig
}

// ScanResult summarizes one initial scan.
type ScanResult struct {
	Folders      int           `json:"folders"`
	Files        int           `json:"files"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	FolderErrors int           `json:"folderErrors"`
	Duration     time.Duration `json:"duration"`
}

// Partial reports whether any file or folder was left out because of an error.
func (r ScanResult) Partial() bool {
	return r.Failed > 0 || r.FolderErrors > 0
}

// Scanner rebuilds the whole catalog from the upload tree.
type Scanner struct {
	cfg       ScannerConfig
	processor *Processor
	catalog   Catalog
	log       logging.Logger
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig, processor *Processor, catalog Catalog, log logging.Logger) *Scanner {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxScanWorkers
	}
	return &Scanner{
		cfg:       cfg,
		processor: processor,
		catalog:   catalog,
		log:       log.With("component", "scanner"),
	}
}

// Scan lists the root and its first-level directories, replaces the folder
// collection, processes every entry of every folder concurrently and then
// replaces the file collection with whatever was processed successfully.
// Per-file and per-folder failures are logged and counted. An error is
// returned only when the root cannot be listed, a catalog replacement fails
// or ctx is cancelled; in those cases the file collection is left alone
// unless the failure happened while writing it.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	start := time.Now()
	var result ScanResult

	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)

	folders, err := s.folderCandidates()
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("%w: %w", ErrRootUnreadable, err)
	}
	result.Folders = len(folders)

	records := make([]Folder, 0, len(folders))
	for _, name := range folders {
		records = append(records, NewFolder(name))
	}
	if err := s.catalog.ReplaceFolders(ctx, records); err != nil {
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("%w: replace folders: %w", ErrCatalogWrite, err)
	}
	s.log.Debug("replaced folder collection with %d folders", len(records))

	files, err := s.processFolders(ctx, folders, &result)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		return result, err
	}

	if err := s.catalog.ReplaceFiles(ctx, files); err != nil {
		metrics.ScanRunsTotal.WithLabelValues("failed").Inc()
		return result, fmt.Errorf("%w: replace files: %w", ErrCatalogWrite, err)
	}
	result.Files = len(files)
	result.Duration = time.Since(start)

	runResult := "complete"
	if result.Partial() {
		runResult = "partial"
	}
	metrics.ScanRunsTotal.WithLabelValues(runResult).Inc()
	metrics.ScanLastDuration.Set(result.Duration.Seconds())
	metrics.ScanLastTimestamp.Set(float64(time.Now().Unix()))

	s.log.Info("Initial scan %s in %v: %d folders, %d files, %d skipped, %d failed, %d unreadable folders",
		runResult, result.Duration.Round(time.Millisecond), result.Folders, result.Files,
		result.Skipped, result.Failed, result.FolderErrors)

	return result, nil
}

// folderCandidates returns "" for the root followed by every first-level
// directory other than the thumbnail directory.
func (s *Scanner) folderCandidates() ([]string, error) {
	entries, err := filesystem.ReadDirWithRetry(s.cfg.UploadDir, s.cfg.Retry)
	if err != nil {
		return nil, err
	}

	thumbDir := filepath.Clean(s.cfg.ThumbnailDir)
	folders := []string{""}
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(s.cfg.UploadDir, name)
		if path == thumbDir {
			continue
		}
		// DirEntry type bits do not follow symlinks.
		info, err := filesystem.StatWithRetry(path, s.cfg.Retry)
		if err != nil {
			s.log.Warn("cannot stat %s: %v", path, err)
			continue
		}
		if info.IsDir() {
			folders = append(folders, name)
		}
	}
	return folders, nil
}

func (s *Scanner) processFolders(ctx context.Context, folders []string, result *ScanResult) ([]FileRecord, error) {
	limit := workers.ForMixed(s.cfg.MaxWorkers)
	metrics.ScanWorkers.Set(float64(limit))

	var (
		g       errgroup.Group
		mu      sync.Mutex
		files   []FileRecord
		skipped atomic.Int64
		failed  atomic.Int64
	)
	g.SetLimit(limit)

	for _, folder := range folders {
		dir := filepath.Join(s.cfg.UploadDir, folder)
		entries, err := filesystem.ReadDirWithRetry(dir, s.cfg.Retry)
		if err != nil {
			s.log.Error("failed to list folder %q: %v", folder, err)
			metrics.ScanFolderErrors.Inc()
			result.FolderErrors++
			continue
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				break
			}
			folder, filename := folder, entry.Name()
			g.Go(func() error {
				rec, err := s.processor.Process(ctx, folder, filename)
				recordOutcome("scan", rec, err)
				switch {
				case err != nil:
					failed.Add(1)
				case rec == nil:
					skipped.Add(1)
				default:
					mu.Lock()
					files = append(files, *rec)
					mu.Unlock()
				}
				return nil
			})
		}
	}

	_ = g.Wait()

	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}
	return files, nil
}
