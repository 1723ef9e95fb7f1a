package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/identity"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/media"
	"asset-ingest/internal/mediatypes"
	"asset-ingest/internal/metrics"

	"github.com/moby/locker"
)

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	UploadDir    string
	ThumbnailDir string
	Retry        filesystem.RetryConfig
	// Gate, when set, is waited on before each image is decoded.
	Gate MemoryGate
}

// MemoryGate holds image decoding back while memory is short.
type MemoryGate interface {
	Wait(ctx context.Context) error
}

// Processor turns one file of the upload tree into a FileRecord. It is shared
// by the scanner and the watcher.
type Processor struct {
	cfg    ProcessorConfig
	thumbs *media.ThumbnailDeriver
	log    logging.Logger
	locks  *locker.Locker
}

// NewProcessor creates a Processor.
func NewProcessor(cfg ProcessorConfig, thumbs *media.ThumbnailDeriver, log logging.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		thumbs: thumbs,
		log:    log.With("component", "processor"),
		locks:  locker.New(),
	}
}

// Process builds the record for filename inside folder, a path relative to
// the upload root ("" for the root itself). It returns nil, nil when the
// entry is not a regular file. Images get their dimensions read and a
// thumbnail derived unless one is already cached. Calls for the same file
// are serialized.
func (p *Processor) Process(ctx context.Context, folder, filename string) (*FileRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := identity.Identify(folder, filename)
	p.locks.Lock(id)
	defer p.locks.Unlock(id) //nolint:errcheck // held above

	path := filepath.Join(p.cfg.UploadDir, folder, filename)
	start := time.Now()

	rec, err := p.process(ctx, id, path, folder, filename)
	if err != nil {
		p.log.Error("failed to process %s: %v", path, err)
		return nil, err
	}
	if rec != nil {
		metrics.FileProcessDuration.WithLabelValues(string(rec.Category)).Observe(time.Since(start).Seconds())
	}
	return rec, nil
}

func (p *Processor) process(ctx context.Context, id, path, folder, filename string) (*FileRecord, error) {
	info, err := filesystem.StatWithRetry(path, p.cfg.Retry)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		p.log.Debug("skipping non-regular entry %s", path)
		return nil, nil
	}

	mime, err := media.Classify(path, p.cfg.Retry)
	if err != nil {
		return nil, err
	}

	rec := &FileRecord{
		ID:       id,
		Category: mediatypes.CategoryFor(mime.MimeType, info.Size()),
		MimeType: mime.MimeType,
		FolderID: identity.FolderID(folder),
		Filename: filename,
		BaseName: baseName(filename),
		Size:     info.Size(),
	}

	if rec.Category != mediatypes.CategoryImage {
		return rec, nil
	}

	if p.cfg.Gate != nil {
		if err := p.cfg.Gate.Wait(ctx); err != nil {
			return nil, err
		}
	}

	dims, err := media.GetImageDimensions(path, p.cfg.Retry, p.log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrDimensions, err)
	}

	if err := p.ensureThumbnail(id, path); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrThumbnail, err)
	}

	rec.Extra = &ImageExtra{Width: dims.Width, Height: dims.Height}
	return rec, nil
}

func (p *Processor) ensureThumbnail(id, src string) error {
	dest := media.ThumbnailPath(p.cfg.ThumbnailDir, id)
	if media.ThumbnailExists(dest) {
		metrics.ThumbnailCacheHits.Inc()
		return nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	if err := os.MkdirAll(p.cfg.ThumbnailDir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail dir: %w", err)
	}
	return p.thumbs.Derive(src, dest)
}

// recordOutcome counts one Process call for source ("scan" or "watch").
func recordOutcome(source string, rec *FileRecord, err error) {
	outcome := "skipped"
	switch {
	case err != nil:
		outcome = "error"
	case rec != nil:
		outcome = string(rec.Category)
	}
	metrics.FilesProcessedTotal.WithLabelValues(source, outcome).Inc()
}
