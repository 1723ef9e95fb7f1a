package janitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"asset-ingest/internal/logging"
	"asset-ingest/internal/media"
	"asset-ingest/internal/metrics"

	"github.com/go-co-op/gocron/v2"
)

const jobName = "thumbnail-janitor"

// Defaults for Config.
const (
	DefaultInterval = time.Hour
	// DefaultMinAge keeps freshly derived thumbnails whose record has not
	// been written yet.
	DefaultMinAge = 10 * time.Minute
)

// IDSource lists the IDs of every cataloged file.
type IDSource interface {
	FileIDs(ctx context.Context) (map[string]struct{}, error)
}

// Config configures a Janitor.
type Config struct {
	ThumbnailDir string
	Interval     time.Duration
	MinAge       time.Duration
}

// Janitor periodically sweeps the thumbnail cache.
type Janitor struct {
	cfg       Config
	ids       IDSource
	log       logging.Logger
	scheduler gocron.Scheduler
	now       func() time.Time
}

// New creates a Janitor. It does nothing until Start.
func New(cfg Config, ids IDSource, log logging.Logger) (*Janitor, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MinAge < 0 {
		cfg.MinAge = 0
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	return &Janitor{
		cfg:       cfg,
		ids:       ids,
		log:       log.With("component", "janitor"),
		scheduler: s,
		now:       time.Now,
	}, nil
}

// Start schedules a sweep every Interval. Overlapping runs are skipped.
func (j *Janitor) Start(ctx context.Context) error {
	_, err := j.scheduler.NewJob(
		gocron.DurationJob(j.cfg.Interval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := j.Sweep(ctx); err != nil {
				j.log.Error("thumbnail sweep failed: %v", err)
			}
		}, ctx),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", jobName, err)
	}

	j.scheduler.Start()
	j.log.Info("Thumbnail janitor scheduled every %v", j.cfg.Interval)
	return nil
}

// Stop shuts the scheduler down, waiting for a running sweep.
func (j *Janitor) Stop() error {
	return j.scheduler.Shutdown()
}

// Sweep deletes thumbnails older than MinAge whose ID is not cataloged and
// returns how many were removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	ids, err := j.ids.FileIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list catalog ids: %w", err)
	}

	entries, err := os.ReadDir(j.cfg.ThumbnailDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", j.cfg.ThumbnailDir, err)
	}

	cutoff := j.now().Add(-j.cfg.MinAge)
	removed := 0

	for _, entry := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}

		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != media.ThumbnailExt {
			continue
		}
		if _, ok := ids[strings.TrimSuffix(name, media.ThumbnailExt)]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.cfg.ThumbnailDir, name)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			j.log.Warn("failed to remove orphaned thumbnail %s: %v", path, err)
			continue
		}
		removed++
		metrics.ThumbnailOrphansReclaimed.Inc()
	}

	if removed > 0 {
		j.log.Info("Reclaimed %d orphaned thumbnails", removed)
	}
	return removed, nil
}
