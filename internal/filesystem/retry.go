package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"
)

// VolumeResolver maps paths to volume labels ("uploads", "thumbnails", ...)
// for metric labeling, using longest-prefix matching on absolute paths.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	prefix string // absolute path with trailing slash
	name   string
}

// NewVolumeResolver creates a resolver from a map of volume name to path.
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !strings.HasSuffix(abs, string(filepath.Separator)) {
			abs += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{prefix: abs, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].prefix) > len(mounts[j].prefix)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	withSep := abs + string(filepath.Separator)
	for _, m := range vr.mounts {
		if strings.HasPrefix(withSep, m.prefix) {
			return m.name
		}
	}

	return "unknown"
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	VolumeResolver *VolumeResolver
	Logger         logging.Logger
}

// DefaultRetryConfig returns defaults tuned for NFS-backed upload trees.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// withRetry runs fn, retrying with capped exponential backoff while it fails
// with ESTALE. Any other error is returned immediately.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.VolumeResolver.Resolve(path)
	log := config.logger()
	backoff := config.InitialBackoff

	defer func() {
		metrics.FilesystemOperationDuration.WithLabelValues(volume, op).Observe(time.Since(start).Seconds())
	}()

	var zero T
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				log.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
			}
			return result, nil
		}

		lastErr = err
		if !isNFSStaleError(err) {
			return zero, err
		}

		metrics.FilesystemStaleErrors.WithLabelValues(op, volume).Inc()

		if attempt < config.MaxRetries {
			metrics.FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
			log.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	log.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
	return zero, lastErr
}

// StatWithRetry performs os.Stat, retrying NFS stale file handle errors.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry performs os.Open, retrying NFS stale file handle errors.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry performs os.ReadDir, retrying NFS stale file handle errors.
func ReadDirWithRetry(path string, config RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}
