package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"asset-ingest/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu        sync.Mutex
	vipsAvailable bool
	vipsLog       logging.Logger = logging.Nop()
)

// InitVips starts libvips once per process and routes its log output
// through log, filtered to log's level.
func InitVips(log logging.Logger) error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		return nil
	}

	vipsLog = log.With("component", "vips")
	vips.LoggingSettings(vipsLogHandler(vipsLog), vipsLevelFor(log.Level()))

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	log.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

func vipsLevelFor(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func vipsLogHandler(log logging.Logger) func(string, vips.LogLevel, string) {
	return func(domain string, level vips.LogLevel, msg string) {
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			log.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			log.Warn("[%s] %s", domain, msg)
		default:
			log.Debug("[%s] %s", domain, msg)
		}
	}
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		vipsLog.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// LoadImageWithVips decodes path with libvips, shrinking at decode time to fit
// within width x height. The result is handed back as an image.Image via a
// lossless PNG round trip.
func LoadImageWithVips(path string, width, height int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	vipsLog.Debug("vips loaded %s: %dx%d", filepath.Base(path), ref.Width(), ref.Height())

	// SizeDown keeps images already inside the box at their own size.
	if err := ref.ThumbnailWithSize(width, height, vips.InterestingNone, vips.SizeDown); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
