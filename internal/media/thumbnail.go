package media

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the edge of the square bounding box thumbnails are
// fitted into.
const DefaultThumbnailSize = 150

// ThumbnailExt is the extension of every cached thumbnail.
const ThumbnailExt = ".png"

// ThumbnailConfig configures a ThumbnailDeriver.
type ThumbnailConfig struct {
	Size    int
	UseVips bool
}

// DefaultThumbnailConfig returns the 150x150 imaging-only configuration.
func DefaultThumbnailConfig() ThumbnailConfig {
	return ThumbnailConfig{Size: DefaultThumbnailSize}
}

// ThumbnailPath returns the cache path of the thumbnail for a file identifier.
func ThumbnailPath(dir, id string) string {
	return filepath.Join(dir, id+ThumbnailExt)
}

// ThumbnailDeriver renders bounded, opaque PNG thumbnails.
type ThumbnailDeriver struct {
	cfg ThumbnailConfig
	log logging.Logger
}

// NewThumbnailDeriver creates a deriver. A non-positive Size falls back to
// DefaultThumbnailSize.
func NewThumbnailDeriver(cfg ThumbnailConfig, log logging.Logger) *ThumbnailDeriver {
	if cfg.Size <= 0 {
		cfg.Size = DefaultThumbnailSize
	}
	if log == nil {
		log = logging.Nop()
	}
	return &ThumbnailDeriver{cfg: cfg, log: log}
}

// Size returns the bounding box edge in pixels.
func (d *ThumbnailDeriver) Size() int {
	return d.cfg.Size
}

// Derive decodes src, fits it inside the bounding box preserving aspect
// ratio, drops transparency and atomically writes a PNG to dest. Images
// already inside the box are not upscaled.
func (d *ThumbnailDeriver) Derive(src, dest string) error {
	start := time.Now()

	err := d.derive(src, dest)

	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		d.log.Error("thumbnail derivation failed for %s: %v", src, err)
		return err
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	d.log.Debug("thumbnail written: %s", dest)
	return nil
}

func (d *ThumbnailDeriver) derive(src, dest string) error {
	img, err := d.decode(src)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	thumb := imaging.Fit(img, d.cfg.Size, d.cfg.Size, imaging.Lanczos)
	flattenAlpha(thumb)

	err = writeFileAtomic(dest, func(w io.Writer) error {
		return png.Encode(w, thumb)
	})
	if err != nil {
		return fmt.Errorf("write thumbnail %s: %w", dest, err)
	}
	return nil
}

func (d *ThumbnailDeriver) decode(src string) (image.Image, error) {
	if d.cfg.UseVips && IsVipsAvailable() {
		img, err := LoadImageWithVips(src, d.cfg.Size, d.cfg.Size)
		if err == nil {
			return img, nil
		}
		d.log.Debug("vips decode failed for %s, falling back to imaging: %v", src, err)
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Empty() {
		return nil, errors.New("image has no pixels")
	}
	return img, nil
}

// flattenAlpha makes every pixel fully opaque.
func flattenAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

// ThumbnailExists reports whether a regular file is present at path.
func ThumbnailExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
