package media

import (
	"fmt"
	"image"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/logging"

	// Decoders for every format the catalog treats as an image, plus webp
	// for thumbnails of sources that arrive with a misleading extension.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions by decoding only the image
// header.
func GetImageDimensions(path string, retry filesystem.RetryConfig, log logging.Logger) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("decode header of %s: %w", path, err)
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
