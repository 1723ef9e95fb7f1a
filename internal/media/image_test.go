package media

import (
	"os"
	"path/filepath"
	"testing"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/logging"
)

func TestGetImageDimensions(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		format string
		width  int
		height int
	}{
		{format: "png", width: 320, height: 200},
		{format: "jpeg", width: 64, height: 48},
		{format: "gif", width: 10, height: 30},
		{format: "bmp", width: 7, height: 3},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			path := filepath.Join(dir, "img."+tt.format)
			writeTestImage(t, path, tt.width, tt.height, tt.format)

			dims, err := GetImageDimensions(path, filesystem.DefaultRetryConfig(), logging.Nop())
			if err != nil {
				t.Fatalf("GetImageDimensions() error = %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensionsErrors(t *testing.T) {
	dir := t.TempDir()

	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not an image at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.png")},
		{name: "corrupt file", path: corrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := GetImageDimensions(tt.path, filesystem.DefaultRetryConfig(), logging.Nop()); err == nil {
				t.Error("GetImageDimensions() expected error")
			}
		})
	}
}
