package media

import (
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"asset-ingest/internal/logging"
)

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if format != "png" {
		t.Fatalf("thumbnail format = %s, want png", format)
	}
	return img
}

func TestDeriveFitsInsideBox(t *testing.T) {
	dir := t.TempDir()
	deriver := NewThumbnailDeriver(DefaultThumbnailConfig(), logging.Nop())

	tests := []struct {
		name               string
		format             string
		width, height      int
		wantW              int
		wantHMin, wantHMax int
	}{
		{name: "wide png", format: "png", width: 400, height: 100, wantW: 150, wantHMin: 37, wantHMax: 38},
		{name: "square jpeg", format: "jpeg", width: 600, height: 600, wantW: 150, wantHMin: 150, wantHMax: 150},
		{name: "bmp", format: "bmp", width: 300, height: 150, wantW: 150, wantHMin: 75, wantHMax: 75},
		{name: "small gif not upscaled", format: "gif", width: 40, height: 20, wantW: 40, wantHMin: 20, wantHMax: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(dir, tt.name+"."+tt.format)
			dest := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+ThumbnailExt)
			writeTestImage(t, src, tt.width, tt.height, tt.format)

			if err := deriver.Derive(src, dest); err != nil {
				t.Fatalf("Derive() error = %v", err)
			}

			b := decodePNG(t, dest).Bounds()
			if b.Dx() != tt.wantW || b.Dy() < tt.wantHMin || b.Dy() > tt.wantHMax {
				t.Errorf("thumbnail = %dx%d, want %dx[%d,%d]", b.Dx(), b.Dy(), tt.wantW, tt.wantHMin, tt.wantHMax)
			}
		})
	}
}

func TestDeriveTallImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "tall.png")
	dest := filepath.Join(dir, "tall_thumb.png")
	writeTestImage(t, src, 100, 400, "png")

	if err := NewThumbnailDeriver(DefaultThumbnailConfig(), logging.Nop()).Derive(src, dest); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	b := decodePNG(t, dest).Bounds()
	if b.Dy() != 150 || b.Dx() > 38 || b.Dx() < 37 {
		t.Errorf("thumbnail = %dx%d, want ~37x150", b.Dx(), b.Dy())
	}
}

func TestDeriveDropsTransparency(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "alpha.png")
	dest := filepath.Join(dir, "alpha_thumb.png")
	writeTestImage(t, src, 20, 20, "png") // alpha 128 everywhere

	if err := NewThumbnailDeriver(DefaultThumbnailConfig(), logging.Nop()).Derive(src, dest); err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	img := decodePNG(t, dest)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				t.Fatalf("pixel (%d,%d) alpha = %d, want opaque", x, y, a)
			}
		}
	}
}

func TestDeriveFailureLeavesNoFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(src, []byte("\x89PNG\r\n\x1a\ngarbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	thumbDir := filepath.Join(dir, "thumbs")
	if err := os.Mkdir(thumbDir, 0o755); err != nil {
		t.Fatal(err)
	}
	dest := ThumbnailPath(thumbDir, "abc")

	if err := NewThumbnailDeriver(DefaultThumbnailConfig(), logging.Nop()).Derive(src, dest); err == nil {
		t.Fatal("Derive() expected error for corrupt image")
	}

	entries, err := os.ReadDir(thumbDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("thumbnail dir has %d entries after failure, want 0", len(entries))
	}
}

func TestWriteFileAtomicRemovesTempOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	// Renaming a file onto a non-empty directory fails.
	dest := filepath.Join(dir, "occupied")
	if err := os.MkdirAll(filepath.Join(dest, "child"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := writeFileAtomic(dest, func(w io.Writer) error {
		_, err := w.Write([]byte("data"))
		return err
	})
	if err == nil {
		t.Fatal("writeFileAtomic() expected error")
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("temp file %s left behind", e.Name())
		}
	}
}

func TestThumbnailPath(t *testing.T) {
	got := ThumbnailPath("/cache", "0123abcd")
	if got != filepath.Join("/cache", "0123abcd.png") {
		t.Errorf("ThumbnailPath() = %q", got)
	}
}

func TestThumbnailExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")

	if ThumbnailExists(path) {
		t.Error("ThumbnailExists() = true for missing file")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !ThumbnailExists(path) {
		t.Error("ThumbnailExists() = false for existing file")
	}
	if ThumbnailExists(dir) {
		t.Error("ThumbnailExists() = true for a directory")
	}
}

func TestNewThumbnailDeriverDefaults(t *testing.T) {
	d := NewThumbnailDeriver(ThumbnailConfig{}, nil)
	if d.Size() != DefaultThumbnailSize {
		t.Errorf("Size() = %d, want %d", d.Size(), DefaultThumbnailSize)
	}
}
