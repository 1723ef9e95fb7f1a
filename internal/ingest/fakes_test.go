package ingest

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/media"
)

// memCatalog is an in-memory Catalog recording the order of calls.
type memCatalog struct {
	mu      sync.Mutex
	folders map[string]Folder
	files   map[string]FileRecord
	calls   []string
	upserts int

	replaceFoldersErr error
	replaceFilesErr   error
	upsertErr         error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{folders: map[string]Folder{}, files: map[string]FileRecord{}}
}

func (c *memCatalog) ReplaceFolders(_ context.Context, folders []Folder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "ReplaceFolders")
	if c.replaceFoldersErr != nil {
		return c.replaceFoldersErr
	}
	c.folders = map[string]Folder{}
	for _, f := range folders {
		c.folders[f.ID] = f
	}
	return nil
}

func (c *memCatalog) ReplaceFiles(_ context.Context, files []FileRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "ReplaceFiles")
	if c.replaceFilesErr != nil {
		return c.replaceFilesErr
	}
	c.files = map[string]FileRecord{}
	for _, f := range files {
		c.files[f.ID] = f
	}
	return nil
}

func (c *memCatalog) UpsertFile(_ context.Context, file FileRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "UpsertFile")
	if c.upsertErr != nil {
		return c.upsertErr
	}
	c.upserts++
	c.files[file.ID] = file
	return nil
}

func (c *memCatalog) file(id string) (FileRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[id]
	return f, ok
}

func (c *memCatalog) upsertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upserts
}

func (c *memCatalog) fileCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

func (c *memCatalog) folderNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.folders))
	for _, f := range c.folders {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func (c *memCatalog) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type historyEvent struct {
	Kind EventKind
	Path string
}

// memHistory is an in-memory History.
type memHistory struct {
	mu     sync.Mutex
	events []historyEvent
	err    error
}

func (h *memHistory) RecordEvent(_ context.Context, kind EventKind, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, historyEvent{Kind: kind, Path: path})
	return h.err
}

func (h *memHistory) list() []historyEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]historyEvent(nil), h.events...)
}

func (h *memHistory) has(kind EventKind, path string) bool {
	for _, e := range h.list() {
		if e.Kind == kind && e.Path == path {
			return true
		}
	}
	return false
}

type testEnv struct {
	uploadDir string
	thumbDir  string
	processor *Processor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	uploadDir := filepath.Join(root, "uploads")
	thumbDir := filepath.Join(root, "thumbs")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		t.Fatal(err)
	}

	retry := filesystem.DefaultRetryConfig()
	proc := NewProcessor(ProcessorConfig{
		UploadDir:    uploadDir,
		ThumbnailDir: thumbDir,
		Retry:        retry,
	}, media.NewThumbnailDeriver(media.DefaultThumbnailConfig(), logging.Nop()), logging.Nop())

	return &testEnv{uploadDir: uploadDir, thumbDir: thumbDir, processor: proc}
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
