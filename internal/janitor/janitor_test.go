package janitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-ingest/internal/logging"
)

type staticIDs struct {
	ids map[string]struct{}
	err error
}

func (s staticIDs) FileIDs(context.Context) (map[string]struct{}, error) {
	return s.ids, s.err
}

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().Add(-time.Hour)

	touch(t, filepath.Join(dir, "kept.png"), old)
	touch(t, filepath.Join(dir, "orphan.png"), old)
	touch(t, filepath.Join(dir, "fresh.png"), time.Now())
	touch(t, filepath.Join(dir, "notes.txt"), old)
	touch(t, filepath.Join(dir, ".orphan.png.tmp-1"), old)

	j, err := New(Config{ThumbnailDir: dir, MinAge: 10 * time.Minute},
		staticIDs{ids: map[string]struct{}{"kept": {}}}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}

	removed, err := j.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"kept.png", true},
		{"orphan.png", false},
		{"fresh.png", true},
		{"notes.txt", true},
		{".orphan.png.tmp-1", true},
	}
	for _, tt := range tests {
		if got := exists(filepath.Join(dir, tt.name)); got != tt.want {
			t.Errorf("%s exists = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSweepMissingDir(t *testing.T) {
	j, err := New(Config{ThumbnailDir: filepath.Join(t.TempDir(), "none")}, staticIDs{}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if n, err := j.Sweep(context.Background()); err != nil || n != 0 {
		t.Errorf("Sweep() = %d, %v; want 0, nil", n, err)
	}
}

func TestSweepCatalogError(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.png"), time.Now().Add(-time.Hour))

	j, err := New(Config{ThumbnailDir: dir}, staticIDs{err: errors.New("db down")}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := j.Sweep(context.Background()); err == nil {
		t.Error("Sweep() expected error")
	}
	if !exists(filepath.Join(dir, "a.png")) {
		t.Error("thumbnail removed although the catalog could not be read")
	}
}

func TestStartRunsSweeps(t *testing.T) {
	dir := t.TempDir()
	orphan := filepath.Join(dir, "gone.png")
	touch(t, orphan, time.Now().Add(-time.Hour))

	j, err := New(Config{ThumbnailDir: dir, Interval: 20 * time.Millisecond}, staticIDs{ids: map[string]struct{}{}}, logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer j.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for exists(orphan) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if exists(orphan) {
		t.Error("scheduled sweep did not reclaim the orphan")
	}
}
