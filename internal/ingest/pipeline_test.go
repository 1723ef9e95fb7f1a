package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-ingest/internal/identity"
	"asset-ingest/internal/logging"
)

func TestPipelineScansThenWatches(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, filepath.Join(env.uploadDir, "first.txt"), []byte("1"))

	catalog := newMemCatalog()
	history := &memHistory{}
	watcher := newTestWatcher(env, catalog, history)
	p := NewPipeline(newTestScanner(env, catalog), watcher, logging.Nop())

	if p.Ready() {
		t.Fatal("Ready() before Run")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor(t, "ready", p.Ready)
	<-watcher.started

	if _, ok := catalog.file(identity.Identify("", "first.txt")); !ok {
		t.Error("scan did not catalog existing file")
	}
	if len(history.list()) != 0 {
		t.Errorf("scan recorded history events: %+v", history.list())
	}

	writeFile(t, filepath.Join(env.uploadDir, "second.txt"), []byte("2"))
	waitFor(t, "watched upload", func() bool { return history.has(EventUploaded, "second.txt") })

	st := p.Status()
	if !st.Ready || st.Watcher != "watching" || st.LastScan == nil || st.LastScan.Files != 1 {
		t.Errorf("Status() = %+v", st)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}

func TestPipelineTotalScanFailureSkipsWatcher(t *testing.T) {
	env := newTestEnv(t)
	if err := os.RemoveAll(env.uploadDir); err != nil {
		t.Fatal(err)
	}

	catalog := newMemCatalog()
	watcher := newTestWatcher(env, catalog, &memHistory{})
	p := NewPipeline(newTestScanner(env, catalog), watcher, logging.Nop())

	err := p.Run(context.Background())
	if !errors.Is(err, ErrRootUnreadable) {
		t.Errorf("Run() error = %v, want ErrRootUnreadable", err)
	}
	if p.Ready() {
		t.Error("Ready() after failed scan")
	}
	if watcher.State() != WatcherStopped {
		t.Errorf("watcher state = %v, want stopped", watcher.State())
	}
	if p.Status().ScanError == "" {
		t.Error("Status() missing scan error")
	}
}
