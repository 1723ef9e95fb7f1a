package history

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"asset-ingest/internal/database"
	"asset-ingest/internal/ingest"
	"asset-ingest/internal/logging"

	"github.com/ThreeDotsLabs/watermill/message"
)

type memAppender struct {
	mu      sync.Mutex
	entries []database.HistoryEntry
	err     error
}

func (m *memAppender) AppendHistory(_ context.Context, e database.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAppender) list() []database.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.HistoryEntry(nil), m.entries...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out")
}

func TestTopicFor(t *testing.T) {
	tests := []struct {
		kind    ingest.EventKind
		want    string
		wantErr bool
	}{
		{kind: ingest.EventUploaded, want: TopicUploaded},
		{kind: ingest.EventDeleted, want: TopicDeleted},
		{kind: "renamed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := TopicFor(tt.kind)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("TopicFor(%q) = %q, %v", tt.kind, got, err)
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 8000, time.FixedZone("X", 3600))

	msg, err := NewMessage(ingest.EventDeleted, "a/x.png", now)
	if err != nil {
		t.Fatalf("NewMessage() error = %v", err)
	}
	if msg.Metadata.Get("topic") != TopicDeleted {
		t.Errorf("topic metadata = %q", msg.Metadata.Get("topic"))
	}

	env, err := ParseMessage(msg)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if env.Header.ID != msg.UUID || env.Header.Topic != TopicDeleted || env.Header.Version != PayloadVersionV1 {
		t.Errorf("header = %+v", env.Header)
	}
	if !env.Header.OccurredAt.Equal(now) || env.Header.OccurredAt.Location() != time.UTC {
		t.Errorf("OccurredAt = %v, want %v in UTC", env.Header.OccurredAt, now)
	}
	if env.Payload != (Payload{Kind: ingest.EventDeleted, Path: "a/x.png"}) {
		t.Errorf("payload = %+v", env.Payload)
	}
}

func TestParseMessageMalformed(t *testing.T) {
	if _, err := ParseMessage(message.NewMessage("x", []byte("{not json"))); err == nil {
		t.Error("ParseMessage() expected error")
	}
}

func TestPublisherUnknownKind(t *testing.T) {
	bus := NewBus(logging.Nop())
	defer bus.Close()

	if err := NewPublisher(bus, logging.Nop()).RecordEvent(context.Background(), "bogus", "x"); err == nil {
		t.Error("RecordEvent() expected error for unknown kind")
	}
}

func TestPublisherClosedBus(t *testing.T) {
	bus := NewBus(logging.Nop())
	bus.Close()

	if err := NewPublisher(bus, logging.Nop()).RecordEvent(context.Background(), ingest.EventUploaded, "x"); err == nil {
		t.Error("RecordEvent() expected error on a closed bus")
	}
}

func TestPublishAndRecord(t *testing.T) {
	bus := NewBus(logging.Nop())
	defer bus.Close()

	store := &memAppender{}
	ctx, cancel := context.WithCancel(context.Background())
	rec := NewRecorder(bus, store, logging.Nop())
	if err := rec.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	pub := NewPublisher(bus, logging.Nop())
	if err := pub.RecordEvent(ctx, ingest.EventUploaded, "a/x.png"); err != nil {
		t.Fatal(err)
	}
	if err := pub.RecordEvent(ctx, ingest.EventDeleted, "a/x.png"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return len(store.list()) == 2 })

	kinds := map[string]bool{}
	for _, e := range store.list() {
		if e.Path != "a/x.png" || e.ID == "" {
			t.Errorf("entry = %+v", e)
		}
		kinds[e.Kind] = true
	}
	if !kinds["uploaded"] || !kinds["deleted"] {
		t.Errorf("kinds = %v", kinds)
	}

	cancel()
	done := make(chan struct{})
	go func() { rec.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("recorder did not stop")
	}
}

func TestRecorderSurvivesStoreErrors(t *testing.T) {
	bus := NewBus(logging.Nop())
	defer bus.Close()

	store := &memAppender{err: errors.New("disk full")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := NewRecorder(bus, store, logging.Nop()).Start(ctx); err != nil {
		t.Fatal(err)
	}

	pub := NewPublisher(bus, logging.Nop())
	if err := pub.RecordEvent(ctx, ingest.EventUploaded, "one"); err != nil {
		t.Fatal(err)
	}

	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()

	if err := pub.RecordEvent(ctx, ingest.EventUploaded, "two"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		for _, e := range store.list() {
			if e.Path == "two" {
				return true
			}
		}
		return false
	})
}

func TestRecorderWithDatabase(t *testing.T) {
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "h.db"), logging.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	bus := NewBus(logging.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := NewRecorder(bus, db, logging.Nop()).Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := NewPublisher(bus, logging.Nop()).RecordEvent(ctx, ingest.EventUploaded, "b/y.txt"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		entries, err := db.ListHistory(ctx, 0)
		return err == nil && len(entries) == 1 && entries[0].Path == "b/y.txt" && entries[0].Kind == "uploaded"
	})
}
