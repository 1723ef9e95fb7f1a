package history

import (
	"context"
	"fmt"
	"sync"

	"asset-ingest/internal/database"
	"asset-ingest/internal/logging"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Appender stores history entries.
type Appender interface {
	AppendHistory(ctx context.Context, e database.HistoryEntry) error
}

// Recorder consumes history events from the bus and appends them to a store.
type Recorder struct {
	sub   message.Subscriber
	store Appender
	log   logging.Logger
	wg    sync.WaitGroup
}

// NewRecorder creates a Recorder.
func NewRecorder(sub message.Subscriber, store Appender, log logging.Logger) *Recorder {
	return &Recorder{sub: sub, store: store, log: log.With("component", "history-recorder")}
}

// Start subscribes to every history topic and consumes in the background
// until ctx is cancelled or the subscriber is closed. Events published
// before Start are not seen.
func (r *Recorder) Start(ctx context.Context) error {
	for _, topic := range []string{TopicUploaded, TopicDeleted} {
		messages, err := r.sub.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.consume(ctx, messages)
		}()
	}
	return nil
}

// Wait blocks until every consumer has stopped.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		r.handle(ctx, msg)
		// A failed append is logged, not redelivered: the bus is in-process
		// and a retry would hit the same store error.
		msg.Ack()
	}
}

func (r *Recorder) handle(ctx context.Context, msg *message.Message) {
	env, err := ParseMessage(msg)
	if err != nil {
		r.log.Error("dropping malformed history message: %v", err)
		return
	}

	entry := database.HistoryEntry{
		ID:         env.Header.ID,
		Kind:       string(env.Payload.Kind),
		Path:       env.Payload.Path,
		OccurredAt: env.Header.OccurredAt,
	}
	if err := r.store.AppendHistory(ctx, entry); err != nil {
		r.log.Error("failed to store %s event for %s: %v", entry.Kind, entry.Path, err)
		return
	}
	r.log.Debug("stored %s event for %s", entry.Kind, entry.Path)
}
