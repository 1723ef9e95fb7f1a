package history

import (
	"context"
	"fmt"
	"time"

	"asset-ingest/internal/ingest"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

var _ ingest.History = (*Publisher)(nil)

// NewBus returns the in-process pub/sub used between Publisher and Recorder.
func NewBus(log logging.Logger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 256,
	}, NewLoggerAdapter(log))
}

// Publisher records history events by publishing them on the bus.
type Publisher struct {
	pub message.Publisher
	log logging.Logger
	now func() time.Time
}

// NewPublisher creates a Publisher on pub.
func NewPublisher(pub message.Publisher, log logging.Logger) *Publisher {
	return &Publisher{pub: pub, log: log.With("component", "history"), now: time.Now}
}

// RecordEvent publishes a kind event for path. Publish failures are
// returned to the caller.
func (p *Publisher) RecordEvent(ctx context.Context, kind ingest.EventKind, path string) error {
	err := p.publish(ctx, kind, path)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.HistoryEventsTotal.WithLabelValues(string(kind), status).Inc()
	return err
}

func (p *Publisher) publish(ctx context.Context, kind ingest.EventKind, path string) error {
	msg, err := NewMessage(kind, path, p.now())
	if err != nil {
		return err
	}
	msg.SetContext(ctx)

	topic := msg.Metadata.Get("topic")
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event for %s: %w", kind, path, err)
	}
	p.log.Debug("published %s event for %s", kind, path)
	return nil
}
