package history

import (
	"fmt"
	"time"

	"asset-ingest/internal/ingest"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Topics carrying file lifecycle events.
const (
	TopicUploaded = "ingest.file.uploaded"
	TopicDeleted  = "ingest.file.deleted"
)

// PayloadVersionV1 is the current envelope version.
const PayloadVersionV1 = "v1"

// Producer names this service in event headers.
const Producer = "asset-ingest"

// Header describes an event independently of its payload.
type Header struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version"`
}

// Payload is the body of a file lifecycle event.
type Payload struct {
	Kind ingest.EventKind `json:"kind"`
	// Path is relative to the upload root, slash separated.
	Path string `json:"path"`
}

// Envelope is the JSON document carried by every message.
type Envelope struct {
	Header  Header  `json:"header"`
	Payload Payload `json:"payload"`
}

// TopicFor maps an event kind to its topic.
func TopicFor(kind ingest.EventKind) (string, error) {
	switch kind {
	case ingest.EventUploaded:
		return TopicUploaded, nil
	case ingest.EventDeleted:
		return TopicDeleted, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", kind)
	}
}

// NewMessage builds the watermill message for one event.
func NewMessage(kind ingest.EventKind, path string, now time.Time) (*message.Message, error) {
	topic, err := TopicFor(kind)
	if err != nil {
		return nil, err
	}

	env := Envelope{
		Header: Header{
			ID:         uuid.NewString(),
			Topic:      topic,
			Producer:   Producer,
			OccurredAt: now.UTC(),
			Version:    PayloadVersionV1,
		},
		Payload: Payload{Kind: kind, Path: path},
	}

	data, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	msg := message.NewMessage(env.Header.ID, data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("occurred_at", env.Header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", env.Header.Version)
	return msg, nil
}

// ParseMessage decodes the envelope of msg.
func ParseMessage(msg *message.Message) (Envelope, error) {
	var env Envelope
	if err := sonic.Unmarshal(msg.Payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope %s: %w", msg.UUID, err)
	}
	if env.Header.ID == "" {
		env.Header.ID = msg.UUID
	}
	return env, nil
}
