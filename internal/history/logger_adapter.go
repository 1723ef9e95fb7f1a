package history

import (
	"asset-ingest/internal/logging"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter routes watermill logs into the service logger.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter returns a watermill.LoggerAdapter writing through log.
func NewLoggerAdapter(log logging.Logger) watermill.LoggerAdapter {
	return &zerologAdapter{l: logging.Zerolog(log).With().Str("component", "watermill").Logger()}
}

func (z *zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	ev := z.l.Error().Err(err)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (z *zerologAdapter) Info(msg string, fields watermill.LogFields) {
	ev := z.l.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (z *zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	ev := z.l.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (z *zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	ev := z.l.Trace()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (z *zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	c := z.l.With()
	for k, v := range fields {
		c = c.Interface(k, v)
	}
	return &zerologAdapter{l: c.Logger()}
}
