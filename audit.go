package authcore

import (
	"io"
	"log/slog"

	"github.com/skulipro/authcore/internal/audit"
)

// AuditEvent is one security-relevant record. It never carries passwords,
// codes, or tokens.
type AuditEvent = audit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events in a channel, mainly for tests.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// SlogSink writes events as structured log records.
type SlogSink = audit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewSlogSink logs events at level through logger.
func NewSlogSink(logger *slog.Logger, level slog.Level) *SlogSink {
	return audit.NewSlogSink(logger, level)
}
