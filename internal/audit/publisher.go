package audit

import (
	"context"
	"log/slog"
	"time"
)

// ChannelPublisher queues events for the worker. The queue is bounded;
// when it is full the event is dropped with a warning rather than
// stalling a registration.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewChannelPublisher builds a publisher with the given queue depth.
func NewChannelPublisher(depth int, logger *slog.Logger) *ChannelPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, depth),
		logger: logger,
	}
}

// Inbox exposes the queue for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}

func (p *ChannelPublisher) Emit(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit queue full, event dropped", "action", event.Action)
	}
}

// NopPublisher discards events; a stand-in where auditing is not wired.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) {}
