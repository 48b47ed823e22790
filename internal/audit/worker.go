package audit

import (
	"context"
	"log/slog"
	"sync"
)

// Worker drains the publisher queue into one or more sinks. A sink
// failure is logged and does not stop the worker; audit is best-effort
// by design.
type Worker struct {
	inbox  <-chan Event
	sinks  []Sink
	logger *slog.Logger
}

// NewWorker builds a worker over the publisher's inbox.
func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{inbox: inbox, sinks: sinks, logger: logger}
}

// Run consumes events until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Write(ctx, event); err != nil {
					w.logger.Error("audit sink write failed", "action", event.Action, "error", err)
				}
			}
		}
	}
}

// LogSink writes audit events to the structured log. It is the default
// sink when no Kafka brokers are configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink builds a sink over the given logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, event Event) error {
	s.logger.Info("audit",
		"action", event.Action,
		"user_id", event.UserID,
		"email", event.Email,
		"request_id", event.RequestID,
		"details", event.Details,
	)
	return nil
}

// MemorySink collects events for tests and the log fallback.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemorySink constructs an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
