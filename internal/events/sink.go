// Package events delivers customer lifecycle events to interested parties.
// Publishing happens after the write commits and never fails the write.
package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"guestman/internal/customer/models"
)

// Sink receives customer events.
type Sink interface {
	Publish(ctx context.Context, event models.Event) error
}

// NewID returns a time-ordered event id.
func NewID() string {
	return ulid.Make().String()
}

// Fanout publishes to every sink in order. A failing sink is logged and the
// rest still run.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout builds a Fanout. Nil sinks are skipped.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fanout{logger: logger}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish always returns nil.
func (f *Fanout) Publish(ctx context.Context, event models.Event) error {
	for _, s := range f.sinks {
		if err := s.Publish(ctx, event); err != nil {
			f.logger.ErrorContext(ctx, "failed to publish customer event",
				"event_id", event.ID,
				"kind", event.Kind,
				"customer_code", event.Code,
				"error", err,
			)
		}
	}
	return nil
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, event models.Event) error {
	fields := make([]string, 0, len(event.Changes))
	for field := range event.Changes {
		fields = append(fields, field)
	}
	s.logger.InfoContext(ctx, "customer event",
		"event_id", event.ID,
		"kind", event.Kind,
		"customer_id", event.CustomerID.String(),
		"customer_code", event.Code,
		"changed_fields", fields,
		"actor", event.Actor,
	)
	return nil
}

// Recorder keeps events in memory. Tests use it to assert what was published.
type Recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *Recorder) Publish(_ context.Context, event models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}
