// Package events delivers attendance domain events to the configured sinks.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/metrics"
)

const (
	TypeAttendanceRecorded  = "AttendanceRecorded"
	TypeAttendanceCorrected = "AttendanceCorrected"
)

// Event is the JSON envelope published for every successful attendance write.
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	TenantID   string      `json:"tenant_id"`
	PersonID   string      `json:"person_id"`
	RecordID   string      `json:"record_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Sink is a named Publisher, the name labels failure metrics.
type Sink struct {
	Name      string
	Publisher Publisher
}

// Fanout publishes every event to all sinks. A failing sink does not stop
// the others; all failures are returned joined.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Metrics
}

func NewFanout(m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, metrics: m}
}

func (f *Fanout) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publisher.Publish(ctx, event); err != nil {
			f.metrics.IncEventPublishFailure(sink.Name)
			slog.Warn("event publish failed",
				"sink", sink.Name,
				"event_type", event.Type,
				"record_id", event.RecordID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the structured log only.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, event Event) error {
	slog.InfoContext(ctx, "attendance event",
		"event_id", event.ID,
		"event_type", event.Type,
		"tenant_id", event.TenantID,
		"person_id", event.PersonID,
		"record_id", event.RecordID,
	)
	return nil
}
