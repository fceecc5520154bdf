package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAggregationCompleted = "aggregation.completed"
	EventTypeDependencyRetry      = "dependency.retry"
)

// Event is the envelope published on the notification side-channel.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

func NewEvent(eventType string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "aggregation-service",
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// AggregationCompleted is emitted after every successful aggregation,
// degraded or not.
type AggregationCompleted struct {
	BookingReference string    `json:"booking_reference"`
	Status           string    `json:"status"`
	FromCache        bool      `json:"from_cache"`
	CompletedAt      time.Time `json:"completed_at"`
}

// DependencyRetry reports a single retry decision for operational
// visibility. Publishing it is best effort.
type DependencyRetry struct {
	Dependency string        `json:"dependency"`
	Key        string        `json:"key"`
	Attempt    int           `json:"attempt"`
	NextDelay  time.Duration `json:"next_delay_ms"`
	Error      string        `json:"error,omitempty"`
}
