package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the batch lifecycle
type Event struct {
	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Unit is the scene index this event relates to (nil for batch or
	// worker scoped events)
	Unit *int `json:"unit,omitempty"`

	// Worker is the worker id (nil if not worker-related)
	Worker *int `json:"worker,omitempty"`

	// Provider is the provider id in play (empty if not provider-related)
	Provider string `json:"provider,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Batch lifecycle events
const (
	BatchStarted   EventType = "batch.started"
	BatchCompleted EventType = "batch.completed"
	BatchFailed    EventType = "batch.failed"
)

// Worker lifecycle events
const (
	WorkerStarted   EventType = "worker.started"
	WorkerCompleted EventType = "worker.completed"
	WorkerFailed    EventType = "worker.failed"
)

// Unit (scene) lifecycle events
const (
	UnitQueued     EventType = "unit.queued"
	UnitSubmitting EventType = "unit.submitting"
	UnitPolling    EventType = "unit.polling"
	UnitFallback   EventType = "unit.fallback"
	UnitSucceeded  EventType = "unit.succeeded"
	UnitFailed     EventType = "unit.failed"
)

// NewEvent creates an event with the given type
func NewEvent(eventType EventType) Event {
	return Event{Type: eventType}
}

// WithUnit returns a copy of the event with the unit index set
func (e Event) WithUnit(unit int) Event {
	e.Unit = &unit
	return e
}

// WithWorker returns a copy of the event with the worker id set
func (e Event) WithWorker(worker int) Event {
	e.Worker = &worker
	return e
}

// WithProvider returns a copy of the event with the provider id set
func (e Event) WithProvider(provider string) Event {
	e.Provider = provider
	return e
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Worker != nil {
		parts = append(parts, fmt.Sprintf("worker=%d", *e.Worker))
	}
	if e.Unit != nil {
		parts = append(parts, fmt.Sprintf("unit=#%d", *e.Unit))
	}
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}

	return strings.Join(parts, " ")
}
