// Package events implements the run progress event bus and its SSE surface.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Status values carried by progress events.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Event is a single progress notification for a run. Immutable once built.
type Event struct {
	EventID    string         `json:"event_id"`
	RunID      string         `json:"run_id"`
	Step       string         `json:"step"`
	Agent      string         `json:"agent,omitempty"`
	Status     string         `json:"status"`
	Message    string         `json:"message,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	TS         time.Time      `json:"ts"`
}

// EventOption configures an Event at construction time.
type EventOption func(*Event)

// WithAgent sets the agent name that produced the event.
func WithAgent(agent string) EventOption {
	return func(e *Event) { e.Agent = agent }
}

// WithMessage sets a free-form message.
func WithMessage(msg string) EventOption {
	return func(e *Event) { e.Message = msg }
}

// WithData attaches a structured payload.
func WithData(data map[string]any) EventOption {
	return func(e *Event) { e.Data = data }
}

// WithDuration records how long the step took.
func WithDuration(d time.Duration) EventOption {
	return func(e *Event) { e.DurationMS = d.Milliseconds() }
}

// New builds an Event with a fresh event ID and timestamp.
func New(runID, step, status string, opts ...EventOption) Event {
	e := Event{
		EventID: uuid.New().String(),
		RunID:   runID,
		Step:    step,
		Status:  status,
		TS:      time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}
