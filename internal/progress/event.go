// Package progress encodes the lifecycle of a sync session as a stream of
// named event frames and decodes such streams incrementally.
package progress

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/finsync/internal/core/domain"
)

// EventName tags every frame on the wire.
type EventName string

const (
	EventProgress EventName = "progress"
	EventComplete EventName = "complete"
	EventError    EventName = "error"
)

// IsTerminal reports whether the event ends a stream.
func (n EventName) IsTerminal() bool {
	return n == EventComplete || n == EventError
}

// ProgressPayload is emitted on every state transition and source step.
type ProgressPayload struct {
	SessionID string `json:"sessionId"`
	Step      string `json:"step"`
	Message   string `json:"message"`
	Percent   int    `json:"percent"`
	Phase     string `json:"phase"`
	Success   *bool  `json:"success,omitempty"`
}

// CompletePayload ends a successful stream.
type CompletePayload struct {
	Message string             `json:"message"`
	Summary domain.SyncSummary `json:"summary"`
}

// ErrorPayload ends a failed stream.
type ErrorPayload struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
	Hint      string `json:"hint,omitempty"`
	ErrorType string `json:"errorType,omitempty"`
}

// Event is one typed frame. Payload is a *ProgressPayload, *CompletePayload
// or *ErrorPayload matching Name.
type Event struct {
	Name    EventName
	Payload any
}

// Progress builds a progress event.
func Progress(p ProgressPayload) Event {
	return Event{Name: EventProgress, Payload: &p}
}

// Complete builds the terminal success event.
func Complete(summary domain.SyncSummary) Event {
	return Event{Name: EventComplete, Payload: &CompletePayload{Message: "Sync completed", Summary: summary}}
}

// Error builds the terminal failure event.
func Error(p ErrorPayload) Event {
	return Event{Name: EventError, Payload: &p}
}

// ParseFrame turns a decoded frame back into a typed event.
func ParseFrame(f Frame) (Event, error) {
	var payload any
	switch EventName(f.Event) {
	case EventProgress:
		payload = &ProgressPayload{}
	case EventComplete:
		payload = &CompletePayload{}
	case EventError:
		payload = &ErrorPayload{}
	default:
		return Event{}, fmt.Errorf("unknown event %q", f.Event)
	}
	if err := json.Unmarshal(f.Data, payload); err != nil {
		return Event{}, fmt.Errorf("decode %s payload: %w", f.Event, err)
	}
	return Event{Name: EventName(f.Event), Payload: payload}, nil
}
