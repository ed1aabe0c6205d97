package capture

// This file contains the typed event vocabulary posted by the test
// subprocess, and batch decoding with all-or-nothing semantics.

import (
	"encoding/json"
	"fmt"

	"github.com/e2etap/e2etap/model"
)

// Event types accepted by the channel.
const (
	EventSessionStart  = "session:start"
	EventSessionEnd    = "session:end"
	EventTestStart     = "test:start"
	EventTestEnd       = "test:end"
	EventActionStart   = "action:start"
	EventActionWaiting = "action:waiting"
	EventActionCapture = "action:capture"
	EventError         = "error"
)

// Event is one capture event posted by the subprocess.
type Event struct {
	// Event type, one of the Event* constants
	Type string `json:"type"`
	// Session id echoed back by the subprocess
	SessionID string `json:"sessionId,omitempty"`
	// Test file (test:start)
	File string `json:"file,omitempty"`
	// Test title (test:start)
	Title string `json:"title,omitempty"`
	// Action label (action:start) or waiting annotation (action:waiting)
	Label string `json:"label,omitempty"`
	// Fully-formed capture (action:capture)
	Action *model.ActionCapture `json:"action,omitempty"`
	// Error message (error)
	Message string `json:"message,omitempty"`
}

// eventBatch is the wire shape of a POST body: either {"events": [...]}
// or a single bare event object.
type eventBatch struct {
	Events []Event `json:"events"`
}

// DecodeBatch parses a request body into a validated event slice. The
// whole batch is rejected if any event is malformed, so a batch is
// never partially applied.
func DecodeBatch(body []byte) ([]Event, error) {
	var batch eventBatch
	if err := json.Unmarshal(body, &batch); err == nil && batch.Events != nil {
		if err := validateEvents(batch.Events); err != nil {
			return nil, err
		}
		return batch.Events, nil
	}

	var single Event
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, fmt.Errorf("malformed capture payload: %w", err)
	}
	events := []Event{single}
	if err := validateEvents(events); err != nil {
		return nil, err
	}
	return events, nil
}

func validateEvents(events []Event) error {
	for i, ev := range events {
		switch ev.Type {
		case EventSessionStart, EventSessionEnd, EventTestEnd, EventError:
		case EventTestStart:
			if ev.File == "" && ev.Title == "" {
				return fmt.Errorf("malformed capture event %d: test:start without file or title", i)
			}
		case EventActionStart, EventActionWaiting:
			if ev.Label == "" {
				return fmt.Errorf("malformed capture event %d: %s without label", i, ev.Type)
			}
		case EventActionCapture:
			if ev.Action == nil {
				return fmt.Errorf("malformed capture event %d: action:capture without action", i)
			}
		case "":
			return fmt.Errorf("malformed capture event %d: missing type", i)
		default:
			return fmt.Errorf("malformed capture event %d: unknown type %q", i, ev.Type)
		}
	}
	return nil
}
