// Package query exposes pure read-only operations over a finalized run:
// timelines, filtered network/console views, DOM snapshot projection,
// failure reports and exportable artifacts.
package query

import (
	"fmt"
	"os"
	"strings"

	"github.com/e2etap/e2etap/model"
)

// Engine answers queries against one finalized run. No operation
// mutates the run.
type Engine struct {
	run *model.Run
}

// NewEngine wraps a finalized run.
func NewEngine(run *model.Run) *Engine {
	return &Engine{run: run}
}

// NotFoundError names the valid range for an out-of-range index so a
// caller can render it directly.
type NotFoundError struct {
	// What is the kind of entity looked up (test, action, screenshot)
	What string
	// Index that was requested
	Index int
	// Count of available entities
	Count int
}

func (e *NotFoundError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("%s index %d not found: none recorded", e.What, e.Index)
	}
	return fmt.Sprintf("%s index %d not found: valid range is 0-%d", e.What, e.Index, e.Count-1)
}

// Summary returns the run's aggregate pass/fail view.
func (e *Engine) Summary() model.RunSummary {
	return e.run.Summary()
}

// Run returns the underlying run.
func (e *Engine) Run() *model.Run {
	return e.run
}

// Test returns one test entry by position.
func (e *Engine) Test(testIndex int) (*model.TestEntry, error) {
	if testIndex < 0 || testIndex >= len(e.run.Tests) {
		return nil, &NotFoundError{What: "test", Index: testIndex, Count: len(e.run.Tests)}
	}
	return &e.run.Tests[testIndex], nil
}

// Actions returns the full action list for a test.
func (e *Engine) Actions(testIndex int) ([]model.ActionCapture, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}
	return test.Actions, nil
}

// Action returns one action by position within a test.
func (e *Engine) Action(testIndex, actionIndex int) (*model.ActionCapture, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}
	if actionIndex < 0 || actionIndex >= len(test.Actions) {
		return nil, &NotFoundError{What: "action", Index: actionIndex, Count: len(test.Actions)}
	}
	return &test.Actions[actionIndex], nil
}

// NetworkFilter narrows the denormalized request view of a test.
type NetworkFilter struct {
	// URLContains keeps requests whose URL contains this substring
	URLContains string
	// Method keeps requests with this HTTP method (case-insensitive)
	Method string
	// StatusMin keeps requests with status >= this value
	StatusMin int
	// IncludeBodies opts into request/response bodies; elided by
	// default to bound response size
	IncludeBodies bool
	// Limit caps the number of returned requests; 0 means unlimited
	Limit int
}

// Network denormalizes requests across all actions of a test, in
// observation order, then applies the filter.
func (e *Engine) Network(testIndex int, filter NetworkFilter) ([]model.NetworkRequestCapture, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}

	var out []model.NetworkRequestCapture
	for _, action := range test.Actions {
		for _, req := range action.Network.Requests {
			if filter.URLContains != "" && !strings.Contains(req.URL, filter.URLContains) {
				continue
			}
			if filter.Method != "" && !strings.EqualFold(req.Method, filter.Method) {
				continue
			}
			if filter.StatusMin > 0 && req.Status < filter.StatusMin {
				continue
			}
			if !filter.IncludeBodies {
				req.RequestPostData = ""
				req.ResponseBody = ""
			}
			out = append(out, req)
			if filter.Limit > 0 && len(out) == filter.Limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Console denormalizes console messages across all actions of a test.
// typeFilter keeps only messages of that type; empty keeps everything.
// limit caps the result; 0 means unlimited.
func (e *Engine) Console(testIndex int, typeFilter string, limit int) ([]model.ConsoleMessage, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}

	var out []model.ConsoleMessage
	for _, action := range test.Actions {
		for _, msg := range action.Console {
			if typeFilter != "" && msg.Type != typeFilter {
				continue
			}
			out = append(out, msg)
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// Screenshot returns one attachment and its bytes by position.
func (e *Engine) Screenshot(testIndex, index int) (model.Attachment, []byte, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return model.Attachment{}, nil, err
	}
	if index < 0 || index >= len(test.Attachments) {
		return model.Attachment{}, nil, &NotFoundError{What: "screenshot", Index: index, Count: len(test.Attachments)}
	}
	att := test.Attachments[index]
	data, err := os.ReadFile(att.Path)
	if err != nil {
		return att, nil, fmt.Errorf("failed to read screenshot %s: %w", att.Path, err)
	}
	return att, data, nil
}
