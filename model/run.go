package model

import "time"

// TestStatus represents the lifecycle state of a test entry.
type TestStatus string

const (
	StatusRunning TestStatus = "running"
	StatusPassed  TestStatus = "passed"
	StatusFailed  TestStatus = "failed"
)

// Run represents a single orchestrator invocation
type Run struct {
	// Unique ID for this run (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Command line that was spawned (shell-escaped, for display)
	Command string `json:"command,omitempty"`
	// Working directory where the subprocess ran
	WorkDir string `json:"workdir,omitempty"`
	// Duration of the whole run
	Duration time.Duration `json:"duration"`
	// Test results, in execution order
	Tests []TestEntry `json:"tests"`
}

// Summary returns the aggregate pass/fail counts for a run.
func (r *Run) Summary() RunSummary {
	s := RunSummary{RunID: r.ID, Timestamp: r.Timestamp, Total: len(r.Tests), Duration: r.Duration}
	for _, t := range r.Tests {
		switch t.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// RunSummary is the aggregate view of a run.
type RunSummary struct {
	RunID     string        `json:"runId"`
	Timestamp time.Time     `json:"timestamp"`
	Total     int           `json:"total"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// TestEntry is the result record for one test location within a run.
type TestEntry struct {
	// Source file of the test (e.g., "login.spec.ts")
	File string `json:"file"`
	// Full test title, hierarchical segments joined
	TestTitle string `json:"testTitle"`
	// Location string as passed to the subprocess (e.g., "login.spec.ts:12")
	Location string `json:"location,omitempty"`
	// Current status; running only while the owning subprocess is alive
	Status TestStatus `json:"status"`
	// Wall-clock duration of the test
	Duration time.Duration `json:"duration"`
	// Error text for failed tests
	Error string `json:"error,omitempty"`
	// Captured actions, in arrival order
	Actions []ActionCapture `json:"actions,omitempty"`
	// Screenshots and other files collected for this test
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ActionCapture is one recorded interaction step within a test.
type ActionCapture struct {
	// Action type (e.g., "click", "fill", "goto", "screenshot")
	Type string `json:"type"`
	// Underlying driver method name
	Method string `json:"method,omitempty"`
	// Human-readable label (e.g., `click("Submit")`)
	Title string `json:"title,omitempty"`
	// Page URL at the time of the action
	PageURL string `json:"pageUrl,omitempty"`
	// Raw action parameters
	Params map[string]any `json:"params,omitempty"`
	// Timing information
	Timing ActionTiming `json:"timing"`
	// Error raised by this action, if any
	Error *ActionError `json:"error,omitempty"`
	// Network activity observed while this action was current
	Network NetworkCapture `json:"network"`
	// Console messages observed while this action was current
	Console []ConsoleMessage `json:"console,omitempty"`
	// DOM snapshots around the action
	Snapshot *SnapshotPair `json:"snapshot,omitempty"`
}

// ActionTiming holds timing data for a single action.
type ActionTiming struct {
	DurationMs int64 `json:"durationMs"`
}

// ActionError describes a failure raised by an action.
type ActionError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// NetworkCapture groups the requests recorded for one action.
type NetworkCapture struct {
	Requests []NetworkRequestCapture `json:"requests,omitempty"`
}

// NetworkRequestCapture is one observed network request.
type NetworkRequestCapture struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	// HTTP status; zero when the request never completed
	Status int `json:"status,omitempty"`
	// Request duration in milliseconds
	DurationMs int64 `json:"durationMs,omitempty"`
	// Resource type reported by the browser (xhr, fetch, document, ...)
	ResourceType string `json:"resourceType,omitempty"`
	// Request body, when captured
	RequestPostData string `json:"requestPostData,omitempty"`
	// Response body, when captured
	ResponseBody string `json:"responseBody,omitempty"`
}

// ConsoleMessage is one browser console entry.
type ConsoleMessage struct {
	// Message type: log, warn, error or info
	Type string `json:"type"`
	// Message text
	Text string `json:"text"`
	// Source location (file:line), when available
	Location string `json:"location,omitempty"`
}

// SnapshotPair holds the DOM state around an action, plus the derived diff.
type SnapshotPair struct {
	// Accessibility-tree text snapshot before the action
	Before string `json:"before,omitempty"`
	// Accessibility-tree text snapshot after the action
	After string `json:"after,omitempty"`
	// Derived diff, computed once from before/after
	Diff *SnapshotDiff `json:"diff,omitempty"`
}

// SnapshotDiff lists element descriptors that changed between two snapshots.
type SnapshotDiff struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Attachment is a file collected during a test (typically a screenshot).
type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}
