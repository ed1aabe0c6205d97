// Package capture receives trace events from a spawned test subprocess
// and forwards them into a consumer-agnostic sink.
package capture

import (
	"sort"
	"strings"
	"sync"

	"github.com/e2etap/e2etap/model"
)

// Target is the sink that capture events are forwarded into. The channel
// only needs these two operations; richer consumers can additionally
// implement StepObserver and StatusObserver.
type Target interface {
	// AppendAction records one fully-formed action capture.
	AppendAction(action model.ActionCapture)
	// SetCurrentAction updates the in-progress action label. An empty
	// label clears it.
	SetCurrentAction(label string)
}

// StepObserver is an optional Target hook for waiting/progress
// annotations on the current action.
type StepObserver interface {
	OnStep(annotation string)
}

// StatusObserver is an optional Target hook notified when a test starts.
type StatusObserver interface {
	OnTestStart(file, title string)
}

// Accumulator is an in-memory Target. It collects actions in arrival
// order and derives the snapshot diff for each action that carries a
// before/after pair without one.
type Accumulator struct {
	mu      sync.Mutex
	actions []model.ActionCapture
	current string
	file    string
	title   string
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) AppendAction(action model.ActionCapture) {
	if action.Snapshot != nil && action.Snapshot.Diff == nil {
		action.Snapshot.Diff = DiffSnapshots(action.Snapshot.Before, action.Snapshot.After)
	}
	a.mu.Lock()
	a.actions = append(a.actions, action)
	a.current = ""
	a.mu.Unlock()
}

func (a *Accumulator) SetCurrentAction(label string) {
	a.mu.Lock()
	a.current = label
	a.mu.Unlock()
}

// OnTestStart resets per-test accumulation.
func (a *Accumulator) OnTestStart(file, title string) {
	a.mu.Lock()
	a.actions = nil
	a.current = ""
	a.file = file
	a.title = title
	a.mu.Unlock()
}

// Actions returns the accumulated actions in arrival order.
func (a *Accumulator) Actions() []model.ActionCapture {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.ActionCapture, len(a.actions))
	copy(out, a.actions)
	return out
}

// CurrentAction returns the in-progress action label, if any.
func (a *Accumulator) CurrentAction() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// TestInfo returns the file and title from the last test:start event.
func (a *Accumulator) TestInfo() (file, title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file, a.title
}

// FuncTarget adapts plain functions to the Target interface. Live UI
// stores hook in through this without importing the capture package's
// internals.
type FuncTarget struct {
	Append     func(action model.ActionCapture)
	SetCurrent func(label string)
	Step       func(annotation string)
	TestStart  func(file, title string)
}

func (f *FuncTarget) AppendAction(action model.ActionCapture) {
	if f.Append != nil {
		f.Append(action)
	}
}

func (f *FuncTarget) SetCurrentAction(label string) {
	if f.SetCurrent != nil {
		f.SetCurrent(label)
	}
}

func (f *FuncTarget) OnStep(annotation string) {
	if f.Step != nil {
		f.Step(annotation)
	}
}

func (f *FuncTarget) OnTestStart(file, title string) {
	if f.TestStart != nil {
		f.TestStart(file, title)
	}
}

// DiffSnapshots computes the added/removed/changed element descriptors
// between two accessibility-tree text snapshots. An element is keyed by
// its role and accessible name; a key present on both sides whose full
// line differs counts as changed.
func DiffSnapshots(before, after string) *model.SnapshotDiff {
	if before == "" && after == "" {
		return nil
	}

	beforeLines := indexSnapshotLines(before)
	afterLines := indexSnapshotLines(after)

	diff := &model.SnapshotDiff{}
	for key, line := range afterLines {
		prev, ok := beforeLines[key]
		if !ok {
			diff.Added = append(diff.Added, line)
		} else if prev != line {
			diff.Changed = append(diff.Changed, line)
		}
	}
	for key, line := range beforeLines {
		if _, ok := afterLines[key]; !ok {
			diff.Removed = append(diff.Removed, line)
		}
	}
	if len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Changed) == 0 {
		return &model.SnapshotDiff{}
	}
	sort.Strings(diff.Added)
	sort.Strings(diff.Removed)
	sort.Strings(diff.Changed)
	return diff
}

// indexSnapshotLines maps an element key (role plus quoted name) to its
// trimmed line text.
func indexSnapshotLines(snapshot string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(snapshot, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out[elementKey(trimmed)] = trimmed
	}
	return out
}

// elementKey extracts `role "name"` from a snapshot line of the form
// `- role "name" [attr=...]`. Lines that don't match are keyed by their
// full trimmed text.
func elementKey(line string) string {
	rest := strings.TrimPrefix(line, "- ")
	role, remainder, found := strings.Cut(rest, " ")
	if !found {
		return rest
	}
	if strings.HasPrefix(remainder, "\"") {
		if end := strings.Index(remainder[1:], "\""); end >= 0 {
			return role + " " + remainder[:end+2]
		}
	}
	return role
}
