package query

// This file contains DOM snapshot projection and diff retrieval.
// Snapshots are indentation-structured accessibility-tree text; the
// projections bound output by depth and by a fixed vocabulary of
// interactive element roles.

import (
	"fmt"
	"strings"

	"github.com/e2etap/e2etap/model"
)

// interactiveRoles is the fixed vocabulary of element roles considered
// interactive for snapshot filtering.
var interactiveRoles = map[string]bool{
	"button":           true,
	"link":             true,
	"textbox":          true,
	"searchbox":        true,
	"checkbox":         true,
	"radio":            true,
	"combobox":         true,
	"listbox":          true,
	"option":           true,
	"menu":             true,
	"menubar":          true,
	"menuitem":         true,
	"menuitemcheckbox": true,
	"menuitemradio":    true,
	"tab":              true,
	"switch":           true,
	"slider":           true,
	"spinbutton":       true,
}

// SnapshotOptions bounds a snapshot projection.
type SnapshotOptions struct {
	// MaxDepth cuts the tree at this indentation depth; 0 keeps only
	// root-level lines, negative disables the cutoff
	MaxDepth int
	// InteractiveOnly keeps only lines whose role is interactive
	InteractiveOnly bool
}

// DOMSnapshot projects one action's before or after snapshot. which is
// "before" or "after".
func (e *Engine) DOMSnapshot(testIndex, actionIndex int, which string, opts SnapshotOptions) (string, error) {
	action, err := e.Action(testIndex, actionIndex)
	if err != nil {
		return "", err
	}
	if action.Snapshot == nil {
		return "", nil
	}

	var raw string
	switch which {
	case "after", "":
		raw = action.Snapshot.After
	case "before":
		raw = action.Snapshot.Before
	default:
		return "", fmt.Errorf("unknown snapshot side %q (expected before or after)", which)
	}

	return ProjectSnapshot(raw, opts), nil
}

// DOMDiff returns the precomputed added/removed/changed sets for one
// action.
func (e *Engine) DOMDiff(testIndex, actionIndex int) (*model.SnapshotDiff, error) {
	action, err := e.Action(testIndex, actionIndex)
	if err != nil {
		return nil, err
	}
	if action.Snapshot == nil || action.Snapshot.Diff == nil {
		return &model.SnapshotDiff{}, nil
	}
	return action.Snapshot.Diff, nil
}

// ProjectSnapshot applies the depth cutoff and interactive-role filter
// to a raw snapshot. Indentation is two spaces per level.
func ProjectSnapshot(raw string, opts SnapshotOptions) string {
	if raw == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		if opts.MaxDepth >= 0 {
			depth := (len(line) - len(trimmed)) / 2
			if depth > opts.MaxDepth {
				continue
			}
		}
		if opts.InteractiveOnly && !interactiveRoles[lineRole(trimmed)] {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// lineRole extracts the role token from a snapshot line of the form
// `- role "name" ...`.
func lineRole(trimmed string) string {
	rest := strings.TrimPrefix(trimmed, "- ")
	role, _, _ := strings.Cut(rest, " ")
	return strings.TrimSuffix(role, ":")
}
