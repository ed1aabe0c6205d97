// Package history persists finalized runs under the reports directory,
// keyed by run id, and loads them back for listing and viewing.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/e2etap/e2etap/model"
)

// DefaultReportsDir is used when no reports directory is configured.
const DefaultReportsDir = ".e2etap"

// runFileName is the per-run record inside each run directory.
const runFileName = "run.json"

// Entry pairs a loaded run with its directory on disk.
type Entry struct {
	Run      model.Run
	FullPath string
}

// Record writes a run record under <reportsDir>/<runid>/run.json and
// returns the run directory, creating it as needed.
func Record(reportsDir string, run *model.Run) (string, error) {
	if reportsDir == "" {
		reportsDir = DefaultReportsDir
	}

	runDir := filepath.Join(reportsDir, run.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, runFileName), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run record: %w", err)
	}
	return runDir, nil
}

// LoadEntries loads every run record under the reports directory,
// newest first. Unparseable records are skipped with a warning.
func LoadEntries(logger zerolog.Logger, reportsDir string) ([]Entry, error) {
	if reportsDir == "" {
		reportsDir = DefaultReportsDir
	}

	dirs, err := os.ReadDir(reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no runs recorded in %s", reportsDir)
		}
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	var entries []Entry
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		runPath := filepath.Join(reportsDir, d.Name(), runFileName)
		data, err := os.ReadFile(runPath)
		if err != nil {
			continue
		}
		var run model.Run
		if err := json.Unmarshal(data, &run); err != nil {
			logger.Warn().Err(err).Str("path", runPath).Msg("Failed to parse run record")
			continue
		}
		entries = append(entries, Entry{Run: run, FullPath: filepath.Join(reportsDir, d.Name())})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Run.Timestamp.After(entries[j].Run.Timestamp)
	})
	return entries, nil
}

// FindByPrefix resolves an id prefix to a single run record. An empty
// prefix resolves to the most recent run.
func FindByPrefix(logger zerolog.Logger, reportsDir, prefix string) (*Entry, error) {
	entries, err := LoadEntries(logger, reportsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no runs recorded")
	}
	if prefix == "" {
		return &entries[0], nil
	}

	var matches []Entry
	for _, e := range entries {
		if strings.HasPrefix(e.Run.ID, prefix) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no run matching id prefix %q", prefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
