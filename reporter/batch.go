package reporter

// This file contains the structured batch-result parser. Batch mode
// runs every matching test in one subprocess and emits a nested
// suite/spec/test JSON tree; this flattens it into per-test entries.

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/e2etap/e2etap/model"
)

// maxRawDiagnostic bounds the raw-output excerpt attached to the
// synthetic entry produced for an unparseable payload.
const maxRawDiagnostic = 2000

// batchReport is the top of the reporter's JSON output.
type batchReport struct {
	Suites []batchSuite `json:"suites"`
}

type batchSuite struct {
	Title  string       `json:"title"`
	File   string       `json:"file"`
	Suites []batchSuite `json:"suites"`
	Specs  []batchSpec  `json:"specs"`
}

type batchSpec struct {
	Title string      `json:"title"`
	File  string      `json:"file"`
	Line  int         `json:"line"`
	Tests []batchTest `json:"tests"`
}

type batchTest struct {
	ProjectName string        `json:"projectName"`
	Status      string        `json:"status"`
	Results     []batchResult `json:"results"`
}

type batchResult struct {
	Status   string      `json:"status"`
	Duration float64     `json:"duration"`
	Error    *batchError `json:"error"`
}

type batchError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

// ParseBatchReport flattens a structured batch result into test
// entries. It never fails: an unparseable payload yields a single
// synthetic failed entry carrying a truncated raw-output diagnostic.
func ParseBatchReport(raw []byte) []model.TestEntry {
	var report batchReport
	if err := json.Unmarshal(raw, &report); err != nil || report.Suites == nil {
		return []model.TestEntry{syntheticFailure(raw)}
	}

	var entries []model.TestEntry
	for _, suite := range report.Suites {
		entries = append(entries, flattenSuite(suite, nil)...)
	}
	if entries == nil {
		entries = []model.TestEntry{}
	}
	return entries
}

func flattenSuite(suite batchSuite, titles []string) []model.TestEntry {
	if suite.Title != "" && suite.Title != suite.File {
		titles = append(titles, suite.Title)
	}

	var entries []model.TestEntry
	for _, spec := range suite.Specs {
		for _, test := range spec.Tests {
			entry, ok := flattenTest(suite, spec, test, titles)
			if ok {
				entries = append(entries, entry)
			}
		}
	}
	for _, child := range suite.Suites {
		entries = append(entries, flattenSuite(child, titles)...)
	}
	return entries
}

func flattenTest(suite batchSuite, spec batchSpec, test batchTest, titles []string) (model.TestEntry, bool) {
	status, ok := classifyStatus(test)
	if !ok {
		return model.TestEntry{}, false
	}

	title := strings.Join(append(append([]string{}, titles...), spec.Title), " › ")
	if test.ProjectName != "" {
		title += " [" + test.ProjectName + "]"
	}

	file := spec.File
	if file == "" {
		file = suite.File
	}

	entry := model.TestEntry{
		File:      file,
		TestTitle: title,
		Status:    status,
	}
	if spec.Line > 0 {
		entry.Location = file + ":" + strconv.Itoa(spec.Line)
	}

	for _, result := range test.Results {
		entry.Duration += time.Duration(result.Duration * float64(time.Millisecond))
		if status == model.StatusFailed && entry.Error == "" && result.Error != nil {
			entry.Error = result.Error.Message
			if result.Error.Stack != "" && !strings.Contains(entry.Error, result.Error.Stack) {
				entry.Error += "\n" + result.Error.Stack
			}
		}
	}
	return entry, true
}

// classifyStatus maps the reporter's outcome vocabulary onto ours.
// A flaky test eventually passed, so it counts as passed; skipped
// entries are dropped.
func classifyStatus(test batchTest) (model.TestStatus, bool) {
	switch test.Status {
	case "expected", "flaky":
		return model.StatusPassed, true
	case "unexpected":
		return model.StatusFailed, true
	case "skipped":
		return "", false
	}

	// Older reporters put the outcome on the individual results.
	passed := false
	failed := false
	for _, result := range test.Results {
		switch result.Status {
		case "passed":
			passed = true
		case "failed", "timedOut", "interrupted":
			failed = true
		}
	}
	switch {
	case passed:
		return model.StatusPassed, true
	case failed:
		return model.StatusFailed, true
	}
	return "", false
}

func syntheticFailure(raw []byte) model.TestEntry {
	excerpt := strings.TrimSpace(string(raw))
	if len(excerpt) > maxRawDiagnostic {
		excerpt = excerpt[:maxRawDiagnostic] + "\n... (truncated)"
	}
	return model.TestEntry{
		File:      "(batch)",
		TestTitle: "batch result parse failure",
		Status:    model.StatusFailed,
		Error:     "failed to parse batch reporter output:\n" + excerpt,
	}
}
