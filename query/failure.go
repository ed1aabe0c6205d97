package query

// This file contains failure report assembly and the evidence bundle,
// the superset report carrying screenshot binaries.

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/e2etap/e2etap/model"
	"github.com/e2etap/e2etap/reporter"
)

// FailureReportOptions opts expensive detail into a failure report. DOM
// state and network bodies are elided by default to bound output size.
type FailureReportOptions struct {
	// IncludeDOM keeps the failing action's snapshot pair
	IncludeDOM bool
	// IncludeBodies keeps network request/response bodies
	IncludeBodies bool
	// SourceRoot, when set, resolves the test's source file so the
	// report can carry the test body excerpt
	SourceRoot string
}

// TimelineItem is one action in the compact failure timeline.
type TimelineItem struct {
	Index      int    `json:"index"`
	Type       string `json:"type"`
	Title      string `json:"title,omitempty"`
	DurationMs int64  `json:"durationMs"`
	HasError   bool   `json:"hasError,omitempty"`
}

// FailureReport assembles everything needed to debug one failed test.
type FailureReport struct {
	RunID         string                        `json:"runId"`
	File          string                        `json:"file"`
	TestTitle     string                        `json:"testTitle"`
	Status        model.TestStatus              `json:"status"`
	Error         string                        `json:"error,omitempty"`
	FailingIndex  int                           `json:"failingActionIndex"`
	FailingAction *model.ActionCapture          `json:"failingAction,omitempty"`
	Network       []model.NetworkRequestCapture `json:"network,omitempty"`
	Console       []model.ConsoleMessage        `json:"console,omitempty"`
	Timeline      []TimelineItem                `json:"timeline"`
	SourceExcerpt string                        `json:"sourceExcerpt,omitempty"`
}

// FailureReport builds the report for one test. Works for passed tests
// too (empty error, no failing action), so callers don't need to check
// status first.
func (e *Engine) FailureReport(testIndex int, opts FailureReportOptions) (*FailureReport, error) {
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}

	report := &FailureReport{
		RunID:        e.run.ID,
		File:         test.File,
		TestTitle:    test.TestTitle,
		Status:       test.Status,
		Error:        test.Error,
		FailingIndex: -1,
	}

	for i, action := range test.Actions {
		report.Timeline = append(report.Timeline, TimelineItem{
			Index:      i,
			Type:       action.Type,
			Title:      action.Title,
			DurationMs: action.Timing.DurationMs,
			HasError:   action.Error != nil,
		})

		if report.FailingAction == nil && action.Error != nil {
			report.FailingIndex = i
			failing := action
			if !opts.IncludeDOM {
				failing.Snapshot = nil
			}
			if !opts.IncludeBodies {
				failing.Network = stripBodies(failing.Network)
			}
			report.FailingAction = &failing
			report.Network = failing.Network.Requests
			report.Console = failing.Console
		}
	}

	if opts.SourceRoot != "" {
		report.SourceExcerpt = sourceExcerpt(opts.SourceRoot, test.Location)
	}

	return report, nil
}

// ScreenshotBlob is one screenshot carried inline in an evidence
// bundle.
type ScreenshotBlob struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Base64      string `json:"base64"`
}

// EvidenceBundle is the failure report plus all screenshots as binary
// attachments.
type EvidenceBundle struct {
	Report      *FailureReport   `json:"report"`
	Screenshots []ScreenshotBlob `json:"screenshots,omitempty"`
}

// EvidenceBundle builds the bundle for one test and, when outputFile is
// set, persists it as a single JSON document.
func (e *Engine) EvidenceBundle(testIndex int, outputFile string, opts FailureReportOptions) (*EvidenceBundle, error) {
	report, err := e.FailureReport(testIndex, opts)
	if err != nil {
		return nil, err
	}
	test, err := e.Test(testIndex)
	if err != nil {
		return nil, err
	}

	bundle := &EvidenceBundle{Report: report}
	for _, att := range test.Attachments {
		data, err := os.ReadFile(att.Path)
		if err != nil {
			// Attachment disappeared since collection; keep going.
			continue
		}
		bundle.Screenshots = append(bundle.Screenshots, ScreenshotBlob{
			Name:        att.Name,
			ContentType: att.ContentType,
			Base64:      base64.StdEncoding.EncodeToString(data),
		})
	}

	if outputFile != "" {
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode evidence bundle: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create evidence directory: %w", err)
		}
		if err := os.WriteFile(outputFile, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write evidence bundle: %w", err)
		}
	}

	return bundle, nil
}

func stripBodies(network model.NetworkCapture) model.NetworkCapture {
	out := model.NetworkCapture{Requests: make([]model.NetworkRequestCapture, len(network.Requests))}
	for i, req := range network.Requests {
		req.RequestPostData = ""
		req.ResponseBody = ""
		out.Requests[i] = req
	}
	return out
}

// maxSourceExcerptLines bounds the test body excerpt.
const maxSourceExcerptLines = 40

// sourceExcerpt locates the test's source boundaries via the shared
// brace-aware scanner and returns the body text. Best-effort: any miss
// returns "".
func sourceExcerpt(root, location string) string {
	idx := strings.LastIndex(location, ":")
	if idx <= 0 {
		return ""
	}
	file := location[:idx]
	line := 0
	fmt.Sscanf(location[idx+1:], "%d", &line)
	if line < 1 {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(root, file))
	if err != nil {
		return ""
	}

	src := string(data)
	start, end, ok := reporter.TestSourceSpan(src, line)
	if !ok {
		return ""
	}
	if end-start+1 > maxSourceExcerptLines {
		end = start + maxSourceExcerptLines - 1
	}

	lines := strings.Split(src, "\n")
	if start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}
