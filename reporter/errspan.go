package reporter

// This file contains the heuristic error-span extractor for raw
// interleaved stdout/stderr when no structured result is available.
// The markers below track one reporter's output format and are
// best-effort by design; extraction always degrades to a fallback
// rather than returning nothing.

import (
	"regexp"
	"strings"
)

const (
	// maxErrorLines caps the captured span.
	maxErrorLines = 30
	// fallbackLines is how many trailing non-noise lines are used when
	// no marker is found.
	fallbackLines = 5
)

var ansiEscape = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|\x1b\][^\x07]*\x07`)

// errorMarkers start an error span when found at a line.
var errorMarkers = []string{
	"Error:",
	"error:",
	"TimeoutError",
	"AssertionError",
	"Timed out",
	"timed out",
	"expect(",
	"Expected",
	"FAIL",
}

// noisePatterns match reporter chrome that should never be reported as
// an error: pass/fail counters and invocation banners.
var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+ (passed|failed|skipped|flaky|did not run)`),
	regexp.MustCompile(`^Running \d+ test`),
	regexp.MustCompile(`^To open last HTML report`),
	regexp.MustCompile(`^npx `),
	regexp.MustCompile(`^Serving HTML report`),
	regexp.MustCompile(`^\s*[✓✘xX-]\s+\d+\s`),
}

var stackFrameRe = regexp.MustCompile(`^\s+at\s`)

// continuationRe matches lines that may legitimately follow a stack
// frame inside the same error span.
var continuationRe = regexp.MustCompile(`^\s*(at\s|Expected|Received|expect\(|[+-]\s|\.\.\.)`)

// StripANSI removes terminal control sequences from raw output.
func StripANSI(raw string) string {
	return ansiEscape.ReplaceAllString(raw, "")
}

// ExtractErrorSpan pulls a bounded error span out of raw subprocess
// output. It scans for a recognized error marker, captures forward up
// to maxErrorLines, and stops at the first stack frame not followed by
// a continuation line. With no marker found it falls back to the last
// few non-noise lines. Returns "" only for effectively empty input.
func ExtractErrorSpan(raw string) string {
	lines := strings.Split(StripANSI(raw), "\n")

	start := -1
	for i, line := range lines {
		if isNoise(line) {
			continue
		}
		if hasErrorMarker(line) {
			start = i
			break
		}
	}

	if start < 0 {
		return lastNonNoiseLines(lines)
	}

	var span []string
	for i := start; i < len(lines) && len(span) < maxErrorLines; i++ {
		line := lines[i]
		span = append(span, line)

		if stackFrameRe.MatchString(line) {
			// Stop once the stack trace ends: a frame whose successor
			// is not part of the same error block.
			if i+1 >= len(lines) || !continuationRe.MatchString(lines[i+1]) {
				break
			}
		}
	}

	return strings.TrimRight(strings.Join(span, "\n"), " \t\n")
}

func hasErrorMarker(line string) bool {
	for _, marker := range errorMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func isNoise(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, re := range noisePatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func lastNonNoiseLines(lines []string) string {
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < fallbackLines; i-- {
		if isNoise(lines[i]) {
			continue
		}
		kept = append([]string{strings.TrimRight(lines[i], " \t")}, kept...)
	}
	return strings.Join(kept, "\n")
}
