package model

// FlakyVerdict classifies the outcome of repeated attempts of one test.
type FlakyVerdict string

const (
	VerdictConsistentPass FlakyVerdict = "CONSISTENT PASS"
	VerdictConsistentFail FlakyVerdict = "CONSISTENT FAIL"
	VerdictFlaky          FlakyVerdict = "FLAKY"
	// VerdictAborted means no attempt completed (stopped or canceled
	// before the first result), so there is no evidence either way.
	VerdictAborted FlakyVerdict = "ABORTED"
)

// FlakyResult aggregates the outcomes of sequential retry attempts
// of a single test location.
type FlakyResult struct {
	// Location that was retried (e.g., "login.spec.ts:12")
	Location string `json:"location"`
	// Number of attempts executed (retries + 1)
	Attempts int `json:"attempts"`
	// Attempts that passed
	Passes int `json:"passes"`
	// Attempts that failed
	Failures int `json:"failures"`
	// Derived verdict
	Verdict FlakyVerdict `json:"verdict"`
	// Per-attempt runs, each with full action capture
	Runs []*Run `json:"runs,omitempty"`
}

// Classify derives the verdict from the pass/fail counts.
func (f *FlakyResult) Classify() {
	switch {
	case f.Passes == 0 && f.Failures == 0:
		f.Verdict = VerdictAborted
	case f.Failures == 0:
		f.Verdict = VerdictConsistentPass
	case f.Passes == 0:
		f.Verdict = VerdictConsistentFail
	default:
		f.Verdict = VerdictFlaky
	}
}

// RepeatResult holds the aggregate outcome of an in-process repeat run.
// Repeat mode trades per-iteration capture for speed, so only counts
// survive.
type RepeatResult struct {
	// Location that was repeated
	Location string `json:"location"`
	// Requested iteration count
	Count int `json:"count"`
	// Iterations that passed
	Passed int `json:"passed"`
	// Iterations that failed
	Failed int `json:"failed"`
}
