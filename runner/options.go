// Package runner spawns test subprocesses, feeds their capture streams
// into a target, and finalizes structured run results.
package runner

import "time"

// Execution mode for one Execute call.
type Mode int

const (
	// ModeSingle runs one test location with live action capture.
	ModeSingle Mode = iota
	// ModeBatch runs every matching test in one subprocess and parses
	// its structured result; no live capture.
	ModeBatch
	// ModeFlaky runs the same location retries+1 times, each in its own
	// subprocess with its own capture channel.
	ModeFlaky
	// ModeRepeat passes a repeat count to a single subprocess; only
	// aggregate pass/fail counts survive.
	ModeRepeat
)

// Default per-spawn timeouts. Batch runs cover many tests and get
// much longer.
const (
	DefaultTestTimeout  = 60 * time.Second
	DefaultBatchTimeout = 10 * time.Minute
)

// killGracePeriod is how long a terminated subprocess gets between
// SIGTERM and SIGKILL.
const killGracePeriod = 3 * time.Second

// Options configures one Execute call. Location strings, filters and
// counts arrive already validated; command-line parsing happens in the
// cli package.
type Options struct {
	// Mode selects single, batch, flaky or repeat execution
	Mode Mode
	// Command is the base subprocess command (default: npx playwright test)
	Command []string
	// WorkDir is the subprocess working directory
	WorkDir string
	// Location identifies a single test (file.spec.ts:line); required
	// for single, flaky and repeat modes
	Location string
	// Grep filters batch runs by title pattern
	Grep string
	// Project filters batch runs by project name
	Project string
	// Timeout overrides the mode default when positive
	Timeout time.Duration
	// Retries is the extra attempt count for flaky mode (attempts = retries+1)
	Retries int
	// RepeatCount is the in-process iteration count for repeat mode
	RepeatCount int
	// ArtifactsDir is scanned for screenshots created during the run
	ArtifactsDir string
}

// DefaultCommand is the subprocess invocation used when Options.Command
// is empty.
var DefaultCommand = []string{"npx", "playwright", "test"}

func (o *Options) command() []string {
	if len(o.Command) > 0 {
		return o.Command
	}
	return DefaultCommand
}

func (o *Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.Mode == ModeBatch {
		return DefaultBatchTimeout
	}
	return DefaultTestTimeout
}
