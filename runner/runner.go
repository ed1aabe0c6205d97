package runner

// This file contains the orchestrator core: run construction, the four
// execution modes, cooperative stop, and finalization. Exactly one
// subprocess is active at a time per Runner, which is what keeps the
// capture channel's event stream unambiguous.

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog"

	"github.com/e2etap/e2etap/capture"
	"github.com/e2etap/e2etap/model"
	"github.com/e2etap/e2etap/reporter"
)

// Runner orchestrates test subprocess execution.
type Runner struct {
	logger zerolog.Logger
	opts   Options
	store  *Store

	// live receives capture events alongside the internal accumulator
	// when set (e.g., a dashboard store)
	live capture.Target

	stopped atomic.Bool
}

// New creates a runner. store may be nil, in which case the runner owns
// a fresh one.
func New(logger zerolog.Logger, store *Store, opts Options) *Runner {
	if store == nil {
		store = NewStore()
	}
	return &Runner{logger: logger, opts: opts, store: store}
}

// SetLiveTarget attaches an additional capture consumer (a live UI
// store). Must be called before Execute.
func (r *Runner) SetLiveTarget(t capture.Target) {
	r.live = t
}

// Store returns the run registry this runner records into.
func (r *Runner) Store() *Store {
	return r.store
}

// Stop requests cooperative cancellation. The flag is honored between
// loop iterations; callers should additionally cancel the Execute
// context to terminate an in-flight subprocess.
func (r *Runner) Stop() {
	r.stopped.Store(true)
}

// Execute runs single or batch mode and returns a completed run. Every
// test entry ends passed or failed; process-level failures land in the
// entry's error field instead of propagating.
func (r *Runner) Execute(ctx context.Context) (*model.Run, error) {
	switch r.opts.Mode {
	case ModeSingle:
		return r.runSingle(ctx)
	case ModeBatch:
		return r.runBatch(ctx)
	default:
		return nil, fmt.Errorf("mode %d is not a run mode; use ExecuteFlaky or ExecuteRepeat", r.opts.Mode)
	}
}

// ExecuteFlaky runs retries+1 sequential invocations of one location,
// each with its own capture channel, and classifies the verdict.
func (r *Runner) ExecuteFlaky(ctx context.Context) (*model.FlakyResult, error) {
	if r.opts.Location == "" {
		return nil, fmt.Errorf("flaky mode requires a test location")
	}

	attempts := r.opts.Retries + 1
	result := &model.FlakyResult{
		Location: r.opts.Location,
		Attempts: attempts,
	}

	for i := 0; i < attempts; i++ {
		if r.stopped.Load() || ctx.Err() != nil {
			r.logger.Info().Int("attempt", i).Msg("Stop requested, abandoning remaining attempts")
			result.Attempts = i
			break
		}

		r.logger.Info().
			Int("attempt", i+1).
			Int("of", attempts).
			Str("location", r.opts.Location).
			Msg("Starting flaky-retry attempt")

		run, err := r.runSingle(ctx)
		if err != nil {
			return nil, err
		}
		result.Runs = append(result.Runs, run)

		if len(run.Tests) > 0 && run.Tests[0].Status == model.StatusPassed {
			result.Passes++
		} else {
			result.Failures++
		}
	}

	result.Classify()
	r.logger.Info().
		Str("verdict", string(result.Verdict)).
		Int("passes", result.Passes).
		Int("failures", result.Failures).
		Msg("Flaky-retry verdict")
	return result, nil
}

var repeatCountRe = regexp.MustCompile(`(?m)^\s*(\d+)\s+(passed|failed)`)

// ExecuteRepeat passes a repeat count to one subprocess invocation and
// parses only the aggregate counters. Faster and coarser than flaky
// mode; there is no per-iteration capture.
func (r *Runner) ExecuteRepeat(ctx context.Context) (*model.RepeatResult, error) {
	if r.opts.Location == "" {
		return nil, fmt.Errorf("repeat mode requires a test location")
	}
	count := r.opts.RepeatCount
	if count < 1 {
		count = 1
	}

	args := append(append([]string{}, r.opts.command()...),
		r.opts.Location,
		"--repeat-each="+strconv.Itoa(count),
		"--reporter=line",
		"--workers=1",
	)

	res := r.spawn(ctx, args, "", "", r.opts.timeout())

	result := &model.RepeatResult{Location: r.opts.Location, Count: count}
	for _, m := range repeatCountRe.FindAllStringSubmatch(reporter.StripANSI(res.combinedOutput()), -1) {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "passed":
			result.Passed += n
		case "failed":
			result.Failed += n
		}
	}

	// The counters are reporter-format dependent; when nothing parsed,
	// fall back to the exit code for an all-or-nothing answer.
	if result.Passed == 0 && result.Failed == 0 {
		if res.ExitCode == 0 {
			result.Passed = count
		} else {
			result.Failed = count
		}
	}

	r.logger.Info().
		Int("passed", result.Passed).
		Int("failed", result.Failed).
		Msg("Repeat run completed")
	return result, nil
}

func (r *Runner) runSingle(ctx context.Context) (*model.Run, error) {
	if r.opts.Location == "" {
		return nil, fmt.Errorf("single mode requires a test location")
	}

	run := r.newRun()
	start := time.Now()

	acc := capture.NewAccumulator()
	entry := model.TestEntry{
		File:      locationFile(r.opts.Location),
		TestTitle: r.opts.Location,
		Location:  r.opts.Location,
		Status:    model.StatusRunning,
	}

	args := append(append([]string{}, r.opts.command()...),
		r.opts.Location,
		"--reporter=line",
		"--workers=1",
	)
	run.Command = shellescape.QuoteCommand(args)

	channel, err := capture.NewChannel(r.logger, r.captureTarget(acc))
	if err != nil {
		// No channel means no live capture, but the test still runs.
		r.logger.Warn().Err(err).Msg("Capture channel unavailable, running without live capture")
		res := r.spawn(ctx, args, "", run.ID, r.opts.timeout())
		r.finalizeSingle(run, &entry, acc, res, start)
		return run, nil
	}
	defer channel.Close()

	res := r.spawn(ctx, args, channel.Addr(), run.ID, r.opts.timeout())
	channel.Close()

	r.finalizeSingle(run, &entry, acc, res, start)
	return run, nil
}

func (r *Runner) finalizeSingle(run *model.Run, entry *model.TestEntry, acc *capture.Accumulator, res processResult, start time.Time) {
	if file, title := acc.TestInfo(); title != "" {
		if file != "" {
			entry.File = file
		}
		entry.TestTitle = title
	}

	entry.Actions = acc.Actions()
	entry.Duration = res.Duration

	switch {
	case res.SpawnErr != nil:
		entry.Status = model.StatusFailed
		entry.Error = res.SpawnErr.Error()
	case res.TimedOut:
		entry.Status = model.StatusFailed
		entry.Error = timeoutError(r.opts.timeout()).Error()
	case res.ExitCode == 0:
		entry.Status = model.StatusPassed
	default:
		entry.Status = model.StatusFailed
		entry.Error = reporter.ExtractErrorSpan(res.combinedOutput())
		if entry.Error == "" {
			entry.Error = fmt.Sprintf("test failed with exit code %d", res.ExitCode)
		}
	}

	r.collectAttachments(entry, start)

	run.Tests = append(run.Tests, *entry)
	run.Duration = time.Since(start)
	r.store.Add(run)

	r.logger.Info().
		Str("run", run.ID[:8]).
		Str("status", string(entry.Status)).
		Dur("duration", entry.Duration).
		Int("actions", len(entry.Actions)).
		Msg("Test finalized")
}

func (r *Runner) runBatch(ctx context.Context) (*model.Run, error) {
	run := r.newRun()
	start := time.Now()

	// All-tests-at-once is incompatible with the one-running-test
	// invariant, so batch mode skips live capture entirely and relies
	// on the structured reporter output.
	args := append([]string{}, r.opts.command()...)
	if r.opts.Grep != "" {
		args = append(args, "--grep", r.opts.Grep)
	}
	if r.opts.Project != "" {
		args = append(args, "--project", r.opts.Project)
	}
	args = append(args, "--reporter=json")
	run.Command = shellescape.QuoteCommand(args)

	res := r.spawn(ctx, args, "", run.ID, r.opts.timeout())

	switch {
	case res.SpawnErr != nil:
		run.Tests = []model.TestEntry{{
			File:      "(batch)",
			TestTitle: "batch spawn failure",
			Status:    model.StatusFailed,
			Error:     res.SpawnErr.Error(),
		}}
	case res.TimedOut:
		run.Tests = []model.TestEntry{{
			File:      "(batch)",
			TestTitle: "batch timeout",
			Status:    model.StatusFailed,
			Error:     timeoutError(r.opts.timeout()).Error(),
		}}
	default:
		run.Tests = reporter.ParseBatchReport([]byte(res.Stdout))
	}

	run.Duration = time.Since(start)
	r.store.Add(run)

	summary := run.Summary()
	r.logger.Info().
		Str("run", run.ID[:8]).
		Int("total", summary.Total).
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Msg("Batch run finalized")
	return run, nil
}

// captureTarget wires the accumulator, and the live target when one is
// attached, behind a single Target.
func (r *Runner) captureTarget(acc *capture.Accumulator) capture.Target {
	if r.live == nil {
		return acc
	}
	return &teeTarget{primary: acc, secondary: r.live}
}

func (r *Runner) newRun() *model.Run {
	idBytes := make([]byte, 16)
	rand.Read(idBytes)
	return &model.Run{
		ID:        hex.EncodeToString(idBytes),
		Timestamp: time.Now(),
		WorkDir:   r.opts.WorkDir,
	}
}

func locationFile(location string) string {
	if idx := strings.LastIndex(location, ":"); idx > 0 {
		if _, err := strconv.Atoi(location[idx+1:]); err == nil {
			return location[:idx]
		}
	}
	return location
}

// teeTarget forwards capture events to both the accumulator and a live
// consumer. Optional hooks propagate when the live side implements
// them.
type teeTarget struct {
	primary   *capture.Accumulator
	secondary capture.Target
}

func (t *teeTarget) AppendAction(action model.ActionCapture) {
	t.primary.AppendAction(action)
	t.secondary.AppendAction(action)
}

func (t *teeTarget) SetCurrentAction(label string) {
	t.primary.SetCurrentAction(label)
	t.secondary.SetCurrentAction(label)
}

func (t *teeTarget) OnStep(annotation string) {
	if obs, ok := t.secondary.(capture.StepObserver); ok {
		obs.OnStep(annotation)
	}
}

func (t *teeTarget) OnTestStart(file, title string) {
	t.primary.OnTestStart(file, title)
	if obs, ok := t.secondary.(capture.StatusObserver); ok {
		obs.OnTestStart(file, title)
	}
}
