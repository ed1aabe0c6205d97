package runner

// This file contains subprocess spawning with timeout enforcement and
// graceful-then-forceful kill escalation.

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"al.essio.dev/pkg/shellescape"
)

// Environment variables injected into every spawned subprocess. The
// in-browser instrumentation reads these to find the capture channel.
const (
	EnvCaptureURL = "E2ETAP_CAPTURE_URL"
	EnvSessionID  = "E2ETAP_SESSION_ID"
)

// processResult is the raw outcome of one subprocess invocation.
type processResult struct {
	// ExitCode is the subprocess exit status; -1 when it never ran
	ExitCode int
	// Stdout and Stderr hold the full captured streams
	Stdout string
	Stderr string
	// Duration of the invocation
	Duration time.Duration
	// TimedOut is set when the configured timeout expired
	TimedOut bool
	// SpawnErr is set when the process could not be started
	SpawnErr error
}

// spawn runs one subprocess to completion. On context expiry or
// cancellation the process receives SIGTERM, escalating to SIGKILL
// after killGracePeriod if it has not exited.
func (r *Runner) spawn(ctx context.Context, args []string, captureURL, sessionID string, timeout time.Duration) processResult {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	if r.opts.WorkDir != "" {
		cmd.Dir = r.opts.WorkDir
	}

	cmd.Env = os.Environ()
	if captureURL != "" {
		cmd.Env = append(cmd.Env,
			EnvCaptureURL+"="+captureURL,
			EnvSessionID+"="+sessionID,
		)
	}

	// Graceful terminate first; WaitDelay hard-kills stragglers.
	cmd.Cancel = func() error {
		r.logger.Debug().Str("cmd", args[0]).Msg("Sending SIGTERM to subprocess")
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGracePeriod

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	r.logger.Debug().
		Str("cmd", shellescape.QuoteCommand(args)).
		Dur("timeout", timeout).
		Msg("Spawning test subprocess")

	err := cmd.Run()

	result := processResult{
		ExitCode: 0,
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			result.ExitCode = -1
		default:
			result.ExitCode = -1
			result.SpawnErr = spawnError(err)
		}
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
	}

	if result.ExitCode != 0 {
		r.logger.Info().
			Int("exit_code", result.ExitCode).
			Bool("timed_out", result.TimedOut).
			Msg("Subprocess completed with failures")
	} else {
		r.logger.Debug().Dur("duration", result.Duration).Msg("Subprocess completed")
	}

	return result
}

// combinedOutput interleaves stdout first, then stderr, for heuristic
// error extraction.
func (p processResult) combinedOutput() string {
	if p.Stderr == "" {
		return p.Stdout
	}
	if p.Stdout == "" {
		return p.Stderr
	}
	return strings.TrimRight(p.Stdout, "\n") + "\n" + p.Stderr
}
