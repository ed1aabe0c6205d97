package runner

// This file contains the error taxonomy for process-level failures.
// These are recorded into test entries rather than propagated; Execute
// always returns a completed run.

import (
	"errors"
	"fmt"
	"time"
)

// ErrProcessTimeout marks a subprocess that exceeded its configured
// timeout and was terminated.
var ErrProcessTimeout = errors.New("process timeout")

// ErrProcessSpawn marks a subprocess that could not be started at all.
var ErrProcessSpawn = errors.New("process spawn error")

// timeoutError builds the user-visible message for a timed-out spawn.
// The message names the configured timeout so the failure is actionable
// without digging into options.
func timeoutError(timeout time.Duration) error {
	return fmt.Errorf("%w: test did not complete within %s", ErrProcessTimeout, timeout)
}

func spawnError(err error) error {
	return fmt.Errorf("%w: %v", ErrProcessSpawn, err)
}
