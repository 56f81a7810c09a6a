package wrk

import (
	"errors"
	"fmt"
)

// ErrToolNotFound means the wrk binary is not installed. The whole run
// aborts on this one, unlike the per-scenario failures below.
var ErrToolNotFound = errors.New("wrk binary not found in PATH")

// ErrCancelled is returned when the surrounding context was cancelled
// while the generator was still running.
var ErrCancelled = errors.New("load run cancelled")

// ProcessError means wrk exited non-zero.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("wrk exited with code %d: %s", e.ExitCode, e.Stderr)
}

// ParseError means wrk output did not match the expected report format.
// Raw carries the full text for diagnostics.
type ParseError struct {
	Missing string
	Raw     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable wrk output: missing %s", e.Missing)
}
