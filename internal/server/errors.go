package server

import "fmt"

// BuildError means the candidate's build step failed. Fatal to that
// candidate only; the run continues with the next one.
type BuildError struct {
	Candidate string
	Output    string
	Err       error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed for %s: %v", e.Candidate, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

type StartReason string

const (
	// NotReady means the server never answered its health check within
	// the readiness timeout.
	NotReady StartReason = "not_ready"
	// PortInUse means another live handle already owns the port.
	PortInUse StartReason = "port_in_use"
	// SpawnFailed means the process or container could not be created.
	SpawnFailed StartReason = "spawn_failed"
)

// StartError means the candidate's server could not reach Ready state.
// Fatal to that candidate only.
type StartError struct {
	Candidate string
	Reason    StartReason
	Err       error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start failed for %s (%s): %v", e.Candidate, e.Reason, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }
