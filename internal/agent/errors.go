package agent

import "errors"

var (
	// ErrAgentNotFound means the agent row is gone; not counted against the
	// error budget since there is no agent to charge.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentStopped is returned for cycles requested against a stopped
	// agent. Stopped is terminal until the owner restarts it.
	ErrAgentStopped = errors.New("agent is stopped")

	// ErrCycleInProgress means a cycle for this agent is already running.
	// The caller should treat it as a no-op, not a failure.
	ErrCycleInProgress = errors.New("cycle already in progress")
)
