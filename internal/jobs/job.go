// Package jobs drives submit-then-poll image generation jobs.
package jobs

import "time"

type State int

const (
	StateCreated State = iota
	StatePolling
	StateSucceeded
	StateFailed
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePolling:
		return "polling"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// Job is a value owned by the loop that created it. Transitions return a new
// Job and only move forward.
type Job struct {
	ID          string
	ProviderID  string
	SubmittedAt time.Time
	State       State
	ArtifactURL string
	// Status is the last status token reported by the provider.
	Status string
	// Err is set when State is Failed or TimedOut.
	Err error
}

func (j Job) advance(to State) Job {
	if to < j.State || j.State.IsTerminal() {
		return j
	}
	j.State = to
	return j
}
