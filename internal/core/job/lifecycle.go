// Package job defines the lifecycle state machine for maintenance jobs.
//
// Valid status graph:
//
//	New ──► In Review ──► Scheduled ──► In Progress ──► Resolved ──► Closed
//	 │           │             │          ▲     │                      ▲
//	 │           │             └──────────┘     ▼                      │
//	 │           └───────────► On Hold ◄───────┘                       │
//	 │                            │                                    │
//	 └────────────────────────────┴────────────────────────────────────┘
//
// Closed is terminal. Acceptance through the marketplace jumps a job
// straight to In Progress, so New and In Review both allow that edge.
package job

import "fmt"

// Status values for the job lifecycle.
type Status string

const (
	StatusNew        Status = "New"
	StatusInReview   Status = "In Review"
	StatusScheduled  Status = "Scheduled"
	StatusInProgress Status = "In Progress"
	StatusOnHold     Status = "On Hold"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// validTransitions lists every allowed (from -> to) pair.
var validTransitions = map[Status][]Status{
	StatusNew:        {StatusInReview, StatusScheduled, StatusInProgress, StatusClosed},
	StatusInReview:   {StatusScheduled, StatusInProgress, StatusOnHold, StatusClosed},
	StatusScheduled:  {StatusInProgress, StatusOnHold, StatusClosed},
	StatusInProgress: {StatusOnHold, StatusResolved},
	StatusOnHold:     {StatusScheduled, StatusInProgress, StatusClosed},
	StatusResolved:   {StatusInProgress, StatusClosed},
	// Closed is terminal, no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusNew, StatusInReview, StatusScheduled, StatusInProgress,
		StatusOnHold, StatusResolved, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed reports whether moving from -> to is permitted by
// the state machine.
func IsTransitionAllowed(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(s Status) bool {
	return len(validTransitions[s]) == 0
}

// InitialStatus returns the status for a freshly reported job.
func InitialStatus() Status {
	return StatusNew
}

// AcceptedStatus returns the status a job moves to when a contractor
// accepts it through the marketplace.
func AcceptedStatus() Status {
	return StatusInProgress
}

// Priority values for maintenance jobs.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a raw string to a Priority, returning an error
// for unknown values.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return p, nil
	}
	return "", fmt.Errorf("unknown job priority %q", s)
}
