// Package schedule defines the state machine and invariants for
// calendar entries (scheduled jobs). This is part of the functional
// core - no I/O, only pure functions.
//
// Valid status graph:
//
//	Unscheduled ──► Scheduled ──► Needs Review ──► Confirmed ──► In Progress ──► Completed
//	      ▲             │ ▲            │               │              │
//	      └─────────────┘ └────────────┴───────────────┘              │
//	                      (every reschedule re-enters Scheduled)      │
//	  Cancelled ◄─────── any non-terminal state ◄─────────────────────┘
//
// Completed and Cancelled are terminal. The tenantConfirmed flag is
// tracked separately from status: a job can sit in Scheduled
// unconfirmed, and every manual move clears the flag again.
package schedule

import "fmt"

// Status values for calendar entries.
type Status string

const (
	StatusUnscheduled Status = "Unscheduled"
	StatusScheduled   Status = "Scheduled"
	StatusNeedsReview Status = "Needs Review"
	StatusConfirmed   Status = "Confirmed"
	StatusInProgress  Status = "In Progress"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
)

// validTransitions lists every allowed (from -> to) pair.
var validTransitions = map[Status][]Status{
	StatusUnscheduled: {StatusScheduled, StatusCancelled},
	StatusScheduled:   {StatusNeedsReview, StatusConfirmed, StatusInProgress, StatusUnscheduled, StatusCancelled},
	StatusNeedsReview: {StatusScheduled, StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusScheduled, StatusInProgress, StatusCancelled},
	StatusInProgress:  {StatusCompleted, StatusCancelled},
	// Completed and Cancelled are terminal, no outgoing transitions
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusUnscheduled, StatusScheduled, StatusNeedsReview, StatusConfirmed,
		StatusInProgress, StatusCompleted, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown schedule status %q", s)
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

// ValidateState enforces the structural invariant between the start
// timestamp and the status: an entry without a start must be
// Unscheduled, and an Unscheduled entry must not carry a start.
func ValidateState(hasStart bool, status Status) error {
	if !hasStart && status != StatusUnscheduled {
		return fmt.Errorf("schedule entry without a start cannot be %q", status)
	}
	if hasStart && status == StatusUnscheduled {
		return fmt.Errorf("schedule entry with a start cannot be %q", StatusUnscheduled)
	}
	return nil
}

// Decision represents the outcome of a schedule rule check.
type Decision struct {
	OK     bool
	Reason string // populated when not OK
}

// Error converts the decision to an error if the check failed, nil
// otherwise.
func (d Decision) Error() error {
	if d.OK {
		return nil
	}
	return fmt.Errorf("%s", d.Reason)
}

// CanMove evaluates whether a calendar entry may be placed onto another
// day. Rules: work that has started or finished stays where it was.
func CanMove(status Status) Decision {
	switch status {
	case StatusUnscheduled, StatusScheduled, StatusNeedsReview, StatusConfirmed:
		return Decision{OK: true}
	}
	return Decision{
		OK:     false,
		Reason: fmt.Sprintf("cannot move a %s job", status),
	}
}

// CanConfirm evaluates whether the tenant may confirm an entry. Rules:
// only placed, not-yet-started entries take a confirmation.
func CanConfirm(status Status) Decision {
	switch status {
	case StatusScheduled, StatusNeedsReview:
		return Decision{OK: true}
	}
	return Decision{
		OK:     false,
		Reason: fmt.Sprintf("cannot confirm a %s job", status),
	}
}

// MoveResult captures the state changes every successful reschedule
// applies alongside the new interval.
type MoveResult struct {
	Status          Status
	TenantConfirmed bool
}

// ApplyMove returns the state a calendar entry enters after a manual
// move. Manual moves always require fresh tenant confirmation.
func ApplyMove() MoveResult {
	return MoveResult{Status: StatusScheduled, TenantConfirmed: false}
}

// ApplyConfirmation returns the state a calendar entry enters when the
// tenant confirms the appointment.
func ApplyConfirmation() MoveResult {
	return MoveResult{Status: StatusConfirmed, TenantConfirmed: true}
}

// ApplyUnschedule returns the state a calendar entry enters when its
// placement is removed.
func ApplyUnschedule() MoveResult {
	return MoveResult{Status: StatusUnscheduled, TenantConfirmed: false}
}
