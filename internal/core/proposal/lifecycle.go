// Package proposal contains the pure negotiation rules for appointment
// proposals: the status machine, the 48-hour expiry window, slot
// validation and slot selection fan-out. This is part of the functional
// core - no I/O, only pure functions.
//
// Valid status graph:
//
//	pending ──► accepted
//	   │
//	   ├──────► declined
//	   ├──────► countered
//	   └──────► expired
//
// All four right-hand states are terminal for the row. A countered
// proposal is superseded by a fresh pending proposal with a new slot
// set; the original row never re-opens.
package proposal

import (
	"fmt"
	"time"
)

// TTL is the fixed lifetime of a proposal from creation. A proposal the
// tenant has not answered within this window expires.
const TTL = 48 * time.Hour

// Slot count bounds for a single proposal.
const (
	MinSlots = 1
	MaxSlots = 3
)

// Status represents the lifecycle state of an appointment proposal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusCountered Status = "countered"
	StatusExpired   Status = "expired"
)

// validTransitions lists every allowed (from -> to) pair.
var validTransitions = map[Status][]Status{
	StatusPending: {StatusAccepted, StatusDeclined, StatusCountered, StatusExpired},
	// accepted, declined, countered and expired are terminal
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusAccepted, StatusDeclined, StatusCountered, StatusExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown proposal status %q", s)
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

// SlotStatus represents the state of one candidate window inside a
// proposal.
type SlotStatus string

const (
	SlotPending  SlotStatus = "Pending"
	SlotSelected SlotStatus = "Selected"
	SlotDeclined SlotStatus = "Declined"
)

// ParseSlotStatus converts a raw string to a SlotStatus, returning an
// error for unknown values.
func ParseSlotStatus(s string) (SlotStatus, error) {
	st := SlotStatus(s)
	switch st {
	case SlotPending, SlotSelected, SlotDeclined:
		return st, nil
	}
	return "", fmt.Errorf("unknown slot status %q", s)
}

// ExpiresAt returns the expiry timestamp for a proposal created at the
// given time.
func ExpiresAt(createdAt time.Time) time.Time {
	return createdAt.Add(TTL)
}

// IsExpired reports whether a pending proposal has outlived its TTL.
// Expiry is lazy: nothing flips the stored status at the deadline, so
// every read and write path must consult this predicate with the
// current time.
func IsExpired(status Status, expiresAt, now time.Time) bool {
	return status == StatusPending && !now.Before(expiresAt)
}

// EffectiveStatus returns the status a reader should present: a pending
// proposal past its deadline reads as expired even before any write has
// flushed the change to storage.
func EffectiveStatus(status Status, expiresAt, now time.Time) Status {
	if IsExpired(status, expiresAt, now) {
		return StatusExpired
	}
	return status
}

// ReasonExpired is returned for any write against a proposal whose TTL
// has elapsed. Expiry is a first-class outcome, not a generic failure:
// callers surface it as "request new times".
const ReasonExpired = "proposal expired"

// Decision represents the outcome of a proposal rule check.
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

// WriteContext provides the facts needed to gate a tenant write against
// a proposal (slot selection, decline, counter).
type WriteContext struct {
	Status    Status
	ExpiresAt time.Time
	Now       time.Time
}

// CanModify evaluates whether a proposal still accepts writes.
// Rules:
// - Proposal must be pending
// - The 48-hour window must not have elapsed
// Gates SelectSlot, DeclineAll and Counter alike; an expired-but-not-
// yet-flushed proposal fails here exactly as a flushed one would.
func CanModify(ctx WriteContext) Decision {
	effective := EffectiveStatus(ctx.Status, ctx.ExpiresAt, ctx.Now)

	if effective == StatusExpired {
		return Decision{OK: false, Reason: ReasonExpired}
	}
	if effective != StatusPending {
		return Decision{
			OK:     false,
			Reason: fmt.Sprintf("proposal already %s", effective),
		}
	}

	return Decision{OK: true}
}

// SlotWindow is one candidate appointment window offered in a proposal.
type SlotWindow struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// ValidateSlots checks the slot set offered at proposal creation.
// Rules:
// - Between 1 and 3 slots
// - Every window must end after it starts
func ValidateSlots(slots []SlotWindow) Decision {
	if len(slots) < MinSlots || len(slots) > MaxSlots {
		return Decision{
			OK:     false,
			Reason: fmt.Sprintf("a proposal needs between %d and %d slots (got %d)", MinSlots, MaxSlots, len(slots)),
		}
	}

	for i, s := range slots {
		if !s.EndsAt.After(s.StartsAt) {
			return Decision{
				OK:     false,
				Reason: fmt.Sprintf("slot %d must end after it starts", i+1),
			}
		}
	}

	return Decision{OK: true}
}

// ApplySelection returns the new status for every slot under a proposal
// once one of them is chosen: the chosen slot becomes Selected, every
// sibling becomes Declined. The caller must persist all rows in a
// single transaction so no reader ever observes two Selected slots.
func ApplySelection(slotIDs []string, selectedID string) map[string]SlotStatus {
	statuses := make(map[string]SlotStatus, len(slotIDs))
	for _, id := range slotIDs {
		if id == selectedID {
			statuses[id] = SlotSelected
		} else {
			statuses[id] = SlotDeclined
		}
	}
	return statuses
}
