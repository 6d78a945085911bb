package approval

import "time"

// Verdict is the outcome of evaluating one appointment against a policy.
type Verdict struct {
	AutoApprove bool
	Reason      string
}

// Reason strings are part of the engine's contract; callers and tests match
// them verbatim.
const (
	ReasonEmergency     = "emergency override"
	ReasonVacation      = "vacation relax-mode"
	ReasonTrusted       = "trusted contractor"
	ReasonCostExceeds   = "cost exceeds review threshold"
	ReasonUnderLimit    = "under auto-approve cost limit"
	ReasonWeekdayWindow = "weekday window"
	ReasonWeekendWindow = "weekend window"
	ReasonEveningWindow = "evening window"
	ReasonNoRule        = "no auto-approval rule matched"
	ReasonNoPolicy      = "no active policy"
)

// eveningHour is the boundary between daytime and evening classification,
// in the organization's local time.
const eveningHour = 17

// Appointment is the candidate booking under evaluation. ProposedStart must
// already carry the organization's local time zone; the evaluator classifies
// time windows in the location attached to the value.
type Appointment struct {
	ContractorID       string
	ProposedStart      time.Time
	EstimatedCostCents int64
	IsUrgent           bool
}

// NoPolicy is the fail-closed verdict used when an organization has no
// active policy.
func NoPolicy() Verdict {
	return Verdict{AutoApprove: false, Reason: ReasonNoPolicy}
}

// Evaluate applies the policy's rules to the appointment. The first matching
// rule decides:
//
//  1. Emergency override - urgent job and the policy auto-approves emergencies.
//  2. Vacation relax-mode - the proposed start falls inside the vacation
//     window (inclusive of both end dates).
//  3. Trusted contractor.
//  4. Require-review cost ceiling. A trusted contractor above the ceiling
//     still auto-approves because rule 3 runs first; that ordering mirrors
//     the platform's observed behavior and is kept deliberately.
//  5. Auto-approve cost floor.
//  6. Time windows - weekday/weekend before 17:00, evenings from 17:00.
//  7. Default: require review.
//
// An inactive policy fails closed exactly like a missing one.
func Evaluate(p Policy, appt Appointment) Verdict {
	if !p.IsActive {
		return NoPolicy()
	}

	if appt.IsUrgent && p.AutoApproveEmergencies {
		return Verdict{AutoApprove: true, Reason: ReasonEmergency}
	}

	if p.BlockVacationDates && inVacationWindow(p, appt.ProposedStart) {
		return Verdict{AutoApprove: true, Reason: ReasonVacation}
	}

	if p.IsTrusted(appt.ContractorID) {
		return Verdict{AutoApprove: true, Reason: ReasonTrusted}
	}

	if p.RequireApprovalOverCents != nil && appt.EstimatedCostCents > *p.RequireApprovalOverCents {
		return Verdict{AutoApprove: false, Reason: ReasonCostExceeds}
	}

	if p.AutoApproveCostLimitCents != nil && appt.EstimatedCostCents < *p.AutoApproveCostLimitCents {
		return Verdict{AutoApprove: true, Reason: ReasonUnderLimit}
	}

	if ok, reason := windowVerdict(p, appt.ProposedStart); ok {
		return Verdict{AutoApprove: true, Reason: reason}
	}

	return Verdict{AutoApprove: false, Reason: ReasonNoRule}
}

// inVacationWindow reports whether the start date falls within the policy's
// vacation window, comparing calendar dates so a booking at any hour of the
// final vacation day still counts as inside.
func inVacationWindow(p Policy, start time.Time) bool {
	if p.VacationStart == nil || p.VacationEnd == nil {
		return false
	}
	day := dateOf(start)
	return !day.Before(dateOf(*p.VacationStart)) && !day.After(dateOf(*p.VacationEnd))
}

// windowVerdict classifies the proposed start and checks the matching policy
// flag. From 17:00 the evenings flag governs regardless of weekday; before
// that the weekday/weekend split applies.
func windowVerdict(p Policy, start time.Time) (bool, string) {
	if start.Hour() >= eveningHour {
		return p.AutoApproveEvenings, ReasonEveningWindow
	}
	switch start.Weekday() {
	case time.Saturday, time.Sunday:
		return p.AutoApproveWeekends, ReasonWeekendWindow
	default:
		return p.AutoApproveWeekdays, ReasonWeekdayWindow
	}
}

// dateOf truncates a timestamp to its calendar date in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
