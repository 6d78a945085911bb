// Package approval contains the pure decision logic for appointment
// auto-approval. An organization's policy is fetched by the caller and passed
// in explicitly; the evaluator never touches a store.
package approval

import "time"

// InvolvementMode describes how hands-on an owner wants to be. It only seeds
// policy defaults in the owner UI; the evaluator never branches on it.
type InvolvementMode string

const (
	ModeHandsOff InvolvementMode = "hands-off"
	ModeBalanced InvolvementMode = "balanced"
	ModeHandsOn  InvolvementMode = "hands-on"
)

// Policy is one organization's auto-approval rule set.
type Policy struct {
	ID    string
	OrgID string

	IsActive bool

	TrustedContractorIDs []string

	AutoApproveWeekdays bool
	AutoApproveWeekends bool
	AutoApproveEvenings bool

	// Cost thresholds in cents. Nil means the threshold is not set.
	AutoApproveCostLimitCents *int64
	RequireApprovalOverCents  *int64

	AutoApproveEmergencies bool

	// Vacation window. Despite the field name, an active vacation window
	// relaxes approval ("approve everything while I'm away"), it does not
	// block bookings.
	BlockVacationDates bool
	VacationStart      *time.Time
	VacationEnd        *time.Time

	InvolvementMode InvolvementMode

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTrusted reports whether the contractor appears in the policy's trusted
// list.
func (p Policy) IsTrusted(contractorID string) bool {
	for _, id := range p.TrustedContractorIDs {
		if id == contractorID {
			return true
		}
	}
	return false
}

// ActivePolicy selects the policy to evaluate from an organization's policy
// set. The data model permits several rows per org; the newest active one
// wins. Returns false when no active policy exists, in which case every
// appointment requires review (fail closed).
func ActivePolicy(policies []Policy) (Policy, bool) {
	var (
		best  Policy
		found bool
	)
	for _, p := range policies {
		if !p.IsActive {
			continue
		}
		if !found || p.UpdatedAt.After(best.UpdatedAt) {
			best = p
			found = true
		}
	}
	return best, found
}

// ParseMode converts a raw string to an InvolvementMode, returning false for
// unknown values.
func ParseMode(s string) (InvolvementMode, bool) {
	m := InvolvementMode(s)
	switch m {
	case ModeHandsOff, ModeBalanced, ModeHandsOn:
		return m, true
	}
	return "", false
}

// ModeDefaults returns the policy field seed for an involvement mode. This is
// the one place the mode matters: it fills in a starting rule set, after which
// the owner edits fields directly and the mode stays a label.
func ModeDefaults(mode InvolvementMode) Policy {
	p := Policy{InvolvementMode: mode}

	switch mode {
	case ModeHandsOff:
		p.AutoApproveWeekdays = true
		p.AutoApproveWeekends = true
		p.AutoApproveEvenings = true
		p.AutoApproveEmergencies = true
		limit := int64(100_000) // $1000
		p.AutoApproveCostLimitCents = &limit
	case ModeBalanced:
		p.AutoApproveWeekdays = true
		p.AutoApproveEmergencies = true
		limit := int64(30_000) // $300
		p.AutoApproveCostLimitCents = &limit
		over := int64(100_000)
		p.RequireApprovalOverCents = &over
	case ModeHandsOn:
		over := int64(0)
		p.RequireApprovalOverCents = &over
	}

	return p
}
