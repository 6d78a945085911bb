// Package eligibility contains the pure business rules deciding whether a
// contractor may view or accept a maintenance job. This is part of the
// functional core - no I/O, only pure functions over pre-fetched data.
package eligibility

import "fmt"

// Decision represents the outcome of an eligibility evaluation.
type Decision struct {
	OK     bool
	Reason string // Machine-stable reason (populated when not OK)
}

// Error returns the decision as an error if not OK, nil otherwise.
func (d Decision) Error() error {
	if d.OK {
		return nil
	}
	return fmt.Errorf("%s", d.Reason)
}

// Reason strings are user-facing and part of the engine's contract; callers
// and tests match them verbatim.
const (
	ReasonAlreadyAssigned = "already assigned"
	ReasonNotAvailable    = "contractor not available"
	ReasonNoOrgLink       = "no active relationship with this organization"
	ReasonFavoritesOnly   = "restricted to favorites"
)

// JobFacts describes the job fields that eligibility rules read.
type JobFacts struct {
	OrgID                string // empty for org-less legacy jobs
	AssignedContractorID string // empty means unassigned
	IsUrgent             bool
	RestrictToFavorites  bool
	Category             string // reserved for specialty matching, see CanAccept
}

// ContractorFacts describes the contractor-side inputs, pre-fetched by the
// caller. HasActiveOrgLink and IsFavorite refer to the job's organization.
type ContractorFacts struct {
	ContractorID     string
	HasProfile       bool
	ProfileAvailable bool
	HasActiveOrgLink bool
	IsFavorite       bool
	Specialties      []string // reserved, not evaluated (see below)
}

// IsVisible reports whether the job should appear in the contractor's
// marketplace listing. Visibility deliberately skips the profile-availability
// rule: a contractor whose availability toggle is off can still browse; only
// acceptance requires availability.
func IsVisible(job JobFacts, c ContractorFacts) bool {
	if job.AssignedContractorID != "" {
		return false
	}
	if job.OrgID != "" && !c.HasActiveOrgLink {
		return false
	}
	if job.RestrictToFavorites && !job.IsUrgent && !c.IsFavorite {
		return false
	}
	return true
}

// CanAccept evaluates whether the contractor may accept the job.
// Rules in order, first failure wins:
//  1. Job must be unassigned.
//  2. Contractor must hold a profile marked available.
//  3. Jobs owned by an organization require an active contractor-org link;
//     org-less legacy jobs are open to any eligible contractor.
//  4. Favorites-restricted jobs require the contractor to be a favorite of
//     the organization - unless the job is urgent. Urgency bypasses the
//     favorites gate unconditionally so emergencies are never blocked by a
//     trust setting.
func CanAccept(job JobFacts, c ContractorFacts) Decision {
	if job.AssignedContractorID != "" {
		return Decision{OK: false, Reason: ReasonAlreadyAssigned}
	}

	if !c.HasProfile || !c.ProfileAvailable {
		return Decision{OK: false, Reason: ReasonNotAvailable}
	}

	if job.OrgID != "" && !c.HasActiveOrgLink {
		return Decision{OK: false, Reason: ReasonNoOrgLink}
	}

	if job.RestrictToFavorites && !job.IsUrgent && !c.IsFavorite {
		return Decision{OK: false, Reason: ReasonFavoritesOnly}
	}

	// Specialty matching between c.Specialties and job.Category is
	// intentionally not enforced. The platform records both fields but has
	// never gated acceptance on them; keep this a pass-through until product
	// decides on strict subset matching.

	return Decision{OK: true}
}
