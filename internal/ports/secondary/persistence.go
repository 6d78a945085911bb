// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a requested row does not
// exist. Adapters wrap it with the entity and id.
var ErrNotFound = errors.New("not found")

// JobRepository defines the secondary port for maintenance job persistence.
type JobRepository interface {
	// Create persists a new job.
	Create(ctx context.Context, job *JobRecord) error

	// GetByID retrieves a job by its ID.
	GetByID(ctx context.Context, id string) (*JobRecord, error)

	// List retrieves jobs matching the given filters.
	List(ctx context.Context, filters JobFilters) ([]*JobRecord, error)

	// UpdateStatus updates the lifecycle status of a job.
	UpdateStatus(ctx context.Context, id, status string) error

	// Claim atomically assigns an unassigned job to a contractor and
	// moves it to the given status in one conditional statement guarded
	// by assigned_contractor_id IS NULL. Returns false when the guard
	// matched no row, i.e. another contractor won the race.
	Claim(ctx context.Context, jobID, contractorID, status string, now time.Time) (bool, error)
}

// JobRecord represents a maintenance job as stored in persistence.
type JobRecord struct {
	ID                   string
	OrgID                string // Empty string means null (org-less legacy job)
	AssignedContractorID string // Empty string means null (unassigned)
	Title                string
	Description          string
	Category             string
	Priority             string
	Status               string
	IsUrgent             bool
	RestrictToFavorites  bool
	PostedAt             time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// JobFilters contains filter options for querying jobs.
type JobFilters struct {
	OrgID        string
	Status       string
	ContractorID string // jobs assigned to this contractor
	Unassigned   bool   // only jobs with no assigned contractor
	Limit        int
}

// OrgLinkRepository defines the secondary port for contractor/organization
// relationship persistence. At most one row exists per (contractor, org)
// pair; Upsert enforces that.
type OrgLinkRepository interface {
	// Get retrieves the link for a (contractor, org) pair.
	Get(ctx context.Context, contractorID, orgID string) (*OrgLinkRecord, error)

	// HasActiveLink reports whether an active link exists for the pair.
	HasActiveLink(ctx context.Context, contractorID, orgID string) (bool, error)

	// Upsert creates an active link for the pair or refreshes the
	// existing one (status active, last_job_at updated).
	Upsert(ctx context.Context, contractorID, orgID string, lastJobAt time.Time) error

	// ListForContractor retrieves all links held by a contractor.
	ListForContractor(ctx context.Context, contractorID string) ([]*OrgLinkRecord, error)

	// DeactivateIdleSince marks active links with no job activity since
	// the cutoff as inactive, returning how many rows changed.
	DeactivateIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrgLinkRecord represents a contractor/organization relationship as stored
// in persistence.
type OrgLinkRecord struct {
	ID           string
	ContractorID string
	OrgID        string
	Status       string // active, inactive
	LastJobAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FavoriteRepository defines the secondary port for favorite-contractor
// persistence.
type FavoriteRepository interface {
	// IsFavorite reports whether the organization marked the contractor
	// as a favorite.
	IsFavorite(ctx context.Context, orgID, contractorID string) (bool, error)

	// Add marks a contractor as a favorite of the organization.
	Add(ctx context.Context, orgID, contractorID string) error

	// Remove clears the favorite mark.
	Remove(ctx context.Context, orgID, contractorID string) error

	// ListForOrg retrieves the organization's favorite contractors.
	ListForOrg(ctx context.Context, orgID string) ([]*FavoriteRecord, error)
}

// FavoriteRecord represents a favorite-contractor mark as stored in
// persistence.
type FavoriteRecord struct {
	ID           string
	OrgID        string
	ContractorID string
	CreatedAt    time.Time
}

// ProfileRepository defines the secondary port for contractor profile
// persistence.
type ProfileRepository interface {
	// GetByContractor retrieves the profile for a contractor.
	GetByContractor(ctx context.Context, contractorID string) (*ProfileRecord, error)

	// Upsert creates or replaces the profile for a contractor.
	Upsert(ctx context.Context, profile *ProfileRecord) error

	// SetAvailable flips the availability toggle on a profile.
	SetAvailable(ctx context.Context, contractorID string, available bool) error
}

// ProfileRecord represents a contractor profile as stored in persistence.
type ProfileRecord struct {
	ID           string
	ContractorID string
	Available    bool
	Specialties  string // comma-separated, informational only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PolicyRepository defines the secondary port for approval policy
// persistence. Policies are read-only from the engine's perspective
// except for activation, which enforces at most one active policy per
// organization.
type PolicyRepository interface {
	// GetActiveByOrg retrieves the active policy for an organization,
	// newest first when legacy data still holds several.
	GetActiveByOrg(ctx context.Context, orgID string) (*PolicyRecord, error)

	// ListByOrg retrieves all policies of an organization.
	ListByOrg(ctx context.Context, orgID string) ([]*PolicyRecord, error)

	// Create persists a new policy.
	Create(ctx context.Context, policy *PolicyRecord) error

	// Activate marks the policy active and deactivates every other
	// policy of the same organization in the same transaction.
	Activate(ctx context.Context, id string) error
}

// PolicyRecord represents an approval policy as stored in persistence.
type PolicyRecord struct {
	ID                        string
	OrgID                     string
	IsActive                  bool
	TrustedContractorIDs      string // JSON array of contractor IDs
	AutoApproveWeekdays       bool
	AutoApproveWeekends       bool
	AutoApproveEvenings       bool
	AutoApproveCostLimitCents *int64
	RequireApprovalOverCents  *int64
	AutoApproveEmergencies    bool
	BlockVacationDates        bool
	VacationStart             *time.Time
	VacationEnd               *time.Time
	InvolvementMode           string // hands-off, balanced, hands-on
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ProposalRepository defines the secondary port for appointment proposal
// persistence. Slots live and die with their parent proposal.
type ProposalRepository interface {
	// Create persists a proposal and its slots in one transaction.
	Create(ctx context.Context, proposal *ProposalRecord, slots []*SlotRecord) error

	// GetByID retrieves a proposal by its ID.
	GetByID(ctx context.Context, id string) (*ProposalRecord, error)

	// GetSlots retrieves the slots of a proposal ordered by start time.
	GetSlots(ctx context.Context, proposalID string) ([]*SlotRecord, error)

	// ListByJob retrieves proposals for a job, newest first.
	ListByJob(ctx context.Context, jobID string) ([]*ProposalRecord, error)

	// ListByContractor retrieves proposals made by a contractor, newest
	// first.
	ListByContractor(ctx context.Context, contractorID string) ([]*ProposalRecord, error)

	// FinalizeSelection applies a slot selection in one transaction:
	// proposal status, selected slot reference and auto-approval result
	// on the parent, and the given status for every slot. A concurrent
	// reader never observes two Selected slots.
	FinalizeSelection(ctx context.Context, proposalID, selectedSlotID string, slotStatuses map[string]string, autoApproved bool, approvalReason string) error

	// Decline marks the proposal and all its slots declined in one
	// transaction, recording the reason.
	Decline(ctx context.Context, proposalID, reason string) error

	// MarkCountered marks a proposal countered; the follow-up proposal
	// row is created separately.
	MarkCountered(ctx context.Context, id string) error

	// ExpirePending flushes lazy expiry to storage: every pending
	// proposal whose deadline is at or before now becomes expired.
	// Returns how many rows changed.
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

// ProposalRecord represents an appointment proposal as stored in
// persistence.
type ProposalRecord struct {
	ID                 string
	JobID              string
	ContractorID       string
	Status             string // pending, accepted, declined, countered, expired
	EstimatedCostCents int64
	Notes              string
	ExpiresAt          time.Time
	SelectedSlotID     string // Empty string means null
	AutoApproved       bool
	AutoApprovalReason string
	DeclineReason      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SlotRecord represents one candidate window of a proposal as stored in
// persistence.
type SlotRecord struct {
	ID                   string
	ProposalID           string
	StartsAt             time.Time
	EndsAt               time.Time
	Status               string // Pending, Selected, Declined
	IsAvailableForTenant bool
	ConflictReason       string
	CreatedAt            time.Time
}

// AppointmentRepository defines the secondary port for appointment
// persistence.
type AppointmentRepository interface {
	// Create persists a new appointment.
	Create(ctx context.Context, appt *AppointmentRecord) error

	// GetByID retrieves an appointment by its ID.
	GetByID(ctx context.Context, id string) (*AppointmentRecord, error)

	// ListByJob retrieves appointments for a job, newest first.
	ListByJob(ctx context.Context, jobID string) ([]*AppointmentRecord, error)

	// SetTenantApproved records the outcome of an owner review.
	SetTenantApproved(ctx context.Context, id string, approved bool, reason string) error
}

// AppointmentRecord represents a booked (or review-pending) appointment
// as stored in persistence.
type AppointmentRecord struct {
	ID                 string
	JobID              string
	ContractorID       string
	ProposalID         string // Empty string means null (direct booking)
	StartsAt           time.Time
	EndsAt             time.Time
	EstimatedCostCents int64
	TenantApproved     bool
	ApprovalReason     string
	CreatedAt          time.Time
}

// ScheduleRepository defines the secondary port for calendar entry
// persistence.
type ScheduleRepository interface {
	// Create persists a new calendar entry.
	Create(ctx context.Context, entry *ScheduleRecord) error

	// GetByID retrieves a calendar entry by its ID.
	GetByID(ctx context.Context, id string) (*ScheduleRecord, error)

	// GetByJob retrieves the calendar entry for a job.
	GetByJob(ctx context.Context, jobID string) (*ScheduleRecord, error)

	// ListByTeam retrieves all calendar entries of a team. Day
	// attribution happens in memory through the placement rules, not in
	// SQL.
	ListByTeam(ctx context.Context, teamID string) ([]*ScheduleRecord, error)

	// UpdatePlacement stores a new interval together with the status and
	// confirmation reset every move applies.
	UpdatePlacement(ctx context.Context, id string, start, end time.Time, status string, tenantConfirmed bool) error

	// ClearPlacement removes the interval (start/end become null) and
	// stores the given status.
	ClearPlacement(ctx context.Context, id, status string) error

	// SetConfirmation stores a tenant confirmation outcome.
	SetConfirmation(ctx context.Context, id, status string, tenantConfirmed bool) error

	// SetTimePreference stores the structured start preference.
	SetTimePreference(ctx context.Context, id string, startMinute, durationMinutes int) error
}

// ScheduleRecord represents a calendar entry as stored in persistence.
type ScheduleRecord struct {
	ID                  string
	JobID               string
	TeamID              string
	StartsAt            *time.Time // nil means unscheduled
	EndsAt              *time.Time
	IsAllDay            bool
	DurationDays        int
	Status              string
	TenantConfirmed     bool
	PrefStartMinute     *int
	PrefDurationMinutes *int
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AvailabilityRepository defines the secondary port for contractor
// availability and blackout persistence.
type AvailabilityRepository interface {
	// ListWindows retrieves a contractor's recurring weekly windows.
	ListWindows(ctx context.Context, contractorID string) ([]*AvailabilityRecord, error)

	// AddWindow persists a recurring weekly window.
	AddWindow(ctx context.Context, window *AvailabilityRecord) error

	// RemoveWindow deletes a recurring weekly window.
	RemoveWindow(ctx context.Context, id string) error

	// ListBlackouts retrieves a contractor's blackout ranges.
	ListBlackouts(ctx context.Context, contractorID string) ([]*BlackoutRecord, error)

	// AddBlackout persists a blackout range.
	AddBlackout(ctx context.Context, blackout *BlackoutRecord) error

	// RemoveBlackout deletes a blackout range.
	RemoveBlackout(ctx context.Context, id string) error
}

// AvailabilityRecord represents one recurring weekly working window as
// stored in persistence.
type AvailabilityRecord struct {
	ID           string
	ContractorID string
	Weekday      int // 0 = Sunday .. 6 = Saturday
	StartMinute  int
	EndMinute    int
}

// BlackoutRecord represents a one-off unavailable date range as stored
// in persistence. Both end dates are inclusive.
type BlackoutRecord struct {
	ID           string
	ContractorID string
	StartsOn     time.Time
	EndsOn       time.Time
	Reason       string
}
