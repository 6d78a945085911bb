package primary

import (
	"context"
	"time"
)

// PolicyService defines the primary port for approval policy lookup,
// evaluation and the direct-booking flow that bypasses negotiation.
type PolicyService interface {
	// GetActivePolicy retrieves the organization's active policy.
	GetActivePolicy(ctx context.Context, orgID string) (*Policy, error)

	// ListPolicies retrieves all policies of an organization.
	ListPolicies(ctx context.Context, orgID string) ([]*Policy, error)

	// CreatePolicy persists a new policy, optionally activating it.
	CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*Policy, error)

	// InitPolicy creates a policy seeded from an involvement mode's
	// defaults and optionally activates it.
	InitPolicy(ctx context.Context, orgID, involvementMode string, activate bool) (*Policy, error)

	// ActivatePolicy marks a policy active, deactivating its siblings.
	ActivatePolicy(ctx context.Context, policyID string) error

	// Evaluate runs the organization's active policy against a
	// candidate appointment. A missing or inactive policy fails closed
	// to require-review.
	Evaluate(ctx context.Context, orgID string, check AppointmentCheck) (*Verdict, error)

	// DirectBook creates an appointment without multi-slot negotiation,
	// evaluated against the organization's active policy.
	DirectBook(ctx context.Context, req DirectBookRequest) (*DirectBookResult, error)
}

// AppointmentCheck contains the appointment facts a policy evaluation
// needs. StartsAt should carry the organization's local zone so day and
// hour classification are local.
type AppointmentCheck struct {
	ContractorID       string
	StartsAt           time.Time
	EstimatedCostCents int64
	IsUrgent           bool
}

// Verdict contains the outcome of a policy evaluation.
type Verdict struct {
	AutoApprove bool
	Reason      string
}

// CreatePolicyRequest contains parameters for creating a policy.
type CreatePolicyRequest struct {
	OrgID                     string
	TrustedContractorIDs      []string
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
	Activate                  bool
}

// DirectBookRequest contains parameters for booking without
// negotiation.
type DirectBookRequest struct {
	JobID              string
	ContractorID       string
	StartsAt           time.Time
	EndsAt             time.Time
	EstimatedCostCents int64
}

// DirectBookResult contains the outcome of a direct booking.
type DirectBookResult struct {
	Appointment    *Appointment
	AutoApproved   bool
	ApprovalReason string
}

// Policy represents an approval policy at the port boundary.
type Policy struct {
	ID                        string
	OrgID                     string
	IsActive                  bool
	TrustedContractorIDs      []string
	AutoApproveWeekdays       bool
	AutoApproveWeekends       bool
	AutoApproveEvenings       bool
	AutoApproveCostLimitCents *int64
	RequireApprovalOverCents  *int64
	AutoApproveEmergencies    bool
	BlockVacationDates        bool
	VacationStart             *time.Time
	VacationEnd               *time.Time
	InvolvementMode           string
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}
