package primary

import (
	"context"
	"time"
)

// ProposalService defines the primary port for appointment proposal
// negotiation between contractor and tenant.
type ProposalService interface {
	// CreateProposal offers 1-3 candidate windows for a job. Windows
	// clashing with the contractor's own calendar are flagged, not
	// rejected. The proposal expires 48 hours after creation.
	CreateProposal(ctx context.Context, req CreateProposalRequest) (*Proposal, error)

	// GetProposal retrieves a proposal with its slots. A pending
	// proposal past its deadline reads as expired.
	GetProposal(ctx context.Context, proposalID string) (*Proposal, error)

	// ListByJob retrieves the proposals for a job, newest first, with
	// lazy expiry applied.
	ListByJob(ctx context.Context, jobID string) ([]*Proposal, error)

	// SelectSlot accepts one candidate window on behalf of the tenant:
	// the chosen slot is selected, siblings declined, the policy
	// evaluated and an appointment created. Expiry and other business
	// failures come back in the result, not as an error.
	SelectSlot(ctx context.Context, req SelectSlotRequest) (*SelectSlotResult, error)

	// DeclineAll declines the proposal and every slot, recording the
	// tenant's reason.
	DeclineAll(ctx context.Context, proposalID, reason string) (*DeclineResult, error)

	// Counter supersedes a pending proposal with a fresh one carrying
	// new windows and a fresh 48-hour deadline.
	Counter(ctx context.Context, req CounterRequest) (*CounterResult, error)

	// ExpireDue flushes lazily-expired proposals to storage. Reads are
	// correct without it; this only keeps stored rows tidy.
	ExpireDue(ctx context.Context) (int64, error)
}

// CreateProposalRequest contains parameters for offering appointment
// windows.
type CreateProposalRequest struct {
	JobID              string
	ContractorID       string
	Slots              []SlotRequest // 1-3 windows
	EstimatedCostCents int64
	Notes              string
}

// SlotRequest is one candidate window in a proposal request.
type SlotRequest struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// SelectSlotRequest contains parameters for the tenant's slot choice.
type SelectSlotRequest struct {
	ProposalID string
	SlotID     string
}

// SelectSlotResult contains the outcome of a slot selection.
type SelectSlotResult struct {
	Selected       bool
	Reason         string // populated when not selected
	Expired        bool   // the failure was the expiry outcome
	AutoApproved   bool
	ApprovalReason string
	Appointment    *Appointment // created appointment, set on success
}

// DeclineResult contains the outcome of declining a proposal.
type DeclineResult struct {
	Declined bool
	Reason   string // populated when not declined
	Expired  bool
}

// CounterRequest contains parameters for countering a proposal with new
// windows. Cost and contractor carry over from the original.
type CounterRequest struct {
	ProposalID string
	Slots      []SlotRequest // 1-3 windows
	Notes      string
}

// CounterResult contains the outcome of a counter.
type CounterResult struct {
	Countered bool
	Reason    string // populated when not countered
	Expired   bool
	Proposal  *Proposal // the fresh pending proposal, set on success
}

// Proposal represents an appointment proposal at the port boundary.
// Status already reflects lazy expiry.
type Proposal struct {
	ID                 string
	JobID              string
	ContractorID       string
	Status             string
	EstimatedCostCents int64
	Notes              string
	ExpiresAt          time.Time
	SelectedSlotID     string
	AutoApproved       bool
	AutoApprovalReason string
	DeclineReason      string
	CreatedAt          time.Time
	Slots              []*ProposalSlot
}

// ProposalSlot represents one candidate window at the port boundary.
type ProposalSlot struct {
	ID                   string
	StartsAt             time.Time
	EndsAt               time.Time
	Status               string
	IsAvailableForTenant bool
	ConflictReason       string
}

// Appointment represents a booked (or review-pending) appointment at
// the port boundary.
type Appointment struct {
	ID                 string
	JobID              string
	ContractorID       string
	ProposalID         string
	StartsAt           time.Time
	EndsAt             time.Time
	EstimatedCostCents int64
	TenantApproved     bool
	ApprovalReason     string
	CreatedAt          time.Time
}
