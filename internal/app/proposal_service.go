package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/upkeep/internal/core/approval"
	"github.com/example/upkeep/internal/core/proposal"
	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

// ProposalServiceImpl implements the ProposalService interface.
type ProposalServiceImpl struct {
	proposalRepo secondary.ProposalRepository
	jobRepo      secondary.JobRepository
	policyRepo   secondary.PolicyRepository
	apptRepo     secondary.AppointmentRepository
	availRepo    secondary.AvailabilityRepository
	notifier     secondary.Notifier
	audit        secondary.AuditWriter
	logger       *log.Logger
}

// NewProposalService creates a new ProposalService with injected
// dependencies.
func NewProposalService(
	proposalRepo secondary.ProposalRepository,
	jobRepo secondary.JobRepository,
	policyRepo secondary.PolicyRepository,
	apptRepo secondary.AppointmentRepository,
	availRepo secondary.AvailabilityRepository,
	notifier secondary.Notifier,
	audit secondary.AuditWriter,
	logger *log.Logger,
) *ProposalServiceImpl {
	return &ProposalServiceImpl{
		proposalRepo: proposalRepo,
		jobRepo:      jobRepo,
		policyRepo:   policyRepo,
		apptRepo:     apptRepo,
		availRepo:    availRepo,
		notifier:     notifier,
		audit:        audit,
		logger:       logger.WithPrefix("proposal"),
	}
}

// CreateProposal offers 1-3 candidate windows for a job. Windows that
// clash with the contractor's own calendar are flagged per slot and
// stay visible to the tenant; a conflict never aborts creation.
func (s *ProposalServiceImpl) CreateProposal(ctx context.Context, req primary.CreateProposalRequest) (*primary.Proposal, error) {
	jobRec, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if jobRec.AssignedContractorID != "" && jobRec.AssignedContractorID != req.ContractorID {
		return nil, fmt.Errorf("job %s is assigned to another contractor", req.JobID)
	}

	windows := make([]proposal.SlotWindow, len(req.Slots))
	for i, sl := range req.Slots {
		windows[i] = proposal.SlotWindow{StartsAt: sl.StartsAt, EndsAt: sl.EndsAt}
	}
	if err := proposal.ValidateSlots(windows).Error(); err != nil {
		return nil, err
	}

	conflicts, err := s.classifySlots(ctx, req.ContractorID, windows)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &secondary.ProposalRecord{
		ID:                 uuid.NewString(),
		JobID:              req.JobID,
		ContractorID:       req.ContractorID,
		Status:             string(proposal.StatusPending),
		EstimatedCostCents: req.EstimatedCostCents,
		Notes:              req.Notes,
		ExpiresAt:          proposal.ExpiresAt(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	slotRecs := make([]*secondary.SlotRecord, len(windows))
	for i, w := range windows {
		slotRecs[i] = &secondary.SlotRecord{
			ID:                   uuid.NewString(),
			ProposalID:           rec.ID,
			StartsAt:             w.StartsAt,
			EndsAt:               w.EndsAt,
			Status:               string(proposal.SlotPending),
			IsAvailableForTenant: !conflicts[i].Conflicts,
			ConflictReason:       conflicts[i].Reason,
			CreatedAt:            now,
		}
	}

	if err := s.proposalRepo.Create(ctx, rec, slotRecs); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	if err := s.audit.LogCreate(ctx, "proposal", rec.ID); err != nil {
		s.logger.Warn("audit write failed", "proposal", rec.ID, "err", err)
	}

	if jobRec.OrgID != "" {
		err := s.notifier.Notify(ctx, jobRec.OrgID, "a contractor proposed appointment times", map[string]string{
			"event":       "proposal.created",
			"proposal_id": rec.ID,
			"job_id":      rec.JobID,
		})
		if err != nil {
			s.logger.Warn("proposal notification failed", "proposal", rec.ID, "err", err)
		}
	}

	return mapProposal(rec, slotRecs, now), nil
}

// GetProposal retrieves a proposal with its slots. Lazy expiry is
// applied at read time: a pending proposal past its deadline reads as
// expired without any background job having touched it.
func (s *ProposalServiceImpl) GetProposal(ctx context.Context, proposalID string) (*primary.Proposal, error) {
	rec, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	slots, err := s.proposalRepo.GetSlots(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}
	return mapProposal(rec, slots, time.Now().UTC()), nil
}

// ListByJob retrieves the proposals for a job, newest first, with lazy
// expiry applied.
func (s *ProposalServiceImpl) ListByJob(ctx context.Context, jobID string) ([]*primary.Proposal, error) {
	records, err := s.proposalRepo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	now := time.Now().UTC()
	proposals := make([]*primary.Proposal, len(records))
	for i, rec := range records {
		slots, err := s.proposalRepo.GetSlots(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load slots: %w", err)
		}
		proposals[i] = mapProposal(rec, slots, now)
	}
	return proposals, nil
}

// SelectSlot accepts one candidate window on behalf of the tenant. The
// chosen slot and its siblings change in one transaction, the active
// policy is evaluated, and an appointment is created carrying the
// verdict. The proposal itself becomes accepted either way; the verdict
// decides the appointment's approval flag, not the proposal status.
func (s *ProposalServiceImpl) SelectSlot(ctx context.Context, req primary.SelectSlotRequest) (*primary.SelectSlotResult, error) {
	rec, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if d := s.canModify(rec, now); !d.OK {
		return &primary.SelectSlotResult{
			Selected: false,
			Reason:   d.Reason,
			Expired:  d.Reason == proposal.ReasonExpired,
		}, nil
	}

	slots, err := s.proposalRepo.GetSlots(ctx, req.ProposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots: %w", err)
	}

	var chosen *secondary.SlotRecord
	slotIDs := make([]string, len(slots))
	for i, sl := range slots {
		slotIDs[i] = sl.ID
		if sl.ID == req.SlotID {
			chosen = sl
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("slot %s in proposal %s: %w", req.SlotID, req.ProposalID, secondary.ErrNotFound)
	}

	jobRec, err := s.jobRepo.GetByID(ctx, rec.JobID)
	if err != nil {
		return nil, err
	}

	verdict := approval.NoPolicy()
	if jobRec.OrgID != "" {
		pol, found, err := loadActivePolicy(ctx, s.policyRepo, jobRec.OrgID)
		if err != nil {
			return nil, err
		}
		if found {
			verdict = approval.Evaluate(pol, approval.Appointment{
				ContractorID:       rec.ContractorID,
				ProposedStart:      chosen.StartsAt,
				EstimatedCostCents: rec.EstimatedCostCents,
				IsUrgent:           jobRec.IsUrgent,
			})
		}
	}

	statuses := map[string]string{}
	for id, st := range proposal.ApplySelection(slotIDs, chosen.ID) {
		statuses[id] = string(st)
	}

	if err := s.proposalRepo.FinalizeSelection(ctx, rec.ID, chosen.ID, statuses, verdict.AutoApprove, verdict.Reason); err != nil {
		return nil, fmt.Errorf("failed to finalize selection: %w", err)
	}

	apptRec := &secondary.AppointmentRecord{
		ID:                 uuid.NewString(),
		JobID:              rec.JobID,
		ContractorID:       rec.ContractorID,
		ProposalID:         rec.ID,
		StartsAt:           chosen.StartsAt,
		EndsAt:             chosen.EndsAt,
		EstimatedCostCents: rec.EstimatedCostCents,
		TenantApproved:     verdict.AutoApprove,
		ApprovalReason:     verdict.Reason,
		CreatedAt:          now,
	}
	if err := s.apptRepo.Create(ctx, apptRec); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := s.audit.LogUpdate(ctx, "proposal", rec.ID, "status", string(proposal.StatusPending), string(proposal.StatusAccepted)); err != nil {
		s.logger.Warn("audit write failed", "proposal", rec.ID, "err", err)
	}

	// The review notification is best-effort: the selection already
	// happened and must not fail because dispatch did.
	if !verdict.AutoApprove && jobRec.OrgID != "" {
		err := s.notifier.Notify(ctx, jobRec.OrgID, "an appointment needs your review", map[string]string{
			"event":          "appointment.review",
			"appointment_id": apptRec.ID,
			"job_id":         rec.JobID,
			"reason":         verdict.Reason,
		})
		if err != nil {
			s.logger.Warn("review notification failed", "appointment", apptRec.ID, "err", err)
		}
	}

	return &primary.SelectSlotResult{
		Selected:       true,
		AutoApproved:   verdict.AutoApprove,
		ApprovalReason: verdict.Reason,
		Appointment:    mapAppointment(apptRec),
	}, nil
}

// DeclineAll declines the proposal and every slot, recording the
// tenant's reason.
func (s *ProposalServiceImpl) DeclineAll(ctx context.Context, proposalID, reason string) (*primary.DeclineResult, error) {
	rec, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if d := s.canModify(rec, time.Now().UTC()); !d.OK {
		return &primary.DeclineResult{
			Declined: false,
			Reason:   d.Reason,
			Expired:  d.Reason == proposal.ReasonExpired,
		}, nil
	}

	if err := s.proposalRepo.Decline(ctx, proposalID, reason); err != nil {
		return nil, fmt.Errorf("failed to decline proposal: %w", err)
	}

	if err := s.audit.LogUpdate(ctx, "proposal", proposalID, "status", string(proposal.StatusPending), string(proposal.StatusDeclined)); err != nil {
		s.logger.Warn("audit write failed", "proposal", proposalID, "err", err)
	}

	err = s.notifier.Notify(ctx, rec.ContractorID, "your appointment proposal was declined", map[string]string{
		"event":       "proposal.declined",
		"proposal_id": proposalID,
		"reason":      reason,
	})
	if err != nil {
		s.logger.Warn("decline notification failed", "proposal", proposalID, "err", err)
	}

	return &primary.DeclineResult{Declined: true}, nil
}

// Counter supersedes a pending proposal with a fresh one carrying new
// windows, the same job, contractor and cost, and a fresh 48-hour
// deadline. The original row is marked countered and never re-opens.
func (s *ProposalServiceImpl) Counter(ctx context.Context, req primary.CounterRequest) (*primary.CounterResult, error) {
	rec, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if d := s.canModify(rec, now); !d.OK {
		return &primary.CounterResult{
			Countered: false,
			Reason:    d.Reason,
			Expired:   d.Reason == proposal.ReasonExpired,
		}, nil
	}

	windows := make([]proposal.SlotWindow, len(req.Slots))
	for i, sl := range req.Slots {
		windows[i] = proposal.SlotWindow{StartsAt: sl.StartsAt, EndsAt: sl.EndsAt}
	}
	if err := proposal.ValidateSlots(windows).Error(); err != nil {
		return nil, err
	}

	conflicts, err := s.classifySlots(ctx, rec.ContractorID, windows)
	if err != nil {
		return nil, err
	}

	if err := s.proposalRepo.MarkCountered(ctx, rec.ID); err != nil {
		return nil, fmt.Errorf("failed to mark proposal countered: %w", err)
	}

	fresh := &secondary.ProposalRecord{
		ID:                 uuid.NewString(),
		JobID:              rec.JobID,
		ContractorID:       rec.ContractorID,
		Status:             string(proposal.StatusPending),
		EstimatedCostCents: rec.EstimatedCostCents,
		Notes:              req.Notes,
		ExpiresAt:          proposal.ExpiresAt(now),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	slotRecs := make([]*secondary.SlotRecord, len(windows))
	for i, w := range windows {
		slotRecs[i] = &secondary.SlotRecord{
			ID:                   uuid.NewString(),
			ProposalID:           fresh.ID,
			StartsAt:             w.StartsAt,
			EndsAt:               w.EndsAt,
			Status:               string(proposal.SlotPending),
			IsAvailableForTenant: !conflicts[i].Conflicts,
			ConflictReason:       conflicts[i].Reason,
			CreatedAt:            now,
		}
	}

	if err := s.proposalRepo.Create(ctx, fresh, slotRecs); err != nil {
		return nil, fmt.Errorf("failed to create counter proposal: %w", err)
	}

	if err := s.audit.LogUpdate(ctx, "proposal", rec.ID, "status", string(proposal.StatusPending), string(proposal.StatusCountered)); err != nil {
		s.logger.Warn("audit write failed", "proposal", rec.ID, "err", err)
	}

	err = s.notifier.Notify(ctx, rec.ContractorID, "the tenant countered with new appointment times", map[string]string{
		"event":       "proposal.countered",
		"proposal_id": fresh.ID,
		"supersedes":  rec.ID,
	})
	if err != nil {
		s.logger.Warn("counter notification failed", "proposal", fresh.ID, "err", err)
	}

	return &primary.CounterResult{
		Countered: true,
		Proposal:  mapProposal(fresh, slotRecs, now),
	}, nil
}

// ExpireDue flushes lazily-expired proposals to storage. Correctness
// never depends on this running; reads derive expiry from the deadline
// on their own.
func (s *ProposalServiceImpl) ExpireDue(ctx context.Context) (int64, error) {
	n, err := s.proposalRepo.ExpirePending(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to expire proposals: %w", err)
	}
	if n > 0 {
		s.logger.Debug("flushed expired proposals", "count", n)
	}
	return n, nil
}

// canModify gates tenant writes against the proposal's status and
// deadline.
func (s *ProposalServiceImpl) canModify(rec *secondary.ProposalRecord, now time.Time) proposal.Decision {
	return proposal.CanModify(proposal.WriteContext{
		Status:    proposal.Status(rec.Status),
		ExpiresAt: rec.ExpiresAt,
		Now:       now,
	})
}

// classifySlots checks candidate windows against the contractor's
// recurring availability and blackout ranges.
func (s *ProposalServiceImpl) classifySlots(ctx context.Context, contractorID string, windows []proposal.SlotWindow) ([]proposal.SlotConflict, error) {
	availRecs, err := s.availRepo.ListWindows(ctx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability: %w", err)
	}
	blackoutRecs, err := s.availRepo.ListBlackouts(ctx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blackouts: %w", err)
	}

	avail := make([]proposal.AvailabilityWindow, len(availRecs))
	for i, a := range availRecs {
		avail[i] = proposal.AvailabilityWindow{
			Weekday:     time.Weekday(a.Weekday),
			StartMinute: a.StartMinute,
			EndMinute:   a.EndMinute,
		}
	}
	blackouts := make([]proposal.Blackout, len(blackoutRecs))
	for i, b := range blackoutRecs {
		blackouts[i] = proposal.Blackout{
			StartsOn: b.StartsOn,
			EndsOn:   b.EndsOn,
			Reason:   b.Reason,
		}
	}

	return proposal.ClassifySlots(windows, avail, blackouts), nil
}

// mapProposal converts records into the port representation, applying
// lazy expiry to the presented status.
func mapProposal(rec *secondary.ProposalRecord, slots []*secondary.SlotRecord, now time.Time) *primary.Proposal {
	p := &primary.Proposal{
		ID:                 rec.ID,
		JobID:              rec.JobID,
		ContractorID:       rec.ContractorID,
		Status:             string(proposal.EffectiveStatus(proposal.Status(rec.Status), rec.ExpiresAt, now)),
		EstimatedCostCents: rec.EstimatedCostCents,
		Notes:              rec.Notes,
		ExpiresAt:          rec.ExpiresAt,
		SelectedSlotID:     rec.SelectedSlotID,
		AutoApproved:       rec.AutoApproved,
		AutoApprovalReason: rec.AutoApprovalReason,
		DeclineReason:      rec.DeclineReason,
		CreatedAt:          rec.CreatedAt,
	}

	p.Slots = make([]*primary.ProposalSlot, len(slots))
	for i, sl := range slots {
		p.Slots[i] = &primary.ProposalSlot{
			ID:                   sl.ID,
			StartsAt:             sl.StartsAt,
			EndsAt:               sl.EndsAt,
			Status:               sl.Status,
			IsAvailableForTenant: sl.IsAvailableForTenant,
			ConflictReason:       sl.ConflictReason,
		}
	}

	return p
}

func mapAppointment(rec *secondary.AppointmentRecord) *primary.Appointment {
	return &primary.Appointment{
		ID:                 rec.ID,
		JobID:              rec.JobID,
		ContractorID:       rec.ContractorID,
		ProposalID:         rec.ProposalID,
		StartsAt:           rec.StartsAt,
		EndsAt:             rec.EndsAt,
		EstimatedCostCents: rec.EstimatedCostCents,
		TenantApproved:     rec.TenantApproved,
		ApprovalReason:     rec.ApprovalReason,
		CreatedAt:          rec.CreatedAt,
	}
}

var _ primary.ProposalService = (*ProposalServiceImpl)(nil)
