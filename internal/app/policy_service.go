package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/upkeep/internal/core/approval"
	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

// PolicyServiceImpl implements the PolicyService interface.
type PolicyServiceImpl struct {
	policyRepo secondary.PolicyRepository
	jobRepo    secondary.JobRepository
	apptRepo   secondary.AppointmentRepository
	notifier   secondary.Notifier
	audit      secondary.AuditWriter
	logger     *log.Logger
}

// NewPolicyService creates a new PolicyService with injected
// dependencies.
func NewPolicyService(
	policyRepo secondary.PolicyRepository,
	jobRepo secondary.JobRepository,
	apptRepo secondary.AppointmentRepository,
	notifier secondary.Notifier,
	audit secondary.AuditWriter,
	logger *log.Logger,
) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		policyRepo: policyRepo,
		jobRepo:    jobRepo,
		apptRepo:   apptRepo,
		notifier:   notifier,
		audit:      audit,
		logger:     logger.WithPrefix("policy"),
	}
}

// GetActivePolicy retrieves the organization's active policy.
func (s *PolicyServiceImpl) GetActivePolicy(ctx context.Context, orgID string) (*primary.Policy, error) {
	rec, err := s.policyRepo.GetActiveByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return recordToPolicy(rec)
}

// ListPolicies retrieves all policies of an organization, newest first.
func (s *PolicyServiceImpl) ListPolicies(ctx context.Context, orgID string) ([]*primary.Policy, error) {
	records, err := s.policyRepo.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	policies := make([]*primary.Policy, len(records))
	for i, rec := range records {
		p, err := recordToPolicy(rec)
		if err != nil {
			return nil, err
		}
		policies[i] = p
	}
	return policies, nil
}

// CreatePolicy persists a new policy, optionally activating it.
func (s *PolicyServiceImpl) CreatePolicy(ctx context.Context, req primary.CreatePolicyRequest) (*primary.Policy, error) {
	if req.OrgID == "" {
		return nil, fmt.Errorf("organization ID is required")
	}

	mode := approval.ModeBalanced
	if req.InvolvementMode != "" {
		m, ok := approval.ParseMode(req.InvolvementMode)
		if !ok {
			return nil, fmt.Errorf("unknown involvement mode: %s", req.InvolvementMode)
		}
		mode = m
	}

	trusted, err := encodeTrustedIDs(req.TrustedContractorIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &secondary.PolicyRecord{
		ID:                        uuid.NewString(),
		OrgID:                     req.OrgID,
		IsActive:                  false,
		TrustedContractorIDs:      trusted,
		AutoApproveWeekdays:       req.AutoApproveWeekdays,
		AutoApproveWeekends:       req.AutoApproveWeekends,
		AutoApproveEvenings:       req.AutoApproveEvenings,
		AutoApproveCostLimitCents: req.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  req.RequireApprovalOverCents,
		AutoApproveEmergencies:    req.AutoApproveEmergencies,
		BlockVacationDates:        req.BlockVacationDates,
		VacationStart:             req.VacationStart,
		VacationEnd:               req.VacationEnd,
		InvolvementMode:           string(mode),
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	if err := s.policyRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	if err := s.audit.LogCreate(ctx, "policy", rec.ID); err != nil {
		s.logger.Warn("audit write failed", "policy", rec.ID, "err", err)
	}

	if req.Activate {
		if err := s.activate(ctx, rec.ID); err != nil {
			return nil, err
		}
		rec.IsActive = true
	}

	return recordToPolicy(rec)
}

// InitPolicy creates a policy seeded from an involvement mode's
// defaults. This is the one moment the mode does anything; afterwards
// the owner edits fields directly and the mode stays a label.
func (s *PolicyServiceImpl) InitPolicy(ctx context.Context, orgID, involvementMode string, activate bool) (*primary.Policy, error) {
	mode, ok := approval.ParseMode(involvementMode)
	if !ok {
		return nil, fmt.Errorf("unknown involvement mode: %s", involvementMode)
	}

	seed := approval.ModeDefaults(mode)
	return s.CreatePolicy(ctx, primary.CreatePolicyRequest{
		OrgID:                     orgID,
		AutoApproveWeekdays:       seed.AutoApproveWeekdays,
		AutoApproveWeekends:       seed.AutoApproveWeekends,
		AutoApproveEvenings:       seed.AutoApproveEvenings,
		AutoApproveCostLimitCents: seed.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  seed.RequireApprovalOverCents,
		AutoApproveEmergencies:    seed.AutoApproveEmergencies,
		InvolvementMode:           string(mode),
		Activate:                  activate,
	})
}

// ActivatePolicy marks a policy active, deactivating its siblings.
func (s *PolicyServiceImpl) ActivatePolicy(ctx context.Context, policyID string) error {
	return s.activate(ctx, policyID)
}

func (s *PolicyServiceImpl) activate(ctx context.Context, policyID string) error {
	if err := s.policyRepo.Activate(ctx, policyID); err != nil {
		return fmt.Errorf("failed to activate policy: %w", err)
	}
	if err := s.audit.LogUpdate(ctx, "policy", policyID, "is_active", "false", "true"); err != nil {
		s.logger.Warn("audit write failed", "policy", policyID, "err", err)
	}
	return nil
}

// Evaluate runs the organization's active policy against a candidate
// appointment. Missing or inactive policies fail closed to
// require-review.
func (s *PolicyServiceImpl) Evaluate(ctx context.Context, orgID string, check primary.AppointmentCheck) (*primary.Verdict, error) {
	pol, found, err := loadActivePolicy(ctx, s.policyRepo, orgID)
	if err != nil {
		return nil, err
	}

	verdict := approval.NoPolicy()
	if found {
		verdict = approval.Evaluate(pol, approval.Appointment{
			ContractorID:       check.ContractorID,
			ProposedStart:      check.StartsAt,
			EstimatedCostCents: check.EstimatedCostCents,
			IsUrgent:           check.IsUrgent,
		})
	}

	return &primary.Verdict{
		AutoApprove: verdict.AutoApprove,
		Reason:      verdict.Reason,
	}, nil
}

// DirectBook creates an appointment without multi-slot negotiation.
// The policy still runs so a direct booking carries the same approval
// flag a negotiated one would.
func (s *PolicyServiceImpl) DirectBook(ctx context.Context, req primary.DirectBookRequest) (*primary.DirectBookResult, error) {
	if !req.EndsAt.After(req.StartsAt) {
		return nil, fmt.Errorf("appointment must end after it starts")
	}

	jobRec, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if jobRec.AssignedContractorID != "" && jobRec.AssignedContractorID != req.ContractorID {
		return nil, fmt.Errorf("job %s is assigned to another contractor", req.JobID)
	}

	verdict := approval.NoPolicy()
	if jobRec.OrgID != "" {
		pol, found, err := loadActivePolicy(ctx, s.policyRepo, jobRec.OrgID)
		if err != nil {
			return nil, err
		}
		if found {
			verdict = approval.Evaluate(pol, approval.Appointment{
				ContractorID:       req.ContractorID,
				ProposedStart:      req.StartsAt,
				EstimatedCostCents: req.EstimatedCostCents,
				IsUrgent:           jobRec.IsUrgent,
			})
		}
	}

	rec := &secondary.AppointmentRecord{
		ID:                 uuid.NewString(),
		JobID:              req.JobID,
		ContractorID:       req.ContractorID,
		StartsAt:           req.StartsAt,
		EndsAt:             req.EndsAt,
		EstimatedCostCents: req.EstimatedCostCents,
		TenantApproved:     verdict.AutoApprove,
		ApprovalReason:     verdict.Reason,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.apptRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := s.audit.LogCreate(ctx, "appointment", rec.ID); err != nil {
		s.logger.Warn("audit write failed", "appointment", rec.ID, "err", err)
	}

	if !verdict.AutoApprove && jobRec.OrgID != "" {
		err := s.notifier.Notify(ctx, jobRec.OrgID, "an appointment needs your review", map[string]string{
			"event":          "appointment.review",
			"appointment_id": rec.ID,
			"job_id":         req.JobID,
			"reason":         verdict.Reason,
		})
		if err != nil {
			s.logger.Warn("review notification failed", "appointment", rec.ID, "err", err)
		}
	}

	return &primary.DirectBookResult{
		Appointment:    mapAppointment(rec),
		AutoApproved:   verdict.AutoApprove,
		ApprovalReason: verdict.Reason,
	}, nil
}

// loadActivePolicy fetches an organization's policies and selects the
// one to evaluate. The full list goes through approval.ActivePolicy so
// legacy data with several active rows resolves the same way
// everywhere.
func loadActivePolicy(ctx context.Context, repo secondary.PolicyRepository, orgID string) (approval.Policy, bool, error) {
	records, err := repo.ListByOrg(ctx, orgID)
	if err != nil {
		return approval.Policy{}, false, fmt.Errorf("failed to list policies: %w", err)
	}

	policies := make([]approval.Policy, 0, len(records))
	for _, rec := range records {
		p, err := recordToCorePolicy(rec)
		if err != nil {
			return approval.Policy{}, false, err
		}
		policies = append(policies, p)
	}

	pol, found := approval.ActivePolicy(policies)
	return pol, found, nil
}

// recordToCorePolicy converts a stored policy into the evaluator's
// representation.
func recordToCorePolicy(rec *secondary.PolicyRecord) (approval.Policy, error) {
	trusted, err := decodeTrustedIDs(rec.TrustedContractorIDs)
	if err != nil {
		return approval.Policy{}, err
	}
	return approval.Policy{
		ID:                        rec.ID,
		OrgID:                     rec.OrgID,
		IsActive:                  rec.IsActive,
		TrustedContractorIDs:      trusted,
		AutoApproveWeekdays:       rec.AutoApproveWeekdays,
		AutoApproveWeekends:       rec.AutoApproveWeekends,
		AutoApproveEvenings:       rec.AutoApproveEvenings,
		AutoApproveCostLimitCents: rec.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  rec.RequireApprovalOverCents,
		AutoApproveEmergencies:    rec.AutoApproveEmergencies,
		BlockVacationDates:        rec.BlockVacationDates,
		VacationStart:             rec.VacationStart,
		VacationEnd:               rec.VacationEnd,
		InvolvementMode:           approval.InvolvementMode(rec.InvolvementMode),
		CreatedAt:                 rec.CreatedAt,
		UpdatedAt:                 rec.UpdatedAt,
	}, nil
}

// recordToPolicy converts a stored policy into the port representation.
func recordToPolicy(rec *secondary.PolicyRecord) (*primary.Policy, error) {
	trusted, err := decodeTrustedIDs(rec.TrustedContractorIDs)
	if err != nil {
		return nil, err
	}
	return &primary.Policy{
		ID:                        rec.ID,
		OrgID:                     rec.OrgID,
		IsActive:                  rec.IsActive,
		TrustedContractorIDs:      trusted,
		AutoApproveWeekdays:       rec.AutoApproveWeekdays,
		AutoApproveWeekends:       rec.AutoApproveWeekends,
		AutoApproveEvenings:       rec.AutoApproveEvenings,
		AutoApproveCostLimitCents: rec.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  rec.RequireApprovalOverCents,
		AutoApproveEmergencies:    rec.AutoApproveEmergencies,
		BlockVacationDates:        rec.BlockVacationDates,
		VacationStart:             rec.VacationStart,
		VacationEnd:               rec.VacationEnd,
		InvolvementMode:           rec.InvolvementMode,
		CreatedAt:                 rec.CreatedAt,
		UpdatedAt:                 rec.UpdatedAt,
	}, nil
}

// encodeTrustedIDs serializes the trusted contractor list for storage.
// An empty list stores as an empty JSON array, never a null.
func encodeTrustedIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode trusted contractors: %w", err)
	}
	return string(b), nil
}

// decodeTrustedIDs parses the stored trusted contractor list. Empty
// storage reads as an empty list.
func decodeTrustedIDs(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode trusted contractors: %w", err)
	}
	return ids, nil
}

var _ primary.PolicyService = (*PolicyServiceImpl)(nil)
