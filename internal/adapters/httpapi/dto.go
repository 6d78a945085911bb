package httpapi

import (
	"time"

	"github.com/example/upkeep/internal/ports/primary"
)

// JSON shapes for the wire. The primary port DTOs stay tag-free; this
// file is the only place that knows the JSON field names.

type jobJSON struct {
	ID                   string    `json:"id"`
	OrgID                string    `json:"org_id,omitempty"`
	AssignedContractorID string    `json:"assigned_contractor_id,omitempty"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	Category             string    `json:"category,omitempty"`
	Priority             string    `json:"priority"`
	Status               string    `json:"status"`
	IsUrgent             bool      `json:"is_urgent"`
	RestrictToFavorites  bool      `json:"restrict_to_favorites"`
	PostedAt             time.Time `json:"posted_at"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toJobJSON(j *primary.Job) *jobJSON {
	if j == nil {
		return nil
	}
	return &jobJSON{
		ID:                   j.ID,
		OrgID:                j.OrgID,
		AssignedContractorID: j.AssignedContractorID,
		Title:                j.Title,
		Description:          j.Description,
		Category:             j.Category,
		Priority:             j.Priority,
		Status:               j.Status,
		IsUrgent:             j.IsUrgent,
		RestrictToFavorites:  j.RestrictToFavorites,
		PostedAt:             j.PostedAt,
		CreatedAt:            j.CreatedAt,
		UpdatedAt:            j.UpdatedAt,
	}
}

type marketplaceJobJSON struct {
	Job       *jobJSON `json:"job"`
	CanAccept bool     `json:"can_accept"`
	Reason    string   `json:"reason,omitempty"`
}

type acceptResultJSON struct {
	Accepted bool     `json:"accepted"`
	Reason   string   `json:"reason,omitempty"`
	Job      *jobJSON `json:"job,omitempty"`
}

type slotJSON struct {
	ID                   string    `json:"id"`
	StartsAt             time.Time `json:"starts_at"`
	EndsAt               time.Time `json:"ends_at"`
	Status               string    `json:"status"`
	IsAvailableForTenant bool      `json:"is_available_for_tenant"`
	ConflictReason       string    `json:"conflict_reason,omitempty"`
}

type proposalJSON struct {
	ID                 string      `json:"id"`
	JobID              string      `json:"job_id"`
	ContractorID       string      `json:"contractor_id"`
	Status             string      `json:"status"`
	EstimatedCostCents int64       `json:"estimated_cost_cents"`
	Notes              string      `json:"notes,omitempty"`
	ExpiresAt          time.Time   `json:"expires_at"`
	SelectedSlotID     string      `json:"selected_slot_id,omitempty"`
	AutoApproved       bool        `json:"auto_approved"`
	AutoApprovalReason string      `json:"auto_approval_reason,omitempty"`
	DeclineReason      string      `json:"decline_reason,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	Slots              []*slotJSON `json:"slots"`
}

func toProposalJSON(p *primary.Proposal) *proposalJSON {
	if p == nil {
		return nil
	}
	slots := make([]*slotJSON, len(p.Slots))
	for i, s := range p.Slots {
		slots[i] = &slotJSON{
			ID:                   s.ID,
			StartsAt:             s.StartsAt,
			EndsAt:               s.EndsAt,
			Status:               s.Status,
			IsAvailableForTenant: s.IsAvailableForTenant,
			ConflictReason:       s.ConflictReason,
		}
	}
	return &proposalJSON{
		ID:                 p.ID,
		JobID:              p.JobID,
		ContractorID:       p.ContractorID,
		Status:             p.Status,
		EstimatedCostCents: p.EstimatedCostCents,
		Notes:              p.Notes,
		ExpiresAt:          p.ExpiresAt,
		SelectedSlotID:     p.SelectedSlotID,
		AutoApproved:       p.AutoApproved,
		AutoApprovalReason: p.AutoApprovalReason,
		DeclineReason:      p.DeclineReason,
		CreatedAt:          p.CreatedAt,
		Slots:              slots,
	}
}

type appointmentJSON struct {
	ID                 string    `json:"id"`
	JobID              string    `json:"job_id"`
	ContractorID       string    `json:"contractor_id"`
	ProposalID         string    `json:"proposal_id,omitempty"`
	StartsAt           time.Time `json:"starts_at"`
	EndsAt             time.Time `json:"ends_at"`
	EstimatedCostCents int64     `json:"estimated_cost_cents"`
	TenantApproved     bool      `json:"tenant_approved"`
	ApprovalReason     string    `json:"approval_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func toAppointmentJSON(a *primary.Appointment) *appointmentJSON {
	if a == nil {
		return nil
	}
	return &appointmentJSON{
		ID:                 a.ID,
		JobID:              a.JobID,
		ContractorID:       a.ContractorID,
		ProposalID:         a.ProposalID,
		StartsAt:           a.StartsAt,
		EndsAt:             a.EndsAt,
		EstimatedCostCents: a.EstimatedCostCents,
		TenantApproved:     a.TenantApproved,
		ApprovalReason:     a.ApprovalReason,
		CreatedAt:          a.CreatedAt,
	}
}

type policyJSON struct {
	ID                        string     `json:"id"`
	OrgID                     string     `json:"org_id"`
	IsActive                  bool       `json:"is_active"`
	TrustedContractorIDs      []string   `json:"trusted_contractor_ids"`
	AutoApproveWeekdays       bool       `json:"auto_approve_weekdays"`
	AutoApproveWeekends       bool       `json:"auto_approve_weekends"`
	AutoApproveEvenings       bool       `json:"auto_approve_evenings"`
	AutoApproveCostLimitCents *int64     `json:"auto_approve_cost_limit_cents,omitempty"`
	RequireApprovalOverCents  *int64     `json:"require_approval_over_cents,omitempty"`
	AutoApproveEmergencies    bool       `json:"auto_approve_emergencies"`
	BlockVacationDates        bool       `json:"block_vacation_dates"`
	VacationStart             *time.Time `json:"vacation_start,omitempty"`
	VacationEnd               *time.Time `json:"vacation_end,omitempty"`
	InvolvementMode           string     `json:"involvement_mode"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

func toPolicyJSON(p *primary.Policy) *policyJSON {
	if p == nil {
		return nil
	}
	return &policyJSON{
		ID:                        p.ID,
		OrgID:                     p.OrgID,
		IsActive:                  p.IsActive,
		TrustedContractorIDs:      p.TrustedContractorIDs,
		AutoApproveWeekdays:       p.AutoApproveWeekdays,
		AutoApproveWeekends:       p.AutoApproveWeekends,
		AutoApproveEvenings:       p.AutoApproveEvenings,
		AutoApproveCostLimitCents: p.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  p.RequireApprovalOverCents,
		AutoApproveEmergencies:    p.AutoApproveEmergencies,
		BlockVacationDates:        p.BlockVacationDates,
		VacationStart:             p.VacationStart,
		VacationEnd:               p.VacationEnd,
		InvolvementMode:           p.InvolvementMode,
		CreatedAt:                 p.CreatedAt,
		UpdatedAt:                 p.UpdatedAt,
	}
}

type scheduledJobJSON struct {
	ID                  string     `json:"id"`
	JobID               string     `json:"job_id"`
	TeamID              string     `json:"team_id"`
	StartsAt            *time.Time `json:"starts_at,omitempty"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
	IsAllDay            bool       `json:"is_all_day"`
	DurationDays        int        `json:"duration_days"`
	Status              string     `json:"status"`
	TenantConfirmed     bool       `json:"tenant_confirmed"`
	PrefStartMinute     *int       `json:"pref_start_minute,omitempty"`
	PrefDurationMinutes *int       `json:"pref_duration_minutes,omitempty"`
	Notes               string     `json:"notes,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func toScheduledJobJSON(s *primary.ScheduledJob) *scheduledJobJSON {
	if s == nil {
		return nil
	}
	return &scheduledJobJSON{
		ID:                  s.ID,
		JobID:               s.JobID,
		TeamID:              s.TeamID,
		StartsAt:            s.StartsAt,
		EndsAt:              s.EndsAt,
		IsAllDay:            s.IsAllDay,
		DurationDays:        s.DurationDays,
		Status:              s.Status,
		TenantConfirmed:     s.TenantConfirmed,
		PrefStartMinute:     s.PrefStartMinute,
		PrefDurationMinutes: s.PrefDurationMinutes,
		Notes:               s.Notes,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
