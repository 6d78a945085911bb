package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/upkeep/internal/ports/primary"
)

type policyHandler struct {
	policies primary.PolicyService
}

func newPolicyHandler(policies primary.PolicyService) *policyHandler {
	return &policyHandler{policies: policies}
}

// GET /api/orgs/{orgID}/policies
func (h *policyHandler) list(w http.ResponseWriter, r *http.Request) {
	policies, err := h.policies.ListPolicies(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]*policyJSON, len(policies))
	for i, p := range policies {
		out[i] = toPolicyJSON(p)
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/orgs/{orgID}/policies/active
func (h *policyHandler) getActive(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policies.GetActivePolicy(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPolicyJSON(policy))
}

type createPolicyBody struct {
	TrustedContractorIDs      []string   `json:"trusted_contractor_ids"`
	AutoApproveWeekdays       bool       `json:"auto_approve_weekdays"`
	AutoApproveWeekends       bool       `json:"auto_approve_weekends"`
	AutoApproveEvenings       bool       `json:"auto_approve_evenings"`
	AutoApproveCostLimitCents *int64     `json:"auto_approve_cost_limit_cents"`
	RequireApprovalOverCents  *int64     `json:"require_approval_over_cents"`
	AutoApproveEmergencies    bool       `json:"auto_approve_emergencies"`
	BlockVacationDates        bool       `json:"block_vacation_dates"`
	VacationStart             *time.Time `json:"vacation_start"`
	VacationEnd               *time.Time `json:"vacation_end"`
	InvolvementMode           string     `json:"involvement_mode"`
	Activate                  bool       `json:"activate"`
}

// POST /api/orgs/{orgID}/policies
func (h *policyHandler) create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body createPolicyBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	policy, err := h.policies.CreatePolicy(r.Context(), primary.CreatePolicyRequest{
		OrgID:                     chi.URLParam(r, "orgID"),
		TrustedContractorIDs:      body.TrustedContractorIDs,
		AutoApproveWeekdays:       body.AutoApproveWeekdays,
		AutoApproveWeekends:       body.AutoApproveWeekends,
		AutoApproveEvenings:       body.AutoApproveEvenings,
		AutoApproveCostLimitCents: body.AutoApproveCostLimitCents,
		RequireApprovalOverCents:  body.RequireApprovalOverCents,
		AutoApproveEmergencies:    body.AutoApproveEmergencies,
		BlockVacationDates:        body.BlockVacationDates,
		VacationStart:             body.VacationStart,
		VacationEnd:               body.VacationEnd,
		InvolvementMode:           body.InvolvementMode,
		Activate:                  body.Activate,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPolicyJSON(policy))
}

type initPolicyBody struct {
	InvolvementMode string `json:"involvement_mode"`
	Activate        bool   `json:"activate"`
}

// POST /api/orgs/{orgID}/policies/init
func (h *policyHandler) initDefaults(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body initPolicyBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.InvolvementMode == "" {
		respondBadRequest(w, "involvement_mode is required")
		return
	}

	policy, err := h.policies.InitPolicy(r.Context(), chi.URLParam(r, "orgID"), body.InvolvementMode, body.Activate)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPolicyJSON(policy))
}

// POST /api/policies/{policyID}/activate
func (h *policyHandler) activate(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	if err := h.policies.ActivatePolicy(r.Context(), chi.URLParam(r, "policyID")); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"activated": true})
}

type evaluateBody struct {
	ContractorID       string    `json:"contractor_id"`
	StartsAt           time.Time `json:"starts_at"`
	EstimatedCostCents int64     `json:"estimated_cost_cents"`
	IsUrgent           bool      `json:"is_urgent"`
}

type verdictJSON struct {
	AutoApprove bool   `json:"auto_approve"`
	Reason      string `json:"reason"`
}

// POST /api/orgs/{orgID}/policies/evaluate
//
// Dry-run evaluation: what would the active policy say about this
// appointment. Nothing is persisted.
func (h *policyHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	var body evaluateBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	verdict, err := h.policies.Evaluate(r.Context(), chi.URLParam(r, "orgID"), primary.AppointmentCheck{
		ContractorID:       body.ContractorID,
		StartsAt:           body.StartsAt,
		EstimatedCostCents: body.EstimatedCostCents,
		IsUrgent:           body.IsUrgent,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &verdictJSON{
		AutoApprove: verdict.AutoApprove,
		Reason:      verdict.Reason,
	})
}

type directBookBody struct {
	ContractorID       string    `json:"contractor_id"`
	StartsAt           time.Time `json:"starts_at"`
	EndsAt             time.Time `json:"ends_at"`
	EstimatedCostCents int64     `json:"estimated_cost_cents"`
}

type directBookResultJSON struct {
	Appointment    *appointmentJSON `json:"appointment"`
	AutoApproved   bool             `json:"auto_approved"`
	ApprovalReason string           `json:"approval_reason,omitempty"`
}

// POST /api/jobs/{jobID}/book
//
// Books without negotiation; the contractor defaults to the caller when
// the body leaves it empty.
func (h *policyHandler) directBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body directBookBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	contractorID := body.ContractorID
	if contractorID == "" {
		contractorID = actor.UserID
	}

	result, err := h.policies.DirectBook(r.Context(), primary.DirectBookRequest{
		JobID:              chi.URLParam(r, "jobID"),
		ContractorID:       contractorID,
		StartsAt:           body.StartsAt,
		EndsAt:             body.EndsAt,
		EstimatedCostCents: body.EstimatedCostCents,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, &directBookResultJSON{
		Appointment:    toAppointmentJSON(result.Appointment),
		AutoApproved:   result.AutoApproved,
		ApprovalReason: result.ApprovalReason,
	})
}
