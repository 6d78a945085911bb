package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/upkeep/internal/ports/primary"
)

type proposalHandler struct {
	proposals primary.ProposalService
}

func newProposalHandler(proposals primary.ProposalService) *proposalHandler {
	return &proposalHandler{proposals: proposals}
}

type slotBody struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type createProposalBody struct {
	Slots              []slotBody `json:"slots"`
	EstimatedCostCents int64      `json:"estimated_cost_cents"`
	Notes              string     `json:"notes"`
}

// POST /api/jobs/{jobID}/proposals
//
// The caller is the contractor offering the windows.
func (h *proposalHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body createProposalBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	slots := make([]primary.SlotRequest, len(body.Slots))
	for i, s := range body.Slots {
		slots[i] = primary.SlotRequest{StartsAt: s.StartsAt, EndsAt: s.EndsAt}
	}

	proposal, err := h.proposals.CreateProposal(r.Context(), primary.CreateProposalRequest{
		JobID:              chi.URLParam(r, "jobID"),
		ContractorID:       actor.UserID,
		Slots:              slots,
		EstimatedCostCents: body.EstimatedCostCents,
		Notes:              body.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toProposalJSON(proposal))
}

// GET /api/proposals/{proposalID}
func (h *proposalHandler) get(w http.ResponseWriter, r *http.Request) {
	proposal, err := h.proposals.GetProposal(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProposalJSON(proposal))
}

// GET /api/jobs/{jobID}/proposals
func (h *proposalHandler) listByJob(w http.ResponseWriter, r *http.Request) {
	proposals, err := h.proposals.ListByJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]*proposalJSON, len(proposals))
	for i, p := range proposals {
		out[i] = toProposalJSON(p)
	}
	respondJSON(w, http.StatusOK, out)
}

type selectSlotBody struct {
	SlotID string `json:"slot_id"`
}

type selectSlotResultJSON struct {
	Selected       bool             `json:"selected"`
	Reason         string           `json:"reason,omitempty"`
	Expired        bool             `json:"expired,omitempty"`
	AutoApproved   bool             `json:"auto_approved"`
	ApprovalReason string           `json:"approval_reason,omitempty"`
	Appointment    *appointmentJSON `json:"appointment,omitempty"`
}

// POST /api/proposals/{proposalID}/select
func (h *proposalHandler) selectSlot(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body selectSlotBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.SlotID == "" {
		respondBadRequest(w, "slot_id is required")
		return
	}

	result, err := h.proposals.SelectSlot(r.Context(), primary.SelectSlotRequest{
		ProposalID: chi.URLParam(r, "proposalID"),
		SlotID:     body.SlotID,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &selectSlotResultJSON{
		Selected:       result.Selected,
		Reason:         result.Reason,
		Expired:        result.Expired,
		AutoApproved:   result.AutoApproved,
		ApprovalReason: result.ApprovalReason,
		Appointment:    toAppointmentJSON(result.Appointment),
	})
}

type declineBody struct {
	Reason string `json:"reason"`
}

type declineResultJSON struct {
	Declined bool   `json:"declined"`
	Reason   string `json:"reason,omitempty"`
	Expired  bool   `json:"expired,omitempty"`
}

// POST /api/proposals/{proposalID}/decline
func (h *proposalHandler) decline(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body declineBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	result, err := h.proposals.DeclineAll(r.Context(), chi.URLParam(r, "proposalID"), body.Reason)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &declineResultJSON{
		Declined: result.Declined,
		Reason:   result.Reason,
		Expired:  result.Expired,
	})
}

type counterBody struct {
	Slots []slotBody `json:"slots"`
	Notes string     `json:"notes"`
}

type counterResultJSON struct {
	Countered bool          `json:"countered"`
	Reason    string        `json:"reason,omitempty"`
	Expired   bool          `json:"expired,omitempty"`
	Proposal  *proposalJSON `json:"proposal,omitempty"`
}

// POST /api/proposals/{proposalID}/counter
func (h *proposalHandler) counter(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body counterBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	slots := make([]primary.SlotRequest, len(body.Slots))
	for i, s := range body.Slots {
		slots[i] = primary.SlotRequest{StartsAt: s.StartsAt, EndsAt: s.EndsAt}
	}

	result, err := h.proposals.Counter(r.Context(), primary.CounterRequest{
		ProposalID: chi.URLParam(r, "proposalID"),
		Slots:      slots,
		Notes:      body.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &counterResultJSON{
		Countered: result.Countered,
		Reason:    result.Reason,
		Expired:   result.Expired,
		Proposal:  toProposalJSON(result.Proposal),
	})
}
