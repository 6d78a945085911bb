package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/example/upkeep/internal/ports/primary"
)

type jobHandler struct {
	jobs primary.MarketplaceService
}

func newJobHandler(jobs primary.MarketplaceService) *jobHandler {
	return &jobHandler{jobs: jobs}
}

type createJobBody struct {
	OrgID               string `json:"org_id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Category            string `json:"category"`
	Priority            string `json:"priority"`
	IsUrgent            bool   `json:"is_urgent"`
	RestrictToFavorites bool   `json:"restrict_to_favorites"`
}

// POST /api/jobs
func (h *jobHandler) create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body createJobBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if body.Title == "" {
		respondBadRequest(w, "title is required")
		return
	}

	job, err := h.jobs.CreateJob(r.Context(), primary.CreateJobRequest{
		OrgID:               body.OrgID,
		Title:               body.Title,
		Description:         body.Description,
		Category:            body.Category,
		Priority:            body.Priority,
		IsUrgent:            body.IsUrgent,
		RestrictToFavorites: body.RestrictToFavorites,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toJobJSON(job))
}

// GET /api/jobs?org=&status=&contractor=&unassigned=&limit=
func (h *jobHandler) list(w http.ResponseWriter, r *http.Request) {
	filters := primary.JobFilters{
		OrgID:        r.URL.Query().Get("org"),
		Status:       r.URL.Query().Get("status"),
		ContractorID: r.URL.Query().Get("contractor"),
		Unassigned:   r.URL.Query().Get("unassigned") == "true",
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondBadRequest(w, "limit must be a positive integer")
			return
		}
		filters.Limit = n
	}

	jobs, err := h.jobs.ListJobs(r.Context(), filters)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]*jobJSON, len(jobs))
	for i, j := range jobs {
		out[i] = toJobJSON(j)
	}
	respondJSON(w, http.StatusOK, out)
}

// GET /api/jobs/{jobID}
func (h *jobHandler) get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toJobJSON(job))
}

// GET /api/marketplace
//
// The caller is the contractor; the listing is personalized with the
// acceptance hint for them.
func (h *jobHandler) marketplace(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	listings, err := h.jobs.ListVisible(r.Context(), actor.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]*marketplaceJobJSON, len(listings))
	for i, l := range listings {
		out[i] = &marketplaceJobJSON{
			Job:       toJobJSON(l.Job),
			CanAccept: l.CanAccept,
			Reason:    l.Reason,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// POST /api/jobs/{jobID}/accept
//
// A rejection (ineligible, lost race) is a 200 with accepted=false; the
// caller inspects the reason.
func (h *jobHandler) accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.jobs.Accept(r.Context(), actor.UserID, chi.URLParam(r, "jobID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &acceptResultJSON{
		Accepted: result.Accepted,
		Reason:   result.Reason,
		Job:      toJobJSON(result.Job),
	})
}
