package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/upkeep/internal/ports/primary"
)

// dayLayout is the wire format for calendar days. Days are zone-less on
// the wire; the service anchors them in UTC.
const dayLayout = "2006-01-02"

type scheduleHandler struct {
	schedule primary.ScheduleService
}

func newScheduleHandler(schedule primary.ScheduleService) *scheduleHandler {
	return &scheduleHandler{schedule: schedule}
}

type createEntryBody struct {
	TeamID       string `json:"team_id"`
	IsAllDay     bool   `json:"is_all_day"`
	DurationDays int    `json:"duration_days"`
	Notes        string `json:"notes"`
}

// POST /api/jobs/{jobID}/schedule
func (h *scheduleHandler) createEntry(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body createEntryBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	entry, err := h.schedule.CreateEntry(r.Context(), primary.CreateScheduleRequest{
		JobID:        chi.URLParam(r, "jobID"),
		TeamID:       body.TeamID,
		IsAllDay:     body.IsAllDay,
		DurationDays: body.DurationDays,
		Notes:        body.Notes,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toScheduledJobJSON(entry))
}

// GET /api/schedule/{entryID}
func (h *scheduleHandler) get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.schedule.GetEntry(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toScheduledJobJSON(entry))
}

type moveBody struct {
	Day string `json:"day"`
}

type moveResultJSON struct {
	Moved           bool       `json:"moved"`
	Reason          string     `json:"reason,omitempty"`
	Start           *time.Time `json:"start,omitempty"`
	End             *time.Time `json:"end,omitempty"`
	Status          string     `json:"status,omitempty"`
	TenantConfirmed bool       `json:"tenant_confirmed"`
}

// POST /api/schedule/{entryID}/move
//
// A refused move (confirmed entry, completed entry) is a 200 with
// moved=false.
func (h *scheduleHandler) move(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body moveBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	day, err := time.Parse(dayLayout, body.Day)
	if err != nil {
		respondBadRequest(w, "day must be formatted as "+dayLayout)
		return
	}

	result, err := h.schedule.Move(r.Context(), chi.URLParam(r, "entryID"), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := &moveResultJSON{
		Moved:           result.Moved,
		Reason:          result.Reason,
		Status:          result.Status,
		TenantConfirmed: result.TenantConfirmed,
	}
	if result.Moved {
		start, end := result.Start, result.End
		out.Start = &start
		out.End = &end
	}
	respondJSON(w, http.StatusOK, out)
}

type confirmResultJSON struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason,omitempty"`
}

// POST /api/schedule/{entryID}/confirm
func (h *scheduleHandler) confirm(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	result, err := h.schedule.Confirm(r.Context(), chi.URLParam(r, "entryID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &confirmResultJSON{
		Confirmed: result.Confirmed,
		Reason:    result.Reason,
	})
}

// POST /api/schedule/{entryID}/unschedule
func (h *scheduleHandler) unschedule(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	if err := h.schedule.Unschedule(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"unscheduled": true})
}

type preferenceBody struct {
	StartMinute     int `json:"start_minute"`
	DurationMinutes int `json:"duration_minutes"`
}

// PUT /api/schedule/{entryID}/preference
func (h *scheduleHandler) setPreference(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	var body preferenceBody
	if err := decodeBody(r, &body); err != nil {
		respondBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	err := h.schedule.SetTimePreference(r.Context(), chi.URLParam(r, "entryID"), body.StartMinute, body.DurationMinutes)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

// GET /api/teams/{teamID}/calendar?day=2026-03-14
func (h *scheduleHandler) dayView(w http.ResponseWriter, r *http.Request) {
	dayParam := r.URL.Query().Get("day")
	if dayParam == "" {
		respondBadRequest(w, "day query parameter is required")
		return
	}
	day, err := time.Parse(dayLayout, dayParam)
	if err != nil {
		respondBadRequest(w, "day must be formatted as "+dayLayout)
		return
	}

	entries, err := h.schedule.DayView(r.Context(), chi.URLParam(r, "teamID"), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]*scheduledJobJSON, len(entries))
	for i, e := range entries {
		out[i] = toScheduledJobJSON(e)
	}
	respondJSON(w, http.StatusOK, out)
}
