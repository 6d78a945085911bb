package httpapi_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/upkeep/internal/adapters/httpapi"
	"github.com/example/upkeep/internal/adapters/notify"
	"github.com/example/upkeep/internal/adapters/sqlite"
	"github.com/example/upkeep/internal/app"
	"github.com/example/upkeep/internal/db"
	"github.com/example/upkeep/internal/ports/secondary"
)

// setupAPI wires the real stack over an in-memory database: repositories,
// services, router. Tests drive it through ServeHTTP like any client.
func setupAPI(t *testing.T) (http.Handler, *sql.DB) {
	t.Helper()

	conn, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	logger := log.New(io.Discard)
	notifier := notify.NewLogNotifier(logger)
	audit := sqlite.NewAuditWriterAdapter(conn)

	jobRepo := sqlite.NewJobRepository(conn)
	linkRepo := sqlite.NewOrgLinkRepository(conn)
	favoriteRepo := sqlite.NewFavoriteRepository(conn)
	profileRepo := sqlite.NewProfileRepository(conn)
	policyRepo := sqlite.NewPolicyRepository(conn)
	proposalRepo := sqlite.NewProposalRepository(conn)
	apptRepo := sqlite.NewAppointmentRepository(conn)
	availRepo := sqlite.NewAvailabilityRepository(conn)
	scheduleRepo := sqlite.NewScheduleRepository(conn)

	router := httpapi.NewRouter(httpapi.Deps{
		Marketplace: app.NewMarketplaceService(jobRepo, linkRepo, favoriteRepo, profileRepo, notifier, audit, logger),
		Proposals:   app.NewProposalService(proposalRepo, jobRepo, policyRepo, apptRepo, availRepo, notifier, audit, logger),
		Policies:    app.NewPolicyService(policyRepo, jobRepo, apptRepo, notifier, audit, logger),
		Schedule:    app.NewScheduleService(scheduleRepo, jobRepo, notifier, audit, logger),
		Logger:      logger,
	})
	return router, conn
}

// seedContractor gives a contractor an available profile and an active
// link to the org, the facts acceptance eligibility checks.
func seedContractor(t *testing.T, conn *sql.DB, contractorID, orgID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	profileRepo := sqlite.NewProfileRepository(conn)
	err := profileRepo.Upsert(ctx, &secondary.ProfileRecord{
		ID:           "prof-" + contractorID,
		ContractorID: contractorID,
		Available:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}

	linkRepo := sqlite.NewOrgLinkRepository(conn)
	if err := linkRepo.Upsert(ctx, contractorID, orgID, now); err != nil {
		t.Fatalf("failed to seed org link: %v", err)
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, actor, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(httpapi.HeaderUser, actor)
		req.Header.Set(httpapi.HeaderRole, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeData unwraps a success envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	if !env.Success {
		t.Fatalf("expected a success envelope, got error: %+v", env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
}

// decodeError unwraps an error envelope and returns the code.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, rec.Body.String())
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected an error envelope, got: %s", rec.Body.String())
	}
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodGet, "/api/health", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var data map[string]string
	decodeData(t, rec, &data)
	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got '%s'", data["status"])
	}
	if data["version"] == "" {
		t.Error("expected a version string")
	}
}

func TestCreateJob_RequiresIdentity(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodPost, "/api/jobs", "", "", map[string]string{"title": "Fix sink"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got '%s'", code)
	}
}

func TestCreateJob_MissingTitle(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodPost, "/api/jobs", "user-ana", "org", map[string]string{"org_id": "org-hillcrest"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "BAD_REQUEST" {
		t.Errorf("expected code BAD_REQUEST, got '%s'", code)
	}
}

func TestGetJob_NotFound(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodGet, "/api/jobs/nope", "", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := decodeError(t, rec); code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got '%s'", code)
	}
}

type jobPayload struct {
	ID                   string `json:"id"`
	OrgID                string `json:"org_id"`
	AssignedContractorID string `json:"assigned_contractor_id"`
	Title                string `json:"title"`
	Priority             string `json:"priority"`
	Status               string `json:"status"`
}

func TestJobAcceptFlow(t *testing.T) {
	router, conn := setupAPI(t)
	seedContractor(t, conn, "con-dana", "org-hillcrest")
	seedContractor(t, conn, "con-miles", "org-hillcrest")

	rec := doRequest(t, router, http.MethodPost, "/api/jobs", "user-ana", "org", map[string]any{
		"org_id":   "org-hillcrest",
		"title":    "Replace water heater",
		"category": "plumbing",
		"priority": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var created jobPayload
	decodeData(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected a job ID")
	}
	if created.Status != "New" {
		t.Errorf("expected status 'New', got '%s'", created.Status)
	}

	// First contractor wins the job.
	rec = doRequest(t, router, http.MethodPost, "/api/jobs/"+created.ID+"/accept", "con-dana", "contractor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var accepted struct {
		Accepted bool       `json:"accepted"`
		Reason   string     `json:"reason"`
		Job      jobPayload `json:"job"`
	}
	decodeData(t, rec, &accepted)
	if !accepted.Accepted {
		t.Fatalf("expected acceptance, got reason '%s'", accepted.Reason)
	}
	if accepted.Job.AssignedContractorID != "con-dana" {
		t.Errorf("expected assignment to con-dana, got '%s'", accepted.Job.AssignedContractorID)
	}

	// Second contractor finds it taken: a business outcome, not an error.
	rec = doRequest(t, router, http.MethodPost, "/api/jobs/"+created.ID+"/accept", "con-miles", "contractor", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var second struct {
		Accepted bool   `json:"accepted"`
		Reason   string `json:"reason"`
	}
	decodeData(t, rec, &second)
	if second.Accepted {
		t.Error("expected the second accept to be refused")
	}
	if second.Reason == "" {
		t.Error("expected a refusal reason")
	}

	// The job shows up under the contractor filter.
	rec = doRequest(t, router, http.MethodGet, "/api/jobs?contractor=con-dana", "", "", nil)
	var listed []jobPayload
	decodeData(t, rec, &listed)
	if len(listed) != 1 {
		t.Fatalf("expected 1 job for con-dana, got %d", len(listed))
	}
}

func TestProposalNegotiationFlow(t *testing.T) {
	router, conn := setupAPI(t)
	seedContractor(t, conn, "con-dana", "org-hillcrest")

	// Hands-off policy: every time window open, $1000 limit.
	rec := doRequest(t, router, http.MethodPost, "/api/orgs/org-hillcrest/policies/init", "user-ana", "org", map[string]any{
		"involvement_mode": "hands-off",
		"activate":         true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for policy init, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodPost, "/api/jobs", "user-ana", "org", map[string]any{
		"org_id": "org-hillcrest",
		"title":  "Service boiler",
	})
	var job jobPayload
	decodeData(t, rec, &job)

	start := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour)
	rec = doRequest(t, router, http.MethodPost, "/api/jobs/"+job.ID+"/proposals", "con-dana", "contractor", map[string]any{
		"slots": []map[string]string{
			{"starts_at": start.Format(time.RFC3339), "ends_at": start.Add(2 * time.Hour).Format(time.RFC3339)},
			{"starts_at": start.Add(24 * time.Hour).Format(time.RFC3339), "ends_at": start.Add(26 * time.Hour).Format(time.RFC3339)},
		},
		"estimated_cost_cents": 12500,
		"notes":                "Morning preferred",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for proposal, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var proposal struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Slots  []struct {
			ID string `json:"id"`
		} `json:"slots"`
	}
	decodeData(t, rec, &proposal)
	if proposal.Status != "pending" {
		t.Errorf("expected status 'pending', got '%s'", proposal.Status)
	}
	if len(proposal.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(proposal.Slots))
	}

	// Tenant picks the first window; the hands-off policy auto-approves
	// and an appointment appears.
	rec = doRequest(t, router, http.MethodPost, "/api/proposals/"+proposal.ID+"/select", "user-ana", "org", map[string]string{
		"slot_id": proposal.Slots[0].ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for select, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var selected struct {
		Selected     bool `json:"selected"`
		AutoApproved bool `json:"auto_approved"`
		Appointment  *struct {
			ID             string `json:"id"`
			JobID          string `json:"job_id"`
			TenantApproved bool   `json:"tenant_approved"`
		} `json:"appointment"`
	}
	decodeData(t, rec, &selected)
	if !selected.Selected {
		t.Fatal("expected the selection to go through")
	}
	if !selected.AutoApproved {
		t.Error("expected auto-approval under the hands-off policy")
	}
	if selected.Appointment == nil || selected.Appointment.JobID != job.ID {
		t.Errorf("expected an appointment for job %s, got %+v", job.ID, selected.Appointment)
	}

	// A second selection on the now-accepted proposal is refused.
	rec = doRequest(t, router, http.MethodPost, "/api/proposals/"+proposal.ID+"/select", "user-ana", "org", map[string]string{
		"slot_id": proposal.Slots[1].ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var again struct {
		Selected bool   `json:"selected"`
		Reason   string `json:"reason"`
	}
	decodeData(t, rec, &again)
	if again.Selected {
		t.Error("expected the second selection to be refused")
	}
}

func TestScheduleFlow(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodPost, "/api/jobs", "user-ana", "org", map[string]any{
		"org_id": "org-hillcrest",
		"title":  "Repaint hallway",
	})
	var job jobPayload
	decodeData(t, rec, &job)

	rec = doRequest(t, router, http.MethodPost, "/api/jobs/"+job.ID+"/schedule", "user-ana", "org", map[string]any{
		"team_id":       "team-north",
		"is_all_day":    true,
		"duration_days": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for schedule entry, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var entry struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &entry)
	if entry.Status != "Unscheduled" {
		t.Errorf("expected status 'Unscheduled', got '%s'", entry.Status)
	}

	rec = doRequest(t, router, http.MethodPost, "/api/schedule/"+entry.ID+"/move", "user-ana", "org", map[string]string{
		"day": "2026-10-05",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for move, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var moved struct {
		Moved  bool   `json:"moved"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &moved)
	if !moved.Moved {
		t.Fatal("expected the move to go through")
	}
	if moved.Status != "Scheduled" {
		t.Errorf("expected status 'Scheduled', got '%s'", moved.Status)
	}

	// A two-day entry starting Monday occupies Tuesday as well.
	for _, day := range []string{"2026-10-05", "2026-10-06"} {
		rec = doRequest(t, router, http.MethodGet, "/api/teams/team-north/calendar?day="+day, "", "", nil)
		var onDay []struct {
			ID string `json:"id"`
		}
		decodeData(t, rec, &onDay)
		if len(onDay) != 1 || onDay[0].ID != entry.ID {
			t.Errorf("expected the entry on %s, got %+v", day, onDay)
		}
	}
	rec = doRequest(t, router, http.MethodGet, "/api/teams/team-north/calendar?day=2026-10-07", "", "", nil)
	var offDay []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &offDay)
	if len(offDay) != 0 {
		t.Errorf("expected an empty day after the entry ends, got %d entries", len(offDay))
	}

	rec = doRequest(t, router, http.MethodPost, "/api/schedule/"+entry.ID+"/confirm", "tenant-lee", "tenant", nil)
	var confirmed struct {
		Confirmed bool `json:"confirmed"`
	}
	decodeData(t, rec, &confirmed)
	if !confirmed.Confirmed {
		t.Error("expected the confirmation to go through")
	}

	// Moving again is allowed and resets the confirmation.
	rec = doRequest(t, router, http.MethodPost, "/api/schedule/"+entry.ID+"/move", "user-ana", "org", map[string]string{
		"day": "2026-10-12",
	})
	var movedAgain struct {
		Moved           bool `json:"moved"`
		TenantConfirmed bool `json:"tenant_confirmed"`
	}
	decodeData(t, rec, &movedAgain)
	if !movedAgain.Moved {
		t.Fatal("expected the second move to go through")
	}
	if movedAgain.TenantConfirmed {
		t.Error("expected the move to reset tenant confirmation")
	}

	rec = doRequest(t, router, http.MethodPost, "/api/schedule/"+entry.ID+"/move", "user-ana", "org", map[string]string{
		"day": "not-a-day",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a malformed day, got %d", rec.Code)
	}
}

func TestPolicyEvaluate(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doRequest(t, router, http.MethodPost, "/api/orgs/org-hillcrest/policies/init", "user-ana", "org", map[string]any{
		"involvement_mode": "hands-on",
		"activate":         true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	// Hands-on approves nothing automatically.
	rec = doRequest(t, router, http.MethodPost, "/api/orgs/org-hillcrest/policies/evaluate", "", "", map[string]any{
		"contractor_id":        "con-dana",
		"starts_at":            time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
		"estimated_cost_cents": 5000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	var verdict struct {
		AutoApprove bool   `json:"auto_approve"`
		Reason      string `json:"reason"`
	}
	decodeData(t, rec, &verdict)
	if verdict.AutoApprove {
		t.Error("expected a hands-on policy to hold for review")
	}
	if verdict.Reason == "" {
		t.Error("expected a reason")
	}
}
