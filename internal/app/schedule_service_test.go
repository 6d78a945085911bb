package app

import (
	"context"
	"testing"
	"time"

	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

// ============================================================================
// Test Helper
// ============================================================================

type scheduleMocks struct {
	schedule *mockScheduleRepository
	jobs     *mockJobRepository
	notifier *mockNotifier
	audit    *mockAuditWriter
}

func newTestScheduleService() (*ScheduleServiceImpl, *scheduleMocks) {
	m := &scheduleMocks{
		schedule: newMockScheduleRepository(),
		jobs:     newMockJobRepository(),
		notifier: newMockNotifier(),
		audit:    newMockAuditWriter(),
	}
	service := NewScheduleService(m.schedule, m.jobs, m.notifier, m.audit, testLogger())
	return service, m
}

// Calendar days used across the placement tests. scheduleMonday is
// 2026-09-07; Tuesday, Wednesday and Thursday follow it.
var (
	scheduleMonday   = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	scheduleTuesday  = scheduleMonday.AddDate(0, 0, 1)
	scheduleWed      = scheduleMonday.AddDate(0, 0, 2)
	scheduleThursday = scheduleMonday.AddDate(0, 0, 3)
)

func seedEntry(m *scheduleMocks, id string, mutate func(*secondary.ScheduleRecord)) {
	m.jobs.jobs["job-"+id] = &secondary.JobRecord{ID: "job-" + id, OrgID: "org-1", Status: "In Progress"}
	rec := &secondary.ScheduleRecord{
		ID:           id,
		JobID:        "job-" + id,
		TeamID:       "team-1",
		DurationDays: 1,
		Status:       "Unscheduled",
	}
	if mutate != nil {
		mutate(rec)
	}
	m.schedule.entries[id] = rec
}

func placed(rec *secondary.ScheduleRecord, start, end time.Time) {
	rec.StartsAt = &start
	rec.EndsAt = &end
	rec.Status = "Scheduled"
}

// ============================================================================
// CreateEntry Tests
// ============================================================================

func TestCreateEntry_Defaults(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	m.jobs.jobs["job-1"] = &secondary.JobRecord{ID: "job-1", OrgID: "org-1"}

	created, err := service.CreateEntry(ctx, primary.CreateScheduleRequest{
		JobID:  "job-1",
		TeamID: "team-1",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Status != "Unscheduled" {
		t.Errorf("expected status 'Unscheduled', got '%s'", created.Status)
	}
	if created.StartsAt != nil {
		t.Error("expected no start timestamp")
	}
	if created.DurationDays != 1 {
		t.Errorf("expected duration of 1 day, got %d", created.DurationDays)
	}
}

func TestCreateEntry_JobMissing(t *testing.T) {
	service, _ := newTestScheduleService()
	ctx := context.Background()

	_, err := service.CreateEntry(ctx, primary.CreateScheduleRequest{
		JobID:  "job-missing",
		TeamID: "team-1",
	})

	if err == nil {
		t.Fatal("expected error for missing job, got nil")
	}
}

// ============================================================================
// DayView Tests
// ============================================================================

func TestDayView_HalfOpenAttribution(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()

	seedEntry(m, "afternoon", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(14*time.Hour), scheduleMonday.Add(15*time.Hour+30*time.Minute))
	})
	seedEntry(m, "allday-tue", func(r *secondary.ScheduleRecord) {
		r.IsAllDay = true
		placed(r, scheduleTuesday, scheduleWed) // ends exactly at midnight
	})
	seedEntry(m, "overnight", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(23*time.Hour), scheduleTuesday.Add(time.Hour))
	})
	seedEntry(m, "unplaced", nil)

	dayIDs := func(day time.Time) []string {
		view, err := service.DayView(ctx, "team-1", day)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		ids := make([]string, len(view))
		for i, e := range view {
			ids[i] = e.ID
		}
		return ids
	}

	monday := dayIDs(scheduleMonday)
	if len(monday) != 2 || monday[0] != "afternoon" || monday[1] != "overnight" {
		t.Errorf("expected Monday [afternoon overnight], got %v", monday)
	}

	tuesday := dayIDs(scheduleTuesday)
	if len(tuesday) != 2 || tuesday[0] != "overnight" || tuesday[1] != "allday-tue" {
		t.Errorf("expected Tuesday [overnight allday-tue], got %v", tuesday)
	}

	// The all-day entry ends exactly at Wednesday midnight and must not
	// bleed into Wednesday.
	if wednesday := dayIDs(scheduleWed); len(wednesday) != 0 {
		t.Errorf("expected empty Wednesday, got %v", wednesday)
	}
}

// ============================================================================
// Move Tests
// ============================================================================

func TestMove_PreservesTimeOfDayAndDuration(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(14*time.Hour), scheduleMonday.Add(15*time.Hour+30*time.Minute))
		r.TenantConfirmed = true
	})

	result, err := service.Move(ctx, "e1", scheduleThursday)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Moved {
		t.Fatalf("expected move, got reason '%s'", result.Reason)
	}
	if !result.Start.Equal(scheduleThursday.Add(14 * time.Hour)) {
		t.Errorf("expected Thursday 14:00, got %v", result.Start)
	}
	if !result.End.Equal(scheduleThursday.Add(15*time.Hour + 30*time.Minute)) {
		t.Errorf("expected Thursday 15:30, got %v", result.End)
	}
	if result.TenantConfirmed {
		t.Error("expected the move to reset tenant confirmation")
	}
	if result.Status != "Scheduled" {
		t.Errorf("expected status 'Scheduled', got '%s'", result.Status)
	}

	stored := m.schedule.entries["e1"]
	if stored.TenantConfirmed {
		t.Error("expected stored confirmation reset")
	}
	if !stored.StartsAt.Equal(scheduleThursday.Add(14 * time.Hour)) {
		t.Errorf("expected stored start updated, got %v", stored.StartsAt)
	}
}

func TestMove_FirstPlacementUsesPreference(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		start := 10 * 60
		dur := 45
		r.PrefStartMinute = &start
		r.PrefDurationMinutes = &dur
	})

	result, err := service.Move(ctx, "e1", scheduleThursday)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Start.Equal(scheduleThursday.Add(10 * time.Hour)) {
		t.Errorf("expected Thursday 10:00, got %v", result.Start)
	}
	if !result.End.Equal(scheduleThursday.Add(10*time.Hour + 45*time.Minute)) {
		t.Errorf("expected Thursday 10:45, got %v", result.End)
	}
}

func TestMove_FirstPlacementDefaults(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", nil)

	result, err := service.Move(ctx, "e1", scheduleThursday)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Start.Equal(scheduleThursday.Add(8 * time.Hour)) {
		t.Errorf("expected Thursday 08:00, got %v", result.Start)
	}
	if !result.End.Equal(scheduleThursday.Add(10 * time.Hour)) {
		t.Errorf("expected Thursday 10:00, got %v", result.End)
	}
}

func TestMove_AllDaySpansItsDuration(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		r.IsAllDay = true
		r.DurationDays = 2
	})

	result, err := service.Move(ctx, "e1", scheduleThursday)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Start.Equal(scheduleThursday) {
		t.Errorf("expected Thursday midnight, got %v", result.Start)
	}
	if !result.End.Equal(scheduleThursday.AddDate(0, 0, 2)) {
		t.Errorf("expected Saturday midnight, got %v", result.End)
	}
}

func TestMove_StartedWorkStaysPut(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(9*time.Hour), scheduleMonday.Add(11*time.Hour))
		r.Status = "In Progress"
	})

	result, err := service.Move(ctx, "e1", scheduleThursday)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Moved {
		t.Fatal("expected refusal for started work")
	}
	if result.Reason != "cannot move a In Progress job" {
		t.Errorf("expected refusal reason, got '%s'", result.Reason)
	}
	if !m.schedule.entries["e1"].StartsAt.Equal(scheduleMonday.Add(9 * time.Hour)) {
		t.Error("expected placement untouched")
	}
	if len(m.notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(m.notifier.sent))
	}
}

func TestMove_NotifiesOwner(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(9*time.Hour), scheduleMonday.Add(10*time.Hour))
	})

	if _, err := service.Move(ctx, "e1", scheduleThursday); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(m.notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(m.notifier.sent))
	}
	if m.notifier.sent[0].Metadata["event"] != "schedule.moved" {
		t.Errorf("expected event 'schedule.moved', got '%s'", m.notifier.sent[0].Metadata["event"])
	}
}

// ============================================================================
// Confirm and Unschedule Tests
// ============================================================================

func TestConfirm_Success(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(9*time.Hour), scheduleMonday.Add(10*time.Hour))
	})

	result, err := service.Confirm(ctx, "e1")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Confirmed {
		t.Fatalf("expected confirmation, got reason '%s'", result.Reason)
	}

	stored := m.schedule.entries["e1"]
	if stored.Status != "Confirmed" {
		t.Errorf("expected stored status 'Confirmed', got '%s'", stored.Status)
	}
	if !stored.TenantConfirmed {
		t.Error("expected stored confirmation flag")
	}
}

func TestConfirm_Unplaced(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", nil)

	result, err := service.Confirm(ctx, "e1")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Confirmed {
		t.Fatal("expected refusal for unplaced entry")
	}
	if result.Reason != "cannot confirm a Unscheduled job" {
		t.Errorf("expected refusal reason, got '%s'", result.Reason)
	}
}

func TestUnschedule_ClearsPlacement(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(9*time.Hour), scheduleMonday.Add(10*time.Hour))
		r.TenantConfirmed = true
	})

	if err := service.Unschedule(ctx, "e1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	stored := m.schedule.entries["e1"]
	if stored.StartsAt != nil || stored.EndsAt != nil {
		t.Error("expected placement cleared")
	}
	if stored.Status != "Unscheduled" {
		t.Errorf("expected status 'Unscheduled', got '%s'", stored.Status)
	}
	if stored.TenantConfirmed {
		t.Error("expected confirmation cleared")
	}
}

func TestUnschedule_StartedWorkRefused(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		placed(r, scheduleMonday.Add(9*time.Hour), scheduleMonday.Add(10*time.Hour))
		r.Status = "Completed"
	})

	if err := service.Unschedule(ctx, "e1"); err == nil {
		t.Fatal("expected error for completed work, got nil")
	}
}

// ============================================================================
// Time Preference Tests
// ============================================================================

func TestSetTimePreference_Validates(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", nil)

	if err := service.SetTimePreference(ctx, "e1", 24*60, 60); err == nil {
		t.Error("expected error for start minute past midnight")
	}
	if err := service.SetTimePreference(ctx, "e1", 600, 0); err == nil {
		t.Error("expected error for zero duration")
	}

	if err := service.SetTimePreference(ctx, "e1", 600, 45); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	stored := m.schedule.entries["e1"]
	if stored.PrefStartMinute == nil || *stored.PrefStartMinute != 600 {
		t.Errorf("expected stored start minute 600, got %v", stored.PrefStartMinute)
	}
	if stored.PrefDurationMinutes == nil || *stored.PrefDurationMinutes != 45 {
		t.Errorf("expected stored duration 45, got %v", stored.PrefDurationMinutes)
	}
}

func TestImportLegacyPreference_Found(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		r.Notes = `{"timePreferences":{"hour":14,"minute":30,"durationMinutes":60}}`
	})

	found, err := service.ImportLegacyPreference(ctx, "e1")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !found {
		t.Fatal("expected a preference to be found")
	}
	stored := m.schedule.entries["e1"]
	if stored.PrefStartMinute == nil || *stored.PrefStartMinute != 14*60+30 {
		t.Errorf("expected start minute 870, got %v", stored.PrefStartMinute)
	}
	if stored.PrefDurationMinutes == nil || *stored.PrefDurationMinutes != 60 {
		t.Errorf("expected duration 60, got %v", stored.PrefDurationMinutes)
	}
}

func TestImportLegacyPreference_PlainNotes(t *testing.T) {
	service, m := newTestScheduleService()
	ctx := context.Background()
	seedEntry(m, "e1", func(r *secondary.ScheduleRecord) {
		r.Notes = "tenant prefers mornings"
	})

	found, err := service.ImportLegacyPreference(ctx, "e1")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if found {
		t.Fatal("expected no preference in plain notes")
	}
	if m.schedule.entries["e1"].PrefStartMinute != nil {
		t.Error("expected no stored preference")
	}
}
