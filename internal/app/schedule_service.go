package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/upkeep/internal/core/calendar"
	"github.com/example/upkeep/internal/core/schedule"
	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

// ScheduleServiceImpl implements the ScheduleService interface.
type ScheduleServiceImpl struct {
	scheduleRepo secondary.ScheduleRepository
	jobRepo      secondary.JobRepository
	notifier     secondary.Notifier
	audit        secondary.AuditWriter
	logger       *log.Logger
}

// NewScheduleService creates a new ScheduleService with injected
// dependencies.
func NewScheduleService(
	scheduleRepo secondary.ScheduleRepository,
	jobRepo secondary.JobRepository,
	notifier secondary.Notifier,
	audit secondary.AuditWriter,
	logger *log.Logger,
) *ScheduleServiceImpl {
	return &ScheduleServiceImpl{
		scheduleRepo: scheduleRepo,
		jobRepo:      jobRepo,
		notifier:     notifier,
		audit:        audit,
		logger:       logger.WithPrefix("schedule"),
	}
}

// CreateEntry creates an unscheduled calendar entry for a job.
func (s *ScheduleServiceImpl) CreateEntry(ctx context.Context, req primary.CreateScheduleRequest) (*primary.ScheduledJob, error) {
	if _, err := s.jobRepo.GetByID(ctx, req.JobID); err != nil {
		return nil, err
	}

	days := req.DurationDays
	if days < 1 {
		days = 1
	}

	now := time.Now().UTC()
	rec := &secondary.ScheduleRecord{
		ID:           uuid.NewString(),
		JobID:        req.JobID,
		TeamID:       req.TeamID,
		IsAllDay:     req.IsAllDay,
		DurationDays: days,
		Status:       string(schedule.StatusUnscheduled),
		Notes:        req.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.scheduleRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create schedule entry: %w", err)
	}

	if err := s.audit.LogCreate(ctx, "scheduled_job", rec.ID); err != nil {
		s.logger.Warn("audit write failed", "entry", rec.ID, "err", err)
	}

	return recordToScheduledJob(rec), nil
}

// GetEntry retrieves a calendar entry by ID.
func (s *ScheduleServiceImpl) GetEntry(ctx context.Context, scheduledJobID string) (*primary.ScheduledJob, error) {
	rec, err := s.scheduleRepo.GetByID(ctx, scheduledJobID)
	if err != nil {
		return nil, err
	}
	return recordToScheduledJob(rec), nil
}

// GetByJob retrieves the calendar entry for a job.
func (s *ScheduleServiceImpl) GetByJob(ctx context.Context, jobID string) (*primary.ScheduledJob, error) {
	rec, err := s.scheduleRepo.GetByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return recordToScheduledJob(rec), nil
}

// DayView returns the team's entries occupying the given calendar day.
// Day attribution runs in memory through the half-open overlap rule so
// the storage layer never needs to reproduce it in SQL.
func (s *ScheduleServiceImpl) DayView(ctx context.Context, teamID string, day time.Time) ([]*primary.ScheduledJob, error) {
	records, err := s.scheduleRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}

	var onDay []*primary.ScheduledJob
	for _, rec := range records {
		if rec.StartsAt == nil {
			continue
		}
		if calendar.OnDay(recordInterval(rec), day) {
			onDay = append(onDay, recordToScheduledJob(rec))
		}
	}

	sort.Slice(onDay, func(i, j int) bool {
		return onDay[i].StartsAt.Before(*onDay[j].StartsAt)
	})
	return onDay, nil
}

// Move places an entry onto another day. Already-scheduled entries keep
// their time-of-day and exact duration; never-scheduled ones land on
// their stored preference or the default morning window. Every move
// resets tenant confirmation.
func (s *ScheduleServiceImpl) Move(ctx context.Context, scheduledJobID string, targetDay time.Time) (*primary.MoveResult, error) {
	rec, err := s.scheduleRepo.GetByID(ctx, scheduledJobID)
	if err != nil {
		return nil, err
	}

	status := schedule.Status(rec.Status)
	if d := schedule.CanMove(status); !d.OK {
		return &primary.MoveResult{Moved: false, Reason: d.Reason}, nil
	}

	interval := calendar.Reschedule(rescheduleInput(rec), targetDay)
	applied := schedule.ApplyMove()

	err = s.scheduleRepo.UpdatePlacement(ctx, rec.ID, interval.Start, interval.End, string(applied.Status), applied.TenantConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to move schedule entry: %w", err)
	}

	oldStart := ""
	if rec.StartsAt != nil {
		oldStart = rec.StartsAt.Format(time.RFC3339)
	}
	if err := s.audit.LogUpdate(ctx, "scheduled_job", rec.ID, "starts_at", oldStart, interval.Start.Format(time.RFC3339)); err != nil {
		s.logger.Warn("audit write failed", "entry", rec.ID, "err", err)
	}

	s.notifyMoved(ctx, rec, interval.Start)

	return &primary.MoveResult{
		Moved:           true,
		Start:           interval.Start,
		End:             interval.End,
		Status:          string(applied.Status),
		TenantConfirmed: applied.TenantConfirmed,
	}, nil
}

// Confirm records the tenant's confirmation of the current placement.
func (s *ScheduleServiceImpl) Confirm(ctx context.Context, scheduledJobID string) (*primary.ConfirmResult, error) {
	rec, err := s.scheduleRepo.GetByID(ctx, scheduledJobID)
	if err != nil {
		return nil, err
	}

	if d := schedule.CanConfirm(schedule.Status(rec.Status)); !d.OK {
		return &primary.ConfirmResult{Confirmed: false, Reason: d.Reason}, nil
	}

	applied := schedule.ApplyConfirmation()
	err = s.scheduleRepo.SetConfirmation(ctx, rec.ID, string(applied.Status), applied.TenantConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm schedule entry: %w", err)
	}

	if err := s.audit.LogUpdate(ctx, "scheduled_job", rec.ID, "tenant_confirmed", "false", "true"); err != nil {
		s.logger.Warn("audit write failed", "entry", rec.ID, "err", err)
	}

	return &primary.ConfirmResult{Confirmed: true}, nil
}

// Unschedule removes the entry's placement. The same rules as moving
// apply: started or finished work stays put.
func (s *ScheduleServiceImpl) Unschedule(ctx context.Context, scheduledJobID string) error {
	rec, err := s.scheduleRepo.GetByID(ctx, scheduledJobID)
	if err != nil {
		return err
	}

	if d := schedule.CanMove(schedule.Status(rec.Status)); !d.OK {
		return d.Error()
	}

	applied := schedule.ApplyUnschedule()
	if err := s.scheduleRepo.ClearPlacement(ctx, rec.ID, string(applied.Status)); err != nil {
		return fmt.Errorf("failed to unschedule entry: %w", err)
	}

	if err := s.audit.LogUpdate(ctx, "scheduled_job", rec.ID, "status", rec.Status, string(applied.Status)); err != nil {
		s.logger.Warn("audit write failed", "entry", rec.ID, "err", err)
	}
	return nil
}

// SetTimePreference stores the structured start preference consulted
// when an unscheduled entry is first placed.
func (s *ScheduleServiceImpl) SetTimePreference(ctx context.Context, scheduledJobID string, startMinute, durationMinutes int) error {
	if startMinute < 0 || startMinute >= 24*60 {
		return fmt.Errorf("start minute %d is outside the day", startMinute)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("duration must be positive")
	}

	if _, err := s.scheduleRepo.GetByID(ctx, scheduledJobID); err != nil {
		return err
	}

	if err := s.scheduleRepo.SetTimePreference(ctx, scheduledJobID, startMinute, durationMinutes); err != nil {
		return fmt.Errorf("failed to set time preference: %w", err)
	}
	return nil
}

// ImportLegacyPreference decodes a time preference embedded in the
// entry's notes JSON and stores it structurally. Entries whose notes
// carry no recognizable payload are left untouched.
func (s *ScheduleServiceImpl) ImportLegacyPreference(ctx context.Context, scheduledJobID string) (bool, error) {
	rec, err := s.scheduleRepo.GetByID(ctx, scheduledJobID)
	if err != nil {
		return false, err
	}

	pref, ok := calendar.ParseLegacyPreference(rec.Notes)
	if !ok {
		return false, nil
	}

	if err := s.scheduleRepo.SetTimePreference(ctx, rec.ID, pref.StartMinute, pref.DurationMinutes); err != nil {
		return false, fmt.Errorf("failed to import preference: %w", err)
	}

	s.logger.Info("imported legacy time preference", "entry", rec.ID, "start_minute", pref.StartMinute)
	return true, nil
}

// notifyMoved tells the organization the appointment moved and needs a
// fresh confirmation. Best-effort.
func (s *ScheduleServiceImpl) notifyMoved(ctx context.Context, rec *secondary.ScheduleRecord, newStart time.Time) {
	jobRec, err := s.jobRepo.GetByID(ctx, rec.JobID)
	if err != nil || jobRec.OrgID == "" {
		return
	}

	err = s.notifier.Notify(ctx, jobRec.OrgID, "a scheduled job moved and needs re-confirmation", map[string]string{
		"event":     "schedule.moved",
		"entry_id":  rec.ID,
		"job_id":    rec.JobID,
		"starts_at": newStart.Format(time.RFC3339),
	})
	if err != nil {
		s.logger.Warn("move notification failed", "entry", rec.ID, "err", err)
	}
}

// rescheduleInput assembles the placement facts the calendar core
// needs from a stored entry.
func rescheduleInput(rec *secondary.ScheduleRecord) calendar.RescheduleInput {
	in := calendar.RescheduleInput{
		Scheduled:    rec.StartsAt != nil,
		IsAllDay:     rec.IsAllDay,
		DurationDays: rec.DurationDays,
	}
	if rec.StartsAt != nil {
		in.Current = recordInterval(rec)
	}
	if rec.PrefStartMinute != nil {
		pref := calendar.TimePreference{
			StartMinute:     *rec.PrefStartMinute,
			DurationMinutes: calendar.DefaultDurationMinutes,
		}
		if rec.PrefDurationMinutes != nil {
			pref.DurationMinutes = *rec.PrefDurationMinutes
		}
		in.Preference = &pref
	}
	return in
}

// recordInterval builds the overlap-test interval for a placed entry.
// Entries stored without an end read as zero-length; the calendar core
// falls back to the start.
func recordInterval(rec *secondary.ScheduleRecord) calendar.Interval {
	iv := calendar.Interval{Start: *rec.StartsAt}
	if rec.EndsAt != nil {
		iv.End = *rec.EndsAt
	}
	return iv
}

// recordToScheduledJob converts a record into the port representation.
func recordToScheduledJob(rec *secondary.ScheduleRecord) *primary.ScheduledJob {
	return &primary.ScheduledJob{
		ID:                  rec.ID,
		JobID:               rec.JobID,
		TeamID:              rec.TeamID,
		StartsAt:            rec.StartsAt,
		EndsAt:              rec.EndsAt,
		IsAllDay:            rec.IsAllDay,
		DurationDays:        rec.DurationDays,
		Status:              rec.Status,
		TenantConfirmed:     rec.TenantConfirmed,
		PrefStartMinute:     rec.PrefStartMinute,
		PrefDurationMinutes: rec.PrefDurationMinutes,
		Notes:               rec.Notes,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

var _ primary.ScheduleService = (*ScheduleServiceImpl)(nil)
