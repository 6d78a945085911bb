package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// ScheduleRepository implements secondary.ScheduleRepository with SQLite.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new SQLite schedule repository.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleSelectCols = "id, job_id, team_id, starts_at, ends_at, is_all_day, duration_days, status, tenant_confirmed, pref_start_minute, pref_duration_minutes, notes, created_at, updated_at"

func scanSchedule(scanner interface {
	Scan(dest ...any) error
}) (*secondary.ScheduleRecord, error) {
	var (
		startsAt     sql.NullTime
		endsAt       sql.NullTime
		prefStart    sql.NullInt64
		prefDuration sql.NullInt64
		notes        sql.NullString
	)

	record := &secondary.ScheduleRecord{}
	err := scanner.Scan(
		&record.ID, &record.JobID, &record.TeamID, &startsAt, &endsAt,
		&record.IsAllDay, &record.DurationDays, &record.Status, &record.TenantConfirmed,
		&prefStart, &prefDuration, &notes, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if startsAt.Valid {
		t := startsAt.Time
		record.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		record.EndsAt = &t
	}
	if prefStart.Valid {
		v := int(prefStart.Int64)
		record.PrefStartMinute = &v
	}
	if prefDuration.Valid {
		v := int(prefDuration.Int64)
		record.PrefDurationMinutes = &v
	}
	record.Notes = notes.String

	return record, nil
}

// Create persists a new calendar entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *secondary.ScheduleRecord) error {
	var (
		startsAt sql.NullTime
		endsAt   sql.NullTime
		notes    sql.NullString
	)
	if entry.StartsAt != nil {
		startsAt = sql.NullTime{Time: *entry.StartsAt, Valid: true}
	}
	if entry.EndsAt != nil {
		endsAt = sql.NullTime{Time: *entry.EndsAt, Valid: true}
	}
	if entry.Notes != "" {
		notes = sql.NullString{String: entry.Notes, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO scheduled_jobs (id, job_id, team_id, starts_at, ends_at, is_all_day, duration_days, status, tenant_confirmed, notes, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		entry.ID, entry.JobID, entry.TeamID, startsAt, endsAt, entry.IsAllDay,
		entry.DurationDays, entry.Status, entry.TenantConfirmed, notes,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create calendar entry: %w", err)
	}

	return nil
}

// GetByID retrieves a calendar entry by its ID.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*secondary.ScheduleRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scheduleSelectCols+" FROM scheduled_jobs WHERE id = ?",
		id,
	)

	record, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("calendar entry %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar entry: %w", err)
	}

	return record, nil
}

// GetByJob retrieves the calendar entry for a job.
func (r *ScheduleRepository) GetByJob(ctx context.Context, jobID string) (*secondary.ScheduleRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scheduleSelectCols+" FROM scheduled_jobs WHERE job_id = ?",
		jobID,
	)

	record, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("calendar entry for job %s: %w", jobID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar entry: %w", err)
	}

	return record, nil
}

// ListByTeam retrieves all calendar entries of a team. Day attribution
// happens in memory through the placement rules, not in SQL.
func (r *ScheduleRepository) ListByTeam(ctx context.Context, teamID string) ([]*secondary.ScheduleRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+scheduleSelectCols+" FROM scheduled_jobs WHERE team_id = ? ORDER BY starts_at ASC",
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar entries: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.ScheduleRecord
	for rows.Next() {
		record, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calendar entry: %w", err)
		}
		entries = append(entries, record)
	}

	return entries, nil
}

// UpdatePlacement stores a new interval together with the status and
// confirmation reset every move applies.
func (r *ScheduleRepository) UpdatePlacement(ctx context.Context, id string, start, end time.Time, status string, tenantConfirmed bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE scheduled_jobs SET starts_at = ?, ends_at = ?, status = ?, tenant_confirmed = ?, updated_at = ? WHERE id = ?",
		start, end, status, tenantConfirmed, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update placement: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar entry %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// ClearPlacement removes the interval and stores the given status.
func (r *ScheduleRepository) ClearPlacement(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE scheduled_jobs SET starts_at = NULL, ends_at = NULL, status = ?, tenant_confirmed = 0, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to clear placement: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar entry %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// SetConfirmation stores a tenant confirmation outcome.
func (r *ScheduleRepository) SetConfirmation(ctx context.Context, id, status string, tenantConfirmed bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE scheduled_jobs SET status = ?, tenant_confirmed = ?, updated_at = ? WHERE id = ?",
		status, tenantConfirmed, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set confirmation: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar entry %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// SetTimePreference stores the structured start preference.
func (r *ScheduleRepository) SetTimePreference(ctx context.Context, id string, startMinute, durationMinutes int) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE scheduled_jobs SET pref_start_minute = ?, pref_duration_minutes = ?, updated_at = ? WHERE id = ?",
		startMinute, durationMinutes, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to set time preference: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("calendar entry %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// Ensure ScheduleRepository implements the interface
var _ secondary.ScheduleRepository = (*ScheduleRepository)(nil)
