package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// AvailabilityRepository implements secondary.AvailabilityRepository
// with SQLite.
type AvailabilityRepository struct {
	db *sql.DB
}

// NewAvailabilityRepository creates a new SQLite availability repository.
func NewAvailabilityRepository(db *sql.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListWindows retrieves a contractor's recurring weekly windows.
func (r *AvailabilityRepository) ListWindows(ctx context.Context, contractorID string) ([]*secondary.AvailabilityRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, contractor_id, weekday, start_minute, end_minute FROM contractor_availability WHERE contractor_id = ? ORDER BY weekday ASC, start_minute ASC",
		contractorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability windows: %w", err)
	}
	defer rows.Close()

	var windows []*secondary.AvailabilityRecord
	for rows.Next() {
		record := &secondary.AvailabilityRecord{}
		if err := rows.Scan(&record.ID, &record.ContractorID, &record.Weekday, &record.StartMinute, &record.EndMinute); err != nil {
			return nil, fmt.Errorf("failed to scan availability window: %w", err)
		}
		windows = append(windows, record)
	}

	return windows, nil
}

// AddWindow persists a recurring weekly window.
func (r *AvailabilityRepository) AddWindow(ctx context.Context, window *secondary.AvailabilityRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO contractor_availability (id, contractor_id, weekday, start_minute, end_minute, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		window.ID, window.ContractorID, window.Weekday, window.StartMinute, window.EndMinute, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add availability window: %w", err)
	}
	return nil
}

// RemoveWindow deletes a recurring weekly window.
func (r *AvailabilityRepository) RemoveWindow(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contractor_availability WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove availability window: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("availability window %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// ListBlackouts retrieves a contractor's blackout ranges.
func (r *AvailabilityRepository) ListBlackouts(ctx context.Context, contractorID string) ([]*secondary.BlackoutRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, contractor_id, starts_on, ends_on, reason FROM contractor_blackouts WHERE contractor_id = ? ORDER BY starts_on ASC",
		contractorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list blackouts: %w", err)
	}
	defer rows.Close()

	var blackouts []*secondary.BlackoutRecord
	for rows.Next() {
		var reason sql.NullString
		record := &secondary.BlackoutRecord{}
		if err := rows.Scan(&record.ID, &record.ContractorID, &record.StartsOn, &record.EndsOn, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan blackout: %w", err)
		}
		record.Reason = reason.String
		blackouts = append(blackouts, record)
	}

	return blackouts, nil
}

// AddBlackout persists a blackout range.
func (r *AvailabilityRepository) AddBlackout(ctx context.Context, blackout *secondary.BlackoutRecord) error {
	var reason sql.NullString
	if blackout.Reason != "" {
		reason = sql.NullString{String: blackout.Reason, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO contractor_blackouts (id, contractor_id, starts_on, ends_on, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		blackout.ID, blackout.ContractorID, blackout.StartsOn, blackout.EndsOn, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add blackout: %w", err)
	}
	return nil
}

// RemoveBlackout deletes a blackout range.
func (r *AvailabilityRepository) RemoveBlackout(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contractor_blackouts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove blackout: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("blackout %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// Ensure AvailabilityRepository implements the interface
var _ secondary.AvailabilityRepository = (*AvailabilityRepository)(nil)
