package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// ProfileRepository implements secondary.ProfileRepository with SQLite.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite profile repository.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByContractor retrieves the profile for a contractor.
func (r *ProfileRepository) GetByContractor(ctx context.Context, contractorID string) (*secondary.ProfileRecord, error) {
	var specialties sql.NullString

	record := &secondary.ProfileRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, contractor_id, is_available, specialties, created_at, updated_at FROM contractor_profiles WHERE contractor_id = ?",
		contractorID,
	).Scan(&record.ID, &record.ContractorID, &record.Available, &specialties, &record.CreatedAt, &record.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile for %s: %w", contractorID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	record.Specialties = specialties.String
	return record, nil
}

// Upsert creates or replaces the profile for a contractor.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *secondary.ProfileRecord) error {
	var specialties sql.NullString
	if profile.Specialties != "" {
		specialties = sql.NullString{String: profile.Specialties, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contractor_profiles (id, contractor_id, is_available, specialties, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(contractor_id) DO UPDATE SET
			is_available = excluded.is_available,
			specialties = excluded.specialties,
			updated_at = excluded.updated_at`,
		profile.ID, profile.ContractorID, profile.Available, specialties, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// SetAvailable flips the availability toggle on a profile.
func (r *ProfileRepository) SetAvailable(ctx context.Context, contractorID string, available bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE contractor_profiles SET is_available = ?, updated_at = ? WHERE contractor_id = ?",
		available, time.Now().UTC(), contractorID,
	)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("profile for %s: %w", contractorID, secondary.ErrNotFound)
	}

	return nil
}

// Ensure ProfileRepository implements the interface
var _ secondary.ProfileRepository = (*ProfileRepository)(nil)
