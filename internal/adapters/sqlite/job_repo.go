// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// JobRepository implements secondary.JobRepository with SQLite.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new SQLite job repository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobSelectCols = "id, org_id, assigned_contractor_id, title, description, category, priority, status, is_urgent, restrict_to_favorites, posted_at, created_at, updated_at"

// scanJob scans a job row into a JobRecord.
func scanJob(scanner interface {
	Scan(dest ...any) error
}) (*secondary.JobRecord, error) {
	var (
		orgID        sql.NullString
		contractorID sql.NullString
		desc         sql.NullString
		category     sql.NullString
		postedAt     sql.NullTime
	)

	record := &secondary.JobRecord{}
	err := scanner.Scan(
		&record.ID, &orgID, &contractorID, &record.Title, &desc, &category,
		&record.Priority, &record.Status, &record.IsUrgent, &record.RestrictToFavorites,
		&postedAt, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.OrgID = orgID.String
	record.AssignedContractorID = contractorID.String
	record.Description = desc.String
	record.Category = category.String
	if postedAt.Valid {
		record.PostedAt = postedAt.Time
	}

	return record, nil
}

// Create persists a new job.
func (r *JobRepository) Create(ctx context.Context, job *secondary.JobRecord) error {
	var orgID, contractorID, desc, category sql.NullString

	if job.OrgID != "" {
		orgID = sql.NullString{String: job.OrgID, Valid: true}
	}
	if job.AssignedContractorID != "" {
		contractorID = sql.NullString{String: job.AssignedContractorID, Valid: true}
	}
	if job.Description != "" {
		desc = sql.NullString{String: job.Description, Valid: true}
	}
	if job.Category != "" {
		category = sql.NullString{String: job.Category, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO jobs (id, org_id, assigned_contractor_id, title, description, category, priority, status, is_urgent, restrict_to_favorites, posted_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		job.ID, orgID, contractorID, job.Title, desc, category, job.Priority, job.Status,
		job.IsUrgent, job.RestrictToFavorites, job.PostedAt, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*secondary.JobRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+jobSelectCols+" FROM jobs WHERE id = ?",
		id,
	)

	record, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return record, nil
}

// List retrieves jobs matching the given filters.
func (r *JobRepository) List(ctx context.Context, filters secondary.JobFilters) ([]*secondary.JobRecord, error) {
	query := "SELECT " + jobSelectCols + " FROM jobs WHERE 1=1"
	args := []any{}

	if filters.OrgID != "" {
		query += " AND org_id = ?"
		args = append(args, filters.OrgID)
	}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.ContractorID != "" {
		query += " AND assigned_contractor_id = ?"
		args = append(args, filters.ContractorID)
	}

	if filters.Unassigned {
		query += " AND assigned_contractor_id IS NULL"
	}

	query += " ORDER BY posted_at DESC, created_at DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*secondary.JobRecord
	for rows.Next() {
		record, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, record)
	}

	return jobs, nil
}

// UpdateStatus updates the lifecycle status of a job.
func (r *JobRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("job %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// Claim atomically assigns an unassigned job to a contractor. The
// conditional WHERE is the only concurrency guard: of two contractors
// accepting at once, exactly one UPDATE matches.
func (r *JobRepository) Claim(ctx context.Context, jobID, contractorID, status string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE jobs SET assigned_contractor_id = ?, status = ?, updated_at = ? WHERE id = ? AND assigned_contractor_id IS NULL",
		contractorID, status, now, jobID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected == 1, nil
}

// Ensure JobRepository implements the interface
var _ secondary.JobRepository = (*JobRepository)(nil)
