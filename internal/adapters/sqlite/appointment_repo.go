package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/upkeep/internal/ports/secondary"
)

// AppointmentRepository implements secondary.AppointmentRepository with
// SQLite.
type AppointmentRepository struct {
	db *sql.DB
}

// NewAppointmentRepository creates a new SQLite appointment repository.
func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentSelectCols = "id, job_id, contractor_id, proposal_id, starts_at, ends_at, estimated_cost_cents, tenant_approved, approval_reason, created_at"

func scanAppointment(scanner interface {
	Scan(dest ...any) error
}) (*secondary.AppointmentRecord, error) {
	var (
		proposalID     sql.NullString
		approvalReason sql.NullString
	)

	record := &secondary.AppointmentRecord{}
	err := scanner.Scan(
		&record.ID, &record.JobID, &record.ContractorID, &proposalID,
		&record.StartsAt, &record.EndsAt, &record.EstimatedCostCents,
		&record.TenantApproved, &approvalReason, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.ProposalID = proposalID.String
	record.ApprovalReason = approvalReason.String

	return record, nil
}

// Create persists a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *secondary.AppointmentRecord) error {
	var proposalID, approvalReason sql.NullString
	if appt.ProposalID != "" {
		proposalID = sql.NullString{String: appt.ProposalID, Valid: true}
	}
	if appt.ApprovalReason != "" {
		approvalReason = sql.NullString{String: appt.ApprovalReason, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO appointments (id, job_id, contractor_id, proposal_id, starts_at, ends_at, estimated_cost_cents, tenant_approved, approval_reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		appt.ID, appt.JobID, appt.ContractorID, proposalID, appt.StartsAt, appt.EndsAt,
		appt.EstimatedCostCents, appt.TenantApproved, approvalReason, appt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by its ID.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*secondary.AppointmentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+appointmentSelectCols+" FROM appointments WHERE id = ?",
		id,
	)

	record, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("appointment %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return record, nil
}

// ListByJob retrieves appointments for a job, newest first.
func (r *AppointmentRepository) ListByJob(ctx context.Context, jobID string) ([]*secondary.AppointmentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+appointmentSelectCols+" FROM appointments WHERE job_id = ? ORDER BY created_at DESC",
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*secondary.AppointmentRecord
	for rows.Next() {
		record, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, record)
	}

	return appointments, nil
}

// SetTenantApproved records the outcome of an owner review.
func (r *AppointmentRepository) SetTenantApproved(ctx context.Context, id string, approved bool, reason string) error {
	var approvalReason sql.NullString
	if reason != "" {
		approvalReason = sql.NullString{String: reason, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE appointments SET tenant_approved = ?, approval_reason = ? WHERE id = ?",
		approved, approvalReason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set appointment approval: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// Ensure AppointmentRepository implements the interface
var _ secondary.AppointmentRepository = (*AppointmentRepository)(nil)
