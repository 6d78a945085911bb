package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// ProposalRepository implements secondary.ProposalRepository with SQLite.
// Slots live and die with their parent proposal; every multi-row change
// happens in a transaction.
type ProposalRepository struct {
	db *sql.DB
}

// NewProposalRepository creates a new SQLite proposal repository.
func NewProposalRepository(db *sql.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

const proposalSelectCols = "id, job_id, contractor_id, status, estimated_cost_cents, notes, expires_at, selected_slot_id, auto_approved, auto_approval_reason, decline_reason, created_at, updated_at"

func scanProposal(scanner interface {
	Scan(dest ...any) error
}) (*secondary.ProposalRecord, error) {
	var (
		notes          sql.NullString
		selectedSlotID sql.NullString
		approvalReason sql.NullString
		declineReason  sql.NullString
	)

	record := &secondary.ProposalRecord{}
	err := scanner.Scan(
		&record.ID, &record.JobID, &record.ContractorID, &record.Status,
		&record.EstimatedCostCents, &notes, &record.ExpiresAt, &selectedSlotID,
		&record.AutoApproved, &approvalReason, &declineReason,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Notes = notes.String
	record.SelectedSlotID = selectedSlotID.String
	record.AutoApprovalReason = approvalReason.String
	record.DeclineReason = declineReason.String

	return record, nil
}

// Create persists a proposal and its slots in one transaction.
func (r *ProposalRepository) Create(ctx context.Context, proposal *secondary.ProposalRecord, slots []*secondary.SlotRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin proposal create: %w", err)
	}
	defer tx.Rollback()

	var notes sql.NullString
	if proposal.Notes != "" {
		notes = sql.NullString{String: proposal.Notes, Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO appointment_proposals (id, job_id, contractor_id, status, estimated_cost_cents, notes, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		proposal.ID, proposal.JobID, proposal.ContractorID, proposal.Status,
		proposal.EstimatedCostCents, notes, proposal.ExpiresAt, proposal.CreatedAt, proposal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	for _, slot := range slots {
		var conflictReason sql.NullString
		if slot.ConflictReason != "" {
			conflictReason = sql.NullString{String: slot.ConflictReason, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO proposal_slots (id, proposal_id, starts_at, ends_at, status, is_available_for_tenant, conflict_reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			slot.ID, slot.ProposalID, slot.StartsAt, slot.EndsAt, slot.Status,
			slot.IsAvailableForTenant, conflictReason, slot.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create proposal slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit proposal create: %w", err)
	}

	return nil
}

// GetByID retrieves a proposal by its ID.
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*secondary.ProposalRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+proposalSelectCols+" FROM appointment_proposals WHERE id = ?",
		id,
	)

	record, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("proposal %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return record, nil
}

// GetSlots retrieves the slots of a proposal ordered by start time.
func (r *ProposalRepository) GetSlots(ctx context.Context, proposalID string) ([]*secondary.SlotRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, proposal_id, starts_at, ends_at, status, is_available_for_tenant, conflict_reason, created_at FROM proposal_slots WHERE proposal_id = ? ORDER BY starts_at ASC",
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	defer rows.Close()

	var slots []*secondary.SlotRecord
	for rows.Next() {
		var conflictReason sql.NullString
		record := &secondary.SlotRecord{}
		err := rows.Scan(
			&record.ID, &record.ProposalID, &record.StartsAt, &record.EndsAt,
			&record.Status, &record.IsAvailableForTenant, &conflictReason, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		record.ConflictReason = conflictReason.String
		slots = append(slots, record)
	}

	return slots, nil
}

// ListByJob retrieves proposals for a job, newest first.
func (r *ProposalRepository) ListByJob(ctx context.Context, jobID string) ([]*secondary.ProposalRecord, error) {
	return r.list(ctx, "job_id", jobID)
}

// ListByContractor retrieves proposals made by a contractor, newest first.
func (r *ProposalRepository) ListByContractor(ctx context.Context, contractorID string) ([]*secondary.ProposalRecord, error) {
	return r.list(ctx, "contractor_id", contractorID)
}

func (r *ProposalRepository) list(ctx context.Context, column, value string) ([]*secondary.ProposalRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+proposalSelectCols+" FROM appointment_proposals WHERE "+column+" = ? ORDER BY created_at DESC",
		value,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*secondary.ProposalRecord
	for rows.Next() {
		record, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, record)
	}

	return proposals, nil
}

// FinalizeSelection applies a slot selection in one transaction: the
// proposal becomes accepted with the selected slot and auto-approval
// outcome, and every slot gets its final status. A concurrent reader
// never observes two Selected slots.
func (r *ProposalRepository) FinalizeSelection(ctx context.Context, proposalID, selectedSlotID string, slotStatuses map[string]string, autoApproved bool, approvalReason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin selection: %w", err)
	}
	defer tx.Rollback()

	var reason sql.NullString
	if approvalReason != "" {
		reason = sql.NullString{String: approvalReason, Valid: true}
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE appointment_proposals SET status = 'accepted', selected_slot_id = ?, auto_approved = ?, auto_approval_reason = ?, updated_at = ? WHERE id = ?",
		selectedSlotID, autoApproved, reason, time.Now().UTC(), proposalID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize proposal: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", proposalID, secondary.ErrNotFound)
	}

	for slotID, status := range slotStatuses {
		if _, err := tx.ExecContext(ctx,
			"UPDATE proposal_slots SET status = ? WHERE id = ? AND proposal_id = ?",
			status, slotID, proposalID,
		); err != nil {
			return fmt.Errorf("failed to update slot status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit selection: %w", err)
	}

	return nil
}

// Decline marks the proposal and all its slots declined in one
// transaction, recording the reason.
func (r *ProposalRepository) Decline(ctx context.Context, proposalID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin decline: %w", err)
	}
	defer tx.Rollback()

	var declineReason sql.NullString
	if reason != "" {
		declineReason = sql.NullString{String: reason, Valid: true}
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE appointment_proposals SET status = 'declined', decline_reason = ?, updated_at = ? WHERE id = ?",
		declineReason, time.Now().UTC(), proposalID,
	)
	if err != nil {
		return fmt.Errorf("failed to decline proposal: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", proposalID, secondary.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE proposal_slots SET status = 'Declined' WHERE proposal_id = ?",
		proposalID,
	); err != nil {
		return fmt.Errorf("failed to decline slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decline: %w", err)
	}

	return nil
}

// MarkCountered marks a proposal countered; the follow-up proposal row
// is created separately by the caller.
func (r *ProposalRepository) MarkCountered(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE appointment_proposals SET status = 'countered', updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark proposal countered: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("proposal %s: %w", id, secondary.ErrNotFound)
	}

	return nil
}

// ExpirePending flushes lazy expiry to storage: every pending proposal
// whose deadline is at or before now becomes expired.
func (r *ProposalRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE appointment_proposals SET status = 'expired', updated_at = ? WHERE status = 'pending' AND expires_at <= ?",
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire proposals: %w", err)
	}

	return result.RowsAffected()
}

// Ensure ProposalRepository implements the interface
var _ secondary.ProposalRepository = (*ProposalRepository)(nil)
