package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ports/secondary"
)

// PolicyRepository implements secondary.PolicyRepository with SQLite.
type PolicyRepository struct {
	db *sql.DB
}

// NewPolicyRepository creates a new SQLite policy repository.
func NewPolicyRepository(db *sql.DB) *PolicyRepository {
	return &PolicyRepository{db: db}
}

const policySelectCols = "id, org_id, is_active, involvement_mode, trusted_contractor_ids, auto_approve_weekdays, auto_approve_weekends, auto_approve_evenings, auto_approve_cost_limit_cents, require_approval_over_cents, auto_approve_emergencies, block_vacation_dates, vacation_start, vacation_end, created_at, updated_at"

func scanPolicy(scanner interface {
	Scan(dest ...any) error
}) (*secondary.PolicyRecord, error) {
	var (
		costLimit     sql.NullInt64
		reviewOver    sql.NullInt64
		vacationStart sql.NullTime
		vacationEnd   sql.NullTime
	)

	record := &secondary.PolicyRecord{}
	err := scanner.Scan(
		&record.ID, &record.OrgID, &record.IsActive, &record.InvolvementMode,
		&record.TrustedContractorIDs, &record.AutoApproveWeekdays, &record.AutoApproveWeekends,
		&record.AutoApproveEvenings, &costLimit, &reviewOver, &record.AutoApproveEmergencies,
		&record.BlockVacationDates, &vacationStart, &vacationEnd,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if costLimit.Valid {
		v := costLimit.Int64
		record.AutoApproveCostLimitCents = &v
	}
	if reviewOver.Valid {
		v := reviewOver.Int64
		record.RequireApprovalOverCents = &v
	}
	if vacationStart.Valid {
		t := vacationStart.Time
		record.VacationStart = &t
	}
	if vacationEnd.Valid {
		t := vacationEnd.Time
		record.VacationEnd = &t
	}

	return record, nil
}

// GetActiveByOrg retrieves the active policy for an organization. Legacy
// data can hold several active rows; the newest one wins.
func (r *PolicyRepository) GetActiveByOrg(ctx context.Context, orgID string) (*secondary.PolicyRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+policySelectCols+" FROM approval_policies WHERE org_id = ? AND is_active = 1 ORDER BY updated_at DESC LIMIT 1",
		orgID,
	)

	record, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active policy for org %s: %w", orgID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active policy: %w", err)
	}

	return record, nil
}

// ListByOrg retrieves all policies of an organization.
func (r *PolicyRepository) ListByOrg(ctx context.Context, orgID string) ([]*secondary.PolicyRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+policySelectCols+" FROM approval_policies WHERE org_id = ? ORDER BY created_at DESC",
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*secondary.PolicyRecord
	for rows.Next() {
		record, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, record)
	}

	return policies, nil
}

// Create persists a new policy.
func (r *PolicyRepository) Create(ctx context.Context, policy *secondary.PolicyRecord) error {
	var (
		costLimit     sql.NullInt64
		reviewOver    sql.NullInt64
		vacationStart sql.NullTime
		vacationEnd   sql.NullTime
	)
	if policy.AutoApproveCostLimitCents != nil {
		costLimit = sql.NullInt64{Int64: *policy.AutoApproveCostLimitCents, Valid: true}
	}
	if policy.RequireApprovalOverCents != nil {
		reviewOver = sql.NullInt64{Int64: *policy.RequireApprovalOverCents, Valid: true}
	}
	if policy.VacationStart != nil {
		vacationStart = sql.NullTime{Time: *policy.VacationStart, Valid: true}
	}
	if policy.VacationEnd != nil {
		vacationEnd = sql.NullTime{Time: *policy.VacationEnd, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO approval_policies (
			id, org_id, is_active, involvement_mode, trusted_contractor_ids,
			auto_approve_weekdays, auto_approve_weekends, auto_approve_evenings,
			auto_approve_cost_limit_cents, require_approval_over_cents,
			auto_approve_emergencies, block_vacation_dates, vacation_start, vacation_end,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		policy.ID, policy.OrgID, policy.IsActive, policy.InvolvementMode, policy.TrustedContractorIDs,
		policy.AutoApproveWeekdays, policy.AutoApproveWeekends, policy.AutoApproveEvenings,
		costLimit, reviewOver,
		policy.AutoApproveEmergencies, policy.BlockVacationDates, vacationStart, vacationEnd,
		policy.CreatedAt, policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	return nil
}

// Activate marks the policy active and deactivates every other policy of
// the same organization. Both writes happen in one transaction so a
// reader never sees two active policies for an org.
func (r *PolicyRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin activation: %w", err)
	}
	defer tx.Rollback()

	var orgID string
	err = tx.QueryRowContext(ctx, "SELECT org_id FROM approval_policies WHERE id = ?", id).Scan(&orgID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("policy %s: %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to resolve policy org: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		"UPDATE approval_policies SET is_active = 0, updated_at = ? WHERE org_id = ? AND is_active = 1",
		now, orgID,
	); err != nil {
		return fmt.Errorf("failed to deactivate sibling policies: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE approval_policies SET is_active = 1, updated_at = ? WHERE id = ?",
		now, id,
	); err != nil {
		return fmt.Errorf("failed to activate policy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}

	return nil
}

// Ensure PolicyRepository implements the interface
var _ secondary.PolicyRepository = (*PolicyRepository)(nil)
