package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/upkeep/internal/ports/secondary"
)

// OrgLinkRepository implements secondary.OrgLinkRepository with SQLite.
type OrgLinkRepository struct {
	db *sql.DB
}

// NewOrgLinkRepository creates a new SQLite org link repository.
func NewOrgLinkRepository(db *sql.DB) *OrgLinkRepository {
	return &OrgLinkRepository{db: db}
}

const linkSelectCols = "id, contractor_id, org_id, status, last_job_at, created_at, updated_at"

func scanLink(scanner interface {
	Scan(dest ...any) error
}) (*secondary.OrgLinkRecord, error) {
	var lastJobAt sql.NullTime

	record := &secondary.OrgLinkRecord{}
	err := scanner.Scan(
		&record.ID, &record.ContractorID, &record.OrgID, &record.Status,
		&lastJobAt, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastJobAt.Valid {
		t := lastJobAt.Time
		record.LastJobAt = &t
	}

	return record, nil
}

// Get retrieves the link for a (contractor, org) pair.
func (r *OrgLinkRepository) Get(ctx context.Context, contractorID, orgID string) (*secondary.OrgLinkRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+linkSelectCols+" FROM contractor_org_links WHERE contractor_id = ? AND org_id = ?",
		contractorID, orgID,
	)

	record, err := scanLink(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("link %s/%s: %w", contractorID, orgID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return record, nil
}

// HasActiveLink reports whether an active link exists for the pair.
func (r *OrgLinkRepository) HasActiveLink(ctx context.Context, contractorID, orgID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contractor_org_links WHERE contractor_id = ? AND org_id = ? AND status = 'active'",
		contractorID, orgID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check link: %w", err)
	}
	return count > 0, nil
}

// Upsert creates an active link for the pair or refreshes the existing
// one. The UNIQUE(contractor_id, org_id) constraint drives the conflict
// clause, so repeated accepts never pile up rows.
func (r *OrgLinkRepository) Upsert(ctx context.Context, contractorID, orgID string, lastJobAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contractor_org_links (id, contractor_id, org_id, status, last_job_at, created_at, updated_at)
		 VALUES (?, ?, ?, 'active', ?, ?, ?)
		 ON CONFLICT(contractor_id, org_id) DO UPDATE SET
			status = 'active',
			last_job_at = excluded.last_job_at,
			updated_at = excluded.updated_at`,
		uuid.NewString(), contractorID, orgID, lastJobAt, lastJobAt, lastJobAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert link: %w", err)
	}

	return nil
}

// ListForContractor retrieves all links held by a contractor.
func (r *OrgLinkRepository) ListForContractor(ctx context.Context, contractorID string) ([]*secondary.OrgLinkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+linkSelectCols+" FROM contractor_org_links WHERE contractor_id = ? ORDER BY created_at ASC",
		contractorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []*secondary.OrgLinkRecord
	for rows.Next() {
		record, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, record)
	}

	return links, nil
}

// DeactivateIdleSince marks active links with no job activity since the
// cutoff as inactive. Links that never recorded a job count as idle.
func (r *OrgLinkRepository) DeactivateIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE contractor_org_links SET status = 'inactive', updated_at = ? WHERE status = 'active' AND (last_job_at IS NULL OR last_job_at < ?)",
		time.Now().UTC(), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate idle links: %w", err)
	}

	return result.RowsAffected()
}

// Ensure OrgLinkRepository implements the interface
var _ secondary.OrgLinkRepository = (*OrgLinkRepository)(nil)
