package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/upkeep/internal/ports/secondary"
)

// FavoriteRepository implements secondary.FavoriteRepository with SQLite.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new SQLite favorite repository.
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// IsFavorite reports whether the organization marked the contractor as a
// favorite.
func (r *FavoriteRepository) IsFavorite(ctx context.Context, orgID, contractorID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorite_contractors WHERE org_id = ? AND contractor_id = ?",
		orgID, contractorID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// Add marks a contractor as a favorite of the organization. Adding an
// existing favorite is a no-op.
func (r *FavoriteRepository) Add(ctx context.Context, orgID, contractorID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO favorite_contractors (id, org_id, contractor_id, created_at) VALUES (?, ?, ?, ?) ON CONFLICT(org_id, contractor_id) DO NOTHING",
		uuid.NewString(), orgID, contractorID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove clears the favorite mark.
func (r *FavoriteRepository) Remove(ctx context.Context, orgID, contractorID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM favorite_contractors WHERE org_id = ? AND contractor_id = ?",
		orgID, contractorID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// ListForOrg retrieves the organization's favorite contractors.
func (r *FavoriteRepository) ListForOrg(ctx context.Context, orgID string) ([]*secondary.FavoriteRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, org_id, contractor_id, created_at FROM favorite_contractors WHERE org_id = ? ORDER BY created_at ASC",
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*secondary.FavoriteRecord
	for rows.Next() {
		record := &secondary.FavoriteRecord{}
		if err := rows.Scan(&record.ID, &record.OrgID, &record.ContractorID, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, record)
	}

	return favorites, nil
}

// Ensure FavoriteRepository implements the interface
var _ secondary.FavoriteRepository = (*FavoriteRepository)(nil)
