package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/upkeep/internal/ctxutil"
	"github.com/example/upkeep/internal/ports/secondary"
)

// AuditWriterAdapter implements secondary.AuditWriter by appending rows
// to the audit_entries table. The acting user comes from the request
// context; entries written outside a request carry a null actor.
type AuditWriterAdapter struct {
	db *sql.DB
}

// NewAuditWriterAdapter creates a new AuditWriterAdapter.
func NewAuditWriterAdapter(db *sql.DB) *AuditWriterAdapter {
	return &AuditWriterAdapter{db: db}
}

// LogCreate logs a create operation for an entity.
func (w *AuditWriterAdapter) LogCreate(ctx context.Context, entityType, entityID string) error {
	return w.writeEntry(ctx, entityType, entityID, "create", "", "", "")
}

// LogUpdate logs an update operation for an entity field.
func (w *AuditWriterAdapter) LogUpdate(ctx context.Context, entityType, entityID, fieldName, oldValue, newValue string) error {
	return w.writeEntry(ctx, entityType, entityID, "update", fieldName, oldValue, newValue)
}

// LogDelete logs a delete operation for an entity.
func (w *AuditWriterAdapter) LogDelete(ctx context.Context, entityType, entityID string) error {
	return w.writeEntry(ctx, entityType, entityID, "delete", "", "", "")
}

// writeEntry writes an audit entry with common logic.
func (w *AuditWriterAdapter) writeEntry(ctx context.Context, entityType, entityID, action, fieldName, oldValue, newValue string) error {
	actor := ctxutil.ActorFromContext(ctx)

	nullable := func(s string) sql.NullString {
		if s == "" {
			return sql.NullString{}
		}
		return sql.NullString{String: s, Valid: true}
	}

	_, err := w.db.ExecContext(ctx,
		"INSERT INTO audit_entries (actor, entity_type, entity_id, action, field_name, old_value, new_value, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		nullable(actor.UserID), entityType, entityID, action,
		nullable(fieldName), nullable(oldValue), nullable(newValue), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Ensure AuditWriterAdapter implements the interface
var _ secondary.AuditWriter = (*AuditWriterAdapter)(nil)
