package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/example/upkeep/internal/adapters/sqlite"
	"github.com/example/upkeep/internal/ctxutil"
)

func TestAuditWriter_LogCreate(t *testing.T) {
	db := setupTestDB(t)
	writer := sqlite.NewAuditWriterAdapter(db)
	ctx := ctxutil.WithActor(context.Background(), ctxutil.Actor{UserID: "user-1", Role: ctxutil.RoleOwner})

	if err := writer.LogCreate(ctx, "job", "job-001"); err != nil {
		t.Fatalf("LogCreate failed: %v", err)
	}

	var actor, action string
	err := db.QueryRow("SELECT actor, action FROM audit_entries WHERE entity_type = 'job' AND entity_id = 'job-001'").Scan(&actor, &action)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if actor != "user-1" {
		t.Errorf("expected actor 'user-1', got '%s'", actor)
	}
	if action != "create" {
		t.Errorf("expected action 'create', got '%s'", action)
	}
}

func TestAuditWriter_LogUpdate(t *testing.T) {
	db := setupTestDB(t)
	writer := sqlite.NewAuditWriterAdapter(db)
	ctx := ctxutil.WithActor(context.Background(), ctxutil.Actor{UserID: "con-dana", Role: ctxutil.RoleContractor})

	if err := writer.LogUpdate(ctx, "job", "job-001", "status", "New", "In Review"); err != nil {
		t.Fatalf("LogUpdate failed: %v", err)
	}

	var fieldName, oldValue, newValue string
	err := db.QueryRow("SELECT field_name, old_value, new_value FROM audit_entries WHERE action = 'update'").Scan(&fieldName, &oldValue, &newValue)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if fieldName != "status" || oldValue != "New" || newValue != "In Review" {
		t.Errorf("expected status New->In Review, got %s %s->%s", fieldName, oldValue, newValue)
	}
}

// Entries written outside a request context carry a null actor.
func TestAuditWriter_NoActor(t *testing.T) {
	db := setupTestDB(t)
	writer := sqlite.NewAuditWriterAdapter(db)

	if err := writer.LogDelete(context.Background(), "policy", "pol-001"); err != nil {
		t.Fatalf("LogDelete failed: %v", err)
	}

	var actor sql.NullString
	err := db.QueryRow("SELECT actor FROM audit_entries WHERE action = 'delete'").Scan(&actor)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if actor.Valid {
		t.Errorf("expected null actor, got '%s'", actor.String)
	}
}
