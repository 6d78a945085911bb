package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/upkeep/internal/adapters/sqlite"
	"github.com/example/upkeep/internal/ports/secondary"
)

func TestOrgLinkRepository_Upsert_CreatesLink(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", now); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	link, err := repo.Get(ctx, "con-dana", "org-hillcrest")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if link.Status != "active" {
		t.Errorf("expected status 'active', got '%s'", link.Status)
	}
	if link.LastJobAt == nil {
		t.Fatal("expected last job time to be set")
	}
}

func TestOrgLinkRepository_Upsert_RefreshesExistingLink(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	first := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", first); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}

	// A second accept for the same pair must not create another row.
	second := time.Now().UTC()
	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", second); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	links, err := repo.ListForContractor(ctx, "con-dana")
	if err != nil {
		t.Fatalf("ListForContractor failed: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("expected 1 link after repeated upsert, got %d", len(links))
	}
	if links[0].LastJobAt == nil || !links[0].LastJobAt.After(first) {
		t.Error("expected last job time to be refreshed")
	}
}

func TestOrgLinkRepository_HasActiveLink(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	active, err := repo.HasActiveLink(ctx, "con-dana", "org-hillcrest")
	if err != nil {
		t.Fatalf("HasActiveLink failed: %v", err)
	}
	if active {
		t.Error("expected no link before upsert")
	}

	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", time.Now().UTC()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	active, err = repo.HasActiveLink(ctx, "con-dana", "org-hillcrest")
	if err != nil {
		t.Fatalf("HasActiveLink failed: %v", err)
	}
	if !active {
		t.Error("expected active link after upsert")
	}
}

func TestOrgLinkRepository_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "con-ghost", "org-nowhere")
	if !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrgLinkRepository_DeactivateIdleSince(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", now); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, "con-miles", "org-hillcrest", now.Add(-90*24*time.Hour)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	cutoff := now.Add(-60 * 24 * time.Hour)
	changed, err := repo.DeactivateIdleSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("DeactivateIdleSince failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 deactivated link, got %d", changed)
	}

	stale, _ := repo.Get(ctx, "con-miles", "org-hillcrest")
	if stale.Status != "inactive" {
		t.Errorf("expected idle link to be inactive, got '%s'", stale.Status)
	}

	fresh, _ := repo.Get(ctx, "con-dana", "org-hillcrest")
	if fresh.Status != "active" {
		t.Errorf("expected recent link to stay active, got '%s'", fresh.Status)
	}
}

// Links that never recorded a job have a null last_job_at and count as
// idle for the sweep.
func TestOrgLinkRepository_DeactivateIdleSince_NullLastJob(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	_, err := db.Exec(
		"INSERT INTO contractor_org_links (id, contractor_id, org_id, status) VALUES ('link-001', 'con-iris', 'org-hillcrest', 'active')",
	)
	if err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	changed, err := repo.DeactivateIdleSince(ctx, time.Now().UTC().Add(-60*24*time.Hour))
	if err != nil {
		t.Fatalf("DeactivateIdleSince failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 deactivated link, got %d", changed)
	}
}

func TestOrgLinkRepository_ListForContractor(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewOrgLinkRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.Upsert(ctx, "con-dana", "org-hillcrest", now); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, "con-dana", "org-lakeview", now); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := repo.Upsert(ctx, "con-miles", "org-hillcrest", now); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	links, err := repo.ListForContractor(ctx, "con-dana")
	if err != nil {
		t.Fatalf("ListForContractor failed: %v", err)
	}
	if len(links) != 2 {
		t.Errorf("expected 2 links for con-dana, got %d", len(links))
	}
}
