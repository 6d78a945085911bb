// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/upkeep/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Production connections run with foreign keys on; tests match.
	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedJob inserts a test job and returns its ID. Proposal, appointment
// and calendar rows all hang off a job, so most tests start here.
func seedJob(t *testing.T, db *sql.DB, id, orgID, title string) string {
	t.Helper()
	if id == "" {
		id = "job-001"
	}
	if orgID == "" {
		orgID = "org-hillcrest"
	}
	if title == "" {
		title = "Test Job"
	}
	_, err := db.Exec(
		"INSERT INTO jobs (id, org_id, title, priority, status, posted_at) VALUES (?, ?, ?, 'normal', 'New', ?)",
		id, orgID, title, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return id
}

// seedProposal inserts a pending test proposal (no slots) and returns its ID.
func seedProposal(t *testing.T, db *sql.DB, id, jobID, contractorID string) string {
	t.Helper()
	if id == "" {
		id = "prop-001"
	}
	if jobID == "" {
		jobID = "job-001"
	}
	if contractorID == "" {
		contractorID = "con-dana"
	}
	_, err := db.Exec(
		"INSERT INTO appointment_proposals (id, job_id, contractor_id, status, estimated_cost_cents, expires_at) VALUES (?, ?, ?, 'pending', 10000, ?)",
		id, jobID, contractorID, time.Now().UTC().Add(48*time.Hour),
	)
	if err != nil {
		t.Fatalf("failed to seed proposal: %v", err)
	}
	return id
}
