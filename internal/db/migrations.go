package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "add_structured_time_preference_columns",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_decline_reason_to_proposals",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_proposal_expiry_sweep_index",
		Up:      migrationV3,
	},
}

const createSchemaVersionSQL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// LatestVersion returns the newest migration version this binary knows.
func LatestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the schema version recorded in the database.
func CurrentVersion(conn *sql.DB) (int, error) {
	var v int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return v, nil
}

// RunMigrations executes all pending migrations against the connection
func RunMigrations(conn *sql.DB) error {
	if _, err := conn.Exec(createSchemaVersionSQL); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion, err := CurrentVersion(conn)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		if err := migration.Up(conn); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 adds structured time preference columns to scheduled_jobs.
// Before this, tenant time preferences lived as JSON blobs inside the
// notes field; the schedule import command backfills these columns.
func migrationV1(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE scheduled_jobs ADD COLUMN pref_start_minute INTEGER`)
	if err != nil {
		return fmt.Errorf("failed to add pref_start_minute column: %w", err)
	}

	_, err = db.Exec(`ALTER TABLE scheduled_jobs ADD COLUMN pref_duration_minutes INTEGER`)
	if err != nil {
		return fmt.Errorf("failed to add pref_duration_minutes column: %w", err)
	}

	return nil
}

// migrationV2 adds decline_reason so owners can tell contractors why a
// proposal was turned down
func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE appointment_proposals ADD COLUMN decline_reason TEXT`)
	if err != nil {
		return fmt.Errorf("failed to add decline_reason column: %w", err)
	}

	return nil
}

// migrationV3 adds the composite index the expiry sweep scans on
func migrationV3(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_proposals_status ON appointment_proposals(status, expires_at)`)
	if err != nil {
		return fmt.Errorf("failed to create proposal status index: %w", err)
	}

	return nil
}
