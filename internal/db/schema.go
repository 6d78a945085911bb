package db

import "database/sql"

// SchemaSQL is the complete modern schema for fresh upkeep installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Tests
// use it via GetSchemaSQL() instead of hardcoding their own CREATE
// TABLE statements, so repository code that references a column not
// listed here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
//
// All timestamps are stored in UTC.
const SchemaSQL = `
-- Jobs (maintenance work posted by property organizations)
-- org_id is NULL for legacy org-less jobs; assigned_contractor_id is
-- NULL while the job sits open on the marketplace
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	org_id TEXT,
	assigned_contractor_id TEXT,
	title TEXT NOT NULL,
	description TEXT,
	category TEXT,
	priority TEXT NOT NULL CHECK(priority IN ('low', 'normal', 'high')) DEFAULT 'normal',
	status TEXT NOT NULL CHECK(status IN ('New', 'In Review', 'Scheduled', 'In Progress', 'On Hold', 'Resolved', 'Closed')) DEFAULT 'New',
	is_urgent INTEGER NOT NULL DEFAULT 0,
	restrict_to_favorites INTEGER NOT NULL DEFAULT 0,
	posted_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Contractor/org links (working relationships, one row per pair)
CREATE TABLE IF NOT EXISTS contractor_org_links (
	id TEXT PRIMARY KEY,
	contractor_id TEXT NOT NULL,
	org_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('active', 'inactive')) DEFAULT 'active',
	last_job_at DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(contractor_id, org_id)
);

-- Favorites (orgs marking preferred contractors)
CREATE TABLE IF NOT EXISTS favorite_contractors (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL,
	contractor_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(org_id, contractor_id)
);

-- Contractor profiles (marketplace visibility switch)
CREATE TABLE IF NOT EXISTS contractor_profiles (
	id TEXT PRIMARY KEY,
	contractor_id TEXT NOT NULL UNIQUE,
	is_available INTEGER NOT NULL DEFAULT 1,
	specialties TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Approval policies (auto-approval rules, at most one active per org)
CREATE TABLE IF NOT EXISTS approval_policies (
	id TEXT PRIMARY KEY,
	org_id TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 0,
	involvement_mode TEXT NOT NULL CHECK(involvement_mode IN ('hands-off', 'balanced', 'hands-on')) DEFAULT 'balanced',
	trusted_contractor_ids TEXT NOT NULL DEFAULT '[]',
	auto_approve_weekdays INTEGER NOT NULL DEFAULT 0,
	auto_approve_weekends INTEGER NOT NULL DEFAULT 0,
	auto_approve_evenings INTEGER NOT NULL DEFAULT 0,
	auto_approve_cost_limit_cents INTEGER,
	require_approval_over_cents INTEGER,
	auto_approve_emergencies INTEGER NOT NULL DEFAULT 0,
	block_vacation_dates INTEGER NOT NULL DEFAULT 0,
	vacation_start DATETIME,
	vacation_end DATETIME,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Appointment proposals (contractor-offered time slots awaiting a pick)
CREATE TABLE IF NOT EXISTS appointment_proposals (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	contractor_id TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('pending', 'accepted', 'declined', 'countered', 'expired')) DEFAULT 'pending',
	estimated_cost_cents INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	expires_at DATETIME NOT NULL,
	selected_slot_id TEXT,
	auto_approved INTEGER NOT NULL DEFAULT 0,
	auto_approval_reason TEXT,
	decline_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);

-- Proposal slots (the concrete times offered on a proposal)
CREATE TABLE IF NOT EXISTS proposal_slots (
	id TEXT PRIMARY KEY,
	proposal_id TEXT NOT NULL,
	starts_at DATETIME NOT NULL,
	ends_at DATETIME NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('Pending', 'Selected', 'Declined')) DEFAULT 'Pending',
	is_available_for_tenant INTEGER NOT NULL DEFAULT 1,
	conflict_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (proposal_id) REFERENCES appointment_proposals(id) ON DELETE CASCADE
);

-- Appointments (booked visits; proposal_id empty for direct bookings)
CREATE TABLE IF NOT EXISTS appointments (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL,
	contractor_id TEXT NOT NULL,
	proposal_id TEXT,
	starts_at DATETIME NOT NULL,
	ends_at DATETIME NOT NULL,
	estimated_cost_cents INTEGER NOT NULL DEFAULT 0,
	tenant_approved INTEGER NOT NULL DEFAULT 0,
	approval_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);

-- Scheduled jobs (team calendar entries, one per job)
CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id TEXT PRIMARY KEY,
	job_id TEXT NOT NULL UNIQUE,
	team_id TEXT NOT NULL,
	starts_at DATETIME,
	ends_at DATETIME,
	is_all_day INTEGER NOT NULL DEFAULT 0,
	duration_days INTEGER NOT NULL DEFAULT 1,
	status TEXT NOT NULL CHECK(status IN ('Unscheduled', 'Scheduled', 'Needs Review', 'Confirmed', 'In Progress', 'Completed', 'Cancelled')) DEFAULT 'Unscheduled',
	tenant_confirmed INTEGER NOT NULL DEFAULT 0,
	pref_start_minute INTEGER,
	pref_duration_minutes INTEGER,
	notes TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);

-- Contractor availability (weekly working windows, minutes from midnight)
CREATE TABLE IF NOT EXISTS contractor_availability (
	id TEXT PRIMARY KEY,
	contractor_id TEXT NOT NULL,
	weekday INTEGER NOT NULL CHECK(weekday BETWEEN 0 AND 6),
	start_minute INTEGER NOT NULL,
	end_minute INTEGER NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Contractor blackouts (date ranges a contractor is away, end inclusive)
CREATE TABLE IF NOT EXISTS contractor_blackouts (
	id TEXT PRIMARY KEY,
	contractor_id TEXT NOT NULL,
	starts_on DATETIME NOT NULL,
	ends_on DATETIME NOT NULL,
	reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Audit entries (who changed what, best-effort)
CREATE TABLE IF NOT EXISTS audit_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	actor TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update', 'delete')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_jobs_org ON jobs(org_id);
CREATE INDEX IF NOT EXISTS idx_jobs_contractor ON jobs(assigned_contractor_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_links_contractor ON contractor_org_links(contractor_id);
CREATE INDEX IF NOT EXISTS idx_links_org ON contractor_org_links(org_id);
CREATE INDEX IF NOT EXISTS idx_favorites_org ON favorite_contractors(org_id);
CREATE INDEX IF NOT EXISTS idx_profiles_contractor ON contractor_profiles(contractor_id);
CREATE INDEX IF NOT EXISTS idx_policies_org ON approval_policies(org_id);
CREATE INDEX IF NOT EXISTS idx_policies_active ON approval_policies(org_id, is_active);
CREATE INDEX IF NOT EXISTS idx_proposals_job ON appointment_proposals(job_id);
CREATE INDEX IF NOT EXISTS idx_proposals_contractor ON appointment_proposals(contractor_id);
CREATE INDEX IF NOT EXISTS idx_proposals_status ON appointment_proposals(status, expires_at);
CREATE INDEX IF NOT EXISTS idx_slots_proposal ON proposal_slots(proposal_id);
CREATE INDEX IF NOT EXISTS idx_appointments_job ON appointments(job_id);
CREATE INDEX IF NOT EXISTS idx_appointments_contractor ON appointments(contractor_id);
CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_team ON scheduled_jobs(team_id);
CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_status ON scheduled_jobs(status);
CREATE INDEX IF NOT EXISTS idx_availability_contractor ON contractor_availability(contractor_id);
CREATE INDEX IF NOT EXISTS idx_blackouts_contractor ON contractor_blackouts(contractor_id);
CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_entries(entity_type, entity_id);
`

// InitSchema brings the connected database up to the current schema.
// Fresh installs get the full modern schema directly and mark every
// migration as applied; existing installs run pending migrations.
func InitSchema(conn *sql.DB) error {
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		if _, err := conn.Exec(SchemaSQL); err != nil {
			return err
		}
		if _, err := conn.Exec(createSchemaVersionSQL); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations(conn)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to
// prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
