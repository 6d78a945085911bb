package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures.
// Uses readable IDs and data that exercises the marketplace, proposal,
// policy, and schedule flows together: an org with an active policy,
// contractors in varying states, open and assigned jobs, a pending
// proposal, and calendar entries including a legacy-notes one.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()
	day := func(days, hour int) time.Time {
		return now.Truncate(24 * time.Hour).AddDate(0, 0, days).Add(time.Duration(hour) * time.Hour)
	}
	orNull := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}

	// Contractor profiles
	profiles := []struct {
		id, contractorID, specialties string
		available                     bool
	}{
		{"prof-dana", "con-dana", "plumbing, heating", true},
		{"prof-miles", "con-miles", "electrical", true},
		{"prof-iris", "con-iris", "hvac", false},
	}
	for _, p := range profiles {
		if _, err := database.Exec(
			"INSERT INTO contractor_profiles (id, contractor_id, is_available, specialties, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			p.id, p.contractorID, p.available, p.specialties, now, now,
		); err != nil {
			return fmt.Errorf("seed contractor_profiles: %w", err)
		}
	}

	// Contractor/org links; the Okafor one has gone quiet and is what
	// the idle-link sweep would pick up
	links := []struct {
		id, contractorID, orgID string
		lastJobAt               time.Time
	}{
		{"link-dana-hillcrest", "con-dana", "org-hillcrest", now.AddDate(0, 0, -7)},
		{"link-miles-hillcrest", "con-miles", "org-hillcrest", now.AddDate(0, 0, -75)},
	}
	for _, l := range links {
		if _, err := database.Exec(
			"INSERT INTO contractor_org_links (id, contractor_id, org_id, status, last_job_at, created_at, updated_at) VALUES (?, ?, ?, 'active', ?, ?, ?)",
			l.id, l.contractorID, l.orgID, l.lastJobAt, now, now,
		); err != nil {
			return fmt.Errorf("seed contractor_org_links: %w", err)
		}
	}

	// Favorites
	if _, err := database.Exec(
		"INSERT INTO favorite_contractors (id, org_id, contractor_id, created_at) VALUES (?, ?, ?, ?)",
		"fav-hillcrest-dana", "org-hillcrest", "con-dana", now,
	); err != nil {
		return fmt.Errorf("seed favorite_contractors: %w", err)
	}

	// Jobs
	jobs := []struct {
		id, orgID, contractorID, title, category, priority, status string
		urgent, favoritesOnly                                      bool
	}{
		{"job-leaky-faucet", "org-hillcrest", "", "Fix leaky kitchen faucet", "plumbing", "normal", "New", false, false},
		{"job-water-heater", "org-hillcrest", "", "Water heater not heating", "plumbing", "high", "New", true, false},
		{"job-fence-gate", "org-hillcrest", "", "Repair sagging fence gate", "carpentry", "low", "New", false, true},
		{"job-hall-light", "", "", "Hallway light flickering", "electrical", "normal", "New", false, false},
		{"job-boiler-service", "org-hillcrest", "con-dana", "Annual boiler service", "heating", "normal", "In Progress", false, false},
	}
	for _, j := range jobs {
		if _, err := database.Exec(
			"INSERT INTO jobs (id, org_id, assigned_contractor_id, title, category, priority, status, is_urgent, restrict_to_favorites, posted_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			j.id, orNull(j.orgID), orNull(j.contractorID), j.title, j.category, j.priority, j.status, j.urgent, j.favoritesOnly, now.AddDate(0, 0, -2), now, now,
		); err != nil {
			return fmt.Errorf("seed jobs: %w", err)
		}
	}

	// Active approval policy for the org: balanced mode with weekday
	// auto-approval under a cost ceiling, emergencies always through
	if _, err := database.Exec(
		`INSERT INTO approval_policies (
			id, org_id, is_active, involvement_mode, trusted_contractor_ids,
			auto_approve_weekdays, auto_approve_cost_limit_cents,
			auto_approve_emergencies, created_at, updated_at
		) VALUES (?, ?, 1, 'balanced', ?, 1, ?, 1, ?, ?)`,
		"pol-hillcrest", "org-hillcrest", `["con-dana"]`, 15000, now, now,
	); err != nil {
		return fmt.Errorf("seed approval_policies: %w", err)
	}

	// Dana works weekdays 8:00 to 17:00
	for weekday := 1; weekday <= 5; weekday++ {
		if _, err := database.Exec(
			"INSERT INTO contractor_availability (id, contractor_id, weekday, start_minute, end_minute, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			fmt.Sprintf("avail-dana-%d", weekday), "con-dana", weekday, 8*60, 17*60, now,
		); err != nil {
			return fmt.Errorf("seed contractor_availability: %w", err)
		}
	}

	// Upcoming blackout for Dana
	if _, err := database.Exec(
		"INSERT INTO contractor_blackouts (id, contractor_id, starts_on, ends_on, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		"blk-dana-trip", "con-dana", day(20, 0), day(24, 0), "family trip", now,
	); err != nil {
		return fmt.Errorf("seed contractor_blackouts: %w", err)
	}

	// Pending follow-up proposal on the boiler job with two slots
	if _, err := database.Exec(
		"INSERT INTO appointment_proposals (id, job_id, contractor_id, status, estimated_cost_cents, notes, expires_at, created_at, updated_at) VALUES (?, ?, ?, 'pending', ?, ?, ?, ?, ?)",
		"prop-boiler-followup", "job-boiler-service", "con-dana", 18500, "Needs a replacement valve, second visit", now.Add(48*time.Hour), now, now,
	); err != nil {
		return fmt.Errorf("seed appointment_proposals: %w", err)
	}
	slots := []struct {
		id       string
		start    time.Time
		duration time.Duration
	}{
		{"slot-boiler-1", day(3, 9), 2 * time.Hour},
		{"slot-boiler-2", day(4, 14), 2 * time.Hour},
	}
	for _, s := range slots {
		if _, err := database.Exec(
			"INSERT INTO proposal_slots (id, proposal_id, starts_at, ends_at, status, is_available_for_tenant, created_at) VALUES (?, ?, ?, ?, 'Pending', 1, ?)",
			s.id, "prop-boiler-followup", s.start, s.start.Add(s.duration), now,
		); err != nil {
			return fmt.Errorf("seed proposal_slots: %w", err)
		}
	}

	// Tomorrow's visit was direct-booked under the cost ceiling
	if _, err := database.Exec(
		"INSERT INTO appointments (id, job_id, contractor_id, proposal_id, starts_at, ends_at, estimated_cost_cents, tenant_approved, approval_reason, created_at) VALUES (?, ?, ?, NULL, ?, ?, ?, 1, ?, ?)",
		"appt-boiler", "job-boiler-service", "con-dana", day(1, 9), day(1, 11), 9900, "under auto-approve cost limit", now,
	); err != nil {
		return fmt.Errorf("seed appointments: %w", err)
	}

	// Calendar entries: one placed, one still carrying a legacy notes
	// preference for the import command to pick up
	if _, err := database.Exec(
		"INSERT INTO scheduled_jobs (id, job_id, team_id, starts_at, ends_at, status, tenant_confirmed, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 'Scheduled', 0, ?, ?)",
		"sched-boiler", "job-boiler-service", "team-north", day(1, 9), day(1, 11), now, now,
	); err != nil {
		return fmt.Errorf("seed scheduled_jobs: %w", err)
	}
	if _, err := database.Exec(
		"INSERT INTO scheduled_jobs (id, job_id, team_id, status, tenant_confirmed, notes, created_at, updated_at) VALUES (?, ?, ?, 'Unscheduled', 0, ?, ?, ?)",
		"sched-fence", "job-fence-gate", "team-north", `{"timePreferences":{"hour":14,"minute":0,"durationMinutes":90}}`, now, now,
	); err != nil {
		return fmt.Errorf("seed scheduled_jobs (legacy notes): %w", err)
	}

	return nil
}
