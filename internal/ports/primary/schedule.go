package primary

import (
	"context"
	"time"
)

// ScheduleService defines the primary port for the day-based calendar:
// day views, drag-to-reschedule moves and tenant confirmation.
type ScheduleService interface {
	// CreateEntry creates a calendar entry for a job. Entries start
	// unscheduled; placement happens through Move.
	CreateEntry(ctx context.Context, req CreateScheduleRequest) (*ScheduledJob, error)

	// GetEntry retrieves a calendar entry by ID.
	GetEntry(ctx context.Context, scheduledJobID string) (*ScheduledJob, error)

	// GetByJob retrieves the calendar entry for a job.
	GetByJob(ctx context.Context, jobID string) (*ScheduledJob, error)

	// DayView returns the team's entries occupying the given calendar
	// day, under the half-open overlap rule.
	DayView(ctx context.Context, teamID string, day time.Time) ([]*ScheduledJob, error)

	// Move places an entry onto another day, preserving time-of-day and
	// exact duration for already-scheduled entries. Every move resets
	// tenant confirmation. Business failures come back in the result.
	Move(ctx context.Context, scheduledJobID string, targetDay time.Time) (*MoveResult, error)

	// Confirm records the tenant's confirmation of the current
	// placement.
	Confirm(ctx context.Context, scheduledJobID string) (*ConfirmResult, error)

	// Unschedule removes the entry's placement.
	Unschedule(ctx context.Context, scheduledJobID string) error

	// SetTimePreference stores the structured start preference used
	// when an unscheduled entry is first placed.
	SetTimePreference(ctx context.Context, scheduledJobID string, startMinute, durationMinutes int) error

	// ImportLegacyPreference decodes a time preference embedded in the
	// entry's legacy notes JSON and stores it structurally. Returns
	// whether one was found. One-shot migration helper, never a read
	// path.
	ImportLegacyPreference(ctx context.Context, scheduledJobID string) (bool, error)
}

// CreateScheduleRequest contains parameters for creating a calendar
// entry.
type CreateScheduleRequest struct {
	JobID        string
	TeamID       string
	IsAllDay     bool
	DurationDays int    // defaults to 1
	Notes        string // free text, may carry a legacy preference payload
}

// MoveResult contains the outcome of a move.
type MoveResult struct {
	Moved           bool
	Reason          string // populated when not moved
	Start           time.Time
	End             time.Time
	Status          string
	TenantConfirmed bool
}

// ConfirmResult contains the outcome of a tenant confirmation.
type ConfirmResult struct {
	Confirmed bool
	Reason    string // populated when not confirmed
}

// ScheduledJob represents a calendar entry at the port boundary.
type ScheduledJob struct {
	ID                  string
	JobID               string
	TeamID              string
	StartsAt            *time.Time
	EndsAt              *time.Time
	IsAllDay            bool
	DurationDays        int
	Status              string
	TenantConfirmed     bool
	PrefStartMinute     *int
	PrefDurationMinutes *int
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
