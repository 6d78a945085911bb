// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces through which the outside world drives the application.
package primary

import (
	"context"
	"time"
)

// MarketplaceService defines the primary port for the contractor
// marketplace: what a contractor can see and the atomic hand-off of an
// unassigned job.
type MarketplaceService interface {
	// CreateJob posts a new maintenance job.
	CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs lists jobs with optional filters.
	ListJobs(ctx context.Context, filters JobFilters) ([]*Job, error)

	// ListVisible returns the jobs currently visible to a contractor
	// under the marketplace rules, each with an acceptance hint.
	ListVisible(ctx context.Context, contractorID string) ([]*MarketplaceJob, error)

	// Accept atomically hands an unassigned job to a contractor.
	// Business failures (ineligible, already assigned, lost race) come
	// back in the result, not as an error.
	Accept(ctx context.Context, contractorID, jobID string) (*AcceptResult, error)
}

// CreateJobRequest contains parameters for posting a job.
type CreateJobRequest struct {
	OrgID               string // Optional: empty posts an org-less legacy job
	Title               string
	Description         string
	Category            string
	Priority            string // low, normal, high; defaults to normal
	IsUrgent            bool
	RestrictToFavorites bool
}

// AcceptResult contains the outcome of an acceptance attempt.
type AcceptResult struct {
	Accepted bool
	Reason   string // populated when not accepted, user-facing vocabulary
	Job      *Job   // the job after acceptance, set on success
}

// Job represents a maintenance job at the port boundary.
type Job struct {
	ID                   string
	OrgID                string
	AssignedContractorID string
	Title                string
	Description          string
	Category             string
	Priority             string
	Status               string
	IsUrgent             bool
	RestrictToFavorites  bool
	PostedAt             time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MarketplaceJob is a job as presented to one contractor, with the
// acceptance hint for that contractor.
type MarketplaceJob struct {
	Job       *Job
	CanAccept bool
	Reason    string // populated when CanAccept is false
}

// JobFilters contains filter options for listing jobs.
type JobFilters struct {
	OrgID        string
	Status       string
	ContractorID string
	Unassigned   bool
	Limit        int
}
