package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/example/upkeep/internal/core/eligibility"
	"github.com/example/upkeep/internal/core/job"
	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

// MarketplaceServiceImpl implements the MarketplaceService interface.
type MarketplaceServiceImpl struct {
	jobRepo      secondary.JobRepository
	linkRepo     secondary.OrgLinkRepository
	favoriteRepo secondary.FavoriteRepository
	profileRepo  secondary.ProfileRepository
	notifier     secondary.Notifier
	audit        secondary.AuditWriter
	logger       *log.Logger
}

// NewMarketplaceService creates a new MarketplaceService with injected
// dependencies.
func NewMarketplaceService(
	jobRepo secondary.JobRepository,
	linkRepo secondary.OrgLinkRepository,
	favoriteRepo secondary.FavoriteRepository,
	profileRepo secondary.ProfileRepository,
	notifier secondary.Notifier,
	audit secondary.AuditWriter,
	logger *log.Logger,
) *MarketplaceServiceImpl {
	return &MarketplaceServiceImpl{
		jobRepo:      jobRepo,
		linkRepo:     linkRepo,
		favoriteRepo: favoriteRepo,
		profileRepo:  profileRepo,
		notifier:     notifier,
		audit:        audit,
		logger:       logger.WithPrefix("marketplace"),
	}
}

// CreateJob posts a new maintenance job.
func (s *MarketplaceServiceImpl) CreateJob(ctx context.Context, req primary.CreateJobRequest) (*primary.Job, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("job title is required")
	}

	priority := job.PriorityNormal
	if req.Priority != "" {
		p, err := job.ParsePriority(req.Priority)
		if err != nil {
			return nil, err
		}
		priority = p
	}

	now := time.Now().UTC()
	record := &secondary.JobRecord{
		ID:                  uuid.NewString(),
		OrgID:               req.OrgID,
		Title:               req.Title,
		Description:         req.Description,
		Category:            req.Category,
		Priority:            string(priority),
		Status:              string(job.InitialStatus()),
		IsUrgent:            req.IsUrgent,
		RestrictToFavorites: req.RestrictToFavorites,
		PostedAt:            now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.jobRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.audit.LogCreate(ctx, "job", record.ID); err != nil {
		s.logger.Warn("audit write failed", "job", record.ID, "err", err)
	}

	return recordToJob(record), nil
}

// GetJob retrieves a job by ID.
func (s *MarketplaceServiceImpl) GetJob(ctx context.Context, jobID string) (*primary.Job, error) {
	record, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return recordToJob(record), nil
}

// ListJobs lists jobs with optional filters.
func (s *MarketplaceServiceImpl) ListJobs(ctx context.Context, filters primary.JobFilters) ([]*primary.Job, error) {
	records, err := s.jobRepo.List(ctx, secondary.JobFilters{
		OrgID:        filters.OrgID,
		Status:       filters.Status,
		ContractorID: filters.ContractorID,
		Unassigned:   filters.Unassigned,
		Limit:        filters.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*primary.Job, len(records))
	for i, r := range records {
		jobs[i] = recordToJob(r)
	}
	return jobs, nil
}

// ListVisible returns the jobs currently visible to a contractor under
// the marketplace rules, each with an acceptance hint.
func (s *MarketplaceServiceImpl) ListVisible(ctx context.Context, contractorID string) ([]*primary.MarketplaceJob, error) {
	records, err := s.jobRepo.List(ctx, secondary.JobFilters{Unassigned: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	hasProfile, available, err := s.profileFacts(ctx, contractorID)
	if err != nil {
		return nil, err
	}

	activeOrgs, err := s.activeOrgSet(ctx, contractorID)
	if err != nil {
		return nil, err
	}

	// Favorites are looked up once per organization, only for jobs that
	// actually restrict to favorites.
	favorites := map[string]bool{}

	listing := []*primary.MarketplaceJob{}
	for _, r := range records {
		facts := eligibility.ContractorFacts{
			ContractorID:     contractorID,
			HasProfile:       hasProfile,
			ProfileAvailable: available,
			HasActiveOrgLink: activeOrgs[r.OrgID],
		}

		if r.OrgID != "" && r.RestrictToFavorites {
			fav, ok := favorites[r.OrgID]
			if !ok {
				fav, err = s.favoriteRepo.IsFavorite(ctx, r.OrgID, contractorID)
				if err != nil {
					return nil, fmt.Errorf("failed to check favorite: %w", err)
				}
				favorites[r.OrgID] = fav
			}
			facts.IsFavorite = fav
		}

		jobFacts := recordToJobFacts(r)
		if !eligibility.IsVisible(jobFacts, facts) {
			continue
		}

		decision := eligibility.CanAccept(jobFacts, facts)
		listing = append(listing, &primary.MarketplaceJob{
			Job:       recordToJob(r),
			CanAccept: decision.OK,
			Reason:    decision.Reason,
		})
	}

	return listing, nil
}

// Accept atomically hands an unassigned job to a contractor. The
// conditional claim is the sole concurrency guard: whichever of two
// racing contractors updates the row first wins, the other gets the
// same answer as for an already-assigned job.
func (s *MarketplaceServiceImpl) Accept(ctx context.Context, contractorID, jobID string) (*primary.AcceptResult, error) {
	record, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	facts, err := s.contractorFacts(ctx, contractorID, record)
	if err != nil {
		return nil, err
	}

	if decision := eligibility.CanAccept(recordToJobFacts(record), facts); !decision.OK {
		return &primary.AcceptResult{Accepted: false, Reason: decision.Reason}, nil
	}

	now := time.Now().UTC()
	claimed, err := s.jobRepo.Claim(ctx, jobID, contractorID, string(job.AcceptedStatus()), now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	if !claimed {
		// Lost the race after the precondition check passed. The caller
		// cannot distinguish this from a stale read, so neither do we.
		return &primary.AcceptResult{Accepted: false, Reason: eligibility.ReasonAlreadyAssigned}, nil
	}

	// The acceptance is durable from here on. The link is a best-effort
	// relationship cache and must not roll it back.
	if record.OrgID != "" {
		if err := s.linkRepo.Upsert(ctx, contractorID, record.OrgID, now); err != nil {
			s.logger.Warn("org link upsert failed after acceptance",
				"job", jobID, "contractor", contractorID, "org", record.OrgID, "err", err)
		}
	}

	if err := s.audit.LogUpdate(ctx, "job", jobID, "assigned_contractor_id", "", contractorID); err != nil {
		s.logger.Warn("audit write failed", "job", jobID, "err", err)
	}

	if record.OrgID != "" {
		err := s.notifier.Notify(ctx, record.OrgID, "a contractor accepted your maintenance job", map[string]string{
			"event":         "job.accepted",
			"job_id":        jobID,
			"contractor_id": contractorID,
		})
		if err != nil {
			s.logger.Warn("acceptance notification failed", "job", jobID, "err", err)
		}
	}

	accepted, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accepted job: %w", err)
	}

	return &primary.AcceptResult{Accepted: true, Job: recordToJob(accepted)}, nil
}

// profileFacts resolves the contractor's profile existence and
// availability toggle. A missing profile is a business fact, not an
// error.
func (s *MarketplaceServiceImpl) profileFacts(ctx context.Context, contractorID string) (hasProfile, available bool, err error) {
	profile, err := s.profileRepo.GetByContractor(ctx, contractorID)
	if err != nil {
		if isNotFound(err) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("failed to load contractor profile: %w", err)
	}
	return true, profile.Available, nil
}

// activeOrgSet resolves the organizations the contractor holds an
// active link with.
func (s *MarketplaceServiceImpl) activeOrgSet(ctx context.Context, contractorID string) (map[string]bool, error) {
	links, err := s.linkRepo.ListForContractor(ctx, contractorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list org links: %w", err)
	}

	active := make(map[string]bool, len(links))
	for _, l := range links {
		if l.Status == "active" {
			active[l.OrgID] = true
		}
	}
	return active, nil
}

// contractorFacts assembles the eligibility inputs for one contractor
// against one job.
func (s *MarketplaceServiceImpl) contractorFacts(ctx context.Context, contractorID string, record *secondary.JobRecord) (eligibility.ContractorFacts, error) {
	facts := eligibility.ContractorFacts{ContractorID: contractorID}

	hasProfile, available, err := s.profileFacts(ctx, contractorID)
	if err != nil {
		return facts, err
	}
	facts.HasProfile = hasProfile
	facts.ProfileAvailable = available

	if record.OrgID != "" {
		linked, err := s.linkRepo.HasActiveLink(ctx, contractorID, record.OrgID)
		if err != nil {
			return facts, fmt.Errorf("failed to check org link: %w", err)
		}
		facts.HasActiveOrgLink = linked

		if record.RestrictToFavorites {
			fav, err := s.favoriteRepo.IsFavorite(ctx, record.OrgID, contractorID)
			if err != nil {
				return facts, fmt.Errorf("failed to check favorite: %w", err)
			}
			facts.IsFavorite = fav
		}
	}

	return facts, nil
}

func recordToJobFacts(r *secondary.JobRecord) eligibility.JobFacts {
	return eligibility.JobFacts{
		OrgID:                r.OrgID,
		AssignedContractorID: r.AssignedContractorID,
		IsUrgent:             r.IsUrgent,
		RestrictToFavorites:  r.RestrictToFavorites,
		Category:             r.Category,
	}
}

func recordToJob(r *secondary.JobRecord) *primary.Job {
	return &primary.Job{
		ID:                   r.ID,
		OrgID:                r.OrgID,
		AssignedContractorID: r.AssignedContractorID,
		Title:                r.Title,
		Description:          r.Description,
		Category:             r.Category,
		Priority:             r.Priority,
		Status:               r.Status,
		IsUrgent:             r.IsUrgent,
		RestrictToFavorites:  r.RestrictToFavorites,
		PostedAt:             r.PostedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

var _ primary.MarketplaceService = (*MarketplaceServiceImpl)(nil)
