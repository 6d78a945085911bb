// Package sweep runs the recurring background work: flushing
// lazily-expired proposals to storage and deactivating idle
// contractor/org links. Reads are correct without either sweep; they
// only keep stored rows in line with what readers already compute.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
)

const (
	// DefaultExpirySpec runs the proposal expiry sweep every ten
	// minutes. Proposals expire on a 48-hour deadline, so even a
	// generous interval keeps the stored rows close behind.
	DefaultExpirySpec = "@every 10m"

	// DefaultIdleLinkAfter matches the marketplace convention that a
	// relationship with no jobs for a quarter has lapsed.
	DefaultIdleLinkAfter = 90 * 24 * time.Hour
)

// Options configures which sweeps run and how often. Specs use the
// robfig cron syntax, including the @every shorthand.
type Options struct {
	// ExpirySpec schedules the proposal expiry sweep. Empty means
	// DefaultExpirySpec.
	ExpirySpec string

	// IdleLinkSpec schedules the idle-link sweep. Empty leaves the
	// sweep off; links then only deactivate through explicit admin
	// action.
	IdleLinkSpec string

	// IdleLinkAfter is how long a link may go without a job before the
	// sweep deactivates it.
	IdleLinkAfter time.Duration
}

// Sweeper schedules the background sweeps over the application
// services.
type Sweeper struct {
	cron      *cron.Cron
	proposals primary.ProposalService
	links     secondary.OrgLinkRepository
	logger    *log.Logger
	opts      Options
}

// cronLogger adapts our logger to the interface robfig/cron wants.
// Routine scheduling chatter goes to debug.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "err", err)...)
}

// NewSweeper creates a Sweeper. Zero-value options get defaults; an
// empty IdleLinkSpec disables the idle-link sweep.
func NewSweeper(proposals primary.ProposalService, links secondary.OrgLinkRepository, logger *log.Logger, opts Options) *Sweeper {
	if opts.ExpirySpec == "" {
		opts.ExpirySpec = DefaultExpirySpec
	}
	if opts.IdleLinkAfter <= 0 {
		opts.IdleLinkAfter = DefaultIdleLinkAfter
	}
	logger = logger.WithPrefix("sweep")
	return &Sweeper{
		cron:      cron.New(cron.WithLogger(cronLogger{logger})),
		proposals: proposals,
		links:     links,
		logger:    logger,
		opts:      opts,
	}
}

// Start registers the sweeps and starts the scheduler. The expiry sweep
// also runs once right away, so a restart flushes whatever expired
// while the service was down.
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.opts.ExpirySpec, func() { s.SweepExpiredProposals(ctx) }); err != nil {
		return fmt.Errorf("invalid expiry sweep spec %q: %w", s.opts.ExpirySpec, err)
	}
	if s.opts.IdleLinkSpec != "" {
		if _, err := s.cron.AddFunc(s.opts.IdleLinkSpec, func() { s.SweepIdleLinks(ctx) }); err != nil {
			return fmt.Errorf("invalid idle link sweep spec %q: %w", s.opts.IdleLinkSpec, err)
		}
	}

	s.cron.Start()
	s.logger.Debug("sweeps scheduled",
		"expiry", s.opts.ExpirySpec, "idle_links", s.opts.IdleLinkSpec)

	go s.SweepExpiredProposals(ctx)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx, cancel := context.WithTimeout(s.cron.Stop(), 30*time.Second)
	defer cancel()
	<-ctx.Done()
}

// SweepExpiredProposals flushes lazily-expired proposals to storage.
func (s *Sweeper) SweepExpiredProposals(ctx context.Context) {
	n, err := s.proposals.ExpireDue(ctx)
	if err != nil {
		s.logger.Error("proposal expiry sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired proposals", "count", n)
	}
}

// SweepIdleLinks deactivates links with no job activity inside the
// configured window.
func (s *Sweeper) SweepIdleLinks(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.opts.IdleLinkAfter)
	n, err := s.links.DeactivateIdleSince(ctx, cutoff)
	if err != nil {
		s.logger.Error("idle link sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.logger.Info("deactivated idle links", "count", n)
	}
}
