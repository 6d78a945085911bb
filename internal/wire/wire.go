// Package wire assembles the application: configuration, logger,
// database, repositories and services, built once and handed to the
// CLI and the API server.
package wire

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/example/upkeep/internal/adapters/httpapi"
	"github.com/example/upkeep/internal/adapters/notify"
	"github.com/example/upkeep/internal/adapters/sqlite"
	"github.com/example/upkeep/internal/app"
	"github.com/example/upkeep/internal/config"
	"github.com/example/upkeep/internal/db"
	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/ports/secondary"
	"github.com/example/upkeep/internal/sweep"
)

// App holds the assembled application.
type App struct {
	Config *config.Config
	Logger *log.Logger
	DB     *sql.DB

	// Redis is nil when no redis URL is configured; notifications then
	// go to the log.
	Redis *redis.Client

	Marketplace primary.MarketplaceService
	Proposals   primary.ProposalService
	Policies    primary.PolicyService
	Schedule    primary.ScheduleService

	// Links backs the idle-link sweep and admin commands.
	Links secondary.OrgLinkRepository
}

// New loads the configuration and assembles the application.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig assembles the application from an already-validated
// configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := NewLogger(cfg.Log)

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Repository adapters (secondary ports)
	jobRepo := sqlite.NewJobRepository(database)
	linkRepo := sqlite.NewOrgLinkRepository(database)
	favoriteRepo := sqlite.NewFavoriteRepository(database)
	profileRepo := sqlite.NewProfileRepository(database)
	policyRepo := sqlite.NewPolicyRepository(database)
	proposalRepo := sqlite.NewProposalRepository(database)
	apptRepo := sqlite.NewAppointmentRepository(database)
	availRepo := sqlite.NewAvailabilityRepository(database)
	scheduleRepo := sqlite.NewScheduleRepository(database)
	audit := sqlite.NewAuditWriterAdapter(database)

	// Outbound notification dispatch: redis pub/sub when configured,
	// the log otherwise.
	var notifier secondary.Notifier
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = notify.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		notifier = notify.NewRedisNotifier(rdb, cfg.Redis.Channel)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// Services (primary port implementations)
	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          database,
		Redis:       rdb,
		Marketplace: app.NewMarketplaceService(jobRepo, linkRepo, favoriteRepo, profileRepo, notifier, audit, logger),
		Proposals:   app.NewProposalService(proposalRepo, jobRepo, policyRepo, apptRepo, availRepo, notifier, audit, logger),
		Policies:    app.NewPolicyService(policyRepo, jobRepo, apptRepo, notifier, audit, logger),
		Schedule:    app.NewScheduleService(scheduleRepo, jobRepo, notifier, audit, logger),
		Links:       linkRepo,
	}, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRouter builds the HTTP API router over the assembled services.
func (a *App) NewRouter() *chi.Mux {
	return httpapi.NewRouter(httpapi.Deps{
		Marketplace:    a.Marketplace,
		Proposals:      a.Proposals,
		Policies:       a.Policies,
		Schedule:       a.Schedule,
		Logger:         a.Logger,
		AllowedOrigins: a.Config.HTTP.AllowedOrigins,
	})
}

// NewSweeper builds the background sweeper from the sweep
// configuration.
func (a *App) NewSweeper() *sweep.Sweeper {
	return sweep.NewSweeper(a.Proposals, a.Links, a.Logger, sweep.Options{
		ExpirySpec:    a.Config.Sweep.ExpirySpec,
		IdleLinkSpec:  a.Config.Sweep.IdleLinkSpec,
		IdleLinkAfter: time.Duration(a.Config.Sweep.IdleLinkDays) * 24 * time.Hour,
	})
}

// NewLogger builds the process logger from the log configuration.
// Unknown levels fall back to info; the config validates them earlier.
func NewLogger(cfg config.LogConfig) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	switch cfg.Format {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	}

	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}
