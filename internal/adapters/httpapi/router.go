// Package httpapi exposes the application services as a JSON API.
// The surface is thin: decode, call the service, encode. Authentication
// lives in the gateway upstream; this layer only reads the forwarded
// identity headers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/example/upkeep/internal/ports/primary"
	"github.com/example/upkeep/internal/version"
)

// Deps carries everything the router needs.
type Deps struct {
	Marketplace primary.MarketplaceService
	Proposals   primary.ProposalService
	Policies    primary.PolicyService
	Schedule    primary.ScheduleService

	Logger         *log.Logger
	AllowedOrigins []string
}

// NewRouter builds the chi router with the full middleware chain and
// every API route mounted under /api.
func NewRouter(deps Deps) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(deps.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(corsHandler(deps.AllowedOrigins))
	router.Use(Identity)

	jobs := newJobHandler(deps.Marketplace)
	proposals := newProposalHandler(deps.Proposals)
	policies := newPolicyHandler(deps.Policies)
	schedule := newScheduleHandler(deps.Schedule)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{
				"status":  "ok",
				"version": version.String(),
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", jobs.create)
			r.Get("/", jobs.list)
			r.Get("/{jobID}", jobs.get)
			r.Post("/{jobID}/accept", jobs.accept)
			r.Post("/{jobID}/proposals", proposals.create)
			r.Get("/{jobID}/proposals", proposals.listByJob)
			r.Post("/{jobID}/book", policies.directBook)
			r.Post("/{jobID}/schedule", schedule.createEntry)
		})

		r.Get("/marketplace", jobs.marketplace)

		r.Route("/proposals", func(r chi.Router) {
			r.Get("/{proposalID}", proposals.get)
			r.Post("/{proposalID}/select", proposals.selectSlot)
			r.Post("/{proposalID}/decline", proposals.decline)
			r.Post("/{proposalID}/counter", proposals.counter)
		})

		r.Route("/orgs/{orgID}/policies", func(r chi.Router) {
			r.Get("/", policies.list)
			r.Get("/active", policies.getActive)
			r.Post("/", policies.create)
			r.Post("/init", policies.initDefaults)
			r.Post("/evaluate", policies.evaluate)
		})
		r.Post("/policies/{policyID}/activate", policies.activate)

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/{entryID}", schedule.get)
			r.Post("/{entryID}/move", schedule.move)
			r.Post("/{entryID}/confirm", schedule.confirm)
			r.Post("/{entryID}/unschedule", schedule.unschedule)
			r.Put("/{entryID}/preference", schedule.setPreference)
		})

		r.Get("/teams/{teamID}/calendar", schedule.dayView)
	})

	return router
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			HeaderUser,
			HeaderRole,
		},
		MaxAge: 300,
	})
}
