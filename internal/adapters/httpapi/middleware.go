package httpapi

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/upkeep/internal/ctxutil"
)

// Caller identity headers. Authentication happens at the gateway in
// front of this service; it forwards the resolved identity here.
const (
	HeaderUser = "X-Upkeep-User"
	HeaderRole = "X-Upkeep-Role"
)

// Identity copies the forwarded caller identity into the request
// context. Requests without the headers pass through anonymous;
// handlers that need a caller reject those themselves.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUser)
		if userID != "" {
			actor := ctxutil.Actor{
				UserID: userID,
				Role:   r.Header.Get(HeaderRole),
			}
			r = r.WithContext(ctxutil.WithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request: method, path, status,
// duration and the chi request id.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	httpLogger := logger.WithPrefix("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			httpLogger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// requireActor returns the caller identity or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (ctxutil.Actor, bool) {
	actor := ctxutil.ActorFromContext(r.Context())
	if actor.UserID == "" {
		respondUnauthorized(w, "caller identity required")
		return ctxutil.Actor{}, false
	}
	return actor, true
}
