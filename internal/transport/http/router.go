// Package httptransport assembles the public HTTP surface: middleware stack,
// public catalog and auth routes, the guarded account and library routes,
// and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accountHandler "playdex/internal/account/handler"
	authHandler "playdex/internal/auth/handler"
	catalogHandler "playdex/internal/catalog/handler"
	"playdex/internal/platform/health"
	"playdex/internal/platform/metrics"
	"playdex/internal/platform/middleware"
)

// Deps carries the wired handlers the router mounts.
type Deps struct {
	Auth    *authHandler.Handler
	Catalog *catalogHandler.Handler
	Account *accountHandler.Handler
	Health  *health.Handler

	// Guard resolves session cookies for the protected route group.
	Guard      middleware.IdentityResolver
	CookieName string

	Metrics *metrics.Metrics
}

// NewRouter wires all endpoints with the middleware stack. Protected routes
// share one identity guard; failing it redirects to the public landing page.
func NewRouter(deps Deps, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if deps.Metrics != nil {
		r.Use(middleware.Instrument(deps.Metrics))
	}
	r.Use(middleware.Timeout(30 * time.Second))

	deps.Auth.Register(r)
	deps.Catalog.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity(deps.Guard, deps.CookieName, "/", logger))
		deps.Catalog.RegisterProtected(r)
		deps.Account.Register(r)
	})

	deps.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
