// Package httptransport assembles the HTTP surface: middleware chain, health
// and metrics endpoints, and the authenticated API routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	hosphandler "bloodlink/internal/hospital/handler"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	reghandler "bloodlink/internal/registration/handler"
	"bloodlink/internal/transport/http/shared"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router needs wired in.
type Deps struct {
	Logger        *slog.Logger
	Registrations *reghandler.Handler
	Hospitals     *hosphandler.Handler
	JWT           middleware.JWTValidator
	Metrics       *metrics.Metrics
	Health        func() error
}

// NewRouter mounts the full route tree. Health and metrics stay outside the
// auth gate; everything else requires a valid bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	if deps.Metrics != nil {
		r.Use(middleware.LatencyMiddleware(deps.Metrics))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.RequireAuth(deps.JWT, deps.Logger))

		deps.Registrations.Register(api)
		deps.Hospitals.Register(api)
	})

	return r
}
