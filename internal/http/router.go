// Package httpapi assembles the public HTTP surface: the signup wizard,
// sign-in, the directory, health, and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	directoryhandler "jiran/internal/directory/handler"
	identityhandler "jiran/internal/identity/handler"
	"jiran/internal/platform/middleware"
	signuphandler "jiran/internal/signup/handler"
	"jiran/pkg/platform/httputil"
)

// HealthCheck is one named dependency probe for /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Signup    *signuphandler.Handler
	Identity  *identityhandler.Handler
	Directory *directoryhandler.Handler
	Registry  *prometheus.Registry
	Health    []HealthCheck
}

// NewRouter wires the full route tree with the shared middleware chain.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestContext)
	r.Use(middleware.Logger(logger))

	deps.Signup.Register(r)
	deps.Identity.Register(r)
	deps.Directory.Register(r)

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[check.Name] = err.Error()
				continue
			}
			results[check.Name] = "ok"
		}

		httputil.WriteJSON(w, status, map[string]any{
			"status": http.StatusText(status),
			"checks": results,
		})
	}
}
