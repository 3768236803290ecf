package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the optional pieces of the router.
type RouterConfig struct {
	// Token guards the diagnostics routes. Empty leaves them open.
	Token string
	// Pingers are probed by the health endpoint, keyed by backend name.
	Pingers map[string]Pinger
	// Metrics, if set, is mounted at /metrics.
	Metrics http.Handler
}

// NewRouter builds and returns the Chi router with all routes configured.
// Rate limiting is applied globally: 60 requests per minute per IP.
func NewRouter(handlers *Handlers, cfg RouterConfig, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/", handlers.Index)
	r.Post("/search", handlers.Search)

	r.Get("/api/v1/health", HealthHandlerFunc(cfg.Pingers, log))
	r.Get("/api/v1/weather", handlers.GetWeather)
	r.Post("/api/v1/search", handlers.PostSearch)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(cfg.Token))
		r.Get("/api/v1/diagnostics/failures", handlers.RecentFailures)
	})

	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
