package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/neexbeast/weatherwidget/internal/render"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	widget  WeatherWidget
	journal FailureJournal
	view    render.Options
	log     *slog.Logger
}

// NewHandlers constructs Handlers. journal may be nil when no database is configured.
func NewHandlers(w WeatherWidget, journal FailureJournal, view render.Options, log *slog.Logger) *Handlers {
	return &Handlers{
		widget:  w,
		journal: journal,
		view:    view,
		log:     log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// currentView projects the installed record. A store error is logged and
// treated as "no record"; the widget never shows an error state.
func (h *Handlers) currentView(ctx context.Context) *render.View {
	rec, err := h.widget.Current(ctx)
	if err != nil {
		h.log.Error("reading current record failed", "err", err)
		return nil
	}
	return render.Render(rec, h.view)
}

// submit runs one input cycle for city. Lookup failures are logged and
// journaled by the widget and not surfaced here.
func (h *Handlers) submit(ctx context.Context, city string) bool {
	in := h.widget.Input(ctx)
	in.Set(city)
	return in.Submit()
}

// Index handles GET /: the search form plus the panel once a record exists.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.HTML(w, render.Page{View: h.currentView(r.Context())}); err != nil {
		h.log.Error("rendering page failed", "err", err)
	}
}

// Search handles POST /search from the HTML form and redirects back to the page.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	h.submit(r.Context(), r.PostFormValue("city"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetWeather handles GET /api/v1/weather.
// Returns the current view, or 204 before the first successful lookup.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	v := h.currentView(r.Context())
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type searchRequest struct {
	City string `json:"city"`
}

// PostSearch handles POST /api/v1/search.
// Submits the city and answers with whatever is current afterwards.
func (h *Handlers) PostSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	h.submit(r.Context(), req.City)
	h.GetWeather(w, r)
}

// RecentFailures handles GET /api/v1/diagnostics/failures.
func (h *Handlers) RecentFailures(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "lookup journal not configured"})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	failures, err := h.journal.RecentFailures(r.Context(), limit)
	if err != nil {
		h.log.Error("listing failed lookups", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, failures)
}

// HealthHandlerFunc returns an http.HandlerFunc that pings every configured backend.
// Returns 200 if all respond, 503 otherwise.
func HealthHandlerFunc(pingers map[string]Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}

		for name, p := range pingers {
			if err := p.Ping(ctx); err != nil {
				log.Error("health check: ping failed", "backend", name, "err", err)
				body[name] = "error"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}

		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}
