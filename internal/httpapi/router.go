package httpapi

import (
	"net/http"

	"healthlog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires every endpoint
func NewRouter(svc *service.HealthService, logger *zap.Logger) http.Handler {
	h := NewHealthHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity(svc, logger))
		RegisterRoutes(r, h)
	})
	return r
}

// RegisterRoutes health log endpoints
func RegisterRoutes(r chi.Router, h *HealthHandler) {
	r.Post("/refresh", h.Refresh)
	r.Get("/records", h.Records)
	r.Get("/stats", h.Stats)
	r.Get("/trend", h.Trend)
	r.Get("/calendar", h.Calendar)
	r.Get("/calendar/{date}", h.Day)
	r.Get("/summary", h.Summary)
	r.Get("/report", h.Report)
	r.Get("/report.xlsx", h.ReportXLSX)
	r.Get("/profile", h.Profile)
}
