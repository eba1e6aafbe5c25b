package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"healthlog/internal/aggregator"
	"healthlog/internal/normalizer"
	"healthlog/internal/report"
	"healthlog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthHandler thin HTTP wrapper over HealthService
type HealthHandler struct {
	svc    *service.HealthService
	logger *zap.Logger
}

func NewHealthHandler(svc *service.HealthService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{svc: svc, logger: logger}
}

func rangeQuery(r *http.Request) service.RangeQuery {
	q := r.URL.Query()
	return service.RangeQuery{
		Preset: q.Get("preset"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
	}
}

// fail maps engine errors onto the envelope; caller mistakes keep their message
func (h *HealthHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, aggregator.ErrUnknownPreset),
		errors.Is(err, normalizer.ErrInvalidDate),
		errors.Is(err, service.ErrNoEntry):
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	case errors.Is(err, service.ErrSuperseded):
		writeJSON(w, http.StatusOK, Fail("a newer load is in progress"))
		return
	case errors.Is(err, normalizer.ErrMalformedPayload):
		h.logger.Error("Upstream payload malformed",
			zap.String("op", op),
			zap.String("user_id", UserIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail("health data is unavailable"))
		return
	}

	h.logger.Error(op+" failed",
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.String("user_id", UserIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to %s: %v", op, err)))
}

// Refresh POST /api/v1/refresh
func (h *HealthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Refresh(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"readings":   len(snap.Readings),
		"dropped":    snap.Dropped,
		"fetched_at": snap.FetchedAt,
	}))
}

// Records GET /api/v1/records
func (h *HealthHandler) Records(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Records(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r))
	if err != nil {
		h.fail(w, r, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Stats GET /api/v1/stats
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Stats(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r))
	if err != nil {
		h.fail(w, r, "compute stats", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Trend GET /api/v1/trend
func (h *HealthHandler) Trend(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Trend(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r))
	if err != nil {
		h.fail(w, r, "build trend", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Calendar GET /api/v1/calendar?month=YYYY-MM&policy=
func (h *HealthHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.svc.Calendar(r.Context(), UserIDFromContext(r.Context()), q.Get("month"), q.Get("policy"))
	if err != nil {
		h.fail(w, r, "build calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// Day GET /api/v1/calendar/{date}
func (h *HealthHandler) Day(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Day(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "date"), r.URL.Query().Get("policy"))
	if err != nil {
		h.fail(w, r, "load day", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(entry))
}

// Summary GET /api/v1/summary?preset=&days=
func (h *HealthHandler) Summary(w http.ResponseWriter, r *http.Request) {
	days := parseInt(r.URL.Query().Get("days"), 0)
	summary, err := h.svc.Summary(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r), days)
	if err != nil {
		h.fail(w, r, "build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}

// Report GET /api/v1/report?preset=&limit=
func (h *HealthHandler) Report(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	view, err := h.svc.Report(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r), limit)
	if err != nil {
		h.fail(w, r, "build report", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// ReportXLSX GET /api/v1/report.xlsx?preset=
func (h *HealthHandler) ReportXLSX(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), -1)
	view, err := h.svc.Report(r.Context(), UserIDFromContext(r.Context()), rangeQuery(r), limit)
	if err != nil {
		h.fail(w, r, "build report", err)
		return
	}

	excelData, err := report.GenerateWorkbook(view.Rows, &view.Summary)
	if err != nil {
		h.logger.Error("GenerateWorkbook failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=bp-report.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}

// Profile GET /api/v1/profile
func (h *HealthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Profile(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, "load profile", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(profile))
}
