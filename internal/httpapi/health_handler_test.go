package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthlog/internal/service"
	"healthlog/internal/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const payload = `{
  "profile": {"fish": 3},
  "records": [
    {"date": "2024-03-01", "period": "morning", "systolic": 118, "diastolic": 76},
    {"date": "2024-03-02", "period": "evening", "systolic": 142, "diastolic": 92}
  ],
  "bad_habits": [{"date": "2024-03-02", "high_salt": true}]
}`

type stubFetcher map[string]string

func (s stubFetcher) FetchDashboard(ctx context.Context, userID string) ([]byte, error) {
	p, ok := s[userID]
	if !ok {
		return nil, fmt.Errorf("unknown user %s", userID)
	}
	return []byte(p), nil
}

type stubValidator map[string]string

func (s stubValidator) ValidateShareToken(ctx context.Context, token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", upstream.ErrInvalidShareToken
}

func newTestRouter() http.Handler {
	svc := service.NewHealthService(
		stubFetcher{"U1": payload, "BROKEN": `42`},
		stubValidator{"share-1": "U1"},
		service.Options{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC) },
		},
		zap.NewNop(),
	)
	return NewRouter(svc, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req.Header.Set(headerUserID, userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Result[json.RawMessage] {
	t.Helper()
	var res Result[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Equal(t, ResultSuccess, decode(t, w).Code)
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(headerRequestID, "req-42")
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(headerRequestID))
}

func TestIdentityRequired(t *testing.T) {
	h := newTestRouter()

	w := do(t, h, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ResultError, decode(t, w).Code)

	w = do(t, h, http.MethodGet, "/api/v1/stats?token=bogus", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestShareTokenActsAsOwner(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/records?token=share-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)

	var view service.RecordsView
	require.NoError(t, json.Unmarshal(res.Result, &view))
	assert.Len(t, view.Readings, 2)
}

func TestStatsEndpoint(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/stats?preset=this-month", "U1")
	res := decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)

	var body struct {
		Stats struct {
			Systolic struct {
				Overall map[string]any `json:"overall"`
				Morning map[string]any `json:"morning"`
			} `json:"systolic"`
			Pulse struct {
				Overall map[string]any `json:"overall"`
			} `json:"pulse"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &body))
	assert.Equal(t, float64(130), body.Stats.Systolic.Overall["avg"])
	assert.Equal(t, float64(118), body.Stats.Systolic.Morning["max"])
	assert.Equal(t, "-", body.Stats.Pulse.Overall["avg"])
}

func TestStatsEndpoint_BadPreset(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/stats?preset=fortnight", "U1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ResultError, decode(t, w).Code)
}

func TestCalendarEndpoints(t *testing.T) {
	h := newTestRouter()

	w := do(t, h, http.MethodGet, "/api/v1/calendar?month=2024-03", "U1")
	res := decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	var cal service.CalendarView
	require.NoError(t, json.Unmarshal(res.Result, &cal))
	assert.Equal(t, "2024-04", cal.Next)
	require.Len(t, cal.Entries, 2)
	assert.Equal(t, "stage2", string(cal.Entries[1].Stage))

	w = do(t, h, http.MethodGet, "/api/v1/calendar/2024-03-02", "U1")
	res = decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	assert.Contains(t, string(res.Result), `"salty"`)

	w = do(t, h, http.MethodGet, "/api/v1/calendar/2024-03-09", "U1")
	assert.Equal(t, ResultError, decode(t, w).Code)
}

func TestSummaryAndReportEndpoints(t *testing.T) {
	h := newTestRouter()

	w := do(t, h, http.MethodGet, "/api/v1/summary?days=30", "U1")
	res := decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	assert.Contains(t, string(res.Result), `"days_in_range":30`)

	w = do(t, h, http.MethodGet, "/api/v1/report?limit=1", "U1")
	res = decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	var rep service.ReportView
	require.NoError(t, json.Unmarshal(res.Result, &rep))
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "high", string(rep.Rows[0].Stage))

	w = do(t, h, http.MethodGet, "/api/v1/report.xlsx", "U1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Readings", "A3")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", v)
}

func TestRefreshAndProfile(t *testing.T) {
	h := newTestRouter()

	w := do(t, h, http.MethodPost, "/api/v1/refresh", "U1")
	res := decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	assert.Contains(t, string(res.Result), `"readings":2`)

	w = do(t, h, http.MethodGet, "/api/v1/profile", "U1")
	res = decode(t, w)
	require.Equal(t, ResultSuccess, res.Code)
	assert.JSONEq(t, `{"fish":3}`, string(res.Result))
}

func TestMalformedUpstreamPayload(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/records", "BROKEN")
	res := decode(t, w)
	assert.Equal(t, ResultError, res.Code)
	assert.Equal(t, "health data is unavailable", res.Message)
}
