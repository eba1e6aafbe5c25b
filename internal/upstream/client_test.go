package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(srv *httptest.Server, retries int) *Client {
	return NewClient(Options{
		BaseURL:           srv.URL,
		DashboardPath:     "/webhook/bp-dashboard",
		ShareValidatePath: "/webhook/bpvalidate",
		Timeout:           2 * time.Second,
		RetryCount:        retries,
	}, zap.NewNop())
}

func TestFetchDashboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/webhook/bp-dashboard", r.URL.Path)
		assert.Equal(t, "U1", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"records":[]}`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv, 0).FetchDashboard(context.Background(), "U1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"records":[]}`, string(body))
}

func TestFetchDashboard_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := newTestClient(srv, 2).FetchDashboard(context.Background(), "U1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchDashboard_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 0).FetchDashboard(context.Background(), "U1")
	assert.Error(t, err)
}

func TestValidateShareToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		switch body["token"] {
		case "good":
			_, _ = w.Write([]byte(`{"valid":true,"userId":"U9","expiresAt":"2999-01-01T00:00:00Z"}`))
		case "old":
			_, _ = w.Write([]byte(`{"valid":true,"userId":"U9","expiresAt":"2000-01-01T00:00:00Z"}`))
		default:
			_, _ = w.Write([]byte(`{"valid":false,"error":"Token not found"}`))
		}
	}))
	defer srv.Close()
	c := newTestClient(srv, 0)

	userID, err := c.ValidateShareToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "U9", userID)

	_, err = c.ValidateShareToken(context.Background(), "old")
	assert.True(t, errors.Is(err, ErrInvalidShareToken))

	_, err = c.ValidateShareToken(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrInvalidShareToken))
	assert.Contains(t, err.Error(), "Token not found")

	_, err = c.ValidateShareToken(context.Background(), "")
	assert.True(t, errors.Is(err, ErrInvalidShareToken))
}

func TestValidateShareToken_ExpiryUsesClock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":true,"userId":"U9","expiresAt":"2024-06-01T12:00:00Z"}`))
	}))
	defer srv.Close()

	now := time.Date(2024, 6, 1, 11, 59, 0, 0, time.UTC)
	c := NewClient(Options{
		BaseURL:           srv.URL,
		ShareValidatePath: "/webhook/bpvalidate",
		Timeout:           2 * time.Second,
		Now:               func() time.Time { return now },
	}, zap.NewNop())

	userID, err := c.ValidateShareToken(context.Background(), "share")
	require.NoError(t, err)
	assert.Equal(t, "U9", userID)

	now = now.Add(2 * time.Minute)
	_, err = c.ValidateShareToken(context.Background(), "share")
	assert.True(t, errors.Is(err, ErrInvalidShareToken))
	assert.Contains(t, err.Error(), "expired")
}

func TestShareValidation_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.False(t, ShareValidation{}.Expired(now))
	assert.False(t, ShareValidation{ExpiresAt: "soon"}.Expired(now))
	assert.True(t, ShareValidation{ExpiresAt: "2023-12-31T23:59:59Z"}.Expired(now))
}
