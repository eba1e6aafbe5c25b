package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"healthlog/internal/service"
	"healthlog/internal/upstream"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-Id"
	headerUserID    = "X-User-Id"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
)

// RequestIDFromContext request id set by requestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// UserIDFromContext user resolved by the identity middleware
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// requestID propagates the caller's X-Request-Id or issues a new uuid
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("HTTP request",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// identity resolves the acting user from X-User-Id or a share ?token=
func identity(svc *service.HealthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := svc.ResolveUser(r.Context(), r.Header.Get(headerUserID), r.URL.Query().Get("token"))
			if err != nil {
				switch {
				case errors.Is(err, service.ErrNoIdentity):
					writeJSON(w, http.StatusUnauthorized, Fail("user identity required"))
				case errors.Is(err, upstream.ErrInvalidShareToken):
					writeJSON(w, http.StatusUnauthorized, Fail("share link is invalid or expired"))
				default:
					logger.Error("Identity resolution failed",
						zap.String("request_id", RequestIDFromContext(r.Context())),
						zap.Error(err),
					)
					writeJSON(w, http.StatusOK, Fail("failed to resolve identity"))
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
		})
	}
}
