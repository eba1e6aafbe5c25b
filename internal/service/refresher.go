package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher periodically reloads the snapshot of every active session
type Refresher struct {
	svc     *HealthService
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewRefresher schedules RefreshAll on a standard 5-field cron spec
func NewRefresher(svc *HealthService, spec string, timeout time.Duration, logger *zap.Logger) (*Refresher, error) {
	r := &Refresher{
		svc:     svc,
		cron:    cron.New(cron.WithLocation(svc.loc)),
		timeout: timeout,
		logger:  logger,
	}
	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start starts the scheduler and blocks until ctx is done
func (r *Refresher) Start(ctx context.Context) error {
	r.logger.Info("Starting snapshot refresher")
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("Snapshot refresher stopped")
	return nil
}

func (r *Refresher) run() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.RefreshAll(ctx)
}

// RefreshAll drops idle sessions, then reloads every remaining active session once
func (r *Refresher) RefreshAll(ctx context.Context) (successCount, errorCount int) {
	r.svc.EvictIdle()
	for _, userID := range r.svc.ActiveUsers() {
		select {
		case <-ctx.Done():
			return successCount, errorCount
		default:
		}
		if _, err := r.svc.reload(ctx, userID); err != nil && !errors.Is(err, ErrSuperseded) {
			r.logger.Error("Scheduled refresh failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			errorCount++
			continue
		}
		successCount++
	}

	r.logger.Info("Completed scheduled refresh",
		zap.Int("success_count", successCount),
		zap.Int("error_count", errorCount),
	)
	return successCount, errorCount
}
