package upstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrInvalidShareToken the share token was rejected or has expired
var ErrInvalidShareToken = errors.New("invalid share token")

// ShareValidation response of the share-token validation workflow
type ShareValidation struct {
	Valid     bool   `json:"valid"`
	UserID    string `json:"userId,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Expired reports whether ExpiresAt is a parseable instant before now
func (v ShareValidation) Expired(now time.Time) bool {
	if v.ExpiresAt == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, v.ExpiresAt)
	if err != nil {
		return false
	}
	return now.After(t)
}

// Options client settings
type Options struct {
	BaseURL           string
	DashboardPath     string
	ShareValidatePath string
	Timeout           time.Duration
	RetryCount        int

	// Now clock for share-token expiry; defaults to time.Now
	Now func() time.Time
}

// Client talks to the workflow endpoints that own the health logs
type Client struct {
	httpClient *resty.Client
	opts       Options
	logger     *zap.Logger
}

// NewClient creates the upstream client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		opts:       opts,
		logger:     logger,
	}
}

// FetchDashboard returns the raw dashboard payload for userID
func (c *Client) FetchDashboard(ctx context.Context, userID string) ([]byte, error) {
	c.logger.Debug("Fetching dashboard payload",
		zap.String("user_id", userID),
	)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("user_id", userID).
		Get(c.opts.DashboardPath)
	if err != nil {
		c.logger.Error("Dashboard fetch failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Dashboard fetch returned error status",
			zap.String("user_id", userID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("dashboard fetch: unexpected status %d", resp.StatusCode())
	}

	c.logger.Debug("Fetched dashboard payload",
		zap.String("user_id", userID),
		zap.Int("bytes", len(resp.Body())),
	)
	return resp.Body(), nil
}

// ValidateShareToken resolves a share token to the owner's user id
func (c *Client) ValidateShareToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidShareToken)
	}

	var result ShareValidation
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"token": token}).
		SetResult(&result).
		Post(c.opts.ShareValidatePath)
	if err != nil {
		c.logger.Error("Share token validation failed", zap.Error(err))
		return "", fmt.Errorf("failed to validate share token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("share token validation: unexpected status %d", resp.StatusCode())
	}

	if !result.Valid || result.UserID == "" {
		msg := result.Error
		if msg == "" {
			msg = "rejected"
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidShareToken, msg)
	}
	if result.Expired(c.opts.Now()) {
		return "", fmt.Errorf("%w: expired at %s", ErrInvalidShareToken, result.ExpiresAt)
	}
	return result.UserID, nil
}
