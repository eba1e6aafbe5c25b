package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"healthlog/internal/aggregator"
	"healthlog/internal/cache"
	"healthlog/internal/classifier"
	"healthlog/internal/models"
	"healthlog/internal/normalizer"
	"healthlog/internal/report"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoIdentity neither a user id nor a share token was supplied
	ErrNoIdentity = errors.New("missing user identity")
	// ErrNoEntry nothing was logged on the requested date
	ErrNoEntry = errors.New("no entry for date")
)

// Fetcher loads the raw dashboard payload of a user
type Fetcher interface {
	FetchDashboard(ctx context.Context, userID string) ([]byte, error)
}

// ShareValidator resolves a share token to the owner's user id
type ShareValidator interface {
	ValidateShareToken(ctx context.Context, token string) (string, error)
}

// SnapshotStore optional snapshot cache
type SnapshotStore interface {
	Get(ctx context.Context, userID string) (*models.Snapshot, error)
	Put(ctx context.Context, snap *models.Snapshot) error
}

// Options HealthService settings; zero values fall back to defaults
type Options struct {
	Tables      classifier.Tables
	Location    *time.Location
	WeightScope aggregator.WeightScope
	Store       SnapshotStore
	Now         func() time.Time

	// IdleTTL drops sessions nobody has read for this long; zero keeps them forever
	IdleTTL time.Duration
}

type session struct {
	gen  Generation
	mu   sync.RWMutex
	snap *models.Snapshot

	// serializes cache writes so the newest commit is written last
	storeMu sync.Mutex

	// guarded by HealthService.mu
	lastUsed time.Time
}

func (s *session) get() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *session) set(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func (s *session) setIfEmpty(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		s.snap = snap
	}
}

// HealthService holds one read-only snapshot per user and derives every view from it
type HealthService struct {
	fetcher   Fetcher
	validator ShareValidator
	store     SnapshotStore
	tables    classifier.Tables
	loc       *time.Location
	weight    aggregator.WeightScope
	now       func() time.Time
	idleTTL   time.Duration
	logger    *zap.Logger

	loads    singleflight.Group
	mu       sync.Mutex
	sessions map[string]*session
}

// NewHealthService creates the service
func NewHealthService(fetcher Fetcher, validator ShareValidator, opts Options, logger *zap.Logger) *HealthService {
	if opts.Tables == nil {
		opts.Tables = classifier.DefaultTables()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WeightScope == "" {
		opts.WeightScope = aggregator.WeightLatestOverall
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &HealthService{
		fetcher:   fetcher,
		validator: validator,
		store:     opts.Store,
		tables:    opts.Tables,
		loc:       opts.Location,
		weight:    opts.WeightScope,
		now:       opts.Now,
		idleTTL:   opts.IdleTTL,
		logger:    logger,
		sessions:  make(map[string]*session),
	}
}

// session returns the session of userID; touch marks it as used by a reader
func (s *HealthService) session(userID string, touch bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{lastUsed: s.now()}
		s.sessions[userID] = sess
	}
	if touch {
		sess.lastUsed = s.now()
	}
	return sess
}

// EvictIdle drops sessions unused for longer than the idle TTL and returns how many went
func (s *HealthService) EvictIdle() int {
	if s.idleTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("Evicted idle sessions", zap.Int("count", evicted))
	}
	return evicted
}

// ActiveUsers users with a loaded snapshot, sorted
func (s *HealthService) ActiveUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]string, 0, len(s.sessions))
	for id, sess := range s.sessions {
		if sess.get() != nil {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users
}

// ResolveUser returns the owner of a share token, or userID for an owner session
func (s *HealthService) ResolveUser(ctx context.Context, userID, token string) (string, error) {
	if token != "" {
		if s.validator == nil {
			return "", fmt.Errorf("share sessions are not enabled")
		}
		owner, err := s.validator.ValidateShareToken(ctx, token)
		if err != nil {
			s.logger.Warn("Share token rejected", zap.Error(err))
			return "", err
		}
		return owner, nil
	}
	if userID == "" {
		return "", ErrNoIdentity
	}
	return userID, nil
}

// Snapshot returns the session snapshot, loading it from the cache or upstream on first use.
// Concurrent first reads share one load.
func (s *HealthService) Snapshot(ctx context.Context, userID string) (*models.Snapshot, error) {
	sess := s.session(userID, true)
	if snap := sess.get(); snap != nil {
		return snap, nil
	}

	ch := s.loads.DoChan(userID, func() (any, error) {
		return s.firstLoad(context.WithoutCancel(ctx), userID, sess)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *HealthService) firstLoad(ctx context.Context, userID string, sess *session) (*models.Snapshot, error) {
	if snap := sess.get(); snap != nil {
		return snap, nil
	}

	if s.store != nil {
		snap, err := s.store.Get(ctx, userID)
		if err == nil {
			sess.setIfEmpty(snap)
			return sess.get(), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Snapshot cache read failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	for {
		snap, err := s.refresh(ctx, userID, sess)
		if !errors.Is(err, ErrSuperseded) {
			return snap, err
		}
		// an explicit refresh overtook this load; take its result once it settles
		if err := sess.gen.Wait(ctx); err != nil {
			return nil, err
		}
		if cur := sess.get(); cur != nil {
			return cur, nil
		}
	}
}

// Refresh fetches a fresh snapshot and replaces the session's one wholesale.
// A load overtaken by a newer one returns ErrSuperseded and changes nothing.
func (s *HealthService) Refresh(ctx context.Context, userID string) (*models.Snapshot, error) {
	return s.refresh(ctx, userID, s.session(userID, true))
}

// reload refreshes without counting as a read, so scheduled refreshes do not keep sessions alive
func (s *HealthService) reload(ctx context.Context, userID string) (*models.Snapshot, error) {
	return s.refresh(ctx, userID, s.session(userID, false))
}

func (s *HealthService) refresh(ctx context.Context, userID string, sess *session) (*models.Snapshot, error) {
	loadCtx, token := sess.gen.Begin(ctx)

	logger := s.logger.With(
		zap.String("user_id", userID),
		zap.String("load_id", uuid.NewString()),
		zap.Uint64("generation", token),
	)
	logger.Debug("Loading snapshot")

	raw, err := s.fetcher.FetchDashboard(loadCtx, userID)
	if err != nil {
		if !sess.gen.IsLatest(token) {
			logger.Debug("Discarding superseded load")
			return nil, ErrSuperseded
		}
		sess.gen.Abandon(token)
		logger.Error("Snapshot fetch failed", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch snapshot: %w", err)
	}

	snap, err := normalizer.Normalize(raw)
	if err != nil {
		if !sess.gen.IsLatest(token) {
			return nil, ErrSuperseded
		}
		sess.gen.Abandon(token)
		logger.Error("Snapshot payload rejected", zap.Error(err))
		return nil, err
	}
	snap.UserID = userID
	snap.FetchedAt = s.now()

	if err := sess.gen.Commit(token, func() { sess.set(snap) }); err != nil {
		logger.Debug("Discarding superseded load")
		return nil, err
	}

	logger.Info("Snapshot loaded",
		zap.Int("readings", len(snap.Readings)),
		zap.Int("dropped", snap.Dropped),
	)

	s.storeSnapshot(ctx, sess, token, snap, logger)
	return snap, nil
}

// storeSnapshot writes snap to the cache unless a newer load has committed since
func (s *HealthService) storeSnapshot(ctx context.Context, sess *session, token uint64, snap *models.Snapshot, logger *zap.Logger) {
	if s.store == nil {
		return
	}
	sess.storeMu.Lock()
	defer sess.storeMu.Unlock()

	if !sess.gen.IsCommitted(token) {
		logger.Debug("Skipping cache write of superseded snapshot")
		return
	}
	if err := s.store.Put(ctx, snap); err != nil {
		logger.Warn("Failed to cache snapshot", zap.Error(err))
	}
}

// RangeQuery preset name plus optional custom bounds as written by the caller
type RangeQuery struct {
	Preset string
	Start  string
	End    string
}

func (s *HealthService) resolveRange(q RangeQuery) (aggregator.Preset, aggregator.DateRange, error) {
	p, err := aggregator.ParsePreset(q.Preset)
	if err != nil {
		return "", aggregator.DateRange{}, err
	}
	var start, end *models.Date
	if q.Start != "" {
		d, err := normalizer.ParseDate(q.Start)
		if err != nil {
			return "", aggregator.DateRange{}, err
		}
		start = &d
	}
	if q.End != "" {
		d, err := normalizer.ParseDate(q.End)
		if err != nil {
			return "", aggregator.DateRange{}, err
		}
		end = &d
	}
	r, err := aggregator.ResolvePreset(p, s.now().In(s.loc), start, end)
	return p, r, err
}

// RecordsView filtered raw records
type RecordsView struct {
	Range    aggregator.DateRange  `json:"range"`
	Readings []models.Reading      `json:"readings"`
	Weights  []models.WeightRecord `json:"weights"`
	Dropped  int                   `json:"dropped"`
}

// Records readings and weights inside the range
func (s *HealthService) Records(ctx context.Context, userID string, q RangeQuery) (*RecordsView, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	return &RecordsView{
		Range:    r,
		Readings: aggregator.Filter(snap.Readings, r),
		Weights:  aggregator.Filter(snap.Weights, r),
		Dropped:  snap.Dropped,
	}, nil
}

// StatsView vital statistics over a range
type StatsView struct {
	Range  aggregator.DateRange       `json:"range"`
	Counts aggregator.RecordingCounts `json:"counts"`
	Stats  aggregator.VitalStats      `json:"stats"`
}

// Stats overall and morning/evening statistics for sys, dia and pulse
func (s *HealthService) Stats(ctx context.Context, userID string, q RangeQuery) (*StatsView, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	readings := aggregator.Filter(snap.Readings, r)
	return &StatsView{
		Range:  r,
		Counts: aggregator.CountByTimeOfDay(readings),
		Stats:  aggregator.BuildVitalStats(readings),
	}, nil
}

// TrendView chart series
type TrendView struct {
	Range  aggregator.DateRange    `json:"range"`
	Points []aggregator.TrendPoint `json:"points"`
}

// Trend per-date averages over a range
func (s *HealthService) Trend(ctx context.Context, userID string, q RangeQuery) (*TrendView, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	return &TrendView{
		Range:  r,
		Points: aggregator.Trend(aggregator.Filter(snap.Readings, r)),
	}, nil
}

func (s *HealthService) merger(snap *models.Snapshot, policy string) (*aggregator.Merger, error) {
	p, err := aggregator.ParseMergePolicy(policy)
	if err != nil {
		return nil, err
	}
	return aggregator.NewMerger(snap, aggregator.MergeOptions{
		Policy:      p,
		WeightScope: s.weight,
		Table:       s.tables.Get(classifier.CalendarTable),
	}), nil
}

// CalendarView one month of daily entries plus navigation
type CalendarView struct {
	Month   string              `json:"month"`
	Prev    string              `json:"prev"`
	Next    string              `json:"next"`
	Entries []models.DailyEntry `json:"entries"`
}

// Calendar entries of a YYYY-MM month; empty month means the current one
func (s *HealthService) Calendar(ctx context.Context, userID, month, policy string) (*CalendarView, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if month == "" {
		month = s.now().In(s.loc).Format("2006-01")
	}
	r, err := aggregator.MonthRange(month)
	if err != nil {
		return nil, err
	}
	m, err := s.merger(snap, policy)
	if err != nil {
		return nil, err
	}
	prev, _ := aggregator.ShiftMonth(month, -1)
	next, _ := aggregator.ShiftMonth(month, 1)
	return &CalendarView{
		Month:   r.Start.Month(),
		Prev:    prev,
		Next:    next,
		Entries: m.MergeRange(r),
	}, nil
}

// Day the merged entry of one date
func (s *HealthService) Day(ctx context.Context, userID, date, policy string) (*models.DailyEntry, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	d, err := normalizer.ParseDate(date)
	if err != nil {
		return nil, err
	}
	m, err := s.merger(snap, policy)
	if err != nil {
		return nil, err
	}
	entry, ok := m.MergeDay(d)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, d)
	}
	return &entry, nil
}

// Summary health summary for a range; days > 0 overrides the preset denominator
func (s *HealthService) Summary(ctx context.Context, userID string, q RangeQuery, days int) (*aggregator.HealthSummary, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	summary := aggregator.BuildHealthSummary(snap, p, r, days)
	return &summary, nil
}

// ReportView classified report table with its summary
type ReportView struct {
	Range   aggregator.DateRange     `json:"range"`
	Rows    []report.Row             `json:"rows"`
	Summary aggregator.HealthSummary `json:"summary"`
	Profile json.RawMessage          `json:"profile,omitempty"`
}

// Report newest-first rows classified with the report table.
// limit 0 uses report.DefaultLimit, a negative limit keeps every row.
func (s *HealthService) Report(ctx context.Context, userID string, q RangeQuery, limit int) (*ReportView, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, r, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}
	switch {
	case limit == 0:
		limit = report.DefaultLimit
	case limit < 0:
		limit = 0
	}
	return &ReportView{
		Range:   r,
		Rows:    report.BuildRows(aggregator.Filter(snap.Readings, r), s.tables.Get(classifier.ReportTable), limit),
		Summary: aggregator.BuildHealthSummary(snap, p, r, 0),
		Profile: snap.Profile,
	}, nil
}

// Profile opaque gamification profile carried by the payload
func (s *HealthService) Profile(ctx context.Context, userID string) (json.RawMessage, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return snap.Profile, nil
}
