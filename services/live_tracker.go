package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultLiveRefresh = 15 * time.Second

// LiveGamesSource is satisfied by TournamentService.
type LiveGamesSource interface {
	LiveGames(ctx context.Context) ([]LiveGame, error)
}

type LiveSnapshot struct {
	Now       time.Time  `json:"now"`
	Rows      []LiveGame `json:"rows"`
	GameSlugs []string   `json:"gameSlugs"`
	// Stale is set when the last refresh failed and older rows are served.
	Stale bool `json:"stale,omitempty"`
}

// LiveTracker caches the live-games query. It refreshes at most once per
// interval, collapses concurrent refreshes into one call, and keeps serving
// the last good rows when a refresh fails.
type LiveTracker struct {
	source   LiveGamesSource
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	rows        []LiveGame
	lastAttempt time.Time
	stale       bool
}

func NewLiveTracker(source LiveGamesSource, interval time.Duration, logger *zap.Logger, now func() time.Time) *LiveTracker {
	if interval <= 0 {
		interval = DefaultLiveRefresh
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &LiveTracker{source: source, interval: interval, logger: logger, now: now}
}

// Get returns the cached snapshot, refreshing it first when the interval has
// elapsed or force is set.
func (t *LiveTracker) Get(ctx context.Context, force bool) *LiveSnapshot {
	if force || t.due() {
		_, _, _ = t.group.Do("live", func() (any, error) {
			// Re-check: a refresh may have finished while this caller waited.
			if !force && !t.due() {
				return nil, nil
			}
			t.refresh(context.WithoutCancel(ctx))
			return nil, nil
		})
	}
	return t.snapshot()
}

func (t *LiveTracker) due() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAttempt.IsZero() || t.now().Sub(t.lastAttempt) >= t.interval
}

func (t *LiveTracker) refresh(ctx context.Context) {
	rows, err := t.source.LiveGames(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastAttempt = t.now()
	if err != nil {
		t.stale = true
		t.logger.Warn("live games refresh failed", zap.Error(err))
		return
	}
	t.rows = rows
	t.stale = false
}

func (t *LiveTracker) snapshot() *LiveSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]LiveGame, len(t.rows))
	copy(rows, t.rows)
	slugs := make([]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.GameSlug]; ok {
			continue
		}
		seen[r.GameSlug] = struct{}{}
		slugs = append(slugs, r.GameSlug)
	}
	return &LiveSnapshot{Now: t.now(), Rows: rows, GameSlugs: slugs, Stale: t.stale}
}
