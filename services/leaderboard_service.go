package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"illusion-arcade/leaderboard"
	"illusion-arcade/metrics"
	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const (
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
	PeriodAll    = "all"

	defaultBoardLimit = 10
	maxBoardLimit     = 200
	boardCacheTTL     = 15 * time.Second
)

// ByteCache is the read cache in front of best-score queries.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

type LeaderboardDeps struct {
	// Store is nil in degraded mode; Fallback then serves every call.
	Store    repositories.LeaderboardStore
	Fallback *leaderboard.Store
	Cache    ByteCache
	Players  PlayerNamer
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	Now      func() time.Time
}

type LeaderboardService struct {
	store    repositories.LeaderboardStore
	fallback *leaderboard.Store
	cache    ByteCache
	players  PlayerNamer
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewLeaderboardService(d LeaderboardDeps) *LeaderboardService {
	s := &LeaderboardService{
		store:    d.Store,
		fallback: d.Fallback,
		cache:    d.Cache,
		players:  d.Players,
		metrics:  d.Metrics,
		logger:   d.Logger,
		now:      d.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Degraded reports whether the service runs on the in-process fallback store.
func (s *LeaderboardService) Degraded() bool { return s.store == nil }

type LeaderboardItem struct {
	Rank      int       `json:"rank"`
	UserID    string    `json:"userId,omitempty"`
	Player    string    `json:"player"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type TopResult struct {
	Items    []LeaderboardItem `json:"items"`
	GameSlug string            `json:"gameSlug"`
	Limit    int               `json:"limit"`
	Period   string            `json:"period"`
}

// ParsePeriod canonicalizes a period name. Empty means daily.
func ParsePeriod(p string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "", PeriodDaily:
		return PeriodDaily, nil
	case PeriodWeekly:
		return PeriodWeekly, nil
	case PeriodAll, "all-time", "alltime":
		return PeriodAll, nil
	default:
		return "", InvalidInput("unknown period %q", p)
	}
}

// PeriodStart returns the inclusive lower bound of period at now. Days start
// at 00:00 UTC and weeks on Saturday 00:00 UTC; PeriodAll has no bound.
func PeriodStart(period string, now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case PeriodDaily:
		return day
	case PeriodWeekly:
		sinceSat := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
		return day.AddDate(0, 0, -sinceSat)
	default:
		return time.Time{}
	}
}

// Top returns the best score per user for a game within period.
func (s *LeaderboardService) Top(ctx context.Context, gameSlug string, limit int, period string) (*TopResult, error) {
	gameSlug = strings.TrimSpace(gameSlug)
	period, err := ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	if gameSlug == "" {
		return &TopResult{Items: []LeaderboardItem{}, Limit: clampLimit(limit, defaultBoardLimit, maxBoardLimit), Period: period}, nil
	}
	if !validGameSlug(gameSlug) {
		return nil, InvalidInput("invalid gameSlug")
	}

	if s.store == nil {
		return s.fallbackTop(gameSlug, limit, period), nil
	}

	limit = clampLimit(limit, defaultBoardLimit, maxBoardLimit)
	key := fmt.Sprintf("leaderboard:%s:%s:%d", gameSlug, period, limit)
	items, err := s.cached(ctx, key, func() ([]models.BestScore, error) {
		return s.store.BestScores(ctx, gameSlug, PeriodStart(period, s.now()), time.Time{}, limit)
	})
	if err != nil {
		return nil, err
	}
	return &TopResult{Items: items, GameSlug: gameSlug, Limit: limit, Period: period}, nil
}

// Winners returns the all-time best score per user for a game.
func (s *LeaderboardService) Winners(ctx context.Context, gameSlug string, limit int) (*TopResult, error) {
	return s.Top(ctx, gameSlug, limit, PeriodAll)
}

func (s *LeaderboardService) fallbackTop(gameSlug string, limit int, period string) *TopResult {
	if limit == 0 {
		limit = defaultBoardLimit
	}
	entries := s.fallback.Top(gameSlug, limit)
	items := make([]LeaderboardItem, len(entries))
	for i, e := range entries {
		items[i] = LeaderboardItem{
			Rank:      i + 1,
			Player:    e.Player,
			Score:     e.Score,
			CreatedAt: time.UnixMilli(e.CreatedAt).UTC(),
		}
	}
	return &TopResult{Items: items, GameSlug: gameSlug, Limit: len(items), Period: period}
}

// cached serves key from the read cache, falling through to load on a miss or
// a cache error.
func (s *LeaderboardService) cached(ctx context.Context, key string, load func() ([]models.BestScore, error)) ([]LeaderboardItem, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.ObserveCache("error")
			s.logger.Warn("leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			var items []LeaderboardItem
			if err := json.Unmarshal(raw, &items); err == nil {
				s.metrics.ObserveCache("hit")
				return items, nil
			}
		default:
			s.metrics.ObserveCache("miss")
		}
	}

	rows, err := load()
	if err != nil {
		return nil, Upstream("leaderboard unavailable", err)
	}
	items := make([]LeaderboardItem, len(rows))
	for i, r := range rows {
		name := r.PlayerName
		if name == "" {
			name = defaultPlayerName
		}
		items[i] = LeaderboardItem{Rank: i + 1, UserID: r.UserID, Player: name, Score: r.BestScore, CreatedAt: r.AchievedAt}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, raw, boardCacheTTL); err != nil {
				s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return items, nil
}

type ScoreSubmission struct {
	GameSlug string  `json:"gameSlug"`
	Player   string  `json:"player"`
	Score    float64 `json:"score"`
}

// Submit appends a raw score. With a backend the caller must be signed in; in
// degraded mode the fallback store accepts anonymous submissions.
func (s *LeaderboardService) Submit(ctx context.Context, userID string, in ScoreSubmission) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = string(KindOf(err))
		}
		s.metrics.ObserveSubmission(metrics.SubmissionLeaderboard, result)
	}()

	if s.store != nil && strings.TrimSpace(userID) == "" {
		return Unauthenticated("login required")
	}

	gameSlug := strings.TrimSpace(in.GameSlug)
	if gameSlug == "" {
		return InvalidInput("missing gameSlug")
	}
	if !validGameSlug(gameSlug) {
		return InvalidInput("invalid gameSlug")
	}
	if !validScore(in.Score) || in.Score > maxLeaderboardScore {
		return InvalidInput("score must be between 0 and %d", int64(maxLeaderboardScore))
	}
	score := int64(math.Floor(in.Score))
	now := s.now()

	player := normalizeName(in.Player, maxPlayerNameRunes)

	if s.store == nil {
		if player == "" {
			player = defaultPlayerName
		}
		if err := s.fallback.Submit(gameSlug, leaderboard.Entry{Player: player, Score: score, CreatedAt: now.UnixMilli()}); err != nil {
			// The entry is kept in memory; only the file write failed.
			s.logger.Warn("failed to persist fallback leaderboard", zap.Error(err))
		}
		return nil
	}

	if player == "" && s.players != nil {
		name, err := s.players.DisplayName(ctx, userID)
		if err != nil {
			return Upstream("failed to load profile", err)
		}
		player = normalizeName(name, maxPlayerNameRunes)
	}
	if player == "" {
		player = defaultPlayerName
	}

	err = s.store.InsertScore(ctx, &models.LeaderboardScore{
		GameSlug:   gameSlug,
		UserID:     userID,
		PlayerName: player,
		Score:      score,
		CreatedAt:  now,
	})
	if err != nil {
		return Upstream("failed to save score", err)
	}

	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, fmt.Sprintf("leaderboard:%s:*", gameSlug)); err != nil {
			s.logger.Warn("leaderboard cache invalidation failed", zap.String("game", gameSlug), zap.Error(err))
		}
	}
	return nil
}
