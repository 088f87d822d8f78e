package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"illusion-arcade/leaderboard"
	"illusion-arcade/models"
)

// 2026-03-10 is a Tuesday.
var boardNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func TestParsePeriod(t *testing.T) {
	cases := map[string]string{
		"":         PeriodDaily,
		"daily":    PeriodDaily,
		" Weekly ": PeriodWeekly,
		"all":      PeriodAll,
		"all-time": PeriodAll,
		"alltime":  PeriodAll,
	}
	for in, want := range cases {
		got, err := ParsePeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePeriod("monthly")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPeriodStart(t *testing.T) {
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodDaily, boardNow))
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodWeekly, boardNow))
	assert.True(t, PeriodStart(PeriodAll, boardNow).IsZero())

	sat := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, sat, PeriodStart(PeriodWeekly, sat), "Saturday midnight starts a new week")
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), PeriodStart(PeriodWeekly, sat.Add(-time.Nanosecond)))
}

func newBoardService(store *fakeLeaderboardStore, cache ByteCache) *LeaderboardService {
	return NewLeaderboardService(LeaderboardDeps{
		Store:   store,
		Cache:   cache,
		Players: stubPlayers{"u1": "Ada", "u2": "Grace"},
		Now:     func() time.Time { return boardNow },
	})
}

func TestLeaderboard_BestPerUserWithinPeriod(t *testing.T) {
	ctx := context.Background()
	store := &fakeLeaderboardStore{rows: []models.LeaderboardScore{
		{GameSlug: "boss-rush", UserID: "u1", PlayerName: "Ada", Score: 500, CreatedAt: boardNow.AddDate(0, 0, -30)},
		{GameSlug: "boss-rush", UserID: "u1", PlayerName: "Ada", Score: 40, CreatedAt: boardNow.Add(-time.Hour)},
		{GameSlug: "boss-rush", UserID: "u1", PlayerName: "Ada", Score: 70, CreatedAt: boardNow.Add(-2 * time.Hour)},
		{GameSlug: "boss-rush", UserID: "u2", PlayerName: "Grace", Score: 70, CreatedAt: boardNow.Add(-time.Hour)},
		{GameSlug: "boss-rush", UserID: "u3", PlayerName: "Linus", Score: 65, CreatedAt: boardNow.AddDate(0, 0, -2)},
		{GameSlug: "neon-racer", UserID: "u2", PlayerName: "Grace", Score: 9000, CreatedAt: boardNow},
	}}
	svc := newBoardService(store, nil)

	daily, err := svc.Top(ctx, "boss-rush", 0, "")
	require.NoError(t, err)
	assert.Equal(t, PeriodDaily, daily.Period)
	assert.Equal(t, defaultBoardLimit, daily.Limit)
	require.Len(t, daily.Items, 2)
	assert.Equal(t, "u1", daily.Items[0].UserID, "equal best scores rank the earlier one first")
	assert.EqualValues(t, 70, daily.Items[0].Score)
	assert.Equal(t, "u2", daily.Items[1].UserID)
	assert.Equal(t, 2, daily.Items[1].Rank)

	weekly, err := svc.Top(ctx, "boss-rush", 10, "weekly")
	require.NoError(t, err)
	assert.Len(t, weekly.Items, 3)

	all, err := svc.Winners(ctx, "boss-rush", 1)
	require.NoError(t, err)
	require.Len(t, all.Items, 1)
	assert.EqualValues(t, 500, all.Items[0].Score)
}

func TestLeaderboard_EmptyAndInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newBoardService(&fakeLeaderboardStore{}, nil)

	res, err := svc.Top(ctx, "", 500, "daily")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, maxBoardLimit, res.Limit)

	_, err = svc.Top(ctx, "Boss Rush", 10, "daily")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Top(ctx, "boss-rush", 10, "yearly")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLeaderboard_CacheAndInvalidation(t *testing.T) {
	ctx := context.Background()
	store := &fakeLeaderboardStore{}
	cache := newMemCache()
	svc := newBoardService(store, cache)

	require.NoError(t, svc.Submit(ctx, "u1", ScoreSubmission{GameSlug: "boss-rush", Score: 10}))
	_, err := svc.Top(ctx, "boss-rush", 10, "daily")
	require.NoError(t, err)
	_, err = svc.Top(ctx, "boss-rush", 10, "daily")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls, "second read is served from cache")
	assert.Contains(t, cache.data, "leaderboard:boss-rush:daily:10")

	require.NoError(t, svc.Submit(ctx, "u2", ScoreSubmission{GameSlug: "boss-rush", Score: 20}))
	assert.NotContains(t, cache.data, "leaderboard:boss-rush:daily:10")

	res, err := svc.Top(ctx, "boss-rush", 10, "daily")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Grace", res.Items[0].Player)
}

func TestLeaderboard_CacheErrorsAreBypassed(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	svc := newBoardService(&fakeLeaderboardStore{}, cache)

	_, err := svc.Top(ctx, "boss-rush", 10, "all")
	assert.NoError(t, err)
}

func TestLeaderboard_StoreFailureIsUpstream(t *testing.T) {
	svc := newBoardService(&fakeLeaderboardStore{err: errors.New("boom")}, nil)
	_, err := svc.Top(context.Background(), "boss-rush", 10, "daily")
	assert.ErrorIs(t, err, ErrUpstreamFailure)
}

func TestLeaderboardSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	store := &fakeLeaderboardStore{}
	svc := newBoardService(store, nil)

	assert.ErrorIs(t, svc.Submit(ctx, "", ScoreSubmission{GameSlug: "boss-rush", Score: 1}), ErrUnauthenticated)
	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), maxLeaderboardScore + 1} {
		assert.ErrorIs(t, svc.Submit(ctx, "u1", ScoreSubmission{GameSlug: "boss-rush", Score: bad}), ErrInvalidInput, "%v", bad)
	}
	assert.ErrorIs(t, svc.Submit(ctx, "u1", ScoreSubmission{GameSlug: "", Score: 1}), ErrInvalidInput)
	assert.ErrorIs(t, svc.Submit(ctx, "u1", ScoreSubmission{GameSlug: "bad_slug!", Score: 1}), ErrInvalidInput)
	assert.Empty(t, store.rows)

	require.NoError(t, svc.Submit(ctx, "u1", ScoreSubmission{GameSlug: "boss-rush", Score: 99.9}))
	require.NoError(t, svc.Submit(ctx, "u2", ScoreSubmission{GameSlug: "boss-rush", Player: "  A very long player name that keeps going on  ", Score: 0}))
	require.Len(t, store.rows, 2)
	assert.EqualValues(t, 99, store.rows[0].Score, "scores are floored")
	assert.Equal(t, "Ada", store.rows[0].PlayerName, "blank name falls back to the profile")
	assert.LessOrEqual(t, len([]rune(store.rows[1].PlayerName)), maxPlayerNameRunes)
}

func TestLeaderboard_DegradedMode(t *testing.T) {
	ctx := context.Background()
	fb, err := leaderboard.NewStore(leaderboard.DefaultMaxKeep, "")
	require.NoError(t, err)
	clock := newClock(boardNow)
	svc := NewLeaderboardService(LeaderboardDeps{Fallback: fb, Now: clock.Now})
	require.True(t, svc.Degraded())

	faker := gofakeit.New(42)
	for i := range 60 {
		require.NoError(t, svc.Submit(ctx, "", ScoreSubmission{GameSlug: "boss-rush", Player: faker.Username(), Score: float64(i)}))
		clock.Advance(time.Second)
	}
	require.NoError(t, svc.Submit(ctx, "", ScoreSubmission{GameSlug: "boss-rush", Score: 59}))

	res, err := svc.Top(ctx, "boss-rush", 100, "all")
	require.NoError(t, err)
	assert.Len(t, res.Items, 50, "fallback clamps to 50")
	assert.EqualValues(t, 59, res.Items[0].Score)
	assert.Equal(t, defaultPlayerName, res.Items[0].Player, "ties put the newest entry first")
	assert.Equal(t, clock.Now().UnixMilli(), res.Items[0].CreatedAt.UnixMilli())

	res, err = svc.Top(ctx, "boss-rush", 0, "")
	require.NoError(t, err)
	assert.Len(t, res.Items, defaultBoardLimit)
}
