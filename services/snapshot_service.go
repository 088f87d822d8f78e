package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"illusion-arcade/repositories"
)

const snapshotDateLayout = "2006-01-02"

// SnapshotService materializes daily and weekly best-per-user tables from the
// raw leaderboard scores.
type SnapshotService struct {
	store  repositories.LeaderboardStore
	logger *zap.Logger
	now    func() time.Time
}

func NewSnapshotService(store repositories.LeaderboardStore, logger *zap.Logger, now func() time.Time) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SnapshotService{store: store, logger: logger, now: now}
}

type SnapshotResult struct {
	OK        bool   `json:"ok"`
	RunDate   string `json:"run_date,omitempty"`
	WeekStart string `json:"week_start,omitempty"`
	Rows      int64  `json:"rows"`
}

// Yesterday returns the UTC day before now.
func Yesterday(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)
}

// PreviousSaturday returns the start of the last complete Saturday-based week.
// On a Saturday that is the Saturday one week earlier.
func PreviousSaturday(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(day.Weekday()) - int(time.Saturday) + 7) % 7
	if back == 0 {
		back = 7
	}
	return day.AddDate(0, 0, -back)
}

// ParseSnapshotDate parses YYYY-MM-DD as a UTC day.
func ParseSnapshotDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(snapshotDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, InvalidInput("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ComputeDaily snapshots runDate. A zero runDate means yesterday.
func (s *SnapshotService) ComputeDaily(ctx context.Context, runDate time.Time) (*SnapshotResult, error) {
	if s.store == nil {
		return nil, Upstream("leaderboard backend not configured", nil)
	}
	if runDate.IsZero() {
		runDate = Yesterday(s.now())
	}
	n, err := s.store.SnapshotDaily(ctx, runDate)
	if err != nil {
		return nil, Upstream("failed to compute daily leaderboard", err)
	}
	date := runDate.UTC().Format(snapshotDateLayout)
	s.logger.Info("daily leaderboard snapshot", zap.String("run_date", date), zap.Int64("rows", n))
	return &SnapshotResult{OK: true, RunDate: date, Rows: n}, nil
}

// ComputeWeekly snapshots the week starting at weekStart, which must be a
// Saturday. A zero weekStart means the previous Saturday.
func (s *SnapshotService) ComputeWeekly(ctx context.Context, weekStart time.Time) (*SnapshotResult, error) {
	if s.store == nil {
		return nil, Upstream("leaderboard backend not configured", nil)
	}
	if weekStart.IsZero() {
		weekStart = PreviousSaturday(s.now())
	}
	if weekStart.UTC().Weekday() != time.Saturday {
		return nil, InvalidInput("week start %s is not a Saturday", weekStart.UTC().Format(snapshotDateLayout))
	}
	n, err := s.store.SnapshotWeekly(ctx, weekStart)
	if err != nil {
		return nil, Upstream("failed to compute weekly leaderboard", err)
	}
	date := weekStart.UTC().Format(snapshotDateLayout)
	s.logger.Info("weekly leaderboard snapshot", zap.String("week_start", date), zap.Int64("rows", n))
	return &SnapshotResult{OK: true, WeekStart: date, Rows: n}, nil
}
