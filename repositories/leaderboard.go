package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"illusion-arcade/models"
)

type LeaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

func (r *LeaderboardRepository) InsertScore(ctx context.Context, s *models.LeaderboardScore) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *LeaderboardRepository) BestScores(ctx context.Context, gameSlug string, since, until time.Time, limit int) ([]models.BestScore, error) {
	best := r.db.WithContext(ctx).
		Table("leaderboard_scores").
		Select("DISTINCT ON (user_id) user_id, COALESCE(player_name, '') AS player_name, score AS best_score, created_at AS achieved_at").
		Where("game_slug = ?", gameSlug)
	if !since.IsZero() {
		best = best.Where("created_at >= ?", since)
	}
	if !until.IsZero() {
		best = best.Where("created_at < ?", until)
	}
	best = best.Order("user_id, score DESC, created_at ASC")

	var rows []models.BestScore
	err := r.db.WithContext(ctx).
		Table("(?) AS best", best).
		Order("best_score DESC, achieved_at ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

const snapshotDailySQL = `
INSERT INTO leaderboard_daily_best (date, game_slug, user_id, player_name, score, source_score_id, created_at)
SELECT DISTINCT ON (game_slug, user_id)
       ?::date, game_slug, user_id, player_name, score, id, NOW()
FROM leaderboard_scores
WHERE created_at >= ? AND created_at < ?
ORDER BY game_slug, user_id, score DESC, created_at ASC
ON CONFLICT (date, game_slug, user_id) DO UPDATE
SET player_name = EXCLUDED.player_name,
    score = EXCLUDED.score,
    source_score_id = EXCLUDED.source_score_id`

const snapshotWeeklySQL = `
INSERT INTO leaderboard_weekly_best (week_start, week_end, game_slug, user_id, player_name, score, source_score_id, created_at)
SELECT DISTINCT ON (game_slug, user_id)
       ?::date, ?::date, game_slug, user_id, player_name, score, id, NOW()
FROM leaderboard_scores
WHERE created_at >= ? AND created_at < ?
ORDER BY game_slug, user_id, score DESC, created_at ASC
ON CONFLICT (week_start, game_slug, user_id) DO UPDATE
SET week_end = EXCLUDED.week_end,
    player_name = EXCLUDED.player_name,
    score = EXCLUDED.score,
    source_score_id = EXCLUDED.source_score_id`

// SnapshotDaily stores each user's best score per game for the UTC day.
func (r *LeaderboardRepository) SnapshotDaily(ctx context.Context, day time.Time) (int64, error) {
	start := truncateDay(day)
	end := start.AddDate(0, 0, 1)
	res := r.db.WithContext(ctx).Exec(snapshotDailySQL, start.Format(time.DateOnly), start, end)
	return res.RowsAffected, translate(res.Error)
}

// SnapshotWeekly stores each user's best score per game for the 7 days from weekStart.
func (r *LeaderboardRepository) SnapshotWeekly(ctx context.Context, weekStart time.Time) (int64, error) {
	start := truncateDay(weekStart)
	end := start.AddDate(0, 0, 7)
	last := end.AddDate(0, 0, -1)
	res := r.db.WithContext(ctx).Exec(snapshotWeeklySQL,
		start.Format(time.DateOnly), last.Format(time.DateOnly), start, end)
	return res.RowsAffected, translate(res.Error)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
