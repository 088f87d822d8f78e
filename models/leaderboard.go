package models

import "time"

// LeaderboardScore is an append-only raw game score.
type LeaderboardScore struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	GameSlug   string    `json:"game_slug" gorm:"not null;index:idx_leaderboard_scores_game_created"`
	UserID     string    `json:"user_id" gorm:"not null;index"`
	PlayerName string    `json:"player_name"`
	Score      int64     `json:"score" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index:idx_leaderboard_scores_game_created"`
}

// BestScore is one row of a best-per-user projection.
type BestScore struct {
	UserID     string    `json:"user_id"`
	PlayerName string    `json:"player_name"`
	BestScore  int64     `json:"best_score"`
	AchievedAt time.Time `json:"achieved_at"`
}

type LeaderboardDailyBest struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Date          time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:ux_daily_best_date_game_user"`
	GameSlug      string    `json:"game_slug" gorm:"not null;uniqueIndex:ux_daily_best_date_game_user"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:ux_daily_best_date_game_user"`
	PlayerName    string    `json:"player_name"`
	Score         int64     `json:"score" gorm:"not null"`
	SourceScoreID *int64    `json:"source_score_id"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LeaderboardDailyBest) TableName() string { return "leaderboard_daily_best" }

type LeaderboardWeeklyBest struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	WeekStart     time.Time `json:"week_start" gorm:"type:date;not null;uniqueIndex:ux_weekly_best_week_game_user"`
	WeekEnd       time.Time `json:"week_end" gorm:"type:date;not null"`
	GameSlug      string    `json:"game_slug" gorm:"not null;uniqueIndex:ux_weekly_best_week_game_user"`
	UserID        string    `json:"user_id" gorm:"not null;uniqueIndex:ux_weekly_best_week_game_user"`
	PlayerName    string    `json:"player_name"`
	Score         int64     `json:"score" gorm:"not null"`
	SourceScoreID *int64    `json:"source_score_id"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (LeaderboardWeeklyBest) TableName() string { return "leaderboard_weekly_best" }
