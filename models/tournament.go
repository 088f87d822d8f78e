package models

import (
	"time"
)

// Stored tournament statuses. The stored value is advisory; readers derive the
// effective status from the time window.
const (
	TournamentScheduled = "scheduled"
	TournamentLive      = "live"
	TournamentEnded     = "ended"
	TournamentCanceled  = "canceled"
)

// TournamentStatuses lists the values accepted by the admin upsert.
var TournamentStatuses = []string{TournamentScheduled, TournamentLive, TournamentEnded, TournamentCanceled}

// Tournament is a time-boxed competition on one arcade game.
type Tournament struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	Slug          string    `json:"slug" gorm:"uniqueIndex;not null"`
	Title         string    `json:"title" gorm:"not null"`
	Description   string    `json:"description"`
	GameSlug      string    `json:"game_slug" gorm:"index;not null"`
	StartsAt      time.Time `json:"starts_at" gorm:"not null;index"`
	EndsAt        time.Time `json:"ends_at" gorm:"not null;index"`
	Status        string    `json:"status" gorm:"type:varchar(16);not null;default:'scheduled'"`
	Finalized     bool      `json:"finalized" gorm:"not null;default:false"`
	Prize         string    `json:"prize"`
	Prize1        string    `json:"prize_1" gorm:"column:prize_1"`
	Prize2        string    `json:"prize_2" gorm:"column:prize_2"`
	Prize3        string    `json:"prize_3" gorm:"column:prize_3"`
	ThumbnailPath string    `json:"thumbnail_path"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PrizeForRank returns the configured prize text for a podium rank, or "".
func (t *Tournament) PrizeForRank(rank int) string {
	switch rank {
	case 1:
		return t.Prize1
	case 2:
		return t.Prize2
	case 3:
		return t.Prize3
	}
	return ""
}

// TournamentScore is one player's best score in one tournament. At most one row
// exists per (tournament_id, user_id) and its score only ever increases.
type TournamentScore struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID string    `json:"tournament_id" gorm:"type:uuid;not null;uniqueIndex:ux_tournament_scores_tournament_user"`
	UserID       string    `json:"user_id" gorm:"not null;uniqueIndex:ux_tournament_scores_tournament_user"`
	PlayerName   string    `json:"player_name" gorm:"not null"`
	Score        float64   `json:"score" gorm:"not null"`
	AchievedAt   time.Time `json:"achieved_at" gorm:"not null"` // when the current best was submitted
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TournamentWinner is a podium row written once by the finalizer.
type TournamentWinner struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	TournamentID   string    `json:"tournament_id" gorm:"type:uuid;not null;index"`
	TournamentSlug string    `json:"tournament_slug" gorm:"not null;index:ux_winners_slug_rank,unique;index:ux_winners_slug_user,unique"`
	Rank           int       `json:"rank" gorm:"not null;check:chk_winner_rank,rank >= 1 AND rank <= 3;index:ux_winners_slug_rank,unique"`
	UserID         string    `json:"user_id" gorm:"not null;index:ux_winners_slug_user,unique"`
	PlayerName     string    `json:"player_name" gorm:"not null"`
	Score          float64   `json:"score" gorm:"not null"`
	Prize          string    `json:"prize"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
