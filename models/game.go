// models/game.go
package models

import (
	"time"
)

const (
	BuildTypeHTML   = "html"
	BuildTypeWebGL  = "webgl"
	BuildTypeIframe = "iframe"
)

// ArcadeGame is a playable catalog entry. Leaderboard and tournament rows refer
// to it by slug.
type ArcadeGame struct {
	Slug         string   `json:"slug" gorm:"primaryKey"`
	Name         string   `json:"name" gorm:"not null"`
	ShortPitch   string   `json:"short_pitch"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Controls     []string `json:"controls" gorm:"serializer:json"`
	BuildType    string   `json:"build_type" gorm:"type:varchar(16);default:'iframe'"`
	SourceURL    string   `json:"source_url"`
	EmbedAllowed bool     `json:"embed_allowed" gorm:"default:true"`

	// 🖼️ Embed settings
	AspectRatio string `json:"aspect_ratio,omitempty"`
	MinHeight   int    `json:"min_height,omitempty"`
	Orientation string `json:"orientation,omitempty"`

	Leaderboard bool   `json:"leaderboard" gorm:"default:false"`
	Genre       string `json:"genre,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Featured    bool   `json:"featured"`
	EstTime     string `json:"est_time,omitempty"`

	// 🌟 Lobby rating
	RatingValue float64 `json:"rating_value" gorm:"default:0"`
	RatingCount int     `json:"rating_count" gorm:"default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:100"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultGames seeds the catalog on migrate.
var DefaultGames = []ArcadeGame{
	{
		Slug:         "boss-rush",
		Name:         "Boss Rush (Demo)",
		ShortPitch:   "Neon reflex boss fights. Tap fast, survive longer, post score.",
		Controls:     []string{"Tap / click to dodge", "Survive as long as possible"},
		BuildType:    BuildTypeIframe,
		SourceURL:    "/games/boss-rush/index.html",
		EmbedAllowed: true,
		AspectRatio:  "16/9",
		MinHeight:    520,
		Orientation:  "landscape",
		Leaderboard:  true,
		Genre:        "Shooter",
		Difficulty:   "Medium",
		EstTime:      "60s",
		RatingValue:  4.6,
		RatingCount:  1280,
		SortOrder:    10,
	},
}
