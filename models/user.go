package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile is the local record of an authenticated user. The user id comes from
// the hosted auth provider (JWT sub claim).
type Profile struct {
	UserID      string    `json:"user_id" gorm:"primaryKey"`
	DisplayName string    `json:"display_name" gorm:"uniqueIndex;not null"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Role        string    `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
