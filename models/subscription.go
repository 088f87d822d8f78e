package models

import "time"

const (
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

type SubscriptionPlan struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Code         string    `json:"code" gorm:"uniqueIndex;not null"`
	Title        string    `json:"title" gorm:"not null"`
	DurationDays int       `json:"duration_days" gorm:"not null"`
	PriceBDT     int       `json:"price_bdt" gorm:"column:price_bdt;not null;default:0"`
	IsActive     bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// DefaultPlans seeds subscription_plans on migrate.
var DefaultPlans = []SubscriptionPlan{
	{Code: "1d", Title: "Day Pass", DurationDays: 1, PriceBDT: 20, IsActive: true},
	{Code: "7d", Title: "Week Pass", DurationDays: 7, PriceBDT: 100, IsActive: true},
	{Code: "30d", Title: "Month Pass", DurationDays: 30, PriceBDT: 300, IsActive: true},
}

// Subscription grants tournament access while active and inside [StartsAt, EndsAt).
type Subscription struct {
	ID          string            `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      string            `json:"user_id" gorm:"not null;index:idx_subscriptions_user_ends"`
	PlanID      string            `json:"plan_id" gorm:"type:uuid;not null"`
	Plan        *SubscriptionPlan `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	Status      string            `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	StartsAt    time.Time         `json:"starts_at" gorm:"not null"`
	EndsAt      time.Time         `json:"ends_at" gorm:"not null;index:idx_subscriptions_user_ends"`
	AmountBDT   int               `json:"amount_bdt" gorm:"column:amount_bdt;not null;default:0"`
	Currency    string            `json:"currency" gorm:"not null;default:'BDT'"`
	Provider    string            `json:"provider" gorm:"not null"`
	ProviderRef string            `json:"provider_ref"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// ActiveAt reports whether the subscription grants access at now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	return !now.Before(s.StartsAt) && now.Before(s.EndsAt)
}
