package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"illusion-arcade/models"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("duration_days ASC").Find(&out).Error
	return out, translate(err)
}

func (r *SubscriptionRepository) PlanByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := r.db.WithContext(ctx).First(&p, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *SubscriptionRepository) LatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("ends_at DESC").
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SubscriptionRepository) ActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.Subscription, error) {
	var s models.Subscription
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ? AND starts_at <= ? AND ends_at > ?", userID, models.SubscriptionActive, now, now).
		Order("ends_at DESC").
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *SubscriptionRepository) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error)
}

// SeedPlans inserts missing plans; existing codes are left untouched.
func (r *SubscriptionRepository) SeedPlans(ctx context.Context, plans []models.SubscriptionPlan) error {
	rows := make([]models.SubscriptionPlan, len(plans))
	for i, p := range plans {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		rows[i] = p
	}
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&rows).Error)
}
