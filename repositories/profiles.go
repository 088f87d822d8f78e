package repositories

import (
	"context"

	"gorm.io/gorm"

	"illusion-arcade/models"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ProfileRepository) CreateProfile(ctx context.Context, p *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *ProfileRepository) DisplayNameTaken(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("LOWER(display_name) = LOWER(?)", name).Count(&n).Error
	return n > 0, translate(err)
}

func (r *ProfileRepository) PhoneTaken(ctx context.Context, phone string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("phone = ?", phone).Count(&n).Error
	return n > 0, translate(err)
}
