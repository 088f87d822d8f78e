package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"illusion-arcade/models"
)

type ContentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) ListGames(ctx context.Context) ([]models.ArcadeGame, error) {
	var out []models.ArcadeGame
	err := r.db.WithContext(ctx).Order("sort_order ASC").Order("name ASC").Find(&out).Error
	return out, translate(err)
}

func (r *ContentRepository) GetGame(ctx context.Context, slug string) (*models.ArcadeGame, error) {
	var g models.ArcadeGame
	if err := r.db.WithContext(ctx).First(&g, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r *ContentRepository) ListWorks(ctx context.Context) ([]models.Work, error) {
	var out []models.Work
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *ContentRepository) GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	var w models.Work
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *ContentRepository) ListStudioServices(ctx context.Context) ([]models.StudioService, error) {
	var out []models.StudioService
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}

// ReorderStudioServices assigns sort_order 10, 20, 30... in the given order.
func (r *ContentRepository) ReorderStudioServices(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		for i, id := range ids {
			err := tx.Model(&models.StudioService{}).
				Where("id = ?", id).
				Updates(map[string]any{"sort_order": (i + 1) * 10, "updated_at": now}).Error
			if err != nil {
				return translate(err)
			}
		}
		return nil
	})
}

func (r *ContentRepository) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	return translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *ContentRepository) SeedGames(ctx context.Context, games []models.ArcadeGame) error {
	if len(games) == 0 {
		return nil
	}
	rows := append([]models.ArcadeGame(nil), games...)
	return translate(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
		Create(&rows).Error)
}
