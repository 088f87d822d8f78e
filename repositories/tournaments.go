package repositories

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"illusion-arcade/models"
)

type TournamentRepository struct {
	db *gorm.DB
}

func NewTournamentRepository(db *gorm.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) Transaction(ctx context.Context, fn func(tx TournamentStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TournamentRepository{db: tx})
	})
}

func (r *TournamentRepository) ListTournaments(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error) {
	q := r.db.WithContext(ctx).Model(&models.Tournament{})
	if s := strings.TrimSpace(filter.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("title ILIKE ? OR slug ILIKE ?", like, like)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.GameSlug != "" {
		q = q.Where("game_slug = ?", filter.GameSlug)
	}
	if filter.Newest {
		q = q.Order("created_at DESC")
	} else {
		q = q.Order("starts_at ASC")
	}

	var out []models.Tournament
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *TournamentRepository) GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TournamentRepository) GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	var t models.Tournament
	if err := r.db.WithContext(ctx).First(&t, "slug = ?", slug).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TournamentRepository) LockTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *TournamentRepository) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Tournament{}).Where("slug = ?", slug)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *TournamentRepository) CreateTournament(ctx context.Context, t *models.Tournament) error {
	return translate(r.db.WithContext(ctx).Create(t).Error)
}

func (r *TournamentRepository) UpdateTournament(ctx context.Context, t *models.Tournament) error {
	res := r.db.WithContext(ctx).Model(&models.Tournament{}).Where("id = ?", t.ID).Updates(map[string]any{
		"slug":        t.Slug,
		"title":       t.Title,
		"description": t.Description,
		"game_slug":   t.GameSlug,
		"starts_at":   t.StartsAt,
		"ends_at":     t.EndsAt,
		"status":      t.Status,
		"finalized":   t.Finalized,
		"prize":       t.Prize,
		"prize_1":     t.Prize1,
		"prize_2":     t.Prize2,
		"prize_3":     t.Prize3,
		"updated_at":  time.Now().UTC(),
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TournamentRepository) DeleteTournament(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Tournament{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TournamentRepository) SetTournamentStatus(ctx context.Context, id, status string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error)
}

func (r *TournamentRepository) MarkFinalized(ctx context.Context, id string) error {
	return translate(r.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Updates(map[string]any{"finalized": true, "updated_at": time.Now().UTC()}).Error)
}

func (r *TournamentRepository) SetThumbnail(ctx context.Context, id, path, url string) error {
	res := r.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Updates(map[string]any{"thumbnail_path": path, "thumbnail_url": url, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TournamentRepository) OverlappingTournaments(ctx context.Context, gameSlug string, startsAt, endsAt time.Time) ([]models.Tournament, error) {
	var out []models.Tournament
	err := r.db.WithContext(ctx).
		Where("game_slug = ? AND starts_at < ? AND ends_at > ?", gameSlug, endsAt, startsAt).
		Order("starts_at ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *TournamentRepository) LiveWindowTournaments(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	var out []models.Tournament
	err := r.db.WithContext(ctx).
		Where("status IN ? AND starts_at <= ? AND ends_at > ?",
			[]string{models.TournamentScheduled, models.TournamentLive}, now, now).
		Order("ends_at ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *TournamentRepository) DueForFinalize(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	var out []models.Tournament
	err := r.db.WithContext(ctx).
		Where("finalized = ? AND status <> ? AND ends_at <= ?", false, models.TournamentCanceled, now).
		Order("ends_at ASC").
		Find(&out).Error
	return out, translate(err)
}

// UpsertBestScore is a compare-and-swap on the (tournament_id, user_id) row:
// the update branch only fires when the incoming score is strictly higher.
func (r *TournamentRepository) UpsertBestScore(ctx context.Context, s *models.TournamentScore) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "player_name", "achieved_at", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "tournament_scores.score < EXCLUDED.score"},
		}},
	}).Create(s)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *TournamentRepository) ListTournamentScores(ctx context.Context, tournamentID string, limit int) ([]models.TournamentScore, error) {
	q := r.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("score DESC").
		Order("achieved_at ASC").
		Order("user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []models.TournamentScore
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *TournamentRepository) DeleteTournamentScores(ctx context.Context, tournamentID string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.TournamentScore{}, "tournament_id = ?", tournamentID).Error)
}

func (r *TournamentRepository) ListWinners(ctx context.Context, slug string) ([]models.TournamentWinner, error) {
	var out []models.TournamentWinner
	err := r.db.WithContext(ctx).
		Where("tournament_slug = ?", slug).
		Order("rank ASC").
		Find(&out).Error
	return out, translate(err)
}

func (r *TournamentRepository) CountWinners(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.TournamentWinner{}).Where("tournament_slug = ?", slug).Count(&n).Error
	return n, translate(err)
}

func (r *TournamentRepository) DeleteWinners(ctx context.Context, slug string) error {
	return translate(r.db.WithContext(ctx).Delete(&models.TournamentWinner{}, "tournament_slug = ?", slug).Error)
}

// UpsertWinners writes podium rows keyed by (tournament_slug, rank).
func (r *TournamentRepository) UpsertWinners(ctx context.Context, winners []models.TournamentWinner) error {
	if len(winners) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tournament_slug"}, {Name: "rank"}},
		DoUpdates: clause.AssignmentColumns([]string{"tournament_id", "user_id", "player_name", "score", "prize"}),
	}).Create(&winners).Error
	return translate(err)
}

func (r *TournamentRepository) RenameWinnersSlug(ctx context.Context, oldSlug, newSlug string) error {
	return translate(r.db.WithContext(ctx).Model(&models.TournamentWinner{}).
		Where("tournament_slug = ?", oldSlug).
		Update("tournament_slug", newSlug).Error)
}

func (r *TournamentRepository) GetWinner(ctx context.Context, id string) (*models.TournamentWinner, error) {
	var w models.TournamentWinner
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *TournamentRepository) UpdateWinner(ctx context.Context, w *models.TournamentWinner) error {
	res := r.db.WithContext(ctx).Model(&models.TournamentWinner{}).Where("id = ?", w.ID).Updates(map[string]any{
		"player_name": w.PlayerName,
		"score":       w.Score,
		"prize":       w.Prize,
	})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
