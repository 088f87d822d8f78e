package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"illusion-arcade/metrics"
	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const (
	defaultTournamentBoardLimit = 50
	maxTournamentBoardLimit     = 200
	maxTitleLength              = 120
)

// AccessChecker reports whether a user currently holds tournament access.
type AccessChecker interface {
	HasActive(ctx context.Context, userID string, now time.Time) (bool, error)
}

// PlayerNamer resolves the name shown on boards for a user.
type PlayerNamer interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// AdminChecker reports whether a user has the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type TournamentDeps struct {
	Store   repositories.TournamentStore
	Access  AccessChecker
	Players PlayerNamer
	Admins  AdminChecker
	Media   ObjectUploader
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// TournamentService owns the tournament registry, score ingestion and the
// winner finalizer.
type TournamentService struct {
	store   repositories.TournamentStore
	access  AccessChecker
	players PlayerNamer
	admins  AdminChecker
	media   ObjectUploader
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewTournamentService(d TournamentDeps) *TournamentService {
	s := &TournamentService{
		store:   d.Store,
		access:  d.Access,
		players: d.Players,
		admins:  d.Admins,
		media:   d.Media,
		metrics: d.Metrics,
		logger:  d.Logger,
		now:     d.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// ---------- Public reads ----------

// ListTournaments returns every tournament ordered by start time.
func (s *TournamentService) ListTournaments(ctx context.Context) ([]TournamentView, error) {
	rows, err := s.store.ListTournaments(ctx, repositories.TournamentFilter{})
	if err != nil {
		return nil, Upstream("failed to list tournaments", err)
	}
	return s.views(rows), nil
}

// GetBySlug returns nil without error when the slug is unknown.
func (s *TournamentService) GetBySlug(ctx context.Context, tournamentSlug string) (*TournamentView, error) {
	tournamentSlug = strings.TrimSpace(tournamentSlug)
	if tournamentSlug == "" {
		return nil, InvalidInput("missing slug")
	}
	t, err := s.store.GetTournamentBySlug(ctx, tournamentSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}
	v := newTournamentView(*t, s.now())
	return &v, nil
}

type LeaderboardRow struct {
	Rank       int       `json:"rank"`
	UserID     string    `json:"user_id"`
	PlayerName string    `json:"player_name"`
	Score      float64   `json:"score"`
	AchievedAt time.Time `json:"achieved_at"`
}

type TournamentLeaderboard struct {
	Tournament *TournamentView  `json:"tournament"`
	Rows       []LeaderboardRow `json:"rows"`
}

// Leaderboard returns the ranked best scores of a tournament. An unknown slug
// yields a nil tournament and no rows.
func (s *TournamentService) Leaderboard(ctx context.Context, tournamentSlug string, limit int) (*TournamentLeaderboard, error) {
	tournamentSlug = strings.TrimSpace(tournamentSlug)
	if tournamentSlug == "" {
		return nil, InvalidInput("missing slug")
	}
	limit = clampLimit(limit, defaultTournamentBoardLimit, maxTournamentBoardLimit)

	t, err := s.store.GetTournamentBySlug(ctx, tournamentSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return &TournamentLeaderboard{Rows: []LeaderboardRow{}}, nil
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}

	scores, err := s.store.ListTournamentScores(ctx, t.ID, limit)
	if err != nil {
		return nil, Upstream("failed to load scores", err)
	}

	rows := make([]LeaderboardRow, len(scores))
	for i, sc := range scores {
		rows[i] = LeaderboardRow{
			Rank:       i + 1,
			UserID:     sc.UserID,
			PlayerName: sc.PlayerName,
			Score:      sc.Score,
			AchievedAt: sc.AchievedAt,
		}
	}
	v := newTournamentView(*t, s.now())
	return &TournamentLeaderboard{Tournament: &v, Rows: rows}, nil
}

// CheckConflict lists tournaments of the same game whose window overlaps [startsAt, endsAt).
// excludeID skips the tournament being edited.
func (s *TournamentService) CheckConflict(ctx context.Context, gameSlug string, startsAt, endsAt time.Time, excludeID string) ([]TournamentView, error) {
	gameSlug = strings.TrimSpace(gameSlug)
	if gameSlug == "" || startsAt.IsZero() || endsAt.IsZero() {
		return nil, InvalidInput("missing gameSlug, startsAt, endsAt")
	}
	rows, err := s.store.OverlappingTournaments(ctx, gameSlug, startsAt, endsAt)
	if err != nil {
		return nil, Upstream("failed to check conflicts", err)
	}
	rows = slices.DeleteFunc(rows, func(t models.Tournament) bool { return excludeID != "" && t.ID == excludeID })
	return s.views(rows), nil
}

// LiveGame is the soonest-ending live tournament of one game.
type LiveGame struct {
	TournamentSlug string    `json:"tournamentSlug"`
	GameSlug       string    `json:"gameSlug"`
	StartsAt       time.Time `json:"startsAt"`
	EndsAt         time.Time `json:"endsAt"`
}

// LiveGames returns at most one live tournament per game, keeping the one that
// ends soonest.
func (s *TournamentService) LiveGames(ctx context.Context) ([]LiveGame, error) {
	rows, err := s.store.LiveWindowTournaments(ctx, s.now())
	if err != nil {
		return nil, Upstream("failed to load live tournaments", err)
	}
	return dedupeLiveGames(rows), nil
}

func dedupeLiveGames(rows []models.Tournament) []LiveGame {
	out := make([]LiveGame, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for _, t := range rows {
		if t.Slug == "" || t.GameSlug == "" {
			continue
		}
		if i, ok := seen[t.GameSlug]; ok {
			if t.EndsAt.Before(out[i].EndsAt) {
				out[i] = LiveGame{TournamentSlug: t.Slug, GameSlug: t.GameSlug, StartsAt: t.StartsAt, EndsAt: t.EndsAt}
			}
			continue
		}
		seen[t.GameSlug] = len(out)
		out = append(out, LiveGame{TournamentSlug: t.Slug, GameSlug: t.GameSlug, StartsAt: t.StartsAt, EndsAt: t.EndsAt})
	}
	return out
}

// ---------- Score ingestion ----------

type SubmitResult struct {
	OK       bool `json:"ok"`
	Updated  bool `json:"updated"`
	KeptBest bool `json:"keptBest"`
}

// SubmitScore records a score for the caller, keeping only their best.
// Failures are checked in order: identity, input, access, existence, window.
func (s *TournamentService) SubmitScore(ctx context.Context, userID, tournamentSlug string, score float64) (res *SubmitResult, err error) {
	defer func() { s.metrics.ObserveSubmission(metrics.SubmissionTournament, submissionResult(res, err)) }()

	if strings.TrimSpace(userID) == "" {
		return nil, Unauthenticated("login required")
	}
	tournamentSlug = strings.TrimSpace(tournamentSlug)
	if tournamentSlug == "" {
		return nil, InvalidInput("missing tournament slug")
	}
	if !validScore(score) {
		return nil, InvalidInput("invalid score")
	}

	now := s.now()
	ok, err := s.access.HasActive(ctx, userID, now)
	if err != nil {
		return nil, Upstream("failed to check subscription", err)
	}
	if !ok {
		return nil, PaymentRequired("active subscription required")
	}

	t, err := s.store.GetTournamentBySlug(ctx, tournamentSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("tournament not found")
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}

	if effectiveStatus(t, now) != models.TournamentLive || now.Before(t.StartsAt) || !now.Before(t.EndsAt) {
		return nil, Forbidden("tournament is not live")
	}

	name, err := s.players.DisplayName(ctx, userID)
	if err != nil {
		return nil, Upstream("failed to load profile", err)
	}

	updated, err := s.store.UpsertBestScore(ctx, &models.TournamentScore{
		ID:           uuid.NewString(),
		TournamentID: t.ID,
		UserID:       userID,
		PlayerName:   name,
		Score:        score,
		AchievedAt:   now,
	})
	if err != nil {
		return nil, Upstream("failed to save score", err)
	}

	s.logger.Debug("tournament score submitted",
		zap.String("tournament", t.Slug),
		zap.String("user_id", userID),
		zap.Float64("score", score),
		zap.Bool("updated", updated))

	return &SubmitResult{OK: true, Updated: updated, KeptBest: !updated}, nil
}

func submissionResult(res *SubmitResult, err error) string {
	switch {
	case err != nil:
		return string(KindOf(err))
	case res != nil && res.Updated:
		return "updated"
	default:
		return "kept_best"
	}
}

// ---------- Admin registry ----------

type TournamentInput struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	GameSlug    string    `json:"game_slug"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      string    `json:"status"`
	Prize       string    `json:"prize"`
	Prize1      string    `json:"prize_1"`
	Prize2      string    `json:"prize_2"`
	Prize3      string    `json:"prize_3"`
	Finalized   *bool     `json:"finalized"`
}

// AdminList returns tournaments matching filter, newest first.
func (s *TournamentService) AdminList(ctx context.Context, filter repositories.TournamentFilter) ([]TournamentView, error) {
	filter.Newest = true
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status == "all" {
		filter.Status = ""
	}
	rows, err := s.store.ListTournaments(ctx, filter)
	if err != nil {
		return nil, Upstream("failed to list tournaments", err)
	}
	return s.views(rows), nil
}

// Upsert creates a tournament when in.ID is empty, otherwise updates it.
// Renaming the slug moves the tournament's winner rows to the new slug.
func (s *TournamentService) Upsert(ctx context.Context, in TournamentInput) (*TournamentView, error) {
	t, err := s.normalizeInput(in)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repositories.TournamentStore) error {
		taken, err := tx.SlugTaken(ctx, t.Slug, t.ID)
		if err != nil {
			return Upstream("failed to check slug", err)
		}
		if taken {
			return Conflict("slug already in use")
		}

		if t.ID == "" {
			t.ID = uuid.NewString()
			if in.Finalized != nil {
				t.Finalized = *in.Finalized
			}
			return storeErr(tx.CreateTournament(ctx, t), "failed to create tournament")
		}

		existing, err := tx.GetTournamentByID(ctx, t.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFound("tournament not found")
		}
		if err != nil {
			return Upstream("failed to load tournament", err)
		}
		t.Finalized = existing.Finalized
		if in.Finalized != nil {
			t.Finalized = *in.Finalized
		}
		t.ThumbnailPath, t.ThumbnailURL = existing.ThumbnailPath, existing.ThumbnailURL
		t.CreatedAt = existing.CreatedAt

		if err := storeErr(tx.UpdateTournament(ctx, t), "failed to update tournament"); err != nil {
			return err
		}
		if existing.Slug != t.Slug {
			if err := tx.RenameWinnersSlug(ctx, existing.Slug, t.Slug); err != nil {
				return storeErr(err, "failed to move winners")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tournament saved", zap.String("id", t.ID), zap.String("slug", t.Slug))
	v := newTournamentView(*t, s.now())
	return &v, nil
}

func (s *TournamentService) normalizeInput(in TournamentInput) (*models.Tournament, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, InvalidInput("title is required")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, InvalidInput("title must be at most %d characters", maxTitleLength)
	}

	tSlug := strings.TrimSpace(in.Slug)
	if tSlug == "" {
		tSlug = slug.Make(title)
	}
	if !slug.IsSlug(tSlug) {
		return nil, InvalidInput("invalid slug %q", tSlug)
	}

	gameSlug := strings.TrimSpace(in.GameSlug)
	if gameSlug == "" {
		return nil, InvalidInput("game_slug is required")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() {
		return nil, InvalidInput("starts_at and ends_at are required")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return nil, InvalidInput("ends_at must be after starts_at")
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.TournamentScheduled
	}
	if !slices.Contains(models.TournamentStatuses, status) {
		return nil, InvalidInput("invalid status %q", in.Status)
	}

	return &models.Tournament{
		ID:          strings.TrimSpace(in.ID),
		Slug:        tSlug,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		GameSlug:    gameSlug,
		StartsAt:    in.StartsAt.UTC(),
		EndsAt:      in.EndsAt.UTC(),
		Status:      status,
		Prize:       strings.TrimSpace(in.Prize),
		Prize1:      strings.TrimSpace(in.Prize1),
		Prize2:      strings.TrimSpace(in.Prize2),
		Prize3:      strings.TrimSpace(in.Prize3),
	}, nil
}

// Delete removes a tournament and its scores. Tournaments with winners are kept.
func (s *TournamentService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return InvalidInput("missing id")
	}
	return s.store.Transaction(ctx, func(tx repositories.TournamentStore) error {
		t, err := tx.LockTournament(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFound("tournament not found")
		}
		if err != nil {
			return Upstream("failed to load tournament", err)
		}
		n, err := tx.CountWinners(ctx, t.Slug)
		if err != nil {
			return Upstream("failed to count winners", err)
		}
		if n > 0 {
			return Conflict("tournament has winners and cannot be deleted")
		}
		if err := tx.DeleteTournamentScores(ctx, id); err != nil {
			return Upstream("failed to delete scores", err)
		}
		if err := tx.DeleteTournament(ctx, id); err != nil {
			return storeErr(err, "failed to delete tournament")
		}
		s.logger.Info("tournament deleted", zap.String("id", id), zap.String("slug", t.Slug))
		return nil
	})
}

// ---------- helpers ----------

func (s *TournamentService) views(rows []models.Tournament) []TournamentView {
	now := s.now()
	out := make([]TournamentView, len(rows))
	for i, t := range rows {
		out[i] = newTournamentView(t, now)
	}
	return out
}

// storeErr maps repository sentinels to service kinds.
func storeErr(err error, msg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return NotFound("record not found")
	case errors.Is(err, repositories.ErrDuplicate):
		return Conflict("duplicate record")
	default:
		return Upstream(msg, err)
	}
}

func clampLimit(limit, def, max int) int {
	if limit == 0 {
		return def
	}
	if limit < 1 {
		return 1
	}
	if limit > max {
		return max
	}
	return limit
}
