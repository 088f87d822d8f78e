package repositories

import (
	"context"
	"time"

	"illusion-arcade/models"
)

// TournamentFilter narrows the admin tournament list. Empty fields match all.
type TournamentFilter struct {
	Query    string
	Status   string
	GameSlug string
	// Newest orders by created_at desc instead of starts_at asc.
	Newest bool
}

// TournamentStore persists tournaments, their best scores and their winners.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist (Get*/Lock* methods)
//   - ErrDuplicate: a unique constraint rejected the write
//   - other errors: infrastructure failures
type TournamentStore interface {
	// Transaction runs fn against a store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx TournamentStore) error) error

	ListTournaments(ctx context.Context, filter TournamentFilter) ([]models.Tournament, error)
	GetTournamentByID(ctx context.Context, id string) (*models.Tournament, error)
	GetTournamentBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	// LockTournament reads the row with FOR UPDATE; only meaningful inside Transaction.
	LockTournament(ctx context.Context, id string) (*models.Tournament, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	CreateTournament(ctx context.Context, t *models.Tournament) error
	UpdateTournament(ctx context.Context, t *models.Tournament) error
	DeleteTournament(ctx context.Context, id string) error
	SetTournamentStatus(ctx context.Context, id, status string) error
	MarkFinalized(ctx context.Context, id string) error
	SetThumbnail(ctx context.Context, id, path, url string) error

	// OverlappingTournaments returns same-game rows with starts_at < endsAt and ends_at > startsAt.
	OverlappingTournaments(ctx context.Context, gameSlug string, startsAt, endsAt time.Time) ([]models.Tournament, error)
	// LiveWindowTournaments returns rows with stored status scheduled/live and starts_at <= now < ends_at,
	// ordered by ends_at ascending.
	LiveWindowTournaments(ctx context.Context, now time.Time) ([]models.Tournament, error)
	// DueForFinalize returns non-canceled, unfinalized rows with ends_at <= now.
	DueForFinalize(ctx context.Context, now time.Time) ([]models.Tournament, error)

	// UpsertBestScore inserts the row or raises its score when strictly higher.
	// It reports whether a row was written.
	UpsertBestScore(ctx context.Context, s *models.TournamentScore) (bool, error)
	// ListTournamentScores orders by score desc, achieved_at asc. limit <= 0 means all.
	ListTournamentScores(ctx context.Context, tournamentID string, limit int) ([]models.TournamentScore, error)
	DeleteTournamentScores(ctx context.Context, tournamentID string) error

	ListWinners(ctx context.Context, slug string) ([]models.TournamentWinner, error)
	CountWinners(ctx context.Context, slug string) (int64, error)
	DeleteWinners(ctx context.Context, slug string) error
	UpsertWinners(ctx context.Context, winners []models.TournamentWinner) error
	RenameWinnersSlug(ctx context.Context, oldSlug, newSlug string) error
	GetWinner(ctx context.Context, id string) (*models.TournamentWinner, error)
	UpdateWinner(ctx context.Context, w *models.TournamentWinner) error
}

// LeaderboardStore persists raw game scores and their snapshots.
type LeaderboardStore interface {
	InsertScore(ctx context.Context, s *models.LeaderboardScore) error
	// BestScores returns one row per user for created_at in [since, until); zero
	// bounds are open. Ordered by best score desc, earliest achievement first.
	BestScores(ctx context.Context, gameSlug string, since, until time.Time, limit int) ([]models.BestScore, error)
	SnapshotDaily(ctx context.Context, day time.Time) (int64, error)
	SnapshotWeekly(ctx context.Context, weekStart time.Time) (int64, error)
}

// SubscriptionStore persists plans and subscriptions.
type SubscriptionStore interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	PlanByCode(ctx context.Context, code string) (*models.SubscriptionPlan, error)
	// LatestSubscription returns the user's subscription with the greatest ends_at.
	LatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	// ActiveSubscription returns the active subscription covering now with the greatest ends_at.
	ActiveSubscription(ctx context.Context, userID string, now time.Time) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, s *models.Subscription) error
	SeedPlans(ctx context.Context, plans []models.SubscriptionPlan) error
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
	DisplayNameTaken(ctx context.Context, name string) (bool, error)
	PhoneTaken(ctx context.Context, phone string) (bool, error)
}

// ContentStore serves the catalog and portfolio tables.
type ContentStore interface {
	ListGames(ctx context.Context) ([]models.ArcadeGame, error)
	GetGame(ctx context.Context, slug string) (*models.ArcadeGame, error)
	ListWorks(ctx context.Context) ([]models.Work, error)
	GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error)
	ListStudioServices(ctx context.Context) ([]models.StudioService, error)
	ReorderStudioServices(ctx context.Context, ids []string) error
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
	SeedGames(ctx context.Context, games []models.ArcadeGame) error
}
