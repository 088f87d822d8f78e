package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

// fakeTournamentStore is an in-memory TournamentStore. Transactions are
// serialized, which stands in for the row lock.
type fakeTournamentStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	tournaments map[string]*models.Tournament
	scores      map[string]*models.TournamentScore // key: tournamentID|userID
	winners     map[string]*models.TournamentWinner

	upserts int
	// ListWinnersFn overrides ListWinners when set.
	ListWinnersFn func(slug string) ([]models.TournamentWinner, error)
	// LiveWindowFn overrides LiveWindowTournaments when set.
	LiveWindowFn func(now time.Time) ([]models.Tournament, error)
}

func newFakeTournamentStore(ts ...models.Tournament) *fakeTournamentStore {
	f := &fakeTournamentStore{
		tournaments: map[string]*models.Tournament{},
		scores:      map[string]*models.TournamentScore{},
		winners:     map[string]*models.TournamentWinner{},
	}
	for i := range ts {
		t := ts[i]
		f.tournaments[t.ID] = &t
	}
	return f
}

func (f *fakeTournamentStore) Transaction(ctx context.Context, fn func(tx repositories.TournamentStore) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	return fn(f)
}

func (f *fakeTournamentStore) ListTournaments(_ context.Context, filter repositories.TournamentFilter) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tournament
	for _, t := range f.tournaments {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.GameSlug != "" && t.GameSlug != filter.GameSlug {
			continue
		}
		if q := strings.ToLower(filter.Query); q != "" &&
			!strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(t.Slug, q) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Newest {
			return out[i].StartsAt.After(out[j].StartsAt)
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (f *fakeTournamentStore) GetTournamentByID(_ context.Context, id string) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournamentStore) GetTournamentBySlug(_ context.Context, slug string) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tournaments {
		if t.Slug == slug {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeTournamentStore) LockTournament(ctx context.Context, id string) (*models.Tournament, error) {
	return f.GetTournamentByID(ctx, id)
}

func (f *fakeTournamentStore) SlugTaken(_ context.Context, slug, exceptID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tournaments {
		if t.Slug == slug && t.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTournamentStore) CreateTournament(_ context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[t.ID]; ok {
		return repositories.ErrDuplicate
	}
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f *fakeTournamentStore) UpdateTournament(_ context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[t.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f *fakeTournamentStore) DeleteTournament(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.tournaments, id)
	return nil
}

func (f *fakeTournamentStore) SetTournamentStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentStore) MarkFinalized(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Finalized = true
	return nil
}

func (f *fakeTournamentStore) SetThumbnail(_ context.Context, id, path, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.ThumbnailPath, t.ThumbnailURL = path, url
	return nil
}

func (f *fakeTournamentStore) OverlappingTournaments(_ context.Context, gameSlug string, startsAt, endsAt time.Time) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tournament
	for _, t := range f.tournaments {
		if t.GameSlug == gameSlug && t.StartsAt.Before(endsAt) && t.EndsAt.After(startsAt) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeTournamentStore) LiveWindowTournaments(_ context.Context, now time.Time) ([]models.Tournament, error) {
	if f.LiveWindowFn != nil {
		return f.LiveWindowFn(now)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tournament
	for _, t := range f.tournaments {
		if (t.Status == models.TournamentScheduled || t.Status == models.TournamentLive) &&
			!now.Before(t.StartsAt) && now.Before(t.EndsAt) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndsAt.Before(out[j].EndsAt) })
	return out, nil
}

func (f *fakeTournamentStore) DueForFinalize(_ context.Context, now time.Time) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Tournament
	for _, t := range f.tournaments {
		if !t.Finalized && t.Status != models.TournamentCanceled && !now.Before(t.EndsAt) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTournamentStore) UpsertBestScore(_ context.Context, s *models.TournamentScore) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	key := s.TournamentID + "|" + s.UserID
	cur, ok := f.scores[key]
	if ok && cur.Score >= s.Score {
		return false, nil
	}
	cp := *s
	if ok {
		cp.ID = cur.ID
	}
	f.scores[key] = &cp
	return true, nil
}

func (f *fakeTournamentStore) ListTournamentScores(_ context.Context, tournamentID string, limit int) ([]models.TournamentScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TournamentScore
	for _, s := range f.scores {
		if s.TournamentID == tournamentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].AchievedAt.Equal(out[j].AchievedAt) {
			return out[i].AchievedAt.Before(out[j].AchievedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTournamentStore) DeleteTournamentScores(_ context.Context, tournamentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, s := range f.scores {
		if s.TournamentID == tournamentID {
			delete(f.scores, k)
		}
	}
	return nil
}

func (f *fakeTournamentStore) ListWinners(_ context.Context, slug string) ([]models.TournamentWinner, error) {
	if f.ListWinnersFn != nil {
		return f.ListWinnersFn(slug)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.TournamentWinner{}
	for _, w := range f.winners {
		if w.TournamentSlug == slug {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (f *fakeTournamentStore) CountWinners(ctx context.Context, slug string) (int64, error) {
	ws, err := f.ListWinners(ctx, slug)
	return int64(len(ws)), err
}

func (f *fakeTournamentStore) DeleteWinners(_ context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, w := range f.winners {
		if w.TournamentSlug == slug {
			delete(f.winners, k)
		}
	}
	return nil
}

func (f *fakeTournamentStore) UpsertWinners(_ context.Context, ws []models.TournamentWinner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range ws {
		for k, cur := range f.winners {
			if cur.TournamentSlug != w.TournamentSlug {
				continue
			}
			if cur.Rank == w.Rank {
				delete(f.winners, k)
			} else if cur.UserID == w.UserID {
				return repositories.ErrDuplicate
			}
		}
		cp := w
		f.winners[w.ID] = &cp
	}
	return nil
}

func (f *fakeTournamentStore) RenameWinnersSlug(_ context.Context, oldSlug, newSlug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.winners {
		if w.TournamentSlug == oldSlug {
			w.TournamentSlug = newSlug
		}
	}
	return nil
}

func (f *fakeTournamentStore) GetWinner(_ context.Context, id string) (*models.TournamentWinner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.winners[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeTournamentStore) UpdateWinner(_ context.Context, w *models.TournamentWinner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.winners[w.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *w
	f.winners[w.ID] = &cp
	return nil
}

// Access, naming and role stubs.

type stubAccess struct {
	active bool
	err    error
}

func (s stubAccess) HasActive(context.Context, string, time.Time) (bool, error) {
	return s.active, s.err
}

type stubPlayers map[string]string

func (s stubPlayers) DisplayName(_ context.Context, userID string) (string, error) {
	if n, ok := s[userID]; ok {
		return n, nil
	}
	return defaultPlayerName, nil
}

type stubAdmins map[string]bool

func (s stubAdmins) IsAdmin(_ context.Context, userID string) (bool, error) {
	return s[userID], nil
}

// fakeLeaderboardStore keeps raw scores and answers best-per-user queries.
type fakeLeaderboardStore struct {
	mu     sync.Mutex
	rows   []models.LeaderboardScore
	calls  int
	err    error
	daily  []time.Time
	weekly []time.Time
}

func (f *fakeLeaderboardStore) InsertScore(_ context.Context, s *models.LeaderboardScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	s.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeLeaderboardStore) BestScores(_ context.Context, gameSlug string, since, until time.Time, limit int) ([]models.BestScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	best := map[string]models.BestScore{}
	for _, r := range f.rows {
		if r.GameSlug != gameSlug {
			continue
		}
		if !since.IsZero() && r.CreatedAt.Before(since) {
			continue
		}
		if !until.IsZero() && !r.CreatedAt.Before(until) {
			continue
		}
		cur, ok := best[r.UserID]
		if !ok || r.Score > cur.BestScore || (r.Score == cur.BestScore && r.CreatedAt.Before(cur.AchievedAt)) {
			best[r.UserID] = models.BestScore{UserID: r.UserID, PlayerName: r.PlayerName, BestScore: r.Score, AchievedAt: r.CreatedAt}
		}
	}
	out := make([]models.BestScore, 0, len(best))
	for _, b := range best {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestScore != out[j].BestScore {
			return out[i].BestScore > out[j].BestScore
		}
		return out[i].AchievedAt.Before(out[j].AchievedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLeaderboardStore) SnapshotDaily(_ context.Context, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily = append(f.daily, day)
	return 3, f.err
}

func (f *fakeLeaderboardStore) SnapshotWeekly(_ context.Context, weekStart time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weekly = append(f.weekly, weekStart)
	return 5, f.err
}

// memCache is a map-backed ByteCache that ignores TTLs.
type memCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type fakeSubscriptionStore struct {
	mu    sync.Mutex
	plans []models.SubscriptionPlan
	subs  []models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	f := &fakeSubscriptionStore{}
	for i, p := range models.DefaultPlans {
		p.ID = []string{"plan-1d", "plan-7d", "plan-30d"}[i]
		f.plans = append(f.plans, p)
	}
	return f
}

func (f *fakeSubscriptionStore) ListPlans(context.Context) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for _, p := range f.plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionStore) PlanByCode(_ context.Context, code string) (*models.SubscriptionPlan, error) {
	for _, p := range f.plans {
		if p.Code == code {
			cp := p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeSubscriptionStore) LatestSubscription(_ context.Context, userID string) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Subscription
	for i := range f.subs {
		s := f.subs[i]
		if s.UserID == userID && (best == nil || s.EndsAt.After(best.EndsAt)) {
			best = &s
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	return best, nil
}

func (f *fakeSubscriptionStore) ActiveSubscription(_ context.Context, userID string, now time.Time) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Subscription
	for i := range f.subs {
		s := f.subs[i]
		if s.UserID == userID && s.ActiveAt(now) && (best == nil || s.EndsAt.After(best.EndsAt)) {
			best = &s
		}
	}
	if best == nil {
		return nil, repositories.ErrNotFound
	}
	return best, nil
}

func (f *fakeSubscriptionStore) CreateSubscription(_ context.Context, s *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, *s)
	return nil
}

func (f *fakeSubscriptionStore) SeedPlans(context.Context, []models.SubscriptionPlan) error { return nil }

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfileStore(ps ...models.Profile) *fakeProfileStore {
	f := &fakeProfileStore{profiles: map[string]*models.Profile{}}
	for i := range ps {
		p := ps[i]
		f.profiles[p.UserID] = &p
	}
	return f
}

func (f *fakeProfileStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileStore) CreateProfile(_ context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; ok {
		return repositories.ErrDuplicate
	}
	for _, cur := range f.profiles {
		if strings.EqualFold(cur.DisplayName, p.DisplayName) {
			return repositories.ErrDuplicate
		}
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeProfileStore) DisplayNameTaken(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if strings.EqualFold(p.DisplayName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProfileStore) PhoneTaken(_ context.Context, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type fakeContentStore struct {
	messages []models.ContactMessage
	reorder  []string
}

func (f *fakeContentStore) ListGames(context.Context) ([]models.ArcadeGame, error) {
	return models.DefaultGames, nil
}

func (f *fakeContentStore) GetGame(_ context.Context, slug string) (*models.ArcadeGame, error) {
	for _, g := range models.DefaultGames {
		if g.Slug == slug {
			return &g, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContentStore) ListWorks(context.Context) ([]models.Work, error) {
	return []models.Work{{ID: "w1", Slug: "neon-drift", Title: "Neon Drift"}}, nil
}

func (f *fakeContentStore) GetWorkBySlug(_ context.Context, slug string) (*models.Work, error) {
	if slug == "neon-drift" {
		return &models.Work{ID: "w1", Slug: slug, Title: "Neon Drift"}, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContentStore) ListStudioServices(context.Context) ([]models.StudioService, error) {
	return []models.StudioService{}, nil
}

func (f *fakeContentStore) ReorderStudioServices(_ context.Context, ids []string) error {
	f.reorder = ids
	return nil
}

func (f *fakeContentStore) CreateContactMessage(_ context.Context, m *models.ContactMessage) error {
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeContentStore) SeedGames(context.Context, []models.ArcadeGame) error { return nil }

// fixedClock returns a settable clock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
