package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const displayNameAttempts = 8

// ProfileService resolves users to local profiles and roles.
type ProfileService struct {
	store  repositories.ProfileStore
	logger *zap.Logger

	mu    sync.Mutex
	faker *gofakeit.Faker
}

func NewProfileService(store repositories.ProfileStore, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{store: store, logger: logger, faker: gofakeit.New(0)}
}

// WithFaker replaces the name generator. Tests seed it for stable names.
func (s *ProfileService) WithFaker(f *gofakeit.Faker) *ProfileService {
	s.faker = f
	return s
}

func (s *ProfileService) generateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%s%s%d", capitalize(s.faker.Adjective()), capitalize(s.faker.Animal()), s.faker.Number(10, 9999))
}

// EnsureProfile returns the user's profile, creating one with a generated
// unique display name on first sight.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, Unauthenticated("login required")
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, Upstream("failed to load profile", err)
	}

	for range displayNameAttempts {
		name := normalizeName(s.generateName(), maxPlayerNameRunes)
		taken, err := s.store.DisplayNameTaken(ctx, name)
		if err != nil {
			return nil, Upstream("failed to check display name", err)
		}
		if taken {
			continue
		}
		p = &models.Profile{UserID: userID, DisplayName: name, Role: models.RoleUser}
		err = s.store.CreateProfile(ctx, p)
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race on either the user id or the name; re-read before retrying.
			if existing, gerr := s.store.GetProfile(ctx, userID); gerr == nil {
				return existing, nil
			}
			continue
		}
		if err != nil {
			return nil, Upstream("failed to create profile", err)
		}
		s.logger.Info("profile created", zap.String("user_id", userID), zap.String("display_name", name))
		return p, nil
	}
	return nil, Conflict("could not allocate a unique display name")
}

// DisplayName implements PlayerNamer.
func (s *ProfileService) DisplayName(ctx context.Context, userID string) (string, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return defaultPlayerName, nil
	}
	if err != nil {
		return "", err
	}
	if p.DisplayName == "" {
		return defaultPlayerName, nil
	}
	return p.DisplayName, nil
}

// IsAdmin implements AdminChecker.
func (s *ProfileService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsAdmin(), nil
}

// Role returns "admin", "user" or "" for anonymous callers.
func (s *ProfileService) Role(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	admin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return "", Upstream("failed to load role", err)
	}
	if admin {
		return models.RoleAdmin, nil
	}
	return models.RoleUser, nil
}

// PhoneAvailable reports whether no profile uses phone. Malformed numbers are
// reported unavailable; lookup failures fail open.
func (s *ProfileService) PhoneAvailable(ctx context.Context, phone string) bool {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") || len(phone) < 4 {
		return false
	}
	taken, err := s.store.PhoneTaken(ctx, phone)
	if err != nil {
		s.logger.Warn("phone lookup failed", zap.Error(err))
		return true
	}
	return !taken
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
