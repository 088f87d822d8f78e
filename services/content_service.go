package services

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const (
	maxContactName    = 80
	maxContactEmail   = 120
	maxContactShort   = 40
	minContactMessage = 10
	maxContactMessage = 5000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContentService serves the game catalog and the studio portfolio.
type ContentService struct {
	store  repositories.ContentStore
	logger *zap.Logger
}

func NewContentService(store repositories.ContentStore, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{store: store, logger: logger}
}

// Games lists the catalog. Without a backend the built-in catalog is served.
func (s *ContentService) Games(ctx context.Context) ([]models.ArcadeGame, error) {
	if s.store == nil {
		return slices.Clone(models.DefaultGames), nil
	}
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, Upstream("failed to load games", err)
	}
	return games, nil
}

func (s *ContentService) Game(ctx context.Context, slug string) (*models.ArcadeGame, error) {
	if s.store == nil {
		for i := range models.DefaultGames {
			if models.DefaultGames[i].Slug == slug {
				g := models.DefaultGames[i]
				return &g, nil
			}
		}
		return nil, NotFound("game not found")
	}
	g, err := s.store.GetGame(ctx, slug)
	if err != nil {
		return nil, storeErr(err, "failed to load game")
	}
	return g, nil
}

func (s *ContentService) Works(ctx context.Context) ([]models.Work, error) {
	if s.store == nil {
		return []models.Work{}, nil
	}
	works, err := s.store.ListWorks(ctx)
	if err != nil {
		return nil, Upstream("failed to load works", err)
	}
	return works, nil
}

// WorkBySlug returns nil, nil for an unknown slug.
func (s *ContentService) WorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, InvalidInput("missing slug")
	}
	if s.store == nil {
		return nil, nil
	}
	w, err := s.store.GetWorkBySlug(ctx, slug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, Upstream("failed to load work", err)
	}
	return w, nil
}

func (s *ContentService) StudioServices(ctx context.Context) ([]models.StudioService, error) {
	if s.store == nil {
		return []models.StudioService{}, nil
	}
	out, err := s.store.ListStudioServices(ctx)
	if err != nil {
		return nil, Upstream("failed to load services", err)
	}
	return out, nil
}

// ReorderStudioServices assigns sort_order 10, 20, ... following ids.
func (s *ContentService) ReorderStudioServices(ctx context.Context, ids []string) error {
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return InvalidInput("no ids provided")
	}
	if s.store == nil {
		return Upstream("backend not configured", nil)
	}
	if err := s.store.ReorderStudioServices(ctx, clean); err != nil {
		return Upstream("failed to reorder services", err)
	}
	return nil
}

type ContactInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProjectType string `json:"projectType"`
	Budget      string `json:"budget"`
	Message     string `json:"message"`
	Website     string `json:"website"`

	UserID    string `json:"-"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SubmitContact stores an enquiry. A filled honeypot field is accepted and
// silently dropped.
func (s *ContentService) SubmitContact(ctx context.Context, in ContactInput) error {
	if strings.TrimSpace(in.Website) != "" {
		s.logger.Info("contact honeypot hit", zap.String("ip", in.IP))
		return nil
	}

	msg := &models.ContactMessage{
		ID:          uuid.NewString(),
		Name:        truncateRunes(strings.TrimSpace(in.Name), maxContactName),
		Email:       truncateRunes(strings.TrimSpace(in.Email), maxContactEmail),
		ProjectType: truncateRunes(strings.TrimSpace(in.ProjectType), maxContactShort),
		Budget:      truncateRunes(strings.TrimSpace(in.Budget), maxContactShort),
		Message:     truncateRunes(strings.TrimSpace(in.Message), maxContactMessage),
		Source:      "website",
		Status:      "new",
		IP:          in.IP,
		UserAgent:   in.UserAgent,
	}
	if in.UserID != "" {
		uid := in.UserID
		msg.UserID = &uid
	}

	switch {
	case msg.Name == "":
		return InvalidInput("missing name")
	case msg.Email == "" || !emailPattern.MatchString(msg.Email):
		return InvalidInput("invalid email")
	case utf8.RuneCountInString(msg.Message) < minContactMessage:
		return InvalidInput("message too short")
	case msg.ProjectType == "":
		return InvalidInput("missing project type")
	case msg.Budget == "":
		return InvalidInput("missing budget")
	}

	if s.store == nil {
		return Upstream("backend not configured", nil)
	}
	if err := s.store.CreateContactMessage(ctx, msg); err != nil {
		return Upstream("failed to store message", err)
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
