package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const dummyProvider = "dummy"

var planAliases = map[string]string{
	"day":   "1d",
	"week":  "7d",
	"month": "30d",
}

type SubscriptionService struct {
	store  repositories.SubscriptionStore
	logger *zap.Logger
	now    func() time.Time
}

func NewSubscriptionService(store repositories.SubscriptionStore, logger *zap.Logger, now func() time.Time) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &SubscriptionService{store: store, logger: logger, now: now}
}

type SubscriptionStatus struct {
	User         *string              `json:"user"`
	Active       bool                 `json:"active"`
	Subscription *models.Subscription `json:"subscription"`
}

// Me reports the caller's latest subscription. Anonymous callers get an empty
// status rather than an error.
func (s *SubscriptionService) Me(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	if userID == "" {
		return &SubscriptionStatus{}, nil
	}
	out := &SubscriptionStatus{User: &userID}

	sub, err := s.store.LatestSubscription(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, Upstream("failed to load subscription", err)
	}
	out.Subscription = sub
	out.Active = sub.ActiveAt(s.now())
	if !out.Active {
		// An older active row may still cover now when a later one was canceled.
		active, err := s.store.ActiveSubscription(ctx, userID, s.now())
		if err == nil {
			out.Subscription = active
			out.Active = true
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, Upstream("failed to load subscription", err)
		}
	}
	return out, nil
}

// HasActive implements AccessChecker.
func (s *SubscriptionService) HasActive(ctx context.Context, userID string, now time.Time) (bool, error) {
	_, err := s.store.ActiveSubscription(ctx, userID, now)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SubscriptionService) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, Upstream("failed to load plans", err)
	}
	return plans, nil
}

// ActivateDummy grants a plan without payment. A renewal starts when the
// current active subscription ends.
func (s *SubscriptionService) ActivateDummy(ctx context.Context, userID, planCode string) (*models.Subscription, error) {
	if userID == "" {
		return nil, Unauthenticated("login required")
	}
	code := strings.ToLower(strings.TrimSpace(planCode))
	if alias, ok := planAliases[code]; ok {
		code = alias
	}
	if code == "" {
		return nil, InvalidInput("missing plan")
	}

	plan, err := s.store.PlanByCode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, InvalidInput("unknown plan %q", planCode)
	}
	if err != nil {
		return nil, Upstream("failed to load plan", err)
	}
	if !plan.IsActive {
		return nil, InvalidInput("plan %q is not available", code)
	}

	now := s.now()
	start := now
	current, err := s.store.ActiveSubscription(ctx, userID, now)
	switch {
	case err == nil && current.EndsAt.After(start):
		start = current.EndsAt
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, Upstream("failed to load subscription", err)
	}

	sub := &models.Subscription{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlanID:      plan.ID,
		Status:      models.SubscriptionActive,
		StartsAt:    start,
		EndsAt:      start.AddDate(0, 0, plan.DurationDays),
		AmountBDT:   plan.PriceBDT,
		Currency:    "BDT",
		Provider:    dummyProvider,
		ProviderRef: "dummy-" + uuid.NewString()[:8],
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, Upstream("failed to create subscription", err)
	}
	sub.Plan = plan

	s.logger.Info("subscription activated",
		zap.String("user_id", userID),
		zap.String("plan", plan.Code),
		zap.Time("ends_at", sub.EndsAt),
	)
	return sub, nil
}
