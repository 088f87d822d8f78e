package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"illusion-arcade/metrics"
	"illusion-arcade/models"
	"illusion-arcade/repositories"
)

const (
	podiumSize        = 3
	noScoresMessage   = "No scores found; nothing to finalize."
	alreadyFinalMsg   = "Already finalized. Use force=true to re-finalize."
	finalizeNotEnded  = "Tournament has not ended yet"
	finalizeCancelled = "Tournament is canceled"
)

type FinalizeResult struct {
	TournamentID string                    `json:"tournamentId"`
	Slug         string                    `json:"slug"`
	Winners      []models.TournamentWinner `json:"winners"`
	Message      string                    `json:"message,omitempty"`
}

// SelectWinners takes scores ordered by score desc then submission time asc
// and returns up to three podium rows, one per user, with contiguous ranks.
func SelectWinners(t *models.Tournament, scores []models.TournamentScore) []models.TournamentWinner {
	winners := make([]models.TournamentWinner, 0, podiumSize)
	seen := make(map[string]struct{}, podiumSize)
	for _, sc := range scores {
		if sc.UserID == "" {
			continue
		}
		if _, dup := seen[sc.UserID]; dup {
			continue
		}
		seen[sc.UserID] = struct{}{}
		rank := len(winners) + 1
		winners = append(winners, models.TournamentWinner{
			TournamentID:   t.ID,
			TournamentSlug: t.Slug,
			Rank:           rank,
			UserID:         sc.UserID,
			PlayerName:     sc.PlayerName,
			Score:          sc.Score,
			Prize:          t.PrizeForRank(rank),
		})
		if len(winners) == podiumSize {
			break
		}
	}
	return winners
}

// Finalize computes and stores the podium of an ended tournament. It runs in
// one transaction holding the tournament row lock.
//
// Without force, an already finalized tournament fails with AlreadyFinalized
// and the result carries the stored winners unchanged.
func (s *TournamentService) Finalize(ctx context.Context, tournamentID string, force bool) (*FinalizeResult, error) {
	return s.finalize(ctx, tournamentID, force, metrics.TriggerAdmin)
}

// FinalizeAsAdmin is Finalize guarded by the caller's admin role.
func (s *TournamentService) FinalizeAsAdmin(ctx context.Context, actorID, tournamentID string, force bool) (*FinalizeResult, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	return s.Finalize(ctx, tournamentID, force)
}

func (s *TournamentService) finalize(ctx context.Context, tournamentID string, force bool, trigger string) (res *FinalizeResult, err error) {
	defer func() { s.metrics.ObserveFinalization(trigger, finalizeResult(err)) }()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, InvalidInput("missing tournamentId")
	}

	err = s.store.Transaction(ctx, func(tx repositories.TournamentStore) error {
		t, err := tx.LockTournament(ctx, tournamentID)
		if errors.Is(err, repositories.ErrNotFound) {
			return NotFound("tournament not found")
		}
		if err != nil {
			return Upstream("failed to lock tournament", err)
		}
		res = &FinalizeResult{TournamentID: t.ID, Slug: t.Slug, Winners: []models.TournamentWinner{}}

		now := s.now()
		if !force {
			if effectiveStatus(t, now) == models.TournamentCanceled {
				return Conflict(finalizeCancelled)
			}
			if now.Before(t.EndsAt) {
				return TooEarly(finalizeNotEnded)
			}
		}

		if force {
			if err := tx.DeleteWinners(ctx, t.Slug); err != nil {
				return Upstream("failed to clear winners", err)
			}
		} else {
			existing, err := tx.ListWinners(ctx, t.Slug)
			if err != nil {
				return Upstream("failed to load winners", err)
			}
			if len(existing) > 0 {
				res.Winners = existing
				return AlreadyFinalized(alreadyFinalMsg)
			}
		}

		scores, err := tx.ListTournamentScores(ctx, t.ID, 0)
		if err != nil {
			return Upstream("failed to load scores", err)
		}
		winners := SelectWinners(t, scores)
		for i := range winners {
			winners[i].ID = uuid.NewString()
		}
		if err := tx.UpsertWinners(ctx, winners); err != nil {
			return storeErr(err, "failed to save winners")
		}
		if err := tx.MarkFinalized(ctx, t.ID); err != nil {
			return Upstream("failed to mark finalized", err)
		}

		res.Winners = winners
		if len(winners) == 0 {
			res.Message = noScoresMessage
		}
		return nil
	})
	if err != nil {
		if KindOf(err) == KindAlreadyFinalized {
			return res, err
		}
		return nil, err
	}

	s.logger.Info("tournament finalized",
		zap.String("trigger", trigger),
		zap.String("slug", res.Slug),
		zap.Bool("force", force),
		zap.Int("winners", len(res.Winners)))
	return res, nil
}

func finalizeResult(err error) string {
	if err == nil {
		return "ok"
	}
	return string(KindOf(err))
}

type WinnersResult struct {
	Slug         string                    `json:"slug"`
	Winners      []models.TournamentWinner `json:"winners"`
	FinalizedWas *bool                     `json:"finalizedWas,omitempty"`
}

// Winners returns the podium of a tournament, finalizing it first when it has
// ended (by time or stored status) and no podium was stored yet.
func (s *TournamentService) Winners(ctx context.Context, tournamentSlug string) (*WinnersResult, error) {
	tournamentSlug = strings.TrimSpace(tournamentSlug)
	if tournamentSlug == "" {
		return nil, InvalidInput("missing slug")
	}

	winners, err := s.store.ListWinners(ctx, tournamentSlug)
	if err != nil {
		return nil, Upstream("failed to load winners", err)
	}
	if len(winners) > 0 {
		return &WinnersResult{Slug: tournamentSlug, Winners: winners}, nil
	}

	t, err := s.store.GetTournamentBySlug(ctx, tournamentSlug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("tournament not found")
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}

	now := s.now()
	ended := !now.Before(t.EndsAt) || t.Status == models.TournamentEnded
	if !ended || t.Finalized || effectiveStatus(t, now) == models.TournamentCanceled {
		return &WinnersResult{Slug: tournamentSlug, Winners: []models.TournamentWinner{}}, nil
	}

	finalizedWas := t.Finalized
	res, err := s.finalize(ctx, t.ID, false, metrics.TriggerRead)
	switch KindOf(err) {
	case "":
		return &WinnersResult{Slug: tournamentSlug, Winners: res.Winners, FinalizedWas: &finalizedWas}, nil
	case KindAlreadyFinalized:
		// Lost the race to another finalizer; its podium is authoritative.
		return &WinnersResult{Slug: tournamentSlug, Winners: res.Winners, FinalizedWas: &finalizedWas}, nil
	case KindTooEarly:
		// Stored status says ended but the window is still open.
		return &WinnersResult{Slug: tournamentSlug, Winners: []models.TournamentWinner{}}, nil
	default:
		return nil, err
	}
}

// AdminWinners lists the stored podium of a tournament by id.
func (s *TournamentService) AdminWinners(ctx context.Context, tournamentID string) ([]models.TournamentWinner, error) {
	t, err := s.store.GetTournamentByID(ctx, strings.TrimSpace(tournamentID))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("tournament not found")
	}
	if err != nil {
		return nil, Upstream("failed to load tournament", err)
	}
	winners, err := s.store.ListWinners(ctx, t.Slug)
	if err != nil {
		return nil, Upstream("failed to load winners", err)
	}
	return winners, nil
}

// WinnerPatch edits a podium row. Nil fields are left unchanged; rank is not editable.
type WinnerPatch struct {
	ID         string   `json:"id"`
	PlayerName *string  `json:"player_name"`
	Score      *float64 `json:"score"`
	Prize      *string  `json:"prize"`
}

func (s *TournamentService) UpdateWinner(ctx context.Context, p WinnerPatch) (*models.TournamentWinner, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return nil, InvalidInput("missing winner row id")
	}
	w, err := s.store.GetWinner(ctx, p.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NotFound("winner not found")
	}
	if err != nil {
		return nil, Upstream("failed to load winner", err)
	}

	if p.PlayerName != nil {
		name := normalizeName(*p.PlayerName, maxPlayerNameRunes)
		if name == "" {
			return nil, InvalidInput("player_name must not be empty")
		}
		w.PlayerName = name
	}
	if p.Score != nil {
		if !validScore(*p.Score) {
			return nil, InvalidInput("invalid score")
		}
		w.Score = *p.Score
	}
	if p.Prize != nil {
		w.Prize = strings.TrimSpace(*p.Prize)
	}

	if err := s.store.UpdateWinner(ctx, w); err != nil {
		return nil, storeErr(err, "failed to update winner")
	}
	return w, nil
}

// FinalizeDue finalizes every ended, unfinalized tournament. Used by the scheduler.
func (s *TournamentService) FinalizeDue(ctx context.Context) (int, error) {
	due, err := s.store.DueForFinalize(ctx, s.now())
	if err != nil {
		return 0, Upstream("failed to list due tournaments", err)
	}
	done := 0
	for _, t := range due {
		_, err := s.finalize(ctx, t.ID, false, metrics.TriggerScheduler)
		switch KindOf(err) {
		case "":
			done++
		case KindAlreadyFinalized:
			// Winners exist but the flag was never set; the stored podium stands.
			if err := s.store.MarkFinalized(ctx, t.ID); err != nil {
				s.logger.Warn("failed to mark finalized", zap.String("slug", t.Slug), zap.Error(err))
			}
		default:
			s.logger.Error("scheduled finalize failed", zap.String("slug", t.Slug), zap.Error(err))
		}
	}
	return done, nil
}

// SyncStatuses writes the effective status into the stored column where they differ.
func (s *TournamentService) SyncStatuses(ctx context.Context) (int, error) {
	rows, err := s.store.ListTournaments(ctx, repositories.TournamentFilter{})
	if err != nil {
		return 0, Upstream("failed to list tournaments", err)
	}
	now := s.now()
	changed := 0
	for _, t := range rows {
		eff := effectiveStatus(&t, now)
		if eff == t.Status || eff == models.TournamentCanceled {
			continue
		}
		if err := s.store.SetTournamentStatus(ctx, t.ID, eff); err != nil {
			s.logger.Warn("failed to sync status", zap.String("slug", t.Slug), zap.Error(err))
			continue
		}
		changed++
	}
	return changed, nil
}

func (s *TournamentService) requireAdmin(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return Unauthenticated("login required")
	}
	ok, err := s.admins.IsAdmin(ctx, userID)
	if err != nil {
		return Upstream("failed to load profile", err)
	}
	if !ok {
		return Forbidden("admin only")
	}
	return nil
}
