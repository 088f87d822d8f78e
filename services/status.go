package services

import (
	"strings"
	"time"

	"illusion-arcade/models"
)

// EffectiveStatus derives a tournament's status from its window at now.
// Only canceled is taken from the stored column; every other stored value is
// advisory. Each bound is judged on its own, so a missing bound never matches.
func EffectiveStatus(stored string, startsAt, endsAt, now time.Time) string {
	if strings.EqualFold(strings.TrimSpace(stored), models.TournamentCanceled) {
		return models.TournamentCanceled
	}
	hasStart, hasEnd := !startsAt.IsZero(), !endsAt.IsZero()
	switch {
	case hasEnd && !now.Before(endsAt):
		return models.TournamentEnded
	case hasStart && !now.Before(startsAt):
		return models.TournamentLive
	default:
		return models.TournamentScheduled
	}
}

// effectiveStatus is EffectiveStatus for a model.
func effectiveStatus(t *models.Tournament, now time.Time) string {
	return EffectiveStatus(t.Status, t.StartsAt, t.EndsAt, now)
}

// TournamentView is a tournament plus its status derived at response time.
type TournamentView struct {
	models.Tournament
	EffectiveStatus string `json:"effective_status"`
}

func newTournamentView(t models.Tournament, now time.Time) TournamentView {
	return TournamentView{Tournament: t, EffectiveStatus: effectiveStatus(&t, now)}
}
