package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"illusion-arcade/models"
)

func TestExportTournament(t *testing.T) {
	ctx := context.Background()
	store := newFakeTournamentStore(endedCup)
	seedScores(store, endedCup,
		models.TournamentScore{UserID: "u1", PlayerName: "Ada", Score: 90, AchievedAt: endedCup.StartsAt},
		models.TournamentScore{UserID: "u2", PlayerName: "Grace", Score: 80, AchievedAt: endedCup.StartsAt},
	)
	svc := newTestTournamentService(store, newClock(t0))
	_, err := svc.Finalize(ctx, endedCup.ID, false)
	require.NoError(t, err)

	raw, name, err := svc.ExportTournament(ctx, endedCup.ID)
	require.NoError(t, err)
	assert.Equal(t, "winter-cup.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{scoresSheet, winnersSheet}, f.GetSheetList())

	scores, err := f.GetRows(scoresSheet)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, []string{"Rank", "User ID", "Player", "Score", "Achieved At"}, scores[0])
	assert.Equal(t, "Ada", scores[1][2])
	assert.Equal(t, "90", scores[1][3])

	winners, err := f.GetRows(winnersSheet)
	require.NoError(t, err)
	require.Len(t, winners, 3)
	assert.Equal(t, "1000 BDT", winners[1][4])

	_, _, err = svc.ExportTournament(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
