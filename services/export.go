package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"illusion-arcade/repositories"
)

const (
	scoresSheet  = "Scores"
	winnersSheet = "Winners"
	exportRows   = 10000
)

// ExportTournament renders a tournament's best scores and podium as an XLSX
// workbook. It returns the file bytes and a suggested file name.
func (s *TournamentService) ExportTournament(ctx context.Context, tournamentID string) ([]byte, string, error) {
	t, err := s.store.GetTournamentByID(ctx, tournamentID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", NotFound("tournament not found")
	}
	if err != nil {
		return nil, "", Upstream("failed to load tournament", err)
	}
	scores, err := s.store.ListTournamentScores(ctx, t.ID, exportRows)
	if err != nil {
		return nil, "", Upstream("failed to load scores", err)
	}
	winners, err := s.store.ListWinners(ctx, t.Slug)
	if err != nil {
		return nil, "", Upstream("failed to load winners", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scoresSheet); err != nil {
		return nil, "", fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(scoresSheet, "A1", &[]any{"Rank", "User ID", "Player", "Score", "Achieved At"}); err != nil {
		return nil, "", err
	}
	for i, sc := range scores {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{i + 1, sc.UserID, sc.PlayerName, sc.Score, sc.AchievedAt.UTC().Format(time.RFC3339)}
		if err := f.SetSheetRow(scoresSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	if _, err := f.NewSheet(winnersSheet); err != nil {
		return nil, "", fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := f.SetSheetRow(winnersSheet, "A1", &[]any{"Rank", "User ID", "Player", "Score", "Prize"}); err != nil {
		return nil, "", err
	}
	for i, w := range winners {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{w.Rank, w.UserID, w.PlayerName, w.Score, w.Prize}
		if err := f.SetSheetRow(winnersSheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), t.Slug + ".xlsx", nil
}
