package ledgerservice

import (
	"context"
	"errors"
	"fmt"

	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// BuildGameExport assembles the spreadsheet projection of one game: its
// user-cycles grouped by username, ascending cycle, each with its records in
// insertion order. A game with no user-cycles yields an empty projection.
func (s *LedgerService) BuildGameExport(ctx context.Context, gameName sharedtypes.GameName) (GameExportOperationResult, error) {
	return withTelemetry(s, ctx, "BuildGameExport", gameName, func(ctx context.Context) (GameExportOperationResult, error) {
		game, err := s.repo.GetGameByName(ctx, gameName)
		if err != nil {
			if errors.Is(err, ledgerdb.ErrGameNotFound) {
				return results.FailureResult[GameExportData](LedgerFailure{
					Code:     FailureGameNotFound,
					GameName: gameName,
					Reason:   fmt.Sprintf("game %q does not exist", gameName),
				}), nil
			}
			return GameExportOperationResult{}, err
		}

		data, err := s.buildExportData(ctx, game)
		if err != nil {
			return GameExportOperationResult{}, err
		}

		return results.SuccessResult[GameExportData, LedgerFailure](*data), nil
	})
}

// BuildAllGamesExport assembles the spreadsheet projection of every game, in
// creation order.
func (s *LedgerService) BuildAllGamesExport(ctx context.Context) (AllGamesExportOperationResult, error) {
	return withTelemetry(s, ctx, "BuildAllGamesExport", "all", func(ctx context.Context) (AllGamesExportOperationResult, error) {
		games, err := s.repo.ListGames(ctx)
		if err != nil {
			return AllGamesExportOperationResult{}, err
		}

		if len(games) == 0 {
			return results.FailureResult[[]GameExportData](LedgerFailure{
				Code:   FailureNoGames,
				Reason: "the ledger has no games to export",
			}), nil
		}

		exports := make([]GameExportData, 0, len(games))
		for i := range games {
			data, err := s.buildExportData(ctx, &games[i])
			if err != nil {
				return AllGamesExportOperationResult{}, err
			}
			exports = append(exports, *data)
		}

		return results.SuccessResult[[]GameExportData, LedgerFailure](exports), nil
	})
}

// ListGames summarizes every game in creation order.
func (s *LedgerService) ListGames(ctx context.Context) ([]GameSummary, error) {
	games, err := s.repo.ListGames(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]GameSummary, 0, len(games))
	for i := range games {
		userCycles, err := s.repo.ListUserCycles(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		records, err := s.repo.CountRecordsForGame(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}

		completed := 0
		for _, uc := range userCycles {
			if uc.Completed {
				completed++
			}
		}

		summaries = append(summaries, GameSummary{
			Name:            games[i].Name,
			UserCycles:      len(userCycles),
			Records:         records,
			CompletedCycles: completed,
		})
	}
	return summaries, nil
}

func (s *LedgerService) buildExportData(ctx context.Context, game *ledgerdb.Game) (*GameExportData, error) {
	userCycles, err := s.repo.ListUserCycles(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	data := &GameExportData{
		GameName:   game.Name,
		UserCycles: make([]ExportUserCycle, 0, len(userCycles)),
	}

	for _, uc := range userCycles {
		records, err := s.repo.ListRecords(ctx, uc.ID)
		if err != nil {
			return nil, err
		}

		entries := make([]sharedtypes.RecordEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, sharedtypes.RecordEntry{Date: r.RecordDate, Count: r.Count})
		}

		data.UserCycles = append(data.UserCycles, ExportUserCycle{
			Username:  uc.Username,
			Cycle:     uc.Cycle,
			Completed: uc.Completed,
			Records:   entries,
		})
	}

	return data, nil
}
