package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application/codec"
	ledgerevents "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/events"
	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// ImportGrid reconciles a parsed spreadsheet grid into the ledger. Each row
// is an identity cell followed by record cells; undecodable cells are skipped
// without aborting the row. Imports are not deduplicating: re-importing an
// unchanged grid re-appends every record. The before/after totals let the
// caller tell a first import from a re-import.
func (s *LedgerService) ImportGrid(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ImportGridOperationResult, error) {
	return withTelemetry(s, ctx, "ImportGrid", gameName, func(ctx context.Context) (ImportGridOperationResult, error) {
		existed := true
		if _, err := s.repo.GetGameByName(ctx, gameName); err != nil {
			if !errors.Is(err, ledgerdb.ErrGameNotFound) {
				return ImportGridOperationResult{}, err
			}
			existed = false
		}

		game, err := s.repo.CreateOrGetGame(ctx, gameName)
		if err != nil {
			return ImportGridOperationResult{}, err
		}

		if !existed {
			s.publishGameRegistered(ctx, game)
		}

		recordsBefore, err := s.repo.CountRecordsForGame(ctx, game.ID)
		if err != nil {
			return ImportGridOperationResult{}, err
		}

		var (
			rowsProcessed  int
			cellsProcessed int
			cellsSkipped   int
			completedIDs   = make(map[int64]bool)
		)

		for _, row := range grid {
			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}

			username, cycle := codec.DecodeIdentityCell(row[0])
			userCycle, err := s.repo.CreateOrGetUserCycle(ctx, username, game.ID, cycle)
			if err != nil {
				return ImportGridOperationResult{}, err
			}
			rowsProcessed++

			for _, cell := range row[1:] {
				if codec.IsSkipSentinel(cell) {
					continue
				}

				date, count, ok := codec.DecodeRecordCell(cell)
				if !ok {
					cellsSkipped++
					s.logger.DebugContext(ctx, "Skipping undecodable record cell",
						slog.String("game_name", string(gameName)),
						slog.String("username", string(username)),
						slog.String("cell", cell),
					)
					continue
				}

				if err := s.repo.AppendRecord(ctx, userCycle.ID, date, count); err != nil {
					return ImportGridOperationResult{}, err
				}
				cellsProcessed++

				// Completion applies regardless of the cell's position in
				// the row.
				if count >= s.threshold && !completedIDs[userCycle.ID] {
					if err := s.repo.CompleteUserCycle(ctx, userCycle.ID); err != nil {
						return ImportGridOperationResult{}, err
					}
					completedIDs[userCycle.ID] = true
					s.metrics.RecordCycleCompleted()
				}
			}
		}

		recordsAfter, err := s.repo.CountRecordsForGame(ctx, game.ID)
		if err != nil {
			return ImportGridOperationResult{}, err
		}

		s.metrics.RecordImportCells(cellsProcessed, cellsSkipped)
		s.metrics.RecordRecordsAppended(cellsProcessed)

		return results.SuccessResult[ImportGridResult, LedgerFailure](ImportGridResult{
			GameName:        gameName,
			NewGame:         !existed,
			RowsProcessed:   rowsProcessed,
			CellsProcessed:  cellsProcessed,
			CellsSkipped:    cellsSkipped,
			RecordsBefore:   recordsBefore,
			RecordsAfter:    recordsAfter,
			NewRecords:      recordsAfter - recordsBefore,
			CyclesCompleted: len(completedIDs),
		}), nil
	})
}

// publishGameRegistered announces a new game on the in-process bus so the
// command dispatcher picks it up. Best effort: a publish failure is logged,
// not propagated, because the ledger write already succeeded.
func (s *LedgerService) publishGameRegistered(ctx context.Context, game *ledgerdb.Game) {
	if s.publisher == nil {
		return
	}
	err := ledgerevents.PublishGameRegistered(s.publisher, ledgerevents.GameRegisteredPayload{
		GameID:   game.ID,
		GameName: game.Name,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish game registered event",
			slog.String("game_name", string(game.Name)),
			slog.Any("error", fmt.Errorf("publish: %w", err)),
		)
	}
}
