package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// AddIncrements appends n sequential increments for (username, gameName).
// The target cycle is the user's latest uncompleted cycle; a completed latest
// cycle rolls over to a fresh one. Reaching the completion threshold stops
// the batch and discards the remaining increments.
func (s *LedgerService) AddIncrements(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (AddIncrementsOperationResult, error) {
	return withTelemetry(s, ctx, "AddIncrements", gameName, func(ctx context.Context) (AddIncrementsOperationResult, error) {
		game, err := s.repo.GetGameByName(ctx, gameName)
		if err != nil {
			if errors.Is(err, ledgerdb.ErrGameNotFound) {
				return results.FailureResult[AddIncrementsResult](LedgerFailure{
					Code:     FailureGameNotFound,
					GameName: gameName,
					Reason:   fmt.Sprintf("game %q does not exist", gameName),
				}), nil
			}
			return AddIncrementsOperationResult{}, err
		}

		s.incrementMu.Lock()
		defer s.incrementMu.Unlock()

		cycle := sharedtypes.CycleNumber(1)
		latest, err := s.repo.LatestUserCycle(ctx, username, game.ID)
		switch {
		case errors.Is(err, ledgerdb.ErrUserCycleNotFound):
			// First cycle for this user.
		case err != nil:
			return AddIncrementsOperationResult{}, err
		case latest.Completed:
			cycle = latest.Cycle + 1
		default:
			cycle = latest.Cycle
		}

		userCycle, err := s.repo.CreateOrGetUserCycle(ctx, username, game.ID, cycle)
		if err != nil {
			return AddIncrementsOperationResult{}, err
		}

		running, err := s.repo.LatestCount(ctx, userCycle.ID)
		if err != nil {
			return AddIncrementsOperationResult{}, err
		}

		today := sharedtypes.RecordDate(s.now().Format("01-02"))
		appended := make([]sharedtypes.RecordEntry, 0, n)
		justCompleted := false

		for i := 0; i < n; i++ {
			running++
			if err := s.repo.AppendRecord(ctx, userCycle.ID, today, running); err != nil {
				return AddIncrementsOperationResult{}, err
			}
			appended = append(appended, sharedtypes.RecordEntry{Date: today, Count: running})

			if running >= s.threshold {
				if err := s.repo.CompleteUserCycle(ctx, userCycle.ID); err != nil {
					return AddIncrementsOperationResult{}, err
				}
				justCompleted = true
				s.metrics.RecordCycleCompleted()
				break
			}
		}

		s.metrics.RecordRecordsAppended(len(appended))

		discarded := n - len(appended)
		if discarded > 0 {
			s.logger.InfoContext(ctx, "Discarded increments beyond completion threshold",
				slog.String("game_name", string(gameName)),
				slog.String("username", string(username)),
				slog.Int("discarded", discarded),
			)
		}

		return results.SuccessResult[AddIncrementsResult, LedgerFailure](AddIncrementsResult{
			GameName:      gameName,
			Username:      username,
			Cycle:         cycle,
			FinalCount:    running,
			Appended:      appended,
			JustCompleted: justCompleted,
			Discarded:     discarded,
		}), nil
	})
}
