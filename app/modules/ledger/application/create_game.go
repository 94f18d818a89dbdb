package ledgerservice

import (
	"context"
	"errors"

	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// CreateGame explicitly creates a game. Creating an existing game is not an
// error; the result reports whether it already existed.
func (s *LedgerService) CreateGame(ctx context.Context, gameName sharedtypes.GameName) (CreateGameOperationResult, error) {
	return withTelemetry(s, ctx, "CreateGame", gameName, func(ctx context.Context) (CreateGameOperationResult, error) {
		existed := true
		if _, err := s.repo.GetGameByName(ctx, gameName); err != nil {
			if !errors.Is(err, ledgerdb.ErrGameNotFound) {
				return CreateGameOperationResult{}, err
			}
			existed = false
		}

		game, err := s.repo.CreateOrGetGame(ctx, gameName)
		if err != nil {
			return CreateGameOperationResult{}, err
		}

		if !existed {
			s.publishGameRegistered(ctx, game)
		}

		return results.SuccessResult[CreateGameResult, LedgerFailure](CreateGameResult{
			GameID:         game.ID,
			GameName:       game.Name,
			AlreadyExisted: existed,
		}), nil
	})
}
