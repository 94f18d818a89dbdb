package ledgerservice

import (
	"context"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Service defines the ledger operations exposed to transports.
type Service interface {
	// AddIncrements appends n sequential increments for (username, gameName),
	// resuming or rolling over the user's cycle as needed. n is assumed to be
	// caller-validated (1..max batch size).
	AddIncrements(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (AddIncrementsOperationResult, error)

	// ImportGrid reconciles a spreadsheet grid into the ledger and reports
	// before/after comparison totals.
	ImportGrid(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ImportGridOperationResult, error)

	// CreateGame explicitly creates a game (idempotent).
	CreateGame(ctx context.Context, gameName sharedtypes.GameName) (CreateGameOperationResult, error)

	// BuildGameExport assembles the spreadsheet projection of one game.
	BuildGameExport(ctx context.Context, gameName sharedtypes.GameName) (GameExportOperationResult, error)

	// BuildAllGamesExport assembles the spreadsheet projection of every game.
	BuildAllGamesExport(ctx context.Context) (AllGamesExportOperationResult, error)

	// ListGames summarizes every game in creation order.
	ListGames(ctx context.Context) ([]GameSummary, error)
}
