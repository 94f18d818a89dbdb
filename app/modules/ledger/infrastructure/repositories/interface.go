package ledgerdb

import (
	"context"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Repository defines the ledger storage operations.
type Repository interface {
	// CreateOrGetGame returns the game with the given name, creating it if
	// necessary. It never errors on a duplicate name.
	CreateOrGetGame(ctx context.Context, name sharedtypes.GameName) (*Game, error)

	// GetGameByName returns the game or ErrGameNotFound.
	GetGameByName(ctx context.Context, name sharedtypes.GameName) (*Game, error)

	// CreateOrGetUserCycle returns the user-cycle identified by
	// (username, gameID, cycle), creating it if necessary.
	CreateOrGetUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64, cycle sharedtypes.CycleNumber) (*UserCycle, error)

	// LatestUserCycle returns the highest-numbered cycle for
	// (username, gameID), or ErrUserCycleNotFound when none exists.
	LatestUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64) (*UserCycle, error)

	// AppendRecord appends one immutable ledger entry to a user-cycle.
	AppendRecord(ctx context.Context, userCycleID int64, date sharedtypes.RecordDate, count sharedtypes.Count) error

	// ListRecords returns a user-cycle's records in insertion order.
	ListRecords(ctx context.Context, userCycleID int64) ([]Record, error)

	// LatestCount returns the count of the last-inserted record, or 0 when
	// the user-cycle has no records.
	LatestCount(ctx context.Context, userCycleID int64) (sharedtypes.Count, error)

	// CompleteUserCycle marks a user-cycle completed. Completing an already
	// completed cycle is a no-op.
	CompleteUserCycle(ctx context.Context, userCycleID int64) error

	// ListGames returns every game in creation order.
	ListGames(ctx context.Context) ([]Game, error)

	// ListUserCycles returns a game's user-cycles grouped by username and
	// ordered by ascending cycle number.
	ListUserCycles(ctx context.Context, gameID int64) ([]UserCycle, error)

	// CountRecordsForGame returns the total record count across all of a
	// game's user-cycles.
	CountRecordsForGame(ctx context.Context, gameID int64) (int, error)
}
