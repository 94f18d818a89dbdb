package ledgerservice

import (
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// FailureCode discriminates business failures so callers can react without
// string-matching error messages.
type FailureCode string

const (
	// FailureGameNotFound signals an incremental add or export against a
	// game that does not exist. No mutation happened.
	FailureGameNotFound FailureCode = "GAME_NOT_FOUND"

	// FailureNoGames signals an export-all against an empty ledger.
	FailureNoGames FailureCode = "NO_GAMES"
)

// LedgerFailure is the failure arm of every ledger operation result.
type LedgerFailure struct {
	Code     FailureCode          `json:"code"`
	GameName sharedtypes.GameName `json:"game_name,omitempty"`
	Reason   string               `json:"reason"`
}

// AddIncrementsResult reports one incremental batch.
type AddIncrementsResult struct {
	GameName      sharedtypes.GameName      `json:"game_name"`
	Username      sharedtypes.Username      `json:"username"`
	Cycle         sharedtypes.CycleNumber   `json:"cycle"`
	FinalCount    sharedtypes.Count         `json:"final_count"`
	Appended      []sharedtypes.RecordEntry `json:"appended"`
	JustCompleted bool                      `json:"just_completed"`
	// Discarded counts requested increments dropped because the cycle
	// completed mid-batch. They are not carried into a new cycle.
	Discarded int `json:"discarded"`
}

// ImportGridResult reports one bulk import, including the before/after
// comparison a caller uses to tell a first import from a re-import.
type ImportGridResult struct {
	GameName        sharedtypes.GameName `json:"game_name"`
	NewGame         bool                 `json:"new_game"`
	RowsProcessed   int                  `json:"rows_processed"`
	CellsProcessed  int                  `json:"cells_processed"`
	CellsSkipped    int                  `json:"cells_skipped"`
	RecordsBefore   int                  `json:"records_before"`
	RecordsAfter    int                  `json:"records_after"`
	NewRecords      int                  `json:"new_records"`
	CyclesCompleted int                  `json:"cycles_completed"`
}

// CreateGameResult reports an explicit game creation.
type CreateGameResult struct {
	GameID         int64                `json:"game_id"`
	GameName       sharedtypes.GameName `json:"game_name"`
	AlreadyExisted bool                 `json:"already_existed"`
}

// ExportUserCycle is one spreadsheet row of an export: a user-cycle identity
// plus its ordered records.
type ExportUserCycle struct {
	Username  sharedtypes.Username      `json:"username"`
	Cycle     sharedtypes.CycleNumber   `json:"cycle"`
	Completed bool                      `json:"completed"`
	Records   []sharedtypes.RecordEntry `json:"records"`
}

// GameExportData is everything the export renderer needs for one game,
// user-cycles grouped by username and ordered by ascending cycle.
type GameExportData struct {
	GameName   sharedtypes.GameName `json:"game_name"`
	UserCycles []ExportUserCycle    `json:"user_cycles"`
}

// GameSummary is one line of the game listing surface.
type GameSummary struct {
	Name            sharedtypes.GameName `json:"name"`
	UserCycles      int                  `json:"user_cycles"`
	Records         int                  `json:"records"`
	CompletedCycles int                  `json:"completed_cycles"`
}

// Operation result aliases.
type (
	AddIncrementsOperationResult   = results.OperationResult[AddIncrementsResult, LedgerFailure]
	ImportGridOperationResult      = results.OperationResult[ImportGridResult, LedgerFailure]
	CreateGameOperationResult      = results.OperationResult[CreateGameResult, LedgerFailure]
	GameExportOperationResult      = results.OperationResult[GameExportData, LedgerFailure]
	AllGamesExportOperationResult  = results.OperationResult[[]GameExportData, LedgerFailure]
)
