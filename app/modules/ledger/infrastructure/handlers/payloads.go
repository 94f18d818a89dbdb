package ledgerhandlers

import (
	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Request subjects served by the ledger transport.
const (
	AddIncrementsSubject  = "ledger.increment.add"
	ImportGridSubject     = "ledger.grid.import"
	CreateGameSubject     = "ledger.game.create"
	ExportGameSubject     = "ledger.export.game"
	ExportAllGamesSubject = "ledger.export.all"
	ListGamesSubject      = "ledger.game.list"
	ListFilesSubject      = "ledger.file.list"
)

// QueueGroup load-balances request handling across backend instances.
const QueueGroup = "grind-bot-ledger"

// AddIncrementsRequest asks for n sequential increments for one user.
type AddIncrementsRequest struct {
	GameName   string `json:"game_name"`
	Username   string `json:"username"`
	Increments int    `json:"increments"`
}

// ImportGridRequest carries a raw spreadsheet grid for reconciliation. When
// Grid is empty, File names a workbook in the configured excel folder to read
// the grid from; the game name then defaults to the file's base name.
type ImportGridRequest struct {
	GameName string     `json:"game_name,omitempty"`
	Grid     [][]string `json:"grid,omitempty"`
	File     string     `json:"file,omitempty"`
}

// CreateGameRequest registers a game by name.
type CreateGameRequest struct {
	GameName string `json:"game_name"`
}

// ExportGameRequest asks for one game's spreadsheet projection.
type ExportGameRequest struct {
	GameName string `json:"game_name"`
}

// ExportArtifact reports a written workbook and the shape of what it holds.
type ExportArtifact struct {
	GameName        sharedtypes.GameName `json:"game_name"`
	Path            string               `json:"path"`
	UserCycles      int                  `json:"user_cycles"`
	Records         int                  `json:"records"`
	CompletedCycles int                  `json:"completed_cycles"`
}

// ExportAllGamesArtifact reports the combined workbook, one entry per sheet.
// Every entry shares the workbook path.
type ExportAllGamesArtifact struct {
	Path  string           `json:"path"`
	Games []ExportArtifact `json:"games"`
}

// ErrorBody carries a machine-readable failure to the caller.
type ErrorBody struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Response is the reply envelope for every subject. Exactly one of Error and
// Data is set.
type Response[T any] struct {
	CorrelationID string     `json:"correlation_id"`
	Success       bool       `json:"success"`
	Error         *ErrorBody `json:"error,omitempty"`
	Data          *T         `json:"data,omitempty"`
}

// Reply payload types per subject.
type (
	AddIncrementsResponse  = Response[ledgerservice.AddIncrementsResult]
	ImportGridResponse     = Response[ledgerservice.ImportGridResult]
	CreateGameResponse     = Response[ledgerservice.CreateGameResult]
	ExportGameResponse     = Response[ExportArtifact]
	ExportAllGamesResponse = Response[ExportAllGamesArtifact]
	ListGamesResponse      = Response[[]ledgerservice.GameSummary]
	ListFilesResponse      = Response[[]string]
)

// Validation failure codes, distinct from the service's business failures.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeFileNotFound   = "FILE_NOT_FOUND"
	CodeInternal       = "INTERNAL"
)
