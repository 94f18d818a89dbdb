package ledgerhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/exporters"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/parsers"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// LedgerHandlers serves the ledger's request/reply subjects. Each Handle
// method takes a raw request payload and returns the raw reply, so the
// handlers are testable without a broker. Workbook reads resolve against
// excelDir; export workbooks land in exportDir.
type LedgerHandlers struct {
	service   ledgerservice.Service
	parser    *parsers.XLSXParser
	exporter  *exporters.XLSXExporter
	logger    *slog.Logger
	maxBatch  int
	excelDir  string
	exportDir string
}

// NewLedgerHandlers creates handlers enforcing the given batch-size cap on
// incremental adds.
func NewLedgerHandlers(
	service ledgerservice.Service,
	parser *parsers.XLSXParser,
	exporter *exporters.XLSXExporter,
	logger *slog.Logger,
	maxBatch int,
	excelDir string,
	exportDir string,
) *LedgerHandlers {
	return &LedgerHandlers{
		service:   service,
		parser:    parser,
		exporter:  exporter,
		logger:    logger,
		maxBatch:  maxBatch,
		excelDir:  excelDir,
		exportDir: exportDir,
	}
}

// handle is the shared envelope for every subject: assign a correlation ID,
// decode the request, run the handler logic, and encode the reply. Decode
// failures become INVALID_REQUEST replies rather than transport errors.
func handle[Req any, Data any](
	h *LedgerHandlers,
	ctx context.Context,
	handlerName string,
	data []byte,
	fn func(ctx context.Context, correlationID string, req *Req) (*Response[Data], error),
) ([]byte, error) {
	correlationID := uuid.NewString()

	logger := h.logger.With(
		slog.String("handler", handlerName),
		slog.String("correlation_id", correlationID),
	)
	logger.Info("handling request")

	var req Req
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			logger.Error("failed to decode request", slog.Any("error", err))
			return marshalResponse(failureResponse[Data](correlationID, CodeInvalidRequest, "malformed request payload"))
		}
	}

	resp, err := fn(ctx, correlationID, &req)
	if err != nil {
		logger.Error("handler failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", handlerName, err)
	}

	if resp.Success {
		logger.Info("request handled")
	} else {
		logger.Info("request rejected", slog.String("code", resp.Error.Code))
	}
	return marshalResponse(resp)
}

func marshalResponse[Data any](resp *Response[Data]) ([]byte, error) {
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reply: %w", err)
	}
	return out, nil
}

func successResponse[Data any](correlationID string, data Data) *Response[Data] {
	return &Response[Data]{
		CorrelationID: correlationID,
		Success:       true,
		Data:          &data,
	}
}

func failureResponse[Data any](correlationID, code, reason string) *Response[Data] {
	return &Response[Data]{
		CorrelationID: correlationID,
		Success:       false,
		Error:         &ErrorBody{Code: code, Reason: reason},
	}
}

func ledgerFailureResponse[Data any](correlationID string, failure *ledgerservice.LedgerFailure) *Response[Data] {
	return failureResponse[Data](correlationID, string(failure.Code), failure.Reason)
}

// HandleAddIncrements serves AddIncrementsSubject. The batch size is
// validated here; the service assumes a caller-checked range.
func (h *LedgerHandlers) HandleAddIncrements(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleAddIncrements", data,
		func(ctx context.Context, correlationID string, req *AddIncrementsRequest) (*AddIncrementsResponse, error) {
			if req.GameName == "" {
				return failureResponse[ledgerservice.AddIncrementsResult](correlationID, CodeInvalidRequest, "game_name is required"), nil
			}
			if req.Username == "" {
				return failureResponse[ledgerservice.AddIncrementsResult](correlationID, CodeInvalidRequest, "username is required"), nil
			}
			if req.Increments < 1 || req.Increments > h.maxBatch {
				return failureResponse[ledgerservice.AddIncrementsResult](correlationID, CodeInvalidRequest,
					fmt.Sprintf("increments must be between 1 and %d", h.maxBatch)), nil
			}

			result, err := h.service.AddIncrements(ctx,
				sharedtypes.GameName(req.GameName),
				sharedtypes.Username(req.Username),
				req.Increments,
			)
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return ledgerFailureResponse[ledgerservice.AddIncrementsResult](correlationID, result.Failure), nil
			}
			return successResponse(correlationID, *result.Success), nil
		})
}

// HandleImportGrid serves ImportGridSubject. A request carries either an
// inline grid or the name of a workbook to read from the excel folder.
func (h *LedgerHandlers) HandleImportGrid(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleImportGrid", data,
		func(ctx context.Context, correlationID string, req *ImportGridRequest) (*ImportGridResponse, error) {
			grid := req.Grid
			gameName := sharedtypes.GameName(req.GameName)

			if len(grid) == 0 {
				if req.File == "" {
					return failureResponse[ledgerservice.ImportGridResult](correlationID, CodeInvalidRequest, "either grid or file is required"), nil
				}
				path, err := parsers.FindWorkbook(h.excelDir, req.File)
				if err != nil {
					if errors.Is(err, parsers.ErrWorkbookNotFound) {
						return failureResponse[ledgerservice.ImportGridResult](correlationID, CodeFileNotFound, err.Error()), nil
					}
					return nil, err
				}
				file, err := h.parser.ParseFile(path)
				if err != nil {
					return failureResponse[ledgerservice.ImportGridResult](correlationID, CodeInvalidRequest,
						fmt.Sprintf("cannot read workbook %q: %v", req.File, err)), nil
				}
				grid = file.Rows
				if gameName == "" {
					gameName = file.GameName
				}
			}
			if gameName == "" {
				return failureResponse[ledgerservice.ImportGridResult](correlationID, CodeInvalidRequest, "game_name is required"), nil
			}

			result, err := h.service.ImportGrid(ctx, gameName, grid)
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return ledgerFailureResponse[ledgerservice.ImportGridResult](correlationID, result.Failure), nil
			}
			return successResponse(correlationID, *result.Success), nil
		})
}

// HandleCreateGame serves CreateGameSubject.
func (h *LedgerHandlers) HandleCreateGame(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleCreateGame", data,
		func(ctx context.Context, correlationID string, req *CreateGameRequest) (*CreateGameResponse, error) {
			if req.GameName == "" {
				return failureResponse[ledgerservice.CreateGameResult](correlationID, CodeInvalidRequest, "game_name is required"), nil
			}

			result, err := h.service.CreateGame(ctx, sharedtypes.GameName(req.GameName))
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return ledgerFailureResponse[ledgerservice.CreateGameResult](correlationID, result.Failure), nil
			}
			return successResponse(correlationID, *result.Success), nil
		})
}

// HandleExportGame serves ExportGameSubject: it builds the game's projection,
// writes the workbook, and replies with the artifact path and its stats.
func (h *LedgerHandlers) HandleExportGame(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleExportGame", data,
		func(ctx context.Context, correlationID string, req *ExportGameRequest) (*ExportGameResponse, error) {
			if req.GameName == "" {
				return failureResponse[ExportArtifact](correlationID, CodeInvalidRequest, "game_name is required"), nil
			}

			result, err := h.service.BuildGameExport(ctx, sharedtypes.GameName(req.GameName))
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return ledgerFailureResponse[ExportArtifact](correlationID, result.Failure), nil
			}

			exportData := *result.Success
			path, err := h.exporter.ExportGame(exportData, h.exportDir)
			if err != nil {
				return nil, err
			}
			return successResponse(correlationID, artifactFor(exportData, path)), nil
		})
}

// HandleExportAllGames serves ExportAllGamesSubject. The request carries no
// payload; the reply names the combined workbook and its per-game stats.
func (h *LedgerHandlers) HandleExportAllGames(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleExportAllGames", data,
		func(ctx context.Context, correlationID string, _ *struct{}) (*ExportAllGamesResponse, error) {
			result, err := h.service.BuildAllGamesExport(ctx)
			if err != nil {
				return nil, err
			}
			if result.IsFailure() {
				return ledgerFailureResponse[ExportAllGamesArtifact](correlationID, result.Failure), nil
			}

			games := *result.Success
			path, err := h.exporter.ExportAllGames(games, h.exportDir)
			if err != nil {
				return nil, err
			}
			artifact := ExportAllGamesArtifact{Path: path, Games: make([]ExportArtifact, 0, len(games))}
			for _, game := range games {
				artifact.Games = append(artifact.Games, artifactFor(game, path))
			}
			return successResponse(correlationID, artifact), nil
		})
}

func artifactFor(data ledgerservice.GameExportData, path string) ExportArtifact {
	artifact := ExportArtifact{
		GameName:   data.GameName,
		Path:       path,
		UserCycles: len(data.UserCycles),
	}
	for _, uc := range data.UserCycles {
		artifact.Records += len(uc.Records)
		if uc.Completed {
			artifact.CompletedCycles++
		}
	}
	return artifact
}

// HandleListGames serves ListGamesSubject. The request carries no payload.
func (h *LedgerHandlers) HandleListGames(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleListGames", data,
		func(ctx context.Context, correlationID string, _ *struct{}) (*ListGamesResponse, error) {
			summaries, err := h.service.ListGames(ctx)
			if err != nil {
				return nil, err
			}
			return successResponse(correlationID, summaries), nil
		})
}

// HandleListFiles serves ListFilesSubject: the importable workbooks in the
// excel folder. The request carries no payload.
func (h *LedgerHandlers) HandleListFiles(ctx context.Context, data []byte) ([]byte, error) {
	return handle(h, ctx, "HandleListFiles", data,
		func(ctx context.Context, correlationID string, _ *struct{}) (*ListFilesResponse, error) {
			names, err := parsers.ListWorkbooks(h.excelDir)
			if err != nil {
				return nil, err
			}
			if names == nil {
				names = []string{}
			}
			return successResponse(correlationID, names), nil
		})
}
