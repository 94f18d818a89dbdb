package ledgerhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/exporters"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/parsers"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

const testMaxBatch = 100

func newTestHandlers(t *testing.T, svc *fakeLedgerService) *LedgerHandlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()
	return NewLedgerHandlers(
		svc,
		parsers.NewXLSXParser(),
		exporters.NewXLSXExporter(50, 20),
		logger,
		testMaxBatch,
		filepath.Join(dir, "excel"),
		filepath.Join(dir, "excel", "exports"),
	)
}

func writeTestWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, f.SaveAs(path))
}

func TestHandleAddIncrements_Success(t *testing.T) {
	ctx := context.Background()
	svc := &fakeLedgerService{
		AddIncrementsFn: func(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error) {
			require.Equal(t, sharedtypes.GameName("limbus"), gameName)
			require.Equal(t, sharedtypes.Username("alice"), username)
			require.Equal(t, 3, n)
			return results.SuccessResult[ledgerservice.AddIncrementsResult, ledgerservice.LedgerFailure](ledgerservice.AddIncrementsResult{
				GameName:   gameName,
				Username:   username,
				Cycle:      1,
				FinalCount: 3,
			}), nil
		},
	}

	reqData, err := json.Marshal(AddIncrementsRequest{GameName: "limbus", Username: "alice", Increments: 3})
	require.NoError(t, err)

	replyData, err := newTestHandlers(t, svc).HandleAddIncrements(ctx, reqData)
	require.NoError(t, err)

	var reply AddIncrementsResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.NotEmpty(t, reply.CorrelationID)
	require.Nil(t, reply.Error)
	require.Equal(t, sharedtypes.Count(3), reply.Data.FinalCount)
}

func TestHandleAddIncrements_Validation(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		AddIncrementsFn: func(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error) {
			t.Fatal("service must not be called for invalid requests")
			return ledgerservice.AddIncrementsOperationResult{}, nil
		},
	})

	tests := []struct {
		name string
		req  AddIncrementsRequest
	}{
		{name: "missing game", req: AddIncrementsRequest{Username: "alice", Increments: 1}},
		{name: "missing username", req: AddIncrementsRequest{GameName: "limbus", Increments: 1}},
		{name: "zero increments", req: AddIncrementsRequest{GameName: "limbus", Username: "alice"}},
		{name: "negative increments", req: AddIncrementsRequest{GameName: "limbus", Username: "alice", Increments: -4}},
		{name: "over batch cap", req: AddIncrementsRequest{GameName: "limbus", Username: "alice", Increments: testMaxBatch + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reqData, err := json.Marshal(tt.req)
			require.NoError(t, err)

			replyData, err := handlers.HandleAddIncrements(ctx, reqData)
			require.NoError(t, err)

			var reply AddIncrementsResponse
			require.NoError(t, json.Unmarshal(replyData, &reply))
			require.False(t, reply.Success)
			require.Equal(t, CodeInvalidRequest, reply.Error.Code)
		})
	}
}

func TestHandleAddIncrements_BusinessFailure(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		AddIncrementsFn: func(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error) {
			return results.FailureResult[ledgerservice.AddIncrementsResult](ledgerservice.LedgerFailure{
				Code:     ledgerservice.FailureGameNotFound,
				GameName: gameName,
				Reason:   "game \"ghosts\" does not exist",
			}), nil
		},
	})

	reqData, err := json.Marshal(AddIncrementsRequest{GameName: "ghosts", Username: "alice", Increments: 1})
	require.NoError(t, err)

	replyData, err := handlers.HandleAddIncrements(ctx, reqData)
	require.NoError(t, err)

	var reply AddIncrementsResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.False(t, reply.Success)
	require.Equal(t, string(ledgerservice.FailureGameNotFound), reply.Error.Code)
}

func TestHandleAddIncrements_MalformedPayload(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{})

	replyData, err := handlers.HandleAddIncrements(ctx, []byte("{not json"))
	require.NoError(t, err)

	var reply AddIncrementsResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.False(t, reply.Success)
	require.Equal(t, CodeInvalidRequest, reply.Error.Code)
}

func TestHandleAddIncrements_ServiceError(t *testing.T) {
	ctx := context.Background()
	serviceErr := errors.New("database offline")
	handlers := newTestHandlers(t, &fakeLedgerService{
		AddIncrementsFn: func(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error) {
			return ledgerservice.AddIncrementsOperationResult{}, serviceErr
		},
	})

	reqData, err := json.Marshal(AddIncrementsRequest{GameName: "limbus", Username: "alice", Increments: 1})
	require.NoError(t, err)

	_, err = handlers.HandleAddIncrements(ctx, reqData)
	require.Error(t, err)
	require.ErrorIs(t, err, serviceErr)
}

func TestHandleImportGrid(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		ImportGridFn: func(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ledgerservice.ImportGridOperationResult, error) {
			require.Equal(t, [][]string{{"alice", "5-13_1"}}, grid)
			return results.SuccessResult[ledgerservice.ImportGridResult, ledgerservice.LedgerFailure](ledgerservice.ImportGridResult{
				GameName:   gameName,
				NewGame:    true,
				NewRecords: 1,
			}), nil
		},
	})

	reqData, err := json.Marshal(ImportGridRequest{GameName: "limbus", Grid: [][]string{{"alice", "5-13_1"}}})
	require.NoError(t, err)

	replyData, err := handlers.HandleImportGrid(ctx, reqData)
	require.NoError(t, err)

	var reply ImportGridResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.True(t, reply.Data.NewGame)
	require.Equal(t, 1, reply.Data.NewRecords)
}

func TestHandleImportGrid_MissingGameName(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{})

	reqData, err := json.Marshal(ImportGridRequest{Grid: [][]string{{"alice", "5-13_1"}}})
	require.NoError(t, err)

	replyData, err := handlers.HandleImportGrid(ctx, reqData)
	require.NoError(t, err)

	var reply ImportGridResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.False(t, reply.Success)
	require.Equal(t, CodeInvalidRequest, reply.Error.Code)
}

func TestHandleCreateGame(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		CreateGameFn: func(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.CreateGameOperationResult, error) {
			return results.SuccessResult[ledgerservice.CreateGameResult, ledgerservice.LedgerFailure](ledgerservice.CreateGameResult{
				GameID:   7,
				GameName: gameName,
			}), nil
		},
	})

	reqData, err := json.Marshal(CreateGameRequest{GameName: "limbus"})
	require.NoError(t, err)

	replyData, err := handlers.HandleCreateGame(ctx, reqData)
	require.NoError(t, err)

	var reply CreateGameResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.Equal(t, int64(7), reply.Data.GameID)
}

func TestHandleExportGame_NotFound(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		BuildGameExportFn: func(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.GameExportOperationResult, error) {
			return results.FailureResult[ledgerservice.GameExportData](ledgerservice.LedgerFailure{
				Code:     ledgerservice.FailureGameNotFound,
				GameName: gameName,
				Reason:   "game does not exist",
			}), nil
		},
	})

	reqData, err := json.Marshal(ExportGameRequest{GameName: "ghosts"})
	require.NoError(t, err)

	replyData, err := handlers.HandleExportGame(ctx, reqData)
	require.NoError(t, err)

	var reply ExportGameResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.False(t, reply.Success)
	require.Equal(t, string(ledgerservice.FailureGameNotFound), reply.Error.Code)
}

func TestHandleExportAllGames_EmptyRequest(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		BuildAllGamesExportFn: func(ctx context.Context) (ledgerservice.AllGamesExportOperationResult, error) {
			return results.SuccessResult[[]ledgerservice.GameExportData, ledgerservice.LedgerFailure]([]ledgerservice.GameExportData{
				{GameName: "limbus"},
			}), nil
		},
	})

	// The subject takes no request payload at all.
	replyData, err := handlers.HandleExportAllGames(ctx, nil)
	require.NoError(t, err)

	var reply ExportAllGamesResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.Len(t, reply.Data.Games, 1)
	require.Equal(t, sharedtypes.GameName("limbus"), reply.Data.Games[0].GameName)
	_, err = os.Stat(reply.Data.Path)
	require.NoError(t, err)
}

func TestHandleExportGame_WritesWorkbook(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		BuildGameExportFn: func(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.GameExportOperationResult, error) {
			return results.SuccessResult[ledgerservice.GameExportData, ledgerservice.LedgerFailure](ledgerservice.GameExportData{
				GameName: gameName,
				UserCycles: []ledgerservice.ExportUserCycle{
					{Username: "alice", Cycle: 1, Completed: true, Records: []sharedtypes.RecordEntry{
						{Date: "5-13", Count: 29},
						{Date: "5-14", Count: 30},
					}},
					{Username: "bob", Cycle: 3, Records: []sharedtypes.RecordEntry{
						{Date: "6-01", Count: 1},
					}},
				},
			}), nil
		},
	})

	reqData, err := json.Marshal(ExportGameRequest{GameName: "limbus"})
	require.NoError(t, err)

	replyData, err := handlers.HandleExportGame(ctx, reqData)
	require.NoError(t, err)

	var reply ExportGameResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)

	artifact := *reply.Data
	require.Equal(t, sharedtypes.GameName("limbus"), artifact.GameName)
	require.Equal(t, 2, artifact.UserCycles)
	require.Equal(t, 3, artifact.Records)
	require.Equal(t, 1, artifact.CompletedCycles)
	require.Equal(t, handlers.exportDir, filepath.Dir(artifact.Path))
	_, err = os.Stat(artifact.Path)
	require.NoError(t, err)
}

func TestHandleImportGrid_FromFile(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		ImportGridFn: func(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ledgerservice.ImportGridOperationResult, error) {
			require.Equal(t, sharedtypes.GameName("limbus"), gameName)
			require.Equal(t, [][]string{{"alice", "5-13_1"}}, grid)
			return results.SuccessResult[ledgerservice.ImportGridResult, ledgerservice.LedgerFailure](ledgerservice.ImportGridResult{
				GameName: gameName,
				NewGame:  true,
			}), nil
		},
	})
	writeTestWorkbook(t, filepath.Join(handlers.excelDir, "limbus.xlsx"), [][]string{{"alice", "5-13_1"}})

	reqData, err := json.Marshal(ImportGridRequest{File: "limbus"})
	require.NoError(t, err)

	replyData, err := handlers.HandleImportGrid(ctx, reqData)
	require.NoError(t, err)

	var reply ImportGridResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.True(t, reply.Data.NewGame)
}

func TestHandleImportGrid_FileNotFound(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{})
	require.NoError(t, os.MkdirAll(handlers.excelDir, 0o755))

	reqData, err := json.Marshal(ImportGridRequest{File: "ghosts"})
	require.NoError(t, err)

	replyData, err := handlers.HandleImportGrid(ctx, reqData)
	require.NoError(t, err)

	var reply ImportGridResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.False(t, reply.Success)
	require.Equal(t, CodeFileNotFound, reply.Error.Code)
}

func TestHandleListFiles(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{})
	writeTestWorkbook(t, filepath.Join(handlers.excelDir, "limbus.xlsx"), [][]string{{"alice", "5-13_1"}})
	writeTestWorkbook(t, filepath.Join(handlers.excelDir, "arknights.xlsx"), [][]string{{"bob", "6-01_1"}})

	replyData, err := handlers.HandleListFiles(ctx, nil)
	require.NoError(t, err)

	var reply ListFilesResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	require.Equal(t, []string{"arknights.xlsx", "limbus.xlsx"}, *reply.Data)
}

func TestHandleListGames(t *testing.T) {
	ctx := context.Background()
	handlers := newTestHandlers(t, &fakeLedgerService{
		ListGamesFn: func(ctx context.Context) ([]ledgerservice.GameSummary, error) {
			return []ledgerservice.GameSummary{
				{Name: "limbus", UserCycles: 2, Records: 5, CompletedCycles: 1},
			}, nil
		},
	})

	replyData, err := handlers.HandleListGames(ctx, nil)
	require.NoError(t, err)

	var reply ListGamesResponse
	require.NoError(t, json.Unmarshal(replyData, &reply))
	require.True(t, reply.Success)
	summaries := *reply.Data
	require.Len(t, summaries, 1)
	require.Equal(t, sharedtypes.GameName("limbus"), summaries[0].Name)
}
