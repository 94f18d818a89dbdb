package ledgerhandlers

import (
	"context"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// fakeLedgerService satisfies ledgerservice.Service with per-method
// overrides. Unset methods return zero-value successes.
type fakeLedgerService struct {
	AddIncrementsFn       func(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error)
	ImportGridFn          func(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ledgerservice.ImportGridOperationResult, error)
	CreateGameFn          func(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.CreateGameOperationResult, error)
	BuildGameExportFn     func(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.GameExportOperationResult, error)
	BuildAllGamesExportFn func(ctx context.Context) (ledgerservice.AllGamesExportOperationResult, error)
	ListGamesFn           func(ctx context.Context) ([]ledgerservice.GameSummary, error)
}

func (f *fakeLedgerService) AddIncrements(ctx context.Context, gameName sharedtypes.GameName, username sharedtypes.Username, n int) (ledgerservice.AddIncrementsOperationResult, error) {
	if f.AddIncrementsFn != nil {
		return f.AddIncrementsFn(ctx, gameName, username, n)
	}
	return results.SuccessResult[ledgerservice.AddIncrementsResult, ledgerservice.LedgerFailure](ledgerservice.AddIncrementsResult{}), nil
}

func (f *fakeLedgerService) ImportGrid(ctx context.Context, gameName sharedtypes.GameName, grid [][]string) (ledgerservice.ImportGridOperationResult, error) {
	if f.ImportGridFn != nil {
		return f.ImportGridFn(ctx, gameName, grid)
	}
	return results.SuccessResult[ledgerservice.ImportGridResult, ledgerservice.LedgerFailure](ledgerservice.ImportGridResult{}), nil
}

func (f *fakeLedgerService) CreateGame(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.CreateGameOperationResult, error) {
	if f.CreateGameFn != nil {
		return f.CreateGameFn(ctx, gameName)
	}
	return results.SuccessResult[ledgerservice.CreateGameResult, ledgerservice.LedgerFailure](ledgerservice.CreateGameResult{}), nil
}

func (f *fakeLedgerService) BuildGameExport(ctx context.Context, gameName sharedtypes.GameName) (ledgerservice.GameExportOperationResult, error) {
	if f.BuildGameExportFn != nil {
		return f.BuildGameExportFn(ctx, gameName)
	}
	return results.SuccessResult[ledgerservice.GameExportData, ledgerservice.LedgerFailure](ledgerservice.GameExportData{}), nil
}

func (f *fakeLedgerService) BuildAllGamesExport(ctx context.Context) (ledgerservice.AllGamesExportOperationResult, error) {
	if f.BuildAllGamesExportFn != nil {
		return f.BuildAllGamesExportFn(ctx)
	}
	return results.SuccessResult[[]ledgerservice.GameExportData, ledgerservice.LedgerFailure](nil), nil
}

func (f *fakeLedgerService) ListGames(ctx context.Context) ([]ledgerservice.GameSummary, error) {
	if f.ListGamesFn != nil {
		return f.ListGamesFn(ctx)
	}
	return nil, nil
}
