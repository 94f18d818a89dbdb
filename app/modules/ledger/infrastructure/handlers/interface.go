package ledgerhandlers

import "context"

// Handlers is the byte-level contract between the ledger and its transport.
type Handlers interface {
	HandleAddIncrements(ctx context.Context, data []byte) ([]byte, error)
	HandleImportGrid(ctx context.Context, data []byte) ([]byte, error)
	HandleCreateGame(ctx context.Context, data []byte) ([]byte, error)
	HandleExportGame(ctx context.Context, data []byte) ([]byte, error)
	HandleExportAllGames(ctx context.Context, data []byte) ([]byte, error)
	HandleListGames(ctx context.Context, data []byte) ([]byte, error)
	HandleListFiles(ctx context.Context, data []byte) ([]byte, error)
}
