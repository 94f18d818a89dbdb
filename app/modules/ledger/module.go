package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/dispatch"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/exporters"
	ledgerhandlers "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/handlers"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/parsers"
	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	ledgermetrics "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/metrics"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
	"github.com/Pale-Moon-Guild/grind-bot/config"
)

// Module represents the ledger module.
type Module struct {
	LedgerService ledgerservice.Service
	Dispatcher    *dispatch.Dispatcher
	PubSub        *gochannel.GoChannel

	listener   *ledgerhandlers.Listener
	logger     *slog.Logger
	cancelFunc context.CancelFunc
}

// NewLedgerModule creates a new instance of the ledger module.
func NewLedgerModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metrics ledgermetrics.LedgerMetrics,
	tracer trace.Tracer,
	ledgerDB ledgerdb.Repository,
	natsConn *nats.Conn,
) (*Module, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	service := ledgerservice.NewLedgerService(
		ledgerDB,
		pubSub,
		logger,
		metrics,
		tracer,
		sharedtypes.Count(cfg.Ledger.CompletionThreshold),
	)

	dispatcher := dispatch.NewDispatcher(service, logger)
	if err := dispatcher.RefreshFromStore(ctx); err != nil {
		return nil, fmt.Errorf("failed to seed dispatcher: %w", err)
	}

	handlers := ledgerhandlers.NewLedgerHandlers(
		service,
		parsers.NewXLSXParser(),
		exporters.NewXLSXExporter(cfg.Excel.RowHeight, cfg.Excel.NameColumnWidth),
		logger,
		cfg.Ledger.MaxBatchSize,
		cfg.Excel.Folder,
		cfg.ExportDir(),
	)
	listener := ledgerhandlers.NewListener(natsConn, handlers, logger)

	return &Module{
		LedgerService: service,
		Dispatcher:    dispatcher,
		PubSub:        pubSub,
		listener:      listener,
		logger:        logger,
	}, nil
}

// Run starts the transport listener and the dispatcher's event consumer,
// then blocks until the context is cancelled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	m.logger.Info("starting ledger module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.listener.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ledger transport: %w", err)
	}

	if err := m.Dispatcher.Run(ctx, m.PubSub); err != nil {
		return fmt.Errorf("dispatcher stopped: %w", err)
	}

	m.logger.Info("ledger module stopped")
	return nil
}

func (m *Module) Close() error {
	m.logger.Info("stopping ledger module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.listener.Stop()
	if err := m.PubSub.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub: %w", err)
	}

	m.logger.Info("ledger module stopped")
	return nil
}
