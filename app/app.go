package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"github.com/Pale-Moon-Guild/grind-bot/api"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger"
	ledgermetrics "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/metrics"
	"github.com/Pale-Moon-Guild/grind-bot/config"
	"github.com/Pale-Moon-Guild/grind-bot/db/bundb"
)

// App owns the process-level resources: config, database pool, broker
// connection, the ledger module, and the HTTP read surface.
type App struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	LedgerModule *ledger.Module

	db         *bundb.DBService
	natsConn   *nats.Conn
	httpServer *api.Server
	registry   *prometheus.Registry
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("service", "grind-bot"),
		slog.String("environment", cfg.Observability.Environment),
	)

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	natsConn, err := nats.Connect(cfg.NATS.URL,
		nats.Name("grind-bot"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var metrics ledgermetrics.LedgerMetrics = ledgermetrics.NoOpMetrics{}
	if cfg.Observability.MetricsEnabled {
		metrics = ledgermetrics.NewPrometheusMetrics(registry)
	}

	tracer := otel.Tracer("grind-bot/ledger")

	ledgerModule, err := ledger.NewLedgerModule(ctx, cfg, logger, metrics, tracer, dbService.LedgerDB, natsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger module: %w", err)
	}

	httpServer := api.NewServer(cfg.HTTP.Address, ledgerModule.LedgerService, ledgerModule.Dispatcher, logger, registry)

	return &App{
		Cfg:          cfg,
		Logger:       logger,
		LedgerModule: ledgerModule,
		db:           dbService,
		natsConn:     natsConn,
		httpServer:   httpServer,
		registry:     registry,
	}, nil
}

// Run blocks until the context is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		if err := a.LedgerModule.Run(ctx, &wg); err != nil {
			errCh <- fmt.Errorf("ledger module: %w", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.httpServer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
			cancel()
		}
	}()

	<-ctx.Done()
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// Close releases broker and database resources.
func (a *App) Close() error {
	var firstErr error

	if err := a.LedgerModule.Close(); err != nil {
		firstErr = err
	}
	a.natsConn.Close()
	if err := a.db.GetDB().Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DB returns the database service.
func (a *App) DB() *bundb.DBService {
	return a.db
}
