package ledgerservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	ledgermetrics "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/metrics"
	"github.com/Pale-Moon-Guild/grind-bot/app/shared/results"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// LedgerService implements the Service interface.
type LedgerService struct {
	repo      ledgerdb.Repository
	publisher message.Publisher
	logger    *slog.Logger
	metrics   ledgermetrics.LedgerMetrics
	tracer    trace.Tracer
	threshold sharedtypes.Count

	// now is the clock used to date-stamp incremental records. Overridable
	// in tests.
	now func() time.Time

	// incrementMu serializes the read-latest-cycle-then-append sequence so
	// two in-process increment requests for the same (username, game) cannot
	// interleave and produce duplicate or skipped counts.
	incrementMu sync.Mutex
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	repo ledgerdb.Repository,
	publisher message.Publisher,
	logger *slog.Logger,
	metrics ledgermetrics.LedgerMetrics,
	tracer trace.Tracer,
	completionThreshold sharedtypes.Count,
) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		threshold: completionThreshold,
		now:       time.Now,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, logging,
// and panic recovery.
func withTelemetry[S any, F any](
	s *LedgerService,
	ctx context.Context,
	operationName string,
	gameName sharedtypes.GameName,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("game_name", string(gameName)),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				slog.String("operation", operationName),
				slog.String("game_name", string(gameName)),
				slog.Any("error", err),
			)
			s.metrics.RecordOperationFailure(operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			slog.String("operation", operationName),
			slog.String("game_name", string(gameName)),
			slog.Any("error", wrappedErr),
		)
		s.metrics.RecordOperationFailure(operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			slog.String("operation", operationName),
			slog.String("game_name", string(gameName)),
			slog.Any("failure_payload", *result.Failure),
		)
		s.metrics.RecordOperationFailure(operationName)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, operationName+" completed successfully",
			slog.String("operation", operationName),
			slog.String("game_name", string(gameName)),
		)
		s.metrics.RecordOperationSuccess(operationName)
	}

	return result, nil
}
