package ledgerservice

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace/noop"

	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	ledgermetrics "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/metrics"
)

const testThreshold = 30

// testDate is the frozen clock used by service tests; records appended
// incrementally are dated with its "MM-DD" projection.
var (
	testDate     = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	testDateCell = "08-29"
)

func newTestService(repo ledgerdb.Repository) *LedgerService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	svc := NewLedgerService(repo, nil, logger, ledgermetrics.NoOpMetrics{}, tracer, testThreshold)
	svc.now = func() time.Time { return testDate }
	return svc
}
