package ledgermetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records operational signals for the ledger module.
type LedgerMetrics interface {
	RecordOperationAttempt(operation string)
	RecordOperationSuccess(operation string)
	RecordOperationFailure(operation string)
	RecordOperationDuration(operation string, d time.Duration)
	RecordRecordsAppended(n int)
	RecordCycleCompleted()
	RecordImportCells(processed, skipped int)
}

// PrometheusMetrics implements LedgerMetrics against a prometheus registry.
type PrometheusMetrics struct {
	attempts        *prometheus.CounterVec
	successes       *prometheus.CounterVec
	failures        *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	recordsAppended prometheus.Counter
	cyclesCompleted prometheus.Counter
	importCells     *prometheus.CounterVec
}

var _ LedgerMetrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics builds and registers the ledger metric set.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operation_attempts_total",
			Help: "Ledger operations started, by operation.",
		}, []string{"operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operation_successes_total",
			Help: "Ledger operations that returned a success result.",
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operation_failures_total",
			Help: "Ledger operations that errored or returned a failure result.",
		}, []string{"operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		recordsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_records_appended_total",
			Help: "Records appended to the ledger.",
		}),
		cyclesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ledger_cycles_completed_total",
			Help: "User-cycles that reached the completion threshold.",
		}),
		importCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_import_cells_total",
			Help: "Import cells seen, by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.attempts, m.successes, m.failures, m.durations,
		m.recordsAppended, m.cyclesCompleted, m.importCells,
	)
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(operation string) {
	m.attempts.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(operation string) {
	m.successes.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(operation string) {
	m.failures.WithLabelValues(operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(operation string, d time.Duration) {
	m.durations.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordRecordsAppended(n int) {
	m.recordsAppended.Add(float64(n))
}

func (m *PrometheusMetrics) RecordCycleCompleted() {
	m.cyclesCompleted.Inc()
}

func (m *PrometheusMetrics) RecordImportCells(processed, skipped int) {
	m.importCells.WithLabelValues("processed").Add(float64(processed))
	m.importCells.WithLabelValues("skipped").Add(float64(skipped))
}

// NoOpMetrics is a LedgerMetrics that discards everything. For tests.
type NoOpMetrics struct{}

var _ LedgerMetrics = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordOperationAttempt(string)                 {}
func (NoOpMetrics) RecordOperationSuccess(string)                 {}
func (NoOpMetrics) RecordOperationFailure(string)                 {}
func (NoOpMetrics) RecordOperationDuration(string, time.Duration) {}
func (NoOpMetrics) RecordRecordsAppended(int)                     {}
func (NoOpMetrics) RecordCycleCompleted()                         {}
func (NoOpMetrics) RecordImportCells(int, int)                    {}
