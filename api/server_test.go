package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	"github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/dispatch"
	ledgerdb "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/infrastructure/repositories"
	ledgermetrics "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/metrics"
)

func newTestServer(t *testing.T) (*Server, ledgerservice.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := ledgerservice.NewLedgerService(
		ledgerdb.NewFakeRepository(),
		nil,
		logger,
		ledgermetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		30,
	)
	dispatcher := dispatch.NewDispatcher(svc, logger)
	server := NewServer(":0", svc, dispatcher, logger, prometheus.NewRegistry())
	return server, svc
}

func get(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	server, _ := newTestServer(t)

	rec := get(t, server, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ListGames(t *testing.T) {
	server, svc := newTestServer(t)

	rec := get(t, server, "/games")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	_, err := svc.ImportGrid(context.Background(), "limbus", [][]string{{"alice", "5-13_1"}})
	require.NoError(t, err)

	rec = get(t, server, "/games")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []ledgerservice.GameSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, 1, summaries[0].Records)
}

func TestServer_GameExport(t *testing.T) {
	server, svc := newTestServer(t)

	rec := get(t, server, "/games/ghosts/export")
	require.Equal(t, http.StatusNotFound, rec.Code)

	_, err := svc.ImportGrid(context.Background(), "limbus", [][]string{{"alice", "5-13_1"}})
	require.NoError(t, err)

	rec = get(t, server, "/games/limbus/export")
	require.Equal(t, http.StatusOK, rec.Code)

	var data ledgerservice.GameExportData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	require.Len(t, data.UserCycles, 1)
	require.Equal(t, "alice", string(data.UserCycles[0].Username))
}

func TestServer_ListCommands(t *testing.T) {
	server, _ := newTestServer(t)

	require.NoError(t, server.dispatcher.RefreshFromStore(context.Background()))
	server.dispatcher.Register("limbus")

	rec := get(t, server, "/commands")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"commands":["limbus"]}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t)

	rec := get(t, server, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
