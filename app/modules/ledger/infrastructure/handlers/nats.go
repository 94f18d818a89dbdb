package ledgerhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// internalErrorReply is sent when a handler returns a transport-level error;
// the caller still gets a well-formed envelope.
func internalErrorReply() []byte {
	reply, _ := json.Marshal(Response[struct{}]{
		Success: false,
		Error:   &ErrorBody{Code: CodeInternal, Reason: "internal error"},
	})
	return reply
}

// Listener binds the byte-level handlers to their request subjects.
type Listener struct {
	conn     *nats.Conn
	handlers Handlers
	logger   *slog.Logger

	subs []*nats.Subscription
}

// NewListener creates a listener over an established connection.
func NewListener(conn *nats.Conn, handlers Handlers, logger *slog.Logger) *Listener {
	return &Listener{conn: conn, handlers: handlers, logger: logger}
}

// Start subscribes every subject in the ledger's queue group. Replies are
// always sent, with an internal-error envelope on handler failure.
func (l *Listener) Start(ctx context.Context) error {
	bindings := []struct {
		subject string
		handler func(ctx context.Context, data []byte) ([]byte, error)
	}{
		{AddIncrementsSubject, l.handlers.HandleAddIncrements},
		{ImportGridSubject, l.handlers.HandleImportGrid},
		{CreateGameSubject, l.handlers.HandleCreateGame},
		{ExportGameSubject, l.handlers.HandleExportGame},
		{ExportAllGamesSubject, l.handlers.HandleExportAllGames},
		{ListGamesSubject, l.handlers.HandleListGames},
		{ListFilesSubject, l.handlers.HandleListFiles},
	}

	for _, binding := range bindings {
		handler := binding.handler
		subject := binding.subject
		sub, err := l.conn.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
			reply, err := handler(ctx, msg.Data)
			if err != nil {
				l.logger.Error("request handling failed",
					slog.String("subject", subject),
					slog.Any("error", err),
				)
				reply = internalErrorReply()
			}
			if msg.Reply == "" {
				return
			}
			if err := msg.Respond(reply); err != nil {
				l.logger.Error("failed to send reply",
					slog.String("subject", subject),
					slog.Any("error", err),
				)
			}
		})
		if err != nil {
			l.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		l.subs = append(l.subs, sub)
	}

	l.logger.Info("ledger transport listening", slog.Int("subjects", len(l.subs)))
	return nil
}

// Stop drains every subscription.
func (l *Listener) Stop() {
	for _, sub := range l.subs {
		if err := sub.Unsubscribe(); err != nil {
			l.logger.Error("failed to unsubscribe", slog.Any("error", err))
		}
	}
	l.subs = nil
}
