package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	ledgerservice "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/application"
	ledgerevents "github.com/Pale-Moon-Guild/grind-bot/app/modules/ledger/events"
	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Dispatcher maps command words onto registered games. Transports consult it
// to turn a leading token like "limbus" into the game the request targets.
// Registrations arrive at startup from the store and at runtime from
// game-registered events, so lookups and registrations are safe to interleave.
type Dispatcher struct {
	service ledgerservice.Service
	logger  *slog.Logger

	mu    sync.RWMutex
	games map[sharedtypes.GameName]bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(service ledgerservice.Service, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		service: service,
		logger:  logger,
		games:   make(map[sharedtypes.GameName]bool),
	}
}

// Register makes a game resolvable. Re-registering is a no-op.
func (d *Dispatcher) Register(game sharedtypes.GameName) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.games[game] = true
}

// Resolve reports whether the given command word names a registered game.
func (d *Dispatcher) Resolve(word string) (sharedtypes.GameName, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	game := sharedtypes.GameName(word)
	return game, d.games[game]
}

// Names returns the registered game names in sorted order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.games))
	for game := range d.games {
		names = append(names, string(game))
	}
	sort.Strings(names)
	return names
}

// RefreshFromStore registers every game currently in the ledger.
func (d *Dispatcher) RefreshFromStore(ctx context.Context) error {
	summaries, err := d.service.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list games: %w", err)
	}
	for _, summary := range summaries {
		d.Register(summary.Name)
	}
	return nil
}

// Run consumes game-registered events until ctx is cancelled, registering
// each announced game. It blocks and always returns the subscription error
// or nil on cancellation.
func (d *Dispatcher) Run(ctx context.Context, subscriber message.Subscriber) error {
	messages, err := subscriber.Subscribe(ctx, ledgerevents.GameRegisteredTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", ledgerevents.GameRegisteredTopic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			d.handleGameRegistered(msg)
		}
	}
}

func (d *Dispatcher) handleGameRegistered(msg *message.Message) {
	var payload ledgerevents.GameRegisteredPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		d.logger.Error("discarding malformed game-registered event",
			slog.String("message_id", msg.UUID),
			slog.Any("error", err),
		)
		msg.Ack()
		return
	}

	d.Register(payload.GameName)
	d.logger.Info("registered game command",
		slog.String("game", string(payload.GameName)),
	)
	msg.Ack()
}
