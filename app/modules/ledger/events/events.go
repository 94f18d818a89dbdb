package ledgerevents

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// GameRegisteredTopic carries GameRegisteredPayload messages whenever a game
// first appears in the ledger (explicit creation or first import). The
// command dispatcher subscribes to it so a freshly imported game's command is
// available without a restart.
const GameRegisteredTopic = "ledger.game.registered"

// GameRegisteredPayload announces a newly created game.
type GameRegisteredPayload struct {
	GameID   int64                `json:"game_id"`
	GameName sharedtypes.GameName `json:"game_name"`
}

// PublishGameRegistered marshals and publishes a GameRegisteredPayload.
func PublishGameRegistered(publisher message.Publisher, payload GameRegisteredPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal game registered payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := publisher.Publish(GameRegisteredTopic, msg); err != nil {
		return fmt.Errorf("failed to publish game registered event: %w", err)
	}
	return nil
}
