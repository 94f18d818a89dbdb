package ledgerdb

import (
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// Game is a named activity that owns its own ledger of user-cycles.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`
	ID            int64                `bun:"id,pk,autoincrement" json:"id"`
	Name          sharedtypes.GameName `bun:"name,unique,notnull" json:"name"`
	CreatedAt     time.Time            `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// UserCycle is one repetition attempt by one user within one game. It is
// immutable except for Completed, which transitions false->true exactly once.
type UserCycle struct {
	bun.BaseModel `bun:"table:user_cycles,alias:uc"`
	ID            int64                   `bun:"id,pk,autoincrement" json:"id"`
	Username      sharedtypes.Username    `bun:"username,notnull,unique:user_cycle_identity" json:"username"`
	GameID        int64                   `bun:"game_id,notnull,unique:user_cycle_identity" json:"game_id"`
	Cycle         sharedtypes.CycleNumber `bun:"cycle,notnull,default:1,unique:user_cycle_identity" json:"cycle"`
	Completed     bool                    `bun:"completed,notnull,default:false" json:"completed"`
	CreatedAt     time.Time               `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Record is one append-only ledger entry. record_date is a bare "MM-DD"
// string; the row id is the authoritative ordering key.
type Record struct {
	bun.BaseModel `bun:"table:records,alias:r"`
	ID            int64                  `bun:"id,pk,autoincrement" json:"id"`
	UserCycleID   int64                  `bun:"user_cycle_id,notnull" json:"user_cycle_id"`
	RecordDate    sharedtypes.RecordDate `bun:"record_date,notnull" json:"record_date"`
	Count         sharedtypes.Count      `bun:"count,notnull" json:"count"`
	CreatedAt     time.Time              `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
