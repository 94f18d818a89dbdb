package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// LedgerDBImpl is the bun-backed ledger repository.
type LedgerDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*LedgerDBImpl)(nil)

func (db *LedgerDBImpl) CreateOrGetGame(ctx context.Context, name sharedtypes.GameName) (*Game, error) {
	game := &Game{Name: name}
	_, err := db.DB.NewInsert().
		Model(game).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert game %q: %w", name, err)
	}

	// Re-select so the conflict path also yields the persisted row.
	return db.GetGameByName(ctx, name)
}

func (db *LedgerDBImpl) GetGameByName(ctx context.Context, name sharedtypes.GameName) (*Game, error) {
	game := &Game{}
	err := db.DB.NewSelect().
		Model(game).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to fetch game %q: %w", name, err)
	}
	return game, nil
}

func (db *LedgerDBImpl) CreateOrGetUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64, cycle sharedtypes.CycleNumber) (*UserCycle, error) {
	userCycle := &UserCycle{
		Username: username,
		GameID:   gameID,
		Cycle:    cycle,
	}
	_, err := db.DB.NewInsert().
		Model(userCycle).
		On("CONFLICT (username, game_id, cycle) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user cycle %q/%d/%d: %w", username, gameID, cycle, err)
	}

	existing := &UserCycle{}
	err = db.DB.NewSelect().
		Model(existing).
		Where("username = ? AND game_id = ? AND cycle = ?", username, gameID, cycle).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user cycle %q/%d/%d: %w", username, gameID, cycle, err)
	}
	return existing, nil
}

func (db *LedgerDBImpl) LatestUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64) (*UserCycle, error) {
	userCycle := &UserCycle{}
	err := db.DB.NewSelect().
		Model(userCycle).
		Where("username = ? AND game_id = ?", username, gameID).
		Order("cycle DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserCycleNotFound
		}
		return nil, fmt.Errorf("failed to fetch latest cycle for %q: %w", username, err)
	}
	return userCycle, nil
}

func (db *LedgerDBImpl) AppendRecord(ctx context.Context, userCycleID int64, date sharedtypes.RecordDate, count sharedtypes.Count) error {
	record := &Record{
		UserCycleID: userCycleID,
		RecordDate:  date,
		Count:       count,
	}
	if _, err := db.DB.NewInsert().Model(record).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append record to user cycle %d: %w", userCycleID, err)
	}
	return nil
}

func (db *LedgerDBImpl) ListRecords(ctx context.Context, userCycleID int64) ([]Record, error) {
	var records []Record
	err := db.DB.NewSelect().
		Model(&records).
		Where("user_cycle_id = ?", userCycleID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for user cycle %d: %w", userCycleID, err)
	}
	return records, nil
}

func (db *LedgerDBImpl) LatestCount(ctx context.Context, userCycleID int64) (sharedtypes.Count, error) {
	record := &Record{}
	err := db.DB.NewSelect().
		Model(record).
		Column("count").
		Where("user_cycle_id = ?", userCycleID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to fetch latest count for user cycle %d: %w", userCycleID, err)
	}
	return record.Count, nil
}

func (db *LedgerDBImpl) CompleteUserCycle(ctx context.Context, userCycleID int64) error {
	result, err := db.DB.NewUpdate().
		Model((*UserCycle)(nil)).
		Set("completed = TRUE").
		Where("id = ?", userCycleID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to complete user cycle %d: %w", userCycleID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after completion: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserCycleNotFound
	}
	return nil
}

func (db *LedgerDBImpl) ListGames(ctx context.Context) ([]Game, error) {
	var games []Game
	err := db.DB.NewSelect().
		Model(&games).
		Order("created_at ASC").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

func (db *LedgerDBImpl) ListUserCycles(ctx context.Context, gameID int64) ([]UserCycle, error) {
	var userCycles []UserCycle
	err := db.DB.NewSelect().
		Model(&userCycles).
		Where("game_id = ?", gameID).
		Order("username ASC").
		Order("cycle ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list user cycles for game %d: %w", gameID, err)
	}
	return userCycles, nil
}

func (db *LedgerDBImpl) CountRecordsForGame(ctx context.Context, gameID int64) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*Record)(nil)).
		Join("JOIN user_cycles AS uc ON uc.id = r.user_cycle_id").
		Where("uc.game_id = ?", gameID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records for game %d: %w", gameID, err)
	}
	return count, nil
}
