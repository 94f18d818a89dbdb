package ledgerdb

import (
	"context"
	"sort"
	"sync"
	"time"

	sharedtypes "github.com/Pale-Moon-Guild/grind-bot/app/shared/types"
)

// FakeRepository is an in-memory Repository for testing. Each method can be
// overridden with a Fn field to inject custom behavior or failures; without
// an override it runs against the in-memory state.
type FakeRepository struct {
	mu         sync.Mutex
	games      []Game
	userCycles []UserCycle
	records    []Record
	nextID     int64

	CreateOrGetGameFn      func(ctx context.Context, name sharedtypes.GameName) (*Game, error)
	GetGameByNameFn        func(ctx context.Context, name sharedtypes.GameName) (*Game, error)
	CreateOrGetUserCycleFn func(ctx context.Context, username sharedtypes.Username, gameID int64, cycle sharedtypes.CycleNumber) (*UserCycle, error)
	LatestUserCycleFn      func(ctx context.Context, username sharedtypes.Username, gameID int64) (*UserCycle, error)
	AppendRecordFn         func(ctx context.Context, userCycleID int64, date sharedtypes.RecordDate, count sharedtypes.Count) error
	ListRecordsFn          func(ctx context.Context, userCycleID int64) ([]Record, error)
	LatestCountFn          func(ctx context.Context, userCycleID int64) (sharedtypes.Count, error)
	CompleteUserCycleFn    func(ctx context.Context, userCycleID int64) error
	ListGamesFn            func(ctx context.Context) ([]Game, error)
	ListUserCyclesFn       func(ctx context.Context, gameID int64) ([]UserCycle, error)
	CountRecordsForGameFn  func(ctx context.Context, gameID int64) (int, error)
}

var _ Repository = (*FakeRepository)(nil)

// NewFakeRepository returns an empty in-memory repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{}
}

func (f *FakeRepository) allocID() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeRepository) CreateOrGetGame(ctx context.Context, name sharedtypes.GameName) (*Game, error) {
	if f.CreateOrGetGameFn != nil {
		return f.CreateOrGetGameFn(ctx, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.games {
		if f.games[i].Name == name {
			game := f.games[i]
			return &game, nil
		}
	}
	game := Game{ID: f.allocID(), Name: name, CreatedAt: time.Now()}
	f.games = append(f.games, game)
	return &game, nil
}

func (f *FakeRepository) GetGameByName(ctx context.Context, name sharedtypes.GameName) (*Game, error) {
	if f.GetGameByNameFn != nil {
		return f.GetGameByNameFn(ctx, name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.games {
		if f.games[i].Name == name {
			game := f.games[i]
			return &game, nil
		}
	}
	return nil, ErrGameNotFound
}

func (f *FakeRepository) CreateOrGetUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64, cycle sharedtypes.CycleNumber) (*UserCycle, error) {
	if f.CreateOrGetUserCycleFn != nil {
		return f.CreateOrGetUserCycleFn(ctx, username, gameID, cycle)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.userCycles {
		uc := f.userCycles[i]
		if uc.Username == username && uc.GameID == gameID && uc.Cycle == cycle {
			return &uc, nil
		}
	}
	userCycle := UserCycle{
		ID:        f.allocID(),
		Username:  username,
		GameID:    gameID,
		Cycle:     cycle,
		CreatedAt: time.Now(),
	}
	f.userCycles = append(f.userCycles, userCycle)
	return &userCycle, nil
}

func (f *FakeRepository) LatestUserCycle(ctx context.Context, username sharedtypes.Username, gameID int64) (*UserCycle, error) {
	if f.LatestUserCycleFn != nil {
		return f.LatestUserCycleFn(ctx, username, gameID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *UserCycle
	for i := range f.userCycles {
		uc := f.userCycles[i]
		if uc.Username != username || uc.GameID != gameID {
			continue
		}
		if latest == nil || uc.Cycle > latest.Cycle {
			copied := uc
			latest = &copied
		}
	}
	if latest == nil {
		return nil, ErrUserCycleNotFound
	}
	return latest, nil
}

func (f *FakeRepository) AppendRecord(ctx context.Context, userCycleID int64, date sharedtypes.RecordDate, count sharedtypes.Count) error {
	if f.AppendRecordFn != nil {
		return f.AppendRecordFn(ctx, userCycleID, date, count)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, Record{
		ID:          f.allocID(),
		UserCycleID: userCycleID,
		RecordDate:  date,
		Count:       count,
		CreatedAt:   time.Now(),
	})
	return nil
}

func (f *FakeRepository) ListRecords(ctx context.Context, userCycleID int64) ([]Record, error) {
	if f.ListRecordsFn != nil {
		return f.ListRecordsFn(ctx, userCycleID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, r := range f.records {
		if r.UserCycleID == userCycleID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRepository) LatestCount(ctx context.Context, userCycleID int64) (sharedtypes.Count, error) {
	if f.LatestCountFn != nil {
		return f.LatestCountFn(ctx, userCycleID)
	}
	records, err := f.ListRecords(ctx, userCycleID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return records[len(records)-1].Count, nil
}

func (f *FakeRepository) CompleteUserCycle(ctx context.Context, userCycleID int64) error {
	if f.CompleteUserCycleFn != nil {
		return f.CompleteUserCycleFn(ctx, userCycleID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.userCycles {
		if f.userCycles[i].ID == userCycleID {
			f.userCycles[i].Completed = true
			return nil
		}
	}
	return ErrUserCycleNotFound
}

func (f *FakeRepository) ListGames(ctx context.Context) ([]Game, error) {
	if f.ListGamesFn != nil {
		return f.ListGamesFn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Game, len(f.games))
	copy(out, f.games)
	return out, nil
}

func (f *FakeRepository) ListUserCycles(ctx context.Context, gameID int64) ([]UserCycle, error) {
	if f.ListUserCyclesFn != nil {
		return f.ListUserCyclesFn(ctx, gameID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []UserCycle
	for _, uc := range f.userCycles {
		if uc.GameID == gameID {
			out = append(out, uc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].Cycle < out[j].Cycle
	})
	return out, nil
}

func (f *FakeRepository) CountRecordsForGame(ctx context.Context, gameID int64) (int, error) {
	if f.CountRecordsForGameFn != nil {
		return f.CountRecordsForGameFn(ctx, gameID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cycleIDs := make(map[int64]bool)
	for _, uc := range f.userCycles {
		if uc.GameID == gameID {
			cycleIDs[uc.ID] = true
		}
	}
	total := 0
	for _, r := range f.records {
		if cycleIDs[r.UserCycleID] {
			total++
		}
	}
	return total, nil
}
