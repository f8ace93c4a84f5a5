package repo

import (
	"context"
	"sync"

	"launchline/internal/domain"
)

// Memory keeps the snapshot in process. Launches are deep-copied in both
// directions so callers never share state with the store.
type Memory struct {
	mu       sync.RWMutex
	version  int64
	launches []domain.Launch
}

func NewMemory() *Memory {
	return &Memory{launches: []domain.Launch{}}
}

func (m *Memory) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{Version: m.version, Launches: cloneAll(m.launches)}, nil
}

func (m *Memory) List(ctx context.Context) ([]domain.Launch, error) {
	return listFrom(ctx, m)
}

func (m *Memory) GetByID(ctx context.Context, id string) (domain.Launch, error) {
	return getFrom(ctx, m, id)
}

func (m *Memory) SaveAll(ctx context.Context, expectedVersion int64, launches []domain.Launch) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.version != expectedVersion {
		return 0, ErrVersionConflict
	}
	m.launches = cloneAll(launches)
	m.version++
	return m.version, nil
}
