package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"launchline/internal/domain"
)

// ErrNotFound is shared with the domain so callers can test either.
var ErrNotFound = domain.ErrNotFound

// ErrVersionConflict means another writer saved since the snapshot was loaded.
var ErrVersionConflict = errors.New("version conflict")

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	if err == nil || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Snapshot is the complete persisted launch collection. Version 0 means
// nothing has been saved yet.
type Snapshot struct {
	Version  int64
	Launches []domain.Launch
}

// Repository persists the launch collection as a whole.
type Repository interface {
	List(ctx context.Context) ([]domain.Launch, error)
	GetByID(ctx context.Context, id string) (domain.Launch, error)
	Load(ctx context.Context) (Snapshot, error)
	// SaveAll replaces the collection when the stored version still equals
	// expectedVersion and returns the new version.
	SaveAll(ctx context.Context, expectedVersion int64, launches []domain.Launch) (int64, error)
}

// listFrom and getFrom give every adapter the same read semantics on top of Load.
func listFrom(ctx context.Context, r Repository) ([]domain.Launch, error) {
	snap, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Launches, nil
}

func getFrom(ctx context.Context, r Repository, id string) (domain.Launch, error) {
	snap, err := r.Load(ctx)
	if err != nil {
		return domain.Launch{}, err
	}
	for _, l := range snap.Launches {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Launch{}, fmt.Errorf("launch %s: %w", id, ErrNotFound)
}

type payload struct {
	Launches []domain.Launch `json:"launches"`
}

func encodePayload(launches []domain.Launch) ([]byte, error) {
	if launches == nil {
		launches = []domain.Launch{}
	}
	return json.Marshal(payload{Launches: launches})
}

func decodePayload(data []byte) ([]domain.Launch, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return normalize(p.Launches), nil
}

// normalize restores what JSON does not carry: non-nil slices and a
// permitsByType grouping rebuilt from the permit list.
func normalize(launches []domain.Launch) []domain.Launch {
	if launches == nil {
		return []domain.Launch{}
	}
	for i := range launches {
		for j := range launches[i].Permits {
			p := &launches[i].Permits[j]
			if p.InspectorNotes == nil {
				p.InspectorNotes = []string{}
			}
			if p.CorrectiveActions == nil {
				p.CorrectiveActions = []string{}
			}
		}
		launches[i].Regroup()
	}
	return launches
}

func cloneAll(launches []domain.Launch) []domain.Launch {
	out := make([]domain.Launch, 0, len(launches))
	for _, l := range launches {
		out = append(out, l.Clone())
	}
	return out
}
