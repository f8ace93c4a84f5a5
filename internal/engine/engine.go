package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"launchline/internal/config"
	"launchline/internal/domain"
	"launchline/internal/query"
	"launchline/internal/repo"
)

// Engine is the launch service. It validates input through the domain model,
// serializes mutations and persists through the repository. Copies of an
// Engine share the same write lock.
type Engine struct {
	Repo   repo.Repository
	Config *config.Config
	Now    func() time.Time
	NewID  domain.IDFunc
	mu     *sync.Mutex
}

func New(r repo.Repository, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		Repo:   r,
		Config: cfg,
		Now:    time.Now,
		NewID:  NewID,
		mu:     &sync.Mutex{},
	}
}

// NewID returns a prefixed random uuid, e.g. launch_6f1c...
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

func (e Engine) newID() domain.IDFunc {
	if e.NewID != nil {
		return e.NewID
	}
	return NewID
}

// mutate runs fn against the latest snapshot under the write lock and saves
// the result against the version it loaded. Another process writing to the
// same store in between surfaces as repo.ErrVersionConflict.
func (e Engine) mutate(ctx context.Context, fn func([]domain.Launch) ([]domain.Launch, error)) error {
	if e.mu != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	snap, err := e.Repo.Load(ctx)
	if err != nil {
		return err
	}
	out, err := fn(snap.Launches)
	if err != nil {
		return err
	}
	_, err = e.Repo.SaveAll(ctx, snap.Version, out)
	return err
}

// withLaunch mutates the single launch with the given id.
func (e Engine) withLaunch(ctx context.Context, id string, fn func(*domain.Launch) error) error {
	return e.mutate(ctx, func(launches []domain.Launch) ([]domain.Launch, error) {
		i := indexOf(launches, id)
		if i < 0 {
			return nil, launchNotFound(id)
		}
		if err := fn(&launches[i]); err != nil {
			return nil, err
		}
		return launches, nil
	})
}

func indexOf(launches []domain.Launch, id string) int {
	for i, l := range launches {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func launchNotFound(id string) error {
	return fmt.Errorf("launch %s: %w", id, repo.ErrNotFound)
}

type LaunchFilter struct {
	Type   string
	Status string
}

type LaunchList struct {
	Launches []domain.Launch `json:"launches"`
	Stats    query.Summary   `json:"stats"`
}

// ListLaunches filters by business type and derived status. Stats describe
// the filtered result.
func (e Engine) ListLaunches(ctx context.Context, f LaunchFilter) (LaunchList, error) {
	status := query.ParseLaunchStatus(f.Status)
	launches, err := e.Repo.List(ctx)
	if err != nil {
		return LaunchList{}, err
	}
	launches = query.FilterByType(launches, f.Type)
	launches = query.FilterByStatus(launches, status, e.now())
	return LaunchList{Launches: launches, Stats: query.SummaryStats(launches)}, nil
}

func (e Engine) CreateLaunch(ctx context.Context, in domain.LaunchInput) (domain.Launch, error) {
	l, err := domain.NewLaunch(in, e.now(), e.newID())
	if err != nil {
		return domain.Launch{}, err
	}
	err = e.mutate(ctx, func(launches []domain.Launch) ([]domain.Launch, error) {
		return append(launches, l), nil
	})
	if err != nil {
		return domain.Launch{}, err
	}
	return l, nil
}

type LaunchView struct {
	Launch   domain.Launch        `json:"launch"`
	Metadata query.LaunchMetadata `json:"metadata"`
}

func (e Engine) GetLaunch(ctx context.Context, id string) (LaunchView, error) {
	l, err := e.Repo.GetByID(ctx, id)
	if err != nil {
		return LaunchView{}, err
	}
	return LaunchView{Launch: l, Metadata: query.Metadata(l, e.now())}, nil
}

func (e Engine) UpdateLaunch(ctx context.Context, id string, patch domain.LaunchPatch) (domain.Launch, error) {
	var updated domain.Launch
	err := e.withLaunch(ctx, id, func(l *domain.Launch) error {
		next, err := l.Update(patch)
		if err != nil {
			return err
		}
		*l = next
		updated = next
		return nil
	})
	if err != nil {
		return domain.Launch{}, err
	}
	return updated, nil
}

type DeletedLaunch struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PermitCount int    `json:"permitCount"`
}

func (e Engine) DeleteLaunch(ctx context.Context, id string) (DeletedLaunch, error) {
	var deleted DeletedLaunch
	err := e.mutate(ctx, func(launches []domain.Launch) ([]domain.Launch, error) {
		i := indexOf(launches, id)
		if i < 0 {
			return nil, launchNotFound(id)
		}
		l := launches[i]
		deleted = DeletedLaunch{ID: l.ID, Name: l.Name, PermitCount: len(l.Permits)}
		return append(launches[:i:i], launches[i+1:]...), nil
	})
	if err != nil {
		return DeletedLaunch{}, err
	}
	return deleted, nil
}

type PermitList struct {
	Permits  []domain.Permit `json:"permits"`
	Metadata query.Counts    `json:"metadata"`
}

func (e Engine) ListPermits(ctx context.Context, launchID string) (PermitList, error) {
	l, err := e.Repo.GetByID(ctx, launchID)
	if err != nil {
		return PermitList{}, err
	}
	return PermitList{Permits: l.Permits, Metadata: query.PermitCounts(l)}, nil
}

// CreatePermit appends a permit. The launch readiness score is not recomputed.
func (e Engine) CreatePermit(ctx context.Context, launchID string, in domain.PermitInput) (domain.Permit, error) {
	var created domain.Permit
	err := e.withLaunch(ctx, launchID, func(l *domain.Launch) error {
		p, err := l.AddPermit(in, e.now(), e.newID())
		created = p
		return err
	})
	if err != nil {
		return domain.Permit{}, err
	}
	return created, nil
}

func (e Engine) GetPermit(ctx context.Context, launchID, permitID string) (domain.Permit, error) {
	l, err := e.Repo.GetByID(ctx, launchID)
	if err != nil {
		return domain.Permit{}, err
	}
	return l.Permit(permitID)
}

type LaunchScore struct {
	ID             string `json:"id"`
	ReadinessScore int    `json:"readinessScore"`
}

type PermitUpdate struct {
	Permit domain.Permit `json:"permit"`
	Launch LaunchScore   `json:"launch"`
}

// UpdatePermit applies the patch and rescores the launch.
func (e Engine) UpdatePermit(ctx context.Context, launchID, permitID string, patch domain.PermitPatch) (PermitUpdate, error) {
	var res PermitUpdate
	err := e.withLaunch(ctx, launchID, func(l *domain.Launch) error {
		p, err := l.UpdatePermit(permitID, patch, e.now())
		if err != nil {
			return err
		}
		res = PermitUpdate{Permit: p, Launch: LaunchScore{ID: l.ID, ReadinessScore: l.RecomputeReadiness()}}
		return nil
	})
	if err != nil {
		return PermitUpdate{}, err
	}
	return res, nil
}

type LaunchRemainder struct {
	ID             string `json:"id"`
	ReadinessScore int    `json:"readinessScore"`
	PermitCount    int    `json:"permitCount"`
}

type PermitDeletion struct {
	Permit domain.Permit   `json:"permit"`
	Launch LaunchRemainder `json:"launch"`
}

// DeletePermit removes the permit and rescores the launch by approval share
// alone.
func (e Engine) DeletePermit(ctx context.Context, launchID, permitID string) (PermitDeletion, error) {
	var res PermitDeletion
	err := e.withLaunch(ctx, launchID, func(l *domain.Launch) error {
		p, err := l.RemovePermit(permitID)
		if err != nil {
			return err
		}
		res.Permit = p
		res.Launch.ID = l.ID
		res.Launch.ReadinessScore = l.RecomputeApprovalShare()
		res.Launch.PermitCount = len(l.Permits)
		return nil
	})
	if err != nil {
		return PermitDeletion{}, err
	}
	return res, nil
}

// RecomputeReadiness rescores a launch from its current permits.
func (e Engine) RecomputeReadiness(ctx context.Context, launchID string) (LaunchScore, error) {
	var res LaunchScore
	err := e.withLaunch(ctx, launchID, func(l *domain.Launch) error {
		res = LaunchScore{ID: l.ID, ReadinessScore: l.RecomputeReadiness()}
		return nil
	})
	if err != nil {
		return LaunchScore{}, err
	}
	return res, nil
}

// PermitDefaults fills the fields a caller may leave out of a new permit from
// the configured defaults.
func (e Engine) PermitDefaults(in domain.PermitInput) domain.PermitInput {
	if in.Priority == "" && e.Config != nil {
		in.Priority = domain.Priority(e.Config.Defaults.Priority)
	}
	if in.EstimatedProcessingDays == nil {
		days := domain.DefaultProcessingDays
		if e.Config != nil {
			days = e.Config.Defaults.EstimatedProcessingDays
		}
		in.EstimatedProcessingDays = &days
	}
	return in
}
