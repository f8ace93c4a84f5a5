package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"launchline/internal/config"
	"launchline/internal/db"
	"launchline/internal/domain"
	"launchline/internal/engine"
	"launchline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	store, err := repo.NewSQLStore(conn, db.SQLite)
	if err != nil {
		t.Fatalf("sql store: %v", err)
	}
	eng := engine.New(store, config.Default())
	eng.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	var n atomic.Int64
	eng.NewID = func(prefix string) string {
		return fmt.Sprintf("%s_%d", prefix, n.Add(1))
	}
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func intp(v int) *int { return &v }

func strp(v string) *string { return &v }

func permit(typ domain.PermitType, title string, priority domain.Priority) domain.PermitInput {
	return domain.PermitInput{Type: typ, Title: title, Priority: priority, EstimatedProcessingDays: intp(14)}
}

func tacoSpot(permits ...domain.PermitInput) domain.LaunchInput {
	return domain.LaunchInput{
		Name:           "Taco Spot",
		Location:       "Austin",
		Address:        "1 Main St",
		Type:           "restaurant",
		TargetOpenDate: "2025-06-01",
		Permits:        permits,
	}
}

func TestCreateLaunchTacoSpot(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.ReadinessScore != 0 || len(l.Permits) != 0 {
		t.Fatalf("unexpected launch: %+v", l)
	}
	view, err := env.Engine.GetLaunch(env.Ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Metadata.DaysUntilOpen != 151 || view.Metadata.IsOverdue {
		t.Fatalf("metadata: %+v", view.Metadata)
	}
	list, err := env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Launches) != 1 || list.Stats.Total != 1 || list.Stats.Completed != 1 {
		t.Fatalf("list: %+v", list)
	}
}

func TestCreateLaunchMissingField(t *testing.T) {
	env := newTestEnv(t)
	in := tacoSpot()
	in.Address = ""
	_, err := env.Engine.CreateLaunch(env.Ctx, in)
	var ve domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "address" {
		t.Fatalf("expected address validation error, got %v", err)
	}
	list, _ := env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{})
	if len(list.Launches) != 0 {
		t.Fatalf("failed create must not persist")
	}
}

func TestHealthPermitMetadata(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot())
	if err != nil {
		t.Fatal(err)
	}
	in := permit(domain.PermitHealth, "Health Permit", domain.PriorityCritical)
	in.EstimatedProcessingDays = intp(20)
	in.ApplicationDeadline = strp("2024-01-01")
	p, err := env.Engine.CreatePermit(env.Ctx, l.ID, in)
	if err != nil {
		t.Fatalf("create permit: %v", err)
	}
	if p.LaunchID != l.ID || p.Status != domain.StatusNotStarted {
		t.Fatalf("permit: %+v", p)
	}
	view, err := env.Engine.GetLaunch(env.Ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.PermitStats{Total: 1, Pending: 1, Critical: 1, Overdue: 1}
	if view.Metadata.PermitStats != want {
		t.Fatalf("stats: got %+v want %+v", view.Metadata.PermitStats, want)
	}
	if view.Launch.ReadinessScore != 0 {
		t.Fatalf("add permit must not rescore")
	}
	if got := view.Launch.PermitsByType[domain.PermitHealth]; len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("permitsByType: %+v", view.Launch.PermitsByType)
	}
}

func TestDeleteLaunchWithPermits(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot(
		permit(domain.PermitHealth, "Health", domain.PriorityCritical),
		permit(domain.PermitFire, "Fire", domain.PriorityHigh),
		permit(domain.PermitZoning, "Zoning", domain.PriorityLow),
	))
	if err != nil {
		t.Fatal(err)
	}
	res, err := env.Engine.DeleteLaunch(env.Ctx, l.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.ID != l.ID || res.Name != "Taco Spot" || res.PermitCount != 3 {
		t.Fatalf("delete result: %+v", res)
	}
	if _, err := env.Engine.GetLaunch(env.Ctx, l.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := env.Engine.DeleteLaunch(env.Ctx, l.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDeletePermitScoresApprovalShare(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot(
		permit(domain.PermitFire, "Fire", domain.PriorityHigh),
		permit(domain.PermitZoning, "Zoning", domain.PriorityLow),
		permit(domain.PermitBuilding, "Building", domain.PriorityMedium),
	))
	if err != nil {
		t.Fatal(err)
	}
	approved := domain.StatusApproved
	if _, err := env.Engine.UpdatePermit(env.Ctx, l.ID, l.Permits[0].ID, domain.PermitPatch{Status: &approved}); err != nil {
		t.Fatalf("update permit: %v", err)
	}
	del, err := env.Engine.DeletePermit(env.Ctx, l.ID, l.Permits[2].ID)
	if err != nil {
		t.Fatalf("delete permit: %v", err)
	}
	// 1 of 2 remaining approved; the weighted score would be 40+20=60
	if del.Launch.ReadinessScore != 50 || del.Launch.PermitCount != 2 {
		t.Fatalf("delete result: %+v", del.Launch)
	}
	view, err := env.Engine.GetLaunch(env.Ctx, l.ID)
	if err != nil || view.Launch.ReadinessScore != 50 {
		t.Fatalf("stored score: %d %v", view.Launch.ReadinessScore, err)
	}
}

func TestPermitLifecycleRescores(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot(
		permit(domain.PermitHealth, "Health", domain.PriorityCritical),
		permit(domain.PermitFire, "Fire", domain.PriorityHigh),
	))
	if err != nil {
		t.Fatal(err)
	}
	approved := domain.StatusApproved
	res, err := env.Engine.UpdatePermit(env.Ctx, l.ID, l.Permits[0].ID, domain.PermitPatch{
		Status:            &approved,
		AddInspectorNotes: []string{"passed"},
	})
	if err != nil {
		t.Fatalf("update permit: %v", err)
	}
	// 1/2 approved -> 40, 1/1 critical -> 20
	if res.Launch.ReadinessScore != 60 || res.Permit.Status != approved {
		t.Fatalf("update result: %+v", res)
	}
	got, err := env.Engine.GetPermit(env.Ctx, l.ID, l.Permits[0].ID)
	if err != nil || len(got.InspectorNotes) != 1 {
		t.Fatalf("get permit: %+v %v", got, err)
	}

	del, err := env.Engine.DeletePermit(env.Ctx, l.ID, l.Permits[1].ID)
	if err != nil {
		t.Fatalf("delete permit: %v", err)
	}
	if del.Launch.PermitCount != 1 || del.Launch.ReadinessScore != 100 {
		t.Fatalf("delete result: %+v", del)
	}
	if _, err := env.Engine.GetPermit(env.Ctx, l.ID, l.Permits[1].ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected permit not found, got %v", err)
	}
	list, err := env.Engine.ListPermits(env.Ctx, l.ID)
	if err != nil {
		t.Fatal(err)
	}
	if list.Metadata.Total != 1 || list.Metadata.Approved != 1 || list.Metadata.Pending != 0 {
		t.Fatalf("permit list metadata: %+v", list.Metadata)
	}
}

func TestUpdateLaunch(t *testing.T) {
	env := newTestEnv(t)
	l, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot())
	if err != nil {
		t.Fatal(err)
	}
	updated, err := env.Engine.UpdateLaunch(env.Ctx, l.ID, domain.LaunchPatch{Location: strp("Dallas")})
	if err != nil || updated.Location != "Dallas" || updated.Name != l.Name {
		t.Fatalf("update: %+v %v", updated, err)
	}
	_, err = env.Engine.UpdateLaunch(env.Ctx, l.ID, domain.LaunchPatch{TargetOpenDate: strp("someday")})
	var ve domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "targetOpenDate" {
		t.Fatalf("expected invalid date, got %v", err)
	}
	if _, err := env.Engine.UpdateLaunch(env.Ctx, "launch_missing", domain.LaunchPatch{}); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListLaunchesFilters(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.Engine.CreateLaunch(env.Ctx, tacoSpot(permit(domain.PermitHealth, "Health", domain.PriorityHigh))); err != nil {
		t.Fatal(err)
	}
	cafe := tacoSpot()
	cafe.Name, cafe.Type, cafe.TargetOpenDate = "Bean There", "cafe", "2024-11-01"
	cafe.Permits = []domain.PermitInput{permit(domain.PermitFire, "Fire", domain.PriorityLow)}
	if _, err := env.Engine.CreateLaunch(env.Ctx, cafe); err != nil {
		t.Fatal(err)
	}

	list, err := env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{Type: "cafe"})
	if err != nil || len(list.Launches) != 1 || list.Launches[0].Name != "Bean There" {
		t.Fatalf("type filter: %+v %v", list, err)
	}
	list, err = env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{Status: "overdue"})
	if err != nil || len(list.Launches) != 1 || list.Launches[0].Name != "Bean There" {
		t.Fatalf("overdue filter: %+v %v", list, err)
	}
	list, err = env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{Status: "active"})
	if err != nil || len(list.Launches) != 1 || list.Launches[0].Name != "Taco Spot" {
		t.Fatalf("active filter: %+v %v", list, err)
	}
	list, err = env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{Status: "paused"})
	if err != nil || len(list.Launches) != 2 || list.Stats.Total != 2 {
		t.Fatalf("unknown status should not filter: %+v %v", list, err)
	}
}

func TestConcurrentCreatesAreSerialized(t *testing.T) {
	env := newTestEnv(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := tacoSpot()
			in.Name = fmt.Sprintf("Launch %d", i)
			if _, err := env.Engine.CreateLaunch(env.Ctx, in); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}
	list, err := env.Engine.ListLaunches(env.Ctx, engine.LaunchFilter{})
	if err != nil || len(list.Launches) != 8 {
		t.Fatalf("expected 8 launches, got %d (%v)", len(list.Launches), err)
	}
}

func TestStaleWriterGetsConflict(t *testing.T) {
	store := repo.NewMemory()
	a := engine.New(store, nil)
	b := engine.New(store, nil)
	ctx := context.Background()
	if _, err := a.CreateLaunch(ctx, tacoSpot()); err != nil {
		t.Fatal(err)
	}
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// a second process saves first; the stale version must be rejected
	if _, err := b.CreateLaunch(ctx, tacoSpot()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveAll(ctx, snap.Version, snap.Launches); !errors.Is(err, repo.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestPermitDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Defaults.EstimatedProcessingDays = 30
	eng := engine.New(repo.NewMemory(), cfg)
	in := eng.PermitDefaults(domain.PermitInput{Type: domain.PermitADA, Title: "Ramp"})
	if in.Priority != domain.PriorityMedium || in.EstimatedProcessingDays == nil || *in.EstimatedProcessingDays != 30 {
		t.Fatalf("defaults: %+v", in)
	}
	kept := eng.PermitDefaults(domain.PermitInput{Priority: domain.PriorityLow, EstimatedProcessingDays: intp(0)})
	if kept.Priority != domain.PriorityLow || *kept.EstimatedProcessingDays != 0 {
		t.Fatalf("explicit values overwritten: %+v", kept)
	}
}
