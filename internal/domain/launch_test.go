package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs() IDFunc {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s_%03d", prefix, n)
	}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func statusPtr(s PermitStatus) *PermitStatus { return &s }

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

var createdAt = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

func tacoSpot() LaunchInput {
	return LaunchInput{
		Name:           "Taco Spot",
		Location:       "Austin",
		Address:        "1 Main St",
		Type:           "restaurant",
		TargetOpenDate: "2025-06-01",
	}
}

func healthPermit() PermitInput {
	return PermitInput{
		Type:                    PermitHealth,
		Title:                   "Health Permit",
		Priority:                PriorityCritical,
		EstimatedProcessingDays: intPtr(20),
		ApplicationDeadline:     strPtr("2024-01-01"),
	}
}

func assertPartition(t *testing.T, l Launch) {
	t.Helper()
	require.Len(t, l.PermitsByType, len(PermitTypes))
	sum := 0
	for typ, group := range l.PermitsByType {
		sum += len(group)
		for _, p := range group {
			assert.Equal(t, typ, p.Type)
		}
	}
	assert.Equal(t, len(l.Permits), sum)
	for _, p := range l.Permits {
		assert.Contains(t, l.PermitsByType[p.Type], p)
		assert.Equal(t, l.ID, p.LaunchID)
	}
}

func TestNewLaunchWithoutPermits(t *testing.T) {
	l, err := NewLaunch(tacoSpot(), createdAt, seqIDs())
	require.NoError(t, err)

	assert.Equal(t, "launch_001", l.ID)
	assert.Empty(t, l.Permits)
	assert.NotNil(t, l.Permits)
	assert.Equal(t, 0, l.ReadinessScore)
	assert.Equal(t, date("2025-06-01"), l.TargetOpenDate)
	assert.Equal(t, createdAt, l.CreatedAt)
	require.Len(t, l.PermitsByType, 6)
	for _, typ := range PermitTypes {
		assert.NotNil(t, l.PermitsByType[typ])
		assert.Empty(t, l.PermitsByType[typ])
	}
}

func TestNewLaunchMissingFields(t *testing.T) {
	cases := map[string]func(*LaunchInput){
		"name":           func(in *LaunchInput) { in.Name = "" },
		"location":       func(in *LaunchInput) { in.Location = "  " },
		"address":        func(in *LaunchInput) { in.Address = "" },
		"type":           func(in *LaunchInput) { in.Type = "" },
		"targetOpenDate": func(in *LaunchInput) { in.TargetOpenDate = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := tacoSpot()
			mutate(&in)
			_, err := NewLaunch(in, createdAt, seqIDs())
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestNewLaunchRejectsInvalidPermit(t *testing.T) {
	in := tacoSpot()
	bad := healthPermit()
	bad.Title = ""
	in.Permits = []PermitInput{healthPermit(), bad}

	_, err := NewLaunch(in, createdAt, seqIDs())
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "permits[1].title", ve.Field)
	assert.Contains(t, err.Error(), "missing required field")
}

func TestNewLaunchScoreStartsAtZeroWithPermits(t *testing.T) {
	in := tacoSpot()
	in.Permits = []PermitInput{healthPermit(), {
		Type: PermitFire, Title: "Fire", Priority: PriorityHigh, EstimatedProcessingDays: intPtr(0),
	}}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)

	assert.Equal(t, 0, l.ReadinessScore)
	require.Len(t, l.Permits, 2)
	assert.Equal(t, StatusNotStarted, l.Permits[0].Status)
	assert.Equal(t, createdAt, l.Permits[0].StatusUpdatedAt)
	assert.NotEqual(t, l.Permits[0].ID, l.Permits[1].ID)
	assert.Nil(t, l.Permits[0].Description)
	assert.Empty(t, l.Permits[0].InspectorNotes)
	assertPartition(t, l)
}

func TestAddPermitValidation(t *testing.T) {
	l, err := NewLaunch(tacoSpot(), createdAt, seqIDs())
	require.NoError(t, err)

	cases := map[string]func(*PermitInput){
		"type":                    func(in *PermitInput) { in.Type = "" },
		"title":                   func(in *PermitInput) { in.Title = "" },
		"priority":                func(in *PermitInput) { in.Priority = "" },
		"estimatedProcessingDays": func(in *PermitInput) { in.EstimatedProcessingDays = nil },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := healthPermit()
			mutate(&in)
			_, err := l.AddPermit(in, createdAt, seqIDs())
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, field, ve.Field)
		})
	}
	assert.Empty(t, l.Permits)

	in := healthPermit()
	in.Type = "plumbing"
	_, err = l.AddPermit(in, createdAt, seqIDs())
	assert.Error(t, err)

	in = healthPermit()
	in.ApplicationDeadline = strPtr("next tuesday")
	_, err = l.AddPermit(in, createdAt, seqIDs())
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "applicationDeadline", ve.Field)
}

func TestHealthPermitOverdueScenario(t *testing.T) {
	l, err := NewLaunch(tacoSpot(), createdAt, seqIDs())
	require.NoError(t, err)
	_, err = l.AddPermit(healthPermit(), createdAt, seqIDs())
	require.NoError(t, err)

	stats := l.PermitStats(date("2025-01-01"))
	assert.Equal(t, PermitStats{Total: 1, Approved: 0, Pending: 1, Critical: 1, Overdue: 1}, stats)
	assert.Equal(t, 0, l.ReadinessScore, "adding a permit does not rescore")
	assertPartition(t, l)
}

func TestPermitStatsCountsMatchStatuses(t *testing.T) {
	in := tacoSpot()
	for _, typ := range PermitTypes {
		in.Permits = append(in.Permits, PermitInput{Type: typ, Title: string(typ), Priority: PriorityCritical, EstimatedProcessingDays: intPtr(5)})
	}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)

	statuses := []PermitStatus{StatusApproved, StatusApproved, StatusRejected, StatusScheduled, StatusInReview, StatusNotStarted}
	for i, s := range statuses {
		_, err := l.UpdatePermit(l.Permits[i].ID, PermitPatch{Status: statusPtr(s)}, createdAt)
		require.NoError(t, err)
	}
	stats := l.PermitStats(createdAt)
	assert.Equal(t, len(l.Permits), stats.Total)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, stats.Total-2-1, stats.Pending)
	assert.Equal(t, 4, stats.Critical)
	assertPartition(t, l)
}

func TestPermitIsOverdueNarrowRule(t *testing.T) {
	now := date("2025-01-01")
	past := date("2024-12-01")
	future := date("2025-02-01")
	cases := []struct {
		name   string
		permit Permit
		want   bool
	}{
		{"not started past deadline", Permit{Status: StatusNotStarted, ApplicationDeadline: &past}, true},
		{"not started future deadline", Permit{Status: StatusNotStarted, ApplicationDeadline: &future}, false},
		{"not started no deadline", Permit{Status: StatusNotStarted}, false},
		{"scheduled past inspection", Permit{Status: StatusScheduled, InspectionDate: &past}, true},
		{"scheduled past deadline only", Permit{Status: StatusScheduled, ApplicationDeadline: &past}, false},
		{"in review past everything", Permit{Status: StatusInReview, ApplicationDeadline: &past, InspectionDate: &past}, false},
		{"rejected past deadline", Permit{Status: StatusRejected, ApplicationDeadline: &past}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.permit.IsOverdue(now))
		})
	}
}

func TestUpdateEmptyPatchIsIdentity(t *testing.T) {
	in := tacoSpot()
	in.Permits = []PermitInput{healthPermit()}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)

	updated, err := l.Update(LaunchPatch{})
	require.NoError(t, err)
	assert.Equal(t, l, updated)
}

func TestUpdateReplacesOnlyProvidedFields(t *testing.T) {
	l, err := NewLaunch(tacoSpot(), createdAt, seqIDs())
	require.NoError(t, err)

	updated, err := l.Update(LaunchPatch{Name: strPtr("Taco Palace"), TargetOpenDate: strPtr("2025-07-04")})
	require.NoError(t, err)
	assert.Equal(t, "Taco Palace", updated.Name)
	assert.Equal(t, "Austin", updated.Location)
	assert.Equal(t, date("2025-07-04"), updated.TargetOpenDate)
	assert.Equal(t, "Taco Spot", l.Name, "original is not mutated")

	_, err = l.Update(LaunchPatch{TargetOpenDate: strPtr("soon")})
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "targetOpenDate", ve.Field)
	assert.Equal(t, "invalid date", ve.Reason)

	_, err = l.Update(LaunchPatch{Name: strPtr("")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestDaysUntilOpen(t *testing.T) {
	l := Launch{TargetOpenDate: date("2025-06-01")}
	assert.Equal(t, 1, l.DaysUntilOpen(date("2025-05-31T12:00:00Z")))
	assert.Equal(t, 0, l.DaysUntilOpen(date("2025-06-01")))
	assert.Equal(t, 0, l.DaysUntilOpen(date("2025-06-01T12:00:00Z")))
	assert.Equal(t, -1, l.DaysUntilOpen(date("2025-06-02T12:00:00Z")))
	assert.False(t, l.IsOverdue(date("2025-06-01T12:00:00Z")))
	assert.True(t, l.IsOverdue(date("2025-06-03")))
}

func TestUpdatePermitStatusAndNotes(t *testing.T) {
	in := tacoSpot()
	in.Permits = []PermitInput{healthPermit()}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)
	id := l.Permits[0].ID
	later := createdAt.Add(48 * time.Hour)

	p, err := l.UpdatePermit(id, PermitPatch{
		Status:            statusPtr(StatusScheduled),
		InspectionDate:    strPtr("2025-01-10"),
		AddInspectorNotes: []string{"Walk-in cooler checked"},
	}, later)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, p.Status)
	assert.Equal(t, later, p.StatusUpdatedAt)
	assert.Equal(t, []string{"Walk-in cooler checked"}, p.InspectorNotes)

	p, err = l.UpdatePermit(id, PermitPatch{
		Status:            statusPtr(StatusScheduled),
		AddInspectorNotes: []string{"Hand sinks ok"},
	}, later.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, later, p.StatusUpdatedAt, "unchanged status keeps its timestamp")
	assert.Equal(t, []string{"Walk-in cooler checked", "Hand sinks ok"}, p.InspectorNotes)
	assert.Equal(t, p, l.PermitsByType[PermitHealth][0])

	_, err = l.UpdatePermit(id, PermitPatch{Status: statusPtr("inspection_passed")}, later)
	assert.Error(t, err)

	_, err = l.UpdatePermit("permit_missing", PermitPatch{}, later)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemovePermitRegroups(t *testing.T) {
	in := tacoSpot()
	in.Permits = []PermitInput{healthPermit(), {Type: PermitFire, Title: "Fire", Priority: PriorityLow, EstimatedProcessingDays: intPtr(3)}}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)

	removed, err := l.RemovePermit(l.Permits[0].ID)
	require.NoError(t, err)
	assert.Equal(t, PermitHealth, removed.Type)
	require.Len(t, l.Permits, 1)
	assert.Empty(t, l.PermitsByType[PermitHealth])
	assertPartition(t, l)

	_, err = l.RemovePermit(removed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecomputeReadiness(t *testing.T) {
	empty := Launch{}
	assert.Equal(t, 0, empty.RecomputeReadiness())

	in := tacoSpot()
	in.Permits = []PermitInput{
		healthPermit(),
		{Type: PermitFire, Title: "Fire", Priority: PriorityCritical, EstimatedProcessingDays: intPtr(10)},
		{Type: PermitLicense, Title: "License", Priority: PriorityHigh, EstimatedProcessingDays: intPtr(21)},
		{Type: PermitZoning, Title: "Zoning", Priority: PriorityHigh, EstimatedProcessingDays: intPtr(30)},
	}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)
	assert.Equal(t, 0, l.RecomputeReadiness())

	_, err = l.UpdatePermit(l.Permits[2].ID, PermitPatch{Status: statusPtr(StatusApproved)}, createdAt)
	require.NoError(t, err)
	// 1/4 approved -> 20, no critical approved -> 0
	assert.Equal(t, 20, l.RecomputeReadiness())

	_, err = l.UpdatePermit(l.Permits[0].ID, PermitPatch{Status: statusPtr(StatusApproved)}, createdAt)
	require.NoError(t, err)
	// 2/4 approved -> 40, 1/2 critical -> 10
	assert.Equal(t, 50, l.RecomputeReadiness())

	for _, p := range l.Permits {
		_, err = l.UpdatePermit(p.ID, PermitPatch{Status: statusPtr(StatusApproved)}, createdAt)
		require.NoError(t, err)
	}
	assert.Equal(t, 100, l.RecomputeReadiness())
	assert.Equal(t, 100, l.ReadinessScore)
}

func TestRecomputeApprovalShare(t *testing.T) {
	empty := Launch{ReadinessScore: 40}
	assert.Equal(t, 0, empty.RecomputeApprovalShare())
	assert.Equal(t, 0, empty.ReadinessScore)

	in := tacoSpot()
	in.Permits = []PermitInput{
		healthPermit(),
		{Type: PermitFire, Title: "Fire", Priority: PriorityHigh, EstimatedProcessingDays: intPtr(10)},
		{Type: PermitLicense, Title: "License", Priority: PriorityLow, EstimatedProcessingDays: intPtr(21)},
	}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)
	_, err = l.UpdatePermit(l.Permits[1].ID, PermitPatch{Status: statusPtr(StatusApproved)}, createdAt)
	require.NoError(t, err)

	// 1/3 approved; the critical health permit carries no extra weight
	assert.Equal(t, 33, l.RecomputeApprovalShare())
	assert.Equal(t, 33, l.ReadinessScore)
	assert.Equal(t, 27, l.RecomputeReadiness())
}

func TestCloneDoesNotAlias(t *testing.T) {
	in := tacoSpot()
	in.Permits = []PermitInput{healthPermit()}
	l, err := NewLaunch(in, createdAt, seqIDs())
	require.NoError(t, err)

	c := l.Clone()
	assert.Equal(t, l, c)
	c.Permits[0].InspectorNotes = append(c.Permits[0].InspectorNotes, "changed")
	*c.Permits[0].ApplicationDeadline = date("2030-01-01")
	assert.Empty(t, l.Permits[0].InspectorNotes)
	assert.Equal(t, date("2024-01-01"), *l.Permits[0].ApplicationDeadline)
}
