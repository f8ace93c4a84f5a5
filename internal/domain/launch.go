package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// IDFunc returns a fresh unique identifier carrying the given prefix.
type IDFunc func(prefix string) string

// LaunchInput carries the fields of a launch to create. TargetOpenDate is an
// ISO-8601 string and is parsed on entry.
type LaunchInput struct {
	Name           string
	Location       string
	Address        string
	Type           string
	TargetOpenDate string
	Permits        []PermitInput
}

// NewLaunch validates the input and builds a launch with fresh ids. The
// readiness score always starts at zero, even when initial permits are
// already approved elsewhere; scoring happens on an explicit recompute.
func NewLaunch(in LaunchInput, now time.Time, newID IDFunc) (Launch, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Name},
		{"location", in.Location},
		{"address", in.Address},
		{"type", in.Type},
		{"targetOpenDate", in.TargetOpenDate},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return Launch{}, missing(r.field)
		}
	}
	target, err := ParseDate(in.TargetOpenDate)
	if err != nil {
		return Launch{}, invalid("targetOpenDate", "invalid date")
	}
	l := Launch{
		ID:             newID("launch"),
		Name:           strings.TrimSpace(in.Name),
		Location:       strings.TrimSpace(in.Location),
		Address:        strings.TrimSpace(in.Address),
		Type:           strings.TrimSpace(in.Type),
		TargetOpenDate: target,
		CreatedAt:      now,
		ReadinessScore: 0,
		Permits:        make([]Permit, 0, len(in.Permits)),
	}
	for i, pin := range in.Permits {
		p, err := newPermit(newID("permit"), l.ID, pin, now)
		if err != nil {
			return Launch{}, withPrefix(fmt.Sprintf("permits[%d]", i), err)
		}
		l.Permits = append(l.Permits, p)
	}
	l.Regroup()
	return l, nil
}

// AddPermit appends a validated permit. The readiness score is left untouched.
func (l *Launch) AddPermit(in PermitInput, now time.Time, newID IDFunc) (Permit, error) {
	p, err := newPermit(newID("permit"), l.ID, in, now)
	if err != nil {
		return Permit{}, err
	}
	l.Permits = append(l.Permits, p)
	l.Regroup()
	return p.clone(), nil
}

func (l Launch) Permit(permitID string) (Permit, error) {
	for _, p := range l.Permits {
		if p.ID == permitID {
			return p.clone(), nil
		}
	}
	return Permit{}, fmt.Errorf("permit %s: %w", permitID, ErrNotFound)
}

// UpdatePermit applies a partial update to one permit and regroups.
func (l *Launch) UpdatePermit(permitID string, patch PermitPatch, now time.Time) (Permit, error) {
	for i, p := range l.Permits {
		if p.ID != permitID {
			continue
		}
		updated, err := p.apply(patch, now)
		if err != nil {
			return Permit{}, err
		}
		l.Permits[i] = updated
		l.Regroup()
		return updated.clone(), nil
	}
	return Permit{}, fmt.Errorf("permit %s: %w", permitID, ErrNotFound)
}

func (l *Launch) RemovePermit(permitID string) (Permit, error) {
	for i, p := range l.Permits {
		if p.ID != permitID {
			continue
		}
		l.Permits = append(l.Permits[:i:i], l.Permits[i+1:]...)
		l.Regroup()
		return p, nil
	}
	return Permit{}, fmt.Errorf("permit %s: %w", permitID, ErrNotFound)
}

// LaunchPatch is a partial launch update; nil fields keep their value.
type LaunchPatch struct {
	Name           *string
	Location       *string
	Address        *string
	Type           *string
	TargetOpenDate *string
}

// Update returns a copy of the launch with the provided fields replaced.
func (l Launch) Update(patch LaunchPatch) (Launch, error) {
	out := l.Clone()
	fields := []struct {
		name string
		in   *string
		dst  *string
	}{
		{"name", patch.Name, &out.Name},
		{"location", patch.Location, &out.Location},
		{"address", patch.Address, &out.Address},
		{"type", patch.Type, &out.Type},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return Launch{}, missing(f.name)
		}
		*f.dst = v
	}
	if patch.TargetOpenDate != nil {
		t, err := ParseDate(*patch.TargetOpenDate)
		if err != nil {
			return Launch{}, invalid("targetOpenDate", "invalid date")
		}
		out.TargetOpenDate = t
	}
	return out, nil
}

// Regroup rebuilds PermitsByType as the exact partition of Permits. All six
// groups are always present.
func (l *Launch) Regroup() {
	if l.Permits == nil {
		l.Permits = []Permit{}
	}
	groups := make(map[PermitType][]Permit, len(PermitTypes))
	for _, t := range PermitTypes {
		groups[t] = []Permit{}
	}
	for _, p := range l.Permits {
		groups[p.Type] = append(groups[p.Type], p.clone())
	}
	l.PermitsByType = groups
}

func (l Launch) PermitStats(now time.Time) PermitStats {
	stats := PermitStats{Total: len(l.Permits)}
	for _, p := range l.Permits {
		if p.IsApproved() {
			stats.Approved++
		}
		if p.IsPending() {
			stats.Pending++
		}
		if p.IsPendingCritical() {
			stats.Critical++
		}
		if p.IsOverdue(now) {
			stats.Overdue++
		}
	}
	return stats
}

// AllApproved is vacuously true for a launch without permits.
func (l Launch) AllApproved() bool {
	for _, p := range l.Permits {
		if !p.IsApproved() {
			return false
		}
	}
	return true
}

// DaysUntilOpen rounds partial days up and goes negative once the target has passed.
func (l Launch) DaysUntilOpen(now time.Time) int {
	days := l.TargetOpenDate.Sub(now).Hours() / 24
	return int(math.Ceil(days))
}

func (l Launch) IsOverdue(now time.Time) bool {
	return l.DaysUntilOpen(now) < 0
}

// RecomputeReadiness scores approvals at 80% weight plus up to 20 points for
// approved critical permits; with no critical permits the full 20 is granted.
// A launch without permits scores zero.
func (l *Launch) RecomputeReadiness() int {
	total := len(l.Permits)
	if total == 0 {
		l.ReadinessScore = 0
		return 0
	}
	var approved, critical, criticalApproved int
	for _, p := range l.Permits {
		if p.IsApproved() {
			approved++
		}
		if p.Priority == PriorityCritical {
			critical++
			if p.IsApproved() {
				criticalApproved++
			}
		}
	}
	base := float64(approved) / float64(total) * 100
	bonus := 20.0
	if critical > 0 {
		bonus = float64(criticalApproved) / float64(critical) * 20
	}
	score := int(math.Round(base*0.8 + bonus))
	if score > 100 {
		score = 100
	}
	l.ReadinessScore = score
	return score
}

// RecomputeApprovalShare scores the launch as the rounded percentage of
// approved permits, with no critical weighting. Removing a permit rescores
// this way. A launch without permits scores zero.
func (l *Launch) RecomputeApprovalShare() int {
	total := len(l.Permits)
	if total == 0 {
		l.ReadinessScore = 0
		return 0
	}
	approved := 0
	for _, p := range l.Permits {
		if p.IsApproved() {
			approved++
		}
	}
	l.ReadinessScore = int(math.Round(float64(approved) / float64(total) * 100))
	return l.ReadinessScore
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (l Launch) Clone() Launch {
	out := l
	out.Permits = make([]Permit, 0, len(l.Permits))
	for _, p := range l.Permits {
		out.Permits = append(out.Permits, p.clone())
	}
	out.Regroup()
	return out
}
