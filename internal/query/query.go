// Package query derives filters and statistics from launches. Nothing here
// touches storage; everything is computed from the snapshot at read time.
package query

import (
	"math"
	"strings"
	"time"

	"launchline/internal/domain"
)

// LaunchStatus is a derived classification, never stored.
type LaunchStatus string

const (
	StatusActive    LaunchStatus = "active"
	StatusCompleted LaunchStatus = "completed"
	StatusOverdue   LaunchStatus = "overdue"
)

var LaunchStatuses = []LaunchStatus{StatusActive, StatusCompleted, StatusOverdue}

// ParseLaunchStatus returns "" (no filter) for an empty or unrecognized value.
func ParseLaunchStatus(s string) LaunchStatus {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, v := range LaunchStatuses {
		if string(v) == s {
			return v
		}
	}
	return ""
}

// Classify returns completed when every permit is approved (including a launch
// without permits), overdue when the target date has passed otherwise, and
// active for the rest.
func Classify(l domain.Launch, now time.Time) LaunchStatus {
	if l.AllApproved() {
		return StatusCompleted
	}
	if l.TargetOpenDate.Before(now) {
		return StatusOverdue
	}
	return StatusActive
}

// FilterByType keeps launches of the given business type; empty matches all.
func FilterByType(launches []domain.Launch, launchType string) []domain.Launch {
	out := make([]domain.Launch, 0, len(launches))
	for _, l := range launches {
		if launchType == "" || l.Type == launchType {
			out = append(out, l)
		}
	}
	return out
}

func FilterByStatus(launches []domain.Launch, status LaunchStatus, now time.Time) []domain.Launch {
	out := make([]domain.Launch, 0, len(launches))
	for _, l := range launches {
		if status == "" || Classify(l, now) == status {
			out = append(out, l)
		}
	}
	return out
}

type Summary struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	Completed        int `json:"completed"`
	AverageReadiness int `json:"averageReadiness"`
}

// SummaryStats counts a launch as active when at least one permit is not yet
// approved. A launch without permits is completed.
func SummaryStats(launches []domain.Launch) Summary {
	s := Summary{Total: len(launches)}
	if len(launches) == 0 {
		return s
	}
	sum := 0
	for _, l := range launches {
		if l.AllApproved() {
			s.Completed++
		} else {
			s.Active++
		}
		sum += l.ReadinessScore
	}
	s.AverageReadiness = int(math.Round(float64(sum) / float64(len(launches))))
	return s
}

// PermitMetadata is recomputed on every read so overdue tracks the clock.
func PermitMetadata(l domain.Launch, now time.Time) domain.PermitStats {
	return l.PermitStats(now)
}

type Counts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Critical int `json:"critical"`
}

func PermitCounts(l domain.Launch) Counts {
	// overdue is dropped, so any instant will do
	stats := l.PermitStats(time.Time{})
	return Counts{
		Total:    stats.Total,
		Approved: stats.Approved,
		Pending:  stats.Pending,
		Critical: stats.Critical,
	}
}

// LaunchMetadata is the derived view attached to a single launch.
type LaunchMetadata struct {
	DaysUntilOpen int                `json:"daysUntilOpen"`
	IsOverdue     bool               `json:"isOverdue"`
	PermitStats   domain.PermitStats `json:"permitStats"`
}

func Metadata(l domain.Launch, now time.Time) LaunchMetadata {
	return LaunchMetadata{
		DaysUntilOpen: l.DaysUntilOpen(now),
		IsOverdue:     l.IsOverdue(now),
		PermitStats:   PermitMetadata(l, now),
	}
}
