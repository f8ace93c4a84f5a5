// Package seed loads launches described in YAML into the launch service.
// Dates may be absolute (2025-06-01) or relative to now (+45d, -3d).
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"launchline/internal/domain"
	"launchline/internal/engine"
)

//go:embed demo.yml
var demoYAML []byte

type File struct {
	Launches []Launch `yaml:"launches"`
}

type Launch struct {
	Name       string   `yaml:"name"`
	Location   string   `yaml:"location"`
	Address    string   `yaml:"address"`
	Type       string   `yaml:"type"`
	TargetOpen string   `yaml:"target_open"`
	Rescore    bool     `yaml:"rescore"`
	Permits    []Permit `yaml:"permits"`
}

type Permit struct {
	Type                    string   `yaml:"type"`
	Title                   string   `yaml:"title"`
	Description             string   `yaml:"description"`
	Status                  string   `yaml:"status"`
	Priority                string   `yaml:"priority"`
	EstimatedProcessingDays *int     `yaml:"estimated_processing_days"`
	ApplicationDeadline     string   `yaml:"application_deadline"`
	InspectionDate          string   `yaml:"inspection_date"`
	ApprovalDeadline        string   `yaml:"approval_deadline"`
	Agency                  string   `yaml:"agency"`
	InspectorName           string   `yaml:"inspector_name"`
	InspectorContact        string   `yaml:"inspector_contact"`
	ApplicationReference    string   `yaml:"application_reference"`
	InspectorNotes          []string `yaml:"inspector_notes"`
	CorrectiveActions       []string `yaml:"corrective_actions"`
}

// Service is the part of the engine seeding needs.
type Service interface {
	CreateLaunch(ctx context.Context, in domain.LaunchInput) (domain.Launch, error)
	UpdatePermit(ctx context.Context, launchID, permitID string, patch domain.PermitPatch) (engine.PermitUpdate, error)
	RecomputeReadiness(ctx context.Context, launchID string) (engine.LaunchScore, error)
	GetLaunch(ctx context.Context, id string) (engine.LaunchView, error)
	PermitDefaults(in domain.PermitInput) domain.PermitInput
}

func Demo() (File, error) {
	return Parse(demoYAML)
}

func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("invalid seed yaml: %w", err)
	}
	if len(f.Launches) == 0 {
		return File{}, fmt.Errorf("seed file has no launches")
	}
	return f, nil
}

func FromFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Parse(data)
}

// Apply creates every launch in f. Permit statuses, notes and corrective
// actions are applied as updates after creation, the same way an operator
// would record them.
func Apply(ctx context.Context, svc Service, f File, now time.Time) ([]domain.Launch, error) {
	out := make([]domain.Launch, 0, len(f.Launches))
	for i, sl := range f.Launches {
		in, err := sl.input(now)
		if err != nil {
			return out, fmt.Errorf("launch %d (%s): %w", i, sl.Name, err)
		}
		for j := range in.Permits {
			in.Permits[j] = svc.PermitDefaults(in.Permits[j])
		}
		l, err := svc.CreateLaunch(ctx, in)
		if err != nil {
			return out, fmt.Errorf("launch %d (%s): %w", i, sl.Name, err)
		}
		for j, sp := range sl.Permits {
			patch, ok := sp.followUp()
			if !ok {
				continue
			}
			if _, err := svc.UpdatePermit(ctx, l.ID, l.Permits[j].ID, patch); err != nil {
				return out, fmt.Errorf("launch %s permit %s: %w", l.ID, l.Permits[j].ID, err)
			}
		}
		if sl.Rescore {
			if _, err := svc.RecomputeReadiness(ctx, l.ID); err != nil {
				return out, err
			}
		}
		view, err := svc.GetLaunch(ctx, l.ID)
		if err != nil {
			return out, err
		}
		out = append(out, view.Launch)
	}
	return out, nil
}

func (sl Launch) input(now time.Time) (domain.LaunchInput, error) {
	target, err := resolveDate(sl.TargetOpen, now)
	if err != nil {
		return domain.LaunchInput{}, err
	}
	in := domain.LaunchInput{
		Name:           sl.Name,
		Location:       sl.Location,
		Address:        sl.Address,
		Type:           sl.Type,
		TargetOpenDate: target,
	}
	for _, sp := range sl.Permits {
		pin, err := sp.input(now)
		if err != nil {
			return domain.LaunchInput{}, err
		}
		in.Permits = append(in.Permits, pin)
	}
	return in, nil
}

func (sp Permit) input(now time.Time) (domain.PermitInput, error) {
	in := domain.PermitInput{
		Type:                    domain.PermitType(sp.Type),
		Title:                   sp.Title,
		Priority:                domain.Priority(sp.Priority),
		EstimatedProcessingDays: sp.EstimatedProcessingDays,
		Description:             optional(sp.Description),
		Agency:                  optional(sp.Agency),
		InspectorName:           optional(sp.InspectorName),
		InspectorContact:        optional(sp.InspectorContact),
		ApplicationReference:    optional(sp.ApplicationReference),
	}
	dates := []struct {
		raw string
		dst **string
	}{
		{sp.ApplicationDeadline, &in.ApplicationDeadline},
		{sp.InspectionDate, &in.InspectionDate},
		{sp.ApprovalDeadline, &in.ApprovalDeadline},
	}
	for _, d := range dates {
		if d.raw == "" {
			continue
		}
		v, err := resolveDate(d.raw, now)
		if err != nil {
			return domain.PermitInput{}, err
		}
		*d.dst = &v
	}
	return in, nil
}

func (sp Permit) followUp() (domain.PermitPatch, bool) {
	var patch domain.PermitPatch
	if sp.Status != "" && sp.Status != string(domain.StatusNotStarted) {
		status := domain.PermitStatus(sp.Status)
		patch.Status = &status
	}
	patch.AddInspectorNotes = sp.InspectorNotes
	patch.AddCorrectiveActions = sp.CorrectiveActions
	return patch, patch.Status != nil || len(patch.AddInspectorNotes) > 0 || len(patch.AddCorrectiveActions) > 0
}

// resolveDate turns "+Nd" / "-Nd" into a calendar date relative to now and
// passes anything else through for the domain to parse.
func resolveDate(raw string, now time.Time) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 3 || (raw[0] != '+' && raw[0] != '-') || !strings.HasSuffix(raw, "d") {
		return raw, nil
	}
	n, err := strconv.Atoi(raw[1 : len(raw)-1])
	if err != nil {
		return "", fmt.Errorf("invalid relative date %q", raw)
	}
	if raw[0] == '-' {
		n = -n
	}
	return now.UTC().AddDate(0, 0, n).Format("2006-01-02"), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
