package domain

import (
	"strings"
	"time"
)

func (p Permit) IsApproved() bool {
	return p.Status == StatusApproved
}

// IsPending reports whether the permit has not reached a terminal decision.
func (p Permit) IsPending() bool {
	return p.Status != StatusApproved && p.Status != StatusRejected
}

// IsOverdue is deliberately narrow: only an unstarted application past its
// deadline or a scheduled inspection past its date counts.
func (p Permit) IsOverdue(now time.Time) bool {
	switch p.Status {
	case StatusNotStarted:
		return p.ApplicationDeadline != nil && p.ApplicationDeadline.Before(now)
	case StatusScheduled:
		return p.InspectionDate != nil && p.InspectionDate.Before(now)
	default:
		return false
	}
}

func (p Permit) IsPendingCritical() bool {
	return p.Priority == PriorityCritical && p.Status != StatusApproved
}

func (p Permit) clone() Permit {
	out := p
	out.Description = cloneString(p.Description)
	out.InspectorName = cloneString(p.InspectorName)
	out.InspectorContact = cloneString(p.InspectorContact)
	out.Agency = cloneString(p.Agency)
	out.ApplicationReference = cloneString(p.ApplicationReference)
	out.ApplicationDeadline = cloneTime(p.ApplicationDeadline)
	out.InspectionDate = cloneTime(p.InspectionDate)
	out.ApprovalDeadline = cloneTime(p.ApprovalDeadline)
	out.InspectorNotes = append([]string{}, p.InspectorNotes...)
	out.CorrectiveActions = append([]string{}, p.CorrectiveActions...)
	return out
}

// PermitInput carries the caller-supplied fields of a new permit. Dates are
// ISO-8601 strings and are parsed on entry.
type PermitInput struct {
	Type                    PermitType
	Title                   string
	Priority                Priority
	EstimatedProcessingDays *int
	Description             *string
	Agency                  *string
	InspectorName           *string
	InspectorContact        *string
	ApplicationReference    *string
	ApplicationDeadline     *string
	InspectionDate          *string
	ApprovalDeadline        *string
}

// Validate checks required fields in declaration order and reports the first failure.
func (in PermitInput) Validate() error {
	if strings.TrimSpace(string(in.Type)) == "" {
		return missing("type")
	}
	if !ValidPermitType(in.Type) {
		return invalid("type", "unknown permit type")
	}
	if strings.TrimSpace(in.Title) == "" {
		return missing("title")
	}
	if strings.TrimSpace(string(in.Priority)) == "" {
		return missing("priority")
	}
	if !ValidPriority(in.Priority) {
		return invalid("priority", "unknown priority")
	}
	if in.EstimatedProcessingDays == nil {
		return missing("estimatedProcessingDays")
	}
	if *in.EstimatedProcessingDays < 0 {
		return invalid("estimatedProcessingDays", "must not be negative")
	}
	return nil
}

func newPermit(id, launchID string, in PermitInput, now time.Time) (Permit, error) {
	if err := in.Validate(); err != nil {
		return Permit{}, err
	}
	p := Permit{
		ID:                      id,
		LaunchID:                launchID,
		Type:                    in.Type,
		Title:                   strings.TrimSpace(in.Title),
		Description:             cloneString(in.Description),
		Status:                  StatusNotStarted,
		StatusUpdatedAt:         now,
		CreatedAt:               now,
		InspectorName:           cloneString(in.InspectorName),
		InspectorContact:        cloneString(in.InspectorContact),
		Agency:                  cloneString(in.Agency),
		ApplicationReference:    cloneString(in.ApplicationReference),
		InspectorNotes:          []string{},
		CorrectiveActions:       []string{},
		Priority:                in.Priority,
		EstimatedProcessingDays: *in.EstimatedProcessingDays,
	}
	var err error
	if p.ApplicationDeadline, err = parseOptionalDate("applicationDeadline", in.ApplicationDeadline); err != nil {
		return Permit{}, err
	}
	if p.InspectionDate, err = parseOptionalDate("inspectionDate", in.InspectionDate); err != nil {
		return Permit{}, err
	}
	if p.ApprovalDeadline, err = parseOptionalDate("approvalDeadline", in.ApprovalDeadline); err != nil {
		return Permit{}, err
	}
	return p, nil
}

// PermitPatch is a partial permit update. Nil fields keep their current value;
// note and corrective-action slices are appended, never replaced.
type PermitPatch struct {
	Type                    *PermitType
	Title                   *string
	Description             *string
	Status                  *PermitStatus
	Priority                *Priority
	EstimatedProcessingDays *int
	Agency                  *string
	InspectorName           *string
	InspectorContact        *string
	ApplicationReference    *string
	ApplicationDeadline     *string
	InspectionDate          *string
	ApprovalDeadline        *string
	AddInspectorNotes       []string
	AddCorrectiveActions    []string
}

func (p Permit) apply(patch PermitPatch, now time.Time) (Permit, error) {
	out := p.clone()
	if patch.Type != nil {
		if !ValidPermitType(*patch.Type) {
			return Permit{}, invalid("type", "unknown permit type")
		}
		out.Type = *patch.Type
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return Permit{}, missing("title")
		}
		out.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Priority != nil {
		if !ValidPriority(*patch.Priority) {
			return Permit{}, invalid("priority", "unknown priority")
		}
		out.Priority = *patch.Priority
	}
	if patch.EstimatedProcessingDays != nil {
		if *patch.EstimatedProcessingDays < 0 {
			return Permit{}, invalid("estimatedProcessingDays", "must not be negative")
		}
		out.EstimatedProcessingDays = *patch.EstimatedProcessingDays
	}
	if patch.Status != nil {
		if !ValidPermitStatus(*patch.Status) {
			return Permit{}, invalid("status", "unknown permit status")
		}
		if *patch.Status != out.Status {
			out.Status = *patch.Status
			out.StatusUpdatedAt = now
		}
	}
	if patch.Description != nil {
		out.Description = cloneString(patch.Description)
	}
	if patch.Agency != nil {
		out.Agency = cloneString(patch.Agency)
	}
	if patch.InspectorName != nil {
		out.InspectorName = cloneString(patch.InspectorName)
	}
	if patch.InspectorContact != nil {
		out.InspectorContact = cloneString(patch.InspectorContact)
	}
	if patch.ApplicationReference != nil {
		out.ApplicationReference = cloneString(patch.ApplicationReference)
	}
	var err error
	if patch.ApplicationDeadline != nil {
		if out.ApplicationDeadline, err = parseOptionalDate("applicationDeadline", patch.ApplicationDeadline); err != nil {
			return Permit{}, err
		}
	}
	if patch.InspectionDate != nil {
		if out.InspectionDate, err = parseOptionalDate("inspectionDate", patch.InspectionDate); err != nil {
			return Permit{}, err
		}
	}
	if patch.ApprovalDeadline != nil {
		if out.ApprovalDeadline, err = parseOptionalDate("approvalDeadline", patch.ApprovalDeadline); err != nil {
			return Permit{}, err
		}
	}
	for _, note := range patch.AddInspectorNotes {
		if strings.TrimSpace(note) != "" {
			out.InspectorNotes = append(out.InspectorNotes, note)
		}
	}
	for _, action := range patch.AddCorrectiveActions {
		if strings.TrimSpace(action) != "" {
			out.CorrectiveActions = append(out.CorrectiveActions, action)
		}
	}
	return out, nil
}

func ValidPermitType(t PermitType) bool {
	for _, v := range PermitTypes {
		if v == t {
			return true
		}
	}
	return false
}

func ValidPermitStatus(s PermitStatus) bool {
	for _, v := range PermitStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func ValidPriority(p Priority) bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
