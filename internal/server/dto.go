package server

import (
	"launchline/internal/domain"
)

// Request payloads. Required fields are checked by the domain so that every
// missing field is reported the same way, with its name in details.field.

type PermitRequest struct {
	Type                    string  `json:"type,omitempty" doc:"health, fire, ada, license, zoning or building"`
	Title                   string  `json:"title,omitempty"`
	Priority                string  `json:"priority,omitempty" doc:"low, medium, high or critical"`
	EstimatedProcessingDays *int    `json:"estimatedProcessingDays,omitempty"`
	Description             *string `json:"description,omitempty"`
	Agency                  *string `json:"agency,omitempty"`
	InspectorName           *string `json:"inspectorName,omitempty"`
	InspectorContact        *string `json:"inspectorContact,omitempty"`
	ApplicationReference    *string `json:"applicationReference,omitempty"`
	ApplicationDeadline     *string `json:"applicationDeadline,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
	InspectionDate          *string `json:"inspectionDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
	ApprovalDeadline        *string `json:"approvalDeadline,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
}

func (r PermitRequest) input() domain.PermitInput {
	return domain.PermitInput{
		Type:                    domain.PermitType(r.Type),
		Title:                   r.Title,
		Priority:                domain.Priority(r.Priority),
		EstimatedProcessingDays: r.EstimatedProcessingDays,
		Description:             r.Description,
		Agency:                  r.Agency,
		InspectorName:           r.InspectorName,
		InspectorContact:        r.InspectorContact,
		ApplicationReference:    r.ApplicationReference,
		ApplicationDeadline:     r.ApplicationDeadline,
		InspectionDate:          r.InspectionDate,
		ApprovalDeadline:        r.ApprovalDeadline,
	}
}

type CreateLaunchRequest struct {
	Name           string          `json:"name,omitempty"`
	Location       string          `json:"location,omitempty"`
	Address        string          `json:"address,omitempty"`
	Type           string          `json:"type,omitempty" doc:"Business type, e.g. restaurant"`
	TargetOpenDate string          `json:"targetOpenDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
	Permits        []PermitRequest `json:"permits,omitempty"`
}

func (r CreateLaunchRequest) input() domain.LaunchInput {
	in := domain.LaunchInput{
		Name:           r.Name,
		Location:       r.Location,
		Address:        r.Address,
		Type:           r.Type,
		TargetOpenDate: r.TargetOpenDate,
	}
	for _, p := range r.Permits {
		in.Permits = append(in.Permits, p.input())
	}
	return in
}

type UpdateLaunchRequest struct {
	Name           *string `json:"name,omitempty"`
	Location       *string `json:"location,omitempty"`
	Address        *string `json:"address,omitempty"`
	Type           *string `json:"type,omitempty"`
	TargetOpenDate *string `json:"targetOpenDate,omitempty" doc:"YYYY-MM-DD or RFC 3339"`
}

func (r UpdateLaunchRequest) patch() domain.LaunchPatch {
	return domain.LaunchPatch{
		Name:           r.Name,
		Location:       r.Location,
		Address:        r.Address,
		Type:           r.Type,
		TargetOpenDate: r.TargetOpenDate,
	}
}

type UpdatePermitRequest struct {
	Type                    *string  `json:"type,omitempty"`
	Title                   *string  `json:"title,omitempty"`
	Description             *string  `json:"description,omitempty"`
	Status                  *string  `json:"status,omitempty" doc:"not_started, scheduled, in_review, approved or rejected"`
	Priority                *string  `json:"priority,omitempty"`
	EstimatedProcessingDays *int     `json:"estimatedProcessingDays,omitempty"`
	Agency                  *string  `json:"agency,omitempty"`
	InspectorName           *string  `json:"inspectorName,omitempty"`
	InspectorContact        *string  `json:"inspectorContact,omitempty"`
	ApplicationReference    *string  `json:"applicationReference,omitempty"`
	ApplicationDeadline     *string  `json:"applicationDeadline,omitempty"`
	InspectionDate          *string  `json:"inspectionDate,omitempty"`
	ApprovalDeadline        *string  `json:"approvalDeadline,omitempty"`
	AddInspectorNotes       []string `json:"addInspectorNotes,omitempty" doc:"Appended to the permit's inspector notes"`
	AddCorrectiveActions    []string `json:"addCorrectiveActions,omitempty" doc:"Appended to the permit's corrective actions"`
}

func (r UpdatePermitRequest) patch() domain.PermitPatch {
	p := domain.PermitPatch{
		Title:                   r.Title,
		Description:             r.Description,
		EstimatedProcessingDays: r.EstimatedProcessingDays,
		Agency:                  r.Agency,
		InspectorName:           r.InspectorName,
		InspectorContact:        r.InspectorContact,
		ApplicationReference:    r.ApplicationReference,
		ApplicationDeadline:     r.ApplicationDeadline,
		InspectionDate:          r.InspectionDate,
		ApprovalDeadline:        r.ApprovalDeadline,
		AddInspectorNotes:       r.AddInspectorNotes,
		AddCorrectiveActions:    r.AddCorrectiveActions,
	}
	if r.Type != nil {
		t := domain.PermitType(*r.Type)
		p.Type = &t
	}
	if r.Status != nil {
		s := domain.PermitStatus(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := domain.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

type HealthResponse struct {
	Status string `json:"status"`
}
