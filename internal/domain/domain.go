package domain

import "time"

type PermitType string

const (
	PermitHealth   PermitType = "health"
	PermitFire     PermitType = "fire"
	PermitADA      PermitType = "ada"
	PermitLicense  PermitType = "license"
	PermitZoning   PermitType = "zoning"
	PermitBuilding PermitType = "building"
)

// PermitTypes lists every permit type in display order.
var PermitTypes = []PermitType{PermitHealth, PermitFire, PermitADA, PermitLicense, PermitZoning, PermitBuilding}

type PermitStatus string

const (
	StatusNotStarted PermitStatus = "not_started"
	StatusScheduled  PermitStatus = "scheduled"
	StatusInReview   PermitStatus = "in_review"
	StatusApproved   PermitStatus = "approved"
	StatusRejected   PermitStatus = "rejected"
)

var PermitStatuses = []PermitStatus{StatusNotStarted, StatusScheduled, StatusInReview, StatusApproved, StatusRejected}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// DefaultProcessingDays is used by callers that do not ask for a processing estimate.
const DefaultProcessingDays = 14

type Permit struct {
	ID                      string       `json:"id"`
	LaunchID                string       `json:"launchId"`
	Type                    PermitType   `json:"type" enum:"health,fire,ada,license,zoning,building"`
	Title                   string       `json:"title"`
	Description             *string      `json:"description,omitempty"`
	Status                  PermitStatus `json:"status" enum:"not_started,scheduled,in_review,approved,rejected"`
	StatusUpdatedAt         time.Time    `json:"statusUpdatedAt"`
	CreatedAt               time.Time    `json:"createdAt"`
	ApplicationDeadline     *time.Time   `json:"applicationDeadline,omitempty"`
	InspectionDate          *time.Time   `json:"inspectionDate,omitempty"`
	ApprovalDeadline        *time.Time   `json:"approvalDeadline,omitempty"`
	InspectorName           *string      `json:"inspectorName,omitempty"`
	InspectorContact        *string      `json:"inspectorContact,omitempty"`
	Agency                  *string      `json:"agency,omitempty"`
	ApplicationReference    *string      `json:"applicationReference,omitempty"`
	InspectorNotes          []string     `json:"inspectorNotes"`
	CorrectiveActions       []string     `json:"correctiveActions"`
	Priority                Priority     `json:"priority" enum:"low,medium,high,critical"`
	EstimatedProcessingDays int          `json:"estimatedProcessingDays" minimum:"0"`
}

type Launch struct {
	ID             string                  `json:"id"`
	Name           string                  `json:"name"`
	Location       string                  `json:"location"`
	Address        string                  `json:"address"`
	Type           string                  `json:"type"`
	TargetOpenDate time.Time               `json:"targetOpenDate"`
	CreatedAt      time.Time               `json:"createdAt"`
	ReadinessScore int                     `json:"readinessScore" minimum:"0" maximum:"100"`
	Permits        []Permit                `json:"permits"`
	PermitsByType  map[PermitType][]Permit `json:"permitsByType"`
}

// PermitStats summarizes the permits of a single launch at a point in time.
type PermitStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Critical int `json:"critical"`
	Overdue  int `json:"overdue"`
}
