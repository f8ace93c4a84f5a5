package launchsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Launchline HTTP API client.
type Client struct {
	BaseURL     string
	BasePath    string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:  baseURL,
		BasePath: "/v0",
		Timeout:  10 * time.Second,
	}
}

// Permit is the API permit model.
type Permit struct {
	ID                      string     `json:"id"`
	LaunchID                string     `json:"launchId"`
	Type                    string     `json:"type"`
	Title                   string     `json:"title"`
	Description             *string    `json:"description,omitempty"`
	Status                  string     `json:"status"`
	StatusUpdatedAt         time.Time  `json:"statusUpdatedAt"`
	CreatedAt               time.Time  `json:"createdAt"`
	ApplicationDeadline     *time.Time `json:"applicationDeadline,omitempty"`
	InspectionDate          *time.Time `json:"inspectionDate,omitempty"`
	ApprovalDeadline        *time.Time `json:"approvalDeadline,omitempty"`
	InspectorName           *string    `json:"inspectorName,omitempty"`
	InspectorContact        *string    `json:"inspectorContact,omitempty"`
	Agency                  *string    `json:"agency,omitempty"`
	ApplicationReference    *string    `json:"applicationReference,omitempty"`
	InspectorNotes          []string   `json:"inspectorNotes"`
	CorrectiveActions       []string   `json:"correctiveActions"`
	Priority                string     `json:"priority"`
	EstimatedProcessingDays int        `json:"estimatedProcessingDays"`
}

// Launch is the API launch model.
type Launch struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Location       string              `json:"location"`
	Address        string              `json:"address"`
	Type           string              `json:"type"`
	TargetOpenDate time.Time           `json:"targetOpenDate"`
	CreatedAt      time.Time           `json:"createdAt"`
	ReadinessScore int                 `json:"readinessScore"`
	Permits        []Permit            `json:"permits"`
	PermitsByType  map[string][]Permit `json:"permitsByType"`
}

type PermitStats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Critical int `json:"critical"`
	Overdue  int `json:"overdue"`
}

type LaunchMetadata struct {
	DaysUntilOpen int         `json:"daysUntilOpen"`
	IsOverdue     bool        `json:"isOverdue"`
	PermitStats   PermitStats `json:"permitStats"`
}

type LaunchView struct {
	Launch   Launch         `json:"launch"`
	Metadata LaunchMetadata `json:"metadata"`
}

type Summary struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	Completed        int `json:"completed"`
	AverageReadiness int `json:"averageReadiness"`
}

type LaunchList struct {
	Launches []Launch `json:"launches"`
	Stats    Summary  `json:"stats"`
}

type PermitCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Critical int `json:"critical"`
}

type PermitList struct {
	Permits  []Permit     `json:"permits"`
	Metadata PermitCounts `json:"metadata"`
}

type LaunchScore struct {
	ID             string `json:"id"`
	ReadinessScore int    `json:"readinessScore"`
}

type PermitUpdate struct {
	Permit Permit      `json:"permit"`
	Launch LaunchScore `json:"launch"`
}

type PermitDeletion struct {
	Permit Permit `json:"permit"`
	Launch struct {
		ID             string `json:"id"`
		ReadinessScore int    `json:"readinessScore"`
		PermitCount    int    `json:"permitCount"`
	} `json:"launch"`
}

type DeletedLaunch struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PermitCount int    `json:"permitCount"`
}

// PermitInput is the body of a new permit. Dates are YYYY-MM-DD or RFC 3339.
type PermitInput struct {
	Type                    string  `json:"type"`
	Title                   string  `json:"title"`
	Priority                string  `json:"priority"`
	EstimatedProcessingDays int     `json:"estimatedProcessingDays"`
	Description             *string `json:"description,omitempty"`
	Agency                  *string `json:"agency,omitempty"`
	InspectorName           *string `json:"inspectorName,omitempty"`
	InspectorContact        *string `json:"inspectorContact,omitempty"`
	ApplicationReference    *string `json:"applicationReference,omitempty"`
	ApplicationDeadline     *string `json:"applicationDeadline,omitempty"`
	InspectionDate          *string `json:"inspectionDate,omitempty"`
	ApprovalDeadline        *string `json:"approvalDeadline,omitempty"`
}

type LaunchInput struct {
	Name           string        `json:"name"`
	Location       string        `json:"location"`
	Address        string        `json:"address"`
	Type           string        `json:"type"`
	TargetOpenDate string        `json:"targetOpenDate"`
	Permits        []PermitInput `json:"permits,omitempty"`
}

// LaunchPatch lists the launch fields to change; nil fields are left alone.
type LaunchPatch struct {
	Name           *string `json:"name,omitempty"`
	Location       *string `json:"location,omitempty"`
	Address        *string `json:"address,omitempty"`
	Type           *string `json:"type,omitempty"`
	TargetOpenDate *string `json:"targetOpenDate,omitempty"`
}

// PermitPatch lists the permit fields to change. Notes and corrective actions
// are appended on the server.
type PermitPatch struct {
	Type                    *string  `json:"type,omitempty"`
	Title                   *string  `json:"title,omitempty"`
	Description             *string  `json:"description,omitempty"`
	Status                  *string  `json:"status,omitempty"`
	Priority                *string  `json:"priority,omitempty"`
	EstimatedProcessingDays *int     `json:"estimatedProcessingDays,omitempty"`
	Agency                  *string  `json:"agency,omitempty"`
	InspectorName           *string  `json:"inspectorName,omitempty"`
	InspectorContact        *string  `json:"inspectorContact,omitempty"`
	ApplicationReference    *string  `json:"applicationReference,omitempty"`
	ApplicationDeadline     *string  `json:"applicationDeadline,omitempty"`
	InspectionDate          *string  `json:"inspectionDate,omitempty"`
	ApprovalDeadline        *string  `json:"approvalDeadline,omitempty"`
	AddInspectorNotes       []string `json:"addInspectorNotes,omitempty"`
	AddCorrectiveActions    []string `json:"addCorrectiveActions,omitempty"`
}

// APIError wraps non-2xx responses. Code, Message and Details are filled from
// the error envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Field returns details.field of a validation error.
func (e *APIError) Field() string {
	f, _ := e.Details["field"].(string)
	return f
}

// ListLaunches lists launches; empty filters match everything.
func (c *Client) ListLaunches(ctx context.Context, launchType, status string) (LaunchList, error) {
	q := url.Values{}
	if launchType != "" {
		q.Set("type", launchType)
	}
	if status != "" {
		q.Set("status", status)
	}
	endpoint := "launches"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp LaunchList
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) CreateLaunch(ctx context.Context, in LaunchInput) (Launch, error) {
	var resp Launch
	err := c.do(ctx, http.MethodPost, "launches", in, &resp)
	return resp, err
}

// GetLaunch returns a launch with its derived metadata.
func (c *Client) GetLaunch(ctx context.Context, id string) (LaunchView, error) {
	var resp LaunchView
	err := c.do(ctx, http.MethodGet, launchPath(id), nil, &resp)
	return resp, err
}

func (c *Client) UpdateLaunch(ctx context.Context, id string, patch LaunchPatch) (Launch, error) {
	var resp Launch
	err := c.do(ctx, http.MethodPatch, launchPath(id), patch, &resp)
	return resp, err
}

func (c *Client) DeleteLaunch(ctx context.Context, id string) (DeletedLaunch, error) {
	var resp DeletedLaunch
	err := c.do(ctx, http.MethodDelete, launchPath(id), nil, &resp)
	return resp, err
}

// RecomputeReadiness asks the server to rescore a launch.
func (c *Client) RecomputeReadiness(ctx context.Context, id string) (LaunchScore, error) {
	var resp LaunchScore
	err := c.do(ctx, http.MethodPost, launchPath(id)+"/readiness", nil, &resp)
	return resp, err
}

func (c *Client) ListPermits(ctx context.Context, launchID string) (PermitList, error) {
	var resp PermitList
	err := c.do(ctx, http.MethodGet, launchPath(launchID)+"/permits", nil, &resp)
	return resp, err
}

func (c *Client) CreatePermit(ctx context.Context, launchID string, in PermitInput) (Permit, error) {
	var resp Permit
	err := c.do(ctx, http.MethodPost, launchPath(launchID)+"/permits", in, &resp)
	return resp, err
}

func (c *Client) GetPermit(ctx context.Context, launchID, permitID string) (Permit, error) {
	var resp Permit
	err := c.do(ctx, http.MethodGet, permitPath(launchID, permitID), nil, &resp)
	return resp, err
}

// UpdatePermit applies a partial update and returns the launch's new score.
func (c *Client) UpdatePermit(ctx context.Context, launchID, permitID string, patch PermitPatch) (PermitUpdate, error) {
	var resp PermitUpdate
	err := c.do(ctx, http.MethodPatch, permitPath(launchID, permitID), patch, &resp)
	return resp, err
}

func (c *Client) DeletePermit(ctx context.Context, launchID, permitID string) (PermitDeletion, error) {
	var resp PermitDeletion
	err := c.do(ctx, http.MethodDelete, permitPath(launchID, permitID), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(b)}
		var env struct {
			Error struct {
				Code    string         `json:"code"`
				Message string         `json:"message"`
				Details map[string]any `json:"details"`
			} `json:"error"`
		}
		if json.Unmarshal(b, &env) == nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.Details = env.Error.Details
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func launchPath(id string) string {
	return "launches/" + url.PathEscape(id)
}

func permitPath(launchID, permitID string) string {
	return fmt.Sprintf("launches/%s/permits/%s", url.PathEscape(launchID), url.PathEscape(permitID))
}

func (c *Client) base() string {
	basePath := strings.Trim(c.BasePath, "/")
	if basePath == "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + basePath
}
