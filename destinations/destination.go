package destinations

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// MaxInitialPriority bounds the user-chosen priority at creation time.
// After the first reorder, priorities are assigned by position and may
// exceed this bound when the active list grows past it.
const MaxInitialPriority = 6

// Destination is one assigned stop for a field agent. ID is a synthetic
// identifier assigned at creation; all mutations are keyed by it, never
// by field-value matching, so duplicate names stay unambiguous.
//
// Reached and ReachedAt are set by the backend when the agent arrives and
// are read-only here; a reached destination keeps the priority it had
// when completed.
type Destination struct {
	ID        string     `json:"id"`
	AgentID   string     `json:"agent_id"`
	Name      string     `json:"name" validate:"required"`
	Latitude  float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Priority  int        `json:"priority" validate:"gte=1"`
	Date      time.Time  `json:"date"`
	Reached   bool       `json:"reached"`
	ReachedAt *time.Time `json:"reached_at,omitempty"`
}

// Store is the persistence collaborator for destination lists. SaveBatch
// is atomic from this subsystem's point of view: exactly one outbound
// call, no partial apply.
type Store interface {
	ListForAgent(ctx context.Context, agentID string) ([]Destination, error)
	SaveBatch(ctx context.Context, agentID string, batch []Destination) error
}

// Client is the REST adapter for the backend's destination store.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a destination store client against the ERP backend.
func NewClient(baseURL string, timeout time.Duration, retryCount int) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{httpClient: httpClient}
}

func (c *Client) ListForAgent(ctx context.Context, agentID string) ([]Destination, error) {
	var out []Destination
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetResult(&out).
		Get("/api/v1/destinations")
	if err != nil {
		return nil, fmt.Errorf("list destinations for agent %s: %w", agentID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list destinations for agent %s: backend returned %s", agentID, resp.Status())
	}
	return out, nil
}

func (c *Client) SaveBatch(ctx context.Context, agentID string, batch []Destination) error {
	body := struct {
		AgentID      string        `json:"agent_id"`
		Destinations []Destination `json:"destinations"`
	}{AgentID: agentID, Destinations: batch}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/v1/destinations/batch")
	if err != nil {
		return fmt.Errorf("save destinations for agent %s: %w", agentID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("save destinations for agent %s: backend returned %s", agentID, resp.Status())
	}
	return nil
}
