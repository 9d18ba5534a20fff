package pings

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const dayFormat = "2006-01-02"

// Client is the REST adapter for the backend's ping store.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a ping store client against the ERP backend.
func NewClient(baseURL string, timeout time.Duration, retryCount int) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient}
}

func (c *Client) ListForAgent(ctx context.Context, agentID string, day time.Time) ([]LocationPing, error) {
	var out []LocationPing
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetQueryParam("day", day.Format(dayFormat)).
		SetResult(&out).
		Get("/api/v1/location-pings")
	if err != nil {
		return nil, fmt.Errorf("list pings for agent %s: %w", agentID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list pings for agent %s: backend returned %s", agentID, resp.Status())
	}
	return out, nil
}

func (c *Client) ListForAll(ctx context.Context, day time.Time) ([]LocationPing, error) {
	var out []LocationPing
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("day", day.Format(dayFormat)).
		SetResult(&out).
		Get("/api/v1/location-pings")
	if err != nil {
		return nil, fmt.Errorf("list pings for all agents: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list pings for all agents: backend returned %s", resp.Status())
	}
	return out, nil
}

func (c *Client) LatestForAgent(ctx context.Context, agentID string) (LiveStatus, bool, error) {
	var out LiveStatus
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetResult(&out).
		Get("/api/v1/location-pings/latest")
	if err != nil {
		return LiveStatus{}, false, fmt.Errorf("latest ping for agent %s: %w", agentID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return LiveStatus{}, false, nil
	}
	if resp.IsError() {
		return LiveStatus{}, false, fmt.Errorf("latest ping for agent %s: backend returned %s", agentID, resp.Status())
	}
	return out, true, nil
}

func (c *Client) LatestForAll(ctx context.Context) (map[string]LiveStatus, error) {
	out := map[string]LiveStatus{}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/location-pings/latest")
	if err != nil {
		return nil, fmt.Errorf("latest pings for all agents: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("latest pings for all agents: backend returned %s", resp.Status())
	}
	return out, nil
}
