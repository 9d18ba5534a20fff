package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Agent is one field agent from the user directory. The directory is
// owned by the backend; everything else references agents by id only.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Directory lists the known field agents.
type Directory interface {
	List(ctx context.Context) ([]Agent, error)
}

// Client is the REST adapter for the backend's user directory.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a directory client against the ERP backend.
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

func (c *Client) List(ctx context.Context) ([]Agent, error) {
	var out []Agent
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/agents")
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list agents: backend returned %s", resp.Status())
	}
	return out, nil
}
