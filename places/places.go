package places

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fieldsuite/fieldtrack/geo"
)

// Suggestion is one autocomplete hit from the place lookup service.
type Suggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Lookup resolves free-text place queries into coordinates. It is used
// only to populate a new destination's coordinates and plays no part in
// the core tracking or routing algorithms.
type Lookup interface {
	Autocomplete(ctx context.Context, query string) ([]Suggestion, error)
	Details(ctx context.Context, suggestionID string) (geo.Point, error)
}

// Client is the REST adapter for the place lookup service.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a place lookup client. The API key is sent on every
// request as a query parameter.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetQueryParam("key", apiKey).
		SetHeader("Accept", "application/json")

	return &Client{httpClient: httpClient}
}

func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	var out []Suggestion
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("input", query).
		SetResult(&out).
		Get("/autocomplete")
	if err != nil {
		return nil, fmt.Errorf("autocomplete %q: %w", query, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("autocomplete %q: lookup service returned %s", query, resp.Status())
	}
	return out, nil
}

func (c *Client) Details(ctx context.Context, suggestionID string) (geo.Point, error) {
	var out geo.Point
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("id", suggestionID).
		SetResult(&out).
		Get("/details")
	if err != nil {
		return geo.Point{}, fmt.Errorf("place details %s: %w", suggestionID, err)
	}
	if resp.IsError() {
		return geo.Point{}, fmt.Errorf("place details %s: lookup service returned %s", suggestionID, resp.Status())
	}
	return out, nil
}
