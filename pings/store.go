package pings

import (
	"context"
	"time"
)

// Store provides read access to the recorded ping stream. Implementations
// return history rows in chronological order per agent; the reconstructor
// still sorts defensively.
type Store interface {
	// ListForAgent returns the agent's pings for the given calendar day.
	ListForAgent(ctx context.Context, agentID string, day time.Time) ([]LocationPing, error)
	// ListForAll returns every agent's pings for the given calendar day.
	ListForAll(ctx context.Context, day time.Time) ([]LocationPing, error)
	// LatestForAgent returns the most recent reading plus the backend's
	// online flag. ok is false when the agent has no recorded pings, which
	// is a valid empty result, not an error.
	LatestForAgent(ctx context.Context, agentID string) (status LiveStatus, ok bool, err error)
	// LatestForAll returns the most recent reading per agent, keyed by
	// agent id. Agents with no pings are absent from the map.
	LatestForAll(ctx context.Context) (map[string]LiveStatus, error)
}
