package pings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const liveHashKey = "fieldtrack:live"

// LiveCache keeps the latest known position per agent in a single Redis
// hash so the live map can be refreshed without hitting the backend on
// every poll. Entries expire together via a TTL on the hash key; a cache
// miss falls through to the ping store.
type LiveCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLiveCache creates a live-position cache on an existing Redis client.
func NewLiveCache(client *redis.Client, ttl time.Duration) *LiveCache {
	return &LiveCache{client: client, ttl: ttl}
}

// Put stores one agent's latest status and refreshes the hash TTL.
func (c *LiveCache) Put(ctx context.Context, status LiveStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal live status for agent %s: %w", status.Ping.AgentID, err)
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, liveHashKey, status.Ping.AgentID, payload)
	pipe.Expire(ctx, liveHashKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache live status for agent %s: %w", status.Ping.AgentID, err)
	}
	return nil
}

// Get returns the cached status for one agent. ok is false on a miss.
func (c *LiveCache) Get(ctx context.Context, agentID string) (LiveStatus, bool, error) {
	raw, err := c.client.HGet(ctx, liveHashKey, agentID).Bytes()
	if err == redis.Nil {
		return LiveStatus{}, false, nil
	}
	if err != nil {
		return LiveStatus{}, false, fmt.Errorf("read live status for agent %s: %w", agentID, err)
	}

	var status LiveStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return LiveStatus{}, false, fmt.Errorf("decode live status for agent %s: %w", agentID, err)
	}
	return status, true, nil
}

// GetAll returns every cached status keyed by agent id.
func (c *LiveCache) GetAll(ctx context.Context) (map[string]LiveStatus, error) {
	raw, err := c.client.HGetAll(ctx, liveHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read live statuses: %w", err)
	}

	out := make(map[string]LiveStatus, len(raw))
	for agentID, payload := range raw {
		var status LiveStatus
		if err := json.Unmarshal([]byte(payload), &status); err != nil {
			// One corrupt entry must not blank the whole live view.
			continue
		}
		out[agentID] = status
	}
	return out, nil
}
