package pings

import (
	"fmt"
	"math"
	"time"
)

// LocationPing is one timestamped location reading for a field agent.
// Pings are immutable once recorded; the backend produces them at a
// polling cadence.
type LocationPing struct {
	AgentID   string    `json:"agent_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	PlaceName string    `json:"place_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LiveStatus is the backend's most recent reading for one agent together
// with its server-computed online flag. The flag is passed through
// untouched; this module never derives its own staleness heuristic.
type LiveStatus struct {
	Ping     LocationPing `json:"ping"`
	IsOnline bool         `json:"is_online"`
}

// InvalidPingError reports a malformed location reading. A bad ping aborts
// processing for its agent's batch only; sibling agents are unaffected.
type InvalidPingError struct {
	AgentID string
	Reason  string
}

func (e *InvalidPingError) Error() string {
	return fmt.Sprintf("invalid ping for agent %q: %s", e.AgentID, e.Reason)
}

// Validate checks the fields a recorded ping must carry.
func (p LocationPing) Validate() error {
	if p.AgentID == "" {
		return &InvalidPingError{Reason: "missing agent id"}
	}
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return &InvalidPingError{AgentID: p.AgentID, Reason: fmt.Sprintf("latitude %v out of range", p.Latitude)}
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return &InvalidPingError{AgentID: p.AgentID, Reason: fmt.Sprintf("longitude %v out of range", p.Longitude)}
	}
	if p.Timestamp.IsZero() {
		return &InvalidPingError{AgentID: p.AgentID, Reason: "missing timestamp"}
	}
	return nil
}
