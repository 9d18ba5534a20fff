package visits

import (
	"sort"
	"time"

	"github.com/fieldsuite/fieldtrack/pings"
)

// Interval is a maximal run of consecutive pings at the same place,
// collapsed to one start/end record. Intervals are derived data: they are
// recomputed on every fetch of a day's pings and never mutated in place.
type Interval struct {
	AgentID   string    `json:"agent_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	PlaceName string    `json:"place_name,omitempty"`
	Start     time.Time `json:"start_time"`
	End       time.Time `json:"end_time"`
}

func startInterval(p pings.LocationPing) Interval {
	return Interval{
		AgentID:   p.AgentID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		PlaceName: p.PlaceName,
		Start:     p.Timestamp,
		End:       p.Timestamp,
	}
}

func samePlace(iv Interval, p pings.LocationPing) bool {
	return iv.Latitude == p.Latitude && iv.Longitude == p.Longitude && iv.PlaceName == p.PlaceName
}

// Reconstruct collapses one agent's ping stream into visit intervals with
// a single left-to-right scan. The input is stable-sorted by timestamp
// first, so callers may pass pings in any order; ties keep their original
// relative order.
//
// Grouping compares latitude, longitude and place name exactly. Readings
// that differ by any amount, GPS jitter included, start a new interval;
// whether near-duplicates should merge is an open product question and is
// deliberately not resolved here.
//
// Any malformed ping aborts reconstruction for this batch and returns a
// *pings.InvalidPingError; other agents' batches are unaffected because
// each agent is reconstructed independently.
func Reconstruct(seq []pings.LocationPing) ([]Interval, error) {
	for _, p := range seq {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if len(seq) == 0 {
		return []Interval{}, nil
	}

	sorted := make([]pings.LocationPing, len(seq))
	copy(sorted, seq)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	out := make([]Interval, 0, len(sorted))
	current := startInterval(sorted[0])
	for _, p := range sorted[1:] {
		if samePlace(current, p) {
			current.End = p.Timestamp
			continue
		}
		out = append(out, current)
		current = startInterval(p)
	}
	return append(out, current), nil
}

// ToPings expands an interval list back into one synthetic ping per
// interval boundary (start and end, or a single ping when they coincide).
// Feeding the result back through Reconstruct yields the same intervals.
func ToPings(intervals []Interval) []pings.LocationPing {
	out := make([]pings.LocationPing, 0, 2*len(intervals))
	for _, iv := range intervals {
		p := pings.LocationPing{
			AgentID:   iv.AgentID,
			Latitude:  iv.Latitude,
			Longitude: iv.Longitude,
			PlaceName: iv.PlaceName,
			Timestamp: iv.Start,
		}
		out = append(out, p)
		if !iv.End.Equal(iv.Start) {
			p.Timestamp = iv.End
			out = append(out, p)
		}
	}
	return out
}
