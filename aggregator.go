package fieldtrack

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/fieldsuite/fieldtrack/agents"
	"github.com/fieldsuite/fieldtrack/geo"
	"github.com/fieldsuite/fieldtrack/pings"
	"github.com/fieldsuite/fieldtrack/visits"
)

// AllAgents selects every agent in the directory.
const AllAgents = "all"

// UnknownAgentError reports a requested agent id that is not in the
// directory. The request fails as a whole; no partial result is returned.
type UnknownAgentError struct {
	AgentID string
}

func (e *UnknownAgentError) Error() string {
	return "unknown agent: " + e.AgentID
}

// UpstreamError reports a failed call to a backend collaborator (the
// agent directory or the ping store). Handlers map it to a gateway
// failure rather than an internal one.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// LiveEntry is one agent's latest position plus the backend's
// online/offline flag, passed through untouched.
type LiveEntry struct {
	Ping     pings.LocationPing `json:"ping"`
	IsOnline bool               `json:"is_online"`
}

// HistoryEntry is one agent's reconstructed day: the visit intervals plus
// the distance traveled over the raw ping sequence. Error carries a
// per-agent failure (for example one malformed ping) without aborting
// sibling agents.
type HistoryEntry struct {
	Intervals  []visits.Interval `json:"intervals"`
	DistanceKm float64           `json:"distance_km"`
	Error      string            `json:"error,omitempty"`
}

// Aggregator partitions the combined ping stream by agent and serves the
// two view modes over it: live (latest point only) and history (visit
// intervals plus distance for a chosen day).
type Aggregator struct {
	directory agents.Directory
	store     pings.Store
	liveCache *pings.LiveCache
}

// NewAggregator wires the aggregator to its collaborators. liveCache may
// be nil; live views then always go to the store.
func NewAggregator(directory agents.Directory, store pings.Store, liveCache *pings.LiveCache) *Aggregator {
	return &Aggregator{directory: directory, store: store, liveCache: liveCache}
}

// resolveAgents expands the selection against the directory. The single
// id "all" selects every known agent; any other id must exist.
func (a *Aggregator) resolveAgents(ctx context.Context, agentIDs []string) ([]string, error) {
	known, err := a.directory.List(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "resolve agents", Err: err}
	}

	if len(agentIDs) == 1 && agentIDs[0] == AllAgents {
		ids := make([]string, len(known))
		for i, ag := range known {
			ids[i] = ag.ID
		}
		sort.Strings(ids)
		return ids, nil
	}

	index := make(map[string]bool, len(known))
	for _, ag := range known {
		index[ag.ID] = true
	}
	out := make([]string, 0, len(agentIDs))
	for _, id := range agentIDs {
		if !index[id] {
			return nil, &UnknownAgentError{AgentID: id}
		}
		out = append(out, id)
	}
	return out, nil
}

// LiveView returns the most recent ping and online flag per requested
// agent. Agents with no recorded pings are absent from the result, which
// is a valid empty state. The Redis cache, when configured, is consulted
// first; misses fall through to the store and refill the cache. The
// "all" selection covers its cache misses with one bulk store read,
// explicit selections read per agent.
func (a *Aggregator) LiveView(ctx context.Context, agentIDs []string) (map[string]LiveEntry, error) {
	wantAll := len(agentIDs) == 1 && agentIDs[0] == AllAgents
	ids, err := a.resolveAgents(ctx, agentIDs)
	if err != nil {
		return nil, err
	}

	cached := map[string]pings.LiveStatus{}
	if a.liveCache != nil {
		cached, err = a.liveCache.GetAll(ctx)
		if err != nil {
			// Cache trouble degrades to store reads.
			log.Printf("live cache read failed: %v", err)
			cached = map[string]pings.LiveStatus{}
		}
	}

	out := make(map[string]LiveEntry, len(ids))

	if wantAll {
		missing := false
		for _, id := range ids {
			if _, ok := cached[id]; !ok {
				missing = true
				break
			}
		}
		if missing {
			latest, lerr := a.store.LatestForAll(ctx)
			if lerr != nil {
				return nil, &UpstreamError{Op: "live view", Err: lerr}
			}
			for id, status := range latest {
				if _, ok := cached[id]; ok {
					continue
				}
				cached[id] = status
				if a.liveCache != nil {
					if err := a.liveCache.Put(ctx, status); err != nil {
						log.Printf("live cache write failed for agent %s: %v", id, err)
					}
				}
			}
		}
		for _, id := range ids {
			if status, ok := cached[id]; ok {
				out[id] = LiveEntry{Ping: status.Ping, IsOnline: status.IsOnline}
			}
		}
		return out, nil
	}

	for _, id := range ids {
		status, ok := cached[id]
		if !ok {
			var found bool
			status, found, err = a.store.LatestForAgent(ctx, id)
			if err != nil {
				return nil, &UpstreamError{Op: "live view for agent " + id, Err: err}
			}
			if !found {
				continue
			}
			if a.liveCache != nil {
				if err := a.liveCache.Put(ctx, status); err != nil {
					log.Printf("live cache write failed for agent %s: %v", id, err)
				}
			}
		}
		out[id] = LiveEntry{Ping: status.Ping, IsOnline: status.IsOnline}
	}
	return out, nil
}

// HistoryView reconstructs the chosen day per requested agent. A failure
// for one agent (transport or a malformed ping) is recorded on that
// agent's entry and must not blank the siblings' results. An agent with
// no pings that day yields an empty interval list and zero distance.
func (a *Aggregator) HistoryView(ctx context.Context, agentIDs []string, day time.Time) (map[string]HistoryEntry, error) {
	ids, err := a.resolveAgents(ctx, agentIDs)
	if err != nil {
		return nil, err
	}

	wantAll := len(agentIDs) == 1 && agentIDs[0] == AllAgents

	byAgent := map[string][]pings.LocationPing{}
	fetchErrs := map[string]error{}
	if wantAll {
		rows, err := a.store.ListForAll(ctx, day)
		if err != nil {
			return nil, &UpstreamError{Op: "history view", Err: err}
		}
		for _, p := range rows {
			byAgent[p.AgentID] = append(byAgent[p.AgentID], p)
		}
	} else {
		for _, id := range ids {
			rows, err := a.store.ListForAgent(ctx, id, day)
			if err != nil {
				fetchErrs[id] = err
				log.Printf("history fetch failed for agent %s: %v", id, err)
				continue
			}
			byAgent[id] = rows
		}
	}

	out := make(map[string]HistoryEntry, len(ids))
	for _, id := range ids {
		if fe := fetchErrs[id]; fe != nil {
			out[id] = HistoryEntry{Intervals: []visits.Interval{}, Error: fe.Error()}
			continue
		}
		seq := byAgent[id]
		intervals, err := visits.Reconstruct(seq)
		if err != nil {
			out[id] = HistoryEntry{Intervals: []visits.Interval{}, Error: err.Error()}
			continue
		}

		points := make([]geo.Point, len(seq))
		for i, p := range seq {
			points[i] = geo.Point{Lat: p.Latitude, Lon: p.Longitude}
		}
		out[id] = HistoryEntry{Intervals: intervals, DistanceKm: geo.TotalDistanceKm(points)}
	}
	return out, nil
}
