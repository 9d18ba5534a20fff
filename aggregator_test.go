package fieldtrack

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldsuite/fieldtrack/agents"
	"github.com/fieldsuite/fieldtrack/pings"
)

type fakeDirectory struct {
	agents  []agents.Agent
	listErr error
}

func (f *fakeDirectory) List(ctx context.Context) ([]agents.Agent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.agents, nil
}

type fakePingStore struct {
	history map[string][]pings.LocationPing
	latest  map[string]pings.LiveStatus

	historyErr map[string]error

	latestForAgentCalls int
	latestForAllCalls   int
}

func (f *fakePingStore) ListForAgent(ctx context.Context, agentID string, day time.Time) ([]pings.LocationPing, error) {
	if err := f.historyErr[agentID]; err != nil {
		return nil, err
	}
	return f.history[agentID], nil
}

func (f *fakePingStore) ListForAll(ctx context.Context, day time.Time) ([]pings.LocationPing, error) {
	var out []pings.LocationPing
	for id, rows := range f.history {
		if err := f.historyErr[id]; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (f *fakePingStore) LatestForAgent(ctx context.Context, agentID string) (pings.LiveStatus, bool, error) {
	f.latestForAgentCalls++
	s, ok := f.latest[agentID]
	return s, ok, nil
}

func (f *fakePingStore) LatestForAll(ctx context.Context) (map[string]pings.LiveStatus, error) {
	f.latestForAllCalls++
	return f.latest, nil
}

func twoAgentDirectory() *fakeDirectory {
	return &fakeDirectory{agents: []agents.Agent{
		{ID: "a1", Name: "Asha"},
		{ID: "a2", Name: "Ravi"},
	}}
}

func TestLiveViewPassesOnlineFlagThrough(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &fakePingStore{latest: map[string]pings.LiveStatus{
		"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}, IsOnline: true},
		"a2": {Ping: pings.LocationPing{AgentID: "a2", Latitude: 3, Longitude: 4, Timestamp: now}, IsOnline: false},
	}}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.LiveView(context.Background(), []string{AllAgents})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !got["a1"].IsOnline {
		t.Error("a1 should be online: the flag is server-supplied and passed through")
	}
	if got["a2"].IsOnline {
		t.Error("a2 should be offline")
	}
}

func TestLiveViewAllSelectionUsesOneBulkRead(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &fakePingStore{latest: map[string]pings.LiveStatus{
		"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}},
		"a2": {Ping: pings.LocationPing{AgentID: "a2", Latitude: 3, Longitude: 4, Timestamp: now}},
	}}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.LiveView(context.Background(), []string{AllAgents})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if store.latestForAllCalls != 1 {
		t.Errorf("expected one bulk read, got %d", store.latestForAllCalls)
	}
	if store.latestForAgentCalls != 0 {
		t.Errorf("the all selection must not fan out per agent, got %d reads", store.latestForAgentCalls)
	}
}

func TestLiveViewExplicitSelectionReadsPerAgent(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &fakePingStore{latest: map[string]pings.LiveStatus{
		"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}},
	}}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	if _, err := agg.LiveView(context.Background(), []string{"a1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.latestForAllCalls != 0 {
		t.Errorf("an explicit selection must not trigger a bulk read, got %d", store.latestForAllCalls)
	}
	if store.latestForAgentCalls != 1 {
		t.Errorf("expected one per-agent read, got %d", store.latestForAgentCalls)
	}
}

func TestLiveViewSkipsAgentsWithoutPings(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &fakePingStore{latest: map[string]pings.LiveStatus{
		"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}},
	}}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.LiveView(context.Background(), []string{"a1", "a2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("an agent with no pings is a valid empty result, got %d entries", len(got))
	}
	if _, ok := got["a2"]; ok {
		t.Error("a2 has no pings and must be absent")
	}
}

func TestLiveViewUnknownAgent(t *testing.T) {
	agg := NewAggregator(twoAgentDirectory(), &fakePingStore{}, nil)

	_, err := agg.LiveView(context.Background(), []string{"a1", "ghost"})
	var unknown *UnknownAgentError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownAgentError, got %v", err)
	}
	if unknown.AgentID != "ghost" {
		t.Errorf("expected ghost, got %s", unknown.AgentID)
	}
}

func TestHistoryViewGroupsPerAgent(t *testing.T) {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	t1 := day.Add(9 * time.Hour)
	store := &fakePingStore{history: map[string][]pings.LocationPing{
		"a1": {
			{AgentID: "a1", Latitude: 12.97, Longitude: 77.59, PlaceName: "A", Timestamp: t1},
			{AgentID: "a1", Latitude: 12.97, Longitude: 77.59, PlaceName: "A", Timestamp: t1.Add(10 * time.Minute)},
			{AgentID: "a1", Latitude: 13.00, Longitude: 77.60, PlaceName: "B", Timestamp: t1.Add(20 * time.Minute)},
		},
		"a2": {},
	}}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.HistoryView(context.Background(), []string{"a1", "a2"}, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a1 := got["a1"]
	if len(a1.Intervals) != 2 {
		t.Fatalf("expected 2 intervals for a1, got %d", len(a1.Intervals))
	}
	if a1.DistanceKm <= 0 {
		t.Errorf("expected positive distance for a1, got %v", a1.DistanceKm)
	}

	a2 := got["a2"]
	if len(a2.Intervals) != 0 || a2.DistanceKm != 0 || a2.Error != "" {
		t.Errorf("empty day must be a valid empty entry, got %+v", a2)
	}
}

func TestHistoryViewIsolatesBadAgents(t *testing.T) {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	t1 := day.Add(9 * time.Hour)
	store := &fakePingStore{
		history: map[string][]pings.LocationPing{
			"a1": {
				// Latitude far out of range: reconstruction for a1 must fail.
				{AgentID: "a1", Latitude: 250, Longitude: 77.59, Timestamp: t1},
			},
			"a2": {
				{AgentID: "a2", Latitude: 1, Longitude: 1, PlaceName: "C", Timestamp: t1},
			},
		},
	}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.HistoryView(context.Background(), []string{"a1", "a2"}, day)
	if err != nil {
		t.Fatalf("one bad agent must not abort the view: %v", err)
	}
	if got["a1"].Error == "" {
		t.Error("a1's entry should carry the reconstruction error")
	}
	if len(got["a2"].Intervals) != 1 || got["a2"].Error != "" {
		t.Errorf("a2 must be unaffected, got %+v", got["a2"])
	}
}

func TestHistoryViewTransportFailureStaysLocal(t *testing.T) {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	store := &fakePingStore{
		history: map[string][]pings.LocationPing{
			"a2": {{AgentID: "a2", Latitude: 1, Longitude: 1, Timestamp: day.Add(time.Hour)}},
		},
		historyErr: map[string]error{"a1": errors.New("backend timeout")},
	}
	agg := NewAggregator(twoAgentDirectory(), store, nil)

	got, err := agg.HistoryView(context.Background(), []string{"a1", "a2"}, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["a1"].Error == "" {
		t.Error("a1's entry should carry the fetch error")
	}
	if len(got["a2"].Intervals) != 1 {
		t.Errorf("a2 must be unaffected, got %+v", got["a2"])
	}
}
