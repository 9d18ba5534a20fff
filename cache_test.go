package fieldtrack

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldsuite/fieldtrack/pings"
)

// blockingPingStore lets a test hold a live fetch open to exercise the
// single-flight discipline.
type blockingPingStore struct {
	fakePingStore
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingPingStore) LatestForAgent(ctx context.Context, agentID string) (pings.LiveStatus, bool, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return b.fakePingStore.LatestForAgent(ctx, agentID)
}

func TestViewCacheMemoizesPayloads(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &fakePingStore{latest: map[string]pings.LiveStatus{
		"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}, IsOnline: true},
	}}
	vc := NewViewCache(NewAggregator(twoAgentDirectory(), store, nil))

	first, err := vc.GetLiveResponse(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the store must not show up until Invalidate: the cached
	// payload is served verbatim.
	store.latest["a1"] = pings.LiveStatus{Ping: pings.LocationPing{AgentID: "a1", Latitude: 9, Longitude: 9, Timestamp: now}}
	second, err := vc.GetLiveResponse(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) != string(second) {
		t.Error("expected the memoized payload before Invalidate")
	}

	vc.Invalidate()
	third, err := vc.GetLiveResponse(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(first) == string(third) {
		t.Error("expected a rebuilt payload after Invalidate")
	}
}

func TestViewCacheRejectsConcurrentRefresh(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &blockingPingStore{
		fakePingStore: fakePingStore{latest: map[string]pings.LiveStatus{
			"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}},
		}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	vc := NewViewCache(NewAggregator(twoAgentDirectory(), store, nil))

	done := make(chan error, 1)
	go func() {
		_, err := vc.GetLiveResponse(context.Background(), []string{"a1"})
		done <- err
	}()
	<-store.started

	_, err := vc.GetLiveResponse(context.Background(), []string{"a1"})
	if !errors.Is(err, ErrViewBusy) {
		t.Fatalf("expected ErrViewBusy, got %v", err)
	}

	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("first flight should land cleanly: %v", err)
	}
}

func TestViewCacheStaleBuildIsNotCached(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	store := &blockingPingStore{
		fakePingStore: fakePingStore{latest: map[string]pings.LiveStatus{
			"a1": {Ping: pings.LocationPing{AgentID: "a1", Latitude: 1, Longitude: 2, Timestamp: now}},
		}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	vc := NewViewCache(NewAggregator(twoAgentDirectory(), store, nil))

	done := make(chan struct{})
	go func() {
		_, _ = vc.GetLiveResponse(context.Background(), []string{"a1"})
		close(done)
	}()
	<-store.started

	// The selection moves on while the fetch is still in flight.
	vc.Invalidate()
	close(store.release)
	<-done

	vc.mu.Lock()
	cached := len(vc.payloads)
	vc.mu.Unlock()
	if cached != 0 {
		t.Fatalf("a build from a superseded generation must not be cached, found %d payloads", cached)
	}
}

func TestViewCacheHistoryPayloadShape(t *testing.T) {
	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	t1 := day.Add(9 * time.Hour)
	store := &fakePingStore{history: map[string][]pings.LocationPing{
		"a1": {
			{AgentID: "a1", Latitude: 12.97, Longitude: 77.59, PlaceName: "A", Timestamp: t1},
			{AgentID: "a1", Latitude: 13.00, Longitude: 77.60, PlaceName: "B", Timestamp: t1.Add(10 * time.Minute)},
		},
	}}
	vc := NewViewCache(NewAggregator(twoAgentDirectory(), store, nil))

	buf, err := vc.GetHistoryResponse(context.Background(), []string{"a1"}, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp trackingResponse
	if err := json.Unmarshal(buf, &resp); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if resp.Day != "2026-08-28" {
		t.Errorf("expected day 2026-08-28, got %s", resp.Day)
	}
	if len(resp.History["a1"].Intervals) != 2 {
		t.Errorf("expected 2 intervals in the payload, got %d", len(resp.History["a1"].Intervals))
	}
}
