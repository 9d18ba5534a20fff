package fieldtrack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrViewBusy rejects a second refresh of the same view while the first
// is still in flight. The trigger is rejected, not queued; the caller
// keeps its last-known-good payload and retries after the flight lands.
var ErrViewBusy = errors.New("view refresh already in flight")

type trackingResponse struct {
	ResponseTimestamp string                  `json:"response_timestamp"`
	Day               string                  `json:"day,omitempty"`
	Live              map[string]LiveEntry    `json:"live,omitempty"`
	History           map[string]HistoryEntry `json:"history,omitempty"`
}

// ViewCache memoizes rendered view payloads per selection. It carries a
// generation stamp so a build finishing after Invalidate still serves the
// caller that asked for it but is never cached over newer data, and it
// enforces one outstanding build per key.
type ViewCache struct {
	agg *Aggregator

	mu       sync.Mutex
	gen      uint64
	inFlight map[string]bool
	payloads map[string][]byte
}

// NewViewCache creates a view cache over an aggregator.
func NewViewCache(agg *Aggregator) *ViewCache {
	return &ViewCache{
		agg:      agg,
		inFlight: map[string]bool{},
		payloads: map[string][]byte{},
	}
}

func (vc *ViewCache) memoKey(args ...string) string {
	var b bytes.Buffer
	for i, a := range args {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(a)
	}
	return b.String()
}

// Invalidate drops every cached payload and bumps the generation so any
// in-flight build lands without being cached.
func (vc *ViewCache) Invalidate() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.gen++
	vc.payloads = map[string][]byte{}
}

// get runs the single-flight protocol around build: cached payloads are
// returned as-is, a concurrent build of the same key is rejected with
// ErrViewBusy, and a stale build (generation moved on) is served but not
// cached.
func (vc *ViewCache) get(key string, build func() ([]byte, error)) ([]byte, error) {
	vc.mu.Lock()
	if p, ok := vc.payloads[key]; ok {
		vc.mu.Unlock()
		return p, nil
	}
	if vc.inFlight[key] {
		vc.mu.Unlock()
		return nil, ErrViewBusy
	}
	vc.inFlight[key] = true
	gen := vc.gen
	vc.mu.Unlock()

	payload, err := build()

	vc.mu.Lock()
	defer vc.mu.Unlock()
	delete(vc.inFlight, key)
	if err != nil {
		return nil, err
	}
	if gen == vc.gen {
		vc.payloads[key] = payload
	}
	return payload, nil
}

// GetLiveResponse returns the rendered live view for the selection.
func (vc *ViewCache) GetLiveResponse(ctx context.Context, agentIDs []string) ([]byte, error) {
	key := vc.memoKey("live", strings.Join(agentIDs, ","))
	return vc.get(key, func() ([]byte, error) {
		live, err := vc.agg.LiveView(ctx, agentIDs)
		if err != nil {
			return nil, err
		}
		return json.Marshal(trackingResponse{
			ResponseTimestamp: iso8601Now(),
			Live:              live,
		})
	})
}

// GetHistoryResponse returns the rendered history view for the selection
// and day.
func (vc *ViewCache) GetHistoryResponse(ctx context.Context, agentIDs []string, day time.Time) ([]byte, error) {
	key := vc.memoKey("history", strings.Join(agentIDs, ","), day.Format(dayFormat))
	return vc.get(key, func() ([]byte, error) {
		history, err := vc.agg.HistoryView(ctx, agentIDs, day)
		if err != nil {
			return nil, err
		}
		return json.Marshal(trackingResponse{
			ResponseTimestamp: iso8601Now(),
			Day:               day.Format(dayFormat),
			History:           history,
		})
	})
}
