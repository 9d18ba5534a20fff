package destinations

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrBusy rejects a call while a refresh or save on the same list is
// still in flight. Single-flight discipline: the second trigger is
// rejected, never interleaved, so a reorder can not land on a list that
// is mid-refetch.
var ErrBusy = errors.New("destination list: operation already in flight")

// ValidationError reports a list or item that fails the minimal
// completeness checks before a mutation or save.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "destination list: " + e.Reason
}

// SaveError wraps a transport failure from the destination store. No
// retry is attempted here; retry policy belongs to the caller.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return "save destinations: " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// RefreshError wraps a transport failure while refetching an agent's
// destinations. The previous selection stays loaded.
type RefreshError struct {
	AgentID string
	Err     error
}

func (e *RefreshError) Error() string {
	return "refresh destinations for agent " + e.AgentID + ": " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// FieldPatch carries the editable fields of an active destination. Nil
// members are left unchanged. Priority is deliberately absent: position
// in the list is the only way to change it after creation.
type FieldPatch struct {
	Name      *string
	Latitude  *float64
	Longitude *float64
	Date      *time.Time
}

// List is the ordered, mutable destination list for one selected agent.
//
// Active (not yet reached) items participate in reordering; Reorder is
// the authoritative priority-assignment mechanism and renumbers the
// whole active subset to 1..N. Completed items keep the priority they
// had when reached and are immutable from this subsystem's perspective.
//
// The list is driven by a single editor; the mutex only enforces the
// single-flight discipline around the I/O boundary, it is not a
// concurrent-writer protocol.
type List struct {
	store Store

	mu       sync.Mutex
	agentID  string
	active   []Destination
	done     []Destination
	busy     bool
	gen      uint64
	validate *validator.Validate
}

// NewList creates an empty list bound to a destination store.
func NewList(store Store) *List {
	return &List{store: store, validate: validator.New()}
}

// Select switches the list to an agent and refetches their destinations.
// The switch commits only when the fetch lands: on failure the previous
// agent's id and rows stay loaded, so a later Save can never submit one
// agent's rows under another's id. A stale fetch can never clobber a
// newer selection either: each refetch bumps a generation counter and a
// response from a superseded generation is dropped.
func (l *List) Select(ctx context.Context, agentID string) error {
	if agentID == "" {
		return &ValidationError{Reason: "no agent selected"}
	}

	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return ErrBusy
	}
	l.busy = true
	l.gen++
	gen := l.gen
	l.mu.Unlock()

	rows, err := l.store.ListForAgent(ctx, agentID)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
	if err != nil {
		return &RefreshError{AgentID: agentID, Err: err}
	}
	if gen != l.gen {
		// Superseded by a newer selection while in flight.
		return nil
	}
	l.agentID = agentID
	l.load(rows)
	return nil
}

// load partitions fetched rows into active and completed, ordered by
// priority, and backfills synthetic ids for rows the backend stored
// before ids existed.
func (l *List) load(rows []Destination) {
	l.active = l.active[:0]
	l.done = l.done[:0]
	for _, d := range rows {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Reached {
			l.done = append(l.done, d)
		} else {
			l.active = append(l.active, d)
		}
	}
	sort.SliceStable(l.active, func(i, j int) bool { return l.active[i].Priority < l.active[j].Priority })
	sort.SliceStable(l.done, func(i, j int) bool { return l.done[i].Priority < l.done[j].Priority })
}

// Replace resets the list to the given rows for an agent without a
// fetch. It serves surfaces that already hold the edited rows, such as a
// save endpoint receiving the reordered batch; partitioning and ordering
// follow Select.
func (l *List) Replace(agentID string, rows []Destination) error {
	if agentID == "" {
		return &ValidationError{Reason: "no agent selected"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrBusy
	}
	l.gen++
	l.agentID = agentID
	l.load(rows)
	return nil
}

// AgentID returns the currently selected agent, empty when none.
func (l *List) AgentID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.agentID
}

// Active returns a copy of the active subset in priority order.
func (l *List) Active() []Destination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Destination(nil), l.active...)
}

// Completed returns a copy of the reached subset.
func (l *List) Completed() []Destination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Destination(nil), l.done...)
}

// Add appends a destination to the active subset and returns it with its
// synthetic id assigned. Priority 0 means "end of list"; a user-chosen
// initial priority must be within 1..MaxInitialPriority. Either way the
// item is inserted at its priority position so the display order and the
// priority order agree.
func (l *List) Add(d Destination) (Destination, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return Destination{}, ErrBusy
	}
	if l.agentID == "" {
		return Destination{}, &ValidationError{Reason: "no agent selected"}
	}
	if d.Priority == 0 {
		d.Priority = len(l.active) + 1
	} else if d.Priority < 1 || d.Priority > MaxInitialPriority {
		return Destination{}, &ValidationError{Reason: fmt.Sprintf("initial priority %d outside 1..%d", d.Priority, MaxInitialPriority)}
	}
	d.ID = uuid.NewString()
	d.AgentID = l.agentID
	d.Reached = false
	d.ReachedAt = nil
	if err := l.validate.Struct(d); err != nil {
		return Destination{}, &ValidationError{Reason: err.Error()}
	}
	if d.Date.IsZero() {
		return Destination{}, &ValidationError{Reason: "missing date"}
	}

	pos := len(l.active)
	if p := d.Priority - 1; p < pos {
		pos = p
	}
	l.active = append(l.active, Destination{})
	copy(l.active[pos+1:], l.active[pos:])
	l.active[pos] = d
	return d, nil
}

// Remove deletes an active destination by id. Remaining priorities are
// left untouched; renumbering happens only through Reorder.
func (l *List) Remove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrBusy
	}
	idx := l.indexOf(id)
	if idx < 0 {
		return &ValidationError{Reason: "no active destination with id " + id}
	}
	l.active = append(l.active[:idx], l.active[idx+1:]...)
	return nil
}

// Edit updates the editable fields of an active destination in place.
// The item's priority is unaffected.
func (l *List) Edit(id string, patch FieldPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrBusy
	}
	idx := l.indexOf(id)
	if idx < 0 {
		return &ValidationError{Reason: "no active destination with id " + id}
	}

	d := l.active[idx]
	if patch.Name != nil {
		d.Name = *patch.Name
	}
	if patch.Latitude != nil {
		d.Latitude = *patch.Latitude
	}
	if patch.Longitude != nil {
		d.Longitude = *patch.Longitude
	}
	if patch.Date != nil {
		d.Date = *patch.Date
	}
	if err := l.validate.Struct(d); err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if d.Date.IsZero() {
		return &ValidationError{Reason: "missing date"}
	}
	l.active[idx] = d
	return nil
}

// Reorder moves the active item at from to position to, then renumbers
// the entire active subset to 1..N. This is the only way priorities
// change after creation.
func (l *List) Reorder(from, to int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return ErrBusy
	}
	n := len(l.active)
	if from < 0 || from >= n {
		return &ValidationError{Reason: fmt.Sprintf("reorder from-index %d outside 0..%d", from, n-1)}
	}
	if to < 0 || to >= n {
		return &ValidationError{Reason: fmt.Sprintf("reorder to-index %d outside 0..%d", to, n-1)}
	}

	moved := l.active[from]
	l.active = append(l.active[:from], l.active[from+1:]...)
	l.active = append(l.active, Destination{})
	copy(l.active[to+1:], l.active[to:])
	l.active[to] = moved

	for i := range l.active {
		l.active[i].Priority = i + 1
	}
	return nil
}

// Save submits the active subset as one batch. Completed destinations are
// excluded from the payload. On success the in-memory list is left as it
// is; the caller is expected to refetch via Select.
func (l *List) Save(ctx context.Context) error {
	l.mu.Lock()
	if l.busy {
		l.mu.Unlock()
		return ErrBusy
	}
	if l.agentID == "" {
		l.mu.Unlock()
		return &ValidationError{Reason: "no agent selected"}
	}
	if len(l.active) == 0 {
		l.mu.Unlock()
		return &ValidationError{Reason: "nothing to save: active list is empty"}
	}
	for _, d := range l.active {
		if err := l.validate.Struct(d); err != nil {
			l.mu.Unlock()
			return &ValidationError{Reason: err.Error()}
		}
		if d.Date.IsZero() {
			l.mu.Unlock()
			return &ValidationError{Reason: "destination " + d.Name + ": missing date"}
		}
	}
	l.busy = true
	agentID := l.agentID
	batch := append([]Destination(nil), l.active...)
	l.mu.Unlock()

	err := l.store.SaveBatch(ctx, agentID, batch)

	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
	if err != nil {
		return &SaveError{Err: err}
	}
	return nil
}

// indexOf finds an active item by id. Callers hold the mutex.
func (l *List) indexOf(id string) int {
	for i := range l.active {
		if l.active[i].ID == id {
			return i
		}
	}
	return -1
}
