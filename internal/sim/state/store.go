package state

import (
	"errors"
	"fmt"
)

// DefaultObjectCapacity is the object table size used when none is configured.
const DefaultObjectCapacity = 250

// ErrNoFreeSlots is returned by Allocate when every slot is live or still
// quarantined from the current batch.
var ErrNoFreeSlots = errors.New("no free object slots")

// InvariantError reports an engine bug. It is raised with panic, never
// returned, because continuing would desynchronise replays.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("state invariant violated in %s: %s", e.Op, e.Detail)
}

type slotState uint8

const (
	slotFree slotState = iota
	slotActive
	slotQuarantined
)

// Store is the fixed-capacity object table. Slots freed during a batch stay
// quarantined until EndBatch so that indices held by in-flight work are never
// handed to a new object within the same batch.
type Store struct {
	objects []Object
	states  []slotState
	nextID  int64
	active  int
}

// NewStore returns an empty table with the given capacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultObjectCapacity
	}
	return &Store{
		objects: make([]Object, capacity),
		states:  make([]slotState, capacity),
	}
}

// Capacity returns the table size.
func (s *Store) Capacity() int { return len(s.objects) }

// ActiveCount returns the number of live objects.
func (s *Store) ActiveCount() int { return s.active }

// Allocate claims the lowest free slot and returns a zeroed, active object
// carrying a fresh ID.
func (s *Store) Allocate() (*Object, error) {
	for i := range s.states {
		if s.states[i] != slotFree {
			continue
		}
		s.nextID++
		s.objects[i] = Object{Slot: i, ID: s.nextID, Active: true, Owner: NoOwner, Age: -1}
		s.states[i] = slotActive
		s.active++
		return &s.objects[i], nil
	}
	return nil, ErrNoFreeSlots
}

// Get returns slot i regardless of whether it is live. An index outside the
// table is an engine bug and panics.
func (s *Store) Get(i int) *Object {
	if i < 0 || i >= len(s.objects) {
		panic(&InvariantError{Op: "Get", Detail: fmt.Sprintf("slot %d outside table of %d", i, len(s.objects))})
	}
	return &s.objects[i]
}

// Resolve returns the object h refers to, or nil when the slot has since been
// deactivated or reused.
func (s *Store) Resolve(h Handle) *Object {
	if h.None() {
		return nil
	}
	o := s.Get(h.Slot)
	if !o.Active || o.ID != h.ID {
		return nil
	}
	return o
}

// Deactivate flags slot i as dead. Its contents stay readable and the slot
// is not reused until EndBatch.
func (s *Store) Deactivate(i int) {
	o := s.Get(i)
	if !o.Active {
		return
	}
	o.Active = false
	o.Dying = false
	s.states[i] = slotQuarantined
	s.active--
}

// EndBatch releases every slot deactivated since the previous call.
func (s *Store) EndBatch() {
	for i, st := range s.states {
		if st == slotQuarantined {
			s.states[i] = slotFree
		}
	}
}

// Scan visits live objects in slot order until fn returns false. Objects
// deactivated during the scan are skipped once reached; objects allocated
// during the scan may or may not be visited.
func (s *Store) Scan(fn func(*Object) bool) {
	for i := range s.objects {
		o := &s.objects[i]
		if !o.Active {
			continue
		}
		if !fn(o) {
			return
		}
	}
}

// Reset clears every slot. IDs keep increasing so stale handles from before
// the reset never resolve.
func (s *Store) Reset() {
	for i := range s.objects {
		s.objects[i] = Object{}
		s.states[i] = slotFree
	}
	s.active = 0
}
