package action

import (
	"errors"

	"github.com/signalsfoundry/fleetsim/internal/sim/state"
	"github.com/signalsfoundry/fleetsim/model"
)

// DefaultQueueCapacity bounds the number of deferred action lists.
const DefaultQueueCapacity = 120

// ErrQueueFull is returned when a deferred action list cannot be held.
var ErrQueueFull = errors.New("pending action queue full")

// Pending is a deferred action list waiting for its delay to run out.
type Pending struct {
	Actions   model.ActionRange
	Remaining int64
	Subject   state.Handle
	Direct    state.Handle
	Offset    model.Point

	// Seq records insertion order.
	Seq uint64
}

// Queue holds deferred action lists in insertion order. Entries that come
// due in the same pass fire in the order they were added.
type Queue struct {
	capacity int
	entries  []Pending
	// held counts entries detached for the pass in progress that are still
	// owned by the queue.
	held int
	seq  uint64
}

// NewQueue returns an empty queue. A non-positive capacity selects
// DefaultQueueCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{capacity: capacity}
}

// Capacity returns the maximum number of entries.
func (q *Queue) Capacity() int { return q.capacity }

// Len returns the number of entries held, including any detached by a pass
// in progress.
func (q *Queue) Len() int { return len(q.entries) + q.held }

// Snapshot returns a copy of the entries in insertion order.
func (q *Queue) Snapshot() []Pending {
	out := make([]Pending, len(q.entries))
	copy(out, q.entries)
	return out
}

// Reset drops every entry.
func (q *Queue) Reset() {
	q.entries = nil
	q.held = 0
}

func (q *Queue) push(p Pending) error {
	if q.Len() >= q.capacity {
		return ErrQueueFull
	}
	q.seq++
	p.Seq = q.seq
	q.entries = append(q.entries, p)
	return nil
}

// begin detaches the current entries and charges them units. Entries added
// while the pass runs land in a fresh list and are not charged.
func (q *Queue) begin(units int64) []Pending {
	current := q.entries
	q.entries = nil
	q.held = len(current)
	for i := range current {
		current[i].Remaining -= units
	}
	return current
}

// release marks one detached entry as leaving the queue.
func (q *Queue) release() { q.held-- }

// finish puts the entries that are not yet due ahead of those added during
// the pass.
func (q *Queue) finish(kept []Pending) {
	added := q.entries
	q.entries = append(kept, added...)
	q.held = 0
}
