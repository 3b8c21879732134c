package session

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/signalsfoundry/fleetsim/internal/sim/state"
)

// Digest hashes everything that must match between two runs of the same
// scenario, seed and key stream: the clock, the random source, every live
// object, the admirals and the pending queue.
func (s *Session) Digest() uint64 {
	w := s.world
	b := make([]byte, 0, 64+w.Objects.ActiveCount()*96)
	put := func(v int64) { b = binary.LittleEndian.AppendUint64(b, uint64(v)) }
	// Allocation IDs keep counting across restarts, so handles are hashed by
	// slot.
	ref := func(h state.Handle) {
		if h.None() {
			put(-1)
			return
		}
		put(int64(h.Slot))
	}

	put(w.Time)
	put(s.counter)
	put(int64(w.Random.Seed()))
	put(int64(w.Random.Draws()))
	put(int64(w.KeyMask))
	put(int64(w.Message))

	w.Objects.Scan(func(o *state.Object) bool {
		put(int64(o.Slot))
		put(int64(o.BaseType))
		put(int64(o.Owner))
		put(int64(o.Attributes))
		put(int64(o.Location.X))
		put(int64(o.Location.Y))
		put(int64(o.Residual.X))
		put(int64(o.Residual.Y))
		put(int64(o.Velocity.X))
		put(int64(o.Velocity.Y))
		put(int64(o.Direction))
		put(int64(o.Health))
		put(int64(o.Energy))
		put(int64(o.Battery))
		put(o.Age)
		ref(o.Target)
		ref(o.Dest)
		return true
	})
	for i := range w.Admirals {
		a := &w.Admirals[i]
		put(a.Cash)
		for _, sc := range a.Scores {
			put(sc)
		}
		ref(a.Flagship)
		put(int64(a.Losses))
	}
	for _, p := range s.queue.Snapshot() {
		put(int64(p.Actions.First))
		put(p.Remaining)
		ref(p.Subject)
		ref(p.Direct)
	}
	return xxhash.Sum64(b)
}
