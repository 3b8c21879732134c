// Package state holds the mutable simulation state: the object table, the
// admirals and the scenario bookkeeping that actions and conditions read.
package state

import (
	"github.com/signalsfoundry/fleetsim/internal/sim/random"
	"github.com/signalsfoundry/fleetsim/kb"
	"github.com/signalsfoundry/fleetsim/model"
)

// NoMessage means no long message is on screen.
const NoMessage = -1

// World aggregates everything a session mutates. It is owned by a single
// session and is not safe for concurrent use.
type World struct {
	Catalog  *kb.Catalog
	Objects  *Store
	Admirals []Admiral
	Initials []Handle
	Random   *random.Source

	// Time is the number of units simulated since the scenario started.
	Time int64

	// PlayerAdmiral is the local player's admiral index.
	PlayerAdmiral int
	// KeyMask holds key bits disabled by scenario actions.
	KeyMask uint32
	Message int

	GameOver  bool
	Winner    int
	NextLevel int
	WinText   string
}

// NewWorld builds a world for the catalog and resets it to the scenario's
// starting bookkeeping. No objects are created.
func NewWorld(cat *kb.Catalog, objects *Store, rnd *random.Source) *World {
	if objects == nil {
		objects = NewStore(DefaultObjectCapacity)
	}
	if rnd == nil {
		rnd = random.New(random.DefaultSeed)
	}
	w := &World{Catalog: cat, Objects: objects, Random: rnd}
	w.Reset()
	return w
}

// Reset clears objects, admirals and end-of-game state.
func (w *World) Reset() {
	w.Objects.Reset()
	w.Admirals = newAdmirals(w.Catalog.Players())
	w.Initials = make([]Handle, w.Catalog.InitialCount())
	w.Time = 0
	w.KeyMask = 0
	w.Message = NoMessage
	w.GameOver = false
	w.Winner = NoOwner
	w.NextLevel = -1
	w.WinText = ""

	w.PlayerAdmiral = 0
	for i := range w.Admirals {
		if w.Admirals[i].Human {
			w.PlayerAdmiral = i
			break
		}
	}
}

// Admiral returns admiral i, or nil when i is not a seat.
func (w *World) Admiral(i int) *Admiral {
	if i < 0 || i >= len(w.Admirals) {
		return nil
	}
	return &w.Admirals[i]
}

// ResolvePlayer maps a symbolic player reference to an admiral index, or
// NoOwner when it names nobody.
func (w *World) ResolvePlayer(ref model.PlayerRef, focus *Object) int {
	switch ref.Kind {
	case model.PlayerIndex:
		if ref.Index >= 0 && ref.Index < len(w.Admirals) {
			return ref.Index
		}
	case model.PlayerYou:
		if w.PlayerAdmiral < len(w.Admirals) {
			return w.PlayerAdmiral
		}
	case model.PlayerFirstNotYou:
		for i := range w.Admirals {
			if i != w.PlayerAdmiral {
				return i
			}
		}
	case model.PlayerFocusOwner:
		if focus != nil && w.Admiral(focus.Owner) != nil {
			return focus.Owner
		}
	}
	return NoOwner
}

// InitialObject returns the live object standing in for initial i, or nil.
func (w *World) InitialObject(i int) *Object {
	if i < 0 || i >= len(w.Initials) {
		return nil
	}
	return w.Objects.Resolve(w.Initials[i])
}

// InitialHandle resolves an initial reference to the handle it currently
// maps to. Unset or unknown references yield the zero Handle.
func (w *World) InitialHandle(ref model.InitialRef) Handle {
	i, ok := ref.Index()
	if !ok || i >= len(w.Initials) {
		return Handle{}
	}
	return w.Initials[i]
}

// Spawn allocates an object from template base. It does not run the
// template's create actions. Callers drop the spawn on any error.
func (w *World) Spawn(base int, owner int, at model.Point, vel model.FixedPoint, direction int32) (*Object, error) {
	tmpl, ok := w.Catalog.BaseObject(base)
	if !ok {
		return nil, kb.ErrUnknownBase
	}
	o, err := w.Objects.Allocate()
	if err != nil {
		return nil, err
	}
	if w.Admiral(owner) == nil {
		owner = NoOwner
	}
	o.BaseType = base
	o.Base = tmpl
	o.Owner = owner
	o.Attributes = tmpl.Attributes
	o.Location = at
	o.Velocity = vel
	o.Direction = model.NormalizeAngle(direction)
	o.Health = tmpl.Health
	o.Energy = tmpl.Energy
	o.Pulse = tmpl.Pulse
	o.Beam = tmpl.Beam
	o.Special = tmpl.Special
	o.Age = -1
	if tmpl.Lifetime > 0 {
		o.Age = tmpl.Lifetime
	}
	o.ActivateCountdown = tmpl.ActivatePeriod
	return o, nil
}

// Remove deactivates o and updates admiral bookkeeping that pointed at it.
func (w *World) Remove(o *Object) {
	if o == nil || !o.Active {
		return
	}
	h := o.Handle()
	for i := range w.Admirals {
		a := &w.Admirals[i]
		if a.Flagship == h {
			a.Flagship = Handle{}
		}
		if a.Control == h {
			a.Control = Handle{}
		}
		if a.Target == h {
			a.Target = Handle{}
		}
	}
	w.Objects.Deactivate(o.Slot)
}

// Flagship returns admiral i's flagship, if it is still alive.
func (w *World) Flagship(i int) *Object {
	a := w.Admiral(i)
	if a == nil {
		return nil
	}
	return w.Objects.Resolve(a.Flagship)
}

// ShipsLeft counts live ships owned by admiral i.
func (w *World) ShipsLeft(i int) int {
	n := 0
	w.Objects.Scan(func(o *Object) bool {
		if o.Owner == i && o.Attributes.Has(model.AttrIsShip) {
			n++
		}
		return true
	})
	return n
}

// DeclareWinner ends the game. The first declaration wins.
func (w *World) DeclareWinner(admiral, nextLevel int, text string) {
	if w.GameOver {
		return
	}
	w.GameOver = true
	w.Winner = admiral
	w.NextLevel = nextLevel
	w.WinText = text
}
