package state

import "github.com/signalsfoundry/fleetsim/model"

// NoOwner marks an object that belongs to no admiral.
const NoOwner = -1

// Handle is a weak reference to an object: its slot plus the allocation ID
// that was live in that slot when the handle was taken. The zero Handle
// refers to nothing.
type Handle struct {
	Slot int
	ID   int64
}

// None reports whether h refers to nothing.
func (h Handle) None() bool { return h.ID == 0 }

// Object is one live simulation entity. Slots are reused; hold a Handle,
// not a pointer, across decision cycles.
type Object struct {
	Slot   int
	ID     int64
	Active bool
	// Dying is set while destroy or expire actions run so they cannot
	// recurse into a second removal.
	Dying bool

	BaseType int
	Base     *model.BaseObject
	Initial  model.InitialRef

	Owner      int
	Attributes model.Attributes

	Location  model.Point
	Residual  model.FixedPoint
	Velocity  model.FixedPoint
	Direction int32

	Health  int32
	Energy  int32
	Battery int32

	Pulse   model.BaseRef
	Beam    model.BaseRef
	Special model.BaseRef

	Target       Handle
	Dest         Handle
	DestLocation model.Point

	// Age counts down to expiry. Negative means immortal.
	Age               int64
	ActivateCountdown int64

	Cloaked bool
	Hidden  bool
}

// Handle returns a weak reference to o.
func (o *Object) Handle() Handle {
	if o == nil {
		return Handle{}
	}
	return Handle{Slot: o.Slot, ID: o.ID}
}

// MaxHealth returns the template health ceiling.
func (o *Object) MaxHealth() int32 {
	if o.Base == nil {
		return 0
	}
	return o.Base.Health
}

// MaxEnergy returns the template energy ceiling.
func (o *Object) MaxEnergy() int32 {
	if o.Base == nil {
		return 0
	}
	return o.Base.Energy
}

// LevelKeyTag returns the template level key tag.
func (o *Object) LevelKeyTag() uint32 {
	if o.Base == nil {
		return 0
	}
	return o.Base.LevelKeyTag
}

// Weapon returns the weapon template mounted in slot.
func (o *Object) Weapon(slot model.WeaponSlot) model.BaseRef {
	switch slot {
	case model.WeaponPulse:
		return o.Pulse
	case model.WeaponBeam:
		return o.Beam
	case model.WeaponSpecial:
		return o.Special
	default:
		return model.NoBase
	}
}

// SetWeapon mounts ref in slot.
func (o *Object) SetWeapon(slot model.WeaponSlot, ref model.BaseRef) {
	switch slot {
	case model.WeaponPulse:
		o.Pulse = ref
	case model.WeaponBeam:
		o.Beam = ref
	case model.WeaponSpecial:
		o.Special = ref
	}
}
