package model

import "fmt"

// Attributes is the bitset of behavioural flags carried by a base object and
// copied onto each live instance.
type Attributes uint32

const (
	AttrCanCollide Attributes = 1 << iota
	AttrCanBeHit
	AttrCanThink
	AttrCanTurn
	AttrAutoTarget
	AttrIsShip
	AttrIsDestination
	AttrIsPlayerShip
	AttrCanAcceptDestination
)

// Has reports whether every bit in mask is set.
func (a Attributes) Has(mask Attributes) bool { return a&mask == mask }

var attributeNames = map[string]Attributes{
	"can-collide":            AttrCanCollide,
	"can-be-hit":             AttrCanBeHit,
	"can-think":              AttrCanThink,
	"can-turn":               AttrCanTurn,
	"auto-target":            AttrAutoTarget,
	"is-ship":                AttrIsShip,
	"is-destination":         AttrIsDestination,
	"is-player-ship":         AttrIsPlayerShip,
	"can-accept-destination": AttrCanAcceptDestination,
}

// ParseAttributes folds attribute names into a bitset.
func ParseAttributes(names []string) (Attributes, error) {
	var out Attributes
	for _, n := range names {
		bit, ok := attributeNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown attribute %q", n)
		}
		out |= bit
	}
	return out, nil
}

// WeaponSlot names one of the three weapon mounts an object carries.
type WeaponSlot int

const (
	WeaponPulse WeaponSlot = iota
	WeaponBeam
	WeaponSpecial
)

func (w WeaponSlot) String() string {
	switch w {
	case WeaponPulse:
		return "pulse"
	case WeaponBeam:
		return "beam"
	case WeaponSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// ParseWeaponSlot accepts the names printed by WeaponSlot.String.
func ParseWeaponSlot(s string) (WeaponSlot, error) {
	switch s {
	case "pulse", "":
		return WeaponPulse, nil
	case "beam":
		return WeaponBeam, nil
	case "special":
		return WeaponSpecial, nil
	default:
		return 0, fmt.Errorf("unknown weapon slot %q", s)
	}
}

// BaseObject is the immutable template shared by every live instance of a
// class of object: ships, projectiles, debris and scenery.
type BaseObject struct {
	Name        string
	Attributes  Attributes
	LevelKeyTag uint32

	Health int32
	Energy int32
	Mass   Fixed

	MaxVelocity Fixed
	Thrust      Fixed
	TurnRate    int32 // degrees per unit
	Radius      int32

	// Lifetime is the number of units an instance lives before expiring.
	// Zero means it never expires.
	Lifetime int64

	Pulse   BaseRef
	Beam    BaseRef
	Special BaseRef

	OnCreate   ActionRange
	OnDestroy  ActionRange
	OnExpire   ActionRange
	OnCollide  ActionRange
	OnActivate ActionRange

	// ActivatePeriod fires OnActivate every period units when non-zero.
	ActivatePeriod int64
}

// Weapon returns the template mounted in slot.
func (b *BaseObject) Weapon(slot WeaponSlot) BaseRef {
	switch slot {
	case WeaponPulse:
		return b.Pulse
	case WeaponBeam:
		return b.Beam
	case WeaponSpecial:
		return b.Special
	default:
		return NoBase
	}
}

// InitialObject is an object placed by the scenario at start, or later when
// an action reveals it.
type InitialObject struct {
	Base     BaseRef
	Owner    int // admiral index, negative for none
	Location Point
	Hidden   bool
	Flagship bool
	Target   InitialRef
}

// PlayerSpec describes an admiral seat.
type PlayerSpec struct {
	Name   string
	Human  bool
	Cash   int64
	Income int64
}
