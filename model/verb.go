package model

// VerbKind enumerates every verb the interpreter understands.
type VerbKind int

const (
	VerbNoAction VerbKind = iota
	VerbCreateObject
	VerbPlaySound
	VerbMakeSparks
	VerbDie
	VerbNilTarget
	VerbAlterHealth
	VerbAlterEnergy
	VerbAlterHidden
	VerbAlterCloak
	VerbAlterVelocity
	VerbAlterOwner
	VerbArmConditions
	VerbAlterCash
	VerbAlterAge
	VerbAlterLocation
	VerbAlterWeapon
	VerbChangeScore
	VerbDeclareWinner
	VerbDisplayMessage
	VerbSetDestination
	VerbActivateWeapon
	VerbColorFlash
	VerbEnableKeys
	VerbDisableKeys
	verbKindCount
)

var verbNames = [...]string{
	VerbNoAction:       "none",
	VerbCreateObject:   "create-object",
	VerbPlaySound:      "play-sound",
	VerbMakeSparks:     "make-sparks",
	VerbDie:            "die",
	VerbNilTarget:      "nil-target",
	VerbAlterHealth:    "alter-health",
	VerbAlterEnergy:    "alter-energy",
	VerbAlterHidden:    "alter-hidden",
	VerbAlterCloak:     "alter-cloak",
	VerbAlterVelocity:  "alter-velocity",
	VerbAlterOwner:     "alter-owner",
	VerbArmConditions:  "arm-conditions",
	VerbAlterCash:      "alter-cash",
	VerbAlterAge:       "alter-age",
	VerbAlterLocation:  "alter-location",
	VerbAlterWeapon:    "alter-weapon",
	VerbChangeScore:    "change-score",
	VerbDeclareWinner:  "declare-winner",
	VerbDisplayMessage: "display-message",
	VerbSetDestination: "set-destination",
	VerbActivateWeapon: "activate-weapon",
	VerbColorFlash:     "color-flash",
	VerbEnableKeys:     "enable-keys",
	VerbDisableKeys:    "disable-keys",
}

func (k VerbKind) String() string {
	if k < 0 || k >= verbKindCount {
		return "unknown"
	}
	return verbNames[k]
}

// VerbKinds lists every verb kind in declaration order.
func VerbKinds() []VerbKind {
	out := make([]VerbKind, 0, verbKindCount)
	for k := VerbNoAction; k < verbKindCount; k++ {
		out = append(out, k)
	}
	return out
}

// VerbKindByName resolves a verb name as written in scenario files.
func VerbKindByName(name string) (VerbKind, bool) {
	for k, n := range verbNames {
		if n == name {
			return VerbKind(k), true
		}
	}
	return 0, false
}

// Verb is the closed set of action payloads. Only types in this package
// implement it.
type Verb interface {
	Kind() VerbKind
	verb()
}

// NoAction terminates the action list it appears in.
type NoAction struct{}

// CreateObject spawns CountMinimum plus a random extra in [0, CountRange)
// instances of Base at the focus.
type CreateObject struct {
	Base               BaseRef
	CountMinimum       int32
	CountRange         int32
	RelativeVelocity   bool
	RelativeDirection  bool
	RandomDistance     int32
	InheritDestination bool
}

type PlaySound struct {
	Sound    int32
	Range    int32
	Volume   int32
	Absolute bool
}

type MakeSparks struct {
	Count int32
	Speed int32
	Hue   uint8
}

// DieKind selects what happens to the focus when it dies.
type DieKind int

const (
	// DieQuietly removes the object without firing any action list.
	DieQuietly DieKind = iota
	// DieExpire removes the subject and fires its expire actions.
	DieExpire
	// DieDestroy destroys the subject and fires its destroy actions.
	DieDestroy
)

type Die struct {
	How DieKind
}

type NilTarget struct{}

type AlterHealth struct {
	Amount int32
}

type AlterEnergy struct {
	Amount int32
}

// AlterHidden reveals initial objects First through First+Count-1.
type AlterHidden struct {
	First int
	Count int
}

type AlterCloak struct{}

// AlterVelocity sets, or adds when Relative, a burst of Speed along the
// focus heading.
type AlterVelocity struct {
	Speed    Fixed
	Relative bool
}

// AlterOwner hands the focus to Player, or to the other party's owner when
// Relative.
type AlterOwner struct {
	Player   PlayerRef
	Relative bool
}

// ArmConditions re-arms (Armed) or disarms scenario conditions in the range.
type ArmConditions struct {
	First int
	Count int
	Armed bool
}

// AlterCash pays Amount to Player, or to the focus owner when Relative.
type AlterCash struct {
	Amount   int64
	Player   PlayerRef
	Relative bool
}

type AlterAge struct {
	Minimum  int64
	Range    int32
	Relative bool
}

// AlterLocation moves the focus to a random point within Range of the
// origin: the subject when Relative, the scenario origin otherwise.
type AlterLocation struct {
	Range    int32
	Relative bool
}

type AlterWeapon struct {
	Slot WeaponSlot
	Base BaseRef
}

type ChangeScore struct {
	Player PlayerRef
	Which  int
	Amount int64
}

type DeclareWinner struct {
	Player    PlayerRef
	NextLevel int
	Text      string
}

type DisplayMessage struct {
	ID    int
	Pages int
}

type SetDestination struct{}

type ActivateWeapon struct {
	Slot WeaponSlot
}

type ColorFlash struct {
	Length int32
	Color  uint8
	Shade  uint8
}

type EnableKeys struct {
	Mask uint32
}

type DisableKeys struct {
	Mask uint32
}

func (NoAction) Kind() VerbKind       { return VerbNoAction }
func (CreateObject) Kind() VerbKind   { return VerbCreateObject }
func (PlaySound) Kind() VerbKind      { return VerbPlaySound }
func (MakeSparks) Kind() VerbKind     { return VerbMakeSparks }
func (Die) Kind() VerbKind            { return VerbDie }
func (NilTarget) Kind() VerbKind      { return VerbNilTarget }
func (AlterHealth) Kind() VerbKind    { return VerbAlterHealth }
func (AlterEnergy) Kind() VerbKind    { return VerbAlterEnergy }
func (AlterHidden) Kind() VerbKind    { return VerbAlterHidden }
func (AlterCloak) Kind() VerbKind     { return VerbAlterCloak }
func (AlterVelocity) Kind() VerbKind  { return VerbAlterVelocity }
func (AlterOwner) Kind() VerbKind     { return VerbAlterOwner }
func (ArmConditions) Kind() VerbKind  { return VerbArmConditions }
func (AlterCash) Kind() VerbKind      { return VerbAlterCash }
func (AlterAge) Kind() VerbKind       { return VerbAlterAge }
func (AlterLocation) Kind() VerbKind  { return VerbAlterLocation }
func (AlterWeapon) Kind() VerbKind    { return VerbAlterWeapon }
func (ChangeScore) Kind() VerbKind    { return VerbChangeScore }
func (DeclareWinner) Kind() VerbKind  { return VerbDeclareWinner }
func (DisplayMessage) Kind() VerbKind { return VerbDisplayMessage }
func (SetDestination) Kind() VerbKind { return VerbSetDestination }
func (ActivateWeapon) Kind() VerbKind { return VerbActivateWeapon }
func (ColorFlash) Kind() VerbKind     { return VerbColorFlash }
func (EnableKeys) Kind() VerbKind     { return VerbEnableKeys }
func (DisableKeys) Kind() VerbKind    { return VerbDisableKeys }

func (NoAction) verb()       {}
func (CreateObject) verb()   {}
func (PlaySound) verb()      {}
func (MakeSparks) verb()     {}
func (Die) verb()            {}
func (NilTarget) verb()      {}
func (AlterHealth) verb()    {}
func (AlterEnergy) verb()    {}
func (AlterHidden) verb()    {}
func (AlterCloak) verb()     {}
func (AlterVelocity) verb()  {}
func (AlterOwner) verb()     {}
func (ArmConditions) verb()  {}
func (AlterCash) verb()      {}
func (AlterAge) verb()       {}
func (AlterLocation) verb()  {}
func (AlterWeapon) verb()    {}
func (ChangeScore) verb()    {}
func (DeclareWinner) verb()  {}
func (DisplayMessage) verb() {}
func (SetDestination) verb() {}
func (ActivateWeapon) verb() {}
func (ColorFlash) verb()     {}
func (EnableKeys) verb()     {}
func (DisableKeys) verb()    {}
