package model

import "fmt"

// Op is a comparison operator used by predicates.
type Op int

const (
	OpEQ Op = iota
	OpNE
	OpLT
	OpGT
	OpLE
	OpGE
)

// Compare evaluates a <op> b.
func (o Op) Compare(a, b int64) bool {
	switch o {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpGT:
		return a > b
	case OpLE:
		return a <= b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

// ParseOp accepts the symbolic and mnemonic spellings used in scenario files.
func ParseOp(s string) (Op, error) {
	switch s {
	case "==", "eq", "":
		return OpEQ, nil
	case "!=", "ne":
		return OpNE, nil
	case "<", "lt":
		return OpLT, nil
	case ">", "gt":
		return OpGT, nil
	case "<=", "le":
		return OpLE, nil
	case ">=", "ge":
		return OpGE, nil
	default:
		return 0, fmt.Errorf("unknown comparison %q", s)
	}
}

// Predicate is the closed set of scenario condition tests.
type Predicate interface {
	predicate()
}

// Score compares one of an admiral's score counters.
type Score struct {
	Player PlayerRef
	Which  int
	Op     Op
	Value  int64
}

// Owner holds when the condition subject belongs to Player.
type Owner struct {
	Player PlayerRef
}

// Destroyed holds once the named initial object no longer exists.
type Destroyed struct {
	Initial InitialRef
}

// Time compares elapsed game units.
type Time struct {
	Op    Op
	Units int64
}

// Health compares the subject's health as a percentage of its maximum.
// A missing subject counts as zero health.
type Health struct {
	Op      Op
	Percent int64
}

// Ships compares the number of ships an admiral still owns.
type Ships struct {
	Player PlayerRef
	Op     Op
	Value  int64
}

// Cash compares an admiral's balance.
type Cash struct {
	Player PlayerRef
	Op     Op
	Value  int64
}

// Distance compares the squared distance between subject and direct object.
type Distance struct {
	Op      Op
	Squared int64
}

// Identity holds when the subject is the local player's flagship.
type Identity struct{}

// Control holds when the subject is the local player's control object.
type Control struct{}

// Target holds when the direct object is the subject's destination.
type Target struct{}

// Speed compares the larger velocity component of the subject.
type Speed struct {
	Op    Op
	Value Fixed
}

// Message holds while message ID is on screen.
type Message struct {
	ID int
}

func (Score) predicate()     {}
func (Owner) predicate()     {}
func (Destroyed) predicate() {}
func (Time) predicate()      {}
func (Health) predicate()    {}
func (Ships) predicate()     {}
func (Cash) predicate()      {}
func (Distance) predicate()  {}
func (Identity) predicate()  {}
func (Control) predicate()   {}
func (Target) predicate()    {}
func (Speed) predicate()     {}
func (Message) predicate()   {}

// Condition is a scenario trigger: a predicate plus the actions it fires.
type Condition struct {
	Name      string
	Predicate Predicate
	Subject   InitialRef
	Direct    InitialRef
	Actions   ActionRange
	// Persistent conditions fire on every pass the predicate holds.
	Persistent bool
	// Disabled conditions start unarmed and only fire once re-armed.
	Disabled bool
}
