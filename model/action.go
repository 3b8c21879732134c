package model

// OwnerFilter restricts a non-reflexive action by comparing the owners of
// its subject and direct object.
type OwnerFilter int

const (
	OwnerAny       OwnerFilter = 0
	OwnerSame      OwnerFilter = 1
	OwnerDifferent OwnerFilter = -1
)

// LevelKeyTagFilter in ExclusiveFilter switches matching from attributes to
// the level key tag.
const LevelKeyTagFilter uint32 = 0xffffffff

// Action is one immutable, data-defined instruction.
type Action struct {
	Verb      Verb
	Reflexive bool
	// Delay in units. When positive the action and every action after it in
	// the same list are deferred to the pending queue.
	Delay int64

	InclusiveFilter uint32
	ExclusiveFilter uint32
	LevelKeyTag     uint32
	OwnerFilter     OwnerFilter

	SubjectOverride InitialRef
	DirectOverride  InitialRef
}

// Filtered reports whether the action carries an attribute or tag filter.
func (a *Action) Filtered() bool { return a.InclusiveFilter != 0 || a.ExclusiveFilter != 0 }

// Matches applies the attribute or level key tag filter to an object.
func (a *Action) Matches(attrs Attributes, levelKeyTag uint32) bool {
	if a.ExclusiveFilter == LevelKeyTagFilter {
		return a.LevelKeyTag == levelKeyTag
	}
	return uint32(attrs)&a.InclusiveFilter == a.InclusiveFilter
}

// OwnersPass applies the owner filter.
func (a *Action) OwnersPass(subjectOwner, directOwner int) bool {
	switch a.OwnerFilter {
	case OwnerAny:
		return true
	case OwnerSame:
		return subjectOwner == directOwner
	case OwnerDifferent:
		return subjectOwner != directOwner
	default:
		return false
	}
}
