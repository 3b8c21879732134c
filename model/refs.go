package model

// BaseRef points at a BaseObject template. The zero value refers to no
// template, so template literals stay valid without sentinel bookkeeping.
type BaseRef int

// NoBase is the empty template reference.
const NoBase BaseRef = 0

// Base returns a reference to template index i.
func Base(i int) BaseRef { return BaseRef(i + 1) }

// Index reports the referenced template index.
func (r BaseRef) Index() (int, bool) {
	if r <= 0 {
		return 0, false
	}
	return int(r) - 1, true
}

// InitialRef points at a scenario initial object. The zero value is unset.
type InitialRef int

// NoInitial is the empty initial-object reference.
const NoInitial InitialRef = 0

// Initial returns a reference to initial object i.
func Initial(i int) InitialRef { return InitialRef(i + 1) }

// Index reports the referenced initial-object index.
func (r InitialRef) Index() (int, bool) {
	if r <= 0 {
		return 0, false
	}
	return int(r) - 1, true
}

// ActionRange is a contiguous slice of the scenario's action table.
type ActionRange struct {
	First int
	Count int
}

// Empty reports whether the range names no actions.
func (r ActionRange) Empty() bool { return r.Count <= 0 }

// Tail returns the suffix of r starting at offset i.
func (r ActionRange) Tail(i int) ActionRange {
	if i >= r.Count {
		return ActionRange{First: r.First + r.Count}
	}
	return ActionRange{First: r.First + i, Count: r.Count - i}
}
