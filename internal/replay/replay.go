// Package replay stores recorded key streams so a session can be played
// back bit for bit.
package replay

import (
	"errors"
	"fmt"
)

// ItemKind selects what a replay item does.
type ItemKind uint8

const (
	// ItemWait lets Value decision cycles pass with the current keys held.
	ItemWait ItemKind = iota + 1
	// ItemKeyDown presses the key with index Value.
	ItemKeyDown
	// ItemKeyUp releases the key with index Value.
	ItemKeyUp
)

func (k ItemKind) String() string {
	switch k {
	case ItemWait:
		return "wait"
	case ItemKeyDown:
		return "key-down"
	case ItemKeyUp:
		return "key-up"
	default:
		return fmt.Sprintf("item(%d)", uint8(k))
	}
}

// MaxKey is the highest key index a replay may press.
const MaxKey = 31

// ErrBadItem is returned for items that cannot be applied.
var ErrBadItem = errors.New("replay: bad item")

// Item is one step of a recorded key stream.
type Item struct {
	Kind  ItemKind
	Value uint64
}

// Data is a complete recording: the scenario and seed it was taken from and
// the key stream.
type Data struct {
	ScenarioID int
	Seed       uint32
	Items      []Item
}

// Validate checks every item.
func (d *Data) Validate() error {
	for i, it := range d.Items {
		switch it.Kind {
		case ItemWait:
		case ItemKeyDown, ItemKeyUp:
			if it.Value > MaxKey {
				return fmt.Errorf("item %d: key %d: %w", i, it.Value, ErrBadItem)
			}
		default:
			return fmt.Errorf("item %d: kind %d: %w", i, it.Kind, ErrBadItem)
		}
	}
	return nil
}

// Cycles returns the number of decision cycles the stream covers.
func (d *Data) Cycles() uint64 {
	var n uint64
	for _, it := range d.Items {
		if it.Kind == ItemWait {
			n += it.Value
		}
	}
	return n
}

// Builder accumulates a recording one decision cycle at a time.
type Builder struct {
	data    Data
	current uint32
}

// NewBuilder starts a recording for scenario id with seed.
func NewBuilder(scenarioID int, seed uint32) *Builder {
	return &Builder{data: Data{ScenarioID: scenarioID, Seed: seed}}
}

// Cycle records the keys held during one decision cycle. Only the keys that
// changed are written; consecutive waits are merged.
func (b *Builder) Cycle(keys uint32) {
	changed := keys ^ b.current
	for k := 0; k <= MaxKey; k++ {
		bit := uint32(1) << k
		if changed&bit == 0 {
			continue
		}
		kind := ItemKeyUp
		if keys&bit != 0 {
			kind = ItemKeyDown
		}
		b.data.Items = append(b.data.Items, Item{Kind: kind, Value: uint64(k)})
	}
	b.current = keys

	if n := len(b.data.Items); n > 0 && b.data.Items[n-1].Kind == ItemWait {
		b.data.Items[n-1].Value++
		return
	}
	b.data.Items = append(b.data.Items, Item{Kind: ItemWait, Value: 1})
}

// Data returns a copy of the recording so far.
func (b *Builder) Data() *Data {
	out := b.data
	out.Items = append([]Item(nil), b.data.Items...)
	return &out
}
