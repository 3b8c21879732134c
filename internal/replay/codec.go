package replay

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Wire layout, protobuf encoding:
//
//	message Replay {
//	  uint64  scenario_id = 1;
//	  fixed32 seed        = 2;
//	  repeated Item items = 3;
//	}
//	message Item {
//	  oneof step {
//	    uint64 wait     = 1;
//	    uint64 key_down = 2;
//	    uint64 key_up   = 3;
//	  }
//	}
const (
	fieldScenarioID protowire.Number = 1
	fieldSeed       protowire.Number = 2
	fieldItem       protowire.Number = 3
)

// Marshal encodes d.
func Marshal(d *Data) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	var b []byte
	b = protowire.AppendTag(b, fieldScenarioID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(d.ScenarioID))
	b = protowire.AppendTag(b, fieldSeed, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, d.Seed)
	for _, it := range d.Items {
		var item []byte
		item = protowire.AppendTag(item, protowire.Number(it.Kind), protowire.VarintType)
		item = protowire.AppendVarint(item, it.Value)
		b = protowire.AppendTag(b, fieldItem, protowire.BytesType)
		b = protowire.AppendBytes(b, item)
	}
	return b, nil
}

// Unmarshal decodes a recording. Unknown top-level fields are skipped.
func Unmarshal(b []byte) (*Data, error) {
	d := &Data{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("replay: tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldScenarioID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("replay: scenario id: %w", protowire.ParseError(n))
			}
			d.ScenarioID = int(v)
			b = b[n:]
		case num == fieldSeed && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return nil, fmt.Errorf("replay: seed: %w", protowire.ParseError(n))
			}
			d.Seed = v
			b = b[n:]
		case num == fieldItem && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("replay: item: %w", protowire.ParseError(n))
			}
			it, err := unmarshalItem(raw)
			if err != nil {
				return nil, fmt.Errorf("replay: item %d: %w", len(d.Items), err)
			}
			d.Items = append(d.Items, it)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("replay: field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func unmarshalItem(b []byte) (Item, error) {
	var it Item
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Item{}, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.VarintType || num < protowire.Number(ItemWait) || num > protowire.Number(ItemKeyUp) {
			return Item{}, fmt.Errorf("field %d: %w", num, ErrBadItem)
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return Item{}, protowire.ParseError(n)
		}
		b = b[n:]
		it = Item{Kind: ItemKind(num), Value: v}
	}
	if it.Kind == 0 {
		return Item{}, ErrBadItem
	}
	return it, nil
}
