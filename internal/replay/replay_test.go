package replay

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestBuilderRecordsDeltasAndMergesWaits(t *testing.T) {
	b := NewBuilder(3, 99)
	b.Cycle(0)
	b.Cycle(0)
	b.Cycle(0b101)
	b.Cycle(0b100)

	want := []Item{
		{Kind: ItemWait, Value: 2},
		{Kind: ItemKeyDown, Value: 0},
		{Kind: ItemKeyDown, Value: 2},
		{Kind: ItemWait, Value: 1},
		{Kind: ItemKeyUp, Value: 0},
		{Kind: ItemWait, Value: 1},
	}
	got := b.Data()
	if got.ScenarioID != 3 || got.Seed != 99 {
		t.Fatalf("header = %d/%d", got.ScenarioID, got.Seed)
	}
	if len(got.Items) != len(want) {
		t.Fatalf("items = %+v, want %+v", got.Items, want)
	}
	for i := range want {
		if got.Items[i] != want[i] {
			t.Fatalf("item %d = %+v, want %+v", i, got.Items[i], want[i])
		}
	}
	if got.Cycles() != 4 {
		t.Fatalf("Cycles = %d, want 4", got.Cycles())
	}
}

func TestBuilderDataIsACopy(t *testing.T) {
	b := NewBuilder(1, 1)
	b.Cycle(1)
	d := b.Data()
	b.Cycle(1)
	if d.Cycles() != 1 {
		t.Fatalf("snapshot changed after further recording: %d cycles", d.Cycles())
	}
}

func TestCodecRoundTripPreservesStream(t *testing.T) {
	b := NewBuilder(12, 0x84744901)
	for _, keys := range []uint32{0, 1, 1, 3, 0, 1 << 31} {
		b.Cycle(keys)
	}
	in := b.Data()

	raw, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.ScenarioID != in.ScenarioID || out.Seed != in.Seed || len(out.Items) != len(in.Items) {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
	for i := range in.Items {
		if out.Items[i] != in.Items[i] {
			t.Fatalf("item %d = %+v, want %+v", i, out.Items[i], in.Items[i])
		}
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	raw, err := Marshal(&Data{ScenarioID: 2, Items: []Item{{Kind: ItemWait, Value: 5}}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	raw = protowire.AppendTag(raw, 15, protowire.BytesType)
	raw = protowire.AppendString(raw, "recorded-by")

	d, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if d.ScenarioID != 2 || d.Cycles() != 5 {
		t.Fatalf("decoded %+v", d)
	}
}

func TestUnmarshalRejectsBadInput(t *testing.T) {
	var badItem []byte
	item := protowire.AppendTag(nil, 9, protowire.VarintType)
	item = protowire.AppendVarint(item, 1)
	badItem = protowire.AppendTag(badItem, fieldItem, protowire.BytesType)
	badItem = protowire.AppendBytes(badItem, item)

	var badKey []byte
	item = protowire.AppendTag(nil, protowire.Number(ItemKeyDown), protowire.VarintType)
	item = protowire.AppendVarint(item, MaxKey+1)
	badKey = protowire.AppendTag(badKey, fieldItem, protowire.BytesType)
	badKey = protowire.AppendBytes(badKey, item)

	cases := map[string][]byte{
		"truncated": {0x08},
		"bad item":  badItem,
		"bad key":   badKey,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Unmarshal(raw); err == nil {
				t.Fatalf("Unmarshal accepted %x", raw)
			}
		})
	}
	if _, err := Unmarshal(badKey); !errors.Is(err, ErrBadItem) {
		t.Fatalf("bad key error = %v, want ErrBadItem", err)
	}
}

func TestMarshalValidates(t *testing.T) {
	_, err := Marshal(&Data{Items: []Item{{Kind: 7}}})
	if !errors.Is(err, ErrBadItem) {
		t.Fatalf("Marshal error = %v, want ErrBadItem", err)
	}
}
