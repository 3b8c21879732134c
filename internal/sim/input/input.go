// Package input supplies one set of held keys per decision cycle, either
// from a live reader or from a recorded replay.
package input

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/fleetsim/internal/replay"
)

// KeyBits is the set of keys held during one decision cycle.
type KeyBits uint32

const (
	KeyThrust KeyBits = 1 << iota
	KeyReverse
	KeyLeft
	KeyRight
	KeyPulse
	KeyBeam
	KeySpecial
	KeyWarp
	KeySelectTarget
	KeyPause
)

// Has reports whether every key in mask is held.
func (k KeyBits) Has(mask KeyBits) bool { return k&mask == mask }

var keyNames = map[string]KeyBits{
	"thrust":        KeyThrust,
	"reverse":       KeyReverse,
	"left":          KeyLeft,
	"right":         KeyRight,
	"pulse":         KeyPulse,
	"beam":          KeyBeam,
	"special":       KeySpecial,
	"warp":          KeyWarp,
	"select-target": KeySelectTarget,
	"pause":         KeyPause,
}

// ParseKeys folds key names into a mask.
func ParseKeys(names []string) (KeyBits, error) {
	var out KeyBits
	for _, n := range names {
		k, ok := keyNames[n]
		if !ok {
			return 0, fmt.Errorf("unknown key %q", n)
		}
		out |= k
	}
	return out, nil
}

// Source yields one KeyBits per decision cycle. ok is false once the source
// is exhausted.
type Source interface {
	Next() (keys KeyBits, ok bool)
}

// KeyReader samples the keys currently held by the host.
type KeyReader interface {
	Keys() KeyBits
}

// KeyReaderFunc adapts a function to KeyReader.
type KeyReaderFunc func() KeyBits

func (f KeyReaderFunc) Keys() KeyBits { return f() }

// Live reads the host's keys every cycle and never runs out.
type Live struct {
	reader KeyReader
}

// NewLive wraps r. A nil reader holds no keys.
func NewLive(r KeyReader) *Live {
	if r == nil {
		r = KeyReaderFunc(func() KeyBits { return 0 })
	}
	return &Live{reader: r}
}

func (l *Live) Next() (KeyBits, bool) { return l.reader.Keys(), true }

// Held is a KeyReader that host goroutines may update while the session
// reads it.
type Held struct {
	mu   sync.Mutex
	keys KeyBits
}

// Press holds mask.
func (h *Held) Press(mask KeyBits) {
	h.mu.Lock()
	h.keys |= mask
	h.mu.Unlock()
}

// Release lets go of mask.
func (h *Held) Release(mask KeyBits) {
	h.mu.Lock()
	h.keys &^= mask
	h.mu.Unlock()
}

func (h *Held) Keys() KeyBits {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.keys
}

// Replay plays back a recording. Each wait item covers that many cycles
// with the keys held at that point.
type Replay struct {
	items []replay.Item
	pos   int
	wait  uint64
	keys  KeyBits
}

// NewReplay plays back d from the start.
func NewReplay(d *replay.Data) *Replay {
	r := &Replay{}
	if d != nil {
		r.items = d.Items
	}
	return r
}

func (r *Replay) Next() (KeyBits, bool) {
	if r.wait == 0 && !r.advance() {
		return 0, false
	}
	r.wait--
	return r.keys, true
}

// advance applies key items up to and including the next wait.
func (r *Replay) advance() bool {
	for r.pos < len(r.items) {
		it := r.items[r.pos]
		r.pos++
		switch it.Kind {
		case replay.ItemKeyDown:
			r.keys |= 1 << it.Value
		case replay.ItemKeyUp:
			r.keys &^= 1 << it.Value
		case replay.ItemWait:
			r.wait += it.Value
			if r.wait > 0 {
				return true
			}
		}
	}
	return false
}

// Recorder passes keys through from another source and records them.
type Recorder struct {
	src     Source
	builder *replay.Builder
}

// NewRecorder records src into b.
func NewRecorder(src Source, b *replay.Builder) *Recorder {
	return &Recorder{src: src, builder: b}
}

func (r *Recorder) Next() (KeyBits, bool) {
	keys, ok := r.src.Next()
	if ok {
		r.builder.Cycle(uint32(keys))
	}
	return keys, ok
}

// Recording returns the recording taken so far.
func (r *Recorder) Recording() *replay.Data { return r.builder.Data() }
