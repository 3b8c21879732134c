package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerRefKind selects how a PlayerRef resolves to an admiral.
type PlayerRefKind int

const (
	// PlayerIndex names an admiral by table index.
	PlayerIndex PlayerRefKind = iota
	// PlayerYou is the local human player's admiral (legacy -1).
	PlayerYou
	// PlayerFirstNotYou is the lowest-indexed admiral that is not the local
	// player (legacy -2).
	PlayerFirstNotYou
	// PlayerFocusOwner is the owner of the action's focus object.
	PlayerFocusOwner
	// PlayerNone never resolves.
	PlayerNone
)

// PlayerRef is a symbolic admiral reference resolved at execution time.
type PlayerRef struct {
	Kind  PlayerRefKind
	Index int
}

// Player references admiral i directly.
func Player(i int) PlayerRef { return PlayerRef{Kind: PlayerIndex, Index: i} }

// You references the local player.
func You() PlayerRef { return PlayerRef{Kind: PlayerYou} }

// FirstNotYou references the first admiral other than the local player.
func FirstNotYou() PlayerRef { return PlayerRef{Kind: PlayerFirstNotYou} }

// FocusOwner references the owner of the focus object.
func FocusOwner() PlayerRef { return PlayerRef{Kind: PlayerFocusOwner} }

// ParsePlayerRef maps legacy scenario integers onto PlayerRef.
// Non-negative values are indices, -1 is the local player and -2 the first
// other admiral. Anything else never resolves.
func ParsePlayerRef(raw int) PlayerRef {
	switch {
	case raw >= 0:
		return Player(raw)
	case raw == -1:
		return You()
	case raw == -2:
		return FirstNotYou()
	default:
		return PlayerRef{Kind: PlayerNone}
	}
}

// ParsePlayerName accepts either a legacy integer or one of the symbolic
// names "you", "first-not-you", "focus-owner" and "none".
func ParsePlayerName(s string) (PlayerRef, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "you", "player":
		return You(), nil
	case "first-not-you", "enemy":
		return FirstNotYou(), nil
	case "focus-owner", "owner", "":
		return FocusOwner(), nil
	case "none":
		return PlayerRef{Kind: PlayerNone}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return PlayerRef{}, fmt.Errorf("unknown player reference %q", s)
	}
	return ParsePlayerRef(n), nil
}

func (r PlayerRef) String() string {
	switch r.Kind {
	case PlayerIndex:
		return strconv.Itoa(r.Index)
	case PlayerYou:
		return "you"
	case PlayerFirstNotYou:
		return "first-not-you"
	case PlayerFocusOwner:
		return "focus-owner"
	default:
		return "none"
	}
}
