package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

const (
	MinPlayers = 2
	MaxPlayers = 11
)

// nameSuffixPattern matches the generated uniqueness suffix at the end of a
// full game name: _<unix seconds>_<8 hex chars>
var nameSuffixPattern = regexp.MustCompile(`(_\d+_[a-f0-9]{8})$`)

// SlotKind classifies how a player slot resolved
type SlotKind string

const (
	// SlotCurrent is the first slot, always bound to the game creator
	SlotCurrent SlotKind = "current"
	// SlotRegistered is an email matching a known verified user
	SlotRegistered SlotKind = "registered"
	// SlotNew is an email with no matching account
	SlotNew SlotKind = "new"
	// SlotGuest is a plain display name without an account
	SlotGuest SlotKind = "guest"
)

// SlotInput is one player entry as submitted by the client. Value is either
// an email address or a guest display name; Name carries the display name
// required when Value is an email without a matching account.
type SlotInput struct {
	Number int    `json:"number"`
	Value  string `json:"value"`
	Name   string `json:"name,omitempty"`
}

// Slot is a resolved player entry after validation
type Slot struct {
	Number   int      `json:"number"`
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Kind     SlotKind `json:"kind"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// DraftInput is a whole game draft as submitted by the client
type DraftInput struct {
	NamePrefix string      `json:"name_prefix"`
	Slots      []SlotInput `json:"slots"`
}

// Draft is the validated, normalized game draft
type Draft struct {
	Name           string `json:"name"`
	NamePrefix     string `json:"name_prefix"`
	Slots          []Slot `json:"slots"`
	CardsPerPlayer int    `json:"cards_per_player"`
	Valid          bool   `json:"valid"`
}

// GenerateNameSuffix produces the uniqueness suffix appended to the
// user-entered game name prefix.
func GenerateNameSuffix() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("_%d_%s", time.Now().Unix(), hex.EncodeToString(b)), nil
}

// SplitGameName splits a full game name into the user-entered prefix and the
// generated suffix. The second return is empty when no suffix is present.
func SplitGameName(name string) (prefix, suffix string) {
	loc := nameSuffixPattern.FindStringIndex(name)
	if loc == nil {
		return name, ""
	}
	return name[:loc[0]], name[loc[0]:]
}

// CardsPerPlayer returns the hand size for a given player count: 9 cards for
// 2-6 players, 7 cards for 7-11. Zero for counts outside the playable range.
func CardsPerPlayer(playerCount int) int {
	switch {
	case playerCount >= MinPlayers && playerCount <= 6:
		return 9
	case playerCount >= 7 && playerCount <= MaxPlayers:
		return 7
	default:
		return 0
	}
}
