package game

import (
	"regexp"
	"strings"
)

// emailPattern mirrors the loose syntax check used on the entry form:
// something@something.something, no whitespace
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// KnownPlayer is a registered, verified user eligible for a player slot
type KnownPlayer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks a whole draft in one pass and returns the normalized
// result. It is a pure function: the same input always yields the same
// slots, errors and warnings, and nothing is persisted.
//
// Slot 1 is always bound to the creator. Email inputs resolve against the
// known-player list; an email with no account needs a display name. Plain
// names are guests. Duplicate emails and duplicate guest names are errors,
// a guest name colliding with another slot's resolved name is only a warning.
func Validate(input DraftInput, creator KnownPlayer, known []KnownPlayer) Draft {
	slots := make([]Slot, 0, len(input.Slots))

	byEmail := make(map[string]KnownPlayer, len(known))
	for _, p := range known {
		byEmail[strings.ToLower(p.Email)] = p
	}

	for i, in := range input.Slots {
		slot := Slot{Number: i + 1}
		value := strings.TrimSpace(in.Value)

		if i == 0 {
			slot.Kind = SlotCurrent
			slot.Name = creator.Name
			slot.Email = creator.Email
			if value != "" && !strings.EqualFold(value, creator.Email) && !strings.EqualFold(value, creator.Name) {
				slot.Errors = append(slot.Errors, "the first slot is reserved for the game creator")
			}
			slots = append(slots, slot)
			continue
		}

		switch {
		case value == "":
			slot.Kind = SlotGuest
			slot.Errors = append(slot.Errors, "player entry is required")

		case emailPattern.MatchString(value):
			email := strings.ToLower(value)
			slot.Email = email

			if strings.EqualFold(email, creator.Email) {
				slot.Kind = SlotRegistered
				slot.Name = creator.Name
				slot.Errors = append(slot.Errors, "this email is already in the game")
				break
			}

			if p, ok := byEmail[email]; ok {
				slot.Kind = SlotRegistered
				slot.Name = p.Name
			} else {
				slot.Kind = SlotNew
				slot.Name = strings.TrimSpace(in.Name)
				if slot.Name == "" {
					slot.Errors = append(slot.Errors, "a display name is required for players without an account")
				}
			}

		default:
			slot.Kind = SlotGuest
			slot.Name = value
		}

		slots = append(slots, slot)
	}

	markDuplicateEmails(slots)
	markDuplicateGuestNames(slots)
	markNameOverlaps(slots)

	valid := strings.TrimSpace(input.NamePrefix) != "" &&
		len(slots) >= MinPlayers && len(slots) <= MaxPlayers
	for _, s := range slots {
		if len(s.Errors) > 0 {
			valid = false
			break
		}
	}

	return Draft{
		NamePrefix:     input.NamePrefix,
		Slots:          slots,
		CardsPerPlayer: CardsPerPlayer(len(slots)),
		Valid:          valid,
	}
}

// markDuplicateEmails flags every slot whose email appears in more than one slot
func markDuplicateEmails(slots []Slot) {
	seen := make(map[string]int)
	for _, s := range slots {
		if s.Email != "" {
			seen[strings.ToLower(s.Email)]++
		}
	}
	for i := range slots {
		if slots[i].Email == "" || slots[i].Kind == SlotCurrent {
			continue
		}
		if seen[strings.ToLower(slots[i].Email)] > 1 {
			slots[i].Errors = append(slots[i].Errors, "this email is already in the game")
		}
	}
}

// markDuplicateGuestNames flags guest slots sharing a name, case-insensitively
func markDuplicateGuestNames(slots []Slot) {
	seen := make(map[string]int)
	for _, s := range slots {
		if s.Kind == SlotGuest && s.Name != "" {
			seen[strings.ToLower(s.Name)]++
		}
	}
	for i := range slots {
		if slots[i].Kind != SlotGuest || slots[i].Name == "" {
			continue
		}
		if seen[strings.ToLower(slots[i].Name)] > 1 {
			slots[i].Errors = append(slots[i].Errors, "this guest name is already in the game")
		}
	}
}

// markNameOverlaps warns when a guest name collides with another slot's
// resolved name. Blocking this would forbid legitimate same-name players,
// so it stays a warning.
func markNameOverlaps(slots []Slot) {
	for i := range slots {
		if slots[i].Kind != SlotGuest || slots[i].Name == "" {
			continue
		}
		for j := range slots {
			if i == j || slots[j].Kind == SlotGuest {
				continue
			}
			if strings.EqualFold(slots[i].Name, slots[j].Name) {
				slots[i].Warnings = append(slots[i].Warnings, "another player already uses this name")
				break
			}
		}
	}
}
