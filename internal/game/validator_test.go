package game

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorSuite struct {
	suite.Suite
	creator KnownPlayer
	known   []KnownPlayer
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.creator = KnownPlayer{Name: "Ana", Email: "ana@example.com"}
	s.known = []KnownPlayer{
		{Name: "Ben", Email: "ben@example.com"},
		{Name: "Carla", Email: "carla@example.com"},
	}
}

func (s *ValidatorSuite) validate(prefix string, slots ...SlotInput) Draft {
	// Slot 1 is the creator; tests pass the remaining slots
	all := append([]SlotInput{{}}, slots...)
	return Validate(DraftInput{NamePrefix: prefix, Slots: all}, s.creator, s.known)
}

func (s *ValidatorSuite) TestFirstSlotBoundToCreator() {
	draft := s.validate("Runde", SlotInput{Value: "ben@example.com"})

	s.Require().Len(draft.Slots, 2)
	first := draft.Slots[0]
	s.Equal(SlotCurrent, first.Kind)
	s.Equal("Ana", first.Name)
	s.Equal("ana@example.com", first.Email)
	s.Empty(first.Errors)
}

func (s *ValidatorSuite) TestFirstSlotRejectsOtherPlayer() {
	draft := Validate(DraftInput{
		NamePrefix: "Runde",
		Slots:      []SlotInput{{Value: "ben@example.com"}, {Value: "carla@example.com"}},
	}, s.creator, s.known)

	s.NotEmpty(draft.Slots[0].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestRegisteredEmailResolvesName() {
	draft := s.validate("Runde", SlotInput{Value: "Ben@Example.com"})

	slot := draft.Slots[1]
	s.Equal(SlotRegistered, slot.Kind)
	s.Equal("Ben", slot.Name)
	s.Equal("ben@example.com", slot.Email)
	s.Empty(slot.Errors)
	s.True(draft.Valid)
}

func (s *ValidatorSuite) TestUnknownEmailNeedsDisplayName() {
	draft := s.validate("Runde", SlotInput{Value: "dora@example.com"})

	slot := draft.Slots[1]
	s.Equal(SlotNew, slot.Kind)
	s.NotEmpty(slot.Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestUnknownEmailWithDisplayName() {
	draft := s.validate("Runde", SlotInput{Value: "dora@example.com", Name: "Dora"})

	slot := draft.Slots[1]
	s.Equal(SlotNew, slot.Kind)
	s.Equal("Dora", slot.Name)
	s.Empty(slot.Errors)
	s.True(draft.Valid)
}

func (s *ValidatorSuite) TestDuplicateEmailsAcrossSlots() {
	draft := s.validate("Runde",
		SlotInput{Value: "ben@example.com"},
		SlotInput{Value: "BEN@example.com"},
	)

	s.NotEmpty(draft.Slots[1].Errors)
	s.NotEmpty(draft.Slots[2].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestCreatorEmailInLaterSlot() {
	draft := s.validate("Runde", SlotInput{Value: "ana@example.com"})

	s.NotEmpty(draft.Slots[1].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestGuestName() {
	draft := s.validate("Runde", SlotInput{Value: "Opa Heinz"})

	slot := draft.Slots[1]
	s.Equal(SlotGuest, slot.Kind)
	s.Equal("Opa Heinz", slot.Name)
	s.Empty(slot.Email)
	s.Empty(slot.Errors)
	s.True(draft.Valid)
}

func (s *ValidatorSuite) TestDuplicateGuestNamesCaseInsensitive() {
	draft := s.validate("Runde",
		SlotInput{Value: "Heinz"},
		SlotInput{Value: "heinz"},
	)

	s.NotEmpty(draft.Slots[1].Errors)
	s.NotEmpty(draft.Slots[2].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestGuestNameOverlapWithResolvedNameIsWarningOnly() {
	draft := s.validate("Runde",
		SlotInput{Value: "ben@example.com"},
		SlotInput{Value: "Ben"},
	)

	guest := draft.Slots[2]
	s.Empty(guest.Errors)
	s.NotEmpty(guest.Warnings)
	// Warnings do not block submission
	s.True(draft.Valid)
}

func (s *ValidatorSuite) TestEmptySlotIsAnError() {
	draft := s.validate("Runde", SlotInput{Value: "  "})

	s.NotEmpty(draft.Slots[1].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestEmptyNamePrefixBlocksSubmission() {
	draft := s.validate("", SlotInput{Value: "Heinz"})

	s.Empty(draft.Slots[1].Errors)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestPlayerCountBounds() {
	// A single slot (just the creator) is below the minimum
	draft := Validate(DraftInput{NamePrefix: "Runde", Slots: []SlotInput{{}}}, s.creator, s.known)
	s.False(draft.Valid)

	// Twelve slots exceed the maximum
	slots := make([]SlotInput, 12)
	for i := 1; i < 12; i++ {
		slots[i] = SlotInput{Value: "Gast " + string(rune('A'+i))}
	}
	draft = Validate(DraftInput{NamePrefix: "Runde", Slots: slots}, s.creator, s.known)
	s.False(draft.Valid)
}

func (s *ValidatorSuite) TestCardsPerPlayerFollowsCount() {
	draft := s.validate("Runde",
		SlotInput{Value: "Heinz"},
		SlotInput{Value: "Ben"},
	)
	s.Equal(9, draft.CardsPerPlayer)

	slots := []SlotInput{
		{Value: "Gast1"}, {Value: "Gast2"}, {Value: "Gast3"},
		{Value: "Gast4"}, {Value: "Gast5"}, {Value: "Gast6"},
	}
	draft = s.validate("Runde", slots...)
	s.Equal(7, draft.CardsPerPlayer)
	s.True(draft.Valid)
}

func (s *ValidatorSuite) TestValidationIsPure() {
	input := DraftInput{
		NamePrefix: "Runde",
		Slots:      []SlotInput{{}, {Value: "ben@example.com"}, {Value: "Heinz"}},
	}

	first := Validate(input, s.creator, s.known)
	second := Validate(input, s.creator, s.known)
	s.Equal(first, second)
}
