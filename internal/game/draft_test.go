package game

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNameSuffixShape(t *testing.T) {
	suffix, err := GenerateNameSuffix()
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^_\d+_[a-f0-9]{8}$`), suffix)
}

func TestGenerateNameSuffixIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		suffix, err := GenerateNameSuffix()
		require.NoError(t, err)
		assert.False(t, seen[suffix])
		seen[suffix] = true
	}
}

func TestSplitGameName(t *testing.T) {
	prefix, suffix := SplitGameName("Freitagsrunde_1724800000_deadbeef")
	assert.Equal(t, "Freitagsrunde", prefix)
	assert.Equal(t, "_1724800000_deadbeef", suffix)
}

func TestSplitGameNameWithoutSuffix(t *testing.T) {
	prefix, suffix := SplitGameName("Freitagsrunde")
	assert.Equal(t, "Freitagsrunde", prefix)
	assert.Empty(t, suffix)

	// Uppercase hex is not a generated suffix
	prefix, suffix = SplitGameName("Runde_1724800000_DEADBEEF")
	assert.Equal(t, "Runde_1724800000_DEADBEEF", prefix)
	assert.Empty(t, suffix)
}

func TestSplitGameNameRoundtrip(t *testing.T) {
	suffix, err := GenerateNameSuffix()
	require.NoError(t, err)

	gotPrefix, gotSuffix := SplitGameName("Skatabend" + suffix)
	assert.Equal(t, "Skatabend", gotPrefix)
	assert.Equal(t, suffix, gotSuffix)
}

func TestCardsPerPlayer(t *testing.T) {
	cases := map[int]int{
		1:  0,
		2:  9,
		4:  9,
		6:  9,
		7:  7,
		9:  7,
		11: 7,
		12: 0,
	}

	for players, cards := range cases {
		assert.Equal(t, cards, CardsPerPlayer(players), "players=%d", players)
	}
}
