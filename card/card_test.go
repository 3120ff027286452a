package card

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeck_Has32UniqueCards(t *testing.T) {
	deck := Deck()
	require.Len(t, deck, DeckSize)

	seen := make(map[Card]struct{}, len(deck))
	for _, c := range deck {
		require.True(t, c.Valid(), "card %v should be valid", c)
		_, dup := seen[c]
		require.False(t, dup, "duplicate card %v", c)
		seen[c] = struct{}{}
	}
	assert.Equal(t, 8, CardList(deck).CountSuit(SuitD))
}

func TestModifierCardsAreFixed(t *testing.T) {
	assert.True(t, MustParse("A0").IsBonusZero())
	assert.True(t, MustParse("D0").IsPenaltyZero())
	assert.False(t, MustParse("B0").IsModifier())
	assert.False(t, MustParse("A1").IsModifier())
	assert.Equal(t, SuitA, BonusZero.Suit())
	assert.Equal(t, 0, PenaltyZero.Rank())
}

func TestParse(t *testing.T) {
	c, err := Parse("c5")
	require.NoError(t, err)
	assert.Equal(t, CardC5, c)
	assert.Equal(t, "C5", c.String())

	for _, bad := range []string{"", "E1", "A8", "A", "A10", "9A"} {
		_, err := Parse(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNew_RejectsOutOfRange(t *testing.T) {
	assert.Equal(t, CardInvalid, New(SuitA, 8))
	assert.Equal(t, CardInvalid, New(SuitNone, 1))
	assert.Equal(t, -1, CardInvalid.Rank())
	assert.False(t, CardRear.Valid())
}

func TestCardList_Remove(t *testing.T) {
	hand := CardList{CardA1, CardB2, CardC3}
	assert.True(t, hand.Remove(CardB2))
	assert.False(t, hand.Remove(CardB2))
	assert.Equal(t, CardList{CardA1, CardC3}, hand)
}

func TestCardList_ShuffleIsSeeded(t *testing.T) {
	a := CardList(Deck())
	b := CardList(Deck())
	a.Shuffle(rand.New(rand.NewSource(7)))
	b.Shuffle(rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestCardJSON_UsesText(t *testing.T) {
	raw, err := json.Marshal([]Card{CardA0, CardD7})
	require.NoError(t, err)
	assert.JSONEq(t, `["A0","D7"]`, string(raw))

	var back []Card
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, []Card{CardA0, CardD7}, back)
}

func TestBytes2cards(t *testing.T) {
	cards, err := Bytes2cards(Cards2bytes([]Card{CardB3, CardC0}))
	require.NoError(t, err)
	assert.Equal(t, []Card{CardB3, CardC0}, cards)

	_, err = Bytes2cards([]byte{0x48})
	assert.Error(t, err)
}
