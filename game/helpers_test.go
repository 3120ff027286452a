package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"trickster/card"
)

// suitRound deals suit A to seat0, B to seat1, C to seat2 and D to seat3,
// each hand in ascending rank, with seat3 dealing.
func suitRound(t *testing.T) *RoundState {
	t.Helper()
	s, err := NewRoundWithDeck(1, 3, 0, [2]int{}, card.Deck())
	require.NoError(t, err)
	return s
}

func cards(t *testing.T, names ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, 0, len(names))
	for _, n := range names {
		c, err := card.Parse(n)
		require.NoError(t, err)
		out = append(out, c)
	}
	return out
}

func plays(t *testing.T, names ...string) []Play {
	t.Helper()
	cs := cards(t, names...)
	out := make([]Play, len(cs))
	for i, c := range cs {
		out[i] = Play{Seat: Seat(i), Card: c}
	}
	return out
}

func mustApply(t *testing.T, s *RoundState, a Action) (*RoundState, Outcome) {
	t.Helper()
	next, out, err := Apply(s, a)
	require.NoError(t, err, "action %s", a)
	return next, out
}

// bidRound runs one betting pass; amounts < 0 mean skip.
func bidRound(t *testing.T, s *RoundState, amounts [NumSeats]int, trump card.Suit) (*RoundState, Outcome) {
	t.Helper()
	var out Outcome
	for _, amt := range amounts {
		seat := s.OnTurn()
		if amt < 0 {
			s, out = mustApply(t, s, SkipAction(seat, s.Turn))
		} else {
			s, out = mustApply(t, s, BidAction(seat, s.Turn, amt, trump))
		}
	}
	return s, out
}

// playOut plays the first legal card for every seat until the round ends.
func playOut(t *testing.T, s *RoundState) (*RoundState, Outcome) {
	t.Helper()
	var out Outcome
	for s.Phase == PhasePlaying {
		seat := s.OnTurn()
		c := LegalPlays(s.Hands[seat], s.Trick)[0]
		s, out = mustApply(t, s, PlayAction(seat, s.Turn, c))
	}
	return s, out
}
