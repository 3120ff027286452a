package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trickster/card"
)

func TestApply_DealerMayMatchButNotUndercut(t *testing.T) {
	s := suitRound(t)
	require.Equal(t, Seat(0), s.OnTurn())

	s, _ = mustApply(t, s, BidAction(0, 0, 7, card.SuitA))
	s, _ = mustApply(t, s, BidAction(1, 1, 8, card.SuitB))
	s, _ = mustApply(t, s, BidAction(2, 2, 9, card.SuitC))
	require.Equal(t, s.Dealer, s.OnTurn())

	before := s.Clone()
	next, _, err := Apply(s, BidAction(3, 3, 8, card.SuitD))
	require.Error(t, err)
	assert.Nil(t, next)
	assert.True(t, errors.Is(err, ErrDealerUndercut))
	assert.True(t, errors.Is(err, ErrIllegalBid))
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.True(t, rej.IsRuleViolation())
	assert.Equal(t, before, s.Clone())

	next, out := mustApply(t, s, BidAction(3, 3, 9, card.SuitD))
	assert.True(t, out.BiddingDone)
	assert.Equal(t, PhasePlaying, next.Phase)
	// equal bids go to the earlier bidder
	assert.Equal(t, Seat(2), next.Bidder)
	assert.Equal(t, 9, next.Contract)
	assert.Equal(t, card.SuitC, next.Trump)
	assert.Equal(t, Seat(2), next.OnTurn())
	assert.Equal(t, Team1, next.Offense())
}

func TestApply_NonDealerMayBidBelowHighest(t *testing.T) {
	s := suitRound(t)
	s, _ = mustApply(t, s, BidAction(0, 0, 7, card.SuitA))
	s, _ = mustApply(t, s, BidAction(1, 1, 3, card.SuitB))
	s, _ = mustApply(t, s, SkipAction(2, 2))
	s, out := mustApply(t, s, SkipAction(3, 3))
	require.True(t, out.BiddingDone)
	assert.Equal(t, Seat(0), s.Bidder)
	assert.Equal(t, 7, s.Contract)
}

func TestApply_BidWithoutTrumpTakesStrongestSuit(t *testing.T) {
	s := suitRound(t)
	s, _ = bidRound(t, s, [NumSeats]int{-1, 4, -1, -1}, card.SuitNone)
	assert.Equal(t, Seat(1), s.Bidder)
	assert.Equal(t, card.SuitB, s.Trump)
}

func TestApply_IllegalBids(t *testing.T) {
	s := suitRound(t)
	for _, a := range []Action{
		BidAction(0, 0, -1, card.SuitA),
		BidAction(0, 0, 3, card.Suit(7)),
	} {
		_, _, err := Apply(s, a)
		assert.ErrorIs(t, err, ErrIllegalBid, a.String())
	}
	_, _, err := Apply(s, BidAction(0, 0, MaxBid, card.SuitA))
	assert.NoError(t, err)
}

func TestApply_UnreachableBidIsAccepted(t *testing.T) {
	s := suitRound(t)
	next, _, err := Apply(s, BidAction(0, 0, MaxBid+8, card.SuitA))
	require.NoError(t, err)
	assert.Equal(t, MaxBid+8, next.Bids[0].Amount)
}

func TestApply_ProtocolRejections(t *testing.T) {
	s := suitRound(t)

	_, _, err := Apply(s, BidAction(1, 0, 3, card.SuitA))
	assert.ErrorIs(t, err, ErrOutOfTurn)

	_, _, err = Apply(s, BidAction(0, 5, 3, card.SuitA))
	assert.ErrorIs(t, err, ErrStaleTurn)

	_, _, err = Apply(s, PlayAction(0, 0, card.MustParse("A0")))
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, _, err = Apply(s, BidAction(9, 0, 3, card.SuitA))
	assert.ErrorIs(t, err, ErrInvalidSeat)

	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.False(t, rej.IsRuleViolation())
}

func TestApply_ExactlyOncePerTurn(t *testing.T) {
	s := suitRound(t)
	a := SkipAction(0, s.Turn)
	next, _ := mustApply(t, s, a)
	assert.Equal(t, s.Turn+1, next.Turn)

	// the same submission again, and a timeout fallback for the same turn
	_, _, err := Apply(next, a)
	assert.ErrorIs(t, err, ErrStaleTurn)
	_, _, err = Apply(next, BidAction(0, s.Turn, 2, card.SuitNone))
	assert.ErrorIs(t, err, ErrStaleTurn)

	// the original state still accepts exactly one decision
	_, _, err = Apply(s, a)
	assert.NoError(t, err)
}

func TestApply_PlayRejections(t *testing.T) {
	s := suitRound(t)
	s, _ = bidRound(t, s, [NumSeats]int{5, -1, -1, -1}, card.SuitA)
	require.Equal(t, Seat(0), s.OnTurn())

	_, _, err := Apply(s, PlayAction(0, s.Turn, card.MustParse("B0")))
	assert.ErrorIs(t, err, ErrCardNotInHand)

	s, _ = mustApply(t, s, PlayAction(0, s.Turn, card.MustParse("A4")))
	_, _, err = Apply(s, BidAction(1, s.Turn, 3, card.SuitA))
	assert.ErrorIs(t, err, ErrWrongPhase)

	// seat1 holds no A so any card is legal
	s, _ = mustApply(t, s, PlayAction(1, s.Turn, card.MustParse("B6")))
	assert.Len(t, s.Trick.Plays, 2)
	assert.Equal(t, 7, len(s.Hands[1]))
}

func TestApply_MustFollowSuit(t *testing.T) {
	deck := cards(t,
		"A0", "A1", "B0", "B1", "C0", "C1", "D0", "D1",
		"A2", "A3", "B2", "B3", "C2", "C3", "D2", "D3",
		"A4", "A5", "B4", "B5", "C4", "C5", "D4", "D5",
		"A6", "A7", "B6", "B7", "C6", "C7", "D6", "D7",
	)
	s, err := NewRoundWithDeck(1, 3, 0, [2]int{}, deck)
	require.NoError(t, err)
	s, _ = bidRound(t, s, [NumSeats]int{2, -1, -1, -1}, card.SuitB)
	s, _ = mustApply(t, s, PlayAction(0, s.Turn, card.MustParse("C1")))

	_, _, err = Apply(s, PlayAction(1, s.Turn, card.MustParse("B2")))
	assert.ErrorIs(t, err, ErrMustFollowSuit)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	assert.True(t, rej.IsRuleViolation())

	_, _, err = Apply(s, PlayAction(1, s.Turn, card.MustParse("C3")))
	assert.NoError(t, err)
}

func TestApply_AllSkipRedealsThenForcesBid(t *testing.T) {
	s := NewRound(1, 3, 0, [2]int{}, 42)
	dealt := s.Hands

	var out Outcome
	for i := 1; i <= MaxRedeals; i++ {
		s, out = bidRound(t, s, [NumSeats]int{-1, -1, -1, -1}, card.SuitNone)
		require.True(t, out.Redealt)
		require.False(t, out.BiddingDone)
		assert.Equal(t, i, s.Redeals)
		assert.Equal(t, PhaseBetting, s.Phase)
		assert.Equal(t, Seat(3), s.Dealer)
		assert.Empty(t, s.Bids)
		assert.Equal(t, Seat(0), s.OnTurn())
		require.NoError(t, s.CheckInvariants())
	}
	assert.NotEqual(t, dealt, s.Hands)

	s, out = bidRound(t, s, [NumSeats]int{-1, -1, -1, -1}, card.SuitNone)
	assert.True(t, out.ForcedBid)
	assert.True(t, out.BiddingDone)
	assert.True(t, s.ForcedBid)
	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, Seat(0), s.Bidder)
	assert.Equal(t, ForcedBidAmount, s.Contract)
	assert.Equal(t, StrongestSuit(s.Hands[0]), s.Trump)
}

func TestApply_FullRoundMadeContract(t *testing.T) {
	s := suitRound(t)
	s, _ = bidRound(t, s, [NumSeats]int{5, -1, -1, -1}, card.SuitA)

	tricks := 0
	for s.Phase == PhasePlaying {
		seat := s.OnTurn()
		c := LegalPlays(s.Hands[seat], s.Trick)[0]
		var out Outcome
		s, out = mustApply(t, s, PlayAction(seat, s.Turn, c))
		if out.Trick != nil {
			tricks++
			assert.Equal(t, Seat(0), out.Trick.Winner)
		}
		if tricks < TricksPerRound {
			require.Nil(t, out.RoundEnd, "round ended early")
			continue
		}
		require.NotNil(t, out.RoundEnd)
		assert.True(t, out.RoundEnd.Made)
		assert.Equal(t, [2]int{11, 0}, out.RoundEnd.TeamPoints)
		assert.Equal(t, [2]int{11, 0}, out.RoundEnd.Delta)
	}
	assert.Equal(t, PhaseRoundOver, s.Phase)
	assert.Equal(t, NoSeat, s.OnTurn())
	assert.Equal(t, [2]int{11, 0}, s.Scores)
	assert.Equal(t, 8, s.Tricks[0])
	assert.Equal(t, 4, s.History[0].Points, "first trick carries both zeros")
	assert.False(t, s.GameOver)
	require.NoError(t, s.CheckInvariants())

	_, _, err := Apply(s, PlayAction(0, s.Turn, card.MustParse("A0")))
	assert.ErrorIs(t, err, ErrRoundOver)
}

func TestApply_MissedContractLosesBid(t *testing.T) {
	s, err := NewRoundWithDeck(1, 3, 0, [2]int{10, 20}, card.Deck())
	require.NoError(t, err)
	s, _ = bidRound(t, s, [NumSeats]int{-1, MaxBid, -1, -1}, card.SuitB)
	s, out := playOut(t, s)

	require.NotNil(t, out.RoundEnd)
	assert.False(t, out.RoundEnd.Made)
	assert.Equal(t, [2]int{0, 11}, out.RoundEnd.TeamPoints)
	assert.Equal(t, [2]int{0, -MaxBid}, out.RoundEnd.Delta)
	assert.Equal(t, [2]int{10, 20 - MaxBid}, s.Scores)
}

func TestApply_WinThresholdOnlyAtRoundOver(t *testing.T) {
	s, err := NewRoundWithDeck(4, 3, 100, [2]int{38, 12}, card.Deck())
	require.NoError(t, err)
	s, _ = bidRound(t, s, [NumSeats]int{3, -1, -1, -1}, card.SuitA)

	for s.Phase == PhasePlaying {
		seat := s.OnTurn()
		c := LegalPlays(s.Hands[seat], s.Trick)[0]
		var out Outcome
		s, out = mustApply(t, s, PlayAction(seat, s.Turn, c))
		if out.RoundEnd == nil {
			// team1 already holds enough trick points, but scores wait
			assert.False(t, s.GameOver)
			assert.Equal(t, [2]int{38, 12}, s.Scores)
		}
	}
	assert.True(t, s.GameOver)
	assert.Equal(t, Team1, s.Winner)
	assert.Equal(t, 49, s.Scores[Team1])
	assert.Equal(t, NoSeat, s.OnTurn())

	_, _, err = Apply(s, PlayAction(0, s.Turn, card.MustParse("A0")))
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestSettle_ThresholdAndTies(t *testing.T) {
	s := &RoundState{Bidder: 1, Contract: 2, Scores: [2]int{38, 38}}
	s.Points[0] = 3
	s.Points[1] = 3
	res := s.settle()
	assert.Equal(t, [2]int{41, 41}, res.Scores)
	assert.True(t, res.GameOver)
	assert.Equal(t, Team2, res.Winner, "tie goes to offense")

	s = &RoundState{Bidder: 0, Contract: 5, Scores: [2]int{38, 0}, Winner: NoTeam}
	s.Points[0] = 2
	s.Points[3] = 1
	res = s.settle()
	assert.False(t, res.Made)
	assert.Equal(t, [2]int{33, 1}, res.Scores)
	assert.False(t, res.GameOver)
	assert.Equal(t, NoTeam, s.Winner)
}

// Random actions against random states: either the input state is left
// untouched and a Rejection comes back, or exactly one unit of progress
// happens.
func TestApply_LegalityInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := card.Deck()

	for game := 0; game < 20; game++ {
		s := NewRound(1, Seat(rng.Intn(NumSeats)), 0, [2]int{}, rng.Int63())
		for steps := 0; steps < 400 && !s.GameOver; steps++ {
			if s.Phase == PhaseRoundOver {
				s = NewRound(s.Number+1, s.Dealer.Next(), s.Turn, s.Scores, s.Seed)
				continue
			}
			a := randomAction(rng, s, deck)
			before := s.Clone()
			next, out, err := Apply(s, a)
			require.Equal(t, before, s.Clone(), "input mutated by %s", a)

			if err != nil {
				require.Nil(t, next)
				var rej *Rejection
				require.ErrorAs(t, err, &rej)
				continue
			}
			require.Equal(t, before.Turn+1, next.Turn)
			switch a.Kind {
			case ActionPlay:
				require.Equal(t, before.CardsInHands()-1, next.CardsInHands())
			case ActionBid:
				if !out.Redealt && !out.BiddingDone {
					require.Len(t, next.Bids, len(before.Bids)+1)
				}
			}
			require.NoError(t, next.CheckInvariants())
			s = next
		}
	}
}

func randomAction(rng *rand.Rand, s *RoundState, deck []card.Card) Action {
	seat := s.OnTurn()
	turn := s.Turn
	if rng.Intn(3) == 0 {
		seat = Seat(rng.Intn(NumSeats + 1))
		turn = uint32(int(s.Turn) + rng.Intn(3) - 1)
	}
	if rng.Intn(2) == 0 {
		if rng.Intn(4) == 0 {
			return SkipAction(seat, turn)
		}
		return BidAction(seat, turn, rng.Intn(MaxBid+3)-1, card.Suit(rng.Intn(5)))
	}
	if s.Phase == PhasePlaying && seat.Valid() && rng.Intn(2) == 0 {
		legal := LegalPlays(s.Hands[seat], s.Trick)
		if len(legal) > 0 {
			return PlayAction(seat, turn, legal[rng.Intn(len(legal))])
		}
	}
	return PlayAction(seat, turn, deck[rng.Intn(len(deck))])
}
