package game

import (
	"fmt"

	"trickster/card"
)

// Outcome describes what an accepted action changed.
type Outcome struct {
	Action Action `json:"action"`

	// BiddingDone is set when the fourth bid resolved the contract.
	BiddingDone bool `json:"bidding_done,omitempty"`
	// Redealt is set when four skips caused a fresh deal.
	Redealt bool `json:"redealt,omitempty"`
	// ForcedBid is set when redeals ran out and a default contract was
	// imposed. Operators should be told.
	ForcedBid bool `json:"forced_bid,omitempty"`

	Trick    *TrickResult `json:"trick,omitempty"`
	RoundEnd *RoundResult `json:"round_end,omitempty"`
}

// Apply validates a against s and, when legal, returns the next state.
// s is never modified. Every refusal is a *Rejection.
func Apply(s *RoundState, a Action) (*RoundState, Outcome, error) {
	if s == nil {
		return nil, Outcome{}, ErrInvalidState("nil round")
	}
	if err := precheck(s, a); err != nil {
		return nil, Outcome{}, err
	}

	next := s.Clone()
	var (
		out Outcome
		err error
	)
	switch a.Kind {
	case ActionBid:
		out, err = next.applyBid(a)
	case ActionPlay:
		out, err = next.applyPlay(a)
	}
	if err != nil {
		return nil, Outcome{}, err
	}
	next.Turn++
	return next, out, nil
}

// precheck runs the protocol checks shared by all actions: turn
// sequence first, so a late duplicate always reads as stale.
func precheck(s *RoundState, a Action) error {
	if s.GameOver {
		return reject(a, ErrGameOver)
	}
	if a.Turn != s.Turn {
		return reject(a, fmt.Errorf("%w: got %d, current %d", ErrStaleTurn, a.Turn, s.Turn))
	}
	switch s.Phase {
	case PhaseRoundOver:
		return reject(a, ErrRoundOver)
	case PhaseBetting:
		if a.Kind != ActionBid {
			return reject(a, ErrWrongPhase)
		}
	case PhasePlaying:
		if a.Kind != ActionPlay {
			return reject(a, ErrWrongPhase)
		}
	default:
		return ErrInvalidState("unknown phase " + s.Phase.String())
	}
	if !a.Seat.Valid() {
		return reject(a, ErrInvalidSeat)
	}
	if on := s.OnTurn(); a.Seat != on {
		return reject(a, fmt.Errorf("%w: %s is on turn", ErrOutOfTurn, on))
	}
	return nil
}

// MinBid is the lowest amount seat may bid right now.
func (s *RoundState) MinBid(seat Seat) int {
	if seat != s.Dealer {
		return 0
	}
	if best, ok := s.HighestBid(); ok {
		return best.Amount
	}
	return 0
}

func (s *RoundState) applyBid(a Action) (Outcome, error) {
	bid := Bid{Seat: a.Seat, Skip: a.Skip, Trump: card.SuitNone}
	if !a.Skip {
		if a.Amount < 0 {
			return Outcome{}, reject(a, fmt.Errorf("%w: negative amount %d", ErrIllegalBid, a.Amount))
		}
		if a.Trump != card.SuitNone && !a.Trump.Valid() {
			return Outcome{}, reject(a, fmt.Errorf("%w: trump %d", ErrIllegalBid, a.Trump))
		}
		if a.Amount < s.MinBid(a.Seat) {
			return Outcome{}, reject(a, dealerUndercut{})
		}
		bid.Amount = a.Amount
		bid.Trump = a.Trump
	}
	s.Bids = append(s.Bids, bid)

	out := Outcome{Action: a}
	if len(s.Bids) < NumSeats {
		return out, nil
	}

	if best, ok := s.HighestBid(); ok {
		trump := best.Trump
		if trump == card.SuitNone {
			trump = StrongestSuit(s.Hands[best.Seat])
		}
		s.startPlay(best.Seat, best.Amount, trump)
		out.BiddingDone = true
		return out, nil
	}

	if s.Redeals < MaxRedeals {
		s.redeal()
		out.Redealt = true
		return out, nil
	}

	// Redeals exhausted: the first bidder takes a default contract.
	forced := s.FirstBidder()
	s.startPlay(forced, ForcedBidAmount, StrongestSuit(s.Hands[forced]))
	s.ForcedBid = true
	out.BiddingDone = true
	out.ForcedBid = true
	return out, nil
}

func (s *RoundState) startPlay(bidder Seat, contract int, trump card.Suit) {
	s.Phase = PhasePlaying
	s.Bidder = bidder
	s.Contract = contract
	s.Trump = trump
	s.Trick = Trick{Leader: bidder}
}

func (s *RoundState) applyPlay(a Action) (Outcome, error) {
	hand := s.Hands[a.Seat]
	if !hand.Contains(a.Card) {
		return Outcome{}, reject(a, fmt.Errorf("%w: %s", ErrCardNotInHand, a.Card))
	}
	if !CanPlay(hand, s.Trick, a.Card) {
		return Outcome{}, reject(a, fmt.Errorf("%w: led %s", ErrMustFollowSuit, s.Trick.LedSuit()))
	}
	s.Hands[a.Seat].Remove(a.Card)
	s.Trick.Plays = append(s.Trick.Plays, Play{Seat: a.Seat, Card: a.Card})

	out := Outcome{Action: a}
	if len(s.Trick.Plays) < NumSeats {
		return out, nil
	}

	res := ResolveTrick(s.Trick.Plays, s.Trump)
	s.History = append(s.History, res)
	s.Tricks[res.Winner]++
	s.Points[res.Winner] += res.Points
	s.Trick = Trick{Leader: res.Winner}
	out.Trick = &res

	if len(s.History) == TricksPerRound {
		rr := s.settle()
		out.RoundEnd = &rr
	}
	return out, nil
}
