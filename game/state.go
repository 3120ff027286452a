package game

import "trickster/card"

// RoundState is the complete data of one round. Values are treated as
// immutable: Apply returns a fresh copy and never writes to its input.
type RoundState struct {
	Number int    `json:"number"`
	Phase  Phase  `json:"phase"`
	Dealer Seat   `json:"dealer"`
	Turn   uint32 `json:"turn"`

	// Seed and Redeals make every deal reproducible from the state alone.
	Seed    int64 `json:"seed"`
	Redeals int   `json:"redeals"`

	Hands [NumSeats]card.CardList `json:"hands"`
	Bids  []Bid                   `json:"bids"`

	Bidder    Seat      `json:"bidder"`
	Contract  int       `json:"contract"`
	Trump     card.Suit `json:"trump"`
	ForcedBid bool      `json:"forced_bid,omitempty"`

	Trick   Trick         `json:"trick"`
	History []TrickResult `json:"history"`

	Tricks [NumSeats]int `json:"tricks"`
	Points [NumSeats]int `json:"points"`

	// Scores are cumulative team scores; they change only at RoundOver.
	Scores [2]int `json:"scores"`
	Delta  [2]int `json:"delta"`

	GameOver bool `json:"game_over,omitempty"`
	Winner   Team `json:"winner"`
}

// Clone returns a deep copy.
func (s *RoundState) Clone() *RoundState {
	if s == nil {
		return nil
	}
	out := *s
	for i := range s.Hands {
		out.Hands[i] = s.Hands[i].Clone()
	}
	out.Bids = append([]Bid(nil), s.Bids...)
	out.Trick = s.Trick.clone()
	if s.History != nil {
		out.History = make([]TrickResult, len(s.History))
		for i, tr := range s.History {
			out.History[i] = TrickResult{
				Cards:  append([]Play(nil), tr.Cards...),
				Winner: tr.Winner,
				Points: tr.Points,
			}
		}
	}
	return &out
}

// OnTurn returns the seat expected to act, or NoSeat in RoundOver.
func (s *RoundState) OnTurn() Seat {
	switch s.Phase {
	case PhaseBetting:
		if len(s.Bids) >= NumSeats {
			return NoSeat
		}
		return s.FirstBidder().Offset(len(s.Bids))
	case PhasePlaying:
		if len(s.Trick.Plays) >= NumSeats {
			return NoSeat
		}
		return s.Trick.Leader.Offset(len(s.Trick.Plays))
	}
	return NoSeat
}

// FirstBidder is the seat after the dealer.
func (s *RoundState) FirstBidder() Seat { return s.Dealer.Next() }

// HighestBid returns the winning bid so far; ties keep the earliest bid.
func (s *RoundState) HighestBid() (Bid, bool) {
	var best Bid
	found := false
	for _, b := range s.Bids {
		if b.Skip {
			continue
		}
		if !found || b.Amount > best.Amount {
			best = b
			found = true
		}
	}
	return best, found
}

// Offense is the bidder's team, NoTeam before bidding resolves.
func (s *RoundState) Offense() Team {
	if s.Phase == PhaseBetting {
		return NoTeam
	}
	return s.Bidder.Team()
}

// TeamPoints sums the round points of both seats of t.
func (s *RoundState) TeamPoints(t Team) int {
	if !t.Valid() {
		return 0
	}
	seats := t.Seats()
	return s.Points[seats[0]] + s.Points[seats[1]]
}

func (s *RoundState) TeamTricks(t Team) int {
	if !t.Valid() {
		return 0
	}
	seats := t.Seats()
	return s.Tricks[seats[0]] + s.Tricks[seats[1]]
}

// CardsInHands counts the cards still held by all seats.
func (s *RoundState) CardsInHands() int {
	n := 0
	for _, h := range s.Hands {
		n += len(h)
	}
	return n
}

// CardsPlayed counts resolved and in-progress trick cards.
func (s *RoundState) CardsPlayed() int {
	return len(s.History)*NumSeats + len(s.Trick.Plays)
}

// LastTrick returns the most recently resolved trick of this round.
func (s *RoundState) LastTrick() (TrickResult, bool) {
	if len(s.History) == 0 {
		return TrickResult{}, false
	}
	return s.History[len(s.History)-1], true
}

// CheckInvariants verifies the structural invariants of a round.
func (s *RoundState) CheckInvariants() error {
	if !s.Dealer.Valid() {
		return ErrInvalidState("dealer out of range")
	}
	if total := s.CardsInHands() + s.CardsPlayed(); total != card.DeckSize {
		return ErrInvalidState("card count drifted")
	}
	seen := make(map[card.Card]struct{}, card.DeckSize)
	mark := func(c card.Card) bool {
		if _, dup := seen[c]; dup || !c.Valid() {
			return false
		}
		seen[c] = struct{}{}
		return true
	}
	for _, h := range s.Hands {
		for _, c := range h {
			if !mark(c) {
				return ErrInvalidState("duplicate or invalid card in hand")
			}
		}
	}
	for _, tr := range s.History {
		for _, p := range tr.Cards {
			if !mark(p.Card) {
				return ErrInvalidState("duplicate card in history")
			}
		}
	}
	for _, p := range s.Trick.Plays {
		if !mark(p.Card) {
			return ErrInvalidState("duplicate card in trick")
		}
	}
	switch s.Phase {
	case PhaseBetting, PhasePlaying:
		if !s.OnTurn().Valid() {
			return ErrInvalidState("no seat on turn")
		}
	case PhaseRoundOver:
		if s.OnTurn() != NoSeat {
			return ErrInvalidState("seat on turn after round over")
		}
	default:
		return ErrInvalidState("unknown phase")
	}
	return nil
}
