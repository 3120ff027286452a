package game

import "trickster/card"

// SeatState is the public per-seat data of a round. Hand is only filled
// for the viewing seat.
type SeatState struct {
	Seat     Seat        `json:"seat"`
	Team     Team        `json:"team"`
	HandSize int         `json:"hand_size"`
	Hand     []card.Card `json:"hand,omitempty"`
	Tricks   int         `json:"tricks"`
	Points   int         `json:"points"`
}

// View is a RoundState redacted for one recipient.
type View struct {
	Viewer Seat   `json:"viewer"`
	Round  int    `json:"round"`
	Phase  Phase  `json:"phase"`
	Dealer Seat   `json:"dealer"`
	OnTurn Seat   `json:"on_turn"`
	Turn   uint32 `json:"turn"`

	Bids      []Bid     `json:"bids"`
	Bidder    Seat      `json:"bidder"`
	Contract  int       `json:"contract"`
	Trump     card.Suit `json:"trump"`
	ForcedBid bool      `json:"forced_bid,omitempty"`

	Trick        Trick        `json:"trick"`
	LastTrick    *TrickResult `json:"last_trick,omitempty"`
	TricksPlayed int          `json:"tricks_played"`

	Seats  [NumSeats]SeatState `json:"seats"`
	Scores [2]int              `json:"scores"`
	Delta  [2]int              `json:"delta"`

	GameOver bool `json:"game_over,omitempty"`
	Winner   Team `json:"winner"`
}

// ViewFor redacts every hand except viewer's. Spectators pass NoSeat.
func (s *RoundState) ViewFor(viewer Seat) View {
	v := View{
		Viewer:       viewer,
		Round:        s.Number,
		Phase:        s.Phase,
		Dealer:       s.Dealer,
		OnTurn:       s.OnTurn(),
		Turn:         s.Turn,
		Bids:         append([]Bid(nil), s.Bids...),
		Bidder:       s.Bidder,
		Contract:     s.Contract,
		Trump:        s.Trump,
		ForcedBid:    s.ForcedBid,
		Trick:        s.Trick.clone(),
		TricksPlayed: len(s.History),
		Scores:       s.Scores,
		Delta:        s.Delta,
		GameOver:     s.GameOver,
		Winner:       s.Winner,
	}
	if last, ok := s.LastTrick(); ok {
		last.Cards = append([]Play(nil), last.Cards...)
		v.LastTrick = &last
	}
	for i := range v.Seats {
		seat := Seat(i)
		v.Seats[i] = SeatState{
			Seat:     seat,
			Team:     seat.Team(),
			HandSize: len(s.Hands[i]),
			Tricks:   s.Tricks[i],
			Points:   s.Points[i],
		}
		if seat == viewer {
			v.Seats[i].Hand = append([]card.Card(nil), s.Hands[i]...)
		}
	}
	return v
}
