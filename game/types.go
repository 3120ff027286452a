package game

import (
	"fmt"
	"time"

	"trickster/card"
)

// Fixed rules of the table. None of these are runtime-tunable.
const (
	NumSeats       = 4
	HandSize       = 8
	TricksPerRound = HandSize
	WinThreshold   = 41
	BonusPoints    = 5
	PenaltyPoints  = -2
	TrickPoints    = 1

	// MaxBid is the most round points one team can take: seven tricks
	// including the bonus zero, with the penalty trick going to the opponents.
	// Higher bids are legal but cannot be made.
	MaxBid = TricksPerRound - 1 + BonusPoints

	// MaxRedeals bounds consecutive all-skip redeals within one round.
	MaxRedeals = 3
	// ForcedBidAmount is the contract assigned when bidding stays exhausted.
	ForcedBidAmount = 0

	TurnTimeout = 60 * time.Second
)

// Seat is a fixed table position 0..3.
type Seat int8

const NoSeat Seat = -1

func (s Seat) Valid() bool { return s >= 0 && s < NumSeats }

func (s Seat) Next() Seat { return (s + 1) % NumSeats }

// Offset returns the seat n places after s in table order.
func (s Seat) Offset(n int) Seat {
	return Seat((int(s) + n%NumSeats + NumSeats) % NumSeats)
}

func (s Seat) Partner() Seat { return s.Offset(2) }

// Team maps seats 0/2 to Team1 and 1/3 to Team2.
func (s Seat) Team() Team {
	if !s.Valid() {
		return NoTeam
	}
	return Team(s % 2)
}

func (s Seat) String() string {
	if !s.Valid() {
		return "none"
	}
	return fmt.Sprintf("seat%d", int(s))
}

type Team int8

const (
	NoTeam Team = -1
	Team1  Team = 0
	Team2  Team = 1
)

func (t Team) Valid() bool { return t == Team1 || t == Team2 }

func (t Team) Other() Team {
	switch t {
	case Team1:
		return Team2
	case Team2:
		return Team1
	}
	return NoTeam
}

// Seats returns the two seats of the team in table order.
func (t Team) Seats() [2]Seat {
	return [2]Seat{Seat(t), Seat(t) + 2}
}

func (t Team) String() string {
	switch t {
	case Team1:
		return "team1"
	case Team2:
		return "team2"
	}
	return "none"
}

// Phase 局内阶段
type Phase byte

const (
	PhaseBetting   Phase = 1
	PhasePlaying   Phase = 2
	PhaseRoundOver Phase = 3
)

var PhaseDictionary = map[Phase]string{
	PhaseBetting:   "betting",
	PhasePlaying:   "playing",
	PhaseRoundOver: "roundover",
}

func (p Phase) String() string {
	if s, ok := PhaseDictionary[p]; ok {
		return s
	}
	return "unknown"
}

// ActionKind 动作类型：1-BID 2-PLAY
type ActionKind byte

const (
	ActionNone ActionKind = 0
	ActionBid  ActionKind = 1
	ActionPlay ActionKind = 2
)

var ActionKindDictionary = map[ActionKind]string{
	ActionNone: "NONE",
	ActionBid:  "BID",
	ActionPlay: "PLAY",
}

func (k ActionKind) String() string {
	if s, ok := ActionKindDictionary[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Action is a proposed bid or card play for one seat on one turn.
// Turn must equal the state's turn sequence number.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Seat   Seat       `json:"seat"`
	Turn   uint32     `json:"turn"`
	Amount int        `json:"amount,omitempty"`
	Skip   bool       `json:"skip,omitempty"`
	Trump  card.Suit  `json:"trump"`
	Card   card.Card  `json:"card"`
}

// BidAction bids amount points; trump may be card.SuitNone to let the
// engine pick the bidder's strongest suit if the bid wins.
func BidAction(seat Seat, turn uint32, amount int, trump card.Suit) Action {
	return Action{Kind: ActionBid, Seat: seat, Turn: turn, Amount: amount, Trump: trump, Card: card.CardInvalid}
}

func SkipAction(seat Seat, turn uint32) Action {
	return Action{Kind: ActionBid, Seat: seat, Turn: turn, Skip: true, Trump: card.SuitNone, Card: card.CardInvalid}
}

func PlayAction(seat Seat, turn uint32, c card.Card) Action {
	return Action{Kind: ActionPlay, Seat: seat, Turn: turn, Card: c, Trump: card.SuitNone}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionBid:
		if a.Skip {
			return fmt.Sprintf("%s skip@%d", a.Seat, a.Turn)
		}
		return fmt.Sprintf("%s bid %d%s@%d", a.Seat, a.Amount, a.Trump, a.Turn)
	case ActionPlay:
		return fmt.Sprintf("%s play %s@%d", a.Seat, a.Card, a.Turn)
	}
	return fmt.Sprintf("%s none@%d", a.Seat, a.Turn)
}

// Bid records one seat's betting decision.
type Bid struct {
	Seat   Seat      `json:"seat"`
	Amount int       `json:"amount"`
	Skip   bool      `json:"skip,omitempty"`
	Trump  card.Suit `json:"trump"`
}

type Play struct {
	Seat Seat      `json:"seat"`
	Card card.Card `json:"card"`
}

// Trick is the in-progress trick; Plays is append-only until resolved.
type Trick struct {
	Leader Seat   `json:"leader"`
	Plays  []Play `json:"plays"`
}

// LedSuit returns card.SuitNone for an empty trick.
func (t Trick) LedSuit() card.Suit {
	if len(t.Plays) == 0 {
		return card.SuitNone
	}
	return t.Plays[0].Card.Suit()
}

func (t Trick) clone() Trick {
	return Trick{Leader: t.Leader, Plays: append([]Play(nil), t.Plays...)}
}

// TrickResult is an archived, resolved trick.
type TrickResult struct {
	Cards  []Play `json:"cards"`
	Winner Seat   `json:"winner"`
	Points int    `json:"points"`
}

// Source tells who produced an accepted action.
type Source byte

const (
	SourceManual  Source = 1
	SourceBot     Source = 2
	SourceTimeout Source = 3
)

var SourceDictionary = map[Source]string{
	SourceManual:  "manual",
	SourceBot:     "bot",
	SourceTimeout: "timeout",
}

func (s Source) String() string {
	if v, ok := SourceDictionary[s]; ok {
		return v
	}
	return "unknown"
}
