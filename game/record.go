package game

import "trickster/card"

// ActionRecord is one accepted action in the game's log.
type ActionRecord struct {
	Round  int    `json:"round"`
	Source Source `json:"source"`
	Action Action `json:"action"`
}

// RoundRecord archives a finished round.
type RoundRecord struct {
	Result  RoundResult          `json:"result"`
	Redeals int                  `json:"redeals"`
	Bids    []Bid                `json:"bids"`
	Tricks  []TrickResult        `json:"tricks"`
	Seats   [NumSeats]SeatTotals `json:"seats"`
}

// SeatTotals are trick and point counts for one seat.
type SeatTotals struct {
	Tricks int `json:"tricks"`
	Points int `json:"points"`
}

// GameSummary is the immutable record handed to persistence at GameOver.
type GameSummary struct {
	Seed        int64       `json:"seed"`
	FirstDealer Seat        `json:"first_dealer"`
	FirstDeck   []card.Card `json:"first_deck,omitempty"`
	Scores      [2]int      `json:"scores"`
	Winner      Team        `json:"winner"`
	Finished    bool        `json:"finished"`

	// Debug marks games whose scores were force-set; they cannot be replayed.
	Debug bool `json:"debug,omitempty"`

	Seats   [NumSeats]SeatTotals `json:"seats"`
	Rounds  []RoundRecord        `json:"rounds"`
	Actions []ActionRecord       `json:"actions"`
}

// Snapshot is everything needed to rebuild a Game mid-round.
type Snapshot struct {
	Seed        int64          `json:"seed"`
	FirstDealer Seat           `json:"first_dealer"`
	FirstDeck   []card.Card    `json:"first_deck,omitempty"`
	Debug       bool           `json:"debug,omitempty"`
	Round       *RoundState    `json:"round"`
	Rounds      []RoundRecord  `json:"rounds"`
	Actions     []ActionRecord `json:"actions"`
}
