package replay

import "trickster/game"

const TapeVersion = 1

// Event types on a tape.
const (
	EventRoundStart = "roundStart"
	EventAction     = "action"
	EventTrick      = "trick"
	EventRoundEnd   = "roundEnd"
	EventGameOver   = "gameOver"
)

type Tape struct {
	TapeVersion int     `json:"tape_version"`
	Seed        int64   `json:"seed"`
	Events      []Event `json:"events"`
}

// Event is one step of a replayed game. Only the field matching Type is set.
type Event struct {
	Type   string            `json:"type"`
	Seq    uint64            `json:"seq"`
	Round  int               `json:"round"`
	Dealer *game.Seat        `json:"dealer,omitempty"`
	Action *game.Action      `json:"action,omitempty"`
	Source game.Source       `json:"source,omitempty"`
	Trick  *game.TrickResult `json:"trick,omitempty"`
	Result *game.RoundResult `json:"result,omitempty"`
	Winner *game.Team        `json:"winner,omitempty"`
}

type tapeBuilder struct {
	seq    uint64
	events []Event
}

func (b *tapeBuilder) add(e Event) {
	b.seq++
	e.Seq = b.seq
	b.events = append(b.events, e)
}
