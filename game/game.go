package game

import (
	"math/rand"
	"sync"
	"time"

	"trickster/card"
)

// Game owns the round sequence of one table and its action log. All
// methods are safe for concurrent use.
type Game struct {
	mu sync.Mutex

	seed        int64
	firstDealer Seat
	firstDeck   []card.Card
	debug       bool

	round   *RoundState
	rounds  []RoundRecord
	actions []ActionRecord
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	dealer := Seat(rand.New(rand.NewSource(seed)).Intn(NumSeats))
	if cfg.FirstDealer != nil {
		dealer = *cfg.FirstDealer
	}
	g := &Game{
		seed:        seed,
		firstDealer: dealer,
	}
	if cfg.DeckOverride != nil {
		g.firstDeck = append([]card.Card(nil), cfg.DeckOverride...)
		r, err := NewRoundWithDeck(1, dealer, 0, [2]int{}, g.firstDeck)
		if err != nil {
			return nil, err
		}
		r.Seed = seed
		g.round = r
	} else {
		g.round = NewRound(1, dealer, 0, [2]int{}, seed)
	}
	return g, nil
}

// Apply validates and commits one action. On rejection nothing changes.
func (g *Game) Apply(a Action, src Source) (Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	next, out, err := Apply(g.round, a)
	if err != nil {
		return Outcome{}, err
	}
	g.round = next
	g.actions = append(g.actions, ActionRecord{Round: next.Number, Source: src, Action: a})
	if out.RoundEnd != nil {
		g.rounds = append(g.rounds, recordRound(next, *out.RoundEnd))
	}
	return out, nil
}

func recordRound(s *RoundState, res RoundResult) RoundRecord {
	rec := RoundRecord{
		Result:  res,
		Redeals: s.Redeals,
		Bids:    append([]Bid(nil), s.Bids...),
		Tricks:  s.Clone().History,
	}
	for i := range rec.Seats {
		rec.Seats[i] = SeatTotals{Tricks: s.Tricks[i], Points: s.Points[i]}
	}
	return rec
}

// StartNextRound deals the next round after RoundOver, advancing the dealer.
func (g *Game) StartNextRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur := g.round
	if cur.GameOver {
		return ErrGameOver
	}
	if cur.Phase != PhaseRoundOver {
		return ErrWrongPhase
	}
	g.round = NewRound(cur.Number+1, cur.Dealer.Next(), cur.Turn, cur.Scores, g.seed)
	return nil
}

// State returns a copy of the current round.
func (g *Game) State() *RoundState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round.Clone()
}

func (g *Game) View(viewer Seat) View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round.ViewFor(viewer)
}

func (g *Game) OnTurn() Seat {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round.OnTurn()
}

func (g *Game) Turn() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round.Turn
}

func (g *Game) Over() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round.GameOver
}

func (g *Game) Seed() int64 { return g.seed }

// DebugSetScores overwrites the cumulative team scores. Debug use only:
// it bypasses round scoring and the game is flagged as not replayable.
// A score at or above the threshold still ends the game only at the
// next RoundOver.
func (g *Game) DebugSetScores(team1, team2 int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.round = g.round.Clone()
	g.round.Scores = [2]int{team1, team2}
	g.debug = true
}

// Summary builds the archive record from the rounds played so far.
func (g *Game) Summary() GameSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	sum := GameSummary{
		Seed:        g.seed,
		FirstDealer: g.firstDealer,
		FirstDeck:   append([]card.Card(nil), g.firstDeck...),
		Scores:      g.round.Scores,
		Winner:      g.round.Winner,
		Finished:    g.round.GameOver,
		Debug:       g.debug,
		Rounds:      append([]RoundRecord(nil), g.rounds...),
		Actions:     append([]ActionRecord(nil), g.actions...),
	}
	if len(g.firstDeck) == 0 {
		sum.FirstDeck = nil
	}
	for _, r := range g.rounds {
		for i, st := range r.Seats {
			sum.Seats[i].Tricks += st.Tricks
			sum.Seats[i].Points += st.Points
		}
	}
	return sum
}

// Snapshot captures the game for later Restore.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	snap := Snapshot{
		Seed:        g.seed,
		FirstDealer: g.firstDealer,
		Debug:       g.debug,
		Round:       g.round.Clone(),
		Rounds:      append([]RoundRecord(nil), g.rounds...),
		Actions:     append([]ActionRecord(nil), g.actions...),
	}
	if len(g.firstDeck) > 0 {
		snap.FirstDeck = append([]card.Card(nil), g.firstDeck...)
	}
	return snap
}

// Restore rebuilds a Game from a snapshot after checking the round.
func Restore(snap Snapshot) (*Game, error) {
	if snap.Round == nil {
		return nil, ErrInvalidState("snapshot has no round")
	}
	if !snap.FirstDealer.Valid() {
		return nil, ErrInvalidState("snapshot first dealer out of range")
	}
	if err := snap.Round.CheckInvariants(); err != nil {
		return nil, err
	}
	return &Game{
		seed:        snap.Seed,
		firstDealer: snap.FirstDealer,
		firstDeck:   append([]card.Card(nil), snap.FirstDeck...),
		debug:       snap.Debug,
		round:       snap.Round.Clone(),
		rounds:      append([]RoundRecord(nil), snap.Rounds...),
		actions:     append([]ActionRecord(nil), snap.Actions...),
	}, nil
}
