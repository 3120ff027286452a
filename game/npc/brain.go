package npc

import (
	"math/rand"

	"trickster/game"
)

// Decide returns a legal action for seat, which must be on turn in s.
// rng may be nil for a noise-free decision. s is not modified.
func Decide(s *game.RoundState, seat game.Seat, d Difficulty, rng *rand.Rand) game.Action {
	p := ProfileFor(d)
	if s.Phase == game.PhaseBetting {
		return decideBid(s, seat, p, rng)
	}
	return decidePlay(s, seat, p, rng)
}

// Fallback is the action taken for a seat whose turn timer expired:
// a skip while bidding, otherwise a Medium card choice without noise.
func Fallback(s *game.RoundState, seat game.Seat) game.Action {
	if s.Phase == game.PhaseBetting {
		return game.SkipAction(seat, s.Turn)
	}
	return Decide(s, seat, Medium, nil)
}

// Brain drives one bot seat with its own random source. It is not safe
// for concurrent use; the owning table serializes calls.
type Brain struct {
	Difficulty Difficulty
	rng        *rand.Rand
}

func NewBrain(d Difficulty, seed int64) *Brain {
	return &Brain{Difficulty: d, rng: rand.New(rand.NewSource(seed))}
}

func (b *Brain) Name() string { return "bot-" + b.Difficulty.String() }

func (b *Brain) Decide(s *game.RoundState, seat game.Seat) game.Action {
	return Decide(s, seat, b.Difficulty, b.rng)
}

// noise returns a value in [-amp/2, amp/2), or zero without rng.
func noise(rng *rand.Rand, amp float64) float64 {
	if rng == nil || amp == 0 {
		return 0
	}
	return (rng.Float64() - 0.5) * amp
}

func roll(rng *rand.Rand, p float64) bool {
	return rng != nil && p > 0 && rng.Float64() < p
}
