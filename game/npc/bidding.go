package npc

import (
	"math"
	"math/rand"

	"trickster/card"
	"trickster/game"
)

// estimate is the brain's guess at the round points its hand can take
// with its strongest suit as trump.
type estimate struct {
	Trump  card.Suit
	Points float64
}

func estimateHand(hand card.CardList) estimate {
	trump := game.StrongestSuit(hand)
	tricks := 0.0
	for _, c := range hand {
		r := float64(c.Rank())
		switch {
		case c.Suit() == trump:
			tricks += 0.35 + 0.08*r
		case c.Rank() == card.MaxRank:
			tricks += 0.7
		case c.Rank() == card.MaxRank-1:
			tricks += 0.35
		}
	}
	// long trump suits keep winning after the others are exhausted
	if n := hand.CountSuit(trump); n > 3 {
		tricks += 0.4 * float64(n-3)
	}
	points := math.Min(tricks, float64(game.TricksPerRound))

	if hand.Contains(card.BonusZero) {
		if trump == card.SuitA {
			points += float64(game.BonusPoints) * 0.8
		} else {
			points += float64(game.BonusPoints) * 0.3
		}
	}
	if hand.Contains(card.PenaltyZero) {
		points += float64(game.PenaltyPoints) * 0.5
	}
	return estimate{Trump: trump, Points: points}
}

// Strength maps an estimate to 0.0–1.0 of the maximum bid.
func (e estimate) Strength() float64 {
	return clamp01(e.Points / float64(game.MaxBid))
}

func decideBid(s *game.RoundState, seat game.Seat, p Profile, rng *rand.Rand) game.Action {
	est := estimateHand(s.Hands[seat])
	strength := clamp01(est.Strength() + noise(rng, p.Randomness*0.3))
	if strength < p.BidThreshold {
		return game.SkipAction(seat, s.Turn)
	}

	amount := int(math.Floor(est.Points * (1 - p.Caution)))
	if amount > game.MaxBid {
		amount = game.MaxBid
	}
	if amount < 0 {
		amount = 0
	}
	// The dealer may only match or beat the highest bid.
	if floor := s.MinBid(seat); amount < floor {
		if est.Points < float64(floor) {
			return game.SkipAction(seat, s.Turn)
		}
		amount = floor
	}
	// No point in outbidding the partner.
	if best, ok := s.HighestBid(); ok && best.Seat.Team() == seat.Team() && best.Amount >= amount {
		return game.SkipAction(seat, s.Turn)
	}
	return game.BidAction(seat, s.Turn, amount, est.Trump)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
