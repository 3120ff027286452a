package npc

import (
	"math/rand"

	"trickster/card"
	"trickster/game"
)

func decidePlay(s *game.RoundState, seat game.Seat, p Profile, rng *rand.Rand) game.Action {
	legal := game.LegalPlays(s.Hands[seat], s.Trick)
	if len(legal) == 0 {
		// Not on turn with cards; Apply will reject this.
		return game.PlayAction(seat, s.Turn, card.CardInvalid)
	}
	if len(legal) == 1 {
		return game.PlayAction(seat, s.Turn, legal[0])
	}
	if roll(rng, p.Randomness) {
		return game.PlayAction(seat, s.Turn, legal[rng.Intn(len(legal))])
	}

	var c card.Card
	if len(s.Trick.Plays) == 0 {
		c = chooseLead(legal, s.Trump)
	} else {
		c = chooseFollow(legal, s.Trick, s.Trump, seat, p)
	}
	return game.PlayAction(seat, s.Turn, c)
}

// chooseLead plays the highest card that is neither a scoring zero nor,
// while side suits remain, a trump.
func chooseLead(legal []card.Card, trump card.Suit) card.Card {
	var best card.Card = card.CardInvalid
	for _, c := range legal {
		if c.IsModifier() || c.Suit() == trump {
			continue
		}
		if !best.Valid() || c.Rank() > best.Rank() {
			best = c
		}
	}
	if best.Valid() {
		return best
	}
	for _, c := range legal {
		if c.IsModifier() {
			continue
		}
		if !best.Valid() || c.Rank() > best.Rank() {
			best = c
		}
	}
	if best.Valid() {
		return best
	}
	// only zeros left: lead the bonus and hope the partner takes it
	for _, c := range legal {
		if c.IsBonusZero() {
			return c
		}
	}
	return legal[0]
}

func chooseFollow(legal []card.Card, trick game.Trick, trump card.Suit, seat game.Seat, p Profile) card.Card {
	led := trick.LedSuit()
	top := trick.Plays[game.Winning(trick.Plays, trump)]
	ours := top.Seat.Team() == seat.Team()

	if ours {
		// 队友领先：送分
		for _, c := range legal {
			if c.IsBonusZero() {
				return c
			}
		}
		return cheapest(legal, trump, card.PenaltyZero, card.BonusZero)
	}

	var win card.Card = card.CardInvalid
	for _, c := range legal {
		if !game.Beats(c, top.Card, led, trump) {
			continue
		}
		if !win.Valid() || cost(c, trump) < cost(win, trump) {
			win = c
		}
	}
	if win.Valid() {
		after := append(append([]game.Play(nil), trick.Plays...), game.Play{Seat: seat, Card: win})
		if !p.Counting || game.TrickValue(after) > 0 {
			return win
		}
	}

	// 对手领先：扔罚分牌
	for _, c := range legal {
		if c.IsPenaltyZero() && !game.Beats(c, top.Card, led, trump) {
			return c
		}
	}
	return cheapest(legal, trump, card.BonusZero)
}

// cost ranks how much a card is worth keeping.
func cost(c card.Card, trump card.Suit) int {
	v := c.Rank()
	if c.Suit() == trump {
		v += card.RanksPerSuit
	}
	return v
}

// cheapest returns the lowest-cost card, avoiding the listed cards
// unless nothing else is legal.
func cheapest(legal []card.Card, trump card.Suit, avoid ...card.Card) card.Card {
	var best card.Card = card.CardInvalid
	for _, c := range legal {
		if containsCard(avoid, c) {
			continue
		}
		if !best.Valid() || cost(c, trump) < cost(best, trump) {
			best = c
		}
	}
	if best.Valid() {
		return best
	}
	return legal[0]
}

func containsCard(cs []card.Card, target card.Card) bool {
	for _, c := range cs {
		if c == target {
			return true
		}
	}
	return false
}
