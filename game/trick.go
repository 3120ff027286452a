package game

import "trickster/card"

// CanPlay reports whether c may be played from hand onto trick.
func CanPlay(hand card.CardList, trick Trick, c card.Card) bool {
	if !hand.Contains(c) {
		return false
	}
	led := trick.LedSuit()
	if led == card.SuitNone || c.Suit() == led {
		return true
	}
	return !hand.HasSuit(led)
}

// LegalPlays lists the cards of hand that may be played onto trick, in
// hand order. It is never empty for a non-empty hand.
func LegalPlays(hand card.CardList, trick Trick) []card.Card {
	led := trick.LedSuit()
	if led == card.SuitNone || !hand.HasSuit(led) {
		return append([]card.Card(nil), hand...)
	}
	out := make([]card.Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit() == led {
			out = append(out, c)
		}
	}
	return out
}

// Beats reports whether challenger outranks holder given the led suit
// and trump. Cards of neither suit never win.
func Beats(challenger, holder card.Card, led, trump card.Suit) bool {
	ct := challenger.Suit() == trump
	ht := holder.Suit() == trump
	switch {
	case ct && !ht:
		return true
	case !ct && ht:
		return false
	case ct && ht:
		return challenger.Rank() > holder.Rank()
	}
	if challenger.Suit() != led {
		return false
	}
	if holder.Suit() != led {
		return true
	}
	return challenger.Rank() > holder.Rank()
}

// Winning returns the index of the play currently taking the trick.
func Winning(plays []Play, trump card.Suit) int {
	if len(plays) == 0 {
		return -1
	}
	led := plays[0].Card.Suit()
	best := 0
	for i := 1; i < len(plays); i++ {
		if Beats(plays[i].Card, plays[best].Card, led, trump) {
			best = i
		}
	}
	return best
}

// TrickValue is 1 plus the bonus and penalty modifiers present.
func TrickValue(plays []Play) int {
	v := TrickPoints
	for _, p := range plays {
		switch {
		case p.Card.IsBonusZero():
			v += BonusPoints
		case p.Card.IsPenaltyZero():
			v += PenaltyPoints
		}
	}
	return v
}

// ResolveTrick computes winner and points of a complete trick.
func ResolveTrick(plays []Play, trump card.Suit) TrickResult {
	idx := Winning(plays, trump)
	winner := NoSeat
	if idx >= 0 {
		winner = plays[idx].Seat
	}
	return TrickResult{
		Cards:  append([]Play(nil), plays...),
		Winner: winner,
		Points: TrickValue(plays),
	}
}
