package game

import (
	"fmt"
	"math/rand"

	"trickster/card"
)

// ShuffledDeck returns the deck for one deal. The order depends only on
// the game seed, the round number and the redeal index.
func ShuffledDeck(seed int64, round, redeal int) []card.Card {
	mixed := seed ^ int64(round)*0x9E3779B97F4A7C ^ int64(redeal)*0x632BE59BD9B4E019
	rng := rand.New(rand.NewSource(mixed))
	var deck card.CardList
	deck.Init(card.Deck())
	deck.Shuffle(rng)
	return deck
}

// NewRound deals a fresh Betting round from the seeded deck.
func NewRound(number int, dealer Seat, turn uint32, scores [2]int, seed int64) *RoundState {
	s, err := NewRoundWithDeck(number, dealer, turn, scores, ShuffledDeck(seed, number, 0))
	if err != nil {
		// ShuffledDeck always yields a full deck.
		panic(err)
	}
	s.Seed = seed
	return s
}

// NewRoundWithDeck deals deck in order: the first HandSize cards go to
// the seat after the dealer, and so on around the table.
func NewRoundWithDeck(number int, dealer Seat, turn uint32, scores [2]int, deck []card.Card) (*RoundState, error) {
	if !dealer.Valid() {
		return nil, fmt.Errorf("%w: dealer %d", ErrInvalidSeat, dealer)
	}
	if err := checkDeck(deck); err != nil {
		return nil, err
	}
	s := &RoundState{
		Number: number,
		Phase:  PhaseBetting,
		Dealer: dealer,
		Turn:   turn,
		Bidder: NoSeat,
		Trump:  card.SuitNone,
		Trick:  Trick{Leader: NoSeat},
		Scores: scores,
		Winner: NoTeam,
	}
	s.deal(deck)
	return s, nil
}

func (s *RoundState) deal(deck []card.Card) {
	first := s.FirstBidder()
	for i := 0; i < NumSeats; i++ {
		var hand card.CardList
		hand.Init(deck[i*HandSize : (i+1)*HandSize])
		s.Hands[first.Offset(i)] = hand
	}
}

// redeal reshuffles after an all-skip betting pass. Dealer and turn
// sequence are kept.
func (s *RoundState) redeal() {
	s.Redeals++
	s.Bids = nil
	s.deal(ShuffledDeck(s.Seed, s.Number, s.Redeals))
}

func checkDeck(deck []card.Card) error {
	if len(deck) != card.DeckSize {
		return fmt.Errorf("deck has %d cards, want %d", len(deck), card.DeckSize)
	}
	seen := make(map[card.Card]struct{}, len(deck))
	for _, c := range deck {
		if !c.Valid() {
			return fmt.Errorf("deck contains invalid card %#x", byte(c))
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("deck contains duplicate card %s", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// StrongestSuit picks the suit with the most cards in hand, then the
// highest rank sum, then the lowest suit index.
func StrongestSuit(hand []card.Card) card.Suit {
	var count, sum [4]int
	for _, c := range hand {
		if !c.Valid() {
			continue
		}
		count[c.Suit()]++
		sum[c.Suit()] += c.Rank()
	}
	best := card.SuitA
	for _, st := range card.Suits[1:] {
		if count[st] > count[best] || (count[st] == count[best] && sum[st] > sum[best]) {
			best = st
		}
	}
	return best
}
