package game

import (
	"fmt"

	"trickster/card"
)

type Config struct {
	// RNG seed for dealing (0 => time-based)
	Seed int64

	// Optional: dealer of the first round (nil => drawn from the seed)
	FirstDealer *Seat

	// Optional: fixed deck for the first deal, used by tests and replays
	DeckOverride []card.Card
}

func (c Config) validate() error {
	if c.FirstDealer != nil && !c.FirstDealer.Valid() {
		return fmt.Errorf("FirstDealer must be 0..%d", NumSeats-1)
	}
	if c.DeckOverride != nil {
		if err := checkDeck(c.DeckOverride); err != nil {
			return fmt.Errorf("DeckOverride: %w", err)
		}
	}
	return nil
}
