package card

const (
	CardInvalid Card = 0xFF
	CardRear    Card = 0xFE
)

const (
	CardA0 Card = iota + 0x00
	CardA1
	CardA2
	CardA3
	CardA4
	CardA5
	CardA6
	CardA7
)

const (
	CardB0 Card = iota + 0x10
	CardB1
	CardB2
	CardB3
	CardB4
	CardB5
	CardB6
	CardB7
)

const (
	CardC0 Card = iota + 0x20
	CardC1
	CardC2
	CardC3
	CardC4
	CardC5
	CardC6
	CardC7
)

const (
	CardD0 Card = iota + 0x30
	CardD1
	CardD2
	CardD3
	CardD4
	CardD5
	CardD6
	CardD7
)

// Scoring modifiers are fixed by suit and rank.
const (
	BonusZero   = CardA0
	PenaltyZero = CardD0
)
