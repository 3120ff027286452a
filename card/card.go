package card

import (
	"fmt"
	"strings"
)

// Card 牌值
//
// 编码规则:
// - 高4位: 花色 (0:A, 1:B, 2:C, 3:D)
// - 低4位: 点数 (0..7)
type Card byte

const (
	MinRank = 0
	MaxRank = 7

	// RanksPerSuit * len(Suits) cards make a full deck.
	RanksPerSuit = MaxRank - MinRank + 1
	DeckSize     = RanksPerSuit * len(Suits)
)

// New builds a card from suit and rank. Out-of-range input yields CardInvalid.
func New(s Suit, rank int) Card {
	if !s.Valid() || rank < MinRank || rank > MaxRank {
		return CardInvalid
	}
	return Card(byte(s)<<4 | byte(rank))
}

func (c Card) String() string {
	switch c {
	case CardInvalid:
		return "Invalid"
	case CardRear:
		return "Rear"
	}
	return fmt.Sprintf("%s%d", c.Suit(), c.Rank())
}

// Rank 获取点数 0-7
func (c Card) Rank() int {
	if !c.Valid() {
		return -1
	}
	return int(c & 0x0F)
}

func (c Card) Suit() Suit {
	if !c.Valid() {
		return SuitNone
	}
	return Suit(c >> 4)
}

func (c Card) Valid() bool {
	return Suit(c>>4).Valid() && int(c&0x0F) <= MaxRank
}

// IsBonusZero reports whether c is the A0 card worth +5 to the trick winner.
func (c Card) IsBonusZero() bool { return c == BonusZero }

// IsPenaltyZero reports whether c is the D0 card worth -2 to the trick winner.
func (c Card) IsPenaltyZero() bool { return c == PenaltyZero }

// IsModifier reports whether c carries a scoring effect.
func (c Card) IsModifier() bool { return c.IsBonusZero() || c.IsPenaltyZero() }

// Parse 将字符串 (如 "A0", "d7") 转换为 Card
func Parse(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return CardInvalid, fmt.Errorf("invalid card string: %q", s)
	}
	suit, ok := ParseSuit(s[:1])
	if !ok {
		return CardInvalid, fmt.Errorf("invalid suit: %c", s[0])
	}
	rank := int(s[1] - '0')
	if rank < MinRank || rank > MaxRank {
		return CardInvalid, fmt.Errorf("invalid rank: %c", s[1])
	}
	return New(suit, rank), nil
}

// MustParse is Parse for literals in tests and tables.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Deck returns the 32 cards in suit-major order.
func Deck() []Card {
	out := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for r := MinRank; r <= MaxRank; r++ {
			out = append(out, New(s, r))
		}
	}
	return out
}

// MarshalText encodes invalid cards as the empty string.
func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = CardInvalid
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
