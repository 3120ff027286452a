package card

import "fmt"

type Suit byte

const (
	SuitA Suit = iota
	SuitB
	SuitC
	SuitD

	SuitNone Suit = 0x0F
)

// Suits lists the four suits in table order.
var Suits = [4]Suit{SuitA, SuitB, SuitC, SuitD}

func (s Suit) Valid() bool { return s <= SuitD }

func (s Suit) String() string {
	switch s {
	case SuitA:
		return "A"
	case SuitB:
		return "B"
	case SuitC:
		return "C"
	case SuitD:
		return "D"
	}
	return "?"
}

// ParseSuit accepts a single letter A-D (case-insensitive).
func ParseSuit(s string) (Suit, bool) {
	if len(s) != 1 {
		return SuitNone, false
	}
	switch s[0] {
	case 'a', 'A':
		return SuitA, true
	case 'b', 'B':
		return SuitB, true
	case 'c', 'C':
		return SuitC, true
	case 'd', 'D':
		return SuitD, true
	}
	return SuitNone, false
}

func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return []byte{}, nil
	}
	return []byte(s.String()), nil
}

func (s *Suit) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = SuitNone
		return nil
	}
	parsed, ok := ParseSuit(string(b))
	if !ok {
		return fmt.Errorf("invalid suit %q", string(b))
	}
	*s = parsed
	return nil
}
