package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"trickster/card"
)

// ErrMalformed is returned for frames that are not valid envelopes.
var ErrMalformed = errors.New("malformed frame")

// encoder appends proto3 fields; zero scalars are omitted.
type encoder struct {
	b []byte
}

func (e *encoder) uint(num protowire.Number, v uint64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

// optUint always writes the field so presence survives a zero value.
func (e *encoder) optUint(num protowire.Number, v uint64) {
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) sint(num protowire.Number, v int64) {
	if v == 0 {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, protowire.EncodeZigZag(v))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	if v {
		e.uint(num, 1)
	}
}

func (e *encoder) string(num protowire.Number, v string) {
	if v == "" {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, v)
}

// message writes a nested message even when empty, so oneof members
// without fields are still detected.
func (e *encoder) message(num protowire.Number, sub []byte) {
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, sub)
}

func (e *encoder) card(num protowire.Number, c card.Card) {
	if c.Valid() {
		e.string(num, c.String())
	}
}

func (e *encoder) suit(num protowire.Number, s card.Suit) {
	if s.Valid() {
		e.string(num, s.String())
	}
}

// field is one decoded key/value pair.
type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64
	raw []byte
}

func (f field) uint() uint64 {
	if f.typ != protowire.VarintType {
		return 0
	}
	return f.v
}

func (f field) sint() int64 { return protowire.DecodeZigZag(f.uint()) }

func (f field) bool() bool { return f.uint() != 0 }

func (f field) str() string {
	if f.typ != protowire.BytesType {
		return ""
	}
	return string(f.raw)
}

func (f field) card() (card.Card, error) {
	s := f.str()
	if s == "" {
		return card.CardInvalid, nil
	}
	c, err := card.Parse(s)
	if err != nil {
		return card.CardInvalid, fmt.Errorf("%w: field %d: %v", ErrMalformed, f.num, err)
	}
	return c, nil
}

func (f field) suit() (card.Suit, error) {
	s := f.str()
	if s == "" {
		return card.SuitNone, nil
	}
	suit, ok := card.ParseSuit(s)
	if !ok {
		return card.SuitNone, fmt.Errorf("%w: field %d: invalid suit %q", ErrMalformed, f.num, s)
	}
	return suit, nil
}

// walk calls fn for every field in b. Unknown wire types are skipped.
func walk(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.raw, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
