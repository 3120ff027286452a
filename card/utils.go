package card

import "fmt"

func Cards2bytes(cs []Card) []byte {
	out := make([]byte, 0, len(cs))
	for _, c := range cs {
		out = append(out, byte(c))
	}
	return out
}

// Bytes2cards is the inverse of Cards2bytes and rejects unknown encodings.
func Bytes2cards(bs []byte) ([]Card, error) {
	out := make([]Card, 0, len(bs))
	for _, b := range bs {
		c := Card(b)
		if !c.Valid() {
			return nil, fmt.Errorf("invalid card byte 0x%02x", b)
		}
		out = append(out, c)
	}
	return out, nil
}
