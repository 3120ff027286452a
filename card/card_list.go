package card

import "math/rand"

type CardList []Card

func (ds *CardList) Init(cards []Card) {
	*ds = make([]Card, len(cards))
	copy(*ds, cards)
}

// Count 获取总牌数
func (ds CardList) Count() int {
	return len(ds)
}

func (ds CardList) CardsBytes() []byte {
	return Cards2bytes(ds)
}

// Shuffle permutes the list with rng; the same seed yields the same order.
func (ds CardList) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(ds), func(i, j int) {
		ds[i], ds[j] = ds[j], ds[i]
	})
}

func (ds *CardList) Add(cards ...Card) {
	*ds = append(*ds, cards...)
}

func (ds CardList) Contains(c Card) bool {
	return ds.Index(c) >= 0
}

func (ds CardList) Index(c Card) int {
	for i, cc := range ds {
		if cc == c {
			return i
		}
	}
	return -1
}

// Remove drops the first occurrence of c and reports whether it was present.
func (ds *CardList) Remove(c Card) bool {
	idx := ds.Index(c)
	if idx < 0 {
		return false
	}
	out := make([]Card, 0, len(*ds)-1)
	out = append(out, (*ds)[:idx]...)
	out = append(out, (*ds)[idx+1:]...)
	*ds = out
	return true
}

func (ds CardList) CountSuit(s Suit) int {
	n := 0
	for _, c := range ds {
		if c.Suit() == s {
			n++
		}
	}
	return n
}

func (ds CardList) HasSuit(s Suit) bool {
	return ds.CountSuit(s) > 0
}

func (ds CardList) Clone() CardList {
	if ds == nil {
		return nil
	}
	out := make(CardList, len(ds))
	copy(out, ds)
	return out
}

func (ds *CardList) PopCards(size int) ([]Card, bool) {
	if size > ds.Count() {
		return nil, false
	}
	cards := make([]Card, size)
	copy(cards, (*ds)[:size])
	*ds = (*ds)[size:]
	return cards, true
}
