package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"trickster/card"
	"trickster/game"
)

// ClientType values equal the payload field numbers of ClientEnvelope.
type ClientType byte

const (
	ClientUnknown    ClientType = 0
	ClientCreateGame ClientType = 10
	ClientJoinGame   ClientType = 11
	ClientAddBot     ClientType = 12
	ClientStartGame  ClientType = 13
	ClientSubmitBid  ClientType = 14
	ClientPlayCard   ClientType = 15
	ClientSpectate   ClientType = 16
)

var ClientTypeDictionary = map[ClientType]string{
	ClientCreateGame: "create_game",
	ClientJoinGame:   "join_game",
	ClientAddBot:     "add_bot",
	ClientStartGame:  "start_game",
	ClientSubmitBid:  "submit_bid",
	ClientPlayCard:   "play_card",
	ClientSpectate:   "spectate",
}

func (t ClientType) String() string {
	if s, ok := ClientTypeDictionary[t]; ok {
		return s
	}
	return "unknown"
}

// ClientMessage is a decoded ClientEnvelope. Only the fields of Type's
// payload are meaningful.
type ClientMessage struct {
	GameID    string
	SeatToken string
	Type      ClientType

	Name       string
	Seat       game.Seat // NoSeat when absent
	Difficulty string

	Turn   uint32
	Skip   bool
	Amount int
	Trump  card.Suit
	Card   card.Card
}

// Action converts a bid or play payload into an engine action for seat.
func (m ClientMessage) Action(seat game.Seat) (game.Action, error) {
	switch m.Type {
	case ClientSubmitBid:
		if m.Skip {
			return game.SkipAction(seat, m.Turn), nil
		}
		return game.BidAction(seat, m.Turn, m.Amount, m.Trump), nil
	case ClientPlayCard:
		if !m.Card.Valid() {
			return game.Action{}, fmt.Errorf("%w: play_card without card", ErrMalformed)
		}
		return game.PlayAction(seat, m.Turn, m.Card), nil
	}
	return game.Action{}, fmt.Errorf("%w: %s is not a game action", ErrMalformed, m.Type)
}

func EncodeClient(m ClientMessage) []byte {
	var p encoder
	switch m.Type {
	case ClientCreateGame:
		p.string(1, m.Name)
	case ClientJoinGame:
		p.string(1, m.Name)
		if m.Seat.Valid() {
			p.optUint(2, uint64(m.Seat))
		}
	case ClientAddBot:
		if m.Seat.Valid() {
			p.optUint(1, uint64(m.Seat))
		}
		p.string(2, m.Difficulty)
	case ClientSubmitBid:
		p.uint(1, uint64(m.Turn))
		p.bool(2, m.Skip)
		p.uint(3, uint64(m.Amount))
		p.suit(4, m.Trump)
	case ClientPlayCard:
		p.uint(1, uint64(m.Turn))
		p.card(2, m.Card)
	}

	var e encoder
	e.string(1, m.GameID)
	e.string(2, m.SeatToken)
	if m.Type != ClientUnknown {
		e.message(protowire.Number(m.Type), p.b)
	}
	return e.b
}

func DecodeClient(b []byte) (ClientMessage, error) {
	m := ClientMessage{Seat: game.NoSeat, Trump: card.SuitNone, Card: card.CardInvalid}
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.GameID = f.str()
		case 2:
			m.SeatToken = f.str()
		default:
			t := ClientType(f.num)
			if _, ok := ClientTypeDictionary[t]; !ok || f.typ != protowire.BytesType {
				return nil
			}
			m.Type = t
			return decodeClientPayload(&m, f.raw)
		}
		return nil
	})
	if err != nil {
		return ClientMessage{}, err
	}
	if m.Type == ClientUnknown {
		return ClientMessage{}, fmt.Errorf("%w: no payload", ErrMalformed)
	}
	return m, nil
}

func decodeClientPayload(m *ClientMessage, b []byte) error {
	return walk(b, func(f field) error {
		var err error
		switch m.Type {
		case ClientCreateGame:
			if f.num == 1 {
				m.Name = f.str()
			}
		case ClientJoinGame:
			switch f.num {
			case 1:
				m.Name = f.str()
			case 2:
				m.Seat, err = decodeSeat(f)
			}
		case ClientAddBot:
			switch f.num {
			case 1:
				m.Seat, err = decodeSeat(f)
			case 2:
				m.Difficulty = f.str()
			}
		case ClientSubmitBid:
			switch f.num {
			case 1:
				m.Turn = uint32(f.uint())
			case 2:
				m.Skip = f.bool()
			case 3:
				m.Amount = int(f.uint())
			case 4:
				m.Trump, err = f.suit()
			}
		case ClientPlayCard:
			switch f.num {
			case 1:
				m.Turn = uint32(f.uint())
			case 2:
				m.Card, err = f.card()
			}
		}
		return err
	})
}

func decodeSeat(f field) (game.Seat, error) {
	v := f.uint()
	if v >= game.NumSeats {
		return game.NoSeat, fmt.Errorf("%w: seat %d out of range", ErrMalformed, v)
	}
	return game.Seat(v), nil
}
