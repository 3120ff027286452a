package codec

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"trickster/card"
	"trickster/game"
)

// ServerType values equal the payload field numbers of ServerEnvelope.
type ServerType byte

const (
	ServerUnknown       ServerType = 0
	ServerJoined        ServerType = 10
	ServerSnapshot      ServerType = 11
	ServerTrickResolved ServerType = 12
	ServerRoundEnded    ServerType = 13
	ServerGameOver      ServerType = 14
	ServerError         ServerType = 15
)

// Error codes carried by ServerError.
const (
	CodeBadRequest   int32 = 400
	CodeUnauthorized int32 = 401
	CodeNotFound     int32 = 404
	CodeRejected     int32 = 409
	CodeInternal     int32 = 500
)

type Joined struct {
	Seat      game.Seat
	Token     string
	Spectator bool
}

// PlayerInfo describes who sits in a seat, independent of the round.
type PlayerInfo struct {
	Occupied   bool
	Name       string
	Bot        bool
	Difficulty string
	Connected  bool
}

type Snapshot struct {
	Started     bool
	HostSeat    game.Seat
	RemainingMs uint32
	View        game.View
	Players     [game.NumSeats]PlayerInfo
}

type GameOver struct {
	Winner game.Team
	Scores [2]int
}

type Error struct {
	Code    int32
	Reason  string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%d %s: %s", e.Code, e.Reason, e.Message) }

// ServerMessage is one ServerEnvelope; exactly one payload pointer is set.
type ServerMessage struct {
	GameID string
	Seq    uint64
	TsMs   int64

	Joined   *Joined
	Snapshot *Snapshot
	Trick    *game.TrickResult
	Round    *game.RoundResult
	GameOver *GameOver
	Error    *Error
}

func (m ServerMessage) Type() ServerType {
	switch {
	case m.Joined != nil:
		return ServerJoined
	case m.Snapshot != nil:
		return ServerSnapshot
	case m.Trick != nil:
		return ServerTrickResolved
	case m.Round != nil:
		return ServerRoundEnded
	case m.GameOver != nil:
		return ServerGameOver
	case m.Error != nil:
		return ServerError
	}
	return ServerUnknown
}

func EncodeServer(m ServerMessage) []byte {
	var p encoder
	switch {
	case m.Joined != nil:
		p.sint(1, int64(m.Joined.Seat))
		p.string(2, m.Joined.Token)
		p.bool(3, m.Joined.Spectator)
	case m.Snapshot != nil:
		p.b = appendSnapshot(p.b, m.Snapshot)
	case m.Trick != nil:
		p.message(1, appendTrickResult(nil, *m.Trick))
	case m.Round != nil:
		p.b = appendRoundResult(p.b, *m.Round)
	case m.GameOver != nil:
		p.sint(1, int64(m.GameOver.Winner))
		p.sint(2, int64(m.GameOver.Scores[0]))
		p.sint(3, int64(m.GameOver.Scores[1]))
	case m.Error != nil:
		p.uint(1, uint64(uint32(m.Error.Code)))
		p.string(2, m.Error.Reason)
		p.string(3, m.Error.Message)
	}

	var e encoder
	e.string(1, m.GameID)
	e.uint(2, m.Seq)
	e.sint(3, m.TsMs)
	if t := m.Type(); t != ServerUnknown {
		e.message(protowire.Number(t), p.b)
	}
	return e.b
}

func appendSnapshot(b []byte, s *Snapshot) []byte {
	e := encoder{b: b}
	v := s.View
	e.bool(1, s.Started)
	e.sint(2, int64(v.Viewer))
	e.uint(3, uint64(v.Round))
	e.uint(4, uint64(v.Phase))
	e.sint(5, int64(v.Dealer))
	e.sint(6, int64(v.OnTurn))
	e.uint(7, uint64(v.Turn))
	for _, bid := range v.Bids {
		var be encoder
		be.sint(1, int64(bid.Seat))
		be.bool(2, bid.Skip)
		be.uint(3, uint64(bid.Amount))
		be.suit(4, bid.Trump)
		e.message(8, be.b)
	}
	e.sint(9, int64(v.Bidder))
	e.uint(10, uint64(v.Contract))
	e.suit(11, v.Trump)
	e.bool(12, v.ForcedBid)
	e.message(13, appendTrick(nil, v.Trick))
	if v.LastTrick != nil {
		e.message(14, appendTrickResult(nil, *v.LastTrick))
	}
	e.uint(15, uint64(v.TricksPlayed))
	for i, st := range v.Seats {
		var se encoder
		pl := s.Players[i]
		se.sint(1, int64(i))
		se.uint(2, uint64(st.HandSize))
		for _, c := range st.Hand {
			se.b = protowire.AppendTag(se.b, 3, protowire.BytesType)
			se.b = protowire.AppendString(se.b, c.String())
		}
		se.uint(4, uint64(st.Tricks))
		se.sint(5, int64(st.Points))
		se.string(6, pl.Name)
		se.bool(7, pl.Bot)
		se.string(8, pl.Difficulty)
		se.bool(9, pl.Connected)
		se.bool(10, pl.Occupied)
		e.message(16, se.b)
	}
	e.sint(17, int64(v.Scores[0]))
	e.sint(18, int64(v.Scores[1]))
	e.bool(19, v.GameOver)
	e.sint(20, int64(v.Winner))
	e.uint(21, uint64(s.RemainingMs))
	e.sint(22, int64(s.HostSeat))
	return e.b
}

func appendPlays(e *encoder, num protowire.Number, plays []game.Play) {
	for _, pl := range plays {
		var pe encoder
		pe.sint(1, int64(pl.Seat))
		pe.card(2, pl.Card)
		e.message(num, pe.b)
	}
}

func appendTrick(b []byte, t game.Trick) []byte {
	e := encoder{b: b}
	e.sint(1, int64(t.Leader))
	appendPlays(&e, 2, t.Plays)
	return e.b
}

func appendTrickResult(b []byte, t game.TrickResult) []byte {
	e := encoder{b: b}
	if len(t.Cards) > 0 {
		e.sint(1, int64(t.Cards[0].Seat))
	}
	appendPlays(&e, 2, t.Cards)
	e.sint(3, int64(t.Winner))
	e.sint(4, int64(t.Points))
	return e.b
}

func appendRoundResult(b []byte, r game.RoundResult) []byte {
	e := encoder{b: b}
	e.uint(1, uint64(r.Number))
	e.sint(2, int64(r.Bidder))
	e.uint(3, uint64(r.Contract))
	e.suit(4, r.Trump)
	e.bool(5, r.Made)
	e.sint(6, int64(r.TeamPoints[0]))
	e.sint(7, int64(r.TeamPoints[1]))
	e.sint(8, int64(r.Delta[0]))
	e.sint(9, int64(r.Delta[1]))
	e.sint(10, int64(r.Scores[0]))
	e.sint(11, int64(r.Scores[1]))
	e.bool(12, r.GameOver)
	e.sint(13, int64(r.Winner))
	e.bool(14, r.ForcedBid)
	e.sint(15, int64(r.Dealer))
	return e.b
}

// DecodeServer is the client-side counterpart of EncodeServer.
func DecodeServer(b []byte) (ServerMessage, error) {
	var m ServerMessage
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			m.GameID = f.str()
			return nil
		case 2:
			m.Seq = f.uint()
			return nil
		case 3:
			m.TsMs = f.sint()
			return nil
		}
		if f.typ != protowire.BytesType {
			return nil
		}
		switch ServerType(f.num) {
		case ServerJoined:
			j := &Joined{}
			m.Joined = j
			return walk(f.raw, func(f field) error {
				switch f.num {
				case 1:
					j.Seat = game.Seat(f.sint())
				case 2:
					j.Token = f.str()
				case 3:
					j.Spectator = f.bool()
				}
				return nil
			})
		case ServerSnapshot:
			s, err := decodeSnapshot(f.raw)
			m.Snapshot = s
			return err
		case ServerTrickResolved:
			return walk(f.raw, func(f field) error {
				if f.num != 1 {
					return nil
				}
				t, err := decodeTrick(f.raw)
				if err != nil {
					return err
				}
				m.Trick = &game.TrickResult{Cards: t.Plays, Winner: t.winner, Points: t.points}
				return nil
			})
		case ServerRoundEnded:
			r, err := decodeRoundResult(f.raw)
			m.Round = r
			return err
		case ServerGameOver:
			g := &GameOver{}
			m.GameOver = g
			return walk(f.raw, func(f field) error {
				switch f.num {
				case 1:
					g.Winner = game.Team(f.sint())
				case 2:
					g.Scores[0] = int(f.sint())
				case 3:
					g.Scores[1] = int(f.sint())
				}
				return nil
			})
		case ServerError:
			e := &Error{}
			m.Error = e
			return walk(f.raw, func(f field) error {
				switch f.num {
				case 1:
					e.Code = int32(uint32(f.uint()))
				case 2:
					e.Reason = f.str()
				case 3:
					e.Message = f.str()
				}
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return ServerMessage{}, err
	}
	if m.Type() == ServerUnknown {
		return ServerMessage{}, fmt.Errorf("%w: no payload", ErrMalformed)
	}
	return m, nil
}

type wireTrick struct {
	game.Trick
	winner game.Seat
	points int
}

func decodeTrick(b []byte) (wireTrick, error) {
	var t wireTrick
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			t.Leader = game.Seat(f.sint())
		case 2:
			pl := game.Play{Card: card.CardInvalid}
			err := walk(f.raw, func(f field) error {
				var err error
				switch f.num {
				case 1:
					pl.Seat = game.Seat(f.sint())
				case 2:
					pl.Card, err = f.card()
				}
				return err
			})
			if err != nil {
				return err
			}
			t.Plays = append(t.Plays, pl)
		case 3:
			t.winner = game.Seat(f.sint())
		case 4:
			t.points = int(f.sint())
		}
		return nil
	})
	return t, err
}

func decodeSnapshot(b []byte) (*Snapshot, error) {
	s := &Snapshot{}
	v := &s.View
	v.Trump = card.SuitNone
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			s.Started = f.bool()
		case 2:
			v.Viewer = game.Seat(f.sint())
		case 3:
			v.Round = int(f.uint())
		case 4:
			v.Phase = game.Phase(f.uint())
		case 5:
			v.Dealer = game.Seat(f.sint())
		case 6:
			v.OnTurn = game.Seat(f.sint())
		case 7:
			v.Turn = uint32(f.uint())
		case 8:
			bid := game.Bid{Trump: card.SuitNone}
			err = walk(f.raw, func(f field) error {
				var err error
				switch f.num {
				case 1:
					bid.Seat = game.Seat(f.sint())
				case 2:
					bid.Skip = f.bool()
				case 3:
					bid.Amount = int(f.uint())
				case 4:
					bid.Trump, err = f.suit()
				}
				return err
			})
			v.Bids = append(v.Bids, bid)
		case 9:
			v.Bidder = game.Seat(f.sint())
		case 10:
			v.Contract = int(f.uint())
		case 11:
			v.Trump, err = f.suit()
		case 12:
			v.ForcedBid = f.bool()
		case 13:
			var t wireTrick
			t, err = decodeTrick(f.raw)
			v.Trick = t.Trick
		case 14:
			var t wireTrick
			t, err = decodeTrick(f.raw)
			v.LastTrick = &game.TrickResult{Cards: t.Plays, Winner: t.winner, Points: t.points}
		case 15:
			v.TricksPlayed = int(f.uint())
		case 16:
			err = decodeSeatState(s, f.raw)
		case 17:
			v.Scores[0] = int(f.sint())
		case 18:
			v.Scores[1] = int(f.sint())
		case 19:
			v.GameOver = f.bool()
		case 20:
			v.Winner = game.Team(f.sint())
		case 21:
			s.RemainingMs = uint32(f.uint())
		case 22:
			s.HostSeat = game.Seat(f.sint())
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func decodeSeatState(s *Snapshot, b []byte) error {
	var st game.SeatState
	var pl PlayerInfo
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			st.Seat = game.Seat(f.sint())
		case 2:
			st.HandSize = int(f.uint())
		case 3:
			c, err := f.card()
			if err != nil {
				return err
			}
			st.Hand = append(st.Hand, c)
		case 4:
			st.Tricks = int(f.uint())
		case 5:
			st.Points = int(f.sint())
		case 6:
			pl.Name = f.str()
		case 7:
			pl.Bot = f.bool()
		case 8:
			pl.Difficulty = f.str()
		case 9:
			pl.Connected = f.bool()
		case 10:
			pl.Occupied = f.bool()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !st.Seat.Valid() {
		return fmt.Errorf("%w: seat state for %d", ErrMalformed, st.Seat)
	}
	st.Team = st.Seat.Team()
	s.View.Seats[st.Seat] = st
	s.Players[st.Seat] = pl
	return nil
}

func decodeRoundResult(b []byte) (*game.RoundResult, error) {
	r := &game.RoundResult{Trump: card.SuitNone}
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			r.Number = int(f.uint())
		case 2:
			r.Bidder = game.Seat(f.sint())
		case 3:
			r.Contract = int(f.uint())
		case 4:
			r.Trump, err = f.suit()
		case 5:
			r.Made = f.bool()
		case 6:
			r.TeamPoints[0] = int(f.sint())
		case 7:
			r.TeamPoints[1] = int(f.sint())
		case 8:
			r.Delta[0] = int(f.sint())
		case 9:
			r.Delta[1] = int(f.sint())
		case 10:
			r.Scores[0] = int(f.sint())
		case 11:
			r.Scores[1] = int(f.sint())
		case 12:
			r.GameOver = f.bool()
		case 13:
			r.Winner = game.Team(f.sint())
		case 14:
			r.ForcedBid = f.bool()
		case 15:
			r.Dealer = game.Seat(f.sint())
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}
