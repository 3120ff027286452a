package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"trickster/card"
	"trickster/game"
)

func TestClient_JoinKeepsSeatZero(t *testing.T) {
	in := ClientMessage{GameID: "g1", Type: ClientJoinGame, Name: "ann", Seat: 0}
	out, err := DecodeClient(EncodeClient(in))
	require.NoError(t, err)
	assert.Equal(t, game.Seat(0), out.Seat)
	assert.Equal(t, "ann", out.Name)

	in.Seat = game.NoSeat
	out, err = DecodeClient(EncodeClient(in))
	require.NoError(t, err)
	assert.Equal(t, game.NoSeat, out.Seat)
}

func TestClient_BidAndPlayActions(t *testing.T) {
	bid := ClientMessage{GameID: "g1", SeatToken: "tok", Type: ClientSubmitBid, Turn: 3, Amount: 7, Trump: card.SuitC}
	out, err := DecodeClient(EncodeClient(bid))
	require.NoError(t, err)
	assert.Equal(t, "tok", out.SeatToken)
	a, err := out.Action(2)
	require.NoError(t, err)
	assert.Equal(t, game.BidAction(2, 3, 7, card.SuitC), a)

	skip := ClientMessage{Type: ClientSubmitBid, Turn: 0, Skip: true}
	out, err = DecodeClient(EncodeClient(skip))
	require.NoError(t, err)
	a, err = out.Action(1)
	require.NoError(t, err)
	assert.Equal(t, game.SkipAction(1, 0), a)

	play := ClientMessage{Type: ClientPlayCard, Turn: 9, Card: card.MustParse("D0")}
	out, err = DecodeClient(EncodeClient(play))
	require.NoError(t, err)
	a, err = out.Action(3)
	require.NoError(t, err)
	assert.Equal(t, game.PlayAction(3, 9, card.PenaltyZero), a)
}

func TestClient_EmptyPayloadMessagesAreDetected(t *testing.T) {
	out, err := DecodeClient(EncodeClient(ClientMessage{GameID: "g1", Type: ClientStartGame}))
	require.NoError(t, err)
	assert.Equal(t, ClientStartGame, out.Type)

	_, err = out.Action(0)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestClient_Malformed(t *testing.T) {
	_, err := DecodeClient([]byte{0xff})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeClient(EncodeClient(ClientMessage{GameID: "g1"}))
	assert.ErrorIs(t, err, ErrMalformed)

	var p encoder
	p.string(2, "Z9")
	var e encoder
	e.message(protowire.Number(ClientPlayCard), p.b)
	_, err = DecodeClient(e.b)
	assert.ErrorIs(t, err, ErrMalformed)

	var q encoder
	q.optUint(1, 4)
	var f encoder
	f.message(protowire.Number(ClientAddBot), q.b)
	_, err = DecodeClient(f.b)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestServer_SnapshotCarriesOnlyOwnHand(t *testing.T) {
	r := game.NewRound(2, 3, 17, [2]int{12, -4}, 99)
	view := r.ViewFor(1)
	in := ServerMessage{
		GameID: "g1",
		Seq:    5,
		TsMs:   1700000000000,
		Snapshot: &Snapshot{
			Started:     true,
			HostSeat:    0,
			RemainingMs: 42000,
			View:        view,
			Players: [game.NumSeats]PlayerInfo{
				{Occupied: true, Name: "ann", Connected: true},
				{Occupied: true, Name: "bob", Connected: true},
				{Occupied: true, Name: "bot-hard", Bot: true, Difficulty: "hard"},
				{Occupied: true, Name: "cy"},
			},
		},
	}
	out, err := DecodeServer(EncodeServer(in))
	require.NoError(t, err)
	require.Equal(t, ServerSnapshot, out.Type())
	assert.Equal(t, uint64(5), out.Seq)

	got := out.Snapshot
	assert.Equal(t, in.Snapshot.Players, got.Players)
	assert.Equal(t, uint32(42000), got.RemainingMs)
	assert.Equal(t, view.OnTurn, got.View.OnTurn)
	assert.Equal(t, view.Scores, got.View.Scores)
	assert.Equal(t, game.NoSeat, got.View.Bidder)
	assert.Equal(t, game.NoTeam, got.View.Winner)
	assert.ElementsMatch(t, view.Seats[1].Hand, got.View.Seats[1].Hand)
	for _, seat := range []int{0, 2, 3} {
		assert.Empty(t, got.View.Seats[seat].Hand)
		assert.Equal(t, game.HandSize, got.View.Seats[seat].HandSize)
	}
}

func TestServer_EventsRoundTrip(t *testing.T) {
	trick := game.TrickResult{
		Cards: []game.Play{
			{Seat: 1, Card: card.MustParse("A3")},
			{Seat: 2, Card: card.MustParse("A0")},
			{Seat: 3, Card: card.MustParse("D0")},
			{Seat: 0, Card: card.MustParse("A7")},
		},
		Winner: 0,
		Points: 4,
	}
	out, err := DecodeServer(EncodeServer(ServerMessage{GameID: "g1", Trick: &trick}))
	require.NoError(t, err)
	assert.Equal(t, &trick, out.Trick)

	res := game.RoundResult{
		Number: 4, Dealer: 2, Bidder: 3, Contract: 9, Trump: card.SuitB,
		Made: false, TeamPoints: [2]int{5, 6}, Delta: [2]int{5, -9},
		Scores: [2]int{44, 20}, GameOver: true, Winner: game.Team1,
	}
	out, err = DecodeServer(EncodeServer(ServerMessage{Round: &res}))
	require.NoError(t, err)
	assert.Equal(t, &res, out.Round)

	rej := &Error{Code: CodeRejected, Reason: "stale_turn", Message: "stale turn"}
	out, err = DecodeServer(EncodeServer(ServerMessage{Error: rej}))
	require.NoError(t, err)
	assert.Equal(t, rej, out.Error)
}
