package gateway

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trickster/apps/server/internal/codec"
	"trickster/apps/server/internal/lobby"
	"trickster/apps/server/internal/table"
	"trickster/game"
)

type client struct {
	t    *testing.T
	conn *websocket.Conn
}

func newServer(t *testing.T) (*lobby.Lobby, string) {
	t.Helper()
	lby := lobby.New(table.Options{Logger: zap.NewNop(), Clock: clock.NewMock(), Seed: 5})
	gw := New(lby, zap.NewNop())
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(func() {
		srv.Close()
		gw.Close()
		lby.Close()
	})
	return lby, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *client {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &client{t: t, conn: conn}
}

func (c *client) send(m codec.ClientMessage) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteMessage(websocket.BinaryMessage, codec.EncodeClient(m)))
}

// await reads frames until one of type typ arrives.
func (c *client) await(typ codec.ServerType) codec.ServerMessage {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		_, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		msg, err := codec.DecodeServer(data)
		require.NoError(c.t, err)
		if msg.Type() == typ {
			return msg
		}
	}
}

func TestGateway_CreateAddBotsAndStart(t *testing.T) {
	lby, url := newServer(t)
	host := dial(t, url)

	host.send(codec.ClientMessage{Type: codec.ClientCreateGame, Name: "ana"})
	joined := host.await(codec.ServerJoined)
	require.NotNil(t, joined.Joined)
	assert.Equal(t, game.Seat(0), joined.Joined.Seat)
	require.NotEmpty(t, joined.Joined.Token)
	gameID := joined.GameID
	require.NotNil(t, lby.GetTable(gameID))

	for i := 0; i < 3; i++ {
		host.send(codec.ClientMessage{GameID: gameID, SeatToken: joined.Joined.Token, Type: codec.ClientAddBot, Seat: game.NoSeat, Difficulty: "easy"})
		host.await(codec.ServerSnapshot)
	}
	host.send(codec.ClientMessage{GameID: gameID, SeatToken: joined.Joined.Token, Type: codec.ClientStartGame})

	require.Eventually(t, func() bool {
		return lby.GetTable(gameID).Info().Started
	}, 5*time.Second, 5*time.Millisecond)
	info := lby.GetTable(gameID).Info()
	assert.Equal(t, 4, info.Occupied)
	assert.Equal(t, 1, info.Humans)
}

func TestGateway_UnknownTokenIsUnauthorized(t *testing.T) {
	_, url := newServer(t)
	c := dial(t, url)

	c.send(codec.ClientMessage{Type: codec.ClientStartGame, SeatToken: "nope"})
	msg := c.await(codec.ServerError)
	assert.Equal(t, codec.CodeUnauthorized, msg.Error.Code)
	assert.Equal(t, "unknown_token", msg.Error.Reason)
}

func TestGateway_ResumeWithToken(t *testing.T) {
	lby, url := newServer(t)
	first := dial(t, url)
	first.send(codec.ClientMessage{Type: codec.ClientCreateGame, Name: "ana"})
	joined := first.await(codec.ServerJoined)
	_ = first.conn.Close()

	second := dial(t, url)
	second.send(codec.ClientMessage{GameID: joined.GameID, SeatToken: joined.Joined.Token, Type: codec.ClientJoinGame})
	resumed := second.await(codec.ServerJoined)
	assert.Equal(t, joined.GameID, resumed.GameID)
	assert.Equal(t, game.Seat(0), resumed.Joined.Seat)

	require.Eventually(t, func() bool {
		return lby.GetTable(joined.GameID).Info().Humans == 1
	}, 5*time.Second, 5*time.Millisecond)
}

func TestGateway_SpectateUnknownGame(t *testing.T) {
	_, url := newServer(t)
	c := dial(t, url)
	c.send(codec.ClientMessage{GameID: "missing", Type: codec.ClientSpectate})
	msg := c.await(codec.ServerError)
	assert.Equal(t, codec.CodeNotFound, msg.Error.Code)
	assert.Equal(t, "missing", msg.GameID)
}

func TestErrorFrame(t *testing.T) {
	rejected := &game.Rejection{Action: game.SkipAction(0, 1), Reason: game.ErrStaleTurn}
	tests := []struct {
		err    error
		code   int32
		reason string
	}{
		{rejected, codec.CodeRejected, "stale_turn"},
		{&game.Rejection{Reason: game.ErrMustFollowSuit}, codec.CodeRejected, "must_follow_suit"},
		{fmt.Errorf("%w: short", codec.ErrMalformed), codec.CodeBadRequest, "malformed"},
		{table.ErrNotHost, codec.CodeRejected, "not_host"},
		{errors.New("boom"), codec.CodeInternal, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			got := errorFrame(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}
