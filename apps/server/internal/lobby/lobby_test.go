package lobby

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trickster/apps/server/internal/archive"
	"trickster/apps/server/internal/table"
	"trickster/game"
	"trickster/game/npc"
)

func newLobby(t *testing.T, svc archive.Service) (*Lobby, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	l := New(table.Options{Logger: zap.NewNop(), Clock: mock, Archive: svc, Seed: 17})
	t.Cleanup(l.Close)
	return l, mock
}

func TestLobby_QuickStartFillsWaitingRoom(t *testing.T) {
	l, _ := newLobby(t, nil)
	first := l.QuickStart()
	require.NoError(t, first.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: "c0", Seat: game.NoSeat}))
	assert.Same(t, first, l.QuickStart())

	for i := 0; i < 3; i++ {
		require.NoError(t, first.SubmitEvent(table.Event{Type: table.EventAddBot, From: 0, Seat: game.NoSeat, Difficulty: npc.Easy}))
	}
	second := l.QuickStart()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, l.ListTables(), 2)
	assert.Same(t, second, l.GetTable(second.ID))
}

func TestLobby_RestoreFromArchive(t *testing.T) {
	svc := archive.NewMemoryService()
	l, _ := newLobby(t, svc)
	tbl := l.CreateGame()
	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: "c0", Seat: game.NoSeat}))
	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventAddBot, From: 0, Seat: game.NoSeat, Difficulty: npc.Medium}))
	}
	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventStart, From: 0}))
	require.Eventually(t, func() bool {
		rooms, err := svc.LoadRooms(context.Background())
		return err == nil && len(rooms) == 1
	}, 5*time.Second, 2*time.Millisecond)
	l.Close()

	restartedLobby, _ := newLobby(t, svc)
	n, err := restartedLobby.RestoreFromArchive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	restored := restartedLobby.GetTable(tbl.ID)
	require.NotNil(t, restored)
	assert.True(t, restored.Info().Started)

	n, err = restartedLobby.RestoreFromArchive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// closingArchive counts room saves that arrive after it was closed.
type closingArchive struct {
	*archive.MemoryService
	closed atomic.Bool
	late   atomic.Int32
	saved  atomic.Int32
}

func (a *closingArchive) SaveRoom(ctx context.Context, room archive.Room) error {
	time.Sleep(2 * time.Millisecond)
	if a.closed.Load() {
		a.late.Add(1)
	}
	a.saved.Add(1)
	return a.MemoryService.SaveRoom(ctx, room)
}

func TestLobby_CloseDrainsArchiveWrites(t *testing.T) {
	svc := &closingArchive{MemoryService: archive.NewMemoryService()}
	l, _ := newLobby(t, svc)
	for i := 0; i < 3; i++ {
		tbl := l.CreateGame()
		for s := 0; s < game.NumSeats; s++ {
			require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventAddBot, From: game.NoSeat, Seat: game.NoSeat, Difficulty: npc.Medium}))
		}
		require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventStart, From: game.NoSeat}))
	}

	l.Close()
	svc.closed.Store(true)
	time.Sleep(50 * time.Millisecond)
	assert.Positive(t, svc.saved.Load())
	assert.Zero(t, svc.late.Load())
}

func TestLobby_ReapClosedTables(t *testing.T) {
	l, _ := newLobby(t, nil)
	a := l.CreateGame()
	b := l.CreateGame()
	a.Stop()

	assert.Equal(t, 1, l.Reap(time.Hour))
	assert.Nil(t, l.GetTable(a.ID))
	assert.NotNil(t, l.GetTable(b.ID))
}

func TestHTTPHandler_DebugRouteOnlyWhenEnabled(t *testing.T) {
	l, _ := newLobby(t, nil)
	tbl := l.CreateGame()

	mux := http.NewServeMux()
	NewHTTPHandler(l, false, zap.NewNop()).RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/games/"+tbl.ID+"/scores", strings.NewReader(`{"team1":40}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mux = http.NewServeMux()
	NewHTTPHandler(l, true, zap.NewNop()).RegisterRoutes(mux)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/games/"+tbl.ID+"/scores", strings.NewReader(`{"team1":40}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: "c0", Seat: game.NoSeat}))
	for i := 0; i < 3; i++ {
		require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventAddBot, From: 0, Seat: game.NoSeat}))
	}
	require.NoError(t, tbl.SubmitEvent(table.Event{Type: table.EventStart, From: 0}))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/games/"+tbl.ID+"/scores", strings.NewReader(`{"team1":40,"team2":12}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]int{40, 12}, tbl.State().Scores)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), tbl.ID)
}
