package gateway

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"trickster/apps/server/internal/auth"
	"trickster/apps/server/internal/codec"
	"trickster/apps/server/internal/lobby"
	"trickster/apps/server/internal/table"
	"trickster/game"
	"trickster/game/npc"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffered = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Gateway *Gateway

	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	games map[string]struct{} // tables this connection joined or watches
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection

	lobby  *lobby.Lobby
	tokens *auth.Registry
	log    *zap.Logger
}

// New creates a gateway and installs it as the lobby's frame sender.
func New(lby *lobby.Lobby, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		tokens:      lby.Tokens(),
		log:         logger.Named("gateway"),
	}
	lby.SetSender(g.Send)
	return g
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	c := &Connection{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffered),
		Gateway: g,
		done:    make(chan struct{}),
		games:   make(map[string]struct{}),
	}
	g.mu.Lock()
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	g.log.Info("client connected", zap.String("conn", c.ID), zap.Int("total", total))

	go c.readPump()
	go c.writePump()
}

// Send queues a frame for connID. It never blocks: table actors call it
// while holding their lock, so a slow client loses frames instead.
func (g *Gateway) Send(connID string, data []byte) {
	g.mu.RLock()
	c := g.connections[connID]
	g.mu.RUnlock()
	if c == nil {
		return
	}
	select {
	case c.Send <- data:
	case <-c.done:
	default:
		g.log.Warn("send buffer full, frame dropped", zap.String("conn", connID))
	}
}

// Close drops every connection.
func (g *Gateway) Close() {
	g.mu.RLock()
	conns := make([]*Connection, 0, len(g.connections))
	for _, c := range g.connections {
		conns = append(conns, c)
	}
	g.mu.RUnlock()
	for _, c := range conns {
		c.close()
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.close()
	}()

	c.Conn.SetReadLimit(readLimit)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Gateway.log.Info("read error", zap.String("conn", c.ID), zap.Error(err))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			c.sendError("", &codec.Error{Code: codec.CodeBadRequest, Reason: "malformed", Message: "binary frames only"})
			continue
		}
		c.handleMessage(message)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.Conn.Close()
	})
}

func (c *Connection) handleMessage(data []byte) {
	msg, err := codec.DecodeClient(data)
	if err != nil {
		c.Gateway.log.Debug("malformed frame", zap.String("conn", c.ID), zap.Error(err))
		c.sendError("", errorFrame(err))
		return
	}
	c.Gateway.log.Debug("frame received", zap.String("conn", c.ID), zap.String("game", msg.GameID), zap.Stringer("type", msg.Type))

	gameID, err := c.dispatch(msg)
	if err != nil {
		if gameID == "" {
			gameID = msg.GameID
		}
		c.sendError(gameID, errorFrame(err))
	}
}

// dispatch routes msg to its table and returns the table's game ID.
func (c *Connection) dispatch(msg codec.ClientMessage) (string, error) {
	g := c.Gateway
	switch msg.Type {
	case codec.ClientCreateGame:
		t := g.lobby.CreateGame()
		c.track(t.ID)
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: c.ID, Name: msg.Name, Seat: game.NoSeat})

	case codec.ClientJoinGame:
		if msg.SeatToken != "" {
			if ref, err := g.tokens.Resolve(msg.SeatToken); err == nil && (msg.GameID == "" || msg.GameID == ref.GameID) {
				t, err := g.table(ref.GameID)
				if err != nil {
					return ref.GameID, err
				}
				c.track(t.ID)
				return t.ID, t.SubmitEvent(table.Event{Type: table.EventResume, ConnID: c.ID, Name: msg.Name, Seat: ref.Seat})
			}
		}
		var t *table.Table
		if msg.GameID == "" {
			t = g.lobby.QuickStart()
		} else {
			var err error
			if t, err = g.table(msg.GameID); err != nil {
				return msg.GameID, err
			}
		}
		c.track(t.ID)
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventJoin, ConnID: c.ID, Name: msg.Name, Seat: msg.Seat})

	case codec.ClientSpectate:
		t, err := g.table(msg.GameID)
		if err != nil {
			return msg.GameID, err
		}
		c.track(t.ID)
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventSpectate, ConnID: c.ID})
	}

	// Everything else acts for a seat and needs its token.
	ref, err := g.tokens.Resolve(msg.SeatToken)
	if err != nil {
		return msg.GameID, err
	}
	if msg.GameID != "" && msg.GameID != ref.GameID {
		return msg.GameID, errTokenMismatch
	}
	t, err := g.table(ref.GameID)
	if err != nil {
		return ref.GameID, err
	}

	switch msg.Type {
	case codec.ClientAddBot:
		var d npc.Difficulty
		if msg.Difficulty != "" {
			if d, err = npc.ParseDifficulty(msg.Difficulty); err != nil {
				return t.ID, &codec.Error{Code: codec.CodeBadRequest, Reason: "unknown_difficulty", Message: err.Error()}
			}
		}
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventAddBot, ConnID: c.ID, From: ref.Seat, Seat: msg.Seat, Difficulty: d})
	case codec.ClientStartGame:
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventStart, ConnID: c.ID, From: ref.Seat})
	case codec.ClientSubmitBid, codec.ClientPlayCard:
		a, err := msg.Action(ref.Seat)
		if err != nil {
			return t.ID, err
		}
		return t.ID, t.SubmitEvent(table.Event{Type: table.EventAction, ConnID: c.ID, Seat: ref.Seat, From: ref.Seat, Action: a})
	}
	return t.ID, codec.ErrMalformed
}

func (g *Gateway) table(gameID string) (*table.Table, error) {
	if gameID == "" {
		return nil, errNoGame
	}
	t := g.lobby.GetTable(gameID)
	if t == nil || t.IsClosed() {
		return nil, errNoGame
	}
	return t, nil
}

func (c *Connection) track(gameID string) {
	c.mu.Lock()
	c.games[gameID] = struct{}{}
	c.mu.Unlock()
}

func (c *Connection) sendError(gameID string, e *codec.Error) {
	c.Gateway.Send(c.ID, codec.EncodeServer(codec.ServerMessage{
		GameID: gameID,
		TsMs:   time.Now().UnixMilli(),
		Error:  e,
	}))
}

// removeConnection forgets c and tells its tables the seat went offline.
func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()

	c.mu.Lock()
	games := make([]string, 0, len(c.games))
	for id := range c.games {
		games = append(games, id)
	}
	c.mu.Unlock()

	for _, id := range games {
		if t := g.lobby.GetTable(id); t != nil {
			if err := t.SubmitEvent(table.Event{Type: table.EventConnLost, ConnID: c.ID}); err != nil && !errors.Is(err, table.ErrTableClosed) {
				g.log.Warn("conn lost not delivered", zap.String("game", id), zap.Error(err))
			}
		}
	}
	g.log.Info("client disconnected", zap.String("conn", c.ID), zap.Int("total", total))
}

// Handler returns the /ws endpoint.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(g.HandleWebSocket)
}
