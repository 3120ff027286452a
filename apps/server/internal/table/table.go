package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"trickster/apps/server/internal/archive"
	"trickster/apps/server/internal/auth"
	"trickster/game"
	"trickster/game/npc"
)

// Table is one game room. All mutation runs on the actor goroutine;
// callers talk to it through SubmitEvent.
type Table struct {
	ID string

	log     *zap.Logger
	clock   clock.Clock
	archive archive.Service
	tokens  *auth.Registry
	faults  FaultReporter
	send    func(connID string, data []byte)
	seed    int64

	mu         sync.RWMutex
	game       *game.Game
	seats      [game.NumSeats]*SeatInfo
	brains     [game.NumSeats]*npc.Brain
	hostSeat   game.Seat
	spectators map[string]struct{}
	closed     bool
	stopOnce   sync.Once
	finishedAt time.Time

	// Event channel for actor pattern
	events chan Event
	done   chan struct{}

	// Archive writes run in order on their own goroutine; see persist.go.
	pmu           sync.Mutex
	pcond         *sync.Cond
	pending       []persistOp
	persistClosed bool
	persistDone   chan struct{}

	serverSeq uint64

	// Turn timer for the on-turn human seat; keyed so a late fire is
	// recognised as stale.
	turnTimer      *clock.Timer
	turnKey        TurnKey
	deadline       time.Time
	nextRoundTimer *clock.Timer

	gameOverHooks []GameOverHook
}

// SeatInfo is the occupant of a seat.
type SeatInfo struct {
	Name       string
	Bot        bool
	Difficulty npc.Difficulty
	ConnID     string
	Connected  bool
}

// TurnKey identifies one scheduled turn.
type TurnKey struct {
	GameID string
	Seat   game.Seat
	Turn   uint32
}

// Options carries the collaborators of a table.
type Options struct {
	Logger  *zap.Logger
	Clock   clock.Clock
	Archive archive.Service
	Tokens  *auth.Registry
	Faults  FaultReporter
	Send    func(connID string, data []byte)

	// RNG seed for new games (0 => time-based)
	Seed int64
}

// Event types for the actor message queue
type EventType int

const (
	EventJoin EventType = iota
	EventResume
	EventAddBot
	EventStart
	EventAction
	EventTimeout
	EventBotTurn
	EventNextRound
	EventSpectate
	EventConnLost
	EventDebugScores
	EventClose
)

var EventTypeDictionary = map[EventType]string{
	EventJoin:        "join",
	EventResume:      "resume",
	EventAddBot:      "add_bot",
	EventStart:       "start",
	EventAction:      "action",
	EventTimeout:     "timeout",
	EventBotTurn:     "bot_turn",
	EventNextRound:   "next_round",
	EventSpectate:    "spectate",
	EventConnLost:    "conn_lost",
	EventDebugScores: "debug_scores",
	EventClose:       "close",
}

func (t EventType) String() string {
	if s, ok := EventTypeDictionary[t]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is a message to the table actor. Seat is the target seat of
// join/add-bot (NoSeat picks the first free one) and the acting seat of
// an action; From is the requesting seat for host-only events.
type Event struct {
	Type       EventType
	ConnID     string
	Name       string
	Seat       game.Seat
	From       game.Seat
	Difficulty npc.Difficulty
	Action     game.Action
	Key        TurnKey
	Round      int
	Scores     [2]int
	Response   chan error
}

// GameOverInfo is emitted once the final round settles.
type GameOverInfo struct {
	GameID  string
	Summary game.GameSummary
}

type GameOverHook func(info GameOverInfo)

const roundEndDelay = 3 * time.Second

var (
	ErrTableClosed    = errors.New("table closed")
	ErrTableFull      = errors.New("no free seat")
	ErrSeatTaken      = errors.New("seat taken")
	ErrAlreadySeated  = errors.New("connection already seated")
	ErrNotSeated      = errors.New("seat not occupied")
	ErrNotHost        = errors.New("only the host may do this")
	ErrNotStarted     = errors.New("game not started")
	ErrAlreadyStarted = errors.New("game already started")
	ErrSeatsOpen      = errors.New("all four seats must be filled")
	ErrDesync         = errors.New("turn scheduler out of sync with round state")
)

func New(id string, opts Options) *Table {
	t := newTable(id, opts)
	go t.run()
	go t.persistLoop()
	t.log.Info("table created")
	return t
}

func newTable(id string, opts Options) *Table {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.NewRegistry()
	}
	if opts.Faults == nil {
		opts.Faults = LogFaultReporter{Log: opts.Logger}
	}
	if opts.Send == nil {
		opts.Send = func(string, []byte) {}
	}
	t := &Table{
		ID:         id,
		log:        opts.Logger.With(zap.String("game", id)),
		clock:      opts.Clock,
		archive:    opts.Archive,
		tokens:     opts.Tokens,
		faults:     opts.Faults,
		send:       opts.Send,
		seed:       opts.Seed,
		hostSeat:   game.NoSeat,
		spectators: make(map[string]struct{}),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),

		persistDone: make(chan struct{}),
	}
	t.pcond = sync.NewCond(&t.pmu)
	return t
}

// Restore rebuilds a room saved by the archive. Human seats come back
// disconnected with their old seat tokens; the on-turn seat gets a full
// timer window.
func Restore(room archive.Room, opts Options) (*Table, error) {
	g, err := game.Restore(room.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", room.GameID, err)
	}
	t := newTable(room.GameID, opts)
	t.game = g
	t.hostSeat = room.HostSeat
	for i, rs := range room.Seats {
		if !rs.Occupied {
			continue
		}
		seat := game.Seat(i)
		if rs.Bot {
			d, err := npc.ParseDifficulty(rs.Difficulty)
			if err != nil {
				d = npc.Medium
			}
			t.seatBot(seat, d)
			continue
		}
		t.seats[i] = &SeatInfo{Name: rs.Name}
		if rs.TokenDigest != "" {
			if err := t.tokens.Adopt(auth.SeatRef{GameID: t.ID, Seat: seat}, rs.TokenDigest); err != nil {
				t.log.Warn("seat token not restored", zap.Int("seat", i), zap.Error(err))
			}
		}
	}
	for i, s := range t.seats {
		if s == nil {
			return nil, fmt.Errorf("restore %s: seat %d empty in a started game", room.GameID, i)
		}
	}

	t.mu.Lock()
	state := g.State()
	switch {
	case state.GameOver:
	case state.Phase == game.PhaseRoundOver:
		t.scheduleNextRoundLocked(state.Number)
	default:
		t.armTurnLocked()
	}
	t.mu.Unlock()

	go t.run()
	go t.persistLoop()
	t.log.Info("table restored", zap.Int("round", state.Number), zap.Uint32("turn", state.Turn))
	return t, nil
}

// run is the main actor loop. An event that closes the table is still
// answered before done is closed.
func (t *Table) run() {
	for {
		select {
		case event := <-t.events:
			err := t.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
			if t.IsClosed() {
				t.closeDone()
				t.log.Debug("actor stopped")
				return
			}
		case <-t.done:
			t.log.Debug("actor stopped")
			return
		}
	}
}

func (t *Table) handleEvent(e Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed && e.Type != EventClose {
		return ErrTableClosed
	}

	switch e.Type {
	case EventJoin:
		return t.handleJoin(e)
	case EventResume:
		return t.handleResume(e)
	case EventAddBot:
		return t.handleAddBot(e)
	case EventStart:
		return t.handleStart(e)
	case EventAction:
		return t.handleAction(e)
	case EventTimeout:
		return t.handleTimeout(e.Key)
	case EventBotTurn:
		return t.handleBotTurn(e.Key)
	case EventNextRound:
		return t.handleNextRound(e.Round)
	case EventSpectate:
		return t.handleSpectate(e)
	case EventConnLost:
		return t.handleConnLost(e)
	case EventDebugScores:
		return t.handleDebugScores(e)
	case EventClose:
		t.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// SubmitEvent queues e and waits for the actor's answer.
func (t *Table) SubmitEvent(e Event) error {
	// Buffered so the actor never blocks on a caller that gave up.
	e.Response = make(chan error, 1)

	t.mu.RLock()
	closed := t.closed
	t.mu.RUnlock()
	if closed {
		return ErrTableClosed
	}

	select {
	case t.events <- e:
	case <-t.done:
		return ErrTableClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-t.done:
		select {
		case err := <-e.Response:
			return err
		default:
			return ErrTableClosed
		}
	}
}

// enqueue posts e without waiting for the result.
func (t *Table) enqueue(e Event) {
	select {
	case t.events <- e:
	case <-t.done:
	}
}

// Stop shuts down the table actor. The saved room is kept so the game
// can be restored.
func (t *Table) Stop() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
	t.closeDone()
}

// WaitPersisted blocks until every queued archive write of a stopped
// table has run, or ctx is done.
func (t *Table) WaitPersisted(ctx context.Context) error {
	select {
	case <-t.persistDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopLocked marks the table closed. The actor closes done once it has
// answered the current event.
func (t *Table) stopLocked() {
	t.closed = true
	t.clearTimersLocked()
	t.closePersistLocked()
}

func (t *Table) closeDone() {
	t.stopOnce.Do(func() {
		close(t.done)
	})
}

// closeLocked ends the room for good after a fault.
func (t *Table) closeLocked(reason string) {
	t.broadcastErrorLocked(reason, "room closed")
	t.persistLocked(func() { t.deleteRoom() })
	t.tokens.RevokeGame(t.ID)
	t.stopLocked()
}

func (t *Table) IsClosed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// FinishedAt is zero until the game reaches GameOver.
func (t *Table) FinishedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.finishedAt
}

// State returns a copy of the current round, or nil before the start.
func (t *Table) State() *game.RoundState {
	t.mu.RLock()
	g := t.game
	t.mu.RUnlock()
	if g == nil {
		return nil
	}
	return g.State()
}

// Summary returns the game record so far; ok is false before the start.
func (t *Table) Summary() (game.GameSummary, bool) {
	t.mu.RLock()
	g := t.game
	t.mu.RUnlock()
	if g == nil {
		return game.GameSummary{}, false
	}
	return g.Summary(), true
}

// Info is the lobby listing of a table.
type Info struct {
	ID       string    `json:"id"`
	Started  bool      `json:"started"`
	Occupied int       `json:"occupied"`
	Humans   int       `json:"humans"`
	Round    int       `json:"round"`
	Scores   [2]int    `json:"scores"`
	GameOver bool      `json:"game_over,omitempty"`
	HostSeat game.Seat `json:"host_seat"`
}

func (t *Table) Info() Info {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info := Info{ID: t.ID, Started: t.game != nil, HostSeat: t.hostSeat}
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		info.Occupied++
		if !s.Bot {
			info.Humans++
		}
	}
	if t.game != nil {
		st := t.game.State()
		info.Round = st.Number
		info.Scores = st.Scores
		info.GameOver = st.GameOver
	}
	return info
}

// AddGameOverHook registers a callback run after the final round.
func (t *Table) AddGameOverHook(hook GameOverHook) {
	if hook == nil {
		return
	}
	t.mu.Lock()
	t.gameOverHooks = append(t.gameOverHooks, hook)
	t.mu.Unlock()
}

func (t *Table) dispatchGameOverHooks(sum game.GameSummary) {
	info := GameOverInfo{GameID: t.ID, Summary: sum}
	hooks := append([]GameOverHook(nil), t.gameOverHooks...)
	for _, hook := range hooks {
		go func(cb GameOverHook) {
			defer func() {
				if r := recover(); r != nil {
					t.log.Error("game over hook panic", zap.Any("panic", r))
				}
			}()
			cb(info)
		}(hook)
	}
}

func (t *Table) nextSeq() uint64 {
	t.serverSeq++
	return t.serverSeq
}
