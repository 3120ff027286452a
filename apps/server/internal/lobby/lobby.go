package lobby

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"trickster/apps/server/internal/auth"
	"trickster/apps/server/internal/table"
	"trickster/game"
)

const drainTimeout = 10 * time.Second

// Lobby manages all tables of the process.
type Lobby struct {
	mu     sync.RWMutex
	tables map[string]*table.Table

	// sender is read by table actors without taking mu.
	sender atomic.Value // func(connID string, data []byte)

	opts table.Options
	log  *zap.Logger
}

// New creates a lobby. opts.Send is ignored; frames go to the sender
// installed with SetSender.
func New(opts table.Options) *Lobby {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tokens == nil {
		opts.Tokens = auth.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	l := &Lobby{
		tables: make(map[string]*table.Table),
		log:    opts.Logger.Named("lobby"),
	}
	opts.Send = l.dispatch
	l.opts = opts
	return l
}

func (l *Lobby) SetSender(fn func(connID string, data []byte)) {
	l.sender.Store(fn)
}

func (l *Lobby) dispatch(connID string, data []byte) {
	if fn, ok := l.sender.Load().(func(connID string, data []byte)); ok && fn != nil {
		fn(connID, data)
	}
}

// Tokens is the seat-token registry shared by every table.
func (l *Lobby) Tokens() *auth.Registry { return l.opts.Tokens }

// CreateGame opens a new empty room.
func (l *Lobby) CreateGame() *table.Table {
	id := uuid.NewString()
	t := table.New(id, l.opts)
	l.register(t)
	l.log.Info("game created", zap.String("game", id))
	return t
}

// QuickStart returns a waiting room with a free seat, or a new one.
func (l *Lobby) QuickStart() *table.Table {
	var open []table.Info
	for _, t := range l.snapshot() {
		info := t.Info()
		if !info.Started && info.Occupied < game.NumSeats && !t.IsClosed() {
			open = append(open, info)
		}
	}
	if len(open) > 0 {
		sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
		if t := l.GetTable(open[0].ID); t != nil {
			return t
		}
	}
	return l.CreateGame()
}

func (l *Lobby) register(t *table.Table) {
	t.AddGameOverHook(func(info table.GameOverInfo) {
		l.log.Info("game finished",
			zap.String("game", info.GameID),
			zap.Int("team1", info.Summary.Scores[0]),
			zap.Int("team2", info.Summary.Scores[1]),
			zap.Int("rounds", len(info.Summary.Rounds)),
		)
	})
	l.mu.Lock()
	l.tables[t.ID] = t
	l.mu.Unlock()
}

// GetTable returns a table by ID
func (l *Lobby) GetTable(gameID string) *table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tables[gameID]
}

// ListTables returns the open tables ordered by ID.
func (l *Lobby) ListTables() []table.Info {
	tables := l.snapshot()
	infos := make([]table.Info, 0, len(tables))
	for _, t := range tables {
		if !t.IsClosed() {
			infos = append(infos, t.Info())
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// RestoreFromArchive rebuilds every room saved in the archive.
func (l *Lobby) RestoreFromArchive(ctx context.Context) (int, error) {
	if l.opts.Archive == nil {
		return 0, nil
	}
	rooms, err := l.opts.Archive.LoadRooms(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, room := range rooms {
		if l.GetTable(room.GameID) != nil {
			continue
		}
		t, err := table.Restore(room, l.opts)
		if err != nil {
			l.log.Warn("room not restored", zap.String("game", room.GameID), zap.Error(err))
			continue
		}
		l.register(t)
		restored++
	}
	return restored, nil
}

// Reap drops closed tables and tables finished longer than retention ago.
func (l *Lobby) Reap(retention time.Duration) int {
	now := l.opts.Clock.Now()
	var gone []*table.Table
	for _, t := range l.snapshot() {
		finished := t.FinishedAt()
		if t.IsClosed() || (!finished.IsZero() && now.Sub(finished) >= retention) {
			gone = append(gone, t)
		}
	}
	l.mu.Lock()
	for _, t := range gone {
		delete(l.tables, t.ID)
	}
	l.mu.Unlock()

	for _, t := range gone {
		t.Stop()
		l.opts.Tokens.RevokeGame(t.ID)
		l.log.Debug("table reaped", zap.String("game", t.ID))
	}
	return len(gone)
}

// RunReaper calls Reap every interval until ctx is done.
func (l *Lobby) RunReaper(ctx context.Context, interval, retention time.Duration) {
	ticker := l.opts.Clock.Ticker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Reap(retention)
		}
	}
}

// Close stops every table and waits for their queued archive writes, so
// the archive can be closed right after. Saved rooms stay in the archive.
func (l *Lobby) Close() {
	tables := l.snapshot()
	for _, t := range tables {
		t.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for _, t := range tables {
		if err := t.WaitPersisted(ctx); err != nil {
			l.log.Warn("archive writes not drained", zap.String("game", t.ID), zap.Error(err))
		}
	}
}

// snapshot copies the table set so callers never hold mu while talking
// to a table.
func (l *Lobby) snapshot() []*table.Table {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tables := make([]*table.Table, 0, len(l.tables))
	for _, t := range l.tables {
		tables = append(tables, t)
	}
	return tables
}
