package archive

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"trickster/apps/server/internal/config"
	"trickster/game"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

var ErrNotFound = errors.New("not found")

// Record is one finished game.
type Record struct {
	GameID     string           `json:"game_id"`
	FinishedAt time.Time        `json:"finished_at"`
	Summary    game.GameSummary `json:"summary"`
}

// Item is the listing form of a Record, without the round history.
type Item struct {
	GameID     string    `json:"game_id"`
	FinishedAt time.Time `json:"finished_at"`
	Scores     [2]int    `json:"scores"`
	Winner     game.Team `json:"winner"`
	Rounds     int       `json:"rounds"`
	Debug      bool      `json:"debug,omitempty"`
}

func (r Record) Item() Item {
	return Item{
		GameID:     r.GameID,
		FinishedAt: r.FinishedAt,
		Scores:     r.Summary.Scores,
		Winner:     r.Summary.Winner,
		Rounds:     len(r.Summary.Rounds),
		Debug:      r.Summary.Debug,
	}
}

// RoomSeat is the persisted occupant of a seat. Humans keep only the
// digest of their seat token.
type RoomSeat struct {
	Occupied    bool   `json:"occupied,omitempty"`
	Name        string `json:"name,omitempty"`
	Bot         bool   `json:"bot,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	TokenDigest string `json:"token_digest,omitempty"`
}

// Room is an active game, saved after every committed transition.
type Room struct {
	GameID    string                  `json:"game_id"`
	UpdatedAt time.Time               `json:"updated_at"`
	HostSeat  game.Seat               `json:"host_seat"`
	Seats     [game.NumSeats]RoomSeat `json:"seats"`
	Snapshot  game.Snapshot           `json:"snapshot"`
}

type Service interface {
	Close() error
	SaveSummary(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, limit int) ([]Item, error)
	Get(ctx context.Context, gameID string) (Record, error)
	SaveRoom(ctx context.Context, room Room) error
	DeleteRoom(ctx context.Context, gameID string) error
	LoadRooms(ctx context.Context) ([]Room, error)
}

// Open selects the store named by cfg.Store.
func Open(cfg config.Config, logger *zap.Logger) (Service, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return NewMemoryService(), nil
	case config.StoreSQLite:
		logger.Info("archive: sqlite", zap.String("path", cfg.SQLitePath))
		return NewSQLiteService(cfg.SQLitePath)
	case config.StorePostgres:
		logger.Info("archive: postgres")
		return NewPostgresService(cfg.DatabaseDSN)
	}
	return nil, fmt.Errorf("unsupported store %q", cfg.Store)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

// MemoryService keeps everything in process; nothing survives a restart.
type MemoryService struct {
	mu      sync.RWMutex
	records map[string]Record
	rooms   map[string]Room
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		records: make(map[string]Record),
		rooms:   make(map[string]Room),
	}
}

func (m *MemoryService) Close() error { return nil }

func (m *MemoryService) SaveSummary(_ context.Context, rec Record) error {
	if rec.GameID == "" {
		return fmt.Errorf("empty game id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.GameID] = rec
	return nil
}

func (m *MemoryService) ListRecent(_ context.Context, limit int) ([]Item, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	items := make([]Item, 0, len(m.records))
	for _, rec := range m.records {
		items = append(items, rec.Item())
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].FinishedAt.Equal(items[j].FinishedAt) {
			return items[i].FinishedAt.After(items[j].FinishedAt)
		}
		return items[i].GameID > items[j].GameID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *MemoryService) Get(_ context.Context, gameID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[gameID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryService) SaveRoom(_ context.Context, room Room) error {
	if room.GameID == "" {
		return fmt.Errorf("empty game id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.GameID] = room
	return nil
}

func (m *MemoryService) DeleteRoom(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, gameID)
	return nil
}

func (m *MemoryService) LoadRooms(_ context.Context) ([]Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rooms := make([]Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].GameID < rooms[j].GameID })
	return rooms, nil
}

func teamOf(v int) game.Team {
	t := game.Team(v)
	if !t.Valid() {
		return game.NoTeam
	}
	return t
}
