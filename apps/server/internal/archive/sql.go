package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sqlStore implements Service over database/sql. Queries are written
// with ? placeholders and rebound for dialects that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool
}

func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqlStore) SaveSummary(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.GameID) == "" {
		return fmt.Errorf("empty game id")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(rec.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO game_summaries (
    game_id, finished_at_ms, score_team1, score_team2, winner, rounds, debug, summary_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (game_id) DO UPDATE
SET
    finished_at_ms = EXCLUDED.finished_at_ms,
    score_team1 = EXCLUDED.score_team1,
    score_team2 = EXCLUDED.score_team2,
    winner = EXCLUDED.winner,
    rounds = EXCLUDED.rounds,
    debug = EXCLUDED.debug,
    summary_json = EXCLUDED.summary_json
`), rec.GameID, rec.FinishedAt.UTC().UnixMilli(), rec.Summary.Scores[0], rec.Summary.Scores[1],
		int(rec.Summary.Winner), len(rec.Summary.Rounds), rec.Summary.Debug, string(raw))
	return err
}

func (s *sqlStore) ListRecent(ctx context.Context, limit int) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT game_id, finished_at_ms, score_team1, score_team2, winner, rounds, debug
FROM game_summaries
ORDER BY finished_at_ms DESC, game_id DESC
LIMIT ?
`), clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var (
			it       Item
			finished int64
			winner   int
		)
		if err := rows.Scan(&it.GameID, &finished, &it.Scores[0], &it.Scores[1], &winner, &it.Rounds, &it.Debug); err != nil {
			return nil, err
		}
		it.FinishedAt = time.UnixMilli(finished).UTC()
		it.Winner = teamOf(winner)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *sqlStore) Get(ctx context.Context, gameID string) (Record, error) {
	var (
		finished int64
		raw      string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`
SELECT finished_at_ms, summary_json FROM game_summaries WHERE game_id = ?
`), gameID).Scan(&finished, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec := Record{GameID: gameID, FinishedAt: time.UnixMilli(finished).UTC()}
	if err := json.Unmarshal([]byte(raw), &rec.Summary); err != nil {
		return Record{}, fmt.Errorf("decode summary %s: %w", gameID, err)
	}
	return rec, nil
}

func (s *sqlStore) SaveRoom(ctx context.Context, room Room) error {
	if strings.TrimSpace(room.GameID) == "" {
		return fmt.Errorf("empty game id")
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO room_snapshots (game_id, updated_at_ms, room_json)
VALUES (?, ?, ?)
ON CONFLICT (game_id) DO UPDATE
SET
    updated_at_ms = EXCLUDED.updated_at_ms,
    room_json = EXCLUDED.room_json
`), room.GameID, room.UpdatedAt.UTC().UnixMilli(), string(raw))
	return err
}

func (s *sqlStore) DeleteRoom(ctx context.Context, gameID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM room_snapshots WHERE game_id = ?`), gameID)
	return err
}

func (s *sqlStore) LoadRooms(ctx context.Context) ([]Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT game_id, room_json FROM room_snapshots ORDER BY game_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]Room, 0)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var room Room
		if err := json.Unmarshal([]byte(raw), &room); err != nil {
			return nil, fmt.Errorf("decode room %s: %w", id, err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}
