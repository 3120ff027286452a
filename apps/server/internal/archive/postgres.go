package archive

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type PostgresService struct {
	sqlStore
}

func NewPostgresService(dsn string) (*PostgresService, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresService{sqlStore{db: db, numbered: true}}, nil
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS game_summaries (
    game_id TEXT PRIMARY KEY,
    finished_at_ms BIGINT NOT NULL,
    score_team1 INTEGER NOT NULL,
    score_team2 INTEGER NOT NULL,
    winner SMALLINT NOT NULL,
    rounds INTEGER NOT NULL,
    debug BOOLEAN NOT NULL DEFAULT FALSE,
    summary_json JSONB NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_game_summaries_finished ON game_summaries(finished_at_ms DESC)`,
		`
CREATE TABLE IF NOT EXISTS room_snapshots (
    game_id TEXT PRIMARY KEY,
    updated_at_ms BIGINT NOT NULL,
    room_json JSONB NOT NULL
)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
