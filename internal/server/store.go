package server

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// KarmaRecord is the persisted karma of a client address.
type KarmaRecord struct {
	Karma int
	// ReleaseAt is the end of the blacklisting when Karma is negative.
	ReleaseAt time.Time
}

// KarmaStore persists the karma of the client addresses.
type KarmaStore interface {
	LoadKarma(ctx context.Context) (map[string]KarmaRecord, error)
	SaveKarma(ctx context.Context, address string, r KarmaRecord) error
	DeleteKarma(ctx context.Context, address string) error
}

// GameRecord describes a finished game.
type GameRecord struct {
	Channel     uint32
	Seed        uint64
	PlayerCount uint8
	// Winner is the index of the winning player, or -1 for a draw.
	Winner    int
	Ticks     uint32
	StartedAt time.Time
	EndedAt   time.Time
}

// GameRecordStore keeps the finished games.
type GameRecordStore interface {
	SaveGame(ctx context.Context, g GameRecord) error
}

// Store is the sqlite database of the server.
type Store struct {
	db *sql.DB
}

var (
	_ KarmaStore      = (*Store)(nil)
	_ GameRecordStore = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS karma (
	address    TEXT PRIMARY KEY,
	karma      INTEGER NOT NULL,
	release_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS games (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	channel      INTEGER NOT NULL,
	seed         INTEGER NOT NULL,
	player_count INTEGER NOT NULL,
	winner       INTEGER NOT NULL,
	ticks        INTEGER NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER NOT NULL
);
`

// OpenStore opens, and creates if needed, the database at path. Use
// ":memory:" for a transient database.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	// A single connection keeps ":memory:" databases alive and serializes
	// the writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	logger.Info("Database ready.", "path", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadKarma(ctx context.Context) (map[string]KarmaRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address, karma, release_at FROM karma`)
	if err != nil {
		return nil, fmt.Errorf("loading karma: %w", err)
	}
	defer rows.Close()

	out := make(map[string]KarmaRecord)
	for rows.Next() {
		var (
			address   string
			r         KarmaRecord
			releaseAt int64
		)
		if err := rows.Scan(&address, &r.Karma, &releaseAt); err != nil {
			return nil, fmt.Errorf("loading karma: %w", err)
		}
		if releaseAt != 0 {
			r.ReleaseAt = time.Unix(releaseAt, 0)
		}
		out[address] = r
	}

	return out, rows.Err()
}

func (s *Store) SaveKarma(ctx context.Context, address string, r KarmaRecord) error {
	var releaseAt int64
	if !r.ReleaseAt.IsZero() {
		releaseAt = r.ReleaseAt.Unix()
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO karma (address, karma, release_at)
	VALUES (?, ?, ?)
	ON CONFLICT(address) DO UPDATE SET
		karma = excluded.karma,
		release_at = excluded.release_at;
	`, address, r.Karma, releaseAt)
	if err != nil {
		return fmt.Errorf("saving karma of %s: %w", address, err)
	}
	return nil
}

func (s *Store) DeleteKarma(ctx context.Context, address string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM karma WHERE address = ?`, address); err != nil {
		return fmt.Errorf("deleting karma of %s: %w", address, err)
	}
	return nil
}

func (s *Store) SaveGame(ctx context.Context, g GameRecord) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO games (channel, seed, player_count, winner, ticks, started_at, ended_at)
	VALUES (?, ?, ?, ?, ?, ?, ?);
	`, g.Channel, int64(g.Seed), g.PlayerCount, g.Winner, g.Ticks, g.StartedAt.Unix(), g.EndedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving game %d: %w", g.Channel, err)
	}
	return nil
}

// GameCount returns the number of recorded games.
func (s *Store) GameCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting games: %w", err)
	}
	return n, nil
}
