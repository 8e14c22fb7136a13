package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"memory-duel-server/game"
	"memory-duel-server/playerrors"
)

const createSessionsSQL = `
CREATE TABLE IF NOT EXISTS game_sessions (
	player_id  TEXT PRIMARY KEY,
	handle     TEXT NOT NULL,
	game       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteStore keeps entries in a SQLite file so games in progress survive a restart.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			slog.Debug("sqlite pragma failed", "tag", "session", "pragma", pragma, "err", err)
		}
	}
	if _, err := db.Exec(createSessionsSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	slog.Info("opened session database", "tag", "session", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, playerID string) (Entry, error) {
	var (
		e       Entry
		blob    string
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT handle, game, updated_at FROM game_sessions WHERE player_id = ?`, playerID).
		Scan(&e.Handle, &blob, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, playerrors.ErrNoActiveGame
	}
	if err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(blob), &e.Game); err != nil {
		return Entry{}, fmt.Errorf("decode session for %s: %w: %v", playerID, game.ErrInvalidRecord, err)
	}
	e.UpdatedAt = time.UnixMilli(updated).UTC()
	return e, nil
}

func (s *SQLiteStore) Save(ctx context.Context, playerID string, e Entry) error {
	blob, err := json.Marshal(e.Game)
	if err != nil {
		return fmt.Errorf("encode session for %s: %w", playerID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO game_sessions (player_id, handle, game, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET handle = excluded.handle, game = excluded.game, updated_at = excluded.updated_at`,
		playerID, e.Handle, string(blob), e.UpdatedAt.UnixMilli())
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE player_id = ?`, playerID)
	return err
}

func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM game_sessions WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
