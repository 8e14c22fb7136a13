package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memory-duel-server/game"
	"memory-duel-server/playerrors"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS players (
	player_id    TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_players_display_name ON players(lower(display_name));
CREATE TABLE IF NOT EXISTS games (
	id               BIGSERIAL PRIMARY KEY,
	player_id        TEXT NOT NULL REFERENCES players(player_id),
	pairs_count      INT NOT NULL,
	moves_count      INT NOT NULL,
	matched_pairs    INT NOT NULL DEFAULT 0,
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ,
	duration_seconds BIGINT,
	status           TEXT NOT NULL,
	score            INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_games_player_start ON games(player_id, start_time DESC);
CREATE INDEX IF NOT EXISTS idx_games_status_score ON games(status, score DESC);
`

// leaderboardCTE ranks players with at least one completed game.
const leaderboardCTE = `
WITH board AS (
	SELECT p.player_id, p.display_name,
		MAX(g.score) FILTER (WHERE g.status = 'completed') AS best_score,
		COUNT(g.id) AS total_games,
		COUNT(g.id) FILTER (WHERE g.status = 'completed') AS completed_games
	FROM players p
	JOIN games g ON g.player_id = p.player_id
	GROUP BY p.player_id, p.display_name
	HAVING COUNT(g.id) FILTER (WHERE g.status = 'completed') > 0
), ranked AS (
	SELECT *, ROW_NUMBER() OVER (
		ORDER BY best_score DESC, completed_games::float8 / total_games DESC, completed_games DESC, player_id
	) AS rank
	FROM board
)`

// Store persists and retrieves game history in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the schema exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return s, nil
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return nil
	}
	for _, q := range strings.Split(strings.TrimSpace(createTableSQL), ";") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// SaveGame inserts a finished game and returns its id. The player row is
// created on the fly if needed.
func (s *Store) SaveGame(ctx context.Context, sum game.Summary) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO players (player_id) VALUES ($1) ON CONFLICT (player_id) DO NOTHING`, sum.PlayerID); err != nil {
		return 0, err
	}
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO games (player_id, pairs_count, moves_count, matched_pairs, start_time, end_time, duration_seconds, status, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		sum.PlayerID, sum.PairsCount, sum.MovesCount, sum.MatchedPairs, sum.StartTime, sum.EndTime, sum.DurationSeconds, string(sum.Status), sum.Score).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// EnsurePlayer creates the player if missing. An existing player only takes
// displayName when it has none yet.
func (s *Store) EnsurePlayer(ctx context.Context, playerID, displayName string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO players (player_id, display_name) VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET display_name = EXCLUDED.display_name
		WHERE players.display_name = ''`,
		playerID, displayName)
	return err
}

// UpdateDisplayName renames a player. Names are unique, case-insensitively.
func (s *Store) UpdateDisplayName(ctx context.Context, playerID, name string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var taken bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM players WHERE lower(display_name) = lower($1) AND player_id <> $2)`, name, playerID).Scan(&taken)
	if err != nil {
		return err
	}
	if taken {
		return playerrors.ErrNameTaken
	}
	tag, err := tx.Exec(ctx, `UPDATE players SET display_name = $1 WHERE player_id = $2`, name, playerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return playerrors.ErrPlayerNotFound
	}
	return tx.Commit(ctx)
}

// ListRecentGames returns the player's games, newest first.
func (s *Store) ListRecentGames(ctx context.Context, playerID string, limit int) ([]GameRecord, error) {
	if s == nil || s.pool == nil {
		return []GameRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, pairs_count, moves_count, score, duration_seconds, status, start_time, end_time
		FROM games
		WHERE player_id = $1
		ORDER BY start_time DESC, id DESC
		LIMIT $2`,
		playerID, clampRecentLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameRecord{}
	for rows.Next() {
		var r GameRecord
		if err := rows.Scan(&r.ID, &r.PairsCount, &r.MovesCount, &r.Score, &r.DurationSeconds, &r.Status, &r.StartTime, &r.EndTime); err != nil {
			return nil, err
		}
		r.StartTime = r.StartTime.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPlayerStats returns the aggregates for one player, or (nil, nil) if the player is unknown.
func (s *Store) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	if s == nil || s.pool == nil || playerID == "" {
		return nil, nil
	}
	var st PlayerStats
	var avgScore, avgTime, avgMoves *float64
	err := s.pool.QueryRow(ctx, `
		SELECT p.player_id, p.display_name, p.created_at,
			COUNT(g.id),
			COUNT(g.id) FILTER (WHERE g.status = 'completed'),
			COUNT(g.id) FILTER (WHERE g.status = 'abandoned'),
			COALESCE(MAX(g.score) FILTER (WHERE g.status = 'completed'), 0),
			(AVG(g.score) FILTER (WHERE g.status = 'completed'))::float8,
			MIN(g.duration_seconds) FILTER (WHERE g.status = 'completed'),
			(AVG(g.duration_seconds) FILTER (WHERE g.status = 'completed'))::float8,
			(AVG(g.moves_count) FILTER (WHERE g.status = 'completed'))::float8
		FROM players p
		LEFT JOIN games g ON g.player_id = p.player_id
		WHERE p.player_id = $1
		GROUP BY p.player_id, p.display_name, p.created_at`,
		playerID).Scan(&st.PlayerID, &st.DisplayName, &st.CreatedAt,
		&st.TotalGames, &st.CompletedGames, &st.AbandonedGames, &st.BestScore,
		&avgScore, &st.BestTime, &avgTime, &avgMoves)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if avgScore != nil {
		v := int(math.Round(*avgScore))
		st.AverageScore = &v
	}
	if avgTime != nil {
		v := int64(math.Round(*avgTime))
		st.AverageTime = &v
	}
	if avgMoves != nil {
		v := roundTo(*avgMoves, 1)
		st.AverageMoves = &v
	}
	return &st, nil
}

// ListLeaderboard returns the best players, ordered by best score then completed games.
func (s *Store) ListLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if s == nil || s.pool == nil {
		return []LeaderboardEntry{}, nil
	}
	rows, err := s.pool.Query(ctx, leaderboardCTE+`
		SELECT rank, player_id, display_name, best_score, total_games, completed_games
		FROM ranked
		ORDER BY rank
		LIMIT $1`,
		clampLeaderboardLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetLeaderboardEntry returns one player's ranked entry, or (nil, nil) if the
// player has no completed game.
func (s *Store) GetLeaderboardEntry(ctx context.Context, playerID string) (*LeaderboardEntry, error) {
	if s == nil || s.pool == nil || playerID == "" {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx, leaderboardCTE+`
		SELECT rank, player_id, display_name, best_score, total_games, completed_games
		FROM ranked
		WHERE player_id = $1`,
		playerID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func scanEntry(row pgx.Row) (LeaderboardEntry, error) {
	var e LeaderboardEntry
	var rank int64
	err := row.Scan(&rank, &e.PlayerID, &e.DisplayName, &e.BestScore, &e.TotalGames, &e.CompletedGames)
	e.Rank = int(rank)
	return e, err
}
