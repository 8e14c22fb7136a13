package storage

import (
	"context"

	"memory-duel-server/game"
)

// Default and maximum page sizes for the read queries.
const (
	DefaultRecentGamesLimit = 5
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// HistoryStore abstracts persistence for finished games, player stats and the leaderboard.
// Implementations can be swapped for testing or different backends.
type HistoryStore interface {
	// Write
	SaveGame(ctx context.Context, s game.Summary) (int64, error)
	EnsurePlayer(ctx context.Context, playerID, displayName string) error
	UpdateDisplayName(ctx context.Context, playerID, name string) error

	// Read
	ListRecentGames(ctx context.Context, playerID string, limit int) ([]GameRecord, error)
	GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error)
	ListLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetLeaderboardEntry(ctx context.Context, playerID string) (*LeaderboardEntry, error)

	// Lifecycle
	Close()
}

// Ensure both implementations satisfy HistoryStore at compile time.
var (
	_ HistoryStore = (*Store)(nil)
	_ HistoryStore = (*MemoryStore)(nil)
)

func clampRecentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentGamesLimit
	}
	return limit
}

func clampLeaderboardLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return min(limit, MaxLeaderboardLimit)
}
