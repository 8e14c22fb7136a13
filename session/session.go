// Package session keeps each player's game in progress between requests.
package session

import (
	"context"
	"time"

	"memory-duel-server/game"
)

// Entry is the game a player currently owns.
type Entry struct {
	Handle    string      `json:"handle"`
	Game      game.Record `json:"game"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Store holds at most one Entry per player. Load returns
// playerrors.ErrNoActiveGame when the player has none.
type Store interface {
	Load(ctx context.Context, playerID string) (Entry, error)
	Save(ctx context.Context, playerID string, e Entry) error
	Delete(ctx context.Context, playerID string) error
	// PurgeOlderThan removes entries not saved since cutoff and reports how many went.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
