package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"memory-duel-server/game"
	"memory-duel-server/playerrors"
)

func testEntry(t *testing.T, handle string, updated time.Time) Entry {
	t.Helper()
	g, err := game.NewGame("p1", 3, game.WithSeed(1))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if _, err := g.FlipCard(0); err != nil {
		t.Fatalf("FlipCard: %v", err)
	}
	return Entry{Handle: handle, Game: g.Serialize(), UpdatedAt: updated}
}

func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)

	t.Run("LoadMissing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Load(ctx, "nobody"); !errors.Is(err, playerrors.ErrNoActiveGame) {
			t.Errorf("expected ErrNoActiveGame, got %v", err)
		}
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		s := newStore(t)
		want := testEntry(t, "h-1", now)
		if err := s.Save(ctx, "p1", want); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, err := s.Load(ctx, "p1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("entry mismatch (-want +got):\n%s", diff)
		}
		if _, err := game.Deserialize(got.Game); err != nil {
			t.Errorf("stored game no longer deserializes: %v", err)
		}
	})

	t.Run("SaveReplaces", func(t *testing.T) {
		s := newStore(t)
		s.Save(ctx, "p1", testEntry(t, "h-1", now))
		s.Save(ctx, "p1", testEntry(t, "h-2", now.Add(time.Minute)))

		got, err := s.Load(ctx, "p1")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got.Handle != "h-2" {
			t.Errorf("expected handle h-2, got %q", got.Handle)
		}
	})

	t.Run("PlayersAreIsolated", func(t *testing.T) {
		s := newStore(t)
		s.Save(ctx, "p1", testEntry(t, "h-1", now))
		if _, err := s.Load(ctx, "p2"); !errors.Is(err, playerrors.ErrNoActiveGame) {
			t.Errorf("expected ErrNoActiveGame for p2, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		s.Save(ctx, "p1", testEntry(t, "h-1", now))
		if err := s.Delete(ctx, "p1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Load(ctx, "p1"); !errors.Is(err, playerrors.ErrNoActiveGame) {
			t.Errorf("expected ErrNoActiveGame after delete, got %v", err)
		}
		if err := s.Delete(ctx, "p1"); err != nil {
			t.Errorf("deleting a missing entry should not fail, got %v", err)
		}
	})

	t.Run("PurgeOlderThan", func(t *testing.T) {
		s := newStore(t)
		s.Save(ctx, "old", testEntry(t, "h-1", now.Add(-48*time.Hour)))
		s.Save(ctx, "new", testEntry(t, "h-2", now))

		n, err := s.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
		if err != nil {
			t.Fatalf("PurgeOlderThan: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 purged entry, got %d", n)
		}
		if _, err := s.Load(ctx, "old"); !errors.Is(err, playerrors.ErrNoActiveGame) {
			t.Errorf("old entry should be gone, got %v", err)
		}
		if _, err := s.Load(ctx, "new"); err != nil {
			t.Errorf("new entry should remain, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
		if err != nil {
			t.Fatalf("NewSQLiteStore: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	want := testEntry(t, "h-1", time.Now().UTC().Truncate(time.Millisecond))
	if err := s.Save(ctx, "p1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Load(ctx, "p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch after reopen (-want +got):\n%s", diff)
	}
}

func TestSQLiteStoreCorruptRow(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (player_id, handle, game, updated_at) VALUES ('p1', 'h', '{oops', 0)`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, "p1"); !errors.Is(err, game.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestMemoryStoreCorruptEntry(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.entries["p1"] = []byte("{oops")

	if _, err := m.Load(ctx, "p1"); !errors.Is(err, game.ErrInvalidRecord) {
		t.Errorf("expected ErrInvalidRecord, got %v", err)
	}
}
