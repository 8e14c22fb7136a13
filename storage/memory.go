package storage

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"memory-duel-server/game"
	"memory-duel-server/playerrors"
)

type memPlayer struct {
	displayName string
	createdAt   time.Time
}

type memGame struct {
	playerID string
	rec      GameRecord
}

// MemoryStore is a HistoryStore kept in process memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	players map[string]*memPlayer
	games   []memGame
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[string]*memPlayer)}
}

func (m *MemoryStore) ensure(playerID, displayName string) *memPlayer {
	p, ok := m.players[playerID]
	if !ok {
		p = &memPlayer{createdAt: time.Now().UTC()}
		m.players[playerID] = p
	}
	if p.displayName == "" {
		p.displayName = displayName
	}
	return p
}

func (m *MemoryStore) SaveGame(_ context.Context, sum game.Summary) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(sum.PlayerID, "")
	m.nextID++
	rec := GameRecord{
		ID:         m.nextID,
		PairsCount: sum.PairsCount,
		MovesCount: sum.MovesCount,
		Score:      sum.Score,
		Status:     string(sum.Status),
		StartTime:  sum.StartTime.UTC(),
	}
	if sum.DurationSeconds != nil {
		d := *sum.DurationSeconds
		rec.DurationSeconds = &d
	}
	if sum.EndTime != nil {
		end := sum.EndTime.UTC()
		rec.EndTime = &end
	}
	m.games = append(m.games, memGame{playerID: sum.PlayerID, rec: rec})
	return rec.ID, nil
}

func (m *MemoryStore) EnsurePlayer(_ context.Context, playerID, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensure(playerID, displayName)
	return nil
}

func (m *MemoryStore) UpdateDisplayName(_ context.Context, playerID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.players {
		if id != playerID && strings.EqualFold(p.displayName, name) {
			return playerrors.ErrNameTaken
		}
	}
	p, ok := m.players[playerID]
	if !ok {
		return playerrors.ErrPlayerNotFound
	}
	p.displayName = name
	return nil
}

func (m *MemoryStore) ListRecentGames(_ context.Context, playerID string, limit int) ([]GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []GameRecord{}
	for _, g := range m.games {
		if g.playerID == playerID {
			out = append(out, g.rec)
		}
	}
	slices.SortFunc(out, func(a, b GameRecord) int {
		if c := b.StartTime.Compare(a.StartTime); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if n := clampRecentLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) GetPlayerStats(_ context.Context, playerID string) (*PlayerStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[playerID]
	if !ok {
		return nil, nil
	}
	st := &PlayerStats{PlayerID: playerID, DisplayName: p.displayName, CreatedAt: p.createdAt}

	var scoreSum, movesSum, timeSum float64
	var timed int
	for _, g := range m.games {
		if g.playerID != playerID {
			continue
		}
		st.TotalGames++
		switch game.Status(g.rec.Status) {
		case game.StatusAbandoned:
			st.AbandonedGames++
		case game.StatusCompleted:
			st.CompletedGames++
			st.BestScore = max(st.BestScore, g.rec.Score)
			scoreSum += float64(g.rec.Score)
			movesSum += float64(g.rec.MovesCount)
			if d := g.rec.DurationSeconds; d != nil {
				if st.BestTime == nil || *d < *st.BestTime {
					best := *d
					st.BestTime = &best
				}
				timeSum += float64(*d)
				timed++
			}
		}
	}
	if n := float64(st.CompletedGames); n > 0 {
		avgScore := int(math.Round(scoreSum / n))
		avgMoves := roundTo(movesSum/n, 1)
		st.AverageScore = &avgScore
		st.AverageMoves = &avgMoves
	}
	if timed > 0 {
		avgTime := int64(math.Round(timeSum / float64(timed)))
		st.AverageTime = &avgTime
	}
	return st, nil
}

func (m *MemoryStore) board() []LeaderboardEntry {
	byPlayer := make(map[string]*LeaderboardEntry)
	for _, g := range m.games {
		e, ok := byPlayer[g.playerID]
		if !ok {
			e = &LeaderboardEntry{PlayerID: g.playerID}
			if p := m.players[g.playerID]; p != nil {
				e.DisplayName = p.displayName
			}
			byPlayer[g.playerID] = e
		}
		e.TotalGames++
		if game.Status(g.rec.Status) == game.StatusCompleted {
			if e.CompletedGames == 0 || g.rec.Score > e.BestScore {
				e.BestScore = g.rec.Score
			}
			e.CompletedGames++
		}
	}
	out := make([]LeaderboardEntry, 0, len(byPlayer))
	for _, e := range byPlayer {
		if e.CompletedGames > 0 {
			out = append(out, *e)
		}
	}
	slices.SortFunc(out, compareEntries)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func (m *MemoryStore) ListLeaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.board()
	if n := clampLeaderboardLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) GetLeaderboardEntry(_ context.Context, playerID string) (*LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.board() {
		if e.PlayerID == playerID {
			return &e, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Close() {}
