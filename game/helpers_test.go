package game

import (
	"testing"
	"time"
)

// fakeClock is a settable clock for start/end stamps.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// newTestGame creates a seeded game with a fake clock.
func newTestGame(t *testing.T, pairs int) (*Game, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	g, err := NewGame("player-1", pairs, WithSeed(42), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewGame(%d): %v", pairs, err)
	}
	return g, clock
}

// findPair returns the ids of two unmatched cards sharing a pair id.
func findPair(t *testing.T, g *Game) (int, int) {
	t.Helper()
	byPair := make(map[int][]int)
	for _, c := range g.Cards() {
		if !c.IsMatched() {
			byPair[c.PairID()] = append(byPair[c.PairID()], c.ID())
		}
	}
	for _, ids := range byPair {
		if len(ids) == 2 {
			return ids[0], ids[1]
		}
	}
	t.Fatal("no unmatched pair left")
	return -1, -1
}

// partnerOf returns the id of the card paired with id.
func partnerOf(t *testing.T, g *Game, id int) int {
	t.Helper()
	card, ok := g.Card(id)
	if !ok {
		t.Fatalf("card %d not found", id)
	}
	for _, c := range g.Cards() {
		if c.PairID() == card.PairID() && c.ID() != id {
			return c.ID()
		}
	}
	t.Fatalf("card %d has no partner", id)
	return -1
}

// nonPartnerOf returns the id of an unmatched card not paired with id.
func nonPartnerOf(t *testing.T, g *Game, id int) int {
	t.Helper()
	card, _ := g.Card(id)
	for _, c := range g.Cards() {
		if c.PairID() != card.PairID() && !c.IsMatched() {
			return c.ID()
		}
	}
	t.Fatalf("no non-partner for card %d", id)
	return -1
}

func mustFlip(t *testing.T, g *Game, id int) FlipResult {
	t.Helper()
	res, err := g.FlipCard(id)
	if err != nil {
		t.Fatalf("FlipCard(%d): unexpected error %v", id, err)
	}
	return res
}

// playPerfect matches every pair without a mistake.
func playPerfect(t *testing.T, g *Game) FlipResult {
	t.Helper()
	var last FlipResult
	for g.Status() == StatusPlaying {
		a, b := findPair(t, g)
		mustFlip(t, g, a)
		last = mustFlip(t, g, b)
	}
	return last
}
