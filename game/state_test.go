package game

import (
	"testing"
	"time"
)

func TestExportStateHidesFaceDownImages(t *testing.T) {
	g, _ := newTestGame(t, 3)
	a, b := findPair(t, g)
	mustFlip(t, g, a)
	mustFlip(t, g, b)
	c := findFaceDown(t, g)
	mustFlip(t, g, c)

	state := g.ExportState()
	if len(state.Cards) != 6 {
		t.Fatalf("expected 6 card views, got %d", len(state.Cards))
	}
	for _, cv := range state.Cards {
		shown := cv.IsFlipped || cv.IsMatched
		if shown && cv.Image == "" {
			t.Errorf("card %d is visible but has no image", cv.ID)
		}
		if !shown && cv.Image != "" {
			t.Errorf("card %d is face down but exposes image %q", cv.ID, cv.Image)
		}
	}
	if state.FlippedCardsCount != 1 {
		t.Errorf("expected FlippedCardsCount=1, got %d", state.FlippedCardsCount)
	}
	if state.MatchedPairs != 1 || state.MovesCount != 3 {
		t.Errorf("unexpected counters matched=%d moves=%d", state.MatchedPairs, state.MovesCount)
	}
}

func TestExportStateLayoutOrder(t *testing.T) {
	g, _ := newTestGame(t, 5)
	state := g.ExportState()
	for i, c := range g.Cards() {
		if state.Cards[i].ID != c.ID() {
			t.Errorf("position %d: expected card %d, got %d", i, c.ID(), state.Cards[i].ID)
		}
	}
}

func TestExportStateScoreOnlyWhenOver(t *testing.T) {
	g, clock := newTestGame(t, 3)

	state := g.ExportState()
	if state.Score != nil || state.Breakdown != nil || state.DurationSeconds != nil {
		t.Errorf("in-progress state should not carry score fields, got %+v", state)
	}
	if state.Status != StatusPlaying {
		t.Errorf("expected status playing, got %q", state.Status)
	}

	clock.Advance(2 * time.Second)
	playPerfect(t, g)
	state = g.ExportState()
	if state.Score == nil || *state.Score != 233 {
		t.Fatalf("expected score 233, got %v", state.Score)
	}
	if state.Breakdown == nil || state.Breakdown.Total != *state.Score {
		t.Errorf("breakdown total should equal score, got %+v", state.Breakdown)
	}
	if state.DurationSeconds == nil || *state.DurationSeconds != 2 {
		t.Errorf("expected duration 2, got %v", state.DurationSeconds)
	}
}

func TestExportStateAbandonedHasNoBreakdown(t *testing.T) {
	g, _ := newTestGame(t, 3)
	g.Abandon()

	state := g.ExportState()
	if state.Score == nil || *state.Score != 0 {
		t.Errorf("expected score 0, got %v", state.Score)
	}
	if state.Breakdown != nil {
		t.Errorf("abandoned game should not have a breakdown, got %+v", state.Breakdown)
	}
}
