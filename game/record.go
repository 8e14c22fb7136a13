package game

import (
	"fmt"
	"time"
)

// CardRecord is the plain form of a Card.
type CardRecord struct {
	ID        int    `json:"id"`
	Image     string `json:"imagePath"`
	PairID    int    `json:"pairId"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

// Record is the plain form of a Game, suitable for a session blob or a
// database row. Deserialize(g.Serialize()) yields an equivalent game.
type Record struct {
	ID              int64        `json:"id"`
	PlayerID        string       `json:"playerId"`
	PairsCount      int          `json:"pairsCount"`
	MovesCount      int          `json:"movesCount"`
	MatchedPairs    int          `json:"matchedPairs"`
	Status          Status       `json:"status"`
	Score           int          `json:"score"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         *time.Time   `json:"endTime"`
	DurationSeconds *int64       `json:"durationSeconds"`
	FlippedCards    []int        `json:"flippedCards"`
	Cards           []CardRecord `json:"cards"`
}

// Serialize returns the plain record of the game.
func (g *Game) Serialize() Record {
	s := g.Summary()
	rec := Record{
		ID:              s.ID,
		PlayerID:        s.PlayerID,
		PairsCount:      s.PairsCount,
		MovesCount:      s.MovesCount,
		MatchedPairs:    s.MatchedPairs,
		Status:          s.Status,
		Score:           s.Score,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
		FlippedCards:    g.FaceUp(),
		Cards:           make([]CardRecord, len(g.cards)),
	}
	for i, c := range g.cards {
		rec.Cards[i] = CardRecord{
			ID:        c.id,
			Image:     c.image,
			PairID:    c.pairID,
			IsFlipped: c.isFlipped,
			IsMatched: c.isMatched,
		}
	}
	return rec
}

// Deserialize rebuilds a game from its record. The record is checked against
// the game invariants; only WithClock is meaningful among opts.
func Deserialize(rec Record, opts ...Option) (*Game, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	g := &Game{
		id:           rec.ID,
		playerID:     rec.PlayerID,
		pairsCount:   rec.PairsCount,
		movesCount:   rec.MovesCount,
		matchedPairs: rec.MatchedPairs,
		status:       rec.Status,
		score:        rec.Score,
		startTime:    rec.StartTime,
		cards:        make([]*Card, len(rec.Cards)),
		faceUp:       make([]int, 0, 2),
		now:          o.now,
	}
	if rec.EndTime != nil {
		end := *rec.EndTime
		g.endTime = &end
	}
	if rec.DurationSeconds != nil {
		d := *rec.DurationSeconds
		g.durationSeconds = &d
	}
	for i, cr := range rec.Cards {
		c, err := NewCard(cr.ID, cr.Image, cr.PairID)
		if err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidRecord, cr.ID, err)
		}
		c.isFlipped = cr.IsFlipped || cr.IsMatched
		c.isMatched = cr.IsMatched
		g.cards[i] = c
	}
	g.faceUp = append(g.faceUp, rec.FlippedCards...)
	return g, nil
}

func validateRecord(rec Record) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidRecord}, args...)...)
	}

	if rec.PairsCount < MinPairs || rec.PairsCount > MaxPairs {
		return invalid("pairs count %d out of range", rec.PairsCount)
	}
	if !rec.Status.Valid() {
		return invalid("unknown status %q", rec.Status)
	}
	if len(rec.Cards) != 2*rec.PairsCount {
		return invalid("%d cards for %d pairs", len(rec.Cards), rec.PairsCount)
	}
	if rec.MovesCount < 0 || rec.MatchedPairs < 0 || rec.MatchedPairs > rec.PairsCount {
		return invalid("counters out of range (moves %d, matched %d)", rec.MovesCount, rec.MatchedPairs)
	}
	if rec.Status == StatusCompleted && rec.MatchedPairs != rec.PairsCount {
		return invalid("completed with %d of %d pairs", rec.MatchedPairs, rec.PairsCount)
	}
	if rec.Status != StatusPlaying && (rec.EndTime == nil || rec.DurationSeconds == nil) {
		return invalid("finished game without end time")
	}

	switch rec.Status {
	case StatusPlaying, StatusAbandoned:
		if rec.Score != 0 {
			return invalid("%s game with score %d", rec.Status, rec.Score)
		}
	case StatusCompleted:
		if want := ComputeScore(rec.PairsCount, rec.MovesCount, *rec.DurationSeconds); rec.Score != want {
			return invalid("completed score %d, expected %d", rec.Score, want)
		}
	}

	ids := make(map[int]CardRecord, len(rec.Cards))
	pairCards := make(map[int]int, rec.PairsCount)
	pairMatched := make(map[int]int, rec.PairsCount)
	pairImage := make(map[int]string, rec.PairsCount)
	matched := 0
	for _, c := range rec.Cards {
		if _, dup := ids[c.ID]; dup {
			return invalid("duplicate card id %d", c.ID)
		}
		ids[c.ID] = c
		pairCards[c.PairID]++
		if img, seen := pairImage[c.PairID]; seen && img != c.Image {
			return invalid("pair %d has images %q and %q", c.PairID, img, c.Image)
		}
		pairImage[c.PairID] = c.Image
		if c.IsMatched {
			pairMatched[c.PairID]++
			matched++
		}
	}
	for pairID, n := range pairCards {
		if n != 2 {
			return invalid("pair %d has %d cards", pairID, n)
		}
		if m := pairMatched[pairID]; m != 0 && m != 2 {
			return invalid("pair %d has %d matched card", pairID, m)
		}
	}
	if matched != 2*rec.MatchedPairs {
		return invalid("%d matched cards for %d matched pairs", matched, rec.MatchedPairs)
	}

	if len(rec.FlippedCards) > 2 {
		return invalid("%d face-up cards", len(rec.FlippedCards))
	}
	faceUp := make(map[int]bool, len(rec.FlippedCards))
	for _, id := range rec.FlippedCards {
		c, ok := ids[id]
		if !ok {
			return invalid("face-up card %d not in deck", id)
		}
		if faceUp[id] {
			return invalid("face-up card %d listed twice", id)
		}
		if c.IsMatched || !c.IsFlipped {
			return invalid("face-up card %d is not flipped and unmatched", id)
		}
		faceUp[id] = true
	}
	if len(rec.FlippedCards) == 2 && ids[rec.FlippedCards[0]].PairID == ids[rec.FlippedCards[1]].PairID {
		return invalid("face-up cards %v form an unmatched pair", rec.FlippedCards)
	}
	// Every card left face up must be tracked, or it could never be hidden again.
	for _, c := range rec.Cards {
		if c.IsFlipped && !c.IsMatched && !faceUp[c.ID] {
			return invalid("card %d is face up but not tracked", c.ID)
		}
	}
	return nil
}
