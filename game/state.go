package game

// CardView is the client-facing representation of a card.
// Image is only included when the card is face up or matched.
type CardView struct {
	ID        int    `json:"id"`
	Image     string `json:"image,omitempty"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

// StateView is the read-only game state handed to the rendering layer.
// Score, Breakdown and DurationSeconds are only set once the game is over.
type StateView struct {
	ID                int64           `json:"id,omitempty"`
	PlayerID          string          `json:"playerId"`
	PairsCount        int             `json:"pairsCount"`
	MovesCount        int             `json:"movesCount"`
	MatchedPairs      int             `json:"matchedPairs"`
	Status            Status          `json:"status"`
	Score             *int            `json:"score,omitempty"`
	Breakdown         *ScoreBreakdown `json:"breakdown,omitempty"`
	DurationSeconds   *int64          `json:"durationSeconds,omitempty"`
	Cards             []CardView      `json:"cards"`
	FlippedCardsCount int             `json:"flippedCardsCount"`
}

// BuildCardViews constructs the client-facing card list in layout order.
// Face-down cards do not expose their image.
func BuildCardViews(cards []*Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		cv := CardView{
			ID:        c.id,
			IsFlipped: c.isFlipped,
			IsMatched: c.isMatched,
		}
		if c.isFlipped || c.isMatched {
			cv.Image = c.image
		}
		views[i] = cv
	}
	return views
}

// ExportState returns the view of the game for rendering.
func (g *Game) ExportState() StateView {
	v := StateView{
		ID:                g.id,
		PlayerID:          g.playerID,
		PairsCount:        g.pairsCount,
		MovesCount:        g.movesCount,
		MatchedPairs:      g.matchedPairs,
		Status:            g.status,
		Cards:             BuildCardViews(g.cards),
		FlippedCardsCount: len(g.faceUp),
	}
	if score, ok := g.Score(); ok {
		v.Score = &score
	}
	if d, ok := g.DurationSeconds(); ok {
		v.DurationSeconds = &d
		if g.status == StatusCompleted {
			b := Breakdown(g.pairsCount, g.movesCount, d)
			v.Breakdown = &b
		}
	}
	return v
}
