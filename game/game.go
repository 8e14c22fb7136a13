package game

import (
	"fmt"
	"math/rand"
	"time"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaying, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// Board size limits, in pairs.
const (
	MinPairs = 3
	MaxPairs = 12
)

// Option configures NewGame and Deserialize.
type Option func(*options)

type options struct {
	rng    *rand.Rand
	now    func() time.Time
	images []string
}

// WithRand sets the random source used to pick images and shuffle the deck.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSeed is WithRand with a fresh source seeded by seed.
func WithSeed(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

// WithClock replaces time.Now for start/end stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithImages replaces DefaultImages as the catalog card faces are drawn from.
func WithImages(images []string) Option {
	return func(o *options) { o.images = images }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, images: DefaultImages}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Game is a single-player memory game. It is not safe for concurrent use;
// callers serialize access.
type Game struct {
	id              int64
	playerID        string
	pairsCount      int
	movesCount      int
	matchedPairs    int
	status          Status
	score           int
	startTime       time.Time
	endTime         *time.Time
	durationSeconds *int64
	cards           []*Card
	faceUp          []int // flipped but unmatched card ids, at most 2

	now func() time.Time
}

// NewGame deals a shuffled deck of pairsCount pairs for playerID.
func NewGame(playerID string, pairsCount int, opts ...Option) (*Game, error) {
	if pairsCount < MinPairs || pairsCount > MaxPairs {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPairsCount, pairsCount)
	}
	o := buildOptions(opts)

	images, err := pickImages(o.rng, o.images, pairsCount)
	if err != nil {
		return nil, err
	}
	cards, err := newDeck(o.rng, images)
	if err != nil {
		return nil, err
	}

	return &Game{
		playerID:   playerID,
		pairsCount: pairsCount,
		status:     StatusPlaying,
		startTime:  o.now(),
		cards:      cards,
		faceUp:     make([]int, 0, 2),
		now:        o.now,
	}, nil
}

// FlipCard turns cardID face up and resolves the turn. Rule violations are
// reported in the result and leave the game unchanged; the error is only set
// when the game's own bookkeeping is inconsistent.
//
// A previous mismatched pair stays face up until the next accepted flip,
// which hides it before turning the new card.
func (g *Game) FlipCard(cardID int) (FlipResult, error) {
	if g.status != StatusPlaying {
		return rejected(ReasonGameOver, MsgGameOver), nil
	}
	card := g.card(cardID)
	if card == nil {
		return rejected(ReasonUnknownCard, MsgUnknownCard), nil
	}
	if !card.CanBeFlipped() {
		return rejected(ReasonNotFlippable, MsgNotFlippable), nil
	}

	if len(g.faceUp) >= 2 {
		g.hideFaceUp()
	}

	card.Flip()
	g.movesCount++
	g.faceUp = append(g.faceUp, cardID)

	if len(g.faceUp) == 2 {
		return g.checkForMatch()
	}
	return FlipResult{Success: true, Message: MsgFlipped}, nil
}

func (g *Game) hideFaceUp() {
	for _, id := range g.faceUp {
		if c := g.card(id); c != nil && !c.IsMatched() {
			c.Hide()
		}
	}
	g.faceUp = g.faceUp[:0]
}

func (g *Game) checkForMatch() (FlipResult, error) {
	first, second := g.card(g.faceUp[0]), g.card(g.faceUp[1])
	if first == nil || second == nil {
		return rejected(ReasonInternal, MsgInternal),
			fmt.Errorf("%w: face-up ids %v", ErrCardMissing, g.faceUp)
	}

	if !first.Matches(second) {
		return compared(false, MsgNoMatch), nil
	}

	first.SetMatched()
	second.SetMatched()
	g.matchedPairs++
	g.faceUp = g.faceUp[:0]

	if g.matchedPairs == g.pairsCount {
		g.complete()
		res := compared(true, MsgCompleted)
		res.GameCompleted = true
		score := g.score
		res.FinalScore = &score
		return res, nil
	}
	return compared(true, MsgMatch), nil
}

// complete stamps the end of the game and computes its score.
func (g *Game) complete() {
	g.finish(StatusCompleted)
	g.score = ComputeScore(g.pairsCount, g.movesCount, *g.durationSeconds)
}

// Abandon ends a game in progress with a zero score. It does nothing once the
// game is over.
func (g *Game) Abandon() {
	if g.status != StatusPlaying {
		return
	}
	g.finish(StatusAbandoned)
	g.score = 0
}

func (g *Game) finish(status Status) {
	end := g.now()
	duration := max(0, end.Unix()-g.startTime.Unix())
	g.endTime = &end
	g.durationSeconds = &duration
	g.status = status
}

func (g *Game) card(id int) *Card {
	for _, c := range g.cards {
		if c.id == id {
			return c
		}
	}
	return nil
}

// ID returns the persisted id, or 0 if the game was never saved.
func (g *Game) ID() int64 { return g.id }

// SetID records the id assigned by the persistence layer.
func (g *Game) SetID(id int64) { g.id = id }

func (g *Game) PlayerID() string { return g.playerID }

func (g *Game) PairsCount() int { return g.pairsCount }

func (g *Game) MovesCount() int { return g.movesCount }

func (g *Game) MatchedPairs() int { return g.matchedPairs }

func (g *Game) Status() Status { return g.status }

func (g *Game) StartTime() time.Time { return g.startTime }

// IsOver reports whether the game left the playing state.
func (g *Game) IsOver() bool { return g.status != StatusPlaying }

// Score returns the final score; ok is false while the game is in progress.
func (g *Game) Score() (score int, ok bool) {
	if g.status == StatusPlaying {
		return 0, false
	}
	return g.score, true
}

// EndTime returns when the game ended, if it has.
func (g *Game) EndTime() (time.Time, bool) {
	if g.endTime == nil {
		return time.Time{}, false
	}
	return *g.endTime, true
}

// DurationSeconds returns the elapsed whole seconds, once the game ended.
func (g *Game) DurationSeconds() (int64, bool) {
	if g.durationSeconds == nil {
		return 0, false
	}
	return *g.durationSeconds, true
}

// Cards returns a copy of the cards in layout order.
func (g *Game) Cards() []Card {
	out := make([]Card, len(g.cards))
	for i, c := range g.cards {
		out[i] = *c
	}
	return out
}

// Card returns a copy of the card with the given id.
func (g *Game) Card(id int) (Card, bool) {
	c := g.card(id)
	if c == nil {
		return Card{}, false
	}
	return *c, true
}

// FaceUp returns the ids of cards flipped but not yet matched.
func (g *Game) FaceUp() []int {
	return append([]int(nil), g.faceUp...)
}

// Summary is the record of a finished game handed to persistence.
type Summary struct {
	ID              int64
	PlayerID        string
	PairsCount      int
	MovesCount      int
	MatchedPairs    int
	StartTime       time.Time
	EndTime         *time.Time
	DurationSeconds *int64
	Status          Status
	Score           int
}

// Summary returns the persistence record for the game.
func (g *Game) Summary() Summary {
	s := Summary{
		ID:           g.id,
		PlayerID:     g.playerID,
		PairsCount:   g.pairsCount,
		MovesCount:   g.movesCount,
		MatchedPairs: g.matchedPairs,
		StartTime:    g.startTime,
		Status:       g.status,
		Score:        g.score,
	}
	if g.endTime != nil {
		end := *g.endTime
		s.EndTime = &end
	}
	if g.durationSeconds != nil {
		d := *g.durationSeconds
		s.DurationSeconds = &d
	}
	return s
}
