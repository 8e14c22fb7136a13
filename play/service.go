// Package play runs a player's memory game across requests: it loads the game
// from the session store, applies one action and stores it back, and hands
// completed games to the history store.
package play

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"memory-duel-server/config"
	"memory-duel-server/game"
	"memory-duel-server/playerrors"
	"memory-duel-server/session"
	"memory-duel-server/storage"
)

// Snapshot is what clients see after every action.
type Snapshot struct {
	Handle string         `json:"handle"`
	State  game.StateView `json:"state"`
}

// FlipOutcome is the result of a flip together with the state it produced.
type FlipOutcome struct {
	Snapshot
	Result game.FlipResult `json:"result"`
}

// Service coordinates sessions, the game core and history.
type Service struct {
	sessions     session.Store
	history      storage.HistoryStore
	images       []string
	defaultPairs int
	saveTimeout  time.Duration

	now       func() time.Time
	rngMu     sync.Mutex
	rng       *rand.Rand
	newHandle func() string

	locks keyedMutex
	log   *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now for game timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSeed makes deck shuffles reproducible.
func WithSeed(seed int64) Option {
	return func(s *Service) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithHandles replaces the uuid generator for game handles.
func WithHandles(next func() string) Option {
	return func(s *Service) { s.newHandle = next }
}

// NewService wires the play service from configuration and its two stores.
func NewService(cfg *config.Config, sessions session.Store, history storage.HistoryStore, opts ...Option) *Service {
	s := &Service{
		sessions:     sessions,
		history:      history,
		images:       cfg.ImageCatalog(),
		defaultPairs: cfg.DefaultPairs,
		saveTimeout:  cfg.SaveTimeout(),
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		newHandle:    uuid.NewString,
		log:          slog.With("tag", "play"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start deals a new game for the player, replacing any game they had.
// A pairsCount of 0 selects the configured default.
func (s *Service) Start(ctx context.Context, playerID, displayName string, pairsCount int) (Snapshot, error) {
	if pairsCount == 0 {
		pairsCount = s.defaultPairs
	}
	unlock := s.locks.Lock(playerID)
	defer unlock()

	if err := s.history.EnsurePlayer(ctx, playerID, displayName); err != nil {
		s.log.Warn("failed to register player", "player", playerID, "err", err)
	}

	s.rngMu.Lock()
	g, err := game.NewGame(playerID, pairsCount,
		game.WithRand(rand.New(rand.NewSource(s.rng.Int63()))),
		game.WithClock(s.now),
		game.WithImages(s.images))
	s.rngMu.Unlock()
	if err != nil {
		return Snapshot{}, err
	}

	handle := s.newHandle()
	if err := s.store(ctx, playerID, handle, g); err != nil {
		return Snapshot{}, err
	}
	s.log.Debug("game started", "player", playerID, "handle", handle, "pairs", pairsCount)
	return Snapshot{Handle: handle, State: g.ExportState()}, nil
}

// Current returns the player's game without changing it.
func (s *Service) Current(ctx context.Context, playerID string) (Snapshot, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	handle, g, err := s.load(ctx, playerID, "")
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Handle: handle, State: g.ExportState()}, nil
}

// Flip turns a card in the player's game. handle, when not empty, must name
// the current game; otherwise ErrStaleGame is returned. Rule violations are
// reported in the outcome, not as errors.
func (s *Service) Flip(ctx context.Context, playerID, handle string, cardID int) (FlipOutcome, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	current, g, err := s.load(ctx, playerID, handle)
	if err != nil {
		return FlipOutcome{}, err
	}

	res, err := g.FlipCard(cardID)
	if err != nil {
		s.log.Error("game state inconsistent", "player", playerID, "handle", current, "err", err)
		return FlipOutcome{}, err
	}
	if !res.Success {
		return FlipOutcome{Snapshot: Snapshot{Handle: current, State: g.ExportState()}, Result: res}, nil
	}

	// The completed session is stored before history is written, so a failed
	// save cannot be retried into a second history row.
	if err := s.store(ctx, playerID, current, g); err != nil {
		return FlipOutcome{}, err
	}
	if res.GameCompleted && s.record(ctx, g) {
		if err := s.store(ctx, playerID, current, g); err != nil {
			s.log.Warn("failed to store game id", "player", playerID, "handle", current, "err", err)
		}
	}
	return FlipOutcome{Snapshot: Snapshot{Handle: current, State: g.ExportState()}, Result: res}, nil
}

// Abandon ends the player's game with a zero score. Abandoned games are not
// added to history.
func (s *Service) Abandon(ctx context.Context, playerID, handle string) (Snapshot, error) {
	unlock := s.locks.Lock(playerID)
	defer unlock()

	current, g, err := s.load(ctx, playerID, handle)
	if err != nil {
		return Snapshot{}, err
	}
	if !g.IsOver() {
		g.Abandon()
		if err := s.store(ctx, playerID, current, g); err != nil {
			return Snapshot{}, err
		}
		s.log.Debug("game abandoned", "player", playerID, "handle", current)
	}
	return Snapshot{Handle: current, State: g.ExportState()}, nil
}

// Reset forgets the player's game, whatever its state.
func (s *Service) Reset(ctx context.Context, playerID string) error {
	unlock := s.locks.Lock(playerID)
	defer unlock()
	return s.sessions.Delete(ctx, playerID)
}

// PurgeStale drops sessions untouched for longer than ttl.
func (s *Service) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.sessions.PurgeOlderThan(ctx, s.now().Add(-ttl))
}

// record saves a completed game to history and reports whether it did.
// Failures are logged and do not undo the completion.
func (s *Service) record(ctx context.Context, g *game.Game) bool {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()

	id, err := s.history.SaveGame(saveCtx, g.Summary())
	if err != nil {
		s.log.Error("failed to save completed game", "player", g.PlayerID(), "err", err)
		return false
	}
	g.SetID(id)
	score, _ := g.Score()
	s.log.Info("game completed", "player", g.PlayerID(), "id", id, "score", score, "moves", g.MovesCount())
	return true
}

func (s *Service) load(ctx context.Context, playerID, handle string) (string, *game.Game, error) {
	e, err := s.sessions.Load(ctx, playerID)
	if err != nil {
		return "", nil, err
	}
	if handle != "" && handle != e.Handle {
		return "", nil, playerrors.ErrStaleGame
	}
	g, err := game.Deserialize(e.Game, game.WithClock(s.now))
	if err != nil {
		// A corrupt session cannot be played; drop it so the player can start over.
		if errors.Is(err, game.ErrInvalidRecord) {
			s.log.Warn("discarding corrupt session", "player", playerID, "err", err)
			if derr := s.sessions.Delete(ctx, playerID); derr != nil {
				s.log.Error("failed to delete corrupt session", "player", playerID, "err", derr)
			}
			return "", nil, playerrors.ErrNoActiveGame
		}
		return "", nil, err
	}
	return e.Handle, g, nil
}

func (s *Service) store(ctx context.Context, playerID, handle string, g *game.Game) error {
	e := session.Entry{Handle: handle, Game: g.Serialize(), UpdatedAt: s.now().UTC()}
	if err := s.sessions.Save(ctx, playerID, e); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
