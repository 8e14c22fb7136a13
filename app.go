package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"memory-duel-server/api"
	"memory-duel-server/auth"
	"memory-duel-server/config"
	"memory-duel-server/play"
	"memory-duel-server/session"
	"memory-duel-server/storage"
	"memory-duel-server/ws"
)

// app holds the wired server components.
type app struct {
	cfg      *config.Config
	history  storage.HistoryStore
	sessions session.Store
	verifier auth.Verifier
	play     *play.Service
	hub      *ws.Hub
}

// newApp opens the stores and builds the services on top of them.
// Without DATABASE_URL history lives in memory; without SESSION_DB_PATH so do
// games in progress.
func newApp(ctx context.Context, cfg *config.Config, opts ...play.Option) (*app, error) {
	a := &app{cfg: cfg}

	if cfg.DatabaseURL != "" {
		st, err := storage.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.history = st
	} else {
		slog.Warn("DATABASE_URL not set; game history is kept in memory", "tag", "main")
		a.history = storage.NewMemoryStore()
	}

	if cfg.SessionDBPath != "" {
		ss, err := session.NewSQLiteStore(cfg.SessionDBPath)
		if err != nil {
			a.history.Close()
			return nil, fmt.Errorf("open session store: %w", err)
		}
		a.sessions = ss
	} else {
		a.sessions = session.NewMemoryStore()
	}

	verifier, err := auth.NewVerifier(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	a.verifier = verifier
	switch {
	case cfg.AuthHMACSecret != "":
		slog.Warn("auth: using shared-secret tokens; do not use in production", "tag", "main")
	case cfg.NeonAuthBaseURL != "":
		slog.Info("auth: configured", "tag", "main", "base_url", cfg.NeonAuthBaseURL)
	default:
		slog.Warn("auth: NEON_AUTH_BASE_URL is not set; every request will be rejected", "tag", "main")
	}

	a.play = play.NewService(cfg, a.sessions, a.history, opts...)
	a.hub = ws.NewHub(a.play, a.verifier)
	return a, nil
}

// routes mounts the JSON API and the WebSocket endpoint.
func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	api.NewHandler(a.cfg, a.play, a.history, a.verifier).Register(mux)
	mux.HandleFunc("/ws", a.hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// Close releases both stores.
func (a *app) Close() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			slog.Warn("failed to close session store", "tag", "main", "err", err)
		}
	}
	if a.history != nil {
		a.history.Close()
	}
}
