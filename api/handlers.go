package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"memory-duel-server/auth"
	"memory-duel-server/config"
	"memory-duel-server/game"
	"memory-duel-server/play"
	"memory-duel-server/playerrors"
	"memory-duel-server/profile"
	"memory-duel-server/storage"
)

// maxBodyBytes bounds request bodies; every payload is a few small fields.
const maxBodyBytes = 4 << 10

// Handler holds dependencies for API handlers.
type Handler struct {
	Config       *config.Config
	Play         *play.Service
	HistoryStore storage.HistoryStore
	Verifier     auth.Verifier

	log *slog.Logger
}

// NewHandler creates a new API handler with the given dependencies.
func NewHandler(cfg *config.Config, svc *play.Service, historyStore storage.HistoryStore, verifier auth.Verifier) *Handler {
	return &Handler{
		Config:       cfg,
		Play:         svc,
		HistoryStore: historyStore,
		Verifier:     verifier,
		log:          slog.With("tag", "api"),
	}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/game", h.Game)
	mux.HandleFunc("/api/game/flip", h.Flip)
	mux.HandleFunc("/api/game/abandon", h.Abandon)
	mux.HandleFunc("/api/history", h.History)
	mux.HandleFunc("/api/leaderboard", h.Leaderboard)
	mux.HandleFunc("/api/profile", h.Profile)
	mux.HandleFunc("/api/profile/name", h.ProfileName)
}

// CORS sets CORS headers on the response. Call before writing body.
func CORS(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// identify validates the Authorization header. ok is false when the request
// carries no valid token.
func (h *Handler) identify(r *http.Request) (auth.Identity, bool) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return auth.Identity{}, false
	}
	id, err := h.Verifier.Verify(r.Context(), token)
	if err != nil {
		h.log.Debug("token rejected", "err", err)
		return auth.Identity{}, false
	}
	return id, true
}

// requireIdentity is identify that answers 401 on failure.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := h.identify(r)
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
	}
	return id, ok
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warn("encode response", "err", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, playerrors.ErrNoActiveGame):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, playerrors.ErrStaleGame):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, game.ErrInvalidPairsCount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, playerrors.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, playerrors.ErrNameTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, playerrors.ErrPlayerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error(op, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func queryLimit(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// History returns the recent games of the authenticated player.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	list, err := h.HistoryStore.ListRecentGames(r.Context(), id.PlayerID, queryLimit(r, h.Config.RecentGamesLimit))
	if err != nil {
		h.writeError(w, "ListRecentGames", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// LeaderboardResponse is the JSON structure for /api/leaderboard.
type LeaderboardResponse struct {
	Entries          []storage.LeaderboardEntry `json:"entries"`
	CurrentUserEntry *storage.LeaderboardEntry  `json:"current_user_entry"`
}

// Leaderboard returns the global leaderboard. When the caller is
// authenticated and outside the top entries, their own entry is added.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	entries, err := h.HistoryStore.ListLeaderboard(r.Context(), queryLimit(r, h.Config.LeaderboardLimit))
	if err != nil {
		h.writeError(w, "ListLeaderboard", err)
		return
	}

	var currentUserEntry *storage.LeaderboardEntry
	if id, ok := h.identify(r); ok {
		cur, err := h.HistoryStore.GetLeaderboardEntry(r.Context(), id.PlayerID)
		if err != nil {
			h.log.Warn("GetLeaderboardEntry", "err", err)
		} else if cur != nil {
			inTop := false
			for i := range entries {
				if entries[i].PlayerID == id.PlayerID {
					entries[i].IsCurrentUser = true
					inTop = true
					break
				}
			}
			if !inTop {
				cur.IsCurrentUser = true
				currentUserEntry = cur
			}
		}
	}

	h.writeJSON(w, http.StatusOK, LeaderboardResponse{Entries: entries, CurrentUserEntry: currentUserEntry})
}

// Profile returns the authenticated player's level, rank and stats.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	st, err := h.HistoryStore.GetPlayerStats(r.Context(), id.PlayerID)
	if err != nil {
		h.writeError(w, "GetPlayerStats", err)
		return
	}
	p := profile.FromStats(id.PlayerID, st)
	if p.DisplayName == "" {
		p.DisplayName = id.DisplayName
	}
	h.writeJSON(w, http.StatusOK, p)
}

type nameRequest struct {
	Name string `json:"name"`
}

// ProfileName changes the authenticated player's display name.
func (h *Handler) ProfileName(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodPut) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	name, err := profile.ValidateUsername(req.Name)
	if err != nil {
		h.writeError(w, "ValidateUsername", err)
		return
	}
	if err := h.HistoryStore.EnsurePlayer(r.Context(), id.PlayerID, ""); err != nil {
		h.writeError(w, "EnsurePlayer", err)
		return
	}
	if err := h.HistoryStore.UpdateDisplayName(r.Context(), id.PlayerID, name); err != nil {
		h.writeError(w, "UpdateDisplayName", err)
		return
	}
	h.writeJSON(w, http.StatusOK, nameRequest{Name: name})
}
