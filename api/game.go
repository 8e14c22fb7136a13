package api

import (
	"net/http"
)

type startRequest struct {
	PairsCount int `json:"pairsCount"`
}

type flipRequest struct {
	Handle string `json:"handle"`
	CardID *int   `json:"cardId"`
}

type handleRequest struct {
	Handle string `json:"handle"`
}

// Game starts (POST), shows (GET) or forgets (DELETE) the player's game.
func (h *Handler) Game(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodGet, http.MethodPost, http.MethodDelete) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req startRequest
		if !decodeBody(w, r, &req) {
			return
		}
		snap, err := h.Play.Start(r.Context(), id.PlayerID, id.DisplayName, req.PairsCount)
		if err != nil {
			h.writeError(w, "Start", err)
			return
		}
		h.writeJSON(w, http.StatusCreated, snap)
	case http.MethodGet:
		snap, err := h.Play.Current(r.Context(), id.PlayerID)
		if err != nil {
			h.writeError(w, "Current", err)
			return
		}
		h.writeJSON(w, http.StatusOK, snap)
	case http.MethodDelete:
		if err := h.Play.Reset(r.Context(), id.PlayerID); err != nil {
			h.writeError(w, "Reset", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Flip turns one card of the player's game.
func (h *Handler) Flip(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	var req flipRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CardID == nil {
		http.Error(w, "cardId is required", http.StatusBadRequest)
		return
	}

	out, err := h.Play.Flip(r.Context(), id.PlayerID, req.Handle, *req.CardID)
	if err != nil {
		h.writeError(w, "Flip", err)
		return
	}
	h.writeJSON(w, http.StatusOK, out)
}

// Abandon ends the player's game with a zero score.
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	if CORS(w, r) {
		return
	}
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	id, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	var req handleRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	snap, err := h.Play.Abandon(r.Context(), id.PlayerID, req.Handle)
	if err != nil {
		h.writeError(w, "Abandon", err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}
