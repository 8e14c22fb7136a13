package ws

import (
	"encoding/json"

	"memory-duel-server/game"
)

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// Client-to-server message types.
const (
	TypeAuth     = "auth"
	TypeNewGame  = "new_game"
	TypeGetState = "get_state"
	TypeFlipCard = "flip_card"
	TypeAbandon  = "abandon"
	TypeReset    = "reset"
)

// Server-to-client message types.
const (
	TypeAuthenticated = "authenticated"
	TypeGameState     = "game_state"
	TypeFlipResult    = "flip_result"
	TypeGameOver      = "game_over"
	TypeGameReset     = "game_reset"
	TypeError         = "error"
)

// --- Client-to-Server message payloads ---

// AuthMsg must be the first message on a connection.
type AuthMsg struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// NewGameMsg deals a new game. PairsCount 0 uses the server default.
type NewGameMsg struct {
	Type       string `json:"type"`
	PairsCount int    `json:"pairsCount"`
}

// FlipCardMsg flips a card. Handle is optional; when set it must match the
// current game.
type FlipCardMsg struct {
	Type   string `json:"type"`
	Handle string `json:"handle,omitempty"`
	CardID *int   `json:"cardId"`
}

// AbandonMsg gives up the current game.
type AbandonMsg struct {
	Type   string `json:"type"`
	Handle string `json:"handle,omitempty"`
}

// --- Server-to-Client messages ---

// ErrorMsg is sent when a client action is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AuthenticatedMsg confirms the token was accepted.
type AuthenticatedMsg struct {
	Type        string `json:"type"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

// GameStateMsg carries the full client view of the game.
type GameStateMsg struct {
	Type   string         `json:"type"`
	Handle string         `json:"handle,omitempty"`
	State  game.StateView `json:"state"`
}

// FlipResultMsg answers a flip_card with its result and the resulting state.
type FlipResultMsg struct {
	Type   string          `json:"type"`
	Handle string          `json:"handle"`
	Result game.FlipResult `json:"result"`
	State  game.StateView  `json:"state"`
}

// GameOverMsg follows the flip that completed the game.
type GameOverMsg struct {
	Type            string `json:"type"`
	Score           int    `json:"score"`
	MovesCount      int    `json:"movesCount"`
	DurationSeconds int64  `json:"durationSeconds"`
}

// ResetMsg confirms the player's game was forgotten.
type ResetMsg struct {
	Type string `json:"type"`
}
