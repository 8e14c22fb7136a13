package playerrors

import "errors"

// Sentinel errors shared by the play, session, storage, api and ws packages.
// Kept in their own package to avoid circular imports.
var (
	ErrNoActiveGame   = errors.New("no active game for this player")
	ErrStaleGame      = errors.New("game handle does not match the current game")
	ErrNameTaken      = errors.New("display name already taken")
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidName    = errors.New("invalid display name")
)
