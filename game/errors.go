package game

import "errors"

// Validation errors are returned by constructors; the object is never created.
var (
	ErrInvalidPairsCount = errors.New("pairs count must be between 3 and 12")
	ErrInvalidImage      = errors.New("invalid card image")
	ErrInvalidRecord     = errors.New("invalid game record")
)

// ErrCardMissing reports a card that passed validation but could not be
// resolved afterwards. It indicates a defect, not a player mistake.
var ErrCardMissing = errors.New("card missing from game")
