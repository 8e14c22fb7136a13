package game

// FailureReason classifies a rejected flip.
type FailureReason string

const (
	ReasonGameOver     FailureReason = "game_over"
	ReasonUnknownCard  FailureReason = "unknown_card"
	ReasonNotFlippable FailureReason = "not_flippable"
	ReasonInternal     FailureReason = "internal"
)

// Result messages.
const (
	MsgGameOver     = "The game is over."
	MsgUnknownCard  = "Card not found."
	MsgNotFlippable = "This card cannot be flipped."
	MsgInternal     = "Internal error: card not found."
	MsgFlipped      = "Card flipped."
	MsgMatch        = "Pair found!"
	MsgCompleted    = "Pair found! Game complete!"
	MsgNoMatch      = "No match."
)

// FlipResult is the outcome of a flip request. Failures leave the game
// untouched and carry a Reason; Match is only set once two cards were
// compared.
type FlipResult struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Reason        FailureReason `json:"reason,omitempty"`
	Match         *bool         `json:"match,omitempty"`
	GameCompleted bool          `json:"gameCompleted,omitempty"`
	FinalScore    *int          `json:"finalScore,omitempty"`
}

func rejected(reason FailureReason, msg string) FlipResult {
	return FlipResult{Success: false, Message: msg, Reason: reason}
}

func compared(matched bool, msg string) FlipResult {
	return FlipResult{Success: true, Message: msg, Match: &matched}
}
