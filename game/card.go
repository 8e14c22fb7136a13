package game

import "fmt"

// Card is a single card of a game. Its identity (id, pair, image) is fixed at
// creation; only the flip/match flags change, and never again once matched.
type Card struct {
	id        int
	pairID    int
	image     string
	isFlipped bool
	isMatched bool
}

// NewCard creates a face-down card. The image must pass SanitizeImage.
func NewCard(id int, image string, pairID int) (*Card, error) {
	if id < 0 {
		return nil, fmt.Errorf("card id %d: %w", id, ErrInvalidRecord)
	}
	clean, err := SanitizeImage(image)
	if err != nil {
		return nil, err
	}
	return &Card{id: id, pairID: pairID, image: clean}, nil
}

// ID returns the card id, unique within its game.
func (c *Card) ID() int { return c.id }

// PairID returns the identifier shared with the card's match partner.
func (c *Card) PairID() int { return c.pairID }

// Image returns the image reference of the card face.
func (c *Card) Image() string { return c.image }

// IsFlipped reports whether the card is face up.
func (c *Card) IsFlipped() bool { return c.isFlipped }

// IsMatched reports whether the card has been paired.
func (c *Card) IsMatched() bool { return c.isMatched }

// Flip toggles the card. It returns false without touching the card when the
// card is already matched.
func (c *Card) Flip() bool {
	if c.isMatched {
		return false
	}
	c.isFlipped = !c.isFlipped
	return true
}

// Hide turns the card face down unless it is matched.
func (c *Card) Hide() {
	if c.isMatched {
		return
	}
	c.isFlipped = false
}

// SetMatched marks the card as matched and face up. It cannot be undone.
func (c *Card) SetMatched() {
	c.isMatched = true
	c.isFlipped = true
}

// Matches reports whether other is this card's pair partner.
func (c *Card) Matches(other *Card) bool {
	if other == nil || other == c {
		return false
	}
	return c.pairID == other.pairID && c.id != other.id
}

// CanBeFlipped reports whether the card is face down and unmatched.
func (c *Card) CanBeFlipped() bool {
	return !c.isFlipped && !c.isMatched
}

