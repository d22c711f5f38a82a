// internal/models/card.go
package models

import "github.com/google/uuid"

// Suit is one of the four French suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists the suits in deck-building order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Card is a single playing card. Value runs from 1 (Ace) to 13 (King).
// FaceUp flips from false to true at most once during a game.
type Card struct {
	ID     uuid.UUID `json:"id"`
	Suit   Suit      `json:"suit"`
	Value  int       `json:"value"`
	FaceUp bool      `json:"faceUp"`
}

// IsOdd reports whether the card's value is odd.
func (c *Card) IsOdd() bool {
	return c.Value%2 == 1
}
