// internal/deck/deck.go
package deck

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
)

// Size is the number of cards in a standard deck.
const Size = 52

// ErrDeckExhausted is returned by Draw on an empty deck.
var ErrDeckExhausted = errors.New("deck exhausted")

// Build returns a fresh, ordered 52-card deck with every card face-down.
func Build() []*models.Card {
	deck := make([]*models.Card, 0, Size)
	for _, suit := range models.Suits {
		for value := 1; value <= 13; value++ {
			deck = append(deck, &models.Card{
				ID:    uuid.New(),
				Suit:  suit,
				Value: value,
			})
		}
	}
	return deck
}

// Shuffle returns a uniformly shuffled copy of deck. The input slice is left untouched.
func Shuffle(deck []*models.Card) []*models.Card {
	out := make([]*models.Card, len(deck))
	copy(out, deck)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Draw takes the top card, turns it face-up and returns it along with the rest of the deck.
func Draw(deck []*models.Card) (*models.Card, []*models.Card, error) {
	if len(deck) == 0 {
		return nil, deck, ErrDeckExhausted
	}
	card := deck[0]
	card.FaceUp = true
	return card, deck[1:], nil
}
