// internal/questions/validate.go
package questions

import (
	"strings"

	"github.com/xerekinha/pyramid/internal/models"
)

// rankValues maps canonical rank tokens to card values.
var rankValues = map[string]int{
	"a": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7,
	"8": 8, "9": 9, "10": 10, "j": 11, "q": 12, "k": 13,
	// pt-BR and hu rank letters typed in lower case
	"v": 11, "b": 11, "d": 12, "r": 13, "á": 1,
}

// Validate reports whether a canonical answer is correct for the drawn card.
// hand is the player's hand before the draw. Validate never fails: a question
// whose hand preconditions are not met simply yields false.
func Validate(qt Type, answer string, drawn *models.Card, hand []*models.Card) bool {
	if drawn == nil {
		return false
	}
	switch qt {
	case OddEven:
		return (answer == "odd") == drawn.IsOdd()

	case HigherLower:
		if len(hand) == 0 {
			return false
		}
		last := hand[len(hand)-1]
		switch {
		case drawn.Value > last.Value:
			return answer == "higher"
		case drawn.Value < last.Value:
			return answer == "lower"
		}
		// a tie has no right answer
		return false

	case InsideOutside:
		if len(hand) < 2 {
			return false
		}
		lo, hi := hand[0].Value, hand[1].Value
		if lo > hi {
			lo, hi = hi, lo
		}
		inside := drawn.Value >= lo && drawn.Value <= hi
		return (answer == "inside") == inside

	case SuitGuess:
		return answer == string(drawn.Suit)

	case HaveSuit:
		has := false
		for _, c := range hand {
			if c.Suit == drawn.Suit {
				has = true
				break
			}
		}
		return (answer == "yes") == has

	case Number:
		v, ok := rankValues[strings.ToLower(answer)]
		return ok && v == drawn.Value

	case HaveNumber:
		has := false
		for _, c := range hand {
			if c.Value == drawn.Value {
				has = true
				break
			}
		}
		return (answer == "yes") == has
	}
	return false
}
