// internal/questions/catalog.go
package questions

import "fmt"

// Type identifies how an answer is checked against the drawn card.
type Type string

const (
	OddEven       Type = "odd_even"
	HigherLower   Type = "higher_lower"
	InsideOutside Type = "inside_outside"
	SuitGuess     Type = "suit"
	HaveSuit      Type = "have_suit"
	Number        Type = "number"
	HaveNumber    Type = "have_number"
)

// Difficulty selects how many catalog questions a game plays.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Normal Difficulty = "normal"
	Hard   Difficulty = "hard"
)

// ParseDifficulty validates a client-provided difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case Easy, Normal, Hard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Question is a catalog entry. Options are canonical answer tokens; display
// text and translations live with the client.
type Question struct {
	ID      string   `json:"id"`
	Type    Type     `json:"type"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

var catalog = []Question{
	{ID: "q1", Type: OddEven, Text: "Is the next card Odd or Even?", Options: []string{"odd", "even"}},
	{ID: "q2", Type: HigherLower, Text: "Is the next card's value Higher or Lower than the card you just received?", Options: []string{"higher", "lower"}},
	{ID: "q3", Type: InsideOutside, Text: "Is the next card's value Inside or Outside the range set by your first two cards?", Options: []string{"inside", "outside"}},
	{ID: "q4", Type: SuitGuess, Text: "What is the suit of the next card?", Options: []string{"hearts", "diamonds", "clubs", "spades"}},
	{ID: "q5", Type: HaveSuit, Text: "Do you already have a card of this suit?", Options: []string{"yes", "no"}},
	{ID: "q6", Type: Number, Text: "What is the number/face of the next card?", Options: []string{"a", "2", "3", "4", "5", "6", "7", "8", "9", "10", "j", "q", "k"}},
	{ID: "q7", Type: HaveNumber, Text: "Do you already have a card of this number?", Options: []string{"yes", "no"}},
}

// For returns the questions played at a difficulty, in catalog order.
func For(d Difficulty) []Question {
	switch d {
	case Easy:
		return catalog[:3]
	case Hard:
		return catalog
	default:
		return catalog[:5]
	}
}

// Count is len(For(d)).
func Count(d Difficulty) int {
	return len(For(d))
}

// At returns the question at index for difficulty d.
func At(d Difficulty, index int) (Question, bool) {
	qs := For(d)
	if index < 0 || index >= len(qs) {
		return Question{}, false
	}
	return qs[index], true
}
