// internal/pyramid/pyramid.go
package pyramid

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
)

var (
	// ErrInsufficientDeck means the deck cannot fill all five rows.
	ErrInsufficientDeck = errors.New("insufficient deck for pyramid")
	// ErrAlreadyRevealed is returned when revealing a card that is already face-up.
	ErrAlreadyRevealed = errors.New("pyramid card already revealed")
	// ErrOutOfBounds is returned for a row or card index outside the pyramid.
	ErrOutOfBounds = errors.New("pyramid position out of bounds")
)

// rowSpec describes a row before the last one, which grows with the player count.
var rowSpecs = []struct {
	size       int
	multiplier int
	distribute bool
}{
	{5, 1, false},
	{4, 2, true},
	{3, 3, false},
	{2, 4, true},
	{1, 5, false}, // plus one card per player
}

// CardCount returns how many cards a pyramid for playerCount players consumes.
func CardCount(playerCount int) int {
	return 5 + 4 + 3 + 2 + 1 + playerCount
}

// Build deals the pyramid off the top of an already shuffled deck and returns
// the five rows (all face-down) and the remaining deck.
func Build(deck []*models.Card, playerCount int) ([]*models.PyramidRow, []*models.Card, error) {
	need := CardCount(playerCount)
	if playerCount < 0 || need > len(deck) {
		return nil, deck, fmt.Errorf("%w: need %d cards, have %d", ErrInsufficientDeck, need, len(deck))
	}

	rows := make([]*models.PyramidRow, 0, len(rowSpecs))
	rest := deck
	for i, spec := range rowSpecs {
		size := spec.size
		if i == len(rowSpecs)-1 {
			size += playerCount
		}
		cards := make([]*models.Card, size)
		for j, c := range rest[:size] {
			cp := *c
			cp.FaceUp = false
			cards[j] = &cp
		}
		rest = rest[size:]
		rows = append(rows, &models.PyramidRow{
			RowNumber:       i + 1,
			Cards:           cards,
			DrinkMultiplier: spec.multiplier,
			IsDistribute:    spec.distribute,
		})
	}
	return rows, rest, nil
}

// RevealAt returns a copy of the pyramid with the card at (rowIndex, cardIndex) face-up.
// The input pyramid is not modified.
func RevealAt(rows []*models.PyramidRow, rowIndex, cardIndex int) ([]*models.PyramidRow, error) {
	if rowIndex < 0 || rowIndex >= len(rows) {
		return rows, fmt.Errorf("%w: row %d", ErrOutOfBounds, rowIndex)
	}
	row := rows[rowIndex]
	if cardIndex < 0 || cardIndex >= len(row.Cards) {
		return rows, fmt.Errorf("%w: row %d card %d", ErrOutOfBounds, rowIndex, cardIndex)
	}
	if row.Cards[cardIndex].FaceUp {
		return rows, ErrAlreadyRevealed
	}

	out := make([]*models.PyramidRow, len(rows))
	copy(out, rows)

	newRow := *row
	newRow.Cards = make([]*models.Card, len(row.Cards))
	copy(newRow.Cards, row.Cards)
	revealed := *row.Cards[cardIndex]
	revealed.FaceUp = true
	newRow.Cards[cardIndex] = &revealed
	out[rowIndex] = &newRow
	return out, nil
}

// PlayerHand pairs a player with their hand for payout computation.
type PlayerHand struct {
	PlayerID uuid.UUID
	Hand     []*models.Card
}

// Assignment is one player's share of a reveal.
type Assignment struct {
	PlayerID uuid.UUID
	Amount   int
	Type     models.DrinkType
	Matches  int
}

// Payout is the outcome of revealing one pyramid card.
type Payout struct {
	MatchesFound bool
	Assignments  []Assignment
}

// ComputePayout counts, per player, the hand cards matching the revealed card's
// value. Without any match every id in allPlayerIDs takes one drink. Otherwise
// each matching player gets matches*multiplier, to take or to distribute
// depending on the row; players without a match get nothing.
func ComputePayout(row *models.PyramidRow, revealed *models.Card, hands []PlayerHand, allPlayerIDs []uuid.UUID) Payout {
	var out Payout
	for _, ph := range hands {
		n := 0
		for _, c := range ph.Hand {
			if c.Value == revealed.Value {
				n++
			}
		}
		if n == 0 {
			continue
		}
		typ := models.DrinkTake
		if row.IsDistribute {
			typ = models.DrinkDistribute
		}
		out.Assignments = append(out.Assignments, Assignment{
			PlayerID: ph.PlayerID,
			Amount:   n * row.DrinkMultiplier,
			Type:     typ,
			Matches:  n,
		})
	}

	if len(out.Assignments) > 0 {
		out.MatchesFound = true
		return out
	}

	// no match, everyone drinks
	for _, id := range allPlayerIDs {
		out.Assignments = append(out.Assignments, Assignment{PlayerID: id, Amount: 1, Type: models.DrinkTake})
	}
	return out
}
