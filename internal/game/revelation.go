// internal/game/revelation.go
package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/pyramid"
)

// RevealPyramidCard flips the card under the cursor and pays it out.
// Dealer only.
func (g *Game) RevealPyramidCard(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseRevelation {
		return ErrWrongPhase
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	r, c := g.CurrentPyramidRow, g.CurrentPyramidCard
	if r >= len(g.Pyramid) || c >= len(g.Pyramid[r].Cards) {
		g.log.Errorf("Pyramid cursor %d/%d out of bounds", r, c)
		return pyramid.ErrOutOfBounds
	}
	if g.Pyramid[r].Cards[c].FaceUp {
		return ErrAlreadyRevealed
	}
	rows, err := pyramid.RevealAt(g.Pyramid, r, c)
	if err != nil {
		g.log.WithError(err).Error("Cannot reveal pyramid card")
		return err
	}

	g.Pyramid = rows
	row := rows[r]
	revealed := *row.Cards[c]
	g.RevealedCard = &revealed

	hands := make([]pyramid.PlayerHand, 0, len(g.Players))
	ids := make([]uuid.UUID, 0, len(g.Players))
	g.MatchingCardIDs = nil
	for _, p := range g.Players {
		hands = append(hands, pyramid.PlayerHand{PlayerID: p.ID, Hand: p.Hand})
		ids = append(ids, p.ID)
		for _, hc := range p.Hand {
			if hc.Value == revealed.Value {
				g.MatchingCardIDs = append(g.MatchingCardIDs, hc.ID)
			}
		}
	}
	payout := pyramid.ComputePayout(row, &revealed, hands, ids)

	g.logAction(playerID, "pyramid_reveal", map[string]interface{}{
		"row":   r,
		"index": c,
		"card":  revealed.ID,
		"value": revealed.Value,
	})
	if row.IsDistribute && payout.MatchesFound {
		g.payDistributeUnsafe(row, &revealed, payout)
	} else {
		g.payTakeUnsafe(row, &revealed, payout)
	}

	g.CurrentPyramidCard++
	if g.CurrentPyramidCard >= len(row.Cards) {
		g.CurrentPyramidCard = 0
		g.CurrentPyramidRow++
		if g.CurrentPyramidRow >= len(g.Pyramid) {
			g.Phase = PhaseEnded
			g.log.Info("Pyramid fully revealed, game over")
			g.logAction(uuid.Nil, "game_end", nil)
		}
	}
	g.broadcastStateUnsafe()
	return nil
}

// payDistributeUnsafe awards distributable drinks to the matching players and
// tells everyone else who is about to hand them out.
func (g *Game) payDistributeUnsafe(row *models.PyramidRow, card *models.Card, payout pyramid.Payout) {
	winners := make(map[uuid.UUID]bool, len(payout.Assignments))
	names := make([]string, 0, len(payout.Assignments))
	var first uuid.UUID
	for _, a := range payout.Assignments {
		p := g.playerUnsafe(a.PlayerID)
		if p == nil {
			continue
		}
		if len(names) == 0 {
			first = p.ID
		}
		winners[p.ID] = true
		names = append(names, p.Nickname)
		g.emitDrinkUnsafe(models.DrinkEvent{
			Type:             models.DrinkDistribute,
			TargetPlayerIDs:  []uuid.UUID{p.ID},
			SourcePlayerID:   idPtr(p.ID),
			SourcePlayerName: p.Nickname,
			Amount:           a.Amount,
			Reason:           fmt.Sprintf("Matched card in gift Row %d!", row.RowNumber),
			Card:             card,
		})
	}

	verb := "is"
	if len(names) > 1 {
		verb = "are"
	}
	list := joinNames(names)
	reason := fmt.Sprintf("%s %s getting excited!", list, verb)
	for _, p := range g.Players {
		if winners[p.ID] {
			continue
		}
		g.emitDrinkUnsafe(models.DrinkEvent{
			Type:             models.DrinkExcited,
			TargetPlayerIDs:  []uuid.UUID{p.ID},
			SourcePlayerID:   idPtr(first),
			SourcePlayerName: list,
			Amount:           len(names),
			Reason:           reason,
			Card:             card,
		})
	}
}

// payTakeUnsafe charges every assignment with its own take event.
func (g *Game) payTakeUnsafe(row *models.PyramidRow, card *models.Card, payout pyramid.Payout) {
	reason := "No matches - everyone drinks!"
	if payout.MatchesFound {
		reason = fmt.Sprintf("Matched card in Row %d!", row.RowNumber)
	}
	for _, a := range payout.Assignments {
		g.emitDrinkUnsafe(models.DrinkEvent{
			Type:            models.DrinkTake,
			TargetPlayerIDs: []uuid.UUID{a.PlayerID},
			Amount:          a.Amount,
			Reason:          reason,
			Card:            card,
		})
	}
}

// DistributeDrinks hands out amount of the player's distributable drinks,
// split evenly across targets. Remainders of the split are lost.
func (g *Game) DistributeDrinks(playerID uuid.UUID, targets []uuid.UUID, amount int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.playerUnsafe(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > p.DrinksToDistribute {
		return ErrInsufficientDrinks
	}
	if len(targets) == 0 {
		return ErrInvalidTargets
	}
	names := make([]string, 0, len(targets))
	seen := make(map[uuid.UUID]bool, len(targets))
	for _, id := range targets {
		t := g.playerUnsafe(id)
		if t == nil || seen[id] {
			return ErrInvalidTargets
		}
		seen[id] = true
		names = append(names, t.Nickname)
	}

	p.DrinksToDistribute -= amount
	g.logAction(p.ID, "distribute_drinks", map[string]interface{}{
		"targets": targets,
		"amount":  amount,
	})
	if each := amount / len(targets); each > 0 {
		g.emitDrinkUnsafe(models.DrinkEvent{
			Type:             models.DrinkTake,
			TargetPlayerIDs:  append([]uuid.UUID(nil), targets...),
			SourcePlayerID:   idPtr(p.ID),
			SourcePlayerName: p.Nickname,
			Amount:           each,
			Reason:           fmt.Sprintf("%s is sharing the love with %s!", p.Nickname, joinNames(names)),
		})
	}
	g.broadcastStateUnsafe()
	return nil
}

// joinNames lists names as "A", "A & B" or "A, B & C".
func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " & " + names[len(names)-1]
}
