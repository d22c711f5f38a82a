// internal/game/turns.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/deck"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/questions"
)

// SubmitAnswer records the turn player's answer to the current question.
// The answer may be a localized label; it is normalized before validation.
func (g *Game) SubmitAnswer(playerID uuid.UUID, answer string) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseQuestions {
		return ErrWrongPhase
	}
	if g.AwaitingTruco {
		return ErrAwaitingTruco
	}
	p := g.playerUnsafe(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	if g.Players[g.CurrentPlayerIndex].ID != playerID {
		return ErrNotYourTurn
	}
	q, ok := questions.At(g.Difficulty, g.CurrentQuestionIndex)
	if !ok {
		g.log.Errorf("No question at index %d for %s", g.CurrentQuestionIndex, g.Difficulty)
		return ErrWrongPhase
	}
	card, rest, err := deck.Draw(g.Deck)
	if err != nil {
		g.log.WithError(err).Error("Cannot draw for answer")
		return fmt.Errorf("answer: %w", err)
	}

	canonical := questions.Normalize(answer)
	correct := questions.Validate(q.Type, canonical, card, p.Hand)

	g.Deck = rest
	if g.TrucoEnabled {
		hidden := *card
		hidden.FaceUp = false
		card = &hidden
	}
	p.Hand = append(p.Hand, card)
	g.LastAnswer = &models.LastAnswer{
		PlayerID:   p.ID,
		PlayerName: p.Nickname,
		Answer:     canonical,
		Correct:    correct,
		Card:       card,
	}
	g.logAction(p.ID, "answer", map[string]interface{}{
		"question": q.ID,
		"answer":   canonical,
		"correct":  correct,
		"card":     card.ID,
	})

	if g.TrucoEnabled {
		g.AwaitingTruco = true
		g.TrucoVotes = nil
		g.TrucoSkips = nil
		if g.trucoDecidedUnsafe() {
			g.resolveAnswerUnsafe()
			return nil
		}
		g.broadcastStateUnsafe()
		return nil
	}
	g.resolveAnswerUnsafe()
	return nil
}

// CallTruco challenges the pending answer.
func (g *Game) CallTruco(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.checkTrucoVoterUnsafe(playerID)
	if err != nil {
		return err
	}
	vote := models.TrucoVote{PlayerID: p.ID, PlayerName: p.Nickname}
	g.TrucoVotes = append(g.TrucoVotes, vote)
	g.fireEvent(GameEvent{Type: EventTrucoCall, Truco: &vote})
	g.logAction(p.ID, "truco_call", nil)
	g.afterTrucoDecisionUnsafe()
	return nil
}

// SkipTruco lets the pending answer stand as far as this player is concerned.
func (g *Game) SkipTruco(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p, err := g.checkTrucoVoterUnsafe(playerID)
	if err != nil {
		return err
	}
	g.TrucoSkips = append(g.TrucoSkips, p.ID)
	g.logAction(p.ID, "truco_skip", nil)
	g.afterTrucoDecisionUnsafe()
	return nil
}

// ConfirmTruco resolves the pending answer whether or not everyone decided.
func (g *Game) ConfirmTruco(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseQuestions || !g.AwaitingTruco {
		return ErrTrucoClosed
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	g.logAction(playerID, "truco_confirm", nil)
	g.resolveAnswerUnsafe()
	return nil
}

func (g *Game) checkTrucoVoterUnsafe(playerID uuid.UUID) (*models.Player, error) {
	if g.Phase != PhaseQuestions || !g.AwaitingTruco {
		return nil, ErrTrucoClosed
	}
	p := g.playerUnsafe(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if g.Players[g.CurrentPlayerIndex].ID == playerID {
		return nil, ErrTurnPlayerVoting
	}
	if g.hasDecidedUnsafe(playerID) {
		return nil, ErrAlreadyDecided
	}
	return p, nil
}

func (g *Game) hasDecidedUnsafe(playerID uuid.UUID) bool {
	for _, v := range g.TrucoVotes {
		if v.PlayerID == playerID {
			return true
		}
	}
	for _, id := range g.TrucoSkips {
		if id == playerID {
			return true
		}
	}
	return false
}

// trucoDecidedUnsafe reports whether every non-turn player has voted or skipped.
func (g *Game) trucoDecidedUnsafe() bool {
	return len(g.TrucoVotes)+len(g.TrucoSkips) >= len(g.Players)-1
}

func (g *Game) afterTrucoDecisionUnsafe() {
	if g.trucoDecidedUnsafe() {
		g.resolveAnswerUnsafe()
		return
	}
	g.broadcastStateUnsafe()
}

// resolveAnswerUnsafe reveals the pending card, charges drinks and advances
// the turn. Shared by the truco and non-truco paths.
func (g *Game) resolveAnswerUnsafe() {
	la := g.LastAnswer
	if la == nil {
		g.log.Error("Resolving without a pending answer")
		g.AwaitingTruco = false
		g.advanceQuestionUnsafe()
		return
	}
	la.Card.FaceUp = true
	answerer := g.playerUnsafe(la.PlayerID)
	if answerer != nil && len(answerer.Hand) > 0 {
		answerer.Hand[len(answerer.Hand)-1].FaceUp = true
	}

	callers := make(map[uuid.UUID]bool, len(g.TrucoVotes))
	callerIDs := make([]uuid.UUID, 0, len(g.TrucoVotes))
	for _, v := range g.TrucoVotes {
		callers[v.PlayerID] = true
		callerIDs = append(callerIDs, v.PlayerID)
	}

	base := models.DrinkEvent{
		Type:             models.DrinkTake,
		SourcePlayerID:   idPtr(la.PlayerID),
		SourcePlayerName: la.PlayerName,
		Card:             la.Card,
		Answer:           la.Answer,
	}
	if la.Correct {
		var others []uuid.UUID
		for _, p := range g.Players {
			if p.ID != la.PlayerID && !callers[p.ID] {
				others = append(others, p.ID)
			}
		}
		if len(others) > 0 {
			ev := base
			ev.TargetPlayerIDs = others
			ev.Amount = 1
			ev.Reason = fmt.Sprintf("%s answered correctly!", la.PlayerName)
			g.emitDrinkUnsafe(ev)
		}
		if len(callerIDs) > 0 {
			ev := base
			ev.TargetPlayerIDs = callerIDs
			ev.Amount = 2
			ev.Reason = fmt.Sprintf("Truco backfired! %s got it right. (+1 penalty)", la.PlayerName)
			g.emitDrinkUnsafe(ev)
		}
	} else {
		ev := base
		ev.TargetPlayerIDs = []uuid.UUID{la.PlayerID}
		ev.Amount = 1 + len(callerIDs)
		ev.Reason = fmt.Sprintf("%s answered incorrectly!", la.PlayerName)
		if len(callerIDs) > 0 {
			ev.Reason = fmt.Sprintf("%s answered incorrectly! (+%d Truco penalty)", la.PlayerName, len(callerIDs))
		}
		g.emitDrinkUnsafe(ev)
	}

	g.AwaitingTruco = false
	g.TrucoVotes = nil
	g.TrucoSkips = nil
	g.advanceQuestionUnsafe()
}

// advanceQuestionUnsafe moves to the next seat, the next question, or the pyramid.
func (g *Game) advanceQuestionUnsafe() {
	g.CurrentPlayerIndex++
	if g.CurrentPlayerIndex >= len(g.Players) {
		g.CurrentPlayerIndex = 0
		g.CurrentQuestionIndex++
		if g.CurrentQuestionIndex >= questions.Count(g.Difficulty) {
			g.enterRevelationUnsafe()
		}
	}
	g.LastAnswer = nil
	g.broadcastStateUnsafe()
}

func (g *Game) enterRevelationUnsafe() {
	g.Phase = PhaseRevelation
	g.CurrentPyramidRow = 0
	g.CurrentPyramidCard = 0
	g.log.Info("All questions answered, revealing the pyramid")
	g.logAction(uuid.Nil, "phase_revelation", nil)
}
