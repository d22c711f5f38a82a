// internal/game/lobby.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/pyramid"
	"github.com/xerekinha/pyramid/internal/questions"
)

// Removal describes what RemovePlayer did.
type Removal struct {
	Player *models.Player
	// Empty is true when the roster is now empty and the room should go.
	Empty bool
	// Replay is set when the departure completed a pending replay vote.
	Replay *ReplayOutcome
}

// AddPlayer seats a new player. The first player in an empty room deals.
func (g *Game) AddPlayer(p *models.Player) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.closed {
		return ErrRoomClosed
	}
	if g.Phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	if len(g.Players) >= g.MaxPlayers {
		return ErrRoomFull
	}
	if len(g.Players) == 0 {
		p.IsDealer = true
		p.IsReady = true
	} else {
		p.IsDealer = false
	}
	g.Players = append(g.Players, p)

	g.log.Infof("Player %s (%s) joined", p.Nickname, p.ID)
	g.fireEvent(GameEvent{Type: EventPlayerJoined, Player: &EventPlayer{ID: p.ID, Nickname: p.Nickname}})
	g.logAction(p.ID, "player_join", map[string]interface{}{"nickname": p.Nickname})
	g.broadcastStateUnsafe()
	return nil
}

// RemovePlayer drops a player from the roster in any phase, keeping turn
// state, truco decisions and replay votes consistent with the new roster.
func (g *Game) RemovePlayer(playerID uuid.UUID) (Removal, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	idx := g.playerIndexUnsafe(playerID)
	if idx < 0 {
		return Removal{}, ErrPlayerNotFound
	}
	p := g.Players[idx]
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)
	g.dropDecisionsUnsafe(playerID)

	g.log.Infof("Player %s (%s) left", p.Nickname, p.ID)
	g.logAction(playerID, "player_leave", nil)
	res := Removal{Player: p}
	if len(g.Players) == 0 {
		g.closed = true
		res.Empty = true
		return res, nil
	}
	g.ensureDealerUnsafe()

	g.fireEvent(GameEvent{Type: EventPlayerLeft, Player: &EventPlayer{ID: p.ID, Nickname: p.Nickname}})

	switch g.Phase {
	case PhaseQuestions:
		if g.fixTurnAfterRemovalUnsafe(idx) {
			// the turn moved on or the phase ended
			break
		}
		if g.AwaitingTruco && g.trucoDecidedUnsafe() {
			g.resolveAnswerUnsafe()
			return res, nil
		}
	case PhaseEnded:
		if g.DealerAskedReplay {
			if out, done := g.tallyReplayUnsafe(); done {
				res.Replay = &out
				return res, nil
			}
		}
	}
	g.broadcastStateUnsafe()
	return res, nil
}

// dropDecisionsUnsafe forgets a departed player's truco decision and replay vote.
func (g *Game) dropDecisionsUnsafe(playerID uuid.UUID) {
	votes := g.TrucoVotes[:0]
	for _, v := range g.TrucoVotes {
		if v.PlayerID != playerID {
			votes = append(votes, v)
		}
	}
	g.TrucoVotes = votes
	skips := g.TrucoSkips[:0]
	for _, id := range g.TrucoSkips {
		if id != playerID {
			skips = append(skips, id)
		}
	}
	g.TrucoSkips = skips
	delete(g.ReplayVotes, playerID)
}

// fixTurnAfterRemovalUnsafe keeps CurrentPlayerIndex valid after the seat at
// idx was removed. It reports whether the turn changed hands.
func (g *Game) fixTurnAfterRemovalUnsafe(idx int) bool {
	switch {
	case idx < g.CurrentPlayerIndex:
		g.CurrentPlayerIndex--
		return false
	case idx > g.CurrentPlayerIndex:
		return false
	}
	// the turn player left; their pending answer goes with them
	if g.AwaitingTruco {
		g.AwaitingTruco = false
		g.TrucoVotes = nil
		g.TrucoSkips = nil
	}
	g.LastAnswer = nil
	if g.CurrentPlayerIndex >= len(g.Players) {
		g.CurrentPlayerIndex = 0
		g.CurrentQuestionIndex++
		if g.CurrentQuestionIndex >= questions.Count(g.Difficulty) {
			g.enterRevelationUnsafe()
		}
	}
	return true
}

// Disconnect marks the player seated on connID as away without giving up
// their seat. It reports false when no connected player is bound to connID,
// e.g. because the seat already moved to a newer connection.
func (g *Game) Disconnect(connID uuid.UUID) (uuid.UUID, bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	var p *models.Player
	for _, pl := range g.Players {
		if pl.ConnID == connID {
			p = pl
			break
		}
	}
	if p == nil || !p.Connected {
		return uuid.Nil, false
	}
	p.Connected = false
	g.log.Debugf("Player %s disconnected", p.ID)
	g.fireEvent(GameEvent{Type: EventPlayerDisconnected, Player: &EventPlayer{ID: p.ID, Nickname: p.Nickname}})
	g.broadcastStateUnsafe()
	return p.ID, true
}

// Reconnect rebinds a player to a new connection and returns the current state.
func (g *Game) Reconnect(playerID, connID uuid.UUID) (Snapshot, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.playerUnsafe(playerID)
	if p == nil {
		return Snapshot{}, ErrPlayerNotFound
	}
	p.ConnID = connID
	p.Connected = true
	g.log.Debugf("Player %s reconnected", p.ID)
	g.fireEvent(GameEvent{Type: EventPlayerReconnected, Player: &EventPlayer{ID: p.ID, Nickname: p.Nickname}})
	g.broadcastStateUnsafe()
	return g.snapshotUnsafe(), nil
}

// SetReady toggles a player's readiness in the lobby.
func (g *Game) SetReady(playerID uuid.UUID, ready bool) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	p := g.playerUnsafe(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.IsReady = ready
	g.broadcastStateUnsafe()
	return nil
}

// SetDifficulty changes the question count. Dealer only, lobby only.
func (g *Game) SetDifficulty(playerID uuid.UUID, d questions.Difficulty) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	if _, err := questions.ParseDifficulty(string(d)); err != nil {
		return err
	}
	g.Difficulty = d
	g.broadcastStateUnsafe()
	return nil
}

// SetTruco toggles the truco sub-phase. Dealer only, lobby only.
func (g *Game) SetTruco(playerID uuid.UUID, enabled bool) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	g.TrucoEnabled = enabled
	g.broadcastStateUnsafe()
	return nil
}

// ReorderPlayers moves the seat at from to position to.
func (g *Game) ReorderPlayers(playerID uuid.UUID, from, to int) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	n := len(g.Players)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrInvalidIndex
	}
	if from == to {
		return nil
	}
	moved := g.Players[from]
	rest := append(append([]*models.Player{}, g.Players[:from]...), g.Players[from+1:]...)
	out := make([]*models.Player, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	out = append(out, rest[to:]...)
	g.Players = out
	g.broadcastStateUnsafe()
	return nil
}

// Start leaves the lobby: builds the deck and pyramid and opens the first turn.
func (g *Game) Start(playerID uuid.UUID) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseLobby {
		return ErrAlreadyStarted
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return err
	}
	n := len(g.Players)
	if n < MinPlayers {
		return ErrNotEnoughPlayers
	}
	if n > MaxPlayers {
		return ErrTooManyPlayers
	}
	for _, p := range g.Players {
		if !p.IsReady {
			return ErrNotAllReady
		}
	}

	rows, rest, err := pyramid.Build(g.NewDeck(), n)
	if err != nil {
		g.log.WithError(err).Error("Cannot build pyramid")
		return fmt.Errorf("start: %w", err)
	}

	g.ID = uuid.New()
	g.actionIndex = 0
	for _, p := range g.Players {
		p.ResetRound()
	}
	g.Deck = rest
	g.Pyramid = rows
	g.Phase = PhaseQuestions
	g.CurrentPlayerIndex = 0
	g.CurrentQuestionIndex = 0
	g.CurrentPyramidRow = 0
	g.CurrentPyramidCard = 0
	g.TrucoVotes = nil
	g.TrucoSkips = nil
	g.AwaitingTruco = false
	g.LastAnswer = nil
	g.RevealedCard = nil
	g.MatchingCardIDs = nil
	g.ReplayVotes = make(map[uuid.UUID]bool)
	g.DealerAskedReplay = false

	g.log.Infof("Game %s started with %d players (%s, truco=%v)", g.ID, n, g.Difficulty, g.TrucoEnabled)
	g.logAction(playerID, "game_start", map[string]interface{}{
		"players":    n,
		"difficulty": g.Difficulty,
		"truco":      g.TrucoEnabled,
	})
	g.broadcastStateUnsafe()
	return nil
}
