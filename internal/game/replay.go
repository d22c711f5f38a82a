// internal/game/replay.go
package game

import (
	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
)

// ReplayOutcome is the result of a completed replay vote.
type ReplayOutcome struct {
	Started   bool
	YesVoters []uuid.UUID
	// Removed lists the players dropped for voting no.
	Removed []*models.Player
}

// RequestReplay opens a replay vote with the dealer voting yes.
func (g *Game) RequestReplay(playerID uuid.UUID) (*ReplayOutcome, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseEnded {
		return nil, ErrWrongPhase
	}
	if _, err := g.requireDealerUnsafe(playerID); err != nil {
		return nil, err
	}
	g.DealerAskedReplay = true
	g.ReplayVotes = map[uuid.UUID]bool{playerID: true}
	g.logAction(playerID, "replay_request", nil)
	g.fireEvent(GameEvent{Type: EventReplayVoteRequest})

	if out, done := g.tallyReplayUnsafe(); done {
		return &out, nil
	}
	g.broadcastStateUnsafe()
	return nil, nil
}

// VoteReplay records a player's only vote. The returned outcome is non-nil
// once every player has voted.
func (g *Game) VoteReplay(playerID uuid.UUID, vote bool) (*ReplayOutcome, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Phase != PhaseEnded || !g.DealerAskedReplay {
		return nil, ErrNoReplayRequested
	}
	if g.playerUnsafe(playerID) == nil {
		return nil, ErrPlayerNotFound
	}
	if _, voted := g.ReplayVotes[playerID]; voted {
		return nil, ErrAlreadyVoted
	}
	g.ReplayVotes[playerID] = vote
	g.logAction(playerID, "replay_vote", map[string]interface{}{"vote": vote})

	if out, done := g.tallyReplayUnsafe(); done {
		return &out, nil
	}
	g.broadcastStateUnsafe()
	return nil, nil
}

// tallyReplayUnsafe settles the vote once every current player has voted.
// A replay needs at least ReplayQuorum yes votes and a strict majority.
// It broadcasts the result and the new state itself.
func (g *Game) tallyReplayUnsafe() (ReplayOutcome, bool) {
	for _, p := range g.Players {
		if _, ok := g.ReplayVotes[p.ID]; !ok {
			return ReplayOutcome{}, false
		}
	}

	var out ReplayOutcome
	for _, p := range g.Players {
		if g.ReplayVotes[p.ID] {
			out.YesVoters = append(out.YesVoters, p.ID)
		}
	}
	out.Started = len(out.YesVoters) >= ReplayQuorum && 2*len(out.YesVoters) > len(g.Players)
	g.fireEvent(GameEvent{Type: EventReplayResult, Replay: &ReplayResult{
		Started:     out.Started,
		YesVoterIDs: out.YesVoters,
	}})
	g.logAction(uuid.Nil, "replay_result", map[string]interface{}{
		"started": out.Started,
		"yes":     out.YesVoters,
	})

	if !out.Started {
		g.log.Infof("Replay declined (%d yes)", len(out.YesVoters))
		g.DealerAskedReplay = false
		g.ReplayVotes = make(map[uuid.UUID]bool)
		g.broadcastStateUnsafe()
		return out, true
	}

	kept := make([]*models.Player, 0, len(out.YesVoters))
	for _, p := range g.Players {
		if g.ReplayVotes[p.ID] {
			kept = append(kept, p)
		} else {
			out.Removed = append(out.Removed, p)
		}
	}
	g.Players = kept
	g.ensureDealerUnsafe()
	g.resetToLobbyUnsafe()
	g.log.Infof("Replay accepted, %d players back in the lobby", len(kept))
	g.broadcastStateUnsafe()
	return out, true
}

// resetToLobbyUnsafe clears everything a finished game leaves behind. The
// drink-event log survives for the life of the room.
func (g *Game) resetToLobbyUnsafe() {
	for _, p := range g.Players {
		p.ResetRound()
		p.IsReady = p.IsDealer
	}
	g.Phase = PhaseLobby
	g.Deck = nil
	g.Pyramid = nil
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
}
