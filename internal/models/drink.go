// internal/models/drink.go
package models

import "github.com/google/uuid"

// DrinkType classifies a drink event.
type DrinkType string

const (
	DrinkTake       DrinkType = "take"
	DrinkDistribute DrinkType = "distribute"
	// DrinkExcited notifies non-matching players that someone else is about to hand out drinks.
	DrinkExcited DrinkType = "excited"
)

// DrinkEvent is a discrete notification describing a drink charge or award.
type DrinkEvent struct {
	ID               uuid.UUID   `json:"id"`
	Type             DrinkType   `json:"type"`
	TargetPlayerIDs  []uuid.UUID `json:"targetPlayerIds"`
	SourcePlayerID   *uuid.UUID  `json:"sourcePlayerId,omitempty"`
	SourcePlayerName string      `json:"sourcePlayerName,omitempty"`
	Amount           int         `json:"amount"`
	Reason           string      `json:"reason"`
	Timestamp        int64       `json:"timestamp"`
	Card             *Card       `json:"card,omitempty"`
	Answer           string      `json:"answer,omitempty"`
}

// Source returns the player credited with the event, or uuid.Nil.
func (e DrinkEvent) Source() uuid.UUID {
	if e.SourcePlayerID == nil {
		return uuid.Nil
	}
	return *e.SourcePlayerID
}

// TrucoVote records a player challenging the pending answer.
type TrucoVote struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
}

// LastAnswer is the most recent answer submitted in the question phase.
type LastAnswer struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Answer     string    `json:"answer"`
	Correct    bool      `json:"correct"`
	Card       *Card     `json:"card"`
}
