// internal/models/player.go
package models

import "github.com/google/uuid"

// Player is a seat in a room. ID is stable across reconnects; ConnID changes
// every time the player binds a new connection.
type Player struct {
	ID                 uuid.UUID `json:"id"`
	ConnID             uuid.UUID `json:"-"`
	Nickname           string    `json:"nickname"`
	IsDealer           bool      `json:"isDealer"`
	IsReady            bool      `json:"isReady"`
	Connected          bool      `json:"isConnected"`
	Hand               []*Card   `json:"hand"`
	Drinks             int       `json:"drinks"`
	DrinksToDistribute int       `json:"drinksToDistribute"`
}

// NewPlayer creates a connected player. The dealer starts ready.
func NewPlayer(connID uuid.UUID, nickname string, isDealer bool) *Player {
	return &Player{
		ID:        uuid.New(),
		ConnID:    connID,
		Nickname:  nickname,
		IsDealer:  isDealer,
		IsReady:   isDealer,
		Connected: true,
		Hand:      []*Card{},
	}
}

// ResetRound clears everything a new game starts from scratch.
func (p *Player) ResetRound() {
	p.Hand = []*Card{}
	p.Drinks = 0
	p.DrinksToDistribute = 0
}
