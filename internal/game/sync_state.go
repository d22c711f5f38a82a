// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/questions"
)

// ObfCard is a card as observers see it: face-down cards carry only their id.
type ObfCard struct {
	ID     uuid.UUID   `json:"id"`
	FaceUp bool        `json:"faceUp"`
	Suit   models.Suit `json:"suit,omitempty"`
	Value  int         `json:"value,omitempty"`
}

// ObfPlayer is a player's public state.
type ObfPlayer struct {
	ID                 uuid.UUID `json:"id"`
	Nickname           string    `json:"nickname"`
	IsDealer           bool      `json:"isDealer"`
	IsReady            bool      `json:"isReady"`
	IsConnected        bool      `json:"isConnected"`
	Hand               []ObfCard `json:"hand"`
	Drinks             int       `json:"drinks"`
	DrinksToDistribute int       `json:"drinksToDistribute"`
}

// ObfRow is a pyramid row with face-down cards hidden.
type ObfRow struct {
	RowNumber       int       `json:"rowNumber"`
	Cards           []ObfCard `json:"cards"`
	DrinkMultiplier int       `json:"drinkMultiplier"`
	IsDistribute    bool      `json:"isDistribute"`
}

// ObfAnswer is the pending or last answer. Correct is nil while truco is open.
type ObfAnswer struct {
	PlayerID   uuid.UUID `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Answer     string    `json:"answer"`
	Correct    *bool     `json:"correct"`
	Card       *ObfCard  `json:"card"`
}

// Snapshot is the full state pushed to clients on every change.
type Snapshot struct {
	GameID               uuid.UUID            `json:"gameId"`
	RoomCode             string               `json:"roomId"`
	Phase                Phase                `json:"phase"`
	Difficulty           questions.Difficulty `json:"difficulty"`
	TrucoEnabled         bool                 `json:"trucoEnabled"`
	Players              []ObfPlayer          `json:"players"`
	DeckSize             int                  `json:"deckSize"`
	Pyramid              []ObfRow             `json:"pyramid"`
	CurrentPlayerIndex   int                  `json:"currentPlayerIndex"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	QuestionCount        int                  `json:"questionCount"`
	CurrentQuestion      *questions.Question  `json:"currentQuestion,omitempty"`
	CurrentPyramidRow    int                  `json:"currentPyramidRow"`
	CurrentPyramidCard   int                  `json:"currentPyramidCard"`
	TrucoVotes           []models.TrucoVote   `json:"trucoVotes"`
	TrucoSkips           []uuid.UUID          `json:"trucoSkips"`
	AwaitingTruco        bool                 `json:"awaitingTruco"`
	LastAnswer           *ObfAnswer           `json:"lastAnswer"`
	RevealedCard         *ObfCard             `json:"revealedCard"`
	MatchingCardIDs      []uuid.UUID          `json:"matchingCardIds"`
	DrinkEvents          []models.DrinkEvent  `json:"drinkEvents"`
	ReplayVotes          map[string]bool      `json:"replayVotes"`
	DealerAskedReplay    bool                 `json:"dealerAskedReplay"`
}

func obfCard(c *models.Card) ObfCard {
	if !c.FaceUp {
		return ObfCard{ID: c.ID}
	}
	return ObfCard{ID: c.ID, FaceUp: true, Suit: c.Suit, Value: c.Value}
}

func obfCards(cards []*models.Card) []ObfCard {
	out := make([]ObfCard, 0, len(cards))
	for _, c := range cards {
		out = append(out, obfCard(c))
	}
	return out
}

// snapshotUnsafe copies the state into a value that shares nothing mutable
// with the game. Assumes lock is held.
func (g *Game) snapshotUnsafe() Snapshot {
	s := Snapshot{
		GameID:               g.ID,
		RoomCode:             g.RoomCode,
		Phase:                g.Phase,
		Difficulty:           g.Difficulty,
		TrucoEnabled:         g.TrucoEnabled,
		Players:              make([]ObfPlayer, 0, len(g.Players)),
		DeckSize:             len(g.Deck),
		Pyramid:              make([]ObfRow, 0, len(g.Pyramid)),
		CurrentPlayerIndex:   g.CurrentPlayerIndex,
		CurrentQuestionIndex: g.CurrentQuestionIndex,
		QuestionCount:        questions.Count(g.Difficulty),
		CurrentPyramidRow:    g.CurrentPyramidRow,
		CurrentPyramidCard:   g.CurrentPyramidCard,
		TrucoVotes:           append([]models.TrucoVote{}, g.TrucoVotes...),
		TrucoSkips:           append([]uuid.UUID{}, g.TrucoSkips...),
		AwaitingTruco:        g.AwaitingTruco,
		MatchingCardIDs:      append([]uuid.UUID{}, g.MatchingCardIDs...),
		DrinkEvents:          append([]models.DrinkEvent{}, g.DrinkEvents...),
		ReplayVotes:          make(map[string]bool, len(g.ReplayVotes)),
		DealerAskedReplay:    g.DealerAskedReplay,
	}

	for _, p := range g.Players {
		s.Players = append(s.Players, ObfPlayer{
			ID:                 p.ID,
			Nickname:           p.Nickname,
			IsDealer:           p.IsDealer,
			IsReady:            p.IsReady,
			IsConnected:        p.Connected,
			Hand:               obfCards(p.Hand),
			Drinks:             p.Drinks,
			DrinksToDistribute: p.DrinksToDistribute,
		})
	}
	for _, row := range g.Pyramid {
		s.Pyramid = append(s.Pyramid, ObfRow{
			RowNumber:       row.RowNumber,
			Cards:           obfCards(row.Cards),
			DrinkMultiplier: row.DrinkMultiplier,
			IsDistribute:    row.IsDistribute,
		})
	}
	if g.Phase == PhaseQuestions {
		if q, ok := questions.At(g.Difficulty, g.CurrentQuestionIndex); ok {
			s.CurrentQuestion = &q
		}
	}
	if la := g.LastAnswer; la != nil {
		a := &ObfAnswer{
			PlayerID:   la.PlayerID,
			PlayerName: la.PlayerName,
			Answer:     la.Answer,
		}
		if !g.AwaitingTruco {
			correct := la.Correct
			a.Correct = &correct
		}
		if la.Card != nil {
			c := obfCard(la.Card)
			a.Card = &c
		}
		s.LastAnswer = a
	}
	if g.RevealedCard != nil {
		c := obfCard(g.RevealedCard)
		s.RevealedCard = &c
	}
	for id, v := range g.ReplayVotes {
		s.ReplayVotes[id.String()] = v
	}
	return s
}
