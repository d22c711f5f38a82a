// internal/game/game.go
package game

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/cache"
	"github.com/xerekinha/pyramid/internal/deck"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/questions"
)

// Phase is the coarse state of a room's game.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseQuestions  Phase = "questions"
	PhaseRevelation Phase = "revelation"
	PhaseEnded      Phase = "ended"
)

const (
	MinPlayers = 2
	MaxPlayers = 10
	// ReplayQuorum is the number of yes votes needed to play again.
	ReplayQuorum = 2
)

// GameEventType is the outbound message type of a GameEvent.
type GameEventType string

const (
	EventStateUpdate        GameEventType = "game:stateUpdate"
	EventPlayerJoined       GameEventType = "room:playerJoined"
	EventPlayerLeft         GameEventType = "room:playerLeft"
	EventPlayerDisconnected GameEventType = "room:playerDisconnected"
	EventPlayerReconnected  GameEventType = "room:playerReconnected"
	EventDrink              GameEventType = "game:drinkEvent"
	EventTrucoCall          GameEventType = "game:trucoCall"
	EventReplayVoteRequest  GameEventType = "game:replayVoteRequest"
	EventReplayResult       GameEventType = "game:replayResult"
)

// EventPlayer identifies the subject of a roster event.
type EventPlayer struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}

// ReplayResult is the payload of EventReplayResult.
type ReplayResult struct {
	Started     bool        `json:"started"`
	YesVoterIDs []uuid.UUID `json:"yesVoterIds"`
}

// GameEvent is broadcast to every connection in the room.
type GameEvent struct {
	Type   GameEventType      `json:"type"`
	Player *EventPlayer       `json:"player,omitempty"`
	Drink  *models.DrinkEvent `json:"drink,omitempty"`
	Truco  *models.TrucoVote  `json:"truco,omitempty"`
	Replay *ReplayResult      `json:"replay,omitempty"`
	State  *Snapshot          `json:"state,omitempty"`
}

// ActionRecorder receives every accepted action. *cache.Publisher satisfies it.
type ActionRecorder interface {
	RecordAction(rec cache.ActionRecord)
}

// Game is the authoritative state of one room. All exported methods lock Mu;
// methods suffixed Unsafe expect the caller to hold it.
type Game struct {
	// ID identifies the current play-through and changes on every start.
	ID       uuid.UUID
	RoomCode string

	Phase        Phase
	Difficulty   questions.Difficulty
	TrucoEnabled bool

	Players []*models.Player
	Deck    []*models.Card
	Pyramid []*models.PyramidRow

	CurrentPlayerIndex   int
	CurrentQuestionIndex int
	CurrentPyramidRow    int
	CurrentPyramidCard   int

	TrucoVotes    []models.TrucoVote
	TrucoSkips    []uuid.UUID
	AwaitingTruco bool

	LastAnswer      *models.LastAnswer
	RevealedCard    *models.Card
	MatchingCardIDs []uuid.UUID
	DrinkEvents     []models.DrinkEvent

	ReplayVotes       map[uuid.UUID]bool
	DealerAskedReplay bool

	// MaxPlayers caps the roster; defaults to the package MaxPlayers.
	MaxPlayers int

	Mu sync.Mutex

	// BroadcastFn is called with Mu held and must not call back into the game.
	BroadcastFn func(ev GameEvent)

	// Recorder, if set, receives an ActionRecord for every accepted action.
	Recorder ActionRecorder

	// NewDeck returns the shuffled deck used at start. Tests replace it.
	NewDeck func() []*models.Card

	// Now is the clock used for drink-event and action timestamps.
	Now func() time.Time

	log         *logrus.Entry
	actionIndex int
	// closed is set once the roster empties; the game never seats anyone again.
	closed      bool
}

// NewGame returns an empty game in the lobby phase.
func NewGame(roomCode string, logger *logrus.Logger) *Game {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Game{
		ID:          uuid.New(),
		RoomCode:    roomCode,
		Phase:       PhaseLobby,
		Difficulty:  questions.Normal,
		Players:     []*models.Player{},
		ReplayVotes: make(map[uuid.UUID]bool),
		MaxPlayers:  MaxPlayers,
		NewDeck: func() []*models.Card {
			return deck.Shuffle(deck.Build())
		},
		Now: time.Now,
		log: logger.WithField("room", roomCode),
	}
}

// Snapshot returns the obfuscated view of the current state.
func (g *Game) Snapshot() Snapshot {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.snapshotUnsafe()
}

// PlayerCount returns the roster size.
func (g *Game) PlayerCount() int {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return len(g.Players)
}

// PlayerByConn resolves the player bound to a connection.
func (g *Game) PlayerByConn(connID uuid.UUID) (uuid.UUID, bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	for _, p := range g.Players {
		if p.ConnID == connID {
			return p.ID, true
		}
	}
	return uuid.Nil, false
}

// PlayerConns returns the connection ids of the connected players.
func (g *Game) PlayerConns() []uuid.UUID {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	out := make([]uuid.UUID, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Connected {
			out = append(out, p.ConnID)
		}
	}
	return out
}

// LobbyInfo summarises the room for the lobby browser. ok is false when the
// room is not joinable.
func (g *Game) LobbyInfo() (info models.LobbyInfo, ok bool) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Phase != PhaseLobby || len(g.Players) >= g.MaxPlayers {
		return models.LobbyInfo{}, false
	}
	host := "Unknown"
	if d := g.dealerUnsafe(); d != nil {
		host = d.Nickname
	}
	return models.LobbyInfo{
		RoomCode:    g.RoomCode,
		HostName:    host,
		PlayerCount: len(g.Players),
		MaxPlayers:  g.MaxPlayers,
		Difficulty:  string(g.Difficulty),
	}, true
}

func (g *Game) playerUnsafe(id uuid.UUID) *models.Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) playerIndexUnsafe(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (g *Game) dealerUnsafe() *models.Player {
	for _, p := range g.Players {
		if p.IsDealer {
			return p
		}
	}
	return nil
}

// requireDealerUnsafe returns the player if it exists and deals.
func (g *Game) requireDealerUnsafe(id uuid.UUID) (*models.Player, error) {
	p := g.playerUnsafe(id)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if !p.IsDealer {
		return nil, ErrNotDealer
	}
	return p, nil
}

// ensureDealerUnsafe hands the dealer role to the lowest surviving seat when
// nobody holds it. The new dealer is ready by definition.
func (g *Game) ensureDealerUnsafe() {
	if len(g.Players) == 0 || g.dealerUnsafe() != nil {
		return
	}
	next := g.Players[0]
	next.IsDealer = true
	next.IsReady = true
	g.log.Infof("Dealer role passed to %s (%s)", next.Nickname, next.ID)
}

// fireEvent hands an event to the broadcaster.
func (g *Game) fireEvent(ev GameEvent) {
	if g.BroadcastFn == nil {
		return
	}
	g.BroadcastFn(ev)
}

// broadcastStateUnsafe pushes a fresh snapshot to the room.
func (g *Game) broadcastStateUnsafe() {
	if g.BroadcastFn == nil {
		return
	}
	s := g.snapshotUnsafe()
	g.fireEvent(GameEvent{Type: EventStateUpdate, State: &s})
}

// emitDrinkUnsafe stamps, applies, logs and broadcasts a drink event.
func (g *Game) emitDrinkUnsafe(ev models.DrinkEvent) {
	ev.ID = uuid.New()
	ev.Timestamp = g.Now().UnixMilli()
	if ev.Card != nil {
		c := *ev.Card
		ev.Card = &c
	}
	switch ev.Type {
	case models.DrinkTake:
		for _, id := range ev.TargetPlayerIDs {
			if p := g.playerUnsafe(id); p != nil {
				p.Drinks += ev.Amount
			}
		}
	case models.DrinkDistribute:
		for _, id := range ev.TargetPlayerIDs {
			if p := g.playerUnsafe(id); p != nil {
				p.DrinksToDistribute += ev.Amount
			}
		}
	}
	g.DrinkEvents = append(g.DrinkEvents, ev)
	g.fireEvent(GameEvent{Type: EventDrink, Drink: &ev})
	g.logAction(ev.Source(), string(EventDrink), map[string]interface{}{
		"type":    ev.Type,
		"targets": ev.TargetPlayerIDs,
		"amount":  ev.Amount,
		"reason":  ev.Reason,
	})
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// logAction forwards an accepted action to the recorder.
// Assumes lock is held.
func (g *Game) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	if g.Recorder == nil {
		return
	}
	idx := g.actionIndex
	g.actionIndex++
	g.Recorder.RecordAction(cache.ActionRecord{
		RoomCode:      g.RoomCode,
		GameID:        g.ID,
		ActionIndex:   idx,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     g.Now().UnixMilli(),
	})
}
