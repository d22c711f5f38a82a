// internal/handlers/game_server.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/auth"
	"github.com/xerekinha/pyramid/internal/game"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/room"
	"github.com/xerekinha/pyramid/internal/session"
)

// MaxNicknameLength bounds nicknames in runes.
const MaxNicknameLength = 20

var (
	ErrNotInRoom       = errors.New("You are not in a room")
	ErrInvalidNickname = errors.New("Nickname must be 1-20 characters")
)

// GameServer owns the room and session registries and turns client intents
// into game operations.
type GameServer struct {
	Rooms    room.Registry
	Sessions session.Registry
	Signer   *auth.Signer
	Hub      *Hub
	Clock    session.Clock

	// Recorder is handed to every new game; nil disables the action feed.
	Recorder    game.ActionRecorder
	GracePeriod time.Duration
	MaxPlayers  int

	Logger *logrus.Logger

	// seatMu serializes seat handovers: disconnect, reconnect and expiry.
	seatMu sync.Mutex
}

// NewGameServer wires in-memory registries around signer.
func NewGameServer(signer *auth.Signer, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Rooms:       room.NewStore(),
		Sessions:    session.NewStore(),
		Signer:      signer,
		Hub:         NewHub(),
		Clock:       session.SystemClock{},
		GracePeriod: 2 * time.Minute,
		MaxPlayers:  game.MaxPlayers,
		Logger:      logger,
	}
}

// JoinResult is returned to a client that took a seat.
type JoinResult struct {
	RoomCode     string        `json:"roomId"`
	PlayerID     uuid.UUID     `json:"playerId"`
	SessionToken string        `json:"sessionToken"`
	State        *game.Snapshot `json:"state,omitempty"`
}

func cleanNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n == 0 || n > MaxNicknameLength {
		return "", ErrInvalidNickname
	}
	return nickname, nil
}

// newGame builds the game for a freshly allocated room code.
func (gs *GameServer) newGame(code string) *game.Game {
	g := game.NewGame(code, gs.Logger)
	g.MaxPlayers = gs.MaxPlayers
	if g.MaxPlayers <= 0 || g.MaxPlayers > game.MaxPlayers {
		g.MaxPlayers = game.MaxPlayers
	}
	g.Recorder = gs.Recorder
	g.BroadcastFn = gs.roomBroadcaster(code)
	return g
}

// roomBroadcaster returns a BroadcastFn that queues events for every
// connection joined to the room. It runs under the game lock and only touches
// the room index and the hub.
func (gs *GameServer) roomBroadcaster(code string) func(ev game.GameEvent) {
	return func(ev game.GameEvent) {
		gs.Hub.SendTo(gs.Rooms.ConnsIn(code), ev)
	}
}

// pushLobbies sends the open-lobby list to every connection.
func (gs *GameServer) pushLobbies() {
	gs.Hub.BroadcastAll(models.ServerMessage{Type: MsgLobbiesUpdate, Payload: gs.Rooms.OpenLobbies()})
}

// CreateRoom opens a new room with conn's player as dealer.
func (gs *GameServer) CreateRoom(conn *Connection, nickname string) (JoinResult, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return JoinResult{}, err
	}
	gs.Leave(conn)

	r, err := gs.Rooms.Create(gs.newGame)
	if err != nil {
		return JoinResult{}, fmt.Errorf("create room: %w", err)
	}
	p := models.NewPlayer(conn.ID, nickname, true)
	gs.Rooms.BindConn(conn.ID, r.Code)
	if err := r.Game.AddPlayer(p); err != nil {
		gs.Rooms.Remove(r.Code)
		return JoinResult{}, err
	}
	res, err := gs.issueSession(p.ID, r.Code)
	if err != nil {
		gs.Rooms.Remove(r.Code)
		return JoinResult{}, err
	}
	gs.Logger.WithFields(logrus.Fields{"room": r.Code, "player": p.ID}).Info("Room created")
	gs.pushLobbies()
	return res, nil
}

// JoinRoom seats conn's new player in an existing room.
func (gs *GameServer) JoinRoom(conn *Connection, code, nickname string) (JoinResult, error) {
	nickname, err := cleanNickname(nickname)
	if err != nil {
		return JoinResult{}, err
	}
	r, err := gs.Rooms.Get(code)
	if err != nil {
		return JoinResult{}, err
	}
	gs.Leave(conn)

	p := models.NewPlayer(conn.ID, nickname, false)
	gs.Rooms.BindConn(conn.ID, r.Code)
	if err := r.Game.AddPlayer(p); err != nil {
		gs.Rooms.UnbindConn(conn.ID)
		if errors.Is(err, game.ErrRoomClosed) {
			// the last player left between the lookup and the seat
			return JoinResult{}, room.ErrRoomNotFound
		}
		return JoinResult{}, err
	}
	res, err := gs.issueSession(p.ID, r.Code)
	if err != nil {
		gs.removePlayer(r, p.ID)
		return JoinResult{}, err
	}
	gs.pushLobbies()
	return res, nil
}

func (gs *GameServer) issueSession(playerID uuid.UUID, code string) (JoinResult, error) {
	token, err := gs.Signer.CreateSessionToken(playerID, code)
	if err != nil {
		return JoinResult{}, fmt.Errorf("issue session: %w", err)
	}
	gs.Sessions.Put(token, playerID, code)
	return JoinResult{RoomCode: code, PlayerID: playerID, SessionToken: token}, nil
}

// Reconnect rebinds the seat held by token to conn.
func (gs *GameServer) Reconnect(conn *Connection, token string) (JoinResult, error) {
	claims, err := gs.Signer.ParseSessionToken(token)
	if err != nil {
		gs.Logger.WithError(err).Debug("Rejected session token")
		return JoinResult{}, session.ErrSessionNotFound
	}
	gs.seatMu.Lock()
	defer gs.seatMu.Unlock()

	sess, ok := gs.Sessions.Get(token)
	if !ok || sess.Expired(gs.Clock.Now()) || sess.PlayerID != claims.PlayerID {
		return JoinResult{}, session.ErrSessionNotFound
	}
	r, err := gs.Rooms.Get(sess.RoomCode)
	if err != nil {
		gs.Sessions.Remove(token)
		return JoinResult{}, session.ErrSessionNotFound
	}

	if code, bound := gs.Rooms.CodeForConn(conn.ID); bound && code != r.Code {
		gs.Leave(conn)
	}
	gs.Rooms.BindConn(conn.ID, r.Code)
	snap, err := r.Game.Reconnect(sess.PlayerID, conn.ID)
	if err != nil {
		gs.Rooms.UnbindConn(conn.ID)
		gs.Sessions.Remove(token)
		return JoinResult{}, session.ErrSessionNotFound
	}
	if _, err := gs.Sessions.Activate(token); err != nil {
		return JoinResult{}, err
	}
	gs.Logger.WithFields(logrus.Fields{"room": r.Code, "player": sess.PlayerID, "session": sess.Fingerprint[:12]}).Info("Player reconnected")
	return JoinResult{RoomCode: r.Code, PlayerID: sess.PlayerID, SessionToken: token, State: &snap}, nil
}

// Leave removes conn's player from its room for good.
func (gs *GameServer) Leave(conn *Connection) {
	code, ok := gs.Rooms.CodeForConn(conn.ID)
	if !ok {
		return
	}
	gs.Rooms.UnbindConn(conn.ID)
	r, err := gs.Rooms.Get(code)
	if err != nil {
		return
	}
	pid, ok := r.Game.PlayerByConn(conn.ID)
	if !ok {
		return
	}
	gs.Sessions.RemovePlayer(pid)
	gs.removePlayer(r, pid)
	gs.pushLobbies()
}

// Disconnect handles a dropped connection: the seat is kept for the grace period.
func (gs *GameServer) Disconnect(conn *Connection) {
	defer gs.Hub.Remove(conn.ID)
	code, ok := gs.Rooms.CodeForConn(conn.ID)
	if !ok {
		return
	}
	gs.Rooms.UnbindConn(conn.ID)
	r, err := gs.Rooms.Get(code)
	if err != nil {
		return
	}

	gs.seatMu.Lock()
	defer gs.seatMu.Unlock()
	pid, ok := r.Game.Disconnect(conn.ID)
	if !ok {
		// the seat already moved to a newer connection
		return
	}
	expires := gs.Clock.Now().Add(gs.GracePeriod)
	gs.Sessions.Disconnect(pid, expires)
	gs.Logger.WithFields(logrus.Fields{"room": code, "player": pid}).Infof("Player disconnected, seat held until %s", expires.Format(time.RFC3339))
}

// removePlayer takes a player out of a room and cleans up what follows from it.
func (gs *GameServer) removePlayer(r *room.Room, playerID uuid.UUID) {
	res, err := r.Game.RemovePlayer(playerID)
	if err != nil {
		return
	}
	if res.Empty {
		gs.Rooms.Remove(r.Code)
		gs.Logger.WithField("room", r.Code).Info("Room destroyed")
		return
	}
	if res.Replay != nil {
		gs.applyReplay(r, res.Replay)
	}
}

// applyReplay drops the sessions and bindings of players voted out of a replay.
func (gs *GameServer) applyReplay(r *room.Room, out *game.ReplayOutcome) {
	for _, p := range out.Removed {
		gs.Sessions.RemovePlayer(p.ID)
		gs.Rooms.UnbindConn(p.ConnID)
		if c, ok := gs.Hub.Get(p.ConnID); ok {
			c.Write(models.ServerMessage{Type: string(game.EventPlayerLeft), Payload: game.EventPlayer{ID: p.ID, Nickname: p.Nickname}})
		}
	}
	if out.Started {
		gs.pushLobbies()
	}
}

// Sweep evicts every player whose grace period ran out before now.
func (gs *GameServer) Sweep(now time.Time) int {
	gs.seatMu.Lock()
	defer gs.seatMu.Unlock()

	expired := gs.Sessions.Sweep(now)
	for _, sess := range expired {
		gs.Logger.WithFields(logrus.Fields{"room": sess.RoomCode, "player": sess.PlayerID}).Info("Session expired")
		r, err := gs.Rooms.Get(sess.RoomCode)
		if err != nil {
			continue
		}
		gs.removePlayer(r, sess.PlayerID)
	}
	if len(expired) > 0 {
		gs.pushLobbies()
	}
	return len(expired)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (gs *GameServer) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gs.Sweep(gs.Clock.Now())
		}
	}
}

// seat resolves the room and player behind a connection.
func (gs *GameServer) seat(conn *Connection) (*room.Room, uuid.UUID, error) {
	code, ok := gs.Rooms.CodeForConn(conn.ID)
	if !ok {
		return nil, uuid.Nil, ErrNotInRoom
	}
	r, err := gs.Rooms.Get(code)
	if err != nil {
		return nil, uuid.Nil, err
	}
	pid, ok := r.Game.PlayerByConn(conn.ID)
	if !ok {
		return nil, uuid.Nil, ErrNotInRoom
	}
	return r, pid, nil
}
