package handlers

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xerekinha/pyramid/internal/auth"
	"github.com/xerekinha/pyramid/internal/game"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/room"
	"github.com/xerekinha/pyramid/internal/session"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T) (*GameServer, *fakeClock) {
	t.Helper()
	signer, err := auth.NewSigner()
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	gs := NewGameServer(signer, logger)
	clock := &fakeClock{now: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)}
	gs.Clock = clock
	gs.GracePeriod = time.Minute
	return gs, clock
}

func newTestConn(gs *GameServer) *Connection {
	c := NewConnection(gs.Logger)
	gs.Hub.Add(c)
	return c
}

// drain empties a connection's queue without blocking.
func drain(c *Connection) []interface{} {
	var out []interface{}
	for {
		select {
		case msg := <-c.OutChan:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func acks(msgs []interface{}) []models.Ack {
	var out []models.Ack
	for _, m := range msgs {
		if a, ok := m.(models.Ack); ok {
			out = append(out, a)
		}
	}
	return out
}

func serverMessages(msgs []interface{}, typ string) []models.ServerMessage {
	var out []models.ServerMessage
	for _, m := range msgs {
		if sm, ok := m.(models.ServerMessage); ok && sm.Type == typ {
			out = append(out, sm)
		}
	}
	return out
}

func gameEvents(msgs []interface{}, typ game.GameEventType) []game.GameEvent {
	var out []game.GameEvent
	for _, m := range msgs {
		if ev, ok := m.(game.GameEvent); ok && ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func send(t *testing.T, gs *GameServer, c *Connection, typ string, payload interface{}) models.Ack {
	t.Helper()
	msg := map[string]interface{}{"type": typ, "id": "1"}
	if payload != nil {
		msg["payload"] = payload
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	gs.HandleMessage(c, data)
	got := acks(drain(c))
	require.NotEmpty(t, got)
	return got[len(got)-1]
}

func TestCreateAndJoinRoom(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	guest := newTestConn(gs)

	created, err := gs.CreateRoom(host, "  Ana ")
	require.NoError(t, err)
	assert.Len(t, created.RoomCode, room.CodeLength)
	assert.NotEmpty(t, created.SessionToken)
	msgs := drain(host)
	assert.NotEmpty(t, gameEvents(msgs, game.EventStateUpdate))
	lobbies := serverMessages(drain(guest), MsgLobbiesUpdate)
	require.Len(t, lobbies, 1)
	require.Len(t, lobbies[0].Payload, 1)

	joined, err := gs.JoinRoom(guest, "  "+created.RoomCode, "Bia")
	require.NoError(t, err)
	assert.Equal(t, created.RoomCode, joined.RoomCode)
	assert.NotEqual(t, created.PlayerID, joined.PlayerID)
	assert.Len(t, gameEvents(drain(host), game.EventPlayerJoined), 1)

	r, err := gs.Rooms.Get(created.RoomCode)
	require.NoError(t, err)
	snap := r.Game.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.Equal(t, "Ana", snap.Players[0].Nickname)
	assert.True(t, snap.Players[0].IsDealer)
}

func TestJoinRoomErrors(t *testing.T) {
	gs, _ := newTestServer(t)
	gs.MaxPlayers = 2
	host := newTestConn(gs)

	_, err := gs.CreateRoom(host, "")
	assert.ErrorIs(t, err, ErrInvalidNickname)

	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)

	_, err = gs.JoinRoom(newTestConn(gs), "ZZZZZZ", "Bia")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	_, err = gs.JoinRoom(newTestConn(gs), created.RoomCode, "Bia")
	require.NoError(t, err)

	late := newTestConn(gs)
	_, err = gs.JoinRoom(late, created.RoomCode, "Caio")
	assert.ErrorIs(t, err, game.ErrRoomFull)
	_, bound := gs.Rooms.CodeForConn(late.ID)
	assert.False(t, bound)
}

func TestDispatchGameFlow(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	guest := newTestConn(gs)

	ack := send(t, gs, host, MsgRoomCreate, map[string]string{"nickname": "Ana"})
	require.True(t, ack.OK, ack.Error)
	code := ack.Data.(JoinResult).RoomCode

	ack = send(t, gs, guest, MsgRoomJoin, map[string]string{"roomCode": code, "nickname": "Bia"})
	require.True(t, ack.OK, ack.Error)

	ack = send(t, gs, host, MsgStart, nil)
	assert.False(t, ack.OK)
	assert.Equal(t, game.ErrNotAllReady.Error(), ack.Error)

	ack = send(t, gs, guest, MsgSetReady, map[string]bool{"ready": true})
	require.True(t, ack.OK, ack.Error)
	ack = send(t, gs, guest, MsgSetDifficulty, map[string]string{"difficulty": "easy"})
	assert.Equal(t, game.ErrNotDealer.Error(), ack.Error)
	ack = send(t, gs, host, MsgSetDifficulty, map[string]string{"difficulty": "easy"})
	require.True(t, ack.OK, ack.Error)
	ack = send(t, gs, host, MsgStart, nil)
	require.True(t, ack.OK, ack.Error)

	ack = send(t, gs, guest, MsgAnswer, map[string]string{"answer": "odd"})
	assert.False(t, ack.OK)
	assert.Equal(t, game.ErrNotYourTurn.Error(), ack.Error)
	ack = send(t, gs, host, MsgAnswer, map[string]string{"answer": "odd"})
	require.True(t, ack.OK, ack.Error)

	msgs := drain(guest)
	assert.NotEmpty(t, gameEvents(msgs, game.EventDrink))

	ack = send(t, gs, host, "game:dance", nil)
	assert.False(t, ack.OK)
}

func TestStartErrorIsPushed(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	send(t, gs, host, MsgRoomCreate, map[string]string{"nickname": "Ana"})

	gs.HandleMessage(host, []byte(`{"type":"game:start"}`))
	errs := serverMessages(drain(host), MsgRoomError)
	require.Len(t, errs, 1)
	assert.Equal(t, map[string]string{"message": game.ErrNotEnoughPlayers.Error()}, errs[0].Payload)
}

func TestIntentWithoutRoom(t *testing.T) {
	gs, _ := newTestServer(t)
	c := newTestConn(gs)
	ack := send(t, gs, c, MsgAnswer, map[string]string{"answer": "odd"})
	assert.False(t, ack.OK)
	assert.Equal(t, ErrNotInRoom.Error(), ack.Error)

	ack = send(t, gs, c, MsgLobbiesList, nil)
	assert.True(t, ack.OK)
	assert.Equal(t, []models.LobbyInfo{}, ack.Data)
}

func TestDisconnectAndReconnect(t *testing.T) {
	gs, clock := newTestServer(t)
	host := newTestConn(gs)
	guest := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)
	joined, err := gs.JoinRoom(guest, created.RoomCode, "Bia")
	require.NoError(t, err)
	drain(host)

	gs.Disconnect(guest)
	assert.Len(t, gameEvents(drain(host), game.EventPlayerDisconnected), 1)
	_, ok := gs.Hub.Get(guest.ID)
	assert.False(t, ok)

	clock.now = clock.now.Add(30 * time.Second)
	assert.Zero(t, gs.Sweep(clock.now))

	again := newTestConn(gs)
	res, err := gs.Reconnect(again, joined.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, joined.PlayerID, res.PlayerID)
	require.NotNil(t, res.State)
	assert.True(t, res.State.Players[1].IsConnected)
	assert.Len(t, gameEvents(drain(host), game.EventPlayerReconnected), 1)

	clock.now = clock.now.Add(time.Hour)
	assert.Zero(t, gs.Sweep(clock.now), "an active session never expires")
}

func TestSweepReassignsDealer(t *testing.T) {
	gs, clock := newTestServer(t)
	conns := []*Connection{newTestConn(gs), newTestConn(gs), newTestConn(gs)}
	created, err := gs.CreateRoom(conns[0], "Ana")
	require.NoError(t, err)
	second, err := gs.JoinRoom(conns[1], created.RoomCode, "Bia")
	require.NoError(t, err)
	_, err = gs.JoinRoom(conns[2], created.RoomCode, "Caio")
	require.NoError(t, err)

	gs.Disconnect(conns[0])
	clock.now = clock.now.Add(2 * time.Minute)
	assert.Equal(t, 1, gs.Sweep(clock.now))

	r, err := gs.Rooms.Get(created.RoomCode)
	require.NoError(t, err)
	snap := r.Game.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.Equal(t, second.PlayerID, snap.Players[0].ID)
	assert.True(t, snap.Players[0].IsDealer)
	assert.False(t, snap.Players[1].IsDealer)

	_, err = gs.Reconnect(newTestConn(gs), created.SessionToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestSweepDestroysEmptyRoom(t *testing.T) {
	gs, clock := newTestServer(t)
	host := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)

	gs.Disconnect(host)
	clock.now = clock.now.Add(61 * time.Second)
	_, err = gs.Reconnect(newTestConn(gs), created.SessionToken)
	assert.ErrorIs(t, err, session.ErrSessionNotFound, "expired but not yet swept")

	assert.Equal(t, 1, gs.Sweep(clock.now))
	_, err = gs.Rooms.Get(created.RoomCode)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestReconnectRejectsForeignToken(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)

	other, err := auth.NewSigner()
	require.NoError(t, err)
	forged, err := other.CreateSessionToken(created.PlayerID, created.RoomCode)
	require.NoError(t, err)

	_, err = gs.Reconnect(newTestConn(gs), forged)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = gs.Reconnect(newTestConn(gs), "garbage")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestLeave(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	guest := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)
	joined, err := gs.JoinRoom(guest, created.RoomCode, "Bia")
	require.NoError(t, err)

	ack := send(t, gs, guest, MsgRoomLeave, nil)
	assert.True(t, ack.OK)
	_, ok := gs.Sessions.Get(joined.SessionToken)
	assert.False(t, ok)
	assert.Len(t, gameEvents(drain(host), game.EventPlayerLeft), 1)

	gs.Leave(host)
	_, err = gs.Rooms.Get(created.RoomCode)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestReplayDropsNoVoters(t *testing.T) {
	gs, _ := newTestServer(t)
	conns := []*Connection{newTestConn(gs), newTestConn(gs), newTestConn(gs)}
	created, err := gs.CreateRoom(conns[0], "Ana")
	require.NoError(t, err)
	_, err = gs.JoinRoom(conns[1], created.RoomCode, "Bia")
	require.NoError(t, err)
	third, err := gs.JoinRoom(conns[2], created.RoomCode, "Caio")
	require.NoError(t, err)

	r, err := gs.Rooms.Get(created.RoomCode)
	require.NoError(t, err)
	r.Game.Mu.Lock()
	r.Game.Phase = game.PhaseEnded
	r.Game.Mu.Unlock()

	require.True(t, send(t, gs, conns[0], MsgRequestReplay, nil).OK)
	require.True(t, send(t, gs, conns[1], MsgVoteReplay, map[string]bool{"vote": true}).OK)
	require.True(t, send(t, gs, conns[2], MsgVoteReplay, map[string]bool{"vote": false}).OK)

	assert.Equal(t, 2, r.Game.PlayerCount())
	_, ok := gs.Sessions.Get(third.SessionToken)
	assert.False(t, ok)
	_, bound := gs.Rooms.CodeForConn(conns[2].ID)
	assert.False(t, bound)
	assert.Equal(t, game.PhaseLobby, r.Game.Snapshot().Phase)
}

// racingRegistry runs hook once, right after the next successful Get.
type racingRegistry struct {
	room.Registry
	hook func()
}

func (r *racingRegistry) Get(code string) (*room.Room, error) {
	rm, err := r.Registry.Get(code)
	if err == nil && r.hook != nil {
		hook := r.hook
		r.hook = nil
		hook()
	}
	return rm, err
}

func TestJoinRoomClosedUnderfoot(t *testing.T) {
	gs, _ := newTestServer(t)
	host := newTestConn(gs)
	guest := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)

	gs.Rooms = &racingRegistry{Registry: gs.Rooms, hook: func() { gs.Leave(host) }}

	_, err = gs.JoinRoom(guest, created.RoomCode, "Bia")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
	_, bound := gs.Rooms.CodeForConn(guest.ID)
	assert.False(t, bound)
	assert.Zero(t, gs.Sessions.(*session.Store).Len(), "no session for a seat in a dead room")
	_, err = gs.Rooms.Get(created.RoomCode)
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestLateDisconnectOfReplacedConn(t *testing.T) {
	gs, clock := newTestServer(t)
	host := newTestConn(gs)
	oldConn := newTestConn(gs)
	created, err := gs.CreateRoom(host, "Ana")
	require.NoError(t, err)
	joined, err := gs.JoinRoom(oldConn, created.RoomCode, "Bia")
	require.NoError(t, err)

	// the client comes back on a new socket before the old one is noticed dead
	_, err = gs.Reconnect(newTestConn(gs), joined.SessionToken)
	require.NoError(t, err)
	drain(host)
	gs.Disconnect(oldConn)

	assert.Empty(t, gameEvents(drain(host), game.EventPlayerDisconnected))
	sess, ok := gs.Sessions.Get(joined.SessionToken)
	require.True(t, ok)
	assert.True(t, sess.Active())

	clock.now = clock.now.Add(time.Hour)
	assert.Zero(t, gs.Sweep(clock.now))
	r, err := gs.Rooms.Get(created.RoomCode)
	require.NoError(t, err)
	snap := r.Game.Snapshot()
	require.Len(t, snap.Players, 2)
	assert.True(t, snap.Players[1].IsConnected)
}

func TestMaxPlayersIsCapped(t *testing.T) {
	gs, _ := newTestServer(t)
	gs.MaxPlayers = 25
	created, err := gs.CreateRoom(newTestConn(gs), "Ana")
	require.NoError(t, err)
	r, err := gs.Rooms.Get(created.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, game.MaxPlayers, r.Game.MaxPlayers)

	for i := 1; i < game.MaxPlayers; i++ {
		_, err := gs.JoinRoom(newTestConn(gs), created.RoomCode, fmt.Sprintf("P%d", i))
		require.NoError(t, err)
	}
	_, err = gs.JoinRoom(newTestConn(gs), created.RoomCode, "Extra")
	assert.ErrorIs(t, err, game.ErrRoomFull)
}

func TestFailedJoinAckCarriesNoData(t *testing.T) {
	gs, _ := newTestServer(t)
	c := newTestConn(gs)
	ack := send(t, gs, c, MsgRoomJoin, map[string]string{"roomCode": "NOPE00", "nickname": "Bia"})
	assert.False(t, ack.OK)
	assert.Equal(t, room.ErrRoomNotFound.Error(), ack.Error)
	assert.Nil(t, ack.Data)

	data, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "roomId")
}
