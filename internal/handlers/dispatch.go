// internal/handlers/dispatch.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/game"
	"github.com/xerekinha/pyramid/internal/models"
	"github.com/xerekinha/pyramid/internal/questions"
)

// Inbound intents.
const (
	MsgRoomCreate       = "room:create"
	MsgRoomJoin         = "room:join"
	MsgRoomReconnect    = "room:reconnect"
	MsgRoomLeave        = "room:leave"
	MsgLobbiesList      = "lobbies:list"
	MsgSetReady         = "game:setReady"
	MsgSetDifficulty    = "game:setDifficulty"
	MsgSetTruco         = "game:setTruco"
	MsgStart            = "game:start"
	MsgAnswer           = "game:answer"
	MsgTruco            = "game:truco"
	MsgSkipTruco        = "game:skipTruco"
	MsgConfirmTruco     = "game:confirmTruco"
	MsgRevealPyramid    = "game:revealPyramidCard"
	MsgDistributeDrinks = "game:distributeDrinks"
	MsgRequestReplay    = "game:requestReplay"
	MsgVoteReplay       = "game:voteReplay"
	MsgReorderPlayers   = "game:reorderPlayers"
	MsgPing             = "ping"
)

// Server pushes that are not game events.
const (
	MsgAck           = "ack"
	MsgRoomError     = "room:error"
	MsgLobbiesUpdate = "lobbies:update"
	MsgPong          = "pong"
)

var errUnknownIntent = errors.New("unknown message type")

type createPayload struct {
	Nickname string `json:"nickname"`
}

type joinPayload struct {
	RoomCode string `json:"roomCode"`
	Nickname string `json:"nickname"`
}

type reconnectPayload struct {
	SessionToken string `json:"sessionToken"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type difficultyPayload struct {
	Difficulty string `json:"difficulty"`
}

type trucoPayload struct {
	Enabled bool `json:"enabled"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type distributePayload struct {
	TargetPlayerIDs []uuid.UUID `json:"targetPlayerIds"`
	Amount          int         `json:"amount"`
}

type votePayload struct {
	Vote bool `json:"vote"`
}

type reorderPayload struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// HandleMessage decodes one inbound frame, runs it and acknowledges it when
// the client asked for an ack.
func (gs *GameServer) HandleMessage(conn *Connection, data []byte) {
	var msg models.ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.log.Debugf("Invalid JSON: %v", err)
		conn.Write(models.ServerMessage{Type: MsgRoomError, Payload: map[string]string{"message": "Invalid JSON format"}})
		return
	}

	result, err := gs.Dispatch(conn, msg)
	if err != nil {
		conn.log.WithFields(logrus.Fields{"intent": msg.Type, "error": err}).Debug("Intent rejected")
		if msg.Type == MsgStart && game.IsUserFacing(err) {
			conn.Write(models.ServerMessage{Type: MsgRoomError, Payload: map[string]string{"message": err.Error()}})
		}
	}
	if msg.ID == "" {
		return
	}
	ack := models.Ack{Type: MsgAck, ID: msg.ID, OK: err == nil}
	if err != nil {
		ack.Error = err.Error()
	} else {
		ack.Data = result
	}
	conn.Write(ack)
}

// Dispatch routes one intent. The result, if any, goes into the ack.
func (gs *GameServer) Dispatch(conn *Connection, msg models.ClientMessage) (interface{}, error) {
	switch msg.Type {
	case MsgPing:
		conn.Write(models.ServerMessage{Type: MsgPong})
		return nil, nil
	case MsgLobbiesList:
		return gs.Rooms.OpenLobbies(), nil
	case MsgRoomCreate:
		var p createPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return gs.CreateRoom(conn, p.Nickname)
	case MsgRoomJoin:
		var p joinPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return gs.JoinRoom(conn, p.RoomCode, p.Nickname)
	case MsgRoomReconnect:
		var p reconnectPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return gs.Reconnect(conn, p.SessionToken)
	case MsgRoomLeave:
		gs.Leave(conn)
		return nil, nil
	}

	r, pid, err := gs.seat(conn)
	if err != nil {
		return nil, err
	}
	g := r.Game

	switch msg.Type {
	case MsgSetReady:
		var p readyPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.SetReady(pid, p.Ready)
	case MsgSetDifficulty:
		var p difficultyPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		d, err := questions.ParseDifficulty(p.Difficulty)
		if err != nil {
			return nil, err
		}
		if err := g.SetDifficulty(pid, d); err != nil {
			return nil, err
		}
		gs.pushLobbies()
		return nil, nil
	case MsgSetTruco:
		var p trucoPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.SetTruco(pid, p.Enabled)
	case MsgReorderPlayers:
		var p reorderPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.ReorderPlayers(pid, p.FromIndex, p.ToIndex)
	case MsgStart:
		if err := g.Start(pid); err != nil {
			return nil, err
		}
		gs.pushLobbies()
		return nil, nil
	case MsgAnswer:
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.SubmitAnswer(pid, p.Answer)
	case MsgTruco:
		return nil, g.CallTruco(pid)
	case MsgSkipTruco:
		return nil, g.SkipTruco(pid)
	case MsgConfirmTruco:
		return nil, g.ConfirmTruco(pid)
	case MsgRevealPyramid:
		return nil, g.RevealPyramidCard(pid)
	case MsgDistributeDrinks:
		var p distributePayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.DistributeDrinks(pid, p.TargetPlayerIDs, p.Amount)
	case MsgRequestReplay:
		out, err := g.RequestReplay(pid)
		if err != nil {
			return nil, err
		}
		if out != nil {
			gs.applyReplay(r, out)
		}
		return nil, nil
	case MsgVoteReplay:
		var p votePayload
		if err := decode(msg.Payload, &p); err != nil {
			return nil, err
		}
		out, err := g.VoteReplay(pid, p.Vote)
		if err != nil {
			return nil, err
		}
		if out != nil {
			gs.applyReplay(r, out)
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", errUnknownIntent, msg.Type)
}
