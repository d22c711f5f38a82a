// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/middleware"
	"golang.org/x/time/rate"
)

// Subprotocol is the websocket subprotocol clients must request.
const Subprotocol = "pyramid"

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second

	// inbound intents per connection: a burst of 10, refilled every 100ms
	intentEvery = 100 * time.Millisecond
	intentBurst = 10
)

// WSHandler upgrades the request and runs the connection until it closes.
// Every room intent for the connection arrives over this socket.
func WSHandler(logger *logrus.Logger, gs *GameServer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the pyramid subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		conn := NewConnection(logger)
		conn.Cancel = cancel
		gs.Hub.Add(conn)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		go writePump(ctx, c, conn)
		err = readPump(ctx, c, gs, conn)

		gs.Disconnect(conn)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump feeds inbound frames to the game server until the socket fails.
func readPump(ctx context.Context, c *websocket.Conn, gs *GameServer, conn *Connection) error {
	l := rate.NewLimiter(rate.Every(intentEvery), intentBurst)
	for {
		if err := l.Wait(ctx); err != nil {
			return nil
		}
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			conn.log.Debugf("Ignoring non-text frame %d", typ)
			continue
		}
		gs.HandleMessage(conn, data)
	}
}

// writePump drains OutChan onto the socket and keeps the connection alive.
func writePump(ctx context.Context, c *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				conn.log.Warnf("Failed to marshal outgoing %T: %v", msg, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				conn.log.Debugf("Write failed: %v", err)
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				conn.log.Debugf("Ping failed: %v", err)
				conn.Cancel()
				return
			}
		}
	}
}
