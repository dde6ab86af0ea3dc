// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/suitduel/internal/middleware"
	"github.com/jason-s-yu/suitduel/internal/protocol"
)

// DuelWSHandler upgrades the HTTP connection to WebSocket, registers the
// connection with its permanent id, sends CONNECTED and runs the read loop
// until the client goes away. All pairing and game state lives behind the
// GameServer; this handler only shuttles messages.
func DuelWSHandler(logger *logrus.Logger, gs *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"duel"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		if c.Subprotocol() != "duel" {
			logger.Warnf("Client connected with invalid subprotocol: %s", c.Subprotocol())
			c.Close(BadSubprotocolError, "Client must use the 'duel' subprotocol.")
			return
		}

		rec := gs.Registry.Register(c)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		logger.Infof("Player %d connected from %s. %d connection(s) total.", rec.ID, r.RemoteAddr, gs.Registry.Count())

		sendWsMessage(logger, c, protocol.Connected{Type: protocol.MsgConnected, PlayerID: rec.ID})

		readDuelMessages(r.Context(), c, gs, rec, logger)

		gs.HandleDisconnect(rec)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
		c.Close(websocket.StatusNormalClosure, "bye")
	}
}

// readDuelMessages reads client messages until the connection closes and
// routes each one. Decode failures never touch session state; the client just
// gets an ERROR back.
func readDuelMessages(ctx context.Context, c *websocket.Conn, gs *GameServer, rec *ConnectionRecord, logger *logrus.Logger) {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Infof("WebSocket closed normally for player %d.", rec.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("WebSocket context canceled for player %d.", rec.ID)
			} else {
				logger.Warnf("Error reading from WebSocket for player %d: %v (Status: %d)", rec.ID, err, status)
			}
			return
		}

		if msgType != websocket.MessageText {
			logger.Warnf("Received non-text message type %d from player %d. Ignoring.", msgType, rec.ID)
			continue
		}

		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			logger.Warnf("Rejected message from player %d: %v. Data: %s", rec.ID, err, string(data))
			if errors.Is(err, protocol.ErrUnknownType) {
				sendWsMessage(logger, c, protocol.NewError(fmt.Sprintf("Unknown message type: %s", msg.Type), false))
			} else {
				sendWsMessage(logger, c, protocol.NewError("Invalid message format.", false))
			}
			continue
		}

		logger.Debugf("Received %s from player %d.", msg.Type, rec.ID)
		switch msg.Type {
		case protocol.MsgJoin:
			gs.HandleJoin(ctx, rec, msg.Name)
		case protocol.MsgLeaveGame:
			gs.HandleLeave(ctx, rec)
		case protocol.MsgPing:
			sendWsMessage(logger, c, map[string]string{"type": protocol.MsgPong})
		default:
			gs.HandleSessionMessage(ctx, rec, msg)
		}

		select {
		case <-ctx.Done():
			logger.Infof("Context canceled after processing message for player %d.", rec.ID)
			return
		default:
		}
	}
}

// sendWsMessage marshals a message and writes it with a bounded timeout.
// Write failures are logged and otherwise ignored; the read loop detects the
// dead connection and runs teardown.
func sendWsMessage(logger *logrus.Logger, c *websocket.Conn, message interface{}) {
	if c == nil {
		logger.Error("Attempted to send WebSocket message on nil connection.")
		return
	}
	msgBytes, err := json.Marshal(message)
	if err != nil {
		logger.Errorf("Error marshaling WebSocket message: %v", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Write(writeCtx, websocket.MessageText, msgBytes); err != nil {
		status := websocket.CloseStatus(err)
		if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
			logger.Warnf("Error writing WebSocket message: %v (Status: %d)", err, status)
		}
	}
}
