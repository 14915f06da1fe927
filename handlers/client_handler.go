package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tileworld/server/logger"
	"tileworld/server/messages"
	"tileworld/server/network"
	"tileworld/server/services"
)

var (
	// ErrUnknownEvent is returned for an event name outside the protocol.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrBadPayload is returned when an event's payload cannot be used.
	ErrBadPayload = errors.New("bad payload")
)

// CommandSubmitter queues commands for the game loop.
type CommandSubmitter interface {
	Submit(ctx context.Context, cmd services.Command) error
}

// ClientHandler manages a single client connection.
type ClientHandler struct {
	id            string
	ctx           context.Context
	conn          *network.Connection
	engine        CommandSubmitter
	clientManager *ClientManager
}

// HandleClientConnection serves one websocket until it closes. The
// connection gets a fresh UUID that doubles as its player id.
func HandleClientConnection(ctx context.Context, wsConn *websocket.Conn, codec messages.Codec, engine CommandSubmitter, clientManager *ClientManager) {
	conn := network.NewConnection(wsConn, codec)
	handler := &ClientHandler{
		id:            uuid.NewString(),
		ctx:           ctx,
		conn:          conn,
		engine:        engine,
		clientManager: clientManager,
	}

	log := logger.Log.WithFields(logrus.Fields{
		"client_id": handler.id,
		"remote":    wsConn.RemoteAddr().String(),
		"codec":     codec.Name(),
	})
	log.Info("Client connected")

	// Registered before join so the client sees state broadcasts at once.
	clientManager.AddClient(handler.id, conn)

	go conn.WritePump()
	conn.ReadPump(handler)

	clientManager.RemoveClient(handler.id)
	if err := engine.Submit(context.Background(), services.DisconnectCommand{PlayerID: handler.id}); err != nil {
		log.WithError(err).Debug("Disconnect not delivered")
	}
	log.Info("Client disconnected")
}

// HandleMessage turns an inbound event into a command for the engine.
func (h *ClientHandler) HandleMessage(conn *network.Connection, msg messages.BaseMessage) {
	cmd, err := parseCommand(h.id, msg)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"client_id": h.id,
			"event":     msg.Type,
		}).Warn("Rejected client event")
		return
	}
	if err := h.engine.Submit(h.ctx, cmd); err != nil {
		logger.Log.WithError(err).WithField("client_id", h.id).Warn("Failed to submit command")
	}
}

// parseCommand maps a wire event onto the closed command set.
func parseCommand(playerID string, msg messages.BaseMessage) (services.Command, error) {
	switch msg.Type {
	case messages.MessageTypeJoin:
		return services.JoinCommand{PlayerID: playerID, Nickname: nicknameFrom(msg.Payload)}, nil
	case messages.MessageTypeMove:
		raw, _ := msg.Payload.(string)
		dir, ok := services.ParseDirection(raw)
		if !ok {
			return nil, fmt.Errorf("%w: direction %v", ErrBadPayload, msg.Payload)
		}
		return services.MoveCommand{PlayerID: playerID, Direction: dir}, nil
	case messages.MessageTypeCatch:
		return services.CatchCommand{PlayerID: playerID}, nil
	case messages.MessageTypeCollectFood:
		return services.CollectFoodCommand{PlayerID: playerID}, nil
	case messages.MessageTypeChat:
		return services.ChatCommand{PlayerID: playerID, Text: textFrom(msg.Payload)}, nil
	case messages.MessageTypeRespawn:
		return services.RespawnCommand{PlayerID: playerID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
}

// nicknameFrom accepts {"nickname": "..."} or a bare string.
func nicknameFrom(payload interface{}) string {
	switch p := payload.(type) {
	case string:
		return p
	case map[string]interface{}:
		name, _ := p["nickname"].(string)
		return name
	}
	return ""
}

func textFrom(payload interface{}) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		return p
	default:
		return fmt.Sprint(p)
	}
}
