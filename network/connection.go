package network

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tileworld/server/logger"
	"tileworld/server/messages"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// ErrConnectionClosed is returned by SendMessage after Close.
var ErrConnectionClosed = errors.New("connection closed")

// Connection wraps the WebSocket connection with an outbound queue.
type Connection struct {
	ws    *websocket.Conn
	codec messages.Codec
	send  chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

// NewConnection creates a new connection wrapper speaking codec.
func NewConnection(ws *websocket.Conn, codec messages.Codec) *Connection {
	return &Connection{
		ws:     ws,
		codec:  codec,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

// ReadPump decodes inbound frames and hands them to h until the peer
// goes away. It returns when the connection is done.
func (c *Connection) ReadPump(h MessageHandler) {
	defer c.Close()

	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				logger.Log.WithField("limit", maxMessageSize).Warn("Inbound frame exceeds read limit, closing connection")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				logger.Log.WithError(err).Warn("Error reading message")
			}
			return
		}

		var msg messages.BaseMessage
		if err := c.codec.Unmarshal(data, &msg); err != nil {
			logger.Log.WithError(err).Warn("Error decoding message")
			continue
		}
		h.HandleMessage(c, msg)
	}
}

// WritePump writes queued frames and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(c.codec.FrameType(), message); err != nil {
				logger.Log.WithError(err).Debug("write failed")
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				c.Close()
				return
			}

		case <-c.closed:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// SendMessage encodes msg and queues it without blocking. A full queue
// means the client cannot keep up, so the connection is closed.
func (c *Connection) SendMessage(msg messages.BaseMessage) error {
	data, err := c.codec.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		logger.Log.Warn("Send buffer full, closing connection")
		c.Close()
		return ErrConnectionClosed
	}
}

// Close stops the pumps. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		// Unblocks a ReadPump waiting on the socket.
		c.ws.SetReadDeadline(time.Now())
	})
}

// Done is closed once the connection has been closed.
func (c *Connection) Done() <-chan struct{} {
	return c.closed
}

// MessageHandler handles decoded inbound messages.
type MessageHandler interface {
	HandleMessage(conn *Connection, msg messages.BaseMessage)
}
