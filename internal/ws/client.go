package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client is one authenticated websocket connection on the hub side
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	room   string

	closeOnce sync.Once
	// set once send is closed; an evicted client never re-enters a room
	closed atomic.Bool
}

// NewClient creates a new hub-side connection for an authenticated user
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.send)
	})
}

// ReadPump reads frames from the connection and dispatches join/send_message
func (c *Client) ReadPump() {
	defer func() {
		if c.room != "" {
			c.hub.leave(c)
		} else {
			c.closeSend()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug().Err(err).Str("user_id", c.userID).Msg("websocket read error")
			}
			return
		}
		c.handleFrame(data)
	}
}

func (c *Client) handleFrame(data []byte) {
	env, err := ParseEnvelope(data)
	if err != nil {
		c.reject("invalid_message", "malformed frame")
		return
	}

	switch env.Event {
	case EventJoin:
		var p JoinPayload
		if err := env.Decode(&p); err != nil || p.UserID == "" {
			c.reject("invalid_message", "join requires userId")
			return
		}
		// A connection may only enter its own room
		if p.UserID != c.userID {
			c.reject("forbidden", "cannot join another user's room")
			return
		}
		if c.closed.Load() {
			return
		}
		if c.room == "" {
			c.room = p.UserID
		}
		c.hub.join(c)

	case EventSendMessage:
		var msg domain.Message
		if err := env.Decode(&msg); err != nil || msg.ID == "" {
			c.reject("invalid_message", "send_message requires a persisted message")
			return
		}
		if msg.SenderID != c.userID {
			c.reject("forbidden", "sender does not match session")
			return
		}
		if err := c.hub.DeliverMessage(msg); err != nil {
			c.hub.log.Warn().Err(err).Str("message_id", msg.ID).Msg("deliver failed")
		}

	default:
		c.reject("invalid_message", "unknown event "+env.Event)
	}
}

// reject writes an error frame straight to this connection
func (c *Client) reject(code, message string) {
	frame, err := Encode(EventError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	defer func() {
		// send may already be closed by the hub
		_ = recover()
	}()
	select {
	case c.send <- frame:
	default:
	}
}

// WritePump sends queued frames and keepalive pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
