package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Client-local events. They never travel on the wire.
const (
	// EventReconnect fires after a dropped transport is re-established and the room re-joined
	EventReconnect = "reconnect"
	// EventDisconnect fires when the transport drops
	EventDisconnect = "disconnect"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var (
	reconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "channel_reconnect_attempts_total",
		Help: "Reconnect dials attempted by the event channel",
	})
	droppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "channel_dropped_frames_total",
		Help: "Outbound frames dropped because the transport was down or congested",
	})
	handlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "channel_handler_panics_total",
		Help: "Event handlers that panicked",
	})
)

// State is the lifecycle of the transport
type State int

const (
	StateOpen State = iota
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "closed"
	}
}

// Subscriber attaches handlers to inbound events
type Subscriber interface {
	On(event string, handler Handler) (unsubscribe func())
}

// Emitter sends outbound events
type Emitter interface {
	Send(event string, payload interface{}) error
}

// Config configures the event channel
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	Logger           zerolog.Logger
}

func (c *Config) setDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
}

// Channel is the single persistent connection of a session. It owns the
// connect/reconnect/room-join lifecycle and fans inbound events out to
// independently attached handlers.
type Channel struct {
	cfg      Config
	token    string
	dialer   *websocket.Dialer
	handlers *registry
	log      zerolog.Logger

	mu    sync.Mutex
	conn  *websocket.Conn
	send  chan []byte
	room  string
	state State

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Connect opens the channel. It blocks until the websocket handshake completes
// or fails; after that the channel keeps itself connected until Disconnect.
func Connect(ctx context.Context, cfg Config, sessionToken string) (*Channel, error) {
	cfg.setDefaults()
	runCtx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		cfg:   cfg,
		token: sessionToken,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		handlers: newRegistry(cfg.Logger),
		log:      cfg.Logger,
		ctx:      runCtx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	send := c.attach(conn)
	go c.supervise(conn, send)

	c.log.Info().Str("url", cfg.URL).Msg("event channel connected")
	return c, nil
}

// JoinRoom enters the room keyed by userID. The room is re-joined after every reconnect.
func (c *Channel) JoinRoom(userID string) error {
	c.mu.Lock()
	c.room = userID
	c.mu.Unlock()
	return c.Send(ws.EventJoin, ws.JoinPayload{UserID: userID})
}

// Room returns the joined room, if any
func (c *Channel) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Send emits an event. Delivery is at-most-once: while the transport is down
// the frame is dropped and ErrTransport returned.
func (c *Channel) Send(event string, payload interface{}) error {
	frame, err := ws.Encode(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateOpen {
		droppedFrames.Inc()
		return fmt.Errorf("send %s: %w (%s)", event, common.ErrTransport, c.state)
	}
	select {
	case c.send <- frame:
		return nil
	default:
		droppedFrames.Inc()
		return fmt.Errorf("send %s: %w (buffer full)", event, common.ErrTransport)
	}
}

// On attaches a handler for event and returns a func that detaches only that handler
func (c *Channel) On(event string, handler Handler) func() {
	return c.handlers.add(event, handler)
}

// Subscribers returns the number of handlers attached to event
func (c *Channel) Subscribers(event string) int {
	return c.handlers.count(event)
}

// State returns the current transport state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the channel has stopped for good
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

// Disconnect closes the channel permanently and stops reconnecting
func (c *Channel) Disconnect() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		return c.conn.Close()
	}
	return nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("dial %s: %w", c.cfg.URL, common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("dial %s: %w: %v", c.cfg.URL, common.ErrTransport, err)
	}
	return conn, nil
}

// attach installs a fresh connection and its outbound queue
func (c *Channel) attach(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, sendBuffer)
	c.mu.Lock()
	c.conn = conn
	c.send = send
	if c.state != StateClosed {
		c.state = StateOpen
	}
	c.mu.Unlock()
	return send
}

// supervise serves the current connection and reconnects when it drops
func (c *Channel) supervise(conn *websocket.Conn, send chan []byte) {
	defer close(c.done)

	for {
		c.serve(conn, send)
		if c.ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		c.state = StateReconnecting
		c.mu.Unlock()
		c.log.Warn().Msg("event channel dropped, reconnecting")
		c.handlers.emit(&ws.Envelope{Event: EventDisconnect})

		var err error
		conn, err = c.reconnect()
		if err != nil {
			c.mu.Lock()
			c.state = StateClosed
			c.mu.Unlock()
			if !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("event channel gave up reconnecting")
			}
			return
		}
		if c.ctx.Err() != nil {
			conn.Close()
			return
		}
		send = c.attach(conn)

		if room := c.Room(); room != "" {
			if err := c.Send(ws.EventJoin, ws.JoinPayload{UserID: room}); err != nil {
				c.log.Warn().Err(err).Str("room", room).Msg("re-join failed")
			}
		}
		c.log.Info().Msg("event channel reconnected")
		c.handlers.emit(&ws.Envelope{Event: EventReconnect})
	}
}

// reconnect dials with exponential backoff until it succeeds, the channel is
// disconnected, or the server rejects the session
func (c *Channel) reconnect() (*websocket.Conn, error) {
	b := newBackOff(c.cfg.InitialBackoff, c.cfg.MaxBackoff)
	for {
		wait := b.NextBackOff()
		timer := time.NewTimer(wait)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return nil, c.ctx.Err()
		case <-timer.C:
		}

		reconnectAttempts.Inc()
		conn, err := c.dial(c.ctx)
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, err
		}
		c.log.Debug().Err(err).Dur("waited", wait).Msg("reconnect attempt failed")
	}
}

// serve runs the pumps for one connection and returns when it is gone
func (c *Channel) serve(conn *websocket.Conn, send chan []byte) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(conn, send, stop)
	}()

	c.readPump(conn)
	close(stop)
	conn.Close()
	wg.Wait()
}

func (c *Channel) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.ctx.Err() == nil {
				c.log.Debug().Err(err).Msg("event channel read error")
			}
			return
		}

		env, err := ws.ParseEnvelope(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("failed to parse frame")
			continue
		}
		if env.Event == ws.EventError {
			var p ws.ErrorPayload
			_ = env.Decode(&p)
			c.log.Warn().Str("code", p.Code).Str("message", p.Message).Msg("server rejected frame")
		}
		c.handlers.emit(env)
	}
}

func (c *Channel) writePump(conn *websocket.Conn, send <-chan []byte, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case frame := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-stop:
			return
		}
	}
}
