package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisPubSubChannel = "realtime:rooms"

var (
	hubClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_hub_clients",
		Help: "Number of websocket connections joined to a room",
	})
	hubRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_hub_rooms",
		Help: "Number of rooms with at least one connection",
	})
	hubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_hub_dropped_total",
		Help: "Connections dropped because their send buffer was full",
	})
)

// Hub keeps one room per user and fans frames out to every connection in a room
type Hub struct {
	// Joined clients grouped by room (user ID)
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomFrame

	mu          sync.RWMutex
	redisClient *redis.Client
	instanceID  string
	log         zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

type roomFrame struct {
	Room  string
	Frame []byte
}

// NewHub creates a new Hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *roomFrame, 256),
		redisClient: redisClient,
		instanceID:  uuid.NewString(),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			if client.closed.Load() {
				continue
			}
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			if !h.rooms[client.room][client] {
				h.rooms[client.room][client] = true
				hubClients.Inc()
			}
			hubRooms.Set(float64(len(h.rooms)))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			client.closeSend()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[msg.Room] {
				select {
				case client.send <- msg.Frame:
				default:
					hubDropped.Inc()
					h.removeLocked(client)
					client.closeSend()
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	hubClients.Dec()
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
	hubRooms.Set(float64(len(h.rooms)))
}

func (h *Hub) join(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
		client.closeSend()
	}
}

// RoomSize returns the number of connections joined to a room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// SendToUser emits an event to every connection in the user's room (local + Redis publish)
func (h *Hub) SendToUser(userID, event string, data interface{}) error {
	frame, err := Encode(event, data)
	if err != nil {
		return err
	}
	h.publish(userID, frame)
	return nil
}

// DeliverMessage fans a persisted message out: both participants' rooms get
// receive_message, the receiver's room also gets the notification event.
func (h *Hub) DeliverMessage(msg domain.Message) error {
	if err := h.SendToUser(msg.ReceiverID, EventReceiveMessage, msg); err != nil {
		return err
	}
	if msg.SenderID != msg.ReceiverID {
		if err := h.SendToUser(msg.SenderID, EventReceiveMessage, msg); err != nil {
			return err
		}
	}
	return h.SendToUser(msg.ReceiverID, EventMessageNotification, msg)
}

func (h *Hub) publish(room string, frame []byte) {
	select {
	case h.broadcast <- &roomFrame{Room: room, Frame: frame}:
	case <-h.ctx.Done():
		return
	}

	// Publish to Redis for multi-instance support
	if h.redisClient != nil {
		msg := &redisMessage{Origin: h.instanceID, Room: room, Frame: frame}
		data, err := json.Marshal(msg)
		if err == nil {
			if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, data).Err(); err != nil {
				h.log.Warn().Err(err).Str("room", room).Msg("redis publish failed")
			}
		}
	}
}

type redisMessage struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room"`
	Frame  json.RawMessage `json:"frame"`
}

// subscribeRedis delivers frames published by other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				continue
			}
			if rm.Origin == h.instanceID {
				continue
			}
			// Only local broadcast (don't re-publish to Redis)
			select {
			case h.broadcast <- &roomFrame{Room: rm.Room, Frame: rm.Frame}:
			case <-h.ctx.Done():
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
