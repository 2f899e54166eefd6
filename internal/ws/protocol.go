package ws

import (
	"encoding/json"
)

// Event names carried on the wire
const (
	// Client -> Server
	EventJoin        = "join"
	EventSendMessage = "send_message"

	// Server -> Client
	EventReceiveMessage      = "receive_message"
	EventMessageNotification = "receive_message_notification"
	EventFriendsChanged      = "friends_changed"
	EventError               = "error"
)

// Envelope wraps every websocket frame with its event name
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is sent by the client to enter its own room
type JoinPayload struct {
	UserID string `json:"userId"`
}

// ErrorPayload is sent by the hub when a frame is rejected
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEnvelope creates an envelope with the given event and data
func NewEnvelope(event string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: event, Data: raw}, nil
}

// Encode marshals an event straight to a frame
func Encode(event string, data interface{}) ([]byte, error) {
	env, err := NewEnvelope(event, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// ParseEnvelope parses a frame into an envelope
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Decode unmarshals the envelope payload into v
func (e *Envelope) Decode(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}
