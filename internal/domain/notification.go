package domain

import "time"

// NotificationEvent is an inbound message resolved against a known sender.
// Never persisted; it lives only while its alert is on screen.
type NotificationEvent struct {
	Sender     User      `json:"sender"`
	Message    Message   `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// FromSelf reports whether the event is an echo of the current user's own message
func (e NotificationEvent) FromSelf(selfID string) bool {
	return e.Sender.ID == selfID
}
