package notify

import (
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notify_message_events_total",
	Help: "Message notification events by outcome",
}, []string{"result"})

// ContactResolver finds a sender among the current user's friends
type ContactResolver interface {
	Friend(userID string) (domain.User, bool)
}

// Navigator opens conversations
type Navigator interface {
	// Current returns the counterpart of the conversation on screen
	Current() (counterpartID string, ok bool)
	// Open shows the conversation with user; replace swaps the current
	// history entry instead of pushing a new one
	Open(user domain.User, replace bool)
}

// RouterConfig wires a router
type RouterConfig struct {
	Events    channel.Subscriber
	Contacts  ContactResolver
	Navigator Navigator
	Toaster   *Toaster
	Self      domain.User
	Logger    zerolog.Logger
}

// Router raises an alert for every message notification from a known sender,
// whichever page is displayed
type Router struct {
	events   channel.Subscriber
	contacts ContactResolver
	nav      Navigator
	toaster  *Toaster
	self     domain.User
	log      zerolog.Logger

	mu  sync.Mutex
	off func()
}

// NewRouter creates a stopped router
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		events:   cfg.Events,
		contacts: cfg.Contacts,
		nav:      cfg.Navigator,
		toaster:  cfg.Toaster,
		self:     cfg.Self,
		log:      cfg.Logger,
	}
}

// Start subscribes to message notifications, tearing down any previous subscription first
func (r *Router) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.off != nil {
		r.off()
	}
	r.off = r.events.On(ws.EventMessageNotification, r.handle)
}

// Stop releases the subscription
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.off != nil {
		r.off()
		r.off = nil
	}
}

// Active reports whether the router is subscribed
func (r *Router) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.off != nil
}

func (r *Router) handle(env *ws.Envelope) {
	var msg domain.Message
	if err := env.Decode(&msg); err != nil {
		r.log.Warn().Err(err).Msg("malformed message notification")
		notifications.WithLabelValues("malformed").Inc()
		return
	}

	sender, ok := r.resolve(msg.SenderID)
	if !ok {
		r.log.Debug().Str("sender", msg.SenderID).Msg("notification from unknown sender dropped")
		notifications.WithLabelValues("dropped").Inc()
		return
	}

	ev := domain.NotificationEvent{Sender: sender, Message: msg, ReceivedAt: time.Now()}
	var onClick func()
	if !ev.FromSelf(r.self.ID) {
		onClick = func() { r.open(sender) }
	}
	r.toaster.Alert(ev, onClick)
	notifications.WithLabelValues("shown").Inc()
}

func (r *Router) resolve(senderID string) (domain.User, bool) {
	if senderID == "" {
		return domain.User{}, false
	}
	if senderID == r.self.ID {
		return r.self, true
	}
	if r.contacts == nil {
		return domain.User{}, false
	}
	return r.contacts.Friend(senderID)
}

func (r *Router) open(sender domain.User) {
	if r.nav == nil {
		return
	}
	current, ok := r.nav.Current()
	r.nav.Open(sender, ok && current == sender.ID)
}
