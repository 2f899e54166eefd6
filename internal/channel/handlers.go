package channel

import (
	"sync"

	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/rs/zerolog"
)

// Handler receives one inbound event. Handlers run on the channel's read
// goroutine, one at a time, in arrival order.
type Handler func(env *ws.Envelope)

type subscription struct {
	id      uint64
	handler Handler
}

// registry is the per-channel event name -> handlers table
type registry struct {
	subscribers map[string][]subscription
	nextID      uint64
	mu          sync.RWMutex
	log         zerolog.Logger
}

func newRegistry(log zerolog.Logger) *registry {
	return &registry{
		subscribers: make(map[string][]subscription),
		log:         log,
	}
}

// add registers handler for event and returns its idempotent unsubscribe func
func (r *registry) add(event string, handler Handler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.subscribers[event] = append(r.subscribers[event], subscription{id: id, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.remove(event, id) })
	}
}

func (r *registry) remove(event string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subscribers[event]
	remaining := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			remaining = append(remaining, s)
		}
	}
	if len(remaining) == 0 {
		delete(r.subscribers, event)
	} else {
		r.subscribers[event] = remaining
	}
}

// emit calls every handler subscribed to env.Event; a panicking handler does not
// prevent the others from running
func (r *registry) emit(env *ws.Envelope) {
	r.mu.RLock()
	subs := make([]subscription, len(r.subscribers[env.Event]))
	copy(subs, r.subscribers[env.Event])
	r.mu.RUnlock()

	for _, s := range subs {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					handlerPanics.Inc()
					r.log.Error().Str("event", env.Event).Interface("panic", rec).Msg("event handler panicked")
				}
			}()
			s.handler(env)
		}()
	}
}

// count returns the number of handlers subscribed to event
func (r *registry) count(event string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers[event])
}
