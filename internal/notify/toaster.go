package notify

import (
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultLifetime is how long a toast stays on screen unless dismissed
const DefaultLifetime = 5 * time.Second

// Kind of toast
type Kind string

const (
	KindMessage Kind = "message"
	KindError   Kind = "error"
)

// Toast is one transient on-screen notice
type Toast struct {
	ID        string
	Kind      Kind
	Title     string
	Body      string
	Event     *domain.NotificationEvent
	CreatedAt time.Time
	Retryable bool

	onClick func()
	retry   func()
}

// Toaster keeps the visible toasts. Each toast disappears after its lifetime,
// on Dismiss, or after its click or retry action ran.
type Toaster struct {
	lifetime time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	toasts []*Toast
	timers map[string]*time.Timer
	onShow func(Toast)
}

// NewToaster creates a toaster. A zero lifetime uses DefaultLifetime.
func NewToaster(lifetime time.Duration, log zerolog.Logger) *Toaster {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Toaster{
		lifetime: lifetime,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// OnShow registers a callback invoked for every new toast
func (t *Toaster) OnShow(fn func(Toast)) {
	t.mu.Lock()
	t.onShow = fn
	t.mu.Unlock()
}

// Alert shows a message notification. A nil onClick makes the click only dismiss.
func (t *Toaster) Alert(ev domain.NotificationEvent, onClick func()) string {
	return t.show(&Toast{
		Kind:    KindMessage,
		Title:   ev.Sender.Username,
		Body:    ev.Message.Body,
		Event:   &ev,
		onClick: onClick,
	})
}

// Error shows a dismissible error. With retry set the toast offers a retry action.
func (t *Toaster) Error(message string, retry func()) string {
	return t.show(&Toast{
		Kind:      KindError,
		Title:     "Error",
		Body:      message,
		Retryable: retry != nil,
		retry:     retry,
	})
}

func (t *Toaster) show(toast *Toast) string {
	toast.ID = uuid.NewString()
	toast.CreatedAt = time.Now()

	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	id := toast.ID
	t.timers[id] = time.AfterFunc(t.lifetime, func() { t.Dismiss(id) })
	onShow := t.onShow
	snapshot := *toast
	t.mu.Unlock()

	t.log.Debug().Str("toast", id).Str("kind", string(toast.Kind)).Msg("toast shown")
	if onShow != nil {
		onShow(snapshot)
	}
	return id
}

// Dismiss removes a toast. It reports whether the toast was still visible.
func (t *Toaster) Dismiss(id string) bool {
	_, ok := t.take(id)
	return ok
}

// Click runs the toast's action, if any, and dismisses it
func (t *Toaster) Click(id string) bool {
	toast, ok := t.take(id)
	if !ok {
		return false
	}
	if toast.onClick != nil {
		toast.onClick()
	}
	return true
}

// Retry runs the retry action of an error toast and dismisses it
func (t *Toaster) Retry(id string) bool {
	toast, ok := t.take(id)
	if !ok || toast.retry == nil {
		return false
	}
	toast.retry()
	return true
}

// Active returns the visible toasts, oldest first
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, 0, len(t.toasts))
	for _, toast := range t.toasts {
		out = append(out, *toast)
	}
	return out
}

// Clear dismisses everything
func (t *Toaster) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.timers {
		timer.Stop()
		delete(t.timers, id)
	}
	t.toasts = nil
}

func (t *Toaster) take(id string) (*Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, toast := range t.toasts {
		if toast.ID != id {
			continue
		}
		t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
		if timer, ok := t.timers[id]; ok {
			timer.Stop()
			delete(t.timers, id)
		}
		return toast, true
	}
	return nil, false
}
