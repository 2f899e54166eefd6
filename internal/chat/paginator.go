package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultPageSize is the number of messages per history page
	DefaultPageSize = 20
	// maxReconcilePages bounds the backfill after a reconnect
	maxReconcilePages = 10
	reconcileTimeout  = 30 * time.Second
	retryTimeout      = 10 * time.Second
)

// HistoryAPI is the request/response side of a conversation
type HistoryAPI interface {
	History(ctx context.Context, counterpartID string, limit int, before *time.Time) ([]domain.Message, error)
	SendMessage(ctx context.Context, counterpartID, body string) (domain.Message, error)
}

// Notifier surfaces a failed read with a retry action
type Notifier interface {
	Error(message string, retry func()) string
}

type nopNotifier struct{}

func (nopNotifier) Error(string, func()) string { return "" }

// Config wires a paginator to its collaborators
type Config struct {
	API      HistoryAPI
	Events   channel.Subscriber
	Emitter  channel.Emitter
	Surface  Surface
	SelfID   string
	PageSize int
	// Notifier receives failed background reads; nil drops them
	Notifier Notifier
	Logger   zerolog.Logger
}

// Paginator owns the view of one open conversation: backward history paging,
// live appends from the event channel and optimistic sends.
type Paginator struct {
	api      HistoryAPI
	emitter  channel.Emitter
	surface  Surface
	selfID   string
	pageSize int
	notifier Notifier
	log      zerolog.Logger

	mu          sync.Mutex
	counterpart string
	view        *View
	loading     bool
	generation  uint64
	closed      bool
	unsubscribe []func()
}

// NewPaginator creates a paginator and attaches it to the live message stream
func NewPaginator(cfg Config) *Paginator {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Surface == nil {
		cfg.Surface = NewListViewport(600)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = nopNotifier{}
	}
	p := &Paginator{
		api:      cfg.API,
		emitter:  cfg.Emitter,
		surface:  cfg.Surface,
		selfID:   cfg.SelfID,
		pageSize: cfg.PageSize,
		notifier: cfg.Notifier,
		log:      cfg.Logger,
		view:     NewView(),
	}
	if cfg.Events != nil {
		p.unsubscribe = append(p.unsubscribe,
			cfg.Events.On(ws.EventReceiveMessage, p.handleReceive),
			cfg.Events.On(channel.EventReconnect, p.handleReconnect),
		)
	}
	return p
}

// Counterpart returns the user on the other side of the open conversation
func (p *Paginator) Counterpart() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counterpart
}

// View returns a snapshot of the conversation
func (p *Paginator) View() *View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view.Clone()
}

// Loading reports whether a history request is in flight
func (p *Paginator) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// LoadInitial resets the view to counterpartID and loads the newest page.
// Reloading the same conversation keeps unsent entries so they can still be
// retried or discarded. On failure LoadInitial may be called again.
func (p *Paginator) LoadInitial(ctx context.Context, counterpartID string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return common.ErrClosed
	}
	p.generation++
	gen := p.generation
	view := NewView()
	if p.counterpart == counterpartID {
		for _, e := range p.view.entries {
			if !e.Confirmed() {
				view.addLocal(e)
			}
		}
	}
	p.counterpart = counterpartID
	p.view = view
	p.loading = true
	p.surface.Render(p.view.Entries())
	p.mu.Unlock()

	page, err := p.api.History(ctx, counterpartID, p.pageSize, nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.loading = false
	if err != nil {
		p.log.Warn().Err(err).Str("counterpart", counterpartID).Msg("initial history load failed")
		return fmt.Errorf("load history: %w", err)
	}

	p.view.merge(domain.Reversed(page))
	if len(page) == 0 {
		p.view.hasMore = false
	}
	p.surface.Render(p.view.Entries())
	scrollToBottom(p.surface)
	return nil
}

// LoadOlder prepends the page before the oldest loaded message. It does nothing
// while another load is in flight or once history is exhausted.
func (p *Paginator) LoadOlder(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.loading || !p.view.hasMore || p.counterpart == "" {
		p.mu.Unlock()
		return nil
	}
	cursor, ok := p.view.OldestLoaded()
	if !ok {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	gen := p.generation
	counterpart := p.counterpart
	p.mu.Unlock()

	page, err := p.api.History(ctx, counterpart, p.pageSize, &cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return nil
	}
	p.loading = false
	if err != nil {
		p.log.Warn().Err(err).Str("counterpart", counterpart).Time("before", cursor).Msg("older history load failed")
		p.notifier.Error("Could not load older messages", p.inBackground(p.LoadOlder))
		return fmt.Errorf("load older history: %w", err)
	}
	if len(page) == 0 {
		p.view.hasMore = false
		return nil
	}

	p.view.merge(domain.Reversed(page))
	renderAnchored(p.surface, p.view.Entries())
	return nil
}

// OnLiveMessage appends a pushed message if it belongs to the open conversation
// and is not already shown. It reports whether the view changed.
func (p *Paginator) OnLiveMessage(msg domain.Message) bool {
	if msg.ID == "" || isLocalID(msg.ID) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.counterpart == "" || !msg.Between(p.selfID, p.counterpart) {
		return false
	}
	if p.view.Contains(msg.ID) || p.view.behindCursor(msg) {
		return false
	}

	follow := atBottom(p.surface)
	p.view.merge([]domain.Message{msg})
	p.surface.Render(p.view.Entries())
	if follow {
		scrollToBottom(p.surface)
	}
	return true
}

// Send shows the message immediately, persists it, then broadcasts the
// persisted record to the counterpart. A failed send stays in the view
// as StateFailed for Retry or Discard.
func (p *Paginator) Send(ctx context.Context, body string) (Entry, error) {
	if strings.TrimSpace(body) == "" {
		return Entry{}, common.Validation("message body is empty")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Entry{}, common.ErrClosed
	}
	if p.counterpart == "" {
		p.mu.Unlock()
		return Entry{}, common.Validation("no conversation open")
	}
	localID := localIDPrefix + uuid.NewString()
	entry := Entry{
		Message: domain.Message{
			ID:         localID,
			SenderID:   p.selfID,
			ReceiverID: p.counterpart,
			Body:       body,
			Timestamp:  time.Now(),
		},
		LocalID: localID,
		State:   StatePending,
	}
	p.view.addLocal(entry)
	p.surface.Render(p.view.Entries())
	scrollToBottom(p.surface)
	counterpart := p.counterpart
	p.mu.Unlock()

	return p.persist(ctx, counterpart, localID, body)
}

// Retry re-sends a failed message
func (p *Paginator) Retry(ctx context.Context, localID string) (Entry, error) {
	p.mu.Lock()
	i := p.view.indexOfLocal(localID)
	if p.closed || i < 0 || p.view.entries[i].State != StateFailed {
		p.mu.Unlock()
		return Entry{}, fmt.Errorf("retry %s: %w", localID, common.ErrNotFound)
	}
	body := p.view.entries[i].Message.Body
	p.view.setState(localID, StatePending, nil)
	p.surface.Render(p.view.Entries())
	counterpart := p.counterpart
	p.mu.Unlock()

	return p.persist(ctx, counterpart, localID, body)
}

// Discard drops a failed message from the view
func (p *Paginator) Discard(localID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.view.indexOfLocal(localID)
	if i < 0 || p.view.entries[i].State != StateFailed {
		return fmt.Errorf("discard %s: %w", localID, common.ErrNotFound)
	}
	p.view.remove(localID)
	p.surface.Render(p.view.Entries())
	return nil
}

// persist stores body; the outcome lands on the entry while the view still holds it
func (p *Paginator) persist(ctx context.Context, counterpart, localID, body string) (Entry, error) {
	persisted, err := p.api.SendMessage(ctx, counterpart, body)

	p.mu.Lock()
	current := !p.closed && p.view.indexOfLocal(localID) >= 0
	if err != nil {
		var failed Entry
		if current {
			failed, _ = p.view.setState(localID, StateFailed, err)
			p.surface.Render(p.view.Entries())
		}
		p.mu.Unlock()
		p.log.Warn().Err(err).Str("counterpart", counterpart).Msg("message send failed")
		return failed, fmt.Errorf("send message: %w", err)
	}
	if current {
		p.view.confirm(localID, persisted)
		p.surface.Render(p.view.Entries())
	}
	p.mu.Unlock()

	// the message is stored either way; a lost broadcast is recovered from history
	if p.emitter != nil {
		if err := p.emitter.Send(ws.EventSendMessage, persisted); err != nil {
			p.log.Warn().Err(err).Str("message_id", persisted.ID).Msg("broadcast failed")
		}
	}
	return Entry{Message: persisted, LocalID: localID, State: StateSent}, nil
}

// Reconcile backfills messages missed while the channel was down. It pages
// backward from the newest message until it overlaps what the view already holds.
func (p *Paginator) Reconcile(ctx context.Context) error {
	p.mu.Lock()
	if p.closed || p.counterpart == "" {
		p.mu.Unlock()
		return nil
	}
	newest, haveNewest := p.view.NewestConfirmed()
	gen := p.generation
	counterpart := p.counterpart
	p.mu.Unlock()

	var missed []domain.Message
	var before *time.Time
	for i := 0; i < maxReconcilePages; i++ {
		page, err := p.api.History(ctx, counterpart, p.pageSize, before)
		if err != nil {
			p.log.Warn().Err(err).Str("counterpart", counterpart).Msg("reconcile failed")
			return fmt.Errorf("reconcile history: %w", err)
		}
		missed = append(missed, page...)
		if len(page) < p.pageSize || !haveNewest {
			break
		}
		oldest := page[len(page)-1]
		if !domain.Less(newest, oldest) {
			break
		}
		ts := oldest.Timestamp
		before = &ts
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.closed {
		return nil
	}
	fresh := missed[:0]
	for _, m := range missed {
		if !p.view.behindCursor(m) {
			fresh = append(fresh, m)
		}
	}
	follow := atBottom(p.surface)
	if added := p.view.merge(fresh); added > 0 {
		p.surface.Render(p.view.Entries())
		if follow {
			scrollToBottom(p.surface)
		}
		p.log.Info().Int("added", added).Str("counterpart", counterpart).Msg("reconciled after reconnect")
	}
	return nil
}

// Focus brings the open conversation to the newest message and backfills
// anything missed, without dropping unsent entries
func (p *Paginator) Focus(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return common.ErrClosed
	}
	scrollToBottom(p.surface)
	p.mu.Unlock()

	return p.Reconcile(ctx)
}

// Close detaches the paginator from the event channel. The channel itself stays up.
func (p *Paginator) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.generation++
	for _, off := range p.unsubscribe {
		off()
	}
	p.unsubscribe = nil
}

func (p *Paginator) handleReceive(env *ws.Envelope) {
	var msg domain.Message
	if err := env.Decode(&msg); err != nil {
		p.log.Warn().Err(err).Msg("malformed receive_message")
		return
	}
	p.OnLiveMessage(msg)
}

func (p *Paginator) handleReconnect(*ws.Envelope) {
	go p.reconcileOrNotify()
}

func (p *Paginator) reconcileOrNotify() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	if err := p.Reconcile(ctx); err != nil {
		p.notifier.Error("Could not sync messages", func() { go p.reconcileOrNotify() })
	}
}

// inBackground adapts a load to a retry action with its own bounded context
func (p *Paginator) inBackground(load func(ctx context.Context) error) func() {
	return func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), retryTimeout)
			defer cancel()
			_ = load(ctx)
		}()
	}
}
