package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/damoang/angple-realtime/internal/api"
	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/chat"
	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/notify"
	"github.com/damoang/angple-realtime/internal/optimistic"
	"github.com/damoang/angple-realtime/internal/social"
	"github.com/rs/zerolog"
)

const navigateTimeout = 10 * time.Second

// Config configures a session
type Config struct {
	APIURL           string
	WSURL            string
	Token            string
	RequestTimeout   time.Duration
	PageSize         int
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	ToastLifetime    time.Duration
	// Navigator handles alert clicks; nil lets the session open the conversation itself
	Navigator notify.Navigator
	// NewSurface creates the viewport of an opened conversation; nil uses a headless list
	NewSurface func() chat.Surface
	Logger     zerolog.Logger
}

// Session is one authenticated user: one event channel shared by the open
// conversation, the notification router and the friend graph
type Session struct {
	cfg      Config
	log      zerolog.Logger
	api      *api.Client
	channel  *channel.Channel
	me       domain.Me
	graph    *social.Graph
	toaster  *notify.Toaster
	router   *notify.Router
	likes    *optimistic.Likes
	comments *optimistic.Comments

	mu     sync.Mutex
	conv   *chat.Paginator
	closed bool
}

// Open authenticates, connects the event channel, joins the user's room and
// starts the notification router
func Open(ctx context.Context, cfg Config) (*Session, error) {
	log := cfg.Logger
	client := api.New(api.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.RequestTimeout,
		Logger:  log.With().Str("component", "api").Logger(),
	})

	me, err := client.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("identify session: %w", err)
	}
	log = log.With().Str("user_id", me.ID).Logger()

	ch, err := channel.Connect(ctx, channel.Config{
		URL:            cfg.WSURL,
		InitialBackoff: cfg.ReconnectInitial,
		MaxBackoff:     cfg.ReconnectMax,
		Logger:         log.With().Str("component", "channel").Logger(),
	}, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("connect event channel: %w", err)
	}
	if err := ch.JoinRoom(me.ID); err != nil {
		ch.Disconnect()
		return nil, fmt.Errorf("join room: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		log:     log,
		api:     client,
		channel: ch,
		me:      me,
		toaster: notify.NewToaster(cfg.ToastLifetime, log.With().Str("component", "toaster").Logger()),
	}
	s.graph = social.NewGraph(client, log.With().Str("component", "social").Logger())
	s.likes = optimistic.NewLikes(client, s.toaster, me.ID, log.With().Str("component", "likes").Logger())
	s.comments = optimistic.NewComments(client, s.toaster, log.With().Str("component", "comments").Logger())

	if err := s.graph.Refresh(ctx); err != nil {
		s.toaster.Error("Could not load friends", s.retryRefresh)
	}
	s.graph.Watch(ch, s.toaster)

	nav := cfg.Navigator
	if nav == nil {
		nav = s
	}
	s.router = notify.NewRouter(notify.RouterConfig{
		Events:    ch,
		Contacts:  s.graph,
		Navigator: nav,
		Toaster:   s.toaster,
		Self:      me.User,
		Logger:    log.With().Str("component", "notify").Logger(),
	})
	s.router.Start()

	log.Info().Str("username", me.Username).Msg("session opened")
	return s, nil
}

func (s *Session) retryRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), navigateTimeout)
		defer cancel()
		if err := s.graph.Refresh(ctx); err != nil {
			s.toaster.Error("Could not load friends", s.retryRefresh)
		}
	}()
}

func (s *Session) Me() domain.Me                  { return s.me }
func (s *Session) API() *api.Client               { return s.api }
func (s *Session) Channel() *channel.Channel      { return s.channel }
func (s *Session) Graph() *social.Graph           { return s.graph }
func (s *Session) Toaster() *notify.Toaster       { return s.toaster }
func (s *Session) Router() *notify.Router         { return s.router }
func (s *Session) Likes() *optimistic.Likes       { return s.likes }
func (s *Session) Comments() *optimistic.Comments { return s.comments }

// Conversation returns the open conversation, if any
func (s *Session) Conversation() *chat.Paginator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// OpenConversation closes the current conversation and opens the one with
// counterpartID. A failed first load leaves the empty conversation open and
// raises a retryable error.
func (s *Session) OpenConversation(ctx context.Context, counterpartID string) (*chat.Paginator, error) {
	var surface chat.Surface
	if s.cfg.NewSurface != nil {
		surface = s.cfg.NewSurface()
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, common.ErrClosed
	}
	if s.conv != nil {
		s.conv.Close()
	}
	p := chat.NewPaginator(chat.Config{
		API:      s.api,
		Events:   s.channel,
		Emitter:  s.channel,
		Surface:  surface,
		SelfID:   s.me.ID,
		PageSize: s.cfg.PageSize,
		Notifier: s.toaster,
		Logger:   s.log.With().Str("component", "chat").Str("counterpart", counterpartID).Logger(),
	})
	s.conv = p
	s.mu.Unlock()

	if err := p.LoadInitial(ctx, counterpartID); err != nil {
		if !errors.Is(err, common.ErrClosed) {
			s.toaster.Error("Could not load messages", func() {
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), navigateTimeout)
					defer cancel()
					_ = p.LoadInitial(ctx, counterpartID)
				}()
			})
		}
		return p, err
	}
	return p, nil
}

// CloseConversation releases the open conversation; the channel stays connected
func (s *Session) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conv != nil {
		s.conv.Close()
		s.conv = nil
	}
}

// Current implements notify.Navigator
func (s *Session) Current() (string, bool) {
	if p := s.Conversation(); p != nil {
		if cp := p.Counterpart(); cp != "" {
			return cp, true
		}
	}
	return "", false
}

// Open implements notify.Navigator. Replacing in place keeps the open view,
// unsent messages included, and only brings it up to date.
func (s *Session) Open(user domain.User, replace bool) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), navigateTimeout)
		defer cancel()
		if replace {
			if p := s.Conversation(); p != nil && p.Counterpart() == user.ID {
				if err := p.Focus(ctx); err != nil && !errors.Is(err, common.ErrClosed) {
					s.log.Warn().Err(err).Msg("refresh conversation failed")
					s.toaster.Error("Could not load messages", func() { s.Open(user, true) })
				}
				return
			}
		}
		if _, err := s.OpenConversation(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("counterpart", user.ID).Msg("open conversation failed")
		}
	}()
}

// Close logs the session out: every per-user state is dropped and the channel disconnected
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.conv != nil {
		s.conv.Close()
		s.conv = nil
	}
	s.mu.Unlock()

	s.router.Stop()
	s.graph.Reset()
	s.likes.Forget()
	s.comments.Forget()
	s.toaster.Clear()
	s.log.Info().Msg("session closed")
	return s.channel.Disconnect()
}
