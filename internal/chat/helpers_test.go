package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/damoang/angple-realtime/internal/channel"
	"github.com/damoang/angple-realtime/internal/common"
	"github.com/damoang/angple-realtime/internal/domain"
	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	self = "me"
	peer = "bob"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ts(n int) time.Time {
	return base.Add(time.Duration(n) * time.Second)
}

func msg(n int) domain.Message {
	return domain.Message{
		ID:         fmt.Sprintf("m%03d", n),
		SenderID:   peer,
		ReceiverID: self,
		Body:       fmt.Sprintf("message %d", n),
		Timestamp:  ts(n),
	}
}

func msgs(ns ...int) []domain.Message {
	out := make([]domain.Message, 0, len(ns))
	for _, n := range ns {
		out = append(out, msg(n))
	}
	return out
}

func timestamps(v *View) []time.Time {
	var out []time.Time
	for _, e := range v.Entries() {
		out = append(out, e.Message.Timestamp)
	}
	return out
}

// --- Mock HistoryAPI ---

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) History(ctx context.Context, counterpartID string, limit int, before *time.Time) ([]domain.Message, error) {
	args := m.Called(ctx, counterpartID, limit, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *mockHistory) SendMessage(ctx context.Context, counterpartID, body string) (domain.Message, error) {
	args := m.Called(ctx, counterpartID, body)
	return args.Get(0).(domain.Message), args.Error(1)
}

func noCursor() interface{} {
	return mock.MatchedBy(func(b *time.Time) bool { return b == nil })
}

func cursorAt(t time.Time) interface{} {
	return mock.MatchedBy(func(b *time.Time) bool { return b != nil && b.Equal(t) })
}

// --- in-memory conversation store ---

type fakeHistory struct {
	mu    sync.Mutex
	msgs  []domain.Message
	calls int
	next  int
}

func (f *fakeHistory) History(_ context.Context, _ string, limit int, before *time.Time) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var page []domain.Message
	for i := len(f.msgs) - 1; i >= 0 && len(page) < limit; i-- {
		if before == nil || f.msgs[i].Timestamp.Before(*before) {
			page = append(page, f.msgs[i])
		}
	}
	return page, nil
}

func (f *fakeHistory) SendMessage(_ context.Context, counterpartID, body string) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	m := domain.Message{
		ID:         fmt.Sprintf("s%03d", f.next),
		SenderID:   self,
		ReceiverID: counterpartID,
		Body:       body,
		Timestamp:  time.Now(),
	}
	f.msgs = append(f.msgs, m)
	return m, nil
}

func (f *fakeHistory) add(ms ...domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, ms...)
	domain.SortMessages(f.msgs)
}

// --- fake event channel ---

type sentFrame struct {
	Event   string
	Payload interface{}
}

type fakeEvents struct {
	mu       sync.Mutex
	handlers map[string]map[int]channel.Handler
	next     int
	sent     []sentFrame
	sendErr  error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{handlers: make(map[string]map[int]channel.Handler)}
}

func (f *fakeEvents) On(event string, h channel.Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]channel.Handler)
	}
	f.handlers[event][id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[event], id)
	}
}

func (f *fakeEvents) Send(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentFrame{Event: event, Payload: payload})
	return nil
}

func (f *fakeEvents) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers[event])
}

func (f *fakeEvents) emit(t *testing.T, event string, data interface{}) {
	t.Helper()
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err)
		raw = b
	}
	f.mu.Lock()
	var hs []channel.Handler
	for _, h := range f.handlers[event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(&ws.Envelope{Event: event, Data: raw})
	}
}

func (f *fakeEvents) frames() []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentFrame, len(f.sent))
	copy(out, f.sent)
	return out
}

// --- notifier recording retry actions ---

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	retries  []func()
}

func (n *recordingNotifier) Error(message string, retry func()) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	n.retries = append(n.retries, retry)
	return fmt.Sprintf("toast-%d", len(n.messages))
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func (n *recordingNotifier) retry(i int) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.retries[i]
}

// failingSend serves history from the store and rejects every send
type failingSend struct {
	*fakeHistory
}

func (failingSend) SendMessage(context.Context, string, string) (domain.Message, error) {
	return domain.Message{}, common.ErrTransport
}
