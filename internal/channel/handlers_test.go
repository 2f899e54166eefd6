package channel

import (
	"testing"

	"github.com/damoang/angple-realtime/internal/ws"
	"github.com/rs/zerolog"
)

func TestRegistry_HandlerPanic(t *testing.T) {
	r := newRegistry(zerolog.Nop())

	var secondCalled bool
	r.add("test", func(*ws.Envelope) {
		panic("handler crash")
	})
	r.add("test", func(*ws.Envelope) {
		secondCalled = true
	})

	// Should not panic, and second handler should still run
	r.emit(&ws.Envelope{Event: "test"})

	if !secondCalled {
		t.Fatal("expected second handler to be called despite first panic")
	}
}

func TestRegistry_NoSubscribers(t *testing.T) {
	r := newRegistry(zerolog.Nop())

	// Should not panic
	r.emit(&ws.Envelope{Event: "nobody"})

	if r.count("nobody") != 0 {
		t.Fatal("expected no subscribers")
	}
}

func TestRegistry_UnsubscribeDuringEmit(t *testing.T) {
	r := newRegistry(zerolog.Nop())

	var calls int
	var off func()
	off = r.add("e", func(*ws.Envelope) {
		calls++
		off()
	})

	r.emit(&ws.Envelope{Event: "e"})
	r.emit(&ws.Envelope{Event: "e"})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
