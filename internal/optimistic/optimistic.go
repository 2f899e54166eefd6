package optimistic

import (
	"context"
	"time"
)

// Tag marks whether local state has been confirmed by the server
type Tag string

const (
	TagConfirmed  Tag = "confirmed"
	TagOptimistic Tag = "optimistic"
)

const retryTimeout = 10 * time.Second

// Notifier surfaces transient errors. retry may be nil.
type Notifier interface {
	Error(message string, retry func()) string
}

type nopNotifier struct{}

func (nopNotifier) Error(string, func()) string { return "" }

// background runs fn with its own bounded context, for retry actions
func background(fn func(ctx context.Context)) func() {
	return func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), retryTimeout)
			defer cancel()
			fn(ctx)
		}()
	}
}
