package pubsub

import "context"

// Listener wraps a broker subscription for callers that poll between
// interactions instead of running a dedicated goroutine.
type Listener[T any] struct {
	ch <-chan Event[T]
}

// NewListener subscribes to the broker. The subscription ends when ctx is cancelled.
func NewListener[T any](ctx context.Context, sub Subscriber[T]) *Listener[T] {
	return &Listener[T]{ch: sub.Subscribe(ctx)}
}

// Drain returns every event currently buffered without blocking.
// The second return value is false once the subscription has been closed.
func (l *Listener[T]) Drain() ([]Event[T], bool) {
	var events []Event[T]
	for {
		select {
		case event, ok := <-l.ch:
			if !ok {
				return events, false
			}
			events = append(events, event)
		default:
			return events, true
		}
	}
}
