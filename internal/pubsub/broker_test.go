package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fileChange struct {
	Path string
	Size int
}

func receive[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before an event arrived")
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "no event within 1s")
	}
	return Event[T]{}
}

func requireClosed[T any](t *testing.T, ch <-chan Event[T]) {
	t.Helper()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestBroker_DeliversTypedPayloadWithTimestamp(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 5, 0, 0, time.UTC)
	broker := NewBroker[fileChange]()
	broker.now = func() time.Time { return at }
	defer broker.Close()

	ch := broker.Subscribe(t.Context())
	broker.Publish(ChangedEvent, fileChange{Path: "config.yaml", Size: 120})

	ev := receive(t, ch)
	require.Equal(t, Event[fileChange]{
		Type:      ChangedEvent,
		Payload:   fileChange{Path: "config.yaml", Size: 120},
		Timestamp: at,
	}, ev)
}

func TestBroker_FanOut(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	subs := make([]<-chan Event[string], 4)
	for i := range subs {
		subs[i] = broker.Subscribe(t.Context())
	}
	require.Equal(t, 4, broker.SubscriberCount())

	broker.Publish(LoggedEvent, "12:00:00 [INFO] [jira] search done")
	for _, ch := range subs {
		require.Equal(t, "12:00:00 [INFO] [jira] search done", receive(t, ch).Payload)
	}
}

func TestBroker_CancelledSubscriberIsRemoved(t *testing.T) {
	broker := NewBroker[int]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := broker.Subscribe(ctx)
	other := broker.Subscribe(t.Context())

	cancel()
	requireClosed(t, ch)
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	broker.Publish(FailedEvent, 7)
	require.Equal(t, 7, receive(t, other).Payload)
}

func TestBroker_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	broker := NewBrokerWithBuffer[int](2)
	defer broker.Close()

	ch := broker.Subscribe(t.Context())

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 5; i++ {
			broker.Publish(ChangedEvent, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "publish blocked on a full subscriber")
	}

	require.Equal(t, 1, receive(t, ch).Payload)
	require.Equal(t, 2, receive(t, ch).Payload)
	select {
	case ev := <-ch:
		require.Failf(t, "unexpected event", "%v", ev)
	default:
	}
}

func TestBroker_NonPositiveBufferIsClamped(t *testing.T) {
	broker := NewBrokerWithBuffer[int](0)
	defer broker.Close()

	ch := broker.Subscribe(t.Context())
	broker.Publish(ChangedEvent, 1)
	require.Equal(t, 1, receive(t, ch).Payload)
}

func TestBroker_Close(t *testing.T) {
	broker := NewBroker[string]()
	ch := broker.Subscribe(t.Context())

	broker.Close()
	broker.Close()

	requireClosed(t, ch)
	require.Zero(t, broker.SubscriberCount())

	broker.Publish(ChangedEvent, "ignored")
	requireClosed(t, broker.Subscribe(t.Context()))
}

func TestBroker_ConcurrentPublishAndSubscribe(t *testing.T) {
	broker := NewBrokerWithBuffer[int](1024)
	defer broker.Close()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				broker.Publish(LoggedEvent, i)
			}
		}()
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithCancel(context.Background())
			_ = broker.Subscribe(ctx)
			cancel()
		}()
	}
	wg.Wait()
}

func TestBroker_BufferedEventsKeepPublishOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 16).Draw(t, "buffer")
		payloads := rapid.SliceOfN(rapid.Int(), 0, 32).Draw(t, "payloads")

		broker := NewBrokerWithBuffer[int](size)
		defer broker.Close()
		ch := broker.Subscribe(context.Background())

		for _, p := range payloads {
			broker.Publish(ChangedEvent, p)
		}

		want := payloads[:min(size, len(payloads))]
		got := make([]int, 0, len(want))
		for range want {
			got = append(got, (<-ch).Payload)
		}
		if len(want) > 0 {
			require.Equal(t, want, got)
		}
	})
}
