package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListener_DrainReturnsBufferedEvents(t *testing.T) {
	broker := NewBroker[string]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener[string](ctx, broker)
	broker.Publish(ChangedEvent, "config.yaml")
	broker.Publish(ChangedEvent, "config.yaml")

	events, open := l.Drain()
	require.True(t, open)
	require.Len(t, events, 2)
	require.Equal(t, "config.yaml", events[0].Payload)

	events, open = l.Drain()
	require.True(t, open)
	require.Empty(t, events)
}

func TestListener_DrainReportsClosed(t *testing.T) {
	broker := NewBroker[string]()
	l := NewListener[string](context.Background(), broker)

	broker.Close()

	_, open := l.Drain()
	require.False(t, open)
}
