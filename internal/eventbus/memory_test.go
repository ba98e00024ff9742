package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestMemoryDeliversInPublishOrder(t *testing.T) {
	bus := NewMemory()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx, "units")
	require.NoError(t, err)

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, bus.Publish(ctx, "units", Event{Path: "units", DocID: id, Op: OpCreated}))
	}

	assert.Equal(t, "1", recv(t, ch).DocID)
	assert.Equal(t, "2", recv(t, ch).DocID)
	assert.Equal(t, "3", recv(t, ch).DocID)
}

func TestMemoryTopicsAreIsolated(t *testing.T) {
	bus := NewMemory()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	racks, err := bus.Subscribe(ctx, "units/550/pipeRacks")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "units", Event{DocID: "550"}))
	require.NoError(t, bus.Publish(ctx, "units/550/pipeRacks", Event{DocID: "PR01"}))

	assert.Equal(t, "PR01", recv(t, racks).DocID)
	select {
	case ev := <-racks:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}
}

func TestMemoryCancelClosesChannel(t *testing.T) {
	bus := NewMemory()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, bus.Subscribers("users"))

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, bus.Subscribers("users"))
}

func TestMemoryFullBufferDropsInsteadOfBlocking(t *testing.T) {
	bus := NewMemory()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := bus.Subscribe(ctx, "units")
	require.NoError(t, err)

	for i := 0; i < SubscriberBuffer+10; i++ {
		require.NoError(t, bus.Publish(ctx, "units", Event{}))
	}
	assert.Len(t, ch, SubscriberBuffer)
}

func TestMemoryClosed(t *testing.T) {
	bus := NewMemory()
	ch, err := bus.Subscribe(context.Background(), "units")
	require.NoError(t, err)
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Publish(context.Background(), "units", Event{}), ErrClosed)
	_, err = bus.Subscribe(context.Background(), "units")
	assert.ErrorIs(t, err, ErrClosed)
}
