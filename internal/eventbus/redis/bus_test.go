package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipe-rack-manager/internal/eventbus"
	"pipe-rack-manager/internal/logging"
)

// Runs only against a real server: TEST_REDIS_URL=redis://localhost:6379/15
func newTestBus(t *testing.T) *Bus {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	bus, err := NewFromURL(url, "test:"+uuid.NewString()+":", logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestBusRoundTrip(t *testing.T) {
	bus := newTestBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "units")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "units", eventbus.Event{Path: "units", DocID: "550", Op: eventbus.OpCreated, At: time.Now()}))

	select {
	case ev := <-ch:
		assert.Equal(t, "550", ev.DocID)
		assert.Equal(t, eventbus.OpCreated, ev.Op)
	case <-time.After(3 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, ok := <-ch
		return !ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestNewFromURLRejectsBadURL(t *testing.T) {
	_, err := NewFromURL("not-a-url", "", nil)
	assert.Error(t, err)
}
