package realtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"talento/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanTransport feeds frames from a Go channel.
type chanTransport struct {
	frames chan []byte
	active atomic.Int32
	fail   atomic.Int32
}

func newChanTransport() *chanTransport {
	return &chanTransport{frames: make(chan []byte, 16)}
}

func (c *chanTransport) Listen(ctx context.Context, _ string, deliver func([]byte)) error {
	if c.fail.Load() > 0 {
		c.fail.Add(-1)
		return errors.New("connection refused")
	}
	c.active.Add(1)
	defer c.active.Add(-1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case body := <-c.frames:
			deliver(body)
		}
	}
}

func newHub(t *testing.T, tr Transport) *Hub {
	t.Helper()
	logger := zerolog.New(io.Discard)
	h := NewHub(tr, &logger)
	h.retry = RetryPolicy{Base: time.Millisecond, Cap: 5 * time.Millisecond}
	t.Cleanup(h.Close)
	return h
}

func frameOf(t *testing.T, event string, id int) []byte {
	t.Helper()
	body, err := EncodeFrame(event, map[string]any{"booking": map[string]int{"id": id}})
	require.NoError(t, err)
	return body
}

func TestHubDispatchesNormalisedEvents(t *testing.T) {
	tr := newChanTransport()
	h := newHub(t, tr)

	var mu sync.Mutex
	var got []string
	sub := h.Subscribe(events.ChannelBookings, ".BookingUpdated", func(e *events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(e.Payload))
		return nil
	})
	defer sub.Close()

	tr.frames <- frameOf(t, `App\Events\BookingUpdated`, 1)
	tr.frames <- frameOf(t, "Unrelated", 2)
	tr.frames <- frameOf(t, "BookingUpdated", 3)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestHubRefCountsListeners(t *testing.T) {
	tr := newChanTransport()
	h := newHub(t, tr)
	noop := func(*events.Event) error { return nil }

	a := h.Subscribe("bookings", "BookingUpdated", noop)
	b := h.Subscribe("bookings", "BookingUpdated", noop)
	assert.True(t, h.Listening("bookings"))
	require.Eventually(t, func() bool { return tr.active.Load() == 1 }, time.Second, time.Millisecond)

	a.Close()
	a.Close()
	assert.True(t, h.Listening("bookings"))

	b.Close()
	assert.False(t, h.Listening("bookings"))
	require.Eventually(t, func() bool { return tr.active.Load() == 0 }, time.Second, time.Millisecond)
}

func TestHubNoDeliveryAfterClose(t *testing.T) {
	tr := newChanTransport()
	h := newHub(t, tr)

	var calls atomic.Int32
	keep := h.Subscribe("bookings", "BookingUpdated", func(*events.Event) error { return nil })
	defer keep.Close()
	sub := h.Subscribe("bookings", "BookingUpdated", func(*events.Event) error {
		calls.Add(1)
		return nil
	})

	tr.frames <- frameOf(t, "BookingUpdated", 1)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	sub.Close()
	tr.frames <- frameOf(t, "BookingUpdated", 2)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHubReconnects(t *testing.T) {
	tr := newChanTransport()
	tr.fail.Store(2)
	h := newHub(t, tr)

	var calls atomic.Int32
	sub := h.Subscribe("bookings", "BookingUpdated", func(*events.Event) error {
		calls.Add(1)
		return nil
	})
	defer sub.Close()

	require.Eventually(t, func() bool { return tr.active.Load() == 1 }, time.Second, time.Millisecond)
	tr.frames <- frameOf(t, "BookingUpdated", 1)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
}

func TestRedisTransport(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	tr := NewRedisTransport(client, "talento_database_")
	h := newHub(t, tr)

	received := make(chan *events.Event, 1)
	sub := h.Subscribe("bookings", "BookingUpdated", func(e *events.Event) error {
		received <- e
		return nil
	})
	defer sub.Close()

	require.Eventually(t, func() bool {
		return s.PubSubNumSub("talento_database_bookings")["talento_database_bookings"] == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, tr.Publish(context.Background(), "bookings", `App\Events\BookingUpdated`, map[string]any{
		"booking": map[string]any{"id": 7, "status": "accepted"},
	}))

	select {
	case e := <-received:
		assert.Equal(t, "bookings", e.Channel)
		assert.JSONEq(t, `{"booking":{"id":7,"status":"accepted"}}`, string(e.Payload))
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	sub.Close()
	require.Eventually(t, func() bool {
		return s.PubSubNumSub("talento_database_bookings")["talento_database_bookings"] == 0
	}, time.Second, 5*time.Millisecond)
}

func TestNopTransportReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NopTransport{}.Listen(ctx, "bookings", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
