// Package realtime listens on broadcast channels and dispatches named events
// to handlers registered for the lifetime of a mounted view.
package realtime

import (
	"context"
	"sync"
	"time"

	"talento/internal/events"
	"talento/internal/metrics"

	"github.com/rs/zerolog"
)

// Transport delivers raw broadcast frames for one channel until ctx is done.
// A non-nil error before ctx is done makes the hub reconnect.
type Transport interface {
	Listen(ctx context.Context, channel string, deliver func(body []byte)) error
}

// Subscriber hands out scoped event subscriptions.
type Subscriber interface {
	Subscribe(channel, event string, handler events.EventHandler) *Subscription
}

// Subscription is released with Close. Close is idempotent.
type Subscription struct {
	once    sync.Once
	release func()
}

// NewSubscription wraps a release function. Used by alternative Subscriber implementations.
func NewSubscription(release func()) *Subscription {
	return &Subscription{release: release}
}

func (s *Subscription) Close() {
	if s == nil || s.release == nil {
		return
	}
	s.once.Do(s.release)
}

type listener struct {
	refs   int
	cancel context.CancelFunc
	done   chan struct{}
}

// Hub multiplexes subscriptions onto one transport listener per channel.
type Hub struct {
	transport Transport
	bus       *events.Bus
	logger    zerolog.Logger
	retry     RetryPolicy

	mu        sync.Mutex
	listeners map[string]*listener
	closed    bool
}

var _ Subscriber = (*Hub)(nil)

func NewHub(transport Transport, logger *zerolog.Logger) *Hub {
	return &Hub{
		transport: transport,
		bus:       events.NewBus(),
		logger:    logger.With().Str("component", "realtime").Logger(),
		retry:     defaultRetry,
		listeners: make(map[string]*listener),
	}
}

// Subscribe registers handler for event on channel. Event names are normalised.
func (h *Hub) Subscribe(channel, event string, handler events.EventHandler) *Subscription {
	unsubscribe := h.bus.Subscribe(channel, NormalizeEvent(event), handler)

	h.mu.Lock()
	if !h.closed {
		l, ok := h.listeners[channel]
		if !ok {
			l = h.startListener(channel)
			h.listeners[channel] = l
		}
		l.refs++
	}
	h.mu.Unlock()

	return &Subscription{release: func() {
		unsubscribe()
		h.release(channel)
	}}
}

func (h *Hub) release(channel string) {
	h.mu.Lock()
	l, ok := h.listeners[channel]
	if !ok {
		h.mu.Unlock()
		return
	}
	l.refs--
	if l.refs > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.listeners, channel)
	h.mu.Unlock()

	// not waiting on l.done: a handler may be the one releasing
	l.cancel()
	h.logger.Debug().Str("channel", channel).Msg("Channel listener stopped")
}

// Listening reports whether a transport listener runs for channel.
func (h *Hub) Listening(channel string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.listeners[channel]
	return ok
}

func (h *Hub) startListener(channel string) *listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(l.done)
		h.listen(ctx, channel)
	}()
	return l
}

func (h *Hub) listen(ctx context.Context, channel string) {
	attempt := 0
	for {
		err := h.transport.Listen(ctx, channel, func(body []byte) {
			attempt = 0
			h.dispatch(channel, body)
		})
		if ctx.Err() != nil {
			return
		}
		attempt++
		delay := h.retry.NextDelay(attempt)
		h.logger.Warn().Err(err).Str("channel", channel).Dur("retry_in", delay).Msg("Realtime listener dropped")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (h *Hub) dispatch(channel string, body []byte) {
	event, err := decodeFrame(channel, body)
	if err != nil {
		h.logger.Debug().Err(err).Str("channel", channel).Msg("Skipping malformed frame")
		return
	}
	metrics.IncRealtime(channel, event.Type)

	if err := h.bus.Publish(&event); err != nil {
		h.logger.Warn().Err(err).Str("channel", channel).Str("event", event.Type).Msg("Realtime handler failed")
	}
}

// Close stops every listener. Subscriptions closed afterwards are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	listeners := h.listeners
	h.listeners = make(map[string]*listener)
	h.mu.Unlock()

	for _, l := range listeners {
		l.cancel()
		<-l.done
	}
}

// NopTransport never delivers anything. Used when realtime is disabled.
type NopTransport struct{}

func (NopTransport) Listen(ctx context.Context, _ string, _ func([]byte)) error {
	<-ctx.Done()
	return ctx.Err()
}
