package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	ChannelBookings     = "bookings"
	EventBookingUpdated = "BookingUpdated"
)

// BookingUpdatedPayload is the body of a BookingUpdated broadcast.
// Booking is kept raw so receivers can overlay only the fields that were pushed.
type BookingUpdatedPayload struct {
	Booking json.RawMessage `json:"booking"`
}

// Event is one message delivered from a realtime channel.
type Event struct {
	Channel   string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

type subscription struct {
	id      uint64
	handler EventHandler
}

// Bus provides in-process pub/sub keyed by channel and event type.
type Bus struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[string][]subscription
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]subscription)}
}

func topic(channel, eventType string) string {
	return channel + "|" + eventType
}

// Subscribe registers a handler and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(channel, eventType string, handler EventHandler) func() {
	key := topic(channel, eventType)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[key] = append(b.subscribers[key], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subscribers[key]
			for i, s := range subs {
				if s.id == id {
					b.subscribers[key] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(b.subscribers[key]) == 0 {
				delete(b.subscribers, key)
			}
		})
	}
}

// Publish notifies subscribers and returns the first handler error.
func (b *Bus) Publish(event *Event) error {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	handlers := append([]subscription(nil), b.subscribers[topic(event.Channel, event.Type)]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var firstErr error
	for _, s := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := s.handler(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
