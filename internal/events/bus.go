package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/logger"
)

// DefaultSubscriberBuffer is the per-subscriber queue capacity used when the
// bus is constructed with a non-positive value.
const DefaultSubscriberBuffer = 64

// Subscription is one observer's delivery channel. Events for a subscription
// are received in publish order; a subscription that falls behind loses the
// newest events rather than stalling the publisher.
type Subscription struct {
	id string
	ch chan Event
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.id }

// Events returns the receive side of the subscription's queue.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Bus fans out progress events to any number of subscribers. Publishing never
// blocks: when a subscriber's queue is full the event is dropped for that
// subscriber only.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	buffer int
	log    *logger.Logger
}

// NewBus creates a bus with the given per-subscriber queue capacity.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Bus{
		subs:   make(map[string]*Subscription),
		buffer: buffer,
		log:    logger.WithComponent("events"),
	}
}

// Subscribe registers a new subscriber and returns its subscription. Any
// publish that starts after Subscribe returns is visible to it.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.New().String(),
		ch: make(chan Event, b.buffer),
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	count := len(b.subs)
	b.mu.Unlock()

	b.log.Debug("subscriber registered", logger.Fields(
		"subscription_id", sub.id,
		"total", count,
	))
	return sub
}

// Unsubscribe removes a subscription. Safe to call more than once and for
// subscriptions that were never registered.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	_, ok := b.subs[sub.id]
	if ok {
		delete(b.subs, sub.id)
	}
	count := len(b.subs)
	b.mu.Unlock()

	if ok {
		b.log.Debug("subscriber removed", logger.Fields(
			"subscription_id", sub.id,
			"total", count,
		))
	}
}

// Publish delivers the event to every registered subscriber independently.
// Delivery to one subscriber cannot delay another.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- event:
		default:
			// Queue full: drop the newest event for this subscriber.
			b.log.Warn("subscriber queue full, dropping event", logger.Fields(
				"subscription_id", sub.id,
				"run_id", event.RunID,
				"step", event.Step,
			))
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
