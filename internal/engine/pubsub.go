package engine

import (
	"sync"
	"time"

	"github.com/R3E-Network/cachegrid/internal/values"
)

// Message is delivered to a subscriber on publish (spec §4.1).
type Message struct {
	Channel     string
	Pattern     string // empty for an exact-channel match
	Payload     []byte
	Timestamp   time.Time
	PublisherID string
}

// Subscriber receives messages. Delivery is synchronous from Publish's
// point of view but must not block the publisher for long — callers
// typically buffer internally (e.g. a connection's outbound queue).
type Subscriber func(Message)

type subscription struct {
	id  uint64
	fn  Subscriber
}

// pubsubRegistry tracks exact-channel and glob-pattern subscribers.
type pubsubRegistry struct {
	mu       sync.Mutex
	nextID   uint64
	channels map[string][]subscription
	patterns map[string][]subscription
}

func newPubsubRegistry() *pubsubRegistry {
	return &pubsubRegistry{
		channels: make(map[string][]subscription),
		patterns: make(map[string][]subscription),
	}
}

// SubscriptionHandle unsubscribes its subscription.
type SubscriptionHandle struct {
	unsub func()
}

// Unsubscribe removes the subscription.
func (h SubscriptionHandle) Unsubscribe() {
	h.unsub()
}

// Subscribe registers fn on an exact channel.
func (e *Engine) Subscribe(channel string, fn Subscriber) SubscriptionHandle {
	r := e.subs
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.channels[channel] = append(r.channels[channel], subscription{id: id, fn: fn})
	r.mu.Unlock()

	e.listeners.emit(Event{Type: EventPubsubSubscribe, Key: channel})
	return SubscriptionHandle{unsub: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.channels[channel] = removeSub(r.channels[channel], id)
		e.listeners.emit(Event{Type: EventPubsubUnsubscribe, Key: channel})
	}}
}

// PSubscribe registers fn on a glob pattern.
func (e *Engine) PSubscribe(pattern string, fn Subscriber) SubscriptionHandle {
	r := e.subs
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.patterns[pattern] = append(r.patterns[pattern], subscription{id: id, fn: fn})
	r.mu.Unlock()

	e.listeners.emit(Event{Type: EventPubsubSubscribe, Key: pattern})
	return SubscriptionHandle{unsub: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.patterns[pattern] = removeSub(r.patterns[pattern], id)
		e.listeners.emit(Event{Type: EventPubsubUnsubscribe, Key: pattern})
	}}
}

func removeSub(subs []subscription, id uint64) []subscription {
	out := subs[:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Publish delivers payload to every exact and pattern subscriber matching
// channel, returning the recipient count. Each subscription receives at
// most one delivery even if multiple patterns match (spec §9 Open
// Question (iv): "once-per-subscription").
func (e *Engine) Publish(channel string, payload []byte, publisherID string) int {
	r := e.subs
	r.mu.Lock()
	exact := append([]subscription(nil), r.channels[channel]...)
	var patternMatches []struct {
		pattern string
		sub     subscription
	}
	for pattern, subs := range r.patterns {
		if !values.MatchGlob(pattern, channel) {
			continue
		}
		for _, s := range subs {
			patternMatches = append(patternMatches, struct {
				pattern string
				sub     subscription
			}{pattern, s})
		}
	}
	r.mu.Unlock()

	now := time.Now()
	count := 0
	for _, s := range exact {
		s.fn(Message{Channel: channel, Payload: payload, Timestamp: now, PublisherID: publisherID})
		count++
	}
	for _, pm := range patternMatches {
		pm.sub.fn(Message{Channel: channel, Pattern: pm.pattern, Payload: payload, Timestamp: now, PublisherID: publisherID})
		count++
	}
	e.listeners.emit(Event{Type: EventPubsubPublish, Key: channel})
	return count
}
