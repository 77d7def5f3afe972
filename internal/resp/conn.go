package resp

import (
	"io"
	"sync"

	"github.com/R3E-Network/cachegrid/internal/engine"
)

// Conn holds per-RESP-connection state: the streaming parser, the
// authenticated flag, and the set of channel/pattern subscriptions (spec
// §4.3). Namespace selection happens at the listener/configuration level;
// SELECT is accepted as a no-op for client compatibility (spec §4.3, §6).
type Conn struct {
	Parser        Parser
	Authenticated bool
	Namespace     string

	mu       sync.Mutex
	w        io.Writer
	channels map[string]engine.SubscriptionHandle
	patterns map[string]engine.SubscriptionHandle
}

// NewConn wraps w (the connection's outbound writer) in fresh per-connection state.
func NewConn(w io.Writer, namespace string) *Conn {
	return &Conn{
		w:         w,
		Namespace: namespace,
		channels:  make(map[string]engine.SubscriptionHandle),
		patterns:  make(map[string]engine.SubscriptionHandle),
	}
}

// Push writes an out-of-band message (a pub/sub delivery) to the client.
func (c *Conn) Push(v Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.w.Write(Encode(v))
	return err
}

// SubscriptionCount returns the total channel + pattern subscription count,
// as RESP's (P)SUBSCRIBE/(P)UNSUBSCRIBE replies report it.
func (c *Conn) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.channels) + len(c.patterns)
}

// Close unsubscribes from everything the connection was listening to.
// Safe to call once, on disconnect (spec §5: "subscriber state is
// removed").
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.channels {
		h.Unsubscribe()
	}
	for _, h := range c.patterns {
		h.Unsubscribe()
	}
	c.channels = map[string]engine.SubscriptionHandle{}
	c.patterns = map[string]engine.SubscriptionHandle{}
}

func (c *Conn) subscribeChannel(eng *engine.Engine, channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.channels[channel]; ok {
		return
	}
	c.channels[channel] = eng.Subscribe(channel, func(m engine.Message) {
		c.Push(Array(BulkString("message"), BulkString(m.Channel), BulkBytes(m.Payload)))
	})
}

func (c *Conn) subscribePattern(eng *engine.Engine, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.patterns[pattern]; ok {
		return
	}
	c.patterns[pattern] = eng.PSubscribe(pattern, func(m engine.Message) {
		c.Push(Array(BulkString("pmessage"), BulkString(m.Pattern), BulkString(m.Channel), BulkBytes(m.Payload)))
	})
}

func (c *Conn) unsubscribeChannel(channel string) {
	c.mu.Lock()
	h, ok := c.channels[channel]
	if ok {
		delete(c.channels, channel)
	}
	c.mu.Unlock()
	if ok {
		h.Unsubscribe()
	}
}

func (c *Conn) unsubscribePattern(pattern string) {
	c.mu.Lock()
	h, ok := c.patterns[pattern]
	if ok {
		delete(c.patterns, pattern)
	}
	c.mu.Unlock()
	if ok {
		h.Unsubscribe()
	}
}
