package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishDeliversToExactAndPatternSubscribers(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	var mu sync.Mutex
	var exactMsgs, patternMsgs []Message

	e.Subscribe("tenant:1:events", func(m Message) {
		mu.Lock()
		exactMsgs = append(exactMsgs, m)
		mu.Unlock()
	})
	e.PSubscribe("tenant:*:events", func(m Message) {
		mu.Lock()
		patternMsgs = append(patternMsgs, m)
		mu.Unlock()
	})

	count := e.Publish("tenant:1:events", []byte("hello"), "")
	assert.Equal(t, 2, count, "one exact subscriber plus one pattern subscriber")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, exactMsgs, 1)
	assert.Len(t, patternMsgs, 1)
	assert.Equal(t, "tenant:*:events", patternMsgs[0].Pattern)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	e, _ := newTestEngine(t, Config{})

	var count int
	var mu sync.Mutex
	handle := e.Subscribe("ch", func(Message) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	e.Publish("ch", []byte("1"), "")
	handle.Unsubscribe()
	e.Publish("ch", []byte("2"), "")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestPublishNoSubscribersReturnsZero(t *testing.T) {
	e, _ := newTestEngine(t, Config{})
	assert.Equal(t, 0, e.Publish("nobody-listening", []byte("x"), ""))
}
