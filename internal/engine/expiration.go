package engine

import (
	"container/heap"
	"time"
)

// expItem is one pending expiration, ordered by ExpiresAt (spec §3 Engine:
// "an expiration min-heap keyed by expires_at").
type expItem struct {
	namespace string
	key       string
	expiresAt time.Time
	entry     *Entry
	index     int
}

type expHeap []*expItem

func (h expHeap) Len() int { return len(h) }
func (h expHeap) Less(i, j int) bool {
	return h[i].expiresAt.Before(h[j].expiresAt)
}
func (h expHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *expHeap) Push(x interface{}) {
	item := x.(*expItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *expHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// peekReady reports whether the earliest item has already expired as of now.
func (h expHeap) peekReady(now time.Time) bool {
	return len(h) > 0 && !h[0].expiresAt.After(now)
}

func (e *Engine) scheduleExpiry(namespace, key string, entry *Entry, at time.Time) {
	item := &expItem{namespace: namespace, key: key, expiresAt: at, entry: entry}
	heap.Push(&e.expHeap, item)
}

// sweepExpired pops and removes every heap entry whose deadline has passed,
// emitting KEY_EXPIRE for each (spec §4.2). Caller must hold e.mu.
func (e *Engine) sweepExpired(now time.Time) {
	for e.expHeap.peekReady(now) {
		item := heap.Pop(&e.expHeap).(*expItem)
		ns, ok := e.namespaces[item.namespace]
		if !ok {
			continue
		}
		// The key may have been overwritten (new expiry scheduled) or deleted
		// since this heap entry was pushed; only act if it's still the same entry.
		if cur, ok := ns.entries[item.key]; !ok || cur != item.entry {
			continue
		}
		ns.removeKey(item.key)
		e.stats.expired++
		e.listeners.emit(Event{Type: EventKeyExpire, Namespace: item.namespace, Key: item.key})
	}
}
