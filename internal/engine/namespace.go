package engine

import "time"

// NamespaceStats are the rolling counters a Namespace tracks for itself
// (spec §3).
type NamespaceStats struct {
	Hits        int64
	Misses      int64
	Keys        int64
	Bytes       int64
	OldestEntry time.Time
	LastAccess  time.Time
}

// Namespace owns one tenant's keyspace: the key→Entry map, its LRU recency
// index, and rolling stats. Invariant: the LRU index and the key map
// enumerate the same set of keys (spec §3).
type Namespace struct {
	name      string
	entries   map[string]*Entry
	lru       *lruList
	lruNodes  map[string]*lruNode
	usedBytes int64
	stats     NamespaceStats
}

func newNamespace(name string) *Namespace {
	return &Namespace{
		name:     name,
		entries:  make(map[string]*Entry),
		lru:      newLRUList(),
		lruNodes: make(map[string]*lruNode),
	}
}

func (n *Namespace) get(key string) (*Entry, bool) {
	e, ok := n.entries[key]
	return e, ok
}

// touch promotes key to the MRU end and bumps access bookkeeping.
func (n *Namespace) touch(key string, now time.Time) {
	e, ok := n.entries[key]
	if !ok {
		return
	}
	e.AccessCount++
	e.LastAccessedAt = now
	n.stats.LastAccess = now
	if node, ok := n.lruNodes[key]; ok {
		n.lru.promote(node)
	}
}

// put inserts or replaces key's entry, updating size accounting and the
// LRU index. Returns the byte delta (new size - old size, 0 if absent).
func (n *Namespace) put(key string, e *Entry, now time.Time) int64 {
	var delta int64
	if old, ok := n.entries[key]; ok {
		delta = e.SizeBytes - old.SizeBytes
	} else {
		delta = e.SizeBytes
		n.stats.Keys++
		node := &lruNode{key: key}
		n.lruNodes[key] = node
		n.lru.pushFront(node)
		if n.stats.OldestEntry.IsZero() || now.Before(n.stats.OldestEntry) {
			n.stats.OldestEntry = now
		}
	}
	n.entries[key] = e
	n.usedBytes += delta
	if node, ok := n.lruNodes[key]; ok {
		n.lru.promote(node)
	}
	return delta
}

// removeKey deletes key, returning its freed byte count (0 if absent).
func (n *Namespace) removeKey(key string) int64 {
	e, ok := n.entries[key]
	if !ok {
		return 0
	}
	delete(n.entries, key)
	n.usedBytes -= e.SizeBytes
	n.stats.Keys--
	if node, ok := n.lruNodes[key]; ok {
		n.lru.remove(node)
		delete(n.lruNodes, key)
	}
	return e.SizeBytes
}

func (n *Namespace) rename(from, to string) bool {
	e, ok := n.entries[from]
	if !ok {
		return false
	}
	n.removeKey(to)
	n.removeKey(from)
	n.put(to, e, e.LastAccessedAt)
	return true
}

// lruVictim returns the least-recently-used key, if any.
func (n *Namespace) lruVictim() (string, bool) {
	return n.lru.victim()
}
