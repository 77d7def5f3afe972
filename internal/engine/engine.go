// Package engine implements the namespaced, in-memory keyspace: TTL
// expiration, LRU eviction under a memory budget, pub/sub, and the
// statistics and events the rest of cachegrid observes it through.
package engine

import (
	"sync"
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// EvictionPolicy names the admission-pressure discipline. Only LRU is
// required to actually evict; other values are accepted as no-ops
// (spec §4.2).
type EvictionPolicy string

const (
	EvictionLRU  EvictionPolicy = "lru"
	EvictionNone EvictionPolicy = "none"
)

// Config carries the construction parameters of one Engine (spec §4.2).
type Config struct {
	MaxMemoryBytes int64
	DefaultTTL     time.Duration
	MaxTTL         time.Duration
	Eviction       EvictionPolicy
	// TEEProvider is an opaque tag passed through for attestation pass-through;
	// the engine never inspects it (spec §6, §9).
	TEEProvider string
	Now         func() time.Time
}

// Stats are the engine-wide counters spec §4.2 requires be reported.
type Stats struct {
	TotalKeys       int64
	UsedBytes       int64
	MaxBytes        int64
	Hits            int64
	Misses          int64
	Evictions       int64
	Expired         int64
	NamespaceCount  int
	UptimeSeconds   float64
	HitRate         float64
	MeanKeySize     float64
	MeanValueSize   float64
	OldestEntryAge  time.Duration
}

// internal mutable counters (Stats is the read-only snapshot view).
type statCounters struct {
	hits, misses, evictions, expired int64
}

// Engine owns a set of namespaces, the expiration heap, the pub/sub
// registry, aggregate stats, and event listeners (spec §3).
type Engine struct {
	mu sync.Mutex

	cfg       Config
	now       func() time.Time
	startedAt time.Time

	namespaces map[string]*Namespace
	expHeap    expHeap

	subs      *pubsubRegistry
	listeners listenerRegistry
	stats     statCounters

	stopSweep chan struct{}
	sweepWG   sync.WaitGroup
}

// New constructs an Engine and starts its background expiration sweeper.
func New(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Eviction == "" {
		cfg.Eviction = EvictionLRU
	}
	e := &Engine{
		cfg:        cfg,
		now:        cfg.Now,
		startedAt:  cfg.Now(),
		namespaces: make(map[string]*Namespace),
		subs:       newPubsubRegistry(),
		stopSweep:  make(chan struct{}),
	}
	e.sweepWG.Add(1)
	go e.sweepLoop()
	return e
}

// Close stops the background sweeper. Safe to call once.
func (e *Engine) Close() {
	close(e.stopSweep)
	e.sweepWG.Wait()
}

func (e *Engine) sweepLoop() {
	defer e.sweepWG.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopSweep:
			return
		case <-ticker.C:
			e.mu.Lock()
			e.sweepExpired(e.now())
			e.mu.Unlock()
		}
	}
}

// OnEvent registers a best-effort listener (spec §4.2).
func (e *Engine) OnEvent(l Listener) {
	e.listeners.add(l)
}

func (e *Engine) namespace(name string) *Namespace {
	ns, ok := e.namespaces[name]
	if !ok {
		ns = newNamespace(name)
		e.namespaces[name] = ns
	}
	return ns
}

// totalUsedBytes sums used bytes across all namespaces. Caller holds e.mu.
func (e *Engine) totalUsedBytes() int64 {
	var total int64
	for _, ns := range e.namespaces {
		total += ns.usedBytes
	}
	return total
}

// admit makes room for addBytes more usage, evicting LRU entries across
// namespaces until the budget is satisfied. Caller holds e.mu. Returns
// MemoryLimit if even a full eviction cannot make room (spec §4.2).
func (e *Engine) admit(addBytes int64) error {
	if e.cfg.MaxMemoryBytes <= 0 {
		return nil // unbounded
	}
	if addBytes > e.cfg.MaxMemoryBytes {
		return errors.MemoryLimit(addBytes, e.cfg.MaxMemoryBytes)
	}
	for e.totalUsedBytes()+addBytes > e.cfg.MaxMemoryBytes {
		if e.cfg.Eviction != EvictionLRU {
			return errors.MemoryLimit(addBytes, e.cfg.MaxMemoryBytes)
		}
		if !e.evictOne() {
			return errors.MemoryLimit(addBytes, e.cfg.MaxMemoryBytes)
		}
	}
	return nil
}

// evictOne evicts the globally oldest LRU victim across all namespaces.
// Returns false if nothing could be evicted.
func (e *Engine) evictOne() bool {
	var victimNS *Namespace
	var victimKey string
	var oldest time.Time
	found := false

	for _, ns := range e.namespaces {
		key, ok := ns.lruVictim()
		if !ok {
			continue
		}
		entry := ns.entries[key]
		if !found || entry.LastAccessedAt.Before(oldest) {
			victimNS, victimKey, oldest, found = ns, key, entry.LastAccessedAt, true
		}
	}
	if !found {
		return false
	}
	victimNS.removeKey(victimKey)
	e.stats.evictions++
	e.listeners.emit(Event{Type: EventKeyEvict, Namespace: victimNS.name, Key: victimKey})
	return true
}

// Snapshot returns the current aggregate statistics (spec §4.2).
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var totalKeys int64
	var oldest time.Time
	var totalKeyLen, totalValLen int64
	for _, ns := range e.namespaces {
		totalKeys += int64(len(ns.entries))
		for k, ent := range ns.entries {
			totalKeyLen += int64(len(k))
			totalValLen += ent.SizeBytes
		}
		if !ns.stats.OldestEntry.IsZero() && (oldest.IsZero() || ns.stats.OldestEntry.Before(oldest)) {
			oldest = ns.stats.OldestEntry
		}
	}

	s := Stats{
		TotalKeys:      totalKeys,
		UsedBytes:      e.totalUsedBytes(),
		MaxBytes:       e.cfg.MaxMemoryBytes,
		Hits:           e.stats.hits,
		Misses:         e.stats.misses,
		Evictions:      e.stats.evictions,
		Expired:        e.stats.expired,
		NamespaceCount: len(e.namespaces),
		UptimeSeconds:  e.now().Sub(e.startedAt).Seconds(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	if totalKeys > 0 {
		s.MeanKeySize = float64(totalKeyLen) / float64(totalKeys)
		s.MeanValueSize = float64(totalValLen) / float64(totalKeys)
	}
	if !oldest.IsZero() {
		s.OldestEntryAge = e.now().Sub(oldest)
	}
	return s
}

// NamespaceStats returns the stats for one namespace, or the zero value if
// it does not exist.
func (e *Engine) NamespaceStats(namespace string) NamespaceStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	ns, ok := e.namespaces[namespace]
	if !ok {
		return NamespaceStats{}
	}
	return ns.stats
}

// lookup fetches key's live entry, performing lazy expiration. Caller
// holds e.mu. Returns (nil, false) on miss or lazily-expired.
func (e *Engine) lookup(ns *Namespace, key string) (*Entry, bool) {
	entry, ok := ns.get(key)
	if !ok {
		return nil, false
	}
	if entry.ExpiredAt(e.now()) {
		ns.removeKey(key)
		e.stats.expired++
		e.listeners.emit(Event{Type: EventKeyExpire, Namespace: ns.name, Key: key})
		return nil, false
	}
	return entry, true
}
