package engine

import (
	"sort"
	"strconv"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
	"github.com/R3E-Network/cachegrid/internal/values"
)

// Type returns key's variant tag, or "none" if absent (spec §4.1).
func (e *Engine) Type(namespace, key string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		return values.KindNone.String()
	}
	return entry.Value.Kind().String()
}

// Rename overwrites to with from's entry, failing with KeyNotFound if from
// is absent (spec §4.1, §7).
func (e *Engine) Rename(namespace, from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	if _, ok := e.lookup(ns, from); !ok {
		return errors.KeyNotFound(from)
	}
	ns.rename(from, to)
	e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: from})
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: to})
	return nil
}

// Exists counts how many of keys are currently present.
func (e *Engine) Exists(namespace string, keys []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	var count int
	for _, k := range keys {
		if _, ok := e.lookup(ns, k); ok {
			count++
		}
	}
	return count
}

// Del removes keys, returning the count actually removed (spec §4.1).
func (e *Engine) Del(namespace string, keys []string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	var count int
	for _, k := range keys {
		if _, ok := e.lookup(ns, k); !ok {
			continue
		}
		ns.removeKey(k)
		count++
		e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: k})
	}
	return count
}

// Keys returns every live key matching pattern (spec §4.1). This is a full
// scan and, like Redis's own KEYS, is unsuitable for production hot paths
// on large keyspaces — SCAN exists for that.
func (e *Engine) Keys(namespace, pattern string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	now := e.now()
	var out []string
	for k, ent := range ns.entries {
		if ent.ExpiredAt(now) {
			continue
		}
		if values.MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}
	return out
}

// Scan implements a cursor-based iteration over the namespace's keys.
// The cursor is opaque to callers (spec §9 Open Question (ii)): internally
// it is an index into the namespace's live keys in sorted order, rebuilt on
// every call. A cursor of 0 starts a new scan; the returned cursor is 0 when
// the scan is complete. Concurrent mutation may cause misses or
// duplicates but must never crash (spec §4.1).
func (e *Engine) Scan(namespace string, cursor uint64, pattern string, count int) ([]string, uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	now := e.now()
	snapshot := make([]string, 0, len(ns.entries))
	for k, ent := range ns.entries {
		if !ent.ExpiredAt(now) {
			snapshot = append(snapshot, k)
		}
	}
	sort.Strings(snapshot)

	if count <= 0 {
		count = 10
	}
	start := int(cursor)
	if start > len(snapshot) {
		start = len(snapshot)
	}
	end := start + count
	if end > len(snapshot) {
		end = len(snapshot)
	}

	var out []string
	for _, k := range snapshot[start:end] {
		if pattern == "" || values.MatchGlob(pattern, k) {
			out = append(out, k)
		}
	}

	next := uint64(end)
	if end >= len(snapshot) {
		next = 0
	}
	return out, next
}

// MGet returns each key's string value, nil for a miss or non-string. Every
// key is read under one critical section, making MGet linearizable against
// concurrent del/exists/mset calls (spec §4.2), the same way Del/Exists
// already hold a single lock for their whole loop.
func (e *Engine) MGet(namespace string, keys []string) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, ok, err := e.getLocked(namespace, k)
		if err != nil {
			out[i] = nil
			continue
		}
		if ok {
			out[i] = v
		}
	}
	return out, nil
}

// MSet sets every key/value pair under one critical section, atomically
// with respect to the engine lock as a whole (spec §4.2).
func (e *Engine) MSet(namespace string, pairs map[string][]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for k, v := range pairs {
		if _, err := e.setLocked(namespace, k, v, SetOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// FormatCursor renders a Scan cursor the way RESP bulk-string replies need.
func FormatCursor(cursor uint64) string {
	return strconv.FormatUint(cursor, 10)
}
