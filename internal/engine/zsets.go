package engine

import "github.com/R3E-Network/cachegrid/internal/values"

func (e *Engine) zsetFor(ns *Namespace, key string, create bool) (*values.SortedSetValue, *Entry, error) {
	entry, ok := e.lookup(ns, key)
	if !ok {
		if !create {
			return nil, nil, nil
		}
		return values.NewSortedSet(), nil, nil
	}
	z, err := values.AsSortedSet(entry.Value)
	if err != nil {
		return nil, nil, err
	}
	return z, entry, nil
}

func (e *Engine) saveZSet(ns *Namespace, namespace, key string, z *values.SortedSetValue, entry *Entry) error {
	now := e.now()
	if z.ZCard() == 0 {
		ns.removeKey(key)
		e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: key})
		return nil
	}
	newEnt := newEntry(z, now)
	if entry != nil {
		newEnt.ExpiresAt = entry.ExpiresAt
		newEnt.CreatedAt = entry.CreatedAt
	}
	if err := e.admit(newEnt.SizeBytes - existingSize(ns, key)); err != nil {
		return err
	}
	ns.put(key, newEnt, now)
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: key})
	return nil
}

// ZAdd inserts or updates member/score pairs, returning the count of newly
// inserted members (spec §4.1).
func (e *Engine) ZAdd(namespace, key string, members map[string]float64) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, entry, err := e.zsetFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	added := 0
	for m, score := range members {
		if z.ZAdd(m, score) {
			added++
		}
	}
	if err := e.saveZSet(ns, namespace, key, z, entry); err != nil {
		return 0, err
	}
	return added, nil
}

// ZRange returns the ascending (score,member) slice [start,stop].
func (e *Engine) ZRange(namespace, key string, start, stop int) ([]values.ZEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, _, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return nil, err
	}
	return z.ZRange(start, stop), nil
}

// ZRevRange returns the descending slice [start,stop].
func (e *Engine) ZRevRange(namespace, key string, start, stop int) ([]values.ZEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, _, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return nil, err
	}
	return z.ZRevRange(start, stop), nil
}

// ZRangeByScore returns members with min <= score <= max.
func (e *Engine) ZRangeByScore(namespace, key string, min, max float64) ([]values.ZEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, _, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return nil, err
	}
	return z.ZRangeByScore(min, max), nil
}

// ZScore returns member's score.
func (e *Engine) ZScore(namespace, key, member string) (float64, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, _, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return 0, false, err
	}
	s, ok := z.ZScore(member)
	return s, ok, nil
}

// ZCard returns the member count.
func (e *Engine) ZCard(namespace, key string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, _, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return 0, err
	}
	return z.ZCard(), nil
}

// ZRem removes member, reporting whether it was present.
func (e *Engine) ZRem(namespace, key, member string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	z, entry, err := e.zsetFor(ns, key, false)
	if err != nil || z == nil {
		return false, err
	}
	ok := z.ZRem(member)
	if !ok {
		return false, nil
	}
	if err := e.saveZSet(ns, namespace, key, z, entry); err != nil {
		return false, err
	}
	return true, nil
}
