package engine

import "github.com/R3E-Network/cachegrid/internal/values"

func (e *Engine) streamFor(ns *Namespace, key string, create bool) (*values.StreamValue, *Entry, error) {
	entry, ok := e.lookup(ns, key)
	if !ok {
		if !create {
			return nil, nil, nil
		}
		return values.NewStream(), nil, nil
	}
	s, err := values.AsStream(entry.Value)
	if err != nil {
		return nil, nil, err
	}
	return s, entry, nil
}

// XAdd appends fields/values to key's stream, assigning an id of
// max(now_ms, last_ms)-seq for monotonicity under clock skew
// (spec §4.1, §9 Open Question (iii)). An explicit id may be supplied;
// zero value requests auto-assignment.
func (e *Engine) XAdd(namespace, key string, id values.StreamID, fields []string, vals [][]byte) (values.StreamID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, entry, err := e.streamFor(ns, key, true)
	if err != nil {
		return values.StreamID{}, err
	}

	assigned := id
	if assigned == (values.StreamID{}) {
		assigned = s.NextID(e.now().UnixMilli())
	}
	if err := s.XAdd(assigned, fields, vals); err != nil {
		return values.StreamID{}, err
	}

	now := e.now()
	newEnt := newEntry(s, now)
	if entry != nil {
		newEnt.ExpiresAt = entry.ExpiresAt
		newEnt.CreatedAt = entry.CreatedAt
	}
	if err := e.admit(newEnt.SizeBytes - existingSize(ns, key)); err != nil {
		return values.StreamID{}, err
	}
	ns.put(key, newEnt, now)
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: key})
	return assigned, nil
}

// XRange returns entries with start <= id <= end.
func (e *Engine) XRange(namespace, key string, start, end values.StreamID, count int) ([]values.StreamEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.streamFor(ns, key, false)
	if err != nil || s == nil {
		return nil, err
	}
	out := s.XRange(start, end)
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, nil
}

// XLen returns the entry count.
func (e *Engine) XLen(namespace, key string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.streamFor(ns, key, false)
	if err != nil || s == nil {
		return 0, err
	}
	return s.XLen(), nil
}
