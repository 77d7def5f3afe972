package engine

import "github.com/R3E-Network/cachegrid/internal/values"

func (e *Engine) hashFor(ns *Namespace, key string, create bool) (values.HashValue, *Entry, error) {
	entry, ok := e.lookup(ns, key)
	if !ok {
		if !create {
			return nil, nil, nil
		}
		return values.HashValue{}, nil, nil
	}
	h, err := values.AsHash(entry.Value)
	if err != nil {
		return nil, nil, err
	}
	return h, entry, nil
}

// HGet returns field's value, or (nil, false) on miss.
func (e *Engine) HGet(namespace, key, field string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, _, err := e.hashFor(ns, key, false)
	if err != nil || h == nil {
		return nil, false, err
	}
	v, ok := h[field]
	return v, ok, nil
}

// HSet sets field=value, returning 1 if field was newly created else 0
// (spec §4.1).
func (e *Engine) HSet(namespace, key, field string, value []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, entry, err := e.hashFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	now := e.now()
	_, existed := h[field]
	h[field] = value

	newEnt := newEntry(h, now)
	if entry != nil {
		newEnt.ExpiresAt = entry.ExpiresAt
		newEnt.CreatedAt = entry.CreatedAt
	}
	if err := e.admit(newEnt.SizeBytes - existingSize(ns, key)); err != nil {
		return 0, err
	}
	ns.put(key, newEnt, now)
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: key})
	if existed {
		return 0, nil
	}
	return 1, nil
}

// HMSet sets multiple fields in one call.
func (e *Engine) HMSet(namespace, key string, fields map[string][]byte) error {
	for f, v := range fields {
		if _, err := e.HSet(namespace, key, f, v); err != nil {
			return err
		}
	}
	return nil
}

// HMGet returns each field's value, nil where absent.
func (e *Engine) HMGet(namespace, key string, fields []string) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, _, err := e.hashFor(ns, key, false)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		if h != nil {
			out[i] = h[f]
		}
	}
	return out, nil
}

// HGetAll returns the complete field/value map.
func (e *Engine) HGetAll(namespace, key string) (values.HashValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, _, err := e.hashFor(ns, key, false)
	return h, err
}

// HDel removes fields, returning the count actually removed.
func (e *Engine) HDel(namespace, key string, fields []string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, _, err := e.hashFor(ns, key, false)
	if err != nil || h == nil {
		return 0, err
	}
	count := 0
	for _, f := range fields {
		if _, ok := h[f]; ok {
			delete(h, f)
			count++
		}
	}
	if len(h) == 0 {
		ns.removeKey(key)
		e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: key})
	}
	return count, nil
}

// HExists reports whether field is present.
func (e *Engine) HExists(namespace, key, field string) (bool, error) {
	_, ok, err := e.HGet(namespace, key, field)
	return ok, err
}

// HLen returns the field count.
func (e *Engine) HLen(namespace, key string) (int, error) {
	h, err := e.HGetAll(namespace, key)
	if err != nil {
		return 0, err
	}
	return len(h), nil
}

// HKeys returns all field names.
func (e *Engine) HKeys(namespace, key string) ([]string, error) {
	h, err := e.HGetAll(namespace, key)
	if err != nil || h == nil {
		return nil, err
	}
	return h.Keys(), nil
}

// HVals returns all values.
func (e *Engine) HVals(namespace, key string) ([][]byte, error) {
	h, err := e.HGetAll(namespace, key)
	if err != nil || h == nil {
		return nil, err
	}
	return h.Values(), nil
}

// HIncrBy adds delta to field's integer value, creating it as "0" if absent.
func (e *Engine) HIncrBy(namespace, key, field string, delta int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	h, entry, err := e.hashFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	n, err := values.ParseInt(values.StringValue(h[field]))
	if err != nil {
		return 0, err
	}
	n += delta
	h[field] = values.FormatInt(n)

	now := e.now()
	newEnt := newEntry(h, now)
	if entry != nil {
		newEnt.ExpiresAt = entry.ExpiresAt
		newEnt.CreatedAt = entry.CreatedAt
	}
	if err := e.admit(newEnt.SizeBytes - existingSize(ns, key)); err != nil {
		return 0, err
	}
	ns.put(key, newEnt, now)
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: key})
	return n, nil
}
