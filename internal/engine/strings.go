package engine

import (
	"time"

	"github.com/R3E-Network/cachegrid/internal/values"
)

// SetOptions configures SET's optional behaviour (spec §4.1).
type SetOptions struct {
	TTL time.Duration // zero means no expiry
	NX  bool          // only set if absent
	XX  bool          // only set if present
}

// Get returns the string at key, or (nil, false, nil) on a miss. A key
// holding a non-string value returns the WrongType error.
func (e *Engine) Get(namespace, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getLocked(namespace, key)
}

// getLocked is Get's body, callable from other methods that already hold
// e.mu — e.g. MGet, which needs every key read under one critical section.
func (e *Engine) getLocked(namespace, key string) ([]byte, bool, error) {
	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		e.stats.misses++
		ns.stats.Misses++
		return nil, false, nil
	}
	sv, err := values.AsString(entry.Value)
	if err != nil {
		return nil, false, err
	}
	ns.touch(key, e.now())
	e.stats.hits++
	ns.stats.Hits++
	e.listeners.emit(Event{Type: EventKeyGet, Namespace: namespace, Key: key})
	return []byte(sv), true, nil
}

// Set stores value at key under opts. Returns ok=false when an NX/XX
// precondition is unmet (spec §4.1: "both fail silently").
func (e *Engine) Set(namespace, key string, value []byte, opts SetOptions) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.setLocked(namespace, key, value, opts)
}

// setLocked is Set's body, callable from other methods that already hold
// e.mu — e.g. MSet, which needs every pair written under one critical
// section (spec §4.2's linearizability requirement for mset).
func (e *Engine) setLocked(namespace, key string, value []byte, opts SetOptions) (bool, error) {
	if e.cfg.MaxTTL > 0 && opts.TTL > e.cfg.MaxTTL {
		return false, ttlExceededErr(opts.TTL, e.cfg.MaxTTL)
	}

	ns := e.namespace(namespace)
	_, exists := e.lookup(ns, key)
	if opts.NX && exists {
		return false, nil
	}
	if opts.XX && !exists {
		return false, nil
	}

	now := e.now()
	entry := newEntry(values.StringValue(value), now)
	if opts.TTL > 0 {
		entry.ExpiresAt = now.Add(opts.TTL)
	} else if e.cfg.DefaultTTL > 0 {
		entry.ExpiresAt = now.Add(e.cfg.DefaultTTL)
	}

	if err := e.admit(entry.SizeBytes - existingSize(ns, key)); err != nil {
		return false, err
	}
	ns.put(key, entry, now)
	if entry.HasExpiry() {
		e.scheduleExpiry(namespace, key, entry, entry.ExpiresAt)
	}
	e.listeners.emit(Event{Type: EventKeySet, Namespace: namespace, Key: key})
	return true, nil
}

func existingSize(ns *Namespace, key string) int64 {
	if e, ok := ns.entries[key]; ok {
		return e.SizeBytes
	}
	return 0
}

// SetNX is Set with NX=true.
func (e *Engine) SetNX(namespace, key string, value []byte) (bool, error) {
	return e.Set(namespace, key, value, SetOptions{NX: true})
}

// SetEX is Set with an explicit TTL in seconds.
func (e *Engine) SetEX(namespace, key string, value []byte, seconds int64) (bool, error) {
	return e.Set(namespace, key, value, SetOptions{TTL: time.Duration(seconds) * time.Second})
}

// GetDel atomically returns and removes key.
func (e *Engine) GetDel(namespace, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		return nil, false, nil
	}
	sv, err := values.AsString(entry.Value)
	if err != nil {
		return nil, false, err
	}
	ns.removeKey(key)
	e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: key})
	return []byte(sv), true, nil
}

// Append implements APPEND, creating the key if absent.
func (e *Engine) Append(namespace, key string, suffix []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	now := e.now()
	entry, ok := e.lookup(ns, key)
	var cur values.StringValue
	if ok {
		sv, err := values.AsString(entry.Value)
		if err != nil {
			return 0, err
		}
		cur = sv
	}
	out, n := cur.Append(suffix)

	newEnt := newEntry(out, now)
	if ok {
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

// Strlen returns len(GET key), 0 on miss.
func (e *Engine) Strlen(namespace, key string) (int, error) {
	v, ok, err := e.Get(namespace, key)
	if err != nil || !ok {
		return 0, err
	}
	return len(v), nil
}

// GetRange implements GETRANGE.
func (e *Engine) GetRange(namespace, key string, start, end int) ([]byte, error) {
	v, ok, err := e.Get(namespace, key)
	if err != nil || !ok {
		return []byte{}, err
	}
	return []byte(values.StringValue(v).GetRange(start, end)), nil
}

// IncrBy implements INCR/INCRBY/DECR/DECRBY via a signed delta.
func (e *Engine) IncrBy(namespace, key string, by int64) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	now := e.now()
	entry, ok := e.lookup(ns, key)
	var cur values.StringValue
	if ok {
		sv, err := values.AsString(entry.Value)
		if err != nil {
			return 0, err
		}
		cur = sv
	}
	n, err := values.ParseInt(cur)
	if err != nil {
		return 0, err
	}
	n += by
	out := values.FormatInt(n)

	newEnt := newEntry(out, now)
	if ok {
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
