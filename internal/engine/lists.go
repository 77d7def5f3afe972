package engine

import "github.com/R3E-Network/cachegrid/internal/values"

func (e *Engine) listFor(ns *Namespace, key string, create bool) (*values.ListValue, *Entry, error) {
	entry, ok := e.lookup(ns, key)
	if !ok {
		if !create {
			return nil, nil, nil
		}
		return values.NewList(), nil, nil
	}
	l, err := values.AsList(entry.Value)
	if err != nil {
		return nil, nil, err
	}
	return l, entry, nil
}

func (e *Engine) saveList(ns *Namespace, namespace, key string, l *values.ListValue, entry *Entry) error {
	now := e.now()
	if l.Len() == 0 {
		ns.removeKey(key)
		e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: key})
		return nil
	}
	newEnt := newEntry(l, now)
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

// LPush prepends elems, returning the new length.
func (e *Engine) LPush(namespace, key string, elems ...[]byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	n := l.LPush(elems...)
	if err := e.saveList(ns, namespace, key, l, entry); err != nil {
		return 0, err
	}
	return n, nil
}

// RPush appends elems, returning the new length.
func (e *Engine) RPush(namespace, key string, elems ...[]byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	n := l.RPush(elems...)
	if err := e.saveList(ns, namespace, key, l, entry); err != nil {
		return 0, err
	}
	return n, nil
}

// LPop removes and returns the head element.
func (e *Engine) LPop(namespace, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return nil, false, err
	}
	v, ok := l.LPop()
	if !ok {
		return nil, false, nil
	}
	if err := e.saveList(ns, namespace, key, l, entry); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// RPop removes and returns the tail element.
func (e *Engine) RPop(namespace, key string) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return nil, false, err
	}
	v, ok := l.RPop()
	if !ok {
		return nil, false, nil
	}
	if err := e.saveList(ns, namespace, key, l, entry); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// LLen returns the list's length, 0 on miss.
func (e *Engine) LLen(namespace, key string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, _, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return 0, err
	}
	return l.Len(), nil
}

// LIndex returns the element at index.
func (e *Engine) LIndex(namespace, key string, index int) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, _, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return nil, false, err
	}
	v, ok := l.LIndex(index)
	return v, ok, nil
}

// LSet overwrites the element at index.
func (e *Engine) LSet(namespace, key string, index int, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, false)
	if err != nil {
		return err
	}
	if l == nil {
		return values.WrongType(values.KindList, values.KindNone)
	}
	if err := l.LSet(index, value); err != nil {
		return err
	}
	return e.saveList(ns, namespace, key, l, entry)
}

// LRange returns the inclusive [start,stop] slice.
func (e *Engine) LRange(namespace, key string, start, stop int) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, _, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return nil, err
	}
	return l.LRange(start, stop), nil
}

// LTrim retains only [start,stop].
func (e *Engine) LTrim(namespace, key string, start, stop int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	l, entry, err := e.listFor(ns, key, false)
	if err != nil || l == nil {
		return err
	}
	l.LTrim(start, stop)
	return e.saveList(ns, namespace, key, l, entry)
}
