package engine

import "github.com/R3E-Network/cachegrid/internal/values"

func (e *Engine) setFor(ns *Namespace, key string, create bool) (values.SetValue, *Entry, error) {
	entry, ok := e.lookup(ns, key)
	if !ok {
		if !create {
			return nil, nil, nil
		}
		return values.SetValue{}, nil, nil
	}
	s, err := values.AsSet(entry.Value)
	if err != nil {
		return nil, nil, err
	}
	return s, entry, nil
}

func (e *Engine) saveSet(ns *Namespace, namespace, key string, s values.SetValue, entry *Entry) error {
	now := e.now()
	if len(s) == 0 {
		ns.removeKey(key)
		e.listeners.emit(Event{Type: EventKeyDelete, Namespace: namespace, Key: key})
		return nil
	}
	newEnt := newEntry(s, now)
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

// SAdd inserts members, returning the count newly added.
func (e *Engine) SAdd(namespace, key string, members ...string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, entry, err := e.setFor(ns, key, true)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, m := range members {
		if _, ok := s[m]; !ok {
			s[m] = struct{}{}
			added++
		}
	}
	if err := e.saveSet(ns, namespace, key, s, entry); err != nil {
		return 0, err
	}
	return added, nil
}

// SRem removes members, returning the count actually removed.
func (e *Engine) SRem(namespace, key string, members ...string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, entry, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return 0, err
	}
	removed := 0
	for _, m := range members {
		if _, ok := s[m]; ok {
			delete(s, m)
			removed++
		}
	}
	if err := e.saveSet(ns, namespace, key, s, entry); err != nil {
		return 0, err
	}
	return removed, nil
}

// SMembers returns all members.
func (e *Engine) SMembers(namespace, key string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return nil, err
	}
	return s.Members(), nil
}

// SIsMember reports whether member is in the set.
func (e *Engine) SIsMember(namespace, key, member string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return false, err
	}
	_, ok := s[member]
	return ok, nil
}

// SCard returns the member count.
func (e *Engine) SCard(namespace, key string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return 0, err
	}
	return len(s), nil
}

// SPop removes and returns one member, chosen deterministically per
// process (spec §4.1).
func (e *Engine) SPop(namespace, key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, entry, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return "", false, err
	}
	m, ok := s.Pop()
	if !ok {
		return "", false, nil
	}
	if err := e.saveSet(ns, namespace, key, s, entry); err != nil {
		return "", false, err
	}
	return m, true, nil
}

// SRandMember returns a uniformly chosen member without removing it.
func (e *Engine) SRandMember(namespace, key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	s, _, err := e.setFor(ns, key, false)
	if err != nil || s == nil {
		return "", false, err
	}
	m, ok := values.RandMember(s)
	return m, ok, nil
}
