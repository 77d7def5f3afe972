package engine

import (
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

func ttlExceededErr(requested, max time.Duration) error {
	return errors.TtlExceeded(int64(requested/time.Second), int64(max/time.Second))
}

// Expire sets key's TTL to d from now. Returns false if key is absent.
func (e *Engine) Expire(namespace, key string, d time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cfg.MaxTTL > 0 && d > e.cfg.MaxTTL {
		return false, ttlExceededErr(d, e.cfg.MaxTTL)
	}

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		return false, nil
	}
	now := e.now()
	entry.ExpiresAt = now.Add(d)
	e.scheduleExpiry(namespace, key, entry, entry.ExpiresAt)
	return true, nil
}

// ExpireAt sets key's absolute expiry. Returns false if key is absent.
func (e *Engine) ExpireAt(namespace, key string, at time.Time) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		return false, nil
	}
	entry.ExpiresAt = at
	e.scheduleExpiry(namespace, key, entry, at)
	return true, nil
}

// TTL returns seconds remaining, -1 if no expiry, -2 if absent (spec §4.1).
func (e *Engine) TTL(namespace, key string) int64 {
	ms := e.PTTL(namespace, key)
	if ms < 0 {
		return ms
	}
	secs := ms / 1000
	if ms%1000 != 0 {
		secs++
	}
	return secs
}

// PTTL is TTL in milliseconds.
func (e *Engine) PTTL(namespace, key string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok {
		return -2
	}
	if !entry.HasExpiry() {
		return -1
	}
	remaining := entry.ExpiresAt.Sub(e.now())
	if remaining < 0 {
		return 0
	}
	return remaining.Milliseconds()
}

// Persist strips key's expiry, reporting whether one existed.
func (e *Engine) Persist(namespace, key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns := e.namespace(namespace)
	entry, ok := e.lookup(ns, key)
	if !ok || !entry.HasExpiry() {
		return false
	}
	entry.ExpiresAt = noExpiry
	return true
}
