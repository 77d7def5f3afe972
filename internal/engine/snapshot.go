package engine

import (
	"time"

	"github.com/R3E-Network/cachegrid/internal/values"
)

// KeySnapshot is a point-in-time view of one key, sufficient for a caller
// (the append-only log's compaction) to reproduce it (spec §4.7).
type KeySnapshot struct {
	Key       string
	Value     values.Value
	ExpiresAt time.Time // zero means no expiry
}

// NamespaceNames lists every namespace the engine currently holds, in no
// particular order.
func (e *Engine) NamespaceNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.namespaces))
	for name := range e.namespaces {
		out = append(out, name)
	}
	return out
}

// SnapshotNamespace captures every live (non-expired) key in namespace,
// without mutating access-order or expiring anything itself — callers that
// need expiry semantics should rely on the regular lookup path instead.
func (e *Engine) SnapshotNamespace(namespace string) []KeySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	ns, ok := e.namespaces[namespace]
	if !ok {
		return nil
	}
	now := e.now()
	out := make([]KeySnapshot, 0, len(ns.entries))
	for key, entry := range ns.entries {
		if entry.ExpiredAt(now) {
			continue
		}
		out = append(out, KeySnapshot{Key: key, Value: entry.Value, ExpiresAt: entry.ExpiresAt})
	}
	return out
}
