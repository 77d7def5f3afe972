package engine

import (
	"time"

	"github.com/R3E-Network/cachegrid/internal/values"
)

// noExpiry is the expires_at sentinel meaning "never" (spec §3).
var noExpiry = time.Time{}

// Entry wraps a Value with the bookkeeping the engine needs for TTL and LRU
// accounting (spec §3).
type Entry struct {
	Value          values.Value
	CreatedAt      time.Time
	ExpiresAt      time.Time
	AccessCount    int64
	LastAccessedAt time.Time
	SizeBytes      int64
}

// HasExpiry reports whether the entry carries a TTL.
func (e *Entry) HasExpiry() bool {
	return !e.ExpiresAt.Equal(noExpiry)
}

// ExpiredAt reports whether the entry's TTL has passed as of now.
func (e *Entry) ExpiredAt(now time.Time) bool {
	return e.HasExpiry() && !e.ExpiresAt.After(now)
}

func newEntry(v values.Value, now time.Time) *Entry {
	return &Entry{
		Value:          v,
		CreatedAt:      now,
		ExpiresAt:      noExpiry,
		LastAccessedAt: now,
		SizeBytes:      v.SizeBytes(),
	}
}
