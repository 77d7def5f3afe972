// Package values implements the six keyspace value variants (spec §3, §4.1):
// string, hash, list, set, sorted set, and stream. Each variant is a concrete
// Go type implementing Value; operations are methods or free functions that
// type-assert to the concrete variant and return errors.InvalidOperation on
// a mismatch, matching the "tagged variant" design note in spec §9.
package values

import "github.com/R3E-Network/cachegrid/infrastructure/errors"

// Kind tags a Value's variant.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindHash
	KindList
	KindSet
	KindSortedSet
	KindStream
)

// String returns the RESP-visible type name used by the TYPE command.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// Value is implemented by every keyspace variant. SizeBytes feeds the
// engine's eviction accounting (spec §3 Entry invariant): for containers it
// must aggregate child payloads plus a constant per-child overhead.
type Value interface {
	Kind() Kind
	SizeBytes() int64
}

// perChildOverhead approximates bookkeeping (map/slice headers, pointers)
// charged per element of a container value, on top of the payload bytes.
const perChildOverhead = 48

// WrongType builds the InvalidOperation error the RESP layer maps to
// -WRONGTYPE for a command applied to a key holding variant `got` when
// `want` was required.
func WrongType(want, got Kind) *errors.ServiceError {
	return errors.InvalidOperation("WRONGTYPE Operation against a key holding the wrong kind of value").
		WithDetails("want", want.String()).
		WithDetails("got", got.String())
}
