package values

import (
	"strconv"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// StringValue is an immutable byte string (spec §3, §4.1).
type StringValue []byte

func (StringValue) Kind() Kind { return KindString }

func (v StringValue) SizeBytes() int64 { return int64(len(v)) }

// AsString asserts v holds a StringValue, returning WrongType otherwise.
func AsString(v Value) (StringValue, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(StringValue)
	if !ok {
		return nil, WrongType(KindString, v.Kind())
	}
	return s, nil
}

// Append returns the concatenation of s and suffix, and the new length.
func (v StringValue) Append(suffix []byte) (StringValue, int) {
	out := make([]byte, 0, len(v)+len(suffix))
	out = append(out, v...)
	out = append(out, suffix...)
	return StringValue(out), len(out)
}

// GetRange implements GETRANGE semantics: negative indices count from the
// end, and bounds are clamped into [0, len).
func (v StringValue) GetRange(start, end int) StringValue {
	n := len(v)
	if n == 0 {
		return StringValue{}
	}
	start = clampIndex(start, n)
	end = clampIndex(end, n)
	if start > end || start >= n {
		return StringValue{}
	}
	if end >= n {
		end = n - 1
	}
	out := make([]byte, end-start+1)
	copy(out, v[start:end+1])
	return StringValue(out)
}

func clampIndex(i, n int) int {
	if i < 0 {
		i = n + i
		if i < 0 {
			i = 0
		}
	}
	return i
}

// ParseInt parses v as a signed 64-bit integer for INCR/DECR. An absent
// value is treated as "0" per spec §4.1.
func ParseInt(v StringValue) (int64, error) {
	if len(v) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, errors.InvalidOperation("value is not an integer or out of range")
	}
	return n, nil
}

// FormatInt renders n the way INCR/DECR store it back into the keyspace.
func FormatInt(n int64) StringValue {
	return StringValue(strconv.FormatInt(n, 10))
}
