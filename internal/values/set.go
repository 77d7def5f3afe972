package values

import "math/rand"

// SetValue is a set of byte strings, keyed by their string form (spec §3).
type SetValue map[string]struct{}

func (SetValue) Kind() Kind { return KindSet }

func (v SetValue) SizeBytes() int64 {
	var total int64
	for member := range v {
		total += int64(len(member)) + perChildOverhead
	}
	return total
}

// AsSet asserts v holds a SetValue, returning WrongType otherwise.
func AsSet(v Value) (SetValue, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(SetValue)
	if !ok {
		return nil, WrongType(KindSet, v.Kind())
	}
	return s, nil
}

// Members returns all members in map iteration order.
func (v SetValue) Members() []string {
	out := make([]string, 0, len(v))
	for m := range v {
		out = append(out, m)
	}
	return out
}

// Pop removes and returns one member, chosen deterministically (the
// lexicographically smallest) — consistent within a process, per spec
// §4.1's "implementation may pick either" allowance.
func (v SetValue) Pop() (string, bool) {
	if len(v) == 0 {
		return "", false
	}
	first := true
	var pick string
	for m := range v {
		if first || m < pick {
			pick, first = m, false
		}
	}
	delete(v, pick)
	return pick, true
}

// RandMember returns a uniformly chosen member without removing it.
func RandMember(v SetValue) (string, bool) {
	n := len(v)
	if n == 0 {
		return "", false
	}
	target := rand.Intn(n)
	i := 0
	for m := range v {
		if i == target {
			return m, true
		}
		i++
	}
	return "", false
}
