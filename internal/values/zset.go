package values

import (
	"math"
	"sort"
)

// ZEntry is one (member, score) pair as sorted-set iteration order emits it.
type ZEntry struct {
	Member string
	Score  float64
}

// SortedSetValue is a bijection between members and real-valued scores,
// iterated in (score ascending, member lexicographic) order (spec §3, §4.1).
// A sorted slice plus a member→score map satisfies the spec's correctness
// requirement; an order-statistic tree is only "recommended for large sets".
type SortedSetValue struct {
	scores map[string]float64
	order  []ZEntry
}

// NewSortedSet returns an empty SortedSetValue.
func NewSortedSet() *SortedSetValue {
	return &SortedSetValue{scores: make(map[string]float64)}
}

func (v *SortedSetValue) Kind() Kind { return KindSortedSet }

func (v *SortedSetValue) SizeBytes() int64 {
	if v == nil {
		return 0
	}
	var total int64
	for member := range v.scores {
		total += int64(len(member)) + 8 + perChildOverhead
	}
	return total
}

// AsSortedSet asserts v holds a *SortedSetValue, returning WrongType otherwise.
func AsSortedSet(v Value) (*SortedSetValue, error) {
	if v == nil {
		return nil, nil
	}
	z, ok := v.(*SortedSetValue)
	if !ok {
		return nil, WrongType(KindSortedSet, v.Kind())
	}
	return z, nil
}

func less(a, b ZEntry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

func (v *SortedSetValue) searchPos(e ZEntry) int {
	return sort.Search(len(v.order), func(i int) bool {
		return !less(v.order[i], e)
	})
}

func (v *SortedSetValue) removeEntry(e ZEntry) {
	i := v.searchPos(e)
	if i < len(v.order) && v.order[i] == e {
		v.order = append(v.order[:i], v.order[i+1:]...)
	}
}

func (v *SortedSetValue) insertEntry(e ZEntry) {
	i := v.searchPos(e)
	v.order = append(v.order, ZEntry{})
	copy(v.order[i+1:], v.order[i:])
	v.order[i] = e
}

// ZAdd inserts member with score, or updates its score in place if it
// already exists. Returns true when the member is newly inserted.
func (v *SortedSetValue) ZAdd(member string, score float64) bool {
	if old, ok := v.scores[member]; ok {
		if old == score {
			return false
		}
		v.removeEntry(ZEntry{Member: member, Score: old})
		v.scores[member] = score
		v.insertEntry(ZEntry{Member: member, Score: score})
		return false
	}
	v.scores[member] = score
	v.insertEntry(ZEntry{Member: member, Score: score})
	return true
}

// ZRem removes member, reporting whether it was present.
func (v *SortedSetValue) ZRem(member string) bool {
	score, ok := v.scores[member]
	if !ok {
		return false
	}
	delete(v.scores, member)
	v.removeEntry(ZEntry{Member: member, Score: score})
	return true
}

// ZScore returns member's score.
func (v *SortedSetValue) ZScore(member string) (float64, bool) {
	s, ok := v.scores[member]
	return s, ok
}

// ZCard returns the member count.
func (v *SortedSetValue) ZCard() int {
	return len(v.scores)
}

// ZRange returns the inclusive [start,stop] slice in ascending order,
// supporting negative indices from the tail (spec §4.1).
func (v *SortedSetValue) ZRange(start, stop int) []ZEntry {
	lo, hi, ok := normalizeRange(start, stop, len(v.order))
	if !ok {
		return nil
	}
	out := make([]ZEntry, hi-lo+1)
	copy(out, v.order[lo:hi+1])
	return out
}

// ZRevRange returns the full reverse of ascending order, then sliced by
// [start,stop] (spec §4.1: "the full reverse of that order, then sliced").
func (v *SortedSetValue) ZRevRange(start, stop int) []ZEntry {
	n := len(v.order)
	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		return nil
	}
	out := make([]ZEntry, 0, hi-lo+1)
	for i := n - 1 - lo; i >= n-1-hi; i-- {
		out = append(out, v.order[i])
	}
	return out
}

// NegInf and PosInf are the score sentinels ZRangeByScore accepts in place
// of a numeric bound.
var (
	NegInf = math.Inf(-1)
	PosInf = math.Inf(1)
)

// ZRangeByScore returns members with min <= score <= max, both bounds
// inclusive, in ascending order (spec §4.1).
func (v *SortedSetValue) ZRangeByScore(min, max float64) []ZEntry {
	lo := sort.Search(len(v.order), func(i int) bool { return v.order[i].Score >= min })
	var out []ZEntry
	for i := lo; i < len(v.order) && v.order[i].Score <= max; i++ {
		out = append(out, v.order[i])
	}
	return out
}
