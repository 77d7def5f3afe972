package values

import (
	"container/list"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// ListValue is an ordered sequence of byte strings supporting O(1)
// amortized push/pop at either end via a doubly linked list, and O(n)
// indexed access (spec §4.1).
type ListValue struct {
	l *list.List
}

// NewList returns an empty ListValue.
func NewList() *ListValue {
	return &ListValue{l: list.New()}
}

func (v *ListValue) Kind() Kind { return KindList }

func (v *ListValue) SizeBytes() int64 {
	if v == nil || v.l == nil {
		return 0
	}
	var total int64
	for e := v.l.Front(); e != nil; e = e.Next() {
		total += int64(len(e.Value.([]byte))) + perChildOverhead
	}
	return total
}

// AsList asserts v holds a *ListValue, returning WrongType otherwise.
func AsList(v Value) (*ListValue, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.(*ListValue)
	if !ok {
		return nil, WrongType(KindList, v.Kind())
	}
	return l, nil
}

// Len returns the number of elements.
func (v *ListValue) Len() int {
	if v == nil || v.l == nil {
		return 0
	}
	return v.l.Len()
}

// LPush prepends elems (in argument order, so the last one ends up at the
// head) and returns the new length.
func (v *ListValue) LPush(elems ...[]byte) int {
	for _, e := range elems {
		v.l.PushFront(e)
	}
	return v.l.Len()
}

// RPush appends elems and returns the new length.
func (v *ListValue) RPush(elems ...[]byte) int {
	for _, e := range elems {
		v.l.PushBack(e)
	}
	return v.l.Len()
}

// LPop removes and returns the head element.
func (v *ListValue) LPop() ([]byte, bool) {
	front := v.l.Front()
	if front == nil {
		return nil, false
	}
	v.l.Remove(front)
	return front.Value.([]byte), true
}

// RPop removes and returns the tail element.
func (v *ListValue) RPop() ([]byte, bool) {
	back := v.l.Back()
	if back == nil {
		return nil, false
	}
	v.l.Remove(back)
	return back.Value.([]byte), true
}

func (v *ListValue) elementAt(index int) *list.Element {
	n := v.l.Len()
	if n == 0 {
		return nil
	}
	if index < 0 {
		index = n + index
	}
	if index < 0 || index >= n {
		return nil
	}
	// Walk from whichever end is closer.
	if index <= n/2 {
		e := v.l.Front()
		for i := 0; i < index; i++ {
			e = e.Next()
		}
		return e
	}
	e := v.l.Back()
	for i := n - 1; i > index; i-- {
		e = e.Prev()
	}
	return e
}

// LIndex returns the element at index, supporting negative indices from the tail.
func (v *ListValue) LIndex(index int) ([]byte, bool) {
	e := v.elementAt(index)
	if e == nil {
		return nil, false
	}
	return e.Value.([]byte), true
}

// LSet overwrites the element at index. Fails with InvalidOperation when
// index is outside [-length, length) (spec §4.1).
func (v *ListValue) LSet(index int, value []byte) error {
	e := v.elementAt(index)
	if e == nil {
		return errors.InvalidOperation("index out of range")
	}
	e.Value = value
	return nil
}

// normalizeRange clamps [start,stop] (possibly negative, possibly out of
// bounds) into valid, inclusive [0,n) bounds. ok is false when the resulting
// range is empty.
func normalizeRange(start, stop, n int) (lo, hi int, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start = n + start
	}
	if stop < 0 {
		stop = n + stop
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, false
	}
	return start, stop, true
}

// LRange returns the inclusive slice [start,stop], clamped to the list
// bounds, with negative indices counted from the tail (spec §4.1).
func (v *ListValue) LRange(start, stop int) [][]byte {
	lo, hi, ok := normalizeRange(start, stop, v.l.Len())
	if !ok {
		return nil
	}
	out := make([][]byte, 0, hi-lo+1)
	e := v.elementAt(lo)
	for i := lo; i <= hi && e != nil; i++ {
		out = append(out, e.Value.([]byte))
		e = e.Next()
	}
	return out
}

// LTrim retains only the [start,stop] slice, discarding everything else.
func (v *ListValue) LTrim(start, stop int) {
	n := v.l.Len()
	lo, hi, ok := normalizeRange(start, stop, n)
	if !ok {
		v.l.Init()
		return
	}
	kept := v.LRange(lo, hi)
	v.l.Init()
	v.RPush(kept...)
}
