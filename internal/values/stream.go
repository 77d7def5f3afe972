package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// StreamID is a monotonic "ms-seq" identifier (spec §4.1).
type StreamID struct {
	Ms  int64
	Seq int64
}

func (id StreamID) String() string {
	return fmt.Sprintf("%d-%d", id.Ms, id.Seq)
}

func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

// ParseStreamID parses the canonical "ms-seq" wire form.
func ParseStreamID(s string) (StreamID, error) {
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return StreamID{}, errors.InvalidOperation("invalid stream ID " + s)
	}
	if len(parts) == 1 {
		return StreamID{Ms: ms}, nil
	}
	seq, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return StreamID{}, errors.InvalidOperation("invalid stream ID " + s)
	}
	return StreamID{Ms: ms, Seq: seq}, nil
}

// StreamEntry is one appended record: an ID plus an ordered field/value list.
type StreamEntry struct {
	ID     StreamID
	Fields []string
	Values [][]byte
}

// StreamValue is an append-only log of entries ordered by monotonically
// increasing StreamID (spec §4.1).
type StreamValue struct {
	entries []StreamEntry
	lastID  StreamID
}

// NewStream returns an empty StreamValue.
func NewStream() *StreamValue {
	return &StreamValue{}
}

func (v *StreamValue) Kind() Kind { return KindStream }

func (v *StreamValue) SizeBytes() int64 {
	if v == nil {
		return 0
	}
	var total int64
	for _, e := range v.entries {
		total += perChildOverhead
		for i, f := range e.Fields {
			total += int64(len(f)) + int64(len(e.Values[i]))
		}
	}
	return total
}

// AsStream asserts v holds a *StreamValue, returning WrongType otherwise.
func AsStream(v Value) (*StreamValue, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(*StreamValue)
	if !ok {
		return nil, WrongType(KindStream, v.Kind())
	}
	return s, nil
}

// NextID computes the ID to assign an entry appended "now" (in epoch
// milliseconds), taking max(nowMs, lastMs) to guarantee monotonicity even
// when the wall clock goes backwards between appends (spec §4.1 Open
// Question (iii)).
func (v *StreamValue) NextID(nowMs int64) StreamID {
	if nowMs > v.lastID.Ms {
		return StreamID{Ms: nowMs, Seq: 0}
	}
	return StreamID{Ms: v.lastID.Ms, Seq: v.lastID.Seq + 1}
}

// XAdd appends fields/values under id, which must be strictly greater than
// the stream's last ID.
func (v *StreamValue) XAdd(id StreamID, fields []string, vals [][]byte) error {
	if len(v.entries) > 0 && !v.lastID.Less(id) {
		return errors.InvalidOperation(fmt.Sprintf(
			"ID %s is equal or smaller than the target stream's last ID %s", id, v.lastID))
	}
	v.entries = append(v.entries, StreamEntry{ID: id, Fields: fields, Values: vals})
	v.lastID = id
	return nil
}

// XLen returns the number of entries.
func (v *StreamValue) XLen() int {
	if v == nil {
		return 0
	}
	return len(v.entries)
}

// XRange returns entries with start <= ID <= end, inclusive both ends.
func (v *StreamValue) XRange(start, end StreamID) []StreamEntry {
	lo := sort.Search(len(v.entries), func(i int) bool { return !v.entries[i].ID.Less(start) })
	var out []StreamEntry
	for i := lo; i < len(v.entries) && !end.Less(v.entries[i].ID); i++ {
		out = append(out, v.entries[i])
	}
	return out
}

// MinStreamID and MaxStreamID bound the entire keyspace of possible IDs, for
// callers implementing XRANGE's "-"/"+" sentinels.
var (
	MinStreamID = StreamID{Ms: 0, Seq: 0}
	MaxStreamID = StreamID{Ms: 1<<63 - 1, Seq: 1<<63 - 1}
)
