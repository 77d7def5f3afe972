package replication

import "time"

// OpType names the kind of mutation being replicated (spec §4.5).
type OpType string

const (
	OpSet    OpType = "set"
	OpDel    OpType = "del"
	OpExpire OpType = "expire"
)

// Op is one replicated mutation. Value/TTL are only meaningful for the
// corresponding OpType.
type Op struct {
	Type      OpType
	Namespace string
	Key       string
	Value     []byte
	TTL       time.Duration
	Timestamp time.Time
}

// coalesceKey groups ops so that "only the last op per key is forwarded"
// within one async flush (spec §4.5).
func (o Op) coalesceKey() string { return o.Namespace + "\x00" + o.Key }
