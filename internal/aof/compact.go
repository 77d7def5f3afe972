package aof

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/R3E-Network/cachegrid/internal/engine"
	"github.com/R3E-Network/cachegrid/internal/values"
)

// Compact rewrites the log at path to a minimal sequence of operations that
// reproduces eng's current live keyspace, then atomically replaces the
// live file (spec §4.7). Snapshotting key membership happens per namespace
// under the engine lock; encoding and the file write happen outside it, so
// compaction "must not block mutating operations beyond the time required
// to snapshot key set membership."
func Compact(path string, eng *engine.Engine, now func() time.Time) (int, error) {
	if now == nil {
		now = time.Now
	}
	tmpPath := path + ".rewrite"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(f)

	written := 0
	for _, ns := range eng.NamespaceNames() {
		for _, ks := range eng.SnapshotNamespace(ns) {
			recs := recordsFor(ns, ks)
			for _, r := range recs {
				if _, err := bw.WriteString(Encode(r) + "\n"); err != nil {
					f.Close()
					return written, err
				}
				written++
			}
			if len(recs) > 0 && !ks.ExpiresAt.IsZero() {
				// Replay reads an expire record's argument as an absolute
				// unix-seconds deadline, the same form the mutation hook writes.
				expireRec := Record{
					Timestamp: now(),
					Op:        OpExpire,
					Namespace: ns,
					Key:       ks.Key,
					Args:      [][]byte{[]byte(strconv.FormatInt(ks.ExpiresAt.Unix(), 10))},
				}
				if _, err := bw.WriteString(Encode(expireRec) + "\n"); err != nil {
					f.Close()
					return written, err
				}
				written++
			}
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return written, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return written, err
	}
	if err := f.Close(); err != nil {
		return written, err
	}
	return written, os.Rename(tmpPath, path)
}

// recordsFor produces the single set/hset/rpush/sadd/zadd call sequence
// that reproduces ks.Value, per spec §4.7's compaction rule. Streams carry
// no AOF representation (spec §4.7 never lists xadd among logged ops), so
// a stream key is silently omitted from the rewritten log.
func recordsFor(namespace string, ks engine.KeySnapshot) []Record {
	ts := time.Now()

	switch v := ks.Value.(type) {
	case values.StringValue:
		return []Record{{Timestamp: ts, Op: OpSet, Namespace: namespace, Key: ks.Key, Args: [][]byte{[]byte(v)}}}
	case values.HashValue:
		args := make([][]byte, 0, len(v)*2)
		for field, val := range v {
			args = append(args, []byte(field), val)
		}
		return []Record{{Timestamp: ts, Op: OpHSet, Namespace: namespace, Key: ks.Key, Args: args}}
	case *values.ListValue:
		elems := v.LRange(0, -1)
		return []Record{{Timestamp: ts, Op: OpRPush, Namespace: namespace, Key: ks.Key, Args: elems}}
	case values.SetValue:
		members := v.Members()
		args := make([][]byte, len(members))
		for i, m := range members {
			args[i] = []byte(m)
		}
		return []Record{{Timestamp: ts, Op: OpSAdd, Namespace: namespace, Key: ks.Key, Args: args}}
	case *values.SortedSetValue:
		entries := v.ZRange(0, -1)
		args := make([][]byte, 0, len(entries)*2)
		for _, e := range entries {
			args = append(args, []byte(formatFloat(e.Score)), []byte(e.Member))
		}
		return []Record{{Timestamp: ts, Op: OpZAdd, Namespace: namespace, Key: ks.Key, Args: args}}
	default:
		return nil
	}
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
