package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/infrastructure/security"
	"github.com/R3E-Network/cachegrid/internal/aof"
	"github.com/R3E-Network/cachegrid/internal/replication"
	"github.com/R3E-Network/cachegrid/internal/resp"
)

// aofOpFor maps a RESP command name to the append-only-log op it records.
// Any other name (HDEL, GET, ...) returns ("", false) and is not logged.
func aofOpFor(name string) (aof.Op, bool) {
	switch name {
	case "SET":
		return aof.OpSet, true
	case "DEL":
		return aof.OpDel, true
	case "EXPIRE":
		return aof.OpExpire, true
	case "HSET":
		return aof.OpHSet, true
	case "LPUSH":
		return aof.OpLPush, true
	case "RPUSH":
		return aof.OpRPush, true
	case "SADD":
		return aof.OpSAdd, true
	case "ZADD":
		return aof.OpZAdd, true
	default:
		return "", false
	}
}

// setTTLSeconds scans a SET command's trailing flags (argv[3:], after
// command/key/value) for "EX <seconds>", mirroring cmdSet's own parsing in
// internal/resp/commands_string.go.
func setTTLSeconds(argv [][]byte) (int64, bool) {
	for i := 3; i < len(argv); i++ {
		if strings.EqualFold(string(argv[i]), "EX") && i+1 < len(argv) {
			secs, err := strconv.ParseInt(string(argv[i+1]), 10, 64)
			if err == nil {
				return secs, true
			}
		}
	}
	return 0, false
}

// absoluteExpiry converts a client-relative TTL (secs from ts) to the
// absolute unix-seconds deadline the AOF stores for SET/EXPIRE records.
// Recording the absolute deadline instead of the relative duration lets
// replay reconstruct how much TTL a key actually has left after a restart,
// rather than restarting the same relative duration from whenever the node
// happens to come back up (spec §4.7: replay is equivalent to the live
// keyspace "modulo entries whose absolute expiry has since passed").
func absoluteExpiry(ts time.Time, secs int64) int64 {
	return ts.Add(time.Duration(secs) * time.Second).Unix()
}

// newMutationHook builds the resp.MutationHook shared by the RESP listener
// and the HTTP control surface (spec §4.7/§4.5: "on mutation, append to the
// log and, if replication is configured, replicate"). now is injectable for
// tests; log receives write failures since the hook itself returns nothing.
func newMutationHook(writer *aof.Writer, repl *replication.Manager, now func() time.Time, log *logging.Logger) resp.MutationHook {
	if now == nil {
		now = time.Now
	}
	return func(namespace string, argv [][]byte) {
		if len(argv) == 0 {
			return
		}
		name := strings.ToUpper(string(argv[0]))
		ts := now()

		if writer != nil {
			if op, ok := aofOpFor(name); ok {
				appendAOFRecords(writer, op, namespace, argv, ts, log)
			}
		}
		if repl != nil {
			replicateArgv(repl, name, namespace, argv, ts)
		}
	}
}

// appendAOFRecords writes one Record per key named by argv (DEL is the only
// command that can name more than one key in a single call).
func appendAOFRecords(writer *aof.Writer, op aof.Op, namespace string, argv [][]byte, ts time.Time, log *logging.Logger) {
	records := recordsFor(op, namespace, argv, ts)
	for _, rec := range records {
		if err := writer.Append(rec); err != nil && log != nil {
			log.Warn(context.Background(), "aof append failed", map[string]interface{}{
				"namespace": namespace, "op": string(op), "error": security.SanitizeError(err),
			})
		}
	}
}

func recordsFor(op aof.Op, namespace string, argv [][]byte, ts time.Time) []aof.Record {
	switch op {
	case aof.OpDel:
		recs := make([]aof.Record, 0, len(argv)-1)
		for _, key := range argv[1:] {
			recs = append(recs, aof.Record{Timestamp: ts, Op: op, Namespace: namespace, Key: string(key)})
		}
		return recs
	case aof.OpSet:
		args := [][]byte{argv[2]}
		if secs, ok := setTTLSeconds(argv); ok {
			args = append(args, []byte(strconv.FormatInt(absoluteExpiry(ts, secs), 10)))
		}
		return []aof.Record{{Timestamp: ts, Op: op, Namespace: namespace, Key: string(argv[1]), Args: args}}
	case aof.OpExpire:
		secs, err := strconv.ParseInt(string(argv[2]), 10, 64)
		if err != nil {
			secs = 0
		}
		return []aof.Record{{
			Timestamp: ts, Op: op, Namespace: namespace, Key: string(argv[1]),
			Args: [][]byte{[]byte(strconv.FormatInt(absoluteExpiry(ts, secs), 10))},
		}}
	default:
		// HSET, LPUSH, RPUSH, SADD, ZADD: no ttl component, so the engine's
		// own argv tail (argv[2:]) is already in the shape Replay's
		// applyRecord expects.
		return []aof.Record{{Timestamp: ts, Op: op, Namespace: namespace, Key: string(argv[1]), Args: argv[2:]}}
	}
}

// replicateArgv forwards set/del/expire mutations to the replication
// manager; replication.OpType has no representation for the other five
// logged ops (spec §4.5 only ever replicates set/del/expire).
func replicateArgv(repl *replication.Manager, name, namespace string, argv [][]byte, ts time.Time) {
	switch name {
	case "SET":
		op := replication.Op{Type: replication.OpSet, Namespace: namespace, Key: string(argv[1]), Value: argv[2], Timestamp: ts}
		if secs, ok := setTTLSeconds(argv); ok {
			op.TTL = time.Duration(secs) * time.Second
		}
		repl.Replicate(op)
	case "DEL":
		for _, key := range argv[1:] {
			repl.Replicate(replication.Op{Type: replication.OpDel, Namespace: namespace, Key: string(key), Timestamp: ts})
		}
	case "EXPIRE":
		secs, err := strconv.ParseInt(string(argv[2]), 10, 64)
		if err != nil {
			return
		}
		repl.Replicate(replication.Op{
			Type: replication.OpExpire, Namespace: namespace, Key: string(argv[1]),
			TTL: time.Duration(secs) * time.Second, Timestamp: ts,
		})
	}
}
