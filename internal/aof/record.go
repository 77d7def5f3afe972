// Package aof implements the append-only log: on-mutation appends, crash
// replay, and threshold-triggered compaction (spec §4.7).
package aof

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
)

// Op names one of the mutation kinds the log records (spec §4.7's
// "Every successful set, del, expire, hset, lpush, rpush, sadd, zadd").
type Op string

const (
	OpSet    Op = "set"
	OpDel    Op = "del"
	OpExpire Op = "expire"
	OpHSet   Op = "hset"
	OpLPush  Op = "lpush"
	OpRPush  Op = "rpush"
	OpSAdd   Op = "sadd"
	OpZAdd   Op = "zadd"
)

// Record is one decoded log line.
type Record struct {
	Timestamp time.Time
	Op        Op
	Namespace string
	Key       string
	Args      [][]byte
}

const fieldSep = "|"

// Encode renders r as one log line (no trailing newline): spec §4.7's
// "timestamp|op|namespace|key|base64(arg0)|base64(arg1)|…".
func Encode(r Record) string {
	parts := make([]string, 0, 4+len(r.Args))
	parts = append(parts,
		strconv.FormatInt(r.Timestamp.UnixNano(), 10),
		string(r.Op),
		r.Namespace,
		r.Key,
	)
	for _, a := range r.Args {
		parts = append(parts, base64.StdEncoding.EncodeToString(a))
	}
	return strings.Join(parts, fieldSep)
}

// Decode parses one log line back into a Record. A malformed line (bad
// field count, bad timestamp, bad base64) is reported as
// errors.InvalidOperation so the replay loop can count and skip it rather
// than fail the whole replay (spec §4.7: "a malformed line is skipped and
// counted").
func Decode(line string) (Record, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) < 4 {
		return Record{}, errors.InvalidOperation("malformed AOF line: too few fields")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Record{}, errors.InvalidOperation("malformed AOF line: bad timestamp")
	}
	args := make([][]byte, 0, len(parts)-4)
	for _, p := range parts[4:] {
		b, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return Record{}, errors.InvalidOperation("malformed AOF line: bad base64 arg")
		}
		args = append(args, b)
	}
	return Record{
		Timestamp: time.Unix(0, nanos),
		Op:        Op(parts[1]),
		Namespace: parts[2],
		Key:       parts[3],
		Args:      args,
	}, nil
}
