package aof

import (
	"bufio"
	"os"
	"strconv"
	"time"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
	"github.com/R3E-Network/cachegrid/internal/engine"
)

// ReplayResult summarises one replay pass (spec §4.7).
type ReplayResult struct {
	Applied int
	Skipped int
}

// Replay reads path line by line and applies each record to eng. A missing
// file is not an error — "a missing file is a fresh engine" (spec §6).
// Malformed lines are counted and skipped rather than aborting the replay.
func Replay(path string, eng *engine.Engine) (ReplayResult, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return ReplayResult{}, nil
	}
	if err != nil {
		return ReplayResult{}, err
	}
	defer f.Close()

	var res ReplayResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		rec, err := Decode(line)
		if err != nil {
			res.Skipped++
			continue
		}
		if err := applyRecord(eng, rec); err != nil {
			res.Skipped++
			continue
		}
		res.Applied++
	}
	if err := scanner.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// applyRecord invokes the engine operation a Record names. Replay is
// idempotent up to TTL expiry: a key whose absolute expiry already passed
// is set and then immediately expires on the next lookup, which is
// acceptable per spec §4.7. SET/EXPIRE records carry an absolute
// unix-seconds deadline (not a relative duration), so replay reconstructs
// the original wall-clock expiry via ExpireAt instead of restarting a fresh
// TTL window from whenever replay happens to run.
func applyRecord(eng *engine.Engine, rec Record) error {
	switch rec.Op {
	case OpSet:
		if len(rec.Args) < 1 {
			return errors.InvalidOperation("set record missing value")
		}
		if _, err := eng.Set(rec.Namespace, rec.Key, rec.Args[0], engine.SetOptions{}); err != nil {
			return err
		}
		if len(rec.Args) >= 2 && len(rec.Args[1]) > 0 {
			expiresAtUnix, err := strconv.ParseInt(string(rec.Args[1]), 10, 64)
			if err != nil {
				return err
			}
			_, err = eng.ExpireAt(rec.Namespace, rec.Key, time.Unix(expiresAtUnix, 0))
			return err
		}
		return nil
	case OpDel:
		eng.Del(rec.Namespace, []string{rec.Key})
		return nil
	case OpExpire:
		if len(rec.Args) < 1 {
			return errors.InvalidOperation("expire record missing ttl")
		}
		expiresAtUnix, err := strconv.ParseInt(string(rec.Args[0]), 10, 64)
		if err != nil {
			return err
		}
		_, err = eng.ExpireAt(rec.Namespace, rec.Key, time.Unix(expiresAtUnix, 0))
		return err
	case OpHSet:
		if len(rec.Args)%2 != 0 {
			return errors.InvalidOperation("hset record has unpaired field/value")
		}
		for i := 0; i < len(rec.Args); i += 2 {
			if _, err := eng.HSet(rec.Namespace, rec.Key, string(rec.Args[i]), rec.Args[i+1]); err != nil {
				return err
			}
		}
		return nil
	case OpLPush:
		_, err := eng.LPush(rec.Namespace, rec.Key, rec.Args...)
		return err
	case OpRPush:
		_, err := eng.RPush(rec.Namespace, rec.Key, rec.Args...)
		return err
	case OpSAdd:
		members := make([]string, len(rec.Args))
		for i, a := range rec.Args {
			members[i] = string(a)
		}
		_, err := eng.SAdd(rec.Namespace, rec.Key, members...)
		return err
	case OpZAdd:
		if len(rec.Args)%2 != 0 {
			return errors.InvalidOperation("zadd record has unpaired score/member")
		}
		scored := make(map[string]float64, len(rec.Args)/2)
		for i := 0; i < len(rec.Args); i += 2 {
			score, err := strconv.ParseFloat(string(rec.Args[i]), 64)
			if err != nil {
				return err
			}
			scored[string(rec.Args[i+1])] = score
		}
		_, err := eng.ZAdd(rec.Namespace, rec.Key, scored)
		return err
	default:
		return errors.InvalidOperation("unknown AOF op: " + string(rec.Op))
	}
}
