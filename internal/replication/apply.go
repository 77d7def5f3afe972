package replication

import "github.com/R3E-Network/cachegrid/internal/engine"

// Apply executes op against eng, the way a replica "invokes the
// corresponding engine operation" on receipt (spec §4.5). Errors are
// returned for the caller to log; replication never surfaces them to the
// original mutator.
func Apply(eng *engine.Engine, op Op) error {
	switch op.Type {
	case OpSet:
		_, err := eng.Set(op.Namespace, op.Key, op.Value, engine.SetOptions{TTL: op.TTL})
		return err
	case OpDel:
		eng.Del(op.Namespace, []string{op.Key})
		return nil
	case OpExpire:
		_, err := eng.Expire(op.Namespace, op.Key, op.TTL)
		return err
	default:
		return nil
	}
}
