package replication

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/cachegrid/infrastructure/resilience"
)

// Target is anything the Manager can forward an Op to: a live Replica in
// production, or a fake in tests that don't want a real Redis dial.
type Target interface {
	ID() string
	Send(ctx context.Context, op Op) error
}

// Replica forwards ops to a remote cachegrid node over its RESP listener,
// addressed with an ordinary Redis client since every node speaks RESP
// (spec §4.5's "DOMAIN STACK" rationale).
type Replica struct {
	NodeID string
	client *redis.Client
	cb     *resilience.CircuitBreaker
}

// ID satisfies Target.
func (r *Replica) ID() string { return r.NodeID }

// NewReplica dials addr lazily (go-redis connects on first use) and wraps
// every call in a per-replica circuit breaker so one wedged replica can't
// slow down the whole fan-out.
func NewReplica(nodeID, addr string, cbConfig resilience.Config) *Replica {
	return &Replica{
		NodeID: nodeID,
		client: redis.NewClient(&redis.Options{Addr: addr}),
		cb:     resilience.New(cbConfig),
	}
}

// Send applies op on the replica, subject to the circuit breaker and the
// call-scoped context deadline (sync mode's sync_timeout_ms, or none for
// async best-effort delivery).
func (r *Replica) Send(ctx context.Context, op Op) error {
	return r.cb.Execute(ctx, func() error {
		switch op.Type {
		case OpSet:
			return r.client.Set(ctx, namespacedKey(op.Namespace, op.Key), op.Value, op.TTL).Err()
		case OpDel:
			return r.client.Del(ctx, namespacedKey(op.Namespace, op.Key)).Err()
		case OpExpire:
			return r.client.Expire(ctx, namespacedKey(op.Namespace, op.Key), op.TTL).Err()
		default:
			return nil
		}
	})
}

// Ping issues a lightweight liveness check, shared with the regional
// router's latency probe (spec §4.6).
func (r *Replica) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := r.client.Ping(ctx).Err()
	return time.Since(start), err
}

// Close releases the underlying connection pool.
func (r *Replica) Close() error { return r.client.Close() }

func namespacedKey(namespace, key string) string { return namespace + ":" + key }
