package replication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/cluster"
)

type fakeTarget struct {
	id string

	mu       sync.Mutex
	received []Op
	failNext bool
}

func (f *fakeTarget) ID() string { return f.id }

func (f *fakeTarget) Send(_ context.Context, op Op) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("boom")
	}
	f.received = append(f.received, op)
	return nil
}

func (f *fakeTarget) opsReceived() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Op, len(f.received))
	copy(out, f.received)
	return out
}

func newTestRing() *cluster.Ring {
	r := cluster.New(150)
	r.AddNode("primary")
	r.AddNode("replica-1")
	r.AddNode("replica-2")
	return r
}

func TestReplicateSyncFansOutToAllReplicas(t *testing.T) {
	ring := newTestRing()
	m := New(Config{Mode: ModeSync, ReplicaCount: 2, SyncTimeout: time.Second}, ring)
	defer m.Close()

	r1 := &fakeTarget{id: "replica-1"}
	r2 := &fakeTarget{id: "replica-2"}
	m.RegisterReplica(r1)
	m.RegisterReplica(r2)

	op := Op{Type: OpSet, Namespace: "default", Key: "foo", Value: []byte("bar"), Timestamp: time.Now()}
	m.Replicate(op)

	total := len(r1.opsReceived()) + len(r2.opsReceived())
	assert.Equal(t, 2, total, "both non-primary replicas should receive the op")
}

func TestReplicateSyncToleratesPartialFailure(t *testing.T) {
	ring := newTestRing()
	m := New(Config{Mode: ModeSync, ReplicaCount: 2, SyncTimeout: time.Second}, ring)
	defer m.Close()

	r1 := &fakeTarget{id: "replica-1", failNext: true}
	r2 := &fakeTarget{id: "replica-2"}
	m.RegisterReplica(r1)
	m.RegisterReplica(r2)

	assert.NotPanics(t, func() {
		m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "foo", Value: []byte("bar")})
	})
}

func TestReplicateNoneModeDoesNothing(t *testing.T) {
	ring := newTestRing()
	m := New(Config{Mode: ModeNone}, ring)
	defer m.Close()

	r1 := &fakeTarget{id: "replica-1"}
	m.RegisterReplica(r1)
	m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "foo", Value: []byte("bar")})
	assert.Empty(t, r1.opsReceived())
}

func TestAsyncFlushCoalescesPerKey(t *testing.T) {
	ring := newTestRing()
	m := New(Config{Mode: ModeAsync, ReplicaCount: 2, FlushInterval: time.Hour, BatchSize: 1000}, ring)
	defer m.Close()

	r1 := &fakeTarget{id: "replica-1"}
	r2 := &fakeTarget{id: "replica-2"}
	m.RegisterReplica(r1)
	m.RegisterReplica(r2)

	for i := 0; i < 5; i++ {
		m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "foo", Value: []byte{byte(i)}})
	}
	m.flush()

	for _, r := range []*fakeTarget{r1, r2} {
		ops := r.opsReceived()
		require.Len(t, ops, 1, "only the last op per key should be forwarded within a flush")
		assert.Equal(t, byte(4), ops[0].Value[0])
	}
}

func TestAsyncFlushTriggersAtBatchSize(t *testing.T) {
	ring := newTestRing()
	m := New(Config{Mode: ModeAsync, ReplicaCount: 2, FlushInterval: time.Hour, BatchSize: 3}, ring)
	defer m.Close()

	r1 := &fakeTarget{id: "replica-1"}
	m.RegisterReplica(r1)
	m.RegisterReplica(&fakeTarget{id: "replica-2"})

	m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "a"})
	m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "b"})
	assert.Empty(t, r1.opsReceived())
	m.Replicate(Op{Type: OpSet, Namespace: "default", Key: "c"})

	assert.Eventually(t, func() bool { return len(r1.opsReceived()) == 3 }, time.Second, time.Millisecond)
}
