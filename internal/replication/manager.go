// Package replication implements the best-effort, at-most-once replication
// manager: sync and async fan-out of mutations to the replicas a key's ring
// placement names (spec §4.5).
package replication

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/internal/cluster"
)

// Mode selects the replication discipline (spec §4.5).
type Mode string

const (
	ModeNone  Mode = "none"
	ModeAsync Mode = "async"
	ModeSync  Mode = "sync"
)

// Config carries the Manager's construction parameters.
type Config struct {
	Mode          Mode
	ReplicaCount  int
	SyncTimeout   time.Duration // bounds sync mode's per-call fan-out
	FlushInterval time.Duration // async flusher period, default 50ms
	BatchSize     int           // async flush threshold, default 100
	Logger        *logging.Logger
}

func (c *Config) setDefaults() {
	if c.Mode == "" {
		c.Mode = ModeAsync
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = 2 * time.Second
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 50 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
}

// Manager computes the replica set for each key via the hash ring and
// forwards mutations to it, synchronously or through a coalescing async
// queue, per spec §4.5.
type Manager struct {
	cfg  Config
	ring *cluster.Ring
	log  *logging.Logger

	mu       sync.Mutex
	replicas map[string]Target

	queueMu sync.Mutex
	queue   []Op

	stop chan struct{}
	wg   sync.WaitGroup
}

// New constructs a Manager and, in async mode, starts its flusher goroutine.
func New(cfg Config, ring *cluster.Ring) *Manager {
	cfg.setDefaults()
	log := cfg.Logger
	if log == nil {
		log = logging.New("replication", "info", "json")
	}
	m := &Manager{
		cfg:      cfg,
		ring:     ring,
		log:      log,
		replicas: make(map[string]Target),
		stop:     make(chan struct{}),
	}
	if cfg.Mode == ModeAsync {
		m.wg.Add(1)
		go m.flushLoop()
	}
	return m
}

// RegisterReplica makes a node addressable by the manager.
func (m *Manager) RegisterReplica(r Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replicas[r.ID()] = r
}

// RemoveReplica forgets a node, closing its connection if it is a live Replica.
func (m *Manager) RemoveReplica(nodeID string) {
	m.mu.Lock()
	r, ok := m.replicas[nodeID]
	delete(m.replicas, nodeID)
	m.mu.Unlock()
	if ok {
		if live, ok := r.(*Replica); ok {
			live.Close()
		}
	}
}

// Close stops the async flusher, if running.
func (m *Manager) Close() {
	if m.cfg.Mode == ModeAsync {
		close(m.stop)
		m.wg.Wait()
	}
}

// replicasFor returns the replicas (excluding the primary) responsible for
// key, per spec §4.5: "computes replicas via ring.get_nodes(key, N+1) and
// drops the first entry".
func (m *Manager) replicasFor(key string) []Target {
	if m.ring == nil || m.cfg.ReplicaCount <= 0 {
		return nil
	}
	nodes := m.ring.GetNodes(key, m.cfg.ReplicaCount+1)
	if len(nodes) <= 1 {
		return nil
	}
	nodes = nodes[1:]

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, 0, len(nodes))
	for _, id := range nodes {
		if r, ok := m.replicas[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Replicate forwards op according to the configured mode. It never returns
// an error to the caller: replication failures are logged, not propagated
// (spec §4.5, §7: "Replication failures do not propagate to the caller").
func (m *Manager) Replicate(op Op) {
	if m.cfg.Mode == ModeNone {
		return
	}
	replicas := m.replicasFor(op.Key)
	if len(replicas) == 0 {
		return
	}
	if m.cfg.Mode == ModeSync {
		m.replicateSync(op, replicas)
		return
	}
	m.enqueue(op)
}

// replicateSync fans out in parallel with a per-call timeout, aggregating
// failures Promise.allSettled-style: none of them fail the primary write.
func (m *Manager) replicateSync(op Op, replicas []Target) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SyncTimeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs *multierror.Error
	for _, r := range replicas {
		wg.Add(1)
		go func(r Target) {
			defer wg.Done()
			if err := r.Send(ctx, op); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
		}(r)
	}
	wg.Wait()

	if errs != nil {
		m.log.Warn(context.Background(), "sync replication had partial failures", map[string]interface{}{
			"namespace": op.Namespace,
			"key":       op.Key,
			"errors":    errs.Error(),
		})
	}
}

func (m *Manager) enqueue(op Op) {
	m.queueMu.Lock()
	m.queue = append(m.queue, op)
	shouldFlush := len(m.queue) >= m.cfg.BatchSize
	m.queueMu.Unlock()
	if shouldFlush {
		m.flush()
	}
}

func (m *Manager) flushLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.flush()
		case <-m.stop:
			m.flush()
			return
		}
	}
}

// flush drains the queue, coalescing to the last op per key, and forwards
// each to its replica set. Deliveries are best-effort; failures are
// dropped (spec §4.5).
func (m *Manager) flush() {
	m.queueMu.Lock()
	pending := m.queue
	m.queue = nil
	m.queueMu.Unlock()
	if len(pending) == 0 {
		return
	}

	coalesced := make(map[string]Op, len(pending))
	order := make([]string, 0, len(pending))
	for _, op := range pending {
		k := op.coalesceKey()
		if _, seen := coalesced[k]; !seen {
			order = append(order, k)
		}
		coalesced[k] = op
	}

	ctx := context.Background()
	for _, k := range order {
		op := coalesced[k]
		for _, r := range m.replicasFor(op.Key) {
			err := r.Send(ctx, op)
			m.log.LogReplicationOp(ctx, r.ID(), string(op.Type), err)
		}
	}
}
