// Package provisioning implements the plan catalog, instance lifecycle,
// node registry, and namespace-to-engine dispatch (spec §4.8).
package provisioning

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/cachegrid/infrastructure/errors"
	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/internal/engine"
	"github.com/R3E-Network/cachegrid/internal/tee"
)

const (
	defaultSweepInterval     = 60 * time.Second
	defaultHeartbeatTimeout  = 120 * time.Second
	defaultDurationHours     = 720
	bytesPerMB               = 1 << 20
)

// Persister is the optional durable-metadata backend (SPEC_FULL SUPPLEMENTED
// FEATURES §1 — provisioning/store's Postgres implementation). Nodes and
// instances are persisted best-effort; failures are logged, never fatal,
// since the keyspace itself recovers from the AOF regardless.
type Persister interface {
	SaveNode(ctx context.Context, n Node) error
	SaveInstance(ctx context.Context, inst Instance) error
	DeleteInstance(ctx context.Context, id string) error
	LoadNodes(ctx context.Context) ([]Node, error)
	LoadInstances(ctx context.Context) ([]Instance, error)
}

// Config carries the Manager's construction parameters.
type Config struct {
	Plans             []Plan // defaults to DefaultCatalog()
	SharedEngine      *engine.Engine
	TEEProvider       *tee.Provider
	Persister         Persister // optional; nil means in-memory only
	SweepInterval     time.Duration // default 60s
	HeartbeatTimeout  time.Duration // default 120s
	Now               func() time.Time
	IDGenerator       func() string // default uuid.NewString
	Logger            *logging.Logger
}

func (c *Config) setDefaults() {
	if c.Plans == nil {
		c.Plans = DefaultCatalog()
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.IDGenerator == nil {
		c.IDGenerator = uuid.NewString
	}
	if c.Logger == nil {
		c.Logger = logging.New("provisioning", "info", "json")
	}
}

// Manager owns the plan catalog, node registry, instance set, and the
// namespace-to-engine dispatch table (spec §4.8).
type Manager struct {
	cfg     Config
	catalog *catalog
	log     *logging.Logger

	mu        sync.Mutex
	nodes     map[string]*Node
	instances map[string]*Instance
	engines   map[string]*engine.Engine // namespace -> instance-owned engine

	listeners []engine.Listener

	cron *cron.Cron
}

// New constructs a Manager and starts its 60s background sweep (spec §4.8).
func New(cfg Config) *Manager {
	cfg.setDefaults()
	m := &Manager{
		cfg:       cfg,
		catalog:   newCatalog(cfg.Plans),
		log:       cfg.Logger,
		nodes:     make(map[string]*Node),
		instances: make(map[string]*Instance),
		engines:   make(map[string]*engine.Engine),
		cron:      cron.New(cron.WithSeconds()),
	}
	spec := "@every " + cfg.SweepInterval.String()
	_, _ = m.cron.AddFunc(spec, m.Sweep)
	m.cron.Start()
	return m
}

// Stop cancels the background sweep. It does not close any instance engines.
func (m *Manager) Stop() { m.cron.Stop() }

// OnEvent registers a best-effort listener for INSTANCE_CREATE,
// INSTANCE_DELETE, NODE_JOIN, NODE_LEAVE, and ATTESTATION_REFRESH events.
func (m *Manager) OnEvent(l engine.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) emit(ev engine.Event) {
	for _, l := range m.listeners {
		go l(ev)
	}
}

// Plans returns the catalog.
func (m *Manager) Plans() []Plan { return m.catalog.all() }

// Plan looks up one catalog entry.
func (m *Manager) Plan(id string) (Plan, bool) { return m.catalog.get(id) }

// CreateInstanceRequest is CreateInstance's input (spec §4.8).
type CreateInstanceRequest struct {
	Owner         string
	PlanID        string
	Namespace     string // defaults to a generated id
	DurationHours int    // default 720
	Attestation   []byte // required for tee-tier plans
}

// CreateInstance provisions a new tenant instance (spec §4.8). If no node
// has capacity, the instance is created local-only (NodeID empty) against
// the shared engine's process, logged as a warning rather than failed —
// acceptable in single-node deployments.
func (m *Manager) CreateInstance(req CreateInstanceRequest) (*Instance, error) {
	plan, ok := m.catalog.get(req.PlanID)
	if !ok {
		return nil, errors.InvalidOperation("unknown plan: " + req.PlanID)
	}
	namespace := req.Namespace
	if namespace == "" {
		namespace = m.cfg.IDGenerator()
	}
	duration := req.DurationHours
	if duration <= 0 {
		duration = defaultDurationHours
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node := m.pickNodeLocked(plan)

	eng, err := m.buildEngineLocked(plan, node, req.Attestation)
	if err != nil {
		return nil, err
	}

	now := m.cfg.Now()
	inst := &Instance{
		ID:        m.cfg.IDGenerator(),
		Owner:     req.Owner,
		PlanID:    plan.ID,
		Namespace: namespace,
		Status:    InstanceActive,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(duration) * time.Hour),
	}
	if node != nil {
		inst.NodeID = node.ID
		node.UsedMemoryMB += plan.MaxMemoryMB
		node.InstanceCount++
	} else {
		m.log.Warn(context.Background(), "instance created local-only: no fitting node", map[string]interface{}{
			"plan": plan.ID, "owner": req.Owner,
		})
	}

	m.instances[inst.ID] = inst
	m.engines[namespace] = eng
	m.persistInstance(*inst)
	if node != nil {
		m.persistNode(*node)
	}
	m.emit(engine.Event{Type: engine.EventInstanceCreate, Namespace: namespace, Detail: inst.ID})
	return inst, nil
}

// persistNode/persistInstance best-effort forward to the optional
// Persister; a write failure is logged and otherwise ignored (spec §4.7's
// "replication failures do not propagate to the caller" principle applied
// to provisioning metadata too — the in-memory state is authoritative for
// the running process either way).
func (m *Manager) persistNode(n Node) {
	if m.cfg.Persister == nil {
		return
	}
	if err := m.cfg.Persister.SaveNode(context.Background(), n); err != nil {
		m.log.Warn(context.Background(), "persist node failed", map[string]interface{}{"node_id": n.ID, "error": err.Error()})
	}
}

func (m *Manager) persistInstance(inst Instance) {
	if m.cfg.Persister == nil {
		return
	}
	if err := m.cfg.Persister.SaveInstance(context.Background(), inst); err != nil {
		m.log.Warn(context.Background(), "persist instance failed", map[string]interface{}{"instance_id": inst.ID, "error": err.Error()})
	}
}

// LoadFromStore restores the node and instance bookkeeping from the
// configured Persister. It does not reconstruct per-namespace engines —
// those are re-created lazily (or restored from an AOF file per namespace)
// by the caller; this only repopulates the metadata this Manager tracks.
func (m *Manager) LoadFromStore(ctx context.Context) error {
	if m.cfg.Persister == nil {
		return nil
	}
	nodes, err := m.cfg.Persister.LoadNodes(ctx)
	if err != nil {
		return err
	}
	instances, err := m.cfg.Persister.LoadInstances(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range nodes {
		n := nodes[i]
		m.nodes[n.ID] = &n
	}
	for i := range instances {
		inst := instances[i]
		m.instances[inst.ID] = &inst
	}
	return nil
}

// pickNodeLocked finds the node with the least free memory that still fits
// the plan's requirement, to pack instances densely (spec §4.8). Caller
// holds m.mu.
func (m *Manager) pickNodeLocked(plan Plan) *Node {
	var best *Node
	for _, n := range m.nodes {
		if n.Tier != plan.Tier || !n.fits(plan.MaxMemoryMB) {
			continue
		}
		if best == nil || n.freeMemoryMB() < best.freeMemoryMB() {
			best = n
		}
	}
	return best
}

func (m *Manager) buildEngineLocked(plan Plan, node *Node, attestation []byte) (*engine.Engine, error) {
	cfg := engine.Config{
		MaxMemoryBytes: plan.MaxMemoryMB * bytesPerMB,
		MaxTTL:         time.Duration(plan.MaxTTLSeconds) * time.Second,
		Eviction:       engine.EvictionLRU,
		Now:            m.cfg.Now,
	}
	if plan.Tier != TierTEE {
		return engine.New(cfg), nil
	}
	if m.cfg.TEEProvider == nil {
		return nil, errors.AttestationFailed(errNoTEEProvider)
	}
	blob := attestation
	if len(blob) == 0 && node != nil {
		blob = node.Attestation
	}
	return m.cfg.TEEProvider.NewEngine(cfg, blob)
}

var errNoTEEProvider = provisioningErr("no TEE provider configured")

type provisioningErr string

func (e provisioningErr) Error() string { return string(e) }

// DeleteInstance authorizes caller against the instance owner
// (case-insensitive, spec §4.8), stops the engine, releases node capacity,
// and emits INSTANCE_DELETE.
func (m *Manager) DeleteInstance(instanceID, callerOwner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteInstanceLocked(instanceID, callerOwner, true)
}

func (m *Manager) deleteInstanceLocked(instanceID, callerOwner string, checkAuth bool) error {
	inst, ok := m.instances[instanceID]
	if !ok {
		return errors.InstanceNotFound(instanceID)
	}
	if checkAuth && !sameOwner(inst.Owner, callerOwner) {
		return errors.Unauthorized("caller is not the instance owner")
	}

	if eng, ok := m.engines[inst.Namespace]; ok {
		eng.Close()
		delete(m.engines, inst.Namespace)
	}
	if inst.NodeID != "" {
		if node, ok := m.nodes[inst.NodeID]; ok {
			node.UsedMemoryMB -= m.planMemoryLocked(inst.PlanID)
			if node.UsedMemoryMB < 0 {
				node.UsedMemoryMB = 0
			}
			node.InstanceCount--
			if node.InstanceCount < 0 {
				node.InstanceCount = 0
			}
		}
	}
	inst.Status = InstanceDeleted
	delete(m.instances, instanceID)
	if m.cfg.Persister != nil {
		if err := m.cfg.Persister.DeleteInstance(context.Background(), instanceID); err != nil {
			m.log.Warn(context.Background(), "persist instance delete failed", map[string]interface{}{"instance_id": instanceID, "error": err.Error()})
		}
	}
	m.emit(engine.Event{Type: engine.EventInstanceDelete, Namespace: inst.Namespace, Detail: inst.ID})
	return nil
}

func (m *Manager) planMemoryLocked(planID string) int64 {
	if p, ok := m.catalog.get(planID); ok {
		return p.MaxMemoryMB
	}
	return 0
}

// RegisterNodeRequest is RegisterNode's input (spec §4.8).
type RegisterNodeRequest struct {
	NodeID      string
	Address     string
	Endpoint    string
	Region      string
	Tier        Tier
	MaxMemoryMB int64 // <= 0 triggers host auto-detection (SUPPLEMENTED FEATURES)
	Attestation []byte
}

// RegisterNode inserts or replaces a node (spec §4.8).
func (m *Manager) RegisterNode(req RegisterNodeRequest) *Node {
	maxMB := req.MaxMemoryMB
	if maxMB <= 0 {
		maxMB = detectHostMemoryMB()
	}
	n := &Node{
		ID:            req.NodeID,
		Address:       req.Address,
		Endpoint:      req.Endpoint,
		Region:        req.Region,
		Tier:          req.Tier,
		MaxMemoryMB:   maxMB,
		Attestation:   req.Attestation,
		Status:        NodeOnline,
		LastHeartbeat: m.cfg.Now(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.nodes[req.NodeID]; ok {
		n.UsedMemoryMB = existing.UsedMemoryMB
		n.InstanceCount = existing.InstanceCount
	}
	m.nodes[req.NodeID] = n
	m.persistNode(*n)
	m.emit(engine.Event{Type: engine.EventNodeJoin, Detail: n.ID})
	return n
}

// Heartbeat refreshes a node's liveness and, if attestation is non-empty,
// its attestation blob (spec §4.8).
func (m *Manager) Heartbeat(nodeID string, attestation []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[nodeID]
	if !ok {
		return errors.NodeUnavailable(nodeID, errUnknownNode)
	}
	n.LastHeartbeat = m.cfg.Now()
	n.Status = NodeOnline
	if len(attestation) > 0 {
		n.Attestation = attestation
		m.emit(engine.Event{Type: engine.EventAttestationRefresh, Detail: nodeID})
	}
	m.persistNode(*n)
	return nil
}

var errUnknownNode = provisioningErr("unknown node")

// EngineForNamespace returns the instance-owned engine for ns if a mapping
// exists, otherwise the process-wide shared engine (spec §4.8:
// "engine_for_namespace"). Nil if neither exists.
func (m *Manager) EngineForNamespace(ns string) *engine.Engine {
	m.mu.Lock()
	eng, ok := m.engines[ns]
	m.mu.Unlock()
	if ok {
		return eng
	}
	return m.cfg.SharedEngine
}

// Sweep runs the periodic instance-expiry and node-liveness pass (spec
// §4.8): expired instances are deleted by owner; nodes silent past the
// heartbeat timeout transition to offline.
func (m *Manager) Sweep() {
	now := m.cfg.Now()

	m.mu.Lock()
	var expired []*Instance
	for _, inst := range m.instances {
		if inst.Status == InstanceActive && now.After(inst.ExpiresAt) {
			expired = append(expired, inst)
		}
	}
	m.mu.Unlock()

	for _, inst := range expired {
		m.mu.Lock()
		inst.Status = InstanceExpired
		_ = m.deleteInstanceLocked(inst.ID, inst.Owner, false)
		m.mu.Unlock()
	}

	m.mu.Lock()
	var lost []string
	for id, n := range m.nodes {
		if n.Status == NodeOnline && now.Sub(n.LastHeartbeat) > m.cfg.HeartbeatTimeout {
			n.Status = NodeOffline
			lost = append(lost, id)
		}
	}
	m.mu.Unlock()

	for _, id := range lost {
		m.emit(engine.Event{Type: engine.EventNodeLeave, Detail: id})
	}
}

// Nodes returns a snapshot of the node registry.
func (m *Manager) Nodes() []Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, *n)
	}
	return out
}

// Instances returns a snapshot of the instance set.
func (m *Manager) Instances() []Instance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Instance, 0, len(m.instances))
	for _, i := range m.instances {
		out = append(out, *i)
	}
	return out
}
