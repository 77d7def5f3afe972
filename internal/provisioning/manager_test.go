package provisioning

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/engine"
	"github.com/R3E-Network/cachegrid/internal/tee"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{now: start} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()
	m := New(Config{
		Now:           clock.Now,
		SweepInterval: time.Hour, // tests call Sweep() directly
	})
	t.Cleanup(m.Stop)
	return m
}

func TestCreateInstancePicksDensestFittingNode(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)

	m.RegisterNode(RegisterNodeRequest{NodeID: "loose", Tier: TierStandard, MaxMemoryMB: 1000})
	m.RegisterNode(RegisterNodeRequest{NodeID: "tight", Tier: TierStandard, MaxMemoryMB: 300})

	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard"})
	require.NoError(t, err)
	assert.Equal(t, "tight", inst.NodeID)

	nodes := m.Nodes()
	for _, n := range nodes {
		if n.ID == "tight" {
			assert.Equal(t, 1, n.InstanceCount)
			assert.Equal(t, int64(256), n.UsedMemoryMB)
		}
	}
}

func TestCreateInstanceLocalOnlyWhenNoNodeFits(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)

	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard"})
	require.NoError(t, err)
	assert.Empty(t, inst.NodeID)

	eng := m.EngineForNamespace(inst.Namespace)
	require.NotNil(t, eng)
}

func TestCreateInstanceUnknownPlanErrors(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	_, err := m.CreateInstance(CreateInstanceRequest{Owner: "o", PlanID: "does-not-exist"})
	assert.Error(t, err)
}

func TestDeleteInstanceRequiresOwnerMatch(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard"})
	require.NoError(t, err)

	err = m.DeleteInstance(inst.ID, "someone-else")
	assert.Error(t, err)

	err = m.DeleteInstance(inst.ID, "OWNER-1")
	assert.NoError(t, err)

	assert.Nil(t, m.EngineForNamespace(inst.Namespace))
}

func TestDeleteInstanceReleasesNodeCapacity(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	m.RegisterNode(RegisterNodeRequest{NodeID: "n1", Tier: TierStandard, MaxMemoryMB: 1000})

	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard"})
	require.NoError(t, err)
	require.NoError(t, m.DeleteInstance(inst.ID, "owner-1"))

	nodes := m.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(0), nodes[0].UsedMemoryMB)
	assert.Equal(t, 0, nodes[0].InstanceCount)
}

func TestSweepExpiresInstancesPastTTL(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	m.RegisterNode(RegisterNodeRequest{NodeID: "n1", Tier: TierStandard, MaxMemoryMB: 1000})

	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard", DurationHours: 1})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	m.Sweep()

	assert.Nil(t, m.EngineForNamespace(inst.Namespace))
	assert.Empty(t, m.Instances())
}

func TestSweepMarksNodeOfflineAfterHeartbeatTimeout(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := New(Config{Now: clock.Now, SweepInterval: time.Hour, HeartbeatTimeout: 10 * time.Second})
	t.Cleanup(m.Stop)

	m.RegisterNode(RegisterNodeRequest{NodeID: "n1", Tier: TierStandard, MaxMemoryMB: 1000})
	clock.Advance(11 * time.Second)
	m.Sweep()

	nodes := m.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, NodeOffline, nodes[0].Status)
}

func TestHeartbeatRefreshesAttestation(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	m.RegisterNode(RegisterNodeRequest{NodeID: "n1", Tier: TierTEE, MaxMemoryMB: 1000})

	require.NoError(t, m.Heartbeat("n1", []byte("fresh-attestation")))

	nodes := m.Nodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, []byte("fresh-attestation"), nodes[0].Attestation)
}

func TestHeartbeatUnknownNodeErrors(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	assert.Error(t, m.Heartbeat("ghost", nil))
}

func TestEngineForNamespaceFallsBackToShared(t *testing.T) {
	shared := engine.New(engine.Config{MaxMemoryBytes: 1 << 20, Now: time.Now})
	clock := newFakeClock(time.Unix(0, 0))
	m := New(Config{Now: clock.Now, SharedEngine: shared, SweepInterval: time.Hour})
	t.Cleanup(m.Stop)

	assert.Same(t, shared, m.EngineForNamespace("unmapped-namespace"))
}

func TestCreateInstanceTEERequiresProvider(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := newTestManager(t, clock)
	_, err := m.CreateInstance(CreateInstanceRequest{Owner: "o", PlanID: "confidential", Attestation: []byte("blob")})
	assert.Error(t, err)
}

func TestCreateInstanceTEEWithProviderAndAttestation(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := New(Config{Now: clock.Now, SweepInterval: time.Hour, TEEProvider: tee.NewProvider(nil)})
	t.Cleanup(m.Stop)

	inst, err := m.CreateInstance(CreateInstanceRequest{Owner: "o", PlanID: "confidential", Attestation: []byte("blob")})
	require.NoError(t, err)
	require.NotNil(t, m.EngineForNamespace(inst.Namespace))
}

type fakePersister struct {
	mu        sync.Mutex
	nodes     map[string]Node
	instances map[string]Instance
}

func newFakePersister() *fakePersister {
	return &fakePersister{nodes: map[string]Node{}, instances: map[string]Instance{}}
}

func (p *fakePersister) SaveNode(_ context.Context, n Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[n.ID] = n
	return nil
}
func (p *fakePersister) SaveInstance(_ context.Context, inst Instance) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instances[inst.ID] = inst
	return nil
}
func (p *fakePersister) DeleteInstance(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.instances, id)
	return nil
}
func (p *fakePersister) LoadNodes(_ context.Context) ([]Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Node, 0, len(p.nodes))
	for _, n := range p.nodes {
		out = append(out, n)
	}
	return out, nil
}
func (p *fakePersister) LoadInstances(_ context.Context) ([]Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Instance, 0, len(p.instances))
	for _, i := range p.instances {
		out = append(out, i)
	}
	return out, nil
}

func TestManagerPersistsAndReloadsMetadata(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	persister := newFakePersister()
	m := New(Config{Now: clock.Now, SweepInterval: time.Hour, Persister: persister})
	t.Cleanup(m.Stop)

	m.RegisterNode(RegisterNodeRequest{NodeID: "n1", Tier: TierStandard, MaxMemoryMB: 1000})
	_, err := m.CreateInstance(CreateInstanceRequest{Owner: "owner-1", PlanID: "standard"})
	require.NoError(t, err)

	m2 := New(Config{Now: clock.Now, SweepInterval: time.Hour, Persister: persister})
	t.Cleanup(m2.Stop)
	require.NoError(t, m2.LoadFromStore(context.Background()))

	assert.Len(t, m2.Nodes(), 1)
	assert.Len(t, m2.Instances(), 1)
}

func TestCreateInstanceTEEWithoutAttestationFails(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	m := New(Config{Now: clock.Now, SweepInterval: time.Hour, TEEProvider: tee.NewProvider(nil)})
	t.Cleanup(m.Stop)

	_, err := m.CreateInstance(CreateInstanceRequest{Owner: "o", PlanID: "confidential"})
	assert.Error(t, err)
}
