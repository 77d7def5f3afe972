package regionalrouter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/cachegrid/internal/cluster"
)

type fakeProber struct{ rtt time.Duration }

func (f fakeProber) Ping(context.Context) (time.Duration, error) { return f.rtt, nil }

func newTestRouter(t *testing.T) (*Router, *cluster.Ring) {
	t.Helper()
	ring := cluster.New(150)
	for _, id := range []string{"local-1", "east-1", "west-1"} {
		ring.AddNode(id)
	}
	r := New(Config{LocalRegion: "local", ProbeInterval: time.Hour}, ring)
	t.Cleanup(r.Stop)

	r.RegisterNode("local-1", NodeInfo{Region: "local", Tier: "standard"}, nil)
	r.RegisterNode("east-1", NodeInfo{Region: "east", Tier: "standard"}, fakeProber{rtt: 40 * time.Millisecond})
	r.RegisterNode("west-1", NodeInfo{Region: "west", Tier: "tee"}, fakeProber{rtt: 10 * time.Millisecond})
	return r, ring
}

func TestGetBestNodePrefersLocalRegion(t *testing.T) {
	r, _ := newTestRouter(t)
	best := r.GetBestNode("some-key", "")
	assert.Equal(t, "local-1", best)
}

func TestGetBestNodeFiltersByTierFallingBackWhenEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	best := r.GetBestNode("some-key", "tee")
	assert.Equal(t, "west-1", best)

	// A tier nothing matches falls back to the unfiltered candidate set.
	best = r.GetBestNode("some-key", "nonexistent-tier")
	assert.Equal(t, "local-1", best)
}

func TestProbeAllRegionsRecordsLatency(t *testing.T) {
	r, _ := newTestRouter(t)
	r.probeAllRegions()

	r.mu.RLock()
	eastLatency := r.latency["east"]
	westLatency := r.latency["west"]
	r.mu.RUnlock()

	assert.Equal(t, 40*time.Millisecond, eastLatency)
	assert.Equal(t, 10*time.Millisecond, westLatency)
}

func TestGetBestNodeUsesProbedLatencyAfterLocalExcluded(t *testing.T) {
	ring := cluster.New(150)
	ring.AddNode("east-1")
	ring.AddNode("west-1")
	r := New(Config{LocalRegion: "local", ProbeInterval: time.Hour}, ring)
	defer r.Stop()

	r.RegisterNode("east-1", NodeInfo{Region: "east"}, fakeProber{rtt: 40 * time.Millisecond})
	r.RegisterNode("west-1", NodeInfo{Region: "west"}, fakeProber{rtt: 10 * time.Millisecond})
	r.probeAllRegions()

	best := r.GetBestNode("key", "")
	assert.Equal(t, "west-1", best)
}

func TestGetBestNodeEmptyRing(t *testing.T) {
	ring := cluster.New(150)
	r := New(Config{LocalRegion: "local"}, ring)
	defer r.Stop()
	require.Equal(t, "", r.GetBestNode("key", ""))
}
