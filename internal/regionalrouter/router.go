// Package regionalrouter selects the best replica for a key among the hash
// ring's candidates, weighted by measured region latency (spec §4.6).
package regionalrouter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/cachegrid/infrastructure/logging"
	"github.com/R3E-Network/cachegrid/internal/cluster"
)

// LocalLatency is pinned for the local region; UnknownLatency is the
// default for a region with no recorded probe (spec §4.6).
const (
	LocalLatency   = time.Millisecond
	UnknownLatency = 100 * time.Millisecond
)

// NodeInfo is the region/tier metadata the router needs per ring node.
type NodeInfo struct {
	Region string
	Tier   string
}

// Prober issues a lightweight liveness check against a node, returning its
// round-trip time.
type Prober interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// Config carries the Router's construction parameters.
type Config struct {
	LocalRegion   string
	ProbeInterval time.Duration // default 30s
	Logger        *logging.Logger
}

// Router wraps a Ring with region-latency-aware candidate selection.
type Router struct {
	ring        *cluster.Ring
	localRegion string
	log         *logging.Logger

	mu       sync.RWMutex
	nodes    map[string]NodeInfo
	latency  map[string]time.Duration // region -> measured RTT
	probers  map[string]Prober        // one representative prober per region
	cron     *cron.Cron
	entryIDs []cron.EntryID
}

// New constructs a Router and starts its background latency probe.
func New(cfg Config, ring *cluster.Ring) *Router {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New("regionalrouter", "info", "json")
	}
	r := &Router{
		ring:        ring,
		localRegion: cfg.LocalRegion,
		log:         log,
		nodes:       make(map[string]NodeInfo),
		latency:     make(map[string]time.Duration),
		probers:     make(map[string]Prober),
		cron:        cron.New(cron.WithSeconds()),
	}
	spec := "@every " + cfg.ProbeInterval.String()
	id, err := r.cron.AddFunc(spec, r.probeAllRegions)
	if err == nil {
		r.entryIDs = append(r.entryIDs, id)
	}
	r.cron.Start()
	return r
}

// Stop cancels the background probe.
func (r *Router) Stop() { r.cron.Stop() }

// RegisterNode records a node's region/tier and, if it is the first node
// seen for a non-local region, its Prober as that region's probe target.
func (r *Router) RegisterNode(nodeID string, info NodeInfo, prober Prober) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[nodeID] = info
	if info.Region != r.localRegion {
		if _, ok := r.probers[info.Region]; !ok {
			r.probers[info.Region] = prober
		}
	}
}

// RemoveNode forgets a node's metadata.
func (r *Router) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.nodes, nodeID)
}

func (r *Router) regionLatency(region string) time.Duration {
	if region == r.localRegion {
		return LocalLatency
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.latency[region]; ok {
		return d
	}
	return UnknownLatency
}

// GetBestNode picks the top-5 ring candidates for key, filters by tier (if
// tier is non-empty; falling back to unfiltered if the filter would empty
// the set), and returns the one with the lowest measured region latency
// (spec §4.6). Returns "" if the ring has no candidates at all.
func (r *Router) GetBestNode(key string, tier string) string {
	candidates := r.ring.GetNodes(key, 5)
	if len(candidates) == 0 {
		return ""
	}

	r.mu.RLock()
	filtered := candidates
	if tier != "" {
		byTier := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if r.nodes[id].Tier == tier {
				byTier = append(byTier, id)
			}
		}
		if len(byTier) > 0 {
			filtered = byTier
		}
	}
	type scored struct {
		id      string
		latency time.Duration
	}
	scoredList := make([]scored, 0, len(filtered))
	for _, id := range filtered {
		scoredList = append(scoredList, scored{id: id, latency: r.regionLatencyLocked(id)})
	}
	r.mu.RUnlock()

	sort.SliceStable(scoredList, func(i, j int) bool { return scoredList[i].latency < scoredList[j].latency })
	return scoredList[0].id
}

// regionLatencyLocked resolves a node id's region latency; caller holds r.mu.
func (r *Router) regionLatencyLocked(nodeID string) time.Duration {
	info, ok := r.nodes[nodeID]
	if !ok {
		return UnknownLatency
	}
	if info.Region == r.localRegion {
		return LocalLatency
	}
	if d, ok := r.latency[info.Region]; ok {
		return d
	}
	return UnknownLatency
}

// probeAllRegions pings one representative node per non-local region and
// records the round trip (spec §4.6).
func (r *Router) probeAllRegions() {
	r.mu.RLock()
	probers := make(map[string]Prober, len(r.probers))
	for region, p := range r.probers {
		probers[region] = p
	}
	r.mu.RUnlock()

	for region, prober := range probers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rtt, err := prober.Ping(ctx)
		cancel()
		if err != nil {
			r.log.Warn(context.Background(), "regional latency probe failed", map[string]interface{}{
				"region": region,
				"error":  err.Error(),
			})
			continue
		}
		r.mu.Lock()
		r.latency[region] = rtt
		r.mu.Unlock()
	}
}
