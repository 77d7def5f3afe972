// Package cluster implements the consistent hash ring that maps keys to the
// nodes responsible for them (spec §4.4).
package cluster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultVnodesPerNode is the ring's default virtual-node fan-out per
// physical node (spec §4.4).
const DefaultVnodesPerNode = 150

// hash32 is the ring's placement/lookup hash. xxhash is non-cryptographic
// and deterministic across restarts, which is all spec §4.4 requires; the
// low 32 bits of the 64-bit digest are kept since a 32-bit space is
// sufficient for ring placement.
func hash32(s string) uint32 {
	return uint32(xxhash.Sum64String(s))
}

type vnode struct {
	hash   uint32
	nodeID string
}

// Ring is a consistent hash ring of virtual nodes. Safe for concurrent use.
type Ring struct {
	mu            sync.RWMutex
	vnodesPerNode int
	vnodes        []vnode // sorted ascending by hash
	online        map[string]bool
}

// New creates a ring with the given vnode fan-out. A non-positive value
// falls back to DefaultVnodesPerNode.
func New(vnodesPerNode int) *Ring {
	if vnodesPerNode <= 0 {
		vnodesPerNode = DefaultVnodesPerNode
	}
	return &Ring{
		vnodesPerNode: vnodesPerNode,
		online:        make(map[string]bool),
	}
}

// AddNode places vnodesPerNode positions for nodeID into the ring,
// replacing any existing placement for it (spec §4.4: "re-adding replaces
// the existing placement"). The node starts online.
func (r *Ring) AddNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeVnodesLocked(nodeID)
	for i := 0; i < r.vnodesPerNode; i++ {
		r.vnodes = append(r.vnodes, vnode{
			hash:   hash32(fmt.Sprintf("%s:%d", nodeID, i)),
			nodeID: nodeID,
		})
	}
	sort.Slice(r.vnodes, func(i, j int) bool { return r.vnodes[i].hash < r.vnodes[j].hash })
	r.online[nodeID] = true
}

// RemoveNode deletes every vnode placement for nodeID and forgets its
// online/offline state. Keys it owned are reassigned to their new nearest
// vnode; no other key's owner changes (spec §4.4).
func (r *Ring) RemoveNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeVnodesLocked(nodeID)
	delete(r.online, nodeID)
}

func (r *Ring) removeVnodesLocked(nodeID string) {
	out := r.vnodes[:0]
	for _, v := range r.vnodes {
		if v.nodeID != nodeID {
			out = append(out, v)
		}
	}
	r.vnodes = out
}

// SetOnline marks a node online or offline without removing its ring
// placement: GetNodes skips offline nodes but RemoveNode is still required
// to actually evict them from the ring (spec §4.4).
func (r *Ring) SetOnline(nodeID string, online bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, known := r.online[nodeID]; known {
		r.online[nodeID] = online
	}
}

// Nodes returns the set of node ids currently placed in the ring, in no
// particular order.
func (r *Ring) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool, len(r.online))
	out := make([]string, 0, len(r.online))
	for _, v := range r.vnodes {
		if !seen[v.nodeID] {
			seen[v.nodeID] = true
			out = append(out, v.nodeID)
		}
	}
	return out
}

// locate returns the index of the first vnode with hash >= keyHash,
// wrapping to 0 when every vnode hash is smaller (spec §4.4).
func (r *Ring) locate(keyHash uint32) int {
	idx := sort.Search(len(r.vnodes), func(i int) bool { return r.vnodes[i].hash >= keyHash })
	if idx == len(r.vnodes) {
		idx = 0
	}
	return idx
}

// GetNodes walks the ring forward from key's placement, skipping vnodes
// whose owning node was already returned or is offline, until count
// distinct nodes are collected or the ring is exhausted (spec §4.4).
func (r *Ring) GetNodes(key string, count int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.vnodes) == 0 || count <= 0 {
		return nil
	}
	start := r.locate(hash32(key))
	seen := make(map[string]bool, count)
	result := make([]string, 0, count)
	for i := 0; i < len(r.vnodes) && len(result) < count; i++ {
		v := r.vnodes[(start+i)%len(r.vnodes)]
		if seen[v.nodeID] {
			continue
		}
		seen[v.nodeID] = true
		if !r.online[v.nodeID] {
			continue
		}
		result = append(result, v.nodeID)
	}
	return result
}

// PrimaryNode is GetNodes(key, 1)'s single result, or "" if the ring is
// empty or every node is offline.
func (r *Ring) PrimaryNode(key string) string {
	nodes := r.GetNodes(key, 1)
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0]
}
