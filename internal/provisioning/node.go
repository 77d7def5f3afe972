package provisioning

import "time"

// NodeStatus tracks a node's membership in the cluster (spec §4.8).
type NodeStatus string

const (
	NodeOnline  NodeStatus = "online"
	NodeOffline NodeStatus = "offline"
)

// Node is a process hosting zero or more instances (spec GLOSSARY).
type Node struct {
	ID            string
	Address       string
	Endpoint      string
	Region        string
	Tier          Tier
	MaxMemoryMB   int64
	UsedMemoryMB  int64
	InstanceCount int
	Attestation   []byte
	Status        NodeStatus
	LastHeartbeat time.Time
}

// freeMemoryMB reports how much capacity remains for new instances.
func (n *Node) freeMemoryMB() int64 {
	free := n.MaxMemoryMB - n.UsedMemoryMB
	if free < 0 {
		return 0
	}
	return free
}

// fits reports whether admitting a plan requiring memMB would keep the
// node within its advertised capacity (spec §4.8: "max - used >= plan.memory").
func (n *Node) fits(memMB int64) bool {
	return n.Status == NodeOnline && n.freeMemoryMB() >= memMB
}
