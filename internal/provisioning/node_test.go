package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeFitsChecksStatusAndCapacity(t *testing.T) {
	n := &Node{MaxMemoryMB: 100, UsedMemoryMB: 60, Status: NodeOnline}
	assert.True(t, n.fits(40))
	assert.False(t, n.fits(41))

	n.Status = NodeOffline
	assert.False(t, n.fits(1))
}

func TestNodeFreeMemoryNeverNegative(t *testing.T) {
	n := &Node{MaxMemoryMB: 100, UsedMemoryMB: 150}
	assert.Equal(t, int64(0), n.freeMemoryMB())
}
