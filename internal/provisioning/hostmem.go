package provisioning

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// detectHostMemoryMB reads the host's total physical memory via gopsutil
// when a node registers with max_memory_mb <= 0 ("auto"), grounding §4.8's
// node capacity in a real measurement (SUPPLEMENTED FEATURES). Falls back
// to a conservative default if the read fails.
func detectHostMemoryMB() int64 {
	vm, err := mem.VirtualMemory()
	if err != nil || vm == nil {
		return defaultAutoMemoryMB
	}
	return int64(vm.Total / bytesPerMB)
}

const defaultAutoMemoryMB = 512
