package cache

import (
	"github.com/sarchlab/rh850sim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadBlock fills b from the backing memory.
func (m *MemoryBacking) ReadBlock(addr uint32, b []byte) {
	m.memory.ReadBytes(addr, b)
}
