package cpu

// memoryBus routes block loads and stores to memory. Stores also
// invalidate any translated code they overwrite.
type memoryBus struct {
	cpu *CPU
}

func (b *memoryBus) Read(addr uint32, size int) uint32 {
	return b.cpu.memory.Read(addr, size)
}

func (b *memoryBus) Write(addr uint32, size int, v uint32) {
	b.cpu.memory.Write(addr, size, v)
	b.cpu.invalidate(addr, uint32(size))
}
