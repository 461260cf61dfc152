package emu

import "encoding/binary"

// PageSize is the granularity of memory allocation and of translation
// block invalidation.
const PageSize = 4096

type page [PageSize]byte

// Memory is a sparse little-endian 32-bit address space. Unwritten memory
// reads as zero.
type Memory struct {
	pages map[uint32]*page
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint32]*page)}
}

func (m *Memory) pageFor(addr uint32, alloc bool) *page {
	p, ok := m.pages[addr/PageSize]
	if !ok && alloc {
		p = new(page)
		m.pages[addr/PageSize] = p
	}
	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) uint8 {
	p := m.pageFor(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%PageSize]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, v uint8) {
	m.pageFor(addr, true)[addr%PageSize] = v
}

// Read16 reads a little-endian halfword. It also lets Memory serve as the
// decoder's instruction source.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read(addr, 2))
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) uint32 {
	return m.Read(addr, 4)
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, v uint16) {
	m.Write(addr, 2, uint32(v))
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, v uint32) {
	m.Write(addr, 4, v)
}

// Read reads size bytes (1, 2 or 4) and zero-extends them.
func (m *Memory) Read(addr uint32, size int) uint32 {
	var buf [4]byte
	m.ReadBytes(addr, buf[:size])
	return binary.LittleEndian.Uint32(buf[:])
}

// Write writes the low size bytes (1, 2 or 4) of v.
func (m *Memory) Write(addr uint32, size int, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	m.WriteBytes(addr, buf[:size])
}

// ReadBytes fills b from memory starting at addr.
func (m *Memory) ReadBytes(addr uint32, b []byte) {
	for i := range b {
		b[i] = m.Read8(addr + uint32(i))
	}
}

// WriteBytes copies b into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, b []byte) {
	for i, v := range b {
		m.Write8(addr+uint32(i), v)
	}
}
