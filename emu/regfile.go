// Package emu provides the RH850 architectural state and the pure
// arithmetic semantics shared by the translator and its reference checks.
package emu

// Register aliases used by the calling convention and by instructions with
// implicit operands.
const (
	RegSP = 3  // stack pointer
	RegGP = 4  // global pointer
	RegTP = 5  // text pointer
	RegEP = 30 // element pointer, base of SLD/SST
	RegLP = 31 // link pointer
)

// RegFile represents the RH850 general-purpose register file.
// It contains 32 registers (r0-r31) and the program counter.
type RegFile struct {
	// R holds general-purpose registers r0-r31.
	// R[0] always reads as 0.
	R [32]uint32

	// PC is the program counter.
	PC uint32
}

// Reg reads a register value. Register 0 and out-of-range indices read 0.
func (r *RegFile) Reg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// SetReg writes a value to a register. Writes to r0 are discarded.
func (r *RegFile) SetReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}
