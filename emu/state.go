package emu

// ResetPSW is the PSW value after reset: interrupts disabled.
const ResetPSW uint32 = 0x20

// State is the complete architectural state of one RH850 CPU. It holds no
// references to other objects, so each CPU owns an independent State.
type State struct {
	RegFile

	// Flags is authoritative for PSW; the PSW slot of the bank is unused.
	Flags Flags

	sysRegs [NumBanks][BankSize]uint32

	// DataBuffer is the data buffer register used by the cache instructions.
	DataBuffer uint32

	// LLBit is 1 while a link from LDL.W is held.
	LLBit uint32
	// LLAddr is the address linked by LDL.W.
	LLAddr uint32
}

// NewState creates a state that has been reset to pc.
func NewState(pc uint32) *State {
	s := &State{}
	s.Reset(pc)
	return s
}

// Reset zeroes the state, sets PSW to its reset value and PC to pc.
func (s *State) Reset(pc uint32) {
	*s = State{}
	s.UnpackPSW(ResetPSW)
	s.PC = pc
}

// PackPSW returns PSW built from the individual flags.
func (s *State) PackPSW() uint32 {
	return s.Flags.Pack()
}

// UnpackPSW decomposes a PSW value into the individual flags.
func (s *State) UnpackPSW(v uint32) {
	s.Flags.Unpack(v & PSWWritable)
}

// CSRRead reads a system register. Read-only bits report their fixed
// value. Out-of-range registers read 0.
func (s *State) CSRRead(bank Bank, idx uint8) uint32 {
	r := SysReg{bank, idx}
	if !r.Valid() {
		return 0
	}
	if r == PSW {
		return s.PackPSW()
	}
	ro := readOnlyTable[bank][idx]
	return (s.sysRegs[bank][idx] &^ ro.mask) | (ro.value & ro.mask)
}

// CSRWrite writes a system register, preserving read-only bits. Writes to
// out-of-range registers are ignored.
func (s *State) CSRWrite(bank Bank, idx uint8, v uint32) {
	r := SysReg{bank, idx}
	if !r.Valid() {
		return
	}
	if r == PSW {
		s.UnpackPSW(v)
		return
	}
	ro := readOnlyTable[bank][idx]
	old := s.sysRegs[bank][idx]
	s.sysRegs[bank][idx] = (old & ro.mask) | (v &^ ro.mask)
}

// Get reads a named system register.
func (s *State) Get(r SysReg) uint32 {
	return s.CSRRead(r.Bank, r.Index)
}

// Set writes a named system register.
func (s *State) Set(r SysReg, v uint32) {
	s.CSRWrite(r.Bank, r.Index, v)
}

// ExceptionBase returns the handler base address selected by PSW.EBV.
func (s *State) ExceptionBase() uint32 {
	if s.Flags.EBV {
		return s.Get(EBASE) &^ 0x1ff
	}
	return s.Get(RBASE) &^ 0x1ff
}
