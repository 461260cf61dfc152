package emu

import (
	"fmt"
	"strings"
)

// Bank identifies a system-register bank, selected by the selID operand of
// LDSR and STSR.
type Bank uint8

// System-register banks.
const (
	BankBasic0 Bank = iota
	BankBasic1
	BankBasic2
	BankInterrupt
	BankFPU
	BankMPU
	BankCache
	NumBanks
)

// BankSize is the number of registers per bank.
const BankSize = 32

// SysReg names a system register by bank and index.
type SysReg struct {
	Bank  Bank
	Index uint8
}

// Basic system registers, bank 0.
var (
	EIPC   = SysReg{BankBasic0, 0}
	EIPSW  = SysReg{BankBasic0, 1}
	FEPC   = SysReg{BankBasic0, 2}
	FEPSW  = SysReg{BankBasic0, 3}
	PSW    = SysReg{BankBasic0, 5}
	FPSR   = SysReg{BankBasic0, 6}
	FPEPC  = SysReg{BankBasic0, 7}
	FPST   = SysReg{BankBasic0, 8}
	FPCC   = SysReg{BankBasic0, 9}
	FPCFG  = SysReg{BankBasic0, 10}
	FPEC   = SysReg{BankBasic0, 11}
	EIIC   = SysReg{BankBasic0, 13}
	FEIC   = SysReg{BankBasic0, 14}
	CTPC   = SysReg{BankBasic0, 16}
	CTPSW  = SysReg{BankBasic0, 17}
	CTBP   = SysReg{BankBasic0, 20}
	EIWR   = SysReg{BankBasic0, 28}
	FEWR   = SysReg{BankBasic0, 29}
	BSEL   = SysReg{BankBasic0, 31}
	MCFG0  = SysReg{BankBasic1, 0}
	RBASE  = SysReg{BankBasic1, 2}
	EBASE  = SysReg{BankBasic1, 3}
	INTBP  = SysReg{BankBasic1, 4}
	MCTL   = SysReg{BankBasic1, 5}
	PID    = SysReg{BankBasic1, 6}
	SCCFG  = SysReg{BankBasic1, 11}
	SCBP   = SysReg{BankBasic1, 12}
	HTCFG0 = SysReg{BankBasic2, 0}
	MEA    = SysReg{BankBasic2, 6}
	ASID   = SysReg{BankBasic2, 7}
	MEI    = SysReg{BankBasic2, 8}
)

var sysRegNames = map[SysReg]string{
	EIPC: "EIPC", EIPSW: "EIPSW", FEPC: "FEPC", FEPSW: "FEPSW", PSW: "PSW",
	FPSR: "FPSR", FPEPC: "FPEPC", FPST: "FPST", FPCC: "FPCC", FPCFG: "FPCFG",
	FPEC: "FPEC", EIIC: "EIIC", FEIC: "FEIC", CTPC: "CTPC", CTPSW: "CTPSW",
	CTBP: "CTBP", EIWR: "EIWR", FEWR: "FEWR", BSEL: "BSEL",
	MCFG0: "MCFG0", RBASE: "RBASE", EBASE: "EBASE", INTBP: "INTBP",
	MCTL: "MCTL", PID: "PID", SCCFG: "SCCFG", SCBP: "SCBP",
	HTCFG0: "HTCFG0", MEA: "MEA", ASID: "ASID", MEI: "MEI",
}

func (r SysReg) String() string {
	if name, ok := sysRegNames[r]; ok {
		return name
	}
	return fmt.Sprintf("SR%d,%d", r.Index, r.Bank)
}

// LookupSysReg returns the named system register, ignoring case.
func LookupSysReg(name string) (SysReg, bool) {
	for r, n := range sysRegNames {
		if strings.EqualFold(n, name) {
			return r, true
		}
	}
	return SysReg{}, false
}

// Valid reports whether the register lies inside the bank space.
func (r SysReg) Valid() bool {
	return r.Bank < NumBanks && r.Index < BankSize
}

// Named reports whether the register is one of the named registers above.
func (r SysReg) Named() bool {
	_, ok := sysRegNames[r]
	return ok
}

// readOnly describes the fixed bits of one system register. Bits set in
// mask always read as the matching bits of value and ignore writes.
type readOnly struct {
	mask  uint32
	value uint32
}

var readOnlyTable = buildReadOnlyTable()

func buildReadOnlyTable() [NumBanks][BankSize]readOnly {
	var t [NumBanks][BankSize]readOnly

	// Indices not named in the basic banks are reserved: read as zero.
	for b := BankBasic0; b <= BankBasic2; b++ {
		for i := range t[b] {
			if !(SysReg{b, uint8(i)}).Named() {
				t[b][i] = readOnly{mask: 0xffffffff}
			}
		}
	}

	set := func(r SysReg, mask, value uint32) {
		t[r.Bank][r.Index] = readOnly{mask: mask, value: value}
	}

	for _, r := range []SysReg{PSW, EIPSW, FEPSW} {
		set(r, ^PSWWritable, 0)
	}
	for _, r := range []SysReg{EIPC, FEPC, CTPC, FPEPC, CTBP} {
		set(r, 0x1, 0)
	}
	set(CTPSW, ^uint32(0x1f), 0)
	set(BSEL, 0xffffffff, 0)
	set(MCFG0, 0xffffffff, 0)
	set(PID, 0xffffffff, 0)
	set(HTCFG0, 0xffffffff, 0x00010000)
	set(RBASE, 0x1fe, 0)
	set(EBASE, 0x1fe, 0)
	set(INTBP, 0x1ff, 0)
	set(SCCFG, 0xffffff00, 0)
	set(SCBP, 0x3, 0)
	set(ASID, 0xfffffc00, 0)

	return t
}
