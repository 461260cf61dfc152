// Package jit defines the operation-emission interface consumed by the
// block translator, plus a recording implementation and an interpreter
// that executes recorded blocks against an emu.State.
//
// Operands are Vars. The first NumGlobals Vars name architectural state:
// general registers, PC, each PSW flag, every system register and the
// link state of LDL.W/STC.W. Vars from NumGlobals upward are temporaries
// allocated per block.
package jit

import (
	"strconv"

	"github.com/sarchlab/rh850sim/emu"
)

// Var names a global or a block-local temporary.
type Var int32

// Label names a branch target inside a block.
type Label int32

// Global variables.
const (
	// VarPC is the program counter.
	VarPC Var = 32

	varFlagBase   = VarPC + 1
	varSysRegBase = varFlagBase + Var(emu.NumFlags)

	// VarDataBuffer is the data buffer register.
	VarDataBuffer = varSysRegBase + Var(emu.NumBanks)*emu.BankSize
	// VarLLBit holds 1 while an LDL.W link is valid.
	VarLLBit = VarDataBuffer + 1
	// VarLLAddr holds the linked address.
	VarLLAddr = VarLLBit + 1

	// NumGlobals is the number of global variables.
	NumGlobals = VarLLAddr + 1
)

// GPR returns the variable of general register r.
func GPR(r uint8) Var {
	return Var(r & 31)
}

// FlagVar returns the variable holding flag f as 0 or 1.
func FlagVar(f emu.Flag) Var {
	return varFlagBase + Var(f)
}

// SysRegVar returns the variable of a system register.
func SysRegVar(r emu.SysReg) Var {
	return varSysRegBase + Var(r.Bank)*emu.BankSize + Var(r.Index)
}

// IsGlobal reports whether v names architectural state.
func (v Var) IsGlobal() bool {
	return v >= 0 && v < NumGlobals
}

// String renders the variable for block listings.
func (v Var) String() string {
	switch {
	case v < 0:
		return "invalid"
	case v < VarPC:
		return "r" + strconv.Itoa(int(v))
	case v == VarPC:
		return "pc"
	case v < varSysRegBase:
		return emu.Flag(v - varFlagBase).String()
	case v < VarDataBuffer:
		off := v - varSysRegBase
		return emu.SysReg{
			Bank:  emu.Bank(off / emu.BankSize),
			Index: uint8(off % emu.BankSize),
		}.String()
	case v == VarDataBuffer:
		return "dbuf"
	case v == VarLLBit:
		return "llbit"
	case v == VarLLAddr:
		return "lladdr"
	}
	return "t" + strconv.Itoa(int(v-NumGlobals))
}
