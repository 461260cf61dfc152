package emu

import "github.com/sarchlab/rh850sim/insts"

// CheckCondition evaluates an RH850 condition code against the flags.
func CheckCondition(cond insts.Cond, f Flags) bool {
	switch cond & 0xf {
	case insts.CondV:
		return f.OV
	case insts.CondC:
		return f.CY
	case insts.CondZ:
		return f.Z
	case insts.CondNH:
		// Not higher: CY | Z
		return f.CY || f.Z
	case insts.CondS:
		return f.S
	case insts.CondT:
		return true
	case insts.CondLT:
		// Signed less than: S ^ OV
		return f.S != f.OV
	case insts.CondLE:
		return (f.S != f.OV) || f.Z
	case insts.CondNV:
		return !f.OV
	case insts.CondNC:
		return !f.CY
	case insts.CondNZ:
		return !f.Z
	case insts.CondH:
		return !(f.CY || f.Z)
	case insts.CondNS:
		return !f.S
	case insts.CondSA:
		return f.SAT
	case insts.CondGE:
		return f.S == f.OV
	default: // insts.CondGT
		return !((f.S != f.OV) || f.Z)
	}
}
