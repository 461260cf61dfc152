package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

var systemGenerators = map[insts.Op]genFunc{
	insts.OpLDSR:    genLdsr,
	insts.OpSTSR:    genStsr,
	insts.OpEI:      genInterruptControl,
	insts.OpDI:      genInterruptControl,
	insts.OpHALT:    genHalt,
	insts.OpTRAP:    genTrap,
	insts.OpFETRAP:  genFetrap,
	insts.OpSYSCALL: genSyscall,
	insts.OpRIE:     genReserved,

	insts.OpNOP:    genNop,
	insts.OpSYNC:   genNop,
	insts.OpCACHE:  genNop,
	insts.OpPREF:   genNop,
	insts.OpSNOOZE: genNop,
}

// Exception cause codes and handler offsets.
const (
	causeFETrap   = 0x30
	causeTrap0    = 0x40
	causeTrap1    = 0x50
	causeReserved = 0x60
	causeSyscall  = 0x8000

	offsetFETrap   = 0x30
	offsetTrap0    = 0x40
	offsetTrap1    = 0x50
	offsetReserved = 0x60
)

func genNop(*DisasContext, *insts.Instruction) {}

func sysReg(inst *insts.Instruction) emu.SysReg {
	return emu.SysReg{Bank: emu.Bank(inst.SelID), Index: inst.RegID}
}

// genLdsr writes a system register. Writing PSW reloads every flag. The
// block ends afterwards since the write may change execution mode.
func genLdsr(dc *DisasContext, inst *insts.Instruction) {
	r := sysReg(inst)
	if r.Valid() {
		dc.em.Mov(jit.SysRegVar(r), dc.reg(inst.Reg1))
		if r == emu.PSW {
			dc.unpackPSW()
		}
	}
	dc.State = StateStop
}

func genStsr(dc *DisasContext, inst *insts.Instruction) {
	r := sysReg(inst)
	if !r.Valid() {
		dc.setReg(inst.Reg2, dc.imm(0))
		return
	}
	if r == emu.PSW {
		dc.packPSW(pswArithBits)
	}
	v := dc.temp()
	dc.em.Mov(v, jit.SysRegVar(r))
	dc.setReg(inst.Reg2, v)
}

func genInterruptControl(dc *DisasContext, inst *insts.Instruction) {
	dc.movi(flagID, emu.Setf(inst.Op == insts.OpDI))
	dc.State = StateStop
}

func genHalt(dc *DisasContext, _ *insts.Instruction) {
	dc.movi(jit.VarPC, dc.NextPC)
	dc.exit(jit.ExitHalt)
	dc.State = StateBranch
}

// exceptionBase returns RBASE or EBASE, as selected by PSW.EBV, aligned
// to 512 bytes.
func (dc *DisasContext) exceptionBase() jit.Var {
	base := dc.temp()
	dc.ifElse(flagEBV,
		func() { dc.em.Mov(base, jit.SysRegVar(emu.EBASE)) },
		func() { dc.em.Mov(base, jit.SysRegVar(emu.RBASE)) })
	dc.em.Arith(jit.AndNot, base, base, dc.imm(0x1ff))
	return base
}

// enterEI saves the return state for an EI level exception and switches
// PSW into exception mode.
func (dc *DisasContext) enterEI(cause, retPC uint32) {
	dc.packPSW(pswAllBits)
	dc.movi(jit.SysRegVar(emu.EIPC), retPC)
	dc.em.Mov(jit.SysRegVar(emu.EIPSW), varPSW)
	dc.movi(jit.SysRegVar(emu.EIIC), cause)
	dc.movi(flagUM, 0)
	dc.movi(flagEP, 1)
	dc.movi(flagID, 1)
}

// enterFE is enterEI for FE level exceptions, which also set NP.
func (dc *DisasContext) enterFE(cause, retPC uint32) {
	dc.packPSW(pswAllBits)
	dc.movi(jit.SysRegVar(emu.FEPC), retPC)
	dc.em.Mov(jit.SysRegVar(emu.FEPSW), varPSW)
	dc.movi(jit.SysRegVar(emu.FEIC), cause)
	dc.movi(flagUM, 0)
	dc.movi(flagEP, 1)
	dc.movi(flagID, 1)
	dc.movi(flagNP, 1)
}

// raise jumps to the handler at offset from the exception base.
func (dc *DisasContext) raise(offset uint32) {
	dc.em.Mov(jit.VarPC, dc.arithi(jit.Add, dc.exceptionBase(), offset))
	dc.exit(jit.ExitException)
	dc.State = StateBranch
}

func genTrap(dc *DisasContext, inst *insts.Instruction) {
	vec := inst.Imm & 0x1f
	dc.enterEI(causeTrap0+vec, dc.NextPC)
	if vec < 0x10 {
		dc.raise(offsetTrap0)
	} else {
		dc.raise(offsetTrap1)
	}
}

func genFetrap(dc *DisasContext, inst *insts.Instruction) {
	dc.enterFE(causeFETrap+inst.Imm&0xf, dc.NextPC)
	dc.raise(offsetFETrap)
}

// genReserved raises the reserved instruction exception. It also handles
// every encoding the decoder does not recognize. FEPC points at the
// faulting instruction.
func genReserved(dc *DisasContext, _ *insts.Instruction) {
	dc.enterFE(causeReserved, dc.PC)
	dc.raise(offsetReserved)
}

// genSyscall calls through the table at SCBP. Vectors above SCCFG.SIZE
// use entry 0.
func genSyscall(dc *DisasContext, inst *insts.Instruction) {
	vec := inst.Imm & 0xff
	dc.enterEI(causeSyscall+vec, dc.NextPC)

	size := dc.arithi(jit.And, jit.SysRegVar(emu.SCCFG), 0xff)
	inRange := dc.setCond(jit.LEU, dc.imm(vec), size)
	off := dc.arithi(jit.Mul, inRange, vec<<2)

	scbp := dc.temp()
	dc.em.Mov(scbp, jit.SysRegVar(emu.SCBP))
	entry := dc.temp()
	dc.em.Load(entry, dc.arith(jit.Add, scbp, off), jit.W32, false)
	dc.em.Mov(jit.VarPC, dc.arith(jit.Add, scbp, entry))
	dc.exit(jit.ExitException)
	dc.State = StateBranch
}
