package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

var (
	flagZ   = jit.FlagVar(emu.FlagZ)
	flagS   = jit.FlagVar(emu.FlagS)
	flagOV  = jit.FlagVar(emu.FlagOV)
	flagCY  = jit.FlagVar(emu.FlagCY)
	flagSAT = jit.FlagVar(emu.FlagSAT)
	flagID  = jit.FlagVar(emu.FlagID)
	flagEP  = jit.FlagVar(emu.FlagEP)
	flagNP  = jit.FlagVar(emu.FlagNP)
	flagEBV = jit.FlagVar(emu.FlagEBV)
	flagUM  = jit.FlagVar(emu.FlagUM)

	varPSW = jit.SysRegVar(emu.PSW)
)

// pswArithBits are the PSW bits repacked after every instruction.
const pswArithBits = emu.MaskZ | emu.MaskS | emu.MaskOV | emu.MaskCY | emu.MaskSAT

// pswAllBits are all implemented PSW bits.
const pswAllBits = emu.FlagMask(emu.PSWWritable)

func (dc *DisasContext) temp() jit.Var {
	return dc.em.NewTemp()
}

func (dc *DisasContext) imm(v uint32) jit.Var {
	t := dc.em.NewTemp()
	dc.em.Movi(t, v)
	return t
}

func (dc *DisasContext) movi(dst jit.Var, v uint32) {
	dc.em.Movi(dst, v)
}

// reg returns a variable reading general register r. r0 reads as a fresh
// zero constant so that no emitter has to special-case it.
func (dc *DisasContext) reg(r uint8) jit.Var {
	if r == 0 {
		return dc.imm(0)
	}
	return jit.GPR(r)
}

// setReg writes v to general register r, dropping writes to r0.
func (dc *DisasContext) setReg(r uint8, v jit.Var) {
	if r == 0 {
		return
	}
	dc.em.Mov(jit.GPR(r), v)
}

func (dc *DisasContext) arith(op jit.ArithOp, a, b jit.Var) jit.Var {
	t := dc.temp()
	dc.em.Arith(op, t, a, b)
	return t
}

func (dc *DisasContext) arithi(op jit.ArithOp, a jit.Var, v uint32) jit.Var {
	return dc.arith(op, a, dc.imm(v))
}

func (dc *DisasContext) setCond(c jit.Cmp, a, b jit.Var) jit.Var {
	t := dc.temp()
	dc.em.SetCond(c, t, a, b)
	return t
}

// bit extracts bit n of v as 0 or 1.
func (dc *DisasContext) bit(v jit.Var, n uint) jit.Var {
	return dc.arithi(jit.And, dc.arithi(jit.Shr, v, uint32(n)), 1)
}

// setZS sets Z and S from v.
func (dc *DisasContext) setZS(v jit.Var) {
	zero := dc.imm(0)
	dc.em.SetCond(jit.EQ, flagZ, v, zero)
	dc.em.SetCond(jit.LT, flagS, v, zero)
}

// setLogicFlags sets Z and S from v and clears OV.
func (dc *DisasContext) setLogicFlags(v jit.Var) {
	dc.setZS(v)
	dc.movi(flagOV, 0)
}

// packPSW rebuilds the PSW bits in mask from the individual flags: the
// selected bits are cleared, then each flag is ORed into its position.
func (dc *DisasContext) packPSW(mask emu.FlagMask) {
	t := dc.arithi(jit.And, varPSW, ^uint32(mask))
	for f := emu.Flag(0); f < emu.NumFlags; f++ {
		if !mask.Has(f) {
			continue
		}
		b := jit.FlagVar(f)
		if f.Bit() != 0 {
			b = dc.arithi(jit.Shl, b, uint32(f.Bit()))
		}
		dc.em.Arith(jit.Or, t, t, b)
	}
	dc.em.Mov(varPSW, t)
}

// unpackPSW reloads every flag from PSW.
func (dc *DisasContext) unpackPSW() {
	for f := emu.Flag(0); f < emu.NumFlags; f++ {
		dc.em.Mov(jit.FlagVar(f), dc.bit(varPSW, f.Bit()))
	}
}

// exit packs PSW and ends the block.
func (dc *DisasContext) exit(kind jit.ExitKind) {
	dc.packPSW(pswAllBits)
	dc.em.Exit(kind)
}

// gotoTB ends the block at a statically known target.
func (dc *DisasContext) gotoTB(dest uint32) {
	dc.movi(jit.VarPC, dest)
	if dc.singleStep {
		dc.exit(jit.ExitDebug)
		return
	}
	dc.exit(jit.ExitJump)
}

// gotoIndirect ends the block at the target held in dest.
func (dc *DisasContext) gotoIndirect(dest jit.Var) {
	dc.em.Mov(jit.VarPC, dest)
	if dc.singleStep {
		dc.exit(jit.ExitDebug)
		return
	}
	dc.exit(jit.ExitIndirect)
}

// genCondition returns a 0/1 variable holding the value of cond.
func (dc *DisasContext) genCondition(cond insts.Cond) jit.Var {
	cond &= 0xf
	switch cond {
	case insts.CondT:
		return dc.imm(1)
	case insts.CondSA:
		return dc.arithi(jit.And, flagSAT, 1)
	}

	var t jit.Var
	switch cond & 7 {
	case 0: // V
		t = dc.arithi(jit.And, flagOV, 1)
	case 1: // C
		t = dc.arithi(jit.And, flagCY, 1)
	case 2: // Z
		t = dc.arithi(jit.And, flagZ, 1)
	case 3: // NH
		t = dc.arith(jit.Or, flagCY, flagZ)
	case 4: // S
		t = dc.arithi(jit.And, flagS, 1)
	case 6: // LT
		t = dc.arith(jit.Xor, flagS, flagOV)
	case 7: // LE
		t = dc.arith(jit.Or, dc.arith(jit.Xor, flagS, flagOV), flagZ)
	}

	if cond&8 != 0 {
		dc.em.Arith(jit.Xor, t, t, dc.imm(1))
	}
	return t
}

// ifThen emits body only when v is non-zero.
func (dc *DisasContext) ifThen(v jit.Var, body func()) {
	skip := dc.em.NewLabel()
	dc.em.BrCond(jit.EQ, v, dc.imm(0), skip)
	body()
	dc.em.SetLabel(skip)
}

// ifElse emits then when v is non-zero and otherwise els.
func (dc *DisasContext) ifElse(v jit.Var, then, els func()) {
	elseLabel := dc.em.NewLabel()
	done := dc.em.NewLabel()
	dc.em.BrCond(jit.EQ, v, dc.imm(0), elseLabel)
	then()
	dc.em.Br(done)
	dc.em.SetLabel(elseLabel)
	els()
	dc.em.SetLabel(done)
}
