package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

var branchGenerators = map[insts.Op]genFunc{
	insts.OpBcond:  genBcond,
	insts.OpJR:     genJump,
	insts.OpJARL:   genJump,
	insts.OpJARLR:  genJarlReg,
	insts.OpJMP:    genJmp,
	insts.OpLOOP:   genLoop,
	insts.OpSWITCH: genSwitch,
	insts.OpCALLT:  genCallt,
	insts.OpCTRET:  genCtret,
	insts.OpEIRET:  genReturn,
	insts.OpFERET:  genReturn,
}

// branchTo ends the block with a two-way exit: taken goes to dest and
// not-taken falls through to NextPC.
func (dc *DisasContext) branchTo(taken jit.Var, dest uint32) {
	l := dc.em.NewLabel()
	dc.em.BrCond(jit.NE, taken, dc.imm(0), l)
	dc.gotoTB(dc.NextPC)
	dc.em.SetLabel(l)
	dc.gotoTB(dest)
	dc.State = StateBranch
}

func genBcond(dc *DisasContext, inst *insts.Instruction) {
	dest := dc.PC + uint32(inst.Disp)
	if inst.Cond == insts.CondT {
		dc.gotoTB(dest)
		dc.State = StateBranch
		return
	}
	dc.branchTo(dc.genCondition(inst.Cond), dest)
}

// genJump covers JR and JARL with a PC-relative displacement.
func genJump(dc *DisasContext, inst *insts.Instruction) {
	if inst.Op == insts.OpJARL {
		dc.setReg(inst.Reg2, dc.imm(dc.NextPC))
	}
	dc.gotoTB(dc.PC + uint32(inst.Disp))
	dc.State = StateBranch
}

// genJarlReg jumps to reg1 and links in reg3. The target is read before
// the link is written.
func genJarlReg(dc *DisasContext, inst *insts.Instruction) {
	dest := dc.temp()
	dc.em.Mov(dest, dc.reg(inst.Reg1))
	dc.setReg(inst.Reg2, dc.imm(dc.NextPC))
	dc.gotoIndirect(dest)
	dc.State = StateBranch
}

// genJmp covers JMP [reg1] and JMP disp32[reg1].
func genJmp(dc *DisasContext, inst *insts.Instruction) {
	dest := dc.arithi(jit.Add, dc.reg(inst.Reg1), uint32(inst.Disp))
	dc.em.Arith(jit.AndNot, dest, dest, dc.imm(1))
	dc.gotoIndirect(dest)
	dc.State = StateBranch
}

// genLoop decrements reg1 and branches backwards while it is non-zero.
func genLoop(dc *DisasContext, inst *insts.Instruction) {
	r := dc.addFlags(dc.reg(inst.Reg1), dc.imm(0xffffffff))
	dc.setReg(inst.Reg1, r)
	dc.branchTo(dc.setCond(jit.NE, r, dc.imm(0)), dc.PC-uint32(inst.Disp))
}

// genSwitch jumps through a table of halfword offsets that follows the
// instruction.
func genSwitch(dc *DisasContext, inst *insts.Instruction) {
	next := dc.imm(dc.NextPC)
	adr := dc.arith(jit.Add, next, dc.arithi(jit.Shl, dc.reg(inst.Reg1), 1))
	off := dc.temp()
	dc.em.Load(off, adr, jit.W16, true)
	dest := dc.arith(jit.Add, next, dc.arithi(jit.Shl, off, 1))
	dc.gotoIndirect(dest)
	dc.State = StateBranch
}

// genCallt saves the return state in CTPC and CTPSW and calls through the
// table at CTBP.
func genCallt(dc *DisasContext, inst *insts.Instruction) {
	dc.packPSW(pswArithBits)
	dc.movi(jit.SysRegVar(emu.CTPC), dc.NextPC)
	dc.em.Mov(jit.SysRegVar(emu.CTPSW), dc.arithi(jit.And, varPSW, uint32(pswArithBits)))

	ctbp := dc.temp()
	dc.em.Mov(ctbp, jit.SysRegVar(emu.CTBP))
	off := dc.temp()
	dc.em.Load(off, dc.arithi(jit.Add, ctbp, inst.Imm<<1), jit.W16, false)
	dc.gotoIndirect(dc.arith(jit.Add, ctbp, off))
	dc.State = StateBranch
}

func genCtret(dc *DisasContext, _ *insts.Instruction) {
	dest := dc.temp()
	dc.em.Mov(dest, jit.SysRegVar(emu.CTPC))

	dc.packPSW(pswArithBits)
	low := dc.arithi(jit.And, jit.SysRegVar(emu.CTPSW), uint32(pswArithBits))
	psw := dc.arith(jit.Or, dc.arithi(jit.AndNot, varPSW, uint32(pswArithBits)), low)
	dc.em.Mov(varPSW, psw)
	dc.unpackPSW()

	dc.gotoIndirect(dest)
	dc.State = StateBranch
}

// genReturn covers EIRET and FERET.
func genReturn(dc *DisasContext, inst *insts.Instruction) {
	pc, psw := emu.EIPC, emu.EIPSW
	if inst.Op == insts.OpFERET {
		pc, psw = emu.FEPC, emu.FEPSW
	}

	dest := dc.temp()
	dc.em.Mov(dest, jit.SysRegVar(pc))
	dc.em.Mov(varPSW, jit.SysRegVar(psw))
	dc.unpackPSW()

	dc.gotoIndirect(dest)
	dc.State = StateBranch
}
