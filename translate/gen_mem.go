package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

var memGenerators = map[insts.Op]genFunc{
	insts.OpLDB:  genLoad,
	insts.OpLDBU: genLoad,
	insts.OpLDH:  genLoad,
	insts.OpLDHU: genLoad,
	insts.OpLDW:  genLoad,
	insts.OpSTB:  genStore,
	insts.OpSTH:  genStore,
	insts.OpSTW:  genStore,
	insts.OpLDDW: genLoadDouble,
	insts.OpSTDW: genStoreDouble,

	insts.OpLDLW: genLoadLinked,
	insts.OpSTCW: genStoreConditional,
	insts.OpCAXI: genCaxi,

	insts.OpSET1:  genBitOp,
	insts.OpNOT1:  genBitOp,
	insts.OpCLR1:  genBitOp,
	insts.OpTST1:  genBitOp,
	insts.OpSET1R: genBitOp,
	insts.OpNOT1R: genBitOp,
	insts.OpCLR1R: genBitOp,
	insts.OpTST1R: genBitOp,

	insts.OpPREPARE: genPrepare,
	insts.OpDISPOSE: genDispose,
	insts.OpPUSHSP:  genPushsp,
	insts.OpPOPSP:   genPopsp,
}

type access struct {
	width  jit.Width
	signed bool
}

var accesses = map[insts.Op]access{
	insts.OpLDB:  {jit.W8, true},
	insts.OpLDBU: {jit.W8, false},
	insts.OpLDH:  {jit.W16, true},
	insts.OpLDHU: {jit.W16, false},
	insts.OpLDW:  {jit.W32, false},
	insts.OpSTB:  {jit.W8, false},
	insts.OpSTH:  {jit.W16, false},
	insts.OpSTW:  {jit.W32, false},
}

// addr returns reg1 + disp.
func (dc *DisasContext) addr(inst *insts.Instruction) jit.Var {
	return dc.arithi(jit.Add, dc.reg(inst.Reg1), uint32(inst.Disp))
}

func genLoad(dc *DisasContext, inst *insts.Instruction) {
	a := accesses[inst.Op]
	v := dc.temp()
	dc.em.Load(v, dc.addr(inst), a.width, a.signed)
	dc.setReg(inst.Reg2, v)
}

func genStore(dc *DisasContext, inst *insts.Instruction) {
	dc.em.Store(dc.addr(inst), dc.reg(inst.Reg2), accesses[inst.Op].width)
}

// genLoadDouble loads reg2 from the low word and reg2+1 from the high word.
func genLoadDouble(dc *DisasContext, inst *insts.Instruction) {
	adr := dc.addr(inst)
	lo, hi := dc.temp(), dc.temp()
	dc.em.Load(lo, adr, jit.W32, false)
	dc.em.Load(hi, dc.arithi(jit.Add, adr, 4), jit.W32, false)
	dc.setReg(inst.Reg2, lo)
	dc.setReg(inst.Reg2+1, hi)
}

func genStoreDouble(dc *DisasContext, inst *insts.Instruction) {
	adr := dc.addr(inst)
	dc.em.Store(adr, dc.reg(inst.Reg2), jit.W32)
	dc.em.Store(dc.arithi(jit.Add, adr, 4), dc.reg(inst.Reg2+1), jit.W32)
}

func genLoadLinked(dc *DisasContext, inst *insts.Instruction) {
	adr := dc.temp()
	dc.em.Mov(adr, dc.reg(inst.Reg1))
	v := dc.temp()
	dc.em.Load(v, adr, jit.W32, false)
	dc.movi(jit.VarLLBit, 1)
	dc.em.Mov(jit.VarLLAddr, adr)
	dc.setReg(inst.Reg2, v)
}

// genStoreConditional stores reg2 only while the link from LDL.W still
// names the same address, and reports success in reg2. The link is
// cleared either way.
func genStoreConditional(dc *DisasContext, inst *insts.Instruction) {
	adr := dc.temp()
	dc.em.Mov(adr, dc.reg(inst.Reg1))
	ok := dc.arith(jit.And, jit.VarLLBit, dc.setCond(jit.EQ, jit.VarLLAddr, adr))

	dc.ifElse(ok, func() {
		dc.em.Store(adr, dc.reg(inst.Reg2), jit.W32)
		dc.setReg(inst.Reg2, dc.imm(1))
	}, func() {
		dc.setReg(inst.Reg2, dc.imm(0))
	})
	dc.movi(jit.VarLLBit, 0)
}

// genCaxi compares the word at [reg1] with reg2 and swaps in reg3 when
// they match. reg3 receives the old memory value.
func genCaxi(dc *DisasContext, inst *insts.Instruction) {
	adr := dc.temp()
	dc.em.Mov(adr, dc.reg(inst.Reg1))
	tok := dc.temp()
	dc.em.Load(tok, adr, jit.W32, false)

	dc.subFlags(dc.reg(inst.Reg2), tok)
	dc.ifElse(flagZ, func() {
		dc.em.Store(adr, dc.reg(inst.Reg3), jit.W32)
	}, func() {
		dc.em.Store(adr, tok, jit.W32)
	})
	dc.setReg(inst.Reg3, tok)
}

// genBitOp handles SET1, NOT1, CLR1 and TST1 in both forms. Z is set when
// the addressed bit was 0.
func genBitOp(dc *DisasContext, inst *insts.Instruction) {
	var adr, n jit.Var
	switch inst.Op {
	case insts.OpSET1R, insts.OpNOT1R, insts.OpCLR1R, insts.OpTST1R:
		adr = dc.temp()
		dc.em.Mov(adr, dc.reg(inst.Reg1))
		n = dc.arithi(jit.And, dc.reg(inst.Reg2), 7)
	default:
		adr = dc.addr(inst)
		n = dc.imm(inst.Imm & 7)
	}

	mask := dc.arith(jit.Shl, dc.imm(1), n)
	v := dc.temp()
	dc.em.Load(v, adr, jit.W8, false)
	dc.em.SetCond(jit.EQ, flagZ, dc.arith(jit.And, v, mask), dc.imm(0))

	switch inst.Op {
	case insts.OpSET1, insts.OpSET1R:
		dc.em.Store(adr, dc.arith(jit.Or, v, mask), jit.W8)
	case insts.OpNOT1, insts.OpNOT1R:
		dc.em.Store(adr, dc.arith(jit.Xor, v, mask), jit.W8)
	case insts.OpCLR1, insts.OpCLR1R:
		dc.em.Store(adr, dc.arith(jit.AndNot, v, mask), jit.W8)
	}
}

// genPrepare pushes the listed registers from r31 downwards, allocates Imm
// bytes of frame and optionally sets ep.
func genPrepare(dc *DisasContext, inst *insts.Instruction) {
	sp := dc.temp()
	dc.em.Mov(sp, jit.GPR(emu.RegSP))
	for r := 31; r >= 20; r-- {
		if inst.List&(1<<r) == 0 {
			continue
		}
		dc.em.Arith(jit.Sub, sp, sp, dc.imm(4))
		dc.em.Store(dc.arithi(jit.AndNot, sp, 3), dc.reg(uint8(r)), jit.W32)
	}
	dc.em.Arith(jit.Sub, sp, sp, dc.imm(inst.Imm))
	dc.setReg(emu.RegSP, sp)

	if !inst.SetEP {
		return
	}
	if inst.EPImm {
		dc.setReg(emu.RegEP, dc.imm(inst.Imm2))
	} else {
		dc.setReg(emu.RegEP, sp)
	}
}

// genDispose releases Imm bytes of frame, pops the listed registers from
// r20 upwards and, with a non-zero reg1, returns through it.
func genDispose(dc *DisasContext, inst *insts.Instruction) {
	sp := dc.arithi(jit.Add, jit.GPR(emu.RegSP), inst.Imm)
	for r := 20; r <= 31; r++ {
		if inst.List&(1<<r) == 0 {
			continue
		}
		v := dc.temp()
		dc.em.Load(v, dc.arithi(jit.AndNot, sp, 3), jit.W32, false)
		dc.setReg(uint8(r), v)
		dc.em.Arith(jit.Add, sp, sp, dc.imm(4))
	}
	dc.setReg(emu.RegSP, sp)

	if inst.Reg1 == 0 {
		return
	}
	dest := dc.temp()
	dc.em.Mov(dest, dc.reg(inst.Reg1))
	dc.gotoIndirect(dest)
	dc.State = StateBranch
}

// genPushsp stores rh..rt at decreasing addresses.
func genPushsp(dc *DisasContext, inst *insts.Instruction) {
	if inst.Reg1 > inst.Reg3 {
		return
	}
	sp := dc.temp()
	dc.em.Mov(sp, jit.GPR(emu.RegSP))
	for r := int(inst.Reg1); r <= int(inst.Reg3); r++ {
		dc.em.Arith(jit.Sub, sp, sp, dc.imm(4))
		dc.em.Store(dc.arithi(jit.AndNot, sp, 3), dc.reg(uint8(r)), jit.W32)
	}
	dc.setReg(emu.RegSP, sp)
}

// genPopsp reloads rt down to rh. The slot of sp itself is skipped.
func genPopsp(dc *DisasContext, inst *insts.Instruction) {
	if inst.Reg1 > inst.Reg3 {
		return
	}
	sp := dc.temp()
	dc.em.Mov(sp, jit.GPR(emu.RegSP))
	for r := int(inst.Reg3); r >= int(inst.Reg1); r-- {
		v := dc.temp()
		dc.em.Load(v, dc.arithi(jit.AndNot, sp, 3), jit.W32, false)
		if r != emu.RegSP {
			dc.setReg(uint8(r), v)
		}
		dc.em.Arith(jit.Add, sp, sp, dc.imm(4))
	}
	dc.setReg(emu.RegSP, sp)
}
