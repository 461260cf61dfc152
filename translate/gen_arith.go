package translate

import (
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

var arithGenerators = map[insts.Op]genFunc{
	insts.OpMOV:    genMov,
	insts.OpMOVI5:  genMovImm5,
	insts.OpMOVI32: genMovImm32,
	insts.OpMOVEA:  genMovea,
	insts.OpMOVHI:  genMovhi,

	insts.OpADD:   genAdd,
	insts.OpADDI5: genAddImm5,
	insts.OpADDI:  genAddi,
	insts.OpSUB:   genSub,
	insts.OpSUBR:  genSubr,
	insts.OpCMP:   genCmp,
	insts.OpCMPI5: genCmpImm5,
	insts.OpADF:   genAdfSbf,
	insts.OpSBF:   genAdfSbf,

	insts.OpSATADD:   genSat,
	insts.OpSATADDI5: genSat,
	insts.OpSATADD3:  genSat,
	insts.OpSATSUB:   genSat,
	insts.OpSATSUB3:  genSat,
	insts.OpSATSUBI:  genSat,
	insts.OpSATSUBR:  genSat,

	insts.OpMULH:   genMulh,
	insts.OpMULHI5: genMulh,
	insts.OpMULHI:  genMulh,
	insts.OpMUL:    genMul,
	insts.OpMULI9:  genMul,
	insts.OpMULU:   genMul,
	insts.OpMULUI9: genMul,
	insts.OpMAC:    genMac,
	insts.OpMACU:   genMac,

	insts.OpDIVH:  genDiv,
	insts.OpDIVH3: genDiv,
	insts.OpDIVHU: genDiv,
	insts.OpDIV:   genDiv,
	insts.OpDIVU:  genDiv,
	insts.OpDIVQ:  genDiv,
	insts.OpDIVQU: genDiv,

	insts.OpAND:  genLogic,
	insts.OpOR:   genLogic,
	insts.OpXOR:  genLogic,
	insts.OpANDI: genLogicImm,
	insts.OpORI:  genLogicImm,
	insts.OpXORI: genLogicImm,
	insts.OpNOT:  genNot,
	insts.OpTST:  genTst,

	insts.OpSHL:    genShift,
	insts.OpSHLI5:  genShift,
	insts.OpSHL3:   genShift,
	insts.OpSHR:    genShift,
	insts.OpSHRI5:  genShift,
	insts.OpSHR3:   genShift,
	insts.OpSAR:    genShift,
	insts.OpSARI5:  genShift,
	insts.OpSAR3:   genShift,
	insts.OpROTL:   genShift,
	insts.OpROTLI5: genShift,

	insts.OpSXB: genExtend,
	insts.OpSXH: genExtend,
	insts.OpZXB: genExtend,
	insts.OpZXH: genExtend,

	insts.OpBSW:   genSwap,
	insts.OpBSH:   genSwap,
	insts.OpHSW:   genSwap,
	insts.OpHSH:   genSwap,
	insts.OpSCH0L: genSwap,
	insts.OpSCH0R: genSwap,
	insts.OpSCH1L: genSwap,
	insts.OpSCH1R: genSwap,
	insts.OpBINS:  genBins,

	insts.OpCMOV:   genCmov,
	insts.OpCMOVI5: genCmov,
	insts.OpSETF:   genSetf,
	insts.OpSASF:   genSetf,
}

// addFlags computes a + b and sets Z, S, OV and CY.
func (dc *DisasContext) addFlags(a, b jit.Var) jit.Var {
	r := dc.arith(jit.Add, a, b)
	dc.em.SetCond(jit.LTU, flagCY, r, a)
	ov := dc.arith(jit.AndNot, dc.arith(jit.Xor, r, a), dc.arith(jit.Xor, a, b))
	dc.em.Arith(jit.Shr, flagOV, ov, dc.imm(31))
	dc.setZS(r)
	return r
}

// subFlags computes a - b and sets Z, S, OV and CY. CY is the borrow.
func (dc *DisasContext) subFlags(a, b jit.Var) jit.Var {
	r := dc.arith(jit.Sub, a, b)
	dc.em.SetCond(jit.LTU, flagCY, a, b)
	ov := dc.arith(jit.And, dc.arith(jit.Xor, r, a), dc.arith(jit.Xor, a, b))
	dc.em.Arith(jit.Shr, flagOV, ov, dc.imm(31))
	dc.setZS(r)
	return r
}

func genMov(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.reg(inst.Reg1))
}

func genMovImm5(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.imm(inst.Imm))
}

func genMovImm32(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg1, dc.imm(inst.Imm))
}

func genMovea(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.arithi(jit.Add, dc.reg(inst.Reg1), inst.Imm))
}

func genMovhi(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.arithi(jit.Add, dc.reg(inst.Reg1), inst.Imm<<16))
}

func genAdd(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.addFlags(dc.reg(inst.Reg2), dc.reg(inst.Reg1)))
}

func genAddImm5(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.addFlags(dc.reg(inst.Reg2), dc.imm(inst.Imm)))
}

func genAddi(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.addFlags(dc.reg(inst.Reg1), dc.imm(inst.Imm)))
}

func genSub(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.subFlags(dc.reg(inst.Reg2), dc.reg(inst.Reg1)))
}

func genSubr(dc *DisasContext, inst *insts.Instruction) {
	dc.setReg(inst.Reg2, dc.subFlags(dc.reg(inst.Reg1), dc.reg(inst.Reg2)))
}

func genCmp(dc *DisasContext, inst *insts.Instruction) {
	dc.subFlags(dc.reg(inst.Reg2), dc.reg(inst.Reg1))
}

func genCmpImm5(dc *DisasContext, inst *insts.Instruction) {
	dc.subFlags(dc.reg(inst.Reg2), dc.imm(inst.Imm))
}

// genAdfSbf handles reg3 = reg2 +/- reg1 +/- cond. SA is not a valid
// condition operand and raises the reserved instruction exception.
func genAdfSbf(dc *DisasContext, inst *insts.Instruction) {
	if !inst.Cond.IsArithmeticLegal() {
		genReserved(dc, inst)
		return
	}

	h := helperAdf
	if inst.Op == insts.OpSBF {
		h = helperSbf
	}
	c := dc.genCondition(inst.Cond)
	out := dc.callALU(h, dc.reg(inst.Reg2), dc.reg(inst.Reg1), c)
	dc.setReg(inst.Reg3, out.value)
}

func genSat(dc *DisasContext, inst *insts.Instruction) {
	var (
		h      = helperSatAdd
		a, b   jit.Var
		target = inst.Reg2
	)

	switch inst.Op {
	case insts.OpSATADD:
		a, b = dc.reg(inst.Reg2), dc.reg(inst.Reg1)
	case insts.OpSATADDI5:
		a, b = dc.reg(inst.Reg2), dc.imm(inst.Imm)
	case insts.OpSATADD3:
		a, b = dc.reg(inst.Reg2), dc.reg(inst.Reg1)
		target = inst.Reg3
	case insts.OpSATSUB:
		h = helperSatSub
		a, b = dc.reg(inst.Reg2), dc.reg(inst.Reg1)
	case insts.OpSATSUB3:
		h = helperSatSub
		a, b = dc.reg(inst.Reg2), dc.reg(inst.Reg1)
		target = inst.Reg3
	case insts.OpSATSUBI:
		h = helperSatSub
		a, b = dc.reg(inst.Reg1), dc.imm(inst.Imm)
	case insts.OpSATSUBR:
		h = helperSatSub
		a, b = dc.reg(inst.Reg1), dc.reg(inst.Reg2)
	}

	out := dc.callALU(h, a, b)
	dc.setReg(target, out.value)
}

// genMulh multiplies signed halfwords. Flags are unaffected.
func genMulh(dc *DisasContext, inst *insts.Instruction) {
	var a, b jit.Var
	switch inst.Op {
	case insts.OpMULH:
		a, b = dc.reg(inst.Reg2), dc.reg(inst.Reg1)
	case insts.OpMULHI5:
		a, b = dc.reg(inst.Reg2), dc.imm(inst.Imm)
	default:
		a, b = dc.reg(inst.Reg1), dc.imm(inst.Imm)
	}

	x, y := dc.temp(), dc.temp()
	dc.em.Ext(jit.ExtS16, x, a)
	dc.em.Ext(jit.ExtS16, y, b)
	dc.setReg(inst.Reg2, dc.arith(jit.Mul, x, y))
}

// genMul computes reg3:reg2 = reg2 * operand. The low word is written
// first, so reg3 wins when both name the same register.
func genMul(dc *DisasContext, inst *insts.Instruction) {
	b := dc.reg(inst.Reg1)
	if inst.Op == insts.OpMULI9 || inst.Op == insts.OpMULUI9 {
		b = dc.imm(inst.Imm)
	}
	signed := inst.Op == insts.OpMUL || inst.Op == insts.OpMULI9

	lo, hi := dc.temp(), dc.temp()
	dc.em.Mul2(signed, lo, hi, dc.reg(inst.Reg2), b)
	dc.setReg(inst.Reg2, lo)
	dc.setReg(inst.Reg3, hi)
}

// genMac computes reg4 pair = reg2 * reg1 + reg3 pair.
func genMac(dc *DisasContext, inst *insts.Instruction) {
	plo, phi := dc.temp(), dc.temp()
	dc.em.Mul2(inst.Op == insts.OpMAC, plo, phi, dc.reg(inst.Reg2), dc.reg(inst.Reg1))

	lo, hi := dc.temp(), dc.temp()
	dc.em.Add2(lo, hi, plo, phi, dc.reg(inst.Reg3), dc.reg(inst.Reg3+1))
	dc.setReg(inst.Reg4, lo)
	dc.setReg(inst.Reg4+1, hi)
}

// genDiv divides reg2 by reg1. The quotient goes to reg2 and the remainder
// to reg3, except for the two-operand DIVH which keeps only the quotient.
// A zero divisor leaves every register unchanged.
func genDiv(dc *DisasContext, inst *insts.Instruction) {
	var h *jit.Helper
	switch inst.Op {
	case insts.OpDIVH, insts.OpDIVH3:
		h = helperDivh
	case insts.OpDIVHU:
		h = helperDivhu
	case insts.OpDIV, insts.OpDIVQ:
		h = helperDiv
	default:
		h = helperDivu
	}

	out := dc.callALU(h, dc.reg(inst.Reg2), dc.reg(inst.Reg1))
	dc.ifThen(dc.setCond(jit.EQ, out.discard, dc.imm(0)), func() {
		dc.setReg(inst.Reg2, out.value)
		if inst.Op != insts.OpDIVH {
			dc.setReg(inst.Reg3, out.hi)
		}
	})
}

var logicOps = map[insts.Op]jit.ArithOp{
	insts.OpAND:  jit.And,
	insts.OpANDI: jit.And,
	insts.OpOR:   jit.Or,
	insts.OpORI:  jit.Or,
	insts.OpXOR:  jit.Xor,
	insts.OpXORI: jit.Xor,
}

func genLogic(dc *DisasContext, inst *insts.Instruction) {
	r := dc.arith(logicOps[inst.Op], dc.reg(inst.Reg2), dc.reg(inst.Reg1))
	dc.setLogicFlags(r)
	dc.setReg(inst.Reg2, r)
}

func genLogicImm(dc *DisasContext, inst *insts.Instruction) {
	r := dc.arithi(logicOps[inst.Op], dc.reg(inst.Reg1), inst.Imm)
	dc.setLogicFlags(r)
	dc.setReg(inst.Reg2, r)
}

func genNot(dc *DisasContext, inst *insts.Instruction) {
	r := dc.arithi(jit.Xor, dc.reg(inst.Reg1), 0xffffffff)
	dc.setLogicFlags(r)
	dc.setReg(inst.Reg2, r)
}

func genTst(dc *DisasContext, inst *insts.Instruction) {
	dc.setLogicFlags(dc.arith(jit.And, dc.reg(inst.Reg2), dc.reg(inst.Reg1)))
}

// shiftFlags sets Z, S and CY for r = v op n, clearing OV. n must already
// be reduced modulo 32; a zero amount clears CY.
func (dc *DisasContext) shiftFlags(op jit.ArithOp, v, n, r jit.Var) {
	var out jit.Var
	switch op {
	case jit.Shl:
		out = dc.arith(jit.Shr, v, dc.arith(jit.Sub, dc.imm(32), n))
	case jit.Shr, jit.Sar:
		out = dc.arith(jit.Shr, v, dc.arithi(jit.Sub, n, 1))
	default:
		// ROTL: CY is bit 0 of the result for every count.
		dc.em.Arith(jit.And, flagCY, r, dc.imm(1))
		dc.setLogicFlags(r)
		return
	}

	nonZero := dc.setCond(jit.NE, n, dc.imm(0))
	dc.em.Arith(jit.And, flagCY, dc.arithi(jit.And, out, 1), nonZero)
	dc.setLogicFlags(r)
}

type shiftForm struct {
	op    jit.ArithOp
	imm   bool
	three bool
}

var shiftForms = map[insts.Op]shiftForm{
	insts.OpSHL:    {op: jit.Shl},
	insts.OpSHLI5:  {op: jit.Shl, imm: true},
	insts.OpSHL3:   {op: jit.Shl, three: true},
	insts.OpSHR:    {op: jit.Shr},
	insts.OpSHRI5:  {op: jit.Shr, imm: true},
	insts.OpSHR3:   {op: jit.Shr, three: true},
	insts.OpSAR:    {op: jit.Sar},
	insts.OpSARI5:  {op: jit.Sar, imm: true},
	insts.OpSAR3:   {op: jit.Sar, three: true},
	insts.OpROTL:   {op: jit.Rotl, three: true},
	insts.OpROTLI5: {op: jit.Rotl, imm: true, three: true},
}

func genShift(dc *DisasContext, inst *insts.Instruction) {
	form := shiftForms[inst.Op]

	var n jit.Var
	if form.imm {
		n = dc.imm(inst.Imm & 31)
	} else {
		n = dc.arithi(jit.And, dc.reg(inst.Reg1), 31)
	}

	v := dc.reg(inst.Reg2)
	r := dc.arith(form.op, v, n)
	dc.shiftFlags(form.op, v, n, r)

	if form.three {
		dc.setReg(inst.Reg3, r)
	} else {
		dc.setReg(inst.Reg2, r)
	}
}

var extendOps = map[insts.Op]jit.ExtOp{
	insts.OpSXB: jit.ExtS8,
	insts.OpSXH: jit.ExtS16,
	insts.OpZXB: jit.ExtU8,
	insts.OpZXH: jit.ExtU16,
}

func genExtend(dc *DisasContext, inst *insts.Instruction) {
	if inst.Reg1 == 0 {
		return
	}
	r := jit.GPR(inst.Reg1)
	dc.em.Ext(extendOps[inst.Op], r, r)
}

var swapHelpers = map[insts.Op]*jit.Helper{
	insts.OpBSW:   helperBsw,
	insts.OpBSH:   helperBsh,
	insts.OpHSW:   helperHsw,
	insts.OpHSH:   helperHsh,
	insts.OpSCH0L: helperSch0L,
	insts.OpSCH0R: helperSch0R,
	insts.OpSCH1L: helperSch1L,
	insts.OpSCH1R: helperSch1R,
}

// genSwap covers the byte swaps and bit searches: reg3 = f(reg2).
func genSwap(dc *DisasContext, inst *insts.Instruction) {
	out := dc.callALU(swapHelpers[inst.Op], dc.reg(inst.Reg2))
	dc.setReg(inst.Reg3, out.value)
}

// genBins inserts the low Width bits of reg1 into reg2 at Pos.
func genBins(dc *DisasContext, inst *insts.Instruction) {
	mask := uint32((uint64(1)<<inst.Width - 1) << inst.Pos)
	field := dc.arithi(jit.And, dc.arithi(jit.Shl, dc.reg(inst.Reg1), uint32(inst.Pos)), mask)
	kept := dc.arithi(jit.AndNot, dc.reg(inst.Reg2), mask)
	r := dc.arith(jit.Or, kept, field)
	dc.setLogicFlags(r)
	dc.setReg(inst.Reg2, r)
}

// genCmov selects reg3 = cond ? operand : reg2.
func genCmov(dc *DisasContext, inst *insts.Instruction) {
	var src jit.Var
	if inst.Op == insts.OpCMOVI5 {
		src = dc.imm(inst.Imm)
	} else {
		src = dc.reg(inst.Reg1)
	}
	other := dc.reg(inst.Reg2)

	r := dc.temp()
	dc.ifElse(dc.genCondition(inst.Cond),
		func() { dc.em.Mov(r, src) },
		func() { dc.em.Mov(r, other) })
	dc.setReg(inst.Reg3, r)
}

func genSetf(dc *DisasContext, inst *insts.Instruction) {
	c := dc.genCondition(inst.Cond)
	if inst.Op == insts.OpSASF {
		c = dc.arith(jit.Or, dc.arithi(jit.Shl, dc.reg(inst.Reg2), 1), c)
	}
	dc.setReg(inst.Reg2, c)
}
