package asm

import (
	"strings"

	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
)

type handler func(p *pass, args []string) (*insts.Instruction, error)

var handlers map[string]handler

func init() {
	handlers = map[string]handler{
		"mov":     (*pass).mov,
		"movea":   imm16(insts.OpMOVEA),
		"movhi":   imm16(insts.OpMOVHI),
		"addi":    imm16(insts.OpADDI),
		"ori":     imm16(insts.OpORI),
		"xori":    imm16(insts.OpXORI),
		"andi":    imm16(insts.OpANDI),
		"satsubi": imm16(insts.OpSATSUBI),
		"mulhi":   imm16(insts.OpMULHI),

		"add":     regOrImm5(insts.OpADD, insts.OpADDI5),
		"cmp":     regOrImm5(insts.OpCMP, insts.OpCMPI5),
		"mulh":    regOrImm5(insts.OpMULH, insts.OpMULHI5),
		"satadd":  twoOrThree(regOrImm5(insts.OpSATADD, insts.OpSATADDI5), insts.OpSATADD3),
		"satsub":  twoOrThree(regReg(insts.OpSATSUB), insts.OpSATSUB3),
		"divh":    twoOrThree(regReg(insts.OpDIVH), insts.OpDIVH3),
		"shl":     twoOrThree(regOrImm5(insts.OpSHL, insts.OpSHLI5), insts.OpSHL3),
		"shr":     twoOrThree(regOrImm5(insts.OpSHR, insts.OpSHRI5), insts.OpSHR3),
		"sar":     twoOrThree(regOrImm5(insts.OpSAR, insts.OpSARI5), insts.OpSAR3),
		"satsubr": regReg(insts.OpSATSUBR),
		"sub":     regReg(insts.OpSUB),
		"subr":    regReg(insts.OpSUBR),
		"and":     regReg(insts.OpAND),
		"or":      regReg(insts.OpOR),
		"xor":     regReg(insts.OpXOR),
		"tst":     regReg(insts.OpTST),
		"not":     regReg(insts.OpNOT),

		"mul":   regOrImm9(insts.OpMUL, insts.OpMULI9),
		"mulu":  regOrImm9(insts.OpMULU, insts.OpMULUI9),
		"rotl":  regOrImm9(insts.OpROTL, insts.OpROTLI5),
		"div":   threeReg(insts.OpDIV),
		"divu":  threeReg(insts.OpDIVU),
		"divq":  threeReg(insts.OpDIVQ),
		"divqu": threeReg(insts.OpDIVQU),
		"divhu": threeReg(insts.OpDIVHU),
		"mac":   mac(insts.OpMAC),
		"macu":  mac(insts.OpMACU),

		"sxb": oneReg(insts.OpSXB),
		"sxh": oneReg(insts.OpSXH),
		"zxb": oneReg(insts.OpZXB),
		"zxh": oneReg(insts.OpZXH),

		"bsw":   reg2Reg3(insts.OpBSW),
		"bsh":   reg2Reg3(insts.OpBSH),
		"hsw":   reg2Reg3(insts.OpHSW),
		"hsh":   reg2Reg3(insts.OpHSH),
		"sch0l": reg2Reg3(insts.OpSCH0L),
		"sch0r": reg2Reg3(insts.OpSCH0R),
		"sch1l": reg2Reg3(insts.OpSCH1L),
		"sch1r": reg2Reg3(insts.OpSCH1R),
		"bins":  (*pass).bins,
		"cmov":  (*pass).cmov,
		"setf":  condReg(insts.OpSETF),
		"sasf":  condReg(insts.OpSASF),
		"adf":   carry(insts.OpADF),
		"sbf":   carry(insts.OpSBF),

		"set1": bitOp(insts.OpSET1, insts.OpSET1R),
		"not1": bitOp(insts.OpNOT1, insts.OpNOT1R),
		"clr1": bitOp(insts.OpCLR1, insts.OpCLR1R),
		"tst1": bitOp(insts.OpTST1, insts.OpTST1R),

		"jr":      (*pass).jr,
		"jarl":    (*pass).jarl,
		"jmp":     (*pass).jmp,
		"loop":    (*pass).loop,
		"switch":  oneReg(insts.OpSWITCH),
		"callt":   vector(insts.OpCALLT),
		"trap":    vector(insts.OpTRAP),
		"fetrap":  vector(insts.OpFETRAP),
		"syscall": vector(insts.OpSYSCALL),
		"rie":     (*pass).rie,

		"ctret":  bare(insts.OpCTRET),
		"eiret":  bare(insts.OpEIRET),
		"feret":  bare(insts.OpFERET),
		"halt":   bare(insts.OpHALT),
		"snooze": bare(insts.OpSNOOZE),
		"nop":    bare(insts.OpNOP),
		"ei":     bare(insts.OpEI),
		"di":     bare(insts.OpDI),
		"synci":  syncOp(0x1c),
		"synce":  syncOp(0x1d),
		"syncm":  syncOp(0x1e),
		"syncp":  syncOp(0x1f),

		"ld.b":   load(insts.OpLDB, insts.FormatUnknown),
		"ld.bu":  load(insts.OpLDBU, insts.FormatUnknown),
		"ld.h":   load(insts.OpLDH, insts.FormatUnknown),
		"ld.hu":  load(insts.OpLDHU, insts.FormatUnknown),
		"ld.w":   load(insts.OpLDW, insts.FormatUnknown),
		"ld.dw":  load(insts.OpLDDW, insts.FormatXIV),
		"sld.b":  load(insts.OpLDB, insts.FormatIV),
		"sld.bu": load(insts.OpLDBU, insts.FormatIV),
		"sld.h":  load(insts.OpLDH, insts.FormatIV),
		"sld.hu": load(insts.OpLDHU, insts.FormatIV),
		"sld.w":  load(insts.OpLDW, insts.FormatIV),
		"st.b":   store(insts.OpSTB, insts.FormatUnknown),
		"st.h":   store(insts.OpSTH, insts.FormatUnknown),
		"st.w":   store(insts.OpSTW, insts.FormatUnknown),
		"st.dw":  store(insts.OpSTDW, insts.FormatXIV),
		"sst.b":  store(insts.OpSTB, insts.FormatIV),
		"sst.h":  store(insts.OpSTH, insts.FormatIV),
		"sst.w":  store(insts.OpSTW, insts.FormatIV),
		"ldl.w":  (*pass).ldl,
		"stc.w":  (*pass).stc,
		"caxi":   (*pass).caxi,

		"prepare": (*pass).prepare,
		"dispose": (*pass).dispose,
		"pushsp":  regRange(insts.OpPUSHSP),
		"popsp":   regRange(insts.OpPOPSP),
		"ldsr":    (*pass).ldsr,
		"stsr":    (*pass).stsr,
		"cache":   hint(insts.OpCACHE),
		"pref":    hint(insts.OpPREF),
	}
}

// instruction assembles one instruction line.
func (p *pass) instruction(op string, args []string) ([]uint16, error) {
	h, ok := handlers[op]
	if !ok {
		h, ok = branchHandler(op)
	}
	if !ok {
		return nil, ErrOpcodeInvalid
	}

	inst, err := h(p, args)
	if err != nil {
		return nil, err
	}
	return Encode(inst)
}

// branchHandler recognizes "br" and "b<cond>".
func branchHandler(op string) (handler, bool) {
	if op == "br" {
		op = "bt"
	}
	if !strings.HasPrefix(op, "b") {
		return nil, false
	}
	cond, ok := parseCond(op[1:])
	if !ok {
		return nil, false
	}

	return func(p *pass, args []string) (*insts.Instruction, error) {
		if len(args) != 1 {
			return nil, ErrOperandCount
		}
		d, err := p.relative(args[0])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: insts.OpBcond, Cond: cond, Disp: d}, nil
	}, true
}

func want(args []string, n int) error {
	if len(args) != n {
		return ErrOperandCount
	}
	return nil
}

func (p *pass) reg(s string) (uint8, error) {
	r, ok := parseReg(s)
	if !ok {
		return 0, ErrRegisterInvalid
	}
	return r, nil
}

func (p *pass) regs(args []string) ([]uint8, error) {
	out := make([]uint8, len(args))
	for i, a := range args {
		r, err := p.reg(a)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (p *pass) cond(s string) (insts.Cond, error) {
	c, ok := parseCond(s)
	if !ok {
		return 0, ErrConditionInvalid
	}
	return c, nil
}

// relative evaluates a target address as a displacement from pc.
func (p *pass) relative(s string) (int32, error) {
	v, err := p.expr(s)
	if err != nil {
		return 0, err
	}
	return int32(v - int64(p.pc)), nil
}

// memory parses "disp[reg]".
func (p *pass) memory(s string) (int32, uint8, error) {
	dispText, baseText, ok := splitMemory(s)
	if !ok {
		return 0, 0, ErrMemoryOperand
	}
	base, err := p.reg(baseText)
	if err != nil {
		return 0, 0, err
	}
	disp, err := p.expr(dispText)
	if err != nil {
		return 0, 0, err
	}
	return int32(disp), base, nil
}

func (p *pass) indirect(s string) (uint8, error) {
	r, ok := parseIndirect(s)
	if !ok {
		return 0, ErrMemoryOperand
	}
	return r, nil
}

func bare(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 0); err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op}, nil
	}
}

func syncOp(code uint32) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 0); err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: insts.OpSYNC, Imm: code}, nil
	}
}

func vector(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 1); err != nil {
			return nil, err
		}
		v, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, ErrRange
		}
		return &insts.Instruction{Op: op, Imm: uint32(v)}, nil
	}
}

func oneReg(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 1); err != nil {
			return nil, err
		}
		r, err := p.reg(args[0])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Reg1: r}, nil
	}
}

func regReg(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		r, err := p.regs(args)
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Reg1: r[0], Reg2: r[1]}, nil
	}
}

func threeReg(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 3); err != nil {
			return nil, err
		}
		r, err := p.regs(args)
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Reg1: r[0], Reg2: r[1], Reg3: r[2]}, nil
	}
}

func reg2Reg3(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		r, err := p.regs(args)
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Reg2: r[0], Reg3: r[1]}, nil
	}
}

// twoOrThree selects the three-register form when a third operand is given.
func twoOrThree(two handler, three insts.Op) handler {
	h3 := threeReg(three)
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if len(args) == 3 {
			return h3(p, args)
		}
		return two(p, args)
	}
}

func regOrImm5(regOp, immOp insts.Op) handler {
	rr := regReg(regOp)
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		if isReg(args[0]) {
			return rr(p, args)
		}
		v, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		r2, err := p.reg(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: immOp, Imm: uint32(v), Reg2: r2}, nil
	}
}

func regOrImm9(regOp, immOp insts.Op) handler {
	rrr := threeReg(regOp)
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 3); err != nil {
			return nil, err
		}
		if isReg(args[0]) {
			return rrr(p, args)
		}
		v, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		r, err := p.regs(args[1:])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: immOp, Imm: uint32(v), Reg2: r[0], Reg3: r[1]}, nil
	}
}

func imm16(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 3); err != nil {
			return nil, err
		}
		v, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		r, err := p.regs(args[1:])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Imm: uint32(v), Reg1: r[0], Reg2: r[1]}, nil
	}
}

func condReg(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		c, err := p.cond(args[0])
		if err != nil {
			return nil, err
		}
		r2, err := p.reg(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Cond: c, Reg2: r2}, nil
	}
}

func bitOp(immOp, regOp insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}

		if isReg(args[0]) {
			r2, _ := parseReg(args[0])
			r1, err := p.indirect(args[1])
			if err != nil {
				return nil, err
			}
			return &insts.Instruction{Op: regOp, Reg1: r1, Reg2: r2}, nil
		}

		bit, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		if bit < 0 || bit > 7 {
			return nil, ErrRange
		}
		disp, base, err := p.memory(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: immOp, Imm: uint32(bit), Reg1: base, Disp: disp}, nil
	}
}

func load(op insts.Op, format insts.Format) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		disp, base, err := p.memory(args[0])
		if err != nil {
			return nil, err
		}
		r2, err := p.reg(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Format: format, Reg1: base, Reg2: r2, Disp: disp}, nil
	}
}

func store(op insts.Op, format insts.Format) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		r2, err := p.reg(args[0])
		if err != nil {
			return nil, err
		}
		disp, base, err := p.memory(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Format: format, Reg1: base, Reg2: r2, Disp: disp}, nil
	}
}

func regRange(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 1); err != nil {
			return nil, err
		}
		rh, rt, ok := parseRange(args[0])
		if !ok || rh > rt {
			return nil, ErrListInvalid
		}
		return &insts.Instruction{Op: op, Reg1: rh, Reg3: rt}, nil
	}
}

func hint(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 2); err != nil {
			return nil, err
		}
		v, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, ErrRange
		}
		r1, err := p.indirect(args[1])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Imm: uint32(v), Reg1: r1}, nil
	}
}

func (p *pass) mov(args []string) (*insts.Instruction, error) {
	if err := want(args, 2); err != nil {
		return nil, err
	}
	dst, err := p.reg(args[1])
	if err != nil {
		return nil, err
	}
	if src, ok := parseReg(args[0]); ok {
		return &insts.Instruction{Op: insts.OpMOV, Reg1: src, Reg2: dst}, nil
	}

	v, err := p.expr(args[0])
	if err != nil {
		return nil, err
	}
	if fitsSigned(v, 5) && dst != 0 {
		return &insts.Instruction{Op: insts.OpMOVI5, Imm: uint32(v), Reg2: dst}, nil
	}
	return &insts.Instruction{Op: insts.OpMOVI32, Imm: uint32(v), Reg1: dst}, nil
}

func mac(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 4); err != nil {
			return nil, err
		}
		r, err := p.regs(args)
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Reg1: r[0], Reg2: r[1], Reg3: r[2], Reg4: r[3]}, nil
	}
}

func (p *pass) bins(args []string) (*insts.Instruction, error) {
	if err := want(args, 4); err != nil {
		return nil, err
	}
	r1, err := p.reg(args[0])
	if err != nil {
		return nil, err
	}
	pos, err := p.expr(args[1])
	if err != nil {
		return nil, err
	}
	width, err := p.expr(args[2])
	if err != nil {
		return nil, err
	}
	if pos < 0 || pos > 31 || width < 1 || width > 32 {
		return nil, ErrRange
	}
	r2, err := p.reg(args[3])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpBINS, Reg1: r1, Reg2: r2,
		Pos: uint8(pos), Width: uint8(width)}, nil
}

func (p *pass) cmov(args []string) (*insts.Instruction, error) {
	if err := want(args, 4); err != nil {
		return nil, err
	}
	c, err := p.cond(args[0])
	if err != nil {
		return nil, err
	}
	r, err := p.regs(args[2:])
	if err != nil {
		return nil, err
	}

	if r1, ok := parseReg(args[1]); ok {
		return &insts.Instruction{Op: insts.OpCMOV, Cond: c, Reg1: r1, Reg2: r[0], Reg3: r[1]}, nil
	}
	v, err := p.expr(args[1])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpCMOVI5, Cond: c, Imm: uint32(v), Reg2: r[0], Reg3: r[1]}, nil
}

func carry(op insts.Op) handler {
	return func(p *pass, args []string) (*insts.Instruction, error) {
		if err := want(args, 4); err != nil {
			return nil, err
		}
		c, err := p.cond(args[0])
		if err != nil {
			return nil, err
		}
		r, err := p.regs(args[1:])
		if err != nil {
			return nil, err
		}
		return &insts.Instruction{Op: op, Cond: c, Reg1: r[0], Reg2: r[1], Reg3: r[2]}, nil
	}
}

func (p *pass) jr(args []string) (*insts.Instruction, error) {
	if err := want(args, 1); err != nil {
		return nil, err
	}
	d, err := p.relative(args[0])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpJR, Disp: d}, nil
}

func (p *pass) jarl(args []string) (*insts.Instruction, error) {
	if err := want(args, 2); err != nil {
		return nil, err
	}
	link, err := p.reg(args[1])
	if err != nil {
		return nil, err
	}

	if r1, ok := parseIndirect(args[0]); ok {
		return &insts.Instruction{Op: insts.OpJARLR, Reg1: r1, Reg2: link}, nil
	}
	d, err := p.relative(args[0])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpJARL, Disp: d, Reg2: link}, nil
}

func (p *pass) jmp(args []string) (*insts.Instruction, error) {
	if err := want(args, 1); err != nil {
		return nil, err
	}
	if r1, ok := parseIndirect(args[0]); ok {
		return &insts.Instruction{Op: insts.OpJMP, Reg1: r1}, nil
	}
	disp, base, err := p.memory(args[0])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpJMP, Format: insts.FormatVI48, Reg1: base, Disp: disp}, nil
}

// loop counts reg1 down and branches backwards to the target while it is
// non-zero.
func (p *pass) loop(args []string) (*insts.Instruction, error) {
	if err := want(args, 2); err != nil {
		return nil, err
	}
	r1, err := p.reg(args[0])
	if err != nil {
		return nil, err
	}
	if r1 == 0 {
		return nil, ErrRegisterInvalid
	}
	d, err := p.relative(args[1])
	if err != nil {
		return nil, err
	}
	if d > 0 {
		return nil, ErrRange
	}
	return &insts.Instruction{Op: insts.OpLOOP, Reg1: r1, Disp: -d}, nil
}

// rie takes no operands or the imm5, imm4 pair of its long form.
func (p *pass) rie(args []string) (*insts.Instruction, error) {
	switch len(args) {
	case 0:
		return &insts.Instruction{Op: insts.OpRIE}, nil
	case 2:
		hi, err := p.expr(args[0])
		if err != nil {
			return nil, err
		}
		lo, err := p.expr(args[1])
		if err != nil {
			return nil, err
		}
		if !fitsUnsigned(hi, 5) || !fitsUnsigned(lo, 4) || hi|lo == 0 {
			return nil, ErrRange
		}
		return &insts.Instruction{Op: insts.OpRIE, Imm: uint32(hi<<4 | lo)}, nil
	}
	return nil, ErrOperandCount
}

func (p *pass) ldl(args []string) (*insts.Instruction, error) {
	if err := want(args, 2); err != nil {
		return nil, err
	}
	r1, err := p.indirect(args[0])
	if err != nil {
		return nil, err
	}
	r2, err := p.reg(args[1])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpLDLW, Reg1: r1, Reg2: r2}, nil
}

func (p *pass) stc(args []string) (*insts.Instruction, error) {
	if err := want(args, 2); err != nil {
		return nil, err
	}
	r2, err := p.reg(args[0])
	if err != nil {
		return nil, err
	}
	r1, err := p.indirect(args[1])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpSTCW, Reg1: r1, Reg2: r2}, nil
}

func (p *pass) caxi(args []string) (*insts.Instruction, error) {
	if err := want(args, 3); err != nil {
		return nil, err
	}
	r1, err := p.indirect(args[0])
	if err != nil {
		return nil, err
	}
	r, err := p.regs(args[1:])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpCAXI, Reg1: r1, Reg2: r[0], Reg3: r[1]}, nil
}

// frameSize evaluates a PREPARE/DISPOSE stack adjustment given in words.
func (p *pass) frameSize(s string) (uint32, error) {
	v, err := p.expr(s)
	if err != nil {
		return 0, err
	}
	if !fitsUnsigned(v, 5) {
		return 0, ErrRange
	}
	return uint32(v) << 2, nil
}

func (p *pass) prepare(args []string) (*insts.Instruction, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, ErrOperandCount
	}
	list, err := parseList(args[0])
	if err != nil {
		return nil, err
	}
	size, err := p.frameSize(args[1])
	if err != nil {
		return nil, err
	}

	inst := &insts.Instruction{Op: insts.OpPREPARE, List: list, Imm: size}
	if len(args) == 3 {
		inst.SetEP = true
		if r, ok := parseReg(args[2]); !ok || r != emu.RegSP {
			v, err := p.expr(args[2])
			if err != nil {
				return nil, err
			}
			inst.EPImm = true
			inst.Imm2 = uint32(v)
		}
	}
	return inst, nil
}

func (p *pass) dispose(args []string) (*insts.Instruction, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, ErrOperandCount
	}
	size, err := p.frameSize(args[0])
	if err != nil {
		return nil, err
	}
	list, err := parseList(args[1])
	if err != nil {
		return nil, err
	}

	inst := &insts.Instruction{Op: insts.OpDISPOSE, List: list, Imm: size}
	if len(args) == 3 {
		if inst.Reg1, err = p.indirect(args[2]); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// sysReg resolves a system register operand: a name such as "psw", or a
// register number with an optional selector operand.
func (p *pass) sysReg(name string, sel []string) (uint8, uint8, error) {
	if len(sel) > 1 {
		return 0, 0, ErrOperandCount
	}
	if r, ok := emu.LookupSysReg(strings.TrimSpace(name)); ok {
		if len(sel) != 0 {
			return 0, 0, ErrOperandCount
		}
		return r.Index, uint8(r.Bank), nil
	}

	id, err := p.expr(name)
	if err != nil {
		return 0, 0, ErrSysRegInvalid
	}
	var bank int64
	if len(sel) == 1 {
		if bank, err = p.expr(sel[0]); err != nil {
			return 0, 0, err
		}
	}
	if !fitsUnsigned(id, 5) || !fitsUnsigned(bank, 5) {
		return 0, 0, ErrSysRegInvalid
	}
	return uint8(id), uint8(bank), nil
}

func (p *pass) ldsr(args []string) (*insts.Instruction, error) {
	if len(args) < 2 {
		return nil, ErrOperandCount
	}
	r1, err := p.reg(args[0])
	if err != nil {
		return nil, err
	}
	id, sel, err := p.sysReg(args[1], args[2:])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpLDSR, Reg1: r1, RegID: id, SelID: sel}, nil
}

func (p *pass) stsr(args []string) (*insts.Instruction, error) {
	if len(args) < 2 {
		return nil, ErrOperandCount
	}
	r2, err := p.reg(args[1])
	if err != nil {
		return nil, err
	}
	id, sel, err := p.sysReg(args[0], args[2:])
	if err != nil {
		return nil, err
	}
	return &insts.Instruction{Op: insts.OpSTSR, Reg2: r2, RegID: id, SelID: sel}, nil
}
