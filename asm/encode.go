// Package asm assembles RH850 source text into machine code. It pairs an
// encoder that inverts the decoder's operand conventions with a two-pass
// line assembler whose immediates are Starlark expressions.
package asm

import (
	"fmt"

	"github.com/sarchlab/rh850sim/insts"
)

func fitsSigned(v int64, n uint) bool {
	return v >= -(1<<(n-1)) && v < 1<<(n-1)
}

func fitsUnsigned(v int64, n uint) bool {
	return v >= 0 && v < 1<<n
}

// fmt1 builds the common first halfword: reg2 [15:11] | opcode [10:5] | reg1 [4:0].
func fmt1(reg1 uint8, opc uint16, reg2 uint8) uint16 {
	return uint16(reg2)<<11 | opc<<5 | uint16(reg1)
}

// ext builds an opcode 111111 extended instruction.
func ext(reg1, reg2 uint8, hw1 uint16) []uint16 {
	return []uint16{fmt1(reg1, 0x3f, reg2), hw1}
}

func extR3(reg1, reg2, reg3 uint8, sub uint16) []uint16 {
	return ext(reg1, reg2, uint16(reg3)<<11|sub)
}

var regRegOpcodes = map[insts.Op]uint16{
	insts.OpNOT: 0x01, insts.OpOR: 0x08, insts.OpXOR: 0x09, insts.OpAND: 0x0a,
	insts.OpTST: 0x0b, insts.OpSUBR: 0x0c, insts.OpSUB: 0x0d, insts.OpADD: 0x0e,
	insts.OpCMP: 0x0f,
}

// reg2Opcodes are Format I operations that need a non-zero reg2.
var reg2Opcodes = map[insts.Op]uint16{
	insts.OpMOV: 0x00, insts.OpDIVH: 0x02, insts.OpSATSUBR: 0x04,
	insts.OpSATSUB: 0x05, insts.OpSATADD: 0x06, insts.OpMULH: 0x07,
}

var extendOpcodes = map[insts.Op]uint16{
	insts.OpZXB: 0x04, insts.OpSXB: 0x05, insts.OpZXH: 0x06, insts.OpSXH: 0x07,
}

type imm5Form struct {
	opc       uint16
	signed    bool
	needsReg2 bool
}

var imm5Forms = map[insts.Op]imm5Form{
	insts.OpMOVI5:    {0x10, true, true},
	insts.OpSATADDI5: {0x11, true, true},
	insts.OpADDI5:    {0x12, true, false},
	insts.OpCMPI5:    {0x13, true, false},
	insts.OpSHRI5:    {0x14, false, false},
	insts.OpSARI5:    {0x15, false, false},
	insts.OpSHLI5:    {0x16, false, false},
	insts.OpMULHI5:   {0x17, true, false},
}

type imm16Form struct {
	opc       uint16
	signed    bool
	needsReg2 bool
}

var imm16Forms = map[insts.Op]imm16Form{
	insts.OpADDI:    {0x30, true, false},
	insts.OpMOVEA:   {0x31, true, true},
	insts.OpMOVHI:   {0x32, false, true},
	insts.OpSATSUBI: {0x33, true, true},
	insts.OpORI:     {0x34, false, false},
	insts.OpXORI:    {0x35, false, false},
	insts.OpANDI:    {0x36, false, false},
	insts.OpMULHI:   {0x37, true, true},
}

// extSubs maps operations fully selected by the second halfword.
var extSubs = map[insts.Op]uint16{
	insts.OpSHR: 0x80, insts.OpSAR: 0xa0, insts.OpSHL: 0xc0,
	insts.OpSHR3: 0x82, insts.OpSAR3: 0xa2, insts.OpSHL3: 0xc2, insts.OpROTL: 0xc6,
	insts.OpSET1R: 0xe0, insts.OpNOT1R: 0xe2, insts.OpCLR1R: 0xe4, insts.OpTST1R: 0xe6,
	insts.OpCAXI: 0xee,
	insts.OpMUL: 0x220, insts.OpMULU: 0x222,
	insts.OpDIVH3: 0x280, insts.OpDIVHU: 0x282, insts.OpDIV: 0x2c0, insts.OpDIVU: 0x2c2,
	insts.OpDIVQ: 0x2fc, insts.OpDIVQU: 0x2fe,
	insts.OpBSW: 0x340, insts.OpBSH: 0x342, insts.OpHSW: 0x344, insts.OpHSH: 0x346,
	insts.OpSCH0R: 0x360, insts.OpSCH1R: 0x362, insts.OpSCH0L: 0x364, insts.OpSCH1L: 0x366,
	insts.OpSATSUB3: 0x39a, insts.OpSATADD3: 0x3ba,
}

// specialHalfwords holds operand-free Format X instructions.
var specialHalfwords = map[insts.Op][2]uint16{
	insts.OpHALT:   {0x07e0, 0x0120},
	insts.OpSNOOZE: {0x0fe0, 0x0120},
	insts.OpCTRET:  {0x07e0, 0x0144},
	insts.OpEIRET:  {0x07e0, 0x0148},
	insts.OpFERET:  {0x07e0, 0x014a},
	insts.OpDI:     {0x07e0, 0x0160},
	insts.OpEI:     {0x87e0, 0x0160},
}

var bitOpIndex = map[insts.Op]uint16{
	insts.OpSET1: 0, insts.OpNOT1: 1, insts.OpCLR1: 2, insts.OpTST1: 3,
}

type disp23Form struct {
	sub   uint16
	hi    bool
	disp7 bool
}

var disp23Forms = map[insts.Op]disp23Form{
	insts.OpLDB:  {0x5, false, true},
	insts.OpLDBU: {0x5, true, true},
	insts.OpLDH:  {0x7, false, false},
	insts.OpLDHU: {0x7, true, false},
	insts.OpLDW:  {0x9, false, false},
	insts.OpLDDW: {0x9, true, false},
	insts.OpSTB:  {0xd, false, true},
	insts.OpSTH:  {0xd, true, false},
	insts.OpSTW:  {0xf, false, false},
	insts.OpSTDW: {0xf, true, false},
}

// Encode returns the halfwords of inst, first halfword first. Operand
// fields follow the decoder's conventions, so decoding the result yields
// the same operation and operands. Where an operation has several
// encodings the shortest one that holds the operands is chosen, unless
// Format names a longer one.
func Encode(inst *insts.Instruction) ([]uint16, error) {
	if inst.Reg1 > 31 || inst.Reg2 > 31 || inst.Reg3 > 31 || inst.Reg4 > 31 {
		return nil, ErrRegisterInvalid
	}

	r1, r2, r3 := inst.Reg1, inst.Reg2, inst.Reg3
	imm := int64(int32(inst.Imm))
	uimm := int64(inst.Imm)
	disp := int64(inst.Disp)

	if opc, ok := regRegOpcodes[inst.Op]; ok {
		return []uint16{fmt1(r1, opc, r2)}, nil
	}
	if opc, ok := reg2Opcodes[inst.Op]; ok {
		if r2 == 0 || (inst.Op == insts.OpDIVH && r1 == 0) {
			return nil, ErrRegisterInvalid
		}
		return []uint16{fmt1(r1, opc, r2)}, nil
	}
	if opc, ok := extendOpcodes[inst.Op]; ok {
		return []uint16{fmt1(r1, opc, 0)}, nil
	}
	if form, ok := imm5Forms[inst.Op]; ok {
		return encodeImm5(inst, form)
	}
	if form, ok := imm16Forms[inst.Op]; ok {
		return encodeImm16(inst, form)
	}
	if sub, ok := extSubs[inst.Op]; ok {
		return extR3(r1, r2, r3, sub), nil
	}
	if hw, ok := specialHalfwords[inst.Op]; ok {
		return hw[:], nil
	}
	if _, ok := disp23Forms[inst.Op]; ok {
		return encodeLoadStore(inst)
	}
	if idx, ok := bitOpIndex[inst.Op]; ok {
		if inst.Imm > 7 || !fitsSigned(disp, 16) {
			return nil, ErrRange
		}
		return []uint16{idx<<14 | uint16(inst.Imm)<<11 | 0x3e<<5 | uint16(r1), uint16(disp)}, nil
	}

	switch inst.Op {
	case insts.OpNOP:
		return []uint16{0}, nil
	case insts.OpSYNC:
		if inst.Imm < 0x1c || inst.Imm > 0x1f {
			return nil, ErrRange
		}
		return []uint16{uint16(inst.Imm)}, nil
	case insts.OpSWITCH:
		if r1 == 0 {
			return nil, ErrRegisterInvalid
		}
		return []uint16{fmt1(r1, 0x02, 0)}, nil
	case insts.OpJMP:
		if inst.Format == insts.FormatVI48 || disp != 0 {
			if disp&1 != 0 {
				return nil, ErrAlign
			}
			return []uint16{0x06e0 | uint16(r1), uint16(disp), uint16(disp >> 16)}, nil
		}
		return []uint16{fmt1(r1, 0x03, 0)}, nil
	case insts.OpRIE:
		if inst.Imm == 0 {
			return []uint16{0x0040}, nil
		}
		if inst.Imm > 0x1ff {
			return nil, ErrRange
		}
		return []uint16{uint16(inst.Imm>>4)<<11 | 0x07f0 | uint16(inst.Imm&0xf), 0}, nil
	case insts.OpFETRAP:
		if inst.Imm == 0 || inst.Imm > 15 {
			return nil, ErrRange
		}
		return []uint16{uint16(inst.Imm)<<11 | 0x02<<5}, nil
	case insts.OpCALLT:
		if inst.Imm > 63 {
			return nil, ErrRange
		}
		return []uint16{0x0200 | uint16(inst.Imm)}, nil
	case insts.OpTRAP:
		if inst.Imm > 31 {
			return nil, ErrRange
		}
		return []uint16{0x07e0 | uint16(inst.Imm), 0x0100}, nil
	case insts.OpSYSCALL:
		if inst.Imm > 0xff {
			return nil, ErrRange
		}
		return []uint16{0xd7e0 | uint16(inst.Imm&0x1f), uint16(inst.Imm>>5)<<11 | 0x0160}, nil
	case insts.OpBcond:
		return encodeBcond(inst)
	case insts.OpJR, insts.OpJARL:
		return encodeJump(inst)
	case insts.OpJARLR:
		return []uint16{0xc7e0 | uint16(r1), uint16(r2)<<11 | 0x0160}, nil
	case insts.OpPUSHSP:
		return []uint16{0x47e0 | uint16(r1), uint16(r3)<<11 | 0x0160}, nil
	case insts.OpPOPSP:
		return []uint16{0x67e0 | uint16(r1), uint16(r3)<<11 | 0x0160}, nil
	case insts.OpPREF:
		if inst.Imm > 31 {
			return nil, ErrRange
		}
		return []uint16{0xdfe0 | uint16(r1), uint16(inst.Imm)<<11 | 0x0160}, nil
	case insts.OpCACHE:
		if inst.Imm > 0x7f {
			return nil, ErrRange
		}
		reg2 := 0x1c | uint8(inst.Imm>>5)
		return ext(r1, reg2, uint16(inst.Imm&0x1f)<<11|0x0160), nil
	case insts.OpLOOP:
		if disp&1 != 0 {
			return nil, ErrAlign
		}
		if !fitsUnsigned(disp, 16) {
			return nil, ErrRange
		}
		return []uint16{0x06e0 | uint16(r1), uint16(disp) | 1}, nil
	case insts.OpMOVI32:
		return []uint16{0x0620 | uint16(r1), uint16(inst.Imm), uint16(inst.Imm >> 16)}, nil
	case insts.OpLDLW:
		return extR3(r1, 0, r2, 0x0378), nil
	case insts.OpSTCW:
		return extR3(r1, 0, r2, 0x037a), nil
	case insts.OpLDSR:
		if inst.RegID > 31 || inst.SelID > 31 {
			return nil, ErrSysRegInvalid
		}
		return ext(r1, inst.RegID, uint16(inst.SelID)<<11|0x20), nil
	case insts.OpSTSR:
		if inst.RegID > 31 || inst.SelID > 31 {
			return nil, ErrSysRegInvalid
		}
		return ext(inst.RegID, r2, uint16(inst.SelID)<<11|0x40), nil
	case insts.OpSETF:
		return ext(uint8(inst.Cond&0xf), r2, 0), nil
	case insts.OpSASF:
		return ext(uint8(inst.Cond&0xf), r2, 0x0200), nil
	case insts.OpROTLI5:
		if uimm > 31 {
			return nil, ErrRange
		}
		return extR3(uint8(uimm), r2, r3, 0xc4), nil
	case insts.OpBINS:
		return encodeBins(inst)
	case insts.OpMULI9, insts.OpMULUI9:
		return encodeMulImm9(inst)
	case insts.OpCMOV:
		return extR3(r1, r2, r3, 0x0320|uint16(inst.Cond&0xf)<<1), nil
	case insts.OpCMOVI5:
		if !fitsSigned(imm, 5) {
			return nil, ErrRange
		}
		return extR3(uint8(imm&0x1f), r2, r3, 0x0300|uint16(inst.Cond&0xf)<<1), nil
	case insts.OpADF, insts.OpSBF:
		if !inst.Cond.IsArithmeticLegal() {
			return nil, ErrConditionInvalid
		}
		sub := uint16(0x0380)
		if inst.Op == insts.OpADF {
			sub = 0x03a0
		}
		return extR3(r1, r2, r3, sub|uint16(inst.Cond&0xf)<<1), nil
	case insts.OpMAC, insts.OpMACU:
		if r3&1 != 0 || inst.Reg4&1 != 0 {
			return nil, ErrRegisterInvalid
		}
		sub := uint16(0x03c0)
		if inst.Op == insts.OpMACU {
			sub = 0x03e0
		}
		return ext(r1, r2, uint16(r3>>1)<<12|sub|uint16(inst.Reg4>>1)<<1), nil
	case insts.OpPREPARE:
		return encodePrepare(inst)
	case insts.OpDISPOSE:
		return encodeDispose(inst)
	}

	return nil, ErrUnencodable(inst.Op.String())
}

func encodeImm5(inst *insts.Instruction, form imm5Form) ([]uint16, error) {
	if form.needsReg2 && inst.Reg2 == 0 {
		return nil, ErrRegisterInvalid
	}

	v := int64(inst.Imm)
	if form.signed {
		v = int64(int32(inst.Imm))
	}
	if (form.signed && !fitsSigned(v, 5)) || (!form.signed && !fitsUnsigned(v, 5)) {
		return nil, ErrRange
	}
	return []uint16{fmt1(uint8(v&0x1f), form.opc, inst.Reg2)}, nil
}

func encodeImm16(inst *insts.Instruction, form imm16Form) ([]uint16, error) {
	if form.needsReg2 && inst.Reg2 == 0 {
		return nil, ErrRegisterInvalid
	}

	v := int64(inst.Imm)
	if form.signed {
		v = int64(int32(inst.Imm))
	}
	if (form.signed && !fitsSigned(v, 16)) || (!form.signed && !fitsUnsigned(v, 16)) {
		return nil, ErrRange
	}
	return []uint16{fmt1(inst.Reg1, form.opc, inst.Reg2), uint16(v)}, nil
}

func encodeBcond(inst *insts.Instruction) ([]uint16, error) {
	d := int64(inst.Disp)
	if d&1 != 0 {
		return nil, ErrAlign
	}

	cond := uint16(inst.Cond & 0xf)
	if inst.Format != insts.FormatVII && fitsSigned(d, 9) {
		return []uint16{0x0580 | uint16(d>>4&0x1f)<<11 | uint16(d>>1&7)<<4 | cond}, nil
	}
	if !fitsSigned(d, 17) {
		return nil, ErrRange
	}
	return []uint16{0x07e0 | uint16(d>>16&1)<<4 | cond, uint16(d)&0xfffe | 1}, nil
}

func encodeJump(inst *insts.Instruction) ([]uint16, error) {
	d := int64(inst.Disp)
	if d&1 != 0 {
		return nil, ErrAlign
	}
	link := inst.Reg2
	if inst.Op == insts.OpJARL && link == 0 {
		return nil, ErrRegisterInvalid
	}
	if inst.Op == insts.OpJR {
		link = 0
	}

	if inst.Format != insts.FormatVI48 && fitsSigned(d, 22) {
		return []uint16{uint16(link)<<11 | 0x0780 | uint16(d>>16&0x3f), uint16(d) & 0xfffe}, nil
	}
	return []uint16{0x02e0 | uint16(link), uint16(d), uint16(d >> 16)}, nil
}

// shortForms maps the ep-relative loads and stores to their opcode field
// and displacement scale.
var shortForms = map[insts.Op]struct {
	opc   uint16
	shift uint
	max   int64
}{
	insts.OpLDB: {0x6, 0, 127},
	insts.OpSTB: {0x7, 0, 127},
	insts.OpLDH: {0x8, 1, 254},
	insts.OpSTH: {0x9, 1, 254},
	insts.OpLDW: {0xa, 2, 252},
	insts.OpSTW: {0xa, 2, 252},
}

func encodeShort(inst *insts.Instruction) ([]uint16, error) {
	d := int64(inst.Disp)
	if inst.Reg1 != 30 {
		return nil, ErrMemoryOperand
	}

	switch inst.Op {
	case insts.OpLDBU, insts.OpLDHU:
		shift, bit := uint(0), uint16(0)
		if inst.Op == insts.OpLDHU {
			shift, bit = 1, 0x10
		}
		if d&(1<<shift-1) != 0 {
			return nil, ErrAlign
		}
		if !fitsUnsigned(d>>shift, 4) || inst.Reg2 == 0 {
			return nil, ErrRange
		}
		return []uint16{fmt1(0, 0x03, inst.Reg2) | bit | uint16(d>>shift)}, nil
	}

	form, ok := shortForms[inst.Op]
	if !ok {
		return nil, ErrUnencodable(inst.Op.String())
	}
	if d&(1<<form.shift-1) != 0 {
		return nil, ErrAlign
	}
	if d < 0 || d > form.max {
		return nil, ErrRange
	}

	hw := uint16(inst.Reg2)<<11 | form.opc<<7
	if inst.Op == insts.OpLDW || inst.Op == insts.OpSTW {
		hw |= uint16(d>>2) << 1
		if inst.Op == insts.OpSTW {
			hw |= 1
		}
	} else {
		hw |= uint16(d >> form.shift)
	}
	return []uint16{hw}, nil
}

func encodeLoadStore(inst *insts.Instruction) ([]uint16, error) {
	if inst.Format == insts.FormatIV {
		return encodeShort(inst)
	}

	d := int64(inst.Disp)
	r1, r2 := inst.Reg1, inst.Reg2
	form := disp23Forms[inst.Op]
	if !form.disp7 && d&1 != 0 {
		return nil, ErrAlign
	}

	if inst.Format != insts.FormatXIV && fitsSigned(d, 16) {
		switch inst.Op {
		case insts.OpLDB:
			return []uint16{fmt1(r1, 0x38, r2), uint16(d)}, nil
		case insts.OpLDH:
			return []uint16{fmt1(r1, 0x39, r2), uint16(d)}, nil
		case insts.OpLDW:
			return []uint16{fmt1(r1, 0x39, r2), uint16(d) | 1}, nil
		case insts.OpSTB:
			return []uint16{fmt1(r1, 0x3a, r2), uint16(d)}, nil
		case insts.OpSTH:
			return []uint16{fmt1(r1, 0x3b, r2), uint16(d)}, nil
		case insts.OpSTW:
			return []uint16{fmt1(r1, 0x3b, r2), uint16(d) | 1}, nil
		case insts.OpLDBU:
			if r2 != 0 {
				return []uint16{fmt1(r1, 0x3c, r2) | uint16(d&1)<<5, uint16(d)&0xfffe | 1}, nil
			}
		case insts.OpLDHU:
			if r2 != 0 {
				return []uint16{fmt1(r1, 0x3f, r2), uint16(d) | 1}, nil
			}
		}
	}

	if !fitsSigned(d, 23) {
		return nil, ErrRange
	}

	hw0 := uint16(0x0780) | uint16(r1)
	if form.hi {
		hw0 |= 0x20
	}
	hw1 := uint16(r2)<<11 | form.sub
	if form.disp7 {
		hw1 |= uint16(d&0x7f) << 4
	} else {
		hw1 |= uint16(d>>1&0x3f) << 5
	}
	return []uint16{hw0, hw1, uint16(d >> 7)}, nil
}

func encodeBins(inst *insts.Instruction) ([]uint16, error) {
	lsb, width := uint16(inst.Pos), uint16(inst.Width)
	if width == 0 || lsb+width > 32 {
		return nil, ErrRange
	}
	msb := lsb + width - 1

	var sub uint16
	switch {
	case lsb >= 16:
		sub, msb, lsb = 0, msb-16, lsb-16
	case msb >= 16:
		sub, msb = 1, msb-16
	default:
		sub = 2
	}

	hw1 := msb<<12 | (lsb>>3&1)<<11 | sub<<5 | 0x90 | (lsb&7)<<1
	return ext(inst.Reg1, inst.Reg2, hw1), nil
}

func encodeMulImm9(inst *insts.Instruction) ([]uint16, error) {
	v := int64(inst.Imm)
	sub := uint16(0x0240)
	if inst.Op == insts.OpMULUI9 {
		sub |= 2
		if !fitsUnsigned(v, 9) {
			return nil, ErrRange
		}
	} else {
		v = int64(int32(inst.Imm))
		if !fitsSigned(v, 9) {
			return nil, ErrRange
		}
	}

	u := uint16(v) & 0x1ff
	return extR3(uint8(u&0x1f), inst.Reg2, inst.Reg3, sub|(u>>5)<<2), nil
}

// frame checks a PREPARE/DISPOSE register list and stack adjustment and
// returns the list12 bits.
func frame(inst *insts.Instruction) (uint32, error) {
	if inst.List&^0xfff00000 != 0 {
		return 0, ErrListInvalid
	}
	if inst.Imm&3 != 0 {
		return 0, ErrAlign
	}
	if inst.Imm>>2 > 31 {
		return 0, ErrRange
	}
	return insts.EncodeList12(inst.List), nil
}

func encodePrepare(inst *insts.Instruction) ([]uint16, error) {
	l, err := frame(inst)
	if err != nil {
		return nil, err
	}

	hw0 := uint16(0x0780) | uint16(inst.Imm>>2)<<1 | uint16(l&1)
	hw1 := uint16(l>>16) & 0xffe0

	switch {
	case !inst.SetEP:
		return []uint16{hw0, hw1 | 0x01}, nil
	case !inst.EPImm:
		return []uint16{hw0, hw1 | 0x03}, nil
	}

	ep := inst.Imm2
	switch {
	case fitsSigned(int64(int32(ep)), 16):
		return []uint16{hw0, hw1 | 0x0b, uint16(ep)}, nil
	case ep&0xffff == 0:
		return []uint16{hw0, hw1 | 0x13, uint16(ep >> 16)}, nil
	default:
		return []uint16{hw0, hw1 | 0x1b, uint16(ep), uint16(ep >> 16)}, nil
	}
}

func encodeDispose(inst *insts.Instruction) ([]uint16, error) {
	l, err := frame(inst)
	if err != nil {
		return nil, err
	}

	hw0 := uint16(0x0640) | uint16(inst.Imm>>2)<<1 | uint16(l&1)
	hw1 := uint16(l>>16)&0xffe0 | uint16(inst.Reg1)
	return []uint16{hw0, hw1}, nil
}

// Bytes flattens halfwords into little-endian bytes.
func Bytes(hws []uint16) []byte {
	b := make([]byte, 0, 2*len(hws))
	for _, hw := range hws {
		b = append(b, byte(hw), byte(hw>>8))
	}
	return b
}

// MustEncode is Encode for instructions known to be encodable. It panics
// otherwise.
func MustEncode(inst *insts.Instruction) []uint16 {
	hws, err := Encode(inst)
	if err != nil {
		panic(fmt.Sprintf("encode %v: %v", inst.Op, err))
	}
	return hws
}
