package insts

import (
	"encoding/binary"
	"fmt"
)

// HalfwordReader supplies instruction halfwords to the decoder.
type HalfwordReader interface {
	// Read16 returns the little-endian halfword at addr.
	Read16(addr uint32) uint16
}

// Instruction represents a decoded RH850 instruction.
type Instruction struct {
	Op     Op     // Operation kind
	Format Format // Encoding format
	Len    uint8  // Length in bytes: 2, 4, 6 or 8
	Raw    uint64 // Instruction halfwords, first halfword in bits [15:0]

	// Register fields
	Reg1 uint8 // First source or base register
	Reg2 uint8 // Second source, destination, data or link register
	Reg3 uint8 // Extended-form destination
	Reg4 uint8 // MAC/MACU destination pair

	// Immediate operands
	Imm  uint32 // Extended immediate, vector, bit number or frame size
	Imm2 uint32 // PREPARE ep operand when EPImm is set
	Disp int32  // Signed displacement in bytes
	Cond Cond   // Condition code

	// System register access
	RegID uint8 // System register number
	SelID uint8 // System register bank selector

	// Multi-register and bit-field operands
	List  uint32 // PREPARE/DISPOSE register mask, bit n selects rn
	Pos   uint8  // BINS least significant bit
	Width uint8  // BINS field width
	SetEP bool   // PREPARE updates ep
	EPImm bool   // PREPARE takes ep from Imm2 instead of sp
}

// String renders the instruction for tracing.
func (i *Instruction) String() string {
	return fmt.Sprintf("%-8s r1=%d r2=%d r3=%d imm=%#x disp=%d cond=%s len=%d",
		i.Op, i.Reg1, i.Reg2, i.Reg3, i.Imm, i.Disp, i.Cond, i.Len)
}

// Decoder decodes RH850 machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RH850 instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// bits extracts n bits of v starting at bit lo.
func bits(v uint32, lo, n uint) uint32 {
	return (v >> lo) & (1<<n - 1)
}

// sext sign-extends the low n bits of v.
func sext(v uint32, n uint) int32 {
	s := 32 - n
	return int32(v<<s) >> s
}

// Is16Bit reports whether the leading halfword encodes a 16-bit
// instruction. Bits [10:9] == 0b11 mark the 32-bit formats, and
// bits [15:5] == 0x17 mark the 48-bit JR/JARL disp32 forms.
func Is16Bit(hw0 uint16) bool {
	w := uint32(hw0)
	return bits(w, 9, 2) != 0x3 && bits(w, 5, 11) != 0x17
}

// Is48Bit reports whether the first two halfwords (hw0 in the low half)
// encode a 48-bit instruction.
func Is48Bit(w uint32) bool {
	switch {
	case bits(w, 6, 11) == 0x41e && (bits(w, 17, 2) > 1 || bits(w, 16, 5) == 0x09):
		// LD/ST disp23, including LD.W and LD.DW
	case bits(w, 5, 11) == 0x31:
		// MOV imm32, reg1
	case bits(w, 5, 12) == 0x37:
		// JMP disp32[reg1]
	case bits(w, 5, 11) == 0x17:
		// JR/JARL disp32
	default:
		return false
	}
	return true
}

// Length returns the instruction length in bytes given its first two
// halfwords. PREPARE immediates beyond the first 32 bits are not counted.
func Length(hw0, hw1 uint16) int {
	if Is16Bit(hw0) {
		return 2
	}
	if Is48Bit(uint32(hw0) | uint32(hw1)<<16) {
		return 6
	}
	return 4
}

// Decode decodes the instruction at pc, fetching only as many halfwords as
// its length requires.
func (d *Decoder) Decode(r HalfwordReader, pc uint32) *Instruction {
	hw0 := r.Read16(pc)
	if Is16Bit(hw0) {
		return d.decode16(hw0)
	}

	hw1 := r.Read16(pc + 2)
	w := uint32(hw0) | uint32(hw1)<<16
	if Is48Bit(w) {
		hw2 := r.Read16(pc + 4)
		return d.decode48(uint64(w) | uint64(hw2)<<32)
	}

	inst := d.decode32(w)
	if inst.Op == OpPREPARE && inst.EPImm {
		d.decodePrepareImm(r, pc, w, inst)
	}
	return inst
}

// DecodeBytes decodes the instruction at the start of b. Missing bytes
// read as zero.
func (d *Decoder) DecodeBytes(b []byte) *Instruction {
	return d.Decode(byteReader(b), 0)
}

type byteReader []byte

func (b byteReader) Read16(addr uint32) uint16 {
	if uint64(addr)+2 > uint64(len(b)) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[addr:])
}

// decode16 decodes formats I to IV.
// Layout: reg2 [15:11] | opcode [10:5] | reg1 [4:0]
func (d *Decoder) decode16(hw uint16) *Instruction {
	w := uint32(hw)
	inst := &Instruction{
		Len:    2,
		Raw:    uint64(hw),
		Format: FormatI,
		Reg1:   uint8(bits(w, 0, 5)),
		Reg2:   uint8(bits(w, 11, 5)),
	}

	opc := bits(w, 5, 6)
	switch {
	case opc >= 0x2c:
		d.decodeBcond9(w, inst)
	case opc >= 0x18:
		d.decodeShortLoadStore(w, inst)
	case opc >= 0x10:
		d.decodeImm5(w, opc, inst)
	default:
		d.decodeRegReg(w, opc, inst)
	}

	return inst
}

// decodeBcond9 decodes Format III: ddddd 1011 ddd cccc
func (d *Decoder) decodeBcond9(w uint32, inst *Instruction) {
	inst.Op = OpBcond
	inst.Format = FormatIII
	inst.Reg1, inst.Reg2 = 0, 0
	inst.Cond = Cond(bits(w, 0, 4))
	inst.Disp = sext(bits(w, 4, 3)<<1|bits(w, 11, 5)<<4, 9)
}

// decodeShortLoadStore decodes Format IV loads and stores relative to ep.
func (d *Decoder) decodeShortLoadStore(w uint32, inst *Instruction) {
	inst.Format = FormatIV
	inst.Reg1 = 30

	switch bits(w, 7, 4) {
	case 0x6:
		inst.Op = OpLDB
		inst.Disp = int32(bits(w, 0, 7))
	case 0x7:
		inst.Op = OpSTB
		inst.Disp = int32(bits(w, 0, 7))
	case 0x8:
		inst.Op = OpLDH
		inst.Disp = int32(bits(w, 0, 7) << 1)
	case 0x9:
		inst.Op = OpSTH
		inst.Disp = int32(bits(w, 0, 7) << 1)
	case 0xa:
		inst.Op = OpLDW
		if bits(w, 0, 1) == 1 {
			inst.Op = OpSTW
		}
		inst.Disp = int32(bits(w, 1, 6) << 2)
	}
}

// decodeImm5 decodes Format II: reg2 | opcode | imm5
func (d *Decoder) decodeImm5(w, opc uint32, inst *Instruction) {
	inst.Format = FormatII
	imm5 := bits(w, 0, 5)
	simm5 := uint32(sext(imm5, 5))
	inst.Reg1 = 0

	switch opc {
	case 0x10, 0x11:
		if inst.Reg2 == 0 {
			inst.Op = OpCALLT
			inst.Imm = bits(w, 0, 6)
			return
		}
		inst.Op = OpMOVI5
		if opc == 0x11 {
			inst.Op = OpSATADDI5
		}
		inst.Imm = simm5
	case 0x12:
		inst.Op = OpADDI5
		inst.Imm = simm5
	case 0x13:
		inst.Op = OpCMPI5
		inst.Imm = simm5
	case 0x14:
		inst.Op = OpSHRI5
		inst.Imm = imm5
	case 0x15:
		inst.Op = OpSARI5
		inst.Imm = imm5
	case 0x16:
		inst.Op = OpSHLI5
		inst.Imm = imm5
	case 0x17:
		inst.Op = OpMULHI5
		inst.Imm = simm5
	}
}

// regRegOps maps the Format I opcodes whose meaning does not depend on
// sibling fields.
var regRegOps = map[uint32]Op{
	0x01: OpNOT,
	0x08: OpOR,
	0x09: OpXOR,
	0x0a: OpAND,
	0x0b: OpTST,
	0x0c: OpSUBR,
	0x0d: OpSUB,
	0x0e: OpADD,
	0x0f: OpCMP,
}

// decodeRegReg decodes Format I and its reg2 == 0 special cases.
func (d *Decoder) decodeRegReg(w, opc uint32, inst *Instruction) {
	if op, ok := regRegOps[opc]; ok {
		inst.Op = op
		return
	}

	reg1, reg2 := inst.Reg1, inst.Reg2
	switch opc {
	case 0x00:
		switch {
		case reg2 != 0:
			inst.Op = OpMOV
		case reg1 == 0:
			inst.Op = OpNOP
		case reg1 >= 0x1c:
			// SYNCI, SYNCE, SYNCM, SYNCP
			inst.Op = OpSYNC
			inst.Imm = uint32(reg1)
		}
	case 0x02:
		switch {
		case reg1 == 0 && reg2 == 0:
			inst.Op = OpRIE
		case reg2 == 0:
			inst.Op = OpSWITCH
		case reg1 == 0:
			if bits(w, 15, 1) == 0 {
				inst.Op = OpFETRAP
				inst.Format = FormatX
				inst.Imm = bits(w, 11, 4)
				inst.Reg2 = 0
			}
		default:
			inst.Op = OpDIVH
		}
	case 0x03:
		switch {
		case reg2 == 0:
			inst.Op = OpJMP
		case bits(w, 4, 1) == 0:
			inst.Op = OpLDBU
			inst.Format = FormatIV
			inst.Reg1 = 30
			inst.Disp = int32(bits(w, 0, 4))
		default:
			inst.Op = OpLDHU
			inst.Format = FormatIV
			inst.Reg1 = 30
			inst.Disp = int32(bits(w, 0, 4) << 1)
		}
	case 0x04:
		inst.Op = pick(reg2 == 0, OpZXB, OpSATSUBR)
	case 0x05:
		inst.Op = pick(reg2 == 0, OpSXB, OpSATSUB)
	case 0x06:
		inst.Op = pick(reg2 == 0, OpZXH, OpSATADD)
	case 0x07:
		inst.Op = pick(reg2 == 0, OpSXH, OpMULH)
	}
}

func pick(cond bool, a, b Op) Op {
	if cond {
		return a
	}
	return b
}

// decode32 decodes the 32-bit formats.
// Layout: reg2 [15:11] | opcode [10:5] | reg1 [4:0] | second halfword [31:16]
func (d *Decoder) decode32(w uint32) *Instruction {
	inst := &Instruction{
		Len:  4,
		Raw:  uint64(w),
		Reg1: uint8(bits(w, 0, 5)),
		Reg2: uint8(bits(w, 11, 5)),
	}

	imm16 := w >> 16
	opc := bits(w, 5, 6)
	switch opc {
	case 0x30:
		d.setImm16(inst, OpADDI, uint32(sext(imm16, 16)))
	case 0x31:
		d.setImm16(inst, OpMOVEA, uint32(sext(imm16, 16)))
	case 0x32:
		if inst.Reg2 == 0 {
			d.decodeDispose(w, inst)
		} else {
			d.setImm16(inst, OpMOVHI, imm16)
		}
	case 0x33:
		if inst.Reg2 == 0 {
			d.decodeDispose(w, inst)
		} else {
			d.setImm16(inst, OpSATSUBI, uint32(sext(imm16, 16)))
		}
	case 0x34:
		d.setImm16(inst, OpORI, imm16)
	case 0x35:
		d.setImm16(inst, OpXORI, imm16)
	case 0x36:
		d.setImm16(inst, OpANDI, imm16)
	case 0x37:
		if inst.Reg2 != 0 {
			d.setImm16(inst, OpMULHI, uint32(sext(imm16, 16)))
		} else if bits(w, 16, 1) == 1 {
			inst.Op = OpLOOP
			inst.Format = FormatVII
			inst.Disp = int32(bits(w, 17, 15) << 1)
		}
	case 0x38:
		d.setLoadStore16(inst, OpLDB, sext(imm16, 16))
	case 0x39:
		d.setLoadStore16(inst, pick(bits(w, 16, 1) == 0, OpLDH, OpLDW), sext(imm16&^1, 16))
	case 0x3a:
		d.setLoadStore16(inst, OpSTB, sext(imm16, 16))
	case 0x3b:
		d.setLoadStore16(inst, pick(bits(w, 16, 1) == 0, OpSTH, OpSTW), sext(imm16&^1, 16))
	case 0x3c, 0x3d:
		d.decodeJumpOrLoad(w, inst)
	case 0x3e:
		d.decodeBitOp(w, inst)
	case 0x3f:
		d.decodeExtended(w, inst)
	}

	return inst
}

func (d *Decoder) setImm16(inst *Instruction, op Op, imm uint32) {
	inst.Op = op
	inst.Format = FormatVI
	inst.Imm = imm
}

func (d *Decoder) setLoadStore16(inst *Instruction, op Op, disp int32) {
	inst.Op = op
	inst.Format = FormatVII
	inst.Disp = disp
}

// decodeJumpOrLoad decodes opcode 11110x: JR/JARL disp22 (bit 16 clear),
// LD.BU disp16 (bit 16 set, reg2 != 0) and PREPARE (bit 16 set, reg2 == 0).
func (d *Decoder) decodeJumpOrLoad(w uint32, inst *Instruction) {
	if bits(w, 16, 1) == 0 {
		inst.Format = FormatV
		inst.Op = pick(inst.Reg2 == 0, OpJR, OpJARL)
		inst.Reg1 = 0
		inst.Disp = sext(bits(w, 0, 6)<<16|bits(w, 17, 15)<<1, 22)
		return
	}

	if inst.Reg2 != 0 {
		d.setLoadStore16(inst, OpLDBU, sext(bits(w, 17, 15)<<1|bits(w, 5, 1), 16))
		return
	}

	inst.Format = FormatXIII
	inst.Reg1 = 0
	switch {
	case bits(w, 16, 5) == 0x01:
		inst.Op = OpPREPARE
	case bits(w, 16, 3) == 0x03:
		inst.Op = OpPREPARE
		inst.SetEP = true
		inst.EPImm = bits(w, 19, 2) != 0
	default:
		return
	}
	inst.Imm = bits(w, 1, 5) << 2
	inst.List = DecodeList12(w)
}

// decodePrepareImm fetches the ep operand halfwords that follow a
// PREPARE with a non-zero sp/imm field.
func (d *Decoder) decodePrepareImm(r HalfwordReader, pc, w uint32, inst *Instruction) {
	hw2 := uint32(r.Read16(pc + 4))
	inst.Len = 6

	switch bits(w, 19, 2) {
	case 1:
		inst.Imm2 = uint32(sext(hw2, 16))
	case 2:
		inst.Imm2 = hw2 << 16
	case 3:
		hw3 := uint32(r.Read16(pc + 6))
		inst.Imm2 = hw2 | hw3<<16
		inst.Len = 8
	}
	inst.Raw |= uint64(hw2) << 32
}

// decodeDispose decodes DISPOSE imm5, list12 [, [reg1]].
// Layout: 00000 11001 iiiii L | LLLLLLLLLLL RRRRR
func (d *Decoder) decodeDispose(w uint32, inst *Instruction) {
	inst.Op = OpDISPOSE
	inst.Format = FormatXIII
	inst.Imm = bits(w, 1, 5) << 2
	inst.List = DecodeList12(w)
	inst.Reg1 = uint8(bits(w, 16, 5))
}

// decodeBitOp decodes Format VIII: bb bbb 111110 reg1 | disp16
func (d *Decoder) decodeBitOp(w uint32, inst *Instruction) {
	inst.Format = FormatVIII
	inst.Op = [4]Op{OpSET1, OpNOT1, OpCLR1, OpTST1}[bits(w, 14, 2)]
	inst.Imm = bits(w, 11, 3)
	inst.Reg2 = 0
	inst.Disp = sext(w>>16, 16)
}

// decodeExtended decodes opcode 111111, whose second halfword selects the
// operation group through bits [26:23].
func (d *Decoder) decodeExtended(w uint32, inst *Instruction) {
	if bits(w, 16, 1) == 1 {
		if inst.Reg2 == 0 {
			inst.Op = OpBcond
			inst.Format = FormatVII
			inst.Reg1 = 0
			inst.Cond = Cond(bits(w, 0, 4))
			inst.Disp = sext(bits(w, 17, 15)<<1|bits(w, 4, 1)<<16, 17)
		} else {
			d.setLoadStore16(inst, OpLDHU, sext((w>>16)&^1, 16))
		}
		return
	}

	inst.Reg3 = uint8(bits(w, 27, 5))
	switch bits(w, 23, 4) {
	case 0x0:
		d.decodeSysReg(w, inst)
	case 0x1:
		d.decodeShiftBit(w, inst)
	case 0x2:
		d.decodeSpecial(w, inst)
	case 0x4:
		d.decodeMul(w, inst)
	case 0x5:
		d.decodeDiv(w, inst)
	case 0x6:
		d.decodeDataManip(w, inst)
	case 0x7:
		d.decodeArith3(w, inst)
	}
}

// decodeSysReg decodes SETF, RIE (32-bit), LDSR and STSR.
func (d *Decoder) decodeSysReg(w uint32, inst *Instruction) {
	inst.Format = FormatIX
	sel := uint8(bits(w, 27, 5))

	switch bits(w, 21, 2) {
	case 0:
		if bits(w, 16, 16) != 0 {
			return
		}
		if bits(w, 4, 1) == 1 {
			inst.Op = OpRIE
			inst.Format = FormatX
			inst.Imm = uint32(inst.Reg2)<<4 | bits(w, 0, 4)
			inst.Reg1, inst.Reg2 = 0, 0
			return
		}
		inst.Op = OpSETF
		inst.Cond = Cond(bits(w, 0, 4))
		inst.Reg1 = 0
	case 1:
		inst.Op = OpLDSR
		inst.RegID = inst.Reg2
		inst.SelID = sel
		inst.Reg2, inst.Reg3 = 0, 0
	case 2:
		inst.Op = OpSTSR
		inst.RegID = inst.Reg1
		inst.SelID = sel
		inst.Reg1, inst.Reg3 = 0, 0
	}
}

// decodeShiftBit decodes the register shifts, ROTL, BINS and the register
// forms of the bit manipulation instructions.
func (d *Decoder) decodeShiftBit(w uint32, inst *Instruction) {
	inst.Format = FormatIX
	sub := bits(w, 21, 2)

	if sub < 3 && bits(w, 20, 1) == 1 {
		d.decodeBins(w, sub, inst)
		return
	}

	three := bits(w, 17, 1) == 1
	switch sub {
	case 0:
		inst.Op = pick(three, OpSHR3, OpSHR)
	case 1:
		inst.Op = pick(three, OpSAR3, OpSAR)
	case 2:
		switch bits(w, 17, 2) {
		case 0:
			inst.Op = OpSHL
		case 1:
			inst.Op = OpSHL3
		case 2:
			inst.Op = OpROTLI5
			inst.Format = FormatVII
			inst.Imm = uint32(inst.Reg1)
			inst.Reg1 = 0
		case 3:
			inst.Op = OpROTL
		}
	case 3:
		switch bits(w, 16, 4) {
		case 0x0:
			inst.Op = OpSET1R
		case 0x2:
			inst.Op = OpNOT1R
		case 0x4:
			inst.Op = OpCLR1R
		case 0x6:
			inst.Op = OpTST1R
		case 0xe:
			inst.Op = OpCAXI
			inst.Format = FormatXI
		}
	}
}

// decodeBins decodes BINS reg1, pos, width, reg2. The three encodings
// differ in whether msb and lsb carry an implicit +16.
// Layout: MMMM K 0001 ss 1 LLL 0, lsb = K:LLL
func (d *Decoder) decodeBins(w, sub uint32, inst *Instruction) {
	msb := bits(w, 28, 4)
	lsb := bits(w, 17, 3) | bits(w, 27, 1)<<3
	switch sub {
	case 0:
		msb += 16
		lsb += 16
	case 1:
		msb += 16
	}
	if msb < lsb {
		return
	}

	inst.Op = OpBINS
	inst.Format = FormatIX
	inst.Pos = uint8(lsb)
	inst.Width = uint8(msb - lsb + 1)
	inst.Reg3 = 0
}

// decodeSpecial decodes Format X: traps, returns, interrupt control,
// register-indirect calls, stack push/pop and hints.
func (d *Decoder) decodeSpecial(w uint32, inst *Instruction) {
	inst.Format = FormatX
	reg1, reg2, reg3 := inst.Reg1, inst.Reg2, inst.Reg3
	inst.Reg2, inst.Reg3 = 0, 0

	switch bits(w, 16, 11) {
	case 0x100:
		if reg2 == 0 {
			inst.Op = OpTRAP
			inst.Imm = uint32(reg1)
		}
	case 0x120:
		switch reg2 {
		case 0:
			inst.Op = OpHALT
		case 1:
			inst.Op = OpSNOOZE
		}
	case 0x144:
		inst.Op = OpCTRET
	case 0x148:
		inst.Op = OpEIRET
	case 0x14a:
		inst.Op = OpFERET
	case 0x160:
		d.decodeSpecial160(w, reg1, reg2, reg3, inst)
	}
}

// decodeSpecial160 decodes the Format X group whose sub-operation lives
// in the reg2 field.
func (d *Decoder) decodeSpecial160(w uint32, reg1, reg2, reg3 uint8, inst *Instruction) {
	switch {
	case reg2 == 0x00 && reg1 == 0:
		inst.Op = OpDI
	case reg2 == 0x10 && reg1 == 0:
		inst.Op = OpEI
	case reg2 == 0x1a:
		inst.Op = OpSYSCALL
		inst.Imm = uint32(reg1) | bits(w, 27, 3)<<5
		inst.Reg1 = 0
	case reg2 == 0x18:
		inst.Op = OpJARLR
		inst.Reg2 = reg3
	case reg2 == 0x08:
		inst.Op = OpPUSHSP
		inst.Reg3 = reg3
	case reg2 == 0x0c:
		inst.Op = OpPOPSP
		inst.Reg3 = reg3
	case reg2 == 0x1b:
		inst.Op = OpPREF
		inst.Imm = uint32(reg3)
	case reg2 >= 0x1c:
		inst.Op = OpCACHE
		inst.Imm = bits(w, 11, 2)<<5 | uint32(reg3)
	}
}

// decodeMul decodes SASF, MUL/MULU reg and MUL/MULU imm9.
func (d *Decoder) decodeMul(w uint32, inst *Instruction) {
	unsigned := bits(w, 17, 1) == 1

	switch {
	case bits(w, 22, 1) == 1:
		inst.Format = FormatXII
		imm9 := uint32(inst.Reg1) | bits(w, 18, 4)<<5
		inst.Reg1 = 0
		if unsigned {
			inst.Op = OpMULUI9
			inst.Imm = imm9
		} else {
			inst.Op = OpMULI9
			inst.Imm = uint32(sext(imm9, 9))
		}
	case bits(w, 21, 1) == 1:
		inst.Format = FormatXI
		inst.Op = pick(unsigned, OpMULU, OpMUL)
	default:
		if bits(w, 16, 5) != 0 {
			return
		}
		inst.Format = FormatIX
		inst.Op = OpSASF
		inst.Cond = Cond(bits(w, 0, 4))
		inst.Reg1, inst.Reg3 = 0, 0
	}
}

// divOps maps bits [22:16] of the divide group.
var divOps = map[uint32]Op{
	0x00: OpDIVH3,
	0x02: OpDIVHU,
	0x40: OpDIV,
	0x42: OpDIVU,
	0x7c: OpDIVQ,
	0x7e: OpDIVQU,
}

func (d *Decoder) decodeDiv(w uint32, inst *Instruction) {
	if op, ok := divOps[bits(w, 16, 7)]; ok {
		inst.Op = op
		inst.Format = FormatXI
	}
}

// decodeDataManip decodes CMOV, BSW/BSH/HSW/HSH, SCH* and LDL.W/STC.W.
func (d *Decoder) decodeDataManip(w uint32, inst *Instruction) {
	switch bits(w, 21, 2) {
	case 0:
		inst.Op = OpCMOVI5
		inst.Format = FormatXII
		inst.Cond = Cond(bits(w, 17, 4))
		inst.Imm = uint32(sext(uint32(inst.Reg1), 5))
		inst.Reg1 = 0
	case 1:
		inst.Op = OpCMOV
		inst.Format = FormatXI
		inst.Cond = Cond(bits(w, 17, 4))
	case 2:
		inst.Format = FormatXII
		inst.Op = [4]Op{OpBSW, OpBSH, OpHSW, OpHSH}[bits(w, 17, 2)]
	case 3:
		inst.Format = FormatIX
		switch bits(w, 17, 4) {
		case 0x0:
			inst.Op = OpSCH0R
		case 0x1:
			inst.Op = OpSCH1R
		case 0x2:
			inst.Op = OpSCH0L
		case 0x3:
			inst.Op = OpSCH1L
		case 0xc:
			inst.Op = OpLDLW
			inst.Format = FormatVII
			inst.Reg2, inst.Reg3 = inst.Reg3, 0
		case 0xd:
			inst.Op = OpSTCW
			inst.Format = FormatVII
			inst.Reg2, inst.Reg3 = inst.Reg3, 0
		}
	}
}

// decodeArith3 decodes SBF/SATSUB3, ADF/SATADD3, MAC and MACU. The SA
// condition slot of SBF/ADF encodes the saturating forms. Only words with
// bit 16 clear reach here; decodeExtended takes the rest.
func (d *Decoder) decodeArith3(w uint32, inst *Instruction) {
	inst.Format = FormatXI
	cond := Cond(bits(w, 17, 4))

	switch bits(w, 21, 2) {
	case 0, 1:
		adf := bits(w, 21, 2) == 1
		if cond == CondSA {
			inst.Op = pick(adf, OpSATADD3, OpSATSUB3)
		} else {
			inst.Op = pick(adf, OpADF, OpSBF)
			inst.Cond = cond
		}
	case 2, 3:
		inst.Op = pick(bits(w, 21, 2) == 2, OpMAC, OpMACU)
		inst.Reg3 = uint8(bits(w, 28, 4) << 1)
		inst.Reg4 = uint8(bits(w, 17, 4) << 1)
	}
}

// decode48 decodes MOV imm32, JMP disp32, JR/JARL disp32 and the disp23
// loads and stores.
func (d *Decoder) decode48(v uint64) *Instruction {
	w := uint32(v)
	inst := &Instruction{
		Len:  6,
		Raw:  v,
		Reg1: uint8(bits(w, 0, 5)),
	}
	imm32 := uint32(v >> 16)

	switch {
	case bits(w, 5, 11) == 0x31:
		inst.Op = OpMOVI32
		inst.Format = FormatVI
		inst.Imm = imm32
	case bits(w, 5, 12) == 0x37:
		inst.Op = OpJMP
		inst.Format = FormatVI48
		inst.Disp = int32(imm32 &^ 1)
	case bits(w, 5, 11) == 0x17:
		inst.Format = FormatVI48
		inst.Op = pick(inst.Reg1 == 0, OpJR, OpJARL)
		inst.Reg2 = inst.Reg1
		inst.Reg1 = 0
		inst.Disp = int32(imm32 &^ 1)
	default:
		d.decodeDisp23(w, uint32(v>>32), inst)
	}

	return inst
}

// decodeDisp23 decodes Format XIV.
// Layout: 00000 11110 b reg1 | reg3 ddddddd ssss | DDDDDDDDDDDDDDDD
func (d *Decoder) decodeDisp23(w, hw2 uint32, inst *Instruction) {
	inst.Format = FormatXIV
	inst.Reg2 = uint8(bits(w, 27, 5))
	hi := bits(w, 5, 1) == 1
	disp7 := bits(w, 20, 7) | hw2<<7
	disp6 := bits(w, 21, 6)<<1 | hw2<<7

	var disp uint32
	switch bits(w, 16, 4) {
	case 0x5:
		inst.Op = pick(hi, OpLDBU, OpLDB)
		disp = disp7
	case 0x7:
		inst.Op = pick(hi, OpLDHU, OpLDH)
		disp = disp6
	case 0x9:
		inst.Op = pick(hi, OpLDDW, OpLDW)
		disp = disp6
	case 0xd:
		if hi {
			inst.Op = OpSTH
			disp = disp6
		} else {
			inst.Op = OpSTB
			disp = disp7
		}
	case 0xf:
		inst.Op = pick(hi, OpSTDW, OpSTW)
		disp = disp6
	default:
		inst.Reg2 = 0
		return
	}
	inst.Disp = sext(disp, 23)
}

// list12Map pairs each list12 encoding bit with the register it selects.
var list12Map = [12]struct {
	bit uint
	reg uint
}{
	{0, 30}, {21, 31}, {22, 29}, {23, 28},
	{24, 23}, {25, 22}, {26, 21}, {27, 20},
	{28, 27}, {29, 26}, {30, 25}, {31, 24},
}

// DecodeList12 converts the list12 field of a PREPARE/DISPOSE word into a
// register mask with bit n set for rn.
func DecodeList12(w uint32) uint32 {
	var mask uint32
	for _, e := range list12Map {
		if (w>>e.bit)&1 == 1 {
			mask |= 1 << e.reg
		}
	}
	return mask
}

// EncodeList12 converts a register mask into list12 bits positioned as in
// the instruction word. Registers outside r20-r31 are ignored.
func EncodeList12(mask uint32) uint32 {
	var w uint32
	for _, e := range list12Map {
		if (mask>>e.reg)&1 == 1 {
			w |= 1 << e.bit
		}
	}
	return w
}
