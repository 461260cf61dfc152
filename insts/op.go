package insts

// Op represents an RH850 operation kind. The same enumeration is consumed
// by the block translator, so no opcode constants are duplicated outside
// this package.
type Op uint16

// RH850 operations.
const (
	OpUnknown Op = iota

	// Data movement
	OpMOV    // MOV reg1, reg2
	OpMOVI5  // MOV imm5, reg2
	OpMOVI32 // MOV imm32, reg1
	OpMOVEA
	OpMOVHI

	// Add/subtract
	OpADD
	OpADDI5
	OpADDI
	OpSUB
	OpSUBR
	OpCMP
	OpCMPI5
	OpADF
	OpSBF

	// Saturating arithmetic
	OpSATADD
	OpSATADDI5
	OpSATADD3
	OpSATSUB
	OpSATSUB3
	OpSATSUBI
	OpSATSUBR

	// Multiply
	OpMULH
	OpMULHI5
	OpMULHI
	OpMUL
	OpMULI9
	OpMULU
	OpMULUI9
	OpMAC
	OpMACU

	// Divide
	OpDIVH // 16-bit two-operand form
	OpDIVH3
	OpDIVHU
	OpDIV
	OpDIVU
	OpDIVQ
	OpDIVQU

	// Logic
	OpAND
	OpANDI
	OpOR
	OpORI
	OpXOR
	OpXORI
	OpNOT
	OpTST

	// Shift and rotate
	OpSHL
	OpSHLI5
	OpSHL3
	OpSHR
	OpSHRI5
	OpSHR3
	OpSAR
	OpSARI5
	OpSAR3
	OpROTLI5
	OpROTL

	// Extension
	OpSXB
	OpSXH
	OpZXB
	OpZXH

	// Data manipulation
	OpBSW
	OpBSH
	OpHSW
	OpHSH
	OpBINS
	OpCMOV
	OpCMOVI5
	OpSETF
	OpSASF
	OpSCH0L
	OpSCH0R
	OpSCH1L
	OpSCH1R

	// Bit manipulation
	OpSET1 // bit#3, disp16[reg1]
	OpNOT1
	OpCLR1
	OpTST1
	OpSET1R // reg2, [reg1]
	OpNOT1R
	OpCLR1R
	OpTST1R

	// Control transfer
	OpBcond
	OpJR
	OpJARL
	OpJARLR // JARL [reg1], reg3
	OpJMP
	OpLOOP
	OpSWITCH
	OpCALLT
	OpCTRET
	OpEIRET
	OpFERET
	OpTRAP
	OpFETRAP
	OpSYSCALL
	OpRIE

	// Load/store
	OpLDB
	OpLDBU
	OpLDH
	OpLDHU
	OpLDW
	OpLDDW
	OpSTB
	OpSTH
	OpSTW
	OpSTDW
	OpLDLW
	OpSTCW
	OpCAXI
	OpPREPARE
	OpDISPOSE
	OpPUSHSP
	OpPOPSP

	// System
	OpLDSR
	OpSTSR
	OpEI
	OpDI
	OpHALT
	OpSNOOZE
	OpNOP
	OpSYNC
	OpCACHE
	OpPREF

	numOps
)

var opNames = [numOps]string{
	OpUnknown: "unknown",
	OpMOV: "mov", OpMOVI5: "mov", OpMOVI32: "mov", OpMOVEA: "movea", OpMOVHI: "movhi",
	OpADD: "add", OpADDI5: "add", OpADDI: "addi", OpSUB: "sub", OpSUBR: "subr",
	OpCMP: "cmp", OpCMPI5: "cmp", OpADF: "adf", OpSBF: "sbf",
	OpSATADD: "satadd", OpSATADDI5: "satadd", OpSATADD3: "satadd", OpSATSUB: "satsub",
	OpSATSUB3: "satsub", OpSATSUBI: "satsubi", OpSATSUBR: "satsubr",
	OpMULH: "mulh", OpMULHI5: "mulh", OpMULHI: "mulhi", OpMUL: "mul", OpMULI9: "mul",
	OpMULU: "mulu", OpMULUI9: "mulu", OpMAC: "mac", OpMACU: "macu",
	OpDIVH: "divh", OpDIVH3: "divh", OpDIVHU: "divhu", OpDIV: "div", OpDIVU: "divu",
	OpDIVQ: "divq", OpDIVQU: "divqu",
	OpAND: "and", OpANDI: "andi", OpOR: "or", OpORI: "ori", OpXOR: "xor", OpXORI: "xori",
	OpNOT: "not", OpTST: "tst",
	OpSHL: "shl", OpSHLI5: "shl", OpSHL3: "shl", OpSHR: "shr", OpSHRI5: "shr", OpSHR3: "shr",
	OpSAR: "sar", OpSARI5: "sar", OpSAR3: "sar", OpROTLI5: "rotl", OpROTL: "rotl",
	OpSXB: "sxb", OpSXH: "sxh", OpZXB: "zxb", OpZXH: "zxh",
	OpBSW: "bsw", OpBSH: "bsh", OpHSW: "hsw", OpHSH: "hsh", OpBINS: "bins",
	OpCMOV: "cmov", OpCMOVI5: "cmov", OpSETF: "setf", OpSASF: "sasf",
	OpSCH0L: "sch0l", OpSCH0R: "sch0r", OpSCH1L: "sch1l", OpSCH1R: "sch1r",
	OpSET1: "set1", OpNOT1: "not1", OpCLR1: "clr1", OpTST1: "tst1",
	OpSET1R: "set1", OpNOT1R: "not1", OpCLR1R: "clr1", OpTST1R: "tst1",
	OpBcond: "b", OpJR: "jr", OpJARL: "jarl", OpJARLR: "jarl", OpJMP: "jmp",
	OpLOOP: "loop", OpSWITCH: "switch", OpCALLT: "callt", OpCTRET: "ctret",
	OpEIRET: "eiret", OpFERET: "feret", OpTRAP: "trap", OpFETRAP: "fetrap",
	OpSYSCALL: "syscall", OpRIE: "rie",
	OpLDB: "ld.b", OpLDBU: "ld.bu", OpLDH: "ld.h", OpLDHU: "ld.hu", OpLDW: "ld.w",
	OpLDDW: "ld.dw", OpSTB: "st.b", OpSTH: "st.h", OpSTW: "st.w", OpSTDW: "st.dw",
	OpLDLW: "ldl.w", OpSTCW: "stc.w", OpCAXI: "caxi", OpPREPARE: "prepare",
	OpDISPOSE: "dispose", OpPUSHSP: "pushsp", OpPOPSP: "popsp",
	OpLDSR: "ldsr", OpSTSR: "stsr", OpEI: "ei", OpDI: "di", OpHALT: "halt",
	OpSNOOZE: "snooze", OpNOP: "nop", OpSYNC: "sync", OpCACHE: "cache", OpPREF: "pref",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if op < numOps && opNames[op] != "" {
		return opNames[op]
	}
	return "unknown"
}

// IsNop reports whether the operation is architecturally allowed to have
// no effect on this target (barriers, cache and prefetch hints).
func (op Op) IsNop() bool {
	switch op {
	case OpNOP, OpSYNC, OpCACHE, OpPREF, OpSNOOZE:
		return true
	}
	return false
}

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats, numbered as in the architecture manual.
const (
	FormatUnknown Format = iota
	FormatI              // reg-reg, 16-bit
	FormatII             // imm5-reg, 16-bit
	FormatIII            // conditional branch disp9
	FormatIV             // short load/store off ep
	FormatV              // JR/JARL disp22
	FormatVI             // 3-operand imm16, MOV imm32
	FormatVII            // load/store disp16
	FormatVIII           // bit manipulation disp16
	FormatIX             // extended reg-reg
	FormatX              // extended special
	FormatXI             // extended 3-register
	FormatXII            // extended register + immediate
	FormatXIII           // PREPARE/DISPOSE
	FormatXIV            // load/store disp23
	FormatVI48           // JMP/JR/JARL disp32
)

// Cond represents an RH850 condition code.
type Cond uint8

// RH850 condition codes.
const (
	CondV  Cond = 0x0 // OV == 1
	CondC  Cond = 0x1 // CY == 1
	CondZ  Cond = 0x2 // Z == 1
	CondNH Cond = 0x3 // (CY | Z) == 1
	CondS  Cond = 0x4 // S == 1
	CondT  Cond = 0x5 // always
	CondLT Cond = 0x6 // (S ^ OV) == 1
	CondLE Cond = 0x7 // ((S ^ OV) | Z) == 1
	CondNV Cond = 0x8 // OV == 0
	CondNC Cond = 0x9 // CY == 0
	CondNZ Cond = 0xA // Z == 0
	CondH  Cond = 0xB // (CY | Z) == 0
	CondNS Cond = 0xC // S == 0
	CondSA Cond = 0xD // SAT == 1
	CondGE Cond = 0xE // (S ^ OV) == 0
	CondGT Cond = 0xF // ((S ^ OV) | Z) == 0
)

// Condition code aliases used by the assembler syntax.
const (
	CondL  = CondC
	CondE  = CondZ
	CondN  = CondS
	CondNL = CondNC
	CondNE = CondNZ
	CondP  = CondNS
)

var condNames = [16]string{
	"v", "c", "z", "nh", "s", "t", "lt", "le",
	"nv", "nc", "nz", "h", "ns", "sa", "ge", "gt",
}

// String returns the condition mnemonic.
func (c Cond) String() string {
	return condNames[c&0xf]
}

// IsArithmeticLegal reports whether the condition may be used as the
// operand of a conditional add or subtract (ADF/SBF).
func (c Cond) IsArithmeticLegal() bool {
	return c != CondSA
}
