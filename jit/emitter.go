package jit

// ArithOp is a two-operand arithmetic or logic operation.
type ArithOp uint8

// Arithmetic operations. Shift and rotate amounts are taken modulo 32.
const (
	Add ArithOp = iota
	Sub
	Mul
	And
	Or
	Xor
	AndNot
	Shl
	Shr
	Sar
	Rotl
)

var arithNames = [...]string{"add", "sub", "mul", "and", "or", "xor", "andn", "shl", "shr", "sar", "rotl"}

func (op ArithOp) String() string { return arithNames[op] }

// ExtOp is a sign or zero extension.
type ExtOp uint8

// Extension operations.
const (
	ExtS8 ExtOp = iota
	ExtS16
	ExtU8
	ExtU16
)

var extNames = [...]string{"ext8s", "ext16s", "ext8u", "ext16u"}

func (op ExtOp) String() string { return extNames[op] }

// Cmp is a comparison predicate.
type Cmp uint8

// Comparison predicates. The U suffix marks unsigned comparisons.
const (
	EQ Cmp = iota
	NE
	LT
	GE
	LE
	GT
	LTU
	GEU
	LEU
	GTU
)

var cmpNames = [...]string{"eq", "ne", "lt", "ge", "le", "gt", "ltu", "geu", "leu", "gtu"}

func (c Cmp) String() string { return cmpNames[c] }

// Invert returns the complementary predicate.
func (c Cmp) Invert() Cmp {
	return [...]Cmp{NE, EQ, GE, LT, GT, LE, GEU, LTU, GTU, LEU}[c]
}

// Width is a memory access size in bytes.
type Width uint8

// Access widths.
const (
	W8  Width = 1
	W16 Width = 2
	W32 Width = 4
)

// ExitKind tells the execution engine how a block ended.
type ExitKind uint8

// Exit kinds.
const (
	// ExitJump ends at a statically known PC; the next block may be chained.
	ExitJump ExitKind = iota
	// ExitNoChain ends at a known PC but must return to the dispatcher.
	ExitNoChain
	// ExitIndirect ends at a PC computed at run time.
	ExitIndirect
	// ExitException ends after entering an exception handler.
	ExitException
	// ExitDebug stops for a breakpoint or single-step.
	ExitDebug
	// ExitHalt stops the CPU until an interrupt.
	ExitHalt
)

var exitNames = [...]string{"jump", "nochain", "indirect", "exception", "debug", "halt"}

func (k ExitKind) String() string { return exitNames[k] }

// Helper is an out-of-line routine invoked by Call. Fn receives the input
// values and returns NumOut output values.
type Helper struct {
	Name   string
	NumOut int
	Fn     func(in []uint32) []uint32
}

// Emitter receives the operations produced by the block translator.
type Emitter interface {
	// NewTemp allocates a block-local temporary.
	NewTemp() Var
	// NewLabel allocates an unbound label.
	NewLabel() Label

	Movi(dst Var, imm uint32)
	Mov(dst, src Var)
	Arith(op ArithOp, dst, a, b Var)
	Ext(op ExtOp, dst, src Var)
	// SetCond sets dst to 1 if c holds for a and b, else 0.
	SetCond(c Cmp, dst, a, b Var)
	// Mul2 computes the 64-bit product of a and b into lo and hi.
	Mul2(signed bool, lo, hi, a, b Var)
	// Add2 computes the 64-bit sum of ah:al and bh:bl into hi:lo.
	Add2(lo, hi, al, ah, bl, bh Var)

	BrCond(c Cmp, a, b Var, l Label)
	Br(l Label)
	SetLabel(l Label)

	// Load reads w bytes at addr into dst, extending per signed.
	Load(dst, addr Var, w Width, signed bool)
	// Store writes the low w bytes of val at addr.
	Store(addr, val Var, w Width)

	// Call invokes h with ins and stores its results in outs.
	Call(h *Helper, outs []Var, ins ...Var)

	// InsnStart marks the start of the guest instruction at pc.
	InsnStart(pc uint32)
	// Exit ends execution of the block.
	Exit(kind ExitKind)
	// Full reports that no further instruction should be added.
	Full() bool
}
