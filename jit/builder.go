package jit

import (
	"fmt"
	"strings"
)

// Opcode identifies a recorded operation.
type Opcode uint8

// Recorded operations, one per Emitter method.
const (
	OpMovi Opcode = iota
	OpMov
	OpArith
	OpExt
	OpSetCond
	OpMul2
	OpAdd2
	OpBrCond
	OpBr
	OpLabel
	OpLoad
	OpStore
	OpCall
	OpInsnStart
	OpExit
)

// Op is one recorded operation.
type Op struct {
	Code Opcode
	// Sub holds the ArithOp, ExtOp, Cmp or ExitKind of the operation.
	Sub    uint8
	Args   []Var
	Imm    uint32
	Width  Width
	Signed bool
	Label  Label
	Helper *Helper
	// NumOut is the number of leading Args written by a Call.
	NumOut int
}

// Block is a recorded, label-resolved sequence of operations.
type Block struct {
	Ops      []Op
	NumTemps int
	// Targets maps each label to the index of its OpLabel.
	Targets []int
}

// String renders the block one operation per line.
func (b *Block) String() string {
	var sb strings.Builder
	for _, op := range b.Ops {
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func joinVars(vs []Var) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = v.String()
	}
	return strings.Join(s, ", ")
}

func (op Op) String() string {
	a := op.Args
	switch op.Code {
	case OpMovi:
		return fmt.Sprintf("movi %s, %#x", a[0], op.Imm)
	case OpMov:
		return fmt.Sprintf("mov %s, %s", a[0], a[1])
	case OpArith:
		return fmt.Sprintf("%s %s", ArithOp(op.Sub), joinVars(a))
	case OpExt:
		return fmt.Sprintf("%s %s", ExtOp(op.Sub), joinVars(a))
	case OpSetCond:
		return fmt.Sprintf("setcond.%s %s", Cmp(op.Sub), joinVars(a))
	case OpMul2:
		if op.Signed {
			return "muls2 " + joinVars(a)
		}
		return "mulu2 " + joinVars(a)
	case OpAdd2:
		return "add2 " + joinVars(a)
	case OpBrCond:
		return fmt.Sprintf("brcond.%s %s, L%d", Cmp(op.Sub), joinVars(a), op.Label)
	case OpBr:
		return fmt.Sprintf("br L%d", op.Label)
	case OpLabel:
		return fmt.Sprintf("L%d:", op.Label)
	case OpLoad:
		sign := "u"
		if op.Signed {
			sign = "s"
		}
		return fmt.Sprintf("ld%d%s %s", op.Width*8, sign, joinVars(a))
	case OpStore:
		return fmt.Sprintf("st%d %s", op.Width*8, joinVars(a))
	case OpCall:
		return fmt.Sprintf("call %s (%s) <- (%s)", op.Helper.Name,
			joinVars(a[:op.NumOut]), joinVars(a[op.NumOut:]))
	case OpInsnStart:
		return fmt.Sprintf("---- %08x", op.Imm)
	case OpExit:
		return "exit " + ExitKind(op.Sub).String()
	}
	return "?"
}

// Builder is an Emitter that records operations into a Block.
type Builder struct {
	ops      []Op
	numTemps int
	targets  []int
	maxOps   int
}

// NewBuilder creates a Builder that reports Full once maxOps operations
// have been recorded. A maxOps of 0 means unlimited.
func NewBuilder(maxOps int) *Builder {
	return &Builder{maxOps: maxOps}
}

func (b *Builder) add(op Op) {
	b.ops = append(b.ops, op)
}

// NewTemp allocates a temporary.
func (b *Builder) NewTemp() Var {
	v := NumGlobals + Var(b.numTemps)
	b.numTemps++
	return v
}

// NewLabel allocates a label.
func (b *Builder) NewLabel() Label {
	b.targets = append(b.targets, -1)
	return Label(len(b.targets) - 1)
}

// Movi records dst = imm.
func (b *Builder) Movi(dst Var, imm uint32) {
	b.add(Op{Code: OpMovi, Args: []Var{dst}, Imm: imm})
}

// Mov records dst = src.
func (b *Builder) Mov(dst, src Var) {
	b.add(Op{Code: OpMov, Args: []Var{dst, src}})
}

// Arith records dst = a op b.
func (b *Builder) Arith(op ArithOp, dst, a, c Var) {
	b.add(Op{Code: OpArith, Sub: uint8(op), Args: []Var{dst, a, c}})
}

// Ext records dst = extend(src).
func (b *Builder) Ext(op ExtOp, dst, src Var) {
	b.add(Op{Code: OpExt, Sub: uint8(op), Args: []Var{dst, src}})
}

// SetCond records dst = (a c b).
func (b *Builder) SetCond(c Cmp, dst, x, y Var) {
	b.add(Op{Code: OpSetCond, Sub: uint8(c), Args: []Var{dst, x, y}})
}

// Mul2 records hi:lo = a * b.
func (b *Builder) Mul2(signed bool, lo, hi, x, y Var) {
	b.add(Op{Code: OpMul2, Signed: signed, Args: []Var{lo, hi, x, y}})
}

// Add2 records hi:lo = ah:al + bh:bl.
func (b *Builder) Add2(lo, hi, al, ah, bl, bh Var) {
	b.add(Op{Code: OpAdd2, Args: []Var{lo, hi, al, ah, bl, bh}})
}

// BrCond records a conditional branch to l.
func (b *Builder) BrCond(c Cmp, x, y Var, l Label) {
	b.add(Op{Code: OpBrCond, Sub: uint8(c), Args: []Var{x, y}, Label: l})
}

// Br records an unconditional branch to l.
func (b *Builder) Br(l Label) {
	b.add(Op{Code: OpBr, Label: l})
}

// SetLabel binds l to the current position.
func (b *Builder) SetLabel(l Label) {
	b.targets[l] = len(b.ops)
	b.add(Op{Code: OpLabel, Label: l})
}

// Load records a memory read.
func (b *Builder) Load(dst, addr Var, w Width, signed bool) {
	b.add(Op{Code: OpLoad, Args: []Var{dst, addr}, Width: w, Signed: signed})
}

// Store records a memory write.
func (b *Builder) Store(addr, val Var, w Width) {
	b.add(Op{Code: OpStore, Args: []Var{addr, val}, Width: w})
}

// Call records a helper invocation.
func (b *Builder) Call(h *Helper, outs []Var, ins ...Var) {
	args := make([]Var, 0, len(outs)+len(ins))
	args = append(args, outs...)
	args = append(args, ins...)
	b.add(Op{Code: OpCall, Helper: h, Args: args, NumOut: len(outs)})
}

// InsnStart records an instruction boundary.
func (b *Builder) InsnStart(pc uint32) {
	b.add(Op{Code: OpInsnStart, Imm: pc})
}

// Exit records a block exit.
func (b *Builder) Exit(kind ExitKind) {
	b.add(Op{Code: OpExit, Sub: uint8(kind)})
}

// Full reports whether the operation budget is used up.
func (b *Builder) Full() bool {
	return b.maxOps > 0 && len(b.ops) >= b.maxOps
}

// Len returns the number of recorded operations.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Finish resolves labels and returns the block. The builder must not be
// used afterwards.
func (b *Builder) Finish() (*Block, error) {
	for l, t := range b.targets {
		if t < 0 {
			return nil, fmt.Errorf("L%d: %w", l, ErrUnboundLabel)
		}
	}

	if len(b.ops) == 0 {
		return nil, ErrNoExit
	}
	switch b.ops[len(b.ops)-1].Code {
	case OpExit, OpBr:
	default:
		return nil, ErrNoExit
	}

	return &Block{Ops: b.ops, NumTemps: b.numTemps, Targets: b.targets}, nil
}
