package jit

import (
	"math/bits"

	"github.com/sarchlab/rh850sim/emu"
)

// Bus is the data memory seen by executing blocks.
type Bus interface {
	// Read returns size bytes (1, 2 or 4) at addr, zero-extended.
	Read(addr uint32, size int) uint32
	// Write stores the low size bytes of v at addr.
	Write(addr uint32, size int, v uint32)
}

// DefaultStepLimit bounds the operations one block may execute.
const DefaultStepLimit = 1 << 20

// Interp executes recorded blocks.
type Interp struct {
	// StepLimit bounds the operations executed per Run.
	StepLimit int
	// LastPC is the guest PC of the last instruction started.
	LastPC uint32

	temps []uint32
	state *emu.State
}

// NewInterp creates an interpreter with the default step limit.
func NewInterp() *Interp {
	return &Interp{StepLimit: DefaultStepLimit}
}

// Run executes the block against state and bus and returns how it exited.
func (in *Interp) Run(b *Block, state *emu.State, bus Bus) (ExitKind, error) {
	if cap(in.temps) < b.NumTemps {
		in.temps = make([]uint32, b.NumTemps)
	}
	in.temps = in.temps[:b.NumTemps]
	clear(in.temps)
	in.state = state

	for pc, steps := 0, 0; pc < len(b.Ops); pc++ {
		steps++
		if in.StepLimit > 0 && steps > in.StepLimit {
			return ExitNoChain, ErrStepLimit
		}

		op := &b.Ops[pc]
		switch op.Code {
		case OpBr:
			pc = b.Targets[op.Label]
		case OpBrCond:
			if compare(Cmp(op.Sub), in.get(op.Args[0]), in.get(op.Args[1])) {
				pc = b.Targets[op.Label]
			}
		case OpExit:
			return ExitKind(op.Sub), nil
		default:
			in.exec(op, bus)
		}
	}

	return ExitNoChain, ErrNoExit
}

func (in *Interp) exec(op *Op, bus Bus) {
	a := op.Args
	switch op.Code {
	case OpMovi:
		in.set(a[0], op.Imm)
	case OpMov:
		in.set(a[0], in.get(a[1]))
	case OpArith:
		in.set(a[0], arith(ArithOp(op.Sub), in.get(a[1]), in.get(a[2])))
	case OpExt:
		in.set(a[0], extend(ExtOp(op.Sub), in.get(a[1])))
	case OpSetCond:
		v := uint32(0)
		if compare(Cmp(op.Sub), in.get(a[1]), in.get(a[2])) {
			v = 1
		}
		in.set(a[0], v)
	case OpMul2:
		x, y := in.get(a[2]), in.get(a[3])
		var p uint64
		if op.Signed {
			p = uint64(int64(int32(x)) * int64(int32(y)))
		} else {
			p = uint64(x) * uint64(y)
		}
		in.set(a[0], uint32(p))
		in.set(a[1], uint32(p>>32))
	case OpAdd2:
		x := uint64(in.get(a[3]))<<32 | uint64(in.get(a[2]))
		y := uint64(in.get(a[5]))<<32 | uint64(in.get(a[4]))
		s := x + y
		in.set(a[0], uint32(s))
		in.set(a[1], uint32(s>>32))
	case OpLoad:
		v := bus.Read(in.get(a[1]), int(op.Width))
		if op.Signed {
			switch op.Width {
			case W8:
				v = emu.Sxb(v)
			case W16:
				v = emu.Sxh(v)
			}
		}
		in.set(a[0], v)
	case OpStore:
		bus.Write(in.get(a[0]), int(op.Width), in.get(a[1]))
	case OpCall:
		args := make([]uint32, len(a)-op.NumOut)
		for i, v := range a[op.NumOut:] {
			args[i] = in.get(v)
		}
		outs := op.Helper.Fn(args)
		for i, v := range a[:op.NumOut] {
			in.set(v, outs[i])
		}
	case OpInsnStart:
		in.LastPC = op.Imm
	case OpLabel:
	}
}

func arith(op ArithOp, x, y uint32) uint32 {
	switch op {
	case Add:
		return x + y
	case Sub:
		return x - y
	case Mul:
		return x * y
	case And:
		return x & y
	case Or:
		return x | y
	case Xor:
		return x ^ y
	case AndNot:
		return x &^ y
	case Shl:
		return x << (y & 31)
	case Shr:
		return x >> (y & 31)
	case Sar:
		return uint32(int32(x) >> (y & 31))
	default: // Rotl
		return bits.RotateLeft32(x, int(y&31))
	}
}

func extend(op ExtOp, v uint32) uint32 {
	switch op {
	case ExtS8:
		return emu.Sxb(v)
	case ExtS16:
		return emu.Sxh(v)
	case ExtU8:
		return emu.Zxb(v)
	default:
		return emu.Zxh(v)
	}
}

func compare(c Cmp, x, y uint32) bool {
	switch c {
	case EQ:
		return x == y
	case NE:
		return x != y
	case LT:
		return int32(x) < int32(y)
	case GE:
		return int32(x) >= int32(y)
	case LE:
		return int32(x) <= int32(y)
	case GT:
		return int32(x) > int32(y)
	case LTU:
		return x < y
	case GEU:
		return x >= y
	case LEU:
		return x <= y
	default:
		return x > y
	}
}

func (in *Interp) get(v Var) uint32 {
	if !v.IsGlobal() {
		return in.temps[v-NumGlobals]
	}

	s := in.state
	switch {
	case v < VarPC:
		return s.Reg(uint8(v))
	case v == VarPC:
		return s.PC
	case v < varSysRegBase:
		if s.Flags.Get(emu.Flag(v - varFlagBase)) {
			return 1
		}
		return 0
	case v < VarDataBuffer:
		off := v - varSysRegBase
		return s.CSRRead(emu.Bank(off/emu.BankSize), uint8(off%emu.BankSize))
	case v == VarDataBuffer:
		return s.DataBuffer
	case v == VarLLBit:
		return s.LLBit
	default:
		return s.LLAddr
	}
}

func (in *Interp) set(v Var, x uint32) {
	if !v.IsGlobal() {
		in.temps[v-NumGlobals] = x
		return
	}

	s := in.state
	switch {
	case v < VarPC:
		s.SetReg(uint8(v), x)
	case v == VarPC:
		s.PC = x
	case v < varSysRegBase:
		s.Flags.Set(emu.Flag(v-varFlagBase), x != 0)
	case v < VarDataBuffer:
		off := v - varSysRegBase
		s.CSRWrite(emu.Bank(off/emu.BankSize), uint8(off%emu.BankSize), x)
	case v == VarDataBuffer:
		s.DataBuffer = x
	case v == VarLLBit:
		s.LLBit = x
	default:
		s.LLAddr = x
	}
}
