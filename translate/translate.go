// Package translate turns RH850 instruction sequences into blocks of
// operations emitted through a jit.Emitter.
//
// A block is a maximal straight-line run of guest instructions. It ends at
// the first control transfer, at an instruction that changes execution
// mode, at a page boundary, when the emitter is full, after MaxInsns
// instructions, or after one instruction in single-step mode. Translation
// never executes guest code and reads guest memory only through the
// insts.HalfwordReader it is given, so translating the same bytes twice
// produces the same operations.
package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

// DefaultMaxInsns bounds the instructions of one block when Options does
// not.
const DefaultMaxInsns = 512

// DisasState tracks how the current block must end.
type DisasState uint8

// Block states.
const (
	// StateNone means translation may continue with the next instruction.
	StateNone DisasState = iota
	// StateStop ends the block after the current instruction; execution
	// resumes at the next PC.
	StateStop
	// StateBranch means the instruction already emitted the block exit.
	StateBranch
)

func (s DisasState) String() string {
	return [...]string{"none", "stop", "branch"}[s]
}

// Options controls block formation.
type Options struct {
	// MaxInsns bounds the instructions per block. Zero selects
	// DefaultMaxInsns.
	MaxInsns int
	// PageSize is the page granularity blocks may not cross. Zero selects
	// emu.PageSize.
	PageSize uint32
	// SingleStep ends every block after one instruction with a debug exit.
	SingleStep bool
	// Breakpoint reports whether execution must stop before pc.
	Breakpoint func(pc uint32) bool
}

// Result describes a translated block.
type Result struct {
	// PC is the guest address of the first instruction.
	PC uint32
	// Size is the number of guest bytes covered.
	Size uint32
	// NumInsns is the number of guest instructions translated.
	NumInsns int
	// State is the block state after the last instruction.
	State DisasState
}

// DisasContext holds the per-block decode state. It is created for one
// Translate call and never persisted.
type DisasContext struct {
	em jit.Emitter

	// PC is the address of the instruction being translated.
	PC uint32
	// NextPC is the address of the following instruction.
	NextPC uint32
	// Opcode holds the raw instruction halfwords.
	Opcode uint64
	// Len is the instruction length in bytes.
	Len uint8
	// State tracks how the block must end.
	State DisasState

	singleStep bool
}

type genFunc func(dc *DisasContext, inst *insts.Instruction)

// Translator converts guest code into emitted blocks.
type Translator struct {
	decoder *insts.Decoder
}

// NewTranslator creates a translator.
func NewTranslator() *Translator {
	return &Translator{decoder: insts.NewDecoder()}
}

// Translate emits the block starting at pc.
func (t *Translator) Translate(
	em jit.Emitter,
	code insts.HalfwordReader,
	pc uint32,
	opts Options,
) Result {
	maxInsns := opts.MaxInsns
	if maxInsns <= 0 {
		maxInsns = DefaultMaxInsns
	}
	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = emu.PageSize
	}

	dc := &DisasContext{em: em, PC: pc, singleStep: opts.SingleStep}
	res := Result{PC: pc}
	page := pc / pageSize

	for {
		if opts.Breakpoint != nil && opts.Breakpoint(dc.PC) {
			em.InsnStart(dc.PC)
			dc.movi(jit.VarPC, dc.PC)
			dc.exit(jit.ExitDebug)
			dc.State = StateBranch
			res.Size += 2
			break
		}

		inst := t.decoder.Decode(code, dc.PC)
		dc.Opcode = inst.Raw
		dc.Len = inst.Len
		dc.NextPC = dc.PC + uint32(inst.Len)

		em.InsnStart(dc.PC)
		t.gen(dc, inst)
		res.NumInsns++
		res.Size += uint32(inst.Len)

		if dc.State != StateNone {
			break
		}
		dc.packPSW(pswArithBits)
		dc.PC = dc.NextPC

		if dc.PC/pageSize != page || em.Full() ||
			res.NumInsns >= maxInsns || opts.SingleStep {
			break
		}
	}

	switch dc.State {
	case StateStop:
		dc.gotoTB(dc.NextPC)
	case StateNone:
		dc.movi(jit.VarPC, dc.PC)
		if dc.singleStep {
			dc.exit(jit.ExitDebug)
		} else {
			dc.exit(jit.ExitNoChain)
		}
	}

	res.State = dc.State
	return res
}

func (t *Translator) gen(dc *DisasContext, inst *insts.Instruction) {
	fn, ok := generators[inst.Op]
	if !ok {
		genReserved(dc, inst)
		return
	}
	fn(dc, inst)
}

var generators map[insts.Op]genFunc

func init() {
	generators = make(map[insts.Op]genFunc)
	for _, table := range []map[insts.Op]genFunc{
		arithGenerators,
		branchGenerators,
		memGenerators,
		systemGenerators,
	} {
		for op, fn := range table {
			generators[op] = fn
		}
	}
}
