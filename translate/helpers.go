package translate

import (
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/jit"
)

// aluHelper wraps an emu ALU function as a call target. The helper returns
// five values: result, high word, packed flags, flag mask and a discard
// marker.
func aluHelper(name string, fn func(in []uint32) emu.ALUResult) *jit.Helper {
	return &jit.Helper{
		Name:   name,
		NumOut: 5,
		Fn: func(in []uint32) []uint32 {
			r := fn(in)
			return []uint32{
				r.Value,
				r.Hi,
				r.Flags.Pack(),
				uint32(r.Mask),
				emu.Setf(r.Discard),
			}
		},
	}
}

func unary(fn func(uint32) emu.ALUResult) func([]uint32) emu.ALUResult {
	return func(in []uint32) emu.ALUResult { return fn(in[0]) }
}

func binary(fn func(a, b uint32) emu.ALUResult) func([]uint32) emu.ALUResult {
	return func(in []uint32) emu.ALUResult { return fn(in[0], in[1]) }
}

var (
	helperSatAdd = aluHelper("satadd", binary(emu.SatAdd))
	helperSatSub = aluHelper("satsub", binary(emu.SatSub))

	helperDiv   = aluHelper("div", binary(emu.Div))
	helperDivu  = aluHelper("divu", binary(emu.Divu))
	helperDivh  = aluHelper("divh", binary(emu.Divh))
	helperDivhu = aluHelper("divhu", binary(emu.Divhu))

	helperBsw = aluHelper("bsw", unary(emu.Bsw))
	helperBsh = aluHelper("bsh", unary(emu.Bsh))
	helperHsw = aluHelper("hsw", unary(emu.Hsw))
	helperHsh = aluHelper("hsh", unary(emu.Hsh))

	helperSch0L = aluHelper("sch0l", unary(emu.SearchZeroLeft))
	helperSch1L = aluHelper("sch1l", unary(emu.SearchOneLeft))
	helperSch0R = aluHelper("sch0r", unary(emu.SearchZeroRight))
	helperSch1R = aluHelper("sch1r", unary(emu.SearchOneRight))

	helperAdf = aluHelper("adf", func(in []uint32) emu.ALUResult {
		return emu.Adf(in[0], in[1], in[2] != 0)
	})
	helperSbf = aluHelper("sbf", func(in []uint32) emu.ALUResult {
		return emu.Sbf(in[0], in[1], in[2] != 0)
	})
)

// aluOut holds the outputs of an aluHelper call.
type aluOut struct {
	value, hi, discard jit.Var
}

// callALU calls h and merges the returned flags into the flag variables.
func (dc *DisasContext) callALU(h *jit.Helper, ins ...jit.Var) aluOut {
	outs := []jit.Var{dc.temp(), dc.temp(), dc.temp(), dc.temp(), dc.temp()}
	dc.em.Call(h, outs, ins...)
	dc.applyFlags(outs[2], outs[3])
	return aluOut{value: outs[0], hi: outs[1], discard: outs[4]}
}

// applyFlags copies the flags selected by mask out of a packed flag word.
// SAT is only ever set.
func (dc *DisasContext) applyFlags(packed, mask jit.Var) {
	for _, f := range []emu.Flag{emu.FlagZ, emu.FlagS, emu.FlagOV, emu.FlagCY} {
		fv := jit.FlagVar(f)
		m := dc.bit(mask, f.Bit())
		diff := dc.arith(jit.Xor, fv, dc.bit(packed, f.Bit()))
		dc.em.Arith(jit.And, diff, diff, m)
		dc.em.Arith(jit.Xor, fv, fv, diff)
	}

	sat := dc.arith(jit.And, dc.bit(packed, emu.FlagSAT.Bit()), dc.bit(mask, emu.FlagSAT.Bit()))
	dc.em.Arith(jit.Or, flagSAT, flagSAT, sat)
}
