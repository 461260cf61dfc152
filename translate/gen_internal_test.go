package translate

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/insts"
	"github.com/sarchlab/rh850sim/jit"
)

// execOne emits a single decoded instruction and runs it against state.
func execOne(state *emu.State, mem *emu.Memory, inst *insts.Instruction) jit.ExitKind {
	b := jit.NewBuilder(0)
	dc := &DisasContext{
		em:     b,
		PC:     state.PC,
		NextPC: state.PC + uint32(inst.Len),
		Len:    inst.Len,
	}

	NewTranslator().gen(dc, inst)
	switch dc.State {
	case StateNone:
		dc.packPSW(pswArithBits)
		dc.movi(jit.VarPC, dc.NextPC)
		dc.exit(jit.ExitNoChain)
	case StateStop:
		dc.gotoTB(dc.NextPC)
	}

	block, err := b.Finish()
	Expect(err).ToNot(HaveOccurred())

	kind, err := jit.NewInterp().Run(block, state, mem)
	Expect(err).ToNot(HaveOccurred())
	return kind
}

var operandPairs = [][2]uint32{
	{0, 0},
	{1, 1},
	{5, 3},
	{3, 5},
	{0x7fffffff, 1},
	{0x80000000, 1},
	{0x80000000, 0xffffffff},
	{0xffffffff, 0xffffffff},
	{0x12345678, 0x9abcdef0},
	{100, 7},
	{0xfffffff9, 2},
	{0x0000ffff, 0xffff8000},
	{42, 0},
}

var _ = Describe("Generators", func() {
	var (
		state *emu.State
		mem   *emu.Memory
	)

	BeforeEach(func() {
		state = emu.NewState(0x100)
		mem = emu.NewMemory()
	})

	// checkBinary runs op with r2 = a and r1 = b and compares the written
	// register and flags against the reference ALU result.
	checkBinary := func(op insts.Op, dst uint8, ref func(a, b uint32) emu.ALUResult) {
		for _, p := range operandPairs {
			state.Reset(0x100)
			state.SetReg(2, p[0])
			state.SetReg(1, p[1])
			state.SetReg(3, 0xcafe)

			want := state.Flags
			r := ref(p[0], p[1])
			want.Apply(r.Flags, r.Mask)

			execOne(state, mem, &insts.Instruction{Op: op, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3})

			if !r.Discard {
				Expect(state.Reg(dst)).To(Equal(r.Value), "%v %#x, %#x", op, p[0], p[1])
			}
			Expect(state.Flags).To(Equal(want), "%v %#x, %#x", op, p[0], p[1])
		}
	}

	DescribeTable("should agree with the reference ALU",
		checkBinary,
		Entry("ADD", insts.OpADD, uint8(2), emu.Add),
		Entry("SUB", insts.OpSUB, uint8(2), emu.Sub),
		Entry("SATADD", insts.OpSATADD, uint8(2), emu.SatAdd),
		Entry("SATSUB", insts.OpSATSUB, uint8(2), emu.SatSub),
		Entry("SATADD3", insts.OpSATADD3, uint8(3), emu.SatAdd),
		Entry("SHL3", insts.OpSHL3, uint8(3), emu.Shl),
		Entry("SHR3", insts.OpSHR3, uint8(3), emu.Shr),
		Entry("SAR3", insts.OpSAR3, uint8(3), emu.Sar),
		Entry("ROTL", insts.OpROTL, uint8(3), emu.Rotl),
		Entry("DIV", insts.OpDIV, uint8(2), emu.Div),
		Entry("DIVU", insts.OpDIVU, uint8(2), emu.Divu),
		Entry("DIVH3", insts.OpDIVH3, uint8(2), emu.Divh),
	)

	It("should write the remainder after the quotient", func() {
		state.SetReg(2, 17)
		state.SetReg(1, 5)

		execOne(state, mem, &insts.Instruction{Op: insts.OpDIV, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3})

		Expect(state.Reg(2)).To(Equal(uint32(3)))
		Expect(state.Reg(3)).To(Equal(uint32(2)))
	})

	It("should leave registers unchanged on a zero divisor", func() {
		state.SetReg(2, 17)
		state.SetReg(3, 9)

		execOne(state, mem, &insts.Instruction{Op: insts.OpDIV, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3})

		Expect(state.Reg(2)).To(Equal(uint32(17)))
		Expect(state.Reg(3)).To(Equal(uint32(9)))
		Expect(state.Flags.OV).To(BeTrue())
	})

	It("should compute the 64-bit signed product", func() {
		state.SetReg(2, 0xffffffff)
		state.SetReg(1, 2)

		execOne(state, mem, &insts.Instruction{Op: insts.OpMUL, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3})

		Expect(state.Reg(2)).To(Equal(uint32(0xfffffffe)))
		Expect(state.Reg(3)).To(Equal(uint32(0xffffffff)))
	})

	It("should accumulate with MAC", func() {
		state.SetReg(2, 3)
		state.SetReg(1, 4)
		state.SetReg(6, 0xfffffff0)
		state.SetReg(7, 1)

		execOne(state, mem, &insts.Instruction{
			Op: insts.OpMAC, Len: 4, Reg1: 1, Reg2: 2, Reg3: 6, Reg4: 8,
		})

		Expect(state.Reg(8)).To(Equal(uint32(0xfffffffc)))
		Expect(state.Reg(9)).To(Equal(uint32(1)))
	})

	It("should add the carry with ADF", func() {
		state.SetReg(2, 10)
		state.SetReg(1, 20)
		state.Flags.CY = true

		execOne(state, mem, &insts.Instruction{
			Op: insts.OpADF, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3, Cond: insts.CondC,
		})

		Expect(state.Reg(3)).To(Equal(uint32(31)))
		Expect(state.Flags.CY).To(BeFalse())
	})

	It("should reject SA as an ADF condition", func() {
		state.SetReg(2, 10)

		kind := execOne(state, mem, &insts.Instruction{
			Op: insts.OpADF, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3, Cond: insts.CondSA,
		})

		Expect(kind).To(Equal(jit.ExitException))
		Expect(state.Reg(3)).To(BeZero())
		Expect(state.Get(emu.FEIC)).To(Equal(uint32(causeReserved)))
		Expect(state.Get(emu.FEPC)).To(Equal(uint32(0x100)))
	})

	It("should keep SAT sticky across non-saturating results", func() {
		state.SetReg(2, 0x7fffffff)
		state.SetReg(1, 1)
		execOne(state, mem, &insts.Instruction{Op: insts.OpSATADD, Len: 2, Reg1: 1, Reg2: 2})
		Expect(state.Flags.SAT).To(BeTrue())

		state.SetReg(2, 1)
		execOne(state, mem, &insts.Instruction{Op: insts.OpSATADD, Len: 2, Reg1: 1, Reg2: 2})
		Expect(state.Reg(2)).To(Equal(uint32(2)))
		Expect(state.Flags.SAT).To(BeTrue())
	})

	DescribeTable("should evaluate conditions like the reference",
		func(cond insts.Cond) {
			for psw := uint32(0); psw < 32; psw++ {
				state.UnpackPSW(psw)
				want := emu.Setf(emu.CheckCondition(cond, state.Flags))

				execOne(state, mem, &insts.Instruction{Op: insts.OpSETF, Len: 4, Reg2: 7, Cond: cond})

				Expect(state.Reg(7)).To(Equal(want), "cond %v psw %#x", cond, psw)
			}
		},
		Entry("V", insts.CondV), Entry("C", insts.CondC),
		Entry("Z", insts.CondZ), Entry("NH", insts.CondNH),
		Entry("S", insts.CondS), Entry("T", insts.CondT),
		Entry("LT", insts.CondLT), Entry("LE", insts.CondLE),
		Entry("NV", insts.CondNV), Entry("NC", insts.CondNC),
		Entry("NZ", insts.CondNZ), Entry("H", insts.CondH),
		Entry("NS", insts.CondNS), Entry("SA", insts.CondSA),
		Entry("GE", insts.CondGE), Entry("GT", insts.CondGT),
	)

	It("should select with CMOV", func() {
		state.SetReg(1, 11)
		state.SetReg(2, 22)
		state.Flags.Z = true

		execOne(state, mem, &insts.Instruction{
			Op: insts.OpCMOV, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3, Cond: insts.CondZ,
		})
		Expect(state.Reg(3)).To(Equal(uint32(11)))

		state.Flags.Z = false
		execOne(state, mem, &insts.Instruction{
			Op: insts.OpCMOV, Len: 4, Reg1: 1, Reg2: 2, Reg3: 3, Cond: insts.CondZ,
		})
		Expect(state.Reg(3)).To(Equal(uint32(22)))
	})

	It("should insert a bit field with BINS", func() {
		state.SetReg(1, 0xab)
		state.SetReg(2, 0xffffffff)

		execOne(state, mem, &insts.Instruction{
			Op: insts.OpBINS, Len: 4, Reg1: 1, Reg2: 2, Pos: 4, Width: 8,
		})

		Expect(state.Reg(2)).To(Equal(uint32(0xfffffabf)))
		Expect(state.Flags.S).To(BeTrue())
	})

	It("should swap bytes through the helper", func() {
		state.SetReg(2, 0x12345678)

		execOne(state, mem, &insts.Instruction{Op: insts.OpBSW, Len: 4, Reg2: 2, Reg3: 3})

		Expect(state.Reg(3)).To(Equal(uint32(0x78563412)))
	})

	It("should push and pop a register range", func() {
		state.SetReg(emu.RegSP, 0x9000)
		state.SetReg(6, 6)
		state.SetReg(7, 7)

		execOne(state, mem, &insts.Instruction{Op: insts.OpPUSHSP, Len: 4, Reg1: 6, Reg3: 7})
		Expect(state.Reg(emu.RegSP)).To(Equal(uint32(0x8ff8)))
		Expect(mem.Read32(0x8ffc)).To(Equal(uint32(6)))
		Expect(mem.Read32(0x8ff8)).To(Equal(uint32(7)))

		state.SetReg(6, 0)
		state.SetReg(7, 0)
		execOne(state, mem, &insts.Instruction{Op: insts.OpPOPSP, Len: 4, Reg1: 6, Reg3: 7})
		Expect(state.Reg(emu.RegSP)).To(Equal(uint32(0x9000)))
		Expect(state.Reg(6)).To(Equal(uint32(6)))
		Expect(state.Reg(7)).To(Equal(uint32(7)))
	})

	It("should set ep from the PREPARE immediate", func() {
		state.SetReg(emu.RegSP, 0x9000)

		execOne(state, mem, &insts.Instruction{
			Op: insts.OpPREPARE, Len: 6, Imm: 16, SetEP: true, EPImm: true, Imm2: 0x1234,
		})

		Expect(state.Reg(emu.RegSP)).To(Equal(uint32(0x8ff0)))
		Expect(state.Reg(emu.RegEP)).To(Equal(uint32(0x1234)))
	})
})
