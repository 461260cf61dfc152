package jit_test

import (
	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/jit"
)

var _ = Describe("Interp", func() {
	var (
		mockCtrl *gomock.Controller
		bus      *MockBus
		state    *emu.State
		interp   *jit.Interp
		b        *jit.Builder
	)

	run := func() jit.ExitKind {
		block, err := b.Finish()
		Expect(err).ToNot(HaveOccurred())

		kind, err := interp.Run(block, state, bus)
		Expect(err).ToNot(HaveOccurred())
		return kind
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		bus = NewMockBus(mockCtrl)
		state = emu.NewState(0)
		interp = jit.NewInterp()
		b = jit.NewBuilder(0)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should execute arithmetic on registers", func() {
		state.SetReg(5, 7)
		t := b.NewTemp()
		b.Movi(t, 3)
		b.Arith(jit.Sub, jit.GPR(6), jit.GPR(5), t)
		b.Exit(jit.ExitJump)

		Expect(run()).To(Equal(jit.ExitJump))
		Expect(state.Reg(6)).To(Equal(uint32(4)))
	})

	It("should discard writes to r0", func() {
		b.Movi(jit.GPR(0), 3)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Reg(0)).To(BeZero())
	})

	It("should mask shift amounts", func() {
		t := b.NewTemp()
		state.SetReg(1, 1)
		b.Movi(t, 33)
		b.Arith(jit.Shl, jit.GPR(2), jit.GPR(1), t)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Reg(2)).To(Equal(uint32(2)))
	})

	It("should take conditional branches", func() {
		taken := b.NewLabel()
		state.SetReg(1, 0xffffffff)
		b.BrCond(jit.LT, jit.GPR(1), jit.GPR(0), taken)
		b.Movi(jit.VarPC, 0x10)
		b.Exit(jit.ExitJump)
		b.SetLabel(taken)
		b.Movi(jit.VarPC, 0x20)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.PC).To(Equal(uint32(0x20)))
	})

	It("should map flag variables to flags", func() {
		b.Movi(jit.FlagVar(emu.FlagCY), 1)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Flags.CY).To(BeTrue())
	})

	It("should decompose PSW writes through the system register", func() {
		t := b.NewTemp()
		b.Movi(t, 0x1)
		b.Mov(jit.SysRegVar(emu.PSW), t)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Flags.Z).To(BeTrue())
		Expect(state.Flags.ID).To(BeFalse())
	})

	It("should compute 64-bit products and sums", func() {
		state.SetReg(1, 0xffffffff)
		state.SetReg(2, 2)
		b.Mul2(false, jit.GPR(3), jit.GPR(4), jit.GPR(1), jit.GPR(2))
		b.Add2(jit.GPR(5), jit.GPR(6), jit.GPR(3), jit.GPR(4), jit.GPR(2), jit.GPR(0))
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Reg(3)).To(Equal(uint32(0xfffffffe)))
		Expect(state.Reg(4)).To(Equal(uint32(1)))
		Expect(state.Reg(5)).To(BeZero())
		Expect(state.Reg(6)).To(Equal(uint32(2)))
	})

	It("should sign-extend loads", func() {
		state.SetReg(1, 0x100)
		bus.EXPECT().Read(uint32(0x100), 1).Return(uint32(0x80))
		b.Load(jit.GPR(2), jit.GPR(1), jit.W8, true)
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Reg(2)).To(Equal(uint32(0xffffff80)))
	})

	It("should issue stores in program order", func() {
		state.SetReg(1, 0x200)
		state.SetReg(2, 0x11)
		state.SetReg(3, 0x22)
		addr := b.NewTemp()
		four := b.NewTemp()
		b.Movi(four, 4)
		b.Arith(jit.Add, addr, jit.GPR(1), four)
		b.Store(jit.GPR(1), jit.GPR(2), jit.W32)
		b.Store(addr, jit.GPR(3), jit.W32)
		b.Exit(jit.ExitJump)

		gomock.InOrder(
			bus.EXPECT().Write(uint32(0x200), 4, uint32(0x11)),
			bus.EXPECT().Write(uint32(0x204), 4, uint32(0x22)),
		)

		run()
	})

	It("should call helpers", func() {
		h := &jit.Helper{
			Name:   "swap",
			NumOut: 2,
			Fn: func(in []uint32) []uint32 {
				return []uint32{in[1], in[0]}
			},
		}
		state.SetReg(1, 1)
		state.SetReg(2, 2)
		b.Call(h, []jit.Var{jit.GPR(3), jit.GPR(4)}, jit.GPR(1), jit.GPR(2))
		b.Exit(jit.ExitJump)

		run()

		Expect(state.Reg(3)).To(Equal(uint32(2)))
		Expect(state.Reg(4)).To(Equal(uint32(1)))
	})

	It("should stop runaway loops", func() {
		l := b.NewLabel()
		b.SetLabel(l)
		b.Br(l)
		block, err := b.Finish()
		Expect(err).ToNot(HaveOccurred())

		interp.StepLimit = 100
		_, err = interp.Run(block, state, bus)

		Expect(err).To(MatchError(jit.ErrStepLimit))
	})
})
