package jit_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/jit"
)

var _ = Describe("Builder", func() {
	var b *jit.Builder

	BeforeEach(func() {
		b = jit.NewBuilder(0)
	})

	It("should allocate temporaries after the globals", func() {
		t0 := b.NewTemp()
		t1 := b.NewTemp()

		Expect(t0).To(Equal(jit.NumGlobals))
		Expect(t1).To(Equal(jit.NumGlobals + 1))
		Expect(t0.IsGlobal()).To(BeFalse())
	})

	It("should reject an unbound label", func() {
		l := b.NewLabel()
		b.Br(l)

		_, err := b.Finish()

		Expect(err).To(MatchError(jit.ErrUnboundLabel))
	})

	It("should reject a block that falls off its end", func() {
		b.Movi(jit.GPR(1), 5)

		_, err := b.Finish()

		Expect(err).To(MatchError(jit.ErrNoExit))
	})

	It("should resolve labels", func() {
		l := b.NewLabel()
		b.Br(l)
		b.SetLabel(l)
		b.Exit(jit.ExitJump)

		block, err := b.Finish()

		Expect(err).ToNot(HaveOccurred())
		Expect(block.Targets[l]).To(Equal(1))
	})

	It("should report full at the operation budget", func() {
		b = jit.NewBuilder(2)
		b.Movi(jit.GPR(1), 1)
		Expect(b.Full()).To(BeFalse())
		b.Movi(jit.GPR(2), 2)
		Expect(b.Full()).To(BeTrue())
	})

	It("should render blocks with global names", func() {
		t := b.NewTemp()
		b.InsnStart(0x100)
		b.Movi(t, 0x10)
		b.Arith(jit.Add, jit.GPR(6), jit.GPR(5), t)
		b.Mov(jit.VarPC, jit.GPR(31))
		b.Exit(jit.ExitIndirect)

		block, err := b.Finish()

		Expect(err).ToNot(HaveOccurred())
		Expect(block.String()).To(Equal(
			"---- 00000100\n" +
				"movi t0, 0x10\n" +
				"add r6, r5, t0\n" +
				"mov pc, r31\n" +
				"exit indirect\n"))
	})
})
