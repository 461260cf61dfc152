package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/emu"
)

var _ = Describe("State", func() {
	var state *emu.State

	BeforeEach(func() {
		state = emu.NewState(0x100)
	})

	Describe("Reset", func() {
		It("should set PC and disable interrupts", func() {
			Expect(state.PC).To(Equal(uint32(0x100)))
			Expect(state.PackPSW()).To(Equal(emu.ResetPSW))
			Expect(state.Flags.ID).To(BeTrue())
		})

		It("should clear registers", func() {
			state.SetReg(5, 42)
			state.Reset(0)

			Expect(state.Reg(5)).To(BeZero())
		})
	})

	Describe("General registers", func() {
		It("should read r0 as zero and discard writes", func() {
			state.SetReg(0, 0xdeadbeef)

			Expect(state.Reg(0)).To(BeZero())
			Expect(state.R[0]).To(BeZero())
		})

		It("should read back written registers", func() {
			state.SetReg(31, 0x1234)

			Expect(state.Reg(31)).To(Equal(uint32(0x1234)))
		})
	})

	Describe("PSW", func() {
		It("should decompose a PSW write into flags", func() {
			state.Set(emu.PSW, 0x1f)

			Expect(state.Flags.Z).To(BeTrue())
			Expect(state.Flags.S).To(BeTrue())
			Expect(state.Flags.OV).To(BeTrue())
			Expect(state.Flags.CY).To(BeTrue())
			Expect(state.Flags.SAT).To(BeTrue())
			Expect(state.Flags.ID).To(BeFalse())
		})

		It("should pack individually set flags", func() {
			state.Flags = emu.Flags{}
			state.Flags.CY = true
			state.Flags.EBV = true
			state.Flags.UM = true

			Expect(state.Get(emu.PSW)).To(Equal(uint32(1<<3 | 1<<15 | 1<<30)))
		})

		It("should ignore unimplemented PSW bits", func() {
			state.Set(emu.PSW, 0xffffffff)

			Expect(state.Get(emu.PSW)).To(Equal(emu.PSWWritable))
		})

		It("should clear only the arithmetic flags on reset", func() {
			state.Set(emu.PSW, 0x3f)
			state.Flags.Reset()

			Expect(state.Get(emu.PSW)).To(Equal(uint32(0x20)))
		})
	})

	Describe("System registers", func() {
		It("should keep bit 0 of EIPC clear", func() {
			state.Set(emu.EIPC, 0x1001)

			Expect(state.Get(emu.EIPC)).To(Equal(uint32(0x1000)))
		})

		It("should report the fixed HTCFG0 value", func() {
			state.Set(emu.HTCFG0, 0)

			Expect(state.Get(emu.HTCFG0)).To(Equal(uint32(0x00010000)))
		})

		It("should only write the low five bits of CTPSW", func() {
			state.Set(emu.CTPSW, 0xffffffff)

			Expect(state.Get(emu.CTPSW)).To(Equal(uint32(0x1f)))
		})

		It("should read reserved basic registers as zero", func() {
			state.CSRWrite(emu.BankBasic0, 4, 0x1234)

			Expect(state.CSRRead(emu.BankBasic0, 4)).To(BeZero())
		})

		It("should fully write MPU bank registers", func() {
			state.CSRWrite(emu.BankMPU, 8, 0xffffffff)

			Expect(state.CSRRead(emu.BankMPU, 8)).To(Equal(uint32(0xffffffff)))
		})

		It("should ignore out-of-range registers", func() {
			state.CSRWrite(emu.NumBanks, 0, 1)
			state.CSRWrite(emu.BankBasic0, 40, 1)

			Expect(state.CSRRead(emu.NumBanks, 0)).To(BeZero())
			Expect(state.CSRRead(emu.BankBasic0, 40)).To(BeZero())
		})

		It("should select the exception base by EBV", func() {
			state.Set(emu.RBASE, 0x1000)
			state.Set(emu.EBASE, 0x8000)

			Expect(state.ExceptionBase()).To(Equal(uint32(0x1000)))
			state.Flags.EBV = true
			Expect(state.ExceptionBase()).To(Equal(uint32(0x8000)))
		})

		It("should name registers", func() {
			Expect(emu.EBASE.String()).To(Equal("EBASE"))
			Expect(emu.SysReg{Bank: emu.BankMPU, Index: 1}.String()).To(Equal("SR1,5"))
		})

		It("should look registers up by name", func() {
			r, ok := emu.LookupSysReg("psw")
			Expect(ok).To(BeTrue())
			Expect(r).To(Equal(emu.PSW))

			_, ok = emu.LookupSysReg("bogus")
			Expect(ok).To(BeFalse())
		})
	})
})
