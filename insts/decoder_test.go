package insts_test

import (
	"encoding/binary"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rh850sim/insts"
)

func halfwords(hws ...uint16) []byte {
	b := make([]byte, 2*len(hws))
	for i, hw := range hws {
		binary.LittleEndian.PutUint16(b[2*i:], hw)
	}
	return b
}

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	decode := func(hws ...uint16) *insts.Instruction {
		return decoder.DecodeBytes(halfwords(hws...))
	}

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Length", func() {
		It("should classify 16-bit instructions", func() {
			Expect(insts.Length(0x31c5, 0)).To(Equal(2))
			Expect(insts.Length(0x0000, 0)).To(Equal(2))
		})

		It("should classify 32-bit instructions", func() {
			Expect(insts.Length(0x1601, 0xffff)).To(Equal(4))
			Expect(insts.Length(0x0784, 0x0821)).To(Equal(4))
		})

		It("should classify 48-bit instructions", func() {
			Expect(insts.Length(0x0625, 0x5678)).To(Equal(6))
			Expect(insts.Length(0x06e2, 0x0100)).To(Equal(6))
			Expect(insts.Length(0x02ff, 0x0000)).To(Equal(6))
			Expect(insts.Length(0x0781, 0x1345)).To(Equal(6))
			Expect(insts.Length(0x07a1, 0x1089)).To(Equal(6))
		})

		It("should classify LD.W disp23 as 48-bit with a zero sub-opcode field", func() {
			// bits 17-18 are 0 here; bits 16-20 == 0b01001 selects LD.W.
			Expect(insts.Is48Bit(0x0781 | 0x1089<<16)).To(BeTrue())
			Expect(insts.Length(0x0781, 0x1089)).To(Equal(6))

			inst := decode(0x0781, 0x1089, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpLDW))
			Expect(inst.Len).To(Equal(uint8(6)))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(8)))
		})

		It("should keep other disp23 sub-opcodes with a zero field 32-bit", func() {
			Expect(insts.Length(0x0781, 0x1081)).To(Equal(4))
		})

		It("should treat JR disp32 as not 16-bit", func() {
			Expect(insts.Is16Bit(0x02e0)).To(BeFalse())
		})
	})

	Describe("Fetch", func() {
		var (
			mockCtrl *gomock.Controller
			reader   *MockHalfwordReader
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			reader = NewMockHalfwordReader(mockCtrl)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should fetch one halfword for a 16-bit instruction", func() {
			reader.EXPECT().Read16(uint32(0x100)).Return(uint16(0x31c5))

			inst := decoder.Decode(reader, 0x100)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Len).To(Equal(uint8(2)))
		})

		It("should fetch two halfwords for a 32-bit instruction", func() {
			reader.EXPECT().Read16(uint32(0x100)).Return(uint16(0x1601))
			reader.EXPECT().Read16(uint32(0x102)).Return(uint16(0xffff))

			inst := decoder.Decode(reader, 0x100)

			Expect(inst.Op).To(Equal(insts.OpADDI))
		})

		It("should fetch three halfwords for a 48-bit instruction", func() {
			reader.EXPECT().Read16(uint32(0x200)).Return(uint16(0x0625))
			reader.EXPECT().Read16(uint32(0x202)).Return(uint16(0x5678))
			reader.EXPECT().Read16(uint32(0x204)).Return(uint16(0x1234))

			inst := decoder.Decode(reader, 0x200)

			Expect(inst.Op).To(Equal(insts.OpMOVI32))
			Expect(inst.Imm).To(Equal(uint32(0x12345678)))
		})

		It("should fetch two extra halfwords for PREPARE with imm32", func() {
			reader.EXPECT().Read16(uint32(0x0)).Return(uint16(0x0784))
			reader.EXPECT().Read16(uint32(0x2)).Return(uint16(0x083b))
			reader.EXPECT().Read16(uint32(0x4)).Return(uint16(0xbeef))
			reader.EXPECT().Read16(uint32(0x6)).Return(uint16(0xdead))

			inst := decoder.Decode(reader, 0)

			Expect(inst.Op).To(Equal(insts.OpPREPARE))
			Expect(inst.Len).To(Equal(uint8(8)))
			Expect(inst.SetEP).To(BeTrue())
			Expect(inst.EPImm).To(BeTrue())
			Expect(inst.Imm2).To(Equal(uint32(0xdeadbeef)))
		})
	})

	Describe("Format I", func() {
		It("should decode ADD r5, r6", func() {
			inst := decode(0x31c5)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Reg1).To(Equal(uint8(5)))
			Expect(inst.Reg2).To(Equal(uint8(6)))
			Expect(inst.Len).To(Equal(uint8(2)))
		})

		It("should decode NOP", func() {
			Expect(decode(0x0000).Op).To(Equal(insts.OpNOP))
		})

		It("should decode SYNCM as a barrier", func() {
			inst := decode(0x001e)
			Expect(inst.Op).To(Equal(insts.OpSYNC))
			Expect(inst.Op.IsNop()).To(BeTrue())
		})

		It("should decode JMP [r31]", func() {
			inst := decode(0x007f)
			Expect(inst.Op).To(Equal(insts.OpJMP))
			Expect(inst.Reg1).To(Equal(uint8(31)))
		})

		It("should decode the 16-bit RIE", func() {
			Expect(decode(0x0040).Op).To(Equal(insts.OpRIE))
		})

		It("should decode SWITCH r4", func() {
			inst := decode(0x0044)
			Expect(inst.Op).To(Equal(insts.OpSWITCH))
			Expect(inst.Reg1).To(Equal(uint8(4)))
		})

		It("should decode FETRAP 5", func() {
			inst := decode(0x2840)
			Expect(inst.Op).To(Equal(insts.OpFETRAP))
			Expect(inst.Imm).To(Equal(uint32(5)))
		})

		It("should decode DIVH r1, r2", func() {
			inst := decode(0x1041)
			Expect(inst.Op).To(Equal(insts.OpDIVH))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
		})

		It("should decode ZXB r7 and SATSUBR r7, r1", func() {
			Expect(decode(0x0087).Op).To(Equal(insts.OpZXB))
			Expect(decode(0x0887).Op).To(Equal(insts.OpSATSUBR))
		})
	})

	Describe("Format II", func() {
		It("should sign-extend MOV imm5", func() {
			inst := decode(0x521f)

			Expect(inst.Op).To(Equal(insts.OpMOVI5))
			Expect(inst.Reg2).To(Equal(uint8(10)))
			Expect(inst.Imm).To(Equal(uint32(0xffffffff)))
		})

		It("should zero-extend SHR imm5", func() {
			inst := decode(0x2283)

			Expect(inst.Op).To(Equal(insts.OpSHRI5))
			Expect(inst.Reg2).To(Equal(uint8(4)))
			Expect(inst.Imm).To(Equal(uint32(3)))
		})

		It("should decode CALLT with a 6-bit index", func() {
			inst := decode(0x0223)

			Expect(inst.Op).To(Equal(insts.OpCALLT))
			Expect(inst.Imm).To(Equal(uint32(0x23)))
		})
	})

	Describe("Format III", func() {
		It("should decode BR +8", func() {
			inst := decode(0x05c5)

			Expect(inst.Op).To(Equal(insts.OpBcond))
			Expect(inst.Cond).To(Equal(insts.CondT))
			Expect(inst.Disp).To(Equal(int32(8)))
		})

		It("should decode BZ -2", func() {
			inst := decode(0xfdf2)

			Expect(inst.Op).To(Equal(insts.OpBcond))
			Expect(inst.Cond).To(Equal(insts.CondZ))
			Expect(inst.Disp).To(Equal(int32(-2)))
		})
	})

	Describe("Format IV", func() {
		It("should decode SLD.W 8[ep], r7", func() {
			inst := decode(0x3d04)

			Expect(inst.Op).To(Equal(insts.OpLDW))
			Expect(inst.Reg1).To(Equal(uint8(30)))
			Expect(inst.Reg2).To(Equal(uint8(7)))
			Expect(inst.Disp).To(Equal(int32(8)))
		})

		It("should decode SST.W r7, 8[ep]", func() {
			inst := decode(0x3d05)
			Expect(inst.Op).To(Equal(insts.OpSTW))
			Expect(inst.Disp).To(Equal(int32(8)))
		})

		It("should decode SLD.BU 3[ep], r2", func() {
			inst := decode(0x1063)

			Expect(inst.Op).To(Equal(insts.OpLDBU))
			Expect(inst.Reg1).To(Equal(uint8(30)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(3)))
		})
	})

	Describe("32-bit formats", func() {
		It("should decode ADDI -1, r1, r2", func() {
			inst := decode(0x1601, 0xffff)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(uint32(0xffffffff)))
			Expect(inst.Len).To(Equal(uint8(4)))
		})

		It("should decode MOVHI 0x1234, r0, r3", func() {
			inst := decode(0x1e40, 0x1234)

			Expect(inst.Op).To(Equal(insts.OpMOVHI))
			Expect(inst.Reg2).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
		})

		It("should decode LD.W 4[r1], r2", func() {
			inst := decode(0x1721, 0x0005)

			Expect(inst.Op).To(Equal(insts.OpLDW))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(4)))
		})

		It("should decode JARL +0x100, r31", func() {
			inst := decode(0xff80, 0x0100)

			Expect(inst.Op).To(Equal(insts.OpJARL))
			Expect(inst.Reg2).To(Equal(uint8(31)))
			Expect(inst.Disp).To(Equal(int32(0x100)))
		})

		It("should decode JR -4", func() {
			inst := decode(0x07bf, 0xfffc)

			Expect(inst.Op).To(Equal(insts.OpJR))
			Expect(inst.Disp).To(Equal(int32(-4)))
		})

		It("should decode BNZ disp17", func() {
			inst := decode(0x07ea, 0x1001)

			Expect(inst.Op).To(Equal(insts.OpBcond))
			Expect(inst.Cond).To(Equal(insts.CondNZ))
			Expect(inst.Disp).To(Equal(int32(0x1000)))
			Expect(inst.Len).To(Equal(uint8(4)))
		})

		It("should decode LOOP r1, 0x10", func() {
			inst := decode(0x06e1, 0x0011)

			Expect(inst.Op).To(Equal(insts.OpLOOP))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Disp).To(Equal(int32(0x10)))
		})

		It("should decode SET1 3, 0x10[r1]", func() {
			inst := decode(0x1fc1, 0x0010)

			Expect(inst.Op).To(Equal(insts.OpSET1))
			Expect(inst.Imm).To(Equal(uint32(3)))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Disp).To(Equal(int32(0x10)))
		})

		It("should decode LDSR r5, PSW", func() {
			inst := decode(0x2fe5, 0x0020)

			Expect(inst.Op).To(Equal(insts.OpLDSR))
			Expect(inst.Reg1).To(Equal(uint8(5)))
			Expect(inst.RegID).To(Equal(uint8(5)))
			Expect(inst.SelID).To(Equal(uint8(0)))
		})

		It("should decode STSR EIPC, r6", func() {
			inst := decode(0x37e0, 0x0040)

			Expect(inst.Op).To(Equal(insts.OpSTSR))
			Expect(inst.Reg2).To(Equal(uint8(6)))
			Expect(inst.RegID).To(Equal(uint8(0)))
		})

		It("should decode SETF Z, r7", func() {
			inst := decode(0x3fe2, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpSETF))
			Expect(inst.Cond).To(Equal(insts.CondZ))
			Expect(inst.Reg2).To(Equal(uint8(7)))
		})

		DescribeTable("special instructions",
			func(hw0, hw1 uint16, op insts.Op) {
				Expect(decode(hw0, hw1).Op).To(Equal(op))
			},
			Entry("TRAP", uint16(0x07ff), uint16(0x0100), insts.OpTRAP),
			Entry("HALT", uint16(0x07e0), uint16(0x0120), insts.OpHALT),
			Entry("CTRET", uint16(0x07e0), uint16(0x0144), insts.OpCTRET),
			Entry("EIRET", uint16(0x07e0), uint16(0x0148), insts.OpEIRET),
			Entry("FERET", uint16(0x07e0), uint16(0x014a), insts.OpFERET),
			Entry("EI", uint16(0x87e0), uint16(0x0160), insts.OpEI),
			Entry("DI", uint16(0x07e0), uint16(0x0160), insts.OpDI),
		)

		It("should decode SYSCALL 0x25", func() {
			inst := decode(0xd7e5, 0x0960)

			Expect(inst.Op).To(Equal(insts.OpSYSCALL))
			Expect(inst.Imm).To(Equal(uint32(0x25)))
		})

		DescribeTable("three-register forms",
			func(hw1 uint16, op insts.Op) {
				inst := decode(0x17e1, hw1)

				Expect(inst.Op).To(Equal(op))
				Expect(inst.Reg1).To(Equal(uint8(1)))
				Expect(inst.Reg2).To(Equal(uint8(2)))
				Expect(inst.Reg3).To(Equal(uint8(3)))
			},
			Entry("MUL", uint16(0x1a20), insts.OpMUL),
			Entry("MULU", uint16(0x1a22), insts.OpMULU),
			Entry("DIV", uint16(0x1ac0), insts.OpDIV),
			Entry("DIVU", uint16(0x1ac2), insts.OpDIVU),
			Entry("SHR3", uint16(0x1882), insts.OpSHR3),
			Entry("SHL3", uint16(0x18c2), insts.OpSHL3),
			Entry("ROTL", uint16(0x18c6), insts.OpROTL),
			Entry("SATADD3", uint16(0x1bba), insts.OpSATADD3),
			Entry("SATSUB3", uint16(0x1b9a), insts.OpSATSUB3),
			Entry("CAXI", uint16(0x18ee), insts.OpCAXI),
		)

		It("should decode CMOV NZ, r1, r2, r3", func() {
			inst := decode(0x17e1, 0x1b34)

			Expect(inst.Op).To(Equal(insts.OpCMOV))
			Expect(inst.Cond).To(Equal(insts.CondNZ))
			Expect(inst.Reg3).To(Equal(uint8(3)))
		})

		It("should decode ADF NZ, r1, r2, r3", func() {
			inst := decode(0x17e1, 0x1bb4)

			Expect(inst.Op).To(Equal(insts.OpADF))
			Expect(inst.Cond).To(Equal(insts.CondNZ))
		})

		It("should decode bit 16 set in the ADF slot as LD.HU disp16", func() {
			inst := decode(0x17e1, 0x1bbb)

			Expect(inst.Op).To(Equal(insts.OpLDHU))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(0x1bba)))
		})

		It("should decode ADF with the SA condition as SATADD3", func() {
			inst := decode(0x17e1, 0x1bba)

			Expect(inst.Op).To(Equal(insts.OpSATADD3))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Reg3).To(Equal(uint8(3)))
		})

		It("should decode SBF with the SA condition as SATSUB3", func() {
			Expect(decode(0x17e1, 0x1b9a).Op).To(Equal(insts.OpSATSUB3))
		})

		DescribeTable("byte and halfword swaps",
			func(hw1 uint16, op insts.Op) {
				inst := decode(0x17e0, hw1)

				Expect(inst.Op).To(Equal(op))
				Expect(inst.Reg2).To(Equal(uint8(2)))
				Expect(inst.Reg3).To(Equal(uint8(3)))
			},
			Entry("BSW", uint16(0x1b40), insts.OpBSW),
			Entry("BSH", uint16(0x1b42), insts.OpBSH),
			Entry("HSW", uint16(0x1b44), insts.OpHSW),
			Entry("HSH", uint16(0x1b46), insts.OpHSH),
			Entry("SCH0R", uint16(0x1b60), insts.OpSCH0R),
			Entry("SCH1R", uint16(0x1b62), insts.OpSCH1R),
			Entry("SCH0L", uint16(0x1b64), insts.OpSCH0L),
			Entry("SCH1L", uint16(0x1b66), insts.OpSCH1L),
		)

		It("should decode LDL.W [r1], r3 with data in Reg2", func() {
			inst := decode(0x07e1, 0x1b78)

			Expect(inst.Op).To(Equal(insts.OpLDLW))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(3)))
		})

		It("should decode BINS r1, 4, 8, r2", func() {
			inst := decode(0x17e1, 0xb0d8)

			Expect(inst.Op).To(Equal(insts.OpBINS))
			Expect(inst.Pos).To(Equal(uint8(4)))
			Expect(inst.Width).To(Equal(uint8(8)))
		})

		It("should decode PREPARE {r20, r31}, 8", func() {
			inst := decode(0x0784, 0x0821)

			Expect(inst.Op).To(Equal(insts.OpPREPARE))
			Expect(inst.Imm).To(Equal(uint32(8)))
			Expect(inst.List).To(Equal(uint32(1<<20 | 1<<31)))
			Expect(inst.SetEP).To(BeFalse())
			Expect(inst.Len).To(Equal(uint8(4)))
		})

		It("should decode PREPARE with a sign-extended imm16 ep", func() {
			inst := decode(0x0784, 0x082b, 0x8000)

			Expect(inst.Op).To(Equal(insts.OpPREPARE))
			Expect(inst.EPImm).To(BeTrue())
			Expect(inst.Imm2).To(Equal(uint32(0xffff8000)))
			Expect(inst.Len).To(Equal(uint8(6)))
		})

		It("should decode DISPOSE 8, {r20, r31}, [r31]", func() {
			inst := decode(0x0644, 0x083f)

			Expect(inst.Op).To(Equal(insts.OpDISPOSE))
			Expect(inst.Imm).To(Equal(uint32(8)))
			Expect(inst.List).To(Equal(uint32(1<<20 | 1<<31)))
			Expect(inst.Reg1).To(Equal(uint8(31)))
		})

		It("should report FPU encodings as unknown", func() {
			Expect(decode(0x17e1, 0x0c40).Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("48-bit formats", func() {
		It("should decode MOV imm32, r5", func() {
			inst := decode(0x0625, 0x5678, 0x1234)

			Expect(inst.Op).To(Equal(insts.OpMOVI32))
			Expect(inst.Reg1).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(uint32(0x12345678)))
			Expect(inst.Len).To(Equal(uint8(6)))
		})

		It("should decode JMP disp32[r2]", func() {
			inst := decode(0x06e2, 0x0100, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpJMP))
			Expect(inst.Reg1).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(0x100)))
		})

		It("should decode JARL disp32, r31 with the link in Reg2", func() {
			inst := decode(0x02ff, 0xfff0, 0xffff)

			Expect(inst.Op).To(Equal(insts.OpJARL))
			Expect(inst.Reg2).To(Equal(uint8(31)))
			Expect(inst.Disp).To(Equal(int32(-16)))
		})

		It("should decode JR disp32", func() {
			Expect(decode(0x02e0, 0x0010, 0x0000).Op).To(Equal(insts.OpJR))
		})

		It("should decode LD.B disp23[r1], r2", func() {
			inst := decode(0x0781, 0x1345, 0x0024)

			Expect(inst.Op).To(Equal(insts.OpLDB))
			Expect(inst.Reg1).To(Equal(uint8(1)))
			Expect(inst.Reg2).To(Equal(uint8(2)))
			Expect(inst.Disp).To(Equal(int32(0x1234)))
		})

		It("should decode LD.DW disp23[r1], r2", func() {
			inst := decode(0x07a1, 0x1089, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpLDDW))
			Expect(inst.Disp).To(Equal(int32(8)))
			Expect(inst.Len).To(Equal(uint8(6)))
		})

		It("should decode ST.DW r2, disp23[r1]", func() {
			inst := decode(0x07a1, 0x108f, 0x0000)

			Expect(inst.Op).To(Equal(insts.OpSTDW))
			Expect(inst.Reg2).To(Equal(uint8(2)))
		})
	})
})
