// Package insts provides RH850 instruction definitions and decoding.
//
// This package turns RH850 machine code into structured instruction
// records. Instructions are 16, 32 or 48 bits long (PREPARE with an
// immediate stack-frame operand may carry one or two extra halfwords).
// The decoder is pure: it never touches architectural state and never
// emits code, so it can be tested on raw halfwords alone.
//
// Operand fields are normalized across encodings:
//   - loads and stores always carry the base register in Reg1 and the data
//     register in Reg2, including the short SLD/SST forms (base r30) and
//     the 48-bit disp23 forms;
//   - jump-and-link instructions carry the link register in Reg2;
//   - immediates are already sign- or zero-extended as the variant requires.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.DecodeBytes([]byte{0xc5, 0x31}) // ADD r5, r6
//	fmt.Printf("Op: %v, Reg1: %d, Reg2: %d\n", inst.Op, inst.Reg1, inst.Reg2)
package insts
