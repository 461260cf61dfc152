package emu

import (
	"math"
	"math/bits"
)

// ALUResult is the outcome of one arithmetic or logic operation. The
// functions in this file are pure: they never touch a State, so the same
// semantics back both the translator's helpers and direct reference checks.
type ALUResult struct {
	// Value is the primary result.
	Value uint32
	// Hi holds the high word of 64-bit results or the division remainder.
	Hi uint32
	// Flags holds the new flag values; only those selected by Mask apply.
	Flags Flags
	// Mask selects the flags the operation writes.
	Mask FlagMask
	// Discard means no destination register is written.
	Discard bool
}

func zsFlags(v uint32) Flags {
	return Flags{Z: v == 0, S: int32(v) < 0}
}

// Add computes a + b.
func Add(a, b uint32) ALUResult {
	r := a + b
	f := zsFlags(r)
	f.CY = r < a
	f.OV = ((r^a)&^(a^b))>>31 == 1
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Sub computes a - b. CY is the unsigned borrow.
func Sub(a, b uint32) ALUResult {
	r := a - b
	f := zsFlags(r)
	f.CY = b > a
	f.OV = ((r^a)&(a^b))>>31 == 1
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Logic returns the flags of a logic result: Z and S from v, OV cleared.
func Logic(v uint32) ALUResult {
	return ALUResult{Value: v, Flags: zsFlags(v), Mask: MaskLogic}
}

func saturate(raw int64) (uint32, bool) {
	switch {
	case raw > math.MaxInt32:
		return math.MaxInt32, true
	case raw < math.MinInt32:
		return 0x80000000, true
	}
	return uint32(raw), false
}

func satResult(raw int64, carry bool) ALUResult {
	v, clamped := saturate(raw)
	f := zsFlags(v)
	f.CY = carry
	f.OV = clamped
	f.SAT = clamped
	return ALUResult{Value: v, Flags: f, Mask: MaskSatArith}
}

// SatAdd computes a + b clamped to the signed 32-bit range.
func SatAdd(a, b uint32) ALUResult {
	return satResult(int64(int32(a))+int64(int32(b)), uint64(a)+uint64(b) > math.MaxUint32)
}

// SatSub computes a - b clamped to the signed 32-bit range.
func SatSub(a, b uint32) ALUResult {
	return satResult(int64(int32(a))-int64(int32(b)), b > a)
}

// Shl shifts v left by n&31. CY is the last bit shifted out.
func Shl(v, n uint32) ALUResult {
	n &= 31
	r := v << n
	f := zsFlags(r)
	if n != 0 {
		f.CY = (v>>(32-n))&1 == 1
	}
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Shr shifts v right logically by n&31.
func Shr(v, n uint32) ALUResult {
	n &= 31
	r := v >> n
	f := zsFlags(r)
	if n != 0 {
		f.CY = (v>>(n-1))&1 == 1
	}
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Sar shifts v right arithmetically by n&31.
func Sar(v, n uint32) ALUResult {
	n &= 31
	r := uint32(int32(v) >> n)
	f := zsFlags(r)
	if n != 0 {
		f.CY = (v>>(n-1))&1 == 1
	}
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Rotl rotates v left by n&31. CY is bit 0 of the result.
func Rotl(v, n uint32) ALUResult {
	n &= 31
	r := bits.RotateLeft32(v, int(n))
	f := zsFlags(r)
	f.CY = r&1 == 1
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// search turns a zero-based scan count into a 1-based position.
func search(count int) ALUResult {
	if count == 32 {
		return ALUResult{Flags: Flags{Z: true}, Mask: MaskArith}
	}
	return ALUResult{Value: uint32(count + 1), Flags: Flags{CY: count == 31}, Mask: MaskArith}
}

// SearchZeroLeft finds the first 0 bit scanning from bit 31 (SCH0L).
func SearchZeroLeft(v uint32) ALUResult { return search(bits.LeadingZeros32(^v)) }

// SearchOneLeft finds the first 1 bit scanning from bit 31 (SCH1L).
func SearchOneLeft(v uint32) ALUResult { return search(bits.LeadingZeros32(v)) }

// SearchZeroRight finds the first 0 bit scanning from bit 0 (SCH0R).
func SearchZeroRight(v uint32) ALUResult { return search(bits.TrailingZeros32(^v)) }

// SearchOneRight finds the first 1 bit scanning from bit 0 (SCH1R).
func SearchOneRight(v uint32) ALUResult { return search(bits.TrailingZeros32(v)) }

func swapResult(r uint32, z, cy bool) ALUResult {
	return ALUResult{
		Value: r,
		Flags: Flags{Z: z, S: int32(r) < 0, CY: cy},
		Mask:  MaskArith,
	}
}

// Bsw reverses the bytes of v. CY reports a zero byte in the result.
func Bsw(v uint32) ALUResult {
	r := bits.ReverseBytes32(v)
	cy := r&0xff == 0 || r&0xff00 == 0 || r&0xff0000 == 0 || r&0xff000000 == 0
	return swapResult(r, r == 0, cy)
}

// Bsh swaps the bytes within each halfword of v. CY reports a zero byte in
// the low halfword of the result.
func Bsh(v uint32) ALUResult {
	r := (v&0xff00ff00)>>8 | (v&0x00ff00ff)<<8
	return swapResult(r, r&0xffff == 0, r&0xff == 0 || r&0xff00 == 0)
}

// Hsw swaps the halfwords of v. CY reports a zero halfword.
func Hsw(v uint32) ALUResult {
	r := bits.RotateLeft32(v, 16)
	return swapResult(r, r == 0, r&0xffff == 0 || r&0xffff0000 == 0)
}

// Hsh passes v through and tests its low halfword.
func Hsh(v uint32) ALUResult {
	zero := v&0xffff == 0
	return swapResult(v, zero, zero)
}

// Bins inserts the low width bits of src into dst at bit pos.
func Bins(dst, src uint32, pos, width uint) ALUResult {
	mask := uint32((uint64(1)<<width - 1) << pos)
	r := dst&^mask | (src<<pos)&mask
	return Logic(r)
}

// Mul computes the signed 64-bit product. Flags are unaffected.
func Mul(a, b uint32) ALUResult {
	p := int64(int32(a)) * int64(int32(b))
	return ALUResult{Value: uint32(p), Hi: uint32(uint64(p) >> 32)}
}

// Mulu computes the unsigned 64-bit product.
func Mulu(a, b uint32) ALUResult {
	p := uint64(a) * uint64(b)
	return ALUResult{Value: uint32(p), Hi: uint32(p >> 32)}
}

// Mulh multiplies the signed low halfwords of a and b.
func Mulh(a, b uint32) ALUResult {
	return ALUResult{Value: uint32(int32(int16(a)) * int32(int16(b)))}
}

// Mac adds the signed product of a and b to the 64-bit value hi:lo.
func Mac(a, b, lo, hi uint32) ALUResult {
	acc := uint64(hi)<<32 | uint64(lo)
	p := uint64(int64(int32(a))*int64(int32(b))) + acc
	return ALUResult{Value: uint32(p), Hi: uint32(p >> 32)}
}

// Macu adds the unsigned product of a and b to the 64-bit value hi:lo.
func Macu(a, b, lo, hi uint32) ALUResult {
	acc := uint64(hi)<<32 | uint64(lo)
	p := uint64(a)*uint64(b) + acc
	return ALUResult{Value: uint32(p), Hi: uint32(p >> 32)}
}

func divByZero() ALUResult {
	return ALUResult{Flags: Flags{OV: true}, Mask: MaskOV, Discard: true}
}

// Div divides a by b as signed values. Value is the quotient and Hi the
// remainder. A zero divisor sets OV and writes nothing.
func Div(a, b uint32) ALUResult {
	if b == 0 {
		return divByZero()
	}
	if a == 0x80000000 && b == 0xffffffff {
		return ALUResult{
			Value: 0x80000000,
			Flags: Flags{S: true, OV: true},
			Mask:  MaskLogic,
		}
	}
	q := int32(a) / int32(b)
	r := int32(a) % int32(b)
	return ALUResult{Value: uint32(q), Hi: uint32(r), Flags: zsFlags(uint32(q)), Mask: MaskLogic}
}

// Divu divides a by b as unsigned values.
func Divu(a, b uint32) ALUResult {
	if b == 0 {
		return divByZero()
	}
	q := a / b
	return ALUResult{Value: q, Hi: a % b, Flags: zsFlags(q), Mask: MaskLogic}
}

// Divh divides a by the sign-extended low halfword of b.
func Divh(a, b uint32) ALUResult {
	return Div(a, Sxh(b))
}

// Divhu divides a by the zero-extended low halfword of b.
func Divhu(a, b uint32) ALUResult {
	return Divu(a, Zxh(b))
}

func carryIn(c bool) uint64 {
	if c {
		return 1
	}
	return 0
}

// Adf computes a + b + c with the flags of the complete operation.
func Adf(a, b uint32, c bool) ALUResult {
	ci := carryIn(c)
	sum := uint64(a) + uint64(b) + ci
	r := uint32(sum)
	f := zsFlags(r)
	f.CY = sum>>32 != 0
	f.OV = int64(int32(a))+int64(int32(b))+int64(ci) != int64(int32(r))
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Sbf computes a - b - c with the flags of the complete operation.
func Sbf(a, b uint32, c bool) ALUResult {
	ci := carryIn(c)
	r := uint32(uint64(a) - uint64(b) - ci)
	f := zsFlags(r)
	f.CY = uint64(a) < uint64(b)+ci
	f.OV = int64(int32(a))-int64(int32(b))-int64(ci) != int64(int32(r))
	return ALUResult{Value: r, Flags: f, Mask: MaskArith}
}

// Setf returns 1 if c holds, else 0.
func Setf(c bool) uint32 {
	return uint32(carryIn(c))
}

// Sasf shifts v left by one and sets bit 0 to c.
func Sasf(v uint32, c bool) uint32 {
	return v<<1 | Setf(c)
}

// Sxb sign-extends the low byte of v.
func Sxb(v uint32) uint32 { return uint32(int32(int8(v))) }

// Sxh sign-extends the low halfword of v.
func Sxh(v uint32) uint32 { return uint32(int32(int16(v))) }

// Zxb zero-extends the low byte of v.
func Zxb(v uint32) uint32 { return v & 0xff }

// Zxh zero-extends the low halfword of v.
func Zxh(v uint32) uint32 { return v & 0xffff }
