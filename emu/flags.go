package emu

// Flag identifies one PSW bit.
type Flag uint8

// PSW flags.
const (
	FlagZ   Flag = iota // Zero
	FlagS               // Sign
	FlagOV              // Overflow
	FlagCY              // Carry
	FlagSAT             // Saturation, sticky
	FlagID              // Interrupt disable
	FlagEP              // Exception processing
	FlagNP              // FE interrupt disable
	FlagEBV             // Exception base vector select
	FlagCU0             // Coprocessor 0 usable
	FlagCU1             // Coprocessor 1 usable
	FlagCU2             // Coprocessor 2 usable
	FlagUM              // User mode
	NumFlags
)

var flagBits = [NumFlags]uint{0, 1, 2, 3, 4, 5, 6, 7, 15, 16, 17, 18, 30}

var flagNames = [NumFlags]string{
	"Z", "S", "OV", "CY", "SAT", "ID", "EP", "NP", "EBV", "CU0", "CU1", "CU2", "UM",
}

// Bit returns the flag's position in PSW.
func (f Flag) Bit() uint {
	return flagBits[f]
}

// Mask returns the flag's PSW bit as a mask.
func (f Flag) Mask() FlagMask {
	return FlagMask(1) << flagBits[f]
}

func (f Flag) String() string {
	if f < NumFlags {
		return flagNames[f]
	}
	return "?"
}

// FlagMask selects flags by their PSW bit positions.
type FlagMask uint32

// Common flag masks.
const (
	MaskZ   FlagMask = 1 << 0
	MaskS   FlagMask = 1 << 1
	MaskOV  FlagMask = 1 << 2
	MaskCY  FlagMask = 1 << 3
	MaskSAT FlagMask = 1 << 4

	// MaskArith covers the flags written by add, subtract and compare.
	MaskArith = MaskZ | MaskS | MaskOV | MaskCY
	// MaskLogic covers the flags written by logic operations.
	MaskLogic = MaskZ | MaskS | MaskOV
	// MaskSatArith covers the flags written by saturating operations.
	MaskSatArith = MaskArith | MaskSAT

	// PSWWritable holds every implemented PSW bit.
	PSWWritable uint32 = 0x400780ff
)

// Has reports whether the mask selects f.
func (m FlagMask) Has(f Flag) bool {
	return m&f.Mask() != 0
}

// Flags holds each PSW flag as an independent bit.
type Flags struct {
	Z, S, OV, CY, SAT bool
	ID, EP, NP, EBV   bool
	CU0, CU1, CU2, UM bool
}

// Get returns the value of flag f.
func (fl *Flags) Get(f Flag) bool {
	return *fl.ref(f)
}

// Set sets flag f to v.
func (fl *Flags) Set(f Flag, v bool) {
	*fl.ref(f) = v
}

func (fl *Flags) ref(f Flag) *bool {
	switch f {
	case FlagZ:
		return &fl.Z
	case FlagS:
		return &fl.S
	case FlagOV:
		return &fl.OV
	case FlagCY:
		return &fl.CY
	case FlagSAT:
		return &fl.SAT
	case FlagID:
		return &fl.ID
	case FlagEP:
		return &fl.EP
	case FlagNP:
		return &fl.NP
	case FlagEBV:
		return &fl.EBV
	case FlagCU0:
		return &fl.CU0
	case FlagCU1:
		return &fl.CU1
	case FlagCU2:
		return &fl.CU2
	case FlagUM:
		return &fl.UM
	}
	panic("emu: invalid flag")
}

// Pack returns the PSW image of the flags.
func (fl *Flags) Pack() uint32 {
	var v uint32
	for f := Flag(0); f < NumFlags; f++ {
		if fl.Get(f) {
			v |= 1 << f.Bit()
		}
	}
	return v
}

// Unpack loads every flag from a PSW image. Unimplemented bits are ignored.
func (fl *Flags) Unpack(psw uint32) {
	for f := Flag(0); f < NumFlags; f++ {
		fl.Set(f, psw>>f.Bit()&1 == 1)
	}
}

// Reset clears the arithmetic flags Z, S, OV, CY and SAT.
func (fl *Flags) Reset() {
	fl.Z, fl.S, fl.OV, fl.CY, fl.SAT = false, false, false, false, false
}

// Apply copies the flags selected by mask from src. SAT is sticky: it is
// only ever set by Apply, never cleared.
func (fl *Flags) Apply(src Flags, mask FlagMask) {
	for f := Flag(0); f < NumFlags; f++ {
		if !mask.Has(f) {
			continue
		}
		if f == FlagSAT {
			fl.SAT = fl.SAT || src.SAT
			continue
		}
		fl.Set(f, src.Get(f))
	}
}
