package cpu

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/rh850sim/emu"
)

var dumpSysRegs = []emu.SysReg{
	emu.EIPC, emu.EIPSW, emu.FEPC, emu.FEPSW, emu.EIIC, emu.FEIC,
	emu.CTPC, emu.CTPSW, emu.CTBP, emu.RBASE, emu.EBASE, emu.SCBP,
}

// DumpState renders the general-purpose and system registers as tables.
func (c *CPU) DumpState() string {
	s := c.state

	gpr := table.NewWriter()
	gpr.SetTitle("General-Purpose Registers")
	header := table.Row{""}
	for i := 0; i < 8; i++ {
		header = append(header, fmt.Sprintf("+%d", i))
	}
	gpr.AppendHeader(header)
	for row := 0; row < 4; row++ {
		r := table.Row{fmt.Sprintf("r%d", row*8)}
		for col := 0; col < 8; col++ {
			r = append(r, fmt.Sprintf("%08x", s.Reg(uint8(row*8+col))))
		}
		gpr.AppendRow(r)
	}

	sys := table.NewWriter()
	sys.SetTitle("System Registers")
	sys.AppendHeader(table.Row{"Register", "Value"})
	sys.AppendRow(table.Row{"PC", fmt.Sprintf("%08x", s.PC)})
	sys.AppendRow(table.Row{emu.PSW.String(), fmt.Sprintf("%08x %s", s.PackPSW(), flagString(&s.Flags))})
	for _, r := range dumpSysRegs {
		sys.AppendRow(table.Row{r.String(), fmt.Sprintf("%08x", s.Get(r))})
	}
	sys.AppendRow(table.Row{"DataBuffer", fmt.Sprintf("%08x", s.DataBuffer)})
	sys.AppendRow(table.Row{"LLBit", fmt.Sprintf("%d", s.LLBit)})

	return gpr.Render() + "\n" + sys.Render() + "\n" +
		fmt.Sprintf("instructions: %d\n", c.instructionCount)
}

// flagString lists the names of the set flags.
func flagString(fl *emu.Flags) string {
	var set []string
	for f := emu.Flag(0); f < emu.NumFlags; f++ {
		if fl.Get(f) {
			set = append(set, f.String())
		}
	}
	return "[" + strings.Join(set, " ") + "]"
}
