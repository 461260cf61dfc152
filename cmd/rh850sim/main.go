// Package main provides the rh850sim command. It loads an ELF image, a raw
// binary or an assembly source, runs it on the translating CPU and prints
// the final register state.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/rh850sim/asm"
	"github.com/sarchlab/rh850sim/config"
	"github.com/sarchlab/rh850sim/cpu"
	"github.com/sarchlab/rh850sim/loader"
)

// addrList collects addresses given as repeated or comma-separated flags.
type addrList []uint32

func (l *addrList) String() string {
	parts := make([]string, len(*l))
	for i, a := range *l {
		parts[i] = fmt.Sprintf("0x%x", a)
	}
	return strings.Join(parts, ",")
}

func (l *addrList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 0, 32)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", part, err)
		}
		*l = append(*l, uint32(v))
	}
	return nil
}

var (
	configPath  = flag.String("config", "", "Path to CPU configuration JSON file")
	maxInsns    = flag.Uint64("max", 0, "Maximum number of instructions (0 = unlimited)")
	base        = flag.String("base", "0", "Load address for raw binaries and assembly sources")
	singleStep  = flag.Bool("step", false, "Stop after every instruction")
	traceEvents = flag.Bool("trace", false, "Log translation and exception events")
	stats       = flag.Bool("stats", false, "Print block and fetch cache statistics")
	breakpoints addrList
)

func main() {
	flag.Var(&breakpoints, "bp", "Breakpoint address (repeatable, comma-separated)")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rh850sim [options] <program.elf|program.bin|program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *traceEvents {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: cpu.LevelTrace})))
	}

	c, err := newCPU()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	prog, err := loadProgram(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		atexit.Exit(1)
	}
	c.LoadProgram(prog)

	atexit.Exit(run(c))
}

func newCPU() (*cpu.CPU, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	opts := []cpu.Option{
		cpu.WithConfig(cfg),
		cpu.WithMaxInstructions(*maxInsns),
	}
	for _, bp := range breakpoints {
		opts = append(opts, cpu.WithBreakpoint(bp))
	}
	if *singleStep {
		opts = append(opts, cpu.WithSingleStep())
	}
	if *traceEvents {
		opts = append(opts, cpu.WithTrace())
	}

	return cpu.New(opts...)
}

func loadProgram(path string) (*loader.Program, error) {
	addr, err := strconv.ParseUint(*base, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid base address %q: %w", *base, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source: %w", err)
		}
		p, err := asm.Assemble(string(src), uint32(addr))
		if err != nil {
			return nil, err
		}
		return p.Loadable(), nil
	case ".bin":
		return loader.LoadBinary(path, uint32(addr))
	default:
		return loader.Load(path)
	}
}

// run executes the program and returns the process exit code. Breakpoint
// and single-step stops print the state and continue.
func run(c *cpu.CPU) int {
	for {
		result := c.Run()
		switch {
		case result.Err != nil:
			fmt.Print(c.DumpState())
			fmt.Fprintf(os.Stderr, "Error: %v\n", result.Err)
			return 1
		case result.Halted:
			fmt.Print(c.DumpState())
			printStats(c)
			return 0
		case result.Breakpoint:
			fmt.Printf("breakpoint at 0x%08x\n", c.State().PC)
			fmt.Print(c.DumpState())
		case *singleStep:
			fmt.Printf("step to 0x%08x\n", c.State().PC)
		}
	}
}

func printStats(c *cpu.CPU) {
	if !*stats {
		return
	}

	b := c.BlockStats()
	fmt.Printf("blocks: lookups=%d hits=%d inserts=%d evictions=%d invalidations=%d\n",
		b.Lookups, b.Hits, b.Inserts, b.Evictions, b.Invalidations)

	f := c.FetchStats()
	fmt.Printf("fetch: reads=%d hits=%d misses=%d\n", f.Reads, f.Hits, f.Misses)
}
