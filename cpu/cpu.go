// Package cpu runs guest code. Each step looks up or translates the block
// at PC, executes it with the jit interpreter and keeps translated code
// coherent with stores to memory.
package cpu

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/sarchlab/rh850sim/cache"
	"github.com/sarchlab/rh850sim/config"
	"github.com/sarchlab/rh850sim/emu"
	"github.com/sarchlab/rh850sim/internal/i18n"
	"github.com/sarchlab/rh850sim/jit"
	"github.com/sarchlab/rh850sim/loader"
	"github.com/sarchlab/rh850sim/translate"
)

var f = i18n.From

// ErrMaxInstructions is returned once the instruction limit is reached.
var ErrMaxInstructions = errors.New(f("max instructions reached"))

// StepResult represents the result of executing one block.
type StepResult struct {
	// Halted is true once HALT has executed.
	Halted bool

	// Breakpoint is true if execution stopped in front of a breakpoint.
	Breakpoint bool

	// Exit is how the executed block ended.
	Exit jit.ExitKind

	// Instructions is the number of guest instructions executed.
	Instructions int

	// Err is set if translation or execution failed.
	Err error
}

// CPU executes RH850 code through the block translator.
type CPU struct {
	cfg    *config.Config
	state  *emu.State
	memory *emu.Memory
	bus    *memoryBus

	fetch      *cache.Cache
	blocks     *cache.BlockCache
	translator *translate.Translator
	interp     *jit.Interp

	// codePages holds the pages that cached blocks were translated from.
	codePages map[uint32]struct{}

	breakpoints map[uint32]struct{}
	resumePC    uint32
	resuming    bool
	singleStep  bool
	trace       bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	halted           bool
}

// New creates a CPU reset to the configured reset PC.
func New(opts ...Option) (*CPU, error) {
	c := &CPU{
		cfg:         config.Default(),
		memory:      emu.NewMemory(),
		translator:  translate.NewTranslator(),
		interp:      jit.NewInterp(),
		codePages:   map[uint32]struct{}{},
		breakpoints: map[uint32]struct{}{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to create CPU: %w", err)
	}
	if c.maxInstructions == 0 {
		c.maxInstructions = c.cfg.MaxInstructions
	}

	c.fetch = cache.New(cache.Config{
		Size:          c.cfg.FetchCacheSize,
		Associativity: c.cfg.FetchCacheWays,
		BlockSize:     c.cfg.FetchLineSize,
	}, cache.NewMemoryBacking(c.memory))
	c.blocks = cache.NewBlockCache(c.cfg.BlockCacheSets, c.cfg.BlockCacheWays)
	c.bus = &memoryBus{cpu: c}
	c.state = emu.NewState(c.cfg.ResetPC)

	return c, nil
}

// State returns the architectural state.
func (c *CPU) State() *emu.State {
	return c.state
}

// Memory returns the guest memory.
func (c *CPU) Memory() *emu.Memory {
	return c.memory
}

// Config returns the configuration the CPU was built with.
func (c *CPU) Config() *config.Config {
	return c.cfg
}

// InstructionCount returns the number of instructions executed.
func (c *CPU) InstructionCount() uint64 {
	return c.instructionCount
}

// Halted reports whether HALT has executed since the last reset.
func (c *CPU) Halted() bool {
	return c.halted
}

// BlockStats returns the translated block cache statistics.
func (c *CPU) BlockStats() cache.BlockStats {
	return c.blocks.Stats()
}

// FetchStats returns the instruction fetch cache statistics.
func (c *CPU) FetchStats() cache.Statistics {
	return c.fetch.Stats()
}

// Reset returns the CPU to its reset state. Memory and translated code
// are kept.
func (c *CPU) Reset() {
	c.state.Reset(c.cfg.ResetPC)
	c.instructionCount = 0
	c.halted = false
	c.resuming = false
}

// LoadProgram copies a program into memory and points PC at its entry.
func (c *CPU) LoadProgram(p *loader.Program) {
	p.LoadInto(c.memory)
	c.InvalidateCode()
	c.state.PC = p.EntryPoint
	c.halted = false
}

// InvalidateCode drops every translated block and fetched line. It must
// be called after memory is modified behind the CPU's back.
func (c *CPU) InvalidateCode() {
	c.blocks.Reset()
	c.fetch.Reset()
	clear(c.codePages)
}

// SetSingleStep turns single-stepping on or off.
func (c *CPU) SetSingleStep(on bool) {
	c.singleStep = on
}

// AddBreakpoint stops execution in front of the instruction at pc.
func (c *CPU) AddBreakpoint(pc uint32) {
	c.breakpoints[pc] = struct{}{}
	c.blocks.Invalidate(pc, pc+1)
}

// RemoveBreakpoint removes the breakpoint at pc.
func (c *CPU) RemoveBreakpoint(pc uint32) {
	if _, ok := c.breakpoints[pc]; !ok {
		return
	}
	delete(c.breakpoints, pc)
	c.blocks.Invalidate(pc, pc+1)
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (c *CPU) Breakpoints() []uint32 {
	return slices.Sorted(maps.Keys(c.breakpoints))
}

// Step executes the block at PC.
func (c *CPU) Step() StepResult {
	if c.halted {
		return StepResult{Halted: true}
	}
	if c.maxInstructions > 0 && c.instructionCount >= c.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := c.state.PC
	entry, err := c.block(pc)
	if err != nil {
		return StepResult{Err: fmt.Errorf("failed to translate block at 0x%08x: %w", pc, err)}
	}

	exit, err := c.interp.Run(entry.Block, c.state, c.bus)
	if err != nil {
		return StepResult{Err: fmt.Errorf("failed to execute block at 0x%08x: %w", pc, err)}
	}
	c.instructionCount += uint64(entry.NumInsns)

	result := StepResult{Exit: exit, Instructions: entry.NumInsns}
	switch exit {
	case jit.ExitHalt:
		c.halted = true
		result.Halted = true
		c.logTrace("halt", "pc", c.interp.LastPC)
	case jit.ExitDebug:
		if entry.NumInsns == 0 {
			c.resuming, c.resumePC = true, pc
			result.Breakpoint = true
			c.logTrace("breakpoint", "pc", pc)
		}
	case jit.ExitException:
		c.logTrace("exception", "pc", c.interp.LastPC, "handler", c.state.PC)
	}

	return result
}

// Run executes blocks until HALT, a breakpoint or an error. When
// single-stepping it returns after one step.
func (c *CPU) Run() StepResult {
	for {
		result := c.Step()
		if result.Halted || result.Breakpoint || result.Err != nil || c.singleStep {
			return result
		}
	}
}

// block returns the translated block at pc. Blocks are cached unless they
// were shaped by single-stepping, a resumed breakpoint or the remaining
// instruction budget.
func (c *CPU) block(pc uint32) (*cache.Entry, error) {
	resume := c.resuming && c.resumePC == pc
	c.resuming = false

	budget := c.cfg.MaxInsnsPerBlock
	if c.maxInstructions > 0 {
		if left := c.maxInstructions - c.instructionCount; left < uint64(budget) {
			budget = int(left)
		}
	}
	cacheable := !resume && !c.singleStep && budget == c.cfg.MaxInsnsPerBlock

	if cacheable {
		if entry := c.blocks.Lookup(pc); entry != nil {
			return entry, nil
		}
	}

	opts := translate.Options{
		MaxInsns:   budget,
		PageSize:   c.cfg.PageSize,
		SingleStep: c.singleStep,
	}
	if len(c.breakpoints) > 0 {
		opts.Breakpoint = func(addr uint32) bool {
			_, ok := c.breakpoints[addr]
			return ok && !(resume && addr == pc)
		}
	}

	builder := jit.NewBuilder(c.cfg.MaxOpsPerBlock)
	res := c.translator.Translate(builder, c.fetch, pc, opts)
	block, err := builder.Finish()
	if err != nil {
		return nil, err
	}

	entry := &cache.Entry{Block: block, PC: pc, Size: res.Size, NumInsns: res.NumInsns}
	c.logTrace("translate", "pc", pc, "insns", res.NumInsns, "size", res.Size,
		"ops", len(block.Ops), "cached", cacheable)

	if cacheable {
		c.blocks.Insert(entry)
		for page := pc / c.cfg.PageSize; page <= (entry.End()-1)/c.cfg.PageSize; page++ {
			c.codePages[page] = struct{}{}
		}
	}

	return entry, nil
}

// invalidate keeps translated code coherent with a store of size bytes
// at addr.
func (c *CPU) invalidate(addr, size uint32) {
	last := addr + size - 1
	c.fetch.Invalidate(addr)
	c.fetch.Invalidate(last)

	for _, a := range []uint32{addr, last} {
		page := a / c.cfg.PageSize
		if _, ok := c.codePages[page]; !ok {
			continue
		}
		delete(c.codePages, page)
		n := c.blocks.InvalidatePage(a, c.cfg.PageSize)
		c.logTrace("invalidate", "page", page*c.cfg.PageSize, "blocks", n)
	}
}
