package cpu

import (
	"github.com/sarchlab/rh850sim/config"
	"github.com/sarchlab/rh850sim/emu"
)

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithConfig sets the configuration. The CPU keeps its own copy.
func WithConfig(cfg *config.Config) Option {
	return func(c *CPU) {
		c.cfg = cfg.Clone()
	}
}

// WithMemory runs the CPU on an existing memory.
func WithMemory(m *emu.Memory) Option {
	return func(c *CPU) {
		c.memory = m
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 falls back to the configured limit.
func WithMaxInstructions(n uint64) Option {
	return func(c *CPU) {
		c.maxInstructions = n
	}
}

// WithBreakpoint adds a breakpoint.
func WithBreakpoint(pc uint32) Option {
	return func(c *CPU) {
		c.breakpoints[pc] = struct{}{}
	}
}

// WithSingleStep makes every step execute exactly one instruction.
func WithSingleStep() Option {
	return func(c *CPU) {
		c.singleStep = true
	}
}

// WithTrace logs translation, exception and invalidation events at
// LevelTrace.
func WithTrace() Option {
	return func(c *CPU) {
		c.trace = true
	}
}
