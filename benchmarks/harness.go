// Package benchmarks runs small guest programs on the translating CPU and
// reports instruction throughput together with block and fetch cache
// behavior.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/rh850sim/asm"
	"github.com/sarchlab/rh850sim/config"
	"github.com/sarchlab/rh850sim/cpu"
	"github.com/sarchlab/rh850sim/emu"
)

// ProgramBase is the address benchmark programs are assembled at.
const ProgramBase = 0x1000

// BenchmarkResult holds the results of a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Instructions is the number of guest instructions executed
	Instructions uint64 `json:"instructions"`

	// Steps is the number of blocks executed
	Steps uint64 `json:"steps"`

	// BlockHits and BlockMisses count translated block cache lookups
	BlockHits   uint64 `json:"block_hits"`
	BlockMisses uint64 `json:"block_misses"`

	// Invalidations is the number of blocks dropped by stores to code
	Invalidations uint64 `json:"invalidations"`

	// FetchHits and FetchMisses count instruction fetch cache accesses
	FetchHits   uint64 `json:"fetch_hits"`
	FetchMisses uint64 `json:"fetch_misses"`

	// Result is the final value of the checked register
	Result uint32 `json:"result"`

	// Passed is true if Result matched the expected value
	Passed bool `json:"passed"`

	// Error is set if the program did not halt
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the program
	WallTime time.Duration `json:"wall_time_ns"`
}

// MIPS returns the guest instructions executed per microsecond.
func (r BenchmarkResult) MIPS() float64 {
	if r.WallTime <= 0 {
		return 0
	}
	return float64(r.Instructions) / float64(r.WallTime.Microseconds()+1)
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Setup prepares the state before the run, if set
	Setup func(state *emu.State, memory *emu.Memory)

	// Source is the assembly source, assembled at ProgramBase
	Source string

	// Reg is the register checked after the program halts
	Reg uint8

	// Expected is the value Reg must hold
	Expected uint32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// CPU is the CPU configuration. Nil selects config.Default().
	CPU *config.Config

	// MaxInstructions stops runaway programs
	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		CPU:             config.Default(),
		MaxInstructions: 10_000_000,
		Output:          os.Stdout,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{config: config}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}
	return results
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{Name: bench.Name, Description: bench.Description}

	opts := []cpu.Option{cpu.WithMaxInstructions(h.config.MaxInstructions)}
	if h.config.CPU != nil {
		opts = append(opts, cpu.WithConfig(h.config.CPU))
	}
	c, err := cpu.New(opts...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	prog, err := asm.Assemble(bench.Source, ProgramBase)
	if err != nil {
		result.Error = fmt.Sprintf("failed to assemble: %v", err)
		return result
	}
	c.LoadProgram(prog.Loadable())
	if bench.Setup != nil {
		bench.Setup(c.State(), c.Memory())
	}

	start := time.Now()
	for {
		step := c.Step()
		if step.Err != nil {
			result.Error = step.Err.Error()
			break
		}
		if step.Halted {
			break
		}
		result.Steps++
	}
	result.WallTime = time.Since(start)

	blocks := c.BlockStats()
	fetch := c.FetchStats()
	result.Instructions = c.InstructionCount()
	result.BlockHits = blocks.Hits
	result.BlockMisses = blocks.Misses
	result.Invalidations = blocks.Invalidations
	result.FetchHits = fetch.Hits
	result.FetchMisses = fetch.Misses
	result.Result = c.State().Reg(bench.Reg)
	result.Passed = result.Error == "" && result.Result == bench.Expected

	return result
}

// PrintResults outputs benchmark results as a table.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	t := table.NewWriter()
	t.SetOutputMirror(h.config.Output)
	t.SetTitle("RH850 Translation Benchmark Results")
	t.AppendHeader(table.Row{
		"Benchmark", "Insns", "Blocks", "Hit", "Miss", "Inval",
		"Fetch Miss", "MIPS", "Result", "Status",
	})

	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
			if r.Error != "" {
				status = r.Error
			}
		}
		t.AppendRow(table.Row{
			r.Name, r.Instructions, r.Steps, r.BlockHits, r.BlockMisses,
			r.Invalidations, r.FetchMisses, fmt.Sprintf("%.2f", r.MIPS()),
			r.Result, status,
		})
	}

	t.Render()
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,steps,block_hits,block_misses,invalidations,fetch_hits,fetch_misses,result,passed,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%d,%d,%d,%t,%d\n",
			r.Name,
			r.Instructions,
			r.Steps,
			r.BlockHits,
			r.BlockMisses,
			r.Invalidations,
			r.FetchHits,
			r.FetchMisses,
			r.Result,
			r.Passed,
			r.WallTime.Nanoseconds(),
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config is the CPU configuration used
	Config *config.Config `json:"config"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Passed            int           `json:"passed"`
	TotalInstructions uint64        `json:"total_instructions"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		if r.Passed {
			summary.Passed++
		}
		summary.TotalInstructions += r.Instructions
		summary.TotalWallTime += r.WallTime
	}

	cfg := h.config.CPU
	if cfg == nil {
		cfg = config.Default()
	}

	report := BenchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Config:    cfg,
		Results:   results,
		Summary:   summary,
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
