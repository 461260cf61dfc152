// Package config holds the simulator settings that can be stored in a JSON
// file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/rh850sim/internal/i18n"
)

var f = i18n.From

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New(f("invalid configuration"))

// Config holds CPU and translation settings.
type Config struct {
	// ResetPC is the address execution starts from after reset.
	ResetPC uint32 `json:"reset_pc"`

	// MaxInsnsPerBlock bounds the instructions in one translated block.
	// Default: 512.
	MaxInsnsPerBlock int `json:"max_insns_per_block"`

	// MaxOpsPerBlock bounds the emitted operations in one block.
	// Zero means unlimited. Default: 4096.
	MaxOpsPerBlock int `json:"max_ops_per_block"`

	// PageSize is the translation page size in bytes. Blocks never cross
	// a page, and stores invalidate blocks page by page. Default: 4096.
	PageSize uint32 `json:"page_size"`

	// BlockCacheSets and BlockCacheWays size the translated block cache.
	// Default: 256 sets, 4 ways.
	BlockCacheSets int `json:"block_cache_sets"`
	BlockCacheWays int `json:"block_cache_ways"`

	// FetchCacheSize, FetchCacheWays and FetchLineSize give the
	// instruction-fetch cache geometry. Default: 16KB, 4-way, 32B lines.
	FetchCacheSize int `json:"fetch_cache_size"`
	FetchCacheWays int `json:"fetch_cache_ways"`
	FetchLineSize  int `json:"fetch_line_size"`

	// MaxInstructions stops a run after this many instructions.
	// Zero means no limit.
	MaxInstructions uint64 `json:"max_instructions"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ResetPC:          0,
		MaxInsnsPerBlock: 512,
		MaxOpsPerBlock:   4096,
		PageSize:         4096,
		BlockCacheSets:   256,
		BlockCacheWays:   4,
		FetchCacheSize:   16 * 1024,
		FetchCacheWays:   4,
		FetchLineSize:    32,
	}
}

// Load loads a Config from a JSON file. Fields the file omits keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isPow2(v int) bool {
	return v > 0 && v&(v-1) == 0
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.ResetPC&1 != 0 {
		return fmt.Errorf("%w: reset_pc must be halfword aligned", ErrInvalid)
	}
	if c.MaxInsnsPerBlock <= 0 {
		return fmt.Errorf("%w: max_insns_per_block must be > 0", ErrInvalid)
	}
	if c.MaxOpsPerBlock < 0 {
		return fmt.Errorf("%w: max_ops_per_block must be >= 0", ErrInvalid)
	}
	if c.PageSize < 16 || !isPow2(int(c.PageSize)) {
		return fmt.Errorf("%w: page_size must be a power of two >= 16", ErrInvalid)
	}
	if c.BlockCacheSets <= 0 || c.BlockCacheWays <= 0 {
		return fmt.Errorf("%w: block cache must have sets and ways", ErrInvalid)
	}
	if !isPow2(c.FetchLineSize) || c.FetchLineSize < 8 {
		return fmt.Errorf("%w: fetch_line_size must be a power of two >= 8", ErrInvalid)
	}
	if c.FetchCacheWays <= 0 ||
		c.FetchCacheSize < c.FetchCacheWays*c.FetchLineSize ||
		c.FetchCacheSize%(c.FetchCacheWays*c.FetchLineSize) != 0 {
		return fmt.Errorf("%w: fetch_cache_size must be a multiple of ways * line size", ErrInvalid)
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
