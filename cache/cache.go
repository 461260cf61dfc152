// Package cache holds the caches in front of translation: a set-associative
// instruction-fetch cache over guest memory and a PC-keyed cache of
// translated blocks. Both use Akita cache directories for tag and LRU
// management.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache geometry.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (line size)
	BlockSize int `json:"block_size"`
}

// DefaultFetchConfig returns the default instruction-fetch cache geometry:
// 16KB, 4-way, 32B lines.
func DefaultFetchConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     32,
	}
}

// NumSets returns the number of sets the geometry describes.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Statistics holds cache statistics.
type Statistics struct {
	Reads     uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// BackingStore is the memory behind a cache.
type BackingStore interface {
	// ReadBlock fills b with the bytes at addr.
	ReadBlock(addr uint32, b []byte)
}

// Cache is a read-only line cache used for instruction fetch. Guest stores
// never go through it; the owner invalidates lines that stores touch.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage, indexed by setID * associativity + wayID
	dataStore [][]byte

	stats   Statistics
	backing BackingStore
}

// New creates a cache with the given geometry over backing.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.NumSets()
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint32) uint64 {
	bs := uint64(c.config.BlockSize)
	return uint64(addr) / bs * bs
}

// line returns the cached line holding addr, filling it on a miss.
func (c *Cache) line(addr uint32) []byte {
	c.stats.Reads++
	blockAddr := c.blockAddr(addr)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		return c.dataStore[c.blockIndex(block)]
	}

	c.stats.Misses++
	victim := c.directory.FindVictim(blockAddr)
	data := c.dataStore[c.blockIndex(victim)]
	if victim.IsValid {
		c.stats.Evictions++
	}

	c.backing.ReadBlock(uint32(blockAddr), data)
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return data
}

// Read returns size bytes at addr, little-endian. Accesses that straddle a
// line are split.
func (c *Cache) Read(addr uint32, size int) uint32 {
	var v uint32
	for i := 0; i < size; i++ {
		a := addr + uint32(i)
		b := c.line(a)[a%uint32(c.config.BlockSize)]
		v |= uint32(b) << (8 * i)
	}
	return v
}

// Read16 returns the halfword at addr. It lets the cache serve as the
// decoder's instruction source.
func (c *Cache) Read16(addr uint32) uint16 {
	if addr%uint32(c.config.BlockSize) == uint32(c.config.BlockSize)-1 {
		return uint16(c.Read(addr, 2))
	}
	line := c.line(addr)
	off := addr % uint32(c.config.BlockSize)
	return uint16(line[off]) | uint16(line[off+1])<<8
}

// Invalidate drops the line holding addr, if cached.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates every line and clears the statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
