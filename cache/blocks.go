package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/rh850sim/jit"
)

// Entry is one translated block and the guest range it covers.
type Entry struct {
	Block    *jit.Block
	PC       uint32
	Size     uint32
	NumInsns int
}

// End returns the first guest address past the block.
func (e *Entry) End() uint32 {
	return e.PC + e.Size
}

// Overlaps reports whether the block covers any byte in [lo, hi).
func (e *Entry) Overlaps(lo, hi uint32) bool {
	return e.PC < hi && lo < e.End()
}

// BlockStats holds translation cache statistics.
type BlockStats struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Inserts       uint64
	Evictions     uint64
	Invalidations uint64
}

// BlockCache maps guest PCs to translated blocks. Entries are kept in an
// Akita directory with halfword granularity so that every instruction start
// maps to its own tag.
type BlockCache struct {
	numSets       int
	associativity int

	directory *akitacache.DirectoryImpl
	entries   []*Entry

	stats BlockStats
}

// NewBlockCache creates a translation cache holding up to
// numSets*associativity blocks.
func NewBlockCache(numSets, associativity int) *BlockCache {
	return &BlockCache{
		numSets:       numSets,
		associativity: associativity,
		directory: akitacache.NewDirectory(
			numSets,
			associativity,
			2,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]*Entry, numSets*associativity),
	}
}

// Capacity returns the number of blocks the cache can hold.
func (c *BlockCache) Capacity() int {
	return c.numSets * c.associativity
}

// Stats returns translation cache statistics.
func (c *BlockCache) Stats() BlockStats {
	return c.stats
}

func (c *BlockCache) index(block *akitacache.Block) int {
	return block.SetID*c.associativity + block.WayID
}

// Lookup returns the block translated at pc, or nil.
func (c *BlockCache) Lookup(pc uint32) *Entry {
	c.stats.Lookups++

	block := c.directory.Lookup(0, uint64(pc))
	if block == nil || !block.IsValid {
		c.stats.Misses++
		return nil
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.index(block)]
}

// Insert records e under e.PC, replacing any block already there and
// evicting the least recently used block of the set if it is full.
func (c *BlockCache) Insert(e *Entry) {
	c.stats.Inserts++

	addr := uint64(e.PC)
	block := c.directory.Lookup(0, addr)
	if block == nil || !block.IsValid {
		block = c.directory.FindVictim(addr)
		if block.IsValid {
			c.stats.Evictions++
		}
	}

	block.Tag = addr
	block.IsValid = true
	block.IsDirty = false
	c.entries[c.index(block)] = e
	c.directory.Visit(block)
}

// Invalidate drops every block that covers a byte in [lo, hi) and returns
// how many were dropped.
func (c *BlockCache) Invalidate(lo, hi uint32) int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if !block.IsValid {
				continue
			}

			idx := c.index(block)
			if c.entries[idx].Overlaps(lo, hi) {
				block.IsValid = false
				c.entries[idx] = nil
				n++
			}
		}
	}

	c.stats.Invalidations += uint64(n)
	return n
}

// InvalidatePage drops every block overlapping the page of pageSize bytes
// that holds addr.
func (c *BlockCache) InvalidatePage(addr, pageSize uint32) int {
	lo := addr &^ (pageSize - 1)
	return c.Invalidate(lo, lo+pageSize)
}

// Len returns the number of valid blocks.
func (c *BlockCache) Len() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Reset drops every block and clears the statistics.
func (c *BlockCache) Reset() {
	c.directory.Reset()
	for i := range c.entries {
		c.entries[i] = nil
	}
	c.stats = BlockStats{}
}
