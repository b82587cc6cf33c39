// Package cache memoizes generated Javadoc comments across runs.
//
// Entries are addressed by a SHA-256 key over the cache format version, the
// rendering options and the input document. Reads try the in-memory LRU first
// and fall back to the optional on-disk store, promoting disk hits.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
)

// formatVersion invalidates every key when the comment format changes.
const formatVersion = "docfang-cache-v1"

// Key derives the cache key of input rendered with options.
func Key(options string, input []byte) string {
	h := sha256.New()

	h.Write([]byte(formatVersion))
	h.Write([]byte{0})
	h.Write([]byte(options))
	h.Write([]byte{0})
	h.Write(input)

	return hex.EncodeToString(h.Sum(nil))
}

// Stats holds cache counters.
type Stats struct {
	Hits       int64
	Misses     int64
	DiskHits   int64
	DiskMisses int64
	Entries    int
	MemorySize int64
}

// HitRate returns the fraction of lookups served by either tier.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

// Cache is the two-tier comment cache. It is safe for concurrent use.
type Cache struct {
	mem  *LRU
	disk *DiskStore

	hits       atomic.Int64
	misses     atomic.Int64
	diskHits   atomic.Int64
	diskMisses atomic.Int64
}

// New creates a cache with a memory budget of memSize bytes. An empty dir
// disables the disk tier.
func New(memSize int64, dir string) (*Cache, error) {
	c := &Cache{mem: NewLRU(memSize)}

	if dir != "" {
		disk, err := NewDiskStore(dir)
		if err != nil {
			return nil, err
		}

		c.disk = disk
	}

	return c, nil
}

// Get returns the cached value for key.
func (c *Cache) Get(key string) (string, bool) {
	if value, ok := c.mem.Get(key); ok {
		c.hits.Add(1)

		return value, true
	}

	if c.disk != nil {
		if value, ok := c.disk.Get(key); ok {
			c.diskHits.Add(1)
			c.hits.Add(1)
			c.mem.Put(key, value)

			return value, true
		}

		c.diskMisses.Add(1)
	}

	c.misses.Add(1)

	return "", false
}

// Put stores value in both tiers.
func (c *Cache) Put(key, value string) error {
	c.mem.Put(key, value)

	if c.disk == nil {
		return nil
	}

	return c.disk.Put(key, value)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		DiskHits:   c.diskHits.Load(),
		DiskMisses: c.diskMisses.Load(),
		Entries:    c.mem.Len(),
		MemorySize: c.mem.Size(),
	}
}
