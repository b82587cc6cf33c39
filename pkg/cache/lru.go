package cache

import "sync"

// DefaultMemorySize is the default byte budget of the in-memory tier (16 MB).
const DefaultMemorySize = 16 * 1024 * 1024

// bytesPerKB normalizes entry sizes when computing eviction cost.
const bytesPerKB = 1024.0

// evictionSampleSize is the number of LRU-tail candidates weighed on eviction.
const evictionSampleSize = 5

// LRU is a size-bounded in-memory cache of rendered comments.
// It tracks memory usage and evicts least recently used entries when the limit is exceeded.
type LRU struct {
	mu          sync.Mutex
	entries     map[string]*lruEntry
	head        *lruEntry // Most recently used.
	tail        *lruEntry // Least recently used.
	maxSize     int64
	currentSize int64
}

type lruEntry struct {
	key         string
	value       string
	size        int64
	accessCount int64
	prev        *lruEntry
	next        *lruEntry
}

// evictionCost favors evicting large, rarely read entries.
func (e *lruEntry) evictionCost() float64 {
	sizeKB := max(float64(e.size)/bytesPerKB, 1)

	return float64(e.accessCount) / sizeKB
}

// NewLRU creates an LRU bounded to maxSize bytes of keys and values.
func NewLRU(maxSize int64) *LRU {
	if maxSize <= 0 {
		maxSize = DefaultMemorySize
	}

	return &LRU{
		entries: make(map[string]*lruEntry),
		maxSize: maxSize,
	}
}

// Get returns the value stored under key.
func (c *LRU) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry.accessCount++
	c.moveToFront(entry)

	return entry.value, true
}

// Put stores value under key. Values larger than the whole budget are dropped.
func (c *LRU) Put(key, value string) {
	size := int64(len(key) + len(value))
	if size > c.maxSize {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.currentSize += size - entry.size
		entry.value = value
		entry.size = size
		entry.accessCount++
		c.moveToFront(entry)

		for c.currentSize > c.maxSize && c.tail != nil && c.tail != entry {
			c.evictLowestCost(entry)
		}

		return
	}

	for c.currentSize+size > c.maxSize && c.tail != nil {
		c.evictLowestCost(nil)
	}

	entry := &lruEntry{key: key, value: value, size: size, accessCount: 1}

	c.entries[key] = entry
	c.currentSize += size
	c.addToFront(entry)
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Size returns the bytes currently held.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.currentSize
}

func (c *LRU) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *LRU) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *LRU) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}
}

// evictLowestCost samples the tail and removes the cheapest entry other
// than keep.
func (c *LRU) evictLowestCost(keep *lruEntry) {
	var victim *lruEntry

	lowestCost := 0.0
	count := 0

	for entry := c.tail; entry != nil && count < evictionSampleSize; entry = entry.prev {
		if entry == keep {
			continue
		}

		count++

		if cost := entry.evictionCost(); victim == nil || cost < lowestCost {
			victim = entry
			lowestCost = cost
		}
	}

	if victim == nil {
		return
	}

	c.removeFromList(victim)
	delete(c.entries, victim.key)
	c.currentSize -= victim.size
}
