package zarr

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/coocood/freecache"

	"github.com/TuSKan/zarr-ngff/internal/logging"
)

// ChunkCache holds decoded chunks. A nil *ChunkCache is valid and caches
// nothing.
type ChunkCache struct {
	cache  *freecache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewChunkCache returns a cache of roughly numBytes, or nil if numBytes <= 0.
// Chunks larger than 1/1024 of the cache size are never cached.
func NewChunkCache(numBytes int) *ChunkCache {
	if numBytes <= 0 {
		return nil
	}
	logging.Debugf("created chunk cache of ~ %d MB", numBytes>>20)
	return &ChunkCache{cache: freecache.NewCache(numBytes)}
}

func (c *ChunkCache) get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		if err != freecache.ErrNotFound {
			logging.Debugf("chunk cache get %s: %v", key, err)
		}
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return val, true
}

func (c *ChunkCache) set(key string, val []byte) {
	if c == nil {
		return
	}
	if err := c.cache.Set([]byte(key), val, 0); err != nil {
		logging.Debugf("chunk %s not cached: %v", key, err)
	}
}

// generations counts puts per store name. Cache keys include the count, so
// chunks decoded before a store is rewritten are never served after it.
var generations sync.Map // store name -> *atomic.Uint64

func generationOf(name string) *atomic.Uint64 {
	if g, ok := generations.Load(name); ok {
		return g.(*atomic.Uint64)
	}
	g, _ := generations.LoadOrStore(name, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// cacheKey must be taken before the chunk is fetched; a put bumps the
// generation only after the store holds the new bytes.
func cacheKey(storeName, key string) string {
	return fmt.Sprintf("%s|%d|%s", storeName, generationOf(storeName).Load(), key)
}

// Invalidate makes every chunk cached for storeName stale. Puts through an
// Array invalidate their store already; drivers that buffer puts until Close,
// like zip archives, need another call once the archive is flushed.
func Invalidate(storeName string) {
	generationOf(storeName).Add(1)
}

// Stats returns the number of cache hits and misses.
func (c *ChunkCache) Stats() (hits, misses uint64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Clear drops every cached chunk.
func (c *ChunkCache) Clear() {
	if c != nil {
		c.cache.Clear()
	}
}
