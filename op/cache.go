package op

import (
	"sync"

	"github.com/golang/groupcache/lru"
	"github.com/nickyhof/CommitKV/ps"
)

// cacheKey carries the generation of the view that added the entry, so a
// database dropped and recreated under the same name never sees the old
// repository's records.
type cacheKey struct {
	database   string
	generation uint64
	key        string
}

// Cache is a process-wide LRU of decoded records shared by every database.
type Cache struct {
	mu         sync.Mutex
	lru        *lru.Cache
	generation uint64
}

func NewCache(maxEntries int) *Cache {
	return &Cache{lru: lru.New(maxEntries)}
}

func (c *Cache) get(k cacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(k)
}

func (c *Cache) add(k cacheKey, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(k, value)
}

func (c *Cache) remove(k cacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(k)
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Clear()
}

// For returns a view of the cache scoped to one opened database. Each call
// starts a new generation: views never share entries.
func (c *Cache) For(database string) ps.RecordCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return scopedCache{cache: c, database: database, generation: c.generation}
}

type scopedCache struct {
	cache      *Cache
	database   string
	generation uint64
}

func (s scopedCache) key(key string) cacheKey {
	return cacheKey{database: s.database, generation: s.generation, key: key}
}

func (s scopedCache) Get(key string) (any, bool) { return s.cache.get(s.key(key)) }
func (s scopedCache) Add(key string, value any) { s.cache.add(s.key(key), value) }
func (s scopedCache) Remove(key string) { s.cache.remove(s.key(key)) }
func (s scopedCache) Clear() { s.cache.Purge() }
