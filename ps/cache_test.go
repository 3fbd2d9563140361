package ps

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	values  map[string]any
	hits    int
	cleared int
}

func newMapCache() *mapCache {
	return &mapCache{values: map[string]any{}}
}

func (c *mapCache) Get(key string) (any, bool) {
	v, ok := c.values[key]
	if ok {
		c.hits++
	}
	return v, ok
}

func (c *mapCache) Add(key string, value any) { c.values[key] = value }
func (c *mapCache) Remove(key string) { delete(c.values, key) }
func (c *mapCache) Clear() {
	c.values = map[string]any{}
	c.cleared++
}

func TestRecordCache(t *testing.T) {
	p, _ := NewMemoryPersistence()
	cache := newMapCache()
	p.SetCache(cache)

	p.InsertRecord("k", "v1", testIdentity)
	p.GetRecord("k")
	require.Equal(t, "v1", cache.values["k"], "read fills the cache")

	p.GetRecord("k")
	assert.Equal(t, 1, cache.hits)

	p.UpdateRecord("k", "v2", testIdentity)
	assert.NotContains(t, cache.values, "k", "update invalidates the key")
	v, _ := p.GetRecord("k")
	assert.Equal(t, "v2", v)

	p.DeleteRecord("k", testIdentity)
	assert.NotContains(t, cache.values, "k", "delete invalidates the key")
}

func TestRecordCacheIgnoresUsers(t *testing.T) {
	p, _ := NewMemoryPersistence()
	cache := newMapCache()
	p.SetCache(cache)

	cache.values["alice"] = "stale"
	p.CreateUser("alice", "pw", 0, testIdentity)

	assert.Equal(t, "stale", cache.values["alice"], "user writes leave data entries alone")
}

func TestRecoverClearsCache(t *testing.T) {
	p, _ := NewMemoryPersistence()
	cache := newMapCache()
	p.SetCache(cache)

	p.InsertRecord("k", 1, testIdentity)
	p.Snapshot("s", nil)
	p.UpdateRecord("k", 2, testIdentity)
	p.GetRecord("k")

	require.NoError(t, p.Recover("s"))
	assert.Equal(t, 1, cache.cleared)
	v, _ := p.GetRecord("k")
	assert.Equal(t, json.Number("1"), v)
}
