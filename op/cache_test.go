package op

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheScopes(t *testing.T) {
	cache := NewCache(2)
	a := cache.For("a")
	b := cache.For("b")

	a.Add("k", 1)
	b.Add("k", 2)

	v, ok := a.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = b.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	a.Remove("k")
	_, ok = a.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewCache(2)
	s := cache.For("db")

	s.Add("one", 1)
	s.Add("two", 2)
	s.Get("one")
	s.Add("three", 3)

	_, ok := s.Get("two")
	assert.False(t, ok)
	_, ok = s.Get("one")
	assert.True(t, ok)

	s.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestSharedReadsGoThroughCache(t *testing.T) {
	shared := newShared(t)
	session := NewInterface(shared, "default", nil)

	session.Insert("k", "v")
	assert.Equal(t, 0, shared.Cache.Len())

	session.Get("k")
	assert.Equal(t, 1, shared.Cache.Len())

	session.Delete("k")
	assert.Equal(t, 0, shared.Cache.Len())
}

func TestCacheGenerationsAreSeparate(t *testing.T) {
	cache := NewCache(10)
	old := cache.For("db")
	old.Add("k", "stale")

	fresh := cache.For("db")
	_, ok := fresh.Get("k")
	assert.False(t, ok)
}

func TestDroppedDatabaseDoesNotFeedCache(t *testing.T) {
	shared := newShared(t)
	session := NewInterface(shared, "db", nil)
	require.NoError(t, session.Insert("k", "old"))

	// A session that resolved the repository before the drop.
	stale, err := shared.Databases.Get("db")
	require.NoError(t, err)

	require.NoError(t, session.DeleteDatabase("db"))

	value, err := stale.GetRecord("k")
	require.NoError(t, err)
	assert.Equal(t, "old", value)
	assert.Equal(t, 0, shared.Cache.Len())

	require.NoError(t, session.Insert("k", "new"))
	value, err = session.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "new", value)
}
