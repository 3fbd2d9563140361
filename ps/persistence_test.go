package ps

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/nickyhof/CommitKV/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = core.Identity{Name: "test", Email: "test@test.com"}

func TestNewMemoryPersistence(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	require.NoError(t, err)

	assert.True(t, persistence.IsInitialized())
	assert.True(t, persistence.IsMemoryMode())
}

func TestPersistenceNotInitialized(t *testing.T) {
	var persistence Persistence

	assert.False(t, persistence.IsInitialized())
	assert.Equal(t, ErrNotInitialized, persistence.ensureInitialized())

	_, err := persistence.GetRecord("k")
	assert.Equal(t, ErrNotInitialized, err)
}

func TestInsertAndGetRecord(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	require.NoError(t, err)

	txn, err := persistence.InsertRecord("user1", map[string]any{"name": "Alice", "age": 30}, testIdentity)
	require.NoError(t, err)
	assert.NotEmpty(t, txn.Id)
	assert.Equal(t, "test <test@test.com>", txn.Author)

	value, err := persistence.GetRecord("user1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Alice", "age": json.Number("30")}, value)
}

func TestLargeIntegersSurviveStorage(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	// 2^53 + 1 has no exact float64 form.
	big := json.Number("9007199254740993")
	_, err := persistence.InsertRecord("big", map[string]any{"id": big, "neg": json.Number("-9223372036854775808")}, testIdentity)
	require.NoError(t, err)

	value, err := persistence.GetRecord("big")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": big, "neg": json.Number("-9223372036854775808")}, value)

	_, err = persistence.UpdateRecord("big", value, testIdentity)
	require.NoError(t, err)
	again, _ := persistence.GetRecord("big")
	assert.Equal(t, value, again)
}

func TestInsertExistingKey(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	_, err := persistence.InsertRecord("k", "v1", testIdentity)
	require.NoError(t, err)

	_, err = persistence.InsertRecord("k", "v2", testIdentity)
	require.ErrorIs(t, err, ErrKeyExists)

	value, _ := persistence.GetRecord("k")
	assert.Equal(t, "v1", value, "original value survives")
}

func TestUpdateRecord(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	_, err := persistence.UpdateRecord("missing", 1, testIdentity)
	require.ErrorIs(t, err, ErrKeyNotExists)

	persistence.InsertRecord("k", 1, testIdentity)
	_, err = persistence.UpdateRecord("k", []any{"a", true}, testIdentity)
	require.NoError(t, err)

	value, _ := persistence.GetRecord("k")
	assert.Equal(t, []any{"a", true}, value)
}

func TestDeleteRecord(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	_, err := persistence.DeleteRecord("missing", testIdentity)
	require.ErrorIs(t, err, ErrKeyNotExists)

	persistence.InsertRecord("k", nil, testIdentity)
	_, err = persistence.DeleteRecord("k", testIdentity)
	require.NoError(t, err)

	_, err = persistence.GetRecord("k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMissingRecord(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	// Empty repository, no commits yet
	_, err := persistence.GetRecord("nothing")
	assert.ErrorIs(t, err, ErrNotFound)

	persistence.InsertRecord("other", 1, testIdentity)
	_, err = persistence.GetRecord("nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidKey(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	for _, key := range []string{"", "a/b", ".", ".."} {
		_, err := persistence.InsertRecord(key, 1, testIdentity)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestListKeys(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	keys, err := persistence.ListKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, key := range []string{"charlie", "alpha", "bravo"} {
		persistence.InsertRecord(key, key, testIdentity)
	}
	persistence.DeleteRecord("bravo", testIdentity)

	keys, _ = persistence.ListKeys()
	assert.Equal(t, []string{"alpha", "charlie"}, keys)
}

func TestFilePersistenceReopen(t *testing.T) {
	dir := t.TempDir()

	persistence, err := NewFilePersistence(dir)
	require.NoError(t, err)
	assert.False(t, persistence.IsMemoryMode())

	_, err = persistence.InsertRecord("k", map[string]any{"x": "y"}, testIdentity)
	require.NoError(t, err)

	reopened, err := NewFilePersistence(dir)
	require.NoError(t, err)

	value, err := reopened.GetRecord("k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": "y"}, value)
}
