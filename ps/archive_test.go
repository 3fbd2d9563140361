package ps

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportArchiveMemoryMode(t *testing.T) {
	persistence, _ := NewMemoryPersistence()

	var buf bytes.Buffer
	assert.ErrorIs(t, persistence.ExportArchive(&buf), ErrMemoryMode)
}

// writeArchive exports source to a .tar.gz file and returns its path.
func writeArchive(t *testing.T, source *Persistence) string {
	t.Helper()
	archive := filepath.Join(t.TempDir(), "backup.tar.gz")
	f, err := os.Create(archive)
	require.NoError(t, err)
	require.NoError(t, source.ExportArchive(f))
	require.NoError(t, f.Close())
	return archive
}

func TestArchiveRoundTrip(t *testing.T) {
	source, err := NewFilePersistence(filepath.Join(t.TempDir(), "src"))
	require.NoError(t, err)
	source.InsertRecord("k1", "v1", testIdentity)
	source.InsertRecord("k2", map[string]any{"n": 2.5}, testIdentity)

	archive := writeArchive(t, source)

	target := filepath.Join(t.TempDir(), "restored")
	restored, err := Restore(context.Background(), archive, target, RestoreOptions{})
	require.NoError(t, err)

	keys, _ := restored.ListKeys()
	assert.Equal(t, []string{"k1", "k2"}, keys)
	value, _ := restored.GetRecord("k1")
	assert.Equal(t, "v1", value)
	assert.Equal(t, source.LatestTransaction().Id, restored.LatestTransaction().Id)

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(target), ".restored.restore-*"))
	assert.Empty(t, leftovers, "staging directory is removed")
}

func TestRestoreTargetExists(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0644))

	_, err := Restore(context.Background(), "missing.tar.gz", target, RestoreOptions{})
	assert.ErrorIs(t, err, ErrTargetExists)
	assert.FileExists(t, filepath.Join(target, "keep"))
}

func TestForcedRestoreFailureKeepsExistingDatabase(t *testing.T) {
	target := filepath.Join(t.TempDir(), "db")
	existing, err := NewFilePersistence(target)
	require.NoError(t, err)
	_, err = existing.InsertRecord("k", "precious", testIdentity)
	require.NoError(t, err)
	head := existing.LatestTransaction().Id

	missing := filepath.Join(t.TempDir(), "gone.tar.gz")
	_, err = Restore(context.Background(), missing, target, RestoreOptions{Force: true})
	require.Error(t, err)

	assert.DirExists(t, filepath.Join(target, ".git"))
	reopened, err := NewFilePersistence(target)
	require.NoError(t, err)
	value, err := reopened.GetRecord("k")
	require.NoError(t, err)
	assert.Equal(t, "precious", value)
	assert.Equal(t, head, reopened.LatestTransaction().Id)
}

func TestForcedRestoreReplacesDatabase(t *testing.T) {
	source, err := NewFilePersistence(filepath.Join(t.TempDir(), "src"))
	require.NoError(t, err)
	source.InsertRecord("fresh", "new", testIdentity)
	archive := writeArchive(t, source)

	target := filepath.Join(t.TempDir(), "db")
	existing, err := NewFilePersistence(target)
	require.NoError(t, err)
	existing.InsertRecord("stale", "old", testIdentity)

	restored, err := Restore(context.Background(), archive, target, RestoreOptions{Force: true})
	require.NoError(t, err)

	keys, _ := restored.ListKeys()
	assert.Equal(t, []string{"fresh"}, keys)
	entries, _ := os.ReadDir(filepath.Dir(target))
	assert.Len(t, entries, 1, "only the database remains next to the target")
}

func TestRestoreRejectsS3Repository(t *testing.T) {
	target := filepath.Join(t.TempDir(), "db")

	_, err := Restore(context.Background(), "s3://bucket/repo", target, RestoreOptions{})
	require.Error(t, err)
	assert.NoDirExists(t, target)
}

func TestRestoreFromLocalRepository(t *testing.T) {
	sourceDir := filepath.Join(t.TempDir(), "src")
	source, err := NewFilePersistence(sourceDir)
	require.NoError(t, err)
	source.InsertRecord("k", "cloned", testIdentity)

	target := filepath.Join(t.TempDir(), "clone")
	restored, err := Restore(context.Background(), sourceDir, target, RestoreOptions{})
	require.NoError(t, err)

	value, _ := restored.GetRecord("k")
	assert.Equal(t, "cloned", value)
	assert.Equal(t, source.LatestTransaction().Id, restored.LatestTransaction().Id)
}

func TestRestoreMissingSource(t *testing.T) {
	target := filepath.Join(t.TempDir(), "db")

	_, err := Restore(context.Background(), filepath.Join(t.TempDir(), "nope"), target, RestoreOptions{})
	require.Error(t, err)
	assert.NoDirExists(t, target)
}
