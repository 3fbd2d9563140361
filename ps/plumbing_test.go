package ps

import (
	"testing"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChangesNested(t *testing.T) {
	p, err := NewMemoryPersistence()
	require.NoError(t, err)

	a, _ := p.writeBlob([]byte("a"))
	b, _ := p.writeBlob([]byte("b"))

	tree, err := p.applyChanges(plumbing.ZeroHash, []change{
		{path: "one/a", blob: a},
		{path: "one/two/b", blob: b},
		{path: "top", blob: a},
	})
	require.NoError(t, err)

	_, err = p.commitTree(tree, testIdentity, "seed")
	require.NoError(t, err)

	data, err := p.readFile("one/two/b")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	names, _ := p.listFiles("one")
	assert.Equal(t, []string{"a"}, names)
}

func TestApplyChangesPrunesEmptyDirs(t *testing.T) {
	p, _ := NewMemoryPersistence()

	blob, _ := p.writeBlob([]byte("x"))
	tree, _ := p.applyChanges(plumbing.ZeroHash, []change{{path: "dir/sub/file", blob: blob}})

	tree, err := p.applyChanges(tree, []change{{path: "dir/sub/file", remove: true}})
	require.NoError(t, err)
	assert.Equal(t, plumbing.ZeroHash, tree, "removing the only file leaves an empty tree")
}

func TestCommitChainsParents(t *testing.T) {
	p, _ := NewMemoryPersistence()

	first, _ := p.InsertRecord("a", 1, testIdentity)
	second, _ := p.InsertRecord("b", 2, testIdentity)

	commit, err := p.repo.CommitObject(plumbing.NewHash(second.Id))
	require.NoError(t, err)
	require.Len(t, commit.ParentHashes, 1)
	assert.Equal(t, first.Id, commit.ParentHashes[0].String())
	assert.Equal(t, "Insert data/b", commit.Message)
}
