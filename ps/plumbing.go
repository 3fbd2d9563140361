package ps

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/filemode"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/nickyhof/CommitKV/core"
)

// change is one edit to a tree: a blob to set at path, or a removal.
type change struct {
	path   string
	blob   plumbing.Hash
	remove bool
}

// writeBlob stores data in the object database without touching a worktree.
func (p *Persistence) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := p.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to create blob writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("failed to write blob data: %w", err)
	}
	writer.Close()

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store blob: %w", err)
	}
	return hash, nil
}

// headTree returns the root tree hash of HEAD, or ZeroHash before the first
// commit.
func (p *Persistence) headTree() (plumbing.Hash, error) {
	headRef, err := p.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, nil
	}

	commit, err := p.repo.CommitObject(headRef.Hash())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get head commit: %w", err)
	}
	return commit.TreeHash, nil
}

func (p *Persistence) treeEntries(treeHash plumbing.Hash) (map[string]object.TreeEntry, error) {
	entries := make(map[string]object.TreeEntry)
	if treeHash == plumbing.ZeroHash {
		return entries, nil
	}

	tree, err := object.GetTree(p.repo.Storer, treeHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	for _, entry := range tree.Entries {
		entries[entry.Name] = entry
	}
	return entries, nil
}

func (p *Persistence) writeTree(entries map[string]object.TreeEntry) (plumbing.Hash, error) {
	list := make([]object.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		list = append(list, entry)
	}

	// Git orders directories as if their name had a trailing slash.
	sort.Slice(list, func(i, j int) bool {
		nameI, nameJ := list[i].Name, list[j].Name
		if list[i].Mode == filemode.Dir {
			nameI += "/"
		}
		if list[j].Mode == filemode.Dir {
			nameJ += "/"
		}
		return nameI < nameJ
	})

	obj := p.repo.Storer.NewEncodedObject()
	if err := (&object.Tree{Entries: list}).Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to encode tree: %w", err)
	}

	hash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to store tree: %w", err)
	}
	return hash, nil
}

// applyChanges rewrites the tree rooted at treeHash, recursing once per
// directory level. Directories left empty are dropped; a fully empty result
// is ZeroHash.
func (p *Persistence) applyChanges(treeHash plumbing.Hash, changes []change) (plumbing.Hash, error) {
	if len(changes) == 0 {
		return treeHash, nil
	}

	entries, err := p.treeEntries(treeHash)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	nested := make(map[string][]change)
	for _, c := range changes {
		dir, rest, found := strings.Cut(c.path, "/")
		if found {
			nested[dir] = append(nested[dir], change{path: rest, blob: c.blob, remove: c.remove})
			continue
		}
		if c.remove {
			delete(entries, c.path)
		} else {
			entries[c.path] = object.TreeEntry{Name: c.path, Mode: filemode.Regular, Hash: c.blob}
		}
	}

	for dir, subChanges := range nested {
		subTree := plumbing.ZeroHash
		if existing, ok := entries[dir]; ok && existing.Mode == filemode.Dir {
			subTree = existing.Hash
		}

		newSubTree, err := p.applyChanges(subTree, subChanges)
		if err != nil {
			return plumbing.ZeroHash, err
		}

		if newSubTree == plumbing.ZeroHash {
			delete(entries, dir)
		} else {
			entries[dir] = object.TreeEntry{Name: dir, Mode: filemode.Dir, Hash: newSubTree}
		}
	}

	if len(entries) == 0 {
		return plumbing.ZeroHash, nil
	}
	return p.writeTree(entries)
}

// commitTree records treeHash as a new commit on the current branch.
func (p *Persistence) commitTree(treeHash plumbing.Hash, identity core.Identity, message string) (Transaction, error) {
	if treeHash == plumbing.ZeroHash {
		var err error
		treeHash, err = p.writeTree(nil)
		if err != nil {
			return Transaction{}, err
		}
	}

	var parents []plumbing.Hash
	headRef, err := p.repo.Head()
	if err == nil {
		parents = []plumbing.Hash{headRef.Hash()}
	}

	sig := object.Signature{
		Name:  identity.Name,
		Email: identity.Email,
		When:  time.Now(),
	}

	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}

	obj := p.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return Transaction{}, fmt.Errorf("failed to encode commit: %w", err)
	}

	commitHash, err := p.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to store commit: %w", err)
	}

	branch := plumbing.Master
	if headRef != nil && headRef.Name().IsBranch() {
		branch = headRef.Name()
	}
	if err := p.repo.Storer.SetReference(plumbing.NewHashReference(branch, commitHash)); err != nil {
		return Transaction{}, fmt.Errorf("failed to update HEAD: %w", err)
	}

	return Transaction{
		Id:     commitHash.String(),
		When:   sig.When,
		Author: identity.String(),
	}, nil
}

// commitChanges applies changes on top of HEAD and commits the result.
func (p *Persistence) commitChanges(changes []change, identity core.Identity, message string) (Transaction, error) {
	current, err := p.headTree()
	if err != nil {
		return Transaction{}, err
	}

	newTree, err := p.applyChanges(current, changes)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to update tree: %w", err)
	}

	return p.commitTree(newTree, identity, message)
}

func (p *Persistence) headCommitTree() (*object.Tree, error) {
	headRef, err := p.repo.Head()
	if err != nil {
		return nil, nil
	}

	commit, err := p.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}
	return commit.Tree()
}

// readFile reads a blob at filePath from HEAD. A missing file, or a
// repository without commits, is ErrNotFound.
func (p *Persistence) readFile(filePath string) ([]byte, error) {
	tree, err := p.headCommitTree()
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, ErrNotFound
	}

	file, err := tree.File(filePath)
	if err != nil {
		return nil, ErrNotFound
	}

	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	return []byte(content), nil
}

func (p *Persistence) fileExists(filePath string) (bool, error) {
	_, err := p.readFile(filePath)
	switch err {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

// listFiles returns the names of the regular files directly under dir, in
// tree order.
func (p *Persistence) listFiles(dir string) ([]string, error) {
	tree, err := p.headCommitTree()
	if err != nil || tree == nil {
		return []string{}, err
	}

	sub, err := tree.Tree(path.Clean(dir))
	if err != nil {
		return []string{}, nil
	}

	names := make([]string, 0, len(sub.Entries))
	for _, entry := range sub.Entries {
		if entry.Mode != filemode.Dir {
			names = append(names, entry.Name)
		}
	}
	return names, nil
}
