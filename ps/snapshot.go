package ps

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotExists   = errors.New("snapshot already exists")
)

// Snapshot tags a transaction, HEAD when asof is nil, under name.
func (persistence *Persistence) Snapshot(name string, asof *Transaction) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	persistence.mu.Lock()
	defer persistence.mu.Unlock()

	var target plumbing.Hash
	if asof != nil {
		target = plumbing.NewHash(asof.Id)
	} else {
		headRef, err := persistence.repo.Head()
		if err != nil {
			return fmt.Errorf("nothing to snapshot: %w", err)
		}
		target = headRef.Hash()
	}

	if _, err := persistence.repo.CreateTag(name, target, nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return fmt.Errorf("%w: %s", ErrSnapshotExists, name)
		}
		return fmt.Errorf("failed to create snapshot '%s': %w", name, err)
	}
	return nil
}

// Recover moves the current branch back to the snapshot. Later commits stay
// in the object database but are no longer reachable from HEAD.
func (persistence *Persistence) Recover(name string) error {
	if err := persistence.ensureInitialized(); err != nil {
		return err
	}

	persistence.mu.Lock()
	defer persistence.mu.Unlock()

	ref, err := persistence.repo.Tag(name)
	if err != nil {
		if errors.Is(err, git.ErrTagNotFound) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return err
	}

	branch := plumbing.Master
	if headRef, err := persistence.repo.Head(); err == nil && headRef.Name().IsBranch() {
		branch = headRef.Name()
	}
	if err := persistence.repo.Storer.SetReference(plumbing.NewHashReference(branch, ref.Hash())); err != nil {
		return err
	}
	if persistence.cache != nil {
		persistence.cache.Clear()
	}
	return nil
}
