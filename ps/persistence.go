package ps

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing/cache"
	"github.com/go-git/go-git/v6/storage/filesystem"
	"github.com/go-git/go-git/v6/storage/memory"
)

var (
	ErrNotInitialized = errors.New("persistence layer not initialized")
	ErrKeyExists      = errors.New("key already exists")
	ErrKeyNotExists   = errors.New("key does not exist")
	ErrNotFound       = errors.New("not found")
	ErrInvalidKey     = errors.New("invalid key")
)

// Persistence is one Git repository holding the records of one database.
// Reads share the lock; every write holds it exclusively for the whole
// check-and-commit sequence.
type Persistence struct {
	repo         *git.Repository
	mu           sync.RWMutex
	isMemoryMode bool
	baseDir      string
	cache        RecordCache
}

// IsInitialized returns true if the persistence layer has a valid repository
func (p *Persistence) IsInitialized() bool {
	return p != nil && p.repo != nil
}

func (p *Persistence) ensureInitialized() error {
	if !p.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

// IsMemoryMode reports whether the repository lives only in memory.
func (p *Persistence) IsMemoryMode() bool {
	return p.isMemoryMode
}

// BaseDir is the working directory of a file-backed repository, empty in
// memory mode.
func (p *Persistence) BaseDir() string {
	return p.baseDir
}

func NewMemoryPersistence() (*Persistence, error) {
	wt := memfs.New()
	storer := memory.NewStorage()

	repo, err := git.Init(storer, git.WithWorkTree(wt))
	if err != nil {
		return nil, err
	}

	return &Persistence{
		repo:         repo,
		isMemoryMode: true,
	}, nil
}

// NewFilePersistence opens the repository under baseDir, creating it when
// baseDir has no .git directory yet.
func NewFilePersistence(baseDir string) (*Persistence, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	wt := osfs.New(baseDir)
	fs, err := wt.Chroot(".git")
	if err != nil {
		return nil, err
	}

	storer := filesystem.NewStorageWithOptions(
		fs,
		cache.NewObjectLRUDefault(),
		filesystem.Options{ExclusiveAccess: true})

	var repo *git.Repository
	if _, statErr := os.Stat(filepath.Join(baseDir, ".git")); statErr != nil {
		repo, err = git.Init(storer, git.WithWorkTree(wt))
	} else {
		repo, err = git.Open(storer, wt)
	}
	if err != nil {
		return nil, err
	}

	return &Persistence{
		repo:    repo,
		baseDir: baseDir,
	}, nil
}
