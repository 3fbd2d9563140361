package op

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/nickyhof/CommitKV/config"
	"github.com/nickyhof/CommitKV/ps"
)

var (
	ErrDatabaseNotFound = errors.New("database not found")
	ErrReserved         = errors.New("database name is reserved")
	ErrInvalidName      = errors.New("invalid database name")
)

// Databases is the registry of open per-database repositories. With an
// empty base directory every database lives in memory and disappears when
// dropped.
type Databases struct {
	mu    sync.RWMutex
	dir   string
	cache *Cache
	open  map[string]*ps.Persistence
}

func NewDatabases(dir string, cache *Cache) *Databases {
	return &Databases{
		dir:   dir,
		cache: cache,
		open:  make(map[string]*ps.Persistence),
	}
}

// ValidateName rejects names that cannot be a database directory and the
// reserved system database.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`+"\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if name == config.SystemDatabase {
		return fmt.Errorf("%w: %s", ErrReserved, name)
	}
	return nil
}

func (d *Databases) path(name string) string {
	return filepath.Join(d.dir, name)
}

func (d *Databases) onDisk(name string) bool {
	if d.dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(d.path(name), ".git"))
	return err == nil
}

func (d *Databases) attach(name string, p *ps.Persistence) *ps.Persistence {
	if d.cache != nil {
		p.SetCache(d.cache.For(name))
	}
	d.open[name] = p
	return p
}

// Get returns an existing database, or ErrDatabaseNotFound.
func (d *Databases) Get(name string) (*ps.Persistence, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	d.mu.RLock()
	p, ok := d.open[name]
	d.mu.RUnlock()
	if ok {
		return p, nil
	}

	if !d.onDisk(name) {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
	}
	return d.Open(name)
}

// Open returns the named database, creating it on first use.
func (d *Databases) Open(name string) (*ps.Persistence, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.open[name]; ok {
		return p, nil
	}

	var (
		p   *ps.Persistence
		err error
	)
	if d.dir == "" {
		p, err = ps.NewMemoryPersistence()
	} else {
		p, err = ps.NewFilePersistence(d.path(name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}
	return d.attach(name, p), nil
}

// Drop removes a database and its history.
func (d *Databases) Drop(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	p, isOpen := d.open[name]
	if !isOpen && !d.onDisk(name) {
		return fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
	}

	delete(d.open, name)
	if isOpen {
		// Sessions still holding p keep working on the dropped repository
		// but no longer feed the shared cache.
		p.SetCache(nil)
	}
	if d.cache != nil {
		d.cache.Purge()
	}
	if d.dir != "" {
		if err := os.RemoveAll(d.path(name)); err != nil {
			return fmt.Errorf("failed to remove database %s: %w", name, err)
		}
	}
	return nil
}

// Names lists open and on-disk databases in ascending order.
func (d *Databases) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]bool)
	for name := range d.open {
		seen[name] = true
	}
	if d.dir != "" {
		entries, _ := os.ReadDir(d.dir)
		for _, entry := range entries {
			if entry.IsDir() && entry.Name() != config.SystemDatabase && d.onDisk(entry.Name()) {
				seen[entry.Name()] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
