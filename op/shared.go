package op

import (
	"fmt"
	"path/filepath"

	"github.com/nickyhof/CommitKV/config"
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/ps"
)

// Shared bundles the handles every session uses. It is built once per
// process and safe for concurrent use.
type Shared struct {
	Cache     *Cache
	Databases *Databases
	System    *ps.Persistence
	Config    *config.Config
	Identity  core.Identity
}

// NewShared opens the system database and the database registry described
// by cfg. An empty database path keeps everything in memory.
func NewShared(cfg *config.Config) (*Shared, error) {
	var (
		system *ps.Persistence
		err    error
	)
	if cfg.Database.Path == "" {
		system, err = ps.NewMemoryPersistence()
	} else {
		system, err = ps.NewFilePersistence(filepath.Join(cfg.Database.Path, config.SystemDatabase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open system database: %w", err)
	}

	cache := NewCache(cfg.Database.CacheSize)

	return &Shared{
		Cache:     cache,
		Databases: NewDatabases(cfg.Database.Path, cache),
		System:    system,
		Config:    cfg,
		Identity: core.Identity{
			Name:  cfg.Database.CommitterName,
			Email: cfg.Database.CommitterEmail,
		},
	}, nil
}

// Bootstrap creates the configured admin account when the user table is
// empty. It reports whether an account was created.
func (s *Shared) Bootstrap() (bool, error) {
	n, err := s.System.CountUsers()
	if err != nil {
		return false, err
	}
	if n > 0 || s.Config.Auth.AdminPassword == "" {
		return false, nil
	}

	_, err = s.System.CreateUser(s.Config.Auth.AdminUser, s.Config.Auth.AdminPassword, core.Admin, s.Identity)
	if err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return true, nil
}

// Authenticate checks a username and password against the system database.
func Authenticate(shared *Shared, name, password string) (*core.User, error) {
	user, err := shared.System.VerifyUser(name, password)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LookupUser loads an account without checking a password, for sessions
// authenticated by other means.
func LookupUser(shared *Shared, name string) (*core.User, error) {
	user, err := shared.System.GetUser(name)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
