package CommitKV

import (
	"github.com/nickyhof/CommitKV/config"
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/db"
	"github.com/nickyhof/CommitKV/op"
)

// Instance is one CommitKV store: its databases, user accounts and cache.
type Instance struct {
	Shared *op.Shared
}

// Open builds an instance from cfg. A nil cfg uses config.Default(), which
// keeps every database in memory.
func Open(cfg *config.Config) (*Instance, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shared, err := op.NewShared(cfg)
	if err != nil {
		return nil, err
	}
	return &Instance{Shared: shared}, nil
}

// Session returns an executor bound to database and user. A nil user runs
// without permission checks.
func (instance *Instance) Session(database string, user *core.User) *db.Executor {
	return db.NewExecutor(
		op.NewInterface(instance.Shared, database, user),
		db.Options{LegacyKeyNotExists: instance.Shared.Config.Compat.LegacyKeyNotExists},
	)
}

// Config returns the configuration the instance was opened with.
func (instance *Instance) Config() *config.Config {
	return instance.Shared.Config
}
