package op

import (
	"errors"

	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/ps"
	"github.com/nickyhof/CommitKV/wire"
)

type access int

const (
	readAccess access = iota
	writeAccess
	adminAccess
)

// Interface is one session's view of storage: the shared handles plus the
// session's current database and user. Every method returns nil, an
// *InternalError or an *ExternalError.
type Interface struct {
	shared   *Shared
	database string
	user     *core.User
}

// NewInterface binds a session. A nil user disables permission checks.
func NewInterface(shared *Shared, database string, user *core.User) *Interface {
	return &Interface{shared: shared, database: database, user: user}
}

func (i *Interface) CurrentDatabase() string {
	return i.database
}

func (i *Interface) User() *core.User {
	return i.user
}

// identity authors this session's commits: the logged-in user when there
// is one, the server committer otherwise.
func (i *Interface) identity() core.Identity {
	if i.user == nil {
		return i.shared.Identity
	}
	return core.Identity{Name: i.user.Username, Email: i.shared.Identity.Email}
}

// authorize checks need against the account as it is stored now, not as it
// was at login: a deleted or downgraded account loses its rights at once.
func (i *Interface) authorize(need access) error {
	if i.user == nil {
		return nil
	}

	current, err := i.shared.System.GetUser(i.user.Username)
	if errors.Is(err, ps.ErrUserNotFound) {
		return external(wire.StatusNotAuthorized, "user %s no longer exists", i.user.Username)
	}
	if err != nil {
		return storeError(err)
	}

	p := current.Permission
	var ok bool
	switch need {
	case readAccess:
		ok = p.CanRead()
	case writeAccess:
		ok = p.CanWrite()
	case adminAccess:
		ok = p.IsAdmin()
	}
	if !ok {
		return external(wire.StatusNotAuthorized, "user %s is not authorized", i.user.Username)
	}
	return nil
}

func (i *Interface) Insert(key string, value any) error {
	if err := i.authorize(writeAccess); err != nil {
		return err
	}

	p, err := i.shared.Databases.Open(i.database)
	if err != nil {
		return storeError(err)
	}
	_, err = p.InsertRecord(key, value, i.identity())
	return storeError(err)
}

func (i *Interface) Update(key string, value any) error {
	if err := i.authorize(writeAccess); err != nil {
		return err
	}

	p, err := i.shared.Databases.Get(i.database)
	if errors.Is(err, ErrDatabaseNotFound) {
		return internal(KeyNotExists)
	}
	if err != nil {
		return storeError(err)
	}
	_, err = p.UpdateRecord(key, value, i.identity())
	return storeError(err)
}

func (i *Interface) Get(key string) (any, error) {
	if err := i.authorize(readAccess); err != nil {
		return nil, err
	}

	p, err := i.shared.Databases.Get(i.database)
	if errors.Is(err, ErrDatabaseNotFound) {
		return nil, internal(NotFound)
	}
	if err != nil {
		return nil, storeError(err)
	}

	value, err := p.GetRecord(key)
	if err != nil {
		return nil, storeError(err)
	}
	return value, nil
}

func (i *Interface) Delete(key string) error {
	if err := i.authorize(writeAccess); err != nil {
		return err
	}

	p, err := i.shared.Databases.Get(i.database)
	if errors.Is(err, ErrDatabaseNotFound) {
		return internal(KeyNotExists)
	}
	if err != nil {
		return storeError(err)
	}
	_, err = p.DeleteRecord(key, i.identity())
	return storeError(err)
}

// ListKeys lists the current database's keys. A database that does not
// exist yet has no keys.
func (i *Interface) ListKeys() ([]string, error) {
	if err := i.authorize(readAccess); err != nil {
		return nil, err
	}

	p, err := i.shared.Databases.Get(i.database)
	if errors.Is(err, ErrDatabaseNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, storeError(err)
	}

	keys, err := p.ListKeys()
	if err != nil {
		return nil, storeError(err)
	}
	return keys, nil
}

func (i *Interface) CreateUser(name, password string, permission core.Permission) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}
	_, err := i.shared.System.CreateUser(name, password, permission, i.identity())
	return storeError(err)
}

func (i *Interface) UpdateUser(name string, password *string, permission *core.Permission) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}
	_, err := i.shared.System.UpdateUser(name, password, permission, i.identity())
	return storeError(err)
}

func (i *Interface) DeleteUser(name string) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}
	_, err := i.shared.System.DeleteUser(name, i.identity())
	return storeError(err)
}

func (i *Interface) DeleteDatabase(name string) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}
	return storeError(i.shared.Databases.Drop(name))
}

// History returns up to limit commits of the current database, newest
// first.
func (i *Interface) History(limit int) ([]ps.Transaction, error) {
	if err := i.authorize(readAccess); err != nil {
		return nil, err
	}

	p, err := i.shared.Databases.Get(i.database)
	if errors.Is(err, ErrDatabaseNotFound) {
		return []ps.Transaction{}, nil
	}
	if err != nil {
		return nil, storeError(err)
	}

	history, err := p.History(limit)
	if err != nil {
		return nil, storeError(err)
	}
	return history, nil
}

// Snapshot tags the current database's latest commit under name.
func (i *Interface) Snapshot(name string) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}

	p, err := i.shared.Databases.Get(i.database)
	if err != nil {
		return storeError(err)
	}
	return storeError(p.Snapshot(name, nil))
}

// Recover resets the current database to a snapshot taken earlier.
func (i *Interface) Recover(name string) error {
	if err := i.authorize(adminAccess); err != nil {
		return err
	}

	p, err := i.shared.Databases.Get(i.database)
	if err != nil {
		return storeError(err)
	}
	return storeError(p.Recover(name))
}
