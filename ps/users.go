package ps

import (
	"errors"
	"fmt"

	"github.com/nickyhof/CommitKV/core"
	"golang.org/x/crypto/bcrypt"
)

const usersBucket = "users"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CreateUser stores a new account with a bcrypt hash of password.
func (p *Persistence) CreateUser(name, password string, permission core.Permission, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	user := core.User{Username: name, PasswordHash: hash, Permission: permission}
	txn, err := p.putRecord(usersBucket, name, user, false, identity)
	if errors.Is(err, ErrKeyExists) {
		return Transaction{}, ErrUserExists
	}
	return txn, err
}

// UpdateUser changes the password, the permission, or both. Nil arguments
// keep the stored value.
func (p *Persistence) UpdateUser(name string, password *string, permission *core.Permission, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	var hash string
	if password != nil {
		var err error
		if hash, err = hashPassword(*password); err != nil {
			return Transaction{}, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var user core.User
	if err := p.readRecord(usersBucket, name, &user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Transaction{}, ErrUserNotFound
		}
		return Transaction{}, err
	}

	if password != nil {
		user.PasswordHash = hash
	}
	if permission != nil {
		user.Permission = *permission
	}

	return p.putRecord(usersBucket, name, user, true, identity)
}

func (p *Persistence) DeleteUser(name string, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	txn, err := p.removeRecord(usersBucket, name, identity)
	if errors.Is(err, ErrKeyNotExists) {
		return Transaction{}, ErrUserNotFound
	}
	return txn, err
}

func (p *Persistence) GetUser(name string) (core.User, error) {
	if err := p.ensureInitialized(); err != nil {
		return core.User{}, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var user core.User
	if err := p.readRecord(usersBucket, name, &user); err != nil {
		if errors.Is(err, ErrNotFound) {
			return core.User{}, ErrUserNotFound
		}
		return core.User{}, err
	}
	return user, nil
}

// VerifyUser checks password against the stored hash. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (p *Persistence) VerifyUser(name, password string) (core.User, error) {
	user, err := p.GetUser(name)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidKey) {
		return core.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return core.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (p *Persistence) CountUsers() (int, error) {
	if err := p.ensureInitialized(); err != nil {
		return 0, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	names, err := p.listFiles(usersBucket)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}
