package core

import (
	"errors"
	"fmt"
)

type Permission int

const (
	Read Permission = iota
	Write
	ReadAndWrite
	Admin
)

var ErrInvalidPermission = errors.New("invalid permission")

var permissionNames = map[Permission]string{
	Read:         "read",
	Write:        "write",
	ReadAndWrite: "read_and_write",
	Admin:        "admin",
}

// ParsePermission parses the wire name of a permission level. Matching is
// case-sensitive.
func ParsePermission(s string) (Permission, error) {
	for permission, name := range permissionNames {
		if name == s {
			return permission, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPermission, s)
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Permission(%d)", int(p))
}

func (p Permission) CanRead() bool {
	return p == Read || p == ReadAndWrite || p == Admin
}

func (p Permission) CanWrite() bool {
	return p == Write || p == ReadAndWrite || p == Admin
}

func (p Permission) IsAdmin() bool {
	return p == Admin
}

func (p Permission) MarshalText() ([]byte, error) {
	name, ok := permissionNames[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPermission, int(p))
	}
	return []byte(name), nil
}

func (p *Permission) UnmarshalText(text []byte) error {
	parsed, err := ParsePermission(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// User is a row of the system database. PasswordHash is a bcrypt hash,
// never the clear password.
type User struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Permission   Permission `json:"permission"`
}
