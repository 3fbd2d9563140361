package op

import (
	"errors"
	"fmt"

	"github.com/nickyhof/CommitKV/ps"
	"github.com/nickyhof/CommitKV/wire"
)

// ErrorCode classifies storage failures the executor translates itself.
type ErrorCode int

const (
	KeyExists ErrorCode = iota
	KeyNotExists
	NotFound
)

func (c ErrorCode) String() string {
	switch c {
	case KeyExists:
		return "KeyExists"
	case KeyNotExists:
		return "KeyNotExists"
	case NotFound:
		return "NotFound"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// InternalError carries a code whose status and message are decided by the
// caller.
type InternalError struct {
	Code ErrorCode
}

func (e *InternalError) Error() string {
	return e.Code.String()
}

// ExternalError carries a final status and message that callers pass on
// unchanged.
type ExternalError struct {
	Status  wire.Status
	Message string
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func internal(code ErrorCode) error {
	return &InternalError{Code: code}
}

func external(status wire.Status, format string, args ...any) error {
	return &ExternalError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// storeError maps a persistence failure onto the two error kinds.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ps.ErrKeyExists):
		return internal(KeyExists)
	case errors.Is(err, ps.ErrKeyNotExists):
		return internal(KeyNotExists)
	case errors.Is(err, ps.ErrNotFound):
		return internal(NotFound)
	case errors.Is(err, ps.ErrInvalidKey):
		return external(wire.StatusInvalidQuery, "%s", err.Error())
	case errors.Is(err, ps.ErrUserExists):
		return external(wire.StatusAlreadyExists, "user already exists")
	case errors.Is(err, ps.ErrUserNotFound):
		return external(wire.StatusNotFound, "user not found")
	case errors.Is(err, ps.ErrSnapshotExists):
		return external(wire.StatusAlreadyExists, "%s", err.Error())
	case errors.Is(err, ps.ErrSnapshotNotFound):
		return external(wire.StatusNotFound, "%s", err.Error())
	case errors.Is(err, ErrDatabaseNotFound):
		return external(wire.StatusDatabaseNotFound, "%s", err.Error())
	case errors.Is(err, ErrReserved):
		return external(wire.StatusReserved, "%s", err.Error())
	default:
		return external(wire.StatusError, "%s", err.Error())
	}
}
