package db

import (
	"errors"

	"github.com/nickyhof/CommitKV/op"
	"github.com/nickyhof/CommitKV/wire"
)

// Translation is the status and message reported for an internal storage
// error code.
type Translation struct {
	Status  wire.Status
	Message string
}

// ErrorTable returns the default mapping of internal codes.
func ErrorTable() map[op.ErrorCode]Translation {
	return map[op.ErrorCode]Translation{
		op.KeyExists:    {wire.StatusAlreadyExists, "key already exists"},
		op.KeyNotExists: {wire.StatusNotFound, "key not exists"},
		op.NotFound:     {wire.StatusNotFound, "not found"},
	}
}

// LegacyErrorTable is ErrorTable with KeyNotExists reported as
// AlreadyExists, as older servers did.
func LegacyErrorTable() map[op.ErrorCode]Translation {
	table := ErrorTable()
	table[op.KeyNotExists] = Translation{wire.StatusAlreadyExists, "key not exists"}
	return table
}

func (e *Executor) storageError(err error) *wire.Error {
	var internalErr *op.InternalError
	if errors.As(err, &internalErr) {
		if t, ok := e.table[internalErr.Code]; ok {
			return wire.NewError(t.Status, t.Message)
		}
		return wire.NewError(wire.StatusError, internalErr.Error())
	}

	var externalErr *op.ExternalError
	if errors.As(err, &externalErr) {
		return wire.NewError(externalErr.Status, externalErr.Message)
	}

	return wire.NewError(wire.StatusError, err.Error())
}
