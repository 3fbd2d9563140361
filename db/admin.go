package db

import (
	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/query"
	"github.com/nickyhof/CommitKV/wire"
)

const (
	fieldUsername   = "username"
	fieldPassword   = "password"
	fieldPermission = "permission"
)

const invalidPermissionMessage = "permission must be 'read' or 'write', 'read_and_write', or 'admin'"

// scanUserArgs walks a user argument list once. The first bare identifier
// is the username; password and permission assignments are recorded and
// other fields ignored. In strict mode a recognized assignment with a
// non-string value is an error, otherwise it is skipped.
func scanUserArgs(args []query.Node, strict bool) (map[string]string, *wire.Error) {
	fields := make(map[string]string)

	for _, arg := range args {
		switch a := arg.(type) {
		case query.Identifier:
			if _, ok := fields[fieldUsername]; !ok {
				fields[fieldUsername] = a.Name
			}
		case query.AssignmentExpression:
			if a.Field != fieldPassword && a.Field != fieldPermission {
				continue
			}
			literal, _ := a.Value.(query.Literal)
			s, ok := literal.Str()
			if !ok {
				if strict {
					return nil, invalidQuery(a.Field + " must be a string")
				}
				continue
			}
			fields[a.Field] = s
		}
	}
	return fields, nil
}

func parsePermission(s string) (core.Permission, *wire.Error) {
	permission, err := core.ParsePermission(s)
	if err != nil {
		return 0, invalidQuery(invalidPermissionMessage)
	}
	return permission, nil
}

func (e *Executor) createUser(args []query.Node) (wire.Response, *wire.Error) {
	if args == nil {
		return wire.Response{}, invalidQuery("user insert must have an expression")
	}

	fields, werr := scanUserArgs(args, true)
	if werr != nil {
		return wire.Response{}, werr
	}

	username, password, permissionName := fields[fieldUsername], fields[fieldPassword], fields[fieldPermission]
	if username == "" || password == "" || permissionName == "" {
		return wire.Response{}, invalidQuery("username, password, and permission are required")
	}

	permission, werr := parsePermission(permissionName)
	if werr != nil {
		return wire.Response{}, werr
	}

	if err := e.storage.CreateUser(username, password, permission); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

func (e *Executor) updateUser(args []query.Node) (wire.Response, *wire.Error) {
	if args == nil {
		return wire.Response{}, invalidQuery("user update must have an expression")
	}

	fields, werr := scanUserArgs(args, false)
	if werr != nil {
		return wire.Response{}, werr
	}

	username := fields[fieldUsername]
	if username == "" {
		return wire.Response{}, invalidQuery("username is required")
	}

	var password *string
	if p, ok := fields[fieldPassword]; ok {
		password = &p
	}

	var permission *core.Permission
	if name, ok := fields[fieldPermission]; ok {
		parsed, werr := parsePermission(name)
		if werr != nil {
			return wire.Response{}, werr
		}
		permission = &parsed
	}

	if err := e.storage.UpdateUser(username, password, permission); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

func (e *Executor) deleteUser(args []query.Node) (wire.Response, *wire.Error) {
	if len(args) == 0 {
		return wire.Response{}, invalidQuery("user delete must have an expression")
	}
	ident, ok := args[0].(query.Identifier)
	if !ok {
		return wire.Response{}, invalidQuery("user delete must have an expression")
	}

	if err := e.storage.DeleteUser(ident.Name); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}

// deleteDatabase drops the named database, or the session's current one
// when no name is given.
func (e *Executor) deleteDatabase(args []query.Node) (wire.Response, *wire.Error) {
	name := e.storage.CurrentDatabase()
	if len(args) > 0 {
		ident, ok := args[0].(query.Identifier)
		if !ok {
			return wire.Response{}, invalidQuery("database name must be an identifier")
		}
		name = ident.Name
	}

	if err := e.storage.DeleteDatabase(name); err != nil {
		return wire.Response{}, e.storageError(err)
	}
	return wire.OK(nil), nil
}
