package db

import (
	"errors"

	"github.com/nickyhof/CommitKV/core"
	"github.com/nickyhof/CommitKV/op"
	"github.com/nickyhof/CommitKV/query"
	"github.com/nickyhof/CommitKV/wire"
)

// Storage is the session-bound storage interface the executor dispatches
// onto. Errors are nil, *op.InternalError or *op.ExternalError.
type Storage interface {
	Insert(key string, value any) error
	Update(key string, value any) error
	Get(key string) (any, error)
	Delete(key string) error
	ListKeys() ([]string, error)
	CreateUser(name, password string, permission core.Permission) error
	UpdateUser(name string, password *string, permission *core.Permission) error
	DeleteUser(name string) error
	DeleteDatabase(name string) error
	CurrentDatabase() string
}

type Options struct {
	// LegacyKeyNotExists reports KeyNotExists as AlreadyExists.
	LegacyKeyNotExists bool
}

// Executor runs parsed queries for one session. It keeps no state besides
// its storage binding and error table.
type Executor struct {
	storage Storage
	table   map[op.ErrorCode]Translation
}

func NewExecutor(storage Storage, opts Options) *Executor {
	table := ErrorTable()
	if opts.LegacyKeyNotExists {
		table = LegacyErrorTable()
	}
	return &Executor{storage: storage, table: table}
}

// Execute validates the shape of node, runs it against storage and returns
// either a response or an error, never both.
func (e *Executor) Execute(node query.Node) (wire.Response, *wire.Error) {
	switch n := node.(type) {
	case query.IntoExpression:
		return e.executeInto(n)
	case query.MonadicExpression:
		return e.executeMonadic(n)
	case query.SingleExpression:
		return e.executeSingle(n)
	default:
		return wire.Response{}, invalidQuery("Invalid query")
	}
}

// ExecuteQuery parses text and executes it. Syntax errors carry the query
// text as their query message.
func (e *Executor) ExecuteQuery(text string) (wire.Response, *wire.Error) {
	node, err := query.Parse(text)
	if err != nil {
		var syntaxErr *query.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return wire.Response{}, wire.NewError(wire.StatusError, err.Error())
		}
		wireErr := wire.NewError(wire.StatusSyntaxError, syntaxErr.Error())
		wireErr.QueryMessage = &text
		return wire.Response{}, wireErr
	}
	return e.Execute(node)
}

func (e *Executor) executeInto(n query.IntoExpression) (wire.Response, *wire.Error) {
	switch n.Keyword {
	case query.Insert:
		return e.insert(n.Value, n.Target)
	case query.Update:
		return e.update(n.Value, n.Target)
	default:
		return wire.Response{}, invalidQuery(n.Keyword.String() + " is unexpected for into expression")
	}
}

func (e *Executor) executeMonadic(n query.MonadicExpression) (wire.Response, *wire.Error) {
	switch n.Keyword {
	case query.Insert:
		if n.Verb != query.User {
			return wire.Response{}, invalidQuery(n.Verb.String() + " is unexpected for insert expression")
		}
		return e.createUser(n.Args)
	case query.Update:
		if n.Verb != query.User {
			return wire.Response{}, invalidQuery(n.Verb.String() + " is unexpected for update expression")
		}
		return e.updateUser(n.Args)
	case query.Delete:
		switch n.Verb {
		case query.User:
			return e.deleteUser(n.Args)
		default:
			return e.deleteDatabase(n.Args)
		}
	default:
		return wire.Response{}, invalidQuery(n.Keyword.String() + " is unexpected for monadic expression")
	}
}

func (e *Executor) executeSingle(n query.SingleExpression) (wire.Response, *wire.Error) {
	switch n.Keyword {
	case query.Get:
		return e.get(n.Target)
	case query.Delete:
		return e.delete(n.Target)
	case query.List:
		return e.list(n.Target)
	default:
		return wire.Response{}, invalidQuery(n.Keyword.String() + " is unexpected for single expression")
	}
}

func invalidQuery(message string) *wire.Error {
	return wire.NewError(wire.StatusInvalidQuery, message)
}
