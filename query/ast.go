package query

import "fmt"

// Node is a single element of a parsed query. The set of node kinds is
// closed: only the types in this file implement it.
type Node interface {
	node()
}

type Keyword int

const (
	Insert Keyword = iota
	Update
	Delete
	Get
	List
)

func (k Keyword) String() string {
	switch k {
	case Insert:
		return "Insert"
	case Update:
		return "Update"
	case Delete:
		return "Delete"
	case Get:
		return "Get"
	case List:
		return "List"
	default:
		return fmt.Sprintf("Keyword(%d)", int(k))
	}
}

// Verb selects the administrative target of a MonadicExpression.
type Verb int

const (
	User Verb = iota
	Database
)

func (v Verb) String() string {
	switch v {
	case User:
		return "User"
	case Database:
		return "Database"
	default:
		return fmt.Sprintf("Verb(%d)", int(v))
	}
}

// IntoExpression is "<keyword> <value> into <target>".
type IntoExpression struct {
	Keyword Keyword
	Value   Node
	Target  Node
}

// MonadicExpression is "<keyword> <verb> [args]". Args is nil when the
// query carries no argument list at all.
type MonadicExpression struct {
	Keyword Keyword
	Verb    Verb
	Args    []Node
}

// SingleExpression is "<keyword> [target]". Target is nil when absent.
type SingleExpression struct {
	Keyword Keyword
	Target  Node
}

type Identifier struct {
	Name string
}

// Literal holds a decoded JSON value: map[string]any, []any, string,
// json.Number, bool or nil. Numbers keep their source text so integers
// beyond 2^53 survive unchanged.
type Literal struct {
	Value any
}

// AssignmentExpression is "field = value" inside an argument list.
type AssignmentExpression struct {
	Field string
	Value Node
}

func (IntoExpression) node()       {}
func (MonadicExpression) node()    {}
func (SingleExpression) node()     {}
func (Identifier) node()           {}
func (Literal) node()              {}
func (AssignmentExpression) node() {}

// Str returns the literal's value when it is a string.
func (l Literal) Str() (string, bool) {
	s, ok := l.Value.(string)
	return s, ok
}
