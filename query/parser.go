package query

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// SyntaxError is returned by Parse for text that does not form a query.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

type Parser struct {
	lexer *Lexer
}

func NewParser(query string) *Parser {
	return &Parser{lexer: NewLexer(query)}
}

// Parse reads exactly one query. The parser only checks syntax: any
// keyword may be combined with any shape, and the executor decides which
// combinations mean something.
func Parse(query string) (Node, error) {
	return NewParser(query).Parse()
}

func (parser *Parser) Parse() (Node, error) {
	token := parser.lexer.PeekToken()

	var node Node
	var err error

	if token.isValue() {
		node, err = parser.parseValue()
	} else {
		parser.lexer.NextToken()
		keyword, ok := keywordOf(token)
		if !ok {
			if token.Type == EOF {
				return nil, &SyntaxError{Pos: token.Pos, Msg: "empty query"}
			}
			return nil, &SyntaxError{Pos: token.Pos, Msg: fmt.Sprintf("unknown keyword %s", token)}
		}
		node, err = parser.parseExpression(keyword)
	}
	if err != nil {
		return nil, err
	}

	if token := parser.lexer.NextToken(); token.Type != EOF {
		return nil, &SyntaxError{Pos: token.Pos, Msg: fmt.Sprintf("unexpected %s after query", token)}
	}

	return node, nil
}

func keywordOf(token Token) (Keyword, bool) {
	switch token.Type {
	case InsertKeyword:
		return Insert, true
	case UpdateKeyword:
		return Update, true
	case DeleteKeyword:
		return Delete, true
	case GetKeyword:
		return Get, true
	case ListKeyword:
		return List, true
	default:
		return 0, false
	}
}

func (parser *Parser) parseExpression(keyword Keyword) (Node, error) {
	token := parser.lexer.PeekToken()

	switch token.Type {
	case UserKeyword, DatabaseKeyword:
		parser.lexer.NextToken()
		verb := User
		if token.Type == DatabaseKeyword {
			verb = Database
		}
		args, err := parser.parseArgs()
		if err != nil {
			return nil, err
		}
		return MonadicExpression{Keyword: keyword, Verb: verb, Args: args}, nil

	case EOF:
		return SingleExpression{Keyword: keyword}, nil
	}

	primary, err := parser.parsePrimary()
	if err != nil {
		return nil, err
	}

	if parser.lexer.PeekToken().Type != Into {
		return SingleExpression{Keyword: keyword, Target: primary}, nil
	}
	parser.lexer.NextToken() // consume INTO

	if parser.lexer.PeekToken().Type == EOF {
		return nil, &SyntaxError{Pos: len(parser.lexer.query), Msg: "expected key after INTO"}
	}
	target, err := parser.parsePrimary()
	if err != nil {
		return nil, err
	}

	return IntoExpression{Keyword: keyword, Value: primary, Target: target}, nil
}

// parseArgs reads an optional argument list, bare or parenthesised, with
// optional commas between arguments. It returns nil when there is none.
func (parser *Parser) parseArgs() ([]Node, error) {
	token := parser.lexer.PeekToken()
	if token.Type == EOF {
		return nil, nil
	}

	parens := token.Type == ParenOpen
	if parens {
		parser.lexer.NextToken()
	}

	args := []Node{}
	for {
		token = parser.lexer.PeekToken()
		switch {
		case token.Type == EOF && parens:
			return nil, &SyntaxError{Pos: token.Pos, Msg: "expected ')' to close argument list"}
		case token.Type == EOF:
			return args, nil
		case token.Type == ParenClose && parens:
			parser.lexer.NextToken()
			return args, nil
		case token.Type == Comma:
			parser.lexer.NextToken()
			continue
		}

		arg, err := parser.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

func (parser *Parser) parseArg() (Node, error) {
	token := parser.lexer.PeekToken()
	if !isName(token) {
		return parser.parsePrimary()
	}

	parser.lexer.NextToken()
	if parser.lexer.PeekToken().Type != Equals {
		return Identifier{Name: token.Value}, nil
	}
	parser.lexer.NextToken() // consume '='

	value, err := parser.parsePrimary()
	if err != nil {
		return nil, err
	}
	return AssignmentExpression{Field: token.Value, Value: value}, nil
}

// parsePrimary reads an identifier or a literal value.
func (parser *Parser) parsePrimary() (Node, error) {
	token := parser.lexer.PeekToken()
	if isName(token) {
		parser.lexer.NextToken()
		return Identifier{Name: token.Value}, nil
	}
	return parser.parseValue()
}

func (parser *Parser) parseValue() (Node, error) {
	token := parser.lexer.NextToken()

	switch token.Type {
	case True:
		return Literal{Value: true}, nil
	case False:
		return Literal{Value: false}, nil
	case Null:
		return Literal{Value: nil}, nil
	case String, Number, Document:
		value, err := decodeLiteral(token.Value)
		if err != nil {
			return nil, &SyntaxError{Pos: token.Pos, Msg: fmt.Sprintf("invalid literal %s: %v", token.Value, err)}
		}
		return Literal{Value: value}, nil
	case EOF:
		return nil, &SyntaxError{Pos: token.Pos, Msg: "unexpected end of query"}
	default:
		return nil, &SyntaxError{Pos: token.Pos, Msg: fmt.Sprintf("unexpected %s", token)}
	}
}

// isName reports whether a token can be used as a key or user name. Query
// keywords are allowed so that keys like "list" stay addressable.
func isName(token Token) bool {
	switch token.Type {
	case Word, InsertKeyword, UpdateKeyword, DeleteKeyword, GetKeyword, ListKeyword, UserKeyword, DatabaseKeyword:
		return true
	}
	return false
}

func decodeLiteral(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}
