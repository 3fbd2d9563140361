package query

import (
	"fmt"
	"strings"
)

type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

type TokenType int

const (
	Word TokenType = iota
	String
	Number
	Document
	InsertKeyword
	UpdateKeyword
	DeleteKeyword
	GetKeyword
	ListKeyword
	Into
	UserKeyword
	DatabaseKeyword
	True
	False
	Null
	Equals
	Comma
	ParenOpen
	ParenClose
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Word:
		return "Word(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Number:
		return "Number(" + token.Value + ")"
	case Document:
		return "Document(" + token.Value + ")"
	case EOF:
		return "EOF"
	case Unknown:
		return "Unknown(" + token.Value + ")"
	default:
		return token.Value
	}
}

// isValue reports whether the token starts a literal value.
func (token Token) isValue() bool {
	switch token.Type {
	case String, Number, Document, True, False, Null:
		return true
	}
	return false
}

type Lexer struct {
	query        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(query string) *Lexer {
	lexer := &Lexer{query: query}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.query) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.query[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) NextToken() Token {
	lexer.skipWhitespace()
	start := lexer.position

	switch lexer.ch {
	case 0:
		return Token{Type: EOF, Pos: start}
	case ',':
		lexer.readChar()
		return Token{Type: Comma, Value: ",", Pos: start}
	case '(':
		lexer.readChar()
		return Token{Type: ParenOpen, Value: "(", Pos: start}
	case ')':
		lexer.readChar()
		return Token{Type: ParenClose, Value: ")", Pos: start}
	case '=':
		lexer.readChar()
		return Token{Type: Equals, Value: "=", Pos: start}
	case '"':
		value, ok := lexer.readQuoted()
		if !ok {
			return Token{Type: Unknown, Value: value, Pos: start}
		}
		return Token{Type: String, Value: value, Pos: start}
	case '\'':
		value, ok := lexer.readSingleQuoted()
		if !ok {
			return Token{Type: Unknown, Value: value, Pos: start}
		}
		return Token{Type: String, Value: value, Pos: start}
	case '{', '[':
		value, ok := lexer.readDocument()
		if !ok {
			return Token{Type: Unknown, Value: value, Pos: start}
		}
		return Token{Type: Document, Value: value, Pos: start}
	}

	if isDigit(lexer.ch) || (lexer.ch == '-' && isDigit(lexer.peekChar())) {
		return Token{Type: Number, Value: lexer.readNumber(), Pos: start}
	}

	if isWordStart(lexer.ch) {
		word := lexer.readWord()
		return Token{Type: lookupWord(word), Value: word, Pos: start}
	}

	ch := lexer.ch
	lexer.readChar()
	return Token{Type: Unknown, Value: string(ch), Pos: start}
}

func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.query) {
		return 0
	}
	return lexer.query[lexer.readPosition]
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' || lexer.ch == ';' {
		lexer.readChar()
	}
}

func (lexer *Lexer) readWord() string {
	position := lexer.position
	for isWordPart(lexer.ch) {
		lexer.readChar()
	}
	return lexer.query[position:lexer.position]
}

// readQuoted returns the raw JSON string including its quotes, so that the
// parser can decode escapes with the JSON codec.
func (lexer *Lexer) readQuoted() (string, bool) {
	position := lexer.position
	lexer.readChar() // opening quote
	for lexer.ch != '"' {
		if lexer.ch == 0 {
			return lexer.query[position:lexer.position], false
		}
		if lexer.ch == '\\' {
			lexer.readChar()
		}
		lexer.readChar()
	}
	lexer.readChar() // closing quote
	return lexer.query[position:lexer.position], true
}

// readSingleQuoted reads a 'raw' string. There are no escapes; the value is
// re-quoted as JSON so the parser treats both quote styles alike.
func (lexer *Lexer) readSingleQuoted() (string, bool) {
	lexer.readChar()
	position := lexer.position
	for lexer.ch != '\'' {
		if lexer.ch == 0 {
			return lexer.query[position:lexer.position], false
		}
		lexer.readChar()
	}
	raw := lexer.query[position:lexer.position]
	lexer.readChar()
	return quoteJSON(raw), true
}

// readDocument consumes a balanced JSON object or array. Brackets inside
// strings are skipped.
func (lexer *Lexer) readDocument() (string, bool) {
	position := lexer.position
	depth := 0
	inString := false

	for {
		switch {
		case lexer.ch == 0:
			return lexer.query[position:lexer.position], false
		case inString && lexer.ch == '\\':
			lexer.readChar()
		case lexer.ch == '"':
			inString = !inString
		case !inString && (lexer.ch == '{' || lexer.ch == '['):
			depth++
		case !inString && (lexer.ch == '}' || lexer.ch == ']'):
			depth--
		}
		lexer.readChar()
		if depth == 0 {
			return lexer.query[position:lexer.position], true
		}
	}
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	if lexer.ch == '-' {
		lexer.readChar()
	}
	for isDigit(lexer.ch) || lexer.ch == '.' || lexer.ch == 'e' || lexer.ch == 'E' ||
		((lexer.ch == '+' || lexer.ch == '-') && (lexer.query[lexer.position-1] == 'e' || lexer.query[lexer.position-1] == 'E')) {
		lexer.readChar()
	}
	return lexer.query[position:lexer.position]
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordStart(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
}

func isWordPart(ch byte) bool {
	return isWordStart(ch) || isDigit(ch) || ch == '.' || ch == '-' || ch == ':'
}

func lookupWord(word string) TokenType {
	switch strings.ToLower(word) {
	case "insert":
		return InsertKeyword
	case "update":
		return UpdateKeyword
	case "delete":
		return DeleteKeyword
	case "get":
		return GetKeyword
	case "list":
		return ListKeyword
	case "into":
		return Into
	case "user":
		return UserKeyword
	case "database":
		return DatabaseKeyword
	case "true":
		return True
	case "false":
		return False
	case "null":
		return Null
	default:
		return Word
	}
}

func quoteJSON(raw string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
