// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdl

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is a token type.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Ident
	BracketOpen
	BracketClose
	Comma
	Int
	Range
	Equal
)

var typeNames = [...]string{
	EOF:          "end of input",
	Raw:          "character",
	Ident:        "identifier",
	BracketOpen:  "'['",
	BracketClose: "']'",
	Comma:        "','",
	Int:          "integer",
	Range:        "'..'",
	Equal:        "'='",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Item is a lexed token.
//
type Item struct {
	Type  Type
	Pos   int // byte offset in the input
	Text  string
	Value int // value of Int tokens
}

func (i Item) String() string {
	switch i.Type {
	case EOF:
		return i.Type.String()
	case Ident, Int, Raw:
		return i.Type.String() + " " + strconv.Quote(i.Text)
	}
	return i.Type.String()
}

// Lexer splits i/o specs and connection strings into tokens.
//
type Lexer struct {
	in  string
	pos int
}

// NewLexer returns a new lexer for the given input.
//
func NewLexer(input string) *Lexer {
	return &Lexer{in: input}
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.in) {
		return -1
	}
	r, sz := utf8.DecodeRuneInString(l.in[l.pos:])
	l.pos += sz
	return r
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.in) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.in[l.pos:])
	return r
}

func isIdent(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Lex returns the next token. Once the end of input is reached, Lex keeps
// returning EOF.
//
func (l *Lexer) Lex() Item {
	for unicode.IsSpace(l.peek()) {
		l.next()
	}
	start := l.pos
	r := l.next()
	switch {
	case r < 0:
		return Item{Type: EOF, Pos: start}
	case unicode.IsLetter(r) || r == '_':
		for isIdent(l.peek()) {
			l.next()
		}
		return Item{Type: Ident, Pos: start, Text: l.in[start:l.pos]}
	case '0' <= r && r <= '9':
		v := int(r - '0')
		for r = l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			v = v*10 + int(r-'0')
			l.next()
		}
		return Item{Type: Int, Pos: start, Text: l.in[start:l.pos], Value: v}
	case r == '[':
		return Item{Type: BracketOpen, Pos: start, Text: "["}
	case r == ']':
		return Item{Type: BracketClose, Pos: start, Text: "]"}
	case r == ',':
		return Item{Type: Comma, Pos: start, Text: ","}
	case r == '=':
		return Item{Type: Equal, Pos: start, Text: "="}
	case r == '.' && l.peek() == '.':
		l.next()
		return Item{Type: Range, Pos: start, Text: ".."}
	}
	// anything else stops the lexer
	l.pos = len(l.in)
	return Item{Type: Raw, Pos: start, Text: string(r)}
}
