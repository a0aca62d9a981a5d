package lex

import (
	"fmt"
	"strings"
)

// SeparatorKind names a single-character separator recognized by the lexer.
type SeparatorKind int

const (
	SepLParen SeparatorKind = iota
	SepRParen
	SepLBracket
	SepRBracket
	SepLBrace
	SepRBrace
	SepComma
	SepSemicolon
	SepColon
)

// Table holds the case-insensitive keyword registry and the single
// character separator registry that drive lexing. Registrations fail if
// the key already exists, mirroring the symbol table's define semantics.
type Table struct {
	keywords   map[string]struct{}
	separators map[rune]SeparatorKind
}

// NewTable creates an empty lexical table.
func NewTable() *Table {
	return &Table{
		keywords:   make(map[string]struct{}),
		separators: make(map[rune]SeparatorKind),
	}
}

// RegisterKeyword adds a keyword, matched case-insensitively. It returns an
// error if the (lowercased) keyword is already registered.
func (t *Table) RegisterKeyword(word string) error {
	key := strings.ToLower(word)
	if _, ok := t.keywords[key]; ok {
		return fmt.Errorf("lex: keyword %q already registered", word)
	}
	t.keywords[key] = struct{}{}
	return nil
}

// RegisterSeparator adds a single-character separator. It returns an error
// if the character is already registered.
func (t *Table) RegisterSeparator(ch rune, kind SeparatorKind) error {
	if _, ok := t.separators[ch]; ok {
		return fmt.Errorf("lex: separator %q already registered", ch)
	}
	t.separators[ch] = kind
	return nil
}

// IsKeyword reports whether word names a registered keyword.
func (t *Table) IsKeyword(word string) bool {
	_, ok := t.keywords[strings.ToLower(word)]
	return ok
}

// Separator looks up a registered separator by character.
func (t *Table) Separator(ch rune) (SeparatorKind, bool) {
	k, ok := t.separators[ch]
	return k, ok
}

// DefaultTable returns a table preloaded with the standard RuneScript
// keyword and separator set: boolean literals, control keywords, primitive
// type names, and the bracket/paren/brace/comma/semicolon/colon separators.
func DefaultTable() *Table {
	t := NewTable()

	keywords := []string{
		"true", "false",
		"if", "else", "while", "switch", "case", "default", "return",
		"int", "string", "long", "bool",
	}
	for _, kw := range keywords {
		if err := t.RegisterKeyword(kw); err != nil {
			panic(err) // default table construction must never collide
		}
	}

	seps := []struct {
		ch   rune
		kind SeparatorKind
	}{
		{'(', SepLParen}, {')', SepRParen},
		{'[', SepLBracket}, {']', SepRBracket},
		{'{', SepLBrace}, {'}', SepRBrace},
		{',', SepComma}, {';', SepSemicolon}, {':', SepColon},
	}
	for _, s := range seps {
		if err := t.RegisterSeparator(s.ch, s.kind); err != nil {
			panic(err)
		}
	}

	return t
}

// controlKeywords lists the control-flow keywords. The parser does not
// consult it; it recognizes keywords through Table.IsKeyword.
var controlKeywords = map[string]struct{}{
	"if": {}, "else": {}, "while": {}, "switch": {}, "case": {}, "default": {}, "return": {},
}

// TypeKeywords names the primitive type keywords.
var TypeKeywords = map[string]struct{}{
	"int": {}, "string": {}, "long": {}, "bool": {},
}
