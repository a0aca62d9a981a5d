package lex

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) [ ] { } , ; :`
	expected := []struct {
		kind Kind
		lit  string
	}{
		{Separator, "("}, {Separator, ")"},
		{Separator, "["}, {Separator, "]"},
		{Separator, "{"}, {Separator, "}"},
		{Separator, ","}, {Separator, ";"}, {Separator, ":"},
		{EOF, ""},
	}

	l := New(input, nil)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp.kind {
			t.Errorf("token[%d] kind = %v, want %v", i, tok.Kind, exp.kind)
		}
		if tok.Lexeme != exp.lit {
			t.Errorf("token[%d] lexeme = %q, want %q", i, tok.Lexeme, exp.lit)
		}
	}
}

func TestLexerVariableSigils(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		name  string
	}{
		{"$foo", LocalVar, "foo"},
		{"%bar", PlayerVar, "bar"},
		{"%%baz", PlayerBit, "baz"},
		{"@qux", ClientInt, "qux"},
		{"@$qux", ClientStr, "qux"},
		{"^MAX_PLAYERS", ConstRef, "MAX_PLAYERS"},
		{"~helper", GosubName, "helper"},
	}
	for _, tc := range tests {
		l := New(tc.input, nil)
		tok := l.Next()
		if tok.Kind != tc.kind {
			t.Errorf("Lex(%q): kind = %v, want %v", tc.input, tok.Kind, tc.kind)
		}
		if tok.Lexeme != tc.name {
			t.Errorf("Lex(%q): lexeme = %q, want %q", tc.input, tok.Lexeme, tc.name)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
		lit   string
	}{
		{"42", IntLit, "42"},
		{"0", IntLit, "0"},
		{"0xFF", IntLit, "0xFF"},
		{"123L", LongLit, "123"},
	}
	for _, tc := range tests {
		l := New(tc.input, nil)
		tok := l.Next()
		if tok.Kind != tc.kind {
			t.Errorf("Lex(%q): kind = %v, want %v", tc.input, tok.Kind, tc.kind)
		}
		if tok.Lexeme != tc.lit {
			t.Errorf("Lex(%q): lexeme = %q, want %q", tc.input, tok.Lexeme, tc.lit)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := New(`"hello\nworld"`, nil)
	tok := l.Next()
	if tok.Kind != StringLit {
		t.Fatalf("kind = %v, want StringLit", tok.Kind)
	}
	if tok.Lexeme != "hello\nworld" {
		t.Errorf("lexeme = %q, want %q", tok.Lexeme, "hello\nworld")
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	l := New(`"unterminated`, nil)
	tok := l.Next()
	if tok.Kind != Error {
		t.Fatalf("kind = %v, want Error", tok.Kind)
	}
	if len(l.Diagnostics()) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(l.Diagnostics()))
	}
}

func TestLexerKeywordsCaseInsensitive(t *testing.T) {
	l := New("IF WHILE", nil)
	tok := l.Next()
	if tok.Kind != Keyword {
		t.Errorf("kind = %v, want Keyword", tok.Kind)
	}
}

func TestLexerResyncAfterBadChar(t *testing.T) {
	l := New("` ;", nil)
	tok := l.Next()
	if tok.Kind != Error {
		t.Fatalf("kind = %v, want Error", tok.Kind)
	}
	next := l.Next()
	if next.Kind != Separator || next.Lexeme != ";" {
		t.Errorf("resync landed on %v %q, want separator ;", next.Kind, next.Lexeme)
	}
}

func TestLexerComments(t *testing.T) {
	l := New("// line comment\n42 /* block */ 7", nil)
	tok := l.Next()
	if tok.Kind != IntLit || tok.Lexeme != "42" {
		t.Fatalf("got %v %q, want IntLit 42", tok.Kind, tok.Lexeme)
	}
	tok = l.Next()
	if tok.Kind != IntLit || tok.Lexeme != "7" {
		t.Fatalf("got %v %q, want IntLit 7", tok.Kind, tok.Lexeme)
	}
}

func TestLexerConcatOperator(t *testing.T) {
	l := New(`$a .. $b`, nil)
	l.Next() // $a
	tok := l.Next()
	if tok.Kind != Operator || tok.Lexeme != ".." {
		t.Fatalf("got %v %q, want Operator \"..\"", tok.Kind, tok.Lexeme)
	}
}
