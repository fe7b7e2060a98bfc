package scanner

import (
	"testing"

	"github.com/informatter/nilox/token"
)

func collectKinds(source string) []token.Kind {
	s := New(source)
	var kinds []token.Kind
	for {
		tok := s.ScanToken()
		kinds = append(kinds, tok.Kind)
		if tok.Kind == token.EOF {
			return kinds
		}
	}
}

func TestScanOperators(t *testing.T) {
	expected := []token.Kind{
		token.EQUAL_EQUAL, token.SLASH, token.EQUAL, token.STAR, token.PLUS,
		token.GREATER, token.MINUS, token.LESS, token.BANG_EQUAL,
		token.LESS_EQUAL, token.GREATER_EQUAL, token.BANG, token.BANG,
		token.EOF,
	}
	got := collectKinds("==/=*+>-<!=<=>=!!")
	if len(got) != len(expected) {
		t.Fatalf("collectKinds() = %v, want %v", got, expected)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], expected[i])
		}
	}
}

func TestScanPunctuation(t *testing.T) {
	expected := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.STAR, token.STAR, token.SEMICOLON, token.PLUS,
		token.BANG_EQUAL, token.LESS_EQUAL, token.EOF,
	}
	got := collectKinds("(){}**;+!=<=")
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], expected[i])
		}
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	got := collectKinds("var andy = true;")
	expected := []token.Kind{
		token.VAR, token.IDENTIFIER, token.EQUAL, token.TRUE,
		token.SEMICOLON, token.EOF,
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("token %d = %v, want %v", i, got[i], expected[i])
		}
	}
}

func TestScanLineCommentsAreSkipped(t *testing.T) {
	got := collectKinds("1 // this is a comment\n+ 2")
	expected := []token.Kind{token.NUMBER, token.PLUS, token.NUMBER, token.EOF}
	if len(got) != len(expected) {
		t.Fatalf("collectKinds() = %v, want %v", got, expected)
	}
}

func TestScanNumberLexemes(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"123", "123"},
		{"3.14", "3.14"},
		{"0.5", "0.5"},
	}
	for _, tt := range tests {
		s := New(tt.source)
		tok := s.ScanToken()
		if tok.Kind != token.NUMBER {
			t.Fatalf("ScanToken() kind = %v, want NUMBER", tok.Kind)
		}
		if got := tok.Lexeme(tt.source); got != tt.expected {
			t.Errorf("Lexeme() = %q, want %q", got, tt.expected)
		}
	}
}

func TestScanStringLiteral(t *testing.T) {
	source := `"hello world"`
	s := New(source)
	tok := s.ScanToken()
	if tok.Kind != token.STRING {
		t.Fatalf("ScanToken() kind = %v, want STRING", tok.Kind)
	}
	if got := tok.Lexeme(source); got != source {
		t.Errorf("Lexeme() = %q, want %q", got, source)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	s := New(`"unterminated`)
	tok := s.ScanToken()
	if tok.Kind != token.ERROR {
		t.Fatalf("ScanToken() kind = %v, want ERROR", tok.Kind)
	}
	if tok.Message != "Unterminated string." {
		t.Errorf("Message = %q", tok.Message)
	}
}

func TestScanLineTracking(t *testing.T) {
	s := New("1\n2\n3")
	var lines []int
	for {
		tok := s.ScanToken()
		if tok.Kind == token.EOF {
			break
		}
		lines = append(lines, tok.Line)
	}
	expected := []int{1, 2, 3}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d = %d, want %d", i, lines[i], expected[i])
		}
	}
}

func TestScanEOFIsSticky(t *testing.T) {
	s := New("")
	first := s.ScanToken()
	second := s.ScanToken()
	if first.Kind != token.EOF || second.Kind != token.EOF {
		t.Errorf("ScanToken() after end = %v, %v, want EOF, EOF", first.Kind, second.Kind)
	}
}
