package syntax

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"+ - * /", []TokenKind{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEOF}},
		{"( ) { }", []TokenKind{TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace, TokenEOF}},
		{"[ ] , .", []TokenKind{TokenLeftBracket, TokenRightBracket, TokenComma, TokenDot, TokenEOF}},
		{": ; ?", []TokenKind{TokenColon, TokenSemicolon, TokenQuestion, TokenEOF}},
		{"** % =", []TokenKind{TokenStarStar, TokenPercent, TokenEqual, TokenEOF}},
	}

	for _, tt := range tests {
		tokens, err := NewLexer(tt.input).Tokenize()
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
			continue
		}

		if len(tokens) != len(tt.expected) {
			t.Errorf("%q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}

		for i, tok := range tokens {
			if tok.Kind != tt.expected[i] {
				t.Errorf("%q token %d: expected %v, got %v", tt.input, i, tt.expected[i], tok.Kind)
			}
		}
	}
}

func TestLexerOperators(t *testing.T) {
	input := "== != <= >= < > << >>"
	expected := []TokenKind{
		TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
		TokenLess, TokenGreater, TokenLessLess, TokenGreaterGreater, TokenEOF,
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := "input output static macro if else for to no_unroll assert return include inline and or xor not bnot band bor bxor as in AUTO"
	expected := []TokenKind{
		TokenInput, TokenOutput, TokenStatic, TokenMacro, TokenIf, TokenElse,
		TokenFor, TokenTo, TokenNoUnroll, TokenAssert, TokenReturn, TokenInclude,
		TokenInline, TokenAnd, TokenOr, TokenXor, TokenNot, TokenBNot, TokenBAnd, TokenBOr,
		TokenBXor, TokenAs, TokenIn, TokenIdent, TokenEOF,
	}

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d (%q): expected %v, got %v", i, tok.Lexeme, expected[i], tok.Kind)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"1_000", TokenIntLiteral},
		{"0x1F", TokenIntLiteral},
		{"0o17", TokenIntLiteral},
		{"0b1010", TokenIntLiteral},
		{"017", TokenIntLiteral},
		{"3.14", TokenFloatLiteral},
		{"1e5", TokenFloatLiteral},
		{"2.5e-3", TokenFloatLiteral},
		{".5", TokenFloatLiteral},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(tokens) != 2 {
				t.Fatalf("Expected 1 token + EOF, got %d tokens", len(tokens))
			}
			if tokens[0].Kind != tt.kind {
				t.Errorf("kind = %v, want %v", tokens[0].Kind, tt.kind)
			}
			if tokens[0].Lexeme != tt.input {
				t.Errorf("lexeme = %q, want %q", tokens[0].Lexeme, tt.input)
			}
		})
	}
}

func TestLexerPropertyAfterInt(t *testing.T) {
	tokens, err := NewLexer("x.DIMS 1.TYPE").Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []TokenKind{TokenIdent, TokenDot, TokenIdent, TokenIntLiteral, TokenDot, TokenIdent, TokenEOF}
	for i, tok := range tokens {
		if tok.Kind != want[i] {
			t.Errorf("Token %d: expected %v, got %v", i, want[i], tok.Kind)
		}
	}
}

func TestLexerComments(t *testing.T) {
	input := "a // line\n/* block /* nested */ still */ b"
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}
	if tokens[1].Lexeme != "b" || tokens[1].Line != 2 {
		t.Errorf("second token = %q at line %d", tokens[1].Lexeme, tokens[1].Line)
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := NewLexer("INT a;\n  a = 1;").Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// INT a ; a = 1 ; EOF
	a := tokens[3]
	if a.Lexeme != "a" || a.Line != 2 || a.Column != 3 || a.Offset != 9 {
		t.Errorf("token = %+v, want a at 2:3 offset 9", a)
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{`include "unterminated`, "/* open"} {
		if _, err := NewLexer(input).Tokenize(); err == nil {
			t.Errorf("%q: expected error", input)
		}
	}
}
