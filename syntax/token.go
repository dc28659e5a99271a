// Package syntax turns nodespeak source text into a tree of statements and
// expressions.
package syntax

import "github.com/audiobench/nodespeak/source"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral

	// Operators
	TokenPlus           // +
	TokenMinus          // -
	TokenStar           // *
	TokenStarStar       // **
	TokenSlash          // /
	TokenPercent        // %
	TokenEqual          // =
	TokenEqualEqual     // ==
	TokenBangEqual      // !=
	TokenLess           // <
	TokenLessEqual      // <=
	TokenGreater        // >
	TokenGreaterEqual   // >=
	TokenLessLess       // <<
	TokenGreaterGreater // >>
	TokenDot            // .
	TokenComma          // ,
	TokenColon          // :
	TokenSemicolon      // ;
	TokenQuestion       // ?

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenAnd
	TokenOr
	TokenXor
	TokenNot
	TokenBNot
	TokenBAnd
	TokenBOr
	TokenBXor
	TokenAs
	TokenIn
	TokenInput
	TokenOutput
	TokenStatic
	TokenMacro
	TokenIf
	TokenElse
	TokenFor
	TokenTo
	TokenNoUnroll
	TokenAssert
	TokenReturn
	TokenInclude
	TokenInline
)

var tokenNames = [...]string{
	TokenEOF:            "end of file",
	TokenError:          "invalid character",
	TokenIdent:          "identifier",
	TokenIntLiteral:     "integer literal",
	TokenFloatLiteral:   "float literal",
	TokenStringLiteral:  "string literal",
	TokenPlus:           "+",
	TokenMinus:          "-",
	TokenStar:           "*",
	TokenStarStar:       "**",
	TokenSlash:          "/",
	TokenPercent:        "%",
	TokenEqual:          "=",
	TokenEqualEqual:     "==",
	TokenBangEqual:      "!=",
	TokenLess:           "<",
	TokenLessEqual:      "<=",
	TokenGreater:        ">",
	TokenGreaterEqual:   ">=",
	TokenLessLess:       "<<",
	TokenGreaterGreater: ">>",
	TokenDot:            ".",
	TokenComma:          ",",
	TokenColon:          ":",
	TokenSemicolon:      ";",
	TokenQuestion:       "?",
	TokenLeftParen:      "(",
	TokenRightParen:     ")",
	TokenLeftBrace:      "{",
	TokenRightBrace:     "}",
	TokenLeftBracket:    "[",
	TokenRightBracket:   "]",
	TokenAnd:            "and",
	TokenOr:             "or",
	TokenXor:            "xor",
	TokenNot:            "not",
	TokenBNot:           "bnot",
	TokenBAnd:           "band",
	TokenBOr:            "bor",
	TokenBXor:           "bxor",
	TokenAs:             "as",
	TokenIn:             "in",
	TokenInput:          "input",
	TokenOutput:         "output",
	TokenStatic:         "static",
	TokenMacro:          "macro",
	TokenIf:             "if",
	TokenElse:           "else",
	TokenFor:            "for",
	TokenTo:             "to",
	TokenNoUnroll:       "no_unroll",
	TokenAssert:         "assert",
	TokenReturn:         "return",
	TokenInclude:        "include",
	TokenInline:         "inline",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "Unknown"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
	Offset int
}

// Span returns the source range covered by the token in file.
func (t Token) Span(file int) source.Span {
	return source.Span{
		File:  file,
		Start: source.Position{Line: t.Line, Column: t.Column, Offset: t.Offset},
		End: source.Position{
			Line:   t.Line,
			Column: t.Column + len(t.Lexeme),
			Offset: t.Offset + len(t.Lexeme),
		},
	}
}
