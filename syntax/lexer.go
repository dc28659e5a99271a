package syntax

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes nodespeak source code.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int

	startLine   int
	startColumn int
	tokens      []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 5 characters of source.
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		pos:    0,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// LexError reports an unterminated string or block comment.
type LexError struct {
	Message string
	Line    int
	Column  int
	Offset  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Tokenize returns all tokens from the source. Characters that start no
// token become TokenError tokens and are reported by the parser.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startLine = l.line
		l.startColumn = l.column
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
		Offset: l.pos,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case ';':
		l.addToken(TokenSemicolon)
	case '?':
		l.addToken(TokenQuestion)
	case '+':
		l.addToken(TokenPlus)
	case '-':
		l.addToken(TokenMinus)
	case '%':
		l.addToken(TokenPercent)
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(TokenDot)
		}

	case '*':
		if l.match('*') {
			l.addToken(TokenStarStar)
		} else {
			l.addToken(TokenStar)
		}
	case '/':
		if l.match('/') {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			return l.blockComment()
		} else {
			l.addToken(TokenSlash)
		}
	case '=':
		if l.match('=') {
			l.addToken(TokenEqualEqual)
		} else {
			l.addToken(TokenEqual)
		}
	case '!':
		if l.match('=') {
			l.addToken(TokenBangEqual)
		} else {
			l.addToken(TokenError)
		}
	case '<':
		if l.match('<') {
			l.addToken(TokenLessLess)
		} else if l.match('=') {
			l.addToken(TokenLessEqual)
		} else {
			l.addToken(TokenLess)
		}
	case '>':
		if l.match('>') {
			l.addToken(TokenGreaterGreater)
		} else if l.match('=') {
			l.addToken(TokenGreaterEqual)
		} else {
			l.addToken(TokenGreater)
		}
	case '"':
		return l.str()

	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			l.addToken(TokenError)
		}
	}

	return nil
}

func (l *Lexer) blockComment() error {
	depth := 1
	for depth > 0 && !l.isAtEnd() {
		if l.peek() == '/' && l.peekNext() == '*' {
			l.advance()
			l.advance()
			depth++
		} else if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			depth--
		} else {
			if l.advance() == '\n' {
				l.line++
				l.column = 1
			}
		}
	}
	if depth > 0 {
		return l.errorf("unterminated block comment")
	}
	return nil
}

func (l *Lexer) str() error {
	for l.peek() != '"' {
		if l.isAtEnd() || l.peek() == '\n' {
			return l.errorf("unterminated string literal")
		}
		if l.peek() == '\\' {
			l.advance()
		}
		l.advance()
	}
	l.advance()
	l.addToken(TokenStringLiteral)
	return nil
}

// number scans decimal, 0x, 0o, 0b and legacy leading-zero octal integers
// as well as floats. Underscores may separate digits anywhere after the
// first one. Validation of the digits happens when the literal is parsed.
func (l *Lexer) number() {
	if l.source[l.start] == '0' {
		switch l.peek() {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			l.advance()
			for isHexDigit(l.peek()) || l.peek() == '_' {
				l.advance()
			}
			l.addToken(TokenIntLiteral)
			return
		}
	}

	isFloat := l.source[l.start] == '.'
	l.digits()

	if !isFloat && l.peek() == '.' && isDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		l.digits()
	}

	if l.peek() == 'e' || l.peek() == 'E' {
		next := l.peekNext()
		if isDigit(next) || next == '+' || next == '-' {
			isFloat = true
			l.advance()
			if l.peek() == '+' || l.peek() == '-' {
				l.advance()
			}
			l.digits()
		}
	}

	if isFloat {
		l.addToken(TokenFloatLiteral)
	} else {
		l.addToken(TokenIntLiteral)
	}
}

func (l *Lexer) digits() {
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
}

func (l *Lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}

	text := l.source[l.start:l.pos]
	l.addToken(lookupKeyword(text))
}

var keywords = map[string]TokenKind{
	"and":       TokenAnd,
	"or":        TokenOr,
	"xor":       TokenXor,
	"not":       TokenNot,
	"bnot":      TokenBNot,
	"band":      TokenBAnd,
	"bor":       TokenBOr,
	"bxor":      TokenBXor,
	"as":        TokenAs,
	"in":        TokenIn,
	"input":     TokenInput,
	"output":    TokenOutput,
	"static":    TokenStatic,
	"macro":     TokenMacro,
	"if":        TokenIf,
	"else":      TokenElse,
	"for":       TokenFor,
	"to":        TokenTo,
	"no_unroll": TokenNoUnroll,
	"assert":    TokenAssert,
	"return":    TokenReturn,
	"include":   TokenInclude,
	"inline":    TokenInline,
}

func lookupKeyword(text string) TokenKind {
	if kind, ok := keywords[text]; ok {
		return kind
	}
	return TokenIdent
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startColumn,
		Offset: l.start,
	})
}

func (l *Lexer) errorf(format string, args ...interface{}) error {
	return &LexError{
		Message: fmt.Sprintf(format, args...),
		Line:    l.startLine,
		Column:  l.startColumn,
		Offset:  l.start,
	}
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
