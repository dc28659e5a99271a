package syntax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
)

// Parser parses nodespeak tokens into an AST.
type Parser struct {
	tokens  []Token
	current int
	file    int
	errors  []*ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Token   Token
	File    int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Token.Line, e.Token.Column, e.Message)
}

// Unwrap exposes the error as a diagnostic so callers can use errors.As
// with *diag.Problem.
func (e *ParseError) Unwrap() error {
	return diag.Errorf(diag.SyntaxError, e.Token.Span(e.File), "%s", e.Message)
}

// NewParser creates a new parser for the given tokens of source file
// number file.
func NewParser(tokens []Token, file int) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
		file:    file,
	}
}

// Errors returns every error found by the last call to Parse.
func (p *Parser) Errors() []*ParseError {
	return p.errors
}

// ParseFile lexes and parses one file of a source set.
func ParseFile(set *source.Set, file int) (*File, error) {
	tokens, err := NewLexer(set.Content(file)).Tokenize()
	if err != nil {
		var lexErr *LexError
		if errors.As(err, &lexErr) {
			pos := source.Position{Line: lexErr.Line, Column: lexErr.Column, Offset: lexErr.Offset}
			return nil, diag.Errorf(diag.SyntaxError, source.Span{File: file, Start: pos, End: pos}, "%s", lexErr.Message)
		}
		return nil, err
	}
	return NewParser(tokens, file).Parse()
}

// Parse parses the tokens and returns the file's AST.
func (p *Parser) Parse() (*File, error) {
	start := p.peek()
	file := &File{}

	for !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			p.errors = append(p.errors, err)
			p.synchronize()
			continue
		}
		if stmt != nil {
			file.Statements = append(file.Statements, stmt)
		}
	}
	file.Span = p.spanFrom(start)

	if len(p.errors) > 0 {
		return file, fmt.Errorf("parsing failed with %d error(s): %w", len(p.errors), p.errors[0])
	}

	return file, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) statement() (Stmt, *ParseError) {
	switch p.peek().Kind {
	case TokenInput, TokenOutput:
		return p.ioDecl()
	case TokenMacro:
		return p.macroDef()
	case TokenIf:
		return p.ifStmt()
	case TokenFor:
		return p.forStmt()
	case TokenStatic:
		return p.staticStmt()
	case TokenAssert:
		return p.assertStmt()
	case TokenReturn:
		start := p.advance()
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		return &ReturnStmt{Span: p.spanFrom(start)}, nil
	case TokenInclude:
		return p.includeStmt()
	case TokenLeftBrace:
		return p.block()
	case TokenSemicolon:
		p.advance()
		return nil, nil
	default:
		return p.exprOrAssignStmt()
	}
}

// block parses a braced statement list.
func (p *Parser) block() (*Block, *ParseError) {
	start := p.peek()
	if err := p.expectErr(TokenLeftBrace); err != nil {
		return nil, err
	}

	stmts := make([]Stmt, 0, 4)
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}

	if err := p.expectErr(TokenRightBrace); err != nil {
		return nil, err
	}

	return &Block{Statements: stmts, Span: p.spanFrom(start)}, nil
}

func (p *Parser) ioDecl() (*IODecl, *ParseError) {
	start := p.advance()
	typ, err := p.expression()
	if err != nil {
		return nil, err
	}
	names, err := p.identList()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return &IODecl{
		Output: start.Kind == TokenOutput,
		Type:   typ,
		Names:  names,
		Span:   p.spanFrom(start),
	}, nil
}

// macroDef parses `macro Name(a, b): out { }` and `macro Name(a): (o1, o2) { }`.
func (p *Parser) macroDef() (*MacroDef, *ParseError) {
	start := p.advance()
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenLeftParen); err != nil {
		return nil, err
	}
	var inputs []*Ident
	if !p.check(TokenRightParen) {
		if inputs, err = p.identList(); err != nil {
			return nil, err
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}

	var outputs []*Ident
	if p.match(TokenColon) {
		if p.match(TokenLeftParen) {
			if !p.check(TokenRightParen) {
				if outputs, err = p.identList(); err != nil {
					return nil, err
				}
			}
			if err := p.expectErr(TokenRightParen); err != nil {
				return nil, err
			}
		} else {
			out, err := p.ident()
			if err != nil {
				return nil, err
			}
			outputs = []*Ident{out}
		}
	}
	header := p.spanFrom(start)

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &MacroDef{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		Body:    body,
		Header:  header,
		Span:    p.spanFrom(start),
	}, nil
}

func (p *Parser) ifStmt() (*IfStmt, *ParseError) {
	start := p.advance()
	stmt := &IfStmt{}

	for {
		cond, err := p.expression()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt.Clauses = append(stmt.Clauses, IfClause{Condition: cond, Body: body})

		if !p.match(TokenElse) {
			break
		}
		if !p.match(TokenIf) {
			els, err := p.block()
			if err != nil {
				return nil, err
			}
			stmt.Else = els
			break
		}
	}

	stmt.Span = p.spanFrom(start)
	return stmt, nil
}

func (p *Parser) forStmt() (*ForStmt, *ParseError) {
	start := p.advance()
	counter, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenEqual); err != nil {
		return nil, err
	}
	from, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenTo); err != nil {
		return nil, err
	}
	to, err := p.expression()
	if err != nil {
		return nil, err
	}
	noUnroll := p.match(TokenNoUnroll)
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ForStmt{
		Counter:  counter,
		Start:    from,
		End:      to,
		NoUnroll: noUnroll,
		Body:     body,
		Span:     p.spanFrom(start),
	}, nil
}

func (p *Parser) staticStmt() (*StaticStmt, *ParseError) {
	start := p.advance()
	var exports []*Ident
	if !p.check(TokenLeftBrace) {
		var err *ParseError
		if exports, err = p.identList(); err != nil {
			return nil, err
		}
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &StaticStmt{Exports: exports, Body: body, Span: p.spanFrom(start)}, nil
}

func (p *Parser) assertStmt() (*AssertStmt, *ParseError) {
	start := p.advance()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return &AssertStmt{Condition: cond, Span: p.spanFrom(start)}, nil
}

func (p *Parser) includeStmt() (*IncludeStmt, *ParseError) {
	start := p.advance()
	tok := p.peek()
	if err := p.expectErr(TokenStringLiteral); err != nil {
		return nil, err
	}
	path, uerr := strconv.Unquote(tok.Lexeme)
	if uerr != nil {
		return nil, p.errorAt(tok, "invalid string literal %s", tok.Lexeme)
	}
	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	return &IncludeStmt{Path: path, Span: p.spanFrom(start)}, nil
}

// exprOrAssignStmt parses declarations, assignments, macro calls and bare
// expressions. All of them start with an expression: a declaration is an
// expression followed by a name.
func (p *Parser) exprOrAssignStmt() (Stmt, *ParseError) {
	start := p.peek()
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}

	var target Expr
	if p.check(TokenIdent) {
		target, err = p.declFrom(expr)
		if err != nil {
			return nil, err
		}
		if !p.check(TokenEqual) {
			if err := p.expectErr(TokenSemicolon); err != nil {
				return nil, err
			}
			return &DeclStmt{Decl: target.(*VarDecl), Span: p.spanFrom(start)}, nil
		}
	}

	if p.match(TokenEqual) {
		if target == nil {
			if !isAssignable(expr) {
				return nil, p.errorAt(start, "invalid assignment target")
			}
			target = expr
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenSemicolon); err != nil {
			return nil, err
		}
		return &AssignStmt{Target: target, Value: value, Span: p.spanFrom(start)}, nil
	}

	if err := p.expectErr(TokenSemicolon); err != nil {
		return nil, err
	}
	if call, ok := expr.(*MacroCallExpr); ok {
		return &MacroCallStmt{Call: call, Span: p.spanFrom(start)}, nil
	}
	return &ExprStmt{Expr: expr, Span: p.spanFrom(start)}, nil
}

func (p *Parser) declFrom(typ Expr) (*VarDecl, *ParseError) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &VarDecl{Type: typ, Name: name, Span: typ.Pos().Union(name.Span)}, nil
}

func isAssignable(e Expr) bool {
	switch e := e.(type) {
	case *Ident, *VarDecl:
		return true
	case *IndexExpr:
		return isAssignable(e.Base) && !isDecl(e.Base)
	}
	return false
}

func isDecl(e Expr) bool {
	_, ok := e.(*VarDecl)
	return ok
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var binaryPrecedence = map[TokenKind]int{
	TokenAs:             23,
	TokenStarStar:       22,
	TokenStar:           21,
	TokenSlash:          21,
	TokenPercent:        21,
	TokenPlus:           20,
	TokenMinus:          20,
	TokenLessLess:       18,
	TokenGreaterGreater: 18,
	TokenBAnd:           16,
	TokenBXor:           15,
	TokenBOr:            14,
	TokenLessEqual:      13,
	TokenLess:           13,
	TokenGreaterEqual:   13,
	TokenGreater:        13,
	TokenEqualEqual:     13,
	TokenBangEqual:      13,
	TokenIn:             13,
	TokenAnd:            12,
	TokenXor:            11,
	TokenOr:             10,
}

// expression parses a full expression.
func (p *Parser) expression() (Expr, *ParseError) {
	return p.binary(0)
}

// binary climbs operator precedence. Only ** associates to the right.
func (p *Parser) binary(minPrec int) (Expr, *ParseError) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek().Kind
		prec, ok := binaryPrecedence[op]
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		next := prec + 1
		if op == TokenStarStar {
			next = prec
		}
		right, err := p.binary(next)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Op:    op,
			Left:  left,
			Right: right,
			Span:  left.Pos().Union(right.Pos()),
		}
	}

	return left, nil
}

func (p *Parser) unary() (Expr, *ParseError) {
	if p.check(TokenMinus) || p.check(TokenNot) || p.check(TokenBNot) {
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			Op:      op.Kind,
			Operand: operand,
			Span:    op.Span(p.file).Union(operand.Pos()),
		}, nil
	}

	return p.postfix()
}

// postfix parses indexing, property access and macro calls.
func (p *Parser) postfix() (Expr, *ParseError) {
	start := p.peek()
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.check(TokenLeftParen):
			ident, ok := expr.(*Ident)
			if !ok {
				return expr, nil
			}
			call, err := p.macroCall(ident)
			if err != nil {
				return nil, err
			}
			expr = call
		case p.match(TokenLeftBracket):
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			optional := p.match(TokenQuestion)
			if err := p.expectErr(TokenRightBracket); err != nil {
				return nil, err
			}
			expr = &IndexExpr{
				Base:     expr,
				Index:    index,
				Optional: optional,
				Span:     p.spanFrom(start),
			}
		case p.match(TokenDot):
			name := p.peek()
			if err := p.expectErr(TokenIdent); err != nil {
				return nil, err
			}
			expr = &PropertyExpr{
				Base:     expr,
				Name:     name.Lexeme,
				NameSpan: name.Span(p.file),
				Span:     p.spanFrom(start),
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) macroCall(name *Ident) (*MacroCallExpr, *ParseError) {
	p.advance() // consume '('
	call := &MacroCallExpr{Macro: name}
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		call.Inputs = append(call.Inputs, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightParen); err != nil {
		return nil, err
	}

	if p.check(TokenColon) && p.peekNext().Kind == TokenLeftParen {
		p.advance()
		p.advance()
		call.HasOutputs = true
		for !p.check(TokenRightParen) && !p.isAtEnd() {
			out, err := p.callOutput()
			if err != nil {
				return nil, err
			}
			call.Outputs = append(call.Outputs, out)
			if !p.match(TokenComma) {
				break
			}
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return nil, err
		}
	}

	call.Span = name.Span.Union(p.previous().Span(p.file))
	return call, nil
}

func (p *Parser) callOutput() (CallOutput, *ParseError) {
	if tok := p.peek(); tok.Kind == TokenInline {
		p.advance()
		return CallOutput{Inline: true, Span: tok.Span(p.file)}, nil
	}
	start := p.peek()
	target, err := p.expression()
	if err != nil {
		return CallOutput{}, err
	}
	if p.check(TokenIdent) {
		if target, err = p.declFrom(target); err != nil {
			return CallOutput{}, err
		}
	}
	if !isAssignable(target) {
		return CallOutput{}, p.errorAt(start, "macro output must be a variable, an indexed variable or a declaration")
	}
	return CallOutput{Target: target, Span: target.Pos()}, nil
}

// primary parses literals, names, parenthesized expressions, array
// literals, array types and type bounds.
func (p *Parser) primary() (Expr, *ParseError) {
	tok := p.peek()

	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		v, err := parseInt(tok.Lexeme)
		if err != nil {
			return nil, p.errorAt(tok, "invalid integer literal %s", tok.Lexeme)
		}
		return &IntLiteral{Value: v, Span: tok.Span(p.file)}, nil

	case TokenFloatLiteral:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Lexeme, "_", ""), 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid float literal %s", tok.Lexeme)
		}
		return &FloatLiteral{Value: v, Span: tok.Span(p.file)}, nil

	case TokenIdent:
		p.advance()
		return &Ident{Name: tok.Lexeme, Span: tok.Span(p.file)}, nil

	case TokenLeftParen:
		p.advance()
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if err := p.expectErr(TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenLeftBracket:
		if typ, ok := p.tryArrayType(); ok {
			return typ, nil
		}
		return p.arrayLiteral()

	case TokenLess:
		return p.typeBound()

	default:
		return nil, p.errorAt(tok, "unexpected %s in expression", tok.Kind)
	}
}

// tryArrayType parses `[a][b]BASE`. It backtracks when the brackets turn
// out to be an array literal, possibly followed by indexing.
func (p *Parser) tryArrayType() (*ArrayType, bool) {
	save := p.current
	start := p.peek()
	var dims []Expr
	for p.match(TokenLeftBracket) {
		dim, err := p.expression()
		if err != nil || !p.match(TokenRightBracket) {
			p.current = save
			return nil, false
		}
		dims = append(dims, dim)
	}
	switch p.peek().Kind {
	case TokenIdent, TokenLeftParen, TokenLess:
	default:
		p.current = save
		return nil, false
	}
	base, err := p.primary()
	if err != nil {
		p.current = save
		return nil, false
	}
	return &ArrayType{Dims: dims, Base: base, Span: p.spanFrom(start)}, true
}

func (p *Parser) arrayLiteral() (*ArrayLiteral, *ParseError) {
	start := p.advance()
	lit := &ArrayLiteral{}
	for !p.check(TokenRightBracket) && !p.isAtEnd() {
		item, err := p.expression()
		if err != nil {
			return nil, err
		}
		lit.Items = append(lit.Items, item)
		if !p.match(TokenComma) {
			break
		}
	}
	if err := p.expectErr(TokenRightBracket); err != nil {
		return nil, err
	}
	lit.Span = p.spanFrom(start)
	return lit, nil
}

func (p *Parser) typeBound() (*TypeBound, *ParseError) {
	start := p.advance()
	bound := &TypeBound{}
	if !p.check(TokenGreater) {
		first, err := p.unary()
		if err != nil {
			return nil, err
		}
		if p.match(TokenComma) {
			second, err := p.unary()
			if err != nil {
				return nil, err
			}
			bound.Lower, bound.Upper = first, second
		} else {
			bound.Upper = first
		}
	}
	if err := p.expectErr(TokenGreater); err != nil {
		return nil, err
	}
	bound.Span = p.spanFrom(start)
	return bound, nil
}

// parseInt accepts 0x, 0o, 0b, legacy 0NN octal and decimal literals with
// optional underscore separators.
func parseInt(lexeme string) (int64, error) {
	s := strings.ReplaceAll(lexeme, "_", "")
	base := 10
	if len(s) > 1 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, s = 16, s[2:]
		case 'o', 'O':
			base, s = 8, s[2:]
		case 'b', 'B':
			base, s = 2, s[2:]
		default:
			base, s = 8, s[1:]
		}
	}
	return strconv.ParseInt(s, base, 64)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (p *Parser) ident() (*Ident, *ParseError) {
	tok := p.peek()
	if err := p.expectErr(TokenIdent); err != nil {
		return nil, err
	}
	return &Ident{Name: tok.Lexeme, Span: tok.Span(p.file)}, nil
}

func (p *Parser) identList() ([]*Ident, *ParseError) {
	var names []*Ident
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if !p.match(TokenComma) {
			return names, nil
		}
	}
}

// spanFrom covers everything from start through the last consumed token.
func (p *Parser) spanFrom(start Token) source.Span {
	span := start.Span(p.file)
	if p.current > 0 {
		span = span.Union(p.previous().Span(p.file))
	}
	return span
}

func (p *Parser) errorAt(tok Token, format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), Token: tok, File: p.file}
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) check(kind TokenKind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Kind == kind
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectErr(kind TokenKind) *ParseError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), "expected %s, got %s", kind, p.peek().Kind)
}

func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == TokenSemicolon || p.previous().Kind == TokenRightBrace {
			return
		}
		switch p.peek().Kind {
		case TokenMacro, TokenIf, TokenFor, TokenStatic, TokenInput, TokenOutput, TokenAssert, TokenInclude:
			return
		}
		p.advance()
	}
}
