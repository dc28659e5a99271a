package syntax

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a file back to canonical source text. Parsing the output
// yields an equivalent tree.
func Format(f *File) string {
	w := &writer{}
	for _, s := range f.Statements {
		w.stmt(s)
	}
	return w.sb.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	w := &writer{}
	w.expr(e)
	return w.sb.String()
}

type writer struct {
	sb     strings.Builder
	indent int
}

func (w *writer) line(format string, args ...interface{}) {
	w.sb.WriteString(strings.Repeat("    ", w.indent))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteString("\n")
}

func (w *writer) block(b *Block) {
	w.indent++
	for _, s := range b.Statements {
		w.stmt(s)
	}
	w.indent--
}

func (w *writer) stmt(s Stmt) {
	switch s := s.(type) {
	case *IODecl:
		kw := "input"
		if s.Output {
			kw = "output"
		}
		w.line("%s %s %s;", kw, FormatExpr(s.Type), identList(s.Names))
	case *DeclStmt:
		w.line("%s;", FormatExpr(s.Decl))
	case *AssignStmt:
		w.line("%s = %s;", FormatExpr(s.Target), FormatExpr(s.Value))
	case *MacroDef:
		sig := fmt.Sprintf("macro %s(%s)", s.Name.Name, identList(s.Inputs))
		switch len(s.Outputs) {
		case 0:
		case 1:
			sig += ": " + s.Outputs[0].Name
		default:
			sig += ": (" + identList(s.Outputs) + ")"
		}
		w.line("%s {", sig)
		w.block(s.Body)
		w.line("}")
	case *MacroCallStmt:
		w.line("%s;", FormatExpr(s.Call))
	case *ExprStmt:
		w.line("%s;", FormatExpr(s.Expr))
	case *IfStmt:
		for i, c := range s.Clauses {
			if i == 0 {
				w.line("if %s {", FormatExpr(c.Condition))
			} else {
				w.line("} else if %s {", FormatExpr(c.Condition))
			}
			w.block(c.Body)
		}
		if s.Else != nil {
			w.line("} else {")
			w.block(s.Else)
		}
		w.line("}")
	case *ForStmt:
		suffix := ""
		if s.NoUnroll {
			suffix = " no_unroll"
		}
		w.line("for %s = %s to %s%s {", s.Counter.Name, FormatExpr(s.Start), FormatExpr(s.End), suffix)
		w.block(s.Body)
		w.line("}")
	case *StaticStmt:
		if len(s.Exports) == 0 {
			w.line("static {")
		} else {
			w.line("static %s {", identList(s.Exports))
		}
		w.block(s.Body)
		w.line("}")
	case *AssertStmt:
		w.line("assert %s;", FormatExpr(s.Condition))
	case *ReturnStmt:
		w.line("return;")
	case *IncludeStmt:
		w.line("include %s;", strconv.Quote(s.Path))
	case *Block:
		w.line("{")
		w.block(s)
		w.line("}")
	}
}

func (w *writer) expr(e Expr) {
	switch e := e.(type) {
	case *Ident:
		w.sb.WriteString(e.Name)
	case *IntLiteral:
		w.sb.WriteString(strconv.FormatInt(e.Value, 10))
	case *FloatLiteral:
		s := strconv.FormatFloat(e.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		w.sb.WriteString(s)
	case *ArrayLiteral:
		w.sb.WriteString("[")
		for i, item := range e.Items {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.expr(item)
		}
		w.sb.WriteString("]")
	case *ArrayType:
		for _, d := range e.Dims {
			w.sb.WriteString("[")
			w.expr(d)
			w.sb.WriteString("]")
		}
		w.expr(e.Base)
	case *TypeBound:
		w.sb.WriteString("<")
		if e.Lower != nil {
			w.expr(e.Lower)
			w.sb.WriteString(", ")
		}
		if e.Upper != nil {
			w.expr(e.Upper)
		}
		w.sb.WriteString(">")
	case *IndexExpr:
		w.expr(e.Base)
		w.sb.WriteString("[")
		w.expr(e.Index)
		if e.Optional {
			w.sb.WriteString("?")
		}
		w.sb.WriteString("]")
	case *PropertyExpr:
		w.expr(e.Base)
		w.sb.WriteString("." + e.Name)
	case *UnaryExpr:
		if e.Op == TokenNot || e.Op == TokenBNot {
			w.sb.WriteString(e.Op.String() + " ")
		} else {
			w.sb.WriteString(e.Op.String())
		}
		w.operand(e.Operand)
	case *BinaryExpr:
		w.operand(e.Left)
		w.sb.WriteString(" " + e.Op.String() + " ")
		w.operand(e.Right)
	case *MacroCallExpr:
		w.sb.WriteString(e.Macro.Name + "(")
		for i, in := range e.Inputs {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			w.expr(in)
		}
		w.sb.WriteString(")")
		if e.HasOutputs {
			w.sb.WriteString(":(")
			for i, out := range e.Outputs {
				if i > 0 {
					w.sb.WriteString(", ")
				}
				if out.Inline {
					w.sb.WriteString("inline")
				} else {
					w.expr(out.Target)
				}
			}
			w.sb.WriteString(")")
		}
	case *VarDecl:
		w.expr(e.Type)
		w.sb.WriteString(" " + e.Name.Name)
	}
}

// operand parenthesizes nested operators so precedence survives a round
// trip.
func (w *writer) operand(e Expr) {
	switch e.(type) {
	case *BinaryExpr, *UnaryExpr:
		w.sb.WriteString("(")
		w.expr(e)
		w.sb.WriteString(")")
	default:
		w.expr(e)
	}
}

func identList(ids []*Ident) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return strings.Join(names, ", ")
}
