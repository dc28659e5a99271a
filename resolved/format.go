package resolved

import (
	"fmt"
	"strings"
)

// String renders the program as readable text, static initialization
// first.
func (p *Program) String() string {
	var sb strings.Builder
	for _, v := range p.Inputs {
		fmt.Fprintf(&sb, "input v%d: %s\n", v, p.Variables[v].Type)
	}
	for _, v := range p.Outputs {
		fmt.Fprintf(&sb, "output v%d: %s\n", v, p.Variables[v].Type)
	}
	for _, v := range p.Statics {
		fmt.Fprintf(&sb, "static v%d: %s\n", v, p.Variables[v].Type)
	}
	sb.WriteString("static_init {\n")
	p.writeScope(&sb, p.StaticInit, 1)
	sb.WriteString("}\nmain {\n")
	p.writeScope(&sb, p.Entry, 1)
	sb.WriteString("}\n")
	return sb.String()
}

func (p *Program) writeScope(sb *strings.Builder, scope ScopeHandle, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, stmt := range p.Scopes[scope].Body {
		switch s := stmt.(type) {
		case *Assign:
			fmt.Fprintf(sb, "%s%s = %s\n", indent, FormatTarget(s.Target), FormatExpr(s.Value))
		case *Assert:
			fmt.Fprintf(sb, "%sassert %s\n", indent, FormatExpr(s.Condition))
		case *Branch:
			for i, c := range s.Clauses {
				kw := "if"
				if i > 0 {
					kw = "} else if"
				}
				fmt.Fprintf(sb, "%s%s %s {\n", indent, kw, FormatExpr(c.Condition))
				p.writeScope(sb, c.Body, depth+1)
			}
			if s.Else != NoScope {
				fmt.Fprintf(sb, "%s} else {\n", indent)
				p.writeScope(sb, s.Else, depth+1)
			}
			fmt.Fprintf(sb, "%s}\n", indent)
		case *ForLoop:
			fmt.Fprintf(sb, "%sfor v%d = %s to %s {\n", indent, s.Counter, FormatExpr(s.Start), FormatExpr(s.End))
			p.writeScope(sb, s.Body, depth+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		case *MacroCall:
			fmt.Fprintf(sb, "%sinline {\n", indent)
			p.writeScope(sb, s.Body, depth+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		}
	}
}

// FormatTarget renders an assignment target.
func FormatTarget(t *Target) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d", t.Var)
	for _, idx := range t.Indexes {
		sb.WriteString("[" + FormatExpr(idx) + "]")
	}
	return sb.String()
}

// FormatExpr renders an expression.
func FormatExpr(e Expression) string {
	switch e := e.(type) {
	case *Literal:
		return e.Value.String()
	case *VariableRef:
		return fmt.Sprintf("v%d", e.Var)
	case *Index:
		var sb strings.Builder
		sb.WriteString(FormatExpr(e.Base))
		for _, idx := range e.Indexes {
			sb.WriteString("[" + FormatExpr(idx) + "]")
		}
		return sb.String()
	case *Collect:
		parts := make([]string, len(e.Items))
		for i, item := range e.Items {
			parts[i] = FormatExpr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Unary:
		return e.Op.String() + "(" + FormatExpr(e.Operand) + ")"
	case *Binary:
		return "(" + FormatExpr(e.Left) + " " + e.Op.String() + " " + FormatExpr(e.Right) + ")"
	}
	return "?"
}
