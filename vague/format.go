package vague

import (
	"fmt"
	"strings"
)

// String renders the program reachable from the entry scope. Builtins are
// left out.
func (p *Program) String() string {
	var sb strings.Builder
	for _, v := range p.Inputs {
		fmt.Fprintf(&sb, "input %s\n", p.VariableName(v))
	}
	for _, v := range p.Outputs {
		fmt.Fprintf(&sb, "output %s\n", p.VariableName(v))
	}
	p.writeScope(&sb, p.Entry, 0)
	return sb.String()
}

func (p *Program) writeScope(sb *strings.Builder, scope ScopeHandle, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, stmt := range p.Scopes[scope].Body {
		switch s := stmt.(type) {
		case *CreationPoint:
			fmt.Fprintf(sb, "%sdeclare %s: %s\n", indent, p.VariableName(s.Var), p.FormatExpr(s.Type))
			if m, ok := p.Variables[s.Var].InitialValue.(*MacroData); ok {
				sc := p.Scopes[m.Body]
				fmt.Fprintf(sb, "%s    macro(%s) -> (%s)\n", indent, p.names(sc.Inputs), p.names(sc.Outputs))
				p.writeScope(sb, m.Body, depth+2)
			}
		case *Assign:
			fmt.Fprintf(sb, "%s%s = %s\n", indent, p.formatVC(s.Target), p.FormatExpr(s.Value))
		case *Assert:
			fmt.Fprintf(sb, "%sassert %s\n", indent, p.FormatExpr(s.Condition))
		case *Branch:
			for i, c := range s.Clauses {
				kw := "if"
				if i > 0 {
					kw = "else if"
				}
				fmt.Fprintf(sb, "%s%s %s {\n", indent, kw, p.FormatExpr(c.Condition))
				p.writeScope(sb, c.Body, depth+1)
			}
			if s.Else != NoScope {
				fmt.Fprintf(sb, "%selse {\n", indent)
				p.writeScope(sb, s.Else, depth+1)
			}
			fmt.Fprintf(sb, "%s}\n", indent)
		case *ForLoop:
			suffix := ""
			if !s.AllowUnroll {
				suffix = " no_unroll"
			}
			fmt.Fprintf(sb, "%sfor %s = %s to %s%s {\n", indent, p.VariableName(s.Counter),
				p.FormatExpr(s.Start), p.FormatExpr(s.End), suffix)
			p.writeScope(sb, s.Body, depth+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		case *StaticInit:
			fmt.Fprintf(sb, "%sstatic (%s) {\n", indent, p.names(s.Exports))
			p.writeScope(sb, s.Body, depth+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		case *Block:
			fmt.Fprintf(sb, "%s{\n", indent)
			p.writeScope(sb, s.Body, depth+1)
			fmt.Fprintf(sb, "%s}\n", indent)
		case *Return:
			fmt.Fprintf(sb, "%sreturn\n", indent)
		case *RawExpression:
			fmt.Fprintf(sb, "%s%s\n", indent, p.FormatExpr(s.Value))
		}
	}
}

func (p *Program) names(vars []VariableHandle) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = p.VariableName(v)
	}
	return strings.Join(parts, ", ")
}

func (p *Program) formatVC(e *VCExpression) string {
	var sb strings.Builder
	sb.WriteString(p.VariableName(e.Base))
	for _, idx := range e.Indexes {
		sb.WriteString("[" + p.FormatExpr(idx) + "]")
	}
	return sb.String()
}

// FormatExpr renders a value-producing expression.
func (p *Program) FormatExpr(e VPExpression) string {
	switch e := e.(type) {
	case *Literal:
		return e.Value.String()
	case *VariableRef:
		return p.VariableName(e.Var)
	case *Collect:
		return "[" + p.exprList(e.Items) + "]"
	case *TypeBound:
		lower, upper := "", "AUTO"
		if e.Lower != nil {
			lower = p.FormatExpr(e.Lower) + ", "
		}
		if e.Upper != nil {
			upper = p.FormatExpr(e.Upper)
		}
		return "<" + lower + upper + ">"
	case *BuildArrayType:
		var sb strings.Builder
		for _, d := range e.Dims {
			sb.WriteString("[" + p.FormatExpr(d) + "]")
		}
		sb.WriteString(p.FormatExpr(e.Base))
		return sb.String()
	case *Index:
		var sb strings.Builder
		sb.WriteString(p.FormatExpr(e.Base))
		for _, idx := range e.Indexes {
			sb.WriteString("[" + p.FormatExpr(idx.Expr))
			if idx.Optional {
				sb.WriteString("?")
			}
			sb.WriteString("]")
		}
		return sb.String()
	case *PropertyAccess:
		return p.FormatExpr(e.Base) + "." + e.Property.String()
	case *UnaryOperation:
		if e.Op == Negate {
			return "-(" + p.FormatExpr(e.Operand) + ")"
		}
		return e.Op.String() + "(" + p.FormatExpr(e.Operand) + ")"
	case *BinaryOperation:
		return "(" + p.FormatExpr(e.Left) + " " + e.Op.String() + " " + p.FormatExpr(e.Right) + ")"
	case *MacroCall:
		outs := make([]string, len(e.Outputs))
		for i, o := range e.Outputs {
			if o.Inline {
				outs[i] = "inline"
			} else {
				outs[i] = p.formatVC(o.Target)
			}
		}
		return p.FormatExpr(e.Macro) + "(" + p.exprList(e.Inputs) + "):(" + strings.Join(outs, ", ") + ")"
	}
	return "?"
}

func (p *Program) exprList(items []VPExpression) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = p.FormatExpr(item)
	}
	return strings.Join(parts, ", ")
}
