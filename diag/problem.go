// Package diag defines the diagnostics every compiler stage reports to its
// caller.
//
// A Problem names what went wrong through its Kind and points at one or more
// source spans. The first descriptor is always the error itself; any
// following descriptors are hints pointing at related code, such as the
// header of the macro whose arity was violated.
package diag

import (
	"fmt"
	"strings"

	"github.com/audiobench/nodespeak/source"
)

// Severity tells apart the primary error from supporting hints.
type Severity uint8

const (
	Error Severity = iota
	Hint
)

// Descriptor is a single annotated span of a problem.
type Descriptor struct {
	Span     source.Span
	Severity Severity
	Caption  string
}

// Problem is a user-facing compile failure.
type Problem struct {
	Kind        Kind
	Descriptors []Descriptor
}

// Errorf creates a problem whose primary descriptor points at span.
func Errorf(kind Kind, span source.Span, format string, args ...interface{}) *Problem {
	return &Problem{
		Kind: kind,
		Descriptors: []Descriptor{{
			Span:     span,
			Severity: Error,
			Caption:  fmt.Sprintf(format, args...),
		}},
	}
}

// Hintf appends a hint descriptor and returns the problem for chaining.
func (p *Problem) Hintf(span source.Span, format string, args ...interface{}) *Problem {
	p.Descriptors = append(p.Descriptors, Descriptor{
		Span:     span,
		Severity: Hint,
		Caption:  fmt.Sprintf(format, args...),
	})
	return p
}

// Span returns the span of the primary descriptor.
func (p *Problem) Span() source.Span {
	if len(p.Descriptors) == 0 {
		return source.Builtin
	}
	return p.Descriptors[0].Span
}

// Message returns the caption of the primary descriptor.
func (p *Problem) Message() string {
	if len(p.Descriptors) == 0 {
		return string(p.Kind)
	}
	return p.Descriptors[0].Caption
}

// Error implements the error interface.
func (p *Problem) Error() string {
	span := p.Span()
	if span.IsBuiltin() || span.Start.Line == 0 {
		return fmt.Sprintf("%s: %s", p.Kind, p.Message())
	}
	return fmt.Sprintf("%d:%d: %s: %s", span.Start.Line, span.Start.Column, p.Kind, p.Message())
}

// Is matches another problem of the same kind, so callers can write
// errors.Is(err, diag.Of(diag.MismatchedAssign)).
func (p *Problem) Is(target error) bool {
	t, ok := target.(*Problem)
	return ok && t.Kind == p.Kind
}

// Of returns a bare problem of the given kind, for use with errors.Is.
func Of(kind Kind) *Problem {
	return &Problem{Kind: kind}
}

// Format renders every descriptor with the offending line and a caret
// underline. Files are looked up in set; a nil set falls back to Error.
func (p *Problem) Format(set *source.Set) string {
	if set == nil {
		return p.Error()
	}

	var sb strings.Builder
	for i, d := range p.Descriptors {
		if i > 0 {
			sb.WriteString("\n")
		}
		label := "error"
		if d.Severity == Hint {
			label = "hint"
		}
		if i == 0 {
			fmt.Fprintf(&sb, "%s[%s]: %s\n", label, p.Kind, d.Caption)
		} else {
			fmt.Fprintf(&sb, "%s: %s\n", label, d.Caption)
		}
		if d.Span.IsBuiltin() {
			sb.WriteString("  --> <builtin>\n")
			continue
		}
		fmt.Fprintf(&sb, "  --> %s\n", set.Describe(d.Span))
		line, ok := set.Line(d.Span.File, d.Span.Start.Line)
		if !ok {
			continue
		}
		col := d.Span.Start.Column
		if col < 1 {
			col = 1
		}
		if col > len(line)+1 {
			col = len(line) + 1
		}
		width := 1
		if d.Span.End.Line == d.Span.Start.Line && d.Span.End.Column > col {
			width = d.Span.End.Column - col
		}
		if col-1+width > len(line) && len(line) >= col {
			width = len(line) - col + 1
		}
		sb.WriteString("   |\n")
		fmt.Fprintf(&sb, "%3d| %s\n", d.Span.Start.Line, line)
		fmt.Fprintf(&sb, "   | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	}
	return sb.String()
}
