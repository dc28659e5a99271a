// Package source tracks the files a compilation reads and the spans that
// point into them.
package source

import "fmt"

// Position is a location in a source file.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Before reports whether p comes before q in the same file.
func (p Position) Before(q Position) bool {
	return p.Offset < q.Offset
}

// Span is a range of source text in one file of a Set.
type Span struct {
	File  int
	Start Position
	End   Position
}

// Builtin is the span of things that have no written source, such as the
// builtin scope.
var Builtin = Span{File: -1}

// IsBuiltin reports whether the span refers to compiler-provided code.
func (s Span) IsBuiltin() bool {
	return s.File < 0
}

// Union returns the smallest span covering both s and other. Spans in
// different files cannot be joined; the receiver wins.
func (s Span) Union(other Span) Span {
	if s.File != other.File {
		return s
	}
	out := s
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if out.End.Before(other.End) {
		out.End = other.End
	}
	return out
}

// String returns "line:col" for the start of the span.
func (s Span) String() string {
	if s.IsBuiltin() {
		return "<builtin>"
	}
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}
