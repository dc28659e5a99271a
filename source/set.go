package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type file struct {
	name    string
	content string
}

// Set holds every source file known to one compiler. Files are addressed by
// the index returned from Add, which is what Span.File refers to.
type Set struct {
	files []file
	// Paths lists directories searched by Load when a name is not already
	// part of the set.
	Paths []string
}

// NewSet creates an empty source set.
func NewSet() *Set {
	return &Set{}
}

// Add registers a file and returns its index.
func (s *Set) Add(name, content string) int {
	s.files = append(s.files, file{name: name, content: content})
	return len(s.files) - 1
}

// Put replaces the content of the named file, adding it when it is new.
// The index of an existing file does not change.
func (s *Set) Put(name, content string) int {
	if idx := s.Find(name); idx >= 0 {
		s.files[idx].content = content
		return idx
	}
	return s.Add(name, content)
}

// Find returns the index of the named file, or -1.
func (s *Set) Find(name string) int {
	for i, f := range s.files {
		if f.name == name {
			return i
		}
	}
	return -1
}

// Load returns the index of the named file, reading it from disk through
// Paths when it has not been added yet.
func (s *Set) Load(name string) (int, error) {
	if idx := s.Find(name); idx >= 0 {
		return idx, nil
	}
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, dir := range s.Paths {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return s.Add(name, string(data)), nil
		}
		if !os.IsNotExist(err) {
			return -1, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return -1, fmt.Errorf("%s: %w", name, os.ErrNotExist)
}

// Len returns the number of files in the set.
func (s *Set) Len() int {
	return len(s.files)
}

// Name returns the name of file idx.
func (s *Set) Name(idx int) string {
	if idx < 0 || idx >= len(s.files) {
		return "<builtin>"
	}
	return s.files[idx].name
}

// Content returns the text of file idx.
func (s *Set) Content(idx int) string {
	if idx < 0 || idx >= len(s.files) {
		return ""
	}
	return s.files[idx].content
}

// Line returns line n (1-based) of file idx without its newline.
func (s *Set) Line(idx, n int) (string, bool) {
	lines := strings.Split(s.Content(idx), "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// Describe formats the start of span as "file:line:col".
func (s *Set) Describe(span Span) string {
	if span.IsBuiltin() {
		return "<builtin>"
	}
	return fmt.Sprintf("%s:%d:%d", s.Name(span.File), span.Start.Line, span.Start.Column)
}
