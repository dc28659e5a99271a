package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/audiobench/nodespeak"
)

const (
	historyFile = ".nodespeak_history"
	promptMain  = "ns> "
	promptCont  = "... "
	replSource  = "repl.ns"
)

const replHelp = `Statements are added to the program when it still compiles.
Commands:
  :phase <name>  Print a different phase (ast, vague, resolved, trivial, llvmir)
  :show          Print the accumulated source
  :undo          Drop the last statement
  :reset         Start over
  :quit          Exit
`

// session accumulates statements typed at the prompt and recompiles the
// whole program after each one.
type session struct {
	opts  nodespeak.Options
	phase nodespeak.Stage
	lines []string
}

func (s *session) source(extra ...string) string {
	return strings.Join(append(append([]string(nil), s.lines...), extra...), "\n") + "\n"
}

// eval handles one complete entry. It returns the text to print and
// whether the session should end.
func (s *session) eval(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", false
	}
	if strings.HasPrefix(entry, ":") {
		return s.command(entry)
	}

	c := nodespeak.NewCompiler(s.opts)
	c.AddSource(replSource, s.source(entry))
	text, err := c.Dump(replSource, s.phase)
	if err != nil {
		return c.FormatError(err), false
	}
	s.lines = append(s.lines, entry)
	return text, false
}

func (s *session) command(entry string) (string, bool) {
	fields := strings.Fields(entry)
	switch fields[0] {
	case ":quit", ":q":
		return "", true
	case ":help":
		return replHelp, false
	case ":show":
		return s.source(), false
	case ":reset":
		s.lines = nil
		return "", false
	case ":undo":
		if len(s.lines) > 0 {
			s.lines = s.lines[:len(s.lines)-1]
		}
		return "", false
	case ":phase":
		if len(fields) != 2 {
			return "usage: :phase <name>", false
		}
		phase, err := nodespeak.ParseStage(fields[1])
		if err != nil {
			return err.Error(), false
		}
		s.phase = phase
		return "", false
	}
	return fmt.Sprintf("unknown command %s (try :help)", fields[0]), false
}

// incomplete reports whether entry has unclosed braces.
func incomplete(entry string) bool {
	return strings.Count(entry, "{") > strings.Count(entry, "}")
}

func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending entry.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

func runREPL(opts nodespeak.Options, phase nodespeak.Stage, stdout, stderr io.Writer) int {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Fprintf(stderr, "nodespeak %s, printing %s. Type :help for commands.\n", nodespeakVersion, phase)
	s := &session{opts: opts, phase: phase}
	for {
		entry, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(stdout)
			return 0
		}
		if strings.TrimSpace(entry) != "" {
			ln.AppendHistory(entry)
		}
		out, quit := s.eval(entry)
		if out != "" {
			fmt.Fprintln(stdout, strings.TrimRight(out, "\n"))
		}
		if quit {
			return 0
		}
	}
}
