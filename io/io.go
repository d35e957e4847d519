// Package snapio owns the process streams and the terminal facts derived from
// them: whether output is a terminal, how wide it is and which colours it can
// render. It also provides the semantic Logger used across hyphen.
package snapio

import (
	stdio "io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// IOManager centralizes IO and terminal capabilities
type IOManager struct {
	in  stdio.Reader
	out stdio.Writer
	err stdio.Writer

	forceColor bool
	noColor    bool
	level      int // forced colour level, -1 when detected
}

// New returns a manager bound to process stdio
func New() *IOManager {
	return &IOManager{in: os.Stdin, out: os.Stdout, err: os.Stderr, level: -1}
}

// WithIn sets the input reader
func (m *IOManager) WithIn(r stdio.Reader) *IOManager { m.in = r; return m }

// WithOut sets the standard output writer
func (m *IOManager) WithOut(w stdio.Writer) *IOManager { m.out = w; return m }

// WithErr sets the standard error writer
func (m *IOManager) WithErr(w stdio.Writer) *IOManager { m.err = w; return m }

// ForceColor forces color output on, regardless of environment.
func (m *IOManager) ForceColor() *IOManager { m.forceColor = true; m.noColor = false; return m }

// NoColor disables color output, regardless of environment.
func (m *IOManager) NoColor() *IOManager { m.noColor = true; m.forceColor = false; return m }

// ColorAuto uses the terminal and the environment to decide.
func (m *IOManager) ColorAuto() *IOManager { m.noColor = false; m.forceColor = false; return m }

// ForceColorLevel pins the colour level (0=none, 1=16, 2=256, 3=truecolor)
func (m *IOManager) ForceColorLevel(level int) *IOManager { m.level = level; return m }

func (m *IOManager) In() stdio.Reader  { return m.in }
func (m *IOManager) Out() stdio.Writer { return m.out }
func (m *IOManager) Err() stdio.Writer { return m.err }

// IsTTY reports whether the output writer is a terminal
func (m *IOManager) IsTTY() bool { return isTerminal(m.out) }

// IsPiped reports whether input does not come from a terminal
func (m *IOManager) IsPiped() bool { return !isTerminal(m.in) }

// Width returns the output terminal width, then $COLUMNS, then 80
func (m *IOManager) Width() int {
	if fd, ok := fdOf(m.out); ok {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if w := envInt("COLUMNS"); w > 0 {
		return w
	}
	return 80
}

// Height returns the output terminal height, then $LINES, then 24
func (m *IOManager) Height() int {
	if fd, ok := fdOf(m.out); ok {
		if _, h, err := term.GetSize(fd); err == nil && h > 0 {
			return h
		}
	}
	if h := envInt("LINES"); h > 0 {
		return h
	}
	return 24
}

// SupportsColor reports whether ANSI sequences should be written.
// NO_COLOR and FORCE_COLOR are honoured unless overridden in code.
func (m *IOManager) SupportsColor() bool {
	if m.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	if m.forceColor || os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if !m.IsTTY() {
		return false
	}
	t := os.Getenv("TERM")
	return t != "" && t != "dumb"
}

// ColorLevel returns 0 for none, 1 for basic, 2 for 256 colors, and 3 for truecolor.
func (m *IOManager) ColorLevel() int {
	if m.level >= 0 {
		return m.level
	}
	if !m.SupportsColor() {
		return 0
	}
	if ct := os.Getenv("COLORTERM"); ct == "truecolor" || ct == "24bit" {
		return 3
	}
	t := os.Getenv("TERM")
	switch {
	case strings.Contains(t, "truecolor"), strings.Contains(t, "24bit"):
		return 3
	case strings.Contains(t, "256color"):
		return 2
	}
	return 1
}

// Colorize wraps s with the given SGR code when colour is supported
func (m *IOManager) Colorize(s, code string) string {
	if !m.SupportsColor() {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

// Bold returns s in bold when colour is supported
func (m *IOManager) Bold(s string) string { return m.Colorize(s, "1") }

// Faint returns s in faint intensity when colour is supported
func (m *IOManager) Faint(s string) string { return m.Colorize(s, "2") }

// fdOf returns the descriptor behind w when w is an *os.File
func fdOf(v any) (int, bool) {
	f, ok := v.(*os.File)
	if !ok || f == nil {
		return 0, false
	}
	return int(f.Fd()), true //nolint:gosec // descriptors fit in int
}

func isTerminal(v any) bool {
	fd, ok := fdOf(v)
	return ok && term.IsTerminal(fd)
}

func envInt(name string) int {
	n, err := strconv.Atoi(os.Getenv(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
