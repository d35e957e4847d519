package snapio

import (
	"strconv"
	"strings"
)

// ColorSpec is a color in one of three spaces: basic (16), indexed (256) or truecolor (RGB)
type ColorSpec struct {
	kind    int // 1=basic, 2=indexed, 3=truecolor
	index   int
	r, g, b uint8
}

// Basic colors (0-7 normal, 8-15 bright)
var (
	Black   = basic(0)
	Red     = basic(1)
	Green   = basic(2)
	Yellow  = basic(3)
	Blue    = basic(4)
	Magenta = basic(5)
	Cyan    = basic(6)
	White   = basic(7)

	BrightBlack   = basic(8)
	BrightRed     = basic(9)
	BrightGreen   = basic(10)
	BrightYellow  = basic(11)
	BrightBlue    = basic(12)
	BrightMagenta = basic(13)
	BrightCyan    = basic(14)
	BrightWhite   = basic(15)
)

var (
	LightPurple = Indexed(141)
	Orange      = Indexed(208)
)

var (
	TrueGray          = Truecolor(128, 128, 128)
	TrueBrightRed     = Truecolor(255, 85, 85)
	TrueBrightGreen   = Truecolor(80, 250, 123)
	TrueBrightYellow  = Truecolor(255, 184, 108)
	TrueBrightBlue    = Truecolor(92, 148, 252)
	TrueBrightCyan    = Truecolor(139, 233, 253)
	TrueLightPurple   = Truecolor(189, 147, 249)
	TrueBrightMagenta = Truecolor(255, 0, 255)
)

func basic(i int) ColorSpec { return ColorSpec{kind: 1, index: i} }

// Indexed returns a 256-color palette spec (0-255).
func Indexed(i int) ColorSpec { return ColorSpec{kind: 2, index: i} }

// Truecolor returns a 24-bit RGB color spec.
func Truecolor(r, g, b uint8) ColorSpec { return ColorSpec{kind: 3, r: r, g: g, b: b} }

// Style is a fluent builder for a foreground color and text attributes
type Style struct {
	fg                     *ColorSpec
	bold, faint, underline bool
}

func NewStyle() *Style                 { return &Style{} }
func (s *Style) Fg(c ColorSpec) *Style { s.fg = &c; return s }
func (s *Style) Bold() *Style          { s.bold = true; return s }
func (s *Style) Faint() *Style         { s.faint = true; return s }
func (s *Style) Underline() *Style     { s.underline = true; return s }

// Sprint returns text wrapped in the style when io supports colour
func (s *Style) Sprint(io *IOManager, text string) string {
	if !io.SupportsColor() {
		return text
	}
	seq := s.sgr(io.ColorLevel())
	if seq == "" {
		return text
	}
	return "\x1b[" + seq + "m" + text + "\x1b[0m"
}

func (s *Style) sgr(level int) string {
	var b strings.Builder
	add := func(code string) {
		if code == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(code)
	}
	if s.bold {
		add("1")
	}
	if s.faint {
		add("2")
	}
	if s.underline {
		add("4")
	}
	if s.fg != nil {
		add(colorCode(*s.fg, level))
	}
	return b.String()
}

// colorCode renders a foreground color for the given level. Colors the
// terminal cannot show fall back to the default foreground.
func colorCode(c ColorSpec, level int) string {
	switch c.kind {
	case 1:
		idx := min(max(c.index, 0), 15)
		if idx < 8 {
			return strconv.Itoa(30 + idx)
		}
		return strconv.Itoa(90 + idx - 8)
	case 2:
		if level >= 2 {
			return "38;5;" + strconv.Itoa(c.index)
		}
	case 3:
		if level >= 3 {
			return "38;2;" + strconv.Itoa(int(c.r)) + ";" + strconv.Itoa(int(c.g)) + ";" + strconv.Itoa(int(c.b))
		}
	}
	return ""
}

// Theme provides semantic colors
type Theme struct {
	Primary, Success, Warning, Error, Info, Debug, Muted ColorSpec
}

// DefaultTheme16 uses the basic 16 colors
func DefaultTheme16() Theme {
	return Theme{
		Primary: BrightBlue,
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,
		Debug:   BrightMagenta,
		Muted:   BrightBlack,
	}
}

// DefaultTheme256 uses the 256-color palette where it improves on 16 colors
func DefaultTheme256() Theme {
	t := DefaultTheme16()
	t.Debug = LightPurple
	return t
}

// DefaultThemeTruecolor uses 24-bit colors
func DefaultThemeTruecolor() Theme {
	return Theme{
		Primary: TrueBrightBlue,
		Success: TrueBrightGreen,
		Warning: TrueBrightYellow,
		Error:   TrueBrightRed,
		Info:    TrueBrightCyan,
		Debug:   TrueLightPurple,
		Muted:   TrueGray,
	}
}

// DefaultTheme picks the theme matching the colour level of io
func DefaultTheme(io *IOManager) Theme {
	switch io.ColorLevel() {
	case 3:
		return DefaultThemeTruecolor()
	case 2:
		return DefaultTheme256()
	default:
		return DefaultTheme16()
	}
}
