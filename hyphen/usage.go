package hyphen

import (
	"io"
	"strings"

	snapio "github.com/dzonerzy/go-hyphen/io"
)

// paint decorates a piece of usage text. plain is the identity.
type paint struct {
	heading func(string) string
	label   func(string) string
	note    func(string) string
}

func plain(s string) string { return s }

var plainPaint = paint{heading: plain, label: plain, note: plain}

type usageRow struct {
	label string
	help  string
	marks []string
}

// Usage writes the usage text of cid to w without colours
func (r *Registry) Usage(w io.Writer, cid CommandID) error {
	if r == nil {
		return &Error{Op: opUsage, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return &Error{Op: opUsage, Code: InvalidCommand}
	}
	_, err := io.WriteString(w, r.usage(cid, plainPaint))
	return err
}

// PrintUsage writes the usage text of cid to the output of iom, coloured
// with the default theme when the terminal supports it
func (r *Registry) PrintUsage(iom *snapio.IOManager, cid CommandID) error {
	if r == nil || iom == nil {
		return &Error{Op: opUsage, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return &Error{Op: opUsage, Code: InvalidCommand}
	}
	theme := snapio.DefaultTheme(iom)
	p := paint{
		heading: func(s string) string { return snapio.NewStyle().Bold().Sprint(iom, s) },
		label:   func(s string) string { return snapio.NewStyle().Fg(theme.Primary).Sprint(iom, s) },
		note:    func(s string) string { return snapio.NewStyle().Fg(theme.Muted).Sprint(iom, s) },
	}
	_, err := io.WriteString(iom.Out(), r.usage(cid, p))
	return err
}

func (r *Registry) usage(cid CommandID, p paint) string {
	c := r.cmds.At(int(cid))
	scope := r.scopeOf(cid)

	var args, opts, flgs, subs []usageRow
	for _, id := range r.cmdArgs.Row(int(cid)) {
		a := r.args.At(int(id))
		args = append(args, usageRow{label: argLabel(a), help: a.help})
	}
	for _, owner := range scope {
		for _, id := range r.cmdOpts.Row(int(owner)) {
			o := r.opts.At(int(id))
			short, long := r.reach(scope, &o.flag)
			if short == 0 && long == "" {
				continue
			}
			opts = append(opts, usageRow{
				label: joinNames(short, long) + " " + o.mvar,
				help:  o.help,
				marks: marks(o.rmin, o.rmax),
			})
		}
		for _, id := range r.cmdFlgs.Row(int(owner)) {
			f := r.flgs.At(int(id))
			short, long := r.reach(scope, f)
			if short == 0 && long == "" {
				continue
			}
			flgs = append(flgs, usageRow{
				label: joinNames(short, long),
				help:  f.help,
				marks: marks(f.rmin, f.rmax),
			})
		}
	}
	for _, id := range r.cmdSubs.Row(int(cid)) {
		s := r.cmds.At(int(id))
		subs = append(subs, usageRow{label: s.name, help: s.help})
	}

	var b strings.Builder
	b.WriteString(p.heading("Usage:"))
	b.WriteString("\n  ")
	b.WriteString(r.Path(cid))
	if len(opts) > 0 {
		b.WriteString(" [OPTIONS]")
	}
	if len(flgs) > 0 {
		b.WriteString(" [FLAGS]")
	}
	if len(subs) > 0 {
		b.WriteString(" COMMAND")
	}
	for _, row := range args {
		b.WriteString(" ")
		b.WriteString(row.label)
	}
	b.WriteString("\n")

	if c.help != "" {
		b.WriteString("\n")
		b.WriteString(c.help)
		b.WriteString("\n")
	}

	width := 0
	for _, rows := range [][]usageRow{args, opts, flgs, subs} {
		for _, row := range rows {
			width = max(width, len(row.label))
		}
	}
	section(&b, p, "Arguments:", args, width)
	section(&b, p, "Options:", opts, width)
	section(&b, p, "Flags:", flgs, width)
	section(&b, p, "Commands:", subs, width)
	return b.String()
}

func section(b *strings.Builder, p paint, title string, rows []usageRow, width int) {
	if len(rows) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(p.heading(title))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("  ")
		b.WriteString(p.label(row.label))
		line := row.help
		if len(row.marks) > 0 {
			if line != "" {
				line += " "
			}
			line += p.note("(" + strings.Join(row.marks, ", ") + ")")
		}
		if line != "" {
			b.WriteString(strings.Repeat(" ", width-len(row.label)+3))
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
}

// scopeOf returns cid followed by its ancestors when it inherits from them
func (r *Registry) scopeOf(cid CommandID) []CommandID {
	scope := []CommandID{cid}
	c := r.cmds.At(int(cid))
	if c.inherit {
		for p := c.parent; p != NoCommand; p = r.cmds.At(int(p)).parent {
			scope = append(scope, p)
		}
	}
	return scope
}

func argLabel(a *argument) string {
	name := strings.ToUpper(a.name)
	if a.cnt == Remaining {
		return name + "..."
	}
	if a.cnt == 1 {
		return name
	}
	return strings.TrimSuffix(strings.Repeat(name+" ", int(a.cnt)), " ")
}

func marks(rmin, rmax uint64) []string {
	var m []string
	if rmin > 0 {
		m = append(m, "required")
	}
	if rmax > 1 {
		m = append(m, "repeatable")
	}
	return m
}
