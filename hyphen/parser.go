package hyphen

import (
	"iter"
	"strings"
	"unsafe"

	"github.com/dzonerzy/go-hyphen/internal/fuzzy"
	"github.com/dzonerzy/go-hyphen/internal/intern"
	snapio "github.com/dzonerzy/go-hyphen/io"
)

// matchState is the scratch space of one Parse call. It is sized from the
// registry capacities once and recycled through a pool, so parsing does not
// allocate.
type matchState struct {
	flags []uint64 // occurrences by FlagID
	opts  []uint64 // occurrences by OptionID
	args  []uint64 // tokens taken by ArgumentID

	scope []CommandID // selected command first, then inherited ancestors
	argv  []string
	pos   int
	cmd   CommandID
	next  int  // index of the argument being filled, in the command's list
	raw   bool // "--" seen
}

func newMatchState(commands, options, flags, arguments int) *matchState {
	return &matchState{
		flags: make([]uint64, flags),
		opts:  make([]uint64, options),
		args:  make([]uint64, arguments),
		scope: make([]CommandID, 0, commands),
	}
}

// reset prepares a recycled state for a new parse without allocations
func (st *matchState) reset() {
	clear(st.flags)
	clear(st.opts)
	clear(st.args)
	st.scope = st.scope[:0]
	st.argv = nil
	st.pos = 0
	st.cmd = NoCommand
	st.next = 0
	st.raw = false
}

// Parse matches argv against the tree rooted at root and writes every match
// into the bound storage. argv[0] is the program name and is skipped.
//
// Every field bound by the selected command, its ancestors up to root and
// any command it inherits from is zeroed before matching. Storage of other
// commands is left untouched.
//
// On success it returns the deepest command named on the command line. On
// failure it returns the command that was selected when matching stopped,
// and the contents of its storage are undefined.
func (r *Registry) Parse(root CommandID, argv []string) (CommandID, error) {
	if r == nil {
		return NoCommand, &Error{Op: opParse, Code: NullArgument}
	}
	if !r.cmds.Valid(int(root)) {
		return NoCommand, &Error{Op: opParse, Code: InvalidCommand}
	}

	st := r.states.Get()
	defer r.states.Put(st)
	st.argv = argv

	err := r.match(st, root)
	cid := st.cmd
	st.argv = nil
	if err != nil {
		r.debugf("%v", err)
		return cid, err
	}
	if r.log != nil && r.log.Enabled(snapio.LevelDebug) {
		r.debugf("parse: selected %q", r.Path(cid))
	}
	return cid, nil
}

// match runs the whole state machine: command descent, token scan and the
// final occurrence checks
func (r *Registry) match(st *matchState, root CommandID) error {
	argv := st.argv
	pos := min(1, len(argv))

	cid := root
	for pos < len(argv) {
		tok := argv[pos]
		if strings.HasPrefix(tok, "-") {
			break
		}
		next := r.child(cid, tok)
		if next == NoCommand {
			break
		}
		cid = next
		pos++
	}
	st.cmd = cid
	r.enter(st, root)

	for st.pos = pos; st.pos < len(argv); st.pos++ {
		tok := argv[st.pos]

		var err error
		switch {
		case st.raw:
			err = r.positional(st, tok)
		case tok == "--":
			st.raw = true
		case len(tok) > 2 && tok[0] == '-' && tok[1] == '-':
			err = r.long(st, tok)
		case len(tok) > 1 && tok[0] == '-':
			err = r.short(st, tok)
		default:
			err = r.positional(st, tok)
		}
		if err != nil {
			return err
		}
	}

	return r.validate(st)
}

// enter computes the scope of the selected command and zeroes every field
// bound on the path to root, and on every inherited command, so that parses
// never see leftovers of a previous one
func (r *Registry) enter(st *matchState, root CommandID) {
	c := r.cmds.At(int(st.cmd))
	st.scope = append(st.scope, st.cmd)
	if c.inherit {
		for p := c.parent; p != NoCommand; p = r.cmds.At(int(p)).parent {
			st.scope = append(st.scope, p)
		}
	}

	for cid := st.cmd; cid != NoCommand; cid = r.cmds.At(int(cid)).parent {
		r.zero(cid)
		if cid == root && !c.inherit {
			break
		}
	}
}

// zero clears every binding owned by cid
func (r *Registry) zero(cid CommandID) {
	base := r.base(cid)
	for _, id := range r.cmdOpts.Row(int(cid)) {
		r.opts.At(int(id)).bind.zero(base)
	}
	for _, id := range r.cmdFlgs.Row(int(cid)) {
		r.flgs.At(int(id)).bind.zero(base)
	}
	for _, id := range r.cmdArgs.Row(int(cid)) {
		r.args.At(int(id)).bind.zero(base)
	}
}

// long handles "--name" and "--name=value"
func (r *Registry) long(st *matchState, tok string) error {
	name, value, inline := strings.Cut(tok[2:], "=")

	oid, fid := r.findLong(st, name)
	switch {
	case oid >= 0:
		return r.takeOption(st, oid, tok, value, inline)
	case fid >= 0 && !inline:
		return r.hitFlag(st, fid, tok)
	case fid >= 0:
		return r.parseError(st, UnknownToken, "--"+name, tok, "")
	}
	return r.parseError(st, UnknownToken, "--"+name, tok, r.suggestLong(st, name))
}

// short handles a cluster of one or more short names after a single dash.
// Flags may appear anywhere in the cluster; an option must come last and
// takes the next token as its value.
func (r *Registry) short(st *matchState, tok string) error {
	cluster := tok[1:]
	for i := 0; i < len(cluster); i++ {
		oid, fid := r.findShort(st, cluster[i])
		switch {
		case oid >= 0:
			if i != len(cluster)-1 {
				return r.parseError(st, AmbiguousCluster, intern.Short(cluster[i]), tok, "")
			}
			return r.takeOption(st, oid, tok, "", false)
		case fid >= 0:
			if err := r.hitFlag(st, fid, tok); err != nil {
				return err
			}
		default:
			return r.parseError(st, UnknownToken, intern.Short(cluster[i]), tok, "")
		}
	}
	return nil
}

// positional fills the next argument of the selected command. A Remaining
// argument takes the current token and everything after it.
func (r *Registry) positional(st *matchState, tok string) error {
	ids := r.cmdArgs.Row(int(st.cmd))
	base := r.base(st.cmd)
	for ; st.next < len(ids); st.next++ {
		id := ids[st.next]
		a := r.args.At(int(id))
		if a.cnt == Remaining {
			rest := st.argv[st.pos:len(st.argv):len(st.argv)]
			a.bind.putAll(base, rest)
			st.args[id] = uint64(len(rest))
			st.pos = len(st.argv)
			return nil
		}
		if n := st.args[id]; n < a.cnt {
			a.bind.putAt(base, int(n), tok)
			st.args[id] = n + 1
			return nil
		}
	}
	return r.parseError(st, UnknownToken, "", tok, r.suggestCommand(st, tok))
}

func (r *Registry) takeOption(st *matchState, oid OptionID, tok, value string, inline bool) error {
	o := r.opts.At(int(oid))
	if !inline {
		if st.pos+1 >= len(st.argv) {
			return r.parseError(st, MissingValue, displayName(o.short, o.long), tok, "")
		}
		st.pos++
		value = st.argv[st.pos]
	}
	n := st.opts[oid] + 1
	if n > o.rmax {
		return r.parseError(st, TooManyOccurrences, displayName(o.short, o.long), tok, "")
	}
	st.opts[oid] = n
	o.bind.put(r.base(o.owner), value)
	return nil
}

func (r *Registry) hitFlag(st *matchState, fid FlagID, tok string) error {
	f := r.flgs.At(int(fid))
	n := st.flags[fid] + 1
	if n > f.rmax {
		return r.parseError(st, TooManyOccurrences, displayName(f.short, f.long), tok, "")
	}
	st.flags[fid] = n
	f.bind.count(r.base(f.owner), n)
	return nil
}

// validate checks the lower bounds once every token is consumed. Upper
// bounds are enforced while matching. Inherited elements whose names are
// all shadowed cannot be matched and are not checked.
func (r *Registry) validate(st *matchState) error {
	for _, cid := range st.scope {
		for _, id := range r.cmdOpts.Row(int(cid)) {
			o := r.opts.At(int(id))
			if st.opts[id] >= o.rmin {
				continue
			}
			if short, long := r.reach(st.scope, &o.flag); short != 0 || long != "" {
				return r.parseError(st, RepeatOutOfRange, displayName(short, long), "", "")
			}
		}
		for _, id := range r.cmdFlgs.Row(int(cid)) {
			f := r.flgs.At(int(id))
			if st.flags[id] >= f.rmin {
				continue
			}
			if short, long := r.reach(st.scope, f); short != 0 || long != "" {
				return r.parseError(st, RepeatOutOfRange, displayName(short, long), "", "")
			}
		}
	}
	for _, id := range r.cmdArgs.Row(int(st.cmd)) {
		a := r.args.At(int(id))
		if a.cnt != Remaining && st.args[id] != a.cnt {
			return r.parseError(st, RepeatOutOfRange, a.name, "", "")
		}
	}
	return nil
}

// reach returns the names f can be matched by from scope. A name also
// declared by a command nearer the selected one is shadowed and comes back
// empty.
func (r *Registry) reach(scope []CommandID, f *flag) (byte, string) {
	short, long := f.short, f.long
	for _, cid := range scope {
		if cid == f.owner {
			break
		}
		if short != 0 && r.taken(cid, short, "") {
			short = 0
		}
		if long != "" && r.taken(cid, 0, long) {
			long = ""
		}
	}
	return short, long
}

// findLong resolves a long name against the scope, selected command first
func (r *Registry) findLong(st *matchState, name string) (OptionID, FlagID) {
	if name == "" {
		return -1, -1
	}
	for _, cid := range st.scope {
		for _, id := range r.cmdOpts.Row(int(cid)) {
			if r.opts.At(int(id)).long == name {
				return id, -1
			}
		}
		for _, id := range r.cmdFlgs.Row(int(cid)) {
			if r.flgs.At(int(id)).long == name {
				return -1, id
			}
		}
	}
	return -1, -1
}

// findShort resolves a short name against the scope, selected command first
func (r *Registry) findShort(st *matchState, c byte) (OptionID, FlagID) {
	if c == 0 {
		return -1, -1
	}
	for _, cid := range st.scope {
		for _, id := range r.cmdOpts.Row(int(cid)) {
			if r.opts.At(int(id)).short == c {
				return id, -1
			}
		}
		for _, id := range r.cmdFlgs.Row(int(cid)) {
			if r.flgs.At(int(id)).short == c {
				return -1, id
			}
		}
	}
	return -1, -1
}

func (r *Registry) base(cid CommandID) unsafe.Pointer {
	return r.cmds.At(int(cid)).store.base
}

func (r *Registry) parseError(st *matchState, code Code, element, tok, suggestion string) error {
	return &Error{
		Op:         opParse,
		Code:       code,
		Command:    r.Path(st.cmd),
		Element:    element,
		Token:      tok,
		Suggestion: suggestion,
	}
}

// suggestLong offers the closest long name in scope for an unknown one
func (r *Registry) suggestLong(st *matchState, name string) string {
	best := fuzzy.NewMatcher(fuzzy.DefaultDistance).Best(name, r.longNames(st))
	if best == "" {
		return ""
	}
	return "--" + best
}

// suggestCommand offers the closest subcommand for a stray positional
func (r *Registry) suggestCommand(st *matchState, tok string) string {
	return fuzzy.NewMatcher(fuzzy.DefaultDistance).Best(tok, r.childNames(st.cmd))
}

func (r *Registry) longNames(st *matchState) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, cid := range st.scope {
			for _, id := range r.cmdOpts.Row(int(cid)) {
				if l := r.opts.At(int(id)).long; l != "" && !yield(l) {
					return
				}
			}
			for _, id := range r.cmdFlgs.Row(int(cid)) {
				if l := r.flgs.At(int(id)).long; l != "" && !yield(l) {
					return
				}
			}
		}
	}
}

func (r *Registry) childNames(cid CommandID) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range r.cmdSubs.Row(int(cid)) {
			if !yield(r.cmds.At(int(id)).name) {
				return
			}
		}
	}
}
