// Package hyphen is a declarative command-line parser. A Registry holds a
// tree of commands and their options, flags and positional arguments, each
// bound to a field of a caller-owned struct. Parse walks argv once, selects
// the deepest command named on the command line and writes every match
// straight into the bound fields.
package hyphen

import (
	"math"
	"strings"

	"github.com/dzonerzy/go-hyphen/internal/intern"
	"github.com/dzonerzy/go-hyphen/internal/pool"
	snapio "github.com/dzonerzy/go-hyphen/io"
)

// CommandID identifies a registered command
type CommandID int

// OptionID identifies a registered option
type OptionID int

// FlagID identifies a registered flag
type FlagID int

// ArgumentID identifies a registered positional argument
type ArgumentID int

// NoCommand is the parent of a root command
const NoCommand CommandID = -1

// Remaining, used as an argument count, binds the argument to every token
// from its first positional to the end of argv
const Remaining uint64 = math.MaxUint64

const (
	opCmd     = "cmd"
	opOpt     = "opt"
	opFlg     = "flg"
	opArg     = "arg"
	opPad     = "pad"
	opInherit = "inherit"
	opReset   = "reset"
	opParse   = "parse"
	opUsage   = "usage"
	opRoute   = "route"
)

// Limits caps the number of elements a registry can hold
type Limits struct {
	Commands  int
	Options   int
	Flags     int
	Arguments int

	// Per command
	CommandOptions   int
	CommandFlags     int
	CommandArguments int
}

// DefaultLimits returns the stock capacities
func DefaultLimits() Limits {
	return Limits{
		Commands:         24,
		Options:          56,
		Flags:            56,
		Arguments:        32,
		CommandOptions:   24,
		CommandFlags:     24,
		CommandArguments: 16,
	}
}

// Counts reports how many elements of each kind are registered
type Counts struct {
	Commands  int
	Options   int
	Flags     int
	Arguments int
}

type command struct {
	name    string
	help    string
	parent  CommandID
	store   storage
	cursor  uintptr
	inherit bool
	rest    bool // a Remaining argument has been declared
}

type flag struct {
	short      byte
	long       string
	rmin, rmax uint64
	help       string
	owner      CommandID
	bind       binding
}

type option struct {
	flag
	mvar       string
	accumulate bool
}

type argument struct {
	name  string
	cnt   uint64
	help  string
	owner CommandID
	bind  binding
}

// Registry holds a command tree and its bindings. It is not safe for
// concurrent use; registration and parsing must be serialized by the caller.
type Registry struct {
	limits Limits

	cmds *pool.Arena[command]
	opts *pool.Arena[option]
	flgs *pool.Arena[flag]
	args *pool.Arena[argument]

	// per-command element lists, in registration order
	cmdOpts *pool.Table[OptionID]
	cmdFlgs *pool.Table[FlagID]
	cmdArgs *pool.Table[ArgumentID]
	cmdSubs *pool.Table[CommandID]

	names  *intern.Interner
	states *pool.Pool[matchState]
	log    *snapio.Logger
}

// New creates a registry with DefaultLimits
func New() *Registry {
	return NewWithLimits(DefaultLimits())
}

// NewWithLimits creates a registry with the given capacities. Every pool is
// allocated here and never grows afterwards.
func NewWithLimits(l Limits) *Registry {
	r := &Registry{
		limits:  l,
		cmds:    pool.NewArena[command](l.Commands),
		opts:    pool.NewArena[option](l.Options),
		flgs:    pool.NewArena[flag](l.Flags),
		args:    pool.NewArena[argument](l.Arguments),
		cmdOpts: pool.NewTable[OptionID](l.Commands, l.CommandOptions),
		cmdFlgs: pool.NewTable[FlagID](l.Commands, l.CommandFlags),
		cmdArgs: pool.NewTable[ArgumentID](l.Commands, l.CommandArguments),
		cmdSubs: pool.NewTable[CommandID](l.Commands, l.Commands),
		names:   intern.New(l.Commands + l.Options + l.Flags + l.Arguments),
	}
	r.states = pool.NewPoolWithReset(
		func() *matchState { return newMatchState(r.cmds.Cap(), r.opts.Cap(), r.flgs.Cap(), r.args.Cap()) },
		(*matchState).reset,
	)
	return r
}

// WithLogger traces registrations and parse outcomes at debug level
func (r *Registry) WithLogger(l *snapio.Logger) *Registry {
	r.log = l
	return r
}

// Limits returns the capacities the registry was built with
func (r *Registry) Limits() Limits { return r.limits }

// Reset drops every registered element. Storage structs are not touched.
func (r *Registry) Reset() error {
	if r == nil {
		return &Error{Op: opReset, Code: NullArgument}
	}
	r.cmds.Reset()
	r.opts.Reset()
	r.flgs.Reset()
	r.args.Reset()
	r.cmdOpts.Reset()
	r.cmdFlgs.Reset()
	r.cmdArgs.Reset()
	r.cmdSubs.Reset()
	r.names.Reset()
	r.debugf("reset")
	return nil
}

// Cmd registers a command under parent (NoCommand for a root). storage is
// nil or a pointer to the struct its elements will be bound into. Names are
// unique among siblings, and roots count as siblings of each other.
func (r *Registry) Cmd(parent CommandID, name string, storage any, help string) (CommandID, error) {
	if r == nil {
		return NoCommand, &Error{Op: opCmd, Code: NullArgument}
	}
	if !validName(name) {
		return NoCommand, r.fail(opCmd, InvalidName, parent, name)
	}
	if parent == NoCommand && r.root(name) != NoCommand {
		return NoCommand, r.fail(opCmd, InvalidName, parent, name)
	}
	if parent != NoCommand {
		if !r.cmds.Valid(int(parent)) {
			return NoCommand, &Error{Op: opCmd, Code: InvalidParent, Element: name}
		}
		if r.child(parent, name) != NoCommand {
			return NoCommand, r.fail(opCmd, InvalidName, parent, name)
		}
		if r.cmdSubs.Full(int(parent)) {
			return NoCommand, r.fail(opCmd, PoolExhausted, parent, name)
		}
	}
	st, code := newStorage(storage)
	if code != OK {
		return NoCommand, r.fail(opCmd, code, parent, name)
	}

	idx, err := r.cmds.Alloc()
	if err != nil {
		return NoCommand, r.fail(opCmd, PoolExhausted, parent, name)
	}
	id := CommandID(idx)
	*r.cmds.At(idx) = command{
		name:   r.names.Intern(name),
		help:   help,
		parent: parent,
		store:  st,
	}
	if parent != NoCommand {
		_ = r.cmdSubs.Append(int(parent), id)
	}
	r.debugf("cmd %q registered as #%d (storage %d bytes)", name, id, st.size)
	return id, nil
}

// Opt registers an option whose value overwrites a string field on every
// occurrence
func (r *Registry) Opt(cid CommandID, short byte, long, mvar string, rmin, rmax uint64, help string) (OptionID, error) {
	return r.option(cid, short, long, mvar, rmin, rmax, help, false)
}

// OptAccumulate registers an option whose values are appended, in order,
// to a []string field
func (r *Registry) OptAccumulate(cid CommandID, short byte, long, mvar string, rmin, rmax uint64, help string) (OptionID, error) {
	return r.option(cid, short, long, mvar, rmin, rmax, help, true)
}

func (r *Registry) option(cid CommandID, short byte, long, mvar string, rmin, rmax uint64, help string, accumulate bool) (OptionID, error) {
	if err := r.checkSwitch(opOpt, cid, short, long, rmin, rmax); err != nil {
		return -1, err
	}
	if !validName(mvar) {
		return -1, r.fail(opOpt, InvalidName, cid, mvar)
	}
	if r.cmdOpts.Full(int(cid)) || r.opts.Len() == r.opts.Cap() {
		return -1, r.fail(opOpt, PoolExhausted, cid, displayName(short, long))
	}
	c := r.cmds.At(int(cid))
	b, code := c.store.bindOption(c.cursor, accumulate)
	if code != OK {
		return -1, r.fail(opOpt, code, cid, displayName(short, long))
	}

	idx, _ := r.opts.Alloc()
	*r.opts.At(idx) = option{
		flag: flag{
			short: short,
			long:  r.names.Intern(long),
			rmin:  rmin,
			rmax:  rmax,
			help:  help,
			owner: cid,
			bind:  b,
		},
		mvar:       mvar,
		accumulate: accumulate,
	}
	_ = r.cmdOpts.Append(int(cid), OptionID(idx))
	c.cursor += b.width
	r.debugf("opt %s bound at offset %d (%s)", displayName(short, long), b.offset, b.kind)
	return OptionID(idx), nil
}

// Flg registers a flag. The bound field is an integer holding the occurrence
// count or a bool set once the flag is seen.
func (r *Registry) Flg(cid CommandID, short byte, long string, rmin, rmax uint64, help string) (FlagID, error) {
	if err := r.checkSwitch(opFlg, cid, short, long, rmin, rmax); err != nil {
		return -1, err
	}
	if r.cmdFlgs.Full(int(cid)) || r.flgs.Len() == r.flgs.Cap() {
		return -1, r.fail(opFlg, PoolExhausted, cid, displayName(short, long))
	}
	c := r.cmds.At(int(cid))
	b, code := c.store.bindFlag(c.cursor)
	if code != OK {
		return -1, r.fail(opFlg, code, cid, displayName(short, long))
	}

	idx, _ := r.flgs.Alloc()
	*r.flgs.At(idx) = flag{
		short: short,
		long:  r.names.Intern(long),
		rmin:  rmin,
		rmax:  rmax,
		help:  help,
		owner: cid,
		bind:  b,
	}
	_ = r.cmdFlgs.Append(int(cid), FlagID(idx))
	c.cursor += b.width
	r.debugf("flg %s bound at offset %d (%s)", displayName(short, long), b.offset, b.kind)
	return FlagID(idx), nil
}

// Arg registers a positional argument taking cnt tokens, or every remaining
// token when cnt is Remaining. A Remaining argument must be the last one
// declared on its command.
func (r *Registry) Arg(cid CommandID, name string, cnt uint64, help string) (ArgumentID, error) {
	if r == nil {
		return -1, &Error{Op: opArg, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return -1, &Error{Op: opArg, Code: InvalidCommand, Element: name}
	}
	if !validName(name) || r.argument(cid, name) >= 0 {
		return -1, r.fail(opArg, InvalidName, cid, name)
	}
	c := r.cmds.At(int(cid))
	if cnt == 0 || c.rest {
		return -1, r.fail(opArg, InvalidRepeat, cid, name)
	}
	if r.cmdArgs.Full(int(cid)) || r.args.Len() == r.args.Cap() {
		return -1, r.fail(opArg, PoolExhausted, cid, name)
	}
	b, code := c.store.bindArgument(c.cursor, cnt)
	if code != OK {
		return -1, r.fail(opArg, code, cid, name)
	}

	idx, _ := r.args.Alloc()
	*r.args.At(idx) = argument{
		name:  r.names.Intern(name),
		cnt:   cnt,
		help:  help,
		owner: cid,
		bind:  b,
	}
	_ = r.cmdArgs.Append(int(cid), ArgumentID(idx))
	c.cursor += b.width
	c.rest = cnt == Remaining
	r.debugf("arg %s bound at offset %d (%s)", name, b.offset, b.kind)
	return ArgumentID(idx), nil
}

// Pad skips size bytes of the command's storage, leaving them to the caller
func (r *Registry) Pad(cid CommandID, size uintptr) error {
	if r == nil {
		return &Error{Op: opPad, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return &Error{Op: opPad, Code: InvalidCommand}
	}
	c := r.cmds.At(int(cid))
	if size > c.store.size-c.cursor {
		return r.fail(opPad, StorageOverflow, cid, "")
	}
	c.cursor += size
	return nil
}

// Inherit makes the options and flags of every ancestor of cid matchable
// while cid is the selected command. Names declared on cid shadow inherited ones.
func (r *Registry) Inherit(cid CommandID, on bool) error {
	if r == nil {
		return &Error{Op: opInherit, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return &Error{Op: opInherit, Code: InvalidCommand}
	}
	r.cmds.At(int(cid)).inherit = on
	return nil
}

// Describe returns the static description of code
func (r *Registry) Describe(code Code) string {
	return Describe(code)
}

// Name returns the name of cid, or "" if it is not registered
func (r *Registry) Name(cid CommandID) string {
	if !r.cmds.Valid(int(cid)) {
		return ""
	}
	return r.cmds.At(int(cid)).name
}

// Parent returns the parent of cid, NoCommand for roots and unknown IDs
func (r *Registry) Parent(cid CommandID) CommandID {
	if !r.cmds.Valid(int(cid)) {
		return NoCommand
	}
	return r.cmds.At(int(cid)).parent
}

// Path returns the names from the root down to cid, space separated
func (r *Registry) Path(cid CommandID) string {
	if !r.cmds.Valid(int(cid)) {
		return ""
	}
	c := r.cmds.At(int(cid))
	if c.parent == NoCommand {
		return c.name
	}
	return r.Path(c.parent) + " " + c.name
}

// Cursor returns the next storage offset cid will bind
func (r *Registry) Cursor(cid CommandID) uintptr {
	if !r.cmds.Valid(int(cid)) {
		return 0
	}
	return r.cmds.At(int(cid)).cursor
}

// Size returns the size of the storage struct of cid
func (r *Registry) Size(cid CommandID) uintptr {
	if !r.cmds.Valid(int(cid)) {
		return 0
	}
	return r.cmds.At(int(cid)).store.size
}

// Counts returns the number of registered elements of each kind
func (r *Registry) Counts() Counts {
	return Counts{
		Commands:  r.cmds.Len(),
		Options:   r.opts.Len(),
		Flags:     r.flgs.Len(),
		Arguments: r.args.Len(),
	}
}

// checkSwitch runs the validation shared by options and flags
func (r *Registry) checkSwitch(op string, cid CommandID, short byte, long string, rmin, rmax uint64) error {
	if r == nil {
		return &Error{Op: op, Code: NullArgument}
	}
	if !r.cmds.Valid(int(cid)) {
		return &Error{Op: op, Code: InvalidCommand, Element: displayName(short, long)}
	}
	switch {
	case short == 0 && long == "",
		short != 0 && !isAlnum(short),
		long != "" && !validName(long),
		r.taken(cid, short, long):
		return r.fail(op, InvalidName, cid, displayName(short, long))
	case rmin > rmax:
		return r.fail(op, InvalidRepeat, cid, displayName(short, long))
	}
	return nil
}

// taken reports whether short or long is already used by an option or flag of cid
func (r *Registry) taken(cid CommandID, short byte, long string) bool {
	same := func(f *flag) bool {
		return (short != 0 && f.short == short) || (long != "" && f.long == long)
	}
	for _, id := range r.cmdOpts.Row(int(cid)) {
		if same(&r.opts.At(int(id)).flag) {
			return true
		}
	}
	for _, id := range r.cmdFlgs.Row(int(cid)) {
		if same(r.flgs.At(int(id))) {
			return true
		}
	}
	return false
}

// child returns the child of cid called name, or NoCommand
func (r *Registry) child(cid CommandID, name string) CommandID {
	for _, id := range r.cmdSubs.Row(int(cid)) {
		if r.cmds.At(int(id)).name == name {
			return id
		}
	}
	return NoCommand
}

// root returns the root command called name, or NoCommand
func (r *Registry) root(name string) CommandID {
	for i := range r.cmds.Len() {
		if c := r.cmds.At(i); c.parent == NoCommand && c.name == name {
			return CommandID(i)
		}
	}
	return NoCommand
}

// argument returns the argument of cid called name, or -1
func (r *Registry) argument(cid CommandID, name string) ArgumentID {
	for _, id := range r.cmdArgs.Row(int(cid)) {
		if r.args.At(int(id)).name == name {
			return id
		}
	}
	return -1
}

func (r *Registry) fail(op string, code Code, cid CommandID, element string) error {
	err := &Error{Op: op, Code: code, Command: r.Path(cid), Element: element}
	r.debugf("%v", err)
	return err
}

func (r *Registry) debugf(format string, args ...any) {
	if r.log != nil {
		r.log.Debug(format, args...)
	}
}

// validName accepts ASCII letters, digits, '-', '_' and '.', not starting with '-'
func validName(s string) bool {
	if s == "" || s[0] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '-' && c != '_' && c != '.' {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// displayName spells an element the way it is written on the command line
func displayName(short byte, long string) string {
	if long != "" {
		return "--" + long
	}
	if short != 0 {
		return intern.Short(short)
	}
	return ""
}

// joinNames is used for usage lines: "-v, --verbose"
func joinNames(short byte, long string) string {
	var b strings.Builder
	if short != 0 {
		b.WriteString(intern.Short(short))
	}
	if long != "" {
		if short != 0 {
			b.WriteString(", ")
		}
		b.WriteString("--")
		b.WriteString(long)
	}
	return b.String()
}
