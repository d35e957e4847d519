package hyphen

import (
	"context"
	"errors"
	"fmt"
	"os"

	snapio "github.com/dzonerzy/go-hyphen/io"
	"github.com/dzonerzy/go-hyphen/middleware"
)

// ErrNoHandler is returned by Run when the selected command has no handler
var ErrNoHandler = errors.New("hyphen: no handler for command")

type route struct {
	handler middleware.Handler
	chain   middleware.MiddlewareChain
}

// invocation is the middleware.Invocation passed to routed handlers
type invocation struct {
	cmd  CommandID
	path string
	argv []string
}

func (i *invocation) Command() string { return i.path }
func (i *invocation) Args() []string  { return i.argv }

// CommandOf returns the command a routed handler was invoked for, or
// NoCommand when inv was not created by a Router
func CommandOf(inv middleware.Invocation) CommandID {
	if i, ok := inv.(*invocation); ok {
		return i.cmd
	}
	return NoCommand
}

// Router dispatches the command selected by Parse to its handler
type Router struct {
	reg       *Registry
	routes    map[CommandID]route
	chain     middleware.MiddlewareChain
	io        *snapio.IOManager
	exitCodes *ExitCodeManager
}

// NewRouter creates a router over reg. Parse errors are reported on the
// error stream of a default IOManager; see WithIO.
func NewRouter(reg *Registry) *Router {
	return &Router{
		reg:       reg,
		routes:    make(map[CommandID]route),
		io:        snapio.New(),
		exitCodes: NewExitCodeManager(),
	}
}

// WithIO sets where parse errors and usage are written. nil silences them.
func (rt *Router) WithIO(iom *snapio.IOManager) *Router {
	rt.io = iom
	return rt
}

// Use adds middleware applied to every handler, outermost first
func (rt *Router) Use(mw ...middleware.Middleware) *Router {
	rt.chain = rt.chain.Use(mw...)
	return rt
}

// Handle routes cid to h. mw wraps h inside the router-wide middleware.
func (rt *Router) Handle(cid CommandID, h middleware.Handler, mw ...middleware.Middleware) error {
	if rt == nil || rt.reg == nil || h == nil {
		return &Error{Op: opRoute, Code: NullArgument}
	}
	if !rt.reg.cmds.Valid(int(cid)) {
		return &Error{Op: opRoute, Code: InvalidCommand}
	}
	rt.routes[cid] = route{handler: h, chain: middleware.Chain(mw...)}
	return nil
}

// ExitCodes returns the exit-code manager used by RunAndGetExitCode
func (rt *Router) ExitCodes() *ExitCodeManager { return rt.exitCodes }

// Run parses argv against root and runs the handler of the selected command.
// Parse errors are printed with the usage of the command that was selected
// when matching stopped, and returned. A failure to print them is joined to
// the parse error.
func (rt *Router) Run(ctx context.Context, root CommandID, argv []string) error {
	if rt == nil || rt.reg == nil {
		return &Error{Op: opRoute, Code: NullArgument}
	}
	cid, err := rt.reg.Parse(root, argv)
	if err != nil {
		if werr := rt.report(cid, err); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	rte, ok := rt.routes[cid]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoHandler, rt.reg.Path(cid))
	}

	h := rt.chain.Apply(rte.chain.Apply(rte.handler))
	return h(ctx, &invocation{cmd: cid, path: rt.reg.Path(cid), argv: argv})
}

// RunAndGetExitCode runs argv and maps the outcome through ExitCodes
func (rt *Router) RunAndGetExitCode(ctx context.Context, root CommandID, argv []string) int {
	return rt.exitCodes.Resolve(rt.Run(ctx, root, argv))
}

// RunAndExit runs os.Args and terminates the process with the mapped exit code
func (rt *Router) RunAndExit(root CommandID) {
	os.Exit(rt.RunAndGetExitCode(context.Background(), root, os.Args))
}

// report prints err and, for command-line errors, the usage of cid. It
// returns the first write error.
func (rt *Router) report(cid CommandID, err error) error {
	if rt.io == nil {
		return nil
	}
	theme := snapio.DefaultTheme(rt.io)
	w := rt.io.Err()
	if _, werr := fmt.Fprintln(w, snapio.NewStyle().Fg(theme.Error).Sprint(rt.io, "Error: "+err.Error())); werr != nil {
		return werr
	}
	if !CodeOf(err).Usage() || !rt.reg.cmds.Valid(int(cid)) {
		return nil
	}
	if _, werr := fmt.Fprintln(w); werr != nil {
		return werr
	}
	return rt.reg.Usage(w, cid)
}
