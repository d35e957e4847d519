//nolint:testpackage // using package name 'hyphen' to access unexported fields for testing
package hyphen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func must(t *testing.T, err error) {
	t.Helper()
	require.NoError(t, err)
}

func mustCmd(t *testing.T, r *Registry, parent CommandID, name string, storage any) CommandID {
	t.Helper()
	cid, err := r.Cmd(parent, name, storage, "")
	must(t, err)
	return cid
}

func expectCode(t *testing.T, err error, code Code) *Error {
	t.Helper()
	require.ErrorIs(t, err, code)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	return herr
}

func TestParseShortFlagCounter(t *testing.T) {
	var s struct {
		Debug   bool
		_       [7]byte
		Verbose uint64
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'd', "debug", 0, 1, "")
	must(t, err)
	must(t, r.Pad(root, 7))
	_, err = r.Flg(root, 'v', "", 0, 1, "")
	must(t, err)

	cid, err := r.Parse(root, []string{"prog", "-v"})
	must(t, err)
	assert.Equal(t, root, cid)
	assert.Equal(t, uint64(1), s.Verbose)
	assert.False(t, s.Debug)
}

func TestParseLongOnlyFlag(t *testing.T) {
	var s struct {
		Verbose uint32
		Color   bool
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 0, "verbose", 0, 1, "")
	must(t, err)
	_, err = r.Flg(root, 0, "color", 0, 1, "")
	must(t, err)

	_, err = r.Parse(root, []string{"prog", "--verbose", "--color"})
	must(t, err)
	assert.Equal(t, uint32(1), s.Verbose)
	assert.True(t, s.Color)
}

func TestParseSelectsSubcommand(t *testing.T) {
	var rootStore struct{ Verbose uint8 }
	var subStore struct {
		Force uint8
		_     [7]byte
		Out   string
		Files []string
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &rootStore)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", &subStore)
	_, err = r.Flg(sub, 'f', "force", 0, 1, "")
	must(t, err)
	must(t, r.Pad(sub, 7))
	_, err = r.Opt(sub, 'o', "out", "FILE", 0, 1, "")
	must(t, err)
	_, err = r.Arg(sub, "files", Remaining, "")
	must(t, err)

	subStore.Force = 9
	subStore.Out = "stale"
	subStore.Files = []string{"stale"}

	cid, err := r.Parse(root, []string{"prog", "sub"})
	must(t, err)
	require.Equal(t, sub, cid, "selected %q", r.Path(cid))
	assert.Zero(t, subStore.Force)
	assert.Empty(t, subStore.Out)
	assert.Nil(t, subStore.Files)
}

func TestParseClearsAncestorsOfSelectedCommand(t *testing.T) {
	var rootStore struct{ Verbose bool }
	var subStore struct{ Force bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "app", &rootStore)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", &subStore)
	_, err = r.Flg(sub, 'f', "force", 0, 1, "")
	must(t, err)

	_, err = r.Parse(root, []string{"app", "-v"})
	must(t, err)
	require.True(t, rootStore.Verbose)

	cid, err := r.Parse(root, []string{"app", "sub"})
	must(t, err)
	assert.Equal(t, sub, cid)
	assert.False(t, rootStore.Verbose, "root storage kept a value from the previous parse")
}

func TestParseLeavesStorageAboveRootUntouched(t *testing.T) {
	var rootStore struct{ Verbose bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "app", &rootStore)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", nil)

	rootStore.Verbose = true
	_, err = r.Parse(sub, []string{"sub"})
	must(t, err)
	assert.True(t, rootStore.Verbose)
}

func TestParseDescendsNestedCommands(t *testing.T) {
	var s struct{ Name, URL string }
	r := New()
	root := mustCmd(t, r, NoCommand, "git", nil)
	remote := mustCmd(t, r, root, "remote", nil)
	add := mustCmd(t, r, remote, "add", &s)
	_, err := r.Arg(add, "name", 1, "")
	must(t, err)
	_, err = r.Arg(add, "url", 1, "")
	must(t, err)

	cid, err := r.Parse(root, []string{"git", "remote", "add", "origin", "git@host:repo"})
	must(t, err)
	require.Equal(t, add, cid, "selected %q", r.Path(cid))
	assert.Equal(t, "origin", s.Name)
	assert.Equal(t, "git@host:repo", s.URL)

	cid, err = r.Parse(root, []string{"git", "remote"})
	must(t, err)
	assert.Equal(t, remote, cid)
}

func TestParseMissingValue(t *testing.T) {
	var s struct{ Path string }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Opt(root, 'p', "path", "PATH", 0, 1, "")
	must(t, err)

	cid, err := r.Parse(root, []string{"prog", "--path"})
	herr := expectCode(t, err, MissingValue)
	assert.Equal(t, root, cid)
	assert.Equal(t, "--path", herr.Element)
	assert.Equal(t, "--path", herr.Token)
	assert.Equal(t, opParse, herr.Op)

	_, err = r.Parse(root, []string{"prog", "-p"})
	expectCode(t, err, MissingValue)
}

func TestParseOptionValues(t *testing.T) {
	var s struct {
		Out     string
		Include []string
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Opt(root, 'o', "out", "FILE", 0, 3, "")
	must(t, err)
	_, err = r.OptAccumulate(root, 'I', "include", "DIR", 0, 4, "")
	must(t, err)

	argv := []string{"prog", "-o", "a", "--out", "b", "--out=c", "-I", "x", "--include=y", "--include", "-z"}
	_, err = r.Parse(root, argv)
	must(t, err)
	assert.Equal(t, "c", s.Out, "last value wins")
	assert.Equal(t, []string{"x", "y", "-z"}, s.Include)

	_, err = r.Parse(root, []string{"prog", "--out="})
	must(t, err)
	assert.Empty(t, s.Out)
	assert.Nil(t, s.Include)
}

func TestParseFlagRejectsInlineValue(t *testing.T) {
	var s struct{ Verbose bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)

	_, err = r.Parse(root, []string{"prog", "--verbose=true"})
	herr := expectCode(t, err, UnknownToken)
	assert.Equal(t, "--verbose", herr.Element)
	assert.Equal(t, "--verbose=true", herr.Token)
}

func TestParseFlagRepeatBounds(t *testing.T) {
	var s struct{ Verbose int }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "verbose", 1, 3, "")
	must(t, err)

	for k := 1; k <= 3; k++ {
		argv := []string{"prog"}
		for range k {
			argv = append(argv, "-v")
		}
		_, err := r.Parse(root, argv)
		must(t, err)
		assert.Equal(t, k, s.Verbose)
	}

	_, err = r.Parse(root, []string{"prog", "-v", "--verbose", "-vv"})
	expectCode(t, err, TooManyOccurrences)

	_, err = r.Parse(root, []string{"prog"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "--verbose", herr.Element)
}

func TestParseOptionRepeatBounds(t *testing.T) {
	var s struct{ Mode string }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Opt(root, 'm', "", "MODE", 2, 2, "")
	must(t, err)

	_, err = r.Parse(root, []string{"prog", "-m", "a", "-m", "b"})
	must(t, err)
	assert.Equal(t, "b", s.Mode)

	_, err = r.Parse(root, []string{"prog", "-m", "a"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "-m", herr.Element)

	_, err = r.Parse(root, []string{"prog", "-m", "a", "-m", "b", "-m", "c"})
	expectCode(t, err, TooManyOccurrences)
}

func TestParseCounterSaturates(t *testing.T) {
	var s struct {
		Small uint8
		Neg   int8
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'a', "", 0, 1000, "")
	must(t, err)
	_, err = r.Flg(root, 'b', "", 0, 1000, "")
	must(t, err)

	argv := []string{"prog"}
	for range 300 {
		argv = append(argv, "-ab")
	}
	_, err = r.Parse(root, argv)
	must(t, err)
	assert.Equal(t, uint8(255), s.Small)
	assert.Equal(t, int8(127), s.Neg)
}

type clusterStore struct {
	A, B uint8
	_    [6]byte
	O    string
}

func clusterRegistry(t *testing.T, s *clusterStore) (*Registry, CommandID) {
	t.Helper()
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", s)
	_, err := r.Flg(root, 'a', "", 0, 4, "")
	must(t, err)
	_, err = r.Flg(root, 'b', "", 0, 4, "")
	must(t, err)
	must(t, r.Pad(root, 6))
	_, err = r.Opt(root, 'o', "", "VAL", 0, 1, "")
	must(t, err)
	return r, root
}

func TestParseClusterEquivalence(t *testing.T) {
	cases := [][2][]string{
		{{"prog", "-ab"}, {"prog", "-a", "-b"}},
		{{"prog", "-aab"}, {"prog", "-a", "-a", "-b"}},
		{{"prog", "-bao", "x"}, {"prog", "-b", "-a", "-o", "x"}},
	}
	for _, c := range cases {
		var clustered, separate clusterStore
		r1, root1 := clusterRegistry(t, &clustered)
		r2, root2 := clusterRegistry(t, &separate)

		_, err := r1.Parse(root1, c[0])
		must(t, err)
		_, err = r2.Parse(root2, c[1])
		must(t, err)
		assert.Equal(t, separate, clustered, "%q vs %q", c[0], c[1])
	}
}

func TestParseClusterOptionMustBeLast(t *testing.T) {
	var s clusterStore
	r, root := clusterRegistry(t, &s)

	_, err := r.Parse(root, []string{"prog", "-oa", "x"})
	herr := expectCode(t, err, AmbiguousCluster)
	assert.Equal(t, "-o", herr.Element)
	assert.Equal(t, "-oa", herr.Token)

	_, err = r.Parse(root, []string{"prog", "-axb"})
	herr = expectCode(t, err, UnknownToken)
	assert.Equal(t, "-x", herr.Element)
}

func TestParseDoubleDash(t *testing.T) {
	var s struct {
		Verbose bool
		_       [7]byte
		File    string
		Rest    []string
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)
	must(t, r.Pad(root, 7))
	_, err = r.Arg(root, "file", 1, "")
	must(t, err)
	_, err = r.Arg(root, "rest", Remaining, "")
	must(t, err)

	_, err = r.Parse(root, []string{"prog", "--", "-v", "--verbose", "--", "x"})
	must(t, err)
	assert.False(t, s.Verbose, "flag matched after --")
	assert.Equal(t, "-v", s.File)
	assert.Equal(t, []string{"--verbose", "--", "x"}, s.Rest)

	_, err = r.Parse(root, []string{"prog", "-v", "--", "f"})
	must(t, err)
	assert.True(t, s.Verbose)
	assert.Equal(t, "f", s.File)
	assert.Empty(t, s.Rest)
}

func TestParsePositionals(t *testing.T) {
	var s struct {
		Src  string
		Dst  [2]string
		Mode uint8
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "cp", &s)
	_, err := r.Arg(root, "src", 1, "")
	must(t, err)
	_, err = r.Arg(root, "dst", 2, "")
	must(t, err)
	_, err = r.Flg(root, 'r', "", 0, 1, "")
	must(t, err)

	_, err = r.Parse(root, []string{"cp", "a", "-r", "b", "-"})
	must(t, err)
	assert.Equal(t, "a", s.Src)
	assert.Equal(t, [2]string{"b", "-"}, s.Dst)
	assert.Equal(t, uint8(1), s.Mode)

	_, err = r.Parse(root, []string{"cp", "a", "b"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "dst", herr.Element)

	_, err = r.Parse(root, []string{"cp", "a", "b", "c", "d"})
	herr = expectCode(t, err, UnknownToken)
	assert.Equal(t, "d", herr.Token)
}

func TestParseRemainingTakesTail(t *testing.T) {
	var s struct {
		Verbose bool
		_       [7]byte
		Cmd     []string
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "exec", &s)
	_, err := r.Flg(root, 'v', "", 0, 1, "")
	must(t, err)
	must(t, r.Pad(root, 7))
	_, err = r.Arg(root, "cmd", Remaining, "")
	must(t, err)

	argv := []string{"exec", "ls", "-v", "--all"}
	_, err = r.Parse(root, argv)
	must(t, err)
	assert.False(t, s.Verbose)
	assert.Equal(t, argv[1:], s.Cmd)
	assert.Equal(t, len(s.Cmd), cap(s.Cmd), "tail must not share spare capacity with argv")

	_, err = r.Parse(root, []string{"exec", "-v"})
	must(t, err)
	assert.True(t, s.Verbose)
	assert.Nil(t, s.Cmd)
}

func TestParseUnknownTokens(t *testing.T) {
	var s struct{ Verbose bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "verbose", 0, 1, "")
	must(t, err)
	mustCmd(t, r, root, "build", nil)

	_, err = r.Parse(root, []string{"prog", "--verbos"})
	herr := expectCode(t, err, UnknownToken)
	assert.Equal(t, "--verbose", herr.Suggestion)
	assert.Equal(t, "--verbos", herr.Element)

	_, err = r.Parse(root, []string{"prog", "buil"})
	herr = expectCode(t, err, UnknownToken)
	assert.Equal(t, "build", herr.Suggestion)
	assert.Equal(t, "buil", herr.Token)

	_, err = r.Parse(root, []string{"prog", "--zzzzzz"})
	herr = expectCode(t, err, UnknownToken)
	assert.Empty(t, herr.Suggestion)

	// commands are only recognised before the first switch
	_, err = r.Parse(root, []string{"prog", "-v", "build"})
	herr = expectCode(t, err, UnknownToken)
	assert.Equal(t, "build", herr.Token)
	assert.Empty(t, herr.Suggestion)
}

func TestParseReturnsSelectedCommandOnError(t *testing.T) {
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", nil)
	sub := mustCmd(t, r, root, "sub", nil)

	cid, err := r.Parse(root, []string{"prog", "sub", "--nope"})
	herr := expectCode(t, err, UnknownToken)
	assert.Equal(t, sub, cid)
	assert.Equal(t, "prog sub", herr.Command)
}

func TestParseInvalidRoot(t *testing.T) {
	r := New()
	cid, err := r.Parse(3, []string{"prog"})
	expectCode(t, err, InvalidCommand)
	assert.Equal(t, NoCommand, cid)
}

func TestParseEmptyArgv(t *testing.T) {
	var s struct{ V bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "", 0, 1, "")
	must(t, err)

	s.V = true
	cid, err := r.Parse(root, nil)
	must(t, err)
	assert.Equal(t, root, cid)
	assert.False(t, s.V)
}

func TestParseClearsPreviousRun(t *testing.T) {
	var s struct {
		V   uint16
		_   [6]byte
		Out string
	}
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &s)
	_, err := r.Flg(root, 'v', "", 0, 5, "")
	must(t, err)
	must(t, r.Pad(root, 6))
	_, err = r.Opt(root, 'o', "", "FILE", 0, 1, "")
	must(t, err)

	_, err = r.Parse(root, []string{"prog", "-vvv", "-o", "x"})
	must(t, err)
	_, err = r.Parse(root, []string{"prog", "-v"})
	must(t, err)
	assert.Equal(t, uint16(1), s.V)
	assert.Empty(t, s.Out)
}

func TestParseInheritance(t *testing.T) {
	var rootStore struct {
		Verbose uint8
		Quiet   bool
	}
	var subStore struct{ Verbose bool }

	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &rootStore)
	_, err := r.Flg(root, 'v', "verbose", 0, 2, "")
	must(t, err)
	_, err = r.Flg(root, 'q', "quiet", 0, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", &subStore)
	other := mustCmd(t, r, root, "other", nil)
	must(t, r.Inherit(other, true))

	// no inheritance by default
	_, err = r.Parse(root, []string{"prog", "sub", "-q"})
	expectCode(t, err, UnknownToken)

	cid, err := r.Parse(root, []string{"prog", "other", "-vq", "--verbose"})
	must(t, err)
	assert.Equal(t, other, cid)
	assert.Equal(t, uint8(2), rootStore.Verbose)
	assert.True(t, rootStore.Quiet)

	// local names shadow inherited ones
	_, err = r.Flg(sub, 'v', "verbose", 0, 1, "")
	must(t, err)
	must(t, r.Inherit(sub, true))
	_, err = r.Parse(root, []string{"prog", "sub", "-v", "-q"})
	must(t, err)
	assert.True(t, subStore.Verbose)
	assert.Zero(t, rootStore.Verbose)
	assert.True(t, rootStore.Quiet)
}

func TestParseInheritedLowerBounds(t *testing.T) {
	var rootStore struct{ Token string }
	r := New()
	root := mustCmd(t, r, NoCommand, "prog", &rootStore)
	_, err := r.Opt(root, 't', "token", "TOKEN", 1, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", nil)
	must(t, r.Inherit(sub, true))

	_, err = r.Parse(root, []string{"prog", "sub"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "--token", herr.Element)

	_, err = r.Parse(root, []string{"prog", "sub", "--token", "s3cr3t"})
	must(t, err)
	assert.Equal(t, "s3cr3t", rootStore.Token)
}

func TestParseShadowedRequiredFlagIsNotChecked(t *testing.T) {
	var rootStore struct{ Quiet uint8 }
	var subStore struct{ Quiet uint8 }
	r := New()
	root := mustCmd(t, r, NoCommand, "app", &rootStore)
	_, err := r.Flg(root, 'q', "", 1, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", &subStore)
	_, err = r.Flg(sub, 'q', "", 0, 1, "")
	must(t, err)
	must(t, r.Inherit(sub, true))

	cid, err := r.Parse(root, []string{"app", "sub", "-q"})
	must(t, err)
	assert.Equal(t, sub, cid)
	assert.Equal(t, uint8(1), subStore.Quiet)
	assert.Zero(t, rootStore.Quiet)

	_, err = r.Parse(root, []string{"app", "sub"})
	must(t, err)

	// the root still requires it when selected directly
	_, err = r.Parse(root, []string{"app"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "-q", herr.Element)
}

func TestParsePartlyShadowedFlagReportsReachableName(t *testing.T) {
	var rootStore struct{ Quiet bool }
	var subStore struct{ Query bool }
	r := New()
	root := mustCmd(t, r, NoCommand, "app", &rootStore)
	_, err := r.Flg(root, 'q', "quiet", 1, 1, "")
	must(t, err)
	sub := mustCmd(t, r, root, "sub", &subStore)
	_, err = r.Flg(sub, 'q', "query", 0, 1, "")
	must(t, err)
	must(t, r.Inherit(sub, true))

	_, err = r.Parse(root, []string{"app", "sub", "-q"})
	herr := expectCode(t, err, RepeatOutOfRange)
	assert.Equal(t, "--quiet", herr.Element)

	_, err = r.Parse(root, []string{"app", "sub", "-q", "--quiet"})
	must(t, err)
	assert.True(t, subStore.Query)
	assert.True(t, rootStore.Quiet)
}
