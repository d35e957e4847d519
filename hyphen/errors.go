package hyphen

import (
	"errors"
	"strconv"
	"strings"
)

// Code is the result category of a registry or parse operation.
// Every code other than OK is itself an error, so a bare Code may be
// compared with errors.Is against any error returned by this package.
type Code uint8

const (
	OK Code = iota
	NullArgument
	InvalidName
	InvalidParent
	InvalidCommand
	InvalidRepeat
	PoolExhausted
	StorageOverflow
	StorageMismatch
	UnknownToken
	AmbiguousCluster
	MissingValue
	TooManyOccurrences
	RepeatOutOfRange

	numCodes
)

var codeText = [numCodes]string{
	OK:                 "success",
	NullArgument:       "required handle or pointer is missing",
	InvalidName:        "name is empty, malformed, duplicated or missing",
	InvalidParent:      "parent command is not registered",
	InvalidCommand:     "command is not registered",
	InvalidRepeat:      "invalid repeat bounds or argument count",
	PoolExhausted:      "element capacity exhausted",
	StorageOverflow:    "binding exceeds the command storage",
	StorageMismatch:    "storage field does not match the binding",
	UnknownToken:       "unknown token",
	AmbiguousCluster:   "value-bearing option is not last in its cluster",
	MissingValue:       "option is missing its value",
	TooManyOccurrences: "element given too many times",
	RepeatOutOfRange:   "element occurrences out of range",
}

var codeName = [numCodes]string{
	OK:                 "ok",
	NullArgument:       "null_argument",
	InvalidName:        "invalid_name",
	InvalidParent:      "invalid_parent",
	InvalidCommand:     "invalid_command",
	InvalidRepeat:      "invalid_repeat",
	PoolExhausted:      "pool_exhausted",
	StorageOverflow:    "storage_overflow",
	StorageMismatch:    "storage_mismatch",
	UnknownToken:       "unknown_token",
	AmbiguousCluster:   "ambiguous_cluster",
	MissingValue:       "missing_value",
	TooManyOccurrences: "too_many_occurrences",
	RepeatOutOfRange:   "repeat_out_of_range",
}

// Describe returns the static description of code.
// It panics on a value outside the defined set.
func Describe(code Code) string {
	if code >= numCodes {
		panic("hyphen: undefined result code " + strconv.Itoa(int(code)))
	}
	return codeText[code]
}

// Error implements error. Undefined codes fall back to Name.
func (c Code) Error() string {
	if c >= numCodes {
		return c.Name()
	}
	return Describe(c)
}

// Name returns the snake_case identifier of the code, for logs
func (c Code) Name() string {
	if c >= numCodes {
		return "code_" + strconv.Itoa(int(c))
	}
	return codeName[c]
}

// Usage reports whether the code is caused by the command line rather than by the schema
func (c Code) Usage() bool {
	return c >= UnknownToken && c < numCodes
}

// CodeOf returns the result code carried by err, or OK when err is nil
// or does not come from this package.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return OK
}

// Error is returned by every failing registry and parse operation
type Error struct {
	Op         string // registration or parse step: "cmd", "opt", "flg", "arg", "pad", "inherit", "parse", "reset", "usage", "route"
	Code       Code
	Command    string // path of the command involved, space separated
	Element    string // offending element, e.g. "-v", "--path", "FILE"
	Token      string // offending argv token
	Suggestion string // closest known name for an unknown token
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("hyphen: ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(Describe(e.Code))
	switch {
	case e.Element != "" && e.Token != "" && e.Element != e.Token:
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Element))
		b.WriteString(" in ")
		b.WriteString(strconv.Quote(e.Token))
	case e.Element != "":
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Element))
	case e.Token != "":
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Token))
	}
	if e.Command != "" {
		b.WriteString(" (command ")
		b.WriteString(strconv.Quote(e.Command))
		b.WriteString(")")
	}
	if e.Suggestion != "" {
		b.WriteString(", did you mean ")
		b.WriteString(strconv.Quote(e.Suggestion))
		b.WriteString("?")
	}
	return b.String()
}

// Unwrap exposes the result code
func (e *Error) Unwrap() error { return e.Code }
