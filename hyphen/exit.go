package hyphen

import (
	"errors"
	"reflect"

	"github.com/dzonerzy/go-hyphen/middleware"
)

// ExitError lets a handler request a specific exit code
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds the codes used when no specific mapping matches
type ExitCodeDefaults struct {
	Success       int // default: 0
	GeneralError  int // default: 1
	MisusageError int // default: 2, command line rejected by Parse
	SoftwareError int // default: 70, schema rejected at registration (EX_SOFTWARE)
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, SoftwareError: 70}
}

type typeCode struct {
	typ  reflect.Type
	exit int
}

// ExitCodeManager maps errors to process exit codes
type ExitCodeManager struct {
	codesByCode map[Code]int
	codesByType []typeCode // registration order
	defaults    ExitCodeDefaults
}

// NewExitCodeManager creates a manager with the default codes
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByCode: make(map[Code]int),
		defaults:    defaultExitDefaults(),
	}
	m.DefineError(&middleware.TimeoutError{}, m.defaults.GeneralError)
	m.DefineError(&middleware.RecoveryError{}, m.defaults.GeneralError)
	return m
}

// DefineCode overrides the exit code of one result code
func (e *ExitCodeManager) DefineCode(code Code, exit int) *ExitCodeManager {
	e.codesByCode[code] = exit
	return e
}

// DefineError maps errors of the dynamic type of err to an exit code.
// When an error chain matches several types, the first one defined wins;
// redefining a type keeps its original position.
func (e *ExitCodeManager) DefineError(err error, exit int) *ExitCodeManager {
	if err == nil {
		return e
	}
	t := reflect.TypeOf(err)
	for i := range e.codesByType {
		if e.codesByType[i].typ == t {
			e.codesByType[i].exit = exit
			return e
		}
	}
	e.codesByType = append(e.codesByType, typeCode{typ: t, exit: exit})
	return e
}

// Default replaces the default codes
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	return e
}

// Defaults returns the default codes in use
func (e *ExitCodeManager) Defaults() ExitCodeDefaults { return e.defaults }

// Resolve converts err to an exit code.
// Precedence:
//  1. ExitError (requested code)
//  2. result code mapping (DefineCode)
//  3. result code category: parse errors are misusage, registration errors are software errors
//  4. concrete error type mapping (DefineError), in definition order
//  5. GeneralError
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if code := CodeOf(err); code != OK {
		if exit, ok := e.codesByCode[code]; ok {
			return exit
		}
		if code.Usage() {
			return e.defaults.MisusageError
		}
		return e.defaults.SoftwareError
	}

	for _, tc := range e.codesByType {
		if errors.As(err, reflect.New(tc.typ).Interface()) {
			return tc.exit
		}
	}

	return e.defaults.GeneralError
}
