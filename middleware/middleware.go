// Package middleware wraps the handlers a hyphen Router dispatches to.
// It provides Recovery, Timeout and Logger.
package middleware

import (
	"context"
	"fmt"
	"time"
)

// Invocation describes the command a handler runs for. It is implemented by
// the hyphen router and keeps this package free of an import cycle.
type Invocation interface {
	// Command returns the path of the selected command, e.g. "git remote add".
	Command() string

	// Args returns the full argv, program name included. The slice must be
	// treated as read-only.
	Args() []string
}

// Handler runs a selected command
type Handler func(ctx context.Context, inv Invocation) error

// Middleware wraps a handler
type Middleware func(next Handler) Handler

// MiddlewareChain is an ordered list of middleware
type MiddlewareChain []Middleware

// Apply wraps h so that the first middleware of the chain runs outermost
func (chain MiddlewareChain) Apply(h Handler) Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// Use returns a new chain with the provided middleware appended.
func (chain MiddlewareChain) Use(middleware ...Middleware) MiddlewareChain {
	out := make(MiddlewareChain, 0, len(chain)+len(middleware))
	out = append(out, chain...)
	return append(out, middleware...)
}

// Chain creates a chain from the provided middleware, preserving order.
func Chain(middleware ...Middleware) MiddlewareChain {
	return MiddlewareChain(middleware)
}

// TimeoutError is returned when a handler outlives its deadline
type TimeoutError struct {
	Duration time.Duration
	Command  string
}

func (e *TimeoutError) Error() string {
	return "command '" + e.Command + "' timed out after " + e.Duration.String()
}

// RecoveryError carries a panic recovered from a handler
type RecoveryError struct {
	Panic   any
	Command string
	Stack   []byte
}

func (e *RecoveryError) Error() string {
	return "command '" + e.Command + "' panicked: " + toString(e.Panic)
}

// Unwrap exposes a panic value that was itself an error
func (e *RecoveryError) Unwrap() error {
	err, _ := e.Panic.(error)
	return err
}

// MiddlewareConfig contains configuration for middleware behavior
type MiddlewareConfig struct {
	LogLevel    LogLevel
	LogFormat   LogFormat
	IncludeArgs bool
	PrintStack  bool
	StackSize   int
}

// LogLevel selects which executions the Logger middleware reports
type LogLevel int

const (
	LogLevelNone  LogLevel = iota
	LogLevelError          // failures only
	LogLevelInfo           // failures and completions
	LogLevelDebug          // plus a line when the handler starts
)

// LogFormat selects the Logger middleware output shape
type LogFormat int

const (
	LogFormatText LogFormat = iota
	LogFormatJSON
)

// RequestInfo describes one handler execution
type RequestInfo struct {
	Command   string
	Args      []string
	StartTime time.Time
	Duration  time.Duration
	Error     error
}

type MiddlewareOption func(config *MiddlewareConfig)

func DefaultConfig() *MiddlewareConfig {
	return &MiddlewareConfig{
		LogLevel:    LogLevelInfo,
		LogFormat:   LogFormatText,
		IncludeArgs: true,
		PrintStack:  true,
		StackSize:   4096,
	}
}

func WithLogLevel(level LogLevel) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogLevel = level
	}
}

func WithLogFormat(format LogFormat) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.LogFormat = format
	}
}

func WithArgs(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.IncludeArgs = enabled
	}
}

func WithStackTrace(enabled bool) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		config.PrintStack = enabled
	}
}

func newConfig(options []MiddlewareOption) *MiddlewareConfig {
	config := DefaultConfig()
	for _, option := range options {
		option(config)
	}
	return config
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return x
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func commandName(inv Invocation) string {
	if inv == nil || inv.Command() == "" {
		return "unknown"
	}
	return inv.Command()
}
