package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dzonerzy/go-hyphen/internal/pool"
	snapio "github.com/dzonerzy/go-hyphen/io"
)

var requestInfoPool = pool.NewPoolWithReset(
	func() *RequestInfo {
		return &RequestInfo{Args: make([]string, 0, 8)}
	},
	func(info *RequestInfo) {
		info.Command = ""
		info.Args = info.Args[:0]
		info.StartTime = time.Time{}
		info.Duration = 0
		info.Error = nil
	},
)

// Logger reports handler executions through log. Failures are logged at
// error level, completions at success level and starts at debug level.
func Logger(log *snapio.Logger, options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	return logging(config, func(stage string, info *RequestInfo) {
		msg := textLine(config, stage, info)
		switch stage {
		case "START":
			log.Debug("%s", msg)
		case "ERROR":
			log.Error("%s", msg)
		default:
			log.Success("%s", msg)
		}
	})
}

// LoggerWithWriter reports handler executions to w, one line per event, as
// plain text or JSON depending on the configured LogFormat.
func LoggerWithWriter(w io.Writer, options ...MiddlewareOption) Middleware {
	config := newConfig(options)
	if config.LogFormat == LogFormatJSON {
		enc := json.NewEncoder(w)
		return logging(config, func(stage string, info *RequestInfo) {
			_ = enc.Encode(newJSONEntry(config, stage, info))
		})
	}
	return logging(config, func(stage string, info *RequestInfo) {
		fmt.Fprintln(w, "[hyphen] "+textLine(config, stage, info))
	})
}

func logging(config *MiddlewareConfig, emit func(stage string, info *RequestInfo)) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, inv Invocation) error {
			if config.LogLevel == LogLevelNone {
				return next(ctx, inv)
			}

			info := requestInfoPool.Get()
			defer requestInfoPool.Put(info)

			info.Command = commandName(inv)
			if config.IncludeArgs && inv != nil {
				info.Args = append(info.Args, inv.Args()...)
			}
			info.StartTime = time.Now()

			if config.LogLevel >= LogLevelDebug {
				emit("START", info)
			}

			err := next(ctx, inv)
			info.Duration = time.Since(info.StartTime)
			info.Error = err

			switch {
			case err != nil:
				emit("ERROR", info)
			case config.LogLevel >= LogLevelInfo:
				emit("COMPLETE", info)
			}
			return err
		}
	}
}

func textLine(config *MiddlewareConfig, stage string, info *RequestInfo) string {
	var b strings.Builder
	b.WriteString(stage)
	b.WriteString(" ")
	b.WriteString(info.Command)
	if config.IncludeArgs && len(info.Args) > 0 {
		b.WriteString(" args=")
		b.WriteString(strings.Join(info.Args, " "))
	}
	if stage != "START" {
		b.WriteString(" duration=")
		b.WriteString(info.Duration.String())
	}
	if info.Error != nil {
		b.WriteString(" error=")
		b.WriteString(info.Error.Error())
	}
	return b.String()
}

type jsonEntry struct {
	Time     string   `json:"time"`
	Stage    string   `json:"stage"`
	Command  string   `json:"command"`
	Args     []string `json:"args,omitempty"`
	Duration string   `json:"duration,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func newJSONEntry(config *MiddlewareConfig, stage string, info *RequestInfo) jsonEntry {
	e := jsonEntry{
		Time:    info.StartTime.Format(time.RFC3339),
		Stage:   stage,
		Command: info.Command,
	}
	if config.IncludeArgs {
		e.Args = info.Args
	}
	if stage != "START" {
		e.Duration = info.Duration.String()
	}
	if info.Error != nil {
		e.Error = info.Error.Error()
	}
	return e
}
