// Package logging builds the process logger and scrubs secrets from values
// before they are logged.
//
// Logs always go to stderr: stdout carries the MCP stdio transport.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tint logger writing to w at info level, or debug when verbose.
func New(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(formatRFC3339Millis(a.Value.Time()))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}

var (
	rePassword = regexp.MustCompile(`(?i)(password=)('[^']*'|[^\s;&]+)`)
	reURLPass  = regexp.MustCompile(`(://[^:/@\s]*):([^@\s]*)(@)`)
	reMySQLDSN = regexp.MustCompile(`^([^:/@\s]*):([^@\s]*)(@(?:(?:tcp|unix)?\(|/))`)
)

// Mask replaces passwords in connection strings with "***". Postgres URLs,
// keyword/value DSNs and MySQL DSNs are recognized; user names are kept.
func Mask(s string) string {
	out := rePassword.ReplaceAllString(s, "${1}***")
	out = reURLPass.ReplaceAllString(out, "${1}:***${3}")
	out = reMySQLDSN.ReplaceAllString(out, "${1}:***${3}")
	return out
}

// MaskError returns err with Mask applied to its message. errors.Is and
// errors.As still see the original chain.
func MaskError(err error) error {
	if err == nil {
		return nil
	}
	return &maskedError{err: err}
}

type maskedError struct {
	err error
}

func (e *maskedError) Error() string { return Mask(e.err.Error()) }
func (e *maskedError) Unwrap() error { return e.err }
