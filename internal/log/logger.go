// Package log wraps slog with the -v/-vv/-vvv verbosity ladder and a single
// terminal progress line that log records never overwrite.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Verbosity levels
const (
	LevelQuiet = iota // warnings and errors
	LevelInfo         // -v: pass summaries, progress line
	LevelDebug        // -vv: page requests, skipped ticks, status changes
	LevelTrace        // -vvv: everything
)

const slogLevelTrace = slog.Level(-8)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a log format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid log format %q (must be text or json)", s)
}

// console owns the output writer and the progress line. The scheduler, the
// TUI and the metrics server all log from their own goroutines.
type console struct {
	mu         sync.Mutex
	w          io.Writer
	inProgress bool
}

// Write breaks an open progress line before passing a log record through.
func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		_, _ = fmt.Fprintln(c.w)
		c.inProgress = false
	}
	return c.w.Write(p)
}

func (c *console) progress(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inProgress = true
	_, _ = fmt.Fprintf(c.w, "\r"+format, args...)
}

func (c *console) finish(suffix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inProgress {
		_, _ = fmt.Fprint(c.w, suffix)
		c.inProgress = false
	}
}

func (c *console) setWriter(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w = w
	c.inProgress = false
}

var (
	out       = &console{w: os.Stderr}
	verbosity atomic.Int32
	logger    atomic.Pointer[slog.Logger]
)

func init() {
	Initialize(LevelQuiet, os.Stderr)
}

// Initialize sets up the global logger with the specified verbosity level.
// An optional format selects JSON output; the default is text.
func Initialize(level int, w io.Writer, format ...Format) {
	verbosity.Store(int32(level))
	out.setWriter(w)

	opts := &slog.HandlerOptions{Level: slogLevel(level)}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if len(format) > 0 && format[0] == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	}
	logger.Store(slog.New(handler))
}

func slogLevel(level int) slog.Level {
	switch {
	case level >= LevelTrace:
		return slogLevelTrace
	case level >= LevelDebug:
		return slog.LevelDebug
	case level >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Logger returns the configured logger for components that take one explicitly.
func Logger() *slog.Logger {
	return logger.Load()
}

// Pass tags records belonging to one sync pass.
func Pass(id uuid.UUID) slog.Attr {
	return slog.String("pass", id.String())
}

// Thread tags records about one notification thread.
func Thread(id string) slog.Attr {
	return slog.String("thread", id)
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

func Trace(msg string, args ...any) {
	Logger().Log(context.Background(), slogLevelTrace, msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// Progress rewrites the progress line. Only shown at -v or higher.
func Progress(format string, args ...any) {
	if IsInfo() {
		out.progress(format, args...)
	}
}

// ProgressDone ends the progress line with "done".
func ProgressDone() {
	out.finish(" done\n")
}

// ProgressClear erases the progress line.
func ProgressClear() {
	out.finish("\r\033[K")
}

func IsInfo() bool  { return Verbosity() >= LevelInfo }
func IsDebug() bool { return Verbosity() >= LevelDebug }
func IsTrace() bool { return Verbosity() >= LevelTrace }

// Verbosity returns the current verbosity level
func Verbosity() int {
	return int(verbosity.Load())
}

// SetOutput redirects the logger without changing level or format.
func SetOutput(w io.Writer) {
	out.setWriter(w)
}
