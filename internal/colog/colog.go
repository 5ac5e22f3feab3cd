// Package colog is coda-go's leveled logging helper, adapted from the
// teacher's internal pattern (saferwall/pe's file.go takes an
// opts.Logger and wraps it in a log.Helper backed by log.NewStdLogger /
// log.NewFilter / log.FilterLevel). coda-go reimplements that small
// surface directly since the teacher's log subpackage itself isn't part
// of the retrieved pack; the shape — a minimal Logger interface, a
// leveled Helper, and a severity filter — is preserved.
package colog

import (
	"fmt"
	"io"
	"log"
	"sync"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink coda-go components log through.
type Logger interface {
	Log(level Level, msg string)
}

// stdLogger writes to an io.Writer via the standard library's log package.
type stdLogger struct {
	mu  sync.Mutex
	out *log.Logger
}

// NewStdLogger returns a Logger that writes timestamped lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{out: log.New(w, "", log.LstdFlags)}
}

func (s *stdLogger) Log(level Level, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Printf("[%s] %s", level, msg)
}

// filterLogger drops messages below a minimum severity.
type filterLogger struct {
	next Logger
	min  Level
}

// NewFilter wraps next so that only messages at or above FilterLevel(min)
// pass through.
func NewFilter(next Logger, opts ...func(*filterLogger)) Logger {
	f := &filterLogger{next: next, min: LevelDebug}
	for _, o := range opts {
		o(f)
	}
	return f
}

// FilterLevel sets the minimum severity a NewFilter logger passes through.
func FilterLevel(min Level) func(*filterLogger) {
	return func(f *filterLogger) { f.min = min }
}

func (f *filterLogger) Log(level Level, msg string) {
	if level >= f.min {
		f.next.Log(level, msg)
	}
}

// Helper is a convenience wrapper exposing printf-style methods per level,
// mirroring the teacher's log.Helper.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	h.logger.Log(level, fmt.Sprintf(format, args...))
}

func (h *Helper) Debugf(format string, args ...interface{}) { h.log(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...interface{})  { h.log(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...interface{})  { h.log(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...interface{}) { h.log(LevelError, format, args...) }
