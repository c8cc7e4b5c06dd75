// Copyright 2026 The RPFM-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package log is a tiny leveled-logging facade used by the packtool
// command. The core package pack does not log and takes no Logger.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level is a logging severity.
type Level int8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
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
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal logging interface of this package. A keyvals slice is
// always an even-length list of alternating key/value pairs.
type Logger interface {
	Log(level Level, keyvals ...interface{}) error
}

// stdLogger writes to an io.Writer via the standard library logger.
type stdLogger struct {
	mu  sync.Mutex
	std *log.Logger
}

// NewStdLogger returns a Logger that writes one line per call to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{std: log.New(w, "", log.LstdFlags)}
}

func (l *stdLogger) Log(level Level, keyvals ...interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	buf := fmt.Sprintf("level=%s", level)
	for i := 0; i+1 < len(keyvals); i += 2 {
		buf += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	l.std.Println(buf)
	return nil
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return NewStdLogger(io.Discard)
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// FilterLevel sets the minimum level that passes through the filter.
func FilterLevel(level Level) FilterOption {
	return func(f *Filter) { f.level = level }
}

// Filter wraps a Logger and drops entries below a minimum level.
type Filter struct {
	logger Logger
	level  Level
}

// NewFilter returns a leveled Logger wrapping logger.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &Filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}

// Helper adds printf-style convenience methods on top of a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger with Debugf/Infof/Warnf/Errorf/Fatalf helpers.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) logf(level Level, format string, args ...interface{}) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, "msg", fmt.Sprintf(format, args...))
}

func (h *Helper) Debugf(format string, args ...interface{}) { h.logf(LevelDebug, format, args...) }
func (h *Helper) Infof(format string, args ...interface{})  { h.logf(LevelInfo, format, args...) }
func (h *Helper) Warnf(format string, args ...interface{})  { h.logf(LevelWarn, format, args...) }
func (h *Helper) Errorf(format string, args ...interface{}) { h.logf(LevelError, format, args...) }

func (h *Helper) Fatalf(format string, args ...interface{}) {
	h.logf(LevelFatal, format, args...)
	os.Exit(1)
}
