package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level. Anything
// else is treated as info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides leveled logging throughout the application.
type Logger struct {
	min   Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// NewLogger creates a Logger at info level writing to stdout/stderr.
func NewLogger() *Logger {
	return NewLoggerLevel("info")
}

// NewLoggerLevel creates a Logger that drops messages below level.
func NewLoggerLevel(level string) *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, ParseLevel(level))
}

// NewLoggerTo writes info/warn/debug to out and errors to errOut.
func NewLoggerTo(out, errOut io.Writer, min Level) *Logger {
	flags := 0
	return &Logger{
		min:   min,
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

// NewDiscardLogger swallows everything. Handy in tests.
func NewDiscardLogger() *Logger {
	return NewLoggerTo(io.Discard, io.Discard, LevelError+1)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) printf(lvl Level, dst *log.Logger, tag, format string, args ...any) {
	if lvl < l.min {
		return
	}
	dst.Printf("[%s] %s %s\n", l.timestamp(), tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.printf(LevelInfo, l.info, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.printf(LevelWarn, l.warn, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.printf(LevelError, l.err, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.printf(LevelDebug, l.debug, "\033[36mDEBUG\033[0m", format, args...)
}
