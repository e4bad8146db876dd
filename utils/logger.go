package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities; messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps LOG_LEVEL values onto a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "critical":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides structured, leveled logging throughout the application.
type Logger struct {
	level Level
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// NewLogger creates a new Logger writing to stdout/stderr at info level.
func NewLogger() *Logger {
	return NewLoggerWithLevel("info")
}

// NewLoggerWithLevel creates a Logger that drops messages below level.
func NewLoggerWithLevel(level string) *Logger {
	return newLogger(ParseLevel(level), os.Stdout, os.Stderr)
}

// NewDiscardLogger returns a Logger that writes nowhere.
func NewDiscardLogger() *Logger {
	return newLogger(LevelError+1, io.Discard, io.Discard)
}

func newLogger(level Level, out, errOut io.Writer) *Logger {
	flags := 0
	return &Logger{
		level: level,
		info:  log.New(out, "", flags),
		warn:  log.New(out, "", flags),
		err:   log.New(errOut, "", flags),
		debug: log.New(out, "", flags),
	}
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	if l.level > LevelInfo {
		return
	}
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	if l.level > LevelWarn {
		return
	}
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	if l.level > LevelError {
		return
	}
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.timestamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if l.level > LevelDebug {
		return
	}
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.timestamp(), format), args...)
}
