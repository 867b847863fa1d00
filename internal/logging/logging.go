// Package logging provides severity-gated logging for the NGFF reader and
// writer. Messages go to the standard logger unless a rotating log file has
// been configured.
package logging

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/natefinch/lumberjack"
)

type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

// Logger provides a way to log messages at different severities.
type Logger interface {
	// Debugf formats its arguments analogous to fmt.Printf and records the text as a log
	// message at Debug level.
	Debugf(format string, args ...interface{})

	// Infof is like Debugf, but at Info level.
	Infof(format string, args ...interface{})

	// Warningf is like Debugf, but at Warning level.
	Warningf(format string, args ...interface{})

	// Errorf is like Debugf, but at Error level.
	Errorf(format string, args ...interface{})

	// Shutdown makes sure logs are closed.
	Shutdown()
}

var (
	mu     sync.RWMutex
	mode   = InfoMode
	logger Logger = stdLogger{}
)

// SetLogMode sets the severity required for a log message to be printed.
// SetLogMode(WarningMode) will log any calls using Warningf or Errorf.
// To turn off all logging, use SilentMode.
func SetLogMode(newMode ModeFlag) {
	mu.Lock()
	mode = newMode
	mu.Unlock()
}

// Mode returns the current severity threshold.
func Mode() ModeFlag {
	mu.RLock()
	defer mu.RUnlock()
	return mode
}

// SetLogger replaces the package logger and returns the previous one.
func SetLogger(l Logger) Logger {
	mu.Lock()
	defer mu.Unlock()
	prev := logger
	if l == nil {
		l = stdLogger{}
	}
	logger = l
	return prev
}

func current(level ModeFlag) Logger {
	mu.RLock()
	defer mu.RUnlock()
	if mode > level {
		return nil
	}
	return logger
}

func Debugf(format string, args ...interface{}) {
	if l := current(DebugMode); l != nil {
		l.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if l := current(InfoMode); l != nil {
		l.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if l := current(WarningMode); l != nil {
		l.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if l := current(ErrorMode); l != nil {
		l.Errorf(format, args...)
	}
}

// Shutdown closes the package logger.
func Shutdown() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Shutdown()
}

// ParseMode converts a level name such as "debug" or "warning" into a ModeFlag.
func ParseMode(s string) (ModeFlag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugMode, nil
	case "", "info":
		return InfoMode, nil
	case "warning", "warn":
		return WarningMode, nil
	case "error":
		return ErrorMode, nil
	case "silent", "off":
		return SilentMode, nil
	}
	return InfoMode, fmt.Errorf("unknown log level %q", s)
}

// Config selects the log level and an optional rotating log file.
type Config struct {
	Logfile string
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
	Level   string `toml:"level"`
}

// SetLogger applies the level and, if a log file is given, routes all messages
// to a rotating file.
func (c *Config) SetLogger() error {
	if c == nil {
		return nil
	}
	m, err := ParseMode(c.Level)
	if err != nil {
		return err
	}
	SetLogMode(m)
	if c.Logfile == "" {
		return nil
	}
	SetLogger(fileLogger{&lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}})
	return nil
}

type stdLogger struct{}

func (stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

func (stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

func (stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

func (stdLogger) Shutdown() {}

type fileLogger struct {
	*lumberjack.Logger
}

func (f fileLogger) printf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(msg, "\n") {
		msg += "\n"
	}
	f.Write([]byte(" " + level + " " + msg))
}

func (f fileLogger) Debugf(format string, args ...interface{}) { f.printf("DEBUG", format, args...) }

func (f fileLogger) Infof(format string, args ...interface{}) { f.printf("INFO", format, args...) }

func (f fileLogger) Warningf(format string, args ...interface{}) {
	f.printf("WARNING", format, args...)
}

func (f fileLogger) Errorf(format string, args ...interface{}) { f.printf("ERROR", format, args...) }

func (f fileLogger) Shutdown() {
	f.Close()
}
