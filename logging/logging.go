// Package logging provides a small severity-tagged wrapper around the
// standard library logger, used throughout the simulator and the
// debug server so per-connection verbosity can be tuned independently
// of the core's own ambient logging.
package logging

import (
	"io"
	"log"
	"os"
	"strings"
)

// Level is a minimum severity threshold.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name (case-insensitive) to a Level,
// defaulting to Info if unrecognised.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return Debug
	case "warn":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// Logger wraps *log.Logger with a minimum severity and the
// "[msp430] LEVEL: " line convention.
type Logger struct {
	min Level
	out *log.Logger
}

// New creates a Logger writing to w, filtering out anything below min.
func New(w io.Writer, min Level) *Logger {
	return &Logger{min: min, out: log.New(w, "", log.LstdFlags)}
}

// Default returns a Logger writing to stderr at Info level, suitable
// as a package-level fallback before configuration is read.
func Default() *Logger {
	return New(os.Stderr, Info)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.min {
		return
	}
	l.out.Printf("[msp430] %s: "+format, append([]any{level.String()}, args...)...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(Debug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(Info, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(Warn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(Error, format, args...) }
