// Package logging provides simple leveled logging for the lockstep runner.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (lv LogLevel) tag() string {
	switch lv {
	case LevelDebug:
		return "[DEBUG]"
	case LevelInfo:
		return "[INFO]"
	case LevelWarn:
		return "[WARN]"
	case LevelError:
		return "[ERROR]"
	default:
		return "[?]"
	}
}

// Config holds logging configuration.
type Config struct {
	Level  LogLevel
	Output io.Writer
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// field is one persistent key=value pair a contextual logger attaches to
// every line it writes.
type field struct {
	key string
	val any
}

// sink is the mutex-guarded destination shared by a Logger and every
// logger derived from it via With, so a session logger tagged partway
// through a run never races its parent's writes.
type sink struct {
	mu    sync.Mutex
	out   *log.Logger
	level LogLevel
}

// Logger wraps stdlib log with level support and persistent key-value
// context. Deriving a contextual logger (With, WithSession, WithCycle)
// never mutates the receiver: every derived Logger shares the underlying
// sink but carries its own field slice.
type Logger struct {
	s      *sink
	fields []field
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

// NewLogger creates a new logger.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	return &Logger{
		s: &sink{
			out:   log.New(output, "", log.LstdFlags),
			level: config.Level,
		},
	}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	defaultMu.RLock()
	if defaultLogger != nil {
		defer defaultMu.RUnlock()
		return defaultLogger
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// With returns a logger carrying an extra persistent key=value field on
// every subsequent line, without mutating the receiver.
func (l *Logger) With(key string, value any) *Logger {
	fields := make([]field, len(l.fields), len(l.fields)+1)
	copy(fields, l.fields)
	fields = append(fields, field{key: key, val: value})
	return &Logger{s: l.s, fields: fields}
}

// WithSession returns a logger tagged with the given session identifier,
// the way this lineage's queue runner tags its lines with a queue/device
// number.
func (l *Logger) WithSession(id string) *Logger {
	return l.With("session", id)
}

// WithCycle returns a logger tagged with the given DUT cycle number.
func (l *Logger) WithCycle(cycle uint64) *Logger {
	return l.With("cycle", cycle)
}

// render joins the logger's persistent fields with the call's ad hoc
// key-value args into one trailing "k=v k=v" string, or "" if there are
// none.
func (l *Logger) render(args []any) string {
	if len(l.fields) == 0 && len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range l.fields {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", f.key, f.val)
	}
	for i := 0; i+1 < len(args); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
	}
	return b.String()
}

func (l *Logger) log(level LogLevel, msg string, args ...any) {
	if level < l.s.level {
		return
	}
	tail := l.render(args)

	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if tail == "" {
		l.s.out.Printf("%s %s", level.tag(), msg)
		return
	}
	l.s.out.Printf("%s %s %s", level.tag(), msg, tail)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

// Printf-style logging.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, fmt.Sprintf(format, args...)) }

// Printf for compatibility with the interfaces.Logger contract.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
