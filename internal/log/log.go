// Package log provides structured logging for eventlink.
// It writes category-tagged lines (level, category, timestamp, key=value
// fields) to a file or writer and republishes every entry to in-process
// listeners through an event.Handler.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/eventlink/internal/event"
)

// Level represents log severity.
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

// ParseLevel converts a config value ("debug", "info", "warn", "error") to a
// Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Category groups related log messages.
type Category string

const (
	CatEvent   Category = "event"   // Handler/listener registry activity
	CatFSM     Category = "fsm"     // State machine transitions
	CatTree    Category = "tree"    // Behaviour tree ticks
	CatValue   Category = "value"   // Observable value changes
	CatConfig  Category = "config"  // Configuration loading/saving
	CatWatcher Category = "watcher" // File watcher events
	CatCache   Category = "cache"   // Reload dedup cache
	CatTrace   Category = "trace"   // Tracing provider lifecycle
	CatCLI     Category = "cli"     // Command execution
)

// Entry is one formatted log line as published to listeners.
type Entry struct {
	Time     time.Time
	Level    Level
	Category Category
	Message  string
	Line     string // fully formatted line, newline included
}

// Logger provides structured logging.
type Logger struct {
	mu       sync.Mutex
	file     *os.File
	writer   io.Writer
	enabled  bool
	minLevel Level

	// pending holds entries written but not yet published. delivering is set
	// while one goroutine drains it. Both are guarded by mu.
	pending    []Entry
	delivering bool

	// dmu guards entries, which is published to without mu held so that
	// listeners may log.
	dmu     sync.Mutex
	entries event.Handler[Entry]
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init initializes the global logger writing to the file at path.
// Returns a cleanup function to close the log file.
func Init(path string) (func(), error) {
	var initErr error
	once.Do(func() {
		defaultLogger, initErr = newLogger(path)
	})
	if initErr != nil {
		return nil, initErr
	}
	// Check if logger was initialized (handles case where once.Do already ran)
	if defaultLogger == nil {
		return nil, fmt.Errorf("logger initialization failed or already attempted")
	}
	return func() {
		if defaultLogger != nil && defaultLogger.file != nil {
			_ = defaultLogger.file.Close()
		}
	}, nil
}

// InitWriter replaces the global logger with one writing to w.
// A nil writer keeps entries in-process only (listeners still receive them).
func InitWriter(w io.Writer, minLevel Level) {
	defaultLogger = &Logger{
		writer:   w,
		enabled:  true,
		minLevel: minLevel,
	}
}

func newLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is user-controlled debug log path
	if err != nil {
		return nil, err
	}

	return &Logger{
		file:     f,
		writer:   f,
		enabled:  true,
		minLevel: LevelDebug,
	}, nil
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.enabled = enabled
		defaultLogger.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if defaultLogger != nil {
		defaultLogger.mu.Lock()
		defaultLogger.minLevel = level
		defaultLogger.mu.Unlock()
	}
}

// Subscribe registers l to receive every entry written from now on.
//
// Entries are published in the order they were written, one at a time, after
// the line has been written and without the logger lock held. Callbacks may
// log; those entries are published after the current one. A callback must not
// call Subscribe or Unsubscribe, but may Close its own listener.
func Subscribe(l *event.Listener[Entry]) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.dmu.Lock()
	defer defaultLogger.dmu.Unlock()
	defaultLogger.entries.Subscribe(l)
}

// Unsubscribe stops delivering entries to l.
func Unsubscribe(l *event.Listener[Entry]) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.dmu.Lock()
	defer defaultLogger.dmu.Unlock()
	defaultLogger.entries.Unsubscribe(l)
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	log(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	log(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	log(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	log(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	log(LevelError, cat, msg, fields...)
}

func log(level Level, cat Category, msg string, fields ...any) {
	lg := defaultLogger
	if lg == nil {
		return
	}

	lg.mu.Lock()
	if !lg.enabled || level < lg.minLevel {
		lg.mu.Unlock()
		return
	}

	// Format: 2025-12-06T10:45:00 [ERROR] [fsm] message key=value key2=value2
	now := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", now.Format("2006-01-02T15:04:05"), level, cat, msg)

	// Append fields (key=value pairs)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	// Handle odd field count - append orphan key with no value
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	line := b.String()

	if lg.writer != nil {
		_, _ = io.WriteString(lg.writer, line)
	}

	lg.pending = append(lg.pending, Entry{
		Time:     now,
		Level:    level,
		Category: cat,
		Message:  msg,
		Line:     line,
	})
	if lg.delivering {
		// The goroutine already draining the queue publishes this entry.
		lg.mu.Unlock()
		return
	}
	lg.delivering = true
	lg.mu.Unlock()

	lg.deliver()
}

// deliver publishes pending entries until the queue is empty. Entries logged
// meanwhile, from a listener or another goroutine, are picked up by the same
// loop. If a listener panics the queue is dropped and the next log call
// starts delivering again.
func (lg *Logger) deliver() {
	drained := false
	defer func() {
		if !drained {
			lg.mu.Lock()
			lg.pending = nil
			lg.delivering = false
			lg.mu.Unlock()
		}
	}()

	for {
		lg.mu.Lock()
		batch := lg.pending
		lg.pending = nil
		if len(batch) == 0 {
			lg.delivering = false
			drained = true
			lg.mu.Unlock()
			return
		}
		lg.mu.Unlock()

		lg.publish(batch)
	}
}

func (lg *Logger) publish(batch []Entry) {
	lg.dmu.Lock()
	defer lg.dmu.Unlock()
	for _, e := range batch {
		lg.entries.Dispatch(e)
	}
}
