package traceutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different levels of diagnostic detail.
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// String returns the lower case name of the level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelSilent:
		return "silent"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	case LogLevelTrace:
		return "trace"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLogLevel parses a level name. The empty string is info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "silent", "quiet", "none":
		return LogLevelSilent, nil
	case "", "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	case "trace":
		return LogLevelTrace, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes the diagnostic stream: visited functions, call-site
// echoes, warnings and summary counts. The trace itself goes elsewhere.
type Logger struct {
	level  LogLevel
	writer io.Writer
	prefix string
	mu     *sync.Mutex
}

type loggerKey struct{}

// NewLogger creates a new logger with the specified level and output.
func NewLogger(level LogLevel, writer io.Writer) *Logger {
	if writer == nil {
		writer = os.Stderr
	}
	return &Logger{
		level:  level,
		writer: writer,
		mu:     &sync.Mutex{},
	}
}

// Level returns the level of the logger.
func (l *Logger) Level() LogLevel {
	return l.level
}

// Enabled reports whether messages at the given level are written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level != LogLevelSilent && l.level >= level
}

// WithPrefix returns a new logger with an additional prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + " " + prefix
	}
	return &Logger{
		level:  l.level,
		writer: l.writer,
		prefix: newPrefix,
		mu:     l.mu,
	}
}

// Info logs informational messages (always visible except silent mode)
func (l *Logger) Info(format string, args ...any) {
	if l.Enabled(LogLevelInfo) {
		l.log("•", format, args...)
	}
}

// Debug logs debug messages (visible in debug and trace modes)
func (l *Logger) Debug(format string, args ...any) {
	if l.Enabled(LogLevelDebug) {
		l.log("→", format, args...)
	}
}

// Trace logs detailed messages (visible only in trace mode)
func (l *Logger) Trace(format string, args ...any) {
	if l.Enabled(LogLevelTrace) {
		l.log("·", format, args...)
	}
}

// Step logs a completed processing step with context.
func (l *Logger) Step(step string, details ...string) {
	if l.Enabled(LogLevelInfo) {
		msg := step
		if len(details) > 0 {
			msg += ": " + strings.Join(details, ", ")
		}
		l.log("✓", "%s", msg)
	}
}

// Warning logs warning messages.
func (l *Logger) Warning(format string, args ...any) {
	if l.Enabled(LogLevelInfo) {
		l.log("⚠", format, args...)
	}
}

// Error logs error messages (always visible except silent mode)
func (l *Logger) Error(format string, args ...any) {
	if l.Enabled(LogLevelInfo) {
		l.log("✗", format, args...)
	}
}

func (l *Logger) log(symbol, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.writer, "%s %s%s\n", symbol, prefix, message)
	if f, ok := l.writer.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves a logger from the context, returning a silent
// logger if none exists.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok && logger != nil {
			return logger
		}
	}
	return NewLogger(LogLevelSilent, io.Discard)
}

// ProgressTracker reports progress of a long-running operation, such as
// indexing every function of a large program, in batches.
type ProgressTracker struct {
	name      string
	total     int
	current   int
	startTime time.Time
	logger    *Logger
	lastLog   time.Time
	interval  time.Duration
	batchSize int
	lastBatch int
	mu        sync.Mutex
}

// NewProgressTracker creates a new progress tracker logging to the
// context's logger.
func NewProgressTracker(ctx context.Context, name string, total int) *ProgressTracker {
	logger := FromContext(ctx)

	batchSize := 1
	interval := 1 * time.Second

	if total > 1000 {
		batchSize = total / 10
		interval = 3 * time.Second
	} else if total > 100 {
		batchSize = total / 20
		interval = 2 * time.Second
	}

	tracker := &ProgressTracker{
		name:      name,
		total:     total,
		startTime: time.Now(),
		logger:    logger,
		lastLog:   time.Now(),
		interval:  interval,
		batchSize: batchSize,
	}

	if total > 10 {
		logger.Info("→ Starting %s (%d items)", name, total)
	}

	return tracker
}

// Update records one finished item. It is safe for concurrent use.
func (pt *ProgressTracker) Update(message string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.current++

	now := time.Now()
	shouldLog := pt.current == pt.total ||
		now.Sub(pt.lastLog) >= pt.interval ||
		pt.current-pt.lastBatch >= pt.batchSize

	if shouldLog {
		elapsed := now.Sub(pt.startTime)

		if pt.current == pt.total {
			pt.logger.Info("✓ %s complete (%d items) in %v", pt.name, pt.current, elapsed.Truncate(10*time.Millisecond))
		} else if pt.total > 10 {
			percentage := float64(pt.current) / float64(pt.total) * 100
			pt.logger.Info("▶ %s: %d/%d (%.0f%%)", pt.name, pt.current, pt.total, percentage)
		}

		pt.lastLog = now
		pt.lastBatch = pt.current
	}

	pt.logger.Trace("processing %s (%d/%d): %s", pt.name, pt.current, pt.total, message)
}

// Complete marks the operation as finished.
func (pt *ProgressTracker) Complete() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.current < pt.total {
		pt.current = pt.total
		elapsed := time.Since(pt.startTime)
		pt.logger.Info("✓ %s complete (%d items) in %v", pt.name, pt.current, elapsed.Truncate(10*time.Millisecond))
	}
}
