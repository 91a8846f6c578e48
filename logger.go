package alignedalloc

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hupe1980/alignedalloc/internal/mem"
)

// Logger wraps slog.Logger with allocator-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithSource adds a src field to the logger (the call site tag of a Debug decorator).
func (l *Logger) WithSource(src string) *Logger {
	return &Logger{
		Logger: l.Logger.With("src", src),
	}
}

// LogAllocate logs an allocate operation.
func (l *Logger) LogAllocate(buf []byte, size, alignment int, scope Scope, err error) {
	if err != nil {
		l.Error("alloc failed",
			"size", size,
			"alignment", alignment,
			"scope", scope.String(),
			"error", err,
		)
		return
	}
	l.Debug("alloc",
		"ptr", ptr(mem.Addr(buf)),
		"size", size,
		"alignment", alignment,
		"scope", scope.String(),
	)
}

// LogReallocate logs a reallocate operation.
func (l *Logger) LogReallocate(oldAddr uintptr, buf []byte, originalSize, size, alignment int, scope Scope, err error) {
	if err != nil {
		l.Error("realloc failed",
			"old_ptr", ptr(oldAddr),
			"original_size", originalSize,
			"size", size,
			"alignment", alignment,
			"scope", scope.String(),
			"error", err,
		)
		return
	}
	l.Debug("realloc",
		"old_ptr", ptr(oldAddr),
		"new_ptr", ptr(mem.Addr(buf)),
		"original_size", originalSize,
		"size", size,
		"alignment", alignment,
		"scope", scope.String(),
	)
}

// LogFree logs a free operation.
func (l *Logger) LogFree(addr uintptr, size int) {
	l.Debug("free",
		"ptr", ptr(addr),
		"size", size,
	)
}

// LogInternal logs a host notification about memory the host allocated itself.
func (l *Logger) LogInternal(event string, size int, typ InternalAllocationType, scope Scope) {
	l.Debug(event,
		"size", size,
		"type", typ.String(),
		"scope", scope.String(),
	)
}

// ptr formats an address the way %p does.
func ptr(addr uintptr) string {
	return fmt.Sprintf("%#x", addr)
}
