// Package logging provides structured logging for beiwagen using slog.
//
// The sync report is beiwagen's primary output, so the default level is
// Warn: only skipped archives, failed lookups and similar problems reach
// stderr unless --verbose or --debug is given.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rouhim/beiwagen/internal/model"
)

// Level aliases for convenience.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// Options configures the logger behavior.
type Options struct {
	// Level sets the minimum log level.
	Level slog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// JSON switches from logfmt text to JSON lines.
	JSON bool
	// AddSource includes source file and line in log output.
	AddSource bool
}

// DefaultOptions returns warn-level text logging to stderr.
func DefaultOptions() Options {
	return Options{Level: LevelWarn, Output: os.Stderr}
}

// OptionsFor maps the command line switches to Options. Debug wins over
// verbose and also records the source location.
func OptionsFor(verbose, debug, json bool) Options {
	opts := DefaultOptions()
	switch {
	case debug:
		opts.Level = LevelDebug
		opts.AddSource = true
	case verbose:
		opts.Level = LevelInfo
	}
	opts.JSON = json
	return opts
}

// New creates a new logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(opts.Output, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(opts.Output, handlerOpts))
}

// Default returns the process logger, creating a DefaultOptions logger on
// first use.
func Default() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultOptions())
	}
	return defaultLogger
}

// SetDefault replaces the process logger and slog's default.
func SetDefault(logger *slog.Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

type loggerKey struct{}

// NewContext returns a context with the logger attached.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves the logger from context, or nil if not present.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return nil
}

// WithContext returns the context's logger, or the default one.
func WithContext(ctx context.Context) *slog.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return Default()
}

// ForResource returns the context's logger annotated with the resource's
// id, name and version, so every line about one mod can be grepped.
func ForResource(ctx context.Context, r model.Resource) *slog.Logger {
	args := []any{Resource(r.ID)}
	if r.Name != "" {
		args = append(args, Name(r.Name))
	}
	if r.Version != 0 {
		args = append(args, Version(r.Version))
	}
	return WithContext(ctx).With(args...)
}

// Attribute keys shared by all packages.
const (
	KeyResource  = "resource"
	KeyName      = "name"
	KeyVersion   = "version"
	KeyPath      = "path"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Resource is the remote resource id.
func Resource(id uint64) slog.Attr {
	return slog.Uint64(KeyResource, id)
}

// Name is a resource display name.
func Name(n string) slog.Attr {
	return slog.String(KeyName, n)
}

// Version is a resource version id.
func Version(v uint64) slog.Attr {
	return slog.Uint64(KeyVersion, v)
}

// Path is an archive or directory path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Operation names a sync step such as "scan local".
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Err returns an error attribute, or an empty one that slog drops for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}

// Count is a number of items.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration is an elapsed or waiting time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Timer logs the elapsed time of an operation at debug level when the
// returned function is called.
//
//	defer logging.Timer(ctx, "scan local")()
func Timer(ctx context.Context, op string) func() {
	start := time.Now()
	return func() {
		WithContext(ctx).Debug("operation finished", Operation(op), Duration(time.Since(start)))
	}
}
