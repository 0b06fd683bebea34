// Package logging configures the structured slog pipeline shared by every
// component of the bot: a single ordered-key handler writing KV or JSON lines
// to stdout and, optionally, a log file.
package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config declares logging settings, normally read from the YAML config file.
type Config struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
	Profile string `yaml:"profile"`
}

var (
	initOnce sync.Once
	levelVar slog.LevelVar
	writer   *lineWriter
	closers  []io.Closer

	// L is the base logger; component loggers are derived from it.
	L *slog.Logger
)

// Init configures the global structured logger. It may be called only once;
// later calls are no-ops.
func Init(cfg Config) error {
	var initErr error
	initOnce.Do(func() {
		levelVar.Set(parseLevel(cfg.Level))

		outputs := []io.Writer{os.Stdout}
		if f := openLogFile(cfg); f != nil {
			outputs = append(outputs, f)
			closers = append(closers, f)
		}
		writer = newLineWriter(outputs, 0)

		handler := newOrderedHandler(handlerConfig{
			level:  &levelVar,
			out:    writer,
			format: parseFormat(cfg),
		})
		L = slog.New(handler)
		slog.SetDefault(L)
	})
	return initErr
}

// Shutdown flushes buffered output and closes opened log files.
func Shutdown() error {
	var first error
	if writer != nil {
		first = writer.Flush()
	}
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Component returns a logger scoped to the given component attribute.
func Component(name string) *slog.Logger {
	base := L
	if base == nil {
		base = slog.Default()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return base
	}
	return base.With("component", name)
}

// Event logs an event for a component at the given level.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	logg := Component(component)
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

// Debug logs a debug-level event for the given component.
func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelDebug, event, attrs...)
}

// Info logs an info-level event for the given component.
func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelInfo, event, attrs...)
}

// Warn logs a warn-level event for the given component.
func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelWarn, event, attrs...)
}

// Error logs an error-level event for the given component.
func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Event(ctx, component, slog.LevelError, event, attrs...)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseFormat(cfg Config) logFormat {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if strings.EqualFold(cfg.Profile, "debug") || strings.EqualFold(cfg.Profile, "dev") {
		return formatKV
	}
	return formatJSON
}

func openLogFile(cfg Config) *os.File {
	dir := strings.TrimSpace(cfg.Dir)
	file := strings.TrimSpace(cfg.File)
	if dir == "" || file == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logging: create log dir %s: %v", dir, err)
		return nil
	}
	path := filepath.Join(dir, file)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logging: open log file %s: %v", path, err)
		return nil
	}
	return f
}
