// Package logger is the process-wide structured logger. Every line carries a
// component and an event name plus whatever update metadata the context holds.
package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/tagbot/core/buildinfo"
	coreconfig "github.com/m3rciful/tagbot/core/config"
)

var (
	initOnce sync.Once

	mu      sync.Mutex
	base    *slog.Logger
	out     *asyncWriter
	closers []io.Closer

	levelVar     slog.LevelVar
	debugSampler = newRatioSampler(1, 50)
)

// InitLogger configures the global logger. Calls after the first are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	var err error
	initOnce.Do(func() {
		err = install(cfg)
	})
	return err
}

func install(cfg *coreconfig.Config) error {
	var logging coreconfig.LoggingConfig
	if cfg != nil {
		logging = cfg.Logging
	}
	levelVar.Set(parseLevel(logging.Level))
	debugSampler.Set(parseDebugSample(logging.DebugSample))

	sinks, files := openSinks(logging)
	w := newAsyncWriter(sinks, 64*1024)
	l := slog.New(newStructuredHandler(handlerConfig{
		level:    &levelVar,
		writer:   w,
		format:   parseFormat(logging),
		keyOrder: parseKeyOrder(logging.KeysOrder),
	}))

	mu.Lock()
	base, out, closers = l, w, files
	mu.Unlock()
	slog.SetDefault(l)

	Info(context.Background(), "app", "startup",
		slog.String("go_version", runtime.Version()),
		slog.String("build_version", buildinfo.Version),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", profile(logging)),
	)
	return nil
}

// Shutdown flushes buffered output and closes log files. It is safe to call twice.
func Shutdown() error {
	mu.Lock()
	w, files := out, closers
	out, closers = nil, nil
	mu.Unlock()

	var errs []error
	if w != nil {
		errs = append(errs, w.Flush(), w.Close())
	}
	for _, c := range files {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return base
}

// Event writes one line for component at level. It is a no-op before InitLogger.
func Event(ctx context.Context, component string, level slog.Level, event string, attrs ...slog.Attr) {
	l := current()
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	head := make([]slog.Attr, 0, len(attrs)+2)
	if c := strings.TrimSpace(component); c != "" {
		head = append(head, slog.String("component", c))
	}
	head = append(head, slog.String("event", event))
	l.LogAttrs(ctx, level, event, append(head, attrs...)...)
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

// ShouldSampleDebug reports whether a high-volume debug event should be logged.
// LOG_TRACE=1 disables sampling.
func ShouldSampleDebug() bool {
	if isTruthy(os.Getenv("LOG_TRACE")) {
		return true
	}
	return debugSampler.Allow()
}

func parseFormat(cfg coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch profile(cfg) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func parseKeyOrder(raw string) []string {
	raw = strings.TrimSpace(raw)
	var order []string
	if raw != "default" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
	}
	if len(order) == 0 {
		return append([]string(nil), defaultKeyOrder...)
	}
	return order
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// openSinks always includes stdout; an unusable log file is reported and skipped.
func openSinks(cfg coreconfig.LoggingConfig) ([]io.Writer, []io.Closer) {
	sinks := []io.Writer{os.Stdout}
	dir, name := strings.TrimSpace(cfg.Dir), strings.TrimSpace(cfg.BotFile)
	if dir == "" || name == "" {
		return sinks, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create log dir %s: %v", dir, err)
		return sinks, nil
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open log file %s: %v", path, err)
		return sinks, nil
	}
	return append(sinks, f), []io.Closer{f}
}

func profile(cfg coreconfig.LoggingConfig) string {
	if p := strings.TrimSpace(cfg.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

func parseDebugSample(spec string) (int, int) {
	if strings.TrimSpace(spec) == "" {
		return 1, 50
	}
	num, den := parseRatioSpec(spec)
	switch {
	case num == 0 && den == 0:
		return 0, 0
	case num <= 0 || den <= 0:
		return 1, 50
	}
	return num, den
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
