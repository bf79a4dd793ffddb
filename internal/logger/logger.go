// Package logger owns the process-wide slog logger. Services log through
// AppContext.Logger; code without an AppContext (the error mapper, commands)
// uses L.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oggyb/callfirst/internal/config"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

type Config struct {
	Level      string
	Format     Format
	Component  string
	WithSource bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu     sync.RWMutex
	global *slog.Logger
)

// FromConfig extracts the Log section of the app config. A nil config gives
// the defaults: info level, text format.
func FromConfig(c *config.Config) Config {
	if c == nil {
		return Config{}
	}
	return Config{
		Level:      c.Log.Level,
		Format:     Format(c.Log.Format),
		Component:  c.Log.Component,
		WithSource: c.Log.Source,
	}
}

// InitFromConfig installs the global logger described by c and returns it.
func InitFromConfig(c *config.Config) *slog.Logger {
	return Init(FromConfig(c))
}

// Init installs a logger built from c as the global logger and returns it.
// Safe to call multiple times.
func Init(c Config) *slog.Logger {
	l := New(c)
	mu.Lock()
	global = l
	mu.Unlock()
	return l
}

// New builds a logger from c without installing it.
func New(c Config) *slog.Logger {
	out := c.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:     parseLevel(c.Level),
		AddSource: c.WithSource,
	}

	var handler slog.Handler
	if Format(strings.ToLower(string(c.Format))) == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		opts.ReplaceAttr = shortTime
		handler = slog.NewTextHandler(out, opts)
	}

	l := slog.New(handler)
	if c.Component != "" {
		l = l.With("component", c.Component)
	}
	return l
}

// L returns the global logger, installing the default one on first use.
func L() *slog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	return Init(Config{})
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shortTime renders the record's own time as UTC seconds in text output.
func shortTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.DateTime))
	}
	return a
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
