// Package logger implements a zerolog based logger tagged with a module name.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logging is the config info.
type Logging struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
}

// Logger wraps a zerolog logger with the module it logs for.
type Logger struct {
	*zerolog.Logger
	module string
}

// Module returns logger's module name.
func (l *Logger) Module() string {
	return l.module
}

// Named creates a child logger for a sub module.
func (l *Logger) Named(name string) *Logger {
	module := strings.ToUpper(name)
	if l.module != rootName {
		module = l.module + "." + module
	}
	sub := l.Logger.With().Str("module", module).Logger()
	return &Logger{Logger: &sub, module: module}
}

const rootName = "ROOT"

var (
	rootMu sync.RWMutex
	root   *Logger
)

// Init replaces the root logger.
func Init(cfg Logging) error {
	l, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}
	rootMu.Lock()
	root = l
	rootMu.Unlock()
	return nil
}

// GetLogger returns a logger for a module, the root logger without a scope.
func GetLogger(scope ...string) *Logger {
	rootMu.RLock()
	r := root
	rootMu.RUnlock()
	if r == nil {
		rootMu.Lock()
		if root == nil {
			root, _ = newLogger(Logging{Env: "prod", Level: "info"}, nil)
		}
		r = root
		rootMu.Unlock()
	}
	if len(scope) == 0 {
		return r
	}
	return r.Named(strings.Join(scope, "."))
}

func newLogger(cfg Logging, out io.Writer) (*Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w := out
	if w == nil {
		w = os.Stdout
	}
	if cfg.Env == "dev" {
		cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		cw.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		w = cw
	}
	l := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &Logger{Logger: &l, module: rootName}, nil
}
