package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vidpersona/payments/internal/pkg/env"
)

var (
	global *zap.Logger
	once   sync.Once
)

// New builds a production JSON logger at the given level.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Get returns the process-wide logger, building it from LOG_LEVEL on first
// use. Falls back to info when the configured level is unparseable.
func Get() *zap.Logger {
	once.Do(func() {
		l, err := New(env.GetEnv("LOG_LEVEL", "info"))
		if err != nil {
			l, _ = New("info")
		}
		global = l
	})
	return global
}
