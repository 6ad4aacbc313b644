// Package logger builds the service zap logger and carries request-scoped
// loggers in a context.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry.
const ServiceName = "sitesearch"

// NewLogger creates a zap logger for env: JSON for prod, console otherwise.
// An optional non-empty level (debug, info, warn, error) overrides the
// environment default.
func NewLogger(env string, level ...string) (*zap.Logger, error) {
	cfg, err := configFor(env)
	if err != nil {
		return nil, err
	}

	if len(level) > 0 && level[0] != "" {
		lvl, err := zapcore.ParseLevel(level[0])
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level[0], err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

func configFor(env string) (zap.Config, error) {
	switch env {
	case "prod":
		cfg := zap.NewProductionConfig()
		cfg.Sampling = nil
		return cfg, nil
	case "local", "dev", "docker", "unittest":
		return zap.NewDevelopmentConfig(), nil
	}
	return zap.Config{}, fmt.Errorf("unknown environment %q for logger", env)
}
