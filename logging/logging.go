package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger for the given environment.
// development logs at debug, production as JSON at info and local as a
// colored console at info without stack traces.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "development", "dev":
		return zap.NewDevelopment()
	case "production", "prod", "":
		return zap.NewProduction()
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return nil, fmt.Errorf("unknown logging environment %q", env)
}
