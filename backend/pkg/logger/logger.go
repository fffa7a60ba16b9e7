package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger, nil until Init succeeds
var Logger *zap.Logger

// Init builds the process-wide logger for env. Production logs JSON at info
// and everything else logs colored console output at debug. A non-empty level
// replaces the env default.
func Init(env, level string) error {
	cfg, err := configFor(env, level)
	if err != nil {
		return err
	}

	built, err := cfg.Build(zap.Fields(zap.String("service", "suitemate")))
	if err != nil {
		return err
	}
	Logger = built
	return nil
}

func configFor(env, level string) (zap.Config, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		atomic, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return cfg, err
		}
		cfg.Level = atomic
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg, nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the process-wide logger, or a no-op logger before Init
func Get() *zap.Logger {
	if Logger == nil {
		return zap.NewNop()
	}
	return Logger
}

// Named returns the process-wide logger scoped to a component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
