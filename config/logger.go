package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger = zap.NewNop()

// InitLogger builds the application logger for the given config. Production
// uses JSON output, everything else the development console encoder. The
// LOG_LEVEL env value picks the minimum level.
func InitLogger(cfg *Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	logger = l
	return l, nil
}

// Logger returns the application logger. Before InitLogger it is a no-op
// logger, so tests can call logging code without setup.
func Logger() *zap.Logger {
	return logger
}

// SetLogger replaces the application logger (used by tests)
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
