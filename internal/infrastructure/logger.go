package infrastructure

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Logger *zap.Logger
)

// Init builds the process logger at the given level ("debug", "info",
// "warn", "error"; anything else falls back to info).
func Init(level string) {
	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	Logger, _ = cfg.Build()
	Logger.Info("infrastructure initialized", zap.String("log_level", lvl.String()))
}
