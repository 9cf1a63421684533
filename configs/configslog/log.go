package configslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the structured logger used across handlers, services and repositories.
// SLog is its sugared twin for printf-style messages.
var (
	Log  *zap.Logger
	SLog *zap.SugaredLogger
)

// InitLogger builds the global loggers. Development mode uses the console
// encoder with colored levels; production emits JSON.
func InitLogger(appEnv string) error {
	var zcfg zap.Config
	if appEnv == "production" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := zcfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return err
	}

	Log = logger
	SLog = logger.Sugar()
	return nil
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func init() {
	// Safe defaults so packages can log before InitLogger runs (mainly tests).
	Log = zap.NewNop()
	SLog = Log.Sugar()
}
