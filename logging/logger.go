package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"roomgrid/config"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Init builds the process logger from cfg and installs it for Get.
func Init(cfg config.Config) (*zap.Logger, error) {
	var zc zap.Config

	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if cfg.Log.File != "" {
		zc.OutputPaths = []string{cfg.Log.File}
		zc.ErrorOutputPaths = []string{cfg.Log.File}
		// Color codes are noise in a file.
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return l, nil
}

// Get retrieves the process logger, a no-op logger before Init.
func Get() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}
