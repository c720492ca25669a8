package main

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sleepsense/sleepview/internal/config"
)

const defaultLogFile = "sleepview.log"

// createLogger builds the process logger. The terminal viewer owns the
// screen, so its logs always go to a file.
func createLogger(cfg *config.Config, tuiMode bool) (*zap.Logger, error) {
	var zc zap.Config

	switch cfg.Application.LogLevel {
	case "debug":
		zc = zap.NewDevelopmentConfig()
	case "warn":
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zc = zap.NewProductionConfig()
	}

	lc := cfg.Monitoring.Logging
	zc.Encoding = "console"
	if lc.Format == "json" {
		zc.Encoding = "json"
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	output := lc.Output
	if tuiMode && output != "file" {
		output = "file"
	}
	switch output {
	case "stdout":
		zc.OutputPaths = []string{"stdout"}
	case "file":
		path := lc.FilePath
		if path == "" {
			path = defaultLogFile
		}
		zc.OutputPaths = []string{path}
	default:
		zc.OutputPaths = []string{"stderr"}
	}
	zc.ErrorOutputPaths = zc.OutputPaths

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("run", uuid.NewString()[:8]), zap.String("version", cfg.Application.Version)), nil
}
