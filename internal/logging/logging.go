// Package logging builds the zap loggers used across the project.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger, or a human-readable development
// logger when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Must wraps New and panics on error. Logger construction only fails on
// broken sink configuration, which is fatal at startup anyway.
func Must(verbose bool) *zap.Logger {
	log, err := New(verbose)
	if err != nil {
		panic(err)
	}
	return log
}
