// Package logging builds the zap loggers used by the bifold commands.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and encoding. Format is "json" or "console".
type Options struct {
	Level   string
	Format  string
	Verbose bool
	// Paths default to stderr.
	Paths []string
}

// New builds a logger. JSON output uses zap's production settings,
// console output the development encoder without stack traces below
// error. Verbose forces debug level.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = zapcore.ParseLevel(opts.Level); err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	case "json":
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if len(opts.Paths) > 0 {
		cfg.OutputPaths = opts.Paths
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return logger, nil
}
