// Package logging builds zap loggers for pagekit components. Loggers are
// always injected at construction; this package never stores one.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the log output encoding.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures logger construction.
type Options struct {
	Level   string // debug, info, warn, error (default info)
	Format  string // console or json (default console)
	NoColor bool   // disable ANSI level colors in console format
}

// New builds a zap logger writing to stderr.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
	} else {
		level.SetLevel(zap.InfoLevel)
	}

	encoder, err := newEncoder(opts)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

func newEncoder(opts Options) (zapcore.Encoder, error) {
	switch opts.Format {
	case FormatJSON:
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(cfg), nil
	case FormatConsole, "":
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		if opts.NoColor {
			cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		} else {
			cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		return zapcore.NewConsoleEncoder(cfg), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}
