// Package logging wraps go.uber.org/zap for tmsu, reproducing the shape of
// theRebelliousNerd-codenerd's cmd/nerd/main.go root-command logger setup
// (a production config that flips to debug level under --verbose) and its
// internal/logging package's per-component child logger idiom, without the
// bespoke category enum that package used for its own (unrelated) domain.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. verbose raises the level to Debug,
// matching the CLI root command's --verbose flag.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// NewNop returns a logger that discards everything, for tests and library
// callers that don't want tmsu's log output.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// Component returns a child logger of base named name, or a no-op logger
// when base is nil.
func Component(base *zap.Logger, name string) *zap.Logger {
	if base == nil {
		return NewNop()
	}
	return base.Named(name)
}
