// Package logging builds the zap logger used across drafts and adapts it to the
// draft diagnostics sink.
package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pders01/draftkeeper/internal/draft"
)

// New builds a logger at level. format is "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var config zap.Config
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		config = zap.NewDevelopmentConfig()
		config.DisableStacktrace = true
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (must be: console, json)", format)
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Sink reports draft persistence failures to a zap logger.
type Sink struct {
	logger *zap.Logger
}

// NewSink wraps logger. A nil logger discards reports.
func NewSink(logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{logger: logger}
}

// Report logs msg with err at warn level.
func (s *Sink) Report(msg string, err error) {
	fields := []zap.Field{zap.Error(err)}
	var derr *draft.Error
	if errors.As(err, &derr) {
		fields = append(fields, zap.String("key", derr.Key), zap.Stringer("kind", derr.Kind))
	}
	s.logger.Warn(msg, fields...)
}
