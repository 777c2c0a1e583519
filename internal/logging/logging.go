// Package logging builds the zap logger used by the smokecheck CLI and adapts
// it to the store's logging interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"smokecheck/internal/core"
)

// New builds a zap logger writing to w (stderr when nil).
// level: debug, info, warn, error. format: json, console.
func New(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl := zap.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.MessageKey = "message"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "json":
		enc = zapcore.NewJSONEncoder(encoderCfg)
	case "console":
		enc = zapcore.NewConsoleEncoder(encoderCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	if w == nil {
		w = os.Stderr
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), lvl)), nil
}

// Adapter exposes a zap logger through core.Logger. Variadic args are
// alternating key/value pairs.
type Adapter struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*Adapter)(nil)

// NewAdapter wraps l; a nil logger yields a no-op adapter.
func NewAdapter(l *zap.Logger) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{sugar: l.Sugar()}
}

// Debug implements core.Logger.
func (a *Adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }

// Info implements core.Logger.
func (a *Adapter) Info(msg string, args ...any) { a.sugar.Infow(msg, args...) }

// Warn implements core.Logger.
func (a *Adapter) Warn(msg string, args ...any) { a.sugar.Warnw(msg, args...) }

// Error implements core.Logger.
func (a *Adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }

// Sync flushes buffered entries.
func (a *Adapter) Sync() error { return a.sugar.Sync() }
