package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"thermaldetect/internal/config"
	"thermaldetect/internal/events"
)

// Logger provides leveled logging (info/warning/error). Every entry goes two
// places: the caller-facing event stream as a log event, and a diagnostic log
// file in the configured log directory. Nothing is ever written to stdout
// directly, that channel belongs to the event stream.
type Logger struct {
	diag    *zap.SugaredLogger
	emitter *events.Emitter
}

// New creates a Logger and ensures the log directory exists. The run id tags
// every diagnostic entry so overlapping runs can be told apart.
func New(settings *config.Settings, emitter *events.Emitter, runID string) (*Logger, error) {
	if err := os.MkdirAll(settings.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(settings.LogDirectory, "detect.log")}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	diag, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build diagnostic logger: %w", err)
	}

	return &Logger{
		diag:    diag.Sugar().With("run_id", runID),
		emitter: emitter,
	}, nil
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.diag.Info(msg)
	l.emitter.Log(events.LevelInfo, msg)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.diag.Warn(msg)
	l.emitter.Log(events.LevelWarning, msg)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	l.diag.Error(msg)
	l.emitter.Log(events.LevelError, msg)
}

// Sync flushes buffered diagnostic entries.
func (l *Logger) Sync() {
	_ = l.diag.Sync()
}
