// Package logger is the process-wide structured logger.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	maxLogSize      = 10 * 1024 * 1024 // 10MB
	maxLogRotations = 5
)

// Config holds logging configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	OutputPath string // stdout, stderr or file path; empty selects DefaultLogPath
}

var (
	mu           sync.RWMutex
	globalLogger = zap.NewNop()
	globalSugar  = globalLogger.Sugar()
	globalLevel  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// DefaultLogPath is the log file used when no output path is configured.
func DefaultLogPath() string {
	return filepath.Join(os.TempDir(), "filecrawl-logs", "filecrawl.log")
}

// InitLogger builds the global logger. Until it is called every log call
// is discarded.
func InitLogger(cfg Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	output := cfg.OutputPath
	if output == "" {
		output = DefaultLogPath()
	}
	if output != "stdout" && output != "stderr" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		rotateLogFile(output)
	}

	lvl := zap.NewAtomicLevelAt(level)
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{output}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	l, err := zcfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	mu.Lock()
	globalLogger = l
	globalSugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	globalLevel = lvl
	mu.Unlock()
	return nil
}

// rotateLogFile shifts path to path.1, path.1 to path.2 and so on when
// path has grown past maxLogSize.
func rotateLogFile(logPath string) {
	fi, err := os.Stat(logPath)
	if err != nil || fi.Size() <= maxLogSize {
		return
	}
	for i := maxLogRotations - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)
		os.Rename(oldPath, newPath)
	}
	os.Rename(logPath, logPath+".1")
}

// SetLogger replaces the global logger and returns a function restoring the
// previous one.
func SetLogger(l *zap.Logger) (restore func()) {
	mu.Lock()
	prevLogger, prevSugar := globalLogger, globalSugar
	globalLogger = l
	globalSugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	mu.Unlock()
	return func() {
		mu.Lock()
		globalLogger, globalSugar = prevLogger, prevSugar
		mu.Unlock()
	}
}

// SetLevel changes the log level at runtime.
func SetLevel(level string) {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return
	}
	mu.RLock()
	globalLevel.SetLevel(l)
	mu.RUnlock()
}

// L returns the global logger for structured fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return globalSugar
}

// CloseLogger flushes buffered entries.
func CloseLogger() {
	if err := L().Sync(); err != nil {
		// Sync on stdout/stderr returns EINVAL on Linux.
		if !isInvalidSync(err) {
			fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}
}

func LogDebug(format string, args ...interface{}) {
	sugar().Debugf(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	sugar().Infof(format, args...)
}

func LogWarning(format string, args ...interface{}) {
	sugar().Warnf(format, args...)
}

func LogError(format string, args ...interface{}) {
	sugar().Errorf(format, args...)
}
