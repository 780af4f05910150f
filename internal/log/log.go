// Package log holds the process-wide zap logger. Rendering is chatty at
// debug level; the console stays at info unless MEDIA_MONKEY_DEBUG is set.
package log

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

const logFileName = "media-monkey.log"

// InitLogger configures the global logger. If logDir is non-empty, a JSON
// debug log is written there in addition to the console output.
func InitLogger(logDir string) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleLevel := zap.InfoLevel
	if os.Getenv("MEDIA_MONKEY_DEBUG") != "" {
		consoleLevel = zap.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), consoleLevel),
	}

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
			if err == nil {
				cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), zap.DebugLevel))
			}
		}
	}

	Logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// GetLogger returns the global logger, initializing a console-only one on
// first use so library code never has to nil-check.
func GetLogger() *zap.Logger {
	if Logger == nil {
		InitLogger("")
	}
	return Logger
}
