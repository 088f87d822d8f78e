package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"illusion-arcade/config"
)

// New builds the process logger. Console output is always JSON on stdout; when
// a log file is configured the same entries are tee'd into a rotated file.
func New(cfg config.LoggerConfig) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	cores := []zapcore.Core{newJSONCore(os.Stdout, level)}
	if cfg.File != "" {
		cores = append(cores, newJSONCore(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		}, level))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	zap.RedirectStdLog(logger)
	return logger, nil
}

// NewJSONLogger writes JSON entries to w. Tests use it with a buffer.
func NewJSONLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	return zap.New(newJSONCore(w, level), zap.AddStacktrace(zap.ErrorLevel))
}

func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("logger level invalid, must be one of: DEBUG, INFO, WARN, or ERROR (got %q)", level)
	}
}

func newJSONCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
	return zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(w)), level)
}
