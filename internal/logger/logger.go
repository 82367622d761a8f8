// Package logger собирает zap-логгер сервиса.
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options — настройки логгера из конфигурации.
type Options struct {
	Level string
	Dev   bool
	// File путь к файлу лога, при пустом пишем только в stdout.
	File string
}

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New возвращает логгер: в dev-режиме консольный, иначе JSON с ISO8601.
// При заданном File вывод дублируется в файл с суточной ротацией.
// closeFn закрывает файл лога; вызывать после Sync при остановке.
func New(o Options) (l *zap.Logger, closeFn func() error, err error) {
	lvl := levelFromString(o.Level)
	if o.Level == "" && o.Dev {
		lvl = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	if o.Dev {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	closeFn = func() error { return nil }
	sink := zapcore.AddSync(os.Stdout)
	if o.File != "" {
		w, err := rotatingWriter(o.File)
		if err != nil {
			return nil, nil, err
		}
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(w))
		closeFn = w.Close
	}

	core := zapcore.NewCore(encoder, sink, lvl)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if o.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), closeFn, nil
}

func rotatingWriter(path string) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return rotatelogs.New(
		path+".%Y%m%d",
		rotatelogs.WithLinkName(path),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(7*24*time.Hour),
	)
}
