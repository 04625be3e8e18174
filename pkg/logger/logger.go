package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Level 日志级别
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
	PanicLevel
	FatalLevel
)

// ParseLevel 解析配置中的日志级别，大小写不敏感
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "panic":
		return PanicLevel, nil
	case "fatal":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// Field 结构化字段
type Field = zap.Field

// Logger 日志接口，可替换为自定义实现
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Panic(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Panicf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})

	SetLevel(level Level)
	Sync() error
}

var (
	stdMu sync.RWMutex
	std   Logger = New(os.Stderr, InfoLevel, AddCaller(), AddCallerSkip(2))
)

func Default() Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

func ReplaceDefault(l Logger) {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = l
}

func SetLevel(level Level) { Default().SetLevel(level) }

func Debug(msg string, fields ...Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...Field) { Default().Error(msg, fields...) }

func Debugf(format string, v ...interface{}) { Default().Debugf(format, v...) }
func Infof(format string, v ...interface{})  { Default().Infof(format, v...) }
func Warnf(format string, v ...interface{})  { Default().Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { Default().Errorf(format, v...) }

func Sync() error { return Default().Sync() }
