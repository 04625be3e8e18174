package logger

import "go.uber.org/zap"

// Option zap 构造选项
type Option = zap.Option

func AddCaller() Option             { return zap.AddCaller() }
func AddCallerSkip(skip int) Option { return zap.AddCallerSkip(skip) }
func AddStacktrace(level Level) Option {
	return zap.AddStacktrace(toZapLevel(level))
}
