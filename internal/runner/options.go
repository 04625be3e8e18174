package runner

import (
	"context"
	"os"
	"time"

	"github.com/junbin-yang/go-transition/pkg/logger"
)

// Option 运行器选项
type Option func(*Runner)

// WithSignals 设置监听的退出信号
func WithSignals(signals ...os.Signal) Option {
	return func(r *Runner) {
		r.signals = signals
	}
}

// WithShutdownTimeout 设置退出超时时间
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(r *Runner) {
		r.shutdownTimeout = timeout
	}
}

// WithContext 设置根上下文，取消时触发退出
func WithContext(ctx context.Context) Option {
	return func(r *Runner) {
		r.rootCtx = ctx
	}
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}
