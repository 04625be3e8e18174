package runner

import "context"

// RunFunc 任务运行函数，ctx 取消时应尽快返回
type RunFunc func(ctx context.Context) error

// StopFunc 任务停止函数
type StopFunc func(ctx context.Context) error

// worker 一个命名任务
type worker struct {
	name         string
	run          RunFunc
	stop         StopFunc
	exitOnReturn bool
}

// WorkerOption 任务选项
type WorkerOption func(*worker)

// WithStopFunc 设置停止函数，退出时按添加顺序逆序调用
func WithStopFunc(fn StopFunc) WorkerOption {
	return func(w *worker) {
		w.stop = fn
	}
}

// WithExitOnReturn 任务正常返回时也触发整体退出
func WithExitOnReturn() WorkerOption {
	return func(w *worker) {
		w.exitOnReturn = true
	}
}

func (w *worker) stopWith(ctx context.Context) error {
	if w.stop == nil {
		return nil
	}
	return w.stop(ctx)
}
