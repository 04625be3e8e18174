package runner

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/junbin-yang/go-transition/pkg/logger"
)

// HookFunc 启动/退出钩子
type HookFunc func(ctx context.Context) error

// Runner 进程级任务运行器
//
// Run 启动所有任务，收到信号、根上下文取消、任务出错或
// WithExitOnReturn 任务返回时开始退出。
type Runner struct {
	mu       sync.Mutex
	workers  []*worker
	names    map[string]struct{}
	startup  []HookFunc
	shutdown []HookFunc
	onExit   []func(name string, err error)

	signals         []os.Signal
	shutdownTimeout time.Duration
	rootCtx         context.Context
	logger          logger.Logger

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	result  error
}

// New 创建运行器
func New(opts ...Option) *Runner {
	r := &Runner{
		names:           make(map[string]struct{}),
		signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		shutdownTimeout: 30 * time.Second,
		rootCtx:         context.Background(),
		logger:          logger.Default(),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add 添加任务，只能在 Run 之前调用
func (r *Runner) Add(name string, run RunFunc, opts ...WorkerOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRunning
	}
	if _, exists := r.names[name]; exists {
		return ErrWorkerExists
	}

	w := &worker{name: name, run: run}
	for _, opt := range opts {
		opt(w)
	}
	r.names[name] = struct{}{}
	r.workers = append(r.workers, w)
	return nil
}

// OnStartup 注册启动钩子，任一钩子失败则 Run 直接返回
func (r *Runner) OnStartup(fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startup = append(r.startup, fn)
}

// OnShutdown 注册退出钩子，在所有任务结束后调用
func (r *Runner) OnShutdown(fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = append(r.shutdown, fn)
}

// OnWorkerExit 注册任务结束回调
func (r *Runner) OnWorkerExit(fn func(name string, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExit = append(r.onExit, fn)
}

// Run 运行所有任务并阻塞到退出完成
//
// 返回第一个出错任务的错误；正常退出时返回退出过程中的错误。
func (r *Runner) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.running = true
	ctx, cancel := context.WithCancel(r.rootCtx)
	r.cancel = cancel
	workers := append([]*worker(nil), r.workers...)
	startup := append([]HookFunc(nil), r.startup...)
	r.mu.Unlock()

	defer close(r.done)
	defer cancel()

	for _, fn := range startup {
		if err := fn(ctx); err != nil {
			r.result = err
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	if len(r.signals) > 0 {
		signal.Notify(sigChan, r.signals...)
		defer signal.Stop(sigChan)
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(workers))
	finished := make(chan string, len(workers))

	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()

			r.logger.Debug("worker started", logger.String("worker", w.name))
			err := w.run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			r.workerExited(w.name, err)

			if err != nil {
				errChan <- err
				return
			}
			if w.exitOnReturn {
				finished <- w.name
			}
		}(w)
	}

	var runErr error
	select {
	case sig := <-sigChan:
		r.logger.Info("signal received", logger.String("signal", sig.String()))
	case runErr = <-errChan:
	case name := <-finished:
		r.logger.Info("worker finished", logger.String("worker", name))
	case <-ctx.Done():
	}

	err := r.stop(cancel, workers, &wg)
	if runErr != nil {
		err = runErr
	}
	r.result = err
	return err
}

// Shutdown 触发退出并等待 Run 返回
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	running := r.running
	cancel := r.cancel
	r.mu.Unlock()

	if !running || cancel == nil {
		return nil
	}
	cancel()
	<-r.done
	return r.result
}

/* ------------------------------ 内部方法 ------------------------------ */

// stop 取消所有任务，逆序调用停止函数，等待任务结束后调用退出钩子
func (r *Runner) stop(cancel context.CancelFunc, workers []*worker, wg *sync.WaitGroup) error {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer shutdownCancel()

	cancel()

	for i := len(workers) - 1; i >= 0; i-- {
		if err := workers[i].stopWith(shutdownCtx); err != nil {
			r.logger.Warn("worker stop failed", logger.String("worker", workers[i].name), logger.GetError(err))
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		r.logger.Error("shutdown timeout", logger.Duration("timeout", r.shutdownTimeout))
		return ErrShutdownTimeout
	}

	r.mu.Lock()
	hooks := append([]HookFunc(nil), r.shutdown...)
	r.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) workerExited(name string, err error) {
	if err != nil {
		r.logger.Error("worker exited", logger.String("worker", name), logger.GetError(err))
	} else {
		r.logger.Debug("worker exited", logger.String("worker", name))
	}

	r.mu.Lock()
	hooks := append(([]func(string, error))(nil), r.onExit...)
	r.mu.Unlock()

	for _, fn := range hooks {
		fn(name, err)
	}
}
