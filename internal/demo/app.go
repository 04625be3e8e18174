package demo

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timeout"
	"github.com/junbin-yang/go-transition/pkg/transition"
)

const (
	content        = "Hello, World!"
	transitionRule = "transition: opacity 300ms ease-in-out;"
	defaultStyle   = "opacity: 0"
)

// App 一个按钮切换一段文字淡入淡出的示例
type App struct {
	toggleMu sync.Mutex // 串行化 Toggle

	mu     sync.Mutex
	open   bool
	state  transition.State
	styled bool // 是否已收到过状态通知
	styles map[transition.State]string

	ctrl   *transition.Controller
	out    io.Writer
	logger logger.Logger
}

// Option 示例程序选项
type Option func(*appOptions)

type appOptions struct {
	open      bool
	timeout   timeout.Timeout
	scheduler transition.Scheduler
	metrics   *transition.Metrics
	out       io.Writer
	logger    logger.Logger
}

// WithOpen 设置初始是否显示
func WithOpen(open bool) Option {
	return func(o *appOptions) { o.open = open }
}

// WithTimeout 设置过渡时长
func WithTimeout(t timeout.Timeout) Option {
	return func(o *appOptions) { o.timeout = t }
}

// WithScheduler 设置定时器服务
func WithScheduler(s transition.Scheduler) Option {
	return func(o *appOptions) { o.scheduler = s }
}

// WithMetrics 设置指标
func WithMetrics(m *transition.Metrics) Option {
	return func(o *appOptions) { o.metrics = m }
}

// WithOutput 每次状态变化后把视图写到 w
func WithOutput(w io.Writer) Option {
	return func(o *appOptions) { o.out = w }
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// New 创建示例程序
func New(opts ...Option) *App {
	o := appOptions{
		timeout: timeout.New(300),
		out:     io.Discard,
		logger:  logger.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		open: o.open,
		styles: map[transition.State]string{
			transition.Entering: "opacity: 0.0",
			transition.Entered:  "opacity: 1.0",
			transition.Exiting:  "opacity: 1.0",
			transition.Exited:   "opacity: 0.0",
		},
		out:    o.out,
		logger: o.logger,
	}

	ctrlOpts := []transition.Option{
		transition.WithID("demo"),
		transition.WithTimeout(o.timeout),
		transition.WithNotify(a.onState),
		transition.WithLogger(o.logger),
		transition.WithMetrics(o.metrics),
	}
	if o.scheduler != nil {
		ctrlOpts = append(ctrlOpts, transition.WithScheduler(o.scheduler))
	}
	a.ctrl = transition.NewController(ctrlOpts...)
	return a
}

// Controller 返回内部的过渡控制器
func (a *App) Controller() *transition.Controller {
	return a.ctrl
}

// Mount 把初始可见性交给控制器
func (a *App) Mount(ctx context.Context) error {
	a.toggleMu.Lock()
	defer a.toggleMu.Unlock()

	return a.ctrl.SetVisible(ctx, a.Open())
}

// Toggle 模拟点击按钮
func (a *App) Toggle(ctx context.Context) error {
	a.toggleMu.Lock()
	defer a.toggleMu.Unlock()

	a.mu.Lock()
	a.open = !a.open
	open := a.open
	a.mu.Unlock()

	a.logger.Info("button clicked", logger.Bool("open", open))
	return a.ctrl.SetVisible(ctx, open)
}

// Open 当前是否显示
func (a *App) Open() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

// State 最近一次收到的状态
func (a *App) State() (transition.State, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.styled
}

// ButtonText 按钮文字
func (a *App) ButtonText() string {
	if a.Open() {
		return "Beep"
	}
	return "Boop"
}

// Style 文字的内联样式
func (a *App) Style() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.styled {
		return defaultStyle + ";" + transitionRule
	}
	return a.styles[a.state] + ";" + transitionRule
}

// View 渲染当前视图
func (a *App) View() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div><button>%s</button></div>", a.ButtonText())

	b.WriteString("<div>")
	if text, ok := transition.Render(a.ctrl, content); ok {
		fmt.Fprintf(&b, "<p style=%q>%s</p>", a.Style(), text)
	}
	b.WriteString("</div>")
	return b.String()
}

// Close 释放控制器
func (a *App) Close() {
	a.ctrl.Close()
}

func (a *App) onState(s transition.State) {
	a.mu.Lock()
	a.state = s
	a.styled = true
	a.mu.Unlock()

	a.logger.Debug("transition state", logger.Stringer("state", s))
	fmt.Fprintln(a.out, a.View())
}
