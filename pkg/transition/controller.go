package transition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/statemachine"
	"github.com/junbin-yang/go-transition/pkg/timeout"
	"github.com/junbin-yang/go-transition/pkg/timer"
)

// Scheduler 一次性定时器服务，*timer.Manager 实现了该接口
type Scheduler interface {
	CreateOnceTimer(id string, delay time.Duration, fn func()) error
	RemoveTimer(id string) error
}

// NotifyFunc 接收对外可见的状态变化
type NotifyFunc func(State)

// Record 一条阶段变化记录
type Record struct {
	From  Phase
	To    Phase
	Cause string
	At    time.Time
}

const defaultHistoryLimit = 32

// Controller 过渡状态控制器
//
// 可见性变化和定时器到期两类事件在控制器内串行处理。
// 通知在处理事件时同步发出，回调中可以读取 Phase/State，
// 但不能同步调用 SetVisible 或 Close。
type Controller struct {
	id  string
	fsm *statemachine.FSM[Phase, trigger]

	mu         sync.Mutex
	observed   bool // 是否已收到过可见性信号
	visible    bool // 最近一次可见性信号
	generation uint64
	pending    bool
	closed     bool

	cfgMu   sync.RWMutex
	timeout timeout.Timeout

	scheduler Scheduler
	notify    NotifyFunc
	logger    logger.Logger
	metrics   *Metrics
}

// Option 控制器选项
type Option func(*controllerOptions)

type controllerOptions struct {
	id           string
	timeout      timeout.Timeout
	scheduler    Scheduler
	notify       NotifyFunc
	logger       logger.Logger
	metrics      *Metrics
	clock        clockwork.Clock
	historyLimit int
}

// WithID 设置控制器ID，同时用作定时器名称，共享 Scheduler 时必须唯一
func WithID(id string) Option {
	return func(o *controllerOptions) { o.id = id }
}

// WithTimeout 设置初始时长配置
func WithTimeout(t timeout.Timeout) Option {
	return func(o *controllerOptions) { o.timeout = t }
}

// WithScheduler 设置定时器服务，默认使用真实时钟的 timer.Manager
func WithScheduler(s Scheduler) Option {
	return func(o *controllerOptions) { o.scheduler = s }
}

// WithNotify 设置状态通知回调
func WithNotify(fn NotifyFunc) Option {
	return func(o *controllerOptions) { o.notify = fn }
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(o *controllerOptions) { o.logger = l }
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(o *controllerOptions) { o.metrics = m }
}

// WithClock 设置历史记录使用的时钟
func WithClock(clock clockwork.Clock) Option {
	return func(o *controllerOptions) { o.clock = clock }
}

// WithHistoryLimit 设置保留的阶段变化记录条数
func WithHistoryLimit(n int) Option {
	return func(o *controllerOptions) { o.historyLimit = n }
}

// NewController 创建处于 BeforeMount 阶段的控制器
func NewController(opts ...Option) *Controller {
	o := controllerOptions{
		historyLimit: defaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}
	if o.scheduler == nil {
		o.scheduler = timer.NewManager(timer.WithLogger(o.logger))
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}

	c := &Controller{
		id: o.id,
		fsm: statemachine.NewFSM[Phase, trigger](PhaseBeforeMount,
			statemachine.WithClock(o.clock),
			statemachine.WithHistoryLimit(o.historyLimit),
		),
		timeout:   o.timeout,
		scheduler: o.scheduler,
		notify:    o.notify,
		logger:    o.logger,
		metrics:   o.metrics,
	}
	if err := c.fsm.AddTable(phaseTable); err != nil {
		panic(fmt.Sprintf("transition: invalid phase table: %v", err))
	}
	for _, p := range []Phase{PhaseMounted, PhaseEntering, PhaseEntered, PhaseExiting, PhaseExited} {
		c.fsm.SetOnEnter(p, c.logEnter)
	}
	return c
}

// ID 返回控制器ID
func (c *Controller) ID() string {
	return c.id
}

// Phase 返回当前阶段
func (c *Controller) Phase() Phase {
	return c.fsm.Current()
}

// State 返回对外可见的状态，BeforeMount/Mounted 阶段返回 false
func (c *Controller) State() (State, bool) {
	return c.fsm.Current().External()
}

// Mounted 子内容是否应当渲染
func (c *Controller) Mounted() bool {
	return c.fsm.Current() != PhaseBeforeMount
}

// Timeout 返回当前时长配置
func (c *Controller) Timeout() timeout.Timeout {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.timeout
}

// SetTimeout 替换时长配置，从下一次调度起生效
func (c *Controller) SetTimeout(t timeout.Timeout) {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.timeout = t
}

// History 返回最近的阶段变化记录
func (c *Controller) History() []Record {
	history := c.fsm.History()
	records := make([]Record, 0, len(history))
	for _, h := range history {
		records = append(records, Record{From: h.From, To: h.To, Cause: h.Event.String(), At: h.Timestamp})
	}
	return records
}

// SetVisible 处理可见性信号
//
//	true  + 上次 true        -> 无操作
//	true  + 上次 false/未知  -> 开始 appear/enter
//	false + 上次 true        -> 开始 exit
//	false + 上次 false/未知  -> 无操作
func (c *Controller) SetVisible(ctx context.Context, visible bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	observed, last := c.observed, c.visible
	wasVisible := observed && last
	c.observed = true
	c.visible = visible

	var err error
	switch {
	case visible && wasVisible:
	case visible:
		if c.Timeout().Appear() > 0 {
			err = c.edge(ctx, triggerAppear)
		} else {
			err = c.edge(ctx, triggerEnter)
		}
	case wasVisible:
		if c.Timeout().Exit() > 0 {
			err = c.edge(ctx, triggerExit)
		} else {
			err = c.edge(ctx, triggerExitNow)
		}
	}
	if err != nil {
		// 阶段未变，恢复可见性以便重试
		c.observed, c.visible = observed, last
	}
	return err
}

// Close 丢弃未完成的定时器，之后的到期回调均为空操作
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.cancelPending()
}

/* ------------------------------ 内部方法 ------------------------------ */

// edge 处理可见性变化：先抢占未完成的定时器，再转换阶段
func (c *Controller) edge(ctx context.Context, t trigger) error {
	preempted := c.cancelPending()
	if preempted {
		c.metrics.preempted()
		c.logger.Debug("transition preempted",
			logger.String("id", c.id),
			logger.Stringer("phase", c.Phase()),
			logger.Stringer("trigger", t),
		)
	}

	err := c.fire(ctx, t)
	if err != nil && preempted {
		// 转换失败，为原阶段重新启动定时器
		if rerr := c.schedule(c.fsm.Current()); rerr != nil {
			c.logger.Error("restore timer failed", logger.String("id", c.id), logger.GetError(rerr))
		}
	}
	return err
}

// tick 定时器到期回调，gen 不是当前代的视为过期
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.pending || gen != c.generation {
		c.metrics.staleTick()
		c.logger.Debug("stale tick ignored",
			logger.String("id", c.id),
			logger.Uint64("generation", gen),
			logger.Uint64("current", c.generation),
		)
		return
	}
	c.pending = false

	if err := c.fire(context.Background(), triggerTick); err != nil {
		c.logger.Error("transition tick failed",
			logger.String("id", c.id),
			logger.GetError(err),
		)
	}
}

// fire 按转换表前进并通知外部
//
// 新阶段的定时器先于阶段变化启动，调度失败时阶段保持不变。
func (c *Controller) fire(ctx context.Context, t trigger) error {
	from := c.fsm.Current()
	to, ok := c.fsm.Next(t)
	if !ok {
		c.logger.Warn("no transition for trigger",
			logger.String("id", c.id),
			logger.Stringer("phase", from),
			logger.Stringer("trigger", t),
		)
		return nil
	}

	if err := c.schedule(to); err != nil {
		return err
	}
	if err := c.fsm.Trigger(ctx, t); err != nil {
		c.cancelPending()
		return err
	}
	if from == to {
		return nil
	}
	if s, ok := to.External(); ok {
		c.metrics.notified(s)
		if c.notify != nil {
			c.notify(s)
		}
	}
	return nil
}

// schedule 为带时长的阶段启动定时器
func (c *Controller) schedule(p Phase) error {
	to := c.Timeout()

	var delay time.Duration
	switch p {
	case PhaseMounted:
		delay = to.AppearDuration()
	case PhaseEntering:
		delay = to.EnterDuration()
	case PhaseExiting:
		delay = to.ExitDuration()
	case PhaseBeforeMount, PhaseEntered, PhaseExited:
		return nil
	}

	c.generation++
	gen := c.generation
	if err := c.scheduler.CreateOnceTimer(c.timerID(), delay, func() { c.tick(gen) }); err != nil {
		return fmt.Errorf("schedule %s timer: %w", p, err)
	}
	c.pending = true
	c.metrics.timerScheduled(p)
	c.logger.Debug("timer scheduled",
		logger.String("id", c.id),
		logger.Stringer("phase", p),
		logger.Duration("delay", delay),
	)
	return nil
}

// cancelPending 使当前定时器失效，返回是否有未完成的定时器
func (c *Controller) cancelPending() bool {
	c.generation++
	if !c.pending {
		return false
	}
	c.pending = false
	if err := c.scheduler.RemoveTimer(c.timerID()); err != nil && !errors.Is(err, timer.ErrTimerNotFound) {
		c.logger.Warn("remove timer failed", logger.String("id", c.id), logger.GetError(err))
	}
	return true
}

func (c *Controller) timerID() string {
	return "transition/" + c.id
}

func (c *Controller) logEnter(_ context.Context, p Phase) error {
	c.logger.Debug("phase entered", logger.String("id", c.id), logger.Stringer("phase", p))
	return nil
}
