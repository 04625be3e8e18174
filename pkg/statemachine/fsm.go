package statemachine

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
)

// FSM 有限状态机实现，状态与事件为任意可比较类型
type FSM[S, E comparable] struct {
	mu          sync.RWMutex
	current     S
	initial     S
	transitions map[transitionKey[S, E]]*Transition[S, E]
	onEnter     map[S]ActionFunc[S]

	clock        clockwork.Clock
	historyLimit int
	history      []History[S, E]
}

// Option 状态机配置选项
type Option func(*options)

type options struct {
	clock        clockwork.Clock
	historyLimit int
}

// WithClock 设置记录历史时使用的时钟
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithHistoryLimit 保留最近 n 条转换记录，n <= 0 时不记录
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.historyLimit = n
	}
}

// NewFSM 创建新的有限状态机
func NewFSM[S, E comparable](initial S, opts ...Option) *FSM[S, E] {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}

	return &FSM[S, E]{
		current:      initial,
		initial:      initial,
		transitions:  make(map[transitionKey[S, E]]*Transition[S, E]),
		onEnter:      make(map[S]ActionFunc[S]),
		clock:        o.clock,
		historyLimit: o.historyLimit,
	}
}

// Current 返回当前状态
func (f *FSM[S, E]) Current() S {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// AddTransition 添加状态转换规则
func (f *FSM[S, E]) AddTransition(from, to S, event E) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(Transition[S, E]{From: from, To: to, Event: event})
}

// AddTable 批量添加转换规则，遇到重复规则时返回错误
func (f *FSM[S, E]) AddTable(table Table[S, E]) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range table {
		if err := f.addLocked(t); err != nil {
			return fmt.Errorf("%v --%v--> %v: %w", t.From, t.Event, t.To, err)
		}
	}
	return nil
}

func (f *FSM[S, E]) addLocked(t Transition[S, E]) error {
	key := transitionKey[S, E]{from: t.From, event: t.Event}
	if _, exists := f.transitions[key]; exists {
		return ErrDuplicateTransition
	}
	f.transitions[key] = &t
	return nil
}

// SetOnEnter 设置状态进入时的回调
// 回调在状态机锁内执行，不能再调用该状态机的方法
func (f *FSM[S, E]) SetOnEnter(state S, action ActionFunc[S]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onEnter[state] = action
}

// Can 检查是否可以触发事件
func (f *FSM[S, E]) Can(event E) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, exists := f.transitions[transitionKey[S, E]{from: f.current, event: event}]
	return exists
}

// Next 返回当前状态下触发事件将到达的状态，不做转换
func (f *FSM[S, E]) Next(event E) (S, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	trans, exists := f.transitions[transitionKey[S, E]{from: f.current, event: event}]
	if !exists {
		var zero S
		return zero, false
	}
	return trans.To, true
}

// Trigger 触发事件进行状态转换
func (f *FSM[S, E]) Trigger(ctx context.Context, event E) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	trans, exists := f.transitions[transitionKey[S, E]{from: f.current, event: event}]
	if !exists {
		return ErrInvalidTransition
	}

	from := f.current
	f.current = trans.To
	f.record(from, trans.To, event)

	if enterFn, ok := f.onEnter[trans.To]; ok {
		if err := enterFn(ctx, trans.To); err != nil {
			return err
		}
	}

	return nil
}

// Reset 重置到初始状态并清空历史
func (f *FSM[S, E]) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.initial
	f.history = nil
	return nil
}
