package statemachine

import "context"

// ActionFunc 在进入状态时执行
type ActionFunc[S comparable] func(ctx context.Context, state S) error

// StateMachine 定义所有状态机的核心接口
type StateMachine[S, E comparable] interface {
	// Current 返回当前状态
	Current() S

	// Trigger 触发事件以转换状态
	Trigger(ctx context.Context, event E) error

	// Can 检查是否可以从当前状态触发事件
	Can(event E) bool

	// Reset 重置状态机到初始状态
	Reset() error
}
