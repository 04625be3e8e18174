package statemachine

// Transition 定义状态转换规则
type Transition[S, E comparable] struct {
	From  S // 源状态
	To    S // 目标状态
	Event E // 触发事件
}

// Table 转换规则表，便于声明式定义
type Table[S, E comparable] []Transition[S, E]

// transitionKey 唯一标识一个转换
type transitionKey[S, E comparable] struct {
	from  S
	event E
}
