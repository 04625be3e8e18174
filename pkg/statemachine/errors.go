package statemachine

import "fmt"

var (
	// ErrInvalidTransition 当状态转换不被允许时返回
	ErrInvalidTransition = fmt.Errorf("invalid transition")

	// ErrDuplicateTransition 当转换规则已存在时返回
	ErrDuplicateTransition = fmt.Errorf("duplicate transition")
)
