package timer

import "fmt"

var (
	// ErrTimerExists 当定时器ID已存在时返回
	ErrTimerExists = fmt.Errorf("timer already exists")

	// ErrTimerNotFound 当定时器不存在时返回
	ErrTimerNotFound = fmt.Errorf("timer not found")

	// ErrInvalidInterval 当周期性定时器间隔不合法时返回
	ErrInvalidInterval = fmt.Errorf("interval must be positive")
)
