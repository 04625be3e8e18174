package timer

import (
	"github.com/jonboulle/clockwork"

	"github.com/junbin-yang/go-transition/pkg/logger"
)

// Option 定时器管理器选项
type Option func(*Manager)

// WithClock 设置时钟，测试中可传入 clockwork.NewFakeClock()
func WithClock(clock clockwork.Clock) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}
