package config

import (
	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timer"
)

// Option 配置管理器选项
type Option func(*Manager)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithTimerManager 设置监听防抖使用的定时器管理器
func WithTimerManager(tm *timer.Manager) Option {
	return func(m *Manager) {
		m.timers = tm
	}
}
