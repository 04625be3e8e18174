package config

import (
	"fmt"
	"time"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timeout"
)

// Config 应用配置
type Config struct {
	Timeout TimeoutConfig `yaml:"timeout" json:"timeout"`
	Logger  LoggerConfig  `yaml:"logger" json:"logger"`
	Demo    DemoConfig    `yaml:"demo" json:"demo"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// TimeoutConfig 过渡时长配置(毫秒)，未配置的字段按 timeout 包的规则回退
type TimeoutConfig struct {
	Uniform *uint32 `yaml:"timeout" json:"timeout" env:"TRANSITION_TIMEOUT_MS"`
	Appear  *uint32 `yaml:"appear" json:"appear" env:"TRANSITION_APPEAR_MS"`
	Enter   *uint32 `yaml:"enter" json:"enter" env:"TRANSITION_ENTER_MS"`
	Exit    *uint32 `yaml:"exit" json:"exit" env:"TRANSITION_EXIT_MS"`
}

// Timeout 转换为 timeout.Timeout
func (c TimeoutConfig) Timeout() timeout.Timeout {
	var t timeout.Timeout
	if c.Uniform != nil {
		t = timeout.New(*c.Uniform)
	}
	if c.Appear != nil {
		t = t.WithAppear(*c.Appear)
	}
	if c.Enter != nil {
		t = t.WithEnter(*c.Enter)
	}
	if c.Exit != nil {
		t = t.WithExit(*c.Exit)
	}
	return t
}

// IsZero 是否未指定任何时长
func (c TimeoutConfig) IsZero() bool {
	return c.Uniform == nil && c.Appear == nil && c.Enter == nil && c.Exit == nil
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level string              `yaml:"level" json:"level" env:"TRANSITION_LOG_LEVEL"`
	File  logger.RotateConfig `yaml:"file" json:"file"`
}

// DemoConfig 示例程序配置
type DemoConfig struct {
	Interval       time.Duration `yaml:"interval" json:"interval" env:"TRANSITION_DEMO_INTERVAL"`
	Cycles         int           `yaml:"cycles" json:"cycles" env:"TRANSITION_DEMO_CYCLES"` // 0 表示不限
	InitialVisible bool          `yaml:"initial_visible" json:"initial_visible" env:"TRANSITION_DEMO_INITIAL_VISIBLE"`
}

// MetricsConfig 指标端点配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"TRANSITION_METRICS_ENABLED"`
	Addr    string `yaml:"addr" json:"addr" env:"TRANSITION_METRICS_ADDR"`
}

// Default 返回默认配置
func Default() *Config {
	uniform := uint32(300)
	return &Config{
		Timeout: TimeoutConfig{Uniform: &uniform},
		Logger:  LoggerConfig{Level: "info"},
		Demo: DemoConfig{
			Interval: 2 * time.Second,
		},
		Metrics: MetricsConfig{Addr: ":9090"},
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger.level: %w", err)
	}
	if c.Demo.Interval <= 0 {
		return fmt.Errorf("demo.interval must be positive, got %v", c.Demo.Interval)
	}
	if c.Demo.Cycles < 0 {
		return fmt.Errorf("demo.cycles must not be negative, got %d", c.Demo.Cycles)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	return nil
}
