package config

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timer"
)

const (
	defaultDebounce = 500 * time.Millisecond
	reloadTimerID   = "config/reload"
)

// ErrNotLoaded Load 之前调用 Reload/Watch
var ErrNotLoaded = errors.New("config not loaded")

// Manager 配置管理器
//
// Get 返回的配置视为只读快照，重新加载时整体替换。
type Manager struct {
	mu        sync.RWMutex
	path      string
	cfg       *Config
	callbacks []func(old, new *Config)

	logger logger.Logger
	timers *timer.Manager

	watcher   *fsnotify.Watcher
	quit      chan struct{}
	closeOnce sync.Once
}

// NewManager 创建配置管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cfg:    Default(),
		logger: logger.Default(),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timers == nil {
		m.timers = timer.NewManager(timer.WithLogger(m.logger))
	}
	return m
}

// Load 加载配置文件，path 为空时只使用默认值和环境变量
func (m *Manager) Load(path string) error {
	cfg, err := m.read(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.path = path
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// Get 返回当前配置
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Path 返回配置文件路径
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Reload 重新读取配置文件，成功后触发变更回调
func (m *Manager) Reload() error {
	path := m.Path()
	if path == "" {
		return ErrNotLoaded
	}

	cfg, err := m.read(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.cfg
	m.cfg = cfg
	callbacks := make([]func(old, new *Config), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	// 回调在锁外执行
	for _, cb := range callbacks {
		cb(old, cfg)
	}
	return nil
}

// OnChange 注册配置变更回调
func (m *Manager) OnChange(cb func(old, new *Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// Watch 监听配置文件，变化后经过 debounce 自动重新加载
func (m *Manager) Watch(debounce time.Duration) error {
	path := m.Path()
	if path == "" {
		return ErrNotLoaded
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return fmt.Errorf("add watch path failed: %w", err)
	}
	m.watcher = w

	reload := m.timers.Debounce(reloadTimerID, debounce, func() {
		if err := m.Reload(); err != nil {
			m.logger.Error("config auto reload failed", logger.String("path", path), logger.GetError(err))
			return
		}
		m.logger.Info("config auto reloaded", logger.String("path", path))
	})
	go m.watchLoop(w, reload)
	return nil
}

// Close 停止监听
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.quit)

		m.mu.Lock()
		if m.watcher != nil {
			m.watcher.Close()
			m.watcher = nil
		}
		m.mu.Unlock()

		_ = m.timers.RemoveTimer(reloadTimerID)
	})
}

/* ------------------------------ 内部方法 ------------------------------ */

// read 默认值 -> 配置文件 -> 环境变量，最后校验
//
// 时长配置整体生效：文件和环境变量都未指定任何时长时才使用默认时长。
func (m *Manager) read(path string) (*Config, error) {
	cfg := Default()
	defaultTimeout := cfg.Timeout
	cfg.Timeout = TimeoutConfig{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
		s := serializerFor(path)
		if err := s.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config failed (%s): %w", s.Name(), err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides failed: %w", err)
	}
	if cfg.Timeout.IsZero() {
		cfg.Timeout = defaultTimeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (m *Manager) watchLoop(w *fsnotify.Watcher, reload func()) {
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload()
			}
			// 部分编辑器以重命名方式保存，需要重新添加监听
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				_ = w.Add(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.logger.Warn("config watch error", logger.GetError(err))
		case <-m.quit:
			return
		}
	}
}
