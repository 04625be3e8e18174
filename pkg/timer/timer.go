package timer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/junbin-yang/go-transition/pkg/logger"
)

// Info 定时器信息
type Info struct {
	ID        string
	Interval  time.Duration
	IsOnce    bool
	CreatedAt time.Time
}

// entry 运行中的定时器
type entry struct {
	info   Info
	fn     func()
	timer  clockwork.Timer
	ticker clockwork.Ticker
	quit   chan struct{}
}

func (e *entry) stop() {
	if e.timer != nil {
		e.timer.Stop()
	}
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.quit)
}

// Manager 定时器管理器
//
// 一次性定时器到期后先从管理器中移除，再执行回调，
// 因此回调内可以用相同ID重新创建定时器。
type Manager struct {
	mu     sync.RWMutex
	timers map[string]*entry
	clock  clockwork.Clock
	logger logger.Logger
}

// NewManager 创建定时器管理器
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timers: make(map[string]*entry),
		clock:  clockwork.NewRealClock(),
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Clock 返回管理器使用的时钟
func (m *Manager) Clock() clockwork.Clock {
	return m.clock
}

// CreateTimer 创建周期性定时器
func (m *Manager) CreateTimer(id string, interval time.Duration, fn func()) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.timers[id]; exists {
		return fmt.Errorf("%w: %s", ErrTimerExists, id)
	}
	m.startPeriodicLocked(id, interval, fn)
	return nil
}

// CreateOnceTimer 创建一次性定时器，delay <= 0 时尽快执行
func (m *Manager) CreateOnceTimer(id string, delay time.Duration, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.timers[id]; exists {
		return fmt.Errorf("%w: %s", ErrTimerExists, id)
	}
	m.startOnceLocked(id, delay, fn)
	return nil
}

// RemoveTimer 停止并移除定时器
func (m *Manager) RemoveTimer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.timers[id]
	if !exists {
		return ErrTimerNotFound
	}
	e.stop()
	delete(m.timers, id)
	return nil
}

// ResetTimer 以新的间隔重启定时器，保留回调和类型
func (m *Manager) ResetTimer(id string, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.timers[id]
	if !exists {
		return ErrTimerNotFound
	}
	if !e.info.IsOnce && interval <= 0 {
		return ErrInvalidInterval
	}

	e.stop()
	delete(m.timers, id)
	if e.info.IsOnce {
		m.startOnceLocked(id, interval, e.fn)
	} else {
		m.startPeriodicLocked(id, interval, e.fn)
	}
	return nil
}

// Debounce 返回防抖函数：连续调用时只在最后一次调用 delay 之后执行一次
func (m *Manager) Debounce(id string, delay time.Duration, fn func()) func() {
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if e, exists := m.timers[id]; exists {
			e.stop()
			delete(m.timers, id)
		}
		m.startOnceLocked(id, delay, fn)
	}
}

// GetTimer 获取定时器信息
func (m *Manager) GetTimer(id string) (Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.timers[id]
	if !exists {
		return Info{}, false
	}
	return e.info, true
}

// ListTimers 列出所有定时器ID（有序）
func (m *Manager) ListTimers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.timers))
	for id := range m.timers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetTimerCount 获取定时器数量
func (m *Manager) GetTimerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.timers)
}

// StopAll 停止所有定时器
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, e := range m.timers {
		e.stop()
		delete(m.timers, id)
	}
}

/* ------------------------------ 内部方法 ------------------------------ */

func (m *Manager) newEntry(id string, interval time.Duration, once bool, fn func()) *entry {
	e := &entry{
		info: Info{
			ID:        id,
			Interval:  interval,
			IsOnce:    once,
			CreatedAt: m.clock.Now(),
		},
		fn:   fn,
		quit: make(chan struct{}),
	}
	m.timers[id] = e
	return e
}

func (m *Manager) startOnceLocked(id string, delay time.Duration, fn func()) {
	e := m.newEntry(id, delay, true, fn)

	var fire <-chan time.Time
	if delay > 0 {
		e.timer = m.clock.NewTimer(delay)
		fire = e.timer.Chan()
	} else {
		ch := make(chan time.Time, 1)
		ch <- m.clock.Now()
		fire = ch
	}

	go func() {
		select {
		case <-fire:
		case <-e.quit:
			return
		}

		m.mu.Lock()
		if m.timers[id] != e {
			// 已被移除或替换
			m.mu.Unlock()
			return
		}
		delete(m.timers, id)
		m.mu.Unlock()

		m.run(e)
	}()
}

func (m *Manager) startPeriodicLocked(id string, interval time.Duration, fn func()) {
	e := m.newEntry(id, interval, false, fn)
	e.ticker = m.clock.NewTicker(interval)

	go func() {
		for {
			select {
			case <-e.ticker.Chan():
				select {
				case <-e.quit:
					return
				default:
				}
				m.run(e)
			case <-e.quit:
				return
			}
		}
	}()
}

// run 执行回调，回调 panic 不影响管理器
func (m *Manager) run(e *entry) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("timer callback panic",
				logger.String("id", e.info.ID),
				logger.Any("panic", r),
			)
		}
	}()
	e.fn()
}
