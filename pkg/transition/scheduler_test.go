package transition

import (
	"sync"
	"testing"
	"time"

	"github.com/junbin-yang/go-transition/pkg/timer"
)

// fakeScheduler 手动触发的定时器服务
type fakeScheduler struct {
	mu        sync.Mutex
	timers    map[string]fakeTimer
	scheduled []time.Duration
	removed   []func() // 被移除的回调，用于模拟过期到期
	failWith  error
	failOnce  bool // failWith 只生效一次
}

type fakeTimer struct {
	delay time.Duration
	fn    func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{timers: make(map[string]fakeTimer)}
}

func (f *fakeScheduler) CreateOnceTimer(id string, delay time.Duration, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failWith; err != nil {
		if f.failOnce {
			f.failWith = nil
		}
		return err
	}
	if _, exists := f.timers[id]; exists {
		return timer.ErrTimerExists
	}
	f.timers[id] = fakeTimer{delay: delay, fn: fn}
	f.scheduled = append(f.scheduled, delay)
	return nil
}

func (f *fakeScheduler) RemoveTimer(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tm, exists := f.timers[id]
	if !exists {
		return timer.ErrTimerNotFound
	}
	delete(f.timers, id)
	f.removed = append(f.removed, tm.fn)
	return nil
}

func (f *fakeScheduler) outstanding() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *fakeScheduler) scheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scheduled)
}

// fire 触发唯一未完成的定时器，返回其时长
func (f *fakeScheduler) fire(t *testing.T) time.Duration {
	t.Helper()

	f.mu.Lock()
	if len(f.timers) != 1 {
		f.mu.Unlock()
		t.Fatalf("期望恰好1个未完成的定时器, 实际 %d 个", len(f.timers))
	}
	var tm fakeTimer
	for id, v := range f.timers {
		tm = v
		delete(f.timers, id)
	}
	f.mu.Unlock()

	tm.fn()
	return tm.delay
}

// fireRemoved 触发最近一个被移除的回调
func (f *fakeScheduler) fireRemoved(t *testing.T) {
	t.Helper()

	f.mu.Lock()
	if len(f.removed) == 0 {
		f.mu.Unlock()
		t.Fatal("没有被移除的定时器")
	}
	fn := f.removed[len(f.removed)-1]
	f.mu.Unlock()

	fn()
}
