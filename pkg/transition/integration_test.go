package transition

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timeout"
	"github.com/junbin-yang/go-transition/pkg/timer"
)

func expectState(t *testing.T, ch <-chan State, want State) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("通知错误: got %v, want %v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("等待 %v 通知超时", want)
	}
}

func expectNoState(t *testing.T, ch <-chan State) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("不应收到通知, got %v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestController_WithTimerManager(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := timer.NewManager(timer.WithClock(clock), timer.WithLogger(logger.Nop()))
	defer tm.StopAll()

	states := make(chan State, 8)
	c := NewController(
		WithTimeout(timeout.New(300)),
		WithScheduler(tm),
		WithClock(clock),
		WithLogger(logger.Nop()),
		WithNotify(func(s State) { states <- s }),
	)
	defer c.Close()

	ctx := context.Background()
	if err := c.SetVisible(ctx, true); err != nil {
		t.Fatalf("SetVisible 失败: %v", err)
	}
	expectNoState(t, states)

	clock.Advance(299 * time.Millisecond)
	expectNoState(t, states)

	clock.Advance(time.Millisecond)
	expectState(t, states, Entering)

	clock.Advance(300 * time.Millisecond)
	expectState(t, states, Entered)
	if tm.GetTimerCount() != 0 {
		t.Errorf("Entered 后不应有定时器, 实际 %d 个", tm.GetTimerCount())
	}

	if err := c.SetVisible(ctx, false); err != nil {
		t.Fatalf("SetVisible 失败: %v", err)
	}
	expectState(t, states, Exiting)

	clock.Advance(300 * time.Millisecond)
	expectState(t, states, Exited)
}

func TestController_WithTimerManagerPreempt(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tm := timer.NewManager(timer.WithClock(clock), timer.WithLogger(logger.Nop()))
	defer tm.StopAll()

	states := make(chan State, 8)
	c := NewController(
		WithTimeout(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(100)),
		WithScheduler(tm),
		WithLogger(logger.Nop()),
		WithNotify(func(s State) { states <- s }),
	)
	defer c.Close()

	ctx := context.Background()
	_ = c.SetVisible(ctx, true)
	expectState(t, states, Entering)

	clock.Advance(50 * time.Millisecond)
	_ = c.SetVisible(ctx, false)
	expectState(t, states, Exiting)

	// 原 enter 定时器的到期时刻不应产生 Entered
	clock.Advance(50 * time.Millisecond)
	expectNoState(t, states)

	clock.Advance(50 * time.Millisecond)
	expectState(t, states, Exited)
	if c.Phase() != PhaseExited {
		t.Errorf("阶段错误: %v", c.Phase())
	}
}
