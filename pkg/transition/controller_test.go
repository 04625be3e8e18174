package transition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timeout"
)

// recorder 记录通知序列
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) notify(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) got() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

type fixture struct {
	c       *Controller
	sched   *fakeScheduler
	rec     *recorder
	metrics *Metrics
}

func newFixture(to timeout.Timeout, opts ...Option) *fixture {
	f := &fixture{
		sched:   newFakeScheduler(),
		rec:     &recorder{},
		metrics: NewMetrics(prometheus.NewRegistry()),
	}
	base := []Option{
		WithID("test"),
		WithTimeout(to),
		WithScheduler(f.sched),
		WithNotify(f.rec.notify),
		WithLogger(logger.Nop()),
		WithMetrics(f.metrics),
	}
	f.c = NewController(append(base, opts...)...)
	return f
}

func (f *fixture) setVisible(t *testing.T, visible bool) {
	t.Helper()
	if err := f.c.SetVisible(context.Background(), visible); err != nil {
		t.Fatalf("SetVisible(%v) 失败: %v", visible, err)
	}
}

func (f *fixture) expectPhase(t *testing.T, want Phase) {
	t.Helper()
	if got := f.c.Phase(); got != want {
		t.Fatalf("阶段错误: got %v, want %v", got, want)
	}
}

func (f *fixture) expectStates(t *testing.T, want ...State) {
	t.Helper()
	if diff := cmp.Diff(want, f.rec.got()); diff != "" {
		t.Fatalf("通知序列不符 (-want +got):\n%s", diff)
	}
}

func TestController_HiddenFromStart(t *testing.T) {
	f := newFixture(timeout.New(300))

	f.setVisible(t, false)

	f.expectPhase(t, PhaseBeforeMount)
	f.expectStates(t)
	if f.sched.scheduledCount() != 0 {
		t.Error("不可见时不应调度定时器")
	}
	if f.c.Mounted() {
		t.Error("BeforeMount 阶段不应渲染")
	}
	if _, ok := f.c.State(); ok {
		t.Error("BeforeMount 阶段不应有对外状态")
	}
}

func TestController_EnterThroughMounted(t *testing.T) {
	f := newFixture(timeout.New(300))

	f.setVisible(t, true)
	f.expectPhase(t, PhaseMounted)
	f.expectStates(t)
	if !f.c.Mounted() {
		t.Error("Mounted 阶段应渲染子内容")
	}

	if d := f.sched.fire(t); d != 300*time.Millisecond {
		t.Errorf("appear 定时器时长错误: %v", d)
	}
	f.expectPhase(t, PhaseEntering)
	f.expectStates(t, Entering)

	if d := f.sched.fire(t); d != 300*time.Millisecond {
		t.Errorf("enter 定时器时长错误: %v", d)
	}
	f.expectPhase(t, PhaseEntered)
	f.expectStates(t, Entering, Entered)

	if f.sched.outstanding() != 0 {
		t.Error("Entered 阶段不应有未完成的定时器")
	}
}

func TestController_EnterWithoutAppear(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100))

	f.setVisible(t, true)
	f.expectPhase(t, PhaseEntering)
	f.expectStates(t, Entering)

	if d := f.sched.fire(t); d != 100*time.Millisecond {
		t.Errorf("enter 定时器时长错误: %v", d)
	}
	f.expectStates(t, Entering, Entered)
}

func TestController_ExitSequence(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(250))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.expectStates(t, Entering, Entered)

	f.setVisible(t, false)
	f.expectPhase(t, PhaseExiting)
	f.expectStates(t, Entering, Entered, Exiting)

	if d := f.sched.fire(t); d != 250*time.Millisecond {
		t.Errorf("exit 定时器时长错误: %v", d)
	}
	f.expectPhase(t, PhaseExited)
	f.expectStates(t, Entering, Entered, Exiting, Exited)

	if f.sched.outstanding() != 0 {
		t.Error("Exited 后不应再有定时器")
	}
	if !f.c.Mounted() {
		t.Error("Exited 阶段子内容仍应渲染")
	}
}

func TestController_ZeroExitIsImmediate(t *testing.T) {
	f := newFixture(timeout.Timeout{})

	f.setVisible(t, true)
	f.expectPhase(t, PhaseEntering)
	if d := f.sched.fire(t); d != 0 {
		t.Errorf("enter 时长应为0, got %v", d)
	}
	scheduled := f.sched.scheduledCount()

	f.setVisible(t, false)
	f.expectPhase(t, PhaseExited)
	f.expectStates(t, Entering, Entered, Exited)
	if f.sched.scheduledCount() != scheduled {
		t.Error("exit 时长为0时不应调度定时器")
	}
}

func TestController_RepeatedVisibleIsIdempotent(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100))

	f.setVisible(t, true)
	f.setVisible(t, true)
	f.expectStates(t, Entering)
	if f.sched.scheduledCount() != 1 {
		t.Errorf("重复信号不应调度新定时器, 实际 %d 个", f.sched.scheduledCount())
	}

	f.sched.fire(t)
	f.setVisible(t, true)
	f.expectStates(t, Entering, Entered)
	if f.sched.scheduledCount() != 1 {
		t.Error("Entered 阶段重复信号不应调度定时器")
	}

	f.setVisible(t, false)
	f.sched.fire(t)
	f.setVisible(t, false)
	f.expectStates(t, Entering, Entered, Exiting, Exited)
}

func TestController_NoTickFromEntered(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(100))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.expectPhase(t, PhaseEntered)

	if f.c.fsm.Can(triggerTick) {
		t.Fatal("Entered 阶段不应有 tick 后继")
	}

	// 直接按转换表推进一次 tick
	f.c.mu.Lock()
	err := f.c.fire(context.Background(), triggerTick)
	f.c.mu.Unlock()
	if err != nil {
		t.Fatalf("tick 不应返回错误: %v", err)
	}
	f.expectPhase(t, PhaseEntered)
	f.expectStates(t, Entering, Entered)
	if f.sched.outstanding() != 0 {
		t.Error("Entered 阶段不应调度定时器")
	}
}

func TestController_PreemptExitWithEnter(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(300))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.setVisible(t, false)
	f.expectPhase(t, PhaseExiting)

	f.setVisible(t, true)
	f.expectPhase(t, PhaseEntering)
	f.expectStates(t, Entering, Entered, Exiting, Entering)
	if f.sched.outstanding() != 1 {
		t.Fatalf("抢占后应只有1个定时器, 实际 %d 个", f.sched.outstanding())
	}

	// 被抢占的 exit 定时器迟到
	f.sched.fireRemoved(t)
	f.expectPhase(t, PhaseEntering)

	f.sched.fire(t)
	f.expectStates(t, Entering, Entered, Exiting, Entering, Entered)

	if got := testutil.ToFloat64(f.metrics.preemptions); got != 1 {
		t.Errorf("preemptions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(f.metrics.staleTicks); got != 1 {
		t.Errorf("stale ticks = %v, want 1", got)
	}
}

func TestController_PreemptEnterWithExit(t *testing.T) {
	f := newFixture(timeout.New(200))

	f.setVisible(t, true)
	f.expectPhase(t, PhaseMounted)

	f.setVisible(t, false)
	f.expectPhase(t, PhaseExiting)
	f.expectStates(t, Exiting)

	f.sched.fireRemoved(t)
	f.expectPhase(t, PhaseExiting)

	f.sched.fire(t)
	f.expectPhase(t, PhaseExited)
	f.expectStates(t, Exiting, Exited)
}

func TestController_PreemptEnteringWithImmediateExit(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100))

	f.setVisible(t, true)
	f.setVisible(t, false)

	f.expectPhase(t, PhaseExited)
	f.expectStates(t, Entering, Exited)
	if f.sched.outstanding() != 0 {
		t.Error("立即退出后不应有未完成的定时器")
	}

	f.sched.fireRemoved(t)
	f.expectPhase(t, PhaseExited)
	f.expectStates(t, Entering, Exited)
}

func TestController_ReenterAfterExit(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(50).WithEnter(100).WithExit(100))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.sched.fire(t)
	f.setVisible(t, false)
	f.sched.fire(t)
	f.expectPhase(t, PhaseExited)

	f.setVisible(t, true)
	f.expectPhase(t, PhaseMounted)
	if d := f.sched.fire(t); d != 50*time.Millisecond {
		t.Errorf("再次进入时 appear 时长错误: %v", d)
	}
	f.sched.fire(t)
	f.expectStates(t, Entering, Entered, Exiting, Exited, Entering, Entered)
}

func TestController_SetTimeout(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(100))

	f.setVisible(t, true)
	f.c.SetTimeout(timeout.New(500))
	if f.c.Timeout() != timeout.New(500) {
		t.Errorf("Timeout() = %v", f.c.Timeout())
	}

	// 已调度的定时器不受影响，下一次调度使用新配置
	if d := f.sched.fire(t); d != 100*time.Millisecond {
		t.Errorf("已调度定时器时长错误: %v", d)
	}
	f.setVisible(t, false)
	if d := f.sched.fire(t); d != 500*time.Millisecond {
		t.Errorf("新配置未生效: %v", d)
	}
}

func TestController_Close(t *testing.T) {
	f := newFixture(timeout.New(100))

	f.setVisible(t, true)
	f.c.Close()
	f.c.Close()

	if f.sched.outstanding() != 0 {
		t.Error("关闭后定时器应被移除")
	}
	f.sched.fireRemoved(t)
	f.expectPhase(t, PhaseMounted)

	if err := f.c.SetVisible(context.Background(), false); err != ErrClosed {
		t.Errorf("期望 ErrClosed, got %v", err)
	}
}

func TestController_CanceledContext(t *testing.T) {
	f := newFixture(timeout.New(100))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.c.SetVisible(ctx, true); !errors.Is(err, context.Canceled) {
		t.Errorf("期望 context.Canceled, got %v", err)
	}
	f.expectPhase(t, PhaseBeforeMount)
}

func TestController_SchedulerError(t *testing.T) {
	f := newFixture(timeout.New(100))
	f.sched.failWith = errors.New("scheduler down")

	err := f.c.SetVisible(context.Background(), true)
	if err == nil || !errors.Is(err, f.sched.failWith) {
		t.Errorf("期望包装的调度错误, got %v", err)
	}
	f.expectPhase(t, PhaseBeforeMount)
	f.expectStates(t)

	// 调度恢复后重试应正常进入
	f.sched.failWith = nil
	f.setVisible(t, true)
	f.expectPhase(t, PhaseMounted)
	if f.sched.outstanding() != 1 {
		t.Fatalf("重试后应有1个定时器, 实际 %d 个", f.sched.outstanding())
	}
	f.sched.fire(t)
	f.sched.fire(t)
	f.expectStates(t, Entering, Entered)
}

func TestController_SchedulerErrorDuringPreempt(t *testing.T) {
	f := newFixture(timeout.Timeout{}.WithAppear(0).WithEnter(100).WithExit(300))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.setVisible(t, false)
	f.expectPhase(t, PhaseExiting)

	// 只让下一次调度失败
	f.sched.failWith = errors.New("scheduler down")
	f.sched.failOnce = true
	if err := f.c.SetVisible(context.Background(), true); err == nil {
		t.Fatal("期望调度错误")
	}
	f.expectPhase(t, PhaseExiting)
	if f.sched.outstanding() != 1 {
		t.Fatalf("失败后应为原阶段恢复定时器, 实际 %d 个", f.sched.outstanding())
	}

	f.setVisible(t, true)
	f.expectPhase(t, PhaseEntering)
	f.expectStates(t, Entering, Entered, Exiting, Entering)
}

func TestController_NotifyMayReadPhase(t *testing.T) {
	var seen []Phase
	var c *Controller
	sched := newFakeScheduler()
	c = NewController(
		WithTimeout(timeout.Timeout{}.WithExit(10)),
		WithScheduler(sched),
		WithLogger(logger.Nop()),
		WithNotify(func(s State) {
			seen = append(seen, c.Phase())
		}),
	)

	ctx := context.Background()
	_ = c.SetVisible(ctx, true)
	sched.fire(t)
	_ = c.SetVisible(ctx, false)

	want := []Phase{PhaseEntering, PhaseEntered, PhaseExiting}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("回调内读取的阶段不符 (-want +got):\n%s", diff)
	}
}

func TestController_History(t *testing.T) {
	f := newFixture(timeout.New(100))

	f.setVisible(t, true)
	f.sched.fire(t)
	f.sched.fire(t)
	f.setVisible(t, false)

	var got []string
	for _, r := range f.c.History() {
		got = append(got, r.From.String()+">"+r.To.String()+":"+r.Cause)
	}
	want := []string{
		"before-mount>mounted:appear",
		"mounted>entering:tick",
		"entering>entered:tick",
		"entered>exiting:exit",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("历史记录不符 (-want +got):\n%s", diff)
	}
}

func TestController_DefaultID(t *testing.T) {
	a := NewController(WithScheduler(newFakeScheduler()), WithLogger(logger.Nop()))
	b := NewController(WithScheduler(newFakeScheduler()), WithLogger(logger.Nop()))

	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("默认ID应唯一: %q %q", a.ID(), b.ID())
	}
}

func TestRender(t *testing.T) {
	f := newFixture(timeout.New(100))

	if _, ok := Render(f.c, "Hello, World!"); ok {
		t.Error("BeforeMount 阶段不应渲染")
	}

	f.setVisible(t, true)
	child, ok := Render(f.c, "Hello, World!")
	if !ok || child != "Hello, World!" {
		t.Errorf("挂载后应原样输出子内容: %q %v", child, ok)
	}
}

func TestPhase_External(t *testing.T) {
	cases := map[Phase]struct {
		state State
		ok    bool
	}{
		PhaseBeforeMount: {0, false},
		PhaseMounted:     {0, false},
		PhaseEntering:    {Entering, true},
		PhaseEntered:     {Entered, true},
		PhaseExiting:     {Exiting, true},
		PhaseExited:      {Exited, true},
	}
	for p, want := range cases {
		s, ok := p.External()
		if ok != want.ok || (ok && s != want.state) {
			t.Errorf("%v.External() = %v, %v", p, s, ok)
		}
	}
}
