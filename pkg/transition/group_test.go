package transition

import (
	"context"
	"testing"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timeout"
)

func newGroupController(t *testing.T, id string) (*Controller, *fakeScheduler) {
	t.Helper()
	sched := newFakeScheduler()
	c := NewController(
		WithID(id),
		WithTimeout(timeout.Timeout{}.WithEnter(100)),
		WithScheduler(sched),
		WithLogger(logger.Nop()),
	)
	return c, sched
}

func TestGroup_AddGetRemove(t *testing.T) {
	g := NewGroup()
	c, sched := newGroupController(t, "a")

	if err := g.Add("a", c); err != nil {
		t.Fatalf("Add 失败: %v", err)
	}
	if err := g.Add("a", c); err != ErrControllerExists {
		t.Errorf("重复添加应返回 ErrControllerExists, got %v", err)
	}
	if got, ok := g.Get("a"); !ok || got != c {
		t.Error("Get 未返回已添加的控制器")
	}

	if err := g.SetVisible(context.Background(), "a", true); err != nil {
		t.Fatalf("SetVisible 失败: %v", err)
	}
	if c.Phase() != PhaseEntering {
		t.Errorf("阶段错误: %v", c.Phase())
	}

	if err := g.Remove("a"); err != nil {
		t.Fatalf("Remove 失败: %v", err)
	}
	if sched.outstanding() != 0 {
		t.Error("移除后控制器应被关闭")
	}
	if err := g.Remove("a"); err != ErrControllerNotFound {
		t.Errorf("期望 ErrControllerNotFound, got %v", err)
	}
	if err := g.SetVisible(context.Background(), "a", true); err != ErrControllerNotFound {
		t.Errorf("期望 ErrControllerNotFound, got %v", err)
	}
}

func TestGroup_SetAllVisible(t *testing.T) {
	g := NewGroup()
	names := []string{"header", "body", "footer"}
	for _, name := range names {
		c, _ := newGroupController(t, name)
		if err := g.Add(name, c); err != nil {
			t.Fatalf("Add 失败: %v", err)
		}
	}

	results := g.SetAllVisible(context.Background(), true)
	if len(results) != len(names) {
		t.Fatalf("结果数量错误: %d", len(results))
	}
	for name, err := range results {
		if err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}

	for name, phase := range g.Phases() {
		if phase != PhaseEntering {
			t.Errorf("%s 阶段错误: %v", name, phase)
		}
	}

	g.Close()
	if g.Count() != 0 {
		t.Errorf("Close 后数量应为0, got %d", g.Count())
	}
}
