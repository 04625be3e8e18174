package transition

import (
	"context"
	"sync"
)

// Group 按名称管理多个控制器，每个被跟踪的可见性信号对应一个控制器
type Group struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewGroup 创建控制器分组
func NewGroup() *Group {
	return &Group{
		controllers: make(map[string]*Controller),
	}
}

// Add 添加控制器
func (g *Group) Add(name string, c *Controller) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.controllers[name]; exists {
		return ErrControllerExists
	}
	g.controllers[name] = c
	return nil
}

// Remove 移除并关闭控制器
func (g *Group) Remove(name string) error {
	g.mu.Lock()
	c, exists := g.controllers[name]
	delete(g.controllers, name)
	g.mu.Unlock()

	if !exists {
		return ErrControllerNotFound
	}
	c.Close()
	return nil
}

// Get 获取控制器
func (g *Group) Get(name string) (*Controller, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, exists := g.controllers[name]
	return c, exists
}

// SetVisible 设置指定控制器的可见性
func (g *Group) SetVisible(ctx context.Context, name string, visible bool) error {
	c, exists := g.Get(name)
	if !exists {
		return ErrControllerNotFound
	}
	return c.SetVisible(ctx, visible)
}

// SetAllVisible 并发设置所有控制器的可见性
func (g *Group) SetAllVisible(ctx context.Context, visible bool) map[string]error {
	g.mu.RLock()
	controllers := make(map[string]*Controller, len(g.controllers))
	for name, c := range g.controllers {
		controllers[name] = c
	}
	g.mu.RUnlock()

	results := make(map[string]error, len(controllers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, c := range controllers {
		wg.Add(1)
		go func(n string, c *Controller) {
			defer wg.Done()
			err := c.SetVisible(ctx, visible)
			mu.Lock()
			results[n] = err
			mu.Unlock()
		}(name, c)
	}

	wg.Wait()
	return results
}

// Phases 获取所有控制器的当前阶段
func (g *Group) Phases() map[string]Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()

	phases := make(map[string]Phase, len(g.controllers))
	for name, c := range g.controllers {
		phases[name] = c.Phase()
	}
	return phases
}

// Count 返回控制器数量
func (g *Group) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.controllers)
}

// Close 关闭并移除所有控制器
func (g *Group) Close() {
	g.mu.Lock()
	controllers := g.controllers
	g.controllers = make(map[string]*Controller)
	g.mu.Unlock()

	for _, c := range controllers {
		c.Close()
	}
}
