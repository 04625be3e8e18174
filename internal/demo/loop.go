package demo

import (
	"context"
	"time"

	"github.com/junbin-yang/go-transition/pkg/logger"
	"github.com/junbin-yang/go-transition/pkg/timer"
)

const toggleTimerID = "demo/toggle"

// Clicker 以固定间隔点击按钮
type Clicker struct {
	App      *App
	Timers   *timer.Manager
	Interval time.Duration
	Cycles   int // 点击次数，0 表示不限
}

// Run 挂载示例程序并周期性点击，达到次数或 ctx 取消时返回
func (c *Clicker) Run(ctx context.Context) error {
	if err := c.App.Mount(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	clicks := 0
	err := c.Timers.CreateTimer(toggleTimerID, c.Interval, func() {
		if c.Cycles > 0 && clicks >= c.Cycles {
			return
		}
		if err := c.App.Toggle(ctx); err != nil {
			c.App.logger.Warn("toggle failed", logger.GetError(err))
		}
		clicks++
		if c.Cycles > 0 && clicks == c.Cycles {
			close(done)
		}
	})
	if err != nil {
		return err
	}
	defer c.Timers.RemoveTimer(toggleTimerID)

	select {
	case <-done:
		// 等最后一次过渡结束
		return c.settle(ctx)
	case <-ctx.Done():
		return nil
	}
}

// settle 等待最后一次过渡完成
func (c *Clicker) settle(ctx context.Context) error {
	wait := c.App.Controller().Timeout()
	d := wait.AppearDuration() + wait.EnterDuration()
	if exit := wait.ExitDuration(); exit > d {
		d = exit
	}
	if d <= 0 {
		return nil
	}

	t := c.Timers.Clock().NewTimer(d)
	defer t.Stop()
	select {
	case <-t.Chan():
	case <-ctx.Done():
	}
	return nil
}
