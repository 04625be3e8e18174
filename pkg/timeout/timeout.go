package timeout

import (
	"fmt"
	"strings"
	"time"
)

// optional 可选的毫秒值
type optional struct {
	ms  uint32
	set bool
}

func some(ms uint32) optional {
	return optional{ms: ms, set: true}
}

// or 返回第一个已设置的值
func (o optional) or(other optional) optional {
	if o.set {
		return o
	}
	return other
}

func (o optional) unwrapOrZero() uint32 {
	if o.set {
		return o.ms
	}
	return 0
}

// Timeout 过渡时长配置（毫秒）
//
// 可以为 appear、enter、exit 三个阶段统一指定一个时长，也可以分别指定。
// 统一时长优先于分阶段时长：
//
//	t := timeout.New(300)
//	t := timeout.Timeout{}.WithEnter(100).WithExit(200)
type Timeout struct {
	uniform optional
	appear  optional
	enter   optional
	exit    optional
}

// New 创建三个阶段共用同一时长的配置
func New(ms uint32) Timeout {
	return Timeout{uniform: some(ms)}
}

// WithAppear 设置 mounted -> entering 的时长
func (t Timeout) WithAppear(ms uint32) Timeout {
	t.appear = some(ms)
	return t
}

// WithEnter 设置 entering -> entered 的时长
func (t Timeout) WithEnter(ms uint32) Timeout {
	t.enter = some(ms)
	return t
}

// WithExit 设置 exiting -> exited 的时长
func (t Timeout) WithExit(ms uint32) Timeout {
	t.exit = some(ms)
	return t
}

// Exit 返回 exiting -> exited 的时长
func (t Timeout) Exit() uint32 {
	return t.uniform.or(t.exit).unwrapOrZero()
}

// Enter 返回 entering -> entered 的时长
func (t Timeout) Enter() uint32 {
	return t.uniform.or(t.enter).unwrapOrZero()
}

// Appear 返回 mounted -> entering 的时长，未设置时回退到 enter
func (t Timeout) Appear() uint32 {
	return t.uniform.or(t.appear).or(t.enter).unwrapOrZero()
}

func (t Timeout) ExitDuration() time.Duration   { return millis(t.Exit()) }
func (t Timeout) EnterDuration() time.Duration  { return millis(t.Enter()) }
func (t Timeout) AppearDuration() time.Duration { return millis(t.Appear()) }

func millis(ms uint32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// String 输出已设置的字段，便于日志
func (t Timeout) String() string {
	var parts []string
	for _, f := range []struct {
		name string
		v    optional
	}{
		{"timeout", t.uniform},
		{"appear", t.appear},
		{"enter", t.enter},
		{"exit", t.exit},
	} {
		if f.v.set {
			parts = append(parts, fmt.Sprintf("%s=%dms", f.name, f.v.ms))
		}
	}
	return "Timeout{" + strings.Join(parts, " ") + "}"
}
