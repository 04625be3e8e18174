package transition

import "fmt"

// State 子内容可见的四个过渡状态
type State int

const (
	Entering State = iota
	Entered
	Exiting
	Exited
)

func (s State) String() string {
	switch s {
	case Entering:
		return "entering"
	case Entered:
		return "entered"
	case Exiting:
		return "exiting"
	case Exited:
		return "exited"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Phase 控制器内部的完整阶段
type Phase int

const (
	// PhaseBeforeMount 子内容尚未挂载
	PhaseBeforeMount Phase = iota
	// PhaseMounted 子内容已挂载，enter 动画尚未开始
	PhaseMounted
	PhaseEntering
	PhaseEntered
	PhaseExiting
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeMount:
		return "before-mount"
	case PhaseMounted:
		return "mounted"
	case PhaseEntering, PhaseEntered, PhaseExiting, PhaseExited:
		s, _ := p.External()
		return s.String()
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// External 返回对外可见的状态，BeforeMount 和 Mounted 不对外暴露
func (p Phase) External() (State, bool) {
	switch p {
	case PhaseEntering:
		return Entering, true
	case PhaseEntered:
		return Entered, true
	case PhaseExiting:
		return Exiting, true
	case PhaseExited:
		return Exited, true
	case PhaseBeforeMount, PhaseMounted:
		return 0, false
	}
	return 0, false
}
