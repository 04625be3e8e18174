package transition

import "github.com/junbin-yang/go-transition/pkg/statemachine"

// trigger 驱动阶段变化的事件
type trigger int

const (
	// triggerTick 定时器到期，按后继表前进一步
	triggerTick trigger = iota
	// triggerAppear 变为可见且 appear 时长非零
	triggerAppear
	// triggerEnter 变为可见且 appear 时长为零
	triggerEnter
	// triggerExit 变为不可见且 exit 时长非零
	triggerExit
	// triggerExitNow 变为不可见且 exit 时长为零
	triggerExitNow
)

func (t trigger) String() string {
	switch t {
	case triggerTick:
		return "tick"
	case triggerAppear:
		return "appear"
	case triggerEnter:
		return "enter"
	case triggerExit:
		return "exit"
	case triggerExitNow:
		return "exit-now"
	}
	return "unknown"
}

// phaseTable 阶段转换表
//
// Entered 没有 tick 后继：Entered -> Exiting 只能由可见性变化触发。
// Exiting 上的 appear/enter 以及 Mounted、Entering 上的 exit 用于抢占未完成的过渡。
var phaseTable = statemachine.Table[Phase, trigger]{
	// BeforeMount 和 Exited 不启动定时器，这两行只为补全后继表
	{From: PhaseBeforeMount, To: PhaseMounted, Event: triggerTick},
	{From: PhaseMounted, To: PhaseEntering, Event: triggerTick},
	{From: PhaseEntering, To: PhaseEntered, Event: triggerTick},
	{From: PhaseExiting, To: PhaseExited, Event: triggerTick},
	{From: PhaseExited, To: PhaseExited, Event: triggerTick},

	{From: PhaseBeforeMount, To: PhaseMounted, Event: triggerAppear},
	{From: PhaseExiting, To: PhaseMounted, Event: triggerAppear},
	{From: PhaseExited, To: PhaseMounted, Event: triggerAppear},

	{From: PhaseBeforeMount, To: PhaseEntering, Event: triggerEnter},
	{From: PhaseExiting, To: PhaseEntering, Event: triggerEnter},
	{From: PhaseExited, To: PhaseEntering, Event: triggerEnter},

	{From: PhaseMounted, To: PhaseExiting, Event: triggerExit},
	{From: PhaseEntering, To: PhaseExiting, Event: triggerExit},
	{From: PhaseEntered, To: PhaseExiting, Event: triggerExit},

	{From: PhaseMounted, To: PhaseExited, Event: triggerExitNow},
	{From: PhaseEntering, To: PhaseExited, Event: triggerExitNow},
	{From: PhaseEntered, To: PhaseExited, Event: triggerExitNow},
}
