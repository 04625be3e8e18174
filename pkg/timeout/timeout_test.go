package timeout

import (
	"testing"
	"time"
)

func TestTimeout_Resolve(t *testing.T) {
	tests := []struct {
		name                string
		timeout             Timeout
		exit, enter, appear uint32
	}{
		{"全部缺省", Timeout{}, 0, 0, 0},
		{"统一时长", New(300), 300, 300, 300},
		{"统一时长优先于分阶段", New(300).WithAppear(10).WithEnter(20).WithExit(30), 300, 300, 300},
		{"appear回退到enter", Timeout{}.WithEnter(100).WithExit(200), 200, 100, 100},
		{"显式appear", Timeout{}.WithAppear(50).WithEnter(100), 0, 100, 50},
		{"仅exit", Timeout{}.WithExit(250), 250, 0, 0},
		{"显式零值", New(0).WithEnter(100), 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.timeout.Exit(); got != tt.exit {
				t.Errorf("Exit() = %d, 期望 %d", got, tt.exit)
			}
			if got := tt.timeout.Enter(); got != tt.enter {
				t.Errorf("Enter() = %d, 期望 %d", got, tt.enter)
			}
			if got := tt.timeout.Appear(); got != tt.appear {
				t.Errorf("Appear() = %d, 期望 %d", got, tt.appear)
			}
		})
	}
}

func TestTimeout_BuilderDoesNotMutate(t *testing.T) {
	base := Timeout{}.WithEnter(100)
	_ = base.WithExit(200)

	if base.Exit() != 0 {
		t.Errorf("构造器不应修改原值, Exit() = %d", base.Exit())
	}
	if base != (Timeout{}).WithEnter(100) {
		t.Error("相同字段的配置应相等")
	}
}

func TestTimeout_Durations(t *testing.T) {
	to := Timeout{}.WithAppear(5).WithEnter(100).WithExit(250)

	if to.AppearDuration() != 5*time.Millisecond {
		t.Errorf("AppearDuration() = %v", to.AppearDuration())
	}
	if to.EnterDuration() != 100*time.Millisecond {
		t.Errorf("EnterDuration() = %v", to.EnterDuration())
	}
	if to.ExitDuration() != 250*time.Millisecond {
		t.Errorf("ExitDuration() = %v", to.ExitDuration())
	}
}

func TestTimeout_String(t *testing.T) {
	if got := New(300).String(); got != "Timeout{timeout=300ms}" {
		t.Errorf("String() = %q", got)
	}
	if got := (Timeout{}).WithEnter(1).WithExit(2).String(); got != "Timeout{enter=1ms exit=2ms}" {
		t.Errorf("String() = %q", got)
	}
}
