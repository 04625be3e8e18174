package statemachine

import "time"

// History 状态历史记录
type History[S, E comparable] struct {
	From      S         `json:"from"`
	To        S         `json:"to"`
	Event     E         `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

// record 追加一条记录，超出上限时丢弃最旧的记录，调用方需持有写锁
func (f *FSM[S, E]) record(from, to S, event E) {
	if f.historyLimit <= 0 {
		return
	}
	if len(f.history) >= f.historyLimit {
		copy(f.history, f.history[1:])
		f.history = f.history[:len(f.history)-1]
	}
	f.history = append(f.history, History[S, E]{
		From:      from,
		To:        to,
		Event:     event,
		Timestamp: f.clock.Now(),
	})
}

// History 获取状态历史
func (f *FSM[S, E]) History() []History[S, E] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]History[S, E]{}, f.history...)
}

// ClearHistory 清空历史记录
func (f *FSM[S, E]) ClearHistory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = nil
}
