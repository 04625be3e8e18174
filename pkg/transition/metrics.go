package transition

import "github.com/prometheus/client_golang/prometheus"

const namespace = "transition"

// Metrics 过渡控制器指标，nil 时所有方法为空操作
type Metrics struct {
	notifications *prometheus.CounterVec
	timers        *prometheus.CounterVec
	preemptions   prometheus.Counter
	staleTicks    prometheus.Counter
}

// NewMetrics 创建指标并注册到 reg，reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Count of state notifications emitted, by state.",
			},
			[]string{"state"},
		),
		timers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "timers_scheduled_total",
				Help:      "Count of one-shot timers scheduled, by the phase that owns them.",
			},
			[]string{"phase"},
		),
		preemptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preemptions_total",
			Help:      "Count of outstanding timers cancelled by an opposite visibility edge.",
		}),
		staleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_ticks_total",
			Help:      "Count of timer completions ignored because a newer edge superseded them.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.notifications, m.timers, m.preemptions, m.staleTicks)
	}
	return m
}

func (m *Metrics) notified(s State) {
	if m != nil {
		m.notifications.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) timerScheduled(p Phase) {
	if m != nil {
		m.timers.WithLabelValues(p.String()).Inc()
	}
}

func (m *Metrics) preempted() {
	if m != nil {
		m.preemptions.Inc()
	}
}

func (m *Metrics) staleTick() {
	if m != nil {
		m.staleTicks.Inc()
	}
}
