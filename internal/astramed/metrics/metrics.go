// Package metrics 提供 AstraMed 问答流水线的 Prometheus 业务指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the common metric prefix.
const Namespace = "astramed"

// Metrics 流水线指标集合。nil 接收者上的方法都是空操作。
type Metrics struct {
	answers           *prometheus.CounterVec
	noEvidence        prometheus.Counter
	synthesisFailures prometheus.Counter
	candidates        prometheus.Histogram
	answerDuration    *prometheus.HistogramVec
	routes            *prometheus.CounterVec
	feedback          *prometheus.CounterVec
}

// New 创建并向 reg 注册全部指标。
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "answers_total",
			Help:      "Answers served, by response type.",
		}, []string{"type"}),
		noEvidence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "no_evidence_total",
			Help:      "Medical queries for which no candidate cleared the threshold.",
		}),
		synthesisFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "synthesis_failures_total",
			Help:      "Failed synthesis or general reply model calls.",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "candidates",
			Help:      "Number of candidates kept after threshold filtering.",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		answerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "answer_duration_seconds",
			Help:      "End to end answer latency in seconds.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"type"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "route_decisions_total",
			Help:      "Router decisions, by strategy and route.",
		}, []string{"strategy", "route"}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "feedback_total",
			Help:      "Feedback records received, by rating.",
		}, []string{"rating"}),
	}

	for _, c := range []prometheus.Collector{
		m.answers, m.noEvidence, m.synthesisFailures, m.candidates,
		m.answerDuration, m.routes, m.feedback,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveAnswer 记录一次回答及其耗时，失败时 typ 为 "error"。
func (m *Metrics) ObserveAnswer(typ string, d time.Duration) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(typ).Inc()
	m.answerDuration.WithLabelValues(typ).Observe(d.Seconds())
}

// ObserveCandidates 记录过滤后的候选数量。
func (m *Metrics) ObserveCandidates(n int) {
	if m == nil {
		return
	}
	m.candidates.Observe(float64(n))
	if n == 0 {
		m.noEvidence.Inc()
	}
}

// IncSynthesisFailure 记录一次生成失败。
func (m *Metrics) IncSynthesisFailure() {
	if m == nil {
		return
	}
	m.synthesisFailures.Inc()
}

// IncRoute 记录一次路由决策。
func (m *Metrics) IncRoute(strategy, route string) {
	if m == nil {
		return
	}
	m.routes.WithLabelValues(strategy, route).Inc()
}

// IncFeedback 记录一条反馈。
func (m *Metrics) IncFeedback(rating int) {
	if m == nil {
		return
	}
	m.feedback.WithLabelValues(strconv.Itoa(rating)).Inc()
}
